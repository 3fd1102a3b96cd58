package repo

import (
	"context"
	"errors"
	"testing"

	"github.com/tbourn/gitcord/internal/domain"
)

func TestCreateUser_AssignsIDAndRejectsDuplicates(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	u := &domain.User{DiscordID: "d1", GitHubID: 10, Login: "octo", AccessToken: "sealed"}
	if err := CreateUser(ctx, db, u); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if u.ID == "" || u.CreatedAt.IsZero() {
		t.Fatalf("expected id and timestamps, got %+v", u)
	}

	err := CreateUser(ctx, db, &domain.User{DiscordID: "d2", GitHubID: 10, Login: "octo", AccessToken: "x"})
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate for reused github id, got %v", err)
	}
}

func TestGetUser_ByDiscordAndGitHubID(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	if !db.Migrator().HasColumn(&domain.User{}, "github_id") {
		t.Fatal("users.github_id column missing")
	}
	if err := CreateUser(ctx, db, &domain.User{DiscordID: "d1", GitHubID: 10, Login: "octo", AccessToken: "x"}); err != nil {
		t.Fatal(err)
	}

	u, err := GetUserByDiscordID(ctx, db, "d1")
	if err != nil || u.Login != "octo" {
		t.Fatalf("GetUserByDiscordID = %+v, %v", u, err)
	}
	u, err = GetUserByGitHubID(ctx, db, 10)
	if err != nil || u.DiscordID != "d1" {
		t.Fatalf("GetUserByGitHubID = %+v, %v", u, err)
	}
	if _, err := GetUserByDiscordID(ctx, db, "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateUserFlags(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	u := &domain.User{DiscordID: "d1", GitHubID: 10, Login: "octo", AccessToken: "x"}
	if err := CreateUser(ctx, db, u); err != nil {
		t.Fatal(err)
	}

	if err := UpdateUserFlags(ctx, db, u.ID, map[string]bool{"ephemeral": true}); err != nil {
		t.Fatalf("UpdateUserFlags: %v", err)
	}
	got, _ := GetUserByDiscordID(ctx, db, "d1")
	if !got.Ephemeral || got.Simplified {
		t.Fatalf("flags not applied: %+v", got)
	}

	// Setting false must be written, not skipped as a zero value.
	if err := UpdateUserFlags(ctx, db, u.ID, map[string]bool{"ephemeral": false}); err != nil {
		t.Fatal(err)
	}
	got, _ = GetUserByDiscordID(ctx, db, "d1")
	if got.Ephemeral {
		t.Fatalf("expected ephemeral=false")
	}

	if err := UpdateUserFlags(ctx, db, "missing", map[string]bool{"simplified": true}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteUser_RemovesSettings(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	u := &domain.User{DiscordID: "d1", GitHubID: 10, Login: "octo", AccessToken: "x"}
	if err := CreateUser(ctx, db, u); err != nil {
		t.Fatal(err)
	}
	if err := UpsertRepoSetting(ctx, db, &domain.RepoSetting{UserID: u.ID, Owner: "o", Repo: "r"}); err != nil {
		t.Fatal(err)
	}

	if err := DeleteUser(ctx, db, u.ID); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}
	if _, err := GetRepoSetting(ctx, db, u.ID, "o", "r"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected settings removed, got %v", err)
	}
	if err := DeleteUser(ctx, db, u.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

