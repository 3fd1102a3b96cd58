// Package services – ProfileService
//
// This file implements the ProfileService, which owns linked accounts: it
// creates them (sealing the GitHub token), resolves them for command
// execution (opening the token), edits misc and per-repository settings and
// deletes them on unlink.
package services

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/tbourn/gitcord/internal/domain"
	"github.com/tbourn/gitcord/internal/repo"
	"github.com/tbourn/gitcord/internal/secrets"
)

// LinkResult is the user-facing outcome of linking an account.
type LinkResult string

const (
	LinkSuccess       LinkResult = "User linked successfully"
	LinkGitHubTaken   LinkResult = "This github account is already linked to a discord account"
	LinkDiscordLinked LinkResult = "This discord account is already linked to a github account"
)

// NewProfile describes an account about to be linked.
type NewProfile struct {
	DiscordID   string
	GitHubID    int64
	Login       string
	Name        string
	AccessToken string
}

// MiscSettings are the per-user output flags; nil fields are left unchanged.
type MiscSettings struct {
	Ephemeral  *bool
	Simplified *bool
}

// RepoSettingsEdit updates automation for one repository; nil fields keep
// their stored value.
type RepoSettingsEdit struct {
	Owner         string
	Repo          string
	AutoProject   *string
	AutoAssignees *string
}

// ProfileService implements the account use-cases on top of the repo
// package.
type ProfileService struct {
	DB     *gorm.DB
	Sealer *secrets.Sealer
}

// NewProfileService constructs a ProfileService.
func NewProfileService(db *gorm.DB, sealer *secrets.Sealer) *ProfileService {
	return &ProfileService{DB: db, Sealer: sealer}
}

// FindByDiscordID returns the account linked to discordID or ErrNotLinked.
func (s *ProfileService) FindByDiscordID(ctx context.Context, discordID string) (*domain.User, error) {
	u, err := repo.GetUserByDiscordID(ctx, s.DB, discordID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrNotLinked
	}
	return u, err
}

// FindByGitHubID returns the account linked to githubID or ErrNotLinked.
func (s *ProfileService) FindByGitHubID(ctx context.Context, githubID int64) (*domain.User, error) {
	u, err := repo.GetUserByGitHubID(ctx, s.DB, githubID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrNotLinked
	}
	return u, err
}

// Init links a Discord user to a GitHub account. A GitHub account already
// linked elsewhere, or a Discord user already linked, yields the matching
// LinkResult without error.
func (s *ProfileService) Init(ctx context.Context, p NewProfile) (LinkResult, error) {
	if strings.TrimSpace(p.AccessToken) == "" {
		return "", ErrEmptyToken
	}
	if _, err := s.FindByGitHubID(ctx, p.GitHubID); err == nil {
		return LinkGitHubTaken, nil
	} else if !errors.Is(err, ErrNotLinked) {
		return "", err
	}
	if _, err := s.FindByDiscordID(ctx, p.DiscordID); err == nil {
		return LinkDiscordLinked, nil
	} else if !errors.Is(err, ErrNotLinked) {
		return "", err
	}

	sealed, err := s.Sealer.Seal(p.AccessToken)
	if err != nil {
		return "", err
	}
	u := &domain.User{
		DiscordID:   p.DiscordID,
		GitHubID:    p.GitHubID,
		Login:       p.Login,
		Name:        p.Name,
		AccessToken: sealed,
	}
	if err := repo.CreateUser(ctx, s.DB, u); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			// Lost a race with a concurrent link of the same account.
			return LinkDiscordLinked, nil
		}
		return "", err
	}
	return LinkSuccess, nil
}

// Resolve returns the account of discordID together with its opened access
// token.
func (s *ProfileService) Resolve(ctx context.Context, discordID string) (*domain.User, string, error) {
	u, err := s.FindByDiscordID(ctx, discordID)
	if err != nil {
		return nil, "", err
	}
	token, err := s.Sealer.Open(u.AccessToken)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

// Delete removes the account of discordID and its settings.
func (s *ProfileService) Delete(ctx context.Context, discordID string) error {
	u, err := s.FindByDiscordID(ctx, discordID)
	if err != nil {
		return err
	}
	if err := repo.DeleteUser(ctx, s.DB, u.ID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrNotLinked
		}
		return err
	}
	return nil
}

// EditMisc updates the output flags of discordID and returns the account as
// stored afterwards.
func (s *ProfileService) EditMisc(ctx context.Context, discordID string, m MiscSettings) (*domain.User, error) {
	flags := make(map[string]bool, 2)
	if m.Ephemeral != nil {
		flags["ephemeral"] = *m.Ephemeral
	}
	if m.Simplified != nil {
		flags["simplified"] = *m.Simplified
	}
	if len(flags) == 0 {
		return nil, ErrNoSettings
	}
	u, err := s.FindByDiscordID(ctx, discordID)
	if err != nil {
		return nil, err
	}
	if err := repo.UpdateUserFlags(ctx, s.DB, u.ID, flags); err != nil {
		return nil, err
	}
	return s.FindByDiscordID(ctx, discordID)
}

// EditRepoSettings merges e into the stored settings of the repository.
// Fields left nil keep their value; an empty string clears a field.
func (s *ProfileService) EditRepoSettings(ctx context.Context, discordID string, e RepoSettingsEdit) (*domain.RepoSetting, error) {
	if e.AutoProject == nil && e.AutoAssignees == nil {
		return nil, ErrNoSettings
	}
	u, err := s.FindByDiscordID(ctx, discordID)
	if err != nil {
		return nil, err
	}

	var out *domain.RepoSetting
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cur, err := repo.GetRepoSetting(ctx, tx, u.ID, e.Owner, e.Repo)
		if errors.Is(err, repo.ErrNotFound) {
			cur = &domain.RepoSetting{UserID: u.ID, Owner: e.Owner, Repo: e.Repo}
		} else if err != nil {
			return err
		}
		if e.AutoProject != nil {
			cur.AutoProject = strings.TrimSpace(*e.AutoProject)
		}
		if e.AutoAssignees != nil {
			cur.AutoAssignees = normalizeCSV(*e.AutoAssignees)
		}
		if err := repo.UpsertRepoSetting(ctx, tx, cur); err != nil {
			return err
		}
		out = cur
		return nil
	})
	return out, err
}

// RepoSettings returns the settings of the repository, or nil when none
// were stored.
func (s *ProfileService) RepoSettings(ctx context.Context, userID, owner, repoName string) (*domain.RepoSetting, error) {
	st, err := repo.GetRepoSetting(ctx, s.DB, userID, owner, repoName)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, nil
	}
	return st, err
}

func normalizeCSV(s string) string {
	parts := strings.Split(s, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, ",")
}
