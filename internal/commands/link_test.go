package commands

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/tbourn/gitcord/internal/discord"
	"github.com/tbourn/gitcord/internal/github"
	"github.com/tbourn/gitcord/internal/interactions"
	"github.com/tbourn/gitcord/internal/services"
)

var (
	linkPath   = interactions.Path{Name: "link"}
	unlinkPath = interactions.Path{Name: "unlink"}
)

func TestLink_AlreadyLinked(t *testing.T) {
	f := newFixture(t)
	f.link(t, "u1", "octocat")

	resp := f.run(t, "u1", linkPath, nil)
	if got := content(t, resp); got != string(services.LinkDiscordLinked) {
		t.Fatalf("content = %q", got)
	}
}

func TestLink_Prompt(t *testing.T) {
	f := newFixture(t)

	resp := f.run(t, "u1", linkPath, nil)
	if got := content(t, resp); got != MsgLinkPrompt {
		t.Fatalf("content = %q", got)
	}
	if resp.Data.Flags&discord.FlagEphemeral == 0 {
		t.Fatal("link prompt must be ephemeral")
	}
	row := resp.Data.Components[0].Components
	if len(row) != 2 || !strings.HasPrefix(row[0].URL, "https://bot.example/github/verify/") {
		t.Fatalf("buttons = %+v", row)
	}
	token := strings.TrimPrefix(row[0].URL, "https://bot.example/github/verify/")
	if link, err := f.set.Links.Lookup(context.Background(), token); err != nil || link.DiscordID != "u1" {
		t.Fatalf("Lookup = %+v, %v", link, err)
	}
	if row[1].CustomID != "keybtn-u1" {
		t.Fatalf("custom id = %q", row[1].CustomID)
	}
}

func TestLink_NoOAuthHidesSignIn(t *testing.T) {
	f := newFixture(t)
	f.set.Config.OAuthEnabled = false

	resp := f.run(t, "u1", linkPath, nil)
	if ids := customIDs(resp); len(resp.Data.Components[0].Components) != 1 || ids[0] != "keybtn-u1" {
		t.Fatalf("components = %+v", resp.Data.Components)
	}
}

func TestLink_PersonalTokenAccepted(t *testing.T) {
	f := newFixture(t)
	f.gh.user = github.User{ID: 99, Login: "octocat", Name: "Mona", HTMLURL: "https://github.com/octocat"}
	f.run(t, "u1", linkPath, nil)

	modal := f.fire(t, interactions.KindComponent, "u1", "keybtn-u1", nil)
	if modal.Type != discord.ResponseModal || modal.Data.CustomID != "keysubmit-u1" {
		t.Fatalf("modal = %+v", modal)
	}

	confirm := f.fire(t, interactions.KindModal, "u1", "keysubmit-u1", map[string]string{"key": " ghp_secret "})
	want := "Are you sure you want to sign in with this key?\nUsername: [`octocat`](https://github.com/octocat)"
	if got := content(t, confirm); got != want {
		t.Fatalf("content = %q", got)
	}
	if ids := customIDs(confirm); len(ids) != 2 || ids[0] != "accept-u1" || ids[1] != "reject-u1" {
		t.Fatalf("buttons = %v", ids)
	}
	if f.tokens[len(f.tokens)-1] != "ghp_secret" {
		t.Fatalf("verified token = %q", f.tokens[len(f.tokens)-1])
	}

	done := f.fire(t, interactions.KindComponent, "u1", "accept-u1", nil)
	if done.Type != discord.ResponseUpdateMessage || content(t, done) != MsgKeyAdded {
		t.Fatalf("resp = %+v", done)
	}
	u, token, err := f.profiles.Resolve(context.Background(), "u1")
	if err != nil || u.Login != "octocat" || u.GitHubID != 99 || token != "ghp_secret" {
		t.Fatalf("Resolve = %+v, %q, %v", u, token, err)
	}
	if f.reg.Len() != 0 {
		t.Fatalf("registrations left = %d", f.reg.Len())
	}
}

func TestLink_PersonalTokenRejected(t *testing.T) {
	f := newFixture(t)
	f.gh.user = github.User{ID: 99, Login: "octocat"}
	f.run(t, "u1", linkPath, nil)
	f.fire(t, interactions.KindComponent, "u1", "keybtn-u1", nil)
	f.fire(t, interactions.KindModal, "u1", "keysubmit-u1", map[string]string{"key": "ghp_secret"})

	resp := f.fire(t, interactions.KindComponent, "u1", "reject-u1", nil)
	if got := content(t, resp); got != MsgKeyRejected {
		t.Fatalf("content = %q", got)
	}
	if _, err := f.profiles.FindByDiscordID(context.Background(), "u1"); !errors.Is(err, services.ErrNotLinked) {
		t.Fatalf("FindByDiscordID err = %v", err)
	}
	// accept went away with reject; only the link button is left.
	if f.reg.Len() != 1 {
		t.Fatalf("registrations = %d", f.reg.Len())
	}
}

func TestLink_InvalidToken(t *testing.T) {
	f := newFixture(t)
	f.gh.authErr = errString("bad credentials")
	f.run(t, "u1", linkPath, nil)
	f.fire(t, interactions.KindComponent, "u1", "keybtn-u1", nil)

	resp := f.fire(t, interactions.KindModal, "u1", "keysubmit-u1", map[string]string{"key": "nope"})
	if got := content(t, resp); got != MsgKeyInvalid+"Operation was not successful" {
		t.Fatalf("content = %q", got)
	}
}

func TestLink_ButtonExpires(t *testing.T) {
	f := newFixture(t)
	f.run(t, "u1", linkPath, nil)

	f.clk.Advance(DefaultLinkTTL)
	edits := f.editor.Edits()
	if len(edits) != 1 || edits[0].Components == nil {
		t.Fatalf("edits = %+v", edits)
	}
	if btn := (*edits[0].Components)[0].Components[0]; btn.CustomID != interactions.TimedOutButton || !btn.Disabled {
		t.Fatalf("button = %+v", btn)
	}
	if f.reg.Len() != 0 {
		t.Fatalf("registrations = %d", f.reg.Len())
	}
}

func TestLink_OtherUserCannotClick(t *testing.T) {
	f := newFixture(t)
	f.run(t, "u1", linkPath, nil)

	r := interactions.NewResponder(interactions.KindComponent, "tok", f.editor, f.clk)
	env := interactions.Envelope{Kind: interactions.KindComponent, UserID: "u2", CorrelationID: "keybtn-u1"}
	if out := f.reg.Fire(context.Background(), "keybtn-u1", r, env); out != interactions.Rejected {
		t.Fatalf("outcome = %v", out)
	}
	if got := content(t, takeInline(t, r)); got != interactions.MsgNotForYou {
		t.Fatalf("content = %q", got)
	}
}

func TestUnlink_Confirm(t *testing.T) {
	f := newFixture(t)
	f.link(t, "u1", "octocat")
	f.gh.repos = []github.Repository{{Owner: "octo", Name: "hello"}}
	if f.set.Cache.Get(context.Background(), "octocat", f.gh) == nil {
		t.Fatal("cache warmup failed")
	}

	resp := f.run(t, "u1", unlinkPath, nil)
	if content(t, resp) != MsgUnlinkConfirm {
		t.Fatalf("content = %q", content(t, resp))
	}
	if ids := customIDs(resp); len(ids) != 2 || ids[0] != "confirm-u1" || ids[1] != "cancel-u1" {
		t.Fatalf("buttons = %v", ids)
	}

	done := f.fire(t, interactions.KindComponent, "u1", "confirm-u1", nil)
	if done.Type != discord.ResponseUpdateMessage || content(t, done) != MsgUnlinked {
		t.Fatalf("resp = %+v", done)
	}
	if len(done.Data.Components) != 0 {
		t.Fatal("buttons should be removed")
	}
	if _, err := f.profiles.FindByDiscordID(context.Background(), "u1"); !errors.Is(err, services.ErrNotLinked) {
		t.Fatalf("FindByDiscordID err = %v", err)
	}
	if logins := f.set.Cache.Logins(); len(logins) != 0 {
		t.Fatalf("cache logins = %v", logins)
	}
	if f.reg.Len() != 0 {
		t.Fatalf("registrations = %d", f.reg.Len())
	}
}

func TestUnlink_Cancel(t *testing.T) {
	f := newFixture(t)
	f.link(t, "u1", "octocat")
	f.run(t, "u1", unlinkPath, nil)

	resp := f.fire(t, interactions.KindComponent, "u1", "cancel-u1", nil)
	if got := content(t, resp); got != MsgUnlinkCancelled {
		t.Fatalf("content = %q", got)
	}
	if _, err := f.profiles.FindByDiscordID(context.Background(), "u1"); err != nil {
		t.Fatalf("account should survive: %v", err)
	}
	if f.reg.Len() != 0 {
		t.Fatalf("registrations = %d", f.reg.Len())
	}
	f.clk.Advance(time.Hour)
	if len(f.editor.Edits()) != 0 {
		t.Fatal("a cancelled flow must not time out")
	}
}

func TestUnlink_ConfirmAndCancelClickedTogether(t *testing.T) {
	f := newFixture(t)
	f.link(t, "u1", "octocat")
	var queued []func()
	f.reg = interactions.NewRegistry(
		interactions.WithClock(f.clk),
		interactions.WithExecutor(func(fn func()) { queued = append(queued, fn) }),
	)
	f.set.Registry = f.reg
	f.run(t, "u1", unlinkPath, nil)

	ctx := context.Background()
	confirm := interactions.NewResponder(interactions.KindComponent, "t1", f.editor, f.clk)
	if out := f.reg.Fire(ctx, "confirm-u1", confirm, interactions.Envelope{Kind: interactions.KindComponent, UserID: "u1", CorrelationID: "confirm-u1"}); out != interactions.Handled {
		t.Fatalf("confirm = %v", out)
	}
	cancel := interactions.NewResponder(interactions.KindComponent, "t2", f.editor, f.clk)
	if out := f.reg.Fire(ctx, "cancel-u1", cancel, interactions.Envelope{Kind: interactions.KindComponent, UserID: "u1", CorrelationID: "cancel-u1"}); out != interactions.Unhandled {
		t.Fatalf("cancel after confirm = %v", out)
	}
	for _, fn := range queued {
		fn()
	}

	if got := content(t, takeInline(t, confirm)); got != MsgUnlinked {
		t.Fatalf("confirm answered %q", got)
	}
	if got := content(t, takeInline(t, cancel)); got == MsgUnlinkCancelled {
		t.Fatal("cancel must not run after confirm fired")
	}
	if _, err := f.profiles.FindByDiscordID(ctx, "u1"); !errors.Is(err, services.ErrNotLinked) {
		t.Fatalf("FindByDiscordID err = %v", err)
	}
}
