package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/gitcord/internal/autocomplete"
	"github.com/tbourn/gitcord/internal/clock"
	"github.com/tbourn/gitcord/internal/discord"
	"github.com/tbourn/gitcord/internal/github"
	"github.com/tbourn/gitcord/internal/interactions"
	"github.com/tbourn/gitcord/internal/repo"
	"github.com/tbourn/gitcord/internal/secrets"
	"github.com/tbourn/gitcord/internal/services"
)

const testKey = "0123456789abcdef0123456789abcdef"

var epoch = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

// fakeGitHub is an in-memory github.API. Calls are recorded for assertions.
type fakeGitHub struct {
	mu sync.Mutex

	user     github.User
	authErr  error
	issue    github.Issue
	pull     github.PullRequest
	repos    []github.Repository
	labels   []string
	// userRepos is the public listing per lowercased login.
	userRepos map[string][]github.Repository
	projects []github.Project
	err      error

	projectErr error

	created      []github.IssueRequest
	issueEdits   []github.IssueRequest
	newPulls     []github.NewPullRequest
	pullEdits    []github.PullRequestEdit
	addedToBoard []string
	gets         []string
	repoLogins   []string
}

var _ github.API = (*fakeGitHub)(nil)

func (f *fakeGitHub) Authenticated(ctx context.Context) (github.User, error) {
	return f.user, f.authErr
}

func (f *fakeGitHub) CreateIssue(ctx context.Context, owner, repo string, in github.IssueRequest) (github.Issue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, in)
	is := f.issue
	if in.Title != nil {
		is.Title = *in.Title
	}
	return is, f.err
}

func (f *fakeGitHub) GetIssue(ctx context.Context, owner, repo string, number int) (github.Issue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets = append(f.gets, fmt.Sprintf("%s/%s#%d", owner, repo, number))
	return f.issue, f.err
}

func (f *fakeGitHub) UpdateIssue(ctx context.Context, owner, repo string, number int, in github.IssueRequest) (github.Issue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.issueEdits = append(f.issueEdits, in)
	is := f.issue
	if in.State != nil {
		is.State = *in.State
	}
	if in.Title != nil {
		is.Title = *in.Title
	}
	return is, f.err
}

func (f *fakeGitHub) CreatePullRequest(ctx context.Context, owner, repo string, in github.NewPullRequest) (github.PullRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.newPulls = append(f.newPulls, in)
	return f.pull, f.err
}

func (f *fakeGitHub) GetPullRequest(ctx context.Context, owner, repo string, number int) (github.PullRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets = append(f.gets, fmt.Sprintf("%s/%s#%d", owner, repo, number))
	return f.pull, f.err
}

func (f *fakeGitHub) UpdatePullRequest(ctx context.Context, owner, repo string, number int, in github.PullRequestEdit) (github.PullRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pullEdits = append(f.pullEdits, in)
	pr := f.pull
	if in.State != nil {
		pr.State = *in.State
	}
	return pr, f.err
}

func (f *fakeGitHub) ListRepositories(ctx context.Context, login string) ([]github.Repository, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if login != "" {
		f.repoLogins = append(f.repoLogins, login)
		return f.userRepos[strings.ToLower(login)], nil
	}
	return f.repos, nil
}

func (f *fakeGitHub) ListLabels(ctx context.Context, owner, repo string) ([]string, error) {
	return f.labels, nil
}

func (f *fakeGitHub) ListIssues(ctx context.Context, owner, repo string) ([]github.Issue, error) {
	return []github.Issue{{Number: 42}, {Number: 7}, {Number: 142}}, nil
}

func (f *fakeGitHub) ListPulls(ctx context.Context, owner, repo string) ([]github.PullRequest, error) {
	return []github.PullRequest{{Number: 3}}, nil
}

func (f *fakeGitHub) GraphQL(ctx context.Context, query string, variables map[string]any, out any) error {
	return nil
}

func (f *fakeGitHub) ListProjects(ctx context.Context, org string) ([]github.Project, error) {
	return f.projects, nil
}

func (f *fakeGitHub) AddToProject(ctx context.Context, projectID, contentID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.projectErr != nil {
		return f.projectErr
	}
	f.addedToBoard = append(f.addedToBoard, projectID+"/"+contentID)
	return nil
}

type fakeEditor struct {
	mu        sync.Mutex
	edits     []discord.MessageEdit
	followups []discord.ResponseData
}

func (f *fakeEditor) Followup(ctx context.Context, token string, data discord.ResponseData) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.followups = append(f.followups, data)
	return nil
}

func (f *fakeEditor) EditOriginal(ctx context.Context, token string, edit discord.MessageEdit) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.edits = append(f.edits, edit)
	return nil
}

func (f *fakeEditor) Edits() []discord.MessageEdit {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]discord.MessageEdit(nil), f.edits...)
}

func sampleIssue() github.Issue {
	return github.Issue{
		Number:    42,
		NodeID:    "I_42",
		Title:     "Bug",
		Body:      "It breaks",
		State:     "open",
		HTMLURL:   "https://github.com/octo/hello/issues/42",
		Comments:  2,
		Author:    github.User{Login: "octocat", HTMLURL: "https://github.com/octocat"},
		Labels:    []string{"bug"},
		CreatedAt: epoch,
	}
}

func samplePull() github.PullRequest {
	return github.PullRequest{
		Number:              5,
		Title:               "Fix bug",
		Body:                "Fixes #42",
		State:               "open",
		HTMLURL:             "https://github.com/octo/hello/pull/5",
		MaintainerCanModify: true,
		Commits:             3,
		Author:              github.User{Login: "octocat", HTMLURL: "https://github.com/octocat"},
		Base:                github.Branch{Label: "octo:main", Ref: "main"},
		Head:                github.Branch{Label: "octocat:fix", Ref: "fix"},
		CreatedAt:           epoch,
	}
}

type fixture struct {
	set      *Set
	reg      *interactions.Registry
	clk      *clock.Fake
	gh       *fakeGitHub
	editor   *fakeEditor
	profiles *services.ProfileService
	tokens   []string
	nextGH   int64
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dsn := fmt.Sprintf("file:cmd_%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.Exec("PRAGMA foreign_keys=ON;")
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	sealer, err := secrets.NewSealer(testKey)
	if err != nil {
		t.Fatalf("NewSealer: %v", err)
	}

	f := &fixture{
		clk:    clock.NewFake(epoch),
		gh:     &fakeGitHub{issue: sampleIssue(), pull: samplePull()},
		editor: &fakeEditor{},
	}
	f.profiles = services.NewProfileService(db, sealer)
	f.reg = interactions.NewRegistry(
		interactions.WithClock(f.clk),
		interactions.WithExecutor(func(fn func()) { fn() }),
	)
	f.set = New(Set{
		Registry: f.reg,
		Profiles: f.profiles,
		Links:    services.NewLinkService(db, f.clk, zerolog.Nop()),
		Cache:    autocomplete.New(autocomplete.WithClock(f.clk)),
		GitHub: func(token string) github.API {
			f.tokens = append(f.tokens, token)
			return f.gh
		},
		Clock:  f.clk,
		Config: Config{SiteURL: "https://bot.example", OAuthEnabled: true},
		Log:    zerolog.Nop(),
	})
	return f
}

// link stores a linked account for discordID.
func (f *fixture) link(t *testing.T, discordID, login string) {
	t.Helper()
	f.nextGH++
	res, err := f.profiles.Init(context.Background(), services.NewProfile{
		DiscordID:   discordID,
		GitHubID:    f.nextGH,
		Login:       login,
		AccessToken: "ghp_" + login,
	})
	if err != nil || res != services.LinkSuccess {
		t.Fatalf("Init = %q, %v", res, err)
	}
}

func options(t *testing.T, kv map[string]any) interactions.Options {
	t.Helper()
	out := interactions.Options{}
	for k, v := range kv {
		raw, err := json.Marshal(v)
		if err != nil {
			t.Fatalf("marshal %s: %v", k, err)
		}
		out[k] = raw
	}
	return out
}

// invocation builds the invocation the dispatcher would hand to a command
// run by userID, loading the profile when one is linked.
func (f *fixture) invocation(t *testing.T, kind interactions.Kind, userID string, path interactions.Path, kv map[string]any) *interactions.Invocation {
	t.Helper()
	inv := &interactions.Invocation{
		Responder: interactions.NewResponder(kind, "token-"+userID, f.editor, f.clk),
		Envelope: interactions.Envelope{
			Kind:    kind,
			Path:    path,
			Options: options(t, kv),
			UserID:  userID,
			Raw:     &discord.Interaction{ID: "int-" + userID, Token: "token-" + userID},
		},
		Discord: f.editor,
		Log:     zerolog.Nop(),
	}
	if u, err := f.profiles.FindByDiscordID(context.Background(), userID); err == nil {
		inv.Profile = u
		inv.GitHub = f.gh
	}
	return inv
}

// run executes a command and returns its inline response.
func (f *fixture) run(t *testing.T, userID string, path interactions.Path, kv map[string]any) discord.Response {
	t.Helper()
	inv := f.invocation(t, interactions.KindCommand, userID, path, kv)
	h := f.set.Handlers()[path.Name]
	if err := h.Run(context.Background(), inv); err != nil {
		t.Fatalf("%s: %v", path, err)
	}
	return takeInline(t, inv.Responder)
}

// complete runs autocomplete for the focused option and returns the choices.
func (f *fixture) complete(t *testing.T, userID string, path interactions.Path, focused string, kv map[string]any) []discord.Choice {
	t.Helper()
	inv := f.invocation(t, interactions.KindAutocomplete, userID, path, kv)
	inv.Envelope.Focused = focused
	h := f.set.Handlers()[path.Name]
	if err := h.Autocomplete(context.Background(), inv); err != nil {
		t.Fatalf("%s autocomplete: %v", path, err)
	}
	resp := takeInline(t, inv.Responder)
	if resp.Type != discord.ResponseAutocompleteResult || resp.Data == nil || resp.Data.Choices == nil {
		t.Fatalf("not an autocomplete result: %+v", resp)
	}
	return *resp.Data.Choices
}

// fire delivers a component click or modal submission to the registry and
// returns the inline response.
func (f *fixture) fire(t *testing.T, kind interactions.Kind, userID, customID string, values map[string]string) discord.Response {
	t.Helper()
	r := interactions.NewResponder(kind, "token-fire", f.editor, f.clk)
	env := interactions.Envelope{Kind: kind, UserID: userID, CorrelationID: customID, Values: values}
	if out := f.reg.Fire(context.Background(), customID, r, env); out != interactions.Handled {
		t.Fatalf("Fire(%s) = %v", customID, out)
	}
	return takeInline(t, r)
}

func takeInline(t *testing.T, r *interactions.Responder) discord.Response {
	t.Helper()
	select {
	case resp := <-r.Inline():
		return resp
	default:
		t.Fatal("expected an inline response")
	}
	return discord.Response{}
}

func content(t *testing.T, resp discord.Response) string {
	t.Helper()
	if resp.Data == nil {
		t.Fatalf("response type %d has no data", resp.Type)
	}
	return resp.Data.Content
}

func customIDs(resp discord.Response) []string {
	var ids []string
	if resp.Data == nil {
		return nil
	}
	for _, row := range resp.Data.Components {
		for _, c := range row.Components {
			if c.CustomID != "" {
				ids = append(ids, c.CustomID)
			}
		}
	}
	return ids
}
