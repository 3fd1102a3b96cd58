// Package github is the GitHub capability used by command handlers: a typed
// wrapper over go-github plus the GraphQL calls needed for project boards.
package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	gh "github.com/google/go-github/v68/github"
)

// ErrNotFound is returned when GitHub answers 404 for the requested entity.
var ErrNotFound = errors.New("github: not found")

// User is a GitHub account.
type User struct {
	ID        int64
	Login     string
	Name      string
	HTMLURL   string
	AvatarURL string
	Location  string
	Bio       string
	Followers int
	Following int
	CreatedAt time.Time
}

// Issue is a GitHub issue.
type Issue struct {
	ID          int64
	NodeID      string
	Number      int
	Title       string
	Body        string
	State       string
	StateReason string
	HTMLURL     string
	Comments    int
	Locked      bool
	Author      User
	ClosedBy    User
	Labels      []string
	Assignees   []User
	Milestone   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	ClosedAt    time.Time
}

// Branch is one side of a pull request.
type Branch struct {
	Label   string
	Ref     string
	HTMLURL string
}

// PullRequest is a GitHub pull request.
type PullRequest struct {
	ID                  int64
	NodeID              string
	Number              int
	Title               string
	Body                string
	State               string
	HTMLURL             string
	Draft               bool
	Merged              bool
	MaintainerCanModify bool
	Locked              bool
	Commits             int
	Comments            int
	Additions           int
	Deletions           int
	ChangedFiles        int
	Author              User
	Base                Branch
	Head                Branch
	Labels              []string
	Assignees           []User
	CreatedAt           time.Time
}

// Repository is a repository visible to the authenticated user.
type Repository struct {
	Owner       string
	Name        string
	FullName    string
	Description string
	HTMLURL     string
	Private     bool
	Stars       int
	OpenIssues  int
}

// Project is a Projects V2 board.
type Project struct {
	ID    string
	Title string
}

// IssueRequest carries issue fields to create or update. Nil fields are
// omitted from the request; a non-nil pointer to "" clears the value.
type IssueRequest struct {
	Title       *string
	Body        *string
	State       *string
	StateReason *string
	Labels      *[]string
	Assignees   *[]string
	Milestone   *int
}

// NewPullRequest describes a pull request to open. Either Title or Issue
// must be set.
type NewPullRequest struct {
	Title               string
	Head                string
	HeadRepo            string
	Base                string
	Body                string
	Issue               int
	Draft               bool
	MaintainerCanModify *bool
}

// PullRequestEdit carries pull request fields to update; nil fields are
// omitted.
type PullRequestEdit struct {
	Title               *string
	Body                *string
	State               *string
	Base                *string
	MaintainerCanModify *bool
}

// API is the GitHub capability consumed by the bot.
type API interface {
	Authenticated(ctx context.Context) (User, error)

	CreateIssue(ctx context.Context, owner, repo string, in IssueRequest) (Issue, error)
	GetIssue(ctx context.Context, owner, repo string, number int) (Issue, error)
	UpdateIssue(ctx context.Context, owner, repo string, number int, in IssueRequest) (Issue, error)

	CreatePullRequest(ctx context.Context, owner, repo string, in NewPullRequest) (PullRequest, error)
	GetPullRequest(ctx context.Context, owner, repo string, number int) (PullRequest, error)
	UpdatePullRequest(ctx context.Context, owner, repo string, number int, in PullRequestEdit) (PullRequest, error)

	ListRepositories(ctx context.Context, login string) ([]Repository, error)
	ListLabels(ctx context.Context, owner, repo string) ([]string, error)
	ListIssues(ctx context.Context, owner, repo string) ([]Issue, error)
	ListPulls(ctx context.Context, owner, repo string) ([]PullRequest, error)

	GraphQL(ctx context.Context, query string, variables map[string]any, out any) error
	ListProjects(ctx context.Context, org string) ([]Project, error)
	AddToProject(ctx context.Context, projectID, contentID string) error
}

// listPageSize mirrors how much history the autocomplete cache keeps per
// repository.
const listPageSize = 50

// maxRepoPages bounds repository listing for very large accounts.
const maxRepoPages = 10

// Client implements API on top of go-github.
type Client struct {
	gh *gh.Client
}

var _ API = (*Client)(nil)

// Option configures a Client.
type Option func(*clientConfig)

type clientConfig struct {
	baseURL    string
	httpClient *http.Client
}

// WithBaseURL points the client at another REST root, such as a GitHub
// Enterprise "/api/v3" endpoint.
func WithBaseURL(u string) Option {
	return func(c *clientConfig) { c.baseURL = u }
}

// WithHTTPClient overrides the transport (instrumentation, tests).
func WithHTTPClient(h *http.Client) Option {
	return func(c *clientConfig) { c.httpClient = h }
}

// New returns a client authenticating with the user's access token.
func New(token string, opts ...Option) *Client {
	cfg := &clientConfig{}
	for _, o := range opts {
		o(cfg)
	}
	client := gh.NewClient(cfg.httpClient).WithAuthToken(token)
	if cfg.baseURL != "" {
		base := strings.TrimSuffix(cfg.baseURL, "/") + "/"
		if u, err := url.Parse(base); err == nil {
			client.BaseURL = u
		}
	}
	return &Client{gh: client}
}

// Factory builds per-user clients from decrypted tokens.
type Factory func(token string) API

// NewFactory returns a Factory sharing opts across clients.
func NewFactory(opts ...Option) Factory {
	return func(token string) API { return New(token, opts...) }
}

func (c *Client) Authenticated(ctx context.Context) (User, error) {
	u, _, err := c.gh.Users.Get(ctx, "")
	if err != nil {
		return User{}, wrap("getting authenticated user", err)
	}
	return userFromGH(u), nil
}

func (c *Client) CreateIssue(ctx context.Context, owner, repo string, in IssueRequest) (Issue, error) {
	is, _, err := c.gh.Issues.Create(ctx, owner, repo, issueRequestToGH(in))
	if err != nil {
		return Issue{}, wrap("creating issue", err)
	}
	return issueFromGH(is), nil
}

func (c *Client) GetIssue(ctx context.Context, owner, repo string, number int) (Issue, error) {
	is, _, err := c.gh.Issues.Get(ctx, owner, repo, number)
	if err != nil {
		return Issue{}, wrap("getting issue", err)
	}
	return issueFromGH(is), nil
}

func (c *Client) UpdateIssue(ctx context.Context, owner, repo string, number int, in IssueRequest) (Issue, error) {
	is, _, err := c.gh.Issues.Edit(ctx, owner, repo, number, issueRequestToGH(in))
	if err != nil {
		return Issue{}, wrap("updating issue", err)
	}
	return issueFromGH(is), nil
}

func (c *Client) CreatePullRequest(ctx context.Context, owner, repo string, in NewPullRequest) (PullRequest, error) {
	req := &gh.NewPullRequest{
		Head:                gh.Ptr(in.Head),
		Base:                gh.Ptr(in.Base),
		MaintainerCanModify: in.MaintainerCanModify,
	}
	if in.Issue > 0 {
		req.Issue = gh.Ptr(in.Issue)
	} else {
		req.Title = gh.Ptr(in.Title)
		if in.Body != "" {
			req.Body = gh.Ptr(in.Body)
		}
	}
	if in.Draft {
		req.Draft = gh.Ptr(true)
	}
	if in.HeadRepo != "" {
		req.HeadRepo = gh.Ptr(in.HeadRepo)
	}
	pr, _, err := c.gh.PullRequests.Create(ctx, owner, repo, req)
	if err != nil {
		return PullRequest{}, wrap("creating pull request", err)
	}
	return pullFromGH(pr), nil
}

func (c *Client) GetPullRequest(ctx context.Context, owner, repo string, number int) (PullRequest, error) {
	pr, _, err := c.gh.PullRequests.Get(ctx, owner, repo, number)
	if err != nil {
		return PullRequest{}, wrap("getting pull request", err)
	}
	return pullFromGH(pr), nil
}

func (c *Client) UpdatePullRequest(ctx context.Context, owner, repo string, number int, in PullRequestEdit) (PullRequest, error) {
	edit := &gh.PullRequest{
		Title:               in.Title,
		Body:                in.Body,
		State:               in.State,
		MaintainerCanModify: in.MaintainerCanModify,
	}
	if in.Base != nil {
		edit.Base = &gh.PullRequestBranch{Ref: in.Base}
	}
	pr, _, err := c.gh.PullRequests.Edit(ctx, owner, repo, number, edit)
	if err != nil {
		return PullRequest{}, wrap("updating pull request", err)
	}
	return pullFromGH(pr), nil
}

// ListRepositories lists the repositories of login, most recently updated
// first. An empty login lists what the token's user can access, including
// private and organization repositories.
func (c *Client) ListRepositories(ctx context.Context, login string) ([]Repository, error) {
	var out []Repository
	add := func(repos []*gh.Repository) {
		for _, r := range repos {
			out = append(out, Repository{
				Owner:       r.GetOwner().GetLogin(),
				Name:        r.GetName(),
				FullName:    r.GetFullName(),
				Description: r.GetDescription(),
				HTMLURL:     r.GetHTMLURL(),
				Private:     r.GetPrivate(),
				Stars:       r.GetStargazersCount(),
				OpenIssues:  r.GetOpenIssuesCount(),
			})
		}
	}

	if login == "" {
		opts := &gh.RepositoryListByAuthenticatedUserOptions{
			Sort:        "updated",
			ListOptions: gh.ListOptions{PerPage: 100},
		}
		for page := 0; page < maxRepoPages; page++ {
			repos, resp, err := c.gh.Repositories.ListByAuthenticatedUser(ctx, opts)
			if err != nil {
				return nil, wrap("listing repositories", err)
			}
			add(repos)
			if resp == nil || resp.NextPage == 0 {
				break
			}
			opts.Page = resp.NextPage
		}
		return out, nil
	}

	opts := &gh.RepositoryListByUserOptions{
		Type:        "owner",
		Sort:        "updated",
		ListOptions: gh.ListOptions{PerPage: 100},
	}
	for page := 0; page < maxRepoPages; page++ {
		repos, resp, err := c.gh.Repositories.ListByUser(ctx, login, opts)
		if err != nil {
			return nil, wrap("listing repositories of "+login, err)
		}
		add(repos)
		if resp == nil || resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return out, nil
}

func (c *Client) ListLabels(ctx context.Context, owner, repo string) ([]string, error) {
	labels, _, err := c.gh.Issues.ListLabels(ctx, owner, repo, &gh.ListOptions{PerPage: 100})
	if err != nil {
		return nil, wrap("listing labels", err)
	}
	out := make([]string, 0, len(labels))
	for _, l := range labels {
		out = append(out, l.GetName())
	}
	return out, nil
}

// ListIssues returns the most recent issues of any state, pull requests
// excluded.
func (c *Client) ListIssues(ctx context.Context, owner, repo string) ([]Issue, error) {
	issues, _, err := c.gh.Issues.ListByRepo(ctx, owner, repo, &gh.IssueListByRepoOptions{
		State:       "all",
		ListOptions: gh.ListOptions{PerPage: listPageSize},
	})
	if err != nil {
		return nil, wrap("listing issues", err)
	}
	out := make([]Issue, 0, len(issues))
	for _, is := range issues {
		if is.IsPullRequest() {
			continue
		}
		out = append(out, issueFromGH(is))
	}
	return out, nil
}

func (c *Client) ListPulls(ctx context.Context, owner, repo string) ([]PullRequest, error) {
	pulls, _, err := c.gh.PullRequests.List(ctx, owner, repo, &gh.PullRequestListOptions{
		State:       "all",
		ListOptions: gh.ListOptions{PerPage: listPageSize},
	})
	if err != nil {
		return nil, wrap("listing pull requests", err)
	}
	out := make([]PullRequest, 0, len(pulls))
	for _, pr := range pulls {
		out = append(out, pullFromGH(pr))
	}
	return out, nil
}

// wrap adds context and maps 404 answers to ErrNotFound while keeping the
// *gh.ErrorResponse reachable through errors.As.
func wrap(action string, err error) error {
	var ghErr *gh.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil && ghErr.Response.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%s: %w", action, errors.Join(ErrNotFound, err))
	}
	return fmt.Errorf("%s: %w", action, err)
}

func issueRequestToGH(in IssueRequest) *gh.IssueRequest {
	return &gh.IssueRequest{
		Title:       in.Title,
		Body:        in.Body,
		State:       in.State,
		StateReason: in.StateReason,
		Labels:      in.Labels,
		Assignees:   in.Assignees,
		Milestone:   in.Milestone,
	}
}

func userFromGH(u *gh.User) User {
	if u == nil {
		return User{}
	}
	return User{
		ID:        u.GetID(),
		Login:     u.GetLogin(),
		Name:      u.GetName(),
		HTMLURL:   u.GetHTMLURL(),
		AvatarURL: u.GetAvatarURL(),
		Location:  u.GetLocation(),
		Bio:       u.GetBio(),
		Followers: u.GetFollowers(),
		Following: u.GetFollowing(),
		CreatedAt: u.GetCreatedAt().Time,
	}
}

func issueFromGH(is *gh.Issue) Issue {
	out := Issue{
		ID:          is.GetID(),
		NodeID:      is.GetNodeID(),
		Number:      is.GetNumber(),
		Title:       is.GetTitle(),
		Body:        is.GetBody(),
		State:       is.GetState(),
		StateReason: is.GetStateReason(),
		HTMLURL:     is.GetHTMLURL(),
		Comments:    is.GetComments(),
		Locked:      is.GetLocked(),
		Author:      userFromGH(is.GetUser()),
		Milestone:   is.GetMilestone().GetTitle(),
		CreatedAt:   is.GetCreatedAt().Time,
		UpdatedAt:   is.GetUpdatedAt().Time,
		ClosedAt:    is.GetClosedAt().Time,
	}
	if is.ClosedBy != nil {
		out.ClosedBy = userFromGH(is.ClosedBy)
	}
	for _, l := range is.Labels {
		out.Labels = append(out.Labels, l.GetName())
	}
	for _, a := range is.Assignees {
		out.Assignees = append(out.Assignees, userFromGH(a))
	}
	return out
}

func pullFromGH(pr *gh.PullRequest) PullRequest {
	out := PullRequest{
		ID:                  pr.GetID(),
		NodeID:              pr.GetNodeID(),
		Number:              pr.GetNumber(),
		Title:               pr.GetTitle(),
		Body:                pr.GetBody(),
		State:               pr.GetState(),
		HTMLURL:             pr.GetHTMLURL(),
		Draft:               pr.GetDraft(),
		Merged:              pr.GetMerged(),
		MaintainerCanModify: pr.GetMaintainerCanModify(),
		Locked:              pr.GetLocked(),
		Commits:             pr.GetCommits(),
		Comments:            pr.GetComments(),
		Additions:           pr.GetAdditions(),
		Deletions:           pr.GetDeletions(),
		ChangedFiles:        pr.GetChangedFiles(),
		Author:              userFromGH(pr.GetUser()),
		Base:                branchFromGH(pr.GetBase()),
		Head:                branchFromGH(pr.GetHead()),
		CreatedAt:           pr.GetCreatedAt().Time,
	}
	for _, l := range pr.Labels {
		out.Labels = append(out.Labels, l.GetName())
	}
	for _, a := range pr.Assignees {
		out.Assignees = append(out.Assignees, userFromGH(a))
	}
	return out
}

func branchFromGH(b *gh.PullRequestBranch) Branch {
	if b == nil {
		return Branch{}
	}
	return Branch{
		Label:   b.GetLabel(),
		Ref:     b.GetRef(),
		HTMLURL: b.GetRepo().GetHTMLURL() + "/tree/" + b.GetRef(),
	}
}
