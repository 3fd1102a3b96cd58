package commands

import (
	"context"
	"strconv"
	"strings"

	"github.com/tbourn/gitcord/internal/autocomplete"
	"github.com/tbourn/gitcord/internal/discord"
	"github.com/tbourn/gitcord/internal/github"
	"github.com/tbourn/gitcord/internal/interactions"
)

// MsgTitleOrIssue answers pulls create without a title or an issue.
const MsgTitleOrIssue = "You have to specify either `issue` or `title`"

type pullRef struct {
	repoRef
	Number int `json:"pull_number" binding:"required,min=1"`
}

type createPullOptions struct {
	repoRef
	Head                string `json:"head" binding:"required"`
	HeadRepo            string `json:"head_repo"`
	Base                string `json:"base" binding:"required"`
	Title               string `json:"title"`
	Issue               int    `json:"issue"`
	Body                string `json:"body"`
	Draft               bool   `json:"draft"`
	MaintainerCanModify *bool  `json:"maintainer_can_modify"`
}

func (s *Set) runPulls(ctx context.Context, inv *interactions.Invocation) error {
	switch inv.Envelope.Path.Sub {
	case "create":
		return s.createPull(ctx, inv)
	case "get":
		return s.getPull(ctx, inv)
	case "close":
		return s.closePull(ctx, inv)
	case "update":
		return s.updatePull(ctx, inv)
	default:
		return inv.Error(ctx, MsgInvalidSubcommand)
	}
}

func (s *Set) completePulls(ctx context.Context, inv *interactions.Invocation) error {
	return s.complete(ctx, inv, autocomplete.Pulls)
}

func (s *Set) createPull(ctx context.Context, inv *interactions.Invocation) error {
	var o createPullOptions
	if ok, err := decode(ctx, inv, &o); !ok {
		return err
	}
	if strings.TrimSpace(o.Title) == "" && o.Issue == 0 {
		return inv.Error(ctx, MsgTitleOrIssue)
	}
	pr, err := inv.GitHub.CreatePullRequest(ctx, o.Owner, o.Repo, github.NewPullRequest{
		Title:               o.Title,
		Head:                o.Head,
		HeadRepo:            o.HeadRepo,
		Base:                o.Base,
		Body:                o.Body,
		Issue:               o.Issue,
		Draft:               o.Draft,
		MaintainerCanModify: o.MaintainerCanModify,
	})
	if err != nil {
		return inv.GitHubError(ctx, err)
	}
	return inv.Reply(ctx, pullMessage("", pr, simplified(inv)))
}

func (s *Set) getPull(ctx context.Context, inv *interactions.Invocation) error {
	var o pullRef
	if ok, err := decode(ctx, inv, &o); !ok {
		return err
	}
	pr, err := inv.GitHub.GetPullRequest(ctx, o.Owner, o.Repo, o.Number)
	if err != nil {
		return inv.GitHubError(ctx, err)
	}
	return inv.Reply(ctx, pullMessage("", pr, simplified(inv)))
}

func (s *Set) closePull(ctx context.Context, inv *interactions.Invocation) error {
	var o pullRef
	if ok, err := decode(ctx, inv, &o); !ok {
		return err
	}
	closed := "closed"
	pr, err := inv.GitHub.UpdatePullRequest(ctx, o.Owner, o.Repo, o.Number, github.PullRequestEdit{State: &closed})
	if err != nil {
		return inv.GitHubError(ctx, err)
	}
	return inv.Reply(ctx, pullMessage("## Closed\n\n", pr, simplified(inv)))
}

// updatePull opens the edit modal of a pull request and waits for its
// submission.
func (s *Set) updatePull(ctx context.Context, inv *interactions.Invocation) error {
	var o pullRef
	if ok, err := decode(ctx, inv, &o); !ok {
		return err
	}
	pr, err := inv.GitHub.GetPullRequest(ctx, o.Owner, o.Repo, o.Number)
	if err != nil {
		return inv.GitHubError(ctx, err)
	}

	id := correlationID("pull", o.Owner, o.Repo, o.Number)
	gen, ok, err := s.claim(ctx, inv, interactions.Registration{
		ID: id,
		Run: func(ctx context.Context, r *interactions.Responder, env interactions.Envelope) error {
			return s.submitPullUpdate(ctx, follow(inv, r, env), o, pr)
		},
	})
	if !ok {
		return err
	}
	return s.showModal(ctx, inv, id, gen, pullModal(id, pr))
}

func pullModal(id string, pr github.PullRequest) discord.Response {
	return discord.Modal(id, "Update "+pr.Base.Label+" #"+strconv.Itoa(pr.Number),
		discord.TextInput("title", "Title", discord.TextInputShort, pr.Title, false),
		discord.TextInput("body", "Body", discord.TextInputParagraph, pr.Body, false),
		discord.TextInput("state", "State ([O]pen/[C]losed)", discord.TextInputShort, humanize(pr.State), false),
		discord.TextInput("base", "Base", discord.TextInputShort, pr.Base.Ref, false),
		discord.TextInput("maintainer_can_modify", "Maintainer Can Modify ([T]rue/[F]alse)", discord.TextInputShort, boolText(pr.MaintainerCanModify), false),
	)
}

// diffPull is diffIssue for pull requests.
func diffPull(old github.PullRequest, values map[string]string) (req github.PullRequestEdit, changed bool, invalid string) {
	titleF := exact(values, "title", old.Title)
	bodyF := exact(values, "body", old.Body)
	stateF := compare(values, "state", humanize(old.State))
	baseF := exact(values, "base", old.Base.Ref)
	mcmF := compare(values, "maintainer_can_modify", boolText(old.MaintainerCanModify))

	if titleF.changed && strings.TrimSpace(titleF.raw) == "" {
		titleF.changed = false
	}
	if baseF.changed && strings.TrimSpace(baseF.raw) == "" {
		baseF.changed = false
	}
	if !titleF.changed && !bodyF.changed && !stateF.changed && !baseF.changed && !mcmF.changed {
		return req, false, ""
	}

	if stateF.changed && stateF.raw != "" {
		state, ok := parseState(stateF.raw)
		if !ok {
			return req, true, MsgInvalidState
		}
		if state != old.State {
			req.State = &state
		}
	}
	if mcmF.changed && mcmF.raw != "" {
		mcm, ok := parseBool(mcmF.raw)
		if !ok {
			return req, true, MsgInvalidMCM
		}
		if mcm != old.MaintainerCanModify {
			req.MaintainerCanModify = &mcm
		}
	}
	if titleF.changed {
		t := strings.TrimSpace(titleF.raw)
		req.Title = &t
	}
	if bodyF.changed {
		b := strings.TrimSpace(bodyF.raw)
		req.Body = &b
	}
	if baseF.changed {
		b := strings.TrimSpace(baseF.raw)
		req.Base = &b
	}
	return req, true, ""
}

func (s *Set) submitPullUpdate(ctx context.Context, inv *interactions.Invocation, o pullRef, old github.PullRequest) error {
	req, changed, invalid := diffPull(old, inv.Envelope.Values)
	switch {
	case invalid != "":
		return inv.Error(ctx, invalid)
	case !changed || req == (github.PullRequestEdit{}):
		return inv.Error(ctx, MsgNoEdits)
	}

	pr, err := inv.GitHub.UpdatePullRequest(ctx, o.Owner, o.Repo, o.Number, req)
	if err != nil {
		return inv.GitHubError(ctx, err)
	}
	return inv.Reply(ctx, pullMessage("## Updated\n\n", pr, simplified(inv)))
}
