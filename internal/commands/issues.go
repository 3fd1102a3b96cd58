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

type issueRef struct {
	repoRef
	Number int `json:"issue_number" binding:"required,min=1"`
}

type createIssueOptions struct {
	repoRef
	Title     string `json:"title" binding:"required"`
	Body      string `json:"body"`
	Assignees string `json:"assignees"`
	Labels    string `json:"labels"`
	Milestone int    `json:"milestone"`
}

type closeIssueOptions struct {
	issueRef
	Reason string `json:"reason" binding:"omitempty,oneof=completed not_planned"`
}

func (s *Set) runIssues(ctx context.Context, inv *interactions.Invocation) error {
	switch inv.Envelope.Path.Sub {
	case "create":
		return s.createIssue(ctx, inv)
	case "get":
		return s.getIssue(ctx, inv)
	case "close":
		return s.closeIssue(ctx, inv)
	case "update":
		return s.updateIssue(ctx, inv)
	default:
		return inv.Error(ctx, MsgInvalidSubcommand)
	}
}

func (s *Set) completeIssues(ctx context.Context, inv *interactions.Invocation) error {
	return s.complete(ctx, inv, autocomplete.Issues)
}

func simplified(inv *interactions.Invocation) bool {
	return inv.Profile != nil && inv.Profile.Simplified
}

func (s *Set) createIssue(ctx context.Context, inv *interactions.Invocation) error {
	var o createIssueOptions
	if ok, err := decode(ctx, inv, &o); !ok {
		return err
	}

	settings, err := s.Profiles.RepoSettings(ctx, inv.Profile.ID, o.Owner, o.Repo)
	if err != nil {
		inv.Log.Warn().Err(err).Str("repo", o.Owner+"/"+o.Repo).Msg("load repo settings")
	}

	req := github.IssueRequest{Title: &o.Title}
	if o.Body != "" {
		req.Body = &o.Body
	}
	if labels := splitList(o.Labels); len(labels) > 0 {
		req.Labels = &labels
	}
	assignees := splitList(o.Assignees)
	if len(assignees) == 0 && settings != nil {
		assignees = settings.Assignees()
	}
	if len(assignees) > 0 {
		req.Assignees = &assignees
	}
	if o.Milestone > 0 {
		req.Milestone = &o.Milestone
	}

	issue, err := inv.GitHub.CreateIssue(ctx, o.Owner, o.Repo, req)
	if err != nil {
		return inv.GitHubError(ctx, err)
	}

	var projectErr error
	data := issueMessage("", issue, simplified(inv))
	if settings != nil && settings.AutoProject != "" {
		if projectErr = inv.GitHub.AddToProject(ctx, settings.AutoProject, issue.NodeID); projectErr != nil {
			inv.Log.Warn().Err(projectErr).Str("project", settings.AutoProject).Msg("add issue to project")
		} else {
			data.Content += "\nAnd added issue to project"
		}
	}
	if err := inv.Reply(ctx, data); err != nil || projectErr == nil {
		return err
	}
	return inv.Followup(ctx, discord.ResponseData{
		Content: "Could not add issue to project:\n" + github.FormatError(projectErr),
		Flags:   discord.FlagEphemeral,
	})
}

func (s *Set) getIssue(ctx context.Context, inv *interactions.Invocation) error {
	var o issueRef
	if ok, err := decode(ctx, inv, &o); !ok {
		return err
	}
	issue, err := inv.GitHub.GetIssue(ctx, o.Owner, o.Repo, o.Number)
	if err != nil {
		return inv.GitHubError(ctx, err)
	}
	return inv.Reply(ctx, issueMessage("", issue, simplified(inv)))
}

func (s *Set) closeIssue(ctx context.Context, inv *interactions.Invocation) error {
	var o closeIssueOptions
	if ok, err := decode(ctx, inv, &o); !ok {
		return err
	}
	closed := "closed"
	req := github.IssueRequest{State: &closed}
	if o.Reason != "" {
		req.StateReason = &o.Reason
	}
	issue, err := inv.GitHub.UpdateIssue(ctx, o.Owner, o.Repo, o.Number, req)
	if err != nil {
		return inv.GitHubError(ctx, err)
	}
	return inv.Reply(ctx, issueMessage("## Closed\n\n", issue, simplified(inv)))
}

// updateIssue opens the edit modal of an issue and waits for its
// submission.
func (s *Set) updateIssue(ctx context.Context, inv *interactions.Invocation) error {
	var o issueRef
	if ok, err := decode(ctx, inv, &o); !ok {
		return err
	}
	issue, err := inv.GitHub.GetIssue(ctx, o.Owner, o.Repo, o.Number)
	if err != nil {
		return inv.GitHubError(ctx, err)
	}

	id := correlationID("issue", o.Owner, o.Repo, o.Number)
	gen, ok, err := s.claim(ctx, inv, interactions.Registration{
		ID: id,
		Run: func(ctx context.Context, r *interactions.Responder, env interactions.Envelope) error {
			return s.submitIssueUpdate(ctx, follow(inv, r, env), o, issue)
		},
	})
	if !ok {
		return err
	}
	return s.showModal(ctx, inv, id, gen, issueModal(id, issue))
}

func issueModal(id string, is github.Issue) discord.Response {
	return discord.Modal(id, "Update Issue #"+strconv.Itoa(is.Number),
		discord.TextInput("title", "Title", discord.TextInputShort, is.Title, false),
		discord.TextInput("body", "Body", discord.TextInputParagraph, is.Body, false),
		discord.TextInput("state", "State ([O]pen/[C]losed)", discord.TextInputShort, humanize(is.State), false),
		discord.TextInput("state_reason", "Reason ([C]ompleted/[R]eopened/[N]ot Planned)", discord.TextInputShort, humanize(is.StateReason), false),
		discord.TextInput("labels", "Labels", discord.TextInputShort, strings.Join(is.Labels, ", "), false),
	)
}

// diffIssue turns a modal submission into the fields to update. It returns
// a corrective message when a changed field does not validate; changed is
// false when the submission matches the prefilled values.
func diffIssue(old github.Issue, values map[string]string) (req github.IssueRequest, changed bool, invalid string) {
	titleF := exact(values, "title", old.Title)
	bodyF := exact(values, "body", old.Body)
	stateF := compare(values, "state", humanize(old.State))
	reasonF := compare(values, "state_reason", humanize(old.StateReason))
	labelsF := compare(values, "labels", strings.Join(old.Labels, ", "))

	if titleF.changed && strings.TrimSpace(titleF.raw) == "" {
		// GitHub requires a title; clearing the input keeps the current one.
		titleF.changed = false
	}
	if !titleF.changed && !bodyF.changed && !stateF.changed && !reasonF.changed && !labelsF.changed {
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
	if reasonF.changed && reasonF.raw != "" {
		reason, ok := parseReason(reasonF.raw)
		if !ok {
			return req, true, MsgInvalidReason
		}
		if reason != old.StateReason {
			req.StateReason = &reason
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
	if labelsF.changed {
		labels := splitList(labelsF.raw)
		req.Labels = &labels
	}
	return req, true, ""
}

func (s *Set) submitIssueUpdate(ctx context.Context, inv *interactions.Invocation, o issueRef, old github.Issue) error {
	req, changed, invalid := diffIssue(old, inv.Envelope.Values)
	switch {
	case invalid != "":
		return inv.Error(ctx, invalid)
	case !changed || req == (github.IssueRequest{}):
		return inv.Error(ctx, MsgNoEdits)
	}

	issue, err := inv.GitHub.UpdateIssue(ctx, o.Owner, o.Repo, o.Number, req)
	if err != nil {
		return inv.GitHubError(ctx, err)
	}
	return inv.Reply(ctx, issueMessage("## Updated\n\n", issue, simplified(inv)))
}
