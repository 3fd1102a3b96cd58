package commands

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/tbourn/gitcord/internal/discord"
	"github.com/tbourn/gitcord/internal/interactions"
	"github.com/tbourn/gitcord/internal/services"
)

var (
	issuesGet    = interactions.Path{Name: "issues", Sub: "get"}
	issuesCreate = interactions.Path{Name: "issues", Sub: "create"}
	issuesClose  = interactions.Path{Name: "issues", Sub: "close"}
	issuesUpdate = interactions.Path{Name: "issues", Sub: "update"}
)

func issueArgs() map[string]any {
	return map[string]any{"owner": "octo", "repo": "hello", "issue_number": 42}
}

func TestIssuesGet_RendersEmbed(t *testing.T) {
	f := newFixture(t)
	f.link(t, "u1", "octocat")

	resp := f.run(t, "u1", issuesGet, issueArgs())
	if resp.Type != discord.ResponseChannelMessage {
		t.Fatalf("type = %d", resp.Type)
	}
	if got := content(t, resp); !strings.Contains(got, "[`octocat`](https://github.com/octocat) opened this issue <t:") || !strings.Contains(got, "| 2 comments") {
		t.Fatalf("content = %q", got)
	}
	if len(resp.Data.Embeds) != 1 || resp.Data.Embeds[0].Title != "Bug #42" {
		t.Fatalf("embeds = %+v", resp.Data.Embeds)
	}
	if resp.Data.Flags&discord.FlagEphemeral != 0 {
		t.Fatal("reply should be public by default")
	}
	if len(f.gh.gets) != 1 || f.gh.gets[0] != "octo/hello#42" {
		t.Fatalf("gets = %v", f.gh.gets)
	}
}

func TestIssuesGet_SimplifiedAndEphemeral(t *testing.T) {
	f := newFixture(t)
	f.link(t, "u1", "octocat")
	yes := true
	if _, err := f.profiles.EditMisc(context.Background(), "u1", services.MiscSettings{Ephemeral: &yes, Simplified: &yes}); err != nil {
		t.Fatalf("EditMisc: %v", err)
	}

	resp := f.run(t, "u1", issuesGet, issueArgs())
	if len(resp.Data.Embeds) != 0 {
		t.Fatalf("simplified reply has embeds: %+v", resp.Data.Embeds)
	}
	if !strings.HasSuffix(content(t, resp), "\nhttps://github.com/octo/hello/issues/42") {
		t.Fatalf("content = %q", content(t, resp))
	}
	if resp.Data.Flags&discord.FlagEphemeral == 0 {
		t.Fatal("expected ephemeral reply")
	}
}

func TestIssuesGet_InvalidOptions(t *testing.T) {
	f := newFixture(t)
	f.link(t, "u1", "octocat")

	resp := f.run(t, "u1", issuesGet, map[string]any{"owner": "octo", "repo": "hello"})
	if got := content(t, resp); got != MsgInvalidOptions {
		t.Fatalf("content = %q", got)
	}
	if len(f.gh.gets) != 0 {
		t.Fatal("GitHub must not be called with invalid options")
	}
}

func TestIssues_UnknownSubcommand(t *testing.T) {
	f := newFixture(t)
	f.link(t, "u1", "octocat")

	resp := f.run(t, "u1", interactions.Path{Name: "issues", Sub: "merge"}, issueArgs())
	if got := content(t, resp); got != MsgInvalidSubcommand {
		t.Fatalf("content = %q", got)
	}
}

func TestIssuesCreate_AppliesRepoSettings(t *testing.T) {
	f := newFixture(t)
	f.link(t, "u1", "octocat")
	project, assignees := "PVT_1", "octocat, hubot"
	if _, err := f.profiles.EditRepoSettings(context.Background(), "u1", services.RepoSettingsEdit{
		Owner: "octo", Repo: "hello", AutoProject: &project, AutoAssignees: &assignees,
	}); err != nil {
		t.Fatalf("EditRepoSettings: %v", err)
	}

	resp := f.run(t, "u1", issuesCreate, map[string]any{
		"owner": "octo", "repo": "hello", "title": "Crash on start", "labels": "bug, ui",
	})

	if len(f.gh.created) != 1 {
		t.Fatalf("created = %d", len(f.gh.created))
	}
	req := f.gh.created[0]
	if req.Assignees == nil || strings.Join(*req.Assignees, ",") != "octocat,hubot" {
		t.Fatalf("assignees = %v", req.Assignees)
	}
	if req.Labels == nil || strings.Join(*req.Labels, ",") != "bug,ui" {
		t.Fatalf("labels = %v", req.Labels)
	}
	if len(f.gh.addedToBoard) != 1 || f.gh.addedToBoard[0] != "PVT_1/I_42" {
		t.Fatalf("project adds = %v", f.gh.addedToBoard)
	}
	if !strings.HasSuffix(content(t, resp), "\nAnd added issue to project") {
		t.Fatalf("content = %q", content(t, resp))
	}
	if resp.Data.Embeds[0].Title != "Crash on start #42" {
		t.Fatalf("title = %q", resp.Data.Embeds[0].Title)
	}
}

func TestIssuesCreate_ProjectFailureIsFollowedUp(t *testing.T) {
	f := newFixture(t)
	f.link(t, "u1", "octocat")
	f.gh.projectErr = errors.New("boom")
	project := "PVT_1"
	if _, err := f.profiles.EditRepoSettings(context.Background(), "u1", services.RepoSettingsEdit{
		Owner: "octo", Repo: "hello", AutoProject: &project,
	}); err != nil {
		t.Fatalf("EditRepoSettings: %v", err)
	}

	resp := f.run(t, "u1", issuesCreate, map[string]any{
		"owner": "octo", "repo": "hello", "title": "Crash on start",
	})
	if strings.Contains(content(t, resp), "project") {
		t.Fatalf("content = %q", content(t, resp))
	}
	if len(f.editor.followups) != 1 {
		t.Fatalf("followups = %d", len(f.editor.followups))
	}
	fu := f.editor.followups[0]
	if !strings.HasPrefix(fu.Content, "Could not add issue to project:\n") || fu.Flags&discord.FlagEphemeral == 0 {
		t.Fatalf("followup = %+v", fu)
	}
}

func TestIssuesCreate_ExplicitAssigneesWin(t *testing.T) {
	f := newFixture(t)
	f.link(t, "u1", "octocat")
	assignees := "hubot"
	if _, err := f.profiles.EditRepoSettings(context.Background(), "u1", services.RepoSettingsEdit{
		Owner: "octo", Repo: "hello", AutoAssignees: &assignees,
	}); err != nil {
		t.Fatalf("EditRepoSettings: %v", err)
	}

	f.run(t, "u1", issuesCreate, map[string]any{
		"owner": "octo", "repo": "hello", "title": "x", "assignees": "monalisa",
	})
	if got := *f.gh.created[0].Assignees; len(got) != 1 || got[0] != "monalisa" {
		t.Fatalf("assignees = %v", got)
	}
	if len(f.gh.addedToBoard) != 0 {
		t.Fatal("no project configured")
	}
}

func TestIssuesClose_WithReason(t *testing.T) {
	f := newFixture(t)
	f.link(t, "u1", "octocat")
	args := issueArgs()
	args["reason"] = "not_planned"

	resp := f.run(t, "u1", issuesClose, args)
	if !strings.HasPrefix(content(t, resp), "## Closed\n\n") {
		t.Fatalf("content = %q", content(t, resp))
	}
	req := f.gh.issueEdits[0]
	if *req.State != "closed" || *req.StateReason != "not_planned" {
		t.Fatalf("edit = %+v", req)
	}
}

func TestIssuesClose_GitHubError(t *testing.T) {
	f := newFixture(t)
	f.link(t, "u1", "octocat")
	f.gh.err = errString("boom")

	resp := f.run(t, "u1", issuesClose, issueArgs())
	if resp.Data.Flags&discord.FlagEphemeral == 0 || content(t, resp) == "" {
		t.Fatalf("resp = %+v", resp.Data)
	}
}

type errString string

func (e errString) Error() string { return string(e) }

// prefill returns the modal values as the issue update modal shows them.
func prefill(resp discord.Response) map[string]string {
	values := map[string]string{}
	for _, row := range resp.Data.Components {
		for _, in := range row.Components {
			values[in.CustomID] = in.Value
		}
	}
	return values
}

func TestIssuesUpdate_ShowsPrefilledModal(t *testing.T) {
	f := newFixture(t)
	f.link(t, "u1", "octocat")

	resp := f.run(t, "u1", issuesUpdate, issueArgs())
	if resp.Type != discord.ResponseModal {
		t.Fatalf("type = %d", resp.Type)
	}
	if resp.Data.CustomID != "issue:octo/hello#42" || resp.Data.Title != "Update Issue #42" {
		t.Fatalf("modal = %q %q", resp.Data.CustomID, resp.Data.Title)
	}
	v := prefill(resp)
	if v["title"] != "Bug" || v["state"] != "Open" || v["labels"] != "bug" {
		t.Fatalf("prefill = %v", v)
	}
	if f.reg.Len() != 1 {
		t.Fatalf("registrations = %d", f.reg.Len())
	}
}

func TestIssuesUpdate_NoEdits(t *testing.T) {
	f := newFixture(t)
	f.link(t, "u1", "octocat")
	modal := f.run(t, "u1", issuesUpdate, issueArgs())

	resp := f.fire(t, interactions.KindModal, "u1", modal.Data.CustomID, prefill(modal))
	if got := content(t, resp); got != MsgNoEdits {
		t.Fatalf("content = %q", got)
	}
	if len(f.gh.issueEdits) != 0 {
		t.Fatal("nothing should be sent to GitHub")
	}
}

func TestIssuesUpdate_InvalidStateEndsFlow(t *testing.T) {
	f := newFixture(t)
	f.link(t, "u1", "octocat")
	modal := f.run(t, "u1", issuesUpdate, issueArgs())

	values := prefill(modal)
	values["state"] = "maybe"
	resp := f.fire(t, interactions.KindModal, "u1", modal.Data.CustomID, values)
	if got := content(t, resp); got != MsgInvalidState {
		t.Fatalf("content = %q", got)
	}
	if f.reg.Len() != 0 {
		t.Fatal("the flow should be over")
	}
}

func TestIssuesUpdate_InvalidReason(t *testing.T) {
	f := newFixture(t)
	f.link(t, "u1", "octocat")
	modal := f.run(t, "u1", issuesUpdate, issueArgs())

	values := prefill(modal)
	values["state_reason"] = "because"
	resp := f.fire(t, interactions.KindModal, "u1", modal.Data.CustomID, values)
	if got := content(t, resp); got != MsgInvalidReason {
		t.Fatalf("content = %q", got)
	}
}

func TestIssuesUpdate_SendsOnlyChangedFields(t *testing.T) {
	f := newFixture(t)
	f.link(t, "u1", "octocat")
	modal := f.run(t, "u1", issuesUpdate, issueArgs())

	values := prefill(modal)
	values["state"] = "c"
	values["body"] = ""
	resp := f.fire(t, interactions.KindModal, "u1", modal.Data.CustomID, values)

	if !strings.HasPrefix(content(t, resp), "## Updated\n\n") {
		t.Fatalf("content = %q", content(t, resp))
	}
	req := f.gh.issueEdits[0]
	if req.State == nil || *req.State != "closed" {
		t.Fatalf("state = %v", req.State)
	}
	if req.Body == nil || *req.Body != "" {
		t.Fatalf("body should be cleared explicitly: %v", req.Body)
	}
	if req.Title != nil || req.Labels != nil || req.StateReason != nil {
		t.Fatalf("unchanged fields sent: %+v", req)
	}
}

func TestIssuesUpdate_HeldByAnotherUser(t *testing.T) {
	f := newFixture(t)
	f.link(t, "u1", "octocat")
	f.link(t, "u2", "hubot")
	f.run(t, "u1", issuesUpdate, issueArgs())

	resp := f.run(t, "u2", issuesUpdate, issueArgs())
	if got := content(t, resp); got != MsgBeingEdited {
		t.Fatalf("content = %q", got)
	}

	// The owner may reopen their own modal.
	if resp := f.run(t, "u1", issuesUpdate, issueArgs()); resp.Type != discord.ResponseModal {
		t.Fatalf("type = %d", resp.Type)
	}
}

func TestIssuesUpdate_ModalAfterDeferral(t *testing.T) {
	f := newFixture(t)
	f.link(t, "u1", "octocat")
	inv := f.invocation(t, interactions.KindCommand, "u1", issuesUpdate, issueArgs())
	if _, ok := inv.Responder.Defer(); !ok {
		t.Fatal("Defer failed")
	}

	if err := f.set.runIssues(context.Background(), inv); err != nil {
		t.Fatalf("runIssues: %v", err)
	}
	edits := f.editor.Edits()
	if len(edits) != 1 || *edits[0].Content != MsgTooSlow {
		t.Fatalf("edits = %+v", edits)
	}
	if f.reg.Len() != 0 {
		t.Fatal("registration should be withdrawn")
	}
}

func TestCorrelationID(t *testing.T) {
	if got := correlationID("issue", "octo", "hello", 42); got != "issue:octo/hello#42" {
		t.Fatalf("got %q", got)
	}
	long := correlationID("pull", strings.Repeat("o", 60), strings.Repeat("r", 60), 1)
	if len(long) > maxCustomID || !strings.HasPrefix(long, "pull:") {
		t.Fatalf("long id = %q", long)
	}
	if long != correlationID("pull", strings.Repeat("o", 60), strings.Repeat("r", 60), 1) {
		t.Fatal("hashed id must be stable")
	}
}
