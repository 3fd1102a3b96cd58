package commands

import (
	"strings"
	"testing"

	"github.com/tbourn/gitcord/internal/discord"
	"github.com/tbourn/gitcord/internal/interactions"
)

var (
	pullsCreate = interactions.Path{Name: "pulls", Sub: "create"}
	pullsUpdate = interactions.Path{Name: "pulls", Sub: "update"}
)

func TestPullsCreate_NeedsTitleOrIssue(t *testing.T) {
	f := newFixture(t)
	f.link(t, "u1", "octocat")

	resp := f.run(t, "u1", pullsCreate, map[string]any{
		"owner": "octo", "repo": "hello", "head": "fix", "base": "main",
	})
	if got := content(t, resp); got != MsgTitleOrIssue {
		t.Fatalf("content = %q", got)
	}
	if len(f.gh.newPulls) != 0 {
		t.Fatal("no pull request should be opened")
	}
}

func TestPullsCreate_FromIssue(t *testing.T) {
	f := newFixture(t)
	f.link(t, "u1", "octocat")

	resp := f.run(t, "u1", pullsCreate, map[string]any{
		"owner": "octo", "repo": "hello", "head": "fix", "base": "main", "issue": 42, "draft": true,
	})
	if len(f.gh.newPulls) != 1 {
		t.Fatalf("newPulls = %d", len(f.gh.newPulls))
	}
	in := f.gh.newPulls[0]
	if in.Issue != 42 || !in.Draft || in.Head != "fix" || in.Base != "main" {
		t.Fatalf("request = %+v", in)
	}
	want := "[`octocat`](https://github.com/octocat) wants to merge 3 commits into [`octo:main`]"
	if !strings.HasPrefix(content(t, resp), want) {
		t.Fatalf("content = %q", content(t, resp))
	}
	if resp.Data.Embeds[0].Title != "Fix bug #5" {
		t.Fatalf("title = %q", resp.Data.Embeds[0].Title)
	}
}

func TestPullsUpdate_Flow(t *testing.T) {
	f := newFixture(t)
	f.link(t, "u1", "octocat")

	modal := f.run(t, "u1", pullsUpdate, map[string]any{"owner": "octo", "repo": "hello", "pull_number": 5})
	if modal.Type != discord.ResponseModal {
		t.Fatalf("type = %d", modal.Type)
	}
	if modal.Data.CustomID != "pull:octo/hello#5" || modal.Data.Title != "Update octo:main #5" {
		t.Fatalf("modal = %q %q", modal.Data.CustomID, modal.Data.Title)
	}
	values := prefill(modal)
	if values["base"] != "main" || values["maintainer_can_modify"] != "True" {
		t.Fatalf("prefill = %v", values)
	}

	values["maintainer_can_modify"] = "f"
	values["base"] = "develop"
	resp := f.fire(t, interactions.KindModal, "u1", modal.Data.CustomID, values)
	if !strings.HasPrefix(content(t, resp), "## Updated\n\n") {
		t.Fatalf("content = %q", content(t, resp))
	}
	edit := f.gh.pullEdits[0]
	if edit.MaintainerCanModify == nil || *edit.MaintainerCanModify {
		t.Fatalf("mcm = %v", edit.MaintainerCanModify)
	}
	if edit.Base == nil || *edit.Base != "develop" {
		t.Fatalf("base = %v", edit.Base)
	}
	if edit.Title != nil || edit.State != nil || edit.Body != nil {
		t.Fatalf("unchanged fields sent: %+v", edit)
	}
}

func TestDiffPull(t *testing.T) {
	old := samplePull()
	base := map[string]string{
		"title": old.Title, "body": old.Body, "state": "Open", "base": "main", "maintainer_can_modify": "True",
	}
	with := func(k, v string) map[string]string {
		out := map[string]string{}
		for key, val := range base {
			out[key] = val
		}
		out[k] = v
		return out
	}

	tests := []struct {
		name    string
		values  map[string]string
		changed bool
		invalid string
	}{
		{"unchanged", base, false, ""},
		{"case only", with("state", "open"), false, ""},
		{"bad mcm", with("maintainer_can_modify", "yes"), true, MsgInvalidMCM},
		{"bad state", with("state", "merged"), true, MsgInvalidState},
		{"blank title keeps current", with("title", "  "), false, ""},
		{"close", with("state", "C"), true, ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, changed, invalid := diffPull(old, tc.values)
			if changed != tc.changed || invalid != tc.invalid {
				t.Fatalf("changed=%v invalid=%q", changed, invalid)
			}
		})
	}
}
