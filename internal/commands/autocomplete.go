package commands

import (
	"context"

	"github.com/tbourn/gitcord/internal/autocomplete"
	"github.com/tbourn/gitcord/internal/discord"
	"github.com/tbourn/gitcord/internal/interactions"
)

// noProject is the value of the placeholder project choice; settings
// rejects it.
const noProject = "x"

// complete answers autocomplete for the options shared by the issues, pulls
// and settings commands. Unknown fields and missing prerequisites get an
// empty list.
func (s *Set) complete(ctx context.Context, inv *interactions.Invocation, kind autocomplete.Kind) error {
	opts := inv.Envelope.Options
	focused := inv.Envelope.Focused
	input := opts.String(focused)
	owner, repo := opts.String("owner"), opts.String("repo")

	if focused == "auto_project" {
		return s.completeProjects(ctx, inv, owner, input)
	}

	entry := s.Cache.Get(ctx, inv.Login(), inv.GitHub)
	if focused != "owner" && owner != "" && !entry.HasOwner(owner) {
		entry = s.Cache.GetOwner(ctx, owner, inv.GitHub)
	}
	var choices []discord.Choice
	switch focused {
	case "owner":
		choices = discord.StringChoices(s.Cache.Owners(entry, inv.Login(), input))
	case "repo":
		if owner != "" {
			choices = discord.StringChoices(autocomplete.RepoNames(entry, owner, input))
		}
	case "issue_number", "pull_number":
		if owner != "" && repo != "" {
			k := autocomplete.Issues
			if focused == "pull_number" {
				k = autocomplete.Pulls
			}
			choices = autocomplete.NumberChoices(autocomplete.RepoNumbers(ctx, entry, inv.GitHub, k, owner, repo, input))
		}
	case "issue":
		// pulls create turns an existing issue into a pull request.
		if kind == autocomplete.Pulls && owner != "" && repo != "" {
			choices = autocomplete.NumberChoices(autocomplete.RepoNumbers(ctx, entry, inv.GitHub, autocomplete.Issues, owner, repo, input))
		}
	case "labels":
		if owner != "" && repo != "" {
			choices = autocomplete.SuggestLabels(input, autocomplete.RepoLabels(ctx, entry, inv.GitHub, owner, repo))
		}
	}
	return inv.Choices(ctx, choices)
}

func (s *Set) completeProjects(ctx context.Context, inv *interactions.Invocation, owner, input string) error {
	if owner == "" {
		return inv.Choices(ctx, nil)
	}
	projects, err := inv.GitHub.ListProjects(ctx, owner)
	if err != nil {
		inv.Log.Debug().Err(err).Str("owner", owner).Msg("list projects")
	}
	if len(projects) == 0 {
		return inv.Choices(ctx, []discord.Choice{{Name: "No Projects Found", Value: noProject}})
	}

	ids := make(map[string]string, len(projects))
	titles := make([]string, 0, len(projects))
	for _, p := range projects {
		if _, dup := ids[p.Title]; !dup {
			titles = append(titles, p.Title)
		}
		ids[p.Title] = p.ID
	}
	ranked := autocomplete.Fuzzy(titles, input)
	choices := make([]discord.Choice, len(ranked))
	for i, t := range ranked {
		choices[i] = discord.Choice{Name: t, Value: ids[t]}
	}
	return inv.Choices(ctx, choices)
}
