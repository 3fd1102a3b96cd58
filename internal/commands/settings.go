package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tbourn/gitcord/internal/autocomplete"
	"github.com/tbourn/gitcord/internal/discord"
	"github.com/tbourn/gitcord/internal/interactions"
	"github.com/tbourn/gitcord/internal/services"
)

type miscOptions struct {
	Ephemeral  *bool `json:"ephemeral"`
	Simplified *bool `json:"simplified"`
}

type repoSettingsOptions struct {
	repoRef
	AutoProject   *string `json:"auto_project"`
	AutoAssignees *string `json:"auto_assignees"`
}

func (s *Set) runSettings(ctx context.Context, inv *interactions.Invocation) error {
	switch inv.Envelope.Path.Sub {
	case "misc":
		return s.miscSettings(ctx, inv)
	case "issues":
		return s.issueSettings(ctx, inv)
	default:
		return inv.Error(ctx, MsgInvalidSubcommand)
	}
}

func (s *Set) completeSettings(ctx context.Context, inv *interactions.Invocation) error {
	return s.complete(ctx, inv, autocomplete.Issues)
}

func (s *Set) miscSettings(ctx context.Context, inv *interactions.Invocation) error {
	var o miscOptions
	if ok, err := decode(ctx, inv, &o); !ok {
		return err
	}
	u, err := s.Profiles.EditMisc(ctx, inv.Envelope.UserID, services.MiscSettings{
		Ephemeral:  o.Ephemeral,
		Simplified: o.Simplified,
	})
	if errors.Is(err, services.ErrNoSettings) {
		return inv.Error(ctx, MsgSpecifySettings)
	}
	if err != nil {
		return err
	}

	var b strings.Builder
	b.WriteString("Settings Updated:\n")
	if o.Ephemeral != nil {
		fmt.Fprintf(&b, "**Ephemeral** is now `%t`\n", u.Ephemeral)
	}
	if o.Simplified != nil {
		fmt.Fprintf(&b, "**Simplified** is now `%t`\n", u.Simplified)
	}
	return private(ctx, inv, b.String())
}

func (s *Set) issueSettings(ctx context.Context, inv *interactions.Invocation) error {
	var o repoSettingsOptions
	if ok, err := decode(ctx, inv, &o); !ok {
		return err
	}
	if o.AutoProject == nil && o.AutoAssignees == nil {
		return inv.Error(ctx, MsgSpecifySettings)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Settings Updated For [`%[1]s/%[2]s`](https://github.com/%[1]s/%[2]s):\n", o.Owner, o.Repo)
	if o.AutoProject != nil && strings.TrimSpace(*o.AutoProject) == noProject {
		b.WriteString("**Auto Project** id is incorrect.\n")
		o.AutoProject = nil
	}
	if o.AutoProject == nil && o.AutoAssignees == nil {
		return private(ctx, inv, b.String())
	}

	st, err := s.Profiles.EditRepoSettings(ctx, inv.Envelope.UserID, services.RepoSettingsEdit{
		Owner:         o.Owner,
		Repo:          o.Repo,
		AutoProject:   o.AutoProject,
		AutoAssignees: o.AutoAssignees,
	})
	if err != nil {
		return err
	}
	if o.AutoProject != nil {
		if st.AutoProject == "" {
			b.WriteString("**Auto Project** is now disabled\n")
		} else {
			fmt.Fprintf(&b, "**Auto Project** is now linked to project id `%s`\n", st.AutoProject)
		}
	}
	if o.AutoAssignees != nil {
		if assignees := st.Assignees(); len(assignees) == 0 {
			b.WriteString("**Auto Assignees** is now disabled\n")
		} else {
			links := make([]string, len(assignees))
			for i, a := range assignees {
				links[i] = fmt.Sprintf("[`%[1]s`](https://github.com/%[1]s)", a)
			}
			fmt.Fprintf(&b, "**Auto Assignees** is set to %s\n", strings.Join(links, ", "))
		}
	}
	return private(ctx, inv, b.String())
}

// private answers with a message only the invoker sees.
func private(ctx context.Context, inv *interactions.Invocation, msg string) error {
	return inv.Responder.Respond(ctx, discord.Text(msg, true))
}
