package commands

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/tbourn/gitcord/internal/discord"
	"github.com/tbourn/gitcord/internal/github"
	"github.com/tbourn/gitcord/internal/interactions"
	"github.com/tbourn/gitcord/internal/utils"
)

// reposPerPage is how many repositories one page of /repos list shows.
const reposPerPage = 10

func (s *Set) runRepos(ctx context.Context, inv *interactions.Invocation) error {
	switch inv.Envelope.Path.Sub {
	case "list":
		return s.listRepos(ctx, inv)
	default:
		return inv.Error(ctx, MsgInvalidSubcommand)
	}
}

// pager is the state of one paginated repository list. Buttons of the same
// message may be clicked concurrently.
type pager struct {
	mu    sync.Mutex
	repos []github.Repository
	page  int
	pages int
	prev  string
	next  string
}

func newPager(repos []github.Repository, key string) *pager {
	return &pager{
		repos: repos,
		pages: utils.Pages(len(repos), reposPerPage),
		prev:  "previous-" + key,
		next:  "next-" + key,
	}
}

// move shifts the current page by delta and renders it.
func (p *pager) move(delta int) discord.ResponseData {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.page = utils.ClampPage(p.page+delta, p.pages)
	return p.render()
}

func (p *pager) render() discord.ResponseData {
	lo, hi := utils.Bounds(p.page, reposPerPage, len(p.repos))
	lines := make([]string, 0, hi-lo)
	for _, r := range p.repos[lo:hi] {
		line := fmt.Sprintf("[`%s`](%s)", r.FullName, r.HTMLURL)
		if r.Private {
			line += " 🔒"
		}
		if r.Description != "" {
			line += "\n" + discord.Clip(r.Description, 100)
		}
		lines = append(lines, line)
	}
	if len(lines) == 0 {
		lines = append(lines, "No repositories")
	}

	data := discord.ResponseData{
		Content: fmt.Sprintf("You have %d repositories", len(p.repos)),
		Embeds: []discord.Embed{{
			Title:       "Repositories",
			Description: strings.Join(lines, "\n\n"),
			Color:       colorOpen,
			Footer:      &discord.EmbedFooter{Text: fmt.Sprintf("page %d of %d", p.page+1, p.pages)},
		}},
	}
	if p.pages > 1 {
		prev := discord.Button(p.prev, "", discord.ButtonSecondary)
		prev.Emoji = &discord.Emoji{Name: "⬅️"}
		prev.Disabled = p.page == 0
		next := discord.Button(p.next, "", discord.ButtonSecondary)
		next.Emoji = &discord.Emoji{Name: "➡️"}
		next.Disabled = p.page == p.pages-1
		data.Components = []discord.Component{discord.Row(prev, next)}
	}
	return data
}

func (s *Set) listRepos(ctx context.Context, inv *interactions.Invocation) error {
	repos, err := inv.GitHub.ListRepositories(ctx, "")
	if err != nil {
		return inv.GitHubError(ctx, err)
	}

	key := inv.Envelope.UserID
	if inv.Envelope.Raw != nil && inv.Envelope.Raw.ID != "" {
		key = inv.Envelope.Raw.ID
	}
	p := newPager(repos, key)
	first := p.move(0)
	if p.pages > 1 {
		turn := func(delta int) interactions.Continuation {
			return func(ctx context.Context, r *interactions.Responder, env interactions.Envelope) error {
				return r.Respond(ctx, discord.Update(p.move(delta)))
			}
		}
		// Only one registration patches the message on expiry.
		noButtons := []discord.Component{}
		s.Registry.Register(interactions.Registration{
			ID:        p.prev,
			Owner:     inv.Envelope.UserID,
			TTL:       s.Config.PageTTL,
			MultiShot: true,
			Origin:    inv.Responder,
			OnTimeout: &discord.MessageEdit{Components: &noButtons},
			Run:       turn(-1),
		})
		s.Registry.Register(interactions.Registration{
			ID:        p.next,
			Owner:     inv.Envelope.UserID,
			TTL:       s.Config.PageTTL,
			MultiShot: true,
			Run:       turn(1),
		})
	}
	return inv.Reply(ctx, first)
}
