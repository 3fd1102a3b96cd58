// Package handlers implements the HTTP endpoints of the bot: the Discord
// interactions webhook, the GitHub OAuth sign-in routes, the GitHub webhook
// receiver and the health probe.
//
// Handlers are transport-thin: they validate input, call the interaction
// dispatcher or application services, and translate results into HTTP
// responses.
package handlers

import (
	"context"
	"time"

	"github.com/tbourn/gitcord/internal/clock"
	"github.com/tbourn/gitcord/internal/domain"
	"github.com/tbourn/gitcord/internal/github"
	"github.com/tbourn/gitcord/internal/interactions"
	"github.com/tbourn/gitcord/internal/repo"
	"github.com/tbourn/gitcord/internal/services"
)

//
// Service contracts (context-aware)
//

// Dispatcher processes one classified interaction to completion, answering
// through resp.
type Dispatcher interface {
	Handle(ctx context.Context, env interactions.Envelope, resp *interactions.Responder)
}

// LinkTokens resolves the single-use tokens handed out by /link.
type LinkTokens interface {
	// Lookup returns the pending link without consuming it.
	Lookup(ctx context.Context, token string) (*domain.PendingLink, error)
	// Consume returns and deletes the pending link.
	Consume(ctx context.Context, token string) (*domain.PendingLink, error)
}

// AccountLinker stores a newly linked account.
type AccountLinker interface {
	Init(ctx context.Context, p services.NewProfile) (services.LinkResult, error)
}

// OAuthFlow is the GitHub OAuth app.
type OAuthFlow interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (string, error)
}

// StatsFunc reports link statistics for the health probe.
type StatsFunc func(ctx context.Context) (repo.LinkStats, error)

//
// Handler wiring
//

// Deps are the collaborators of Handlers.
type Deps struct {
	Dispatcher Dispatcher
	// Editor patches deferred responses.
	Editor interactions.Editor
	Clock  clock.Clock
	// DeferAfter is how long an interaction may run before it is answered
	// with a deferral.
	DeferAfter time.Duration
	// Timeout bounds the detached handler run.
	Timeout time.Duration

	Links    LinkTokens
	Profiles AccountLinker
	// OAuth is nil when no OAuth app is configured.
	OAuth  OAuthFlow
	GitHub github.Factory

	Stats StatsFunc
	// Registrations reports live correlation registrations.
	Registrations func() int
}

// Handlers groups the HTTP endpoints.
type Handlers struct {
	d Deps
}

// New constructs Handlers, applying defaults for zero timings and clock.
func New(d Deps) *Handlers {
	if d.Clock == nil {
		d.Clock = clock.Real{}
	}
	if d.DeferAfter <= 0 {
		d.DeferAfter = 2500 * time.Millisecond
	}
	if d.Timeout <= 0 {
		d.Timeout = interactions.TokenLifetime
	}
	return &Handlers{d: d}
}
