// Package commands implements the slash commands of the bot: the GitHub
// issue and pull request commands with their edit flows, account linking and
// unlinking, settings, repository listing and the "my" shortcuts.
//
// Command metadata lives in YAML files under defs/, one file per command;
// this package only provides the Go handlers bound to those names.
package commands

import (
	"embed"
	"time"

	"github.com/rs/zerolog"

	"github.com/tbourn/gitcord/internal/autocomplete"
	"github.com/tbourn/gitcord/internal/clock"
	"github.com/tbourn/gitcord/internal/github"
	"github.com/tbourn/gitcord/internal/interactions"
	"github.com/tbourn/gitcord/internal/services"
)

//go:embed defs
var defs embed.FS

// DefsRoot is the directory of command definitions inside Defs.
const DefsRoot = "defs"

// Defs returns the embedded command definition tree.
func Defs() embed.FS { return defs }

// Default flow lifetimes. Pagination expires just before the interaction
// token does so that the buttons can still be removed.
const (
	DefaultFlowTTL = interactions.DefaultTTL
	DefaultLinkTTL = services.DefaultLinkTTL
	DefaultPageTTL = interactions.TokenLifetime - time.Minute
)

// Config carries the settings commands need from the process configuration.
type Config struct {
	// SiteURL is the public base URL of the HTTP server, used for the OAuth
	// sign-in link.
	SiteURL      string
	OAuthEnabled bool
	FlowTTL      time.Duration
	LinkTTL      time.Duration
	PageTTL      time.Duration
}

// Set holds the dependencies shared by all command handlers.
type Set struct {
	Registry *interactions.Registry
	Profiles *services.ProfileService
	Links    *services.LinkService
	Cache    *autocomplete.Cache
	// GitHub builds clients for tokens not yet stored, e.g. while verifying
	// a personal token during /link.
	GitHub github.Factory
	Clock  clock.Clock
	Config Config
	Log    zerolog.Logger
}

// New returns a Set with zero durations replaced by their defaults.
func New(s Set) *Set {
	if s.Config.FlowTTL <= 0 {
		s.Config.FlowTTL = DefaultFlowTTL
	}
	if s.Config.LinkTTL <= 0 {
		s.Config.LinkTTL = DefaultLinkTTL
	}
	if s.Config.PageTTL <= 0 {
		s.Config.PageTTL = DefaultPageTTL
	}
	if s.Clock == nil {
		s.Clock = clock.Real{}
	}
	return &s
}

// Handlers maps command names to their handlers.
func (s *Set) Handlers() map[string]interactions.Handler {
	return map[string]interactions.Handler{
		"issues":   {Run: s.runIssues, Autocomplete: s.completeIssues},
		"pulls":    {Run: s.runPulls, Autocomplete: s.completePulls},
		"link":     {Run: s.runLink},
		"unlink":   {Run: s.runUnlink},
		"settings": {Run: s.runSettings, Autocomplete: s.completeSettings},
		"repos":    {Run: s.runRepos},
		"my":       {Run: s.runMy, Autocomplete: s.completeMy},
	}
}

// Register discovers the embedded definitions and binds them into cr.
func (s *Set) Register(cr *interactions.CommandRegistry) error {
	return cr.RegisterAll(defs, DefsRoot, s.Handlers())
}
