// Package autocomplete keeps a per-login snapshot of the repositories, pull
// request numbers, issue numbers and labels of a GitHub account, and turns it
// into autocomplete suggestions. A caller's own entry lists what their token
// can see; any other owner's entry lists only that owner's public
// repositories. Entries go stale after a TTL and are
// refreshed lazily on read; concurrent refreshes of one login share a single
// upstream fetch.
package autocomplete

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/tbourn/gitcord/internal/clock"
	"github.com/tbourn/gitcord/internal/github"
	"github.com/tbourn/gitcord/internal/observability"
)

// DefaultTTL is how long an entry is served before it is refreshed.
const DefaultTTL = time.Hour

// Source is the slice of the GitHub capability a refresh needs.
type Source interface {
	// ListRepositories lists the repositories of login, or of the
	// authenticated user when login is empty.
	ListRepositories(ctx context.Context, login string) ([]github.Repository, error)
	ListPulls(ctx context.Context, owner, repo string) ([]github.PullRequest, error)
	ListIssues(ctx context.Context, owner, repo string) ([]github.Issue, error)
	ListLabels(ctx context.Context, owner, repo string) ([]string, error)
}

// Repo is the cached view of one repository.
type Repo struct {
	Owner  string
	Name   string
	Pulls  []int
	Issues []int
	Labels []string
}

// Entry is the cached snapshot of one login. Entries are replaced, never
// mutated, so a returned *Entry is safe to read without locking.
type Entry struct {
	Login string
	// Self marks the listing of the authenticated caller, which may include
	// private repositories and repositories of other owners.
	Self          bool
	Repos         []Repo
	LastRefreshed time.Time
}

// HasOwner reports whether the entry lists a repository of owner.
func (e *Entry) HasOwner(owner string) bool {
	if e == nil {
		return false
	}
	for _, r := range e.Repos {
		if strings.EqualFold(r.Owner, owner) {
			return true
		}
	}
	return false
}

// Repo returns the cached repository owner/name, matched case-insensitively.
func (e *Entry) Repo(owner, name string) *Repo {
	if e == nil {
		return nil
	}
	for i := range e.Repos {
		r := &e.Repos[i]
		if strings.EqualFold(r.Owner, owner) && strings.EqualFold(r.Name, name) {
			return r
		}
	}
	return nil
}

// Cache is the in-memory autocomplete store.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]*Entry
	group   singleflight.Group

	ttl         time.Duration
	clock       clock.Clock
	concurrency int
	log         zerolog.Logger
}

// Option configures a Cache.
type Option func(*Cache)

// WithTTL sets the staleness threshold.
func WithTTL(d time.Duration) Option {
	return func(c *Cache) {
		if d > 0 {
			c.ttl = d
		}
	}
}

// WithClock sets the clock used for staleness.
func WithClock(clk clock.Clock) Option {
	return func(c *Cache) { c.clock = clk }
}

// WithConcurrency bounds parallel per-repository fetches during a refresh.
func WithConcurrency(n int) Option {
	return func(c *Cache) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// WithLogger sets the cache logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Cache) { c.log = l }
}

// New returns an empty cache.
func New(opts ...Option) *Cache {
	c := &Cache{
		entries:     make(map[string]*Entry),
		ttl:         DefaultTTL,
		clock:       clock.Real{},
		concurrency: 4,
		log:         zerolog.Nop(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Get returns the entry of the authenticated caller login, refreshing it
// from src when missing or stale. It returns nil when the refresh fails;
// nothing is cached then.
func (c *Cache) Get(ctx context.Context, login string, src Source) *Entry {
	return c.get(ctx, login, true, src)
}

// GetOwner is Get for an account other than the caller: the entry holds the
// public repositories of owner.
func (c *Cache) GetOwner(ctx context.Context, owner string, src Source) *Entry {
	return c.get(ctx, owner, false, src)
}

func (c *Cache) get(ctx context.Context, login string, self bool, src Source) *Entry {
	key := cacheKey(login, self)
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if ok && c.clock.Now().Sub(e.LastRefreshed) < c.ttl {
		observability.AutocompleteCache.WithLabelValues("hit").Inc()
		return e
	}
	observability.AutocompleteCache.WithLabelValues("miss").Inc()

	v, err, _ := c.group.Do(key, func() (any, error) {
		return c.refresh(ctx, login, self, src)
	})
	if err != nil {
		observability.AutocompleteCache.WithLabelValues("refresh_error").Inc()
		c.log.Warn().Err(err).Str("login", login).Bool("self", self).Msg("autocomplete refresh failed")
		return nil
	}
	return v.(*Entry)
}

// refresh fetches the full snapshot of login from src and replaces the
// cached entry. On error the previous entry is left untouched.
func (c *Cache) refresh(ctx context.Context, login string, self bool, src Source) (*Entry, error) {
	listAs := login
	if self {
		listAs = ""
	}
	repos, err := src.ListRepositories(ctx, listAs)
	if err != nil {
		return nil, err
	}

	out := make([]Repo, len(repos))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for i, r := range repos {
		out[i] = Repo{Owner: r.Owner, Name: r.Name}
		g.Go(func() error {
			// Per-repository failures leave that repository's lists empty.
			if pulls, err := src.ListPulls(gctx, r.Owner, r.Name); err == nil {
				for _, p := range pulls {
					out[i].Pulls = append(out[i].Pulls, p.Number)
				}
			}
			if issues, err := src.ListIssues(gctx, r.Owner, r.Name); err == nil {
				for _, is := range issues {
					out[i].Issues = append(out[i].Issues, is.Number)
				}
			}
			if labels, err := src.ListLabels(gctx, r.Owner, r.Name); err == nil {
				out[i].Labels = labels
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	e := &Entry{Login: login, Self: self, Repos: out, LastRefreshed: c.clock.Now()}
	c.mu.Lock()
	c.entries[cacheKey(login, self)] = e
	c.mu.Unlock()
	return e, nil
}

// cacheKey separates a caller's own listing from the public listing of the
// same login.
func cacheKey(login string, self bool) string {
	key := strings.ToLower(login)
	if !self {
		key += "\x00public"
	}
	return key
}

// Invalidate drops every entry of login.
func (c *Cache) Invalidate(login string) {
	c.mu.Lock()
	delete(c.entries, cacheKey(login, true))
	delete(c.entries, cacheKey(login, false))
	c.mu.Unlock()
}

// Logins returns the logins with a cached entry.
func (c *Cache) Logins() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	seen := make(map[string]struct{}, len(c.entries))
	out := make([]string, 0, len(c.entries))
	for _, e := range c.entries {
		k := strings.ToLower(e.Login)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, e.Login)
	}
	sort.Strings(out)
	return out
}
