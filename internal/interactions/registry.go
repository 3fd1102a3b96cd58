package interactions

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tbourn/gitcord/internal/clock"
	"github.com/tbourn/gitcord/internal/discord"
	"github.com/tbourn/gitcord/internal/observability"
)

// User-facing messages written by the registry.
const (
	MsgUnexpected  = "An unexpected error has occurred"
	MsgNotForYou   = "This interaction is not for you"
	MsgTimedOut    = "Interaction timed out!"
	TimedOutButton = "timedoutbtn"
)

// DefaultTTL is how long a registration waits for its follow-up interaction.
const DefaultTTL = 30 * time.Minute

// ErrFlowInProgress is returned by Claim when another user holds the id.
var ErrFlowInProgress = errors.New("interactions: flow already in progress")

// Continuation resumes a flow when its follow-up interaction arrives.
type Continuation func(ctx context.Context, r *Responder, env Envelope) error

// Registration is a pending continuation keyed by a correlation id.
type Registration struct {
	ID string
	// Owner is the Discord user allowed to fire it; empty allows anyone.
	Owner     string
	TTL       time.Duration
	MultiShot bool
	// Origin is the response patched when the registration expires.
	Origin *Responder
	// OnTimeout replaces the default timeout edit.
	OnTimeout *discord.MessageEdit
	// Group names sibling registrations removed when this one fires.
	Group []string
	Run   Continuation
}

// Outcome is the result of Fire.
type Outcome int

const (
	Unhandled Outcome = iota
	Handled
	Rejected
)

type entry struct {
	reg   Registration
	gen   uint64
	timer clock.Timer
}

// Registry maps correlation ids to continuations. Firing and expiry are
// mutually exclusive: whichever removes the entry under the lock wins.
type Registry struct {
	mu      sync.Mutex
	entries map[string]*entry
	gen     uint64

	clock      clock.Clock
	log        zerolog.Logger
	exec       func(func())
	runTimeout time.Duration
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithClock sets the clock used for expiry timers.
func WithClock(c clock.Clock) RegistryOption {
	return func(r *Registry) { r.clock = c }
}

// WithLogger sets the registry logger.
func WithLogger(l zerolog.Logger) RegistryOption {
	return func(r *Registry) { r.log = l }
}

// WithExecutor sets how continuations are started. Tests pass a synchronous
// executor.
func WithExecutor(exec func(func())) RegistryOption {
	return func(r *Registry) { r.exec = exec }
}

// WithRunTimeout bounds how long a continuation may run.
func WithRunTimeout(d time.Duration) RegistryOption {
	return func(r *Registry) { r.runTimeout = d }
}

// NewRegistry returns an empty registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		entries:    make(map[string]*entry),
		clock:      clock.Real{},
		log:        zerolog.Nop(),
		exec:       func(f func()) { go f() },
		runTimeout: TokenLifetime,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Register stores reg, replacing any registration under the same id without
// firing it, and arms its expiry timer. It returns the registration's
// generation for use with Current.
func (r *Registry) Register(reg Registration) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.registerLocked(reg)
}

// Claim is Register for ids derived from shared entities: it fails with
// ErrFlowInProgress while a live registration belongs to another owner.
func (r *Registry) Claim(reg Registration) (uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.entries[reg.ID]; ok && e.reg.Owner != reg.Owner {
		return 0, fmt.Errorf("%w: %s", ErrFlowInProgress, reg.ID)
	}
	return r.registerLocked(reg), nil
}

func (r *Registry) registerLocked(reg Registration) uint64 {
	if reg.TTL <= 0 {
		reg.TTL = DefaultTTL
	}
	if old, ok := r.entries[reg.ID]; ok {
		old.timer.Stop()
	}
	r.gen++
	gen := r.gen
	id := reg.ID
	e := &entry{reg: reg, gen: gen}
	r.entries[id] = e
	e.timer = r.clock.AfterFunc(reg.TTL, func() { r.expire(id, gen) })
	observability.Registrations.Set(float64(len(r.entries)))
	return gen
}

// Fire runs the continuation registered under id. Single-shot registrations
// are removed before running, and every id in the registration's Group is
// removed with it under the same lock. An unknown id is answered with a generic
// error when the responder is still pending.
func (r *Registry) Fire(ctx context.Context, id string, resp *Responder, env Envelope) Outcome {
	r.mu.Lock()
	e, ok := r.entries[id]
	if !ok {
		r.mu.Unlock()
		r.log.Debug().Str("correlation_id", id).Msg("no registration")
		if resp.Pending() {
			r.reply(ctx, resp, MsgUnexpected)
		}
		return Unhandled
	}
	if e.reg.Owner != "" && e.reg.Owner != env.UserID {
		r.mu.Unlock()
		r.reply(ctx, resp, MsgNotForYou)
		return Rejected
	}
	if !e.reg.MultiShot {
		r.removeLocked(id)
	}
	for _, sib := range e.reg.Group {
		if sib != id {
			r.removeLocked(sib)
		}
	}
	observability.Registrations.Set(float64(len(r.entries)))
	r.mu.Unlock()

	runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.runTimeout)
	r.exec(func() {
		defer cancel()
		r.run(runCtx, e.reg, resp, env)
	})
	return Handled
}

func (r *Registry) run(ctx context.Context, reg Registration, resp *Responder, env Envelope) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error().Interface("panic", rec).Str("correlation_id", reg.ID).Msg("continuation panicked")
			if resp.Pending() {
				r.reply(ctx, resp, MsgUnexpected)
			}
		}
	}()
	if err := reg.Run(ctx, resp, env); err != nil {
		r.log.Error().Err(err).Str("correlation_id", reg.ID).Msg("continuation failed")
		if resp.Pending() {
			r.reply(ctx, resp, MsgUnexpected)
		}
	}
}

func (r *Registry) reply(ctx context.Context, resp *Responder, msg string) {
	if err := resp.Respond(ctx, discord.Text(msg, true)); err != nil {
		r.log.Debug().Err(err).Msg("response suppressed")
	}
}

// Cancel removes the registration under id without firing it.
func (r *Registry) Cancel(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.removeLocked(id) {
		return false
	}
	observability.Registrations.Set(float64(len(r.entries)))
	return true
}

func (r *Registry) removeLocked(id string) bool {
	e, ok := r.entries[id]
	if !ok {
		return false
	}
	e.timer.Stop()
	delete(r.entries, id)
	return true
}

// Current reports whether the registration of generation gen is still the
// live one under id.
func (r *Registry) Current(id string, gen uint64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[id]
	return ok && e.gen == gen
}

// Len is the number of live registrations.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

func (r *Registry) expire(id string, gen uint64) {
	r.mu.Lock()
	e, ok := r.entries[id]
	if !ok || e.gen != gen {
		r.mu.Unlock()
		return
	}
	delete(r.entries, id)
	observability.Registrations.Set(float64(len(r.entries)))
	r.mu.Unlock()

	observability.RegistrationExpiries.Inc()
	r.log.Debug().Str("correlation_id", id).Msg("registration expired")

	origin := e.reg.Origin
	if origin == nil || !origin.Editable() {
		return
	}
	edit := TimeoutEdit()
	if e.reg.OnTimeout != nil {
		edit = *e.reg.OnTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := origin.EditOriginal(ctx, edit); err != nil {
		r.log.Warn().Err(err).Str("correlation_id", id).Msg("timeout edit failed")
	}
}

// TimeoutEdit replaces a message's components with a single disabled
// "timed out" button.
func TimeoutEdit() discord.MessageEdit {
	btn := discord.Button(TimedOutButton, MsgTimedOut, discord.ButtonDanger)
	btn.Disabled = true
	components := []discord.Component{discord.Row(btn)}
	return discord.MessageEdit{Components: &components}
}
