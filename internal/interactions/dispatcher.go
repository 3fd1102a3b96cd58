package interactions

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/gitcord/internal/discord"
	"github.com/tbourn/gitcord/internal/domain"
	"github.com/tbourn/gitcord/internal/github"
	"github.com/tbourn/gitcord/internal/observability"
	"github.com/tbourn/gitcord/internal/services"
)

// MsgNotLinked answers commands that need a linked GitHub account.
const MsgNotLinked = "You must link your account to use this command"

// ProfileResolver loads the linked account of a Discord user together with
// its opened GitHub token. It returns services.ErrNotLinked for unknown users.
type ProfileResolver interface {
	Resolve(ctx context.Context, discordID string) (*domain.User, string, error)
}

// Followups posts messages after the original response.
type Followups interface {
	Followup(ctx context.Context, token string, data discord.ResponseData) error
}

// Invocation is what a command handler gets to work with.
type Invocation struct {
	Responder *Responder
	Envelope  Envelope
	Discord   Followups
	// Profile is nil for commands that run without a linked account.
	Profile *domain.User
	// GitHub acts as the linked user; nil when Profile is nil.
	GitHub github.API
	Log    zerolog.Logger
}

// Ephemeral reports whether replies should be visible to the invoker only.
func (inv *Invocation) Ephemeral() bool {
	return inv.Profile != nil && inv.Profile.Ephemeral
}

// Login is the GitHub login of the invoker, or "".
func (inv *Invocation) Login() string {
	if inv.Profile == nil {
		return ""
	}
	return inv.Profile.Login
}

// Reply answers with data, honouring the invoker's ephemeral setting.
func (inv *Invocation) Reply(ctx context.Context, data discord.ResponseData) error {
	return inv.Responder.Respond(ctx, discord.Reply(data, inv.Ephemeral()))
}

// Error answers with an ephemeral message.
func (inv *Invocation) Error(ctx context.Context, msg string) error {
	return inv.Responder.Respond(ctx, discord.Text(msg, true))
}

// GitHubError answers with the formatted upstream error.
func (inv *Invocation) GitHubError(ctx context.Context, err error) error {
	inv.Log.Debug().Err(err).Str("command", inv.Envelope.Path.String()).Msg("github call failed")
	return inv.Error(ctx, github.FormatError(err))
}

// Followup posts data as a further message once the interaction has been
// answered. It is a no-op when no outbound client is wired.
func (inv *Invocation) Followup(ctx context.Context, data discord.ResponseData) error {
	if inv.Discord == nil || inv.Envelope.Raw == nil {
		return nil
	}
	return inv.Discord.Followup(ctx, inv.Envelope.Raw.Token, data)
}

// Choices answers an autocomplete request.
func (inv *Invocation) Choices(ctx context.Context, choices []discord.Choice) error {
	return inv.Responder.Respond(ctx, discord.Choices(choices))
}

// Dispatcher routes classified interactions to commands and continuations.
type Dispatcher struct {
	commands *CommandRegistry
	registry *Registry
	profiles ProfileResolver
	github   github.Factory
	discord  Followups
	log      zerolog.Logger
	tracer   trace.Tracer
}

// NewDispatcher wires a dispatcher.
func NewDispatcher(commands *CommandRegistry, registry *Registry, profiles ProfileResolver, gh github.Factory, dc Followups, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		commands: commands,
		registry: registry,
		profiles: profiles,
		github:   gh,
		discord:  dc,
		log:      log,
		tracer:   otel.Tracer("github.com/tbourn/gitcord/internal/interactions"),
	}
}

// Handle processes one interaction to completion. Every path leaves resp
// answered unless the work was handed to a continuation.
func (d *Dispatcher) Handle(ctx context.Context, env Envelope, resp *Responder) {
	ctx, span := d.tracer.Start(ctx, "interaction."+string(env.Kind), trace.WithAttributes(
		attribute.String("discord.kind", string(env.Kind)),
		attribute.String("discord.command", env.Path.String()),
		attribute.String("discord.custom_id", env.CorrelationID),
	))
	defer span.End()

	outcome := "ok"
	defer func() {
		if rec := recover(); rec != nil {
			outcome = "panic"
			span.SetStatus(codes.Error, "panic")
			d.log.Error().Interface("panic", rec).Str("kind", string(env.Kind)).Msg("interaction handler panicked")
			d.fallback(ctx, resp)
		}
		observability.Interactions.WithLabelValues(string(env.Kind), outcome).Inc()
	}()

	var err error
	switch env.Kind {
	case KindPing:
		err = resp.Respond(ctx, discord.Response{Type: discord.ResponsePong})
	case KindCommand:
		outcome, err = d.command(ctx, env, resp)
	case KindAutocomplete:
		err = d.autocomplete(ctx, env, resp)
	case KindComponent, KindModal:
		switch d.registry.Fire(ctx, env.CorrelationID, resp, env) {
		case Unhandled:
			outcome = "unhandled"
		case Rejected:
			outcome = "rejected"
		}
	}
	if err != nil {
		outcome = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		d.log.Error().Err(err).Str("kind", string(env.Kind)).Str("command", env.Path.String()).Msg("interaction failed")
		d.fallback(ctx, resp)
	}
}

func (d *Dispatcher) command(ctx context.Context, env Envelope, resp *Responder) (string, error) {
	cmd, known := d.commands.Lookup(env.Path.Name)
	inv := d.invocation(env, resp)

	profile, token, err := d.profiles.Resolve(ctx, env.UserID)
	switch {
	case err == nil:
		inv.Profile = profile
		inv.GitHub = d.github(token)
		resp.SetDeferEphemeral(profile.Ephemeral)
	case errors.Is(err, services.ErrNotLinked):
		if known && cmd.RequiresLink {
			return "not_linked", resp.Respond(ctx, discord.Text(MsgNotLinked, true))
		}
	default:
		if known && cmd.RequiresLink {
			return "error", err
		}
		d.log.Warn().Err(err).Str("user_id", env.UserID).Msg("profile unavailable")
	}

	return "ok", d.commands.Dispatch(env.Path.Name)(ctx, inv)
}

func (d *Dispatcher) autocomplete(ctx context.Context, env Envelope, resp *Responder) error {
	profile, token, err := d.profiles.Resolve(ctx, env.UserID)
	if err != nil || env.Focused == "" {
		if err != nil && !errors.Is(err, services.ErrNotLinked) {
			d.log.Warn().Err(err).Str("user_id", env.UserID).Msg("profile unavailable")
		}
		return resp.Respond(ctx, discord.Choices(nil))
	}
	inv := d.invocation(env, resp)
	inv.Profile = profile
	inv.GitHub = d.github(token)
	return d.commands.DispatchAutocomplete(env.Path.Name)(ctx, inv)
}

func (d *Dispatcher) invocation(env Envelope, resp *Responder) *Invocation {
	return &Invocation{
		Responder: resp,
		Envelope:  env,
		Discord:   d.discord,
		Log:       d.log,
	}
}

// fallback writes the generic failure when nothing has been answered yet.
func (d *Dispatcher) fallback(ctx context.Context, resp *Responder) {
	if !resp.Pending() {
		return
	}
	var r discord.Response
	if resp.Kind() == KindAutocomplete {
		r = discord.Choices(nil)
	} else {
		r = discord.Text(MsgUnexpected, true)
	}
	if err := resp.Respond(ctx, r); err != nil {
		d.log.Debug().Err(err).Msg("response suppressed")
	}
}
