// Package interactions routes inbound Discord interactions: it classifies
// payloads, owns the exactly-once response handle, keeps the correlation
// registry for multi-step flows and dispatches to command handlers.
package interactions

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tbourn/gitcord/internal/discord"
)

// Kind is the classified type of an interaction.
type Kind string

const (
	KindPing         Kind = "ping"
	KindCommand      Kind = "command"
	KindAutocomplete Kind = "autocomplete"
	KindComponent    Kind = "component"
	KindModal        Kind = "modal"
)

// ErrUnknownType is returned for interaction types the bot does not handle.
var ErrUnknownType = errors.New("interactions: unknown interaction type")

// Path is the invoked command: name plus optional group and subcommand.
type Path struct {
	Name  string
	Group string
	Sub   string
}

// String renders the path the way Discord users type it.
func (p Path) String() string {
	s := p.Name
	if p.Group != "" {
		s += " " + p.Group
	}
	if p.Sub != "" {
		s += " " + p.Sub
	}
	return s
}

// Envelope is the normalized view of one inbound interaction.
type Envelope struct {
	Kind          Kind
	Path          Path
	Options       Options
	UserID        string
	CorrelationID string
	// Focused is the option being typed in, for autocomplete.
	Focused string
	// Values holds submitted modal inputs by custom id.
	Values map[string]string
	Raw    *discord.Interaction
}

// Value returns the submitted modal input under id.
func (e Envelope) Value(id string) string {
	return e.Values[id]
}

// Classify builds the envelope of an interaction.
func Classify(in *discord.Interaction) (Envelope, error) {
	env := Envelope{Raw: in, Options: Options{}}
	if u := in.Invoker(); u != nil {
		env.UserID = u.ID
	}

	switch in.Type {
	case discord.InteractionPing:
		env.Kind = KindPing
		return env, nil
	case discord.InteractionCommand, discord.InteractionAutocomplete:
		env.Kind = KindCommand
		if in.Type == discord.InteractionAutocomplete {
			env.Kind = KindAutocomplete
		}
		var data discord.CommandData
		if err := json.Unmarshal(in.Data, &data); err != nil {
			return env, fmt.Errorf("decode command data: %w", err)
		}
		env.Path.Name = data.Name
		env.Focused = flatten(&env, data.Options)
		return env, nil
	case discord.InteractionComponent, discord.InteractionModalSubmit:
		env.Kind = KindComponent
		if in.Type == discord.InteractionModalSubmit {
			env.Kind = KindModal
		}
		var data discord.ComponentData
		if err := json.Unmarshal(in.Data, &data); err != nil {
			return env, fmt.Errorf("decode component data: %w", err)
		}
		env.CorrelationID = data.CustomID
		if env.Kind == KindModal {
			env.Values = discord.ModalValues(data.Components)
		}
		return env, nil
	default:
		return env, fmt.Errorf("%w: %d", ErrUnknownType, in.Type)
	}
}

// flatten walks subcommand groups and subcommands into env.Path and copies
// leaf options into env.Options. It returns the focused option name.
func flatten(env *Envelope, opts []discord.CommandOption) string {
	focused := ""
	for _, o := range opts {
		switch o.Type {
		case discord.OptionSubcommandGroup:
			env.Path.Group = o.Name
			if f := flatten(env, o.Options); f != "" {
				focused = f
			}
		case discord.OptionSubcommand:
			env.Path.Sub = o.Name
			if f := flatten(env, o.Options); f != "" {
				focused = f
			}
		default:
			env.Options[o.Name] = o.Value
			if o.Focused {
				focused = o.Name
			}
		}
	}
	return focused
}
