package interactions

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/tbourn/gitcord/internal/clock"
	"github.com/tbourn/gitcord/internal/discord"
)

// TokenLifetime is how long Discord accepts edits through an interaction
// token.
const TokenLifetime = 15 * time.Minute

var (
	// ErrAlreadyResponded is returned by a second response to one interaction.
	ErrAlreadyResponded = errors.New("interactions: already responded")
	// ErrNotEditable is returned when the original response cannot be patched.
	ErrNotEditable = errors.New("interactions: original response is not editable")
)

// Editor patches original interaction responses over REST.
type Editor interface {
	EditOriginal(ctx context.Context, token string, edit discord.MessageEdit) error
}

type responderState int

const (
	stateOpen responderState = iota
	stateDeferred
	stateReplied
)

// Responder is the write-once response handle of one interaction. The first
// Respond is delivered inline to the HTTP request; once the request has been
// answered with a deferral, the first Respond becomes an edit of the
// original message.
type Responder struct {
	mu        sync.Mutex
	kind      Kind
	token     string
	editor    Editor
	clock     clock.Clock
	created   time.Time
	state     responderState
	message   bool
	ephemeral bool
	inline    chan discord.Response
}

// NewResponder returns the handle for an interaction of kind carrying token.
func NewResponder(kind Kind, token string, editor Editor, clk clock.Clock) *Responder {
	if clk == nil {
		clk = clock.Real{}
	}
	return &Responder{
		kind:    kind,
		token:   token,
		editor:  editor,
		clock:   clk,
		created: clk.Now(),
		inline:  make(chan discord.Response, 1),
	}
}

// Inline delivers the response to write on the HTTP request.
func (r *Responder) Inline() <-chan discord.Response { return r.inline }

// Kind is the kind of interaction being answered.
func (r *Responder) Kind() Kind { return r.kind }

// SetDeferEphemeral makes a later deferral visible only to the invoker.
func (r *Responder) SetDeferEphemeral(ephemeral bool) {
	r.mu.Lock()
	r.ephemeral = ephemeral
	r.mu.Unlock()
}

// Pending reports whether nothing has been answered yet, either inline or
// through a deferral.
func (r *Responder) Pending() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state != stateReplied
}

// Respond answers the interaction. It returns ErrAlreadyResponded if a
// response was already written.
func (r *Responder) Respond(ctx context.Context, resp discord.Response) error {
	r.mu.Lock()
	switch r.state {
	case stateOpen:
		r.state = stateReplied
		r.message = carriesMessage(resp.Type)
		r.mu.Unlock()
		r.inline <- resp
		return nil
	case stateDeferred:
		if !carriesMessage(resp.Type) || resp.Data == nil {
			r.mu.Unlock()
			return ErrAlreadyResponded
		}
		r.state = stateReplied
		r.message = true
		r.mu.Unlock()
		return r.editor.EditOriginal(ctx, r.token, toEdit(resp))
	default:
		r.mu.Unlock()
		return ErrAlreadyResponded
	}
}

// Defer moves an open handle to the deferred state and returns the response
// to write inline instead. Autocomplete cannot be deferred, so it is answered
// with an empty choice list. ok is false when a response already exists.
func (r *Responder) Defer() (resp discord.Response, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != stateOpen {
		return discord.Response{}, false
	}
	switch r.kind {
	case KindAutocomplete:
		r.state = stateReplied
		return discord.Choices(nil), true
	case KindComponent:
		r.state = stateDeferred
		return discord.Response{Type: discord.ResponseDeferredUpdateMessage}, true
	default:
		r.state = stateDeferred
		resp = discord.Response{Type: discord.ResponseDeferredChannelMessage}
		if r.ephemeral {
			resp.Data = &discord.ResponseData{Flags: discord.FlagEphemeral}
		}
		return resp, true
	}
}

// Editable reports whether the original response is a message that can
// still be patched through the interaction token.
func (r *Responder) Editable() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.token == "" || r.editor == nil {
		return false
	}
	if r.clock.Now().Sub(r.created) >= TokenLifetime {
		return false
	}
	return (r.state == stateReplied && r.message) || r.state == stateDeferred
}

// EditOriginal patches the message this interaction answered with.
func (r *Responder) EditOriginal(ctx context.Context, edit discord.MessageEdit) error {
	if !r.Editable() {
		return ErrNotEditable
	}
	return r.editor.EditOriginal(ctx, r.token, edit)
}

func carriesMessage(t discord.ResponseType) bool {
	return t == discord.ResponseChannelMessage || t == discord.ResponseUpdateMessage
}

func toEdit(resp discord.Response) discord.MessageEdit {
	d := resp.Data
	content := d.Content
	embeds := d.Embeds
	if embeds == nil {
		embeds = []discord.Embed{}
	}
	components := d.Components
	if components == nil {
		components = []discord.Component{}
	}
	return discord.MessageEdit{Content: &content, Embeds: &embeds, Components: &components}
}
