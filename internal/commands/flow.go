package commands

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/tbourn/gitcord/internal/discord"
	"github.com/tbourn/gitcord/internal/interactions"
)

// User-facing messages shared by the flows.
const (
	MsgInvalidSubcommand = "Invalid SubCommand"
	MsgInvalidOptions    = "Missing or invalid options"
	MsgNoEdits           = "No edits were made, ignoring."
	MsgBeingEdited       = "Someone else is already editing this"
	MsgTooSlow           = "GitHub took too long to answer, please run the command again"
	MsgInvalidState      = "Invalid `State` value, please use `[O]pen` or `[C]losed`"
	MsgInvalidReason     = "Invalid `State Reason` value, please use `[C]ompleted`, `[R]eopened`, `[N]ot Planned`"
	MsgInvalidMCM        = "Invalid `Maintainer Can Modify` value, please use `[T]rue` or `[F]alse`"
	MsgSpecifySettings   = "Please specify what you want to manage"
)

// maxCustomID is Discord's limit on component custom ids.
const maxCustomID = 100

type repoRef struct {
	Owner string `json:"owner" binding:"required"`
	Repo  string `json:"repo" binding:"required"`
}

// correlationID derives the edit-flow id of an issue or pull request.
// Ids longer than Discord allows are replaced by a stable digest.
func correlationID(kind, owner, repo string, number int) string {
	id := fmt.Sprintf("%s:%s/%s#%d", kind, owner, repo, number)
	if len(id) <= maxCustomID {
		return id
	}
	sum := sha256.Sum256([]byte(strings.ToLower(id)))
	return kind + ":" + hex.EncodeToString(sum[:])
}

// decode reads the command options into dst, answering the invoker when
// they do not validate. ok is false when the command should stop.
func decode(ctx context.Context, inv *interactions.Invocation, dst any) (bool, error) {
	if err := inv.Envelope.Options.Decode(dst); err != nil {
		inv.Log.Debug().Err(err).Str("command", inv.Envelope.Path.String()).Msg("invalid options")
		return false, inv.Error(ctx, MsgInvalidOptions)
	}
	return true, nil
}

// follow derives the invocation of a continuation from the one that
// registered it.
func follow(inv *interactions.Invocation, r *interactions.Responder, env interactions.Envelope) *interactions.Invocation {
	next := *inv
	next.Responder = r
	next.Envelope = env
	return &next
}

// showModal answers with a modal. A modal cannot follow a deferral, so when
// the command took too long the registration is withdrawn and the deferred
// message explains why.
func (s *Set) showModal(ctx context.Context, inv *interactions.Invocation, id string, gen uint64, modal discord.Response) error {
	err := inv.Responder.Respond(ctx, modal)
	if !errors.Is(err, interactions.ErrAlreadyResponded) {
		return err
	}
	if s.Registry.Current(id, gen) {
		s.Registry.Cancel(id)
	}
	return inv.Error(ctx, MsgTooSlow)
}

// claim registers an edit flow for the invoker, answering when someone else
// holds it. ok is false when the command should stop.
func (s *Set) claim(ctx context.Context, inv *interactions.Invocation, reg interactions.Registration) (gen uint64, ok bool, err error) {
	reg.Owner = inv.Envelope.UserID
	if reg.TTL <= 0 {
		reg.TTL = s.Config.FlowTTL
	}
	gen, err = s.Registry.Claim(reg)
	if errors.Is(err, interactions.ErrFlowInProgress) {
		return 0, false, inv.Error(ctx, MsgBeingEdited)
	}
	if err != nil {
		return 0, false, err
	}
	return gen, true, nil
}

// field compares a submitted modal value with what the input was prefilled
// with. Whitespace and case differences do not count as edits.
type field struct {
	raw     string
	changed bool
}

func compare(values map[string]string, id, prefill string) field {
	raw := strings.TrimSpace(values[id])
	return field{raw: raw, changed: !strings.EqualFold(raw, strings.TrimSpace(prefill))}
}

// exact is compare for free text, where case matters.
func exact(values map[string]string, id, prefill string) field {
	raw := values[id]
	return field{raw: raw, changed: strings.TrimSpace(raw) != strings.TrimSpace(prefill)}
}

func parseState(v string) (string, bool) {
	switch strings.ToLower(v) {
	case "o", "open":
		return "open", true
	case "c", "closed":
		return "closed", true
	}
	return "", false
}

func parseReason(v string) (string, bool) {
	switch strings.ToLower(v) {
	case "c", "completed":
		return "completed", true
	case "r", "reopened":
		return "reopened", true
	case "n", "not planned", "not_planned":
		return "not_planned", true
	}
	return "", false
}

func parseBool(v string) (bool, bool) {
	switch strings.ToLower(v) {
	case "t", "true":
		return true, true
	case "f", "false":
		return false, true
	}
	return false, false
}

// humanize renders an API enum the way the modals prefill it:
// "not_planned" becomes "Not Planned".
func humanize(v string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(v, "_", " "))
}

func boolText(b bool) string {
	if b {
		return "True"
	}
	return "False"
}

// splitList parses a comma separated list, dropping blanks.
func splitList(v string) []string {
	out := []string{}
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
