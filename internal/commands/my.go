package commands

import (
	"context"
	"encoding/json"

	"github.com/tbourn/gitcord/internal/interactions"
)

// asOwner rewrites a /my invocation into the issues or pulls command it
// stands for, with the invoker's login as owner. ok is false for an unknown
// group.
func asOwner(inv *interactions.Invocation) (next *interactions.Invocation, ok bool) {
	group := inv.Envelope.Path.Group
	if group != "issues" && group != "pulls" {
		return nil, false
	}
	login, err := json.Marshal(inv.Login())
	if err != nil {
		return nil, false
	}

	opts := make(interactions.Options, len(inv.Envelope.Options)+1)
	for k, v := range inv.Envelope.Options {
		opts[k] = v
	}
	opts["owner"] = login

	cp := *inv
	cp.Envelope.Options = opts
	cp.Envelope.Path = interactions.Path{Name: group, Sub: inv.Envelope.Path.Sub}
	return &cp, true
}

func (s *Set) runMy(ctx context.Context, inv *interactions.Invocation) error {
	next, ok := asOwner(inv)
	if !ok {
		return inv.Error(ctx, MsgInvalidSubcommand)
	}
	if next.Envelope.Path.Name == "pulls" {
		return s.runPulls(ctx, next)
	}
	return s.runIssues(ctx, next)
}

func (s *Set) completeMy(ctx context.Context, inv *interactions.Invocation) error {
	next, ok := asOwner(inv)
	if !ok {
		return inv.Choices(ctx, nil)
	}
	if next.Envelope.Path.Name == "pulls" {
		return s.completePulls(ctx, next)
	}
	return s.completeIssues(ctx, next)
}
