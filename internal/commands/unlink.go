package commands

import (
	"context"
	"errors"

	"github.com/tbourn/gitcord/internal/discord"
	"github.com/tbourn/gitcord/internal/interactions"
	"github.com/tbourn/gitcord/internal/services"
)

const (
	MsgUnlinkConfirm   = "Are you sure you want to unlink your account and delete saved info?"
	MsgUnlinked        = "Account unlinked and data deleted"
	MsgUnlinkCancelled = "Unlink cancelled.\nEnjoy your remaining time with us 😈"
)

func (s *Set) runUnlink(ctx context.Context, inv *interactions.Invocation) error {
	userID := inv.Envelope.UserID
	confirmID, cancelID := "confirm-"+userID, "cancel-"+userID
	login := inv.Login()

	s.Registry.Register(interactions.Registration{
		ID:     confirmID,
		Owner:  userID,
		TTL:    s.Config.FlowTTL,
		Origin: inv.Responder,
		Group:  []string{cancelID},
		Run: func(ctx context.Context, r *interactions.Responder, env interactions.Envelope) error {
			if err := s.Profiles.Delete(ctx, userID); err != nil && !errors.Is(err, services.ErrNotLinked) {
				return err
			}
			s.Cache.Invalidate(login)
			return r.Respond(ctx, discord.Update(discord.ResponseData{Content: MsgUnlinked}))
		},
	})
	s.Registry.Register(interactions.Registration{
		ID:    cancelID,
		Owner: userID,
		TTL:   s.Config.FlowTTL,
		Group: []string{confirmID},
		Run: func(ctx context.Context, r *interactions.Responder, env interactions.Envelope) error {
			return r.Respond(ctx, discord.Update(discord.ResponseData{Content: MsgUnlinkCancelled}))
		},
	})

	return inv.Responder.Respond(ctx, discord.Reply(discord.ResponseData{
		Content: MsgUnlinkConfirm,
		Components: []discord.Component{discord.Row(
			discord.Button(confirmID, "Yes", discord.ButtonDanger),
			discord.Button(cancelID, "No", discord.ButtonSuccess),
		)},
	}, true))
}
