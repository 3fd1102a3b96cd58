package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tbourn/gitcord/internal/discord"
	"github.com/tbourn/gitcord/internal/github"
	"github.com/tbourn/gitcord/internal/interactions"
	"github.com/tbourn/gitcord/internal/services"
)

// Link flow messages.
const (
	MsgLinkPrompt    = "Link your Github account to use the other commands! Expires after 10 Minutes"
	MsgKeyInvalid    = "An error occured while verifying your private key.\n"
	MsgKeyAdded      = "Your private key has been added successfully!"
	MsgKeyRejected   = "Beep boop, process terminated!"
	MsgKeyEmpty      = "Please provide a personal access token"
	msgKeyConfirmFmt = "Are you sure you want to sign in with this key?\nUsername: [`%s`](%s)"
)

// linkIDs are the correlation ids of one user's link flow.
type linkIDs struct {
	button, modal, accept, reject string
}

func newLinkIDs(userID string) linkIDs {
	return linkIDs{
		button: "keybtn-" + userID,
		modal:  "keysubmit-" + userID,
		accept: "accept-" + userID,
		reject: "reject-" + userID,
	}
}

func (s *Set) runLink(ctx context.Context, inv *interactions.Invocation) error {
	userID := inv.Envelope.UserID
	if _, err := s.Profiles.FindByDiscordID(ctx, userID); err == nil {
		return inv.Error(ctx, string(services.LinkDiscordLinked))
	} else if !errors.Is(err, services.ErrNotLinked) {
		return err
	}

	link, err := s.Links.Issue(ctx, userID)
	if err != nil {
		return err
	}

	ids := newLinkIDs(userID)
	var buttons []discord.Component
	if s.Config.OAuthEnabled {
		buttons = append(buttons, discord.LinkButton(strings.TrimSuffix(s.Config.SiteURL, "/")+"/github/verify/"+link.Token, "Sign in"))
	}
	buttons = append(buttons, discord.Button(ids.button, "Add Personal Token", discord.ButtonPrimary))

	// The button stays usable until the link expires so that a dismissed
	// modal can be reopened.
	s.Registry.Register(interactions.Registration{
		ID:        ids.button,
		Owner:     userID,
		TTL:       s.Config.LinkTTL,
		MultiShot: true,
		Origin:    inv.Responder,
		Run: func(ctx context.Context, r *interactions.Responder, env interactions.Envelope) error {
			return s.openKeyModal(ctx, follow(inv, r, env), ids)
		},
	})

	return inv.Responder.Respond(ctx, discord.Reply(discord.ResponseData{
		Content:    MsgLinkPrompt,
		Components: []discord.Component{discord.Row(buttons...)},
	}, true))
}

func (s *Set) openKeyModal(ctx context.Context, inv *interactions.Invocation, ids linkIDs) error {
	gen := s.Registry.Register(interactions.Registration{
		ID:    ids.modal,
		Owner: inv.Envelope.UserID,
		TTL:   s.Config.LinkTTL,
		Run: func(ctx context.Context, r *interactions.Responder, env interactions.Envelope) error {
			return s.submitKey(ctx, follow(inv, r, env), ids)
		},
	})

	key := discord.TextInput("key", "Your Private Key", discord.TextInputParagraph, "", true)
	key.Placeholder = "Enter your private key here"
	return s.showModal(ctx, inv, ids.modal, gen, discord.Modal(ids.modal, "Add Your Own Private Key", key))
}

func (s *Set) submitKey(ctx context.Context, inv *interactions.Invocation, ids linkIDs) error {
	key := strings.TrimSpace(inv.Envelope.Value("key"))
	if key == "" {
		return inv.Error(ctx, MsgKeyEmpty)
	}
	user, err := s.GitHub(key).Authenticated(ctx)
	if err != nil {
		inv.Log.Debug().Err(err).Msg("personal token rejected")
		return inv.Error(ctx, MsgKeyInvalid+github.FormatError(err))
	}

	userID := inv.Envelope.UserID
	s.Registry.Register(interactions.Registration{
		ID:     ids.accept,
		Owner:  userID,
		TTL:    s.Config.LinkTTL,
		Origin: inv.Responder,
		Group:  []string{ids.reject, ids.button},
		Run: func(ctx context.Context, r *interactions.Responder, env interactions.Envelope) error {
			res, err := s.Profiles.Init(ctx, services.NewProfile{
				DiscordID:   userID,
				GitHubID:    user.ID,
				Login:       user.Login,
				Name:        user.Name,
				AccessToken: key,
			})
			if err != nil {
				return err
			}
			msg := MsgKeyAdded
			if res != services.LinkSuccess {
				msg = string(res)
			}
			return r.Respond(ctx, discord.Update(discord.ResponseData{Content: msg}))
		},
	})
	s.Registry.Register(interactions.Registration{
		ID:    ids.reject,
		Owner: userID,
		TTL:   s.Config.LinkTTL,
		Group: []string{ids.accept},
		Run: func(ctx context.Context, r *interactions.Responder, env interactions.Envelope) error {
			return r.Respond(ctx, discord.Update(discord.ResponseData{Content: MsgKeyRejected}))
		},
	})

	return inv.Responder.Respond(ctx, discord.Reply(discord.ResponseData{
		Content: fmt.Sprintf(msgKeyConfirmFmt, user.Login, user.HTMLURL),
		Components: []discord.Component{discord.Row(
			discord.Button(ids.accept, "Yes", discord.ButtonSuccess),
			discord.Button(ids.reject, "No", discord.ButtonDanger),
		)},
	}, true))
}
