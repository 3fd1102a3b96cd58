package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/gitcord/internal/discord"
	"github.com/tbourn/gitcord/internal/http/middleware"
	"github.com/tbourn/gitcord/internal/interactions"
)

// MsgRateLimited answers interactions of users over their request budget.
const MsgRateLimited = "You are doing that too often, please try again in a moment"

// Interactions godoc
// @ID          postInteraction
// @Summary     Discord interactions webhook
// @Description Receives signed Discord interactions. Pings are answered with a pong.
// @Description Other interactions are dispatched; when no response is ready within
// @Description the defer window the request is answered with a deferral and the
// @Description result is delivered by editing the original response.
// @Tags        Discord
// @Accept      json
// @Produce     json
//
// @Param       X-Signature-Ed25519    header  string  true  "Ed25519 signature (hex)"
// @Param       X-Signature-Timestamp  header  string  true  "Signed timestamp"
// @Param       body                   body    discord.Interaction  true  "Interaction payload"
//
// @Success     200  {object}  discord.Response
// @Failure     400  {object}  handlers.ErrorResponse  "Unsupported interaction"
// @Failure     401  {object}  handlers.ErrorResponse  "Invalid signature"
// @Failure     409  {object}  handlers.ErrorResponse  "Interaction already processed"
// @Router      /interactions [post]
func (h *Handlers) Interactions(c *gin.Context) {
	in := middleware.InteractionFrom(c)
	if in == nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "missing interaction")
		return
	}
	env, err := interactions.Classify(in)
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "unsupported interaction")
		return
	}
	if env.Kind == interactions.KindPing {
		ok(c, http.StatusOK, discord.Response{Type: discord.ResponsePong})
		return
	}

	resp := interactions.NewResponder(env.Kind, in.Token, h.d.Editor, h.d.Clock)

	// The handler outlives the HTTP request once it is deferred.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Request.Context()), h.d.Timeout)
	go func() {
		defer cancel()
		h.d.Dispatcher.Handle(ctx, env, resp)
	}()

	timer := time.NewTimer(h.d.DeferAfter)
	defer timer.Stop()

	select {
	case r := <-resp.Inline():
		ok(c, http.StatusOK, r)
	case <-timer.C:
		if r, deferred := resp.Defer(); deferred {
			middleware.LoggerFrom(c).Debug().Str("kind", string(env.Kind)).Msg("interaction deferred")
			ok(c, http.StatusOK, r)
			return
		}
		// Answered between the timer firing and Defer.
		ok(c, http.StatusOK, <-resp.Inline())
	case <-c.Request.Context().Done():
		middleware.LoggerFrom(c).Warn().Str("kind", string(env.Kind)).Msg("client went away before the response")
	}
}

// RateLimited answers an interaction denied by the rate limiter with a
// response Discord can render, so the user sees why nothing happened.
func (h *Handlers) RateLimited(c *gin.Context) {
	in := middleware.InteractionFrom(c)
	switch {
	case in == nil:
		fail(c, http.StatusTooManyRequests, ErrCodeRateLimited, "rate limit exceeded")
	case in.Type == discord.InteractionPing:
		ok(c, http.StatusOK, discord.Response{Type: discord.ResponsePong})
	case in.Type == discord.InteractionAutocomplete:
		ok(c, http.StatusOK, discord.Choices(nil))
	default:
		ok(c, http.StatusOK, discord.Text(MsgRateLimited, true))
	}
}
