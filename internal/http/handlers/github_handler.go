// GitHub HTTP handlers.
//
// This file exposes the OAuth sign-in routes that complete /link and the
// webhook receiver:
//   - GET  /github/verify/{token}   (redirect to GitHub)
//   - GET  /github/callback         (code exchange, account link)
//   - POST /github/webhook          (acknowledged, not processed)
package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/gitcord/internal/http/middleware"
	"github.com/tbourn/gitcord/internal/services"
)

// StatusResponse is the body of endpoints that only acknowledge.
type StatusResponse struct {
	Status string `json:"status" example:"ok"`
}

// VerifyLink godoc
// @ID          verifyLink
// @Summary     Start GitHub sign-in
// @Description Redirects a pending /link token to the GitHub OAuth authorize page.
// @Tags        GitHub
//
// @Param       token  path  string  true  "Pending link token"
//
// @Success     302
// @Failure     400  {object}  handlers.ErrorResponse  "Unknown or expired token"
// @Failure     404  {object}  handlers.ErrorResponse  "Sign-in is not configured"
// @Router      /github/verify/{token} [get]
func (h *Handlers) VerifyLink(c *gin.Context) {
	if h.d.OAuth == nil {
		fail(c, http.StatusNotFound, ErrCodeOAuthDisabled, "sign-in with GitHub is not configured")
		return
	}
	token := strings.TrimSpace(c.Param("token"))
	if _, err := h.d.Links.Lookup(c.Request.Context(), token); err != nil {
		if errors.Is(err, services.ErrLinkNotFound) {
			fail(c, http.StatusBadRequest, ErrCodeLinkNotFound, "unknown or expired link")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not load link")
		return
	}
	c.Redirect(http.StatusFound, h.d.OAuth.AuthCodeURL(token))
}

// OAuthCallback godoc
// @ID          oauthCallback
// @Summary     Complete GitHub sign-in
// @Description Consumes the link token carried in state, exchanges the authorization
// @Description code and links the GitHub account to the Discord user. The body is the
// @Description human readable outcome.
// @Tags        GitHub
// @Produce     plain
//
// @Param       state  query  string  true  "Pending link token"
// @Param       code   query  string  true  "OAuth authorization code"
//
// @Success     200  {string}  string  "User linked successfully"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad state or code"
// @Failure     502  {object}  handlers.ErrorResponse  "GitHub unavailable"
// @Router      /github/callback [get]
func (h *Handlers) OAuthCallback(c *gin.Context) {
	if h.d.OAuth == nil {
		fail(c, http.StatusNotFound, ErrCodeOAuthDisabled, "sign-in with GitHub is not configured")
		return
	}
	ctx := c.Request.Context()
	lg := middleware.LoggerFrom(c)

	state := strings.TrimSpace(c.Query("state"))
	code := strings.TrimSpace(c.Query("code"))
	if state == "" || code == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "state and code are required")
		return
	}

	link, err := h.d.Links.Consume(ctx, state)
	if err != nil {
		if errors.Is(err, services.ErrLinkNotFound) {
			fail(c, http.StatusBadRequest, ErrCodeLinkNotFound, "unknown or expired link")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not load link")
		return
	}

	accessToken, err := h.d.OAuth.Exchange(ctx, code)
	if err != nil || accessToken == "" {
		lg.Warn().Err(err).Str("discord_id", link.DiscordID).Msg("oauth exchange failed")
		fail(c, http.StatusBadRequest, ErrCodeExchangeFailed, "could not exchange authorization code")
		return
	}

	user, err := h.d.GitHub(accessToken).Authenticated(ctx)
	if err != nil {
		lg.Warn().Err(err).Str("discord_id", link.DiscordID).Msg("loading github user failed")
		fail(c, http.StatusBadGateway, ErrCodeUpstream, "could not load the GitHub account")
		return
	}

	result, err := h.d.Profiles.Init(ctx, services.NewProfile{
		DiscordID:   link.DiscordID,
		GitHubID:    user.ID,
		Login:       user.Login,
		Name:        user.Name,
		AccessToken: accessToken,
	})
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeLinkFailed, "could not link account")
		return
	}
	lg.Info().Str("discord_id", link.DiscordID).Str("login", user.Login).Str("result", string(result)).Msg("oauth link")
	c.String(http.StatusOK, string(result))
}

// Webhook godoc
// @ID          githubWebhook
// @Summary     GitHub webhook receiver
// @Description Acknowledges GitHub webhook deliveries. Events are not processed.
// @Tags        GitHub
// @Accept      json
// @Produce     json
//
// @Param       X-GitHub-Event  header  string  false  "Event name"
//
// @Success     200  {object}  handlers.StatusResponse
// @Router      /github/webhook [post]
func (h *Handlers) Webhook(c *gin.Context) {
	middleware.LoggerFrom(c).Debug().
		Str("event", c.GetHeader("X-GitHub-Event")).
		Str("delivery", c.GetHeader("X-GitHub-Delivery")).
		Msg("github webhook")
	ok(c, http.StatusOK, StatusResponse{Status: "ok"})
}
