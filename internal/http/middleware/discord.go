// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file authenticates inbound Discord interactions. Discord signs every
// delivery with the application's Ed25519 key; unsigned or tampered requests
// are answered with 401 and never reach a handler.
package middleware

import (
	"crypto/ed25519"
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/gitcord/internal/discord"
)

const (
	// HeaderSignature carries the hex encoded Ed25519 signature.
	HeaderSignature = "X-Signature-Ed25519"
	// HeaderTimestamp carries the signed timestamp.
	HeaderTimestamp = "X-Signature-Timestamp"

	ctxKeyInteraction = "discord.interaction"
)

// VerifyInteraction checks the request signature against key, decodes the
// interaction and stashes it for InteractionFrom. The invoking Discord user
// is stored under "userID" so that logging and rate limiting can key on it.
func VerifyInteraction(key ed25519.PublicKey) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{
				"request_id": c.Writer.Header().Get(requestIDHeader),
				"code":       "body_too_large",
				"message":    "request body could not be read",
			})
			return
		}
		if !discord.Verify(key, c.GetHeader(HeaderSignature), c.GetHeader(HeaderTimestamp), body) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"request_id": c.Writer.Header().Get(requestIDHeader),
				"code":       "unauthorized",
				"message":    "invalid request signature",
			})
			return
		}

		var in discord.Interaction
		if err := json.Unmarshal(body, &in); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"request_id": c.Writer.Header().Get(requestIDHeader),
				"code":       "bad_request",
				"message":    "invalid interaction payload",
			})
			return
		}
		c.Set(ctxKeyInteraction, &in)
		if u := in.Invoker(); u != nil && u.ID != "" {
			c.Set("userID", u.ID)
		}
		c.Next()
	}
}

// InteractionFrom returns the interaction decoded by VerifyInteraction, or
// nil when the middleware did not run.
func InteractionFrom(c *gin.Context) *discord.Interaction {
	v, ok := c.Get(ctxKeyInteraction)
	if !ok {
		return nil
	}
	in, _ := v.(*discord.Interaction)
	return in
}
