// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements replay protection for interaction deliveries. Discord
// retries a delivery it believes failed; the interaction id is the natural
// idempotency key, so the first acceptance is recorded and any later
// delivery of the same id is rejected with 409 before it can run a command
// twice.
package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/gitcord/internal/discord"
)

// ErrReplay is what a ReceiptFunc returns for an interaction id it has seen.
var ErrReplay = errors.New("replayed interaction")

// ReceiptFunc records the acceptance of interaction id. It returns an error
// wrapping ErrReplay when id was already accepted; other errors are lookup
// failures and do not block processing.
type ReceiptFunc func(ctx context.Context, id, userID, kind string) error

// ReplayGuard records each signed interaction through record and answers
// repeated deliveries with 409. Pings are not recorded. It must run after
// VerifyInteraction.
func ReplayGuard(record ReceiptFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		in := InteractionFrom(c)
		if in == nil || in.Type == discord.InteractionPing || in.ID == "" || record == nil {
			c.Next()
			return
		}

		err := record(c.Request.Context(), in.ID, userIDFromCtx(c), kindName(in.Type))
		switch {
		case errors.Is(err, ErrReplay):
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{
				"request_id": c.Writer.Header().Get(requestIDHeader),
				"code":       "conflict",
				"message":    "interaction already processed",
			})
			return
		case err != nil:
			LoggerFrom(c).Warn().Err(err).Str("interaction_id", in.ID).Msg("receipt not recorded")
		}
		c.Next()
	}
}

// userIDFromCtx extracts the Discord user stored by VerifyInteraction.
func userIDFromCtx(c *gin.Context) string {
	if v, ok := c.Get("userID"); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func kindName(t discord.InteractionType) string {
	switch t {
	case discord.InteractionCommand:
		return "command"
	case discord.InteractionComponent:
		return "component"
	case discord.InteractionAutocomplete:
		return "autocomplete"
	case discord.InteractionModalSubmit:
		return "modal"
	default:
		return "unknown"
	}
}
