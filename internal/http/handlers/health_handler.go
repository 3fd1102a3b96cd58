package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/gitcord/internal/repo"
)

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string `json:"status" example:"ok"`
	// Links is omitted when the database could not be queried.
	Links *repo.LinkStats `json:"links,omitempty"`
	// Registrations counts live correlation registrations.
	Registrations int `json:"registrations"`
}

// Health godoc
// @ID          health
// @Summary     Liveness and link statistics
// @Tags        Ops
// @Produce     json
// @Success     200  {object}  handlers.HealthResponse
// @Failure     503  {object}  handlers.HealthResponse  "Database unavailable"
// @Router      /health [get]
func (h *Handlers) Health(c *gin.Context) {
	resp := HealthResponse{Status: "ok"}
	if h.d.Registrations != nil {
		resp.Registrations = h.d.Registrations()
	}
	if h.d.Stats == nil {
		ok(c, http.StatusOK, resp)
		return
	}
	st, err := h.d.Stats(c.Request.Context())
	if err != nil {
		resp.Status = "degraded"
		ok(c, http.StatusServiceUnavailable, resp)
		return
	}
	resp.Links = &st
	ok(c, http.StatusOK, resp)
}
