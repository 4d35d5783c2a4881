// Package v1 provides the HTTP handlers for the cycle viewer.
package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/screenpilot/screenpilot/internal/hub"
	"github.com/screenpilot/screenpilot/store"
)

// Handler handles HTTP requests.
type Handler struct {
	store store.Store
	hub   *hub.Hub
}

// NewHandler creates a new handler. The hub may be nil when the live
// endpoint is not wanted.
func NewHandler(st store.Store, h *hub.Hub) *Handler {
	return &Handler{
		store: st,
		hub:   h,
	}
}

// RegisterRoutes registers the viewer routes with the echo server.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/v1/cycles", h.ListCycles)
	e.GET("/v1/cycles/:cycle_id", h.GetCycle)
	e.GET("/v1/stats", h.GetStats)
	e.GET("/v1/screenshots/:cycle_id", h.GetScreenshot)

	if h.hub != nil {
		e.GET("/v1/live", h.HandleLive)
	}

	e.GET("/health", h.Health)
}

// Health returns health status.
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "healthy",
		"version": "0.1.0",
	})
}
