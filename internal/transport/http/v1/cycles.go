package v1

import (
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/screenpilot/screenpilot/domain"
)

// ListCycles retrieves cycles matching the query filters.
// GET /v1/cycles?status=&since=&until=&q=&sort=
func (h *Handler) ListCycles(c echo.Context) error {
	filter := domain.CycleFilter{
		Status:   domain.CycleStatus(c.QueryParam("status")),
		Query:    c.QueryParam("q"),
		SortDesc: c.QueryParam("sort") == "desc",
	}

	if s := c.QueryParam("since"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid since timestamp"})
		}
		filter.Since = t
	}
	if s := c.QueryParam("until"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid until timestamp"})
		}
		filter.Until = t
	}

	ctx := c.Request().Context()

	cycles, err := h.store.List(ctx, filter)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"cycles": cycles,
		"count":  len(cycles),
	})
}

// GetCycle retrieves a single cycle.
// GET /v1/cycles/:cycle_id
func (h *Handler) GetCycle(c echo.Context) error {
	cycleID := c.Param("cycle_id")
	ctx := c.Request().Context()

	cycle, err := h.store.Get(ctx, cycleID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "cycle not found"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, cycle)
}

// GetStats retrieves summary statistics over the full history.
// GET /v1/stats
func (h *Handler) GetStats(c echo.Context) error {
	ctx := c.Request().Context()

	stats, err := h.store.Stats(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, stats)
}

// GetScreenshot serves the screenshot captured for a cycle.
// GET /v1/screenshots/:cycle_id
func (h *Handler) GetScreenshot(c echo.Context) error {
	cycleID := c.Param("cycle_id")
	ctx := c.Request().Context()

	cycle, err := h.store.Get(ctx, cycleID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "cycle not found"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	if cycle.ScreenshotPath == "" {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "cycle has no screenshot"})
	}
	if _, err := os.Stat(cycle.ScreenshotPath); err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "screenshot no longer on disk"})
	}

	return c.File(cycle.ScreenshotPath)
}
