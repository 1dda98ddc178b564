// ABOUTME: This file answers service health probes, including a database
// ABOUTME: reachability check.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"pharma-radar/repository"
)

type HealthHandler struct {
	events repository.EventRepository
	logger *slog.Logger
}

func NewHealthHandler(events repository.EventRepository, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{events: events, logger: logger}
}

// HandleHealth handles GET /api/v1/health requests. The store is probed
// with a cheap count so a dead database surfaces as unhealthy.
func (h *HealthHandler) HandleHealth(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	if _, err := h.events.CountSince(ctx, time.Now()); err != nil {
		h.logger.Error("health check store probe failed", "error", err)
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status": "unhealthy",
		})
	}

	return c.JSON(http.StatusOK, map[string]string{"status": "healthy"})
}
