// ABOUTME: This file serves the stored-event listing consumed by the
// ABOUTME: dashboard.
package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"pharma-radar/domain"
	"pharma-radar/repository"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

type EventHandler struct {
	events repository.EventRepository
	logger *slog.Logger
}

func NewEventHandler(events repository.EventRepository, logger *slog.Logger) *EventHandler {
	return &EventHandler{events: events, logger: logger}
}

// HandleListEvents handles GET /api/v1/events requests, newest first.
func (h *EventHandler) HandleListEvents(c echo.Context) error {
	ctx := c.Request().Context()

	limit, err := parseLimit(c.QueryParam("limit"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid limit parameter")
	}

	events, err := h.events.FindRecent(ctx, limit)
	if err != nil {
		h.logger.Error("failed to list events", "error", err)
		return err
	}

	// An empty table serializes as [] rather than null.
	if events == nil {
		events = []*domain.Event{}
	}

	return c.JSON(http.StatusOK, map[string]any{
		"events": events,
		"count":  len(events),
	})
}

// parseLimit applies the default and cap to the optional limit parameter.
func parseLimit(raw string) (int, error) {
	if raw == "" {
		return defaultListLimit, nil
	}

	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "Invalid limit parameter")
	}

	if limit > maxListLimit {
		limit = maxListLimit
	}

	return limit, nil
}
