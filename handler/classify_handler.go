// ABOUTME: This file handles ad hoc classification requests from the API,
// ABOUTME: sharing the classify-and-store path with the ingestion cycle.
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"pharma-radar/domain"
	"pharma-radar/scheduler"
)

// ClassifyRequest represents the request body for manual classification.
type ClassifyRequest struct {
	Text   string `json:"text"`
	Source string `json:"source"`
}

type ClassifyHandler struct {
	scheduler *scheduler.Scheduler
	logger    *slog.Logger
}

func NewClassifyHandler(sched *scheduler.Scheduler, logger *slog.Logger) *ClassifyHandler {
	return &ClassifyHandler{scheduler: sched, logger: logger}
}

// HandleClassify handles POST /api/v1/classify requests. Trend detection
// runs in the background after storage; the response never waits for it.
func (h *ClassifyHandler) HandleClassify(c echo.Context) error {
	ctx := c.Request().Context()

	var req ClassifyRequest
	if err := c.Bind(&req); err != nil {
		h.logger.Error("failed to bind classify request", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if req.Source == "" {
		req.Source = "manual"
	}

	event, err := h.scheduler.ProcessItem(ctx, req.Text, req.Source, nil)
	if err != nil {
		if errors.Is(err, domain.ErrEmptyText) || errors.Is(err, domain.ErrEmptySource) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return err
	}

	h.scheduler.DetectAsync(context.WithoutCancel(ctx))

	return c.JSON(http.StatusCreated, map[string]any{"event": event})
}
