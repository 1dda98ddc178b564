// ABOUTME: This file exposes scheduler control and status endpoints:
// ABOUTME: status snapshot, manual run, pause, and resume.
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

type SchedulerHandler struct {
	scheduler *scheduler.Scheduler
	logger    *slog.Logger
}

func NewSchedulerHandler(sched *scheduler.Scheduler, logger *slog.Logger) *SchedulerHandler {
	return &SchedulerHandler{scheduler: sched, logger: logger}
}

// HandleStatus handles GET /api/v1/scheduler/status requests.
func (h *SchedulerHandler) HandleStatus(c echo.Context) error {
	return c.JSON(http.StatusOK, h.scheduler.Stats())
}

// HandleRun handles POST /api/v1/scheduler/run requests. The cycle runs in
// the background and the response returns immediately; an already running
// cycle makes the trigger a logged no-op.
func (h *SchedulerHandler) HandleRun(c echo.Context) error {
	ctx := context.WithoutCancel(c.Request().Context())

	go func() {
		if err := h.scheduler.TriggerManualRun(ctx); err != nil {
			if errors.Is(err, domain.ErrCycleInProgress) {
				return
			}
			h.logger.Error("manual cycle failed", "error", err)
		}
	}()

	return c.JSON(http.StatusAccepted, map[string]string{"status": "triggered"})
}

// HandlePause handles POST /api/v1/scheduler/pause requests.
func (h *SchedulerHandler) HandlePause(c echo.Context) error {
	if err := h.scheduler.Pause(); err != nil {
		return echo.NewHTTPError(http.StatusConflict, "Scheduler is not active")
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "paused"})
}

// HandleResume handles POST /api/v1/scheduler/resume requests.
func (h *SchedulerHandler) HandleResume(c echo.Context) error {
	if err := h.scheduler.Resume(); err != nil {
		return echo.NewHTTPError(http.StatusConflict, "Scheduler is not paused")
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "active"})
}
