// ABOUTME: This file serves stored trend alerts with a presentation-level
// ABOUTME: severity derived from the raw spike score.
package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"pharma-radar/domain"
	"pharma-radar/repository"
	"pharma-radar/trend"
)

// TrendResponse is one alert enriched with its severity band.
type TrendResponse struct {
	ID          string          `json:"id"`
	Category    domain.Category `json:"category"`
	SpikeScore  float64         `json:"spikeScore"`
	Severity    string          `json:"severity"`
	Window      string          `json:"window"`
	SampleTexts []string        `json:"sampleTexts"`
	CreatedAt   time.Time       `json:"createdAt"`
}

type TrendHandler struct {
	trends repository.TrendRepository
	logger *slog.Logger
}

func NewTrendHandler(trends repository.TrendRepository, logger *slog.Logger) *TrendHandler {
	return &TrendHandler{trends: trends, logger: logger}
}

// HandleListTrends handles GET /api/v1/trends requests, newest first.
func (h *TrendHandler) HandleListTrends(c echo.Context) error {
	ctx := c.Request().Context()

	limit, err := parseLimit(c.QueryParam("limit"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid limit parameter")
	}

	alerts, err := h.trends.FindRecent(ctx, limit)
	if err != nil {
		h.logger.Error("failed to list trends", "error", err)
		return err
	}

	trends := make([]TrendResponse, 0, len(alerts))
	for _, alert := range alerts {
		trends = append(trends, TrendResponse{
			ID:          alert.ID,
			Category:    alert.Category,
			SpikeScore:  alert.SpikeScore,
			Severity:    trend.Severity(alert.SpikeScore),
			Window:      alert.Window,
			SampleTexts: alert.SampleTexts,
			CreatedAt:   alert.CreatedAt,
		})
	}

	return c.JSON(http.StatusOK, map[string]any{
		"trends": trends,
		"count":  len(trends),
	})
}
