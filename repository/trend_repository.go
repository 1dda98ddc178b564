package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"pharma-radar/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type trendRepository struct {
	db     DB
	logger *slog.Logger
}

// NewTrendRepository creates a new trend alert repository.
func NewTrendRepository(db DB, logger *slog.Logger) TrendRepository {
	return &trendRepository{
		db:     db,
		logger: logger,
	}
}

const insertTrendQuery = `
	INSERT INTO trend_alerts (id, category, spike_score, window_label, sample_texts, created_at)
	VALUES ($1, $2, $3, $4, $5, $6)
`

func (r *trendRepository) Insert(ctx context.Context, alert *domain.TrendAlert) error {
	if r.db == nil {
		return fmt.Errorf("failed to insert trend alert: database connection is nil")
	}

	if alert.ID == "" {
		alert.ID = uuid.New().String()
	}

	if alert.CreatedAt.IsZero() {
		alert.CreatedAt = time.Now().UTC()
	}

	samples := alert.SampleTexts
	if samples == nil {
		samples = []string{}
	}

	_, err := r.db.Exec(ctx, insertTrendQuery,
		alert.ID, string(alert.Category), alert.SpikeScore, alert.Window, samples, alert.CreatedAt)
	if err != nil {
		r.logger.ErrorContext(ctx, "failed to insert trend alert",
			"error", err, "category", alert.Category)
		return fmt.Errorf("failed to insert trend alert: %w", err)
	}

	return nil
}

const findRecentTrendsQuery = `
	SELECT id, category, spike_score, window_label, sample_texts, created_at
	FROM trend_alerts
	ORDER BY created_at DESC
	LIMIT $1
`

func (r *trendRepository) FindRecent(ctx context.Context, limit int) ([]*domain.TrendAlert, error) {
	if r.db == nil {
		return nil, fmt.Errorf("failed to find trend alerts: database connection is nil")
	}

	rows, err := r.db.Query(ctx, findRecentTrendsQuery, limit)
	if err != nil {
		r.logger.ErrorContext(ctx, "failed to find trend alerts", "error", err)
		return nil, fmt.Errorf("failed to find trend alerts: %w", err)
	}
	defer rows.Close()

	var alerts []*domain.TrendAlert

	for rows.Next() {
		var alert domain.TrendAlert
		var category string

		if err := rows.Scan(&alert.ID, &category, &alert.SpikeScore,
			&alert.Window, &alert.SampleTexts, &alert.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan trend alert: %w", err)
		}

		alert.Category = domain.Category(category)
		alerts = append(alerts, &alert)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read trend alerts: %w", err)
	}

	return alerts, nil
}

const latestForCategoryQuery = `
	SELECT created_at
	FROM trend_alerts
	WHERE category = $1
	ORDER BY created_at DESC
	LIMIT 1
`

func (r *trendRepository) LatestForCategory(ctx context.Context, category domain.Category) (*time.Time, error) {
	if r.db == nil {
		return nil, fmt.Errorf("failed to query trend alerts: database connection is nil")
	}

	var createdAt time.Time

	err := r.db.QueryRow(ctx, latestForCategoryQuery, string(category)).Scan(&createdAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query latest trend alert: %w", err)
	}

	return &createdAt, nil
}
