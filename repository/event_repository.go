package repository

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"pharma-radar/domain"

	"github.com/google/uuid"
)

type eventRepository struct {
	db     DB
	logger *slog.Logger
}

// NewEventRepository creates a new event repository.
func NewEventRepository(db DB, logger *slog.Logger) EventRepository {
	return &eventRepository{
		db:     db,
		logger: logger,
	}
}

const upsertEventQuery = `
	INSERT INTO events (id, text, category, confidence, source, external_id, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	ON CONFLICT (external_id) WHERE external_id IS NOT NULL
	DO UPDATE SET category = EXCLUDED.category, confidence = EXCLUDED.confidence
	RETURNING id, created_at
`

const insertEventQuery = `
	INSERT INTO events (id, text, category, confidence, source, created_at)
	VALUES ($1, $2, $3, $4, $5, $6)
	RETURNING id, created_at
`

// Save stores a classified event. When externalID is non-nil an existing
// event with the same external identity is updated in place (category and
// confidence only, created_at untouched) so re-fetched items reclassify
// rather than duplicate. Items without an external identity always insert.
func (r *eventRepository) Save(ctx context.Context, text string, category domain.Category, confidence float64, source string, externalID *string) (*domain.Event, error) {
	if r.db == nil {
		return nil, fmt.Errorf("failed to save event: database connection is nil")
	}

	event := &domain.Event{
		Text:       text,
		Category:   category,
		Confidence: confidence,
		Source:     source,
		ExternalID: externalID,
	}

	newID := uuid.New().String()
	now := time.Now().UTC()

	var err error
	if externalID != nil {
		err = r.db.QueryRow(ctx, upsertEventQuery,
			newID, text, string(category), confidence, source, *externalID, now,
		).Scan(&event.ID, &event.CreatedAt)
	} else {
		err = r.db.QueryRow(ctx, insertEventQuery,
			newID, text, string(category), confidence, source, now,
		).Scan(&event.ID, &event.CreatedAt)
	}

	if err != nil {
		r.logger.ErrorContext(ctx, "failed to save event", "error", err, "source", source)
		return nil, fmt.Errorf("failed to save event: %w", err)
	}

	return event, nil
}

const findRecentEventsQuery = `
	SELECT id, text, category, confidence, source, external_id, created_at
	FROM events
	ORDER BY created_at DESC
	LIMIT $1
`

func (r *eventRepository) FindRecent(ctx context.Context, limit int) ([]*domain.Event, error) {
	if r.db == nil {
		return nil, fmt.Errorf("failed to find events: database connection is nil")
	}

	rows, err := r.db.Query(ctx, findRecentEventsQuery, limit)
	if err != nil {
		r.logger.ErrorContext(ctx, "failed to find recent events", "error", err)
		return nil, fmt.Errorf("failed to find recent events: %w", err)
	}
	defer rows.Close()

	var events []*domain.Event

	for rows.Next() {
		var event domain.Event
		var category string

		if err := rows.Scan(&event.ID, &event.Text, &category, &event.Confidence,
			&event.Source, &event.ExternalID, &event.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}

		event.Category = domain.Category(category)
		events = append(events, &event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read events: %w", err)
	}

	return events, nil
}

const countSinceQuery = `
	SELECT COUNT(*) FROM events WHERE created_at >= $1
`

func (r *eventRepository) CountSince(ctx context.Context, since time.Time) (int, error) {
	if r.db == nil {
		return 0, fmt.Errorf("failed to count events: database connection is nil")
	}

	var count int
	if err := r.db.QueryRow(ctx, countSinceQuery, since).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count events: %w", err)
	}

	return count, nil
}

const bucketCountsQuery = `
	SELECT category,
	       date_bin($1::interval, created_at, TIMESTAMPTZ 'epoch') AS bucket,
	       COUNT(*)
	FROM events
	WHERE created_at >= $2
	GROUP BY category, bucket
	ORDER BY category, bucket
`

// BucketCounts discretizes event timestamps into fixed-width buckets and
// returns per (category, bucket) counts for the trend detector.
func (r *eventRepository) BucketCounts(ctx context.Context, since time.Time, width time.Duration) ([]domain.CategoryBucket, error) {
	if r.db == nil {
		return nil, fmt.Errorf("failed to aggregate events: database connection is nil")
	}

	interval := fmt.Sprintf("%d seconds", int64(width.Seconds()))

	rows, err := r.db.Query(ctx, bucketCountsQuery, interval, since)
	if err != nil {
		r.logger.ErrorContext(ctx, "failed to aggregate events", "error", err)
		return nil, fmt.Errorf("failed to aggregate events: %w", err)
	}
	defer rows.Close()

	var buckets []domain.CategoryBucket

	for rows.Next() {
		var bucket domain.CategoryBucket
		var category string

		if err := rows.Scan(&category, &bucket.Bucket, &bucket.Count); err != nil {
			return nil, fmt.Errorf("failed to scan bucket: %w", err)
		}

		bucket.Category = domain.Category(category)
		buckets = append(buckets, bucket)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read buckets: %w", err)
	}

	return buckets, nil
}

const sampleTextsQuery = `
	SELECT text
	FROM events
	WHERE category = $1 AND created_at >= $2
	ORDER BY created_at DESC
	LIMIT $3
`

func (r *eventRepository) SampleTexts(ctx context.Context, category domain.Category, since time.Time, limit int) ([]string, error) {
	if r.db == nil {
		return nil, fmt.Errorf("failed to sample events: database connection is nil")
	}

	rows, err := r.db.Query(ctx, sampleTextsQuery, string(category), since, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to sample events: %w", err)
	}
	defer rows.Close()

	var texts []string

	for rows.Next() {
		var text string
		if err := rows.Scan(&text); err != nil {
			return nil, fmt.Errorf("failed to scan sample text: %w", err)
		}
		texts = append(texts, text)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read sample texts: %w", err)
	}

	return texts, nil
}
