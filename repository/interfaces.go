package repository

import (
	"context"
	"time"

	"pharma-radar/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the subset of pgxpool.Pool the repositories depend on. pgxmock
// satisfies it in tests.
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// EventRepository persists and queries classified events.
type EventRepository interface {
	// Save upserts by external ID when one is present, otherwise inserts.
	Save(ctx context.Context, text string, category domain.Category, confidence float64, source string, externalID *string) (*domain.Event, error)

	// FindRecent returns up to limit events, newest first.
	FindRecent(ctx context.Context, limit int) ([]*domain.Event, error)

	// CountSince counts events created at or after the given time.
	CountSince(ctx context.Context, since time.Time) (int, error)

	// BucketCounts aggregates event counts per (category, time bucket) for
	// events created at or after since, with buckets of the given width.
	BucketCounts(ctx context.Context, since time.Time, width time.Duration) ([]domain.CategoryBucket, error)

	// SampleTexts returns up to limit recent event texts for a category.
	SampleTexts(ctx context.Context, category domain.Category, since time.Time, limit int) ([]string, error)
}

// TrendRepository persists and queries trend alerts.
type TrendRepository interface {
	Insert(ctx context.Context, alert *domain.TrendAlert) error
	FindRecent(ctx context.Context, limit int) ([]*domain.TrendAlert, error)

	// LatestForCategory returns the creation time of the newest alert for a
	// category, or nil when none exists.
	LatestForCategory(ctx context.Context, category domain.Category) (*time.Time, error)
}
