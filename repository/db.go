package repository

import (
	"context"
	"fmt"
	"log/slog"

	"pharma-radar/config"

	"github.com/jackc/pgx/v5/pgxpool"
)

func buildConnectionString(cfg config.DatabaseConfig) string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable search_path=public",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name,
	)
}

// Init creates a pgx connection pool from the database configuration.
func Init(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(buildConnectionString(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = int32(cfg.MinConns)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.InfoContext(ctx, "database pool initialized",
		"host", cfg.Host,
		"database", cfg.Name,
		"max_conns", cfg.MaxConns)

	return pool, nil
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS events (
		id UUID PRIMARY KEY,
		text TEXT NOT NULL,
		category TEXT NOT NULL,
		confidence DOUBLE PRECISION NOT NULL,
		source TEXT NOT NULL,
		external_id TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS events_external_id_key
		ON events (external_id) WHERE external_id IS NOT NULL`,
	`CREATE INDEX IF NOT EXISTS events_created_at_idx
		ON events (created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS trend_alerts (
		id UUID PRIMARY KEY,
		category TEXT NOT NULL,
		spike_score DOUBLE PRECISION NOT NULL,
		window_label TEXT NOT NULL,
		sample_texts TEXT[] NOT NULL DEFAULT '{}',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS trend_alerts_created_at_idx
		ON trend_alerts (created_at DESC)`,
}

// Migrate creates the events and trend_alerts tables if they do not exist.
func Migrate(ctx context.Context, db DB) error {
	for _, stmt := range migrations {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	return nil
}
