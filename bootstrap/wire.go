// ABOUTME: This file constructs the application dependency graph: config,
// ABOUTME: database, repositories, fetchers, scheduler, and handlers.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"pharma-radar/cache"
	"pharma-radar/classifier"
	"pharma-radar/config"
	"pharma-radar/fetcher"
	"pharma-radar/handler"
	"pharma-radar/repository"
	"pharma-radar/scheduler"
	"pharma-radar/trend"
)

// Dependencies holds all application dependencies.
type Dependencies struct {
	Config    *config.Config
	DBPool    *pgxpool.Pool
	Scheduler *scheduler.Scheduler
	Logger    *slog.Logger

	ClassifyHandler  *handler.ClassifyHandler
	EventHandler     *handler.EventHandler
	TrendHandler     *handler.TrendHandler
	SchedulerHandler *handler.SchedulerHandler
	HealthHandler    *handler.HealthHandler
}

// BuildDependencies constructs all application dependencies. The returned
// cleanup function should be deferred by the caller.
func BuildDependencies(ctx context.Context, log *slog.Logger) (*Dependencies, func(), error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	dbPool, err := repository.Init(ctx, cfg.Database, log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := repository.Migrate(ctx, dbPool); err != nil {
		dbPool.Close()
		return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	eventRepo := repository.NewEventRepository(dbPool, log)
	trendRepo := repository.NewTrendRepository(dbPool, log)

	seen, err := buildSeenCache(ctx, cfg.SeenCache, log)
	if err != nil {
		dbPool.Close()
		return nil, nil, err
	}

	detector := trend.NewDetector(eventRepo, trendRepo, cfg.Trend, log.With("component", "trend"))

	cls := classifier.NewHTTPClient(cfg.Classifier, log.With("component", "classifier"))

	sched := scheduler.New(
		buildFetchers(cfg, log),
		cls,
		eventRepo,
		detector,
		seen,
		cfg.Scheduler,
		log.With("component", "scheduler"),
	)

	deps := &Dependencies{
		Config:    cfg,
		DBPool:    dbPool,
		Scheduler: sched,
		Logger:    log,

		ClassifyHandler:  handler.NewClassifyHandler(sched, log),
		EventHandler:     handler.NewEventHandler(eventRepo, log),
		TrendHandler:     handler.NewTrendHandler(trendRepo, log),
		SchedulerHandler: handler.NewSchedulerHandler(sched, log),
		HealthHandler:    handler.NewHealthHandler(eventRepo, log),
	}

	cleanup := func() {
		if err := seen.Close(); err != nil {
			log.Error("failed to close seen cache", "error", err)
		}
		dbPool.Close()
	}

	return deps, cleanup, nil
}

func buildFetchers(cfg *config.Config, log *slog.Logger) []fetcher.Fetcher {
	client := fetcher.NewHTTPClient(cfg.HTTP)
	fetcherLog := log.With("component", "fetcher")

	return []fetcher.Fetcher{
		fetcher.NewRSSFetcher(cfg.Sources, client, fetcherLog),
		fetcher.NewClinicalTrialsFetcher(cfg.Sources, client, fetcherLog),
		fetcher.NewRegulatoryFetcher(cfg.Sources, client, fetcherLog),
		fetcher.NewPubMedFetcher(cfg.Sources, client, fetcherLog),
	}
}

func buildSeenCache(ctx context.Context, cfg config.SeenCacheConfig, log *slog.Logger) (cache.SeenMarker, error) {
	if !cfg.Enabled {
		return cache.NoopSeenCache{}, nil
	}

	seen, err := cache.NewRedisSeenCache(ctx, cfg, log.With("component", "seen-cache"))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize seen cache: %w", err)
	}

	return seen, nil
}
