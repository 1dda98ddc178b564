// ABOUTME: This file implements the ingestion control loop: periodic fetch
// ABOUTME: fan-out, classification, storage, and trend detection triggers.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"pharma-radar/cache"
	"pharma-radar/classifier"
	"pharma-radar/config"
	"pharma-radar/domain"
	"pharma-radar/fetcher"
	"pharma-radar/repository"
	"pharma-radar/trend"
)

type state string

const (
	stateStopped state = "stopped"
	stateActive  state = "active"
	statePaused  state = "paused"
)

// Stats is a point-in-time snapshot of the scheduler counters.
type Stats struct {
	State           string               `json:"state"`
	IsRunning       bool                 `json:"isRunning"`
	TotalFetches    int                  `json:"totalFetches"`
	TotalClassified int                  `json:"totalClassified"`
	LastRun         *time.Time           `json:"lastRun"`
	RecentErrors    []domain.SourceError `json:"recentErrors"`
	ErrorCount      int                  `json:"errorCount"`
}

// Scheduler owns the periodic ingestion pipeline. One instance runs per
// process; the run-lock serializes cycles across periodic and manual
// triggers.
type Scheduler struct {
	fetchers   []fetcher.Fetcher
	classifier classifier.Client
	events     repository.EventRepository
	detector   *trend.Detector
	seen       cache.SeenMarker
	cfg        config.SchedulerConfig
	logger     *slog.Logger

	running atomic.Bool // held for the duration of one cycle

	mu              sync.Mutex
	state           state
	baseCtx         context.Context
	jobs            *jobGroup
	totalFetches    int
	totalClassified int
	lastRun         *time.Time
	errors          []domain.SourceError
}

func New(fetchers []fetcher.Fetcher, cls classifier.Client, events repository.EventRepository, detector *trend.Detector, seen cache.SeenMarker, cfg config.SchedulerConfig, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		fetchers:   fetchers,
		classifier: cls,
		events:     events,
		detector:   detector,
		seen:       seen,
		cfg:        cfg,
		logger:     logger,
		state:      stateStopped,
	}
}

// Start registers the periodic jobs and performs one immediate ingestion
// run. Starting an already started scheduler is an error.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != stateStopped {
		return domain.ErrSchedulerActive
	}

	s.baseCtx = ctx
	s.registerJobs(ctx)
	s.state = stateActive

	s.logger.InfoContext(ctx, "scheduler started",
		"ingest_interval", s.cfg.IngestInterval,
		"trend_interval", s.cfg.TrendInterval)

	return nil
}

// Stop deregisters all jobs and waits for their loops to exit. An
// in-flight cycle observes the cancelled context but is not interrupted
// mid-item. The mutex is released before waiting so a running cycle can
// still record its counters and finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	jobs := s.jobs
	s.jobs = nil
	s.state = stateStopped
	s.mu.Unlock()

	if jobs != nil {
		jobs.stopAll()
	}

	s.logger.Info("scheduler stopped")
}

// Pause suspends future periodic triggers. Manual runs stay possible.
func (s *Scheduler) Pause() error {
	s.mu.Lock()
	if s.state != stateActive {
		s.mu.Unlock()
		return domain.ErrSchedulerPaused
	}

	jobs := s.jobs
	s.jobs = nil
	s.state = statePaused
	s.mu.Unlock()

	if jobs != nil {
		jobs.stopAll()
	}

	s.logger.Info("scheduler paused")

	return nil
}

// Resume re-registers the periodic jobs after a pause.
func (s *Scheduler) Resume() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != statePaused {
		return domain.ErrSchedulerActive
	}

	s.registerJobs(s.baseCtx)
	s.state = stateActive
	s.logger.Info("scheduler resumed")

	return nil
}

func (s *Scheduler) registerJobs(ctx context.Context) {
	s.jobs = newJobGroup(s.logger)

	s.jobs.add(ctx, Job{
		Name:           "ingest",
		Interval:       s.cfg.IngestInterval,
		RunImmediately: true,
		Run:            s.RunCycle,
	})

	s.jobs.add(ctx, Job{
		Name:     "trend-detection",
		Interval: s.cfg.TrendInterval,
		Run: func(ctx context.Context) error {
			_, err := s.detector.Detect(ctx)
			return err
		},
	})

	s.jobs.add(ctx, Job{
		Name:     "error-log-trim",
		Interval: s.cfg.TrimInterval,
		Run:      s.trimErrors,
	})
}

// TriggerManualRun starts one cycle out of band. It reports
// ErrCycleInProgress when the run-lock is already held.
func (s *Scheduler) TriggerManualRun(ctx context.Context) error {
	return s.RunCycle(ctx)
}

// RunCycle executes one full ingestion cycle: fetch from every source,
// classify and store each item, then run trend detection once. Overlapping
// invocations are skipped, and the run-lock is always released.
func (s *Scheduler) RunCycle(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		s.logger.InfoContext(ctx, "cycle already in progress, skipping")
		return domain.ErrCycleInProgress
	}
	defer s.running.Store(false)

	now := time.Now()
	s.mu.Lock()
	s.lastRun = &now
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "ingestion cycle started", "fetchers", len(s.fetchers))

	items := s.fetchAll(ctx)
	processed := s.processBatch(ctx, items)

	s.mu.Lock()
	s.totalFetches += len(items)
	s.totalClassified += processed
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "ingestion cycle finished",
		"fetched", len(items), "classified", processed)

	if processed > 0 {
		if _, err := s.detector.Detect(ctx); err != nil {
			s.logger.ErrorContext(ctx, "trend detection failed", "error", err)
			s.recordError("trend-detection", err)
		}
	}

	return nil
}

// fetchAll fans out to every fetcher concurrently and merges whatever
// succeeded. A failing fetcher contributes nothing but never aborts the
// others.
func (s *Scheduler) fetchAll(ctx context.Context) []domain.RawItem {
	results := forEachBounded(ctx, len(s.fetchers), s.fetchers,
		func(ctx context.Context, f fetcher.Fetcher) ([]domain.RawItem, error) {
			return f.Fetch(ctx)
		})

	var items []domain.RawItem
	for i, result := range results {
		if result.err != nil {
			s.logger.ErrorContext(ctx, "fetcher failed",
				"fetcher", s.fetchers[i].Name(), "error", result.err)
			s.recordError(s.fetchers[i].Name(), result.err)
			continue
		}
		items = append(items, result.value...)
	}

	return items
}

// processBatch classifies and stores each item with bounded concurrency
// and returns how many items made it into the store.
func (s *Scheduler) processBatch(ctx context.Context, items []domain.RawItem) int {
	results := forEachBounded(ctx, s.cfg.ItemConcurrency, items,
		func(ctx context.Context, item domain.RawItem) (*domain.Event, error) {
			return s.processRawItem(ctx, item)
		})

	processed := 0
	for i, result := range results {
		if result.err != nil {
			s.recordError(items[i].Source, result.err)
			continue
		}
		if result.value != nil {
			processed++
		}
	}

	return processed
}

// processRawItem handles one raw item end to end. A nil event with nil
// error means the item was skipped by the seen cache.
func (s *Scheduler) processRawItem(ctx context.Context, item domain.RawItem) (*domain.Event, error) {
	if item.ExternalID != nil {
		seen, err := s.seen.Seen(ctx, *item.ExternalID)
		if err != nil {
			s.logger.WarnContext(ctx, "seen cache lookup failed", "error", err)
		} else if seen {
			return nil, nil
		}
	}

	event, err := s.ProcessItem(ctx, item.Text, item.Source, item.ExternalID)
	if err != nil {
		return nil, err
	}

	if item.ExternalID != nil {
		if err := s.seen.Mark(ctx, *item.ExternalID); err != nil {
			s.logger.WarnContext(ctx, "seen cache mark failed", "error", err)
		}
	}

	return event, nil
}

// ProcessItem classifies one text and stores the resulting event. The
// manual classify endpoint shares this path with the ingestion cycle.
func (s *Scheduler) ProcessItem(ctx context.Context, text, source string, externalID *string) (*domain.Event, error) {
	if text == "" {
		return nil, domain.ErrEmptyText
	}
	if source == "" {
		return nil, domain.ErrEmptySource
	}

	result, err := s.classifier.Classify(ctx, text, source)
	if err != nil {
		return nil, fmt.Errorf("classification failed for %s: %w", source, err)
	}

	category := domain.MapLabelToCategory(result.Label)

	event, err := s.events.Save(ctx, text, category, result.Confidence, source, externalID)
	if err != nil {
		return nil, fmt.Errorf("failed to store event from %s: %w", source, err)
	}

	return event, nil
}

// DetectAsync runs trend detection in the background. Failures surface
// only in logs, never to the caller.
func (s *Scheduler) DetectAsync(ctx context.Context) {
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("panic in background trend detection", "panic", rec)
			}
		}()

		if _, err := s.detector.Detect(ctx); err != nil {
			s.logger.Error("background trend detection failed", "error", err)
		}
	}()
}

// recordError appends to the bounded error log, evicting the oldest
// entries past the cap.
func (s *Scheduler) recordError(source string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.errors = append(s.errors, domain.SourceError{
		Timestamp: time.Now(),
		Source:    source,
		Error:     err.Error(),
	})

	if excess := len(s.errors) - s.cfg.MaxErrors; excess > 0 {
		s.errors = s.errors[excess:]
	}
}

func (s *Scheduler) trimErrors(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if excess := len(s.errors) - s.cfg.MaxErrors; excess > 0 {
		s.errors = s.errors[excess:]
		s.logger.InfoContext(ctx, "error log trimmed", "dropped", excess)
	}

	return nil
}

// Stats returns a snapshot with the most recent errors only, even though
// more are retained internally.
func (s *Scheduler) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	recent := s.errors
	if len(recent) > s.cfg.RecentErrors {
		recent = recent[len(recent)-s.cfg.RecentErrors:]
	}

	snapshot := make([]domain.SourceError, len(recent))
	copy(snapshot, recent)

	return Stats{
		State:           string(s.state),
		IsRunning:       s.running.Load(),
		TotalFetches:    s.totalFetches,
		TotalClassified: s.totalClassified,
		LastRun:         s.lastRun,
		RecentErrors:    snapshot,
		ErrorCount:      len(s.errors),
	}
}
