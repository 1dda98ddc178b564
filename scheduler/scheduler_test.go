package scheduler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"pharma-radar/cache"
	"pharma-radar/classifier"
	"pharma-radar/config"
	"pharma-radar/domain"
	"pharma-radar/fetcher"
	"pharma-radar/trend"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubFetcher struct {
	name    string
	items   []domain.RawItem
	err     error
	block   chan struct{} // when set, Fetch waits until closed
	mu      sync.Mutex
	fetches int
}

func (f *stubFetcher) Name() string { return f.name }

func (f *stubFetcher) Fetch(ctx context.Context) ([]domain.RawItem, error) {
	f.mu.Lock()
	f.fetches++
	f.mu.Unlock()

	if f.block != nil {
		<-f.block
	}
	return f.items, f.err
}

func (f *stubFetcher) fetchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetches
}

type stubClassifier struct {
	result *classifier.Result
	err    error
}

func (c *stubClassifier) Classify(ctx context.Context, text, source string) (*classifier.Result, error) {
	if c.err != nil {
		return nil, c.err
	}
	return c.result, nil
}

type stubEventRepo struct {
	mu      sync.Mutex
	saved   []*domain.Event
	saveErr error
}

func (r *stubEventRepo) Save(ctx context.Context, text string, category domain.Category, confidence float64, source string, externalID *string) (*domain.Event, error) {
	if r.saveErr != nil {
		return nil, r.saveErr
	}

	event := &domain.Event{
		ID:         uuid.NewString(),
		Text:       text,
		Category:   category,
		Confidence: confidence,
		Source:     source,
		ExternalID: externalID,
		CreatedAt:  time.Now(),
	}

	r.mu.Lock()
	r.saved = append(r.saved, event)
	r.mu.Unlock()

	return event, nil
}

func (r *stubEventRepo) FindRecent(ctx context.Context, limit int) ([]*domain.Event, error) {
	return nil, nil
}

func (r *stubEventRepo) CountSince(ctx context.Context, since time.Time) (int, error) {
	return 0, nil
}

func (r *stubEventRepo) BucketCounts(ctx context.Context, since time.Time, width time.Duration) ([]domain.CategoryBucket, error) {
	return nil, nil
}

func (r *stubEventRepo) SampleTexts(ctx context.Context, category domain.Category, since time.Time, limit int) ([]string, error) {
	return nil, nil
}

func (r *stubEventRepo) savedCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.saved)
}

type stubTrendRepo struct{}

func (stubTrendRepo) Insert(ctx context.Context, alert *domain.TrendAlert) error { return nil }
func (stubTrendRepo) FindRecent(ctx context.Context, limit int) ([]*domain.TrendAlert, error) {
	return nil, nil
}
func (stubTrendRepo) LatestForCategory(ctx context.Context, category domain.Category) (*time.Time, error) {
	return nil, nil
}

func testSchedulerConfig() config.SchedulerConfig {
	return config.SchedulerConfig{
		IngestInterval:  time.Hour,
		TrendInterval:   time.Hour,
		TrimInterval:    time.Hour,
		ItemConcurrency: 4,
		MaxErrors:       100,
		RecentErrors:    10,
	}
}

func newTestScheduler(fetchers []*stubFetcher, cls classifier.Client, events *stubEventRepo, cfg config.SchedulerConfig) *Scheduler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	detector := trend.NewDetector(events, stubTrendRepo{}, config.TrendConfig{
		Lookback:    6 * time.Hour,
		BucketWidth: time.Minute,
		Threshold:   1.2,
		MinBuckets:  5,
		MaxSamples:  3,
	}, logger)

	return New(toFetchers(fetchers), cls, events, detector, cache.NoopSeenCache{}, cfg, logger)
}

func toFetchers(stubs []*stubFetcher) []fetcher.Fetcher {
	fetchers := make([]fetcher.Fetcher, 0, len(stubs))
	for _, s := range stubs {
		fetchers = append(fetchers, s)
	}
	return fetchers
}

func okClassifier() *stubClassifier {
	return &stubClassifier{result: &classifier.Result{Label: "side effects", Confidence: 0.9}}
}

func rawItem(text, source string) domain.RawItem {
	return domain.RawItem{Text: text, Source: source, Timestamp: time.Now()}
}

func TestScheduler_RunCycle_ProcessesAllSources(t *testing.T) {
	fetchers := []*stubFetcher{
		{name: "rss", items: []domain.RawItem{rawItem("a", "rss:One"), rawItem("b", "rss:Two")}},
		{name: "pubmed", items: []domain.RawItem{rawItem("c", "pubmed:1")}},
	}
	events := &stubEventRepo{}
	sched := newTestScheduler(fetchers, okClassifier(), events, testSchedulerConfig())

	err := sched.RunCycle(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 3, events.savedCount())

	stats := sched.Stats()
	assert.Equal(t, 3, stats.TotalFetches)
	assert.Equal(t, 3, stats.TotalClassified)
	assert.NotNil(t, stats.LastRun)
	assert.False(t, stats.IsRunning)
}

func TestScheduler_RunCycle_OverlapSkipped(t *testing.T) {
	release := make(chan struct{})
	blocked := &stubFetcher{name: "slow", block: release}
	sched := newTestScheduler([]*stubFetcher{blocked}, okClassifier(), &stubEventRepo{}, testSchedulerConfig())

	firstDone := make(chan error, 1)
	go func() {
		firstDone <- sched.RunCycle(context.Background())
	}()

	// Wait until the first cycle holds the run-lock.
	require.Eventually(t, func() bool {
		return sched.Stats().IsRunning
	}, time.Second, time.Millisecond)

	err := sched.RunCycle(context.Background())
	assert.ErrorIs(t, err, domain.ErrCycleInProgress)
	assert.Equal(t, 1, blocked.fetchCount(), "the skipped cycle must not fetch")

	close(release)
	require.NoError(t, <-firstDone)
	assert.False(t, sched.Stats().IsRunning)
}

func TestScheduler_RunCycle_LockReleasedOnFailure(t *testing.T) {
	fetchers := []*stubFetcher{{name: "broken", err: errors.New("boom")}}
	events := &stubEventRepo{saveErr: errors.New("db down")}
	sched := newTestScheduler(fetchers, okClassifier(), events, testSchedulerConfig())

	err := sched.RunCycle(context.Background())

	require.NoError(t, err, "per-source failures never fail the cycle")
	assert.False(t, sched.Stats().IsRunning)
}

func TestScheduler_RunCycle_PartialFetcherFailure(t *testing.T) {
	fetchers := []*stubFetcher{
		{name: "broken", err: errors.New("timeout")},
		{name: "healthy", items: []domain.RawItem{rawItem("a", "rss:One")}},
	}
	events := &stubEventRepo{}
	sched := newTestScheduler(fetchers, okClassifier(), events, testSchedulerConfig())

	err := sched.RunCycle(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, events.savedCount(), "healthy sources still process")

	stats := sched.Stats()
	require.Len(t, stats.RecentErrors, 1)
	assert.Equal(t, "broken", stats.RecentErrors[0].Source)
}

func TestScheduler_RunCycle_ClassifierFailureRecorded(t *testing.T) {
	fetchers := []*stubFetcher{
		{name: "rss", items: []domain.RawItem{rawItem("a", "rss:One"), rawItem("b", "rss:Two")}},
	}
	cls := &stubClassifier{err: domain.ErrClassifierUnavailable}
	events := &stubEventRepo{}
	sched := newTestScheduler(fetchers, cls, events, testSchedulerConfig())

	err := sched.RunCycle(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 0, events.savedCount())

	stats := sched.Stats()
	assert.Equal(t, 2, stats.TotalFetches)
	assert.Equal(t, 0, stats.TotalClassified)
	assert.Len(t, stats.RecentErrors, 2)
}

func TestScheduler_ErrorLogBounded(t *testing.T) {
	cfg := testSchedulerConfig()
	cfg.MaxErrors = 100
	sched := newTestScheduler(nil, okClassifier(), &stubEventRepo{}, cfg)

	for i := 0; i < 150; i++ {
		sched.recordError("source", fmt.Errorf("error %d", i))
	}

	stats := sched.Stats()
	assert.Equal(t, 100, stats.ErrorCount)
	require.Len(t, stats.RecentErrors, 10)
	// Oldest entries evicted first, newest retained.
	assert.Equal(t, "error 149", stats.RecentErrors[9].Error)
	assert.Equal(t, "error 140", stats.RecentErrors[0].Error)
}

func TestScheduler_ProcessItem(t *testing.T) {
	events := &stubEventRepo{}
	sched := newTestScheduler(nil, okClassifier(), events, testSchedulerConfig())
	ctx := context.Background()

	event, err := sched.ProcessItem(ctx, "patients reported nausea", "manual", nil)

	require.NoError(t, err)
	assert.Equal(t, domain.CategorySideEffects, event.Category)
	assert.Equal(t, 0.9, event.Confidence)

	_, err = sched.ProcessItem(ctx, "", "manual", nil)
	assert.ErrorIs(t, err, domain.ErrEmptyText)

	_, err = sched.ProcessItem(ctx, "text", "", nil)
	assert.ErrorIs(t, err, domain.ErrEmptySource)
}

func TestScheduler_PauseResume(t *testing.T) {
	sched := newTestScheduler(nil, okClassifier(), &stubEventRepo{}, testSchedulerConfig())
	ctx := context.Background()

	require.NoError(t, sched.Start(ctx))
	defer sched.Stop()

	assert.ErrorIs(t, sched.Start(ctx), domain.ErrSchedulerActive)
	assert.Equal(t, "active", sched.Stats().State)

	require.NoError(t, sched.Pause())
	assert.Equal(t, "paused", sched.Stats().State)
	assert.ErrorIs(t, sched.Pause(), domain.ErrSchedulerPaused)

	// Manual runs still work while paused.
	require.NoError(t, sched.TriggerManualRun(ctx))

	require.NoError(t, sched.Resume())
	assert.Equal(t, "active", sched.Stats().State)
	assert.ErrorIs(t, sched.Resume(), domain.ErrSchedulerActive)
}

func TestScheduler_StopReturnsWhileCycleInFlight(t *testing.T) {
	release := make(chan struct{})
	blocked := &stubFetcher{name: "slow", block: release}
	sched := newTestScheduler([]*stubFetcher{blocked}, okClassifier(), &stubEventRepo{}, testSchedulerConfig())

	require.NoError(t, sched.Start(context.Background()))

	// Wait until the immediate ingest run holds the run-lock.
	require.Eventually(t, func() bool {
		return sched.Stats().IsRunning
	}, time.Second, time.Millisecond)

	stopped := make(chan struct{})
	go func() {
		sched.Stop()
		close(stopped)
	}()

	close(release)

	select {
	case <-stopped:
	case <-time.After(3 * time.Second):
		t.Fatal("Stop did not return after the running cycle finished")
	}
	assert.Equal(t, "stopped", sched.Stats().State)
}

func TestScheduler_PauseReturnsWhileCycleInFlight(t *testing.T) {
	release := make(chan struct{})
	blocked := &stubFetcher{name: "slow", block: release}
	sched := newTestScheduler([]*stubFetcher{blocked}, okClassifier(), &stubEventRepo{}, testSchedulerConfig())

	require.NoError(t, sched.Start(context.Background()))
	defer sched.Stop()

	require.Eventually(t, func() bool {
		return sched.Stats().IsRunning
	}, time.Second, time.Millisecond)

	paused := make(chan error, 1)
	go func() {
		paused <- sched.Pause()
	}()

	close(release)

	select {
	case err := <-paused:
		require.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("Pause did not return after the running cycle finished")
	}
	assert.Equal(t, "paused", sched.Stats().State)
}

func TestScheduler_StartRunsImmediateIngest(t *testing.T) {
	source := &stubFetcher{name: "rss", items: []domain.RawItem{rawItem("a", "rss:One")}}
	events := &stubEventRepo{}
	sched := newTestScheduler([]*stubFetcher{source}, okClassifier(), events, testSchedulerConfig())

	require.NoError(t, sched.Start(context.Background()))
	defer sched.Stop()

	require.Eventually(t, func() bool {
		return events.savedCount() == 1
	}, time.Second, 5*time.Millisecond)
}
