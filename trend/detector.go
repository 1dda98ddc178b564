// ABOUTME: This file detects abnormal per-category volume spikes by
// ABOUTME: comparing time-bucketed event counts against their average.
package trend

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"pharma-radar/config"
	"pharma-radar/domain"
	"pharma-radar/repository"
)

type Detector struct {
	events repository.EventRepository
	trends repository.TrendRepository
	cfg    config.TrendConfig
	logger *slog.Logger
}

func NewDetector(events repository.EventRepository, trends repository.TrendRepository, cfg config.TrendConfig, logger *slog.Logger) *Detector {
	return &Detector{
		events: events,
		trends: trends,
		cfg:    cfg,
		logger: logger,
	}
}

// categoryStats accumulates the per-category bucket statistics the spike
// evaluation runs on.
type categoryStats struct {
	buckets int
	total   int
	max     int
}

// spike is one category whose bucket counts crossed the threshold.
type spike struct {
	category domain.Category
	ratio    float64
}

// Detect aggregates recent events into fixed-width buckets per category,
// evaluates each category for a spike, and persists an alert for every
// spiking category. It returns the alerts it stored.
func (d *Detector) Detect(ctx context.Context) ([]*domain.TrendAlert, error) {
	since := time.Now().Add(-d.cfg.Lookback)

	buckets, err := d.events.BucketCounts(ctx, since, d.cfg.BucketWidth)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate event buckets: %w", err)
	}

	spikes := evaluate(buckets, d.cfg.Threshold, d.cfg.MinBuckets)

	var alerts []*domain.TrendAlert
	for _, s := range spikes {
		suppressed, err := d.suppressed(ctx, s.category)
		if err != nil {
			d.logger.WarnContext(ctx, "alert suppression check failed",
				"category", s.category, "error", err)
		}
		if suppressed {
			d.logger.InfoContext(ctx, "trend alert suppressed",
				"category", s.category, "spike_score", s.ratio)
			continue
		}

		alert := d.buildAlert(ctx, s, since)

		if err := d.trends.Insert(ctx, alert); err != nil {
			return alerts, fmt.Errorf("failed to store trend alert: %w", err)
		}

		d.logger.InfoContext(ctx, "trend alert emitted",
			"category", s.category, "spike_score", s.ratio)
		alerts = append(alerts, alert)
	}

	return alerts, nil
}

// evaluate is the pure spike computation over the aggregated buckets.
// Categories with fewer than minBuckets populated buckets are skipped, and
// an all-zero category never spikes.
func evaluate(buckets []domain.CategoryBucket, threshold float64, minBuckets int) []spike {
	stats := make(map[domain.Category]*categoryStats)
	var order []domain.Category

	for _, b := range buckets {
		if b.Count <= 0 {
			continue
		}

		s, ok := stats[b.Category]
		if !ok {
			s = &categoryStats{}
			stats[b.Category] = s
			order = append(order, b.Category)
		}

		s.buckets++
		s.total += b.Count
		if b.Count > s.max {
			s.max = b.Count
		}
	}

	var spikes []spike
	for _, category := range order {
		s := stats[category]

		if s.buckets < minBuckets {
			continue
		}

		avg := float64(s.total) / float64(s.buckets)
		if avg == 0 {
			continue
		}

		ratio := float64(s.max) / avg
		if ratio > threshold {
			spikes = append(spikes, spike{category: category, ratio: ratio})
		}
	}

	return spikes
}

// suppressed applies the repeat-alert policy. With the policy disabled
// every spike re-emits, matching the accumulate-over-time behavior.
func (d *Detector) suppressed(ctx context.Context, category domain.Category) (bool, error) {
	if !d.cfg.SuppressRepeat {
		return false, nil
	}

	latest, err := d.trends.LatestForCategory(ctx, category)
	if err != nil {
		return false, err
	}
	if latest == nil {
		return false, nil
	}

	return time.Since(*latest) < d.cfg.SuppressWindow, nil
}

// buildAlert assembles the stored alert. Missing sample texts degrade to
// an alert without samples rather than failing the emission.
func (d *Detector) buildAlert(ctx context.Context, s spike, since time.Time) *domain.TrendAlert {
	samples, err := d.events.SampleTexts(ctx, s.category, since, d.cfg.MaxSamples)
	if err != nil {
		d.logger.WarnContext(ctx, "failed to collect sample texts",
			"category", s.category, "error", err)
		samples = nil
	}

	return &domain.TrendAlert{
		Category:    s.category,
		SpikeScore:  s.ratio,
		Window:      windowLabel(d.cfg.Lookback, d.cfg.BucketWidth),
		SampleTexts: samples,
	}
}

// windowLabel renders the comparison window for operators, for example
// "last 6h0m0s in 1m0s buckets".
func windowLabel(lookback, width time.Duration) string {
	return fmt.Sprintf("last %s in %s buckets", lookback, width)
}

// Severity bands a raw spike score for presentation.
func Severity(spikeScore float64) string {
	switch {
	case spikeScore >= 3.0:
		return "CRITICAL"
	case spikeScore >= 2.0:
		return "HIGH"
	case spikeScore >= 1.5:
		return "MEDIUM"
	default:
		return "LOW"
	}
}
