package domain

import "time"

// RawItem is a single normalized piece of text produced by a fetcher.
// ExternalID carries a stable identity (article URL, registry ID) when the
// source provides one, enabling upsert-based dedup across overlapping
// fetch windows.
type RawItem struct {
	Text       string
	Source     string
	Timestamp  time.Time
	ExternalID *string
}

// Event is a classified, persisted text item. CreatedAt is set at
// classification time and is the time axis for trend detection.
type Event struct {
	ID         string    `json:"id"`
	Text       string    `json:"text"`
	Category   Category  `json:"category"`
	Confidence float64   `json:"confidence"`
	Source     string    `json:"source"`
	ExternalID *string   `json:"externalId,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// TrendAlert records a detected category volume spike. Alerts are immutable
// once created and accumulate over time.
type TrendAlert struct {
	ID          string    `json:"id"`
	Category    Category  `json:"category"`
	SpikeScore  float64   `json:"spikeScore"`
	Window      string    `json:"window"`
	SampleTexts []string  `json:"sampleTexts"`
	CreatedAt   time.Time `json:"createdAt"`
}

// SourceError is one entry in the scheduler's bounded error log.
type SourceError struct {
	Timestamp time.Time `json:"timestamp"`
	Source    string    `json:"source"`
	Error     string    `json:"error"`
}

// CategoryBucket is an aggregated event count for one (category, time
// bucket) pair within the trend detection window.
type CategoryBucket struct {
	Category Category
	Bucket   time.Time
	Count    int
}
