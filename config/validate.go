package config

import (
	"fmt"
	"time"
)

func validateConfig(config *Config) error {
	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	if config.HTTP.Timeout <= 0 {
		return fmt.Errorf("HTTP timeout must be positive: %v", config.HTTP.Timeout)
	}

	if config.Scheduler.IngestInterval <= 0 {
		return fmt.Errorf("ingest interval must be positive: %v", config.Scheduler.IngestInterval)
	}

	if config.Scheduler.ItemConcurrency <= 0 {
		return fmt.Errorf("item concurrency must be positive: %d", config.Scheduler.ItemConcurrency)
	}

	if config.Scheduler.MaxErrors <= 0 {
		return fmt.Errorf("max errors must be positive: %d", config.Scheduler.MaxErrors)
	}

	if config.Trend.Threshold <= 0 {
		return fmt.Errorf("trend threshold must be positive: %f", config.Trend.Threshold)
	}

	// The bucketing query renders the width in whole seconds.
	if config.Trend.BucketWidth < time.Second {
		return fmt.Errorf("trend bucket width must be at least one second: %v", config.Trend.BucketWidth)
	}

	if config.Trend.Lookback < config.Trend.BucketWidth {
		return fmt.Errorf("trend lookback %v is shorter than bucket width %v",
			config.Trend.Lookback, config.Trend.BucketWidth)
	}

	if config.Trend.MinBuckets < 1 {
		return fmt.Errorf("trend min buckets must be at least 1: %d", config.Trend.MinBuckets)
	}

	if config.Sources.MaxTextLength <= 0 {
		return fmt.Errorf("max text length must be positive: %d", config.Sources.MaxTextLength)
	}

	return nil
}
