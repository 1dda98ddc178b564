package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// LoadConfig builds the configuration from defaults and overrides provided
// via environment variables.
func LoadConfig() (*Config, error) {
	config := defaultConfig()

	if err := loadFromEnv(config); err != nil {
		return nil, fmt.Errorf("failed to load from environment: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

func loadFromEnv(config *Config) error {
	if err := loadServerConfig(&config.Server); err != nil {
		return fmt.Errorf("failed to load server config: %w", err)
	}

	if err := loadHTTPConfig(&config.HTTP); err != nil {
		return fmt.Errorf("failed to load HTTP config: %w", err)
	}

	if err := loadDatabaseConfig(&config.Database); err != nil {
		return fmt.Errorf("failed to load database config: %w", err)
	}

	if err := loadClassifierConfig(&config.Classifier); err != nil {
		return fmt.Errorf("failed to load classifier config: %w", err)
	}

	if err := loadSchedulerConfig(&config.Scheduler); err != nil {
		return fmt.Errorf("failed to load scheduler config: %w", err)
	}

	if err := loadTrendConfig(&config.Trend); err != nil {
		return fmt.Errorf("failed to load trend config: %w", err)
	}

	if err := loadSourcesConfig(&config.Sources); err != nil {
		return fmt.Errorf("failed to load sources config: %w", err)
	}

	if err := loadSeenCacheConfig(&config.SeenCache); err != nil {
		return fmt.Errorf("failed to load seen cache config: %w", err)
	}

	return nil
}

func loadServerConfig(cfg *ServerConfig) error {
	var err error

	if cfg.Port, err = parseIntEnv("SERVER_PORT", cfg.Port); err != nil {
		return err
	}

	if cfg.ShutdownTimeout, err = parseDurationEnv("SERVER_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout); err != nil {
		return err
	}

	if cfg.ReadTimeout, err = parseDurationEnv("SERVER_READ_TIMEOUT", cfg.ReadTimeout); err != nil {
		return err
	}

	if cfg.WriteTimeout, err = parseDurationEnv("SERVER_WRITE_TIMEOUT", cfg.WriteTimeout); err != nil {
		return err
	}

	return nil
}

func loadHTTPConfig(cfg *HTTPConfig) error {
	var err error

	if cfg.Timeout, err = parseDurationEnv("HTTP_TIMEOUT", cfg.Timeout); err != nil {
		return err
	}

	if agent := os.Getenv("HTTP_USER_AGENT"); agent != "" {
		cfg.UserAgent = agent
	}

	if cfg.RateLimitInterval, err = parseDurationEnv("HTTP_RATE_LIMIT_INTERVAL", cfg.RateLimitInterval); err != nil {
		return err
	}

	if cfg.MaxRedirects, err = parseIntEnv("HTTP_MAX_REDIRECTS", cfg.MaxRedirects); err != nil {
		return err
	}

	return nil
}

func loadDatabaseConfig(cfg *DatabaseConfig) error {
	var err error

	cfg.Host = getEnvOrDefault("DB_HOST", cfg.Host)
	cfg.Port = getEnvOrDefault("DB_PORT", cfg.Port)
	cfg.User = getEnvOrDefault("DB_USER", cfg.User)
	cfg.Password = getEnvOrDefault("DB_PASSWORD", cfg.Password)
	cfg.Name = getEnvOrDefault("DB_NAME", cfg.Name)

	if cfg.MaxConns, err = parseIntEnv("DB_MAX_CONNS", cfg.MaxConns); err != nil {
		return err
	}

	if cfg.MinConns, err = parseIntEnv("DB_MIN_CONNS", cfg.MinConns); err != nil {
		return err
	}

	if cfg.MaxConnLifetime, err = parseDurationEnv("DB_MAX_CONN_LIFETIME", cfg.MaxConnLifetime); err != nil {
		return err
	}

	return nil
}

func loadClassifierConfig(cfg *ClassifierConfig) error {
	var err error

	cfg.URL = getEnvOrDefault("CLASSIFIER_API_URL", cfg.URL)

	if cfg.Timeout, err = parseDurationEnv("CLASSIFIER_TIMEOUT", cfg.Timeout); err != nil {
		return err
	}

	return nil
}

func loadSchedulerConfig(cfg *SchedulerConfig) error {
	var err error

	if cfg.IngestInterval, err = parseDurationEnv("SCHEDULER_INGEST_INTERVAL", cfg.IngestInterval); err != nil {
		return err
	}

	if cfg.TrendInterval, err = parseDurationEnv("SCHEDULER_TREND_INTERVAL", cfg.TrendInterval); err != nil {
		return err
	}

	if cfg.TrimInterval, err = parseDurationEnv("SCHEDULER_TRIM_INTERVAL", cfg.TrimInterval); err != nil {
		return err
	}

	if cfg.ItemConcurrency, err = parseIntEnv("SCHEDULER_ITEM_CONCURRENCY", cfg.ItemConcurrency); err != nil {
		return err
	}

	if cfg.MaxErrors, err = parseIntEnv("SCHEDULER_MAX_ERRORS", cfg.MaxErrors); err != nil {
		return err
	}

	if cfg.RecentErrors, err = parseIntEnv("SCHEDULER_RECENT_ERRORS", cfg.RecentErrors); err != nil {
		return err
	}

	return nil
}

func loadTrendConfig(cfg *TrendConfig) error {
	var err error

	if cfg.Lookback, err = parseDurationEnv("TREND_LOOKBACK", cfg.Lookback); err != nil {
		return err
	}

	if cfg.BucketWidth, err = parseDurationEnv("TREND_BUCKET_WIDTH", cfg.BucketWidth); err != nil {
		return err
	}

	if cfg.Threshold, err = parseFloatEnv("TREND_THRESHOLD", cfg.Threshold); err != nil {
		return err
	}

	if cfg.MinBuckets, err = parseIntEnv("TREND_MIN_BUCKETS", cfg.MinBuckets); err != nil {
		return err
	}

	if cfg.MaxSamples, err = parseIntEnv("TREND_MAX_SAMPLES", cfg.MaxSamples); err != nil {
		return err
	}

	if cfg.SuppressRepeat, err = parseBoolEnv("TREND_SUPPRESS_REPEAT", cfg.SuppressRepeat); err != nil {
		return err
	}

	if cfg.SuppressWindow, err = parseDurationEnv("TREND_SUPPRESS_WINDOW", cfg.SuppressWindow); err != nil {
		return err
	}

	return nil
}

func loadSourcesConfig(cfg *SourcesConfig) error {
	var err error

	cfg.File = getEnvOrDefault("SOURCES_FILE", cfg.File)

	if cfg.MaxTextLength, err = parseIntEnv("SOURCES_MAX_TEXT_LENGTH", cfg.MaxTextLength); err != nil {
		return err
	}

	if cfg.RSSLookback, err = parseDurationEnv("SOURCES_RSS_LOOKBACK", cfg.RSSLookback); err != nil {
		return err
	}

	if cfg.Lookback, err = parseDurationEnv("SOURCES_LOOKBACK", cfg.Lookback); err != nil {
		return err
	}

	cfg.ClinicalTrialsURL = getEnvOrDefault("SOURCES_CLINICAL_TRIALS_URL", cfg.ClinicalTrialsURL)

	if cfg.ClinicalTrialsSize, err = parseIntEnv("SOURCES_CLINICAL_TRIALS_SIZE", cfg.ClinicalTrialsSize); err != nil {
		return err
	}

	cfg.PubMedURL = getEnvOrDefault("SOURCES_PUBMED_URL", cfg.PubMedURL)

	if cfg.PubMedMax, err = parseIntEnv("SOURCES_PUBMED_MAX", cfg.PubMedMax); err != nil {
		return err
	}

	if cfg.File != "" {
		if err := loadSourcesFile(cfg, cfg.File); err != nil {
			return fmt.Errorf("failed to load sources file: %w", err)
		}
	}

	return nil
}

func loadSeenCacheConfig(cfg *SeenCacheConfig) error {
	var err error

	if cfg.Enabled, err = parseBoolEnv("SEEN_CACHE_ENABLED", cfg.Enabled); err != nil {
		return err
	}

	cfg.URL = getEnvOrDefault("SEEN_CACHE_URL", cfg.URL)

	if cfg.TTL, err = parseDurationEnv("SEEN_CACHE_TTL", cfg.TTL); err != nil {
		return err
	}

	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseIntEnv(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}

	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid integer value for %s: %w", key, err)
	}

	return parsed, nil
}

func parseFloatEnv(key string, defaultValue float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}

	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid float value for %s: %w", key, err)
	}

	return parsed, nil
}

func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}

	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid boolean value for %s: %w", key, err)
	}

	return parsed, nil
}

func parseDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}

	parsed, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid duration value for %s: %w", key, err)
	}

	return parsed, nil
}
