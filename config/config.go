package config

import "time"

// Config aggregates all service configuration blocks.
type Config struct {
	Server     ServerConfig     `json:"server"`
	HTTP       HTTPConfig       `json:"http"`
	Database   DatabaseConfig   `json:"database"`
	Classifier ClassifierConfig `json:"classifier"`
	Scheduler  SchedulerConfig  `json:"scheduler"`
	Trend      TrendConfig      `json:"trend"`
	Sources    SourcesConfig    `json:"sources"`
	SeenCache  SeenCacheConfig  `json:"seen_cache"`
}

type ServerConfig struct {
	Port            int           `json:"port" env:"SERVER_PORT" default:"8080"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`
	ReadTimeout     time.Duration `json:"read_timeout" env:"SERVER_READ_TIMEOUT" default:"10s"`
	WriteTimeout    time.Duration `json:"write_timeout" env:"SERVER_WRITE_TIMEOUT" default:"60s"`
}

type HTTPConfig struct {
	Timeout           time.Duration `json:"timeout" env:"HTTP_TIMEOUT" default:"20s"`
	UserAgent         string        `json:"user_agent" env:"HTTP_USER_AGENT" default:"PharmaRadar/1.0 (Research Application)"`
	RateLimitInterval time.Duration `json:"rate_limit_interval" env:"HTTP_RATE_LIMIT_INTERVAL" default:"2s"`
	MaxRedirects      int           `json:"max_redirects" env:"HTTP_MAX_REDIRECTS" default:"5"`
}

type DatabaseConfig struct {
	Host            string        `json:"host" env:"DB_HOST" default:"localhost"`
	Port            string        `json:"port" env:"DB_PORT" default:"5432"`
	User            string        `json:"user" env:"DB_USER" default:"devuser"`
	Password        string        `json:"password" env:"DB_PASSWORD" default:"devpassword"`
	Name            string        `json:"name" env:"DB_NAME" default:"pharmaradar"`
	MaxConns        int           `json:"max_conns" env:"DB_MAX_CONNS" default:"20"`
	MinConns        int           `json:"min_conns" env:"DB_MIN_CONNS" default:"5"`
	MaxConnLifetime time.Duration `json:"max_conn_lifetime" env:"DB_MAX_CONN_LIFETIME" default:"1h"`
}

type ClassifierConfig struct {
	URL     string        `json:"url" env:"CLASSIFIER_API_URL" default:""`
	Timeout time.Duration `json:"timeout" env:"CLASSIFIER_TIMEOUT" default:"30s"`
}

type SchedulerConfig struct {
	IngestInterval  time.Duration `json:"ingest_interval" env:"SCHEDULER_INGEST_INTERVAL" default:"2h"`
	TrendInterval   time.Duration `json:"trend_interval" env:"SCHEDULER_TREND_INTERVAL" default:"1h"`
	TrimInterval    time.Duration `json:"trim_interval" env:"SCHEDULER_TRIM_INTERVAL" default:"24h"`
	ItemConcurrency int           `json:"item_concurrency" env:"SCHEDULER_ITEM_CONCURRENCY" default:"4"`
	MaxErrors       int           `json:"max_errors" env:"SCHEDULER_MAX_ERRORS" default:"100"`
	RecentErrors    int           `json:"recent_errors" env:"SCHEDULER_RECENT_ERRORS" default:"10"`
}

type TrendConfig struct {
	Lookback       time.Duration `json:"lookback" env:"TREND_LOOKBACK" default:"6h"`
	BucketWidth    time.Duration `json:"bucket_width" env:"TREND_BUCKET_WIDTH" default:"1m"`
	Threshold      float64       `json:"threshold" env:"TREND_THRESHOLD" default:"1.2"`
	MinBuckets     int           `json:"min_buckets" env:"TREND_MIN_BUCKETS" default:"5"`
	MaxSamples     int           `json:"max_samples" env:"TREND_MAX_SAMPLES" default:"3"`
	SuppressRepeat bool          `json:"suppress_repeat" env:"TREND_SUPPRESS_REPEAT" default:"false"`
	SuppressWindow time.Duration `json:"suppress_window" env:"TREND_SUPPRESS_WINDOW" default:"1h"`
}

type SourcesConfig struct {
	File               string        `json:"file" env:"SOURCES_FILE" default:""`
	MaxTextLength      int           `json:"max_text_length" env:"SOURCES_MAX_TEXT_LENGTH" default:"500"`
	RSSLookback        time.Duration `json:"rss_lookback" env:"SOURCES_RSS_LOOKBACK" default:"24h"`
	Lookback           time.Duration `json:"lookback" env:"SOURCES_LOOKBACK" default:"168h"`
	ClinicalTrialsURL  string        `json:"clinical_trials_url" env:"SOURCES_CLINICAL_TRIALS_URL" default:"https://clinicaltrials.gov/api/v2/studies"`
	ClinicalTrialsSize int           `json:"clinical_trials_size" env:"SOURCES_CLINICAL_TRIALS_SIZE" default:"50"`
	PubMedURL          string        `json:"pubmed_url" env:"SOURCES_PUBMED_URL" default:"https://eutils.ncbi.nlm.nih.gov/entrez/eutils"`
	PubMedMax          int           `json:"pubmed_max" env:"SOURCES_PUBMED_MAX" default:"20"`
	RSSFeeds           []FeedSource  `json:"rss_feeds"`
	RegulatoryPages    []PageSource  `json:"regulatory_pages"`
}

// FeedSource names one syndication feed endpoint.
type FeedSource struct {
	Name string `json:"name" yaml:"name"`
	URL  string `json:"url" yaml:"url"`
}

// PageSource names one HTML press-release index page to scrape.
type PageSource struct {
	Name string `json:"name" yaml:"name"`
	URL  string `json:"url" yaml:"url"`
}

type SeenCacheConfig struct {
	Enabled bool          `json:"enabled" env:"SEEN_CACHE_ENABLED" default:"false"`
	URL     string        `json:"url" env:"SEEN_CACHE_URL" default:"redis://localhost:6379"`
	TTL     time.Duration `json:"ttl" env:"SEEN_CACHE_TTL" default:"72h"`
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ShutdownTimeout: 30 * time.Second,
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    60 * time.Second,
		},
		HTTP: HTTPConfig{
			Timeout:           20 * time.Second,
			UserAgent:         "PharmaRadar/1.0 (Research Application)",
			RateLimitInterval: 2 * time.Second,
			MaxRedirects:      5,
		},
		Database: DatabaseConfig{
			Host:            "localhost",
			Port:            "5432",
			User:            "devuser",
			Password:        "devpassword",
			Name:            "pharmaradar",
			MaxConns:        20,
			MinConns:        5,
			MaxConnLifetime: 1 * time.Hour,
		},
		Classifier: ClassifierConfig{
			Timeout: 30 * time.Second,
		},
		Scheduler: SchedulerConfig{
			IngestInterval:  2 * time.Hour,
			TrendInterval:   1 * time.Hour,
			TrimInterval:    24 * time.Hour,
			ItemConcurrency: 4,
			MaxErrors:       100,
			RecentErrors:    10,
		},
		Trend: TrendConfig{
			Lookback:       6 * time.Hour,
			BucketWidth:    1 * time.Minute,
			Threshold:      1.2,
			MinBuckets:     5,
			MaxSamples:     3,
			SuppressWindow: 1 * time.Hour,
		},
		Sources: SourcesConfig{
			MaxTextLength:      500,
			RSSLookback:        24 * time.Hour,
			Lookback:           7 * 24 * time.Hour,
			ClinicalTrialsURL:  "https://clinicaltrials.gov/api/v2/studies",
			ClinicalTrialsSize: 50,
			PubMedURL:          "https://eutils.ncbi.nlm.nih.gov/entrez/eutils",
			PubMedMax:          20,
			RSSFeeds:           defaultRSSFeeds(),
			RegulatoryPages:    defaultRegulatoryPages(),
		},
		SeenCache: SeenCacheConfig{
			URL: "redis://localhost:6379",
			TTL: 72 * time.Hour,
		},
	}
}

func defaultRSSFeeds() []FeedSource {
	return []FeedSource{
		{Name: "Pharmaceutical Technology", URL: "https://www.pharmaceutical-technology.com/feed/"},
		{Name: "BioPharma Dive", URL: "https://www.biopharmadive.com/feeds/news/"},
		{Name: "PharmaTimes", URL: "https://www.pharmatimes.com/news/rss"},
		{Name: "European Pharmaceutical Review", URL: "https://www.europeanpharmaceuticalreview.com/feed/"},
		{Name: "Pharmaceutical Business Review", URL: "https://www.pharmaceutical-business-review.com/feed/"},
		{Name: "Drug Topics", URL: "https://www.drugtopics.com/rss"},
		{Name: "Pharma Focus Asia", URL: "https://www.pharmafocusasia.com/rss/news"},
	}
}

func defaultRegulatoryPages() []PageSource {
	return []PageSource{
		{Name: "FDA Press Announcements", URL: "https://www.fda.gov/news-events/fda-newsroom/press-announcements"},
		{Name: "EMA News", URL: "https://www.ema.europa.eu/en/news"},
	}
}
