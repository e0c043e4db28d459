package config

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"NewsPipeline/internal/domain"
)

const (
	configPathEnv        = "NEWS_PIPELINE_CONFIG"
	newsAPIKeyEnv        = "NEWS_API_KEY"
	databaseDSNEnv       = "DATABASE_DSN"
	destTableEnv         = "DEST_TABLE"
	loadModeEnv          = "LOAD_MODE"
	sentimentEndpointEnv = "SENTIMENT_ENDPOINT"
	sentimentAPIKeyEnv   = "SENTIMENT_API_KEY"
)

// Config holds high-level settings required across the application.
type Config struct {
	News      NewsConfig      `yaml:"news"`
	Database  DatabaseConfig  `yaml:"database"`
	Load      LoadConfig      `yaml:"load"`
	Sentiment SentimentConfig `yaml:"sentiment"`
	Enrich    EnrichConfig    `yaml:"enrich"`
	Server    ServerConfig    `yaml:"server"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// NewsConfig describes the upstream search API and query shape.
type NewsConfig struct {
	APIKey       string   `yaml:"apiKey"`
	BaseURL      string   `yaml:"baseUrl"`
	Topics       []string `yaml:"topics"`
	LookbackDays int      `yaml:"lookbackDays"`
	PageSize     int      `yaml:"pageSize"`
	MaxPages     int      `yaml:"maxPages"`
}

// Lookback resolves the configured day window to a duration.
func (n NewsConfig) Lookback() time.Duration {
	days := n.LookbackDays
	if days <= 0 {
		days = 7
	}
	return time.Duration(days) * 24 * time.Hour
}

// DatabaseConfig describes the analytical Postgres destination.
type DatabaseConfig struct {
	DSN   string `yaml:"dsn"`
	Table string `yaml:"table"`
}

// LoadConfig selects the default write mode.
type LoadConfig struct {
	Mode string `yaml:"mode"`
}

// Mode falls back to append when unset or invalid.
func (l LoadConfig) LoadMode() domain.LoadMode {
	if mode, ok := domain.ParseLoadMode(l.Mode); ok {
		return mode
	}
	return domain.LoadAppend
}

// SentimentConfig wires the text-classification inference service.
type SentimentConfig struct {
	Endpoint  string `yaml:"endpoint"`
	APIKey    string `yaml:"apiKey"`
	BatchSize int    `yaml:"batchSize"`
}

// EnrichConfig bounds the content-fetch worker pool.
type EnrichConfig struct {
	Concurrency    int `yaml:"concurrency"`
	TimeoutSeconds int `yaml:"timeoutSeconds"`
}

// Timeout resolves the per-request enrichment timeout.
func (e EnrichConfig) Timeout() time.Duration {
	if e.TimeoutSeconds <= 0 {
		return 15 * time.Second
	}
	return time.Duration(e.TimeoutSeconds) * time.Second
}

// ServerConfig describes the HTTP trigger endpoint.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// SchedulerConfig defines the run cadence.
type SchedulerConfig struct {
	IntervalHours int `yaml:"intervalHours"`
}

// Interval resolves the cadence, defaulting to every 12 hours.
func (s SchedulerConfig) Interval() time.Duration {
	if s.IntervalHours <= 0 {
		return 12 * time.Hour
	}
	return time.Duration(s.IntervalHours) * time.Hour
}

// LoggingConfig sets the slog level.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()

	if len(cfg.News.Topics) == 0 {
		cfg.News.Topics = defaultConfig().News.Topics
	}

	return cfg
}

// Validate fails fast on values the pipeline cannot run without.
func (c Config) Validate() error {
	if c.News.APIKey == "" {
		return &domain.ConfigError{Field: "news.apiKey (" + newsAPIKeyEnv + ")"}
	}
	if c.Database.DSN == "" {
		return &domain.ConfigError{Field: "database.dsn (" + databaseDSNEnv + ")"}
	}
	if c.Sentiment.Endpoint == "" {
		return &domain.ConfigError{Field: "sentiment.endpoint (" + sentimentEndpointEnv + ")"}
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(newsAPIKeyEnv); v != "" {
		c.News.APIKey = v
	}

	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Database.DSN = v
	}

	if v := os.Getenv(destTableEnv); v != "" {
		c.Database.Table = v
	}

	if v := os.Getenv(loadModeEnv); v != "" {
		c.Load.Mode = v
	}

	if v := os.Getenv(sentimentEndpointEnv); v != "" {
		c.Sentiment.Endpoint = v
	}

	if v := os.Getenv(sentimentAPIKeyEnv); v != "" {
		c.Sentiment.APIKey = v
	}
}

func mergeConfig(base, override Config) Config {
	if override.News.APIKey != "" {
		base.News.APIKey = override.News.APIKey
	}
	if override.News.BaseURL != "" {
		base.News.BaseURL = override.News.BaseURL
	}
	if len(override.News.Topics) > 0 {
		base.News.Topics = override.News.Topics
	}
	if override.News.LookbackDays > 0 {
		base.News.LookbackDays = override.News.LookbackDays
	}
	if override.News.PageSize > 0 {
		base.News.PageSize = override.News.PageSize
	}
	if override.News.MaxPages > 0 {
		base.News.MaxPages = override.News.MaxPages
	}

	if override.Database.DSN != "" {
		base.Database.DSN = override.Database.DSN
	}
	if override.Database.Table != "" {
		base.Database.Table = override.Database.Table
	}

	if override.Load.Mode != "" {
		base.Load.Mode = override.Load.Mode
	}

	if override.Sentiment.Endpoint != "" {
		base.Sentiment.Endpoint = override.Sentiment.Endpoint
	}
	if override.Sentiment.APIKey != "" {
		base.Sentiment.APIKey = override.Sentiment.APIKey
	}
	if override.Sentiment.BatchSize > 0 {
		base.Sentiment.BatchSize = override.Sentiment.BatchSize
	}

	if override.Enrich.Concurrency > 0 {
		base.Enrich.Concurrency = override.Enrich.Concurrency
	}
	if override.Enrich.TimeoutSeconds > 0 {
		base.Enrich.TimeoutSeconds = override.Enrich.TimeoutSeconds
	}

	if override.Server.Addr != "" {
		base.Server.Addr = override.Server.Addr
	}

	if override.Scheduler.IntervalHours > 0 {
		base.Scheduler.IntervalHours = override.Scheduler.IntervalHours
	}

	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}

	return base
}

func defaultConfig() Config {
	return Config{
		News: NewsConfig{
			BaseURL:      "https://newsapi.org/v2/everything",
			Topics:       []string{"GenAI", "AI", "Technology"},
			LookbackDays: 7,
			PageSize:     100,
			MaxPages:     1,
		},
		Database: DatabaseConfig{
			Table: "news_sentiment",
		},
		Load: LoadConfig{Mode: string(domain.LoadAppend)},
		Sentiment: SentimentConfig{
			BatchSize: 32,
		},
		Enrich: EnrichConfig{
			Concurrency:    8,
			TimeoutSeconds: 15,
		},
		Server:    ServerConfig{Addr: ":8080"},
		Scheduler: SchedulerConfig{IntervalHours: 12},
		Logging:   LoggingConfig{Level: "info"},
	}
}
