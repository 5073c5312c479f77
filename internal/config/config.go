// Package config loads and validates crawl configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/otakulab/malcrawl/internal/fetch"
)

// Backend names for the record sink.
const (
	BackendLocal  = "local"
	BackendGCS    = "gcs"
	BackendMemory = "memory"
)

// Retry modes for page fetches.
const (
	RetryBounded   = "bounded"
	RetryUnbounded = "unbounded"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Logging LoggingConfig `mapstructure:"logging"`
	Server  ServerConfig  `mapstructure:"server"`
	Site    SiteConfig    `mapstructure:"site"`
	Fetch   FetchConfig   `mapstructure:"fetch"`
	Crawl   CrawlConfig   `mapstructure:"crawl"`
	Output  OutputConfig  `mapstructure:"output"`
	PubSub  PubSubConfig  `mapstructure:"pubsub"`
	DB      DBConfig      `mapstructure:"db"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool   `mapstructure:"development"`
	Level       string `mapstructure:"level"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// SiteConfig identifies the catalog site being crawled.
type SiteConfig struct {
	BaseURL   string `mapstructure:"base_url"`
	UserAgent string `mapstructure:"user_agent"`
}

// FetchConfig governs request pacing, timeouts, and retries.
type FetchConfig struct {
	MinSpacingMs   int         `mapstructure:"min_spacing_ms"`
	TimeoutSeconds int         `mapstructure:"timeout_seconds"`
	Retry          RetryConfig `mapstructure:"retry"`
}

// RetryConfig selects the retry policy for transient failures.
type RetryConfig struct {
	// Mode is "bounded" or "unbounded". Unbounded retries transient
	// failures forever and suits unattended full-catalog runs.
	Mode        string `mapstructure:"mode"`
	MaxAttempts int    `mapstructure:"max_attempts"`
	BaseDelayMs int    `mapstructure:"base_delay_ms"`
	MaxDelayMs  int    `mapstructure:"max_delay_ms"`
}

// CrawlConfig governs pagination and checkpointing.
type CrawlConfig struct {
	PageSize      int    `mapstructure:"page_size"`
	SaveEvery     int    `mapstructure:"save_every"`
	CheckpointDir string `mapstructure:"checkpoint_dir"`
}

// OutputConfig selects where transformed records land.
type OutputConfig struct {
	Backend      string `mapstructure:"backend"`
	BaseDir      string `mapstructure:"base_dir"`
	GCSBucket    string `mapstructure:"gcs_bucket"`
	AnimePrefix  string `mapstructure:"anime_prefix"`
	PeoplePrefix string `mapstructure:"people_prefix"`
}

// PubSubConfig holds completion event publishing settings.
type PubSubConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	ProjectID   string `mapstructure:"project_id"`
	AnimeTopic  string `mapstructure:"anime_topic"`
	PeopleTopic string `mapstructure:"people_topic"`
}

// DBConfig controls the optional page visit history database.
type DBConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	DSN     string `mapstructure:"dsn"`
	Table   string `mapstructure:"table"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("MALCRAWL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.development", true)
	v.SetDefault("logging.level", "info")
	v.SetDefault("server.port", 8080)
	v.SetDefault("site.base_url", "https://myanimelist.net")
	v.SetDefault("site.user_agent", "malcrawl/0.1")
	v.SetDefault("fetch.min_spacing_ms", 1000)
	v.SetDefault("fetch.timeout_seconds", 30)
	v.SetDefault("fetch.retry.mode", RetryBounded)
	v.SetDefault("fetch.retry.max_attempts", 5)
	v.SetDefault("fetch.retry.base_delay_ms", 1000)
	v.SetDefault("fetch.retry.max_delay_ms", 60000)
	v.SetDefault("crawl.page_size", 50)
	v.SetDefault("crawl.save_every", 10)
	v.SetDefault("crawl.checkpoint_dir", "checkpoints")
	v.SetDefault("output.backend", BackendLocal)
	v.SetDefault("output.base_dir", "data")
	v.SetDefault("output.anime_prefix", "anime")
	v.SetDefault("output.people_prefix", "people")
	v.SetDefault("pubsub.enabled", false)
	v.SetDefault("pubsub.anime_topic", "anime-completions")
	v.SetDefault("pubsub.people_topic", "people-completions")
	v.SetDefault("db.enabled", false)
	v.SetDefault("db.table", "page_visits")
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Site.BaseURL == "" {
		return fmt.Errorf("site.base_url is required")
	}
	if c.Fetch.MinSpacingMs < 0 {
		return fmt.Errorf("fetch.min_spacing_ms must be >= 0")
	}
	if c.Fetch.TimeoutSeconds <= 0 {
		return fmt.Errorf("fetch.timeout_seconds must be > 0")
	}
	switch c.Fetch.Retry.Mode {
	case RetryBounded:
		if c.Fetch.Retry.MaxAttempts <= 0 {
			return fmt.Errorf("fetch.retry.max_attempts must be > 0 in bounded mode")
		}
	case RetryUnbounded:
	default:
		return fmt.Errorf("fetch.retry.mode must be %q or %q", RetryBounded, RetryUnbounded)
	}
	if c.Crawl.PageSize <= 0 {
		return fmt.Errorf("crawl.page_size must be > 0")
	}
	if c.Crawl.SaveEvery < 0 {
		return fmt.Errorf("crawl.save_every must be >= 0")
	}
	switch c.Output.Backend {
	case BackendLocal:
		if c.Output.BaseDir == "" {
			return fmt.Errorf("output.base_dir is required for the local backend")
		}
	case BackendGCS:
		if c.Output.GCSBucket == "" {
			return fmt.Errorf("output.gcs_bucket is required for the gcs backend")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("output.backend must be %q, %q, or %q", BackendLocal, BackendGCS, BackendMemory)
	}
	if c.PubSub.Enabled && c.PubSub.ProjectID == "" {
		return fmt.Errorf("pubsub.project_id must be set when pubsub is enabled")
	}
	if c.DB.Enabled && c.DB.DSN == "" {
		return fmt.Errorf("db.dsn must be set when db is enabled")
	}
	return nil
}

// RetryPolicy builds the fetch policy the retry config describes.
func (c Config) RetryPolicy() fetch.RetryPolicy {
	base := time.Duration(c.Fetch.Retry.BaseDelayMs) * time.Millisecond
	max := time.Duration(c.Fetch.Retry.MaxDelayMs) * time.Millisecond
	if c.Fetch.Retry.Mode == RetryUnbounded {
		return fetch.Unbounded(base, max)
	}
	return fetch.Bounded(c.Fetch.Retry.MaxAttempts, base, max)
}

// MinSpacing returns the pacing interval between requests.
func (c Config) MinSpacing() time.Duration {
	return time.Duration(c.Fetch.MinSpacingMs) * time.Millisecond
}

// FetchTimeout returns the per-request timeout.
func (c Config) FetchTimeout() time.Duration {
	return time.Duration(c.Fetch.TimeoutSeconds) * time.Second
}
