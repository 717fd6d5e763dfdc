// Package config loads and validates crawler configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all crawler configuration knobs loaded via Viper.
type Config struct {
	Crawler  CrawlerConfig  `mapstructure:"crawler"`
	Input    InputConfig    `mapstructure:"input"`
	Lookup   LookupConfig   `mapstructure:"lookup"`
	Download DownloadConfig `mapstructure:"download"`
	Retry    RetryConfig    `mapstructure:"retry"`
	Storage  StorageConfig  `mapstructure:"storage"`
	DB       DBConfig       `mapstructure:"db"`
	PubSub   PubSubConfig   `mapstructure:"pubsub"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// CrawlerConfig governs the worker pool.
type CrawlerConfig struct {
	WorkerCount       int     `mapstructure:"worker_count"`
	UserAgent         string  `mapstructure:"user_agent"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
}

// InputConfig points at the word list.
type InputConfig struct {
	Path string `mapstructure:"path"`
}

// LookupConfig controls dictionary page fetches.
type LookupConfig struct {
	URLTemplate      string `mapstructure:"url_template"`
	FetchTimeoutMs   int    `mapstructure:"fetch_timeout_ms"`
	EmptyRetries     int    `mapstructure:"empty_retries"`
	MaxFetchAttempts int    `mapstructure:"max_fetch_attempts"`
}

// DownloadConfig controls audio downloads.
type DownloadConfig struct {
	TimeoutMs   int `mapstructure:"timeout_ms"`
	MaxAttempts int `mapstructure:"max_attempts"`
}

// RetryConfig shapes the backoff between transient failures.
type RetryConfig struct {
	BackoffInitialMs int `mapstructure:"backoff_initial_ms"`
	BackoffMaxMs     int `mapstructure:"backoff_max_ms"`
}

// StorageConfig selects where audio files are written.
type StorageConfig struct {
	Backend   string `mapstructure:"backend"`
	BaseDir   string `mapstructure:"base_dir"`
	GCSBucket string `mapstructure:"gcs_bucket"`
	Prefix    string `mapstructure:"prefix"`
}

// DBConfig controls access to the relational database.
type DBConfig struct {
	Driver      string `mapstructure:"driver"`
	DSN         string `mapstructure:"dsn"`
	Table       string `mapstructure:"table"`
	MaxConns    int    `mapstructure:"max_conns"`
	AutoMigrate bool   `mapstructure:"auto_migrate"`
}

// PubSubConfig holds metadata for publish-subscribe notifications.
type PubSubConfig struct {
	ProjectID string `mapstructure:"project_id"`
	TopicName string `mapstructure:"topic_name"`
}

// MetricsConfig toggles the Prometheus listener.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("DICT")
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
	v.SetDefault("crawler.worker_count", 10)
	v.SetDefault("crawler.user_agent", "dictcrawler/0.1")
	v.SetDefault("crawler.requests_per_second", 0)
	v.SetDefault("input.path", "dict.txt")
	v.SetDefault("lookup.url_template", "http://cn.bing.com/dict/search?q=%s")
	v.SetDefault("lookup.fetch_timeout_ms", 2000)
	v.SetDefault("lookup.empty_retries", 3)
	v.SetDefault("lookup.max_fetch_attempts", 0)
	v.SetDefault("download.timeout_ms", 3000)
	v.SetDefault("download.max_attempts", 0)
	v.SetDefault("retry.backoff_initial_ms", 250)
	v.SetDefault("retry.backoff_max_ms", 5000)
	v.SetDefault("storage.backend", "local")
	v.SetDefault("storage.base_dir", "mp3")
	v.SetDefault("storage.gcs_bucket", "")
	v.SetDefault("storage.prefix", "mp3")
	v.SetDefault("db.driver", "postgres")
	v.SetDefault("db.dsn", "")
	v.SetDefault("db.table", "dict")
	v.SetDefault("db.max_conns", 0)
	v.SetDefault("db.auto_migrate", false)
	v.SetDefault("pubsub.project_id", "")
	v.SetDefault("pubsub.topic_name", "")
	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.port", 9090)
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Crawler.WorkerCount <= 0 {
		return fmt.Errorf("crawler.worker_count must be > 0")
	}
	if c.Crawler.RequestsPerSecond < 0 {
		return fmt.Errorf("crawler.requests_per_second must be >= 0")
	}
	if strings.TrimSpace(c.Input.Path) == "" {
		return fmt.Errorf("input.path is required")
	}
	if strings.Count(c.Lookup.URLTemplate, "%s") != 1 {
		return fmt.Errorf("lookup.url_template must contain exactly one %%s")
	}
	if c.Lookup.FetchTimeoutMs <= 0 {
		return fmt.Errorf("lookup.fetch_timeout_ms must be > 0")
	}
	if c.Lookup.EmptyRetries < 0 {
		return fmt.Errorf("lookup.empty_retries must be >= 0")
	}
	if c.Lookup.MaxFetchAttempts < 0 {
		return fmt.Errorf("lookup.max_fetch_attempts must be >= 0")
	}
	if c.Download.TimeoutMs <= 0 {
		return fmt.Errorf("download.timeout_ms must be > 0")
	}
	if c.Download.MaxAttempts < 0 {
		return fmt.Errorf("download.max_attempts must be >= 0")
	}
	if c.Retry.BackoffInitialMs < 0 || c.Retry.BackoffMaxMs < c.Retry.BackoffInitialMs {
		return fmt.Errorf("retry.backoff_max_ms must be >= retry.backoff_initial_ms >= 0")
	}
	switch c.Storage.Backend {
	case "local":
		if strings.TrimSpace(c.Storage.BaseDir) == "" {
			return fmt.Errorf("storage.base_dir is required for the local backend")
		}
	case "gcs":
		if c.Storage.GCSBucket == "" {
			return fmt.Errorf("storage.gcs_bucket is required for the gcs backend")
		}
	case "memory":
	default:
		return fmt.Errorf("storage.backend %q is not supported", c.Storage.Backend)
	}
	switch c.DB.Driver {
	case "postgres", "sqlite":
		if c.DB.DSN == "" {
			return fmt.Errorf("db.dsn is required for the %s driver", c.DB.Driver)
		}
	case "memory":
	default:
		return fmt.Errorf("db.driver %q is not supported", c.DB.Driver)
	}
	if c.PubSub.TopicName != "" && c.PubSub.ProjectID == "" {
		return fmt.Errorf("pubsub.project_id must be set when pubsub.topic_name is set")
	}
	if c.Metrics.Enabled && c.Metrics.Port <= 0 {
		return fmt.Errorf("metrics.port must be > 0 when metrics are enabled")
	}
	return nil
}

// FetchTimeout is the per-request budget for dictionary page fetches.
func (c Config) FetchTimeout() time.Duration {
	return time.Duration(c.Lookup.FetchTimeoutMs) * time.Millisecond
}

// DownloadTimeout is the per-request budget for audio downloads.
func (c Config) DownloadTimeout() time.Duration {
	return time.Duration(c.Download.TimeoutMs) * time.Millisecond
}

// PoolSize is the connection pool size, never smaller than the worker count.
func (c Config) PoolSize() int {
	if c.DB.MaxConns < c.Crawler.WorkerCount {
		return c.Crawler.WorkerCount
	}
	return c.DB.MaxConns
}
