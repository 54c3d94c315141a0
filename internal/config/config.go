// Package config loads and validates service configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Anthropic AnthropicConfig `mapstructure:"anthropic"`
	Search    SearchConfig    `mapstructure:"search"`
	Reader    ReaderConfig    `mapstructure:"reader"`
	Fetcher   FetcherConfig   `mapstructure:"fetcher"`
	DB        DBConfig        `mapstructure:"db"`
	Archive   ArchiveConfig   `mapstructure:"archive"`
	PubSub    PubSubConfig    `mapstructure:"pubsub"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// AuthConfig defines API authentication toggles.
type AuthConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	APIKey  string `mapstructure:"api_key"`
}

// AnthropicConfig configures the structured-generation client.
type AnthropicConfig struct {
	APIKey         string `mapstructure:"api_key"`
	Model          string `mapstructure:"model"`
	MaxTokens      int    `mapstructure:"max_tokens"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// SearchConfig configures the web-search client.
type SearchConfig struct {
	APIKey         string `mapstructure:"api_key"`
	Endpoint       string `mapstructure:"endpoint"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// ReaderConfig configures the hosted page-extraction client, used when
// fetcher.mode is "reader".
type ReaderConfig struct {
	Endpoint       string `mapstructure:"endpoint"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// FetcherConfig selects and tunes the page-content fetcher.
type FetcherConfig struct {
	// Mode is one of "reader", "colly", or "headless".
	Mode           string `mapstructure:"mode"`
	UserAgent      string `mapstructure:"user_agent"`
	RespectRobots  bool   `mapstructure:"respect_robots"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	ContentCap     int    `mapstructure:"content_cap"`
	// MaxParallel bounds concurrent headless sessions.
	MaxParallel   int `mapstructure:"max_parallel"`
	NavTimeoutSec int `mapstructure:"nav_timeout_seconds"`
}

// DBConfig controls access to the relational database. An empty DSN
// disables persistence.
type DBConfig struct {
	DSN             string `mapstructure:"dsn"`
	MaxConns        int    `mapstructure:"max_conns"`
	MinConns        int    `mapstructure:"min_conns"`
	ConnLifetimeMin int    `mapstructure:"conn_lifetime_minutes"`
}

// ArchiveConfig sets where fetched page snapshots are kept.
type ArchiveConfig struct {
	// Mode is one of "none", "local", or "gcs".
	Mode      string `mapstructure:"mode"`
	LocalDir  string `mapstructure:"local_dir"`
	GCSBucket string `mapstructure:"gcs_bucket"`
}

// PubSubConfig holds metadata for publish-subscribe notifications.
type PubSubConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	ProjectID string `mapstructure:"project_id"`
	TopicID   string `mapstructure:"topic_id"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("AUDIT")
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
	v.SetDefault("server.port", 8080)
	v.SetDefault("anthropic.model", "claude-sonnet-4-20250514")
	v.SetDefault("anthropic.max_tokens", 2000)
	v.SetDefault("anthropic.timeout_seconds", 60)
	v.SetDefault("search.endpoint", "https://google.serper.dev/search")
	v.SetDefault("search.timeout_seconds", 15)
	v.SetDefault("reader.endpoint", "https://r.jina.ai")
	v.SetDefault("reader.timeout_seconds", 30)
	v.SetDefault("fetcher.mode", "reader")
	v.SetDefault("fetcher.user_agent", "partsignal-audit/0.1")
	v.SetDefault("fetcher.respect_robots", true)
	v.SetDefault("fetcher.timeout_seconds", 20)
	v.SetDefault("fetcher.content_cap", 8000)
	v.SetDefault("fetcher.max_parallel", 1)
	v.SetDefault("fetcher.nav_timeout_seconds", 25)
	v.SetDefault("db.max_conns", 4)
	v.SetDefault("db.min_conns", 1)
	v.SetDefault("db.conn_lifetime_minutes", 30)
	v.SetDefault("archive.mode", "none")
	v.SetDefault("pubsub.topic_id", "content-audit-events")
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits. Credentials for
// the generation and search services are checked here so a missing key
// short-circuits startup instead of failing mid-pipeline.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Anthropic.APIKey == "" {
		return fmt.Errorf("anthropic.api_key must be set (AUDIT_ANTHROPIC_API_KEY)")
	}
	if c.Search.APIKey == "" {
		return fmt.Errorf("search.api_key must be set (AUDIT_SEARCH_API_KEY)")
	}
	switch c.Fetcher.Mode {
	case "reader", "colly", "headless":
	default:
		return fmt.Errorf("fetcher.mode must be reader, colly, or headless")
	}
	if c.Fetcher.Mode == "headless" && c.Fetcher.MaxParallel <= 0 {
		return fmt.Errorf("fetcher.max_parallel must be > 0 when fetcher.mode is headless")
	}
	if c.Fetcher.TimeoutSeconds <= 0 {
		return fmt.Errorf("fetcher.timeout_seconds must be > 0")
	}
	switch c.Archive.Mode {
	case "none", "local", "gcs":
	default:
		return fmt.Errorf("archive.mode must be none, local, or gcs")
	}
	if c.Archive.Mode == "local" && c.Archive.LocalDir == "" {
		return fmt.Errorf("archive.local_dir must be set when archive.mode is local")
	}
	if c.Archive.Mode == "gcs" && c.Archive.GCSBucket == "" {
		return fmt.Errorf("archive.gcs_bucket must be set when archive.mode is gcs")
	}
	if c.PubSub.Enabled && c.PubSub.ProjectID == "" {
		return fmt.Errorf("pubsub.project_id must be set when pubsub is enabled")
	}
	if c.Auth.Enabled && c.Auth.APIKey == "" {
		return fmt.Errorf("auth.api_key must be set when auth is enabled")
	}
	return nil
}

// AnthropicTimeout converts the generation timeout into a duration.
func (c Config) AnthropicTimeout() time.Duration {
	return time.Duration(c.Anthropic.TimeoutSeconds) * time.Second
}

// FetchTimeout converts the fetcher timeout into a duration.
func (c Config) FetchTimeout() time.Duration {
	return time.Duration(c.Fetcher.TimeoutSeconds) * time.Second
}
