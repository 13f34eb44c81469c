// Package config loads and validates service configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/filmoteca/chartfetch/internal/extract"
	"github.com/filmoteca/chartfetch/internal/fetch"
)

// Config is the full service configuration, assembled by Viper from
// defaults, an optional YAML file, and CHART_-prefixed environment
// variables.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Fetch     FetchConfig     `mapstructure:"fetch"`
	Headless  HeadlessConfig  `mapstructure:"headless"`
	Parser    ParserConfig    `mapstructure:"parser"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Progress  ProgressConfig  `mapstructure:"progress"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Export    ExportConfig    `mapstructure:"export"`
}

// ServerConfig holds the listen address and the per-request budget.
type ServerConfig struct {
	Host                  string `mapstructure:"host"`
	Port                  int    `mapstructure:"port"`
	RequestTimeoutSeconds int    `mapstructure:"request_timeout_seconds"`
}

// AuthConfig gates the API behind a shared key when enabled.
type AuthConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	APIKey  string `mapstructure:"api_key"`
}

// FetchConfig governs chart page retrieval.
type FetchConfig struct {
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	MinHTMLBytes   int    `mapstructure:"min_html_bytes"`
	UserAgent      string `mapstructure:"user_agent"`
	RespectRobots  bool   `mapstructure:"respect_robots"`
}

// HeadlessConfig sizes the chromedp fallback used for script-rendered pages.
type HeadlessConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxParallel   int  `mapstructure:"max_parallel"`
	NavTimeoutSec int  `mapstructure:"nav_timeout_seconds"`
}

// ParserConfig selects the markup scanning strategy.
type ParserConfig struct {
	Strategy string `mapstructure:"strategy"`
}

// RateLimitConfig paces outbound requests per host.
type RateLimitConfig struct {
	Enabled bool    `mapstructure:"enabled"`
	RPS     float64 `mapstructure:"rps"`
	Burst   int     `mapstructure:"burst"`
}

// ProgressConfig controls the event hub and its sinks.
type ProgressConfig struct {
	Enabled       bool        `mapstructure:"enabled"`
	LogEnabled    bool        `mapstructure:"log_enabled"`
	BufferSize    int         `mapstructure:"buffer_size"`
	Batch         BatchConfig `mapstructure:"batch"`
	SinkTimeoutMs int         `mapstructure:"sink_timeout_ms"`
}

// BatchConfig bounds one hub flush.
type BatchConfig struct {
	MaxEvents int `mapstructure:"max_events"`
	MaxWaitMs int `mapstructure:"max_wait_ms"`
}

// LoggingConfig switches between production and development zap presets.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// ExportConfig sets where file exports land by default.
type ExportConfig struct {
	OutputDir string `mapstructure:"output_dir"`
}

// Load reads configuration from path (optional) and the environment,
// then validates the result.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("CHART")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Bare HOST and PORT stay honored alongside the prefixed forms.
	if err := v.BindEnv("server.host", "CHART_SERVER_HOST", "HOST"); err != nil {
		return Config{}, fmt.Errorf("bind env: %w", err)
	}
	if err := v.BindEnv("server.port", "CHART_SERVER_PORT", "PORT"); err != nil {
		return Config{}, fmt.Errorf("bind env: %w", err)
	}

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
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 5000)
	v.SetDefault("server.request_timeout_seconds", 60)
	v.SetDefault("fetch.timeout_seconds", 30)
	v.SetDefault("fetch.min_html_bytes", fetch.DefaultMinBodyBytes)
	v.SetDefault("fetch.user_agent", fetch.DefaultUserAgent)
	v.SetDefault("fetch.respect_robots", false)
	v.SetDefault("headless.enabled", false)
	v.SetDefault("headless.max_parallel", 1)
	v.SetDefault("headless.nav_timeout_seconds", 45)
	v.SetDefault("parser.strategy", extract.StrategyDOM)
	v.SetDefault("ratelimit.enabled", true)
	v.SetDefault("ratelimit.rps", 2.0)
	v.SetDefault("ratelimit.burst", 1)
	v.SetDefault("progress.enabled", true)
	v.SetDefault("progress.log_enabled", true)
	v.SetDefault("progress.buffer_size", 1024)
	v.SetDefault("progress.batch.max_events", 256)
	v.SetDefault("progress.batch.max_wait_ms", 250)
	v.SetDefault("progress.sink_timeout_ms", 5000)
	v.SetDefault("logging.development", true)
	v.SetDefault("export.output_dir", "./exports")
}

// Validate rejects configurations the service cannot run with.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be positive")
	}
	if c.Server.RequestTimeoutSeconds <= 0 {
		return fmt.Errorf("server.request_timeout_seconds must be positive")
	}
	if c.Fetch.TimeoutSeconds <= 0 {
		return fmt.Errorf("fetch.timeout_seconds must be positive")
	}
	if c.Fetch.MinHTMLBytes < 0 {
		return fmt.Errorf("fetch.min_html_bytes cannot be negative")
	}
	if _, err := extract.ForStrategy(c.Parser.Strategy); err != nil {
		return fmt.Errorf("parser.strategy: %w", err)
	}
	if c.Headless.Enabled && c.Headless.MaxParallel <= 0 {
		return fmt.Errorf("headless.max_parallel must be positive when headless is enabled")
	}
	if c.RateLimit.Enabled && c.RateLimit.RPS <= 0 {
		return fmt.Errorf("ratelimit.rps must be positive when rate limiting is enabled")
	}
	if c.Auth.Enabled && c.Auth.APIKey == "" {
		return fmt.Errorf("auth.api_key is required when auth is enabled")
	}
	return nil
}

// Addr returns the listen address for the HTTP server.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// FetchTimeout returns the single-attempt fetch budget.
func (c Config) FetchTimeout() time.Duration {
	return time.Duration(c.Fetch.TimeoutSeconds) * time.Second
}

// RequestTimeout returns the per-request budget for the HTTP API.
func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.Server.RequestTimeoutSeconds) * time.Second
}

// NavTimeout returns the headless navigation budget.
func (c Config) NavTimeout() time.Duration {
	return time.Duration(c.Headless.NavTimeoutSec) * time.Second
}

// MaxBatchWait returns the hub flush interval.
func (c Config) MaxBatchWait() time.Duration {
	return time.Duration(c.Progress.Batch.MaxWaitMs) * time.Millisecond
}

// SinkTimeout returns the per-sink flush budget.
func (c Config) SinkTimeout() time.Duration {
	return time.Duration(c.Progress.SinkTimeoutMs) * time.Millisecond
}
