package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Icon policies.
const (
	IconPolicyFallback = "fallback"
	IconPolicyFatal    = "fatal"
)

// Engine names.
const (
	EngineHeadless = "headless"
	EngineNative   = "native"
)

// Config holds all runtime configuration.
type Config struct {
	Settings SettingsConfig
	Assets   AssetConfig
	Engine   EngineConfig
	IPC      IPCConfig
	Breaker  BreakerConfig
	Logging  LogConfig
	Metrics  MetricsConfig
	Tracing  TracingConfig
}

// SettingsConfig locates the window settings file.
type SettingsConfig struct {
	Path       string `envconfig:"WUI_SETTINGS" default:""`
	IconPolicy string `envconfig:"WUI_ICON_POLICY" default:"fallback"`
}

// AssetConfig controls the custom asset scheme.
type AssetConfig struct {
	Dir     string   `envconfig:"WUI_ASSETS_DIR" default:"dist"`
	Scheme  string   `envconfig:"WUI_ASSET_SCHEME" default:"wui"`
	Gzip    bool     `envconfig:"WUI_ASSET_GZIP" default:"false"`
	Exclude []string `envconfig:"WUI_ASSET_EXCLUDE" default:""`
	Dev     bool     `envconfig:"WUI_DEV" default:"false"`
}

// EngineConfig selects the rendering engine.
type EngineConfig struct {
	Name          string        `envconfig:"WUI_ENGINE" default:"headless"`
	ScriptTimeout time.Duration `envconfig:"WUI_SCRIPT_TIMEOUT" default:"2s"`
}

// IPCConfig holds request correlation and rate limiting configuration.
type IPCConfig struct {
	RequestTimeout    time.Duration `envconfig:"WUI_REQUEST_TIMEOUT" default:"5s"`
	RateLimitEnabled  bool          `envconfig:"WUI_IPC_RATE_LIMIT_ENABLED" default:"true"`
	RequestsPerSecond int           `envconfig:"WUI_IPC_RPS" default:"200"`
	Burst             int           `envconfig:"WUI_IPC_BURST" default:"400"`
	MaxMessageBytes   int           `envconfig:"WUI_IPC_MAX_BYTES" default:"1048576"`
	MaxDepth          int           `envconfig:"WUI_IPC_MAX_DEPTH" default:"64"`
}

// BreakerConfig holds per-command circuit breaker configuration.
type BreakerConfig struct {
	Enabled  bool          `envconfig:"WUI_BREAKER_ENABLED" default:"false"`
	Failures uint32        `envconfig:"WUI_BREAKER_FAILURES" default:"5"`
	Cooldown time.Duration `envconfig:"WUI_BREAKER_COOLDOWN" default:"30s"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// MetricsConfig holds metrics export configuration.
type MetricsConfig struct {
	Enabled  bool   `envconfig:"WUI_METRICS_ENABLED" default:"true"`
	Textfile string `envconfig:"WUI_METRICS_TEXTFILE" default:""`
}

// TracingConfig controls per-message handler spans.
type TracingConfig struct {
	Enabled bool `envconfig:"WUI_TRACING_ENABLED" default:"false"`
	Buffer  int  `envconfig:"WUI_TRACING_BUFFER" default:"1000"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Validate checks enumerated and numeric fields.
func (c *Config) Validate() error {
	switch c.Settings.IconPolicy {
	case IconPolicyFallback, IconPolicyFatal:
	default:
		return fmt.Errorf("invalid icon policy %q", c.Settings.IconPolicy)
	}
	switch c.Engine.Name {
	case EngineHeadless, EngineNative:
	default:
		return fmt.Errorf("invalid engine %q", c.Engine.Name)
	}
	if c.IPC.RequestTimeout < 0 {
		return fmt.Errorf("request timeout must not be negative: %s", c.IPC.RequestTimeout)
	}
	if c.IPC.RateLimitEnabled && (c.IPC.RequestsPerSecond <= 0 || c.IPC.Burst <= 0) {
		return fmt.Errorf("rate limit needs positive rps and burst, got %d/%d", c.IPC.RequestsPerSecond, c.IPC.Burst)
	}
	if c.IPC.MaxMessageBytes < 0 || c.IPC.MaxDepth < 0 {
		return fmt.Errorf("message limits must not be negative")
	}
	if c.Assets.Scheme == "" {
		return fmt.Errorf("asset scheme must not be empty")
	}
	return nil
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Settings: SettingsConfig{
			IconPolicy: IconPolicyFallback,
		},
		Assets: AssetConfig{
			Dir:    "dist",
			Scheme: "wui",
		},
		Engine: EngineConfig{
			Name:          EngineHeadless,
			ScriptTimeout: 2 * time.Second,
		},
		IPC: IPCConfig{
			RequestTimeout:    5 * time.Second,
			RateLimitEnabled:  true,
			RequestsPerSecond: 200,
			Burst:             400,
			MaxMessageBytes:   1 << 20,
			MaxDepth:          64,
		},
		Breaker: BreakerConfig{
			Enabled:  false,
			Failures: 5,
			Cooldown: 30 * time.Second,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
		Tracing: TracingConfig{
			Buffer: 1000,
		},
	}
}
