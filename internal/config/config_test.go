package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	// Settings config
	assert.Empty(t, cfg.Settings.Path)
	assert.Equal(t, IconPolicyFallback, cfg.Settings.IconPolicy)

	// Asset config
	assert.Equal(t, "dist", cfg.Assets.Dir)
	assert.Equal(t, "wui", cfg.Assets.Scheme)
	assert.False(t, cfg.Assets.Gzip)

	// Engine config
	assert.Equal(t, EngineHeadless, cfg.Engine.Name)

	// IPC config
	assert.Equal(t, 5*time.Second, cfg.IPC.RequestTimeout)
	assert.True(t, cfg.IPC.RateLimitEnabled)
	assert.Equal(t, 200, cfg.IPC.RequestsPerSecond)
	assert.Equal(t, 400, cfg.IPC.Burst)

	// Breaker config
	assert.False(t, cfg.Breaker.Enabled)
	assert.Equal(t, uint32(5), cfg.Breaker.Failures)
	assert.Equal(t, 30*time.Second, cfg.Breaker.Cooldown)

	// Logging config
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.False(t, cfg.Logging.Development)

	// Metrics config
	assert.True(t, cfg.Metrics.Enabled)
	assert.Empty(t, cfg.Metrics.Textfile)

	assert.NoError(t, cfg.Validate())
}

func TestLoadMatchesDefault(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	def := Default()
	assert.Equal(t, def.IPC, cfg.IPC)
	assert.Equal(t, def.Breaker, cfg.Breaker)
	assert.Equal(t, def.Engine, cfg.Engine)
	assert.Equal(t, def.Logging, cfg.Logging)
	assert.Equal(t, def.Tracing, cfg.Tracing)
}

func TestLoadWithEnvironmentVariables(t *testing.T) {
	envVars := map[string]string{
		"WUI_SETTINGS":               "app.yaml",
		"WUI_ICON_POLICY":            "fatal",
		"WUI_ASSETS_DIR":             "web",
		"WUI_ASSET_SCHEME":           "app",
		"WUI_ASSET_GZIP":             "true",
		"WUI_ASSET_EXCLUDE":          "**/*.map,secret/**",
		"WUI_ENGINE":                 "native",
		"WUI_REQUEST_TIMEOUT":        "250ms",
		"WUI_IPC_RATE_LIMIT_ENABLED": "false",
		"WUI_IPC_RPS":                "10",
		"WUI_IPC_BURST":              "20",
		"WUI_BREAKER_ENABLED":        "true",
		"WUI_BREAKER_FAILURES":       "2",
		"WUI_BREAKER_COOLDOWN":       "1m",
		"LOG_LEVEL":                  "debug",
		"LOG_DEV":                    "true",
		"WUI_METRICS_TEXTFILE":       "/tmp/wui.prom",
	}
	for key, value := range envVars {
		t.Setenv(key, value)
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "app.yaml", cfg.Settings.Path)
	assert.Equal(t, IconPolicyFatal, cfg.Settings.IconPolicy)
	assert.Equal(t, "web", cfg.Assets.Dir)
	assert.Equal(t, "app", cfg.Assets.Scheme)
	assert.True(t, cfg.Assets.Gzip)
	assert.Equal(t, []string{"**/*.map", "secret/**"}, cfg.Assets.Exclude)
	assert.Equal(t, EngineNative, cfg.Engine.Name)
	assert.Equal(t, 250*time.Millisecond, cfg.IPC.RequestTimeout)
	assert.False(t, cfg.IPC.RateLimitEnabled)
	assert.Equal(t, 10, cfg.IPC.RequestsPerSecond)
	assert.Equal(t, 20, cfg.IPC.Burst)
	assert.True(t, cfg.Breaker.Enabled)
	assert.Equal(t, uint32(2), cfg.Breaker.Failures)
	assert.Equal(t, time.Minute, cfg.Breaker.Cooldown)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Logging.Development)
	assert.Equal(t, "/tmp/wui.prom", cfg.Metrics.Textfile)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"unknown icon policy", "WUI_ICON_POLICY", "ignore"},
		{"unknown engine", "WUI_ENGINE", "electron"},
		{"negative timeout", "WUI_REQUEST_TIMEOUT", "-1s"},
		{"zero rps", "WUI_IPC_RPS", "0"},
		{"unparsable duration", "WUI_BREAKER_COOLDOWN", "soon"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)

			_, err := Load()
			assert.Error(t, err)

			// LoadOrDefault falls back rather than failing
			assert.Equal(t, Default(), LoadOrDefault())
		})
	}
}

func TestZeroTimeoutIsValid(t *testing.T) {
	t.Setenv("WUI_REQUEST_TIMEOUT", "0s")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Zero(t, cfg.IPC.RequestTimeout)
}
