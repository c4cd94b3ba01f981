// Package config provides 12-factor runtime configuration for the bridge.
//
// Configuration is loaded from environment variables with sensible defaults.
// CLI flags can override environment variables for development flexibility.
// Window layout lives in the settings file (see package settings); this
// package only covers how the process runs.
//
// Configuration Sections:
//   - Settings: settings file path and icon failure policy
//   - Assets: custom scheme name, asset directory, gzip and excludes
//   - Engine: rendering engine selection and script interrupt timeout
//   - IPC: request timeout, message limits and per-window rate limiting
//   - Breaker: per-command circuit breaker
//   - Logging: Log level and output format
//   - Metrics: collector toggle and textfile export path
//   - Tracing: per-message handler spans
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	fmt.Printf("engine %s, timeout %s\n", cfg.Engine.Name, cfg.IPC.RequestTimeout)
//
// Environment Variables:
//   - WUI_SETTINGS, WUI_ICON_POLICY
//   - WUI_ASSETS_DIR, WUI_ASSET_SCHEME, WUI_ASSET_GZIP, WUI_ASSET_EXCLUDE, WUI_DEV
//   - WUI_ENGINE, WUI_SCRIPT_TIMEOUT
//   - WUI_REQUEST_TIMEOUT, WUI_IPC_RATE_LIMIT_ENABLED, WUI_IPC_RPS, WUI_IPC_BURST
//   - WUI_IPC_MAX_BYTES, WUI_IPC_MAX_DEPTH
//   - WUI_BREAKER_ENABLED, WUI_BREAKER_FAILURES, WUI_BREAKER_COOLDOWN
//   - LOG_LEVEL, LOG_DEV
//   - WUI_METRICS_ENABLED, WUI_METRICS_TEXTFILE
//   - WUI_TRACING_ENABLED, WUI_TRACING_BUFFER
package config
