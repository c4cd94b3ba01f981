// Package logging provides structured logging using uber/zap.
//
// This package offers two modes:
//   - Production: JSON output for machine parsing
//   - Development: Colored console output for human readability
//
// Every component logs through a named child (bridge, loop, ipc, headless,
// native, assets). Window labels, window ids and request ids are attached
// as structured fields via the Window, WindowID and Correlation helpers.
//
// Example Usage:
//
//	logger := logging.NewDefault().Named(logging.ComponentLoop)
//	logger.Info("window closed", logging.Window("main"))
//	logger.Error("handler failed", logging.Correlation(id), zap.Error(err))
package logging
