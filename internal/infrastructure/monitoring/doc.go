/*
Package monitoring provides metrics collection for the bridge.

# Overview

Collectors live on a private Prometheus registry owned by a Metrics value.
The bridge never opens a listener; metrics are exported on exit to a
node-exporter textfile when a path is configured.

# Features

- Window lifecycle metrics (open, created, creation/update failures)
- Event loop command counts by type
- IPC message counts by kind and outcome
- Command handler latency
- Pending correlation gauge and resolution outcomes
- Custom scheme asset request metrics

# Usage

	metrics := monitoring.NewMetrics()

	// Add middleware to the asset router
	router.Use(monitoring.Middleware(metrics))

	// Time handlers
	timer := monitoring.NewTimer(metrics, "ping")
	// ... invoke handler ...
	timer.Stop("ok")

	// Export on shutdown
	_ = metrics.WriteTextfile("/var/lib/node_exporter/wui.prom")

A nil *Metrics is accepted everywhere and records nothing.
*/
package monitoring
