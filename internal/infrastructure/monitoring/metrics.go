package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels shared by IPC and response metrics.
const (
	OutcomeOK          = "ok"
	OutcomeError       = "error"
	OutcomeTimeout     = "timeout"
	OutcomeDropped     = "dropped"
	OutcomeRateLimited = "rate_limited"
	OutcomeProtocol    = "protocol_error"
)

// Metrics holds all Prometheus metrics. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	registry *prometheus.Registry

	// Window metrics
	WindowsOpen          prometheus.Gauge
	WindowsCreated       prometheus.Counter
	WindowCreateFailures *prometheus.CounterVec
	WindowUpdateFailures *prometheus.CounterVec

	// Loop metrics
	LoopCommands *prometheus.CounterVec

	// IPC metrics
	IPCMessages         *prometheus.CounterVec
	CommandDuration     *prometheus.HistogramVec
	PendingCorrelations prometheus.Gauge
	Responses           *prometheus.CounterVec
	EventsEmitted       prometheus.Counter

	// Asset metrics
	AssetRequests *prometheus.CounterVec
	AssetDuration *prometheus.HistogramVec

	// System metrics
	Uptime    prometheus.Gauge
	startTime time.Time
}

// NewMetrics creates a collector set on its own registry so several
// bridges in one process (as in tests) never collide.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	m := &Metrics{
		registry:  reg,
		startTime: time.Now(),

		// Window metrics
		WindowsOpen: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "wui_windows_open",
				Help: "Number of open windows",
			},
		),
		WindowsCreated: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "wui_windows_created_total",
				Help: "Total number of windows created",
			},
		),
		WindowCreateFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wui_window_create_failures_total",
				Help: "Window creations that failed, by reason",
			},
			[]string{"reason"},
		),
		WindowUpdateFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wui_window_update_failures_total",
				Help: "Window attribute updates that failed, by attribute",
			},
			[]string{"attribute"},
		),

		// Loop metrics
		LoopCommands: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wui_loop_commands_total",
				Help: "Commands processed by the event loop, by type",
			},
			[]string{"type"},
		),

		// IPC metrics
		IPCMessages: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wui_ipc_messages_total",
				Help: "Inbound IPC messages, by kind and outcome",
			},
			[]string{"kind", "outcome"},
		),
		CommandDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "wui_command_duration_seconds",
				Help:    "Host command handler duration in seconds",
				Buckets: []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"command", "status"},
		),
		PendingCorrelations: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "wui_pending_correlations",
				Help: "Requests awaiting a reply",
			},
		),
		Responses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wui_responses_total",
				Help: "Request resolutions, by outcome",
			},
			[]string{"outcome"},
		),
		EventsEmitted: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "wui_events_emitted_total",
				Help: "Broadcast events emitted into windows",
			},
		),

		// Asset metrics
		AssetRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wui_asset_requests_total",
				Help: "Custom scheme asset requests, by status",
			},
			[]string{"status"},
		),
		AssetDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "wui_asset_request_duration_seconds",
				Help:    "Custom scheme asset request duration in seconds",
				Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1, .5},
			},
			[]string{"status"},
		),

		// System metrics
		Uptime: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "wui_uptime_seconds",
				Help: "Bridge uptime in seconds",
			},
		),
	}

	return m
}

// Registry returns the private registry backing the collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// WriteTextfile writes every collector in the node-exporter textfile
// format. The write is atomic.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	m.Uptime.Set(time.Since(m.startTime).Seconds())
	return prometheus.WriteToTextfile(path, m.registry)
}

// SetWindowsOpen sets the number of open windows
func (m *Metrics) SetWindowsOpen(count int) {
	if m == nil {
		return
	}
	m.WindowsOpen.Set(float64(count))
}

// IncWindowsCreated increments the windows created counter
func (m *Metrics) IncWindowsCreated() {
	if m == nil {
		return
	}
	m.WindowsCreated.Inc()
}

// RecordWindowCreateFailure records a failed window creation
func (m *Metrics) RecordWindowCreateFailure(reason string) {
	if m == nil {
		return
	}
	m.WindowCreateFailures.WithLabelValues(reason).Inc()
}

// RecordWindowUpdateFailure records a failed attribute update
func (m *Metrics) RecordWindowUpdateFailure(attribute string) {
	if m == nil {
		return
	}
	m.WindowUpdateFailures.WithLabelValues(attribute).Inc()
}

// RecordLoopCommand records a command consumed by the loop
func (m *Metrics) RecordLoopCommand(kind string) {
	if m == nil {
		return
	}
	m.LoopCommands.WithLabelValues(kind).Inc()
}

// RecordIPCMessage records an inbound message
func (m *Metrics) RecordIPCMessage(kind, outcome string) {
	if m == nil {
		return
	}
	m.IPCMessages.WithLabelValues(kind, outcome).Inc()
}

// RecordCommand records a handler invocation
func (m *Metrics) RecordCommand(command, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.CommandDuration.WithLabelValues(command, status).Observe(duration.Seconds())
}

// SetPendingCorrelations sets the number of outstanding requests
func (m *Metrics) SetPendingCorrelations(count int) {
	if m == nil {
		return
	}
	m.PendingCorrelations.Set(float64(count))
}

// RecordResponse records how a request was resolved
func (m *Metrics) RecordResponse(outcome string) {
	if m == nil {
		return
	}
	m.Responses.WithLabelValues(outcome).Inc()
}

// IncEventsEmitted increments the emitted events counter
func (m *Metrics) IncEventsEmitted() {
	if m == nil {
		return
	}
	m.EventsEmitted.Inc()
}

// RecordAssetRequest records a custom scheme request
func (m *Metrics) RecordAssetRequest(status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.AssetRequests.WithLabelValues(status).Inc()
	m.AssetDuration.WithLabelValues(status).Observe(duration.Seconds())
}
