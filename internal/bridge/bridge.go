package bridge

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/wui/internal/assets"
	"github.com/GriffinCanCode/wui/internal/config"
	"github.com/GriffinCanCode/wui/internal/infrastructure/logging"
	"github.com/GriffinCanCode/wui/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/wui/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/wui/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/wui/internal/ipc"
	"github.com/GriffinCanCode/wui/internal/settings"
	"github.com/GriffinCanCode/wui/internal/shared/id"
	"github.com/GriffinCanCode/wui/internal/value"
	"github.com/GriffinCanCode/wui/internal/webview"
)

// State is the event loop's lifecycle state.
type State int32

const (
	StateStarting State = iota
	StateRunning
	StateDraining
	StateStopped
)

// String returns the state name
func (s State) String() string {
	switch s {
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateDraining:
		return "draining"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Config configures a Bridge. The zero value is usable: no request
// timeout, no rate limit, no breaker, fallback icons and a no-op logger.
type Config struct {
	Logger  *logging.Logger
	Metrics *monitoring.Metrics

	// RequestTimeout resolves unanswered requests with ErrRequestTimeout.
	// It is also the page-side default passed to invoke. Zero disables it.
	RequestTimeout time.Duration
	RateLimit      LimitConfig
	// Limits bounds inbound message size and nesting; zero is unlimited.
	Limits ipc.Limits
	// Breakers guards command handlers; nil disables breaking.
	Breakers *resilience.Group
	// IconPolicy is config.IconPolicyFallback or config.IconPolicyFatal.
	IconPolicy string
	// Assets is the template for custom scheme handlers; Dir is replaced
	// per scheme.
	Assets assets.Config
	// Tracer records a span per handled message; nil disables tracing.
	// The caller owns it and closes it after Run.
	Tracer *tracing.Tracer
}

// FromConfig maps runtime configuration onto a bridge Config.
func FromConfig(cfg *config.Config, logger *logging.Logger, metrics *monitoring.Metrics) Config {
	var breakers *resilience.Group
	if cfg.Breaker.Enabled {
		breakers = resilience.NewGroup(resilience.Settings{
			Timeout:     cfg.Breaker.Cooldown,
			ReadyToTrip: resilience.ConsecutiveFailures(cfg.Breaker.Failures),
			IsFailure:   IsHandlerFailure,
			OnStateChange: func(name string, from, to resilience.State) {
				logger.Warn("command breaker changed state",
					logging.Command(name),
					zap.Stringer("from", from),
					zap.Stringer("to", to))
			},
		})
	}

	var tracer *tracing.Tracer
	if cfg.Tracing.Enabled {
		tracer = tracing.New(logger, cfg.Tracing.Buffer)
	}

	return Config{
		Logger:         logger,
		Metrics:        metrics,
		RequestTimeout: cfg.IPC.RequestTimeout,
		Limits: ipc.Limits{
			MaxBytes: cfg.IPC.MaxMessageBytes,
			MaxDepth: cfg.IPC.MaxDepth,
		},
		RateLimit: LimitConfig{
			Enabled:           cfg.IPC.RateLimitEnabled,
			RequestsPerSecond: float64(cfg.IPC.RequestsPerSecond),
			Burst:             cfg.IPC.Burst,
		},
		Breakers:   breakers,
		IconPolicy: cfg.Settings.IconPolicy,
		Assets: assets.Config{
			Exclude: cfg.Assets.Exclude,
			Gzip:    cfg.Assets.Gzip,
			Dev:     cfg.Assets.Dev,
			CORS:    assets.DefaultCORSConfig(),
			Metrics: metrics,
			Logger:  logger,
		},
		Tracer: tracer,
	}
}

// Bridge hosts windows and routes messages between their pages and host
// handlers.
type Bridge struct {
	settings *settings.Settings
	engine   webview.Engine
	cfg      Config
	instance id.InstanceID

	log     *logging.Logger
	loopLog *logging.Logger
	ipcLog  *logging.Logger
	metrics *monitoring.Metrics
	tracer  *tracing.Tracer

	table     *Table
	registry  *Registry
	corr      *Correlator
	bus       *Bus
	limiter   *Limiter
	lifecycle lifecycle

	state   atomic.Int32
	started atomic.Bool
	baseCtx atomic.Pointer[context.Context]

	// Owned by the loop goroutine.
	created  int
	exiting  bool
	handlers map[string]http.Handler
}

// New creates a bridge for the windows in s. A nil s hosts no windows
// until OpenWindow is called.
func New(s *settings.Settings, engine webview.Engine, cfg Config) *Bridge {
	if s == nil {
		s, _ = settings.Resolve(nil, settings.Options{})
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.NewNop()
	}
	if cfg.IconPolicy == "" {
		cfg.IconPolicy = config.IconPolicyFallback
	}
	if cfg.Assets.Logger == nil {
		cfg.Assets.Logger = cfg.Logger
	}

	instance := id.NewInstanceID()
	logger := cfg.Logger.With(zap.String("instance", instance.String()))

	b := &Bridge{
		settings: s,
		engine:   engine,
		cfg:      cfg,
		instance: instance,
		log:      logger.Named(logging.ComponentBridge),
		loopLog:  logger.Named(logging.ComponentLoop),
		ipcLog:   logger.Named(logging.ComponentIPC),
		metrics:  cfg.Metrics,
		tracer:   cfg.Tracer,
		table:    NewTable(cfg.Breakers),
		registry: NewRegistry(),
		bus:      NewBus(),
		limiter:  NewLimiter(cfg.RateLimit),
		handlers: make(map[string]http.Handler),
	}
	b.corr = NewCorrelator(cfg.RequestTimeout, b.expired)
	b.state.Store(int32(StateStarting))
	return b
}

// RegisterCommand registers a handler for requests named name.
func (b *Bridge) RegisterCommand(name string, h Handler) {
	b.table.RegisterCommand(name, h)
}

// RegisterListener registers a handler for events named name.
func (b *Bridge) RegisterListener(name string, h Handler) {
	b.table.RegisterListener(name, h)
}

// Emit broadcasts an event to every open window. payload may be a
// value.Value or anything value.FromNative accepts.
func (b *Bridge) Emit(name string, payload any) error {
	v, err := value.FromNative(payload)
	if err != nil {
		return err
	}
	return b.post(EmitEvent{Name: name, Payload: v})
}

// CloseWindow closes the window with label. An empty label exits.
func (b *Bridge) CloseWindow(label string) error {
	if label == "" {
		return b.Exit()
	}
	return b.post(CloseWindow{Label: label})
}

// Exit closes every window and stops the loop.
func (b *Bridge) Exit() error {
	return b.post(ExitAll{})
}

// UpdateWindow applies patch to the window with label.
func (b *Bridge) UpdateWindow(label string, patch Patch) error {
	return b.post(UpdateWindow{Label: label, Patch: patch})
}

// UpdateWebview applies a webview-only patch to the window with label.
func (b *Bridge) UpdateWebview(label string, patch WebviewPatch) error {
	return b.post(UpdateWindow{Label: label, Patch: Patch{Webview: patch}})
}

// OpenWindow creates a window while the bridge runs.
func (b *Bridge) OpenWindow(w settings.Window) error {
	return b.post(OpenWindow{Window: w})
}

// Post enqueues a command for the loop.
func (b *Bridge) Post(cmd Command) error {
	return b.post(cmd)
}

// State returns the current loop state.
func (b *Bridge) State() State {
	return State(b.state.Load())
}

// Labels returns the open window labels in creation order.
func (b *Bridge) Labels() []string {
	return b.registry.Labels()
}

// Instance identifies this bridge in logs.
func (b *Bridge) Instance() id.InstanceID {
	return b.instance
}

func (b *Bridge) post(cmd Command) error {
	if err := b.bus.Post(cmd); err != nil {
		return err
	}
	b.metrics.RecordLoopCommand(cmd.commandType())
	return nil
}

func (b *Bridge) setState(s State) {
	prev := State(b.state.Swap(int32(s)))
	if prev != s {
		b.loopLog.Debug("state changed", zap.Stringer("from", prev), zap.Stringer("to", s))
	}
}

func (b *Bridge) context() context.Context {
	if ctx := b.baseCtx.Load(); ctx != nil {
		return *ctx
	}
	return context.Background()
}
