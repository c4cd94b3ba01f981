package headless

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/wui/internal/infrastructure/logging"
	"github.com/GriffinCanCode/wui/internal/shared/id"
	"github.com/GriffinCanCode/wui/internal/webview"
)

// DefaultUserAgent is reported by pages that configure none.
const DefaultUserAgent = "wui-headless/1.0"

var (
	// ErrEngineClosed is returned after Close.
	ErrEngineClosed = errors.New("headless: engine closed")
	// ErrUnknownWindow is returned by test helpers for unknown labels.
	ErrUnknownWindow = errors.New("headless: unknown window")
	// ErrEventsFull is returned when the event buffer cannot take more.
	ErrEventsFull = errors.New("headless: event buffer full")
)

// Config configures the headless engine.
type Config struct {
	// ScriptTimeout interrupts a single script run; zero disables it.
	ScriptTimeout time.Duration
	// EventBuffer sizes the window event channel.
	EventBuffer int
	Logger      *logging.Logger
}

// DefaultConfig returns the engine defaults.
func DefaultConfig() Config {
	return Config{
		ScriptTimeout: 2 * time.Second,
		EventBuffer:   64,
	}
}

// Engine renders windows as in-process goja documents.
type Engine struct {
	cfg Config
	log *logging.Logger

	mu      sync.RWMutex
	windows map[id.WindowID]*Window
	order   []*Window
	events  chan webview.Event
	closed  bool
}

// New creates a headless engine.
func New(cfg Config) *Engine {
	if cfg.Logger == nil {
		cfg.Logger = logging.NewNop()
	}
	if cfg.EventBuffer <= 0 {
		cfg.EventBuffer = DefaultConfig().EventBuffer
	}
	return &Engine{
		cfg:     cfg,
		log:     cfg.Logger.Named(logging.ComponentHeadless),
		windows: make(map[id.WindowID]*Window),
		events:  make(chan webview.Event, cfg.EventBuffer),
	}
}

// CreateWindow builds a window and loads its initial content: inline
// markup when set, otherwise the URL.
func (e *Engine) CreateWindow(spec webview.Spec, hooks webview.Hooks) (webview.Window, error) {
	agent := spec.Window.Webview.UserAgent
	if agent == "" {
		agent = DefaultUserAgent
	}
	log := e.log.With(logging.Window(spec.Label), logging.WindowID(spec.ID.String()))

	page := newPage(spec.Label, hooks, e.cfg.ScriptTimeout, agent, log)
	wv := spec.Window.Webview
	page.visible = wv.Visible
	page.focused = wv.Focused
	page.devtools = wv.Devtools

	w := newWindow(e, spec, page)
	page.onLoad = func() { e.emit(webview.Event{Kind: webview.Loaded, WindowID: w.id}) }

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		page.close()
		return nil, ErrEngineClosed
	}
	e.windows[w.id] = w
	e.order = append(e.order, w)
	e.mu.Unlock()

	var err error
	switch {
	case wv.HTML != "":
		err = page.LoadHTML(wv.HTML)
	case wv.URL != "":
		err = page.LoadURL(wv.URL)
	default:
		err = page.LoadHTML("")
	}
	if err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("load %s: %w", spec.Label, err)
	}

	log.Debug("window created", zap.String("title", spec.Window.Title))
	return w, nil
}

// Events reports window events. The channel closes with the engine.
func (e *Engine) Events() <-chan webview.Event {
	return e.events
}

// Close destroys every window and closes the event channel.
func (e *Engine) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	windows := append([]*Window(nil), e.order...)
	e.mu.Unlock()

	for _, w := range windows {
		_ = w.Close()
	}

	e.mu.Lock()
	close(e.events)
	e.mu.Unlock()
	return nil
}

// Window finds an open window by label.
func (e *Engine) Window(label string) (*Window, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	for _, w := range e.order {
		if w.label == label {
			return w, true
		}
	}
	return nil, false
}

// Windows returns the open windows in creation order.
func (e *Engine) Windows() []*Window {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return append([]*Window(nil), e.order...)
}

// RequestClose simulates the user closing a window.
func (e *Engine) RequestClose(label string) error {
	w, ok := e.Window(label)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownWindow, label)
	}
	if !e.emit(webview.Event{Kind: webview.CloseRequested, WindowID: w.id}) {
		return ErrEventsFull
	}
	return nil
}

// emit never blocks: it may run on the loop goroutine that drains events.
func (e *Engine) emit(ev webview.Event) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.closed {
		return false
	}
	select {
	case e.events <- ev:
		return true
	default:
		e.log.Debug("event dropped, buffer full", zap.Stringer("event", ev.Kind))
		return false
	}
}

func (e *Engine) forget(w *Window) {
	e.mu.Lock()
	defer e.mu.Unlock()

	delete(e.windows, w.id)
	for i, cur := range e.order {
		if cur == w {
			e.order = append(e.order[:i], e.order[i+1:]...)
			break
		}
	}
}
