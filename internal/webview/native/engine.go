//go:build webview

package native

import (
	"errors"
	"fmt"
	"math"
	"runtime"
	"sync"

	webview "github.com/webview/webview_go"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/wui/internal/infrastructure/logging"
	"github.com/GriffinCanCode/wui/internal/shared/id"
	wv "github.com/GriffinCanCode/wui/internal/webview"
)

// postBinding is the native function the IPC shim forwards to.
const postBinding = "__wuiPost"

const ipcShim = `(function () {
  var post = window.` + postBinding + `;
  window.ipc = Object.freeze({ postMessage: function (m) { post(String(m)); } });
})();`

// Available reports whether the cgo engine is compiled in.
const Available = true

// Engine hosts windows in the system webview. Every webview call runs on
// the thread that called Loop.
type Engine struct {
	cfg Config
	log *logging.Logger

	tasks  chan func()
	events chan wv.Event
	done   chan struct{}

	mu      sync.Mutex
	primary *Window
	running bool
	windows map[id.WindowID]*Window
	order   []*Window
	closed  bool
}

// New creates an engine. Call Loop from the main goroutine to start it.
func New(cfg Config) (*Engine, error) {
	if cfg.Logger == nil {
		cfg.Logger = logging.NewNop()
	}
	if cfg.EventBuffer <= 0 {
		cfg.EventBuffer = DefaultConfig().EventBuffer
	}
	return &Engine{
		cfg:     cfg,
		log:     cfg.Logger.Named(logging.ComponentNative),
		tasks:   make(chan func(), 16),
		events:  make(chan wv.Event, cfg.EventBuffer),
		done:    make(chan struct{}),
		windows: make(map[id.WindowID]*Window),
	}, nil
}

// Loop runs the native event loop on the calling thread until Close.
func (e *Engine) Loop() {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	for {
		select {
		case task := <-e.tasks:
			task()
		case <-e.done:
			e.destroyAll()
			return
		}

		e.mu.Lock()
		primary := e.primary
		start := primary != nil && !e.running
		if start {
			e.running = true
		}
		e.mu.Unlock()

		if start {
			stop := make(chan struct{})
			go e.pump(primary.view, stop)
			primary.view.Run()
			close(stop)
			e.stopped(primary)
		}
	}
}

// pump forwards queued tasks into the native loop while it runs.
func (e *Engine) pump(view webview.WebView, stop <-chan struct{}) {
	for {
		select {
		case task := <-e.tasks:
			view.Dispatch(task)
		case <-stop:
			return
		case <-e.done:
			return
		}
	}
}

// stopped runs on the UI thread after the native loop returns, which
// happens when the primary window goes away. The other windows cannot
// render without it, so a close is requested for each of them.
func (e *Engine) stopped(primary *Window) {
	e.mu.Lock()
	e.running = false
	e.primary = nil
	order := append([]*Window(nil), e.order...)
	e.mu.Unlock()

	if primary.isClosed() {
		primary.view.Destroy()
	}
	for _, w := range order {
		e.emit(wv.Event{Kind: wv.CloseRequested, WindowID: w.id})
	}
}

// do runs fn on the UI thread and waits for it.
func (e *Engine) do(fn func()) error {
	e.mu.Lock()
	closed := e.closed
	e.mu.Unlock()
	if closed {
		return ErrEngineClosed
	}

	finished := make(chan struct{})
	task := func() {
		defer close(finished)
		fn()
	}

	select {
	case e.tasks <- task:
	case <-e.done:
		return ErrEngineClosed
	}

	select {
	case <-finished:
		return nil
	case <-e.done:
		return ErrEngineClosed
	}
}

// CreateWindow opens a native window and loads its initial content.
func (e *Engine) CreateWindow(spec wv.Spec, hooks wv.Hooks) (wv.Window, error) {
	w := &Window{
		engine:    e,
		id:        spec.ID,
		label:     spec.Label,
		width:     spec.Window.Width,
		height:    spec.Window.Height,
		resizable: spec.Window.Resizable,
		inliner:   Inliner{Schemes: hooks.Schemes},
		log:       e.log.With(logging.Window(spec.Label), logging.WindowID(spec.ID.String())),
		inbox:     make(chan string, 256),
	}

	var createErr error
	err := e.do(func() {
		view := webview.New(spec.Window.Webview.Devtools)
		if view == nil {
			createErr = errors.New("native: webview could not be created")
			return
		}
		w.view = view

		view.SetTitle(spec.Window.Title)
		view.SetSize(pixels(spec.Window.Width), pixels(spec.Window.Height), sizeHint(spec.Window.Resizable))

		if err := view.Bind(postBinding, w.post); err != nil {
			view.Destroy()
			createErr = fmt.Errorf("native: bind ipc: %w", err)
			return
		}
		view.Init(ipcShim)
		for _, script := range hooks.InitScripts {
			view.Init(script)
		}

		e.mu.Lock()
		if e.primary == nil {
			e.primary = w
		}
		e.mu.Unlock()
	})
	if err != nil {
		return nil, err
	}
	if createErr != nil {
		return nil, createErr
	}

	go w.forward(hooks.IPC)

	e.mu.Lock()
	e.windows[w.id] = w
	e.order = append(e.order, w)
	e.mu.Unlock()

	var loadErr error
	switch {
	case spec.Window.Webview.HTML != "":
		loadErr = w.LoadHTML(spec.Window.Webview.HTML)
	case spec.Window.Webview.URL != "":
		loadErr = w.LoadURL(spec.Window.Webview.URL)
	}
	if loadErr != nil {
		_ = w.Close()
		return nil, fmt.Errorf("native: load %s: %w", spec.Label, loadErr)
	}

	e.emit(wv.Event{Kind: wv.Loaded, WindowID: w.id})
	return w, nil
}

// Events reports window-level events.
func (e *Engine) Events() <-chan wv.Event {
	return e.events
}

// Close destroys every window and makes Loop return.
func (e *Engine) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	primary, running := e.primary, e.running
	e.mu.Unlock()

	if running {
		primary.view.Dispatch(primary.view.Terminate)
	}
	close(e.done)
	return nil
}

// destroyAll runs on the UI thread once Loop is told to stop.
func (e *Engine) destroyAll() {
	e.mu.Lock()
	order := e.order
	e.order = nil
	e.windows = make(map[id.WindowID]*Window)
	events := e.events
	e.events = nil
	e.mu.Unlock()

	for _, w := range order {
		w.destroy()
	}
	if events != nil {
		close(events)
	}
}

func (e *Engine) emit(ev wv.Event) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.events == nil {
		return
	}
	select {
	case e.events <- ev:
	default:
		e.log.Warn("event buffer full, dropping event", zap.Stringer("kind", ev.Kind))
	}
}

func (e *Engine) forget(w *Window) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.windows, w.id)
	for i, candidate := range e.order {
		if candidate == w {
			e.order = append(e.order[:i], e.order[i+1:]...)
			break
		}
	}
	if e.primary == w && !e.running {
		e.primary = nil
		if len(e.order) > 0 {
			e.primary = e.order[0]
		}
	}
}

// terminates reports whether closing w must stop the native loop instead
// of destroying the view in place.
func (e *Engine) terminates(w *Window) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running && e.primary == w
}

func pixels(v float64) int {
	return int(math.Round(v))
}

func sizeHint(resizable bool) webview.Hint {
	if resizable {
		return webview.HintNone
	}
	return webview.HintFixed
}
