package bridge

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/wui/internal/ipc"
	"github.com/GriffinCanCode/wui/internal/settings"
	"github.com/GriffinCanCode/wui/internal/shared/id"
	"github.com/GriffinCanCode/wui/internal/value"
	"github.com/GriffinCanCode/wui/internal/webview"
)

// fakeEngine records everything the loop does to its windows.
type fakeEngine struct {
	mu      sync.Mutex
	windows map[string]*fakeWindow
	fail    map[string]error
	events  chan webview.Event
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{
		windows: make(map[string]*fakeWindow),
		fail:    make(map[string]error),
		events:  make(chan webview.Event, 16),
	}
}

func (e *fakeEngine) CreateWindow(spec webview.Spec, hooks webview.Hooks) (webview.Window, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.fail[spec.Label]; err != nil {
		return nil, err
	}
	w := &fakeWindow{id: spec.ID, label: spec.Label, spec: spec, hooks: hooks, unsupported: map[string]bool{}}
	e.windows[spec.Label] = w
	return w, nil
}

func (e *fakeEngine) Events() <-chan webview.Event { return e.events }

func (e *fakeEngine) Close() error { return nil }

func (e *fakeEngine) window(label string) *fakeWindow {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.windows[label]
}

func (e *fakeEngine) requestClose(label string) {
	e.events <- webview.Event{Kind: webview.CloseRequested, WindowID: e.window(label).id}
}

type fakeWindow struct {
	id    id.WindowID
	label string
	spec  webview.Spec
	hooks webview.Hooks

	mu          sync.Mutex
	scripts     []string
	calls       []string
	closed      bool
	unsupported map[string]bool
}

// post sends a message as the page would.
func (w *fakeWindow) post(body string) {
	w.hooks.IPC(body)
}

func (w *fakeWindow) request(command, reqID string, args any) {
	w.post(fmt.Sprintf(`{"event_type":"request","command":%q,"args":%s,"request_id":%q}`,
		command, value.MustFromNative(args).String(), reqID))
}

func (w *fakeWindow) Scripts() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.scripts...)
}

func (w *fakeWindow) Calls() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.calls...)
}

func (w *fakeWindow) Closed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closed
}

func (w *fakeWindow) setUnsupported(attr string, unsupported bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.unsupported[attr] = unsupported
}

func (w *fakeWindow) record(attr string, v any) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return webview.ErrClosed
	}
	if w.unsupported[attr] {
		return webview.ErrUnsupported
	}
	w.calls = append(w.calls, fmt.Sprintf("%s=%v", attr, v))
	return nil
}

func (w *fakeWindow) ID() id.WindowID                     { return w.id }
func (w *fakeWindow) SetTitle(title string) error         { return w.record("title", title) }
func (w *fakeWindow) SetVisible(visible bool) error       { return w.record("visible", visible) }
func (w *fakeWindow) SetResizable(v bool) error           { return w.record("resizable", v) }
func (w *fakeWindow) SetMinimizable(v bool) error         { return w.record("minimizable", v) }
func (w *fakeWindow) SetMaximizable(v bool) error         { return w.record("maximizable", v) }
func (w *fakeWindow) SetClosable(v bool) error            { return w.record("closable", v) }
func (w *fakeWindow) SetFullscreen(v bool) error          { return w.record("fullscreen", v) }
func (w *fakeWindow) SetAlwaysOnTop(v bool) error         { return w.record("always_on_top", v) }
func (w *fakeWindow) SetBackgroundColor(c settings.Color) error {
	return w.record("background_color", c)
}
func (w *fakeWindow) Focus() error             { return w.record("focus", true) }
func (w *fakeWindow) Webview() webview.Webview { return fakeView{w} }

func (w *fakeWindow) SetSize(width, height float64) error {
	return w.record("size", fmt.Sprintf("%gx%g", width, height))
}

func (w *fakeWindow) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	return nil
}

type fakeView struct{ w *fakeWindow }

func (v fakeView) Eval(script string) error {
	v.w.mu.Lock()
	defer v.w.mu.Unlock()
	if v.w.closed {
		return webview.ErrClosed
	}
	v.w.scripts = append(v.w.scripts, script)
	return nil
}

func (v fakeView) LoadURL(url string) error      { return v.w.record("url", url) }
func (v fakeView) LoadHTML(html string) error    { return v.w.record("html", html) }
func (v fakeView) SetVisible(visible bool) error { return v.w.record("webview_visible", visible) }
func (v fakeView) Focus() error                  { return v.w.record("webview_focus", true) }
func (v fakeView) SetDevtools(open bool) error   { return v.w.record("devtools", open) }
func (v fakeView) ClearBrowsingData() error      { return v.w.record("clear", true) }

func windows(labels ...string) *settings.Settings {
	s, _ := settings.Resolve(nil, settings.Options{})
	for _, label := range labels {
		w := s.DefaultWindow()
		w.Label = label
		s.Windows = append(s.Windows, w)
	}
	return s
}

// start runs b in the background and waits for it to reach Running.
func start(t *testing.T, b *Bridge) <-chan error {
	t.Helper()
	return startContext(t, context.Background(), b)
}

func startContext(t *testing.T, ctx context.Context, b *Bridge) <-chan error {
	t.Helper()

	done := make(chan error, 1)
	go func() { done <- b.Run(ctx) }()

	require.Eventually(t, func() bool { return b.State() == StateRunning }, time.Second, 5*time.Millisecond)
	t.Cleanup(func() {
		_ = b.Exit()
		select {
		case <-done:
		case <-time.After(time.Second):
		}
	})
	return done
}

func wait(t *testing.T, done <-chan error) error {
	t.Helper()
	select {
	case err := <-done:
		return err
	case <-time.After(2 * time.Second):
		t.Fatal("bridge did not stop")
		return nil
	}
}

// awaitScript waits until w has evaluated want.
func awaitScript(t *testing.T, w *fakeWindow, want string) {
	t.Helper()
	require.Eventually(t, func() bool {
		for _, s := range w.Scripts() {
			if s == want {
				return true
			}
		}
		return false
	}, time.Second, 5*time.Millisecond, "scripts: %v", w.Scripts())
}

// awaitReply waits for the reply to reqID and returns its script.
func awaitReply(t *testing.T, w *fakeWindow, reqID string) string {
	t.Helper()
	prefix := fmt.Sprintf("window.dispatchEvent(new CustomEvent(%q,", reqID)

	var reply string
	require.Eventually(t, func() bool {
		for _, s := range w.Scripts() {
			if strings.HasPrefix(s, prefix) {
				reply = s
				return true
			}
		}
		return false
	}, 2*time.Second, 5*time.Millisecond, "no reply to %s", reqID)
	return reply
}

func dataReply(t *testing.T, reqID string, data value.Value) string {
	t.Helper()
	script, err := ipc.EncodeResponse(reqID, data, nil)
	require.NoError(t, err)
	return script
}

var (
	_ webview.Engine  = (*fakeEngine)(nil)
	_ webview.Window  = (*fakeWindow)(nil)
	_ webview.Webview = fakeView{}
)
