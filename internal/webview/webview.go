// Package webview defines the boundary between the bridge and a rendering
// engine.
//
// An Engine creates OS windows, each hosting one webview, and reports
// window-level events on a channel. The bridge's event loop is the only
// caller of Window and Webview methods; engines marshal those calls onto
// their own UI thread as needed.
//
// Engines must invoke Hooks.IPC on a goroutine that holds no engine lock,
// since the bridge runs host handlers synchronously inside the callback and
// those handlers may call back into the engine through the loop.
package webview

import (
	"errors"
	"net/http"

	"github.com/GriffinCanCode/wui/internal/icon"
	"github.com/GriffinCanCode/wui/internal/settings"
	"github.com/GriffinCanCode/wui/internal/shared/id"
)

var (
	// ErrUnsupported is returned by engines for attributes they cannot change.
	ErrUnsupported = errors.New("webview: operation not supported by engine")
	// ErrClosed is returned for calls on a window that has been closed.
	ErrClosed = errors.New("webview: window closed")
)

// EventKind identifies a window-level event.
type EventKind uint8

const (
	// CloseRequested is raised when the user asks the OS to close a window.
	CloseRequested EventKind = iota + 1
	// Loaded is raised after a page finishes loading.
	Loaded
	// Focused is raised when a window gains focus.
	Focused
)

// String returns the event name
func (k EventKind) String() string {
	switch k {
	case CloseRequested:
		return "close_requested"
	case Loaded:
		return "loaded"
	case Focused:
		return "focused"
	default:
		return "unknown"
	}
}

// Event is a window-level notification from the engine.
type Event struct {
	Kind     EventKind
	WindowID id.WindowID
}

// Spec describes a window to create.
type Spec struct {
	ID     id.WindowID
	Label  string
	Window settings.Window
	// Icon is always set; callers substitute a default when loading fails.
	Icon *icon.Icon
}

// Hooks wires a webview into the bridge.
type Hooks struct {
	// IPC receives raw message bodies posted by the page.
	IPC func(body string)
	// Schemes serves custom URL schemes, keyed by lower-case scheme name.
	Schemes map[string]http.Handler
	// InitScripts run before any page script on every navigation.
	InitScripts []string
}

// Engine creates windows and reports their events.
type Engine interface {
	CreateWindow(spec Spec, hooks Hooks) (Window, error)
	Events() <-chan Event
	Close() error
}

// Window is an OS window hosting one webview.
type Window interface {
	ID() id.WindowID
	SetTitle(title string) error
	SetSize(width, height float64) error
	SetVisible(visible bool) error
	SetResizable(resizable bool) error
	SetMinimizable(minimizable bool) error
	SetMaximizable(maximizable bool) error
	SetClosable(closable bool) error
	SetFullscreen(fullscreen bool) error
	SetAlwaysOnTop(onTop bool) error
	SetBackgroundColor(c settings.Color) error
	Focus() error
	Webview() Webview
	// Close destroys the window and its webview. It is idempotent.
	Close() error
}

// Webview is the rendered surface inside a window.
type Webview interface {
	Eval(script string) error
	LoadURL(url string) error
	LoadHTML(html string) error
	SetVisible(visible bool) error
	Focus() error
	SetDevtools(open bool) error
	ClearBrowsingData() error
}
