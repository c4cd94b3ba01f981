package headless

import (
	"fmt"
	"sync"

	"github.com/GriffinCanCode/wui/internal/icon"
	"github.com/GriffinCanCode/wui/internal/settings"
	"github.com/GriffinCanCode/wui/internal/shared/id"
	"github.com/GriffinCanCode/wui/internal/webview"
)

// Attributes is the window state a real engine would show.
type Attributes struct {
	Title       string
	Width       float64
	Height      float64
	Decorations bool
	Transparent bool
	Background  settings.Color
	AlwaysOnTop bool
	Closable    bool
	Maximizable bool
	Minimizable bool
	Maximized   bool
	Fullscreen  bool
	Visible     bool
	Focused     bool
	Resizable   bool
	Icon        *icon.Icon
}

// Window is a headless window.
type Window struct {
	engine *Engine
	id     id.WindowID
	label  string
	page   *Page

	mu     sync.Mutex
	attrs  Attributes
	closed bool
}

func newWindow(e *Engine, spec webview.Spec, page *Page) *Window {
	w := spec.Window
	return &Window{
		engine: e,
		id:     spec.ID,
		label:  spec.Label,
		page:   page,
		attrs: Attributes{
			Title:       w.Title,
			Width:       w.Width,
			Height:      w.Height,
			Decorations: w.Decorations,
			Transparent: w.Transparent,
			Background:  w.Background,
			AlwaysOnTop: w.AlwaysOnTop,
			Closable:    w.Closable,
			Maximizable: w.Maximizable,
			Minimizable: w.Minimizable,
			Maximized:   w.Maximized,
			Visible:     w.Visible,
			Focused:     w.Focused,
			Resizable:   w.Resizable,
			Icon:        spec.Icon,
		},
	}
}

// ID returns the window id.
func (w *Window) ID() id.WindowID { return w.id }

// Label returns the label the window was created with.
func (w *Window) Label() string { return w.label }

// Page returns the window's document.
func (w *Window) Page() *Page { return w.page }

// Webview returns the window's document.
func (w *Window) Webview() webview.Webview { return w.page }

// Attributes returns a copy of the current window state.
func (w *Window) Attributes() Attributes {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.attrs
}

// Closed reports whether Close was called.
func (w *Window) Closed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closed
}

func (w *Window) SetTitle(title string) error {
	return w.set(func(a *Attributes) { a.Title = title })
}

func (w *Window) SetSize(width, height float64) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("size must be positive, got %gx%g", width, height)
	}
	return w.set(func(a *Attributes) { a.Width, a.Height = width, height })
}

func (w *Window) SetVisible(visible bool) error {
	return w.set(func(a *Attributes) { a.Visible = visible })
}

func (w *Window) SetResizable(resizable bool) error {
	return w.set(func(a *Attributes) { a.Resizable = resizable })
}

func (w *Window) SetMinimizable(minimizable bool) error {
	return w.set(func(a *Attributes) { a.Minimizable = minimizable })
}

func (w *Window) SetMaximizable(maximizable bool) error {
	return w.set(func(a *Attributes) { a.Maximizable = maximizable })
}

func (w *Window) SetClosable(closable bool) error {
	return w.set(func(a *Attributes) { a.Closable = closable })
}

func (w *Window) SetFullscreen(fullscreen bool) error {
	return w.set(func(a *Attributes) { a.Fullscreen = fullscreen })
}

func (w *Window) SetAlwaysOnTop(onTop bool) error {
	return w.set(func(a *Attributes) { a.AlwaysOnTop = onTop })
}

func (w *Window) SetBackgroundColor(c settings.Color) error {
	return w.set(func(a *Attributes) { a.Background = c })
}

// Focus focuses the window and reports a Focused event.
func (w *Window) Focus() error {
	if err := w.set(func(a *Attributes) { a.Focused = true }); err != nil {
		return err
	}
	w.engine.emit(webview.Event{Kind: webview.Focused, WindowID: w.id})
	return nil
}

// Close destroys the window. Closing twice is a no-op.
func (w *Window) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	w.mu.Unlock()

	w.page.close()
	w.engine.forget(w)
	return nil
}

func (w *Window) set(fn func(*Attributes)) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return webview.ErrClosed
	}
	fn(&w.attrs)
	return nil
}
