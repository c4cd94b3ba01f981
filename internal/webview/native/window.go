//go:build webview

package native

import (
	"errors"
	"fmt"
	"sync"

	webview "github.com/webview/webview_go"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/wui/internal/infrastructure/logging"
	"github.com/GriffinCanCode/wui/internal/settings"
	"github.com/GriffinCanCode/wui/internal/shared/id"
	wv "github.com/GriffinCanCode/wui/internal/webview"
)

// clearScript wipes the storage a page can reach from script. The system
// webview exposes no cache or cookie controls through this binding.
const clearScript = `try { localStorage.clear(); sessionStorage.clear(); } catch (e) {}`

// Window is a native window and its webview. The binding has no separate
// webview handle, so Window is its own Webview.
type Window struct {
	engine  *Engine
	id      id.WindowID
	label   string
	view    webview.WebView
	inliner Inliner
	log     *logging.Logger
	inbox   chan string

	mu        sync.Mutex
	width     float64
	height    float64
	resizable bool
	closed    bool
}

var _ wv.Window = (*Window)(nil)

// ID returns the window id.
func (w *Window) ID() id.WindowID { return w.id }

// Webview returns the window itself.
func (w *Window) Webview() wv.Webview { return w }

// post is bound into the page. It runs on the UI thread, so it only hands
// the body to the forwarding goroutine.
func (w *Window) post(body string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	select {
	case w.inbox <- body:
	default:
		w.log.Warn("ipc inbox full, dropping message", zap.Int("bytes", len(body)))
	}
}

func (w *Window) forward(deliver func(string)) {
	for body := range w.inbox {
		if deliver != nil {
			deliver(body)
		}
	}
}

func (w *Window) isClosed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closed
}

// call runs fn against the view on the UI thread.
func (w *Window) call(fn func(view webview.WebView)) error {
	if w.isClosed() {
		return wv.ErrClosed
	}
	return w.engine.do(func() { fn(w.view) })
}

// SetTitle sets the OS window title.
func (w *Window) SetTitle(title string) error {
	return w.call(func(view webview.WebView) { view.SetTitle(title) })
}

// SetSize resizes the window.
func (w *Window) SetSize(width, height float64) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("native: invalid size %gx%g", width, height)
	}
	w.mu.Lock()
	w.width, w.height = width, height
	hint := sizeHint(w.resizable)
	w.mu.Unlock()
	return w.call(func(view webview.WebView) { view.SetSize(pixels(width), pixels(height), hint) })
}

// SetResizable switches between a free and a fixed size hint.
func (w *Window) SetResizable(resizable bool) error {
	w.mu.Lock()
	w.resizable = resizable
	width, height := w.width, w.height
	w.mu.Unlock()
	return w.call(func(view webview.WebView) { view.SetSize(pixels(width), pixels(height), sizeHint(resizable)) })
}

// The binding has no controls for these attributes.

func (w *Window) SetVisible(bool) error { return wv.ErrUnsupported }

func (w *Window) SetMinimizable(bool) error { return wv.ErrUnsupported }

func (w *Window) SetMaximizable(bool) error { return wv.ErrUnsupported }

func (w *Window) SetClosable(bool) error { return wv.ErrUnsupported }

func (w *Window) SetFullscreen(bool) error { return wv.ErrUnsupported }

func (w *Window) SetAlwaysOnTop(bool) error { return wv.ErrUnsupported }

func (w *Window) SetBackgroundColor(settings.Color) error { return wv.ErrUnsupported }

func (w *Window) Focus() error { return wv.ErrUnsupported }

func (w *Window) SetDevtools(bool) error { return wv.ErrUnsupported }

// Eval runs script in the page.
func (w *Window) Eval(script string) error {
	return w.call(func(view webview.WebView) { view.Eval(script) })
}

// LoadURL navigates the webview. Custom scheme pages are fetched through
// their handler and loaded as inline markup.
func (w *Window) LoadURL(raw string) error {
	if w.inliner.Handles(raw) {
		page, err := w.inliner.Page(raw)
		if err != nil {
			return err
		}
		return w.LoadHTML(page)
	}
	return w.call(func(view webview.WebView) { view.Navigate(raw) })
}

// LoadHTML replaces the page with markup.
func (w *Window) LoadHTML(html string) error {
	return w.call(func(view webview.WebView) { view.SetHtml(html) })
}

// ClearBrowsingData clears page storage.
func (w *Window) ClearBrowsingData() error {
	return w.Eval(clearScript)
}

// Close destroys the window. Closing the window that drives the native
// loop stops the loop, and the engine then requests a close for the rest.
func (w *Window) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	close(w.inbox)
	w.mu.Unlock()

	terminate := w.engine.terminates(w)
	w.engine.forget(w)

	err := w.engine.do(func() {
		if terminate {
			w.view.Terminate()
			return
		}
		w.view.Destroy()
	})
	if errors.Is(err, ErrEngineClosed) {
		return nil
	}
	return err
}

// destroy runs on the UI thread during engine shutdown.
func (w *Window) destroy() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	close(w.inbox)
	w.mu.Unlock()

	w.view.Destroy()
}
