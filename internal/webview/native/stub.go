//go:build !webview

package native

import (
	"github.com/GriffinCanCode/wui/internal/webview"
)

// Available reports whether the cgo engine is compiled in.
const Available = false

// Engine is a placeholder when the webview tag is off.
type Engine struct{}

// New always fails without the webview tag.
func New(Config) (*Engine, error) {
	return nil, ErrUnavailable
}

// Loop returns immediately.
func (e *Engine) Loop() {}

// CreateWindow always fails.
func (e *Engine) CreateWindow(webview.Spec, webview.Hooks) (webview.Window, error) {
	return nil, ErrUnavailable
}

// Events returns a nil channel.
func (e *Engine) Events() <-chan webview.Event { return nil }

// Close is a no-op.
func (e *Engine) Close() error { return nil }
