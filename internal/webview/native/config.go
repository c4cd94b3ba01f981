package native

import (
	"errors"

	"github.com/GriffinCanCode/wui/internal/infrastructure/logging"
)

var (
	// ErrEngineClosed is returned after Close.
	ErrEngineClosed = errors.New("native: engine closed")
	// ErrUnavailable is returned when the binary was built without the
	// webview tag.
	ErrUnavailable = errors.New("native: built without the webview tag")
)

// Config configures the native engine.
type Config struct {
	// EventBuffer sizes the window event channel.
	EventBuffer int
	Logger      *logging.Logger
}

// DefaultConfig returns the engine defaults.
func DefaultConfig() Config {
	return Config{EventBuffer: 64}
}
