package bridge

import (
	"github.com/GriffinCanCode/wui/internal/settings"
	"github.com/GriffinCanCode/wui/internal/shared/id"
	"github.com/GriffinCanCode/wui/internal/value"
)

// Command is a message applied by the event loop.
type Command interface {
	commandType() string
}

// ResponseReady delivers a request's reply to the window that sent it.
type ResponseReady struct {
	RequestID string
	WindowID  id.WindowID
	Label     string
	Result    value.Value
	Err       error
}

// EmitEvent broadcasts a named event to every window.
type EmitEvent struct {
	Name    string
	Payload value.Value
}

// CloseWindow closes one window, by label or id.
type CloseWindow struct {
	Label string
	ID    id.WindowID
}

// UpdateWindow changes attributes of a live window.
type UpdateWindow struct {
	Label string
	Patch Patch
}

// OpenWindow creates a window after start.
type OpenWindow struct {
	Window settings.Window
}

// ExitAll closes every window and stops the loop.
type ExitAll struct{}

func (ResponseReady) commandType() string { return "response_ready" }
func (EmitEvent) commandType() string     { return "emit_event" }
func (CloseWindow) commandType() string   { return "close_window" }
func (UpdateWindow) commandType() string  { return "update_window" }
func (OpenWindow) commandType() string    { return "open_window" }
func (ExitAll) commandType() string       { return "exit_all" }
