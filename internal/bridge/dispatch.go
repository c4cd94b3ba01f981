package bridge

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/GriffinCanCode/wui/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/wui/internal/value"
)

// Handler is a host-side command or listener.
type Handler interface {
	Invoke(ctx context.Context, name string, args value.Value) (value.Value, error)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, name string, args value.Value) (value.Value, error)

// Invoke calls f.
func (f HandlerFunc) Invoke(ctx context.Context, name string, args value.Value) (value.Value, error) {
	return f(ctx, name, args)
}

// Table holds command and listener registrations. Registration is
// last-write-wins. No lock is held while a handler runs, so handlers may
// register, emit or post freely.
type Table struct {
	mu        sync.RWMutex
	commands  map[string]Handler
	listeners map[string]Handler

	breakers *resilience.Group
}

// NewTable creates a table. A nil breaker group disables breaking.
func NewTable(breakers *resilience.Group) *Table {
	return &Table{
		commands:  make(map[string]Handler),
		listeners: make(map[string]Handler),
		breakers:  breakers,
	}
}

// RegisterCommand registers h for requests named name.
func (t *Table) RegisterCommand(name string, h Handler) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.commands[name] = h
}

// RegisterListener registers h for events named name.
func (t *Table) RegisterListener(name string, h Handler) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.listeners[name] = h
}

func (t *Table) command(name string) (Handler, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	h, ok := t.commands[name]
	return h, ok
}

func (t *Table) listener(name string) (Handler, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	h, ok := t.listeners[name]
	return h, ok
}

// Call runs the command handler for name. Handler errors and panics come
// back wrapped in ErrHandlerFailure; an open breaker returns
// resilience.ErrCircuitOpen without calling the handler.
func (t *Table) Call(ctx context.Context, name string, args value.Value) (value.Value, error) {
	h, ok := t.command(name)
	if !ok {
		return value.Value{}, fmt.Errorf("%w: %s", ErrUnknownCommand, name)
	}

	if t.breakers == nil {
		return invoke(ctx, h, name, args)
	}

	var out value.Value
	err := t.breakers.Get(name).Execute(func() error {
		var err error
		out, err = invoke(ctx, h, name, args)
		return err
	})
	return out, err
}

// Notify runs the listener for name and discards its result.
func (t *Table) Notify(ctx context.Context, name string, args value.Value) error {
	h, ok := t.listener(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownListener, name)
	}
	_, err := invoke(ctx, h, name, args)
	return err
}

func invoke(ctx context.Context, h Handler, name string, args value.Value) (out value.Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			out = value.Value{}
			err = fmt.Errorf("%w: panic: %v", ErrHandlerFailure, r)
		}
	}()

	out, err = h.Invoke(ctx, name, args)
	if err != nil && !errors.Is(err, ErrHandlerFailure) {
		err = fmt.Errorf("%w: %w", ErrHandlerFailure, err)
	}
	return out, err
}

// IsHandlerFailure reports whether err came from a failing handler, as
// opposed to a lookup miss or an open breaker.
func IsHandlerFailure(err error) bool {
	return errors.Is(err, ErrHandlerFailure)
}
