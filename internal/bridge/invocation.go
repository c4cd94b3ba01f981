package bridge

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/GriffinCanCode/wui/internal/shared/id"
	"github.com/GriffinCanCode/wui/internal/value"
)

// WindowInfo identifies the window that sent a message.
type WindowInfo struct {
	ID    id.WindowID
	Label string
	// RequestID is empty for events.
	RequestID string
	Trace     id.TraceID
}

type invocationKey struct{}

type invocation struct {
	info     WindowInfo
	deferred atomic.Bool
	resolve  func(value.Value, error)
}

func withInvocation(ctx context.Context, inv *invocation) context.Context {
	return context.WithValue(ctx, invocationKey{}, inv)
}

// WindowFromContext returns the window a handler is serving.
func WindowFromContext(ctx context.Context) (WindowInfo, bool) {
	inv, ok := ctx.Value(invocationKey{}).(*invocation)
	if !ok {
		return WindowInfo{}, false
	}
	return inv.info, true
}

// Responder answers a deferred request. Only the first Resolve counts.
type Responder struct {
	once    *sync.Once
	resolve func(value.Value, error)
}

// Defer detaches the reply from the handler's return. The handler's own
// return value is then ignored and the caller must eventually call
// Resolve, from any goroutine; the request timeout still applies. Outside
// a command handler Defer returns a Responder whose Resolve does nothing.
func Defer(ctx context.Context) Responder {
	inv, ok := ctx.Value(invocationKey{}).(*invocation)
	if !ok || inv.resolve == nil {
		return Responder{}
	}
	inv.deferred.Store(true)
	return Responder{once: new(sync.Once), resolve: inv.resolve}
}

// Resolve delivers the reply.
func (r Responder) Resolve(result value.Value, err error) {
	if r.resolve == nil {
		return
	}
	r.once.Do(func() { r.resolve(result, err) })
}

// Valid reports whether the responder is attached to a request.
func (r Responder) Valid() bool {
	return r.resolve != nil
}
