package bridge

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/wui/internal/infrastructure/logging"
	"github.com/GriffinCanCode/wui/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/wui/internal/ipc"
	"github.com/GriffinCanCode/wui/internal/value"
	"github.com/GriffinCanCode/wui/internal/webview"
)

// Run creates the configured windows and processes events until every
// window is closed, Exit is called or ctx is cancelled. ctx is also the
// parent of every handler context. Run fails only at startup, with
// ErrDuplicateLabel or ErrResourceLoad; windows the engine refuses to
// create are logged and skipped.
func (b *Bridge) Run(ctx context.Context) error {
	if !b.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}
	b.baseCtx.Store(&ctx)
	b.bus.Open()
	b.setState(StateStarting)

	if err := b.start(); err != nil {
		b.loopLog.Error("startup failed", zap.Error(err))
		b.drain()
		return err
	}

	configured := len(b.settings.Windows)
	if configured > 0 && b.registry.Count() == 0 {
		b.loopLog.Warn("no configured window could be created", zap.Int("configured", configured))
		b.drain()
		return nil
	}

	b.setState(StateRunning)
	b.loopLog.Info("event loop running", zap.Strings("windows", b.registry.Labels()))
	b.loop(ctx)
	b.drain()
	return nil
}

func (b *Bridge) start() error {
	for _, w := range b.settings.Windows {
		if _, err := b.createWindow(w); err != nil {
			if errors.Is(err, ErrDuplicateLabel) || errors.Is(err, ErrResourceLoad) {
				return err
			}
			b.loopLog.Error("window creation failed", zap.Error(err))
		}
	}
	return nil
}

func (b *Bridge) loop(ctx context.Context) {
	events := b.engine.Events()
	done := ctx.Done()

	for !b.exiting {
		select {
		case ev, ok := <-events:
			if !ok {
				b.loopLog.Warn("engine event stream closed")
				return
			}
			b.handleEngineEvent(ev)

		case <-b.bus.Notify():
			for _, cmd := range b.bus.Drain() {
				b.apply(cmd)
				if b.exiting {
					break
				}
			}

		case <-done:
			b.loopLog.Info("context cancelled, exiting", zap.Error(ctx.Err()))
			b.exiting = true
		}
	}
}

func (b *Bridge) handleEngineEvent(ev webview.Event) {
	switch ev.Kind {
	case webview.CloseRequested:
		b.apply(CloseWindow{ID: ev.WindowID})
	default:
		if e, ok := b.registry.FindByID(ev.WindowID); ok {
			b.loopLog.Debug("window event", logging.Window(e.Label), zap.Stringer("event", ev.Kind))
		}
	}
}

// apply handles one loop command. Every Command type has a case here.
func (b *Bridge) apply(cmd Command) {
	switch c := cmd.(type) {
	case ResponseReady:
		b.deliver(c)
	case EmitEvent:
		b.broadcast(c)
	case CloseWindow:
		e, ok := b.lookup(c)
		if !ok {
			b.loopLog.Debug("close for unknown window", logging.Window(c.Label))
			return
		}
		if b.closeWindow(e) {
			b.exiting = true
		}
	case UpdateWindow:
		b.update(c)
	case OpenWindow:
		if _, err := b.createWindow(c.Window); err != nil {
			b.loopLog.Error("open window failed", zap.Error(err))
		}
	case ExitAll:
		b.loopLog.Info("exit requested")
		b.exiting = true
	default:
		panic(fmt.Sprintf("bridge: unhandled command %T", cmd))
	}
}

func (b *Bridge) lookup(c CloseWindow) (*Entry, bool) {
	if c.ID != "" {
		return b.registry.FindByID(c.ID)
	}
	return b.registry.Find(c.Label)
}

// deliver sends a reply to the window that asked, if it is still open.
func (b *Bridge) deliver(c ResponseReady) {
	e, ok := b.registry.FindByID(c.WindowID)
	if !ok {
		b.loopLog.Debug("reply for closed window dropped",
			logging.Window(c.Label),
			logging.Correlation(c.RequestID))
		return
	}
	log := b.loopLog.With(logging.Window(e.Label), logging.Correlation(c.RequestID))

	script, err := ipc.EncodeResponse(c.RequestID, c.Result, c.Err)
	if err != nil {
		log.Warn("reply not encodable", zap.Error(err))
		script, err = ipc.EncodeResponse(c.RequestID, value.Value{}, fmt.Errorf("%w: %w", ErrHandlerFailure, err))
		if err != nil {
			log.Error("reply dropped", zap.Error(err))
			return
		}
	}
	if err := e.Window.Webview().Eval(script); err != nil {
		log.Warn("reply eval failed", zap.Error(err))
	}
}

// broadcast sends an event to every open window in creation order.
func (b *Bridge) broadcast(c EmitEvent) {
	script, err := ipc.EncodeEvent(c.Name, c.Payload)
	if err != nil {
		b.loopLog.Error("event not encodable", zap.String("event", c.Name), zap.Error(err))
		return
	}

	for _, e := range b.registry.Entries() {
		if err := e.Window.Webview().Eval(script); err != nil {
			b.loopLog.Warn("event eval failed",
				logging.Window(e.Label),
				zap.String("event", c.Name),
				zap.Error(err))
		}
	}
	b.metrics.IncEventsEmitted()
}

func (b *Bridge) update(c UpdateWindow) {
	e, ok := b.registry.Find(c.Label)
	if !ok {
		b.loopLog.Debug("update for unknown window", logging.Window(c.Label))
		return
	}

	patch := c.Patch.withSize(e.Spec.Width, e.Spec.Height)
	failed := make(map[string]bool)
	for _, err := range patch.Apply(e.Window) {
		b.loopLog.Warn("window attribute not applied",
			logging.Window(e.Label),
			zap.String("attribute", err.Attribute),
			zap.Error(err.Err))
		b.metrics.RecordWindowUpdateFailure(err.Attribute)
		failed[err.Attribute] = true
	}

	// Only attributes the window actually took are remembered.
	if patch.Window.Width != nil && !failed[attrSize] {
		e.Spec.Width, e.Spec.Height = *patch.Window.Width, *patch.Window.Height
	}
	if patch.Window.Title != nil && !failed[attrTitle] {
		e.Spec.Title = *patch.Window.Title
	}
}

// drain closes what is left in creation order and stops the loop.
func (b *Bridge) drain() {
	b.setState(StateDraining)

	for _, e := range b.registry.Entries() {
		b.closeWindow(e)
	}
	b.fireExit()

	b.corr.Close()
	b.bus.Close()
	b.metrics.SetPendingCorrelations(0)
	b.metrics.SetWindowsOpen(0)
	b.setState(StateStopped)
	b.loopLog.Info("event loop stopped")
}

// expired runs on a timer goroutine when a request outlives its timeout.
func (b *Bridge) expired(p Pending) {
	b.metrics.RecordResponse(monitoring.OutcomeTimeout)
	b.metrics.SetPendingCorrelations(b.corr.Len())
	b.ipcLog.Warn("request timed out", logging.Window(p.Label), logging.Correlation(p.ID))

	err := b.post(ResponseReady{RequestID: p.ID, WindowID: p.WindowID, Label: p.Label, Err: ErrRequestTimeout})
	if err != nil {
		b.ipcLog.Debug("timeout reply not posted", zap.Error(err))
	}
}
