package bridge

import (
	"errors"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/wui/internal/infrastructure/logging"
	"github.com/GriffinCanCode/wui/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/wui/internal/ipc"
	"github.com/GriffinCanCode/wui/internal/shared/id"
	"github.com/GriffinCanCode/wui/internal/value"
)

// receive handles one message posted by a page. It runs on an engine
// goroutine, concurrently with the loop and with other windows.
func (b *Bridge) receive(wid id.WindowID, label, body string) {
	trace := id.NewTraceID()
	log := b.ipcLog.With(logging.Window(label), logging.Trace(trace.String()))

	env, err := ipc.DecodeWithin([]byte(body), b.cfg.Limits)
	if err != nil {
		log.Warn("dropping malformed message", zap.Error(err), zap.Int("bytes", len(body)))
		b.metrics.RecordIPCMessage("unknown", monitoring.OutcomeProtocol)
		return
	}
	log = log.With(logging.Command(env.Command))

	switch env.Kind {
	case ipc.KindEvent:
		b.event(wid, label, trace, env, log)
	case ipc.KindRequest:
		b.request(wid, label, trace, env, log)
	}
}

func (b *Bridge) event(wid id.WindowID, label string, trace id.TraceID, env ipc.Envelope, log *logging.Logger) {
	kind := env.Kind.String()
	if !b.limiter.Allow(wid) {
		log.Warn("event dropped, rate limit exceeded")
		b.metrics.RecordIPCMessage(kind, monitoring.OutcomeRateLimited)
		return
	}

	span, ctx := b.tracer.StartSpan(b.context(), trace, "event "+env.Command)
	span.SetTag("window", label)

	inv := &invocation{info: WindowInfo{ID: wid, Label: label, Trace: trace}}
	err := b.table.Notify(withInvocation(ctx, inv), env.Command, env.Args)
	span.SetError(err)
	b.tracer.Submit(span)

	switch {
	case err == nil:
		b.metrics.RecordIPCMessage(kind, monitoring.OutcomeOK)
	case errors.Is(err, ErrUnknownListener):
		log.Debug("no listener for event")
		b.metrics.RecordIPCMessage(kind, monitoring.OutcomeDropped)
	default:
		log.Warn("listener failed", zap.Error(err))
		b.metrics.RecordIPCMessage(kind, monitoring.OutcomeError)
	}
}

func (b *Bridge) request(wid id.WindowID, label string, trace id.TraceID, env ipc.Envelope, log *logging.Logger) {
	kind := env.Kind.String()
	log = log.With(logging.Correlation(env.RequestID))

	if err := b.corr.Track(env.RequestID, wid, label); err != nil {
		if errors.Is(err, ErrDuplicateRequest) {
			log.Warn("dropping request", zap.Error(err))
			b.metrics.RecordIPCMessage(kind, monitoring.OutcomeProtocol)
			return
		}
		log.Debug("request after shutdown ignored", zap.Error(err))
		b.metrics.RecordIPCMessage(kind, monitoring.OutcomeDropped)
		return
	}
	// closeWindow removes the entry before dropping its pending ids, so a
	// request tracked after that drop is caught here.
	if _, ok := b.registry.FindByID(wid); !ok {
		b.corr.Resolve(env.RequestID)
		log.Debug("request from closed window ignored")
		b.metrics.RecordIPCMessage(kind, monitoring.OutcomeDropped)
		return
	}
	b.metrics.SetPendingCorrelations(b.corr.Len())

	if !b.limiter.Allow(wid) {
		log.Warn("request refused, rate limit exceeded")
		b.metrics.RecordIPCMessage(kind, monitoring.OutcomeRateLimited)
		b.resolve(env.RequestID, value.Value{}, ErrRateLimited)
		return
	}

	inv := &invocation{
		info: WindowInfo{ID: wid, Label: label, RequestID: env.RequestID, Trace: trace},
		resolve: func(result value.Value, err error) {
			b.resolve(env.RequestID, result, err)
		},
	}

	span, ctx := b.tracer.StartSpan(b.context(), trace, "request "+env.Command)
	span.SetTag("window", label)
	span.SetTag("request_id", env.RequestID)

	timer := monitoring.NewTimer(b.metrics, env.Command)
	result, err := b.table.Call(withInvocation(ctx, inv), env.Command, env.Args)
	span.SetError(err)
	if inv.deferred.Load() {
		span.SetTag("deferred", "true")
	}
	b.tracer.Submit(span)

	status := monitoring.OutcomeOK
	if err != nil {
		status = monitoring.OutcomeError
		log.Warn("command failed", zap.Error(err))
	}
	elapsed := timer.Stop(status)
	b.metrics.RecordIPCMessage(kind, status)

	if inv.deferred.Load() && err == nil {
		log.Debug("reply deferred", zap.Duration("elapsed", elapsed))
		return
	}
	b.resolve(env.RequestID, result, err)
}

// resolve completes a request. Only the first resolution for an id is
// delivered; anything after that, including a reply racing the timeout,
// is dropped.
func (b *Bridge) resolve(reqID string, result value.Value, err error) {
	p, ok := b.corr.Resolve(reqID)
	if !ok {
		b.ipcLog.Debug("late reply dropped", logging.Correlation(reqID))
		b.metrics.RecordResponse(monitoring.OutcomeDropped)
		return
	}
	b.metrics.SetPendingCorrelations(b.corr.Len())
	b.metrics.RecordResponse(responseOutcome(err))

	reply := ResponseReady{RequestID: p.ID, WindowID: p.WindowID, Label: p.Label, Result: result, Err: err}
	if err := b.post(reply); err != nil {
		b.ipcLog.Debug("reply not posted", logging.Correlation(reqID), zap.Error(err))
	}
}

func responseOutcome(err error) string {
	switch {
	case err == nil:
		return monitoring.OutcomeOK
	case errors.Is(err, ErrRequestTimeout):
		return monitoring.OutcomeTimeout
	case errors.Is(err, ErrRateLimited):
		return monitoring.OutcomeRateLimited
	default:
		return monitoring.OutcomeError
	}
}
