/*
Package tracing records spans for IPC messages handled by the bridge.

# Overview

Every message a page posts gets a trace id when it arrives. The bridge
opens a span around the handler it dispatches to, tags it with the window
and request id, and submits it when the handler returns. A collector
goroutine logs finished spans at debug level, or at warn level when the
span carries an error.

# Usage

	tracer := tracing.New(logger, 1000)
	defer tracer.Close()

	span, ctx := tracer.StartSpan(ctx, trace, "request ping")
	span.SetTag("window", "main")
	// ... run handler ...
	span.SetError(err)
	tracer.Submit(span)

Handlers can reach the active span through SpanFromContext. A nil *Tracer
is accepted everywhere and records nothing.
*/
package tracing
