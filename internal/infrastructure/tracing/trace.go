package tracing

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/wui/internal/infrastructure/logging"
	"github.com/GriffinCanCode/wui/internal/shared/id"
)

// DefaultBuffer is the number of finished spans held for the collector.
const DefaultBuffer = 1000

// Span represents one handler invocation.
type Span struct {
	TraceID   id.TraceID
	Name      string
	StartTime time.Time
	Duration  time.Duration

	mu   sync.Mutex
	tags map[string]string
	err  error
}

// SetTag adds a tag to the span
func (s *Span) SetTag(key, value string) {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tags[key] = value
}

// SetError records an error in the span
func (s *Span) SetError(err error) {
	if s == nil || err == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// Tags returns a copy of the span tags.
func (s *Span) Tags() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]string, len(s.tags))
	for k, v := range s.tags {
		out[k] = v
	}
	return out
}

// Err returns the recorded error.
func (s *Span) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Tracer collects finished spans and logs them.
type Tracer struct {
	logger *logging.Logger
	spans  chan *Span
	done   chan struct{}

	mu     sync.RWMutex
	closed bool
}

// New creates a tracer and starts its collector.
func New(logger *logging.Logger, buffer int) *Tracer {
	if logger == nil {
		logger = logging.NewNop()
	}
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	t := &Tracer{
		logger: logger.Named("trace"),
		spans:  make(chan *Span, buffer),
		done:   make(chan struct{}),
	}

	go t.collectSpans()

	return t
}

// StartSpan opens a span under trace and stores it in the returned context.
func (t *Tracer) StartSpan(ctx context.Context, trace id.TraceID, name string) (*Span, context.Context) {
	if t == nil {
		return nil, ctx
	}
	span := &Span{
		TraceID:   trace,
		Name:      name,
		StartTime: time.Now(),
		tags:      make(map[string]string),
	}
	return span, context.WithValue(ctx, spanKey{}, span)
}

// Submit finishes span and hands it to the collector. Spans are dropped
// when the buffer is full or the tracer is closed.
func (t *Tracer) Submit(span *Span) {
	if t == nil || span == nil {
		return
	}
	span.mu.Lock()
	span.Duration = time.Since(span.StartTime)
	span.mu.Unlock()

	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.closed {
		return
	}
	select {
	case t.spans <- span:
	default:
		t.logger.Warn("span buffer full, dropping span", logging.Trace(span.TraceID.String()))
	}
}

// Close stops accepting spans and waits for the collector to log the rest.
func (t *Tracer) Close() {
	if t == nil {
		return
	}
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	t.closed = true
	close(t.spans)
	t.mu.Unlock()
	<-t.done
}

// collectSpans processes completed spans
func (t *Tracer) collectSpans() {
	defer close(t.done)
	for span := range t.spans {
		t.processSpan(span)
	}
}

func (t *Tracer) processSpan(span *Span) {
	fields := []zap.Field{
		logging.Trace(span.TraceID.String()),
		zap.String("operation", span.Name),
		zap.Duration("duration", span.Duration),
	}
	for k, v := range span.Tags() {
		fields = append(fields, zap.String(k, v))
	}

	if err := span.Err(); err != nil {
		fields = append(fields, zap.Error(err))
		t.logger.Warn("span completed with error", fields...)
		return
	}
	t.logger.Debug("span completed", fields...)
}

type spanKey struct{}

// SpanFromContext returns the active span, or nil.
func SpanFromContext(ctx context.Context) *Span {
	span, _ := ctx.Value(spanKey{}).(*Span)
	return span
}
