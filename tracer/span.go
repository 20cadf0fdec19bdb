// Package tracer implements the observability spine's span layer on top
// of go.opentelemetry.io/otel: StartSpan handles with SetAttribute(s),
// SetStatus, RecordException, AddEvent, End; per-span timeouts; a bounded
// completed-span history; registrable trace processors; and domain-span
// helpers (agent.<phase>, tool.execute, llm.generation).
package tracer

import (
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"
)

// SpanHandle is the capability set returned by StartSpan. The real
// implementation wraps an OpenTelemetry span; when sampling decides to
// skip a span, a no-op implementation is returned instead so callers
// never need to branch on whether tracing is active.
type SpanHandle interface {
	SetAttribute(key string, value any)
	SetAttributes(attrs map[string]any)
	SetStatus(code codes.Code, description string)
	RecordException(err error)
	AddEvent(name string, attrs map[string]any)
	End()
}

// Span is the real SpanHandle implementation: an OpenTelemetry span plus
// the timeout-arming and completed-span bookkeeping the in-memory tracer
// adds on top.
type Span struct {
	otel    oteltrace.Span
	name    string
	start   time.Time
	tracer  *Tracer
	mu      sync.Mutex
	ended   bool
	timeout *time.Timer
}

var _ SpanHandle = (*Span)(nil)

func toAttr(key string, value any) attribute.KeyValue {
	switch v := value.(type) {
	case string:
		return attribute.String(key, v)
	case bool:
		return attribute.Bool(key, v)
	case int:
		return attribute.Int(key, v)
	case int64:
		return attribute.Int64(key, v)
	case float64:
		return attribute.Float64(key, v)
	default:
		return attribute.String(key, attributeFallback(v))
	}
}

func attributeFallback(v any) string {
	if s, ok := v.(interface{ String() string }); ok {
		return s.String()
	}
	return "unsupported-attribute-type"
}

func (s *Span) SetAttribute(key string, value any) {
	s.otel.SetAttributes(toAttr(key, value))
}

func (s *Span) SetAttributes(attrs map[string]any) {
	kvs := make([]attribute.KeyValue, 0, len(attrs))
	for k, v := range attrs {
		kvs = append(kvs, toAttr(k, v))
	}
	s.otel.SetAttributes(kvs...)
}

func (s *Span) SetStatus(code codes.Code, description string) {
	s.otel.SetStatus(code, description)
}

func (s *Span) RecordException(err error) {
	if err == nil {
		return
	}
	s.otel.RecordError(err)
	s.otel.SetStatus(codes.Error, err.Error())
}

func (s *Span) AddEvent(name string, attrs map[string]any) {
	kvs := make([]attribute.KeyValue, 0, len(attrs))
	for k, v := range attrs {
		kvs = append(kvs, toAttr(k, v))
	}
	s.otel.AddEvent(name, oteltrace.WithAttributes(kvs...))
}

// End closes the span, stopping its timeout timer. Idempotent: ending an
// already-ended span is a no-op.
func (s *Span) End() {
	s.mu.Lock()
	if s.ended {
		s.mu.Unlock()
		return
	}
	s.ended = true
	s.mu.Unlock()

	if s.timeout != nil {
		s.timeout.Stop()
	}
	s.otel.End()
	s.tracer.recordCompleted(s)
}

// noopSpan discards everything; returned when sampling skips a span.
type noopSpan struct{}

var _ SpanHandle = noopSpan{}

func (noopSpan) SetAttribute(string, any)         {}
func (noopSpan) SetAttributes(map[string]any)     {}
func (noopSpan) SetStatus(codes.Code, string)      {}
func (noopSpan) RecordException(error)            {}
func (noopSpan) AddEvent(string, map[string]any)  {}
func (noopSpan) End()                             {}
