package tracer

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/flowcortex/agentcore/agentlog"
)

// TraceItem is the exported shape handed to a registered TraceProcessor
// for one completed span.
type TraceItem struct {
	Name       string
	TraceID    string
	SpanID     string
	Attributes map[string]any
	StartTime  time.Time
	EndTime    time.Time
	StatusCode codes.Code
	StatusDesc string
}

// ContextProvider injects ambient attributes — tenant.id, correlation.id,
// execution.id — onto every span started through this package.
type ContextProvider func(ctx context.Context) map[string]string

// TraceProcessor receives completed spans for export. Processors are
// invoked synchronously when a span ends, so a slow processor delays the
// caller of End; ForceFlush does not wait on them.
type TraceProcessor func(item TraceItem)

// Config configures a Tracer.
type Config struct {
	ServiceName     string
	SamplingRate    float64 // [0,1]; 0 disables tracing, 1 samples everything
	SpanTimeout     time.Duration
	HistorySize     int
	ContextProvider ContextProvider
	Log             agentlog.Logger
}

func (c Config) spanTimeoutOrDefault() time.Duration {
	if c.SpanTimeout > 0 {
		return c.SpanTimeout
	}
	return 5 * time.Minute
}

func (c Config) historySizeOrDefault() int {
	if c.HistorySize > 0 {
		return c.HistorySize
	}
	return 512
}

// Tracer is the module's in-memory tracer: an OpenTelemetry
// TracerProvider plus span-timeout, sampling, and completed-span
// history behavior layered on top of it.
type Tracer struct {
	provider    *sdktrace.TracerProvider
	otelTracer  oteltrace.Tracer
	samplingRate float64
	spanTimeout time.Duration
	ctxProvider ContextProvider
	log         agentlog.Logger

	mu         sync.Mutex
	history    []TraceItem
	historyCap int
	processors []TraceProcessor

	activeMu sync.Mutex
	active   map[*Span]struct{}
}

// New builds a Tracer. The caller owns the returned Tracer's lifecycle
// and must call Dispose at shutdown.
func New(cfg Config) *Tracer {
	if cfg.Log == nil {
		cfg.Log = agentlog.NoopLogger{}
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = "agentcore"
	}

	provider := sdktrace.NewTracerProvider()

	return &Tracer{
		provider:     provider,
		otelTracer:   provider.Tracer(cfg.ServiceName),
		samplingRate: cfg.SamplingRate,
		spanTimeout:  cfg.spanTimeoutOrDefault(),
		ctxProvider:  cfg.ContextProvider,
		log:          cfg.Log,
		historyCap:   cfg.historySizeOrDefault(),
		active:       make(map[*Span]struct{}),
	}
}

// SpanOptions configures a single StartSpan call.
type SpanOptions struct {
	Kind       oteltrace.SpanKind
	Attributes map[string]any
	StartTime  time.Time
}

func (t *Tracer) sampled() bool {
	if t.samplingRate >= 1 {
		return true
	}
	if t.samplingRate <= 0 {
		return false
	}
	return rand.Float64() < t.samplingRate
}

// StartSpan begins a span named name. A probabilistic draw against the
// configured sampling rate may replace it with a no-op handle instead of
// creating real OpenTelemetry state. The returned context carries the
// new span so downstream StartSpan calls nest correctly.
func (t *Tracer) StartSpan(ctx context.Context, name string, opts SpanOptions) (context.Context, SpanHandle) {
	if !t.sampled() {
		return ctx, noopSpan{}
	}

	otelOpts := []oteltrace.SpanStartOption{oteltrace.WithSpanKind(opts.Kind)}
	if !opts.StartTime.IsZero() {
		otelOpts = append(otelOpts, oteltrace.WithTimestamp(opts.StartTime))
	}

	attrs := map[string]any{}
	for k, v := range opts.Attributes {
		attrs[k] = v
	}
	if t.ctxProvider != nil {
		for k, v := range t.ctxProvider(ctx) {
			attrs[k] = v
		}
	}

	newCtx, otelSpan := t.otelTracer.Start(ctx, name, otelOpts...)

	s := &Span{otel: otelSpan, name: name, start: time.Now(), tracer: t}
	s.SetAttributes(attrs)

	t.activeMu.Lock()
	t.active[s] = struct{}{}
	t.activeMu.Unlock()

	s.timeout = time.AfterFunc(t.spanTimeout, func() {
		s.SetStatus(codes.Error, "timeout")
		s.End()
	})

	return newCtx, s
}

// WithSpan runs fn with ctx carrying span, recording any returned error
// as an exception and always ending the span afterward.
func WithSpan(ctx context.Context, span SpanHandle, fn func(ctx context.Context) error) error {
	err := fn(ctx)
	if err != nil {
		span.RecordException(err)
	}
	span.End()
	return err
}

func (t *Tracer) recordCompleted(s *Span) {
	t.activeMu.Lock()
	delete(t.active, s)
	t.activeMu.Unlock()

	item := TraceItem{
		Name:      s.name,
		StartTime: s.start,
		EndTime:   time.Now(),
	}
	if sc := s.otel.SpanContext(); sc.IsValid() {
		item.TraceID = sc.TraceID().String()
		item.SpanID = sc.SpanID().String()
	}

	t.mu.Lock()
	t.history = append(t.history, item)
	if len(t.history) > t.historyCap {
		t.history = t.history[len(t.history)-t.historyCap:]
	}
	procs := make([]TraceProcessor, len(t.processors))
	copy(procs, t.processors)
	t.mu.Unlock()

	for _, p := range procs {
		p(item)
	}
}

// AddTraceProcessor registers fn to be called once per completed span.
func (t *Tracer) AddTraceProcessor(fn TraceProcessor) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.processors = append(t.processors, fn)
}

// ForceFlush waits for the underlying OpenTelemetry provider to flush its
// exporters. Registered TraceProcessors are invoked synchronously as
// spans complete, so ForceFlush only needs to drain the SDK layer.
func (t *Tracer) ForceFlush(ctx context.Context) error {
	return t.provider.ForceFlush(ctx)
}

// CompletedSpans returns a snapshot of the bounded completed-span
// history, oldest first.
func (t *Tracer) CompletedSpans() []TraceItem {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]TraceItem, len(t.history))
	copy(out, t.history)
	return out
}

// Dispose closes every active span with an error status, then shuts down
// the underlying provider.
func (t *Tracer) Dispose(ctx context.Context) error {
	t.activeMu.Lock()
	spans := make([]*Span, 0, len(t.active))
	for s := range t.active {
		spans = append(spans, s)
	}
	t.activeMu.Unlock()

	for _, s := range spans {
		s.SetStatus(codes.Error, "disposed")
		s.End()
	}

	return t.provider.Shutdown(ctx)
}
