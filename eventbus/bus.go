package eventbus

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/flowcortex/agentcore/agentlog"
)

// Handler processes a single event. An error return is treated as a
// subscriber fault: it is counted against the subscriber's error budget
// but never stops delivery to other subscribers. A panic inside Handler
// is recovered and treated the same way.
type Handler func(ctx context.Context, e Event) error

// SubscribeOptions filters which events a Handler receives. Empty Types
// or Sources means "match everything" for that dimension.
type SubscribeOptions struct {
	Types   []string
	Sources []string
	Handler Handler
}

type subscription struct {
	id          string
	types       map[string]struct{}
	sources     map[string]struct{}
	handler     Handler
	mu          sync.Mutex
	errorCount  int
	quarantined bool
}

func (s *subscription) matches(e Event) bool {
	if len(s.types) > 0 {
		if _, ok := s.types[e.Type]; !ok {
			return false
		}
	}
	if len(s.sources) > 0 {
		if _, ok := s.sources[e.Source]; !ok {
			return false
		}
	}
	return true
}

// Bus is the in-process event bus. The zero value is not usable; build
// one with New.
type Bus struct {
	mu             sync.Mutex
	buffer         []Event
	capacity       int
	errorThreshold int
	subs           map[string]*subscription
	nextSubID      int
	stats          Stats
	log            agentlog.Logger
}

// Config configures a new Bus.
type Config struct {
	BufferSize     int
	ErrorThreshold int
	Log            agentlog.Logger
}

// New builds a Bus with the given ring-buffer capacity and per-subscriber
// error threshold before quarantine.
func New(cfg Config) *Bus {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 1024
	}
	if cfg.ErrorThreshold <= 0 {
		cfg.ErrorThreshold = 5
	}
	if cfg.Log == nil {
		cfg.Log = agentlog.NoopLogger{}
	}
	return &Bus{
		capacity:       cfg.BufferSize,
		errorThreshold: cfg.ErrorThreshold,
		subs:           make(map[string]*subscription),
		log:            cfg.Log,
	}
}

// Subscribe registers a handler and returns an unsubscribe function.
func (b *Bus) Subscribe(opts SubscribeOptions) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextSubID++
	id := subID(b.nextSubID)

	sub := &subscription{
		id:      id,
		types:   toSet(opts.Types),
		sources: toSet(opts.Sources),
		handler: opts.Handler,
	}
	b.subs[id] = sub

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs, id)
	}
}

// Publish delivers e to every matching, non-quarantined subscriber and
// retains it in the ring buffer subject to the critical-headroom policy.
// Publish never blocks on a slow subscriber beyond the handler's own
// runtime, and never returns a subscriber's error to the caller.
func (b *Bus) Publish(ctx context.Context, e Event) {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}

	b.mu.Lock()
	b.stats.Published++
	b.appendToBuffer(e)
	subs := make([]*subscription, 0, len(b.subs))
	for _, s := range b.subs {
		subs = append(subs, s)
	}
	b.mu.Unlock()

	for _, s := range subs {
		b.deliver(ctx, s, e)
	}
}

// appendToBuffer must be called with b.mu held. At capacity, a
// non-critical incoming event is dropped (the drop counter increments);
// a critical incoming event evicts the oldest non-critical buffered
// event to make room, or grows the buffer if none exists, so critical
// events are never dropped.
func (b *Bus) appendToBuffer(e Event) {
	if len(b.buffer) < b.capacity {
		b.buffer = append(b.buffer, e)
		return
	}

	if !e.Critical {
		b.stats.Dropped++
		return
	}

	for i, buffered := range b.buffer {
		if !buffered.Critical {
			b.buffer = append(b.buffer[:i], b.buffer[i+1:]...)
			b.buffer = append(b.buffer, e)
			return
		}
	}
	// Buffer is saturated with critical events; grow rather than drop one.
	b.buffer = append(b.buffer, e)
}

func (b *Bus) deliver(ctx context.Context, s *subscription, e Event) {
	s.mu.Lock()
	quarantined := s.quarantined
	matches := !quarantined && s.matches(e)
	s.mu.Unlock()
	if !matches {
		return
	}

	err := b.safeInvoke(ctx, s.handler, e)
	if err == nil {
		return
	}

	b.mu.Lock()
	b.stats.Errors++
	b.mu.Unlock()

	s.mu.Lock()
	s.errorCount++
	shouldQuarantine := s.errorCount > b.errorThreshold && !s.quarantined
	if shouldQuarantine {
		s.quarantined = true
	}
	s.mu.Unlock()

	if shouldQuarantine {
		b.log.Warn(ctx, "eventbus: subscriber quarantined after repeated errors", agentlog.F("subscriberId", s.id), agentlog.F("errorCount", s.errorCount))
		b.Publish(ctx, Event{
			Type:     "system.eventbus.subscriber.quarantined",
			Source:   "eventbus",
			Critical: true,
			Data:     map[string]any{"subscriberId": s.id, "errorCount": s.errorCount},
		})
	}
}

func (b *Bus) safeInvoke(ctx context.Context, h Handler, e Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &handlerPanicError{value: r}
		}
	}()
	return h(ctx, e)
}

// Events returns a snapshot of the ring buffer's current contents, in
// publish order.
func (b *Bus) Events() []Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Event, len(b.buffer))
	copy(out, b.buffer)
	return out
}

// Stats returns a snapshot of bus counters.
func (b *Bus) Stats() Stats {
	b.mu.Lock()
	defer b.mu.Unlock()
	s := b.stats
	s.ActiveListeners = len(b.subs)
	return s
}

func toSet(items []string) map[string]struct{} {
	if len(items) == 0 {
		return nil
	}
	m := make(map[string]struct{}, len(items))
	for _, i := range items {
		m[i] = struct{}{}
	}
	return m
}

func subID(n int) string {
	return "sub-" + strconv.Itoa(n)
}

type handlerPanicError struct{ value any }

func (e *handlerPanicError) Error() string {
	return "eventbus: subscriber handler panicked"
}
