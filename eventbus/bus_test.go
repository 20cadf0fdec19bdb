package eventbus

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishDeliversToMatchingSubscriberOnly(t *testing.T) {
	bus := New(Config{BufferSize: 8})

	var gotA, gotB []Event
	var mu sync.Mutex

	bus.Subscribe(SubscribeOptions{Types: []string{"step.started"}, Handler: func(_ context.Context, e Event) error {
		mu.Lock()
		defer mu.Unlock()
		gotA = append(gotA, e)
		return nil
	}})
	bus.Subscribe(SubscribeOptions{Types: []string{"step.completed"}, Handler: func(_ context.Context, e Event) error {
		mu.Lock()
		defer mu.Unlock()
		gotB = append(gotB, e)
		return nil
	}})

	bus.Publish(context.Background(), Event{Type: "step.started"})

	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, gotA, 1)
	assert.Empty(t, gotB)
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	bus := New(Config{BufferSize: 8})
	count := 0
	unsubscribe := bus.Subscribe(SubscribeOptions{Handler: func(_ context.Context, _ Event) error {
		count++
		return nil
	}})

	bus.Publish(context.Background(), Event{Type: "a"})
	unsubscribe()
	bus.Publish(context.Background(), Event{Type: "a"})

	assert.Equal(t, 1, count)
}

func TestCapacityDropsNonCriticalButKeepsCritical(t *testing.T) {
	bus := New(Config{BufferSize: 2})

	bus.Publish(context.Background(), Event{Type: "a"})
	bus.Publish(context.Background(), Event{Type: "b"})
	// buffer full with two non-critical events
	bus.Publish(context.Background(), Event{Type: "c"}) // dropped
	bus.Publish(context.Background(), Event{Type: "critical", Critical: true})

	events := bus.Events()
	assert.Len(t, events, 2)
	assert.True(t, events[len(events)-1].Critical)
	assert.Equal(t, int64(1), bus.Stats().Dropped)
}

func TestSubscriberQuarantineAfterErrorThreshold(t *testing.T) {
	bus := New(Config{BufferSize: 8, ErrorThreshold: 2})

	calls := 0
	bus.Subscribe(SubscribeOptions{Handler: func(_ context.Context, _ Event) error {
		calls++
		return errors.New("boom")
	}})

	for i := 0; i < 5; i++ {
		bus.Publish(context.Background(), Event{Type: "x"})
	}

	// after threshold exceeded, quarantine stops further delivery
	assert.Less(t, calls, 5)
}

func TestHandlerPanicIsRecoveredNotPropagated(t *testing.T) {
	bus := New(Config{BufferSize: 8})
	bus.Subscribe(SubscribeOptions{Handler: func(_ context.Context, _ Event) error {
		panic("boom")
	}})

	require.NotPanics(t, func() {
		bus.Publish(context.Background(), Event{Type: "x"})
	})
	assert.Equal(t, int64(1), bus.Stats().Errors)
}

func TestStatsTracksActiveListeners(t *testing.T) {
	bus := New(Config{BufferSize: 8})
	unsubscribe := bus.Subscribe(SubscribeOptions{Handler: func(context.Context, Event) error { return nil }})
	assert.Equal(t, 1, bus.Stats().ActiveListeners)
	unsubscribe()
	assert.Equal(t, 0, bus.Stats().ActiveListeners)
}
