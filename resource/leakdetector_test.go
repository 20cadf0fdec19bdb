package resource

import (
	"context"
	"testing"
	"time"

	"github.com/flowcortex/agentcore/agentconfig"
	"github.com/flowcortex/agentcore/eventbus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProbeCountsTrackedResourcesByKind(t *testing.T) {
	mgr := NewManager(nil)
	mgr.Acquire(KindTimer, func() error { return nil })
	mgr.Acquire(KindTimer, func() error { return nil })
	mgr.Acquire(KindListener, func() error { return nil })

	bus := eventbus.New(eventbus.Config{})
	d := NewLeakDetector(mgr, bus, nil, agentconfig.LeakDetectorConfig{})

	m := d.Probe(context.Background())
	assert.Equal(t, 2, m.ActiveTimers)
	assert.Equal(t, 1, m.Listeners)
}

func TestClassifyRiskEscalatesWithCrossings(t *testing.T) {
	mgr := NewManager(nil)
	for i := 0; i < 10; i++ {
		mgr.Acquire(KindTimer, func() error { return nil })
	}
	for i := 0; i < 10; i++ {
		mgr.Acquire(KindListener, func() error { return nil })
	}

	cfg := agentconfig.LeakDetectorConfig{
		Thresholds: agentconfig.LeakThresholds{
			MaxActiveTimers:       2,
			MaxListenersPerObject: 2,
		},
	}
	d := NewLeakDetector(mgr, nil, nil, cfg)
	m := d.Probe(context.Background())

	assert.Equal(t, RiskHigh, m.Risk)
}

func TestRaiseAlertPublishesEventAndInvokesCallback(t *testing.T) {
	mgr := NewManager(nil)
	for i := 0; i < 5; i++ {
		mgr.Acquire(KindTimer, func() error { return nil })
	}

	bus := eventbus.New(eventbus.Config{})
	var received []eventbus.Event
	bus.Subscribe(eventbus.SubscribeOptions{
		Types: []string{"system.memory.leak.detected"},
		Handler: func(_ context.Context, e eventbus.Event) error {
			received = append(received, e)
			return nil
		},
	})

	cfg := agentconfig.LeakDetectorConfig{
		Thresholds: agentconfig.LeakThresholds{MaxActiveTimers: 1},
	}
	d := NewLeakDetector(mgr, bus, nil, cfg)

	var callbackAlerts []Alert
	d.OnAlert(func(a Alert) { callbackAlerts = append(callbackAlerts, a) })

	d.Probe(context.Background())

	require.NotEmpty(t, received)
	require.NotEmpty(t, callbackAlerts)
	assert.Equal(t, AlertTimerLeak, callbackAlerts[0].Type)
}

func TestAutoCleanupReleasesStaleResources(t *testing.T) {
	var now int64
	clock := func() int64 { now++; return now }
	mgr := NewManager(clock)

	released := false
	mgr.Acquire(KindOther, func() error { released = true; return nil })

	cfg := agentconfig.LeakDetectorConfig{
		AutoCleanup: agentconfig.AutoCleanupConfig{
			Enabled:        true,
			MaxResourceAge: time.Nanosecond,
		},
	}
	d := NewLeakDetector(mgr, nil, nil, cfg)
	d.autoCleanup(context.Background())

	// autoCleanup compares against time.Now(), acquired via the fake clock
	// in the distant "past" relative to wall-clock nanoseconds, so the
	// resource is always stale here.
	assert.True(t, released)
}

func TestStartAndStopMonitorLoop(t *testing.T) {
	mgr := NewManager(nil)
	cfg := agentconfig.LeakDetectorConfig{MonitoringInterval: 5 * time.Millisecond}
	d := NewLeakDetector(mgr, nil, nil, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	d.Start(ctx)
	time.Sleep(20 * time.Millisecond)
	d.Stop()

	last := d.LastProbe()
	assert.GreaterOrEqual(t, last.HeapUsedMB, 0.0)
}
