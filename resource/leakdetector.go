package resource

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/flowcortex/agentcore/agentconfig"
	"github.com/flowcortex/agentcore/agentlog"
	"github.com/flowcortex/agentcore/eventbus"
)

// AlertType classifies a leak alert.
type AlertType string

const (
	AlertMemoryGrowth AlertType = "MEMORY_GROWTH"
	AlertListenerLeak AlertType = "LISTENER_LEAK"
	AlertTimerLeak    AlertType = "TIMER_LEAK"
	AlertPromiseLeak  AlertType = "PROMISE_LEAK"
	AlertResourceLeak AlertType = "RESOURCE_LEAK"
	AlertHeapOverflow AlertType = "HEAP_OVERFLOW"
)

// RiskLevel is the detector's overall assessment on a given probe.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// Metrics is one probe's sample of process memory and tracked resources.
type Metrics struct {
	HeapUsedMB        float64
	HeapTotalMB       float64
	RSSApproxMB       float64
	ExternalMB        float64
	HeapUsagePercent  float64
	GrowthSinceBaseMB float64
	ActiveTimers      int
	PendingPromises   int
	Listeners         int
	EventBusListeners int
	Risk              RiskLevel
}

// Alert is emitted when a probe crosses a configured threshold.
type Alert struct {
	ID                string
	Type              AlertType
	Severity          RiskLevel
	Message           string
	Metrics           Metrics
	Source            string
	RecommendedAction string
	Timestamp         time.Time
}

// AlertCallback receives every alert the detector raises, in addition to
// the eventbus publication.
type AlertCallback func(Alert)

// LeakDetector runs a periodic probe over a Manager's tracked resources
// and process memory, raising alerts on the event bus and via callback
// when thresholds are crossed. monitorLoop/probeOnce follow a "check
// everything, then evaluate" shape, generalized from provider health
// scores to process-resource health.
type LeakDetector struct {
	mgr       *Manager
	bus       *eventbus.Bus
	log       agentlog.Logger
	cfg       agentconfig.LeakDetectorConfig
	baselineMB float64
	nextAlert int64

	mu        sync.Mutex
	callbacks []AlertCallback
	lastProbe Metrics
	stopCh    chan struct{}
	stopped   bool
}

// NewLeakDetector builds a LeakDetector over mgr, publishing alerts on
// bus. baseline memory is captured from the first probe.
func NewLeakDetector(mgr *Manager, bus *eventbus.Bus, log agentlog.Logger, cfg agentconfig.LeakDetectorConfig) *LeakDetector {
	if log == nil {
		log = agentlog.NoopLogger{}
	}
	return &LeakDetector{mgr: mgr, bus: bus, log: log, cfg: cfg}
}

// OnAlert registers a callback invoked synchronously whenever the
// detector raises an alert, in addition to publishing it on the event
// bus.
func (d *LeakDetector) OnAlert(cb AlertCallback) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.callbacks = append(d.callbacks, cb)
}

func (d *LeakDetector) intervalOrDefault() time.Duration {
	if d.cfg.MonitoringInterval > 0 {
		return d.cfg.MonitoringInterval
	}
	return 30 * time.Second
}

// Start launches the periodic probe loop in a goroutine. Stop ends it.
// Calling Start twice without an intervening Stop is a no-op.
func (d *LeakDetector) Start(ctx context.Context) {
	d.mu.Lock()
	if d.stopCh != nil {
		d.mu.Unlock()
		return
	}
	d.stopCh = make(chan struct{})
	d.stopped = false
	d.mu.Unlock()

	go d.monitorLoop(ctx)
}

func (d *LeakDetector) monitorLoop(ctx context.Context) {
	ticker := time.NewTicker(d.intervalOrDefault())
	defer ticker.Stop()

	d.probeOnce(ctx) // run an initial probe before the first tick

	for {
		select {
		case <-ctx.Done():
			return
		case <-d.stopCh:
			return
		case <-ticker.C:
			d.probeOnce(ctx)
		}
	}
}

// Stop ends the monitor loop. Safe to call multiple times.
func (d *LeakDetector) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped || d.stopCh == nil {
		return
	}
	close(d.stopCh)
	d.stopped = true
}

// Probe runs one probe synchronously and returns its metrics, for
// callers that want an on-demand check outside the ticker cadence.
func (d *LeakDetector) Probe(ctx context.Context) Metrics {
	return d.probeOnce(ctx)
}

func (d *LeakDetector) probeOnce(ctx context.Context) Metrics {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	heapUsedMB := float64(ms.HeapAlloc) / (1024 * 1024)
	heapTotalMB := float64(ms.HeapSys) / (1024 * 1024)
	externalMB := float64(ms.Sys-ms.HeapSys) / (1024 * 1024)
	rssApproxMB := float64(ms.Sys) / (1024 * 1024)

	d.mu.Lock()
	if d.baselineMB == 0 {
		d.baselineMB = heapUsedMB
	}
	baseline := d.baselineMB
	d.mu.Unlock()

	heapUsagePercent := 0.0
	if heapTotalMB > 0 {
		heapUsagePercent = (heapUsedMB / heapTotalMB) * 100
	}

	metrics := Metrics{
		HeapUsedMB:        heapUsedMB,
		HeapTotalMB:       heapTotalMB,
		RSSApproxMB:       rssApproxMB,
		ExternalMB:        externalMB,
		HeapUsagePercent:  heapUsagePercent,
		GrowthSinceBaseMB: heapUsedMB - baseline,
		ActiveTimers:      d.mgr.Count(KindTimer),
		PendingPromises:   d.mgr.Count(KindPromise),
		Listeners:         d.mgr.Count(KindListener),
	}
	if d.bus != nil {
		metrics.EventBusListeners = d.bus.Stats().ActiveListeners
	}
	metrics.Risk = d.classify(metrics)

	d.mu.Lock()
	d.lastProbe = metrics
	d.mu.Unlock()

	d.evaluateAlerts(ctx, metrics)
	d.autoCleanup(ctx)

	return metrics
}

func (d *LeakDetector) classify(m Metrics) RiskLevel {
	th := d.cfg.Thresholds
	crossings := 0
	if th.MemoryGrowthMB > 0 && m.GrowthSinceBaseMB > th.MemoryGrowthMB {
		crossings++
	}
	if th.MaxActiveTimers > 0 && m.ActiveTimers > th.MaxActiveTimers {
		crossings++
	}
	if th.MaxPendingPromises > 0 && m.PendingPromises > th.MaxPendingPromises {
		crossings++
	}
	if th.MaxHeapUsagePercent > 0 && m.HeapUsagePercent > th.MaxHeapUsagePercent {
		crossings++
	}
	if th.MaxListenersPerObject > 0 && m.Listeners > th.MaxListenersPerObject {
		crossings++
	}

	switch {
	case crossings >= 3:
		return RiskCritical
	case crossings == 2:
		return RiskHigh
	case crossings == 1:
		return RiskMedium
	default:
		return RiskLow
	}
}

func (d *LeakDetector) evaluateAlerts(ctx context.Context, m Metrics) {
	th := d.cfg.Thresholds

	if th.MemoryGrowthMB > 0 && m.GrowthSinceBaseMB > th.MemoryGrowthMB {
		d.raise(ctx, AlertMemoryGrowth, m, "heap has grown beyond the configured threshold since baseline", "inspect long-lived allocations and caches for unbounded growth")
	}
	if th.MaxHeapUsagePercent > 0 && m.HeapUsagePercent > th.MaxHeapUsagePercent {
		d.raise(ctx, AlertHeapOverflow, m, "heap usage percent exceeds the configured ceiling", "reduce retained allocations or raise GOMEMLIMIT")
	}
	if th.MaxActiveTimers > 0 && m.ActiveTimers > th.MaxActiveTimers {
		d.raise(ctx, AlertTimerLeak, m, "more active timers are tracked than the configured maximum", "audit acquired timers for missing Release calls")
	}
	if th.MaxPendingPromises > 0 && m.PendingPromises > th.MaxPendingPromises {
		d.raise(ctx, AlertPromiseLeak, m, "more pending async tasks are tracked than the configured maximum", "check for unresolved tool calls or stuck goroutines")
	}
	if th.MaxListenersPerObject > 0 && m.Listeners > th.MaxListenersPerObject {
		d.raise(ctx, AlertListenerLeak, m, "more listeners are tracked than the configured maximum", "verify subscribers are unsubscribed on scope teardown")
	}
	if m.Risk == RiskCritical {
		d.raise(ctx, AlertResourceLeak, m, "multiple leak thresholds crossed simultaneously", "dispose the current resource manager boundary and investigate before continuing")
	}
}

func (d *LeakDetector) raise(ctx context.Context, t AlertType, m Metrics, message, action string) {
	d.mu.Lock()
	d.nextAlert++
	id := "leak-alert-" + itoaLeak(d.nextAlert)
	callbacks := make([]AlertCallback, len(d.callbacks))
	copy(callbacks, d.callbacks)
	d.mu.Unlock()

	alert := Alert{
		ID:                id,
		Type:              t,
		Severity:          m.Risk,
		Message:           message,
		Metrics:           m,
		Source:            "resource.leakdetector",
		RecommendedAction: action,
		Timestamp:         time.Now(),
	}

	d.log.Warn(ctx, "resource: leak alert raised", agentlog.F("type", string(t)), agentlog.F("severity", string(m.Risk)))

	if d.bus != nil {
		d.bus.Publish(ctx, eventbus.Event{
			Type:     "system.memory.leak.detected",
			Source:   "resource.leakdetector",
			Critical: m.Risk == RiskHigh || m.Risk == RiskCritical,
			Data: map[string]any{
				"alertId": id,
				"type":    string(t),
				"message": message,
			},
		})
	}

	for _, cb := range callbacks {
		func() {
			defer func() { recover() }()
			cb(alert)
		}()
	}
}

// autoCleanup disposes resources older than MaxResourceAge when enabled,
// optionally hinting the garbage collector afterward.
func (d *LeakDetector) autoCleanup(ctx context.Context) {
	ac := d.cfg.AutoCleanup
	if !ac.Enabled || ac.MaxResourceAge <= 0 {
		return
	}

	threshold := time.Now().Add(-ac.MaxResourceAge).UnixNano()
	stale := d.mgr.OlderThan(threshold)
	for _, id := range stale {
		if err := d.mgr.Release(id); err != nil {
			d.log.Warn(ctx, "resource: auto-cleanup release failed", agentlog.F("resourceId", id), agentlog.F("error", err.Error()))
		}
	}
	if len(stale) > 0 && ac.ForceGC {
		runtime.GC()
	}
}

// LastProbe returns the metrics from the most recently completed probe.
func (d *LeakDetector) LastProbe() Metrics {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lastProbe
}

func itoaLeak(n int64) string {
	if n == 0 {
		return "0"
	}
	digits := make([]byte, 0, 8)
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}
