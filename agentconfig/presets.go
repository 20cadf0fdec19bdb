package agentconfig

import "time"

// Development returns sane defaults for local iteration: pretty-printed
// debug logging, strict timeline transitions off, no rate limiting.
func Development() *Config {
	return &Config{
		Environment: EnvDevelopment,
		Logger: LoggerConfig{
			Level:       "debug",
			PrettyPrint: true,
		},
		EventBus: EventBusConfig{
			BufferSize:     1024,
			FlushInterval:  100 * time.Millisecond,
			ErrorThreshold: 10,
			Backend:        "memory",
		},
		Telemetry: TelemetryConfig{
			Enabled:     true,
			ServiceName: "agentcore-dev",
			Sampling:    SamplingConfig{Rate: 1.0},
			Features: TelemetryFeatures{
				TraceEvents:    true,
				TraceSnapshots: true,
				MetricsEnabled: true,
			},
		},
		Timeline: TimelineConfig{
			Enabled:         true,
			MaxAge:          30 * time.Minute,
			CleanupInterval: time.Minute,
		},
		Scheduler: SchedulerConfig{
			MaxParallelSteps:  4,
			DefaultTimeout:    30 * time.Second,
			DefaultRetryLimit: 2,
			RetryDelay:        500 * time.Millisecond,
		},
		LeakDetector: LeakDetectorConfig{
			MonitoringInterval: 15 * time.Second,
			Thresholds: LeakThresholds{
				MemoryGrowthMB:        256,
				MaxActiveTimers:       500,
				MaxPendingPromises:    500,
				MaxHeapUsagePercent:   85,
				MaxListenersPerObject: 50,
			},
			AutoCleanup: AutoCleanupConfig{
				Enabled:         true,
				MaxResourceAge:  10 * time.Minute,
				CleanupInterval: time.Minute,
			},
		},
	}
}

// Production favors throughput and resilience: JSON logging at info
// level, resource-aware admission, rate limiting, strict transitions.
func Production() *Config {
	c := Development()
	c.Environment = EnvProduction
	c.Logger.Level = "info"
	c.Logger.PrettyPrint = false
	c.Telemetry.Sampling.Rate = 0.1
	c.Telemetry.ServiceName = "agentcore"
	c.Timeline.StrictTransitions = true
	c.Scheduler.MaxParallelSteps = 16
	c.Scheduler.ResourceAware = true
	c.Scheduler.ResourceCaps = ResourceCaps{Memory: 80, CPU: 80, Network: 80}
	c.Scheduler.RateLimit = RateLimitConfig{Enabled: true, RequestsPerSecond: 20, Burst: 40}
	c.LeakDetector.AutoCleanup.ForceGC = true
	return c
}

// Test silences logging, disables telemetry and leak auto-cleanup, and
// zeroes the leak-detector monitoring and timeline cleanup intervals;
// resource.LeakDetector treats a zero monitoring interval as its 30s
// default.
func Test() *Config {
	c := Development()
	c.Environment = EnvTest
	c.Logger.Level = "silent"
	c.Telemetry.Enabled = false
	c.LeakDetector.MonitoringInterval = 0
	c.LeakDetector.AutoCleanup.Enabled = false
	c.Timeline.CleanupInterval = 0
	return c
}

// HighPerformance maximizes scheduler parallelism and samples telemetry
// sparsely, trading observability detail for throughput.
func HighPerformance() *Config {
	c := Production()
	c.Scheduler.MaxParallelSteps = 64
	c.Scheduler.RateLimit.RequestsPerSecond = 100
	c.Scheduler.RateLimit.Burst = 200
	c.Telemetry.Sampling.Rate = 0.01
	c.EventBus.BufferSize = 8192
	return c
}

// Minimal sets Telemetry.Enabled and Timeline.Enabled to false, keeps the
// event bus on the in-memory backend, and runs one step at a time, for
// embedding in a constrained host. LeakDetector.MonitoringInterval is
// left at zero, which resource.LeakDetector treats as its 30s default.
func Minimal() *Config {
	return &Config{
		Environment: EnvProduction,
		Logger:      LoggerConfig{Level: "warn"},
		EventBus:    EventBusConfig{BufferSize: 64, ErrorThreshold: 5, Backend: "memory"},
		Telemetry:   TelemetryConfig{Enabled: false},
		Timeline:    TimelineConfig{Enabled: false},
		Scheduler: SchedulerConfig{
			MaxParallelSteps:  1,
			DefaultTimeout:    15 * time.Second,
			DefaultRetryLimit: 0,
		},
		LeakDetector: LeakDetectorConfig{MonitoringInterval: 0},
	}
}

// Debug is development plus trace-level logging and full telemetry
// feature flags, for diagnosing a misbehaving plan.
func Debug() *Config {
	c := Development()
	c.Logger.Level = "trace"
	c.Telemetry.Features = TelemetryFeatures{
		TraceEvents:      true,
		TraceKernel:      true,
		TraceSnapshots:   true,
		TracePersistence: true,
		MetricsEnabled:   true,
	}
	return c
}
