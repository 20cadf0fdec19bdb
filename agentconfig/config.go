// Package agentconfig implements the module's single typed configuration
// surface: named sections for environment, logging, the event bus,
// telemetry, the timeline manager, the scheduler, and the leak detector,
// plus named presets, with YAML load/save, environment-variable
// overrides, and a Validate() pass before any section reaches a
// constructor.
package agentconfig

import "time"

// Environment selects a bundle of defaults.
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvProduction  Environment = "production"
	EnvTest        Environment = "test"
)

// LoggerConfig controls the agentlog package's default logger.
type LoggerConfig struct {
	Level       string   `yaml:"level"`
	PrettyPrint bool     `yaml:"prettyPrint"`
	Redact      []string `yaml:"redact"`
}

// EventBusConfig controls the eventbus package.
type EventBusConfig struct {
	BufferSize     int           `yaml:"bufferSize"`
	FlushInterval  time.Duration `yaml:"flushInterval"`
	ErrorThreshold int           `yaml:"errorThreshold"`
	Backend        string        `yaml:"backend"` // "memory" or "redis"
	RedisAddr      string        `yaml:"redisAddr"`
}

// TelemetryFeatures toggles individual tracer behaviors.
type TelemetryFeatures struct {
	TraceEvents      bool `yaml:"traceEvents"`
	TraceKernel      bool `yaml:"traceKernel"`
	TraceSnapshots   bool `yaml:"traceSnapshots"`
	TracePersistence bool `yaml:"tracePersistence"`
	MetricsEnabled   bool `yaml:"metricsEnabled"`
}

// SamplingConfig controls the tracer's probabilistic sampling.
type SamplingConfig struct {
	Rate float64 `yaml:"rate"`
}

// TelemetryConfig controls the tracer package.
type TelemetryConfig struct {
	Enabled     bool              `yaml:"enabled"`
	ServiceName string            `yaml:"serviceName"`
	Sampling    SamplingConfig    `yaml:"sampling"`
	Features    TelemetryFeatures `yaml:"features"`
}

// TimelineConfig controls the timeline package.
type TimelineConfig struct {
	Enabled          bool          `yaml:"enabled"`
	MaxAge           time.Duration `yaml:"maxAge"`
	CleanupInterval  time.Duration `yaml:"cleanupInterval"`
	StrictTransitions bool         `yaml:"strictTransitions"`
}

// ResourceCaps bounds admission in the scheduler's resource-aware mode.
type ResourceCaps struct {
	Memory  int `yaml:"memory"`
	CPU     int `yaml:"cpu"`
	Network int `yaml:"network"`
}

// SchedulerConfig controls the scheduler package.
type SchedulerConfig struct {
	MaxParallelSteps  int           `yaml:"maxParallelSteps"`
	DefaultTimeout    time.Duration `yaml:"defaultTimeout"`
	DefaultRetryLimit int           `yaml:"defaultRetryLimit"`
	RetryDelay        time.Duration `yaml:"retryDelay"`
	ResourceAware     bool          `yaml:"resourceAware"`
	ResourceCaps      ResourceCaps  `yaml:"resourceCaps"`
	RateLimit         RateLimitConfig `yaml:"rateLimit"`
}

// RateLimitConfig throttles outbound tool invocations via golang.org/x/time/rate.
type RateLimitConfig struct {
	Enabled           bool    `yaml:"enabled"`
	RequestsPerSecond float64 `yaml:"requestsPerSecond"`
	Burst             int     `yaml:"burst"`
}

// LeakThresholds are the crossing points the leak detector alerts on.
type LeakThresholds struct {
	MemoryGrowthMB        float64 `yaml:"memoryGrowthMb"`
	MaxActiveTimers       int     `yaml:"maxActiveTimers"`
	MaxPendingPromises    int     `yaml:"maxPendingPromises"`
	MaxHeapUsagePercent   float64 `yaml:"maxHeapUsagePercent"`
	MaxListenersPerObject int     `yaml:"maxListenersPerObject"`
}

// AutoCleanupConfig controls the resource manager's periodic sweep.
type AutoCleanupConfig struct {
	Enabled         bool          `yaml:"enabled"`
	MaxResourceAge  time.Duration `yaml:"maxResourceAge"`
	CleanupInterval time.Duration `yaml:"cleanupInterval"`
	ForceGC         bool          `yaml:"forceGC"`
}

// LeakDetectorConfig controls the resource package's leak detector.
type LeakDetectorConfig struct {
	MonitoringInterval time.Duration     `yaml:"monitoringInterval"`
	Thresholds         LeakThresholds    `yaml:"thresholds"`
	AutoCleanup        AutoCleanupConfig `yaml:"autoCleanup"`
}

// Config is the module's single typed configuration surface.
type Config struct {
	Environment  Environment         `yaml:"environment"`
	Logger       LoggerConfig        `yaml:"logger"`
	EventBus     EventBusConfig      `yaml:"eventBus"`
	Telemetry    TelemetryConfig     `yaml:"telemetry"`
	Timeline     TimelineConfig      `yaml:"timeline"`
	Scheduler    SchedulerConfig     `yaml:"scheduler"`
	LeakDetector LeakDetectorConfig  `yaml:"leakDetector"`
}
