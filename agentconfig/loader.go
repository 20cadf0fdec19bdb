package agentconfig

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Load reads a YAML config file starting from Development() defaults and
// overlaying whatever the file specifies. Unknown keys are rejected via
// yaml.Decoder.KnownFields, so a typo in a config file fails loudly
// instead of silently keeping the default.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Development()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config YAML: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// LoadWithEnvOverrides loads a config file and then applies a fixed set
// of environment variable overrides on top of it.
//
// Recognized variables:
//   - AGENTCORE_LOG_LEVEL
//   - AGENTCORE_MAX_PARALLEL_STEPS
//   - AGENTCORE_TELEMETRY_SAMPLING_RATE
//   - AGENTCORE_EVENTBUS_BACKEND
func LoadWithEnvOverrides(path string) (*Config, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	if level := os.Getenv("AGENTCORE_LOG_LEVEL"); level != "" {
		cfg.Logger.Level = level
	}
	if maxSteps := os.Getenv("AGENTCORE_MAX_PARALLEL_STEPS"); maxSteps != "" {
		if v, err := strconv.Atoi(maxSteps); err == nil {
			cfg.Scheduler.MaxParallelSteps = v
		}
	}
	if rate := os.Getenv("AGENTCORE_TELEMETRY_SAMPLING_RATE"); rate != "" {
		if v, err := strconv.ParseFloat(rate, 64); err == nil {
			cfg.Telemetry.Sampling.Rate = v
		}
	}
	if backend := os.Getenv("AGENTCORE_EVENTBUS_BACKEND"); backend != "" {
		cfg.EventBus.Backend = backend
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration after env overrides: %w", err)
	}
	return cfg, nil
}

// Save validates cfg and writes it to path as YAML, creating parent
// directories as needed.
func Save(cfg *Config, path string) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("cannot save invalid configuration: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate checks cfg for internally inconsistent values before it is
// handed to the planner/scheduler/eventbus constructors.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("agentconfig: environment must be set")
	}
	if c.Scheduler.MaxParallelSteps < 0 {
		return fmt.Errorf("agentconfig: scheduler.maxParallelSteps must be >= 0")
	}
	if c.Scheduler.DefaultRetryLimit < 0 {
		return fmt.Errorf("agentconfig: scheduler.defaultRetryLimit must be >= 0")
	}
	if c.Telemetry.Sampling.Rate < 0 || c.Telemetry.Sampling.Rate > 1 {
		return fmt.Errorf("agentconfig: telemetry.sampling.rate must be within [0,1]")
	}
	if c.EventBus.Backend != "" && c.EventBus.Backend != "memory" && c.EventBus.Backend != "redis" {
		return fmt.Errorf("agentconfig: eventBus.backend must be 'memory' or 'redis', got %q", c.EventBus.Backend)
	}
	if c.EventBus.Backend == "redis" && c.EventBus.RedisAddr == "" {
		return fmt.Errorf("agentconfig: eventBus.redisAddr is required when backend is 'redis'")
	}
	if c.Scheduler.RateLimit.Enabled && c.Scheduler.RateLimit.RequestsPerSecond <= 0 {
		return fmt.Errorf("agentconfig: scheduler.rateLimit.requestsPerSecond must be > 0 when enabled")
	}
	return nil
}
