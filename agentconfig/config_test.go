package agentconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPresetsValidate(t *testing.T) {
	presets := []*Config{Development(), Production(), Test(), HighPerformance(), Minimal(), Debug()}
	for _, p := range presets {
		assert.NoError(t, p.Validate())
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "agentcore.yaml")

	original := Production()
	original.Scheduler.MaxParallelSteps = 7

	require.NoError(t, Save(original, path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7, loaded.Scheduler.MaxParallelSteps)
	assert.Equal(t, EnvProduction, loaded.Environment)
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "agentcore.yaml")
	require.NoError(t, os.WriteFile(path, []byte("environment: production\nbogusField: 1\n"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadWithEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "agentcore.yaml")
	require.NoError(t, Save(Development(), path))

	t.Setenv("AGENTCORE_LOG_LEVEL", "error")
	t.Setenv("AGENTCORE_MAX_PARALLEL_STEPS", "9")

	cfg, err := LoadWithEnvOverrides(path)
	require.NoError(t, err)
	assert.Equal(t, "error", cfg.Logger.Level)
	assert.Equal(t, 9, cfg.Scheduler.MaxParallelSteps)
}

func TestValidateRejectsBadSamplingRate(t *testing.T) {
	cfg := Development()
	cfg.Telemetry.Sampling.Rate = 1.5
	assert.Error(t, cfg.Validate())
}

func TestValidateRequiresRedisAddr(t *testing.T) {
	cfg := Development()
	cfg.EventBus.Backend = "redis"
	assert.Error(t, cfg.Validate())
	cfg.EventBus.RedisAddr = "localhost:6379"
	assert.NoError(t, cfg.Validate())
}
