package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 2, cfg.WorkerCount)
	assert.Equal(t, 5, cfg.JobWorkerCount)
	assert.Equal(t, 2*time.Hour, cfg.Reminder1Delay)
	assert.Equal(t, 24*time.Hour, cfg.Reminder2Delay)
	assert.Equal(t, 24*time.Hour, cfg.UnresponsiveTimeout)
	assert.Equal(t, "gemini-2.5-flash", cfg.GeminiModelID)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("REMINDER1_DELAY", "15m")
	t.Setenv("JOB_WORKER_COUNT", "10")
	t.Setenv("USE_MEMORY_QUEUE", "true")
	t.Setenv("LOG_LEVEL", "debug")

	cfg := Load()

	assert.Equal(t, 15*time.Minute, cfg.Reminder1Delay)
	assert.Equal(t, 10, cfg.JobWorkerCount)
	assert.True(t, cfg.UseMemoryQueue)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestDurationFallbackOnGarbage(t *testing.T) {
	t.Setenv("UNRESPONSIVE_TIMEOUT", "not-a-duration")
	cfg := Load()
	assert.Equal(t, 24*time.Hour, cfg.UnresponsiveTimeout)
}
