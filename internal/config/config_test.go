package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ModeLocal, cfg.Mode)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "mock", cfg.LLM.Provider)
	assert.Equal(t, "memory", cfg.Storage.Backend)
	assert.Equal(t, "memory", cfg.RateLimit.Backend)
	assert.Equal(t, PolicyConfig{Window: time.Minute, Max: 20}, cfg.RateLimit.Chat)
	assert.Equal(t, PolicyConfig{Window: time.Minute, Max: 10}, cfg.RateLimit.Tasks)
	assert.Equal(t, PolicyConfig{Window: time.Minute, Max: 60}, cfg.RateLimit.Read)
	assert.InDelta(t, 0.01, cfg.RateLimit.SweepProbability, 1e-9)
	assert.Equal(t, 4, cfg.Mood.Workers)
	assert.Equal(t, 15*time.Second, cfg.Mood.Timeout)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("FARUM_SERVER_PORT", "9090")
	t.Setenv("FARUM_LLM_PROVIDER", "openai")
	t.Setenv("FARUM_LLM_API_KEY", "gsk-test")
	t.Setenv("FARUM_RATELIMIT_CHAT_MAX", "5")
	t.Setenv("FARUM_RATELIMIT_CHAT_WINDOW", "30s")
	t.Setenv("FARUM_TASKS_TIMEZONE", "Europe/Moscow")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, "gsk-test", cfg.LLM.APIKey)
	assert.Equal(t, PolicyConfig{Window: 30 * time.Second, Max: 5}, cfg.RateLimit.Chat)

	loc, err := cfg.Tasks.Location()
	require.NoError(t, err)
	assert.Equal(t, "Europe/Moscow", loc.String())
}

func TestLoadGCPModeDefaultsToVertex(t *testing.T) {
	t.Setenv("FARUM_MODE", "gcp")
	t.Setenv("FARUM_LLM_GCP_PROJECT", "farum-prod")
	t.Setenv("FARUM_AUTH_JWT_SECRET", "secret")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ModeGCP, cfg.Mode)
	assert.Equal(t, "vertex", cfg.LLM.Provider)
	assert.Equal(t, "farum-prod", cfg.Storage.GCPProject)
}

func TestValidateRejectsBadCombinations(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"gcp without secret", map[string]string{"FARUM_MODE": "gcp", "FARUM_LLM_GCP_PROJECT": "p"}},
		{"openai without key", map[string]string{"FARUM_LLM_PROVIDER": "openai"}},
		{"unknown provider", map[string]string{"FARUM_LLM_PROVIDER": "parrot"}},
		{"postgres without dsn", map[string]string{"FARUM_STORAGE_BACKEND": "postgres"}},
		{"zero rate budget", map[string]string{"FARUM_RATELIMIT_TASKS_MAX": "0"}},
		{"bad timezone", map[string]string{"FARUM_TASKS_TIMEZONE": "Mars/Olympus"}},
		{"zero mood timeout", map[string]string{"FARUM_MOOD_TIMEOUT": "0s"}},
		{"negative mood timeout", map[string]string{"FARUM_MOOD_TIMEOUT": "-5s"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			require.Error(t, err)
		})
	}
}
