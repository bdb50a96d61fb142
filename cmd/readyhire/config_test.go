package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DukeRupert/readyhire/internal"
)

func baseConfig() *internal.Config {
	return &internal.Config{
		StateBackend:     internal.StateBackendSQLite,
		StateNamespace:   "default",
		AIProvider:       "mock",
		AIMaxAttempts:    2,
		AIRetryDelay:     time.Second,
		RolloverInterval: time.Hour,
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfig_MissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Nil(t, cfg.State.Backend)
	assert.Nil(t, cfg.Profile.Email)

	_, err = LoadConfig("")
	assert.Error(t, err)
}

func TestLoadConfig_Decode(t *testing.T) {
	path := writeConfig(t, `
[profile]
email = "jo@example.com"
name = "Jo"

[state]
backend = "memory"
namespace = "laptop"

[ai]
max_attempts = 3
retry_delay = "250ms"
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.NotNil(t, cfg.Profile.Email)
	assert.Equal(t, "jo@example.com", *cfg.Profile.Email)
	assert.Equal(t, "memory", *cfg.State.Backend)
	assert.Nil(t, cfg.State.Path)
	assert.Equal(t, 3, *cfg.AI.MaxAttempts)

	_, err = LoadConfig(writeConfig(t, "[state\nbackend ="))
	assert.Error(t, err)
}

func TestApply_FileFillsUnsetValues(t *testing.T) {
	for _, key := range []string{"STATE_BACKEND", "STATE_PATH", "STATE_NAMESPACE", "AI_MAX_ATTEMPTS", "AI_RETRY_DELAY", "LOG_LEVEL"} {
		unsetEnv(t, key)
	}

	path := writeConfig(t, `
[state]
backend = "Memory"
namespace = "laptop"

[ai]
max_attempts = 3
retry_delay = "250ms"
`)
	file, err := LoadConfig(path)
	require.NoError(t, err)

	cfg := baseConfig()
	require.NoError(t, file.Apply(cfg))
	assert.Equal(t, internal.StateBackendMemory, cfg.StateBackend)
	assert.Equal(t, "laptop", cfg.StateNamespace)
	assert.Equal(t, 3, cfg.AIMaxAttempts)
	assert.Equal(t, 250*time.Millisecond, cfg.AIRetryDelay)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, 3, cfg.GenerationPolicy().MaxAttempts)
}

func TestApply_EnvironmentWins(t *testing.T) {
	t.Setenv("STATE_BACKEND", "sqlite")
	t.Setenv("LOG_LEVEL", "debug")

	backend := "memory"
	file := FileConfig{State: StateConfig{Backend: &backend}}

	cfg := baseConfig()
	cfg.LogLevel = "debug"
	require.NoError(t, file.Apply(cfg))
	assert.Equal(t, internal.StateBackendSQLite, cfg.StateBackend)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestApply_Errors(t *testing.T) {
	unsetEnv(t, "STATE_BACKEND")
	unsetEnv(t, "AI_RETRY_DELAY")

	delay := "soon"
	err := FileConfig{AI: AIConfig{RetryDelay: &delay}}.Apply(baseConfig())
	assert.ErrorContains(t, err, "ai.retry_delay")

	backend := "postgres"
	err = FileConfig{State: StateConfig{Backend: &backend}}.Apply(baseConfig())
	assert.ErrorContains(t, err, "DATABASE_URL")
}

func TestDefaultConfigPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	assert.Equal(t, filepath.Join("/tmp/xdg", "readyhire", "config.toml"), DefaultConfigPath())
}
