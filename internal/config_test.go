package internal

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DukeRupert/readyhire/internal/ai/anthropic"
	"github.com/DukeRupert/readyhire/internal/ai/gateway"
	"github.com/DukeRupert/readyhire/internal/ai/mock"
	"github.com/DukeRupert/readyhire/internal/kvstore"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func validConfig() Config {
	return Config{
		StateBackend:     StateBackendSQLite,
		AIProvider:       "mock",
		AIMaxAttempts:    2,
		RolloverInterval: time.Hour,
	}
}

func TestNewConfig_Defaults(t *testing.T) {
	for _, key := range []string{"ENV", "PORT", "AI_PROVIDER", "STATE_BACKEND", "AI_MAX_ATTEMPTS", "RATE_LIMIT_REQUESTS", "STRIPE_SECRET_KEY", "SYNC_ON_START"} {
		t.Setenv(key, "")
	}

	cfg, err := NewConfig()
	require.NoError(t, err)
	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "mock", cfg.AIProvider)
	assert.Equal(t, StateBackendSQLite, cfg.StateBackend)
	assert.Equal(t, 2, cfg.AIMaxAttempts)
	assert.Equal(t, 30, cfg.RateLimitRequests)
	assert.False(t, cfg.BillingEnabled())
	assert.False(t, cfg.IsProduction())
	assert.True(t, cfg.SyncOnStart)
}

func TestNewConfig_FromEnvironment(t *testing.T) {
	t.Setenv("ENV", "production")
	t.Setenv("PORT", "9000")
	t.Setenv("STATE_BACKEND", "MEMORY")
	t.Setenv("AI_RETRY_DELAY", "250ms")
	t.Setenv("RATE_LIMIT_WINDOW", "not-a-duration")
	t.Setenv("STRIPE_SECRET_KEY", "sk_test_x")
	t.Setenv("AI_PROVIDER", "")
	t.Setenv("AI_MAX_ATTEMPTS", "")
	t.Setenv("SYNC_ON_START", "false")

	cfg, err := NewConfig()
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, StateBackendMemory, cfg.StateBackend)
	assert.Equal(t, 250*time.Millisecond, cfg.AIRetryDelay)
	assert.Equal(t, time.Minute, cfg.RateLimitWindow, "unparsable durations keep the default")
	assert.True(t, cfg.BillingEnabled())
	assert.False(t, cfg.SyncOnStart)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "unknown backend", mutate: func(c *Config) { c.StateBackend = "redis" }, wantErr: "STATE_BACKEND"},
		{name: "postgres without url", mutate: func(c *Config) { c.StateBackend = StateBackendPostgres }, wantErr: "DATABASE_URL"},
		{name: "r2 without account", mutate: func(c *Config) { c.StateBackend = StateBackendR2 }, wantErr: "R2_ACCOUNT_ID"},
		{
			name: "r2 without bucket",
			mutate: func(c *Config) {
				c.StateBackend = StateBackendR2
				c.R2AccountID, c.R2AccessKeyID, c.R2SecretAccessKey = "acct", "key", "secret"
			},
			wantErr: "R2_BUCKET_NAME",
		},
		{name: "anthropic without key", mutate: func(c *Config) { c.AIProvider = "anthropic" }, wantErr: "ANTHROPIC_API_KEY"},
		{name: "unknown provider", mutate: func(c *Config) { c.AIProvider = "openai" }, wantErr: "AI_PROVIDER"},
		{name: "gateway without url", mutate: func(c *Config) { c.AIProvider = "gateway" }, wantErr: "GATEWAY_URL"},
		{name: "zero attempts", mutate: func(c *Config) { c.AIMaxAttempts = 0 }, wantErr: "AI_MAX_ATTEMPTS"},
		{name: "zero rollover", mutate: func(c *Config) { c.RolloverInterval = 0 }, wantErr: "ROLLOVER_INTERVAL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestNewProvider(t *testing.T) {
	cfg := validConfig()
	p, err := NewProvider(&cfg, discardLogger())
	require.NoError(t, err)
	assert.IsType(t, &mock.Provider{}, p)

	cfg.AIProvider = "anthropic"
	cfg.AnthropicAPIKey = "sk-ant-test"
	p, err = NewProvider(&cfg, discardLogger())
	require.NoError(t, err)
	assert.IsType(t, &anthropic.Provider{}, p)

	cfg.AIProvider = "gateway"
	cfg.GatewayURL = "https://readyhire.example.com/"
	p, err = NewProvider(&cfg, discardLogger())
	require.NoError(t, err)
	assert.IsType(t, &gateway.Client{}, p)
}

func TestNewBilling(t *testing.T) {
	cfg := validConfig()
	assert.Nil(t, NewBilling(&cfg))

	cfg.StripeSecretKey = "sk_test_x"
	assert.NotNil(t, NewBilling(&cfg))
}

func TestNewVerifier(t *testing.T) {
	cfg := validConfig()
	v, err := NewVerifier(&cfg, discardLogger())
	require.NoError(t, err)
	assert.Nil(t, v)

	cfg.AIProvider = "gateway"
	cfg.GatewayURL = "https://readyhire.example.com"
	v, err = NewVerifier(&cfg, discardLogger())
	require.NoError(t, err)
	assert.IsType(t, &gateway.Client{}, v)

	cfg.StripeSecretKey = "sk_test_x"
	v, err = NewVerifier(&cfg, discardLogger())
	require.NoError(t, err)
	assert.NotNil(t, v)
	assert.NotEqual(t, "*gateway.Client", fmt.Sprintf("%T", v), "a local Stripe key wins")
}

func TestOpenState(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(c *Config, dir string)
	}{
		{name: "memory", mutate: func(c *Config, dir string) { c.StateBackend = StateBackendMemory }},
		{
			name: "sqlite",
			mutate: func(c *Config, dir string) {
				c.StateBackend = StateBackendSQLite
				c.StatePath = filepath.Join(dir, "nested", "state.db")
			},
		},
		{
			name: "file",
			mutate: func(c *Config, dir string) {
				c.StateBackend = StateBackendFile
				c.LocalStoragePath = dir
				c.StateNamespace = "laptop"
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg, t.TempDir())

			store, err := OpenState(ctx, &cfg, discardLogger())
			require.NoError(t, err)
			defer store.Close()

			store.Save(ctx, kvstore.KeyTargetCompany, "Northwind")
			var got string
			require.True(t, store.Load(ctx, kvstore.KeyTargetCompany, &got))
			assert.Equal(t, "Northwind", got)
		})
	}

	t.Run("unknown", func(t *testing.T) {
		cfg := validConfig()
		cfg.StateBackend = "redis"
		_, err := OpenState(ctx, &cfg, discardLogger())
		assert.Error(t, err)
	})
}

func TestDefaultStatePath(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/tmp/xdg-data")
	assert.Equal(t, filepath.Join("/tmp/xdg-data", "readyhire", "state.db"), DefaultStatePath())

	os.Unsetenv("XDG_DATA_HOME")
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".local", "share", "readyhire"), DataDir())
}

func TestNewLogger_Levels(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "production", "warn")
	logger.Info("hidden")
	logger.Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)
	assert.Contains(t, buf.String(), `"app":"readyhire"`)
}
