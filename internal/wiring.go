package internal

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/DukeRupert/readyhire/internal/ai"
	"github.com/DukeRupert/readyhire/internal/ai/anthropic"
	"github.com/DukeRupert/readyhire/internal/ai/gateway"
	"github.com/DukeRupert/readyhire/internal/ai/mock"
	"github.com/DukeRupert/readyhire/internal/billing"
	"github.com/DukeRupert/readyhire/internal/kvstore"
	"github.com/DukeRupert/readyhire/internal/retry"
	"github.com/DukeRupert/readyhire/internal/storage"
)

// NewProvider builds the configured AI provider.
func NewProvider(cfg *Config, logger *slog.Logger) (ai.Provider, error) {
	switch cfg.AIProvider {
	case "anthropic":
		p, err := anthropic.New(anthropic.Config{
			APIKey:         cfg.AnthropicAPIKey,
			Model:          cfg.AnthropicModel,
			ProviderConfig: ai.ProviderConfig{RequestTimeout: cfg.AIRequestTimeout},
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("anthropic provider: %w", err)
		}
		return p, nil
	case "gateway":
		return newGatewayClient(cfg, logger)
	default:
		logger.Warn("using mock AI provider")
		return mock.New(logger), nil
	}
}

// NewBilling returns the Stripe service, or nil when billing is disabled.
func NewBilling(cfg *Config) billing.Service {
	if !cfg.BillingEnabled() {
		return nil
	}
	return billing.NewStripeService(cfg.StripeSecretKey, cfg.StripeWebhookSecret, cfg.BaseURL, billing.PriceConfig{
		StandardMonthlyPriceID: cfg.StripeStandardMonthlyPriceID,
		StandardAnnualPriceID:  cfg.StripeStandardAnnualPriceID,
		ProMonthlyPriceID:      cfg.StripeProMonthlyPriceID,
		ProAnnualPriceID:       cfg.StripeProAnnualPriceID,
	})
}

// NewVerifier returns what the practice client checks subscriptions with:
// Stripe directly when a secret key is set, otherwise the gateway's
// verify-subscription route when AI_PROVIDER is gateway. Nil means billing
// is unavailable.
func NewVerifier(cfg *Config, logger *slog.Logger) (billing.Verifier, error) {
	if b := NewBilling(cfg); b != nil {
		return b, nil
	}
	if cfg.AIProvider == "gateway" {
		return newGatewayClient(cfg, logger)
	}
	return nil, nil
}

func newGatewayClient(cfg *Config, logger *slog.Logger) (*gateway.Client, error) {
	c, err := gateway.New(gateway.Config{
		BaseURL:        cfg.GatewayURL,
		ProviderConfig: ai.ProviderConfig{RequestTimeout: cfg.AIRequestTimeout},
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("gateway provider: %w", err)
	}
	return c, nil
}

// GenerationPolicy is the retry policy for bank, CV and problem generation.
func (c *Config) GenerationPolicy() retry.Policy {
	return retry.Policy{MaxAttempts: c.AIMaxAttempts, Delay: c.AIRetryDelay}
}

// NewObjectStorage builds the object store for the file and r2 backends.
func NewObjectStorage(cfg *Config, logger *slog.Logger) (storage.Storage, error) {
	if cfg.StateBackend == StateBackendR2 {
		return storage.NewR2Storage(storage.R2Config{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicURL:       cfg.R2PublicURL,
		}, logger)
	}
	return storage.NewLocalStorage(storage.LocalConfig{
		BasePath: cfg.LocalStoragePath,
		BaseURL:  cfg.LocalStorageURL,
	}, logger)
}

// OpenState opens the configured device state backend. The caller closes
// the returned store.
func OpenState(ctx context.Context, cfg *Config, logger *slog.Logger) (*kvstore.Store, error) {
	var backend kvstore.Backend

	switch cfg.StateBackend {
	case StateBackendMemory:
		backend = kvstore.NewMemoryBackend()

	case StateBackendSQLite:
		path := cfg.StatePath
		if path == "" {
			path = DefaultStatePath()
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, fmt.Errorf("create state directory: %w", err)
		}
		b, err := kvstore.OpenSQLite(path)
		if err != nil {
			return nil, err
		}
		backend = b

	case StateBackendFile, StateBackendR2:
		objects, err := NewObjectStorage(cfg, logger)
		if err != nil {
			return nil, fmt.Errorf("state storage: %w", err)
		}
		backend = kvstore.NewObjectBackend(objects, cfg.StateNamespace)

	case StateBackendPostgres:
		db, err := sql.Open("pgx", cfg.DatabaseUrl)
		if err != nil {
			return nil, fmt.Errorf("database connection failed: %w", err)
		}
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("database ping failed: %w", err)
		}
		if err := RunMigrations(ctx, db, logger); err != nil {
			db.Close()
			return nil, fmt.Errorf("migration failed: %w", err)
		}
		backend = kvstore.NewPostgresBackend(db, cfg.StateNamespace)

	default:
		return nil, fmt.Errorf("unknown state backend %q", cfg.StateBackend)
	}

	logger.Debug("state backend ready", "backend", cfg.StateBackend)
	return kvstore.New(backend, logger), nil
}

// DataDir is $XDG_DATA_HOME/readyhire, falling back to ~/.local/share.
func DataDir() string {
	base := os.Getenv("XDG_DATA_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "readyhire"
		}
		base = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(base, "readyhire")
}

// DefaultStatePath is the sqlite file used when STATE_PATH is unset.
func DefaultStatePath() string {
	return filepath.Join(DataDir(), "state.db")
}
