package internal

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// State backends for device-local key-value storage.
const (
	StateBackendSQLite   = "sqlite"
	StateBackendFile     = "file"
	StateBackendR2       = "r2"
	StateBackendPostgres = "postgres"
	StateBackendMemory   = "memory"
)

type Config struct {
	Env      string
	Port     int
	LogLevel string

	// Application base URL (checkout return links)
	BaseURL string
	// CORSOrigin is sent as Access-Control-Allow-Origin on API routes.
	CORSOrigin string

	// AI Provider Configuration
	AIProvider       string // "anthropic", "gateway" or "mock"
	GatewayURL       string // ReadyHire gateway root for the gateway provider
	AnthropicAPIKey  string
	AnthropicModel   string
	AIRequestTimeout time.Duration

	// Generation retry policy used by the practice client
	AIMaxAttempts int
	AIRetryDelay  time.Duration

	// Per-IP limit on the AI endpoints
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// Stripe Billing Configuration
	// Billing routes answer 501 when the secret key is empty.
	StripeSecretKey     string
	StripeWebhookSecret string

	StripeStandardMonthlyPriceID string
	StripeStandardAnnualPriceID  string
	StripeProMonthlyPriceID      string
	StripeProAnnualPriceID       string

	// Refresh the cached tier from billing when a practice session opens
	SyncOnStart bool

	// Device state
	StateBackend   string // sqlite, file, r2, postgres or memory
	StatePath      string // sqlite file
	StateNamespace string // key prefix for shared backends
	DatabaseUrl    string

	// Local Storage (file backend)
	LocalStoragePath string
	LocalStorageURL  string

	// R2 Storage (r2 backend)
	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string
	R2PublicURL       string

	// How often the monthly usage rollover is checked
	RolloverInterval time.Duration

	// Metrics endpoint authentication
	// If both are empty, the /metrics endpoint will be unprotected (not recommended)
	MetricsUsername string
	MetricsPassword string
}

// NewConfig reads configuration from the environment and an optional .env file.
func NewConfig() (*Config, error) {
	// Load .env file if it exists (ignored in production)
	_ = godotenv.Load()

	cfg := &Config{
		Env:      getEnv("ENV", "development"),
		Port:     getEnvInt("PORT", 8080),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		BaseURL:    getEnv("BASE_URL", "http://localhost:8080"),
		CORSOrigin: getEnv("CORS_ORIGIN", "*"),

		AIProvider:       getEnv("AI_PROVIDER", "mock"),
		GatewayURL:       getEnv("GATEWAY_URL", ""),
		AnthropicAPIKey:  getEnv("ANTHROPIC_API_KEY", ""),
		AnthropicModel:   getEnv("ANTHROPIC_MODEL", "claude-3-5-haiku-20241022"),
		AIRequestTimeout: getEnvDuration("AI_REQUEST_TIMEOUT", 60*time.Second),

		AIMaxAttempts: getEnvInt("AI_MAX_ATTEMPTS", 2),
		AIRetryDelay:  getEnvDuration("AI_RETRY_DELAY", time.Second),

		RateLimitRequests: getEnvInt("RATE_LIMIT_REQUESTS", 30),
		RateLimitWindow:   getEnvDuration("RATE_LIMIT_WINDOW", time.Minute),

		StripeSecretKey:     getEnv("STRIPE_SECRET_KEY", ""),
		StripeWebhookSecret: getEnv("STRIPE_WEBHOOK_SECRET", ""),

		StripeStandardMonthlyPriceID: getEnv("STRIPE_PRICE_STANDARD_MONTHLY", ""),
		StripeStandardAnnualPriceID:  getEnv("STRIPE_PRICE_STANDARD_ANNUAL", ""),
		StripeProMonthlyPriceID:      getEnv("STRIPE_PRICE_PRO_MONTHLY", ""),
		StripeProAnnualPriceID:       getEnv("STRIPE_PRICE_PRO_ANNUAL", ""),

		SyncOnStart: getEnvBool("SYNC_ON_START", true),

		StateBackend:   strings.ToLower(getEnv("STATE_BACKEND", StateBackendSQLite)),
		StatePath:      getEnv("STATE_PATH", ""),
		StateNamespace: getEnv("STATE_NAMESPACE", "default"),
		DatabaseUrl:    getEnv("DATABASE_URL", ""),

		LocalStoragePath: getEnv("LOCAL_STORAGE_PATH", "./state"),
		LocalStorageURL:  getEnv("LOCAL_STORAGE_URL", "file://state"),

		R2AccountID:       getEnv("R2_ACCOUNT_ID", ""),
		R2AccessKeyID:     getEnv("R2_ACCESS_KEY_ID", ""),
		R2SecretAccessKey: getEnv("R2_SECRET_ACCESS_KEY", ""),
		R2BucketName:      getEnv("R2_BUCKET_NAME", ""),
		R2PublicURL:       getEnv("R2_PUBLIC_URL", ""),

		RolloverInterval: getEnvDuration("ROLLOVER_INTERVAL", time.Hour),

		MetricsUsername: getEnv("METRICS_USERNAME", ""),
		MetricsPassword: getEnv("METRICS_PASSWORD", ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that every selected backend has what it needs.
func (c *Config) Validate() error {
	switch c.StateBackend {
	case StateBackendSQLite, StateBackendFile, StateBackendMemory:
	case StateBackendPostgres:
		if c.DatabaseUrl == "" {
			return fmt.Errorf("DATABASE_URL is required when STATE_BACKEND is 'postgres'")
		}
	case StateBackendR2:
		if c.R2AccountID == "" {
			return fmt.Errorf("R2_ACCOUNT_ID is required when STATE_BACKEND is 'r2'")
		}
		if c.R2AccessKeyID == "" {
			return fmt.Errorf("R2_ACCESS_KEY_ID is required when STATE_BACKEND is 'r2'")
		}
		if c.R2SecretAccessKey == "" {
			return fmt.Errorf("R2_SECRET_ACCESS_KEY is required when STATE_BACKEND is 'r2'")
		}
		if c.R2BucketName == "" {
			return fmt.Errorf("R2_BUCKET_NAME is required when STATE_BACKEND is 'r2'")
		}
	default:
		return fmt.Errorf("STATE_BACKEND must be one of sqlite, file, r2, postgres or memory, got: %s", c.StateBackend)
	}

	switch c.AIProvider {
	case "anthropic":
		if c.AnthropicAPIKey == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY is required when AI_PROVIDER is 'anthropic'")
		}
	case "gateway":
		if c.GatewayURL == "" {
			return fmt.Errorf("GATEWAY_URL is required when AI_PROVIDER is 'gateway'")
		}
	case "mock":
	default:
		return fmt.Errorf("AI_PROVIDER must be one of anthropic, gateway or mock, got: %s", c.AIProvider)
	}

	if c.AIMaxAttempts < 1 {
		return fmt.Errorf("AI_MAX_ATTEMPTS must be at least 1, got: %d", c.AIMaxAttempts)
	}
	if c.RolloverInterval <= 0 {
		return fmt.Errorf("ROLLOVER_INTERVAL must be positive, got: %s", c.RolloverInterval)
	}
	return nil
}

// BillingEnabled reports whether Stripe calls can be made.
func (c *Config) BillingEnabled() bool {
	return c.StripeSecretKey != ""
}

// IsProduction reports whether ENV is production.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
