package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/DukeRupert/readyhire/internal"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Profile ProfileConfig `toml:"profile"`
	State   StateConfig   `toml:"state"`
	AI      AIConfig      `toml:"ai"`
}

// ProfileConfig supplies defaults for sign-in and generation flags.
type ProfileConfig struct {
	Email         *string `toml:"email"`
	Name          *string `toml:"name"`
	TargetRole    *string `toml:"target_role"`
	TargetCompany *string `toml:"target_company"`
}

// StateConfig maps the device state settings.
type StateConfig struct {
	Backend   *string `toml:"backend"`
	Path      *string `toml:"path"`
	Namespace *string `toml:"namespace"`
}

// AIConfig maps provider and retry settings.
type AIConfig struct {
	Provider    *string `toml:"provider"`
	Model       *string `toml:"model"`
	MaxAttempts *int    `toml:"max_attempts"`
	RetryDelay  *string `toml:"retry_delay"`
}

// DefaultConfigPath is $XDG_CONFIG_HOME/readyhire/config.toml.
func DefaultConfigPath() string {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "config.toml"
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "readyhire", "config.toml")
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}

// Apply copies file settings into cfg. Environment variables win, so a
// value is only taken when its variable is unset.
func (f FileConfig) Apply(cfg *internal.Config) error {
	setString(&cfg.StateBackend, "STATE_BACKEND", f.State.Backend)
	cfg.StateBackend = strings.ToLower(cfg.StateBackend)
	setString(&cfg.StatePath, "STATE_PATH", f.State.Path)
	setString(&cfg.StateNamespace, "STATE_NAMESPACE", f.State.Namespace)

	setString(&cfg.AIProvider, "AI_PROVIDER", f.AI.Provider)
	setString(&cfg.AnthropicModel, "ANTHROPIC_MODEL", f.AI.Model)
	if f.AI.MaxAttempts != nil && !isSet("AI_MAX_ATTEMPTS") {
		cfg.AIMaxAttempts = *f.AI.MaxAttempts
	}
	if f.AI.RetryDelay != nil && !isSet("AI_RETRY_DELAY") {
		d, err := time.ParseDuration(*f.AI.RetryDelay)
		if err != nil {
			return fmt.Errorf("ai.retry_delay: %w", err)
		}
		cfg.AIRetryDelay = d
	}

	// The CLI writes logs to stderr; keep them quiet unless asked.
	if !isSet("LOG_LEVEL") {
		cfg.LogLevel = "warn"
	}
	return cfg.Validate()
}

func setString(dst *string, env string, v *string) {
	if v != nil && !isSet(env) {
		*dst = *v
	}
}

func isSet(env string) bool {
	_, ok := os.LookupEnv(env)
	return ok
}

// stringOr returns *v, or fallback when v is nil.
func stringOr(v *string, fallback string) string {
	if v == nil {
		return fallback
	}
	return *v
}
