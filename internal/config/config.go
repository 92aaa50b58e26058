// Package config loads envseal settings from the environment.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/illarion/envseal/internal/verifier"
)

// Config holds all runtime settings. Every field maps to an ENVSEAL_*
// environment variable.
type Config struct {
	// VaultPath is the bbolt database file.
	VaultPath string `env:"VAULT" envDefault:".envseal"`

	// Password, when set, is used instead of prompting. Meant for CI.
	Password string `env:"PASSWORD"`

	// NewPassword supplies the new password for project creation and rotation.
	NewPassword string `env:"NEW_PASSWORD"`

	// LockoutThreshold is the number of consecutive failures that lock a project.
	LockoutThreshold int `env:"LOCKOUT_THRESHOLD" envDefault:"3"`

	// LockoutDuration is how long a project stays locked.
	LockoutDuration time.Duration `env:"LOCKOUT_DURATION" envDefault:"3h"`

	// LegacyPolicy decides how projects without a verification record unlock.
	LegacyPolicy verifier.LegacyPolicy `env:"LEGACY_POLICY" envDefault:"accept"`

	// Keyring enables caching validated passwords in the OS keyring.
	Keyring bool `env:"KEYRING" envDefault:"true"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"warn"`
}

const envPrefix = "ENVSEAL_"

// Load parses the environment and validates the result
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: envPrefix}); err != nil {
		return nil, fmt.Errorf("error getting env configs: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges
func (c *Config) Validate() error {
	var errs []error
	if c.VaultPath == "" {
		errs = append(errs, errors.New("ENVSEAL_VAULT must not be empty"))
	}
	if c.LockoutThreshold < 1 {
		errs = append(errs, fmt.Errorf("ENVSEAL_LOCKOUT_THRESHOLD must be at least 1, got %d", c.LockoutThreshold))
	}
	if c.LockoutDuration <= 0 {
		errs = append(errs, fmt.Errorf("ENVSEAL_LOCKOUT_DURATION must be positive, got %s", c.LockoutDuration))
	}
	switch c.LegacyPolicy {
	case verifier.LegacyAccept, verifier.LegacyReject:
	default:
		errs = append(errs, fmt.Errorf("unsupported legacy policy %s", c.LegacyPolicy))
	}
	return errors.Join(errs...)
}

// PasswordBytes returns a copy of the configured password, or nil
func (c *Config) PasswordBytes() []byte {
	if c.Password == "" {
		return nil
	}
	return []byte(c.Password)
}
