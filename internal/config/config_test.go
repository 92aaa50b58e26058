package config

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/illarion/envseal/internal/verifier"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv unsets every ENVSEAL_ variable until the test ends
func clearEnv(t *testing.T) {
	t.Helper()
	for _, kv := range os.Environ() {
		key, _, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(key, "ENVSEAL_") {
			t.Setenv(key, "")
			require.NoError(t, os.Unsetenv(key))
		}
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ENVSEAL_LOCKOUT_THRESHOLD", "9")
	t.Setenv("ENVSEAL_PASSWORD", "ambient")
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ".envseal", cfg.VaultPath)
	assert.Equal(t, 3, cfg.LockoutThreshold)
	assert.Equal(t, 3*time.Hour, cfg.LockoutDuration)
	assert.Equal(t, verifier.LegacyAccept, cfg.LegacyPolicy)
	assert.True(t, cfg.Keyring)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Nil(t, cfg.PasswordBytes())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("ENVSEAL_VAULT", "/tmp/custom.db")
	t.Setenv("ENVSEAL_PASSWORD", "from-env")
	t.Setenv("ENVSEAL_NEW_PASSWORD", "next-password")
	t.Setenv("ENVSEAL_LOCKOUT_THRESHOLD", "5")
	t.Setenv("ENVSEAL_LOCKOUT_DURATION", "15m")
	t.Setenv("ENVSEAL_LEGACY_POLICY", "reject")
	t.Setenv("ENVSEAL_KEYRING", "false")
	t.Setenv("ENVSEAL_LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/tmp/custom.db", cfg.VaultPath)
	assert.Equal(t, []byte("from-env"), cfg.PasswordBytes())
	assert.Equal(t, "next-password", cfg.NewPassword)
	assert.Equal(t, 5, cfg.LockoutThreshold)
	assert.Equal(t, 15*time.Minute, cfg.LockoutDuration)
	assert.Equal(t, verifier.LegacyReject, cfg.LegacyPolicy)
	assert.False(t, cfg.Keyring)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := map[string]map[string]string{
		"unknown policy":     {"ENVSEAL_LEGACY_POLICY": "sometimes"},
		"zero threshold":     {"ENVSEAL_LOCKOUT_THRESHOLD": "0"},
		"negative duration":  {"ENVSEAL_LOCKOUT_DURATION": "-1h"},
		"unparsable number":  {"ENVSEAL_LOCKOUT_THRESHOLD": "three"},
		"unparsable boolean": {"ENVSEAL_KEYRING": "perhaps"},
	}

	for name, vars := range tests {
		t.Run(name, func(t *testing.T) {
			for k, v := range vars {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestValidateCollectsAllErrors(t *testing.T) {
	cfg := &Config{LockoutThreshold: 0, LockoutDuration: 0, LegacyPolicy: verifier.LegacyPolicy(9)}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ENVSEAL_VAULT")
	assert.Contains(t, err.Error(), "THRESHOLD")
	assert.Contains(t, err.Error(), "DURATION")
	assert.Contains(t, err.Error(), "legacy policy")
}
