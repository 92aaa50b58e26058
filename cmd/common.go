package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/illarion/envseal/internal/config"
	"github.com/illarion/envseal/internal/core"
	"github.com/illarion/envseal/internal/crypto"
	"github.com/illarion/envseal/internal/keyring"
	"github.com/illarion/envseal/internal/lockout"
	"github.com/illarion/envseal/internal/logger"
	"github.com/illarion/envseal/internal/storage"
)

// Env carries configuration and logging shared by all commands
type Env struct {
	Config *config.Config
	Log    *logger.Logger

	// prompt reads a password interactively
	prompt func(prompt string) ([]byte, error)
	// interactive reports whether prompting is possible
	interactive func() bool
	cipher      *crypto.Cipher
}

// LoadEnv reads configuration from ENVSEAL_* variables, exiting on error
func LoadEnv() *Env {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid configuration: %s\n", err)
		os.Exit(1)
	}
	return NewEnv(cfg, logger.NewCLI(cfg.LogLevel))
}

// NewEnv creates an Env prompting on the terminal
func NewEnv(cfg *config.Config, log *logger.Logger) *Env {
	return &Env{
		Config:      cfg,
		Log:         logger.OrNop(log),
		prompt:      core.ReadPassword,
		interactive: core.IsTerminal,
	}
}

func (e *Env) options() core.Options {
	return core.Options{
		Cipher: e.cipher,
		Lockout: lockout.Config{
			Threshold: e.Config.LockoutThreshold,
			Duration:  e.Config.LockoutDuration,
		},
		LegacyPolicy: e.Config.LegacyPolicy,
		Logger:       e.Log,
	}
}

// OpenVault opens the configured vault
func (e *Env) OpenVault() (*core.Vault, error) {
	return core.Open(e.Config.VaultPath, e.options())
}

// Unlock opens a session for project. The password is taken from
// ENVSEAL_PASSWORD, then the OS keyring, then a terminal prompt.
func (e *Env) Unlock(ctx context.Context, v *core.Vault, project string) (*core.Session, error) {
	if password := e.Config.PasswordBytes(); password != nil {
		defer crypto.ClearBytes(password)
		return v.Unlock(ctx, project, password)
	}

	if e.Config.Keyring {
		s, err := e.unlockFromKeyring(ctx, v, project)
		if s != nil || err != nil {
			return s, err
		}
	}

	if !e.interactive() {
		return nil, core.ErrPasswordRequired
	}
	password, err := e.prompt(fmt.Sprintf("Password for %s: ", project))
	if err != nil {
		return nil, err
	}
	defer crypto.ClearBytes(password)

	return v.Unlock(ctx, project, password)
}

// unlockFromKeyring tries the cached password. A stale entry is removed and
// the caller falls back to prompting; its failed attempt still counts.
func (e *Env) unlockFromKeyring(ctx context.Context, v *core.Vault, project string) (*core.Session, error) {
	p, err := v.Project(project)
	if err != nil {
		return nil, err
	}
	vaultID, err := v.VaultID()
	if err != nil {
		return nil, nil
	}

	password, err := keyring.GetPassword(vaultID, p.ID)
	if err != nil {
		if !errors.Is(err, keyring.ErrNotFound) {
			e.Log.Debug().Err(err).Msg("keyring unavailable")
		}
		return nil, nil
	}
	defer crypto.ClearBytes(password)

	s, err := v.Unlock(ctx, project, password)
	if err == nil {
		return s, nil
	}
	if !errors.Is(err, core.ErrWrongPassword) {
		return nil, err
	}

	if derr := keyring.DeletePassword(vaultID, p.ID); derr != nil {
		e.Log.Warn().Err(derr).Msg("failed to remove stale keyring entry")
	}
	fmt.Fprintln(os.Stderr, "warning: password in keyring is outdated and was removed")

	if errors.Is(err, core.ErrLocked) {
		return nil, err
	}
	return nil, nil
}

// newPassword reads a password for a new project or a rotation
func (e *Env) newPassword(prompt string) ([]byte, error) {
	if e.Config.NewPassword != "" {
		return []byte(e.Config.NewPassword), nil
	}
	if !e.interactive() {
		return nil, core.ErrPasswordRequired
	}
	return core.ReadPasswordConfirm(prompt)
}

// cachePassword stores a validated password in the keyring when enabled
func (e *Env) cachePassword(v *core.Vault, s *core.Session) error {
	vaultID, err := v.VaultID()
	if err != nil {
		return err
	}
	return keyring.SavePassword(vaultID, s.Project().ID, s.Password())
}

// HandleError prints a friendly message for known errors. Commands return
// their errors so deferred cleanup runs before the process exits.
func HandleError(err error) {
	var locked *core.LockedError
	var wrong *core.WrongPasswordError

	switch {
	case errors.Is(err, core.ErrNotInitialized):
		fmt.Fprintf(os.Stderr, "Error: envseal not initialized\n")
		fmt.Fprintf(os.Stderr, "Run 'envseal init' first\n")
	case errors.Is(err, core.ErrAlreadyExists):
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		fmt.Fprintf(os.Stderr, "Use 'envseal status' to see current state\n")
	case errors.As(err, &locked):
		fmt.Fprintf(os.Stderr, "Error: %s\n", locked)
	case errors.As(err, &wrong):
		fmt.Fprintf(os.Stderr, "Error: %s\n", wrong)
	case errors.Is(err, storage.ErrProjectNotFound):
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		fmt.Fprintf(os.Stderr, "Use 'envseal projects' to list projects\n")
	case errors.Is(err, core.ErrLegacyRejected):
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		fmt.Fprintf(os.Stderr, "Set ENVSEAL_LEGACY_POLICY=accept and run 'envseal passwd' to add one\n")
	case errors.Is(err, core.ErrPasswordRequired):
		fmt.Fprintf(os.Stderr, "Error: password required\n")
		fmt.Fprintf(os.Stderr, "Set ENVSEAL_PASSWORD or run from a terminal\n")
	case errors.Is(err, crypto.ErrMalformedEnvelope):
		fmt.Fprintf(os.Stderr, "Error: vault data is damaged: %s\n", err)
	default:
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	}
}

func formatSize(size int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
	)

	switch {
	case size >= GB:
		return fmt.Sprintf("%.1f GB", float64(size)/GB)
	case size >= MB:
		return fmt.Sprintf("%.1f MB", float64(size)/MB)
	case size >= KB:
		return fmt.Sprintf("%.1f KB", float64(size)/KB)
	default:
		return fmt.Sprintf("%d bytes", size)
	}
}
