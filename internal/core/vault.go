package core

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/illarion/envseal/internal/crypto"
	"github.com/illarion/envseal/internal/lockout"
	"github.com/illarion/envseal/internal/logger"
	"github.com/illarion/envseal/internal/storage"
	"github.com/illarion/envseal/internal/verifier"
)

const (
	DefaultVaultFile  = ".envseal"
	MinPasswordLength = 8
)

// Options configures a Vault. Zero values take the defaults.
type Options struct {
	Cipher       *crypto.Cipher
	Lockout      lockout.Config
	LegacyPolicy verifier.LegacyPolicy
	Logger       *logger.Logger
}

// Vault manages projects and secrets stored in one vault file
type Vault struct {
	path     string
	db       *storage.Storage
	cipher   *crypto.Cipher
	verifier *verifier.Verifier
	guard    *lockout.Guard
	policy   verifier.LegacyPolicy
	log      *logger.Logger
}

// Init creates a new vault file at path and opens it
func Init(path string, opts Options) (*Vault, error) {
	if _, err := os.Stat(path); err == nil {
		return nil, ErrAlreadyExists
	}

	db, err := storage.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create database: %w", err)
	}

	if err := db.Initialize(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	if _, err := db.GetOrCreateVaultID(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create vault id: %w", err)
	}

	return newVault(path, db, opts), nil
}

// Open opens an existing vault file
func Open(path string, opts Options) (*Vault, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, ErrNotInitialized
	}

	db, err := storage.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	initialized, err := db.IsInitialized()
	if err != nil || !initialized {
		db.Close()
		return nil, ErrNotInitialized
	}

	return newVault(path, db, opts), nil
}

func newVault(path string, db *storage.Storage, opts Options) *Vault {
	c := opts.Cipher
	if c == nil {
		c = crypto.NewCipher(crypto.DefaultKDF())
	}
	log := logger.OrNop(opts.Logger)

	return &Vault{
		path:     path,
		db:       db,
		cipher:   c,
		verifier: verifier.New(c),
		guard:    lockout.NewGuard(db.LockoutStore(), opts.Lockout, log),
		policy:   opts.LegacyPolicy,
		log:      log.WithComponent("core"),
	}
}

// Close closes the vault database
func (v *Vault) Close() error {
	return v.db.Close()
}

// Path returns the vault file path
func (v *Vault) Path() string {
	return v.path
}

// VaultID returns the random id identifying this vault in the keyring
func (v *Vault) VaultID() (string, error) {
	return v.db.GetOrCreateVaultID()
}

// Modified returns when the vault contents last changed
func (v *Vault) Modified() (time.Time, error) {
	return v.db.GetModified()
}

// Lockout returns the effective failure threshold and lock duration
func (v *Vault) Lockout() (threshold int, duration time.Duration) {
	return v.guard.Threshold(), v.guard.Duration()
}

// Compact rewrites the vault file to reclaim free pages
func (v *Vault) Compact() error {
	if err := v.db.Compact(); err != nil {
		v.log.Error().Err(err).Msg("compaction failed")
		return err
	}
	return nil
}

// CreateProject registers a new project protected by password
func (v *Vault) CreateProject(ctx context.Context, name string, password []byte) (*storage.Project, error) {
	if err := ValidateProjectName(name); err != nil {
		return nil, err
	}
	if len(password) == 0 {
		return nil, ErrPasswordRequired
	}
	if len(password) < MinPasswordLength {
		return nil, ErrPasswordTooShort
	}

	id, err := storage.NewID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate project id: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	record, err := v.verifier.Create(password)
	if err != nil {
		return nil, err
	}
	encoded := record.Encode()

	now := time.Now()
	p := &storage.Project{
		ID:           id,
		Name:         name,
		Created:      now,
		Modified:     now,
		Verification: &encoded,
	}
	if err := v.db.CreateProject(p); err != nil {
		if errors.Is(err, storage.ErrProjectExists) {
			return nil, fmt.Errorf("project %s: %w", name, ErrAlreadyExists)
		}
		return nil, fmt.Errorf("failed to store project: %w", err)
	}

	v.log.Info().Str("project", id).Msg("project created")
	return p, nil
}

// DeleteProject removes the project of an unlocked session with all of
// its secrets. The session is closed once the project is gone; on error
// it stays usable.
func (v *Vault) DeleteProject(ctx context.Context, s *Session) error {
	if err := s.check(ctx); err != nil {
		return err
	}
	id := s.project.ID

	if err := v.db.DeleteProject(id); err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	s.Close()
	v.log.Info().Str("project", id).Msg("project deleted")
	return nil
}

// Project looks up a project by name
func (v *Vault) Project(name string) (*storage.Project, error) {
	p, err := v.db.GetProjectByName(name)
	if err != nil {
		if errors.Is(err, storage.ErrProjectNotFound) {
			return nil, fmt.Errorf("%w: %s", storage.ErrProjectNotFound, name)
		}
		return nil, err
	}
	return p, nil
}

// Unlock checks the lockout state, verifies password and returns a
// Session for the project. A failed verification is recorded against the
// project; a success clears it.
func (v *Vault) Unlock(ctx context.Context, name string, password []byte) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p, err := v.Project(name)
	if err != nil {
		return nil, err
	}

	if status := v.guard.CheckLockout(p.ID); status.Locked {
		v.log.Info().Str("project", p.ID).Int64("remaining_ms", status.RemainingMs()).Msg("unlock refused, project locked")
		return nil, &LockedError{Project: name, Remaining: status.Remaining}
	}

	if len(password) == 0 {
		return nil, ErrPasswordRequired
	}

	if p.Legacy() {
		if !v.policy.AcceptLegacy(password) {
			v.log.Warn().Str("project", p.ID).Msg("unlock refused for legacy project")
			return nil, fmt.Errorf("project %s: %w", name, ErrLegacyRejected)
		}
		v.guard.Clear(p.ID)
		v.log.Warn().Str("project", p.ID).Msg("legacy project unlocked without verification")
		return newSession(v, p, password), nil
	}

	record, err := p.Verification.Decode()
	if err != nil {
		return nil, fmt.Errorf("project %s verification record: %w", name, err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ok, err := v.verifier.Verify(record, password)
	if err != nil {
		return nil, fmt.Errorf("project %s verification record: %w", name, err)
	}

	if !ok {
		return nil, v.recordFailure(name, p.ID)
	}

	v.guard.Clear(p.ID)
	v.log.Debug().Str("project", p.ID).Msg("project unlocked")
	return newSession(v, p, password), nil
}

func (v *Vault) recordFailure(name, id string) error {
	res := v.guard.RecordFailure(id)
	werr := &WrongPasswordError{
		Project:           name,
		RemainingAttempts: v.guard.RemainingAttempts(id),
		Locked:            res.Locked,
		LockedFor:         res.Remaining,
	}
	if res.Locked {
		v.log.Warn().Str("project", id).Int("attempts", res.Attempts).Msg("lock engaged after failed attempts")
	} else {
		v.log.Info().Str("project", id).Int("attempts", res.Attempts).Msg("wrong password")
	}
	return werr
}

// ChangePassword re-encrypts every secret of a project and its
// verification record under next. Legacy projects gain a verification
// record. Nothing is written unless all secrets re-encrypt.
func (v *Vault) ChangePassword(ctx context.Context, name string, current, next []byte) error {
	if len(next) < MinPasswordLength {
		return ErrPasswordTooShort
	}

	s, err := v.Unlock(ctx, name, current)
	if err != nil {
		return err
	}
	defer s.Close()

	secrets, err := v.db.ListSecrets(s.project.ID)
	if err != nil {
		return fmt.Errorf("failed to list secrets: %w", err)
	}

	now := time.Now()
	rotated := make([]storage.Secret, 0, len(secrets))
	for _, secret := range secrets {
		if err := ctx.Err(); err != nil {
			return err
		}

		plaintext, err := s.open(&secret)
		if err != nil {
			return fmt.Errorf("failed to decrypt secret %s: %w", secret.Name, err)
		}
		env, err := v.cipher.Encrypt(plaintext, next)
		crypto.ClearBytes(plaintext)
		if err != nil {
			return fmt.Errorf("failed to re-encrypt secret %s: %w", secret.Name, err)
		}

		secret.Envelope = env.Encode()
		secret.Modified = now
		rotated = append(rotated, secret)
	}

	record, err := v.verifier.Create(next)
	if err != nil {
		return err
	}
	encoded := record.Encode()

	p := s.project
	p.Verification = &encoded
	p.Modified = now

	if err := v.db.RotateProject(&p, rotated); err != nil {
		return fmt.Errorf("failed to store rotated project: %w", err)
	}

	v.log.Info().Str("project", p.ID).Int("secrets", len(rotated)).Msg("password changed")
	return nil
}

// ProjectStatus describes a project without unlocking it
type ProjectStatus struct {
	ID                string
	Name              string
	Created           time.Time
	Modified          time.Time
	Secrets           int
	Legacy            bool
	Locked            bool
	LockRemaining     time.Duration
	RemainingAttempts int
}

// Status reports secret count and lockout state of a project
func (v *Vault) Status(ctx context.Context, name string) (*ProjectStatus, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p, err := v.Project(name)
	if err != nil {
		return nil, err
	}
	return v.status(p)
}

// Projects reports the status of every project in name order
func (v *Vault) Projects(ctx context.Context) ([]ProjectStatus, error) {
	projects, err := v.db.ListProjects()
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}

	result := make([]ProjectStatus, 0, len(projects))
	for i := range projects {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		st, err := v.status(&projects[i])
		if err != nil {
			return nil, err
		}
		result = append(result, *st)
	}
	return result, nil
}

func (v *Vault) status(p *storage.Project) (*ProjectStatus, error) {
	secrets, err := v.db.ListSecrets(p.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list secrets: %w", err)
	}

	lock := v.guard.CheckLockout(p.ID)
	return &ProjectStatus{
		ID:                p.ID,
		Name:              p.Name,
		Created:           p.Created,
		Modified:          p.Modified,
		Secrets:           len(secrets),
		Legacy:            p.Legacy(),
		Locked:            lock.Locked,
		LockRemaining:     lock.Remaining,
		RemainingAttempts: v.guard.RemainingAttempts(p.ID),
	}, nil
}
