package core

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/illarion/envseal/internal/crypto"
	"github.com/illarion/envseal/internal/storage"
)

// Session is an unlocked project. It keeps a copy of the password until
// Close.
type Session struct {
	vault    *Vault
	project  storage.Project
	password []byte
}

// SecretInfo describes a stored secret without its value
type SecretInfo struct {
	Name     string
	Created  time.Time
	Modified time.Time
}

func newSession(v *Vault, p *storage.Project, password []byte) *Session {
	return &Session{
		vault:    v,
		project:  *p,
		password: crypto.Clone(password),
	}
}

// Project returns the unlocked project
func (s *Session) Project() storage.Project {
	return s.project
}

// Password returns the retained password. The slice is owned by the
// session and is zeroed on Close.
func (s *Session) Password() []byte {
	return s.password
}

// Close zeros the retained password
func (s *Session) Close() {
	crypto.ClearBytes(s.password)
	s.password = nil
}

func (s *Session) check(ctx context.Context) error {
	if s.password == nil {
		return ErrSessionClosed
	}
	return ctx.Err()
}

// SetSecret seals value in a fresh envelope and stores it under name
func (s *Session) SetSecret(ctx context.Context, name string, value []byte) error {
	if err := ValidateSecretName(name); err != nil {
		return err
	}
	if err := s.check(ctx); err != nil {
		return err
	}

	env, err := s.vault.cipher.Encrypt(value, s.password)
	if err != nil {
		return fmt.Errorf("failed to encrypt secret %s: %w", name, err)
	}

	now := time.Now()
	secret := &storage.Secret{
		Name:     name,
		Envelope: env.Encode(),
		Created:  now,
		Modified: now,
	}
	if existing, err := s.vault.db.GetSecret(s.project.ID, name); err == nil {
		secret.Created = existing.Created
	} else if !errors.Is(err, storage.ErrSecretNotFound) {
		return fmt.Errorf("failed to read secret %s: %w", name, err)
	}

	if err := s.vault.db.PutSecret(s.project.ID, secret); err != nil {
		return fmt.Errorf("failed to store secret %s: %w", name, err)
	}
	return nil
}

// GetSecret decrypts the secret stored under name. The caller should
// zero the returned slice when done.
func (s *Session) GetSecret(ctx context.Context, name string) ([]byte, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}

	secret, err := s.vault.db.GetSecret(s.project.ID, name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", err, name)
	}

	plaintext, err := s.open(secret)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt secret %s: %w", name, err)
	}
	return plaintext, nil
}

// DeleteSecret removes the secret stored under name
func (s *Session) DeleteSecret(ctx context.Context, name string) error {
	if err := s.check(ctx); err != nil {
		return err
	}
	if err := s.vault.db.DeleteSecret(s.project.ID, name); err != nil {
		return fmt.Errorf("%w: %s", err, name)
	}
	return nil
}

// ListSecrets returns the stored secrets in name order
func (s *Session) ListSecrets(ctx context.Context) ([]SecretInfo, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}

	secrets, err := s.vault.db.ListSecrets(s.project.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list secrets: %w", err)
	}

	infos := make([]SecretInfo, 0, len(secrets))
	for _, secret := range secrets {
		infos = append(infos, SecretInfo{
			Name:     secret.Name,
			Created:  secret.Created,
			Modified: secret.Modified,
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos, nil
}

// Diff returns a unified diff from the stored secret to local. An empty
// string means the contents are identical.
func (s *Session) Diff(ctx context.Context, name string, local []byte) (string, error) {
	stored, err := s.GetSecret(ctx, name)
	if err != nil {
		return "", err
	}
	defer crypto.ClearBytes(stored)

	return GenerateUnifiedDiff(name, stored, local)
}

func (s *Session) open(secret *storage.Secret) ([]byte, error) {
	env, err := secret.Envelope.Decode()
	if err != nil {
		return nil, err
	}
	return s.vault.cipher.Decrypt(env, s.password)
}
