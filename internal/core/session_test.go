package core

import (
	"context"
	"testing"

	"github.com/illarion/envseal/internal/crypto"
	"github.com/illarion/envseal/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSession(t *testing.T) (*Vault, *Session) {
	t.Helper()
	v, _ := newTestVault(t)
	ctx := context.Background()
	_, err := v.CreateProject(ctx, "api", []byte(testPassword))
	require.NoError(t, err)

	s, err := v.Unlock(ctx, "api", []byte(testPassword))
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return v, s
}

func TestSessionSecretLifecycle(t *testing.T) {
	_, s := newTestSession(t)
	ctx := context.Background()

	require.NoError(t, s.SetSecret(ctx, "DB_URL", []byte("postgres://localhost")))
	require.NoError(t, s.SetSecret(ctx, "config/.env", []byte("A=1\nB=2\n")))

	value, err := s.GetSecret(ctx, "DB_URL")
	require.NoError(t, err)
	assert.Equal(t, "postgres://localhost", string(value))

	list, err := s.ListSecrets(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "DB_URL", list[0].Name)
	assert.Equal(t, "config/.env", list[1].Name)

	require.NoError(t, s.DeleteSecret(ctx, "DB_URL"))
	_, err = s.GetSecret(ctx, "DB_URL")
	assert.ErrorIs(t, err, storage.ErrSecretNotFound)

	err = s.DeleteSecret(ctx, "DB_URL")
	assert.ErrorIs(t, err, storage.ErrSecretNotFound)
}

func TestSessionSetSecretUsesFreshEnvelope(t *testing.T) {
	v, s := newTestSession(t)
	ctx := context.Background()
	id := s.Project().ID

	require.NoError(t, s.SetSecret(ctx, "TOKEN", []byte("same")))
	first, err := v.db.GetSecret(id, "TOKEN")
	require.NoError(t, err)

	require.NoError(t, s.SetSecret(ctx, "TOKEN", []byte("same")))
	second, err := v.db.GetSecret(id, "TOKEN")
	require.NoError(t, err)

	assert.NotEqual(t, first.Envelope.Salt, second.Envelope.Salt)
	assert.NotEqual(t, first.Envelope.Nonce, second.Envelope.Nonce)
	assert.NotEqual(t, first.Envelope.Ciphertext, second.Envelope.Ciphertext)
	assert.True(t, first.Created.Equal(second.Created))
}

func TestSessionEmptyValue(t *testing.T) {
	_, s := newTestSession(t)
	ctx := context.Background()

	require.NoError(t, s.SetSecret(ctx, "EMPTY", nil))
	value, err := s.GetSecret(ctx, "EMPTY")
	require.NoError(t, err)
	assert.Empty(t, value)
}

func TestSessionInvalidSecretName(t *testing.T) {
	_, s := newTestSession(t)
	for _, name := range []string{"", "/abs", "-flag", "a b"} {
		err := s.SetSecret(context.Background(), name, []byte("x"))
		assert.ErrorIs(t, err, ErrInvalidName, "name %q", name)
	}
}

func TestSessionTamperedSecret(t *testing.T) {
	v, s := newTestSession(t)
	ctx := context.Background()
	id := s.Project().ID

	require.NoError(t, s.SetSecret(ctx, "TOKEN", []byte("value")))
	secret, err := v.db.GetSecret(id, "TOKEN")
	require.NoError(t, err)

	env, err := secret.Envelope.Decode()
	require.NoError(t, err)
	env.Ciphertext[len(env.Ciphertext)-1] ^= 0xff
	secret.Envelope = env.Encode()
	require.NoError(t, v.db.PutSecret(id, secret))

	_, err = s.GetSecret(ctx, "TOKEN")
	assert.ErrorIs(t, err, crypto.ErrDecryptionFailed)
}

func TestSessionClose(t *testing.T) {
	_, s := newTestSession(t)
	ctx := context.Background()

	password := s.Password()
	require.Equal(t, testPassword, string(password))

	s.Close()
	assert.Equal(t, make([]byte, len(testPassword)), password)

	_, err := s.GetSecret(ctx, "TOKEN")
	assert.ErrorIs(t, err, ErrSessionClosed)
	assert.ErrorIs(t, s.SetSecret(ctx, "TOKEN", []byte("x")), ErrSessionClosed)
	_, err = s.ListSecrets(ctx)
	assert.ErrorIs(t, err, ErrSessionClosed)
}

func TestSessionDoesNotAliasCallerPassword(t *testing.T) {
	v, _ := newTestVault(t)
	ctx := context.Background()
	_, err := v.CreateProject(ctx, "api", []byte(testPassword))
	require.NoError(t, err)

	pw := []byte(testPassword)
	s, err := v.Unlock(ctx, "api", pw)
	require.NoError(t, err)
	defer s.Close()

	crypto.ClearBytes(pw)
	require.NoError(t, s.SetSecret(ctx, "A", []byte("1")))
	value, err := s.GetSecret(ctx, "A")
	require.NoError(t, err)
	assert.Equal(t, "1", string(value))
}

func TestSessionDiff(t *testing.T) {
	_, s := newTestSession(t)
	ctx := context.Background()

	require.NoError(t, s.SetSecret(ctx, "env", []byte("A=1\nB=2\n")))

	out, err := s.Diff(ctx, "env", []byte("A=1\nB=2\n"))
	require.NoError(t, err)
	assert.Empty(t, out)

	out, err = s.Diff(ctx, "env", []byte("A=1\nB=3\n"))
	require.NoError(t, err)
	assert.Contains(t, out, "--- vault/env")
	assert.Contains(t, out, "+++ local/env")
	assert.Contains(t, out, "-B=2")
	assert.Contains(t, out, "+B=3")
}
