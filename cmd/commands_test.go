package cmd

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/illarion/envseal/internal/core"
	"github.com/illarion/envseal/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newCommandEnv releases the vault so commands can open it themselves
func newCommandEnv(t *testing.T, prompt *testPrompt) *Env {
	t.Helper()
	e, v := newTestEnv(t, prompt)
	require.NoError(t, v.Close())
	return e
}

func TestCommandsReturnErrors(t *testing.T) {
	ctx := context.Background()

	e := newCommandEnv(t, &testPrompt{answers: []string{"wrong-password"}})
	assert.ErrorIs(t, e.Verify(ctx, "api", false), core.ErrWrongPassword)

	e = newCommandEnv(t, &testPrompt{})
	assert.ErrorIs(t, e.Ls(ctx, "missing"), storage.ErrProjectNotFound)

	e = newCommandEnv(t, &testPrompt{})
	e.Config.VaultPath = filepath.Join(t.TempDir(), "absent")
	assert.ErrorIs(t, e.Projects(ctx, true), core.ErrNotInitialized)
}

func TestCommandReleasesVaultOnError(t *testing.T) {
	ctx := context.Background()
	e := newCommandEnv(t, &testPrompt{answers: []string{"wrong-password", projectPassword}})

	require.ErrorIs(t, e.Verify(ctx, "api", false), core.ErrWrongPassword)

	// The failed command closed the vault, so the next one can open it
	require.NoError(t, e.Verify(ctx, "api", false))
}

func TestProjectDeleteCommand(t *testing.T) {
	ctx := context.Background()
	e := newCommandEnv(t, &testPrompt{answers: []string{projectPassword}})

	require.NoError(t, e.ProjectDelete(ctx, "api"))

	v, err := e.OpenVault()
	require.NoError(t, err)
	defer v.Close()

	_, err = v.Project("api")
	assert.ErrorIs(t, err, storage.ErrProjectNotFound)
}
