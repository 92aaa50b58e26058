package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/illarion/envseal/internal/crypto"
	"github.com/illarion/envseal/internal/keyring"
)

// Passwd changes the password of a project
func (e *Env) Passwd(ctx context.Context, project string) error {
	v, err := e.OpenVault()
	if err != nil {
		return err
	}
	defer v.Close()

	// Verify the current password before asking for the new one
	s, err := e.Unlock(ctx, v, project)
	if err != nil {
		return err
	}
	defer s.Close()
	current := crypto.Clone(s.Password())
	defer crypto.ClearBytes(current)

	next, err := e.newPassword("New password: ")
	if err != nil {
		return err
	}
	defer crypto.ClearBytes(next)

	if err := v.ChangePassword(ctx, project, current, next); err != nil {
		return err
	}

	// Refresh an existing keyring entry so it does not go stale
	if vaultID, err := v.VaultID(); err == nil && keyring.HasPassword(vaultID, s.Project().ID) {
		if err := keyring.SavePassword(vaultID, s.Project().ID, next); err == nil {
			fmt.Println("Keyring updated with new password")
		}
	}

	// Compact database after rewriting all envelopes
	if err := v.Compact(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: compaction failed: %s\n", err)
	}

	fmt.Println("password changed successfully")
	return nil
}
