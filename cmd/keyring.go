package cmd

import (
	"context"
	"fmt"

	"github.com/illarion/envseal/internal/keyring"
)

// KeyringSave verifies the project password and saves it to the OS keyring
func (e *Env) KeyringSave(ctx context.Context, project string) error {
	return e.Verify(ctx, project, true)
}

// KeyringDelete removes the project password from the OS keyring
func (e *Env) KeyringDelete(_ context.Context, project string) error {
	v, err := e.OpenVault()
	if err != nil {
		return err
	}
	defer v.Close()

	p, err := v.Project(project)
	if err != nil {
		return err
	}
	vaultID, err := v.VaultID()
	if err != nil {
		return err
	}

	if !keyring.HasPassword(vaultID, p.ID) {
		fmt.Println("No password stored in keyring")
		return nil
	}
	if err := keyring.DeletePassword(vaultID, p.ID); err != nil {
		return fmt.Errorf("failed to remove from keyring: %w", err)
	}

	fmt.Println("Password removed from keyring")
	return nil
}

// KeyringStatus checks if a password is stored for the project
func (e *Env) KeyringStatus(_ context.Context, project string) error {
	v, err := e.OpenVault()
	if err != nil {
		return err
	}
	defer v.Close()

	p, err := v.Project(project)
	if err != nil {
		return err
	}
	vaultID, err := v.VaultID()
	if err != nil {
		return err
	}

	if keyring.HasPassword(vaultID, p.ID) {
		fmt.Println("Password: stored in keyring")
	} else {
		fmt.Println("Password: not stored")
	}
	return nil
}
