package cmd

import (
	"context"
	"fmt"
)

// Verify checks the project password and optionally caches it in the keyring
func (e *Env) Verify(ctx context.Context, project string, save bool) error {
	v, err := e.OpenVault()
	if err != nil {
		return err
	}
	defer v.Close()

	s, err := e.Unlock(ctx, v, project)
	if err != nil {
		return err
	}
	defer s.Close()

	fmt.Printf("unlocked: %s\n", project)

	if save {
		if err := e.cachePassword(v, s); err != nil {
			return fmt.Errorf("failed to save to keyring: %w", err)
		}
		fmt.Println("Password saved to keyring")
	}
	return nil
}
