package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/illarion/envseal/internal/core"
	"github.com/illarion/envseal/internal/keyring"
)

// Status shows the state of one project, or of the whole vault when
// project is empty. No password is required.
func (e *Env) Status(ctx context.Context, project string) error {
	if _, err := os.Stat(e.Config.VaultPath); os.IsNotExist(err) {
		fmt.Printf("No vault found at %s\n", e.Config.VaultPath)
		fmt.Println("Run 'envseal init' to create one")
		return nil
	}

	v, err := e.OpenVault()
	if err != nil {
		return err
	}
	defer v.Close()

	if project == "" {
		return e.vaultStatus(ctx, v)
	}

	st, err := v.Status(ctx, project)
	if err != nil {
		return err
	}

	fmt.Printf("Project:   %s\n", st.Name)
	fmt.Printf("Created:   %s\n", st.Created.Format(time.RFC3339))
	fmt.Printf("Modified:  %s\n", st.Modified.Format(time.RFC3339))
	fmt.Printf("Secrets:   %d\n", st.Secrets)

	if st.Locked {
		fmt.Printf("Lockout:   locked, %s remaining\n", st.LockRemaining.Round(time.Second))
	} else {
		fmt.Printf("Lockout:   open, %d attempt(s) left\n", st.RemainingAttempts)
	}

	if st.Legacy {
		fmt.Printf("Verify:    none (legacy project, policy %s)\n", e.Config.LegacyPolicy)
	}

	if vaultID, err := v.VaultID(); err == nil && keyring.HasPassword(vaultID, st.ID) {
		fmt.Println("Keyring:   password stored")
	}
	return nil
}

func (e *Env) vaultStatus(ctx context.Context, v *core.Vault) error {
	list, err := v.Projects(ctx)
	if err != nil {
		return err
	}

	locked := 0
	for _, p := range list {
		if p.Locked {
			locked++
		}
	}

	fmt.Printf("Vault:     %s\n", v.Path())
	if info, err := os.Stat(v.Path()); err == nil {
		fmt.Printf("Size:      %s\n", formatSize(info.Size()))
	}
	if modified, err := v.Modified(); err == nil {
		fmt.Printf("Modified:  %s\n", modified.Format(time.RFC3339))
	}
	fmt.Printf("Projects:  %d (%d locked)\n", len(list), locked)

	threshold, duration := v.Lockout()
	fmt.Printf("Lockout:   %d attempts, %s\n", threshold, duration)
	return nil
}
