package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/illarion/envseal/internal/crypto"
	"github.com/illarion/envseal/internal/keyring"
)

// ProjectCreate registers a new project with its own password
func (e *Env) ProjectCreate(ctx context.Context, name string) error {
	v, err := e.OpenVault()
	if err != nil {
		return err
	}
	defer v.Close()

	password, err := e.newPassword(fmt.Sprintf("New password for %s: ", name))
	if err != nil {
		return err
	}
	defer crypto.ClearBytes(password)

	p, err := v.CreateProject(ctx, name, password)
	if err != nil {
		return err
	}

	fmt.Printf("created project %s\n", p.Name)
	return nil
}

// ProjectDelete removes a project and all of its secrets
func (e *Env) ProjectDelete(ctx context.Context, name string) error {
	v, err := e.OpenVault()
	if err != nil {
		return err
	}
	defer v.Close()

	s, err := e.Unlock(ctx, v, name)
	if err != nil {
		return err
	}
	defer s.Close()
	projectID := s.Project().ID

	if err := v.DeleteProject(ctx, s); err != nil {
		return err
	}

	if vaultID, err := v.VaultID(); err == nil {
		if err := keyring.DeletePassword(vaultID, projectID); err != nil {
			e.Log.Debug().Err(err).Msg("keyring cleanup failed")
		}
	}

	fmt.Printf("deleted project %s\n", name)
	return nil
}

// Projects lists all projects with their lock state. quiet prints names only.
func (e *Env) Projects(ctx context.Context, quiet bool) error {
	v, err := e.OpenVault()
	if err != nil {
		return err
	}
	defer v.Close()

	list, err := v.Projects(ctx)
	if err != nil {
		return err
	}

	if quiet {
		for _, p := range list {
			fmt.Println(p.Name)
		}
		return nil
	}

	if len(list) == 0 {
		fmt.Println("No projects")
		return nil
	}

	for _, p := range list {
		state := "open"
		if p.Locked {
			state = fmt.Sprintf("locked (%s left)", p.LockRemaining.Round(time.Minute))
		}
		legacy := ""
		if p.Legacy {
			legacy = " [legacy]"
		}
		fmt.Printf("  %-24s %3d secret(s)  %s%s\n", p.Name, p.Secrets, state, legacy)
	}
	return nil
}
