package cmd

import (
	"context"
	"fmt"

	"github.com/illarion/envseal/internal/crypto"
	"github.com/illarion/envseal/internal/security"
)

// Diff compares a stored secret with a local file
func (e *Env) Diff(ctx context.Context, project, name, file string) error {
	root, err := security.New(".")
	if err != nil {
		return err
	}
	defer root.Close()

	local, err := root.ReadFile(file)
	if err != nil {
		return err
	}
	defer crypto.ClearBytes(local)

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

	out, err := s.Diff(ctx, name, local)
	if err != nil {
		return err
	}

	if out == "" {
		fmt.Printf("%s/%s matches %s\n", project, name, file)
		return nil
	}
	fmt.Print(out)
	return nil
}
