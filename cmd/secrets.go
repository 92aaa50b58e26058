package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/illarion/envseal/internal/core"
	"github.com/illarion/envseal/internal/crypto"
	"github.com/illarion/envseal/internal/git"
	"github.com/illarion/envseal/internal/security"
)

// Set stores a secret. The value comes from file when given, otherwise
// from piped stdin, otherwise from a hidden prompt.
func (e *Env) Set(ctx context.Context, project, name, file string) error {
	if err := core.ValidateSecretName(name); err != nil {
		return err
	}

	value, err := e.readValue(name, file)
	if err != nil {
		return err
	}
	defer crypto.ClearBytes(value)

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

	if err := s.SetSecret(ctx, name, value); err != nil {
		return err
	}

	fmt.Printf("stored: %s/%s (%s)\n", project, name, formatSize(int64(len(value))))
	return nil
}

func (e *Env) readValue(name, file string) ([]byte, error) {
	if file != "" {
		root, err := security.New(".")
		if err != nil {
			return nil, err
		}
		defer root.Close()
		return root.ReadFile(file)
	}

	if !e.interactive() {
		return io.ReadAll(os.Stdin)
	}
	return e.prompt(fmt.Sprintf("Value for %s: ", name))
}

// Get prints a secret to stdout, or writes it to out
func (e *Env) Get(ctx context.Context, project, name, out string) error {
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

	value, err := s.GetSecret(ctx, name)
	if err != nil {
		return err
	}
	defer crypto.ClearBytes(value)

	if out == "" {
		_, err := os.Stdout.Write(value)
		return err
	}

	root, err := security.New(".")
	if err != nil {
		return err
	}
	defer root.Close()

	if err := root.WriteFile(out, value); err != nil {
		return err
	}

	if exposure := git.CheckExposure(root.Dir(), out); exposure.Risky() {
		fmt.Fprintln(os.Stderr, exposure.Warning(out))
	}
	fmt.Printf("written: %s\n", out)
	return nil
}

// Rm removes secrets from a project
func (e *Env) Rm(ctx context.Context, project string, names []string) error {
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

	for _, name := range names {
		if err := s.DeleteSecret(ctx, name); err != nil {
			return err
		}
		fmt.Printf("removed: %s/%s\n", project, name)
	}
	return nil
}

// Ls lists the secrets of a project
func (e *Env) Ls(ctx context.Context, project string) error {
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

	secrets, err := s.ListSecrets(ctx)
	if err != nil {
		return err
	}

	if len(secrets) == 0 {
		fmt.Println("  (none)")
		return nil
	}
	for _, secret := range secrets {
		fmt.Printf("  %-32s %s\n", secret.Name, secret.Modified.Format(time.RFC3339))
	}
	return nil
}
