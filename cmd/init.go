package cmd

import (
	"context"
	"fmt"

	"github.com/illarion/envseal/internal/core"
)

// Init creates a new vault at the configured path
func (e *Env) Init(_ context.Context) error {
	v, err := core.Init(e.Config.VaultPath, e.options())
	if err != nil {
		return err
	}
	defer v.Close()

	fmt.Printf("initialized: %s\n", v.Path())
	fmt.Println("Create a project with 'envseal project create <name>'")
	return nil
}
