package cmd

import (
	"context"
	"fmt"
	"os"
)

// Compact compacts the vault database to reclaim unused space
func (e *Env) Compact(_ context.Context) error {
	v, err := e.OpenVault()
	if err != nil {
		return err
	}
	defer v.Close()

	info, err := os.Stat(v.Path())
	if err != nil {
		return err
	}
	sizeBefore := info.Size()

	if err := v.Compact(); err != nil {
		return err
	}

	info, err = os.Stat(v.Path())
	if err != nil {
		return err
	}
	sizeAfter := info.Size()

	fmt.Printf("Compacted: %s -> %s\n", formatSize(sizeBefore), formatSize(sizeAfter))
	return nil
}
