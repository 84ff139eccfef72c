package cli

import (
	"context"
	"fmt"

	"github.com/slipwayci/slipway/internal/manifest"
)

// Represents the 'slipway resolve' command.
type ResolveCmd struct {
	Manifest string `arg:"" optional:"" default:"Cargo.toml" help:"Path to the project manifest."`
}

// Executes the resolve command.
//
// Prints the version the manifest declares, exactly as a release would
// resolve it. Useful for wiring slipway into shell scripts.
func (c *ResolveCmd) Run(ctx context.Context) error {
	version, err := manifest.ResolveFile(c.Manifest)
	if err != nil {
		return err
	}

	fmt.Println(version)
	return nil
}
