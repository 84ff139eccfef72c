package pipeline

import (
	"context"

	"github.com/slipwayci/slipway/internal/assemble"
	"github.com/slipwayci/slipway/internal/config"
	"github.com/slipwayci/slipway/internal/runtime"
)

// Assembler backed by the container runtime, building the standard
// builder/base/rootless stage chain.
type runtimeAssembler struct {
	rt  *runtime.Runtime
	cfg *config.Config
}

// NewAssembler returns the containerd-backed [Assembler] for a
// configuration.
func NewAssembler(rt *runtime.Runtime, cfg *config.Config) Assembler {
	return &runtimeAssembler{rt: rt, cfg: cfg}
}

func (a *runtimeAssembler) Assemble(ctx context.Context, contextDir, scratch string) (map[string]string, error) {
	result, err := assemble.Run(ctx, a.rt, assemble.Options{
		Stages:    assemble.DefaultStages(a.cfg),
		Name:      a.cfg.Project.Name,
		Context:   contextDir,
		Scratch:   scratch,
		Platforms: a.cfg.Platforms,
	})
	if err != nil {
		return nil, err
	}
	return result.Archives, nil
}
