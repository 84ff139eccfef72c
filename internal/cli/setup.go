package cli

import (
	"path/filepath"

	"github.com/slipwayci/slipway/internal/config"
	"github.com/slipwayci/slipway/internal/pipeline"
	"github.com/slipwayci/slipway/internal/registry"
	"github.com/slipwayci/slipway/internal/runtime"
)

// Wires a pipeline from the global flags.
//
// The returned close function releases the containerd connection; call it
// when the command finishes.
func buildPipeline() (*pipeline.Pipeline, func() error, error) {
	cfg, err := config.Load(RootCmd.Config)
	if err != nil {
		return nil, nil, err
	}

	// Credentials come from the environment or a .env beside the config;
	// loading fails fast so a build never runs without being publishable.
	creds, err := config.LoadCredentials(filepath.Dir(RootCmd.Config))
	if err != nil {
		return nil, nil, err
	}

	rt, err := runtime.New(RootCmd.Containerd, RootCmd.Namespace)
	if err != nil {
		return nil, nil, err
	}

	var opts []registry.Option
	if cfg.Registry.PlainHTTP {
		opts = append(opts, registry.WithPlainHTTP())
	}
	publisher := registry.New(rt, creds, opts...)

	p := pipeline.New(cfg, pipeline.NewAssembler(rt, cfg), publisher)
	return p, rt.Close, nil
}
