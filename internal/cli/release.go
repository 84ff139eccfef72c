package cli

import (
	"context"
	"log/slog"

	"github.com/slipwayci/slipway/internal/pipeline"
)

// Represents the 'slipway release' command.
type ReleaseCmd struct {
	Context string `arg:"" optional:"" default:"." help:"Build context: a local directory or a git URL."`
	Tag     string `help:"Tag ref that triggered this release, recorded for the audit trail." placeholder:"REF"`
}

// Executes the release command.
//
// Runs one release end to end: resolves the version, assembles the image
// for every configured platform, and pushes the exact version tag followed
// by "latest".
func (c *ReleaseCmd) Run(ctx context.Context) error {
	p, cleanup, err := buildPipeline()
	if err != nil {
		return err
	}
	defer cleanup()

	trigger := pipeline.Trigger{
		Kind:    pipeline.TriggerManual,
		Context: c.Context,
	}
	if c.Tag != "" {
		trigger.Kind = pipeline.TriggerTagPush
		trigger.Ref = c.Tag
	}

	release, err := p.Run(ctx, trigger)
	if err != nil {
		return err
	}

	slog.Info("release published",
		"version", release.Version,
		"tags", release.Tags,
		"digest", release.Digest,
		"duration", release.Duration,
	)
	return nil
}
