package assemble

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	goruntime "runtime"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/slipwayci/slipway/internal/paths"
	"github.com/slipwayci/slipway/internal/runtime"
)

// Filename of the OCI archive each stage exports into its scratch
// directory.
const archiveFilename = "image.tar"

// Controls an assembly run.
type Options struct {
	Stages    []Stage  // Stage arena, built in declaration order.
	Name      string   // Project name, used as a prefix for container IDs.
	Context   string   // Build context root, for resolving host copy sources.
	Scratch   string   // Scratch directory for stage archives.
	Platforms []string // Target platforms (e.g., ["linux/amd64"]). Defaults to host.
}

// Returned after a successful assembly.
type Result struct {
	Archives map[string]string // Publish-stage archive path per platform.
}

// Assembles all stages for every target platform.
//
// The stage arena is validated first; a structurally broken chain never
// reaches the container runtime. Platforms build in parallel as
// independent sub-builds with no shared state, then join. Any stage
// failure cancels the remaining sub-builds and fails the whole assembly;
// nothing from a failed run is kept for publishing.
func Run(ctx context.Context, rt *runtime.Runtime, opts Options) (*Result, error) {
	if err := ValidateStages(opts.Stages); err != nil {
		return nil, err
	}

	if len(opts.Platforms) == 0 {
		opts.Platforms = []string{"linux/" + goruntime.GOARCH}
	}

	slog.Info("assembling release image",
		"name", opts.Name,
		"stages", len(opts.Stages),
		"platforms", opts.Platforms,
	)

	result := &Result{Archives: make(map[string]string, len(opts.Platforms))}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)

	for _, platform := range opts.Platforms {
		g.Go(func() error {
			archive, err := buildPlatform(gctx, rt, opts, platform)
			if err != nil {
				return err
			}

			mu.Lock()
			result.Archives[platform] = archive
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return result, nil
}

// Builds all stages for a single platform and returns the publish stage's
// archive path.
//
// Each stage starts a container from its resolved base image, executes its
// steps, and exports the committed result to the stage's scratch
// directory. Stage containers stay alive until the platform build
// completes so later stages can copy files out of them.
func buildPlatform(ctx context.Context, rt *runtime.Runtime, opts Options, platform string) (string, error) {
	slog.Info("building platform", "platform", platform)

	var containers containerSet
	defer func() {
		containers.destroy(ctx)
	}()

	archives := make([]string, len(opts.Stages))
	stageCtrs := make(map[string]*runtime.Container, len(opts.Stages))
	publish := ""

	for i, stage := range opts.Stages {
		slog.Info(fmt.Sprintf("building stage %q", stage.Name), "platform", platform)

		// A failed stage still returns its container; track it before
		// looking at the error so cleanup reaches it.
		ctr, archive, err := buildStage(ctx, rt, opts, stage, archives, stageCtrs, platform)
		containers.add(ctr)
		if err != nil {
			return "", fmt.Errorf("%w: platform %s, stage %q: %w", ErrBuild, platform, stage.Name, err)
		}

		stageCtrs[stage.Name] = ctr
		archives[i] = archive

		if stage.Publish {
			publish = archive
		}
	}

	return publish, nil
}

// Tracks a platform build's stage containers for cleanup.
type containerSet struct {
	ctrs []*runtime.Container
}

func (s *containerSet) add(ctr *runtime.Container) {
	if ctr != nil {
		s.ctrs = append(s.ctrs, ctr)
	}
}

// Destroys every tracked container. Cleanup runs detached from the build
// context, which is already cancelled when a sibling platform failed.
func (s *containerSet) destroy(ctx context.Context) {
	ctx = context.WithoutCancel(ctx)
	for _, ctr := range s.ctrs {
		ctr.Destroy(ctx)
	}
}

// Builds one stage: resolves its base image, runs its steps, and exports
// the result.
func buildStage(ctx context.Context, rt *runtime.Runtime, opts Options, stage Stage, archives []string, stageCtrs map[string]*runtime.Container, platform string) (*runtime.Container, string, error) {
	dir := paths.StageDir(opts.Scratch, stage.Name, platform)
	if err := os.MkdirAll(dir, paths.DefaultDirMode); err != nil {
		return nil, "", fmt.Errorf("%w: %w", ErrFileSystemOperation, err)
	}

	image, err := resolveBase(ctx, rt, stage, archives, platform)
	if err != nil {
		return nil, "", err
	}

	id := containerID(opts.Name, stage.Name, platform)
	ctr, err := rt.StartContainer(ctx, image, id, platform)
	if err != nil {
		return nil, "", err
	}

	if err := executeSteps(ctx, ctr, stage.Steps, newStepState(), opts.Context, stageCtrs); err != nil {
		return ctr, "", err
	}

	if err := ctr.Stop(ctx); err != nil {
		return ctr, "", err
	}

	archive := filepath.Join(dir, archiveFilename)
	if err := ctr.Export(ctx, archive, runtime.ExportConfig{
		Entrypoint: stage.Entrypoint,
		User:       stage.User,
		WorkingDir: stage.Workdir,
	}); err != nil {
		return ctr, "", err
	}

	return ctr, archive, nil
}

// Resolves a stage's base image: a registry pull for root stages, or the
// exported archive of the parent stage otherwise.
func resolveBase(ctx context.Context, rt *runtime.Runtime, stage Stage, archives []string, platform string) (runtime.Image, error) {
	if stage.Parent == NoParent {
		return rt.Pull(ctx, stage.From, platform)
	}
	return rt.ImportArchive(ctx, archives[stage.Parent], platform)
}

// Returns a unique container ID for a stage, scoped to the project and
// platform.
func containerID(name, stage, platform string) string {
	slug := strings.ReplaceAll(platform, "/", "-")
	return fmt.Sprintf("%s-%s-stage-%s", name, slug, stage)
}
