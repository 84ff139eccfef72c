package assemble

import (
	"fmt"
	"path"
	"strings"

	"github.com/slipwayci/slipway/internal/config"
)

// Marks a stage as starting from a registry image rather than another stage.
const NoParent = -1

// Canonical stage names of the default release chain.
const (
	StageBuilder  = "builder"
	StageBase     = "base"
	StageRootless = "rootless"
)

// One operation or modifier inside a stage.
//
// A step either runs a command (Run), transfers files (Copy), or adjusts
// the accumulated execution state for subsequent steps (Workdir, Env,
// Shell). Modifier fields on an operation step apply to that operation
// only.
type Step struct {
	Run     string            // Shell command to execute.
	Copy    string            // "src dest" host copy, or "stage:src dest" cross-stage copy.
	Workdir string            // Working directory for this and subsequent steps.
	Env     map[string]string // Environment variables for this and subsequent steps.
	Shell   string            // Shell used for run steps.
}

// One immutable layer-set of the multi-stage build.
//
// A stage inherits from exactly one source: the registry image named by
// From when Parent is [NoParent], or the exported image of the stage at
// index Parent otherwise. The arena of stages forms a linear chain; cycles
// and forward references are rejected by [ValidateStages].
type Stage struct {
	Name       string   // Stage name, used for cross-stage copies and container IDs.
	From       string   // Pinned registry reference; only read when Parent is NoParent.
	Parent     int      // Index of the parent stage, or NoParent.
	Steps      []Step   // Ordered operations executed inside the stage.
	Entrypoint []string // Entrypoint set on the exported image.
	User       string   // Effective user of the exported image; empty keeps root.
	Workdir    string   // Working directory of the exported image.
	Publish    bool     // Whether this stage's image is the publish target.
}

// Checks the structural invariants of a stage arena.
//
// Stage names must be unique and non-empty, every parent index must refer
// to an earlier stage, registry-based stages must name a base image, and
// exactly one stage must be the publish target.
func ValidateStages(stages []Stage) error {
	if len(stages) == 0 {
		return fmt.Errorf("%w: no stages", ErrInvalidStages)
	}

	seen := make(map[string]bool, len(stages))
	publish := 0

	for i, stage := range stages {
		if stage.Name == "" {
			return fmt.Errorf("%w: stage %d has no name", ErrInvalidStages, i)
		}
		if seen[stage.Name] {
			return fmt.Errorf("%w: duplicate stage name %q", ErrInvalidStages, stage.Name)
		}
		seen[stage.Name] = true

		if stage.Parent == NoParent {
			if stage.From == "" {
				return fmt.Errorf("%w: stage %q has neither parent nor base image", ErrInvalidStages, stage.Name)
			}
		} else if stage.Parent < 0 || stage.Parent >= i {
			return fmt.Errorf("%w: stage %q parent index %d is not an earlier stage", ErrInvalidStages, stage.Name, stage.Parent)
		}

		if stage.Publish {
			publish++
		}
	}

	if publish != 1 {
		return fmt.Errorf("%w: want exactly one publish stage, got %d", ErrInvalidStages, publish)
	}

	return nil
}

// Produces the canonical builder, base, and rootless stage chain from the
// pipeline configuration.
//
// The builder copies dependency lock files before the source tree so a
// cached toolchain layer survives source-only changes, then runs the fixed
// release build command. The base stage starts fresh from the minimal OS
// image, receives only the compiled binary, and installs the runtime
// packages with the cache purge in the same step. The rootless stage
// layers a fixed-id non-privileged user on top of base; it is built and
// exported but never auto-published.
func DefaultStages(cfg *config.Config) []Stage {
	return []Stage{
		builderStage(cfg),
		baseStage(cfg),
		rootlessStage(cfg),
	}
}

func builderStage(cfg *config.Config) Stage {
	steps := []Step{
		{Workdir: cfg.Build.Workdir},
	}

	for _, lock := range cfg.Build.LockFiles {
		steps = append(steps, Step{Copy: lock + " " + path.Base(lock)})
	}
	for _, dir := range cfg.Build.Sources {
		steps = append(steps, Step{Copy: dir + " " + path.Base(dir)})
	}
	for _, dir := range cfg.Build.Assets {
		steps = append(steps, Step{Copy: dir + " " + path.Base(dir)})
	}

	steps = append(steps, Step{Run: cfg.Build.Command})

	return Stage{
		Name:   StageBuilder,
		From:   cfg.Build.Image,
		Parent: NoParent,
		Steps:  steps,
	}
}

func baseStage(cfg *config.Config) Stage {
	steps := []Step{
		{Copy: fmt.Sprintf("%s:%s %s", StageBuilder, cfg.Build.Artifact, cfg.Image.Binary)},
	}

	if len(cfg.Image.Packages) > 0 {
		steps = append(steps, Step{Run: installCommand(cfg.Image.Installer, cfg.Image.Packages)})
	}

	return Stage{
		Name:       StageBase,
		From:       cfg.Image.Base,
		Parent:     NoParent,
		Steps:      steps,
		Entrypoint: []string{cfg.Image.Binary},
		Publish:    true,
	}
}

func rootlessStage(cfg *config.Config) Stage {
	name := cfg.Project.Name
	home := "/home/" + name

	return Stage{
		Name:   StageRootless,
		Parent: 1, // base
		Steps: []Step{
			{Run: createUserCommand(cfg.Image.Installer, name, cfg.Image.UID)},
		},
		Entrypoint: []string{cfg.Image.Binary},
		User:       fmt.Sprintf("%d:%d", cfg.Image.UID, cfg.Image.UID),
		Workdir:    home,
	}
}

// Returns the package install command for the base's package manager
// family. The package index and cache are removed in the same command so
// they never land in the exported layer.
func installCommand(installer string, packages []string) string {
	list := strings.Join(packages, " ")
	switch installer {
	case "apk":
		return fmt.Sprintf("apk add --no-cache %s", list)
	default:
		return fmt.Sprintf("apt-get update && apt-get install -y --no-install-recommends %s && rm -rf /var/lib/apt/lists/*", list)
	}
}

// Returns the command creating the fixed-id non-privileged user and group.
func createUserCommand(installer, name string, uid int) string {
	switch installer {
	case "apk":
		return fmt.Sprintf("addgroup -g %d -S %s && adduser -u %d -S -G %s -h /home/%s %s",
			uid, name, uid, name, name, name)
	default:
		return fmt.Sprintf("groupadd -g %d %s && useradd -m -u %d -g %d -d /home/%s %s",
			uid, name, uid, uid, name, name)
	}
}
