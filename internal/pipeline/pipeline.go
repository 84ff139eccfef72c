package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/opencontainers/go-digest"

	"github.com/slipwayci/slipway/internal/config"
	"github.com/slipwayci/slipway/internal/manifest"
	"github.com/slipwayci/slipway/internal/paths"
	"github.com/slipwayci/slipway/internal/registry"
	"github.com/slipwayci/slipway/internal/source"
)

// Tag every publish moves alongside the exact version tag.
const TagLatest = "latest"

// Assembler builds the release image for every target platform.
type Assembler interface {
	// Assemble builds all stages from the given context directory, using
	// scratch for intermediate archives, and returns the publishable
	// archive per platform.
	Assemble(ctx context.Context, contextDir, scratch string) (map[string]string, error)
}

// Publisher pushes a build result to the registry.
type Publisher interface {
	// Push publishes img under every tag and returns the digest all tags
	// point at.
	Push(ctx context.Context, img registry.Image, tags []string) (digest.Digest, error)
}

// Release describes a completed publish.
type Release struct {
	Version  string        `json:"version"`
	Tags     []string      `json:"tags"`
	Digest   digest.Digest `json:"digest"`
	Duration time.Duration `json:"duration"`
}

// Pipeline runs releases one at a time.
type Pipeline struct {
	cfg       *config.Config
	assembler Assembler
	publisher Publisher

	// Default build context when a trigger carries none.
	contextSpec string

	// Overridable for tests.
	resolveVersion func(path string) (string, error)
	resolveContext func(ctx context.Context, spec, scratch string) (string, error)
	scratchDir     func(runID string) (string, error)

	mu      sync.Mutex
	state   State
	lastRun *Release
	lastErr error
}

// Option configures a [Pipeline].
type Option func(*Pipeline)

// WithContext sets the default build context spec used when a trigger does
// not carry its own.
func WithContext(spec string) Option {
	return func(p *Pipeline) {
		p.contextSpec = spec
	}
}

// Creates a pipeline in the idle state.
func New(cfg *config.Config, assembler Assembler, publisher Publisher, opts ...Option) *Pipeline {
	p := &Pipeline{
		cfg:            cfg,
		assembler:      assembler,
		publisher:      publisher,
		contextSpec:    ".",
		resolveVersion: manifest.ResolveFile,
		resolveContext: source.Resolve,
		scratchDir:     paths.RunScratch,
		state:          StateIdle,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// State reports the pipeline's current state.
func (p *Pipeline) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// LastRelease returns the most recent successful release, or nil.
func (p *Pipeline) LastRelease() *Release {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastRun
}

// Runs one release for a trigger.
//
// Exactly one release runs at a time; a trigger arriving mid-run is
// rejected with [ErrBusy] rather than queued. On success the pipeline
// reaches the published state, any error moves it to failed, and either
// way the next trigger may start a new run.
func (p *Pipeline) Run(ctx context.Context, trigger Trigger) (*Release, error) {
	if err := p.Begin(); err != nil {
		return nil, err
	}
	return p.Execute(ctx, trigger)
}

// Begin reserves the pipeline's single run slot, returning [ErrBusy] when
// a release is already running.
//
// Callers that must acknowledge admission before the work starts (the
// trigger daemon) pair Begin with [Pipeline.Execute]; everyone else uses
// [Pipeline.Run].
func (p *Pipeline) Begin() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state == StateTriggered {
		return ErrBusy
	}
	p.state = StateTriggered
	return nil
}

// Execute runs one release in a slot already reserved via
// [Pipeline.Begin], then releases the slot.
func (p *Pipeline) Execute(ctx context.Context, trigger Trigger) (*Release, error) {
	started := time.Now()
	release, err := p.run(ctx, trigger)
	if release != nil {
		release.Duration = time.Since(started).Round(time.Millisecond)
	}

	p.finish(release, err)
	return release, err
}

func (p *Pipeline) finish(release *Release, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err != nil {
		p.state = StateFailed
		p.lastErr = err
		return
	}
	p.state = StatePublished
	p.lastRun = release
	p.lastErr = nil
}

func (p *Pipeline) run(ctx context.Context, trigger Trigger) (*Release, error) {
	slog.Info("release triggered", "kind", trigger.Kind, "ref", trigger.Ref)

	scratch, err := p.scratchDir(runID(p.cfg.Project.Name))
	if err != nil {
		return nil, fmt.Errorf("failed to create scratch directory: %w", err)
	}
	defer os.RemoveAll(scratch)

	spec := trigger.Context
	if spec == "" {
		spec = p.contextSpec
	}
	dir, err := p.resolveContext(ctx, spec, scratch)
	if err != nil {
		return nil, err
	}

	version, err := p.resolveVersion(filepath.Join(dir, p.cfg.Manifest.Path))
	if err != nil {
		return nil, err
	}
	slog.Info("resolved release version", "version", version)

	archives, err := p.assembler.Assemble(ctx, dir, scratch)
	if err != nil {
		return nil, err
	}

	img := registry.Image{
		Repository: p.cfg.Registry.Host + "/" + p.cfg.Registry.Repository,
		Archives:   archives,
	}

	// The exact tag goes first; "latest" moves only once the version tag
	// has fully landed.
	tags := []string{version, TagLatest}
	dgst, err := p.publisher.Push(ctx, img, tags)
	if err != nil {
		return nil, err
	}

	return &Release{
		Version: version,
		Tags:    tags,
		Digest:  dgst,
	}, nil
}

// Returns a unique identifier for one run's scratch space.
func runID(name string) string {
	return fmt.Sprintf("%s-%s", name, time.Now().UTC().Format("20060102-150405"))
}
