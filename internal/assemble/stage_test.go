package assemble

import (
	"errors"
	"strings"
	"testing"

	"github.com/slipwayci/slipway/internal/config"
)

func testConfig() *config.Config {
	return &config.Config{
		Project: config.Project{Name: "rustus"},
		Build: config.Build{
			Image:     "docker.io/library/rust:1.75.0-slim-bookworm",
			Command:   "cargo build --release --bin rustus",
			Workdir:   "/app",
			LockFiles: []string{"Cargo.lock", "Cargo.toml"},
			Sources:   []string{"src"},
			Assets:    []string{"templates"},
			Artifact:  "/app/target/release/rustus",
		},
		Image: config.Image{
			Base:      "docker.io/library/debian:bookworm-slim-20240211",
			Installer: "apt",
			Packages:  []string{"libssl3", "ca-certificates", "tzdata"},
			Binary:    "/usr/local/bin/rustus",
			UID:       1000,
		},
	}
}

func TestDefaultStages(t *testing.T) {
	stages := DefaultStages(testConfig())

	if err := ValidateStages(stages); err != nil {
		t.Fatalf("default stages invalid: %v", err)
	}

	if len(stages) != 3 {
		t.Fatalf("len(stages) = %d, want 3", len(stages))
	}

	names := []string{StageBuilder, StageBase, StageRootless}
	for i, want := range names {
		if stages[i].Name != want {
			t.Errorf("stages[%d].Name = %q, want %q", i, stages[i].Name, want)
		}
	}
}

func TestDefaultStagesBuilder(t *testing.T) {
	stages := DefaultStages(testConfig())
	builder := stages[0]

	if builder.Parent != NoParent {
		t.Errorf("builder parent = %d, want NoParent", builder.Parent)
	}
	if builder.From != "docker.io/library/rust:1.75.0-slim-bookworm" {
		t.Errorf("builder from = %q", builder.From)
	}
	if builder.Publish {
		t.Error("builder must not be the publish target")
	}

	// Lock files must be copied before the source tree.
	var order []string
	for _, step := range builder.Steps {
		if step.Copy != "" {
			order = append(order, strings.Fields(step.Copy)[0])
		}
	}
	want := []string{"Cargo.lock", "Cargo.toml", "src", "templates"}
	if len(order) != len(want) {
		t.Fatalf("copy order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("copy order = %v, want %v", order, want)
		}
	}

	// The build command is the last step.
	last := builder.Steps[len(builder.Steps)-1]
	if last.Run != "cargo build --release --bin rustus" {
		t.Errorf("last builder step = %+v, want build command", last)
	}
}

func TestDefaultStagesBase(t *testing.T) {
	stages := DefaultStages(testConfig())
	base := stages[1]

	if !base.Publish {
		t.Error("base must be the publish target")
	}
	if base.Parent != NoParent {
		t.Errorf("base parent = %d, want NoParent (fresh minimal image)", base.Parent)
	}
	if base.User != "" {
		t.Errorf("base user = %q, want empty (runs as root)", base.User)
	}
	if len(base.Entrypoint) != 1 || base.Entrypoint[0] != "/usr/local/bin/rustus" {
		t.Errorf("base entrypoint = %v", base.Entrypoint)
	}

	// First step pulls only the binary out of the builder.
	first := base.Steps[0]
	if !strings.HasPrefix(first.Copy, StageBuilder+":") {
		t.Errorf("first base step = %+v, want cross-stage copy from builder", first)
	}

	// Install and cache purge share one step.
	install := base.Steps[1].Run
	if !strings.Contains(install, "apt-get install") {
		t.Errorf("install step = %q", install)
	}
	if !strings.Contains(install, "rm -rf /var/lib/apt/lists/*") {
		t.Errorf("install step %q does not purge the package index", install)
	}
}

func TestDefaultStagesRootless(t *testing.T) {
	stages := DefaultStages(testConfig())
	rootless := stages[2]

	if rootless.Parent != 1 {
		t.Errorf("rootless parent = %d, want 1 (base)", rootless.Parent)
	}
	if rootless.Publish {
		t.Error("rootless must not be auto-published")
	}
	if rootless.User != "1000:1000" {
		t.Errorf("rootless user = %q, want 1000:1000", rootless.User)
	}
	if rootless.Workdir != "/home/rustus" {
		t.Errorf("rootless workdir = %q, want /home/rustus", rootless.Workdir)
	}
	if !strings.Contains(rootless.Steps[0].Run, "useradd -m -u 1000") {
		t.Errorf("rootless user step = %q", rootless.Steps[0].Run)
	}
}

func TestDefaultStagesApk(t *testing.T) {
	cfg := testConfig()
	cfg.Image.Installer = "apk"
	stages := DefaultStages(cfg)

	install := stages[1].Steps[1].Run
	if !strings.Contains(install, "apk add --no-cache") {
		t.Errorf("install step = %q", install)
	}

	user := stages[2].Steps[0].Run
	if !strings.Contains(user, "adduser -u 1000") {
		t.Errorf("user step = %q", user)
	}
}

func TestValidateStages(t *testing.T) {
	valid := []Stage{
		{Name: "builder", From: "img:1.0", Parent: NoParent},
		{Name: "base", From: "os:1.0", Parent: NoParent, Publish: true},
		{Name: "rootless", Parent: 1},
	}

	tests := []struct {
		name   string
		stages []Stage
		ok     bool
	}{
		{
			name:   "canonical chain",
			stages: valid,
			ok:     true,
		},
		{
			name:   "empty arena",
			stages: nil,
		},
		{
			name: "missing name",
			stages: []Stage{
				{From: "img:1.0", Parent: NoParent, Publish: true},
			},
		},
		{
			name: "duplicate name",
			stages: []Stage{
				{Name: "a", From: "img:1.0", Parent: NoParent, Publish: true},
				{Name: "a", From: "img:1.0", Parent: NoParent},
			},
		},
		{
			name: "forward parent reference",
			stages: []Stage{
				{Name: "a", Parent: 1, Publish: true},
				{Name: "b", From: "img:1.0", Parent: NoParent},
			},
		},
		{
			name: "self parent",
			stages: []Stage{
				{Name: "a", From: "img:1.0", Parent: NoParent, Publish: true},
				{Name: "b", Parent: 1},
			},
		},
		{
			name: "no base and no parent",
			stages: []Stage{
				{Name: "a", Parent: NoParent, Publish: true},
			},
		},
		{
			name: "no publish stage",
			stages: []Stage{
				{Name: "a", From: "img:1.0", Parent: NoParent},
			},
		},
		{
			name: "two publish stages",
			stages: []Stage{
				{Name: "a", From: "img:1.0", Parent: NoParent, Publish: true},
				{Name: "b", Parent: 0, Publish: true},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStages(tt.stages)
			if tt.ok && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tt.ok && !errors.Is(err, ErrInvalidStages) {
				t.Fatalf("err = %v, want ErrInvalidStages", err)
			}
		})
	}
}
