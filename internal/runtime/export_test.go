package runtime

import (
	"testing"

	"github.com/opencontainers/go-digest"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
)

func TestApplyExportConfig(t *testing.T) {
	tests := []struct {
		name     string
		initial  ocispec.ImageConfig
		cfg      ExportConfig
		wantUser string
		wantWd   string
		wantEp   []string
		wantCmd  []string
	}{
		{
			name:    "entrypoint clears inherited cmd",
			initial: ocispec.ImageConfig{Cmd: []string{"sh"}},
			cfg:     ExportConfig{Entrypoint: []string{"/usr/local/bin/app"}},
			wantEp:  []string{"/usr/local/bin/app"},
			wantCmd: nil,
		},
		{
			name:     "user and workdir set",
			cfg:      ExportConfig{User: "1000:1000", WorkingDir: "/home/app"},
			wantUser: "1000:1000",
			wantWd:   "/home/app",
		},
		{
			name:     "zero config leaves base settings",
			initial:  ocispec.ImageConfig{User: "root", Cmd: []string{"sh"}},
			cfg:      ExportConfig{},
			wantUser: "root",
			wantCmd:  []string{"sh"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := ocispec.Image{Config: tt.initial}
			applyExportConfig(&config, tt.cfg)

			if config.Config.User != tt.wantUser {
				t.Errorf("user = %q, want %q", config.Config.User, tt.wantUser)
			}
			if config.Config.WorkingDir != tt.wantWd {
				t.Errorf("workdir = %q, want %q", config.Config.WorkingDir, tt.wantWd)
			}
			if len(config.Config.Entrypoint) != len(tt.wantEp) {
				t.Errorf("entrypoint = %v, want %v", config.Config.Entrypoint, tt.wantEp)
			}
			if len(config.Config.Cmd) != len(tt.wantCmd) {
				t.Errorf("cmd = %v, want %v", config.Config.Cmd, tt.wantCmd)
			}
		})
	}
}

func TestManifestGCLabels(t *testing.T) {
	m := ocispec.Manifest{
		Config: ocispec.Descriptor{
			Digest: digest.FromString("config"),
		},
		Layers: []ocispec.Descriptor{
			{Digest: digest.FromString("layer0")},
			{Digest: digest.FromString("layer1")},
		},
	}

	labels := manifestGCLabels(m)

	configLabel := labels["containerd.io/gc.ref.content.config"]
	if configLabel != m.Config.Digest.String() {
		t.Fatalf("config label = %q, want %q", configLabel, m.Config.Digest.String())
	}

	for i, layer := range m.Layers {
		key := "containerd.io/gc.ref.content.l." + string(rune('0'+i))
		if labels[key] != layer.Digest.String() {
			t.Fatalf("labels[%q] = %q, want %q", key, labels[key], layer.Digest.String())
		}
	}

	if len(labels) != 3 {
		t.Fatalf("len(labels) = %d, want 3", len(labels))
	}
}

func TestIndexGCLabels(t *testing.T) {
	idx := ocispec.Index{
		Manifests: []ocispec.Descriptor{
			{Digest: digest.FromString("amd64")},
			{Digest: digest.FromString("arm64")},
		},
	}

	labels := indexGCLabels(idx)
	if len(labels) != 2 {
		t.Fatalf("len(labels) = %d, want 2", len(labels))
	}
	if labels["containerd.io/gc.ref.content.m.0"] != idx.Manifests[0].Digest.String() {
		t.Fatal("first manifest label mismatch")
	}
	if labels["containerd.io/gc.ref.content.m.1"] != idx.Manifests[1].Digest.String() {
		t.Fatal("second manifest label mismatch")
	}
}
