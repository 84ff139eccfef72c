package registry

import (
	"context"
	"errors"
	"testing"

	"github.com/slipwayci/slipway/internal/config"
)

func TestTagRef(t *testing.T) {
	tests := []struct {
		repository string
		tag        string
		want       string
	}{
		{"ghcr.io/acme/tool", "latest", "ghcr.io/acme/tool:latest"},
		{"ghcr.io/acme/tool", "1.2.3", "ghcr.io/acme/tool:1.2.3"},
		{"localhost:5000/tool", "0.1.0", "localhost:5000/tool:0.1.0"},
	}

	for _, tt := range tests {
		if got := TagRef(tt.repository, tt.tag); got != tt.want {
			t.Errorf("TagRef(%q, %q) = %q, want %q", tt.repository, tt.tag, got, tt.want)
		}
	}
}

func TestSortedPlatforms(t *testing.T) {
	archives := map[string]string{
		"linux/arm64":   "/tmp/arm64.tar",
		"linux/amd64":   "/tmp/amd64.tar",
		"linux/riscv64": "/tmp/riscv64.tar",
	}

	got := sortedPlatforms(archives)
	want := []string{"linux/amd64", "linux/arm64", "linux/riscv64"}

	if len(got) != len(want) {
		t.Fatalf("expected %d platforms, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("platform %d: got %q, want %q", i, got[i], want[i])
		}
	}
}

func TestPushRejectsEmptyInput(t *testing.T) {
	// Zero credentials are fine; validation runs before any network use.
	c := New(nil, config.Credentials{})

	_, err := c.Push(context.Background(), Image{Repository: "ghcr.io/acme/tool"}, []string{"latest"})
	if !errors.Is(err, ErrNoArchives) {
		t.Errorf("expected ErrNoArchives, got %v", err)
	}

	img := Image{
		Repository: "ghcr.io/acme/tool",
		Archives:   map[string]string{"linux/amd64": "/tmp/a.tar"},
	}
	_, err = c.Push(context.Background(), img, nil)
	if !errors.Is(err, ErrNoTags) {
		t.Errorf("expected ErrNoTags, got %v", err)
	}
}
