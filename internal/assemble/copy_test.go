package assemble

import (
	"testing"
)

func TestParseCopy(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		workdir string
		src     string
		dest    string
		wantErr bool
	}{
		{
			name:  "absolute dest",
			input: "Cargo.lock /app/Cargo.lock",
			src:   "Cargo.lock",
			dest:  "/app/Cargo.lock",
		},
		{
			name:    "relative dest with workdir",
			input:   "src src",
			workdir: "/app",
			src:     "src",
			dest:    "/app/src",
		},
		{
			name:    "relative dest without workdir",
			input:   "src src",
			wantErr: true,
		},
		{
			name:    "missing destination",
			input:   "Cargo.lock",
			wantErr: true,
		},
		{
			name:    "too many tokens",
			input:   "a b c",
			wantErr: true,
		},
		{
			name:    "empty string",
			input:   "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, dest, err := parseCopy(tt.input, tt.workdir)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if src != tt.src {
				t.Errorf("src = %q, want %q", src, tt.src)
			}
			if dest != tt.dest {
				t.Errorf("dest = %q, want %q", dest, tt.dest)
			}
		})
	}
}

func TestParseStageCopy(t *testing.T) {
	tests := []struct {
		name  string
		input string
		stage string
		path  string
		ok    bool
	}{
		{
			name:  "builder artifact",
			input: "builder:/app/target/release/rustus",
			stage: "builder",
			path:  "/app/target/release/rustus",
			ok:    true,
		},
		{
			name:  "no colon",
			input: "/usr/local/bin",
		},
		{
			name:  "colon at start",
			input: ":/some/path",
		},
		{
			name:  "colon after slash",
			input: "/foo:bar",
		},
		{
			name:  "slash in prefix",
			input: "some/stage:path",
		},
		{
			name:  "simple host path",
			input: "Cargo.lock",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stage, path, ok := parseStageCopy(tt.input)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if !tt.ok {
				return
			}
			if stage != tt.stage {
				t.Errorf("stage = %q, want %q", stage, tt.stage)
			}
			if path != tt.path {
				t.Errorf("path = %q, want %q", path, tt.path)
			}
		})
	}
}
