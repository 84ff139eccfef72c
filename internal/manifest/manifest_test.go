package manifest

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr error
	}{
		{
			name:  "typical manifest header",
			input: "[package]\nname = \"rustus\"\nversion = \"0.5.4\"\nedition = \"2021\"\n",
			want:  "0.5.4",
		},
		{
			name:  "version on first line",
			input: "version = \"2.4.1\"\n",
			want:  "2.4.1",
		},
		{
			name:  "no space around equals",
			input: "version=\"1.0.0\"\n",
			want:  "1.0.0",
		},
		{
			name:  "leading whitespace",
			input: "  version = \"3.1.4\"\n",
			want:  "3.1.4",
		},
		{
			name:  "quoted non-semver passes through",
			input: "version = \"abc\"\n",
			want:  "abc",
		},
		{
			name:  "trailing comment ignored",
			input: "version = \"1.2.3\" # release\n",
			want:  "1.2.3",
		},
		{
			name:    "version outside scan window",
			input:   "a\nb\nc\nd\ne\nversion = \"9.9.9\"\n",
			wantErr: ErrVersionNotFound,
		},
		{
			name:    "no version key",
			input:   "[package]\nname = \"thing\"\n",
			wantErr: ErrVersionNotFound,
		},
		{
			name:    "empty input",
			input:   "",
			wantErr: ErrVersionNotFound,
		},
		{
			name:    "empty quoted value",
			input:   "version = \"\"\n",
			wantErr: ErrVersionEmpty,
		},
		{
			name:    "unquoted value",
			input:   "version = 1.2.3\n",
			wantErr: ErrVersionUnquoted,
		},
		{
			name:    "opening quote only",
			input:   "version = \"1.2.3\n",
			wantErr: ErrVersionUnquoted,
		},
		{
			name:    "prefixed key does not match",
			input:   "version_suffix = \"rc1\"\n",
			wantErr: ErrVersionNotFound,
		},
		{
			name:  "version in dependency section ignored",
			input: "[package]\nname = \"thing\"\nversion = \"1.0.0\"\n\n[dependencies]\nserde = { version = \"1.0\" }\n",
			want:  "1.0.0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Resolve(strings.NewReader(tt.input))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("version = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestResolveFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Cargo.toml")

	content := "[package]\nname = \"app\"\nversion = \"1.2.3\"\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	got, err := ResolveFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "1.2.3" {
		t.Errorf("version = %q, want 1.2.3", got)
	}
}

func TestResolveFileMissing(t *testing.T) {
	_, err := ResolveFile(filepath.Join(t.TempDir(), "nope.toml"))
	if !errors.Is(err, ErrManifestMissing) {
		t.Fatalf("err = %v, want ErrManifestMissing", err)
	}
}
