package paths

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
)

const (

	// Name used for directory and file naming.
	toolName = "slipway"

	// Default permission mode for directories.
	DefaultDirMode os.FileMode = 0755

	// Default permission mode for files.
	DefaultFileMode os.FileMode = 0644
)

// Path to the cache directory holding per-run scratch state.
//
//	Linux:   ~/.cache/slipway
//	macOS:   ~/Library/Caches/slipway
func Cache() string {
	return filepath.Join(xdg.CacheHome, toolName)
}

// Creates and returns a fresh scratch directory for a single pipeline run.
//
// Stage archives and cloned build contexts live under this directory. The
// caller removes it when the run finishes; a run that is killed leaves its
// scratch behind for inspection.
func RunScratch(runID string) (string, error) {
	dir := filepath.Join(Cache(), "runs", runID)
	if err := os.MkdirAll(dir, DefaultDirMode); err != nil {
		return "", err
	}
	return dir, nil
}

// Returns the scratch subdirectory for one stage of one platform.
//
// The platform's slashes are flattened so the directory name stays a single
// path element (e.g. "linux/arm64" becomes "linux-arm64").
func StageDir(scratch, stage, platform string) string {
	slug := strings.ReplaceAll(platform, "/", "-")
	return filepath.Join(scratch, slug, stage)
}
