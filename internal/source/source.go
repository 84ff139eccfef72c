package source

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

var (
	// ErrContextMissing indicates a local context directory that does not exist.
	ErrContextMissing = errors.New("build context does not exist")

	// ErrClone indicates a failed git clone.
	ErrClone = errors.New("failed to clone build context")
)

// Subdirectory of the run scratch space holding cloned contexts.
const cloneDir = "context"

// Resolves a context spec into a directory on disk.
//
// Local paths are validated and returned as-is; git URLs are shallow-cloned
// into scratch. The returned directory lives at least as long as scratch,
// callers never need to clean it up separately.
func Resolve(ctx context.Context, spec, scratch string) (string, error) {
	if IsGitURL(spec) {
		return clone(ctx, spec, scratch)
	}

	info, err := os.Stat(spec)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrContextMissing, spec)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%w: %s is not a directory", ErrContextMissing, spec)
	}

	return spec, nil
}

// IsGitURL reports whether a context spec names a remote repository.
func IsGitURL(spec string) bool {
	return strings.HasPrefix(spec, "https://") ||
		strings.HasPrefix(spec, "http://") ||
		strings.HasPrefix(spec, "ssh://") ||
		strings.HasPrefix(spec, "git@")
}

func clone(ctx context.Context, spec, scratch string) (string, error) {
	url, ref := SplitRef(spec)
	dir := filepath.Join(scratch, cloneDir)

	opts := &git.CloneOptions{
		URL:   url,
		Depth: 1,
	}
	if ref != "" {
		opts.ReferenceName = plumbing.ReferenceName(ref)
		opts.SingleBranch = true
	}

	slog.Info("cloning build context", "url", url, "ref", ref, "dir", dir)

	if _, err := git.PlainCloneContext(ctx, dir, false, opts); err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrClone, url, err)
	}

	return dir, nil
}

// SplitRef separates a "url#ref" context spec into its parts.
//
// The ref is returned as a full reference name; bare branch or tag names
// are tried as branches first, matching git's own resolution order.
func SplitRef(spec string) (url, ref string) {
	url, fragment, found := strings.Cut(spec, "#")
	if !found || fragment == "" {
		return url, ""
	}

	if strings.HasPrefix(fragment, "refs/") {
		return url, fragment
	}

	return url, string(plumbing.NewBranchReferenceName(fragment))
}
