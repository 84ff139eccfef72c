package internal

import (
	"fmt"
	"runtime"
	"strings"
)

// Binary name, used in logs and user-facing output.
const Name = "slipway"

const (

	// String to indicate an undefined variable
	defaultUndefined = "(undefined)"

	// String to indicate a local (non-pipeline) build
	defaultLocalBuild = "(local)"

	// Main branch name used in version strings
	mainBranch = "main"
)

var (
	version   = "" // Version number (e.g., "1.2.3")
	gitCommit = "" // Git commit hash (e.g., "a1b2c3d4")
	branch    = "" // Git branch the binary was built from

	rawQuiet = "false" // Whether to enable quiet mode
	rawDebug = "false" // Whether to enable debug mode
)

// Returns the current version.
//
// If the version is not set, returns "(undefined)". A "v" or "V" prefix
// (e.g., "v1.0.0") is stripped.
func Version() string {
	v := strings.TrimSpace(version)
	if v == "" {
		return defaultUndefined
	}

	v = strings.ToLower(v)
	v = strings.TrimPrefix(v, "v")

	return v
}

// Returns the git branch the binary was built from.
//
// If it is not set, returns "(undefined)".
func Branch() string {
	b := strings.TrimSpace(branch)
	if b == "" {
		return defaultUndefined
	}
	return strings.ToLower(b)
}

// Returns the git commit hash.
//
// If the commit hash is not set, returns "(undefined)".
func GitCommit() string {
	c := strings.TrimSpace(gitCommit)
	if c == "" {
		return defaultUndefined
	}
	return c
}

// Returns the build architecture.
func Arch() string {
	return runtime.GOARCH
}

// Returns true if this is a local (non-pipeline) build.
//
// A build is considered local if any of the version, git commit, or branch
// variables are unset. Pipeline builds should set all three variables via
// linker flags.
func IsLocal() bool {
	return strings.TrimSpace(version) == "" ||
		strings.TrimSpace(gitCommit) == "" ||
		strings.TrimSpace(branch) == ""
}

// Returns a detailed version string.
//
// If this is a local build, returns "(local)". Otherwise, returns a string
// formatted as "<version>+<branch> <git-commit> [<arch>]".
func VersionString() string {
	if IsLocal() {
		return defaultLocalBuild
	}

	b := Branch()
	if b == mainBranch {
		b = ""
	} else {
		b = "+" + b
	}

	return fmt.Sprintf("%s%s %s [%s]", Version(), b, GitCommit(), Arch())
}
