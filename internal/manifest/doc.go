// Package manifest derives the release version from a project manifest.
//
// The manifest is the project's own metadata file (e.g. Cargo.toml or a
// similar key-value header). Only the leading lines are inspected: the
// resolver scans a fixed window at the top of the file for a line whose
// key is "version" and returns the substring between the first pair of
// double quotes on that line.
//
// This is deliberately not a full manifest parser. The bounded-window,
// quote-delimited contract matches the release tooling it replaces; a
// quoted value that is not a semantic version passes through unchanged,
// while a missing file, a missing key, or an empty or unquoted value is
// a resolution failure that must abort the release before any build
// step runs.
//
// Example usage:
//
//	version, err := manifest.ResolveFile("Cargo.toml")
//	if err != nil {
//	    return err
//	}
//	slog.Info("resolved release version", "version", version)
package manifest
