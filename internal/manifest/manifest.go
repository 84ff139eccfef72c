package manifest

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Number of leading manifest lines inspected for the version key.
//
// The window covers the metadata header of a typical manifest; a version
// key further down the file is ignored on purpose, so that occurrences of
// "version" in dependency sections can never be mistaken for the project
// version.
const scanWindow = 5

// Returns the version declared in the first [scanWindow] lines of the
// manifest read from r.
//
// The version line has the shape `version = "x.y.z"`. The value is the
// substring between the first pair of double quotes; no semantic-version
// validation is applied beyond that, so a quoted non-numeric value is
// returned as-is.
func Resolve(r io.Reader) (string, error) {
	scanner := bufio.NewScanner(r)

	for line := 0; line < scanWindow && scanner.Scan(); line++ {
		text := scanner.Text()
		if !isVersionLine(text) {
			continue
		}
		return extractQuoted(text)
	}

	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("%w: %w", ErrVersionNotFound, err)
	}

	return "", ErrVersionNotFound
}

// Opens the manifest at path and resolves the version from it.
//
// A missing file maps to [ErrManifestMissing] so that the caller can treat
// it the same as any other resolution failure.
func ResolveFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrManifestMissing, err)
	}
	defer f.Close()

	return Resolve(f)
}

// Reports whether the line declares the version key.
//
// The key must be the first token on the line, followed by an equals sign.
// Keys that merely start with "version" (e.g. "version_suffix") do not
// match.
func isVersionLine(line string) bool {
	trimmed := strings.TrimLeft(line, " \t")
	rest, ok := strings.CutPrefix(trimmed, "version")
	if !ok {
		return false
	}
	rest = strings.TrimLeft(rest, " \t")
	return strings.HasPrefix(rest, "=")
}

// Extracts the substring between the first pair of double quotes.
func extractQuoted(line string) (string, error) {
	open := strings.IndexByte(line, '"')
	if open < 0 {
		return "", fmt.Errorf("%w: %q", ErrVersionUnquoted, line)
	}

	rest := line[open+1:]
	closing := strings.IndexByte(rest, '"')
	if closing < 0 {
		return "", fmt.Errorf("%w: %q", ErrVersionUnquoted, line)
	}

	version := rest[:closing]
	if version == "" {
		return "", ErrVersionEmpty
	}

	return version, nil
}
