package manifest

import "errors"

var (
	ErrManifestMissing = errors.New("manifest missing")
	ErrVersionNotFound = errors.New("version not found in manifest")
	ErrVersionEmpty    = errors.New("empty version in manifest")
	ErrVersionUnquoted = errors.New("unquoted version in manifest")
)
