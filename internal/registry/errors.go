package registry

import "errors"

var (
	// ErrPublish indicates that an image could not be pushed to the registry.
	ErrPublish = errors.New("failed to publish image")

	// ErrNoArchives indicates a publish request without any platform archives.
	ErrNoArchives = errors.New("no platform archives to publish")

	// ErrNoTags indicates a publish request without any tags.
	ErrNoTags = errors.New("no tags to publish")
)
