// Package pipeline orchestrates a release from trigger to publish.
//
// A pipeline sits idle until triggered, then materializes the build
// context, resolves the release version from the project manifest,
// assembles the image for every target platform, and publishes the result
// under the exact version tag and "latest". Any failure along the way
// leaves the registry untouched past the last fully pushed tag.
package pipeline
