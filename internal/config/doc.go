// Package config loads and validates the pipeline configuration.
//
// The configuration lives in a TOML file (slipway.toml by default) at the
// root of the build context. It names the project, the manifest the release
// version is derived from, the builder toolchain and build command, the
// runtime image composition, the target registry, and the platforms to
// build for.
//
// Registry credentials are never part of the file. They are injected
// through the environment (SLIPWAY_REGISTRY_USER, SLIPWAY_REGISTRY_TOKEN),
// optionally seeded from a .env file next to the configuration.
package config
