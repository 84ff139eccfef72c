package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Default configuration file name, resolved relative to the build context.
const DefaultFile = "slipway.toml"

// Top-level pipeline configuration.
type Config struct {
	Project   Project  `toml:"project"`
	Manifest  Manifest `toml:"manifest"`
	Build     Build    `toml:"build"`
	Image     Image    `toml:"image"`
	Registry  Registry `toml:"registry"`
	Platforms []string `toml:"platforms"`
}

// Names the project being packaged.
type Project struct {
	Name string `toml:"name"` // Image name, also used for container IDs and the rootless user.
}

// Locates the manifest the release version is derived from.
type Manifest struct {
	Path string `toml:"path"` // Path relative to the build context root.
}

// Describes the builder stage.
type Build struct {
	Image     string   `toml:"image"`      // Pinned toolchain image (e.g. "docker.io/library/rust:1.75.0-slim-bookworm").
	Command   string   `toml:"command"`    // Fixed release build command, run as-is in the builder.
	Workdir   string   `toml:"workdir"`    // Working directory inside the builder.
	LockFiles []string `toml:"lock_files"` // Dependency lock files, copied before the source tree.
	Sources   []string `toml:"sources"`    // Source directories copied into the builder.
	Assets    []string `toml:"assets"`     // Static asset directories needed at compile time.
	Artifact  string   `toml:"artifact"`   // Path of the compiled binary inside the builder.
}

// Describes the runtime image composition.
type Image struct {
	Base      string   `toml:"base"`      // Pinned minimal OS image for the runtime stage.
	Installer string   `toml:"installer"` // Package manager family of the base: "apt" or "apk".
	Packages  []string `toml:"packages"`  // Runtime packages (TLS library, CA certificates, tzdata).
	Binary    string   `toml:"binary"`    // Destination path of the binary in the runtime image.
	UID       int      `toml:"uid"`       // Numeric id for the rootless user and group.
}

// Names the target registry.
type Registry struct {
	Host       string `toml:"host"`       // Registry host (e.g. "docker.io").
	Repository string `toml:"repository"` // Repository the image is pushed to (e.g. "acme/app").
	PlainHTTP  bool   `toml:"plain_http"` // Use HTTP instead of HTTPS (local registries only).
}

// Loads the configuration from a TOML file, applies defaults, and validates
// the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfigMissing, err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfigInvalid, err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Fills in defaults for optional fields.
func (c *Config) applyDefaults() {
	if c.Manifest.Path == "" {
		c.Manifest.Path = "Cargo.toml"
	}
	if c.Build.Workdir == "" {
		c.Build.Workdir = "/app"
	}
	if c.Image.Binary == "" && c.Project.Name != "" {
		c.Image.Binary = "/usr/local/bin/" + c.Project.Name
	}
	if c.Image.Installer == "" {
		c.Image.Installer = "apt"
	}
	if c.Image.UID == 0 {
		c.Image.UID = 1000
	}
	if len(c.Platforms) == 0 {
		c.Platforms = []string{"linux/amd64"}
	}
}

// Checks that required fields are present and that base image references
// are pinned.
func (c *Config) Validate() error {
	switch {
	case c.Project.Name == "":
		return fmt.Errorf("%w: project.name is required", ErrConfigInvalid)
	case c.Build.Image == "":
		return fmt.Errorf("%w: build.image is required", ErrConfigInvalid)
	case c.Build.Command == "":
		return fmt.Errorf("%w: build.command is required", ErrConfigInvalid)
	case c.Build.Artifact == "":
		return fmt.Errorf("%w: build.artifact is required", ErrConfigInvalid)
	case c.Image.Base == "":
		return fmt.Errorf("%w: image.base is required", ErrConfigInvalid)
	case c.Registry.Host == "":
		return fmt.Errorf("%w: registry.host is required", ErrConfigInvalid)
	case c.Registry.Repository == "":
		return fmt.Errorf("%w: registry.repository is required", ErrConfigInvalid)
	case c.Image.Installer != "apt" && c.Image.Installer != "apk":
		return fmt.Errorf("%w: image.installer must be \"apt\" or \"apk\", got %q", ErrConfigInvalid, c.Image.Installer)
	}

	for _, ref := range []string{c.Build.Image, c.Image.Base} {
		if err := checkPinned(ref); err != nil {
			return err
		}
	}

	return nil
}

// Returns the full image reference for a tag, e.g.
// "docker.io/acme/app:1.2.3".
func (c *Config) ImageRef(tag string) string {
	return fmt.Sprintf("%s/%s:%s", c.Registry.Host, c.Registry.Repository, tag)
}

// Verifies that an image reference is pinned to an exact version.
//
// A reference pinned by digest always passes. A reference pinned by tag must
// carry an explicit tag other than "latest"; floating references would make
// builds unreproducible.
func checkPinned(ref string) error {
	if strings.Contains(ref, "@") {
		return nil
	}

	// Only a colon after the last slash separates a tag; earlier colons
	// belong to a registry port.
	name := ref
	if i := strings.LastIndexByte(ref, '/'); i >= 0 {
		name = ref[i+1:]
	}

	tag := ""
	if i := strings.IndexByte(name, ':'); i >= 0 {
		tag = name[i+1:]
	}

	if tag == "" || tag == "latest" {
		return fmt.Errorf("%w: %q", ErrUnpinnedImage, ref)
	}

	return nil
}
