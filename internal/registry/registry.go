package registry

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/containerd/containerd/v2/core/remotes"
	"github.com/containerd/containerd/v2/core/remotes/docker"
	"github.com/opencontainers/go-digest"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"

	"github.com/slipwayci/slipway/internal/config"
	"github.com/slipwayci/slipway/internal/runtime"
)

// Image is a publishable build result.
type Image struct {
	// Repository is the tagless registry reference, e.g. "ghcr.io/acme/tool".
	Repository string

	// Archives maps platform strings to exported OCI archive paths.
	Archives map[string]string
}

// Client pushes images through the containerd content store.
type Client struct {
	runtime   *runtime.Runtime
	creds     config.Credentials
	plainHTTP bool
}

// Option configures a [Client].
type Option func(*Client)

// WithPlainHTTP switches registry communication to plain HTTP. Intended
// for local registries in tests.
func WithPlainHTTP() Option {
	return func(c *Client) {
		c.plainHTTP = true
	}
}

// Creates a registry client pushing through rt with the given credentials.
func New(rt *runtime.Runtime, creds config.Credentials, opts ...Option) *Client {
	c := &Client{
		runtime: rt,
		creds:   creds,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Pushes img under every tag and returns the digest all tags point at.
//
// The platform archives are imported into the content store, joined into a
// multi-architecture index, and the index is pushed once per tag in the
// given order. Blob uploads are deduplicated by the registry, so only the
// first tag transfers content. A failed push aborts before later tags are
// touched.
func (c *Client) Push(ctx context.Context, img Image, tags []string) (digest.Digest, error) {
	if len(img.Archives) == 0 {
		return "", fmt.Errorf("%w: %s", ErrNoArchives, img.Repository)
	}
	if len(tags) == 0 {
		return "", fmt.Errorf("%w: %s", ErrNoTags, img.Repository)
	}

	// Hold a lease until the last tag landed so the index blob written
	// below cannot be garbage collected mid-publish.
	leased, release, err := c.runtime.WithLease(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrPublish, err)
	}
	defer release(context.WithoutCancel(ctx))

	target, err := c.assembleIndex(leased, img)
	if err != nil {
		return "", err
	}

	resolver := c.resolver()
	for _, tag := range tags {
		ref := TagRef(img.Repository, tag)
		if err := c.runtime.Push(leased, ref, target, resolver); err != nil {
			return "", fmt.Errorf("%w: %s: %w", ErrPublish, ref, err)
		}
	}

	slog.Info("publish complete",
		"repository", img.Repository,
		"tags", tags,
		"digest", target.Digest)

	return target.Digest, nil
}

// Imports every platform archive and writes the joining index.
func (c *Client) assembleIndex(ctx context.Context, img Image) (ocispec.Descriptor, error) {
	manifests := make([]ocispec.Descriptor, 0, len(img.Archives))

	for _, platform := range sortedPlatforms(img.Archives) {
		imported, err := c.runtime.ImportArchive(ctx, img.Archives[platform], platform)
		if err != nil {
			return ocispec.Descriptor{}, fmt.Errorf("%w: import %s: %w", ErrPublish, platform, err)
		}

		manifest, err := c.runtime.PlatformManifest(ctx, imported, platform)
		if err != nil {
			return ocispec.Descriptor{}, fmt.Errorf("%w: %s: %w", ErrPublish, platform, err)
		}

		manifests = append(manifests, manifest)
	}

	target, err := c.runtime.WriteIndex(ctx, manifests)
	if err != nil {
		return ocispec.Descriptor{}, fmt.Errorf("%w: %w", ErrPublish, err)
	}

	return target, nil
}

// Builds a resolver carrying the injected credentials for every host.
func (c *Client) resolver() remotes.Resolver {
	authorizer := docker.NewDockerAuthorizer(
		docker.WithAuthCreds(func(string) (string, string, error) {
			return c.creds.Username, c.creds.Token, nil
		}))

	opts := []docker.RegistryOpt{docker.WithAuthorizer(authorizer)}
	if c.plainHTTP {
		opts = append(opts, docker.WithPlainHTTP(docker.MatchAllHosts))
	}

	return docker.NewResolver(docker.ResolverOptions{
		Hosts: docker.ConfigureDefaultRegistries(opts...),
	})
}

// TagRef appends a tag to a tagless repository reference.
func TagRef(repository, tag string) string {
	return repository + ":" + tag
}

// Index entries are ordered by platform so the same archives always
// produce the same index digest.
func sortedPlatforms(archives map[string]string) []string {
	platforms := make([]string, 0, len(archives))
	for p := range archives {
		platforms = append(platforms, p)
	}
	sort.Strings(platforms)
	return platforms
}
