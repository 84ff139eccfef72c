package runtime

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	containerd "github.com/containerd/containerd/v2/client"
	"github.com/containerd/containerd/v2/core/content"
	"github.com/containerd/containerd/v2/core/images"
	"github.com/containerd/containerd/v2/core/remotes"
	"github.com/containerd/platforms"
	"github.com/opencontainers/go-digest"
	imagespec "github.com/opencontainers/image-spec/specs-go"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
)

// Returns the manifest descriptor of an imported image for one platform,
// with the platform recorded on the descriptor.
//
// Stage archives hold a single platform, either as a bare manifest or as a
// single-entry index. The returned descriptor is suitable as one entry of
// a multi-architecture index.
func (rt *Runtime) PlatformManifest(ctx context.Context, image Image, platform string) (ocispec.Descriptor, error) {
	p, err := platforms.Parse(platform)
	if err != nil {
		return ocispec.Descriptor{}, fmt.Errorf("%w: %w", ErrRuntime, err)
	}

	root := image.Target()

	if images.IsManifestType(root.MediaType) {
		root.Platform = &p
		return root, nil
	}

	if !images.IsIndexType(root.MediaType) {
		return ocispec.Descriptor{}, fmt.Errorf("%w: unexpected media type %s", ErrRuntime, root.MediaType)
	}

	idx, err := readJSON[ocispec.Index](ctx, rt.client.ContentStore(), root)
	if err != nil {
		return ocispec.Descriptor{}, fmt.Errorf("%w: %w", ErrRuntime, err)
	}
	if len(idx.Manifests) == 0 {
		return ocispec.Descriptor{}, fmt.Errorf("%w: %s", ErrEmptyIndex, image.Name())
	}

	matcher := platforms.Only(p)
	for _, m := range idx.Manifests {
		if m.Platform != nil && matcher.Match(*m.Platform) {
			return m, nil
		}
	}

	// Single-platform archives may omit platform metadata on their only
	// entry; the build loop guarantees which platform it was built for.
	desc := idx.Manifests[0]
	desc.Platform = &p
	return desc, nil
}

// Writes a multi-architecture OCI index referencing the given per-platform
// manifests and returns its descriptor.
//
// The index blob is labelled with GC references to its manifests; callers
// should hold a content lease across the write and the subsequent push so
// the blob cannot be collected in between.
func (rt *Runtime) WriteIndex(ctx context.Context, manifests []ocispec.Descriptor) (ocispec.Descriptor, error) {
	index := ocispec.Index{
		Versioned: imagespec.Versioned{SchemaVersion: 2},
		MediaType: ocispec.MediaTypeImageIndex,
		Manifests: manifests,
	}

	b, err := json.Marshal(index)
	if err != nil {
		return ocispec.Descriptor{}, fmt.Errorf("%w: %w", ErrRuntime, err)
	}

	desc := ocispec.Descriptor{
		MediaType: ocispec.MediaTypeImageIndex,
		Digest:    digest.FromBytes(b),
		Size:      int64(len(b)),
	}

	err = content.WriteBlob(ctx, rt.client.ContentStore(), "release-index", bytes.NewReader(b), desc,
		content.WithLabels(indexGCLabels(index)))
	if err != nil {
		return ocispec.Descriptor{}, fmt.Errorf("%w: %w", ErrRuntime, err)
	}

	return desc, nil
}

// Acquires a content lease scoped to the returned context.
//
// Blobs written under the lease survive containerd's garbage collection
// until the returned release function is called.
func (rt *Runtime) WithLease(ctx context.Context) (context.Context, func(context.Context) error, error) {
	return rt.client.WithLease(ctx)
}

// Pushes a target descriptor and everything reachable from it to the
// registry under ref.
//
// The resolver carries the registry endpoint configuration and injected
// credentials. A push either lands completely or leaves the remote tag at
// its previous value; containerd uploads blobs before updating the tag.
func (rt *Runtime) Push(ctx context.Context, ref string, target ocispec.Descriptor, resolver remotes.Resolver) error {
	if err := rt.client.Push(ctx, ref, target, containerd.WithResolver(resolver)); err != nil {
		return fmt.Errorf("%w: %w", ErrRuntime, err)
	}

	slog.Info("image pushed", "ref", ref, "digest", target.Digest)
	return nil
}
