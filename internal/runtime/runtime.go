package runtime

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"

	containerd "github.com/containerd/containerd/v2/client"
	"github.com/containerd/containerd/v2/core/images"
	"github.com/containerd/errdefs"
	"github.com/containerd/platforms"
)

const (

	// Snapshotter used for stage container filesystems.
	snapshotter = "overlayfs"

	// OCI runtime shim for running stage containers.
	ociRuntime = "io.containerd.runc.v2"
)

// Image handle stage containers start from. Aliased so callers outside
// this package do not import the containerd client themselves.
type Image = containerd.Image

// Manages the containerd client and provides image and container operations
// for stage builds.
type Runtime struct {
	client *containerd.Client // Containerd client for managing containers and images.
}

// Creates a runtime connected to the containerd socket at the given address.
//
// The namespace scopes all containerd operations, keeping pipeline images
// and containers apart from anything else on the host. The runtime must be
// closed when no longer needed.
func New(address, namespace string) (*Runtime, error) {
	client, err := containerd.New(address, containerd.WithDefaultNamespace(namespace))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRuntime, err)
	}
	return &Runtime{client: client}, nil
}

// Closes the containerd client connection.
func (rt *Runtime) Close() error {
	return rt.client.Close()
}

// Pulls a pinned base image from its registry and unpacks the layers for
// the target platform.
//
// Stage base references are validated as pinned before a build starts, so
// pulling the same reference twice yields the same content. Building for a
// platform other than the host requires QEMU / binfmt_misc support in the
// kernel.
func (rt *Runtime) Pull(ctx context.Context, ref, platform string) (containerd.Image, error) {
	p, err := platforms.Parse(platform)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRuntime, err)
	}

	image, err := rt.client.Pull(ctx, ref,
		containerd.WithPlatformMatcher(platforms.Only(p)),
		containerd.WithPullSnapshotter(snapshotter),
		containerd.WithPullUnpack,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRuntime, err)
	}

	slog.Debug("image pulled", "ref", ref, "platform", platform)
	return image, nil
}

// Imports the OCI archive a previous stage exported and unpacks it for the
// target platform.
//
// The archive is imported into containerd's content store and tagged with a
// deterministic name derived from the path, so re-importing the same archive
// updates the existing record instead of accumulating duplicates.
func (rt *Runtime) ImportArchive(ctx context.Context, path, platform string) (containerd.Image, error) {
	tag := archiveTag(path)

	source, err := rt.importArchive(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRuntime, err)
	}

	if err := rt.tagImage(ctx, source, tag); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRuntime, err)
	}

	image, err := rt.resolveImage(ctx, tag, platform)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRuntime, err)
	}

	if err := image.Unpack(ctx, snapshotter); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRuntime, err)
	}

	slog.Debug("archive imported", "path", path, "tag", tag)
	return image, nil
}

// Starts a stage container from an image.
//
// A container is created with a fresh snapshot and a long-running task
// (sleep infinity) is started so that subsequent Exec calls have a running
// process to attach to. Any stale container with the same ID from a
// previous run is removed first.
func (rt *Runtime) StartContainer(ctx context.Context, image containerd.Image, id, platform string) (*Container, error) {
	c := &Container{
		client:   rt.client,
		id:       id,
		platform: platform,
	}

	c.remove(ctx)

	ctr, err := c.create(ctx, image)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRuntime, err)
	}

	if err := c.startTask(ctx, ctr); err != nil {
		ctr.Delete(ctx, containerd.WithSnapshotCleanup)
		return nil, fmt.Errorf("%w: %w", ErrRuntime, err)
	}

	slog.Debug("stage container started", "id", id, "image", image.Name())
	return c, nil
}

// Imports an OCI archive into the content store.
//
// The archive must contain exactly one image. Multi-platform archives are
// supported (single OCI index with per-platform manifests); platform
// selection happens later via resolveImage.
func (rt *Runtime) importArchive(ctx context.Context, path string) (images.Image, error) {
	fh, err := os.Open(path)
	if err != nil {
		return images.Image{}, err
	}
	defer fh.Close()

	imported, err := rt.client.Import(ctx, fh)
	if err != nil {
		return images.Image{}, err
	}

	if len(imported) == 0 {
		return images.Image{}, ErrEmptyArchive
	} else if len(imported) > 1 {
		return images.Image{}, ErrMultipleImages
	}

	return imported[0], nil
}

// Tags an imported image under a deterministic name.
//
// Updates the tag if it already exists. Removes the source record when its
// name differs from the tag to avoid duplicates.
func (rt *Runtime) tagImage(ctx context.Context, source images.Image, tag string) error {
	is := rt.client.ImageService()

	img := images.Image{
		Name:   tag,
		Target: source.Target,
	}

	if _, err := is.Create(ctx, img); err != nil {
		if !errdefs.IsAlreadyExists(err) {
			return err
		}
		if _, err := is.Update(ctx, img, "target"); err != nil {
			return err
		}
	}

	if source.Name != tag {
		_ = is.Delete(ctx, source.Name)
	}

	return nil
}

// Looks up a tagged image and selects the manifest for the given platform.
func (rt *Runtime) resolveImage(ctx context.Context, tag, platform string) (containerd.Image, error) {
	p, err := platforms.Parse(platform)
	if err != nil {
		return nil, err
	}

	img, err := rt.client.ImageService().Get(ctx, tag)
	if err != nil {
		return nil, err
	}

	return containerd.NewImageWithPlatform(rt.client, img, platforms.Only(p)), nil
}

// Produces a containerd image tag from an archive path.
//
// The path is hashed so the tag is always a valid OCI reference regardless
// of which characters the path contains, and the same archive always maps
// to the same tag.
func archiveTag(path string) string {
	h := sha256.Sum256([]byte(path))
	return fmt.Sprintf("stage/%s:latest", hex.EncodeToString(h[:]))
}
