// Package runtime manages build-stage containers backed by containerd.
//
// A [Runtime] connects to a containerd daemon and provides the image
// operations the assembler needs: pulling pinned base images from a
// registry, importing the OCI archive a previous stage exported, and
// starting stage containers from either.
//
// Each [Container] wraps a running containerd task. The assembler executes
// stage steps inside it, streams files in and out as tar, and finally
// commits the container's filesystem diff as a single layer, exporting the
// result as an OCI archive with the stage's entrypoint, user, and working
// directory applied to the image config. Containers must be destroyed when
// a stage is done to release their snapshots.
//
// Example usage:
//
//	rt, err := runtime.New("/run/containerd/containerd.sock", "slipway")
//	if err != nil {
//	    return err
//	}
//	defer rt.Close()
//
//	image, err := rt.Pull(ctx, "docker.io/library/debian:bookworm-slim", "linux/amd64")
//	if err != nil {
//	    return err
//	}
//
//	ctr, err := rt.StartContainer(ctx, image, "release-base", "linux/amd64")
//	if err != nil {
//	    return err
//	}
//	defer ctr.Destroy(ctx)
//
//	if err := ctr.Export(ctx, "base.tar", runtime.ExportConfig{
//	    Entrypoint: []string{"/usr/local/bin/app"},
//	}); err != nil {
//	    return err
//	}
package runtime
