// Package assemble builds the multi-stage release image.
//
// A release is described by an ordered arena of stage descriptors. Each
// stage names its base (a pinned registry image or, by index, a previously
// built stage), the steps that run inside it, and the runtime identity of
// the image it exports. The canonical chain has three stages: a builder
// that compiles the binary, a base that carries only the binary plus
// minimal runtime dependencies (the published target), and a rootless
// variant that drops to a non-privileged user.
//
// Stages build in declaration order against the container runtime. Each
// stage starts a container from its resolved base, executes its steps
// (shell commands, host copies, and cross-stage copies), and exports its
// committed filesystem as an OCI archive. A stage whose parent is another
// stage starts from that stage's exported archive, which makes the chain
// explicit and keeps every stage independently inspectable.
//
// Multi-platform assemblies run one sub-build per target platform in
// parallel; sub-builds share no state and each produces its own archive
// for the publish stage.
//
// Example usage:
//
//	result, err := assemble.Run(ctx, rt, assemble.Options{
//	    Stages:    assemble.DefaultStages(cfg),
//	    Name:      cfg.Project.Name,
//	    Context:   ".",
//	    Scratch:   scratch,
//	    Platforms: []string{"linux/amd64", "linux/arm64"},
//	})
//	if err != nil {
//	    return err
//	}
package assemble
