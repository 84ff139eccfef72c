package runtime

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync/atomic"

	containerd "github.com/containerd/containerd/v2/client"
	"github.com/containerd/containerd/v2/pkg/cio"
	specs "github.com/opencontainers/runtime-spec/specs-go"
)

// Sequence counter for generating unique exec process identifiers.
var execSeq uint64

// Returns a unique exec process identifier.
func nextExecID() string {
	return fmt.Sprintf("exec-%d", atomic.AddUint64(&execSeq, 1))
}

// Output of a command execution inside a stage container.
type ExecResult struct {
	ExitCode int    // Exit code of the process.
	Stdout   string // Captured standard output.
	Stderr   string // Captured standard error.
}

// Runs a command inside the container.
//
// The command is passed to the shell as a single argument via "shell -c
// command". Environment variables and working directory override the
// container's OCI spec for this execution only. A non-zero exit code is
// reported in the result, not as an error; the assembler decides whether
// it fails the stage.
func (c *Container) Exec(ctx context.Context, shell, command string, env []string, workdir string) (*ExecResult, error) {
	var stdout bytes.Buffer
	exitCode, stderr, err := c.execCommand(ctx, nil, &stdout, env, workdir, shell, "-c", command)
	if err != nil {
		return nil, err
	}

	return &ExecResult{
		ExitCode: exitCode,
		Stdout:   stdout.String(),
		Stderr:   stderr,
	}, nil
}

// Builds an OCI process spec for running a command inside the container.
//
// The base values are copied from the container's own OCI spec, then env
// and workdir are overridden if provided.
func (c *Container) buildProcessSpec(ctx context.Context, env []string, workdir string, args ...string) (*specs.Process, error) {
	ctr, err := c.client.LoadContainer(ctx, c.id)
	if err != nil {
		return nil, err
	}

	spec, err := ctr.Spec(ctx)
	if err != nil {
		return nil, err
	}

	pspec := *spec.Process
	pspec.Terminal = false
	pspec.Args = args

	if len(env) > 0 {
		pspec.Env = mergeEnv(pspec.Env, env)
	}
	if workdir != "" {
		pspec.Cwd = workdir
	}

	return &pspec, nil
}

// Merges override env vars on top of a base env slice.
func mergeEnv(base, overrides []string) []string {
	merged := make(map[string]string, len(base)+len(overrides))
	for _, entry := range base {
		if k, v, ok := strings.Cut(entry, "="); ok {
			merged[k] = v
		}
	}
	for _, entry := range overrides {
		if k, v, ok := strings.Cut(entry, "="); ok {
			merged[k] = v
		}
	}

	result := make([]string, 0, len(merged))
	for k, v := range merged {
		result = append(result, k+"="+v)
	}
	return result
}

// Runs a command inside the container, returning the exit code and captured
// stderr. Builds the process spec from args, then delegates to execProcess.
func (c *Container) execCommand(ctx context.Context, stdin io.Reader, stdout io.Writer, env []string, workdir string, args ...string) (int, string, error) {
	pspec, err := c.buildProcessSpec(ctx, env, workdir, args...)
	if err != nil {
		return 0, "", fmt.Errorf("%w: %w", ErrRuntime, err)
	}

	var stderr bytes.Buffer
	exitCode, err := c.execProcess(ctx, pspec, stdin, stdout, &stderr)
	if err != nil {
		return 0, "", err
	}
	return exitCode, stderr.String(), nil
}

// Starts a process inside the container's running task, waits for it to
// exit, and returns the exit code.
//
// The process is attached to the task as an additional exec, not as the
// primary process; the task must already be running (started when the
// container was created). Nil streams are replaced with io.Discard
// (stdout/stderr) or left disconnected (stdin).
//
// When stdin is provided, the container's stdin is explicitly closed after
// the reader returns EOF so the exec process receives the EOF signal. The
// containerd shim holds both ends of the stdin FIFO open and will not
// propagate EOF on its own.
func (c *Container) execProcess(ctx context.Context, pspec *specs.Process, stdin io.Reader, stdout, stderr io.Writer) (int, error) {
	task, err := c.loadTask(ctx)
	if err != nil {
		return 0, err
	}

	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}

	// Wrap stdin to detect when the reader returns EOF.
	var stdinDone <-chan struct{}
	if stdin != nil {
		dr := newDoneReader(stdin)
		stdin = dr
		stdinDone = dr.done
	}

	process, err := task.Exec(ctx, nextExecID(), pspec, cio.NewCreator(
		cio.WithStreams(stdin, stdout, stderr),
	))
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrRuntime, err)
	}

	return awaitProcess(ctx, process, stdinDone)
}

// Loads the container's running task.
func (c *Container) loadTask(ctx context.Context) (containerd.Task, error) {
	ctr, err := c.client.LoadContainer(ctx, c.id)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRuntime, err)
	}

	task, err := ctr.Task(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRuntime, err)
	}

	return task, nil
}

// Waits for an exec process to exit and returns the exit code.
//
// The process is started, then the function blocks until it exits. If
// stdinDone is non-nil, the process stdin is closed when the channel fires
// so the exec process receives EOF. The process is always deleted before
// returning.
func awaitProcess(ctx context.Context, process containerd.Process, stdinDone <-chan struct{}) (int, error) {
	statusC, err := process.Wait(ctx)
	if err != nil {
		process.Delete(ctx)
		return 0, fmt.Errorf("%w: %w", ErrRuntime, err)
	}

	if err := process.Start(ctx); err != nil {
		process.Delete(ctx)
		return 0, fmt.Errorf("%w: %w", ErrRuntime, err)
	}

	if stdinDone != nil {
		go func() {
			<-stdinDone
			process.CloseIO(ctx, containerd.WithStdinCloser)
		}()
	}

	exitStatus := <-statusC
	process.Delete(ctx)

	code, _, err := exitStatus.Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrRuntime, err)
	}

	return int(code), nil
}
