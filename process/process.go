// Package process launches external tools on behalf of the build engine.
package process

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"strings"

	"github.com/jonwraymond/kotlinexec/logging"
)

// Errors for process execution.
var (
	// ErrLaunch is returned when a process cannot be started.
	ErrLaunch = errors.New("process launch failed")

	// ErrInterrupted is returned when the caller's context ends while a
	// process is running. It always wraps the context error as well.
	ErrInterrupted = errors.New("process interrupted")

	// ErrEmptyCommand is returned for Params without a command.
	ErrEmptyCommand = errors.New("process command is empty")
)

// LaunchError describes an I/O failure starting a process.
type LaunchError struct {
	Command []string
	Err     error
}

func (e *LaunchError) Error() string {
	name := ""
	if len(e.Command) > 0 {
		name = e.Command[0]
	}
	return fmt.Sprintf("%s: %s: %v", ErrLaunch.Error(), name, e.Err)
}

// Unwrap returns the underlying error.
func (e *LaunchError) Unwrap() error {
	return e.Err
}

// Is matches ErrLaunch.
func (e *LaunchError) Is(target error) bool {
	return target == ErrLaunch
}

// Params describes one process invocation.
type Params struct {
	// Command is argv; Command[0] is the executable.
	Command []string

	// Env is the complete environment of the child. A nil map inherits the
	// current process environment; an empty map gives an empty environment.
	Env map[string]string

	// Dir is the working directory. Empty means the current directory.
	Dir string

	// Stdout and Stderr receive the child's output as it is produced.
	// When nil, the output is captured into the Result instead.
	Stdout io.Writer
	Stderr io.Writer
}

// Result is the outcome of a process that ran to completion.
type Result struct {
	ExitCode int

	// Stdout and Stderr hold captured output when Params left the matching
	// writer nil.
	Stdout string
	Stderr string
}

// Executor launches processes and waits for them.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: cancellation kills the child and returns an error matching
//   ErrInterrupted and the context error.
// - Errors: start failures match ErrLaunch; a non-zero exit is not an error.
type Executor interface {
	Execute(ctx context.Context, p Params) (Result, error)
}

// DefaultExecutor runs processes with os/exec in their own process group.
type DefaultExecutor struct {
	logger logging.Logger
}

// NewExecutor creates a DefaultExecutor. A nil logger discards logs.
func NewExecutor(logger logging.Logger) *DefaultExecutor {
	return &DefaultExecutor{logger: logging.OrNop(logger)}
}

// Execute runs p.Command to completion.
func (e *DefaultExecutor) Execute(ctx context.Context, p Params) (Result, error) {
	if len(p.Command) == 0 {
		return Result{}, ErrEmptyCommand
	}
	if err := ctx.Err(); err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrInterrupted, err)
	}

	cmd := exec.Command(p.Command[0], p.Command[1:]...)
	cmd.Dir = p.Dir
	cmd.Env = buildEnv(p.Env)
	setProcessGroup(cmd)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = p.Stdout
	if cmd.Stdout == nil {
		cmd.Stdout = &stdout
	}
	cmd.Stderr = p.Stderr
	if cmd.Stderr == nil {
		cmd.Stderr = &stderr
	}

	if err := cmd.Start(); err != nil {
		return Result{}, &LaunchError{Command: p.Command, Err: err}
	}
	e.logger.Debug("process started", "pid", cmd.Process.Pid, "command", strings.Join(p.Command, " "))

	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()

	var err error
	select {
	case <-ctx.Done():
		killProcessGroup(cmd)
		<-done
		e.logger.Warn("process interrupted", "pid", cmd.Process.Pid, "cause", ctx.Err())
		return Result{}, fmt.Errorf("%w: %w", ErrInterrupted, ctx.Err())
	case err = <-done:
	}

	exitCode := 0
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return Result{}, &LaunchError{Command: p.Command, Err: err}
		}
		exitCode = exitErr.ExitCode()
	}

	return Result{
		ExitCode: exitCode,
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
	}, nil
}

func buildEnv(env map[string]string) []string {
	if env == nil {
		return os.Environ()
	}
	out := make([]string, 0, len(env))
	for k, v := range env {
		out = append(out, k+"="+v)
	}
	sort.Strings(out)
	return out
}

var _ Executor = (*DefaultExecutor)(nil)
