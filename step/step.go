// Package step wraps a compiler invocation into the unit of work the build
// engine executes.
package step

import (
	"bytes"
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/jonwraymond/kotlinexec/buildctx"
	"github.com/jonwraymond/kotlinexec/invoke"
)

// Result is the outcome of a compilation step.
type Result struct {
	// ExitCode is the compiler's exit code.
	ExitCode int

	// Stderr holds the compiler's diagnostics when ExitCode is non-zero,
	// and is nil otherwise.
	Stderr *string
}

// Success reports whether the compilation succeeded.
func (r Result) Success() bool {
	return r.ExitCode == 0
}

var bufferPool = sync.Pool{
	New: func() any { return new(bytes.Buffer) },
}

func getBuffer() *bytes.Buffer {
	return bufferPool.Get().(*bytes.Buffer)
}

func putBuffer(b *bytes.Buffer) {
	b.Reset()
	bufferPool.Put(b)
}

// Step runs one compilation request through an invocation.
type Step struct {
	inv invoke.Invocation
	req invoke.Request
}

// New creates a Step. req is copied, so later changes to its slices do not
// affect the step.
func New(inv invoke.Invocation, req invoke.Request) *Step {
	return &Step{inv: inv, req: req.Normalize()}
}

// Invocation returns the wrapped invocation.
func (s *Step) Invocation() invoke.Invocation {
	return s.inv
}

// Request returns a copy of the step's request.
func (s *Step) Request() invoke.Request {
	return s.req.Normalize()
}

// ShortName returns the invocation's short name.
func (s *Step) ShortName() string {
	return s.inv.ShortName()
}

// Description describes the compilation.
func (s *Step) Description() string {
	return s.inv.Description(s.req.Options, s.req.SrcsList)
}

// Execute compiles with output captured in scoped buffers. The captured
// stderr is returned only when the compiler fails. An error is returned for
// interruption and internal compiler errors, never for compilation failures.
func (s *Step) Execute(ctx context.Context, ec *buildctx.Context) (Result, error) {
	if ec == nil {
		return Result{ExitCode: -1}, buildctx.ErrNoContext
	}
	stdout := getBuffer()
	stderr := getBuffer()
	defer putBuffer(stdout)
	defer putBuffer(stderr)

	verbosity := ec.Verbosity()
	if verbosity.IsSilent() {
		verbosity = buildctx.StandardInformation
	}
	sub := ec.Sub(stdout, stderr, verbosity)
	defer sub.Close()

	id := uuid.NewString()
	logger := ec.Logger()
	logger.Debug("compilation started", "step", id, "compiler", s.ShortName(), "sources", len(s.req.SourceFiles))

	code, err := s.inv.Compile(ctx, sub, s.req)
	if err != nil {
		logger.Error("compilation aborted", "step", id, "error", err)
		return Result{ExitCode: code}, err
	}
	if code == 0 {
		logger.Debug("compilation finished", "step", id)
		return Result{ExitCode: 0}, nil
	}

	diag := stderr.String()
	logger.Info("compilation failed", "step", id, "exit_code", code, "stdout_bytes", stdout.Len())
	return Result{ExitCode: code, Stderr: &diag}, nil
}
