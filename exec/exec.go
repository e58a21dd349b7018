package exec

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jonwraymond/kotlinexec/buildctx"
	"github.com/jonwraymond/kotlinexec/invoke"
	"github.com/jonwraymond/kotlinexec/rulekey"
	"github.com/jonwraymond/kotlinexec/step"
	"github.com/jonwraymond/kotlinexec/toolchain"
)

// Exec is the unified facade for Kotlin compilation.
type Exec struct {
	locator *toolchain.Locator
	inv     invoke.Invocation
	bc      *buildctx.Context
	opts    Options
}

// New resolves the toolchain and creates an Exec. Resolution failures are
// returned here, before any compilation is attempted.
func New(opts Options) (*Exec, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	opts.applyDefaults()

	locator := toolchain.New(opts.Config,
		toolchain.WithLogger(opts.Logger),
		toolchain.WithFinder(opts.Finder),
		toolchain.WithInvokeOptions(
			invoke.WithLogger(opts.Logger),
			invoke.WithVersionExecutor(opts.Executor),
			invoke.WithRegistry(opts.Registry),
		),
	)
	inv, err := locator.Invocation()
	if err != nil {
		return nil, err
	}

	bc, err := buildctx.New(buildctx.Options{
		Executor:   opts.Executor,
		Env:        opts.Config.Environment(),
		WorkingDir: opts.WorkingDir,
		Stdout:     opts.Stdout,
		Stderr:     opts.Stderr,
		Cache:      opts.Cache,
		Logger:     opts.Logger,
		Verbosity:  opts.Verbosity,
	})
	if err != nil {
		return nil, err
	}

	return &Exec{
		locator: locator,
		inv:     inv,
		bc:      bc,
		opts:    opts,
	}, nil
}

// Compile runs a single compilation and returns the result.
func (e *Exec) Compile(ctx context.Context, req invoke.Request) (Result, error) {
	start := time.Now()
	s := step.New(e.inv, req)

	res, err := s.Execute(ctx, e.bc)
	out := Result{
		Result:      res,
		Description: s.Description(),
		Duration:    time.Since(start),
		Error:       err,
	}
	return out, err
}

// CompileAll runs independent compilations with at most parallelism in
// flight, returning results in request order. A parallelism of zero uses
// Options.DefaultParallelism. The first interruption or internal error
// cancels the compilations that have not started.
func (e *Exec) CompileAll(ctx context.Context, reqs []invoke.Request, parallelism int) ([]Result, error) {
	if parallelism <= 0 {
		parallelism = e.opts.DefaultParallelism
	}
	results := make([]Result, len(reqs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallelism)
	for i, req := range reqs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				results[i] = Result{Result: step.Result{ExitCode: -1}, Error: err}
				return nil
			}
			res, err := e.Compile(gctx, req)
			results[i] = res
			return err
		})
	}
	err := g.Wait()
	return results, err
}

// Version returns the compiler version.
func (e *Exec) Version(ctx context.Context) (string, error) {
	return e.inv.Version(ctx)
}

// RuleKey returns the hash of the compiler's rule-key contributions.
func (e *Exec) RuleKey(ctx context.Context) (string, error) {
	b := rulekey.NewBuilder()
	if err := e.inv.AppendToRuleKey(ctx, b); err != nil {
		return "", err
	}
	return b.Hash(), nil
}

// Toolchain returns the resolved toolchain.
func (e *Exec) Toolchain() (toolchain.Config, error) {
	return e.locator.Snapshot()
}

// Invocation returns the configured strategy.
// This allows advanced usage such as inspecting the command prefix.
func (e *Exec) Invocation() invoke.Invocation {
	return e.inv
}

// Context returns the build context compilations run in.
func (e *Exec) Context() *buildctx.Context {
	return e.bc
}

// Close releases the build context.
func (e *Exec) Close() error {
	return e.bc.Close()
}
