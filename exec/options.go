package exec

import (
	"errors"
	"io"

	"github.com/jonwraymond/kotlinexec/buildctx"
	"github.com/jonwraymond/kotlinexec/config"
	"github.com/jonwraymond/kotlinexec/invoke"
	"github.com/jonwraymond/kotlinexec/loader"
	"github.com/jonwraymond/kotlinexec/logging"
	"github.com/jonwraymond/kotlinexec/process"
	"github.com/jonwraymond/kotlinexec/toolchain"
)

// Default configuration values.
const (
	DefaultParallelism = 1
)

// Errors returned by Options validation.
var (
	ErrConfigRequired = errors.New("exec: Config is required")
)

// Options configures an Exec instance.
type Options struct {
	// Config is the build configuration the toolchain is resolved from.
	// Required.
	Config config.Source

	// Logger receives diagnostics.
	// Default: logging.Nop()
	Logger logging.Logger

	// Executor launches kotlinc and JVM processes.
	// Default: process.NewExecutor(Logger)
	Executor process.Executor

	// Cache shares loaded compilers between in-process compilations.
	// Default: a cache over a loader.JVMDriver.
	Cache *loader.Cache

	// Registry keeps loaded in-process compilers.
	// Default: invoke.DefaultRegistry()
	Registry *invoke.ShimRegistry

	// Finder searches PATH for kotlinc.
	// Default: toolchain.ExecutableFinder{}
	Finder toolchain.Finder

	// WorkingDir is where compilations run.
	// Default: Config.ProjectRoot()
	WorkingDir string

	// Stdout and Stderr receive output that is not captured by a step.
	// Default: os.Stdout and os.Stderr.
	Stdout io.Writer
	Stderr io.Writer

	// Verbosity of compilation steps.
	// Default: buildctx.StandardInformation
	Verbosity *buildctx.Verbosity

	// DefaultParallelism bounds CompileAll when no limit is given.
	// Default: 1
	DefaultParallelism int
}

// validate checks that required fields are set.
func (o *Options) validate() error {
	if o.Config == nil {
		return ErrConfigRequired
	}
	return nil
}

// applyDefaults sets default values for unset optional fields.
func (o *Options) applyDefaults() {
	o.Logger = logging.OrNop(o.Logger)
	if o.Executor == nil {
		o.Executor = process.NewExecutor(o.Logger)
	}
	if o.Registry == nil {
		o.Registry = invoke.DefaultRegistry()
	}
	if o.Finder == nil {
		o.Finder = toolchain.ExecutableFinder{}
	}
	if o.WorkingDir == "" {
		o.WorkingDir = o.Config.ProjectRoot()
	}
	if o.DefaultParallelism <= 0 {
		o.DefaultParallelism = DefaultParallelism
	}
}
