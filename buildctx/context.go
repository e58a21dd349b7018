// Package buildctx is the execution context the build engine hands to a
// compilation: where processes run, which environment they see, where their
// output goes and which loader cache in-process compilers share.
package buildctx

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/jonwraymond/kotlinexec/loader"
	"github.com/jonwraymond/kotlinexec/logging"
	"github.com/jonwraymond/kotlinexec/process"
)

// Verbosity controls how much a step reports.
type Verbosity int

// Verbosity levels, quietest first.
const (
	Silent Verbosity = iota
	StandardInformation
	Commands
	All
)

// IsSilent reports whether v suppresses all output.
func (v Verbosity) IsSilent() bool {
	return v <= Silent
}

func (v Verbosity) String() string {
	switch v {
	case Silent:
		return "silent"
	case StandardInformation:
		return "standard"
	case Commands:
		return "commands"
	case All:
		return "all"
	default:
		return "unknown"
	}
}

// ParseVerbosity parses a verbosity name as printed by Verbosity.String.
func ParseVerbosity(s string) (Verbosity, error) {
	for v := Silent; v <= All; v++ {
		if strings.EqualFold(strings.TrimSpace(s), v.String()) {
			return v, nil
		}
	}
	return Silent, fmt.Errorf("unknown verbosity %q", s)
}

// Options configures a root Context.
type Options struct {
	// Executor launches external processes.
	// Default: process.NewExecutor(Logger)
	Executor process.Executor

	// Env is the environment given to child processes.
	// Default: the current process environment.
	Env map[string]string

	// WorkingDir is the directory processes run in and relative paths
	// resolve against.
	// Default: the current working directory.
	WorkingDir string

	// Stdout and Stderr receive process and compiler output.
	// Default: os.Stdout and os.Stderr.
	Stdout io.Writer
	Stderr io.Writer

	// Cache shares loaded compilers between in-process compilations.
	// Default: a cache over a loader.JVMDriver using Executor.
	Cache *loader.Cache

	// Logger receives diagnostics.
	// Default: logging.Nop()
	Logger logging.Logger

	// Verbosity of steps run in the context.
	// Default: StandardInformation
	Verbosity *Verbosity
}

func (o *Options) applyDefaults() error {
	o.Logger = logging.OrNop(o.Logger)
	if o.Executor == nil {
		o.Executor = process.NewExecutor(o.Logger)
	}
	if o.Env == nil {
		o.Env = environ()
	}
	if o.WorkingDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return err
		}
		o.WorkingDir = wd
	}
	if o.Stdout == nil {
		o.Stdout = os.Stdout
	}
	if o.Stderr == nil {
		o.Stderr = os.Stderr
	}
	if o.Cache == nil {
		driver, err := loader.NewJVMDriver(loader.JVMConfig{Executor: o.Executor, Env: o.Env})
		if err != nil {
			return err
		}
		o.Cache = loader.NewCache(driver, o.Logger)
	}
	if o.Verbosity == nil {
		v := StandardInformation
		o.Verbosity = &v
	}
	return nil
}

// Context carries what a compilation needs from the build engine.
//
// Contract:
// - Concurrency: safe for concurrent use; sub-contexts share the root's
//   executor, environment and cache.
// - Lifecycle: a root Context holds one reference on its Cache, released
//   by Close. Closing a sub-context does nothing.
type Context struct {
	executor   process.Executor
	env        map[string]string
	workingDir string
	stdout     io.Writer
	stderr     io.Writer
	cache      *loader.Cache
	logger     logging.Logger
	verbosity  Verbosity
	root       bool

	closeOnce sync.Once
	closeErr  error
}

// New creates a root Context and takes a reference on its cache.
func New(opts Options) (*Context, error) {
	if err := opts.applyDefaults(); err != nil {
		return nil, err
	}
	opts.Cache.AddRef()
	env := make(map[string]string, len(opts.Env))
	for k, v := range opts.Env {
		env[k] = v
	}
	return &Context{
		executor:   opts.Executor,
		env:        env,
		workingDir: opts.WorkingDir,
		stdout:     opts.Stdout,
		stderr:     opts.Stderr,
		cache:      opts.Cache,
		logger:     opts.Logger,
		verbosity:  *opts.Verbosity,
		root:       true,
	}, nil
}

// Sub derives a context writing to stdout and stderr with verbosity v.
func (c *Context) Sub(stdout, stderr io.Writer, v Verbosity) *Context {
	return &Context{
		executor:   c.executor,
		env:        c.env,
		workingDir: c.workingDir,
		stdout:     stdout,
		stderr:     stderr,
		cache:      c.cache,
		logger:     c.logger,
		verbosity:  v,
	}
}

// Executor returns the process launcher.
func (c *Context) Executor() process.Executor { return c.executor }

// Environment returns a copy of the child-process environment.
func (c *Context) Environment() map[string]string {
	out := make(map[string]string, len(c.env))
	for k, v := range c.env {
		out[k] = v
	}
	return out
}

// WorkingDir returns the working directory.
func (c *Context) WorkingDir() string { return c.workingDir }

// Stdout returns the standard output sink.
func (c *Context) Stdout() io.Writer { return c.stdout }

// Stderr returns the standard error sink.
func (c *Context) Stderr() io.Writer { return c.stderr }

// Cache returns the shared loader cache.
func (c *Context) Cache() *loader.Cache { return c.cache }

// Logger returns the logger.
func (c *Context) Logger() logging.Logger { return c.logger }

// Verbosity returns the verbosity.
func (c *Context) Verbosity() Verbosity { return c.verbosity }

// Close releases the cache reference held by a root context. It is safe to
// call more than once.
func (c *Context) Close() error {
	if !c.root {
		return nil
	}
	c.closeOnce.Do(func() {
		c.closeErr = c.cache.Release()
	})
	return c.closeErr
}

// ErrNoContext is returned by operations given a nil Context.
var ErrNoContext = errors.New("buildctx: nil context")

func environ() map[string]string {
	out := make(map[string]string)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok && k != "" {
			out[k] = v
		}
	}
	return out
}
