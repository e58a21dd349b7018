package invoke

import (
	"context"
	"strings"

	"github.com/jonwraymond/kotlinexec/artifact"
	"github.com/jonwraymond/kotlinexec/buildctx"
	"github.com/jonwraymond/kotlinexec/loader"
	"github.com/jonwraymond/kotlinexec/logging"
	"github.com/jonwraymond/kotlinexec/process"
	"github.com/jonwraymond/kotlinexec/rulekey"
)

// Compiler flags shared by both strategies.
const (
	FlagIncludeRuntime = "-include-runtime"
	FlagClasspath      = "-cp"
	FlagDestination    = "-d"
	FlagVersion        = "-version"
)

// emptyClasspath is passed in place of an empty classpath so the flag is
// never left without a value.
const emptyClasspath = "''"

// Invocation is a way of running the Kotlin compiler.
//
// Contract:
// - Concurrency: implementations are safe for concurrent use.
// - Version: a completed version check runs at most once per instance; an
//   interrupted one is not remembered and is retried by the next caller.
// - Errors: Compile returns a non-zero exit code for compilation failures;
//   errors are returned only for interruption (process.ErrInterrupted) and
//   broken toolchains (ErrInternal).
// - Accessors: CommandPrefix and Environment may return ErrUnsupported;
//   callers check which strategy they hold.
type Invocation interface {
	// ShortName identifies the compiler in step names.
	ShortName() string

	// Version identifies the compiler version. It fails only when interrupted.
	Version(ctx context.Context) (string, error)

	// Description renders a one-line summary of a compilation.
	Description(options []string, srcsList string) string

	// CommandPrefix returns the argv prefix of an external compiler.
	CommandPrefix() ([]string, error)

	// Environment returns the extra environment of an external compiler.
	Environment() (map[string]string, error)

	// Inputs returns build targets the compiler itself depends on.
	Inputs() []artifact.SourcePath

	// AppendToRuleKey records what identifies the compiler. Nothing is
	// recorded when the version cannot be determined because of interruption.
	AppendToRuleKey(ctx context.Context, sink rulekey.Sink) error

	// Compile runs one compilation and returns its exit code.
	Compile(ctx context.Context, bc *buildctx.Context, req Request) (int, error)
}

// Option configures an Invocation.
type Option func(*options)

type options struct {
	logger      logging.Logger
	versionExec process.Executor
	registry    *ShimRegistry
	parent      *loader.Context
}

func newOptions(opts []Option) options {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	o.logger = logging.OrNop(o.logger)
	if o.versionExec == nil {
		o.versionExec = process.NewExecutor(o.logger)
	}
	if o.registry == nil {
		o.registry = DefaultRegistry()
	}
	if o.parent == nil {
		o.parent = loader.Root()
	}
	return o
}

// WithLogger sets the logger.
func WithLogger(logger logging.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithVersionExecutor sets the executor used to query an external compiler's
// version. Compilations use the build context's executor instead.
func WithVersionExecutor(e process.Executor) Option {
	return func(o *options) {
		o.versionExec = e
	}
}

// WithRegistry sets the registry in-process compilers are kept in.
// Default: DefaultRegistry().
func WithRegistry(r *ShimRegistry) Option {
	return func(o *options) {
		o.registry = r
	}
}

// WithParentContext sets the loading context new compiler contexts are
// chained to. Default: loader.Root().
func WithParentContext(parent *loader.Context) Option {
	return func(o *options) {
		o.parent = parent
	}
}

func describe(prefix string, options []string, srcsList string) string {
	var b strings.Builder
	b.WriteString(prefix)
	b.WriteString(" ")
	b.WriteString(strings.Join(options, " "))
	b.WriteString(" @")
	b.WriteString(srcsList)
	return b.String()
}
