package invoke

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jonwraymond/kotlinexec/artifact"
	"github.com/jonwraymond/kotlinexec/buildctx"
	"github.com/jonwraymond/kotlinexec/loader"
	"github.com/jonwraymond/kotlinexec/process"
	"github.com/jonwraymond/kotlinexec/rulekey"
)

// CompilerClass is the compiler entry point loaded in process.
const CompilerClass = "org.jetbrains.kotlin.cli.jvm.K2JVMCompiler"

// InMemoryVersion is the version reported by InProcess.
const InMemoryVersion = "in memory"

// InProcess calls a compiler loaded from its own classpath into a shared
// loading context.
type InProcess struct {
	classpath artifact.Set
	opts      options
}

// NewInProcess creates an InProcess over the compiler's classpath. Build
// targets in classpath are reported by Inputs; concrete paths are loaded.
func NewInProcess(classpath []artifact.Ref, opts ...Option) *InProcess {
	return &InProcess{classpath: artifact.NewSet(classpath...), opts: newOptions(opts)}
}

// Classpath returns the compiler classpath.
func (p *InProcess) Classpath() artifact.Set {
	return p.classpath
}

// ShortName implements Invocation.
func (p *InProcess) ShortName() string {
	return "kotlinc"
}

// Version implements Invocation.
func (p *InProcess) Version(context.Context) (string, error) {
	return InMemoryVersion, nil
}

// Description implements Invocation.
func (p *InProcess) Description(options []string, srcsList string) string {
	return describe(p.ShortName(), options, srcsList)
}

// CommandPrefix returns ErrUnsupported: there is no command line.
func (p *InProcess) CommandPrefix() ([]string, error) {
	return nil, fmt.Errorf("%w: in-process kotlinc has no command line", ErrUnsupported)
}

// Environment returns ErrUnsupported: there is no child environment.
func (p *InProcess) Environment() (map[string]string, error) {
	return nil, fmt.Errorf("%w: in-process kotlinc has no environment", ErrUnsupported)
}

// Inputs returns the build targets on the compiler classpath.
func (p *InProcess) Inputs() []artifact.SourcePath {
	return p.classpath.Sources()
}

// AppendToRuleKey implements Invocation.
func (p *InProcess) AppendToRuleKey(_ context.Context, sink rulekey.Sink) error {
	sink.Set("kotlinc", "jar-backed").
		Set("kotlinc.version", "in-memory").
		Set("kotlinc.classpath", p.classpath.String())
	return nil
}

// Args builds the compiler arguments for req, resolving relative paths
// against base.
func (p *InProcess) Args(req Request, base string) []string {
	args := make([]string, 0, 5+len(req.ExtraArgs)+len(req.SourceFiles))
	args = append(args, FlagIncludeRuntime, FlagDestination, absIn(base, req.OutputDir))
	args = append(args, req.ExtraArgs...)
	for _, src := range req.SourceFiles {
		args = append(args, absIn(base, src))
	}
	if cp := strings.Join(req.Classpath, string(os.PathListSeparator)); cp != "" {
		args = append(args, FlagClasspath, cp)
	}
	return args
}

// Compile runs req through the loaded compiler. Loading, invocation and
// exit-code failures are returned as *InternalError and drop the loaded
// compiler so the next compilation loads it afresh.
func (p *InProcess) Compile(ctx context.Context, bc *buildctx.Context, req Request) (int, error) {
	if bc == nil {
		return -1, buildctx.ErrNoContext
	}
	req = req.Normalize()
	args := p.Args(req, req.dir(bc.WorkingDir()))

	key, err := loader.NewKey(p.classpath.Paths())
	if err != nil {
		return -1, &InternalError{Op: "load", Err: err}
	}
	s, err := p.opts.registry.get(key, func() (*shim, error) {
		return p.load(ctx, bc, key)
	})
	if err != nil {
		return -1, &InternalError{Op: "load", Key: key.String(), Err: err}
	}

	v, err := s.exec(ctx, uncloseable{bc.Stderr()}, args)
	if err != nil {
		if errors.Is(err, process.ErrInterrupted) {
			return -1, err
		}
		p.drop(bc, s, err)
		return -1, &InternalError{Op: "invoke", Key: key.String(), Err: err}
	}
	code, err := loader.ExitCodeOf(v)
	if err != nil {
		p.drop(bc, s, err)
		return -1, &InternalError{Op: "exit-code", Key: key.String(), Err: err}
	}
	return code, nil
}

func (p *InProcess) load(ctx context.Context, bc *buildctx.Context, key loader.Key) (*shim, error) {
	cache := bc.Cache()
	cache.AddRef()

	lctx, err := cache.ContextFor(p.opts.parent, loader.FileLocators(key.Paths()))
	if err != nil {
		_ = cache.Release()
		return nil, err
	}
	inst, err := lctx.Instantiate(ctx, CompilerClass)
	if err != nil {
		_ = cache.Release()
		return nil, err
	}
	compiler, err := loader.AsCompiler(inst)
	if err != nil {
		_ = cache.Release()
		return nil, err
	}
	bc.Logger().Debug("loaded in-process kotlinc", "context", lctx.ID(), "classpath", key.String())
	return &shim{key: key, compiler: compiler, lctx: lctx, cache: cache}, nil
}

func (p *InProcess) drop(bc *buildctx.Context, s *shim, cause error) {
	bc.Logger().Warn("discarding in-process kotlinc", "context", s.lctx.ID(), "error", cause)
	if err := s.cache.Evict(s.lctx); err != nil {
		bc.Logger().Warn("closing in-process kotlinc failed", "error", err)
	}
	if err := p.opts.registry.invalidate(s); err != nil {
		bc.Logger().Warn("releasing in-process kotlinc failed", "error", err)
	}
}

// uncloseable hides any Close method of the caller's stream.
type uncloseable struct {
	io.Writer
}

var _ Invocation = (*InProcess)(nil)
