package invoke

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/jonwraymond/kotlinexec/artifact"
	"github.com/jonwraymond/kotlinexec/buildctx"
	"github.com/jonwraymond/kotlinexec/process"
	"github.com/jonwraymond/kotlinexec/rulekey"
)

// UnknownVersion is reported when kotlinc -version prints nothing.
const UnknownVersion = "unknown version"

// External runs kotlinc as a child process for every compilation.
type External struct {
	path string
	opts options

	versionMu   sync.Mutex
	versionDone bool
	version     string
}

// NewExternal creates an External for the kotlinc at path.
func NewExternal(path string, opts ...Option) *External {
	return &External{path: path, opts: newOptions(opts)}
}

// Path returns the kotlinc executable.
func (e *External) Path() string {
	return e.path
}

// ShortName returns the executable path.
func (e *External) ShortName() string {
	return e.path
}

// Version runs kotlinc -version once and returns its trimmed stderr, or
// UnknownVersion when it prints nothing or cannot run. An interrupted run
// returns process.ErrInterrupted and leaves the version unset.
func (e *External) Version(ctx context.Context) (string, error) {
	e.versionMu.Lock()
	defer e.versionMu.Unlock()
	if e.versionDone {
		return e.version, nil
	}
	v, err := e.runVersion(ctx)
	if err != nil {
		return "", err
	}
	e.version, e.versionDone = v, true
	return v, nil
}

func (e *External) runVersion(ctx context.Context) (string, error) {
	res, err := e.opts.versionExec.Execute(ctx, process.Params{
		Command: []string{e.path, FlagVersion},
	})
	if errors.Is(err, process.ErrInterrupted) {
		return "", err
	}
	if err != nil {
		e.opts.logger.Warn("kotlinc version check failed", "compiler", e.path, "error", err)
		return UnknownVersion, nil
	}
	out := strings.TrimSpace(res.Stderr)
	if out == "" {
		return UnknownVersion, nil
	}
	return out, nil
}

// Description implements Invocation.
func (e *External) Description(options []string, srcsList string) string {
	return describe(e.ShortName(), options, srcsList)
}

// CommandPrefix implements Invocation.
func (e *External) CommandPrefix() ([]string, error) {
	return []string{e.path}, nil
}

// Environment implements Invocation.
func (e *External) Environment() (map[string]string, error) {
	return map[string]string{}, nil
}

// Inputs implements Invocation. An external compiler has none.
func (e *External) Inputs() []artifact.SourcePath {
	return nil
}

// AppendToRuleKey records the version, or the compiler's identity when the
// version is unknown.
func (e *External) AppendToRuleKey(ctx context.Context, sink rulekey.Sink) error {
	v, err := e.Version(ctx)
	if err != nil {
		return err
	}
	if v == UnknownVersion {
		sink.Set("kotlinc", e.ShortName())
	} else {
		sink.Set("kotlinc.version", v)
	}
	return nil
}

// Command builds the kotlinc argv for req.
func (e *External) Command(req Request) []string {
	cp := strings.Join(req.Classpath, string(os.PathListSeparator))
	if cp == "" {
		cp = emptyClasspath
	}
	cmd := make([]string, 0, 6+len(req.ExtraArgs)+len(req.SourceFiles))
	cmd = append(cmd, e.path, FlagIncludeRuntime, FlagClasspath, cp, FlagDestination, req.OutputDir)
	cmd = append(cmd, req.ExtraArgs...)
	cmd = append(cmd, req.SourceFiles...)
	return cmd
}

// Compile spawns kotlinc through the context's executor. A launch failure is
// reported on the context's stderr and yields exit code -1.
func (e *External) Compile(ctx context.Context, bc *buildctx.Context, req Request) (int, error) {
	if bc == nil {
		return -1, buildctx.ErrNoContext
	}
	req = req.Normalize()
	cmd := e.Command(req)

	res, err := bc.Executor().Execute(ctx, process.Params{
		Command: cmd,
		Env:     bc.Environment(),
		Dir:     req.dir(bc.WorkingDir()),
		Stdout:  bc.Stdout(),
		Stderr:  bc.Stderr(),
	})
	if err != nil {
		if errors.Is(err, process.ErrLaunch) {
			fmt.Fprintln(bc.Stderr(), err)
			bc.Logger().Error("kotlinc launch failed", "compiler", e.path, "error", err)
			return -1, nil
		}
		return -1, err
	}
	return res.ExitCode, nil
}

var _ Invocation = (*External)(nil)
