package loader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jonwraymond/kotlinexec/process"
)

// JVMConfig configures a JVMDriver.
type JVMConfig struct {
	// Java is the java launcher. Default: "java".
	Java string

	// Executor launches the JVM. Required.
	Executor process.Executor

	// JVMArgs are passed to the launcher before -cp.
	JVMArgs []string

	// Env is the launcher environment. Nil inherits the current environment.
	Env map[string]string
}

func (c *JVMConfig) applyDefaults() {
	if c.Java == "" {
		c.Java = "java"
	}
}

func (c *JVMConfig) validate() error {
	if c.Executor == nil {
		return errors.New("loader: JVMConfig.Executor is required")
	}
	return nil
}

// JVMDriver loads classes by running a JVM per call. An instantiated class is
// a Compiler whose Exec runs `java -cp <classpath> <class> <args>` and returns
// the process exit code.
type JVMDriver struct {
	cfg JVMConfig
}

// NewJVMDriver creates a JVMDriver.
func NewJVMDriver(cfg JVMConfig) (*JVMDriver, error) {
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &JVMDriver{cfg: cfg}, nil
}

// Open checks that every locator names an existing file or directory.
func (d *JVMDriver) Open(locators []string) (Library, error) {
	paths := make([]string, 0, len(locators))
	for _, loc := range locators {
		path, err := LocatorPath(loc)
		if err != nil {
			return nil, err
		}
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrBadLocator, path, err)
		}
		paths = append(paths, path)
	}
	return &jvmLibrary{cfg: d.cfg, classpath: strings.Join(paths, string(os.PathListSeparator))}, nil
}

type jvmLibrary struct {
	cfg       JVMConfig
	classpath string
}

func (l *jvmLibrary) Instantiate(_ context.Context, name string) (any, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: empty class name", ErrClassNotFound)
	}
	return &jvmMain{lib: l, class: name}, nil
}

func (l *jvmLibrary) Close() error {
	return nil
}

type jvmMain struct {
	lib   *jvmLibrary
	class string
}

func (m *jvmMain) Exec(ctx context.Context, out io.Writer, args []string) (any, error) {
	cmd := make([]string, 0, len(m.lib.cfg.JVMArgs)+len(args)+4)
	cmd = append(cmd, m.lib.cfg.Java)
	cmd = append(cmd, m.lib.cfg.JVMArgs...)
	cmd = append(cmd, "-cp", m.lib.classpath, m.class)
	cmd = append(cmd, args...)

	res, err := m.lib.cfg.Executor.Execute(ctx, process.Params{
		Command: cmd,
		Env:     m.lib.cfg.Env,
		Stdout:  out,
		Stderr:  out,
	})
	if err != nil {
		return nil, err
	}
	return ExitCode(res.ExitCode), nil
}

var (
	_ Driver   = (*JVMDriver)(nil)
	_ Compiler = (*jvmMain)(nil)
)
