package toolchain

import (
	"path/filepath"
	"sync"

	"github.com/jonwraymond/kotlinexec/artifact"
	"github.com/jonwraymond/kotlinexec/config"
	"github.com/jonwraymond/kotlinexec/invoke"
	"github.com/jonwraymond/kotlinexec/logging"
)

// Well-known file names of a Kotlin installation.
const (
	DefaultCompiler = "kotlinc"
	RuntimeJarName  = "kotlin-runtime.jar"
	CompilerJarName = "kotlin-compiler.jar"
)

// Config is an immutable view of a resolved toolchain.
type Config struct {
	// External selects the external-process strategy.
	External bool

	// Home is the toolchain home directory.
	Home string

	// CompilerPath is the kotlinc executable. Set only in external mode.
	CompilerPath string

	// RuntimeJar and CompilerJar are the library artifacts. Set only in
	// in-process mode.
	RuntimeJar  artifact.Ref
	CompilerJar artifact.Ref
}

// Option configures a Locator.
type Option func(*Locator)

// WithLogger sets the logger used for resolution decisions.
func WithLogger(logger logging.Logger) Option {
	return func(l *Locator) {
		l.logger = logging.OrNop(logger)
	}
}

// WithFinder replaces the PATH search.
func WithFinder(f Finder) Option {
	return func(l *Locator) {
		if f != nil {
			l.finder = f
		}
	}
}

// WithInvokeOptions passes options to the strategy built by Invocation.
func WithInvokeOptions(opts ...invoke.Option) Option {
	return func(l *Locator) {
		l.invokeOpts = append(l.invokeOpts, opts...)
	}
}

// Locator resolves the toolchain described by a configuration source.
//
// Contract:
// - Concurrency: safe for concurrent use.
// - Memoization: a successfully resolved home is computed once per Locator;
//   failures are not cached.
// - Errors: every failure matches ErrResolution.
type Locator struct {
	src        config.Source
	finder     Finder
	logger     logging.Logger
	invokeOpts []invoke.Option

	mu           sync.Mutex
	home         string
	homeResolved bool
}

// New creates a Locator over src.
func New(src config.Source, opts ...Option) *Locator {
	l := &Locator{
		src:    src,
		finder: ExecutableFinder{},
		logger: logging.Nop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// External reports whether the configuration selects the external-process
// strategy. It defaults to false.
func (l *Locator) External() (bool, error) {
	v, ok, err := l.src.Bool(config.SectionKotlin, config.KeyExternal)
	if err != nil {
		return false, resolutionErrorf(err, "invalid %s.%s", config.SectionKotlin, config.KeyExternal)
	}
	return ok && v, nil
}

// Home returns the toolchain home directory.
func (l *Locator) Home() (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.homeResolved {
		return l.home, nil
	}
	home, err := l.resolveHome()
	if err != nil {
		return "", err
	}
	l.home = home
	l.homeResolved = true
	l.logger.Debug("resolved kotlin home", "home", home)
	return home, nil
}

func (l *Locator) resolveHome() (string, error) {
	if v, ok := l.src.Value(config.SectionKotlin, config.KeyCompiler); ok && v != "" {
		path := l.projectPath(v)
		if !IsExecutable(path) {
			return "", resolutionErrorf(nil, "could not deduce kotlin home directory from path %s", path)
		}
		l.logger.Debug("kotlin home from configured compiler", "compiler", path)
		return homeOf(path)
	}

	env := l.src.Environment()
	// An empty KOTLIN_HOME counts as unset.
	if home := env[config.EnvKotlinHome]; home != "" {
		l.logger.Debug("kotlin home from environment", "variable", config.EnvKotlinHome)
		return filepath.Clean(home), nil
	}

	if path, ok := l.finder.Find(DefaultCompiler, env["PATH"]); ok {
		l.logger.Debug("kotlin home from PATH", "compiler", path)
		return homeOf(path)
	}

	return "", resolutionErrorf(nil, "could not resolve kotlin home directory, consider setting %s", config.EnvKotlinHome)
}

// homeOf derives the home from an executable: its real parent directory,
// stepping out of a trailing bin.
func homeOf(executable string) (string, error) {
	resolved, err := filepath.EvalSymlinks(executable)
	if err == nil {
		resolved, err = filepath.Abs(resolved)
	}
	if err != nil {
		return "", resolutionErrorf(err, "could not resolve kotlin home directory, consider setting %s", config.EnvKotlinHome)
	}
	dir := filepath.Dir(resolved)
	if filepath.Base(dir) == "bin" {
		dir = filepath.Dir(dir)
	}
	return dir, nil
}

// CompilerPath returns the kotlinc executable under the home.
func (l *Locator) CompilerPath() (string, error) {
	home, err := l.Home()
	if err != nil {
		return "", err
	}
	for _, candidate := range []string{
		filepath.Join(home, DefaultCompiler),
		filepath.Join(home, "bin", DefaultCompiler),
	} {
		if IsExecutable(candidate) {
			return candidate, nil
		}
	}
	return "", resolutionErrorf(nil, "could not resolve kotlinc location under %s", home)
}

// RuntimeJar resolves the Kotlin runtime library.
func (l *Locator) RuntimeJar() (artifact.Ref, error) {
	return l.library(config.KeyRuntimeJar, RuntimeJarName, "kotlin runtime JAR")
}

// CompilerJar resolves the Kotlin compiler library.
func (l *Locator) CompilerJar() (artifact.Ref, error) {
	return l.library(config.KeyCompilerJar, CompilerJarName, "kotlin compiler JAR")
}

func (l *Locator) library(key, file, what string) (artifact.Ref, error) {
	if sp, ok := l.src.SourcePath(config.SectionKotlin, key); ok {
		return artifact.FromSource(sp), nil
	}
	if v, ok := l.src.Value(config.SectionKotlin, key); ok && v != "" {
		return artifact.FromPath(l.projectPath(v)), nil
	}

	home, err := l.Home()
	if err != nil {
		return artifact.Ref{}, err
	}
	for _, candidate := range []string{
		filepath.Join(home, file),
		filepath.Join(home, "lib", file),
	} {
		if IsFile(candidate) {
			abs, err := filepath.Abs(candidate)
			if err != nil {
				return artifact.Ref{}, resolutionErrorf(err, "could not resolve %s location", what)
			}
			return artifact.FromPath(abs), nil
		}
	}
	return artifact.Ref{}, resolutionErrorf(nil, "could not resolve %s location (kotlin home: %s)", what, home)
}

// projectPath cleans absolute values and joins relative ones to the
// project root.
func (l *Locator) projectPath(v string) string {
	if filepath.IsAbs(v) {
		return filepath.Clean(v)
	}
	return filepath.Join(l.src.ProjectRoot(), v)
}

// Snapshot resolves everything the configured strategy needs.
func (l *Locator) Snapshot() (Config, error) {
	external, err := l.External()
	if err != nil {
		return Config{}, err
	}
	cfg := Config{External: external}
	if external {
		if cfg.CompilerPath, err = l.CompilerPath(); err != nil {
			return Config{}, err
		}
	} else {
		if cfg.RuntimeJar, err = l.RuntimeJar(); err != nil {
			return Config{}, err
		}
		if cfg.CompilerJar, err = l.CompilerJar(); err != nil {
			return Config{}, err
		}
	}
	// Both jars may be build targets, in which case no home is needed.
	if home, err := l.Home(); err == nil {
		cfg.Home = home
	}
	return cfg, nil
}

// Invocation builds the strategy the configuration selects. Only the
// chosen strategy's inputs are resolved.
func (l *Locator) Invocation() (invoke.Invocation, error) {
	external, err := l.External()
	if err != nil {
		return nil, err
	}
	if external {
		path, err := l.CompilerPath()
		if err != nil {
			return nil, err
		}
		l.logger.Info("using external kotlinc", "compiler", path)
		return invoke.NewExternal(path, l.invokeOpts...), nil
	}

	runtimeJar, err := l.RuntimeJar()
	if err != nil {
		return nil, err
	}
	compilerJar, err := l.CompilerJar()
	if err != nil {
		return nil, err
	}
	l.logger.Info("using in-process kotlinc", "runtime_jar", runtimeJar.String(), "compiler_jar", compilerJar.String())
	return invoke.NewInProcess([]artifact.Ref{runtimeJar, compilerJar}, l.invokeOpts...), nil
}
