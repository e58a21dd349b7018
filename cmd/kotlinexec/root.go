package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jonwraymond/kotlinexec/buildctx"
	"github.com/jonwraymond/kotlinexec/config"
	"github.com/jonwraymond/kotlinexec/exec"
	"github.com/jonwraymond/kotlinexec/invoke"
	"github.com/jonwraymond/kotlinexec/loader"
	"github.com/jonwraymond/kotlinexec/logging"
)

const envPrefix = "KOTLINEXEC"

// Flag names, also the viper keys they are bound to.
const (
	flagConfig      = "config"
	flagProjectRoot = "project-root"
	flagLogLevel    = "log-level"
	flagLogFormat   = "log-format"
	flagVerbosity   = "verbosity"
	flagLoader      = "loader"
)

// Loader drivers for the in-process compiler.
const (
	loaderJVM    = "jvm"
	loaderPlugin = "plugin"
)

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	root := &cobra.Command{
		Use:           "kotlinexec",
		Short:         "Resolve a Kotlin toolchain and compile with it",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	pf := root.PersistentFlags()
	pf.StringP(flagConfig, "c", "", "build configuration file (.hcl, .toml, .yaml, .json)")
	pf.String(flagProjectRoot, "", "directory relative paths resolve against (default: config file directory)")
	pf.String(flagLogLevel, "warn", "log level: debug, info, warn, error")
	pf.String(flagLogFormat, "console", "log format: console or json")
	pf.String(flagVerbosity, buildctx.StandardInformation.String(), "step verbosity: silent, standard, commands, all")
	pf.String(flagLoader, loaderJVM, "in-process compiler loader: jvm (java -cp) or plugin (Go .so files)")
	_ = v.BindPFlags(pf)

	app := &app{v: v, stdout: stdout, stderr: stderr}
	root.AddCommand(
		newLocateCmd(app),
		newVersionCmd(app),
		newCompileCmd(app),
		newToolsCmd(app),
	)
	return root
}

// app carries what every subcommand needs to build an Exec.
type app struct {
	v      *viper.Viper
	stdout io.Writer
	stderr io.Writer
}

func (a *app) logger() logging.Logger {
	level := a.v.GetString(flagLogLevel)
	if strings.EqualFold(a.v.GetString(flagLogFormat), "json") {
		return logging.New(a.stderr, level)
	}
	return logging.NewConsole(a.stderr, level)
}

func (a *app) config() (*config.Config, error) {
	opts := []config.Option{config.WithEnvironment(environ())}
	if root := a.v.GetString(flagProjectRoot); root != "" {
		opts = append(opts, config.WithProjectRoot(root))
	}
	if path := a.v.GetString(flagConfig); path != "" {
		cfg, err := config.LoadFile(path, opts...)
		if err != nil {
			return nil, err
		}
		if err := config.Validate(cfg); err != nil {
			return nil, err
		}
		return cfg, nil
	}
	if a.v.GetString(flagProjectRoot) == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		opts = append(opts, config.WithProjectRoot(wd))
	}
	return config.New(nil, opts...), nil
}

func (a *app) exec() (*exec.Exec, error) {
	cfg, err := a.config()
	if err != nil {
		return nil, err
	}
	verbosity, err := buildctx.ParseVerbosity(a.v.GetString(flagVerbosity))
	if err != nil {
		return nil, err
	}
	logger := a.logger()
	cache, err := a.cache(logger)
	if err != nil {
		return nil, err
	}
	return exec.New(exec.Options{
		Config:    cfg,
		Logger:    logger,
		Cache:     cache,
		Stdout:    a.stdout,
		Stderr:    a.stderr,
		Verbosity: &verbosity,
	})
}

// cache returns the loader cache for the selected driver, or nil to keep the
// default JVM-backed one.
func (a *app) cache(logger logging.Logger) (*loader.Cache, error) {
	switch name := strings.ToLower(a.v.GetString(flagLoader)); name {
	case "", loaderJVM:
		return nil, nil
	case loaderPlugin:
		return loader.NewCache(loader.NewPluginDriver(), logger), nil
	default:
		return nil, fmt.Errorf("unknown loader %q, want %s or %s", name, loaderJVM, loaderPlugin)
	}
}

// release closes ex and drops the compilers loaded for it, so the loader
// cache drains before the process exits.
func (a *app) release(ex *exec.Exec) {
	err := multierror.Append(invoke.DefaultRegistry().Reset(), ex.Close()).ErrorOrNil()
	if err != nil {
		a.logger().Warn("release failed", "error", err)
	}
}

func environ() map[string]string {
	env := make(map[string]string)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			env[k] = v
		}
	}
	return env
}
