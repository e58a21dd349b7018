// Command kotlinexec resolves a Kotlin toolchain from build configuration and
// compiles sources with it.
//
// Usage:
//
//	kotlinexec [--config kotlin.hcl] locate
//	kotlinexec version
//	kotlinexec compile -d out --classpath lib/a.jar src/Main.kt
//	kotlinexec tools [query]
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"

	"github.com/jonwraymond/kotlinexec/process"
)

// exitInterrupted is the conventional status of a process stopped by SIGINT.
const exitInterrupted = 130

var red = color.New(color.FgRed).SprintFunc()

func main() {
	// Children run in their own process group and never see the terminal's
	// signals; cancelling ctx is what kills them.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd := newRootCmd(stdout, stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return 0
	}
	var exit *exitError
	if errors.As(err, &exit) {
		return exit.code
	}
	fmt.Fprintln(stderr, red(err.Error()))
	if errors.Is(err, process.ErrInterrupted) {
		return exitInterrupted
	}
	return 1
}

// exitError carries a compiler exit code out of a command without printing.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit code %d", e.code)
}
