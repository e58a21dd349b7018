package exec

import (
	"time"

	"github.com/jonwraymond/kotlinexec/step"
)

// Result represents the outcome of a single compilation.
type Result struct {
	step.Result

	// Description summarizes the compilation.
	Description string

	// Duration is how long the compilation took.
	Duration time.Duration

	// Error is non-nil if the compilation could not run to completion:
	// interruption or an internal compiler error. Compilation failures
	// leave it nil and set a non-zero ExitCode.
	Error error
}

// OK returns true if the compilation ran and succeeded.
func (r Result) OK() bool {
	return r.Error == nil && r.ExitCode == 0
}

// Diagnostics returns the captured compiler stderr, or "" on success.
func (r Result) Diagnostics() string {
	if r.Stderr == nil {
		return ""
	}
	return *r.Stderr
}
