package toolchain

import (
	"errors"
	"fmt"
)

// ErrResolution is matched by every *ResolutionError.
var ErrResolution = errors.New("toolchain resolution failed")

// ResolutionError describes a configuration that does not lead to a usable
// toolchain. It is raised before any compilation is attempted.
type ResolutionError struct {
	// Message is the human-readable problem.
	Message string

	// Err is the underlying cause, if any.
	Err error
}

func (e *ResolutionError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *ResolutionError) Unwrap() error {
	return e.Err
}

// Is matches ErrResolution.
func (e *ResolutionError) Is(target error) bool {
	return target == ErrResolution
}

func resolutionErrorf(err error, format string, args ...any) *ResolutionError {
	return &ResolutionError{Message: fmt.Sprintf(format, args...), Err: err}
}
