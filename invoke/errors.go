package invoke

import (
	"errors"
	"fmt"
)

// Errors for compiler invocation.
var (
	// ErrInternal is matched by every *InternalError.
	ErrInternal = errors.New("internal compiler error")

	// ErrUnsupported is returned by accessors that do not apply to a
	// strategy, such as the command line of an in-process compiler.
	ErrUnsupported = errors.New("operation not supported by this compiler invocation")
)

// InternalError reports that the in-process compiler could not be loaded,
// invoked or understood. It indicates a broken toolchain, never bad sources.
type InternalError struct {
	// Op is the failing phase: "load", "invoke" or "exit-code".
	Op string

	// Key is the compiler classpath involved.
	Key string

	Err error
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("%s: %s %s: %v", ErrInternal.Error(), e.Op, e.Key, e.Err)
}

// Unwrap returns the underlying error.
func (e *InternalError) Unwrap() error {
	return e.Err
}

// Is matches ErrInternal.
func (e *InternalError) Is(target error) bool {
	return target == ErrInternal
}
