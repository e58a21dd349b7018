package backend

import (
	"context"
	"errors"

	"github.com/jonwraymond/tooldiscovery/tooldoc"
	"github.com/jonwraymond/toolfoundation/model"
)

// Common errors for backend operations.
var (
	ErrBackendNotFound    = errors.New("backend not found")
	ErrBackendDisabled    = errors.New("backend disabled")
	ErrToolNotFound       = errors.New("tool not found in backend")
	ErrBackendUnavailable = errors.New("backend unavailable")
	ErrInvalidArguments   = errors.New("invalid tool arguments")
)

// Backend is a named source of tools.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: methods must honor cancellation/deadlines.
// - Errors: use ErrBackendDisabled/ErrToolNotFound/ErrBackendUnavailable/
//   ErrInvalidArguments where applicable.
type Backend interface {
	// Kind returns the backend type, such as "local".
	Kind() string

	// Name returns the unique instance name, used as the tool namespace.
	Name() string

	// Enabled returns whether this backend is currently enabled.
	Enabled() bool

	// ListTools returns all tools available from this backend.
	ListTools(ctx context.Context) ([]model.Tool, error)

	// Execute invokes a tool on this backend.
	Execute(ctx context.Context, tool string, args map[string]any) (any, error)

	// Start prepares the backend for use.
	Start(ctx context.Context) error

	// Stop releases the backend's resources.
	Stop() error
}

// Documenter is implemented by backends that carry documentation for their
// tools beyond the description.
type Documenter interface {
	ToolDoc(tool string) (tooldoc.DocEntry, bool)
}
