package backend

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/hashicorp/go-multierror"
)

// ErrBackendExists is returned when registering a duplicate backend.
var ErrBackendExists = errors.New("backend already registered")

// Registry manages backend instances by name.
type Registry struct {
	mu       sync.RWMutex
	backends map[string]Backend
}

// NewRegistry creates a new backend registry.
func NewRegistry() *Registry {
	return &Registry{backends: make(map[string]Backend)}
}

// Register adds a backend to the registry.
func (r *Registry) Register(b Backend) error {
	if b == nil {
		return fmt.Errorf("backend is nil")
	}
	name := b.Name()
	if name == "" {
		return fmt.Errorf("backend name is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.backends[name]; exists {
		return fmt.Errorf("%w: %s", ErrBackendExists, name)
	}
	r.backends[name] = b
	return nil
}

// Unregister stops and removes a backend.
func (r *Registry) Unregister(name string) error {
	r.mu.Lock()
	b, exists := r.backends[name]
	delete(r.backends, name)
	r.mu.Unlock()

	if !exists {
		return fmt.Errorf("%w: %s", ErrBackendNotFound, name)
	}
	return b.Stop()
}

// Get retrieves a backend by name.
func (r *Registry) Get(name string) (Backend, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.backends[name]
	return b, ok
}

// List returns all backends sorted by name.
func (r *Registry) List() []Backend {
	r.mu.RLock()
	out := make([]Backend, 0, len(r.backends))
	for _, b := range r.backends {
		out = append(out, b)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

// ListEnabled returns enabled backends only.
func (r *Registry) ListEnabled() []Backend {
	all := r.List()
	out := make([]Backend, 0, len(all))
	for _, b := range all {
		if b.Enabled() {
			out = append(out, b)
		}
	}
	return out
}

// ListByKind returns backends matching the given kind.
func (r *Registry) ListByKind(kind string) []Backend {
	all := r.List()
	out := make([]Backend, 0, len(all))
	for _, b := range all {
		if b.Kind() == kind {
			out = append(out, b)
		}
	}
	return out
}

// Names returns backend names in sorted order.
func (r *Registry) Names() []string {
	all := r.List()
	out := make([]string, len(all))
	for i, b := range all {
		out[i] = b.Name()
	}
	return out
}

// StartAll starts every enabled backend. If one fails, the backends already
// started are stopped again.
func (r *Registry) StartAll(ctx context.Context) error {
	var started []Backend
	for _, b := range r.ListEnabled() {
		if err := b.Start(ctx); err != nil {
			for _, s := range started {
				_ = s.Stop()
			}
			return fmt.Errorf("starting %s: %w", b.Name(), err)
		}
		started = append(started, b)
	}
	return nil
}

// StopAll stops every backend and reports all failures.
func (r *Registry) StopAll() error {
	var result *multierror.Error
	for _, b := range r.List() {
		if err := b.Stop(); err != nil {
			result = multierror.Append(result, fmt.Errorf("stopping %s: %w", b.Name(), err))
		}
	}
	return result.ErrorOrNil()
}
