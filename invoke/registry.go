package invoke

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/singleflight"

	"github.com/jonwraymond/kotlinexec/loader"
)

// shim is a loaded compiler kept alive for the life of the process. It holds
// one reference on the cache it was loaded from.
type shim struct {
	key      loader.Key
	compiler loader.Compiler
	lctx     *loader.Context
	cache    *loader.Cache

	releaseOnce sync.Once
	releaseErr  error
}

func (s *shim) release() error {
	s.releaseOnce.Do(func() {
		s.releaseErr = s.cache.Release()
	})
	return s.releaseErr
}

// exec calls the compiler, turning a panic into an error.
func (s *shim) exec(ctx context.Context, out io.Writer, args []string) (v any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("compiler panicked: %v", r)
		}
	}()
	return s.compiler.Exec(ctx, out, args)
}

// ShimRegistry keeps one loaded compiler per compiler classpath.
//
// Contract:
// - Concurrency: safe for concurrent use. Concurrent first lookups of a key
//   share a single load.
// - Lifecycle: entries live until invalidated or Reset.
type ShimRegistry struct {
	mu            sync.Mutex
	shims         map[loader.Key]*shim
	constructions int

	group singleflight.Group
}

// NewShimRegistry creates an empty registry.
func NewShimRegistry() *ShimRegistry {
	return &ShimRegistry{shims: make(map[loader.Key]*shim)}
}

var defaultRegistry = NewShimRegistry()

// DefaultRegistry returns the process-wide registry.
func DefaultRegistry() *ShimRegistry {
	return defaultRegistry
}

func (r *ShimRegistry) get(key loader.Key, load func() (*shim, error)) (*shim, error) {
	r.mu.Lock()
	if s, ok := r.shims[key]; ok {
		r.mu.Unlock()
		return s, nil
	}
	r.mu.Unlock()

	v, err, _ := r.group.Do(string(key), func() (any, error) {
		r.mu.Lock()
		if s, ok := r.shims[key]; ok {
			r.mu.Unlock()
			return s, nil
		}
		r.mu.Unlock()

		s, err := load()
		if err != nil {
			return nil, err
		}

		r.mu.Lock()
		r.shims[key] = s
		r.constructions++
		r.mu.Unlock()
		return s, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*shim), nil
}

// invalidate forgets s if it is still the entry for its key and drops its
// cache reference.
func (r *ShimRegistry) invalidate(s *shim) error {
	r.mu.Lock()
	if cur, ok := r.shims[s.key]; ok && cur == s {
		delete(r.shims, s.key)
	}
	r.mu.Unlock()
	return s.release()
}

// Len returns the number of loaded compilers.
func (r *ShimRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.shims)
}

// Constructions returns how many compilers the registry has loaded.
func (r *ShimRegistry) Constructions() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.constructions
}

// Reset forgets every loaded compiler and releases their cache references.
func (r *ShimRegistry) Reset() error {
	r.mu.Lock()
	shims := r.shims
	r.shims = make(map[loader.Key]*shim)
	r.mu.Unlock()

	var result *multierror.Error
	for _, s := range shims {
		if err := s.release(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}
