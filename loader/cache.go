package loader

import (
	"fmt"
	"strings"
	"sync"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/singleflight"

	"github.com/jonwraymond/kotlinexec/logging"
)

// Stats is a snapshot of cache state.
type Stats struct {
	// Refs is the number of live references.
	Refs int

	// Contexts is the number of loaded contexts.
	Contexts int

	// Constructions counts contexts ever built by this cache.
	Constructions int
}

// Cache shares loading contexts across compilations for the life of a
// long-running process.
//
// Contract:
// - Concurrency: safe for concurrent use.
// - Lifecycle: AddRef before ContextFor; every AddRef is paired with Release.
//   When the count drops to zero every context is closed and forgotten.
type Cache struct {
	driver Driver
	logger logging.Logger

	mu            sync.Mutex
	refs          int
	contexts      map[string]*Context
	constructions int

	group singleflight.Group
}

// NewCache creates a Cache that opens libraries with driver.
func NewCache(driver Driver, logger logging.Logger) *Cache {
	return &Cache{
		driver:   driver,
		logger:   logging.OrNop(logger),
		contexts: make(map[string]*Context),
	}
}

// AddRef takes a reference on the cache.
func (c *Cache) AddRef() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.refs++
}

// Release drops a reference. The last release closes every loaded context;
// close failures are aggregated.
func (c *Cache) Release() error {
	c.mu.Lock()
	if c.refs == 0 {
		c.mu.Unlock()
		return fmt.Errorf("loader: release without matching AddRef")
	}
	c.refs--
	if c.refs > 0 {
		c.mu.Unlock()
		return nil
	}
	contexts := c.contexts
	c.contexts = make(map[string]*Context)
	c.mu.Unlock()

	var result *multierror.Error
	for _, lctx := range contexts {
		if err := lctx.close(); err != nil {
			result = multierror.Append(result, fmt.Errorf("closing %s: %w", lctx.ID(), err))
		}
	}
	if len(contexts) > 0 {
		c.logger.Debug("loader cache drained", "contexts", len(contexts))
	}
	return result.ErrorOrNil()
}

// ContextFor returns the context for locators under parent, building it on
// first use. Concurrent first requests for the same key share one build.
func (c *Cache) ContextFor(parent *Context, locators []string) (*Context, error) {
	if parent == nil {
		parent = Root()
	}
	key := derivedKey(parent, locators)

	c.mu.Lock()
	if c.refs <= 0 {
		c.mu.Unlock()
		return nil, ErrNoReference
	}
	if lctx, ok := c.contexts[key]; ok {
		c.mu.Unlock()
		return lctx, nil
	}
	c.mu.Unlock()

	v, err, _ := c.group.Do(key, func() (any, error) {
		c.mu.Lock()
		if lctx, ok := c.contexts[key]; ok {
			c.mu.Unlock()
			return lctx, nil
		}
		c.mu.Unlock()

		lib, err := c.driver.Open(locators)
		if err != nil {
			return nil, err
		}
		lctx := NewContext(parent, locators, lib)

		c.mu.Lock()
		if c.refs <= 0 {
			c.mu.Unlock()
			_ = lctx.close()
			return nil, ErrNoReference
		}
		c.contexts[key] = lctx
		c.constructions++
		c.mu.Unlock()

		c.logger.Debug("loading context created", "context", lctx.ID(), "parent", parent.ID(), "locators", len(locators))
		return lctx, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Context), nil
}

// Evict forgets lctx and closes its library so the next ContextFor for the
// same parent and locators builds a fresh one. It is a no-op when lctx is
// not the cached entry. Callers still holding lctx see a closed library.
func (c *Cache) Evict(lctx *Context) error {
	if lctx == nil || lctx.Parent() == nil {
		return nil
	}
	key := derivedKey(lctx.Parent(), lctx.Locators())

	c.mu.Lock()
	cur, ok := c.contexts[key]
	if !ok || cur != lctx {
		c.mu.Unlock()
		return nil
	}
	delete(c.contexts, key)
	c.mu.Unlock()

	c.logger.Debug("loading context evicted", "context", lctx.ID())
	if err := lctx.close(); err != nil {
		return fmt.Errorf("closing %s: %w", lctx.ID(), err)
	}
	return nil
}

// Stats returns a snapshot of the cache.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		Refs:          c.refs,
		Contexts:      len(c.contexts),
		Constructions: c.constructions,
	}
}

// derivedKey ties a locator list to its parent. Locator order is significant
// here; callers wanting set semantics normalize first.
func derivedKey(parent *Context, locators []string) string {
	return parent.ID() + keySeparator + strings.Join(locators, keySeparator)
}
