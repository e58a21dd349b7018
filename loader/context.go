package loader

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
)

// Library is the code opened from a set of locators.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: Instantiate returns an error matching ErrClassNotFound when the
//   library does not define name.
type Library interface {
	// Instantiate creates a new instance of the named type.
	Instantiate(ctx context.Context, name string) (any, error)

	// Close releases resources held by the library.
	Close() error
}

// Driver opens libraries from locators.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: unusable locators return an error matching ErrBadLocator.
type Driver interface {
	Open(locators []string) (Library, error)
}

var contextSeq atomic.Uint64

// Context is an isolated loading namespace chained to a parent.
type Context struct {
	id       string
	parent   *Context
	locators []string
	lib      Library

	closeOnce sync.Once
	closeErr  error
}

var root = &Context{id: "root"}

// Root returns the process's own loading context. It defines nothing itself
// and is the parent of every context the Cache builds by default.
func Root() *Context {
	return root
}

// NewContext creates a context over lib. It is normally called by a Cache.
func NewContext(parent *Context, locators []string, lib Library) *Context {
	if parent == nil {
		parent = root
	}
	locs := make([]string, len(locators))
	copy(locs, locators)
	return &Context{
		id:       fmt.Sprintf("ctx-%d", contextSeq.Add(1)),
		parent:   parent,
		locators: locs,
		lib:      lib,
	}
}

// ID returns the context identity used in derived cache keys.
func (c *Context) ID() string {
	return c.id
}

// Parent returns the parent context, or nil for Root.
func (c *Context) Parent() *Context {
	return c.parent
}

// Locators returns a copy of the locators the context was seeded with.
func (c *Context) Locators() []string {
	out := make([]string, len(c.locators))
	copy(out, c.locators)
	return out
}

// Instantiate creates the named type, delegating to the parent first.
func (c *Context) Instantiate(ctx context.Context, name string) (any, error) {
	if c.parent != nil {
		v, err := c.parent.Instantiate(ctx, name)
		if err == nil {
			return v, nil
		}
		if !errors.Is(err, ErrClassNotFound) {
			return nil, err
		}
	}
	if c.lib == nil {
		return nil, fmt.Errorf("%w: %s", ErrClassNotFound, name)
	}
	return c.lib.Instantiate(ctx, name)
}

// String describes the context for logs.
func (c *Context) String() string {
	return c.id + "[" + strings.Join(c.locators, " ") + "]"
}

func (c *Context) close() error {
	c.closeOnce.Do(func() {
		if c.lib != nil {
			c.closeErr = c.lib.Close()
		}
	})
	return c.closeErr
}
