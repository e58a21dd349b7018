package loader

import (
	"context"
	"fmt"
	"sync"
)

// Factory creates a fresh instance of a named type.
type Factory func() any

// StaticDriver serves libraries from in-memory factories. Every locator set
// opens the same factory table.
type StaticDriver struct {
	mu        sync.RWMutex
	factories map[string]Factory
	opened    int
}

// NewStaticDriver creates a StaticDriver over factories.
func NewStaticDriver(factories map[string]Factory) *StaticDriver {
	d := &StaticDriver{factories: make(map[string]Factory, len(factories))}
	for name, f := range factories {
		d.factories[name] = f
	}
	return d
}

// Define registers or replaces a factory.
func (d *StaticDriver) Define(name string, f Factory) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.factories[name] = f
}

// Opened returns how many libraries the driver has opened.
func (d *StaticDriver) Opened() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.opened
}

// Open returns a library resolving names against the factory table.
func (d *StaticDriver) Open(locators []string) (Library, error) {
	d.mu.Lock()
	d.opened++
	d.mu.Unlock()
	return &staticLibrary{driver: d}, nil
}

type staticLibrary struct {
	driver *StaticDriver
}

func (l *staticLibrary) Instantiate(_ context.Context, name string) (any, error) {
	l.driver.mu.RLock()
	f, ok := l.driver.factories[name]
	l.driver.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrClassNotFound, name)
	}
	return f(), nil
}

func (l *staticLibrary) Close() error {
	return nil
}

var _ Driver = (*StaticDriver)(nil)
