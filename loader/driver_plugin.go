package loader

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"plugin"
)

// EntrypointsSymbol is the symbol a Go plugin exports to make types
// available to a PluginDriver. Its type is map[string]func() any.
const EntrypointsSymbol = "Entrypoints"

// PluginDriver opens Go plugin shared objects. Locators naming anything other
// than a .so file are skipped, so a classpath may mix jars and plugins.
//
// Go plugins cannot be unloaded, so closing a plugin library is a no-op.
type PluginDriver struct {
	open func(path string) (symbolTable, error)
}

// symbolTable is the part of *plugin.Plugin the driver uses.
type symbolTable interface {
	Lookup(name string) (plugin.Symbol, error)
}

// NewPluginDriver creates a PluginDriver.
func NewPluginDriver() *PluginDriver {
	return &PluginDriver{open: openPlugin}
}

func openPlugin(path string) (symbolTable, error) {
	p, err := plugin.Open(path)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Open loads every .so locator and merges their entry points. Later
// locators do not override earlier ones.
func (d *PluginDriver) Open(locators []string) (Library, error) {
	lib := &pluginLibrary{entries: make(map[string]func() any)}
	for _, loc := range locators {
		path, err := LocatorPath(loc)
		if err != nil {
			return nil, err
		}
		if filepath.Ext(path) != ".so" {
			continue
		}
		p, err := d.open(path)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrBadLocator, path, err)
		}
		sym, err := p.Lookup(EntrypointsSymbol)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrBadLocator, path, err)
		}
		entries, err := entrypoints(sym)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		for name, f := range entries {
			if _, ok := lib.entries[name]; !ok {
				lib.entries[name] = f
			}
		}
	}
	return lib, nil
}

func entrypoints(sym plugin.Symbol) (map[string]func() any, error) {
	switch v := sym.(type) {
	case *map[string]func() any:
		if v == nil {
			return nil, errors.New("nil entrypoint table")
		}
		return *v, nil
	case map[string]func() any:
		return v, nil
	}
	return nil, fmt.Errorf("%w: %s has type %T", ErrIncompatible, EntrypointsSymbol, sym)
}

type pluginLibrary struct {
	entries map[string]func() any
}

func (l *pluginLibrary) Instantiate(_ context.Context, name string) (any, error) {
	f, ok := l.entries[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrClassNotFound, name)
	}
	return f(), nil
}

func (l *pluginLibrary) Close() error {
	return nil
}

var _ Driver = (*PluginDriver)(nil)
