// Package config defines the configuration surface the toolchain locator
// reads from, a map-backed implementation of it, and file loaders for HCL,
// TOML, YAML and JSON.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cast"

	"github.com/jonwraymond/kotlinexec/artifact"
)

// ErrConfiguration indicates an invalid or unreadable configuration.
var ErrConfiguration = errors.New("configuration error")

// Source is the read-only view of build configuration consumed by the
// toolchain locator.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Ownership: returned maps are caller-owned copies.
type Source interface {
	// Value returns the raw string for section.key.
	Value(section, key string) (string, bool)

	// Bool parses section.key as a boolean. ok is false when unset.
	Bool(section, key string) (value bool, ok bool, err error)

	// SourcePath returns section.key as a build-target reference when the
	// configured value is written as one.
	SourcePath(section, key string) (artifact.SourcePath, bool)

	// Environment returns the environment the build runs with.
	Environment() map[string]string

	// ProjectRoot is the directory relative paths are resolved against.
	ProjectRoot() string
}

// Config is the map-backed Source. The zero value is empty and usable.
type Config struct {
	sections map[string]map[string]string
	env      map[string]string
	root     string
}

// Option configures a Config.
type Option func(*Config)

// WithEnvironment sets the build environment.
func WithEnvironment(env map[string]string) Option {
	return func(c *Config) {
		c.env = copyMap(env)
	}
}

// WithProjectRoot sets the project root.
func WithProjectRoot(root string) Option {
	return func(c *Config) {
		c.root = filepath.Clean(root)
	}
}

// New creates a Config from section -> key -> value maps.
// Section and key names are case-insensitive.
func New(sections map[string]map[string]string, opts ...Option) *Config {
	c := &Config{sections: make(map[string]map[string]string, len(sections))}
	for name, kv := range sections {
		for k, v := range kv {
			c.set(name, k, v)
		}
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Config) set(section, key, value string) {
	section = strings.ToLower(section)
	if c.sections == nil {
		c.sections = make(map[string]map[string]string)
	}
	kv, ok := c.sections[section]
	if !ok {
		kv = make(map[string]string)
		c.sections[section] = kv
	}
	kv[strings.ToLower(key)] = value
}

// Value returns the raw string for section.key.
func (c *Config) Value(section, key string) (string, bool) {
	kv, ok := c.sections[strings.ToLower(section)]
	if !ok {
		return "", false
	}
	v, ok := kv[strings.ToLower(key)]
	return v, ok
}

// Bool parses section.key as a boolean.
func (c *Config) Bool(section, key string) (bool, bool, error) {
	raw, ok := c.Value(section, key)
	if !ok {
		return false, false, nil
	}
	b, err := cast.ToBoolE(strings.TrimSpace(raw))
	if err != nil {
		return false, true, fmt.Errorf("%w: %s.%s: %q is not a boolean", ErrConfiguration, section, key, raw)
	}
	return b, true, nil
}

// SourcePath returns section.key as a build target when it is written as one.
func (c *Config) SourcePath(section, key string) (artifact.SourcePath, bool) {
	raw, ok := c.Value(section, key)
	if !ok {
		return artifact.SourcePath{}, false
	}
	return artifact.ParseSourcePath(raw)
}

// Environment returns a copy of the build environment.
func (c *Config) Environment() map[string]string {
	return copyMap(c.env)
}

// ProjectRoot returns the project root, or "." when unset.
func (c *Config) ProjectRoot() string {
	if c.root == "" {
		return "."
	}
	return c.root
}

// Sections returns the configured section names, sorted.
func (c *Config) Sections() []string {
	out := make([]string, 0, len(c.sections))
	for name := range c.sections {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Keys returns the keys of a section, sorted.
func (c *Config) Keys(section string) []string {
	kv := c.sections[strings.ToLower(section)]
	out := make([]string, 0, len(kv))
	for k := range kv {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func copyMap(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

var _ Source = (*Config)(nil)
