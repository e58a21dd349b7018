// Package rulekey collects the values an invocation contributes to the build
// engine's fingerprint of a rule.
package rulekey

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"sync"
)

// Sink receives named fingerprint contributions.
//
// Contract:
// - Set returns the sink so calls can be chained.
// - Setting the same key twice keeps the last value.
type Sink interface {
	Set(key string, value any) Sink
}

// Builder is a Sink that renders contributions into a stable hash.
type Builder struct {
	mu     sync.Mutex
	fields map[string]string
}

// NewBuilder creates an empty Builder.
func NewBuilder() *Builder {
	return &Builder{fields: make(map[string]string)}
}

// Set records key = value.
func (b *Builder) Set(key string, value any) Sink {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.fields[key] = fmt.Sprint(value)
	return b
}

// Get returns the recorded value for key.
func (b *Builder) Get(key string) (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	v, ok := b.fields[key]
	return v, ok
}

// Fields returns a copy of all recorded contributions.
func (b *Builder) Fields() map[string]string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make(map[string]string, len(b.fields))
	for k, v := range b.fields {
		out[k] = v
	}
	return out
}

// Hash returns the hex sha256 of the contributions in key order.
func (b *Builder) Hash() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	keys := make([]string, 0, len(b.fields))
	for k := range b.fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	h := sha256.New()
	for _, k := range keys {
		fmt.Fprintf(h, "%d:%s%d:%s", len(k), k, len(b.fields[k]), b.fields[k])
	}
	return hex.EncodeToString(h.Sum(nil))
}
