package artifact

import (
	"fmt"
	"sort"
	"strings"
)

// SourcePath points at an output of another build rule, e.g.
// "//third_party/kotlin:kotlin-runtime". The build engine resolves it.
type SourcePath struct {
	// Target is the fully written build target.
	Target string
}

// String returns the target.
func (s SourcePath) String() string {
	return s.Target
}

// ParseSourcePath reports whether value is written as a build target and
// returns it as a SourcePath. Accepted forms are "//path:name",
// "cell//path:name" and ":name".
func ParseSourcePath(value string) (SourcePath, bool) {
	v := strings.TrimSpace(value)
	if v == "" {
		return SourcePath{}, false
	}
	if strings.HasPrefix(v, ":") {
		if len(v) == 1 || strings.ContainsAny(v[1:], ":/") {
			return SourcePath{}, false
		}
		return SourcePath{Target: v}, true
	}

	idx := strings.Index(v, "//")
	if idx < 0 {
		return SourcePath{}, false
	}
	cell := v[:idx]
	if strings.ContainsAny(cell, "/:.") {
		return SourcePath{}, false
	}
	rest := v[idx+2:]
	colon := strings.LastIndex(rest, ":")
	if colon < 0 || colon == len(rest)-1 {
		return SourcePath{}, false
	}
	return SourcePath{Target: v}, true
}

// Kind identifies which variant of a Ref is populated.
type Kind int

const (
	// KindSource marks a deferred build-target reference.
	KindSource Kind = iota + 1
	// KindPath marks a concrete filesystem path.
	KindPath
)

func (k Kind) String() string {
	switch k {
	case KindSource:
		return "source"
	case KindPath:
		return "path"
	default:
		return "invalid"
	}
}

// Ref is a two-variant union of a SourcePath and a filesystem path.
// The zero Ref is invalid.
type Ref struct {
	kind   Kind
	source SourcePath
	path   string
}

// FromSource wraps a deferred source reference.
func FromSource(s SourcePath) Ref {
	return Ref{kind: KindSource, source: s}
}

// FromPath wraps a concrete filesystem path.
func FromPath(p string) Ref {
	return Ref{kind: KindPath, path: p}
}

// Kind returns the populated variant.
func (r Ref) Kind() Kind {
	return r.kind
}

// IsSource reports whether r holds a SourcePath.
func (r Ref) IsSource() bool {
	return r.kind == KindSource
}

// IsPath reports whether r holds a filesystem path.
func (r Ref) IsPath() bool {
	return r.kind == KindPath
}

// Source returns the SourcePath. It panics unless r.IsSource().
func (r Ref) Source() SourcePath {
	if r.kind != KindSource {
		panic(fmt.Sprintf("artifact: Source called on %s ref", r.kind))
	}
	return r.source
}

// Path returns the filesystem path. It panics unless r.IsPath().
func (r Ref) Path() string {
	if r.kind != KindPath {
		panic(fmt.Sprintf("artifact: Path called on %s ref", r.kind))
	}
	return r.path
}

// String renders the ref the way rule keys record it.
func (r Ref) String() string {
	switch r.kind {
	case KindSource:
		return "source(" + r.source.Target + ")"
	case KindPath:
		return "path(" + r.path + ")"
	default:
		return "invalid"
	}
}

// Set is an ordered, duplicate-free collection of refs.
type Set struct {
	refs []Ref
}

// NewSet builds a Set, dropping duplicates and invalid refs while keeping the
// first-seen order.
func NewSet(refs ...Ref) Set {
	seen := make(map[Ref]struct{}, len(refs))
	out := make([]Ref, 0, len(refs))
	for _, r := range refs {
		if r.kind == 0 {
			continue
		}
		if _, dup := seen[r]; dup {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	return Set{refs: out}
}

// Refs returns a copy of the refs in the set.
func (s Set) Refs() []Ref {
	out := make([]Ref, len(s.refs))
	copy(out, s.refs)
	return out
}

// Len returns the number of refs.
func (s Set) Len() int {
	return len(s.refs)
}

// Sources returns the SourcePath variants in set order.
func (s Set) Sources() []SourcePath {
	var out []SourcePath
	for _, r := range s.refs {
		if r.IsSource() {
			out = append(out, r.source)
		}
	}
	return out
}

// Paths returns the filesystem path variants in set order.
func (s Set) Paths() []string {
	var out []string
	for _, r := range s.refs {
		if r.IsPath() {
			out = append(out, r.path)
		}
	}
	return out
}

// String renders the set sorted, so equal sets render identically.
func (s Set) String() string {
	parts := make([]string, len(s.refs))
	for i, r := range s.refs {
		parts[i] = r.String()
	}
	sort.Strings(parts)
	return "[" + strings.Join(parts, ", ") + "]"
}
