package invoke

import (
	"path/filepath"
	"sort"
)

// Request is one compilation.
type Request struct {
	// OutputDir receives the compiled classes.
	OutputDir string

	// SourceFiles are the files to compile, in order.
	SourceFiles []string

	// SrcsList is the file listing the sources, used in descriptions.
	SrcsList string

	// ExtraArgs are passed to the compiler before the sources.
	ExtraArgs []string

	// Classpath is the declared compile classpath. See NewClasspath.
	Classpath []string

	// Options are the compiler options shown in descriptions.
	Options []string

	// WorkingDir overrides the context's working directory.
	WorkingDir string
}

// NewClasspath returns paths as a sorted set without empty entries.
func NewClasspath(paths ...string) []string {
	seen := make(map[string]struct{}, len(paths))
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if p == "" {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Normalize returns a copy of r with a normalized classpath. r itself and
// its slices are left untouched.
func (r Request) Normalize() Request {
	out := r
	out.SourceFiles = cloneStrings(r.SourceFiles)
	out.ExtraArgs = cloneStrings(r.ExtraArgs)
	out.Options = cloneStrings(r.Options)
	out.Classpath = NewClasspath(r.Classpath...)
	return out
}

// dir returns the directory the request runs in.
func (r Request) dir(fallback string) string {
	if r.WorkingDir != "" {
		return r.WorkingDir
	}
	return fallback
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

// absIn resolves path against base and makes it absolute.
func absIn(base, path string) string {
	if !filepath.IsAbs(path) {
		path = filepath.Join(base, path)
	}
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}
