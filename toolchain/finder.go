package toolchain

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// Finder looks up executables on a search path.
type Finder interface {
	// Find returns the first executable named name in the PATH-style list
	// pathList.
	Find(name, pathList string) (string, bool)
}

// ExecutableFinder searches a supplied PATH rather than the process
// environment, so a build's configured environment is honored.
type ExecutableFinder struct{}

// Find implements Finder.
func (ExecutableFinder) Find(name, pathList string) (string, bool) {
	if pathList == "" {
		return "", false
	}
	for _, dir := range filepath.SplitList(pathList) {
		if dir == "" {
			continue
		}
		for _, candidate := range candidates(filepath.Join(dir, name)) {
			if IsExecutable(candidate) {
				return candidate, true
			}
		}
	}
	return "", false
}

func candidates(path string) []string {
	if runtime.GOOS != "windows" {
		return []string{path}
	}
	out := []string{path}
	for _, ext := range []string{".exe", ".bat", ".cmd"} {
		if !strings.HasSuffix(strings.ToLower(path), ext) {
			out = append(out, path+ext)
		}
	}
	return out
}

// IsExecutable reports whether path is a regular file the current user may
// execute.
func IsExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return false
	}
	if runtime.GOOS == "windows" {
		return true
	}
	return info.Mode().Perm()&0o111 != 0
}

// IsFile reports whether path is an existing regular file.
func IsFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

var _ Finder = ExecutableFinder{}
