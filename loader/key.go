package loader

import (
	"fmt"
	"net/url"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Key identifies a compiler classpath as a set: absolute, cleaned,
// NFC-normalized, de-duplicated and sorted. Two classpaths listing the same
// files in a different order produce the same Key.
type Key string

const keySeparator = "\x00"

// NewKey builds the Key for paths.
func NewKey(paths []string) (Key, error) {
	normalized, err := NormalizePaths(paths)
	if err != nil {
		return "", err
	}
	return Key(strings.Join(normalized, keySeparator)), nil
}

// Paths returns the normalized paths making up k.
func (k Key) Paths() []string {
	if k == "" {
		return nil
	}
	return strings.Split(string(k), keySeparator)
}

// String renders k for logs.
func (k Key) String() string {
	return "[" + strings.Join(k.Paths(), ", ") + "]"
}

// NormalizePaths returns the sorted set of absolute, cleaned, NFC paths.
func NormalizePaths(paths []string) ([]string, error) {
	seen := make(map[string]struct{}, len(paths))
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if p == "" {
			continue
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrBadLocator, p, err)
		}
		abs = norm.NFC.String(filepath.Clean(abs))
		if _, dup := seen[abs]; dup {
			continue
		}
		seen[abs] = struct{}{}
		out = append(out, abs)
	}
	sort.Strings(out)
	return out, nil
}

// FileLocators converts filesystem paths into file URLs, keeping order.
func FileLocators(paths []string) []string {
	out := make([]string, len(paths))
	for i, p := range paths {
		u := url.URL{Scheme: "file", Path: filepath.ToSlash(p)}
		out[i] = u.String()
	}
	return out
}

// LocatorPath converts a file URL back into a filesystem path.
func LocatorPath(locator string) (string, error) {
	u, err := url.Parse(locator)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrBadLocator, locator, err)
	}
	if u.Scheme != "file" {
		return "", fmt.Errorf("%w: %s: only file locators are supported", ErrBadLocator, locator)
	}
	return filepath.FromSlash(u.Path), nil
}
