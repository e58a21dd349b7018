package loader

import "errors"

// Errors for loading operations.
var (
	// ErrClassNotFound is returned when no context in the chain defines a name.
	ErrClassNotFound = errors.New("class not found")

	// ErrNoReference is returned by Cache.ContextFor when the cache holds no
	// live reference. Callers must AddRef before looking anything up.
	ErrNoReference = errors.New("loader cache has no live references")

	// ErrIncompatible is returned when a loaded instance does not satisfy the
	// expected structural contract.
	ErrIncompatible = errors.New("incompatible compiler implementation")

	// ErrBadLocator is returned when a locator cannot be opened.
	ErrBadLocator = errors.New("invalid classpath locator")
)
