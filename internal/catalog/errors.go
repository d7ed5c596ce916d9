package catalog

import "errors"

// Sentinel errors for catalog lookups. Callers should branch with errors.Is.
var (
	// ErrNotFound indicates the requested document does not exist.
	// A malformed ObjectID on a lookup path is treated the same way:
	// an id that cannot exist cannot be found.
	ErrNotFound = errors.New("not found")
)
