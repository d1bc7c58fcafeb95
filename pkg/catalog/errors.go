package catalog

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateID indicates two records share an identifier.
	ErrDuplicateID = errors.New("duplicate poi id")
	// ErrInvalidRoute indicates a route point outside valid coordinate ranges.
	ErrInvalidRoute = errors.New("invalid route point")
	// ErrNotLoaded is returned by catalog queries before a successful load.
	ErrNotLoaded = errors.New("catalog not loaded")
)

// LoadError reports a catalog that could not be fetched, parsed or validated.
// The cause is available through errors.Unwrap.
type LoadError struct {
	Source string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to load catalog from %s: %v", e.Source, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}
