package navigation

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is wrapped by NotFoundError.
	ErrNotFound = errors.New("poi not found")
	// ErrNoCurrentSelection is returned by Next and Previous when nothing is selected.
	ErrNoCurrentSelection = errors.New("no current selection")
	// ErrOutOfRange is returned by Locate when the nearest POI is too far away.
	ErrOutOfRange = errors.New("no poi within range")
)

// NotFoundError reports navigation to an id absent from the catalog.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%v: %q", ErrNotFound, e.ID)
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}
