package imgstore

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned by Load for an id with no record. Deleted or
	// never-synced references are an expected state, so callers branch on
	// this rather than treating it as a failure.
	ErrNotFound = errors.New("image not found")

	// ErrTooLarge is returned by Save before any write when the payload
	// exceeds the store's size cap.
	ErrTooLarge = errors.New("image exceeds size limit")
)

// WriteError wraps a medium failure during Save (disk full, database error).
// The save is fully rolled back: no record exists after a WriteError.
type WriteError struct {
	Err error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("failed to write image: %v", e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// ReadError wraps a medium failure during Load. For rendering purposes it is
// equivalent to ErrNotFound, but it is kept distinct for logs.
type ReadError struct {
	ID  string
	Err error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("failed to read image %s: %v", e.ID, e.Err)
}

func (e *ReadError) Unwrap() error {
	return e.Err
}
