package watch

import (
	"errors"
	"fmt"
)

var (
	// ErrRootNotFound means no folder under the drive root carries the configured root name.
	ErrRootNotFound = errors.New("root folder not found")

	// ErrAmbiguousRoot means several folders carry the root name and strict resolution is on.
	ErrAmbiguousRoot = errors.New("root folder name is ambiguous")
)

// DispatchError is returned when the notifier failed to deliver a batch.
// The batch was not committed and will be classified as new again next run.
type DispatchError struct {
	Count int
	Err   error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("notifying about %d new file(s): %v", e.Count, e.Err)
}

func (e *DispatchError) Unwrap() error { return e.Err }
