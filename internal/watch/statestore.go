package watch

import (
	"context"
	"errors"
)

// ErrRevisionConflict is returned by StateStore.Put when the stored revision
// no longer matches the one the caller read.
var ErrRevisionConflict = errors.New("state revision conflict")

// StateStore persists the exported snapshot string between runs.
// Put is a compare-and-swap on the revision returned by Get, so two
// overlapping runs cannot both write a snapshot derived from the same base.
type StateStore interface {
	// Get returns the stored snapshot and its revision.
	// Both are empty when nothing has been stored yet.
	Get(ctx context.Context) (data string, revision string, err error)

	// Put stores data if the current revision equals expectRevision
	// (empty means "nothing stored yet") and returns the new revision.
	Put(ctx context.Context, data string, expectRevision string) (string, error)

	// ValidateSetup verifies that the store is accessible and properly configured.
	ValidateSetup(ctx context.Context) error
}
