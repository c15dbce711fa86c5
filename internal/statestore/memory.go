package statestore

import (
	"context"
	"strconv"
	"sync"

	"folderwatch/internal/watch"
)

// MemoryStore is an in-memory implementation of the StateStore interface.
// State is lost when the process exits, so it only suits tests and
// long-running `serve` processes. This implementation is safe for concurrent use.
type MemoryStore struct {
	mu       sync.Mutex
	data     string
	revision int64 // 0 means nothing stored
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Get returns the stored snapshot and its revision.
func (m *MemoryStore) Get(ctx context.Context) (string, string, error) {
	if err := ctx.Err(); err != nil {
		return "", "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	return m.data, formatRevision(m.revision), nil
}

// Put stores data if expectRevision matches the current revision.
func (m *MemoryStore) Put(ctx context.Context, data string, expectRevision string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if expectRevision != formatRevision(m.revision) {
		return "", watch.ErrRevisionConflict
	}
	m.data = data
	m.revision++
	return formatRevision(m.revision), nil
}

// ValidateSetup always succeeds for the in-memory store.
func (m *MemoryStore) ValidateSetup(context.Context) error {
	return nil
}

// formatRevision renders a counter revision; 0 is the empty revision.
func formatRevision(rev int64) string {
	if rev == 0 {
		return ""
	}
	return strconv.FormatInt(rev, 10)
}

// Compile-time check that MemoryStore implements watch.StateStore interface
var _ watch.StateStore = (*MemoryStore)(nil)
