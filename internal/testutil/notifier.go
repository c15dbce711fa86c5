package testutil

import (
	"context"
	"sync"

	"folderwatch/internal/watch"
)

// RecordingNotifier records every call. Set the *Err fields to make the
// corresponding method fail.
type RecordingNotifier struct {
	mu      sync.Mutex
	Batches [][]watch.CandidateFile
	Errors  []string
	Tests   int

	BatchErr error
	ErrorErr error
	TestErr  error
}

func NewRecordingNotifier() *RecordingNotifier {
	return &RecordingNotifier{}
}

func (n *RecordingNotifier) NotifyBatch(_ context.Context, files []watch.CandidateFile) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.BatchErr != nil {
		return n.BatchErr
	}
	n.Batches = append(n.Batches, append([]watch.CandidateFile(nil), files...))
	return nil
}

func (n *RecordingNotifier) NotifyError(_ context.Context, message string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Errors = append(n.Errors, message)
	return n.ErrorErr
}

func (n *RecordingNotifier) SendTest(context.Context) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.TestErr != nil {
		return n.TestErr
	}
	n.Tests++
	return nil
}

// NotifiedIDs returns the ids of every file in every delivered batch, in order.
func (n *RecordingNotifier) NotifiedIDs() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	var ids []string
	for _, batch := range n.Batches {
		for _, f := range batch {
			ids = append(ids, f.ID)
		}
	}
	return ids
}

var _ watch.Notifier = (*RecordingNotifier)(nil)
