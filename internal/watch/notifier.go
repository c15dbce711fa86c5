package watch

import "context"

// Notifier delivers human-readable notifications.
type Notifier interface {
	// NotifyBatch sends a single notification covering all files. files is never empty.
	NotifyBatch(ctx context.Context, files []CandidateFile) error

	// NotifyError reports a failed run. Callers treat failures as best-effort.
	NotifyError(ctx context.Context, message string) error

	// SendTest sends a fixed message to verify delivery is configured.
	SendTest(ctx context.Context) error
}
