package watch

// RunHistory records every CLI or HTTP triggered operation.
type RunHistory interface {
	// CreateRun inserts an unfinished run record and returns it with its ID set.
	CreateRun(runID, operation string) (*RunRecord, error)

	// FinishRun marks a run as finished with its outcome.
	FinishRun(id int64, status string, filesChecked, newFiles int, message string) error

	// ListRuns returns the most recent runs, newest first.
	ListRuns(limit int) ([]*RunRecord, error)
}
