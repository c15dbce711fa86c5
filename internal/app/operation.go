package app

import "folderwatch/internal/watch"

// Operation names recorded in the run history.
const (
	OperationCheck            = "check"
	OperationTestNotification = "test-notification"
	OperationResetState       = "reset-state"
)

// Run statuses.
const (
	StatusSuccess  = "success"
	StatusError    = "error"
	StatusConflict = "conflict"
)

// Operation tracks one recorded command. It starts in memory with ID=0 and
// gets its ID when persisted to the run history.
type Operation struct {
	ID           int64
	Name         string
	RunID        string
	Status       string
	FilesChecked int
	NewFiles     int
	Message      string
}

// NewOperation creates an in-memory operation that succeeds unless told otherwise.
func NewOperation(name, runID string) *Operation {
	return &Operation{
		Name:   name,
		RunID:  runID,
		Status: StatusSuccess,
	}
}

// Persisted returns true if this operation has been saved to the run history.
func (op *Operation) Persisted() bool {
	return op.ID != 0
}

// Complete copies the counts and message of a finished check.
func (op *Operation) Complete(result *watch.RunResult) {
	if result == nil {
		return
	}
	op.FilesChecked = result.FilesChecked
	op.NewFiles = len(result.NewFiles)
	op.Message = result.Message
}

// Fail marks the operation as failed with err's message.
func (op *Operation) Fail(status string, err error) {
	op.Status = status
	op.Message = err.Error()
}
