package watch

import "time"

// CandidateFile is a file observed during one scan. It is rebuilt from the
// remote listing on every run and never persisted itself.
type CandidateFile struct {
	ID         string
	Name       string
	OwnerName  string    // entity folder the file was found under
	ModifiedAt time.Time // advisory only
	Link       string    // display only, never parsed for identity
	Path       string    // parent path as reported by the store
}

// SeenRecord records that a candidate id was notified at NotifiedAt.
// Name and OwnerName are denormalized copies kept for diagnostics.
type SeenRecord struct {
	Name       string    `json:"name"`
	OwnerName  string    `json:"ownerName"`
	NotifiedAt time.Time `json:"notifiedAt"`
}

// Snapshot is the full dedup state carried between runs.
type Snapshot struct {
	LastCheckAt time.Time             `json:"lastCheckAt"`
	Seen        map[string]SeenRecord `json:"seen"`
}

// RunResult is the outcome of one successful pipeline run.
// ExcludedFolders and OtherFolders count the subfolders of target folders
// that were skipped, split by whether they matched an exclusion pattern.
type RunResult struct {
	RunID           string
	StartedAt       time.Time
	FilesChecked    int
	NewFiles        []CandidateFile
	Evicted         int
	ExcludedFolders int
	OtherFolders    int
	Message         string
	State           string // exported snapshot, to be persisted by the caller
}

// RunRecord is one entry in the run history.
type RunRecord struct {
	ID           int64
	RunID        string
	Operation    string
	StartedAt    time.Time
	FinishedAt   *time.Time
	Status       string
	FilesChecked int
	NewFiles     int
	Message      string
}
