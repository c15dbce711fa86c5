package watch

import (
	"encoding/json"
	"fmt"
	"time"
)

// RetentionWindow is how long a SeenRecord suppresses repeat notifications.
// Once a record ages out its file id is treated as new again.
const RetentionWindow = 30 * 24 * time.Hour

// StateEngine owns the dedup snapshot for the duration of one run.
// It is not safe for concurrent use; create one per run.
type StateEngine struct {
	snapshot Snapshot
	clock    Clock
	logger   Logger
}

// NewStateEngine creates an engine holding an empty snapshot.
func NewStateEngine(clock Clock, logger Logger) *StateEngine {
	return &StateEngine{
		snapshot: emptySnapshot(),
		clock:    clock,
		logger:   logger,
	}
}

func emptySnapshot() Snapshot {
	return Snapshot{Seen: make(map[string]SeenRecord)}
}

// wireSnapshot accepts both the canonical field names and the legacy
// lastCheck/processedFiles/clientName names.
type wireSnapshot struct {
	LastCheckAt    *time.Time            `json:"lastCheckAt"`
	Seen           map[string]wireRecord `json:"seen"`
	LastCheck      *time.Time            `json:"lastCheck"`
	ProcessedFiles map[string]wireRecord `json:"processedFiles"`
}

type wireRecord struct {
	Name       string    `json:"name"`
	OwnerName  string    `json:"ownerName"`
	ClientName string    `json:"clientName"`
	NotifiedAt time.Time `json:"notifiedAt"`
}

// Load replaces the current snapshot with the deserialized one.
// Absent or malformed input yields an empty snapshot; Load never fails.
func (s *StateEngine) Load(serialized string) {
	s.snapshot = emptySnapshot()
	if serialized == "" {
		s.logger.Info("no stored state provided, starting empty")
		return
	}

	var w wireSnapshot
	if err := json.Unmarshal([]byte(serialized), &w); err != nil {
		s.logger.Warn("stored state is malformed, starting empty", "error", err)
		return
	}

	switch {
	case w.LastCheckAt != nil:
		s.snapshot.LastCheckAt = w.LastCheckAt.UTC()
	case w.LastCheck != nil:
		s.snapshot.LastCheckAt = w.LastCheck.UTC()
	}

	records := w.Seen
	if records == nil {
		records = w.ProcessedFiles
	}
	for id, rec := range records {
		if id == "" {
			continue
		}
		owner := rec.OwnerName
		if owner == "" {
			owner = rec.ClientName
		}
		s.snapshot.Seen[id] = SeenRecord{
			Name:       rec.Name,
			OwnerName:  owner,
			NotifiedAt: rec.NotifiedAt.UTC(),
		}
	}

	s.logger.Info("loaded state", "seen", len(s.snapshot.Seen))
}

// FilterNew returns the candidates whose id has no SeenRecord, in input order.
// It does not modify the snapshot.
func (s *StateEngine) FilterNew(candidates []CandidateFile) []CandidateFile {
	var fresh []CandidateFile
	for _, c := range candidates {
		if c.ID == "" {
			s.logger.Warn("skipping candidate without id", "name", c.Name, "owner", c.OwnerName)
			continue
		}
		if _, seen := s.snapshot.Seen[c.ID]; seen {
			continue
		}
		fresh = append(fresh, c)
	}
	return fresh
}

// Commit records every file as notified now and advances LastCheckAt.
// Call it only after the batch was delivered. An empty batch still
// advances LastCheckAt.
func (s *StateEngine) Commit(notified []CandidateFile) {
	now := s.clock.Now().UTC()
	for _, c := range notified {
		if c.ID == "" {
			continue
		}
		s.snapshot.Seen[c.ID] = SeenRecord{
			Name:       c.Name,
			OwnerName:  c.OwnerName,
			NotifiedAt: now,
		}
	}
	s.snapshot.LastCheckAt = now
}

// EvictExpired removes records notified strictly before now-RetentionWindow
// and returns how many were removed.
func (s *StateEngine) EvictExpired(now time.Time) int {
	return s.evictOlderThan(RetentionWindow, now)
}

func (s *StateEngine) evictOlderThan(window time.Duration, now time.Time) int {
	cutoff := now.Add(-window)
	removed := 0
	for id, rec := range s.snapshot.Seen {
		if rec.NotifiedAt.Before(cutoff) {
			delete(s.snapshot.Seen, id)
			removed++
		}
	}
	if removed > 0 {
		s.logger.Info("evicted expired records", "count", removed)
	}
	return removed
}

// Export returns the canonical serialized snapshot. Map keys are sorted by
// encoding/json and timestamps are UTC, so Export(Load(Export(s))) is stable.
func (s *StateEngine) Export() (string, error) {
	data, err := json.Marshal(s.snapshot)
	if err != nil {
		return "", fmt.Errorf("encoding state: %w", err)
	}
	return string(data), nil
}

// Snapshot returns a copy of the current snapshot.
func (s *StateEngine) Snapshot() Snapshot {
	cp := Snapshot{
		LastCheckAt: s.snapshot.LastCheckAt,
		Seen:        make(map[string]SeenRecord, len(s.snapshot.Seen)),
	}
	for id, rec := range s.snapshot.Seen {
		cp.Seen[id] = rec
	}
	return cp
}
