package watch_test

import (
	"encoding/json"
	"reflect"
	"testing"
	"time"

	"folderwatch/internal/testutil"
	"folderwatch/internal/watch"
)

func newEngine(clock watch.Clock) *watch.StateEngine {
	return watch.NewStateEngine(clock, watch.NewNopLogger())
}

func candidate(id, name, owner string) watch.CandidateFile {
	return watch.CandidateFile{ID: id, Name: name, OwnerName: owner}
}

func ids(files []watch.CandidateFile) []string {
	var out []string
	for _, f := range files {
		out = append(out, f.ID)
	}
	return out
}

func TestStateEngine_FilterNew(t *testing.T) {
	t.Run("all new on empty snapshot, order preserved", func(t *testing.T) {
		s := newEngine(testutil.FixedClock())
		in := []watch.CandidateFile{candidate("c", "3.pdf", "B"), candidate("a", "1.pdf", "A"), candidate("b", "2.pdf", "A")}

		got := s.FilterNew(in)
		if want := []string{"c", "a", "b"}; !reflect.DeepEqual(ids(got), want) {
			t.Errorf("FilterNew() = %v, want %v", ids(got), want)
		}
	})

	t.Run("is pure", func(t *testing.T) {
		s := newEngine(testutil.FixedClock())
		s.Commit([]watch.CandidateFile{candidate("a", "1.pdf", "A")})
		in := []watch.CandidateFile{candidate("a", "1.pdf", "A"), candidate("b", "2.pdf", "A")}

		first := s.FilterNew(in)
		second := s.FilterNew(in)
		if !reflect.DeepEqual(first, second) {
			t.Errorf("FilterNew() not idempotent: %v then %v", ids(first), ids(second))
		}
		if want := []string{"b"}; !reflect.DeepEqual(ids(first), want) {
			t.Errorf("FilterNew() = %v, want %v", ids(first), want)
		}
		if len(s.Snapshot().Seen) != 1 {
			t.Error("FilterNew() modified the snapshot")
		}
	})

	t.Run("skips candidates without id", func(t *testing.T) {
		s := newEngine(testutil.FixedClock())
		got := s.FilterNew([]watch.CandidateFile{candidate("", "ghost.pdf", "A"), candidate("a", "1.pdf", "A")})
		if want := []string{"a"}; !reflect.DeepEqual(ids(got), want) {
			t.Errorf("FilterNew() = %v, want %v", ids(got), want)
		}
	})
}

func TestStateEngine_Commit(t *testing.T) {
	clock := testutil.FixedClock()
	s := newEngine(clock)

	s.Commit([]watch.CandidateFile{candidate("f1", "a.pdf", "Acme")})

	snap := s.Snapshot()
	rec, ok := snap.Seen["f1"]
	if !ok {
		t.Fatal("Commit() did not record f1")
	}
	want := watch.SeenRecord{Name: "a.pdf", OwnerName: "Acme", NotifiedAt: clock.Now()}
	if rec != want {
		t.Errorf("record = %+v, want %+v", rec, want)
	}
	if !snap.LastCheckAt.Equal(clock.Now()) {
		t.Errorf("LastCheckAt = %v, want %v", snap.LastCheckAt, clock.Now())
	}

	clock.Advance(time.Hour)
	s.Commit(nil)
	snap = s.Snapshot()
	if !snap.LastCheckAt.Equal(clock.Now()) {
		t.Errorf("empty Commit() LastCheckAt = %v, want %v", snap.LastCheckAt, clock.Now())
	}
	if !snap.Seen["f1"].NotifiedAt.Equal(want.NotifiedAt) {
		t.Error("empty Commit() changed an existing record")
	}
}

func TestStateEngine_AtMostOncePerWindow(t *testing.T) {
	clock := testutil.FixedClock()
	s := newEngine(clock)
	f := candidate("f1", "a.pdf", "Acme")
	s.Commit([]watch.CandidateFile{f})

	tests := []struct {
		name    string
		after   time.Duration
		wantNew bool
	}{
		{name: "one day later", after: 24 * time.Hour, wantNew: false},
		{name: "just before the window ends", after: watch.RetentionWindow - time.Second, wantNew: false},
		{name: "exactly at the window end", after: watch.RetentionWindow, wantNew: false},
		{name: "31 days later", after: 31 * 24 * time.Hour, wantNew: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exported, err := s.Export()
			if err != nil {
				t.Fatalf("Export() error = %v", err)
			}
			later := newEngine(clock)
			later.Load(exported)

			later.EvictExpired(clock.Now().Add(tt.after))
			got := later.FilterNew([]watch.CandidateFile{f})
			if (len(got) == 1) != tt.wantNew {
				t.Errorf("FilterNew() after %v = %v, wantNew %v", tt.after, ids(got), tt.wantNew)
			}
		})
	}
}

func TestStateEngine_EvictExpired(t *testing.T) {
	clock := testutil.FixedClock()
	s := newEngine(clock)

	start := clock.Now()
	s.Commit([]watch.CandidateFile{candidate("old", "old.pdf", "A")})
	clock.Advance(10 * 24 * time.Hour)
	s.Commit([]watch.CandidateFile{candidate("recent", "recent.pdf", "A")})

	now := start.Add(31 * 24 * time.Hour)
	if got := s.EvictExpired(now); got != 1 {
		t.Errorf("EvictExpired() = %d, want 1", got)
	}
	seen := s.Snapshot().Seen
	if _, ok := seen["old"]; ok {
		t.Error("record older than the window was not evicted")
	}
	if _, ok := seen["recent"]; !ok {
		t.Error("record inside the window was evicted")
	}

	if got := s.EvictExpired(now); got != 0 {
		t.Errorf("second EvictExpired() = %d, want 0", got)
	}
}

func TestStateEngine_RoundTrip(t *testing.T) {
	clock := testutil.FixedClock()
	s := newEngine(clock)
	s.Commit([]watch.CandidateFile{candidate("b", "2.pdf", "Beta"), candidate("a", "1.pdf", "Acme")})
	clock.Advance(time.Minute)
	s.Commit([]watch.CandidateFile{candidate("c", "3.pdf", "Acme")})

	first, err := s.Export()
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	reloaded := newEngine(clock)
	reloaded.Load(first)
	second, err := reloaded.Export()
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	if first != second {
		t.Errorf("Export(Load(Export(S))) != Export(S)\nfirst:  %s\nsecond: %s", first, second)
	}
	if !reflect.DeepEqual(s.Snapshot(), reloaded.Snapshot()) {
		t.Errorf("reloaded snapshot differs:\n%+v\n%+v", s.Snapshot(), reloaded.Snapshot())
	}
}

func TestStateEngine_ExportShape(t *testing.T) {
	s := newEngine(testutil.NewStubClock(time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)))
	s.Commit([]watch.CandidateFile{candidate("f1", "a.pdf", "Acme")})

	got, err := s.Export()
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	want := `{"lastCheckAt":"2025-01-02T03:04:05Z","seen":{"f1":{"name":"a.pdf","ownerName":"Acme","notifiedAt":"2025-01-02T03:04:05Z"}}}`
	if got != want {
		t.Errorf("Export() =\n%s\nwant\n%s", got, want)
	}
}

func TestStateEngine_Load(t *testing.T) {
	all := []watch.CandidateFile{candidate("f1", "a.pdf", "Acme"), candidate("f2", "b.pdf", "Acme")}

	tests := []struct {
		name     string
		input    string
		wantNew  []string
		wantSeen int
	}{
		{name: "absent", input: "", wantNew: []string{"f1", "f2"}},
		{name: "not json", input: "not json", wantNew: []string{"f1", "f2"}},
		{name: "wrong type", input: `{"seen":[1,2,3]}`, wantNew: []string{"f1", "f2"}},
		{name: "json null", input: "null", wantNew: []string{"f1", "f2"}},
		{
			name:     "canonical",
			input:    `{"lastCheckAt":"2025-03-01T00:00:00Z","seen":{"f1":{"name":"a.pdf","ownerName":"Acme","notifiedAt":"2025-03-01T00:00:00Z"}}}`,
			wantNew:  []string{"f2"},
			wantSeen: 1,
		},
		{
			name:     "legacy shape",
			input:    `{"lastCheck":"2025-03-01T00:00:00.000Z","processedFiles":{"f2":{"name":"b.pdf","clientName":"Acme","notifiedAt":"2025-03-01T00:00:00.000Z"}}}`,
			wantNew:  []string{"f1"},
			wantSeen: 1,
		},
		{
			name:     "empty id dropped",
			input:    `{"seen":{"":{"name":"x"},"f1":{"name":"a.pdf","notifiedAt":"2025-03-01T00:00:00Z"}}}`,
			wantNew:  []string{"f2"},
			wantSeen: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newEngine(testutil.FixedClock())
			s.Load(tt.input)

			if got := ids(s.FilterNew(all)); !reflect.DeepEqual(got, tt.wantNew) {
				t.Errorf("FilterNew() = %v, want %v", got, tt.wantNew)
			}
			if got := len(s.Snapshot().Seen); got != tt.wantSeen {
				t.Errorf("len(Seen) = %d, want %d", got, tt.wantSeen)
			}
		})
	}
}

func TestStateEngine_LegacyOwnerName(t *testing.T) {
	s := newEngine(testutil.FixedClock())
	s.Load(`{"lastCheck":"2025-03-01T10:00:00.000Z","processedFiles":{"f2":{"name":"b.pdf","clientName":"Acme","notifiedAt":"2025-03-01T10:00:00.000Z"}}}`)

	snap := s.Snapshot()
	if snap.Seen["f2"].OwnerName != "Acme" {
		t.Errorf("OwnerName = %q, want Acme", snap.Seen["f2"].OwnerName)
	}
	if want := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC); !snap.LastCheckAt.Equal(want) {
		t.Errorf("LastCheckAt = %v, want %v", snap.LastCheckAt, want)
	}

	exported, err := s.Export()
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	var generic map[string]any
	if err := json.Unmarshal([]byte(exported), &generic); err != nil {
		t.Fatalf("exported state is not JSON: %v", err)
	}
	if _, ok := generic["processedFiles"]; ok {
		t.Error("Export() kept the legacy field names")
	}
}
