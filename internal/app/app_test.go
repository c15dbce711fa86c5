package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"folderwatch/internal/config"
	"folderwatch/internal/statestore"
	"folderwatch/internal/testutil"
	"folderwatch/internal/watch"
)

type testEnv struct {
	app      *App
	drive    *testutil.TestDrive
	notifier *testutil.RecordingNotifier
	store    watch.StateStore
	clock    *testutil.StubClock
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		drive:    testutil.NewTestDrive(),
		notifier: testutil.NewRecordingNotifier(),
		store:    statestore.NewMemoryStore(),
		clock:    testutil.FixedClock(),
	}
	env.app = New(Deps{
		Drive:    env.drive,
		Notifier: env.notifier,
		Store:    env.store,
		History:  testutil.NewTestDatabase(t),
		Logger:   watch.NewNopLogger(),
		Clock:    env.clock,
		IDGen:    testutil.NewStubIDGenerator(),
	})
	return env
}

func TestApp_Check(t *testing.T) {
	t.Run("notifies once and persists state", func(t *testing.T) {
		env := newTestEnv(t)
		ctx := context.Background()
		target := env.drive.AddEntity("Acme")
		env.drive.AddEntityFile(target, "f1", "w2.pdf", time.Now())

		result, err := env.app.Check(ctx)
		if err != nil {
			t.Fatalf("Check() error = %v", err)
		}
		if len(result.NewFiles) != 1 {
			t.Fatalf("first Check() new files = %d, want 1", len(result.NewFiles))
		}

		data, rev, _ := env.store.Get(ctx)
		if data != result.State || rev == "" {
			t.Errorf("stored state = (%q, %q), want exported state", data, rev)
		}

		result, err = env.app.Check(ctx)
		if err != nil {
			t.Fatalf("second Check() error = %v", err)
		}
		if len(result.NewFiles) != 0 {
			t.Errorf("second Check() new files = %d, want 0", len(result.NewFiles))
		}
		if got := env.notifier.NotifiedIDs(); len(got) != 1 {
			t.Errorf("notified ids = %v, want exactly one notification", got)
		}
	})

	t.Run("records run history", func(t *testing.T) {
		env := newTestEnv(t)
		target := env.drive.AddEntity("Acme")
		env.drive.AddEntityFile(target, "f1", "w2.pdf", time.Now())

		if _, err := env.app.Check(context.Background()); err != nil {
			t.Fatalf("Check() error = %v", err)
		}

		runs, err := env.app.History(10)
		if err != nil {
			t.Fatalf("History() error = %v", err)
		}
		if len(runs) != 1 {
			t.Fatalf("History() returned %d runs, want 1", len(runs))
		}
		got := runs[0]
		if got.Operation != OperationCheck || got.Status != StatusSuccess || got.NewFiles != 1 || got.FilesChecked != 1 {
			t.Errorf("run = %+v", got)
		}
	})

	t.Run("does not persist state when dispatch fails", func(t *testing.T) {
		env := newTestEnv(t)
		target := env.drive.AddEntity("Acme")
		env.drive.AddEntityFile(target, "f1", "w2.pdf", time.Now())
		env.notifier.BatchErr = errors.New("webhook down")

		_, err := env.app.Check(context.Background())
		var derr *watch.DispatchError
		if !errors.As(err, &derr) {
			t.Fatalf("Check() error = %v, want DispatchError", err)
		}

		if data, _, _ := env.store.Get(context.Background()); data != "" {
			t.Errorf("state persisted after failed dispatch: %q", data)
		}

		runs, _ := env.app.History(1)
		if len(runs) != 1 || runs[0].Status != StatusError {
			t.Errorf("run history = %+v, want one error run", runs)
		}

		env.notifier.BatchErr = nil
		result, err := env.app.Check(context.Background())
		if err != nil {
			t.Fatalf("retry Check() error = %v", err)
		}
		if len(result.NewFiles) != 1 {
			t.Errorf("retry new files = %d, want 1", len(result.NewFiles))
		}
	})

	t.Run("refuses to overwrite a concurrent write", func(t *testing.T) {
		env := newTestEnv(t)
		target := env.drive.AddEntity("Acme")
		env.drive.AddEntityFile(target, "f1", "w2.pdf", time.Now())

		racing := &racingStore{StateStore: env.store}
		env.app.store = racing

		result, err := env.app.Check(context.Background())
		if !errors.Is(err, watch.ErrRevisionConflict) {
			t.Fatalf("Check() error = %v, want ErrRevisionConflict", err)
		}
		if result == nil || len(result.NewFiles) != 1 {
			t.Errorf("Check() result = %+v, want the notified batch", result)
		}

		data, _, _ := env.store.Get(context.Background())
		if data != "other-run" {
			t.Errorf("stored state = %q, want the other run's snapshot", data)
		}

		runs, _ := env.app.History(1)
		if len(runs) != 1 || runs[0].Status != StatusConflict {
			t.Errorf("run history = %+v, want one conflict run", runs)
		}
	})

	t.Run("root not found sends error notification", func(t *testing.T) {
		env := newTestEnv(t)
		env.drive.Remove("", env.drive.RootID)

		if _, err := env.app.Check(context.Background()); !errors.Is(err, watch.ErrRootNotFound) {
			t.Fatalf("Check() error = %v, want ErrRootNotFound", err)
		}
		if len(env.notifier.Errors) != 1 {
			t.Errorf("error notifications = %d, want 1", len(env.notifier.Errors))
		}
	})
}

// racingStore simulates another run saving state between this run's Get and Put.
type racingStore struct {
	watch.StateStore
}

func (s *racingStore) Get(ctx context.Context) (string, string, error) {
	data, rev, err := s.StateStore.Get(ctx)
	if err != nil {
		return "", "", err
	}
	if _, err := s.StateStore.Put(ctx, "other-run", rev); err != nil {
		return "", "", err
	}
	return data, rev, nil
}

func TestApp_ShowAndResetState(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	target := env.drive.AddEntity("Acme")
	env.drive.AddEntityFile(target, "f1", "w2.pdf", time.Now())

	if _, err := env.app.Check(ctx); err != nil {
		t.Fatalf("Check() error = %v", err)
	}

	snap, rev, err := env.app.ShowState(ctx)
	if err != nil {
		t.Fatalf("ShowState() error = %v", err)
	}
	if rev == "" {
		t.Error("ShowState() revision is empty")
	}
	if rec, ok := snap.Seen["f1"]; !ok || rec.OwnerName != "Acme" {
		t.Errorf("ShowState() seen = %+v, want f1 owned by Acme", snap.Seen)
	}

	if err := env.app.ResetState(ctx); err != nil {
		t.Fatalf("ResetState() error = %v", err)
	}
	snap, _, err = env.app.ShowState(ctx)
	if err != nil {
		t.Fatalf("ShowState() error = %v", err)
	}
	if len(snap.Seen) != 0 {
		t.Errorf("after reset seen = %d records, want 0", len(snap.Seen))
	}

	result, err := env.app.Check(ctx)
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if len(result.NewFiles) != 1 {
		t.Errorf("after reset new files = %d, want 1", len(result.NewFiles))
	}
}

func TestApp_TestNotification(t *testing.T) {
	env := newTestEnv(t)

	if err := env.app.TestNotification(context.Background()); err != nil {
		t.Fatalf("TestNotification() error = %v", err)
	}
	if env.notifier.Tests != 1 {
		t.Errorf("test notifications = %d, want 1", env.notifier.Tests)
	}

	env.notifier.TestErr = errors.New("invalid webhook")
	if err := env.app.TestNotification(context.Background()); err == nil {
		t.Error("TestNotification() expected error")
	}

	runs, _ := env.app.History(10)
	if len(runs) != 2 || runs[0].Status != StatusError || runs[1].Status != StatusSuccess {
		t.Errorf("run history = %+v", runs)
	}
}

func TestServiceOptions(t *testing.T) {
	opts := ServiceOptions(config.NewConfig(t.TempDir()).Drive)

	if opts.Resolver.RootName != "Client Folders" || opts.Resolver.TargetSuffix != "Wage Statements" {
		t.Errorf("resolver options = %+v", opts.Resolver)
	}
	if opts.Concurrency != 4 {
		t.Errorf("Concurrency = %d, want 4", opts.Concurrency)
	}
	if len(opts.Exclude) != 2 {
		t.Errorf("Exclude = %v, want the two default patterns", opts.Exclude)
	}
}
