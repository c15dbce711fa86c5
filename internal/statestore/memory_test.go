package statestore

import (
	"context"
	"errors"
	"testing"

	"folderwatch/internal/watch"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	data, rev, err := store.Get(ctx)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if data != "" || rev != "" {
		t.Fatalf("Get() on empty store = (%q, %q), want empty", data, rev)
	}

	rev1, err := store.Put(ctx, "first", "")
	if err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if rev1 == "" {
		t.Fatal("Put() returned empty revision")
	}

	if _, err := store.Put(ctx, "racing", ""); !errors.Is(err, watch.ErrRevisionConflict) {
		t.Errorf("Put() with stale revision error = %v, want ErrRevisionConflict", err)
	}

	rev2, err := store.Put(ctx, "second", rev1)
	if err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if rev2 == rev1 {
		t.Errorf("revision did not advance: %q", rev2)
	}

	data, rev, err = store.Get(ctx)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if data != "second" || rev != rev2 {
		t.Errorf("Get() = (%q, %q), want (second, %q)", data, rev, rev2)
	}
}

func TestMemoryStore_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	store := NewMemoryStore()
	if _, _, err := store.Get(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Get() error = %v, want context.Canceled", err)
	}
	if _, err := store.Put(ctx, "x", ""); !errors.Is(err, context.Canceled) {
		t.Errorf("Put() error = %v, want context.Canceled", err)
	}
}
