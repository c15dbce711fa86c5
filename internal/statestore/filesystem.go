package statestore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"folderwatch/internal/watch"
)

// FileSystemStore keeps the snapshot in a local file:
//
//	<path>        snapshot data
//	<path>.rev    revision counter
//	<path>.lock   present while a Put is in progress; holds "<pid> <RFC3339 time>"
//
// A lock older than StaleLockAge is left over from a crashed writer and is
// taken over.
// Writes go through a temp file and rename, so readers never see a partial snapshot.
type FileSystemStore struct {
	path string
}

// StaleLockAge is how long a lock file may exist before it is considered abandoned.
const StaleLockAge = 5 * time.Minute

// NewFileSystemStore creates a store writing to path, creating its directory.
func NewFileSystemStore(path string) (*FileSystemStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}
	return &FileSystemStore{path: path}, nil
}

// Get returns the stored snapshot and its revision, both empty if none exists.
func (s *FileSystemStore) Get(ctx context.Context) (string, string, error) {
	if err := ctx.Err(); err != nil {
		return "", "", err
	}

	rev, err := s.readRevision()
	if err != nil {
		return "", "", err
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", formatRevision(rev), nil
		}
		return "", "", fmt.Errorf("reading state file: %w", err)
	}
	return string(data), formatRevision(rev), nil
}

// Put writes data if the revision on disk still equals expectRevision.
// A lock file serializes concurrent writers on the same host.
func (s *FileSystemStore) Put(ctx context.Context, data string, expectRevision string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	lockPath := s.path + ".lock"
	if err := acquireLock(lockPath); err != nil {
		return "", err
	}
	defer os.Remove(lockPath)

	current, err := s.readRevision()
	if err != nil {
		return "", err
	}
	if formatRevision(current) != expectRevision {
		return "", watch.ErrRevisionConflict
	}

	if err := writeFileAtomic(s.path, []byte(data)); err != nil {
		return "", err
	}
	next := current + 1
	if err := writeFileAtomic(s.path+".rev", []byte(strconv.FormatInt(next, 10))); err != nil {
		return "", err
	}
	return formatRevision(next), nil
}

// ValidateSetup verifies that the state directory exists and is writable.
func (s *FileSystemStore) ValidateSetup(context.Context) error {
	dir := filepath.Dir(s.path)
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("state directory not accessible: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("state path parent is not a directory: %s", dir)
	}

	check, err := os.CreateTemp(dir, ".check-*")
	if err != nil {
		return fmt.Errorf("state directory not writable: %w", err)
	}
	check.Close()
	return os.Remove(check.Name())
}

// acquireLock creates lockPath exclusively. An existing lock older than
// StaleLockAge is removed and the create retried once.
func acquireLock(lockPath string) error {
	for attempt := 0; ; attempt++ {
		lock, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0600)
		if err == nil {
			fmt.Fprintf(lock, "%d %s\n", os.Getpid(), time.Now().UTC().Format(time.RFC3339))
			return lock.Close()
		}
		if !errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("acquiring state lock: %w", err)
		}

		info, statErr := os.Stat(lockPath)
		if statErr != nil {
			if errors.Is(statErr, fs.ErrNotExist) && attempt == 0 {
				continue
			}
			return fmt.Errorf("checking state lock: %w", statErr)
		}
		if attempt > 0 || time.Since(info.ModTime()) < StaleLockAge {
			return fmt.Errorf("%w: state file is locked by another run (%s)", watch.ErrRevisionConflict, lockPath)
		}
		if err := os.Remove(lockPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("removing stale state lock: %w", err)
		}
	}
}

// readRevision returns 0 if no revision file exists.
func (s *FileSystemStore) readRevision() (int64, error) {
	data, err := os.ReadFile(s.path + ".rev")
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("reading revision file: %w", err)
	}

	rev, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing revision: %w", err)
	}
	return rev, nil
}

// writeFileAtomic writes data to destPath using a temp file + rename.
func writeFileAtomic(destPath string, data []byte) error {
	tmpFile, err := os.CreateTemp(filepath.Dir(destPath), ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to write data: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	success = true
	return nil
}

// Compile-time check that FileSystemStore implements watch.StateStore interface
var _ watch.StateStore = (*FileSystemStore)(nil)
