package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"folderwatch/internal/database/migrations"
	"folderwatch/internal/watch"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteDatabase stores the run history and, optionally, named snapshots.
type SQLiteDatabase struct {
	db   *sql.DB
	path string
}

// NewSQLiteDatabase opens the database at path (or ":memory:") and applies
// pending migrations.
func NewSQLiteDatabase(path string) (*SQLiteDatabase, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}

	if err := migrations.MigrateUp(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating database: %w", err)
	}

	return &SQLiteDatabase{db: db, path: path}, nil
}

// OpenConnection opens and configures a SQLite connection.
// A single connection is used so ":memory:" databases are shared by all
// callers and writers are serialized.
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	return db, nil
}

// Run history

func (s *SQLiteDatabase) CreateRun(runID, operation string) (*watch.RunRecord, error) {
	startedAt := time.Now().UTC()
	res, err := s.db.ExecContext(context.Background(),
		`INSERT INTO check_runs (run_id, operation, started_at) VALUES (?, ?, ?)`,
		runID, operation, startedAt)
	if err != nil {
		return nil, fmt.Errorf("inserting run: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("reading run id: %w", err)
	}

	return &watch.RunRecord{
		ID:        id,
		RunID:     runID,
		Operation: operation,
		StartedAt: startedAt,
		Status:    "running",
	}, nil
}

func (s *SQLiteDatabase) FinishRun(id int64, status string, filesChecked, newFiles int, message string) error {
	res, err := s.db.ExecContext(context.Background(),
		`UPDATE check_runs
		    SET finished_at = ?, status = ?, files_checked = ?, new_files = ?, message = ?
		  WHERE id = ?`,
		time.Now().UTC(), status, filesChecked, newFiles, message, id)
	if err != nil {
		return fmt.Errorf("finishing run: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("finishing run: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("run %d not found", id)
	}
	return nil
}

func (s *SQLiteDatabase) ListRuns(limit int) ([]*watch.RunRecord, error) {
	rows, err := s.db.QueryContext(context.Background(),
		`SELECT id, run_id, operation, started_at, finished_at, status, files_checked, new_files, message
		   FROM check_runs
		  ORDER BY id DESC
		  LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var runs []*watch.RunRecord
	for rows.Next() {
		var (
			r        watch.RunRecord
			finished sql.NullTime
		)
		if err := rows.Scan(&r.ID, &r.RunID, &r.Operation, &r.StartedAt, &finished, &r.Status, &r.FilesChecked, &r.NewFiles, &r.Message); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		if finished.Valid {
			t := finished.Time
			r.FinishedAt = &t
		}
		runs = append(runs, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	return runs, nil
}

// Snapshots

// GetSnapshot returns the named snapshot and its revision; revision 0 means none stored.
func (s *SQLiteDatabase) GetSnapshot(name string) (string, int64, error) {
	var (
		data     string
		revision int64
	)
	err := s.db.QueryRowContext(context.Background(),
		`SELECT data, revision FROM state_snapshots WHERE name = ?`, name).Scan(&data, &revision)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", 0, nil
		}
		return "", 0, fmt.Errorf("reading snapshot %q: %w", name, err)
	}
	return data, revision, nil
}

// PutSnapshot stores data under name if the current revision equals expect
// and returns the new revision. A mismatch returns watch.ErrRevisionConflict.
func (s *SQLiteDatabase) PutSnapshot(name, data string, expect int64) (int64, error) {
	ctx := context.Background()
	now := time.Now().UTC()

	var (
		res sql.Result
		err error
	)
	if expect == 0 {
		res, err = s.db.ExecContext(ctx,
			`INSERT INTO state_snapshots (name, data, revision, updated_at) VALUES (?, ?, 1, ?)
			 ON CONFLICT(name) DO NOTHING`,
			name, data, now)
	} else {
		res, err = s.db.ExecContext(ctx,
			`UPDATE state_snapshots SET data = ?, revision = revision + 1, updated_at = ?
			  WHERE name = ? AND revision = ?`,
			data, now, name, expect)
	}
	if err != nil {
		return 0, fmt.Errorf("writing snapshot %q: %w", name, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("writing snapshot %q: %w", name, err)
	}
	if n == 0 {
		return 0, watch.ErrRevisionConflict
	}
	return expect + 1, nil
}

// SnapshotStore returns a watch.StateStore backed by the named snapshot row.
func (s *SQLiteDatabase) SnapshotStore(name string) *SnapshotStore {
	return &SnapshotStore{db: s, name: name}
}

// Path returns the database file path.
func (s *SQLiteDatabase) Path() string {
	return s.path
}

// CheckMigrations verifies the schema is at the latest version.
func (s *SQLiteDatabase) CheckMigrations() error {
	return migrations.CheckDBMigrationStatus(s.db)
}

func (s *SQLiteDatabase) Close() error {
	return s.db.Close()
}

// SnapshotStore adapts a named snapshot row to the watch.StateStore interface.
type SnapshotStore struct {
	db   *SQLiteDatabase
	name string
}

func (st *SnapshotStore) Get(ctx context.Context) (string, string, error) {
	if err := ctx.Err(); err != nil {
		return "", "", err
	}
	data, rev, err := st.db.GetSnapshot(st.name)
	if err != nil {
		return "", "", err
	}
	if rev == 0 {
		return "", "", nil
	}
	return data, strconv.FormatInt(rev, 10), nil
}

func (st *SnapshotStore) Put(ctx context.Context, data string, expectRevision string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var expect int64
	if expectRevision != "" {
		var err error
		expect, err = strconv.ParseInt(expectRevision, 10, 64)
		if err != nil {
			return "", fmt.Errorf("invalid snapshot revision %q: %w", expectRevision, err)
		}
	}

	rev, err := st.db.PutSnapshot(st.name, data, expect)
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(rev, 10), nil
}

func (st *SnapshotStore) ValidateSetup(ctx context.Context) error {
	return st.db.db.PingContext(ctx)
}

var (
	_ watch.RunHistory = (*SQLiteDatabase)(nil)
	_ watch.StateStore = (*SnapshotStore)(nil)
)
