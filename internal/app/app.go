package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"folderwatch/internal/config"
	"folderwatch/internal/database"
	"folderwatch/internal/drive"
	"folderwatch/internal/encryption"
	"folderwatch/internal/notify"
	"folderwatch/internal/statestore"
	"folderwatch/internal/watch"
)

// Deps are the collaborators of an App. NewFromConfig builds them from
// config; tests pass in-memory versions directly to New.
type Deps struct {
	Drive    watch.Drive
	Notifier watch.Notifier
	Store    watch.StateStore
	History  watch.RunHistory
	Logger   watch.Logger
	Clock    watch.Clock
	IDGen    watch.IDGenerator
	Options  watch.Options
}

// App is the layer between the CLI/HTTP surface and watch.Service. It owns
// loading and saving the snapshot around each run and recording run history.
type App struct {
	service *watch.Service
	store   watch.StateStore
	history watch.RunHistory
	logger  watch.Logger
	clock   watch.Clock
	idgen   watch.IDGenerator
	closers []io.Closer

	// checks within one process are serialized; across processes the
	// store's revision check rejects the losing write.
	mu sync.Mutex
}

// New creates an App from explicit dependencies.
func New(d Deps) *App {
	return &App{
		service: watch.NewService(d.Drive, d.Notifier, d.Logger, d.Clock, d.IDGen, d.Options),
		store:   d.Store,
		history: d.History,
		logger:  d.Logger,
		clock:   d.Clock,
		idgen:   d.IDGen,
	}
}

// NewFromConfig creates a fully wired App. The caller must call Close when done.
func NewFromConfig(ctx context.Context, cfg *config.Config, level slog.Level) (*App, error) {
	opID := time.Now().UTC().Format("20060102T150405Z")
	sl, logFile, err := newLogger(cfg.LogDir, opID, level)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	logger := &slogAdapter{l: sl}

	closers := []io.Closer{logFile}
	fail := func(err error) (*App, error) {
		closeAll(closers)
		return nil, err
	}

	db, err := database.NewDatabaseFromConfig(cfg.Database)
	if err != nil {
		return fail(fmt.Errorf("creating database: %w", err))
	}
	closers = append([]io.Closer{db}, closers...)

	if err := db.CheckMigrations(); err != nil {
		return fail(fmt.Errorf("database schema out of date: %w", err))
	}

	d, err := drive.NewDriveFromConfig(ctx, cfg.Drive)
	if err != nil {
		return fail(fmt.Errorf("creating drive: %w", err))
	}

	n, err := notify.NewNotifierFromConfig(cfg.Notifier, cfg.Drive.TargetSuffix, logger)
	if err != nil {
		return fail(fmt.Errorf("creating notifier: %w", err))
	}

	store, err := statestore.NewStateStoreFromConfig(ctx, cfg.State, db)
	if err != nil {
		return fail(fmt.Errorf("creating state store: %w", err))
	}
	store, err = encryption.WrapStoreFromConfig(store, cfg.Encryption, logger)
	if err != nil {
		return fail(fmt.Errorf("creating encryptor: %w", err))
	}

	a := New(Deps{
		Drive:    d,
		Notifier: n,
		Store:    store,
		History:  db,
		Logger:   logger,
		Clock:    watch.RealClock{},
		IDGen:    watch.UUIDGenerator{},
		Options:  ServiceOptions(cfg.Drive),
	})
	a.closers = closers
	return a, nil
}

// ServiceOptions maps the drive config section onto watch.Options.
func ServiceOptions(cfg config.DriveConfig) watch.Options {
	return watch.Options{
		Resolver: watch.ResolverOptions{
			RootName:     cfg.RootName,
			TargetSuffix: cfg.TargetSuffix,
			StrictRoot:   cfg.StrictRoot,
		},
		Exclude:     cfg.Exclude,
		Concurrency: cfg.Concurrency,
	}
}

// Check runs one folder check: it loads the stored snapshot, runs the
// pipeline and saves the new snapshot. The snapshot is only written after a
// successful run. If another run saved state in the meantime the write is
// refused and an error wrapping watch.ErrRevisionConflict is returned along
// with the (already notified) result.
func (a *App) Check(ctx context.Context) (*watch.RunResult, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	op := NewOperation(OperationCheck, a.idgen.New())
	a.begin(op)

	result, err := a.check(ctx, op.RunID)
	op.Complete(result)
	switch {
	case errors.Is(err, watch.ErrRevisionConflict):
		op.Fail(StatusConflict, err)
	case err != nil:
		op.Fail(StatusError, err)
	}

	a.finish(op)
	return result, err
}

func (a *App) check(ctx context.Context, runID string) (*watch.RunResult, error) {
	data, revision, err := a.store.Get(ctx)
	if err != nil {
		err = fmt.Errorf("loading state: %w", err)
		a.service.ReportError(ctx, err)
		return nil, err
	}

	result, err := a.service.RunAs(ctx, runID, data)
	if err != nil {
		return nil, err
	}

	if _, err := a.store.Put(ctx, result.State, revision); err != nil {
		err = fmt.Errorf("saving state: %w", err)
		a.service.ReportError(ctx, err)
		return result, err
	}

	a.logger.Info("check complete", "run", runID, "checked", result.FilesChecked, "new", len(result.NewFiles), "evicted", result.Evicted)
	return result, nil
}

// TestNotification sends the notifier's test message.
func (a *App) TestNotification(ctx context.Context) error {
	op := NewOperation(OperationTestNotification, a.idgen.New())
	a.begin(op)

	err := a.service.TestNotification(ctx)
	if err != nil {
		op.Fail(StatusError, err)
	} else {
		op.Message = "Test notification sent"
	}

	a.finish(op)
	return err
}

// ShowState returns the stored snapshot and its revision without modifying it.
func (a *App) ShowState(ctx context.Context) (watch.Snapshot, string, error) {
	data, revision, err := a.store.Get(ctx)
	if err != nil {
		return watch.Snapshot{}, "", fmt.Errorf("loading state: %w", err)
	}

	engine := watch.NewStateEngine(a.clock, a.logger)
	engine.Load(data)
	return engine.Snapshot(), revision, nil
}

// ResetState replaces the stored snapshot with an empty one, so every file
// currently in the target folders is reported again on the next check.
func (a *App) ResetState(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	op := NewOperation(OperationResetState, a.idgen.New())
	a.begin(op)

	err := a.resetState(ctx)
	if err != nil {
		op.Fail(StatusError, err)
	} else {
		op.Message = "State reset"
	}

	a.finish(op)
	return err
}

func (a *App) resetState(ctx context.Context) error {
	_, revision, err := a.store.Get(ctx)
	if err != nil {
		return fmt.Errorf("loading state: %w", err)
	}

	empty, err := watch.NewStateEngine(a.clock, a.logger).Export()
	if err != nil {
		return err
	}
	if _, err := a.store.Put(ctx, empty, revision); err != nil {
		return fmt.Errorf("saving state: %w", err)
	}
	return nil
}

// History returns the most recent runs, newest first.
func (a *App) History(limit int) ([]*watch.RunRecord, error) {
	if a.history == nil {
		return nil, nil
	}
	return a.history.ListRuns(limit)
}

// Validate checks that the state store is reachable and writable.
func (a *App) Validate(ctx context.Context) error {
	return a.store.ValidateSetup(ctx)
}

// Close releases the database and log file.
func (a *App) Close() error {
	return closeAll(a.closers)
}

// begin persists op to the run history. History failures are logged and do
// not stop the operation.
func (a *App) begin(op *Operation) {
	if a.history == nil {
		return
	}
	rec, err := a.history.CreateRun(op.RunID, op.Name)
	if err != nil {
		a.logger.Warn("failed to record run", "run", op.RunID, "error", err)
		return
	}
	op.ID = rec.ID
}

func (a *App) finish(op *Operation) {
	if a.history == nil || !op.Persisted() {
		return
	}
	if err := a.history.FinishRun(op.ID, op.Status, op.FilesChecked, op.NewFiles, op.Message); err != nil {
		a.logger.Warn("failed to finish run record", "run", op.RunID, "error", err)
	}
}

func closeAll(closers []io.Closer) error {
	var firstErr error
	for _, c := range closers {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
