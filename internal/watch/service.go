package watch

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency bounds how many entity folders are scanned at once.
const DefaultConcurrency = 4

// Options configures a Service.
type Options struct {
	Resolver    ResolverOptions
	Exclude     []string // defaults to DefaultExcludePatterns when nil
	Concurrency int      // defaults to DefaultConcurrency when <= 0
}

// Service runs the scan → dedup → notify pipeline. It holds no state between
// runs; each Run receives the previous snapshot and returns the next one.
type Service struct {
	notifier    Notifier
	logger      Logger
	clock       Clock
	idgen       IDGenerator
	resolver    *FolderResolver
	extractor   *Extractor
	concurrency int
}

// NewService creates a Service with the provided dependencies.
func NewService(drive Drive, notifier Notifier, logger Logger, clock Clock, idgen IDGenerator, opts Options) *Service {
	exclude := opts.Exclude
	if exclude == nil {
		exclude = DefaultExcludePatterns
	}
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	return &Service{
		notifier:    notifier,
		logger:      logger,
		clock:       clock,
		idgen:       idgen,
		resolver:    NewFolderResolver(drive, opts.Resolver, logger),
		extractor:   NewExtractor(drive, NewExcludeMatcher(exclude), logger),
		concurrency: concurrency,
	}
}

// Run performs one complete check. serializedState is the snapshot exported by
// the previous run ("" on the first run). On success the returned result
// carries the new snapshot in State.
//
// Root resolution failures and dispatch failures are returned as errors after
// a best-effort error notification; in both cases no state is returned and
// the caller should keep its previous snapshot.
func (s *Service) Run(ctx context.Context, serializedState string) (*RunResult, error) {
	return s.RunAs(ctx, s.idgen.New(), serializedState)
}

// RunAs is Run with a caller-chosen run id, used when the caller has already
// recorded the run elsewhere.
func (s *Service) RunAs(ctx context.Context, runID, serializedState string) (*RunResult, error) {
	result := &RunResult{
		RunID:     runID,
		StartedAt: s.clock.Now(),
	}

	state := NewStateEngine(s.clock, s.logger)
	state.Load(serializedState)

	s.logger.Info("starting folder check", "run", result.RunID)

	scan, err := s.Scan(ctx)
	if err != nil {
		s.ReportError(ctx, err)
		return nil, err
	}
	candidates := scan.Files
	result.FilesChecked = len(candidates)
	result.ExcludedFolders = scan.ExcludedFolders
	result.OtherFolders = scan.OtherFolders
	s.logger.Info("scan complete", "files", len(candidates), "excluded_folders", scan.ExcludedFolders, "other_folders", scan.OtherFolders)

	newFiles := state.FilterNew(candidates)
	s.logger.Info("classified files", "new", len(newFiles))

	if len(newFiles) > 0 {
		if err := s.notifier.NotifyBatch(ctx, newFiles); err != nil {
			derr := &DispatchError{Count: len(newFiles), Err: err}
			s.ReportError(ctx, derr)
			return nil, derr
		}
		s.logger.Info("sent notification", "files", len(newFiles))
	}

	state.Commit(newFiles)
	result.Evicted = state.EvictExpired(s.clock.Now())

	exported, err := state.Export()
	if err != nil {
		return nil, err
	}

	result.NewFiles = newFiles
	result.State = exported
	result.Message = summary(len(newFiles))
	return result, nil
}

func summary(n int) string {
	if n == 0 {
		return "No new files found"
	}
	return fmt.Sprintf("Notified about %d new file(s)", n)
}

// Scan resolves every entity's target folder and returns all candidates in
// entity order, with skipped subfolders counted. Entity folders are scanned concurrently; a failing entity
// contributes no candidates and does not stop the others. A failure to list
// the entity folders themselves yields no candidates; only root resolution
// fails the scan.
func (s *Service) Scan(ctx context.Context) (*Extraction, error) {
	rootID, err := s.resolver.FindRootFolder(ctx)
	if err != nil {
		return nil, err
	}

	entities, err := s.resolver.ListEntityFolders(ctx, rootID)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("scan interrupted: %w", ctxErr)
		}
		s.logger.Warn("entity folder listing failed", "error", err)
		return &Extraction{}, nil
	}
	s.logger.Debug("entity folders found", "count", len(entities))

	slots := make([]*Extraction, len(entities))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, entity := range entities {
		g.Go(func() error {
			slots[i] = s.scanEntity(gctx, entity)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("scan interrupted: %w", err)
	}

	all := &Extraction{}
	for _, slot := range slots {
		if slot == nil {
			continue
		}
		all.Files = append(all.Files, slot.Files...)
		all.ExcludedFolders += slot.ExcludedFolders
		all.OtherFolders += slot.OtherFolders
	}
	return all, nil
}

// scanEntity returns the extraction of one entity, or nil on any failure.
func (s *Service) scanEntity(ctx context.Context, entity EntityFolder) *Extraction {
	targetID, found, err := s.resolver.ResolveTargetFolder(ctx, entity.ID, entity.Name)
	if err != nil {
		s.logger.Warn("entity scan failed", "entity", entity.Name, "error", err)
		return nil
	}
	if !found {
		s.logger.Debug("entity has no target folder", "entity", entity.Name, "folder", s.resolver.TargetFolderName(entity.Name))
		return nil
	}

	extraction, err := s.extractor.Extract(ctx, targetID, entity.Name)
	if err != nil {
		s.logger.Warn("entity scan failed", "entity", entity.Name, "error", err)
		return nil
	}
	return extraction
}

// ReportError sends a best-effort error notification. Delivery failures are
// logged and never replace the original error.
func (s *Service) ReportError(ctx context.Context, cause error) {
	s.logger.Error("folder check failed", "error", cause)
	if err := s.notifier.NotifyError(ctx, cause.Error()); err != nil {
		s.logger.Error("failed to send error notification", "error", err)
	}
}

// TestNotification sends the notifier's test message.
func (s *Service) TestNotification(ctx context.Context) error {
	if err := s.notifier.SendTest(ctx); err != nil {
		return fmt.Errorf("sending test notification: %w", err)
	}
	return nil
}
