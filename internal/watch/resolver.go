package watch

import (
	"context"
	"fmt"
)

// DefaultRootName and DefaultTargetSuffix describe the layout
// "<root>/<entity>/<entity> <suffix>/<files>".
const (
	DefaultRootName     = "Client Folders"
	DefaultTargetSuffix = "Wage Statements"
)

// ResolverOptions configures how FolderResolver finds folders.
type ResolverOptions struct {
	RootName     string
	TargetSuffix string
	// StrictRoot fails with ErrAmbiguousRoot instead of taking the first
	// match when several root folders share RootName.
	StrictRoot bool
}

// EntityFolder is an immediate folder child of the root folder.
type EntityFolder struct {
	ID   string
	Name string
}

// FolderResolver locates the root, entity and target folders.
type FolderResolver struct {
	drive  Drive
	opts   ResolverOptions
	logger Logger
}

// NewFolderResolver creates a resolver. Empty option fields take the defaults.
func NewFolderResolver(drive Drive, opts ResolverOptions, logger Logger) *FolderResolver {
	if opts.RootName == "" {
		opts.RootName = DefaultRootName
	}
	if opts.TargetSuffix == "" {
		opts.TargetSuffix = DefaultTargetSuffix
	}
	return &FolderResolver{drive: drive, opts: opts, logger: logger}
}

// TargetFolderName returns the name of the folder holding entityName's files.
func (r *FolderResolver) TargetFolderName(entityName string) string {
	return entityName + " " + r.opts.TargetSuffix
}

// FindRootFolder returns the ID of the folder directly under the drive root
// whose name equals the configured root name.
func (r *FolderResolver) FindRootFolder(ctx context.Context) (string, error) {
	items, err := r.drive.FindChildren(ctx, RootFolderID, r.opts.RootName)
	if err != nil {
		return "", fmt.Errorf("searching for root folder %q: %w", r.opts.RootName, err)
	}

	var matches []*DriveItem
	for _, item := range items {
		if item.IsFolder && item.Name == r.opts.RootName {
			matches = append(matches, item)
		}
	}

	switch {
	case len(matches) == 0:
		return "", fmt.Errorf("%w: %q", ErrRootNotFound, r.opts.RootName)
	case len(matches) > 1 && r.opts.StrictRoot:
		return "", fmt.Errorf("%w: %d folders named %q", ErrAmbiguousRoot, len(matches), r.opts.RootName)
	case len(matches) > 1:
		r.logger.Warn("several root folders found, using the first", "name", r.opts.RootName, "count", len(matches))
	}

	r.logger.Debug("root folder found", "name", r.opts.RootName, "id", matches[0].ID)
	return matches[0].ID, nil
}

// ListEntityFolders returns the folder children of the root in store order.
func (r *FolderResolver) ListEntityFolders(ctx context.Context, rootID string) ([]EntityFolder, error) {
	items, err := r.drive.ListChildren(ctx, rootID)
	if err != nil {
		return nil, fmt.Errorf("listing entity folders: %w", err)
	}

	var entities []EntityFolder
	for _, item := range items {
		if !item.IsFolder {
			continue
		}
		entities = append(entities, EntityFolder{ID: item.ID, Name: item.Name})
	}
	return entities, nil
}

// ResolveTargetFolder returns the ID of the "<entity> <suffix>" folder inside
// an entity folder. found is false when the entity has no such folder yet.
func (r *FolderResolver) ResolveTargetFolder(ctx context.Context, entityID, entityName string) (id string, found bool, err error) {
	items, err := r.drive.ListChildren(ctx, entityID)
	if err != nil {
		return "", false, fmt.Errorf("listing folder of %q: %w", entityName, err)
	}

	want := r.TargetFolderName(entityName)
	for _, item := range items {
		if item.IsFolder && item.Name == want {
			return item.ID, true, nil
		}
	}
	return "", false, nil
}
