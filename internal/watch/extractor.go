package watch

import (
	"context"
	"fmt"
)

// Extractor turns the direct children of a target folder into candidates.
type Extractor struct {
	drive   Drive
	exclude *ExcludeMatcher
	logger  Logger
}

// NewExtractor creates an Extractor that skips folders matched by exclude.
func NewExtractor(drive Drive, exclude *ExcludeMatcher, logger Logger) *Extractor {
	return &Extractor{drive: drive, exclude: exclude, logger: logger}
}

// Extraction is the outcome of listing one or more target folders.
// ExcludedFolders counts subfolders matching an exclusion pattern (archive,
// samples); OtherFolders counts the remaining subfolders.
type Extraction struct {
	Files           []CandidateFile
	ExcludedFolders int
	OtherFolders    int
}

// Extract lists the target folder and returns one candidate per file.
// Folders never become candidates; there is no recursion. Subfolders that
// match no exclusion pattern are logged at info level, since they hide files
// nobody is notified about.
func (e *Extractor) Extract(ctx context.Context, targetID, entityName string) (*Extraction, error) {
	items, err := e.drive.ListChildren(ctx, targetID)
	if err != nil {
		return nil, fmt.Errorf("listing target folder of %q: %w", entityName, err)
	}

	out := &Extraction{}
	for _, item := range items {
		if !item.IsFolder {
			out.Files = append(out.Files, NewCandidate(item, entityName))
			continue
		}
		if e.exclude.Match(item.Name, entityName) {
			out.ExcludedFolders++
			e.logger.Debug("skipping excluded folder", "entity", entityName, "folder", item.Name)
			continue
		}
		out.OtherFolders++
		e.logger.Info("skipping unexpected subfolder", "entity", entityName, "folder", item.Name)
	}
	return out, nil
}

// NewCandidate projects a listing item into a CandidateFile. Missing optional
// fields become zero values; the item is kept.
func NewCandidate(item *DriveItem, ownerName string) CandidateFile {
	c := CandidateFile{
		ID:        item.ID,
		Name:      item.Name,
		OwnerName: ownerName,
	}
	if item.ModifiedAt != nil {
		c.ModifiedAt = item.ModifiedAt.UTC()
	}
	if item.WebURL != nil {
		c.Link = *item.WebURL
	}
	if item.ParentPath != nil {
		c.Path = *item.ParentPath
	}
	return c
}
