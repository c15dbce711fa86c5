package watch

import (
	"context"
	"time"
)

// RootFolderID addresses the top of the drive in Drive calls.
const RootFolderID = ""

// DriveItem is one entry of a remote folder listing. ID, Name and IsFolder
// are always present; the pointer fields are nil when the store omitted them.
type DriveItem struct {
	ID         string
	Name       string
	IsFolder   bool
	ModifiedAt *time.Time
	WebURL     *string
	ParentPath *string
}

// Drive is a read-only view of a hierarchical file store.
// Authentication is handled by the implementation's constructor.
type Drive interface {
	// ListChildren returns the immediate children of a folder in store order.
	ListChildren(ctx context.Context, folderID string) ([]*DriveItem, error)

	// FindChildren returns the immediate children of a folder whose name
	// equals name. Stores that match case-insensitively may return extra items.
	FindChildren(ctx context.Context, folderID, name string) ([]*DriveItem, error)
}
