package drive

import (
	"context"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path"
	"path/filepath"

	"folderwatch/internal/watch"
)

// FileSystemDrive exposes a local directory tree as a Drive, for running
// against a synced copy of the remote store or a test fixture.
// Item IDs are slash-separated paths relative to the root; the root itself
// is addressed by watch.RootFolderID.
type FileSystemDrive struct {
	root string
}

// NewFileSystemDrive creates a drive rooted at the given directory.
func NewFileSystemDrive(root string) (*FileSystemDrive, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving drive root: %w", err)
	}

	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, fmt.Errorf("drive root not accessible: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("drive root is not a directory: %s", absRoot)
	}

	return &FileSystemDrive{root: absRoot}, nil
}

// ListChildren returns regular files and directories directly inside folderID.
// Symlinks, devices, pipes and sockets are skipped.
func (d *FileSystemDrive) ListChildren(ctx context.Context, folderID string) ([]*watch.DriveItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dir, err := d.localPath(folderID)
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading directory: %w", err)
	}

	parentPath := "/" + folderID
	var items []*watch.DriveItem
	for _, entry := range entries {
		if !entry.IsDir() && !entry.Type().IsRegular() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", entry.Name(), err)
		}
		items = append(items, d.newItem(folderID, parentPath, info))
	}
	return items, nil
}

// FindChildren returns the entries of folderID whose name equals name.
func (d *FileSystemDrive) FindChildren(ctx context.Context, folderID, name string) ([]*watch.DriveItem, error) {
	items, err := d.ListChildren(ctx, folderID)
	if err != nil {
		return nil, err
	}

	var matches []*watch.DriveItem
	for _, item := range items {
		if item.Name == name {
			matches = append(matches, item)
		}
	}
	return matches, nil
}

func (d *FileSystemDrive) newItem(folderID, parentPath string, info fs.FileInfo) *watch.DriveItem {
	id := path.Join(folderID, info.Name())
	modified := info.ModTime()
	link := (&url.URL{Scheme: "file", Path: filepath.ToSlash(filepath.Join(d.root, filepath.FromSlash(id)))}).String()

	return &watch.DriveItem{
		ID:         id,
		Name:       info.Name(),
		IsFolder:   info.IsDir(),
		ModifiedAt: &modified,
		WebURL:     &link,
		ParentPath: &parentPath,
	}
}

// localPath maps a folder ID to a directory under the root, rejecting IDs
// that would escape it.
func (d *FileSystemDrive) localPath(folderID string) (string, error) {
	if folderID == watch.RootFolderID {
		return d.root, nil
	}
	if !fs.ValidPath(folderID) {
		return "", fmt.Errorf("invalid folder id: %q", folderID)
	}
	return filepath.Join(d.root, filepath.FromSlash(folderID)), nil
}

// Compile-time check that FileSystemDrive implements watch.Drive interface
var _ watch.Drive = (*FileSystemDrive)(nil)
