package drive

import (
	"context"
	"fmt"
	"sync"
	"time"

	"folderwatch/internal/watch"
)

type memoryNode struct {
	item     watch.DriveItem
	children []string // child IDs in insertion order
}

// MemoryDrive is an in-memory implementation of the Drive interface.
// Children are listed in insertion order. It is useful for testing and is
// safe for concurrent use.
type MemoryDrive struct {
	mu       sync.RWMutex
	nodes    map[string]*memoryNode // ID -> node; "" is the drive root
	failures map[string]error       // folder ID -> error returned when listing it
}

// NewMemoryDrive creates an empty in-memory drive.
func NewMemoryDrive() *MemoryDrive {
	return &MemoryDrive{
		nodes: map[string]*memoryNode{
			watch.RootFolderID: {item: watch.DriveItem{ID: watch.RootFolderID, IsFolder: true}},
		},
		failures: make(map[string]error),
	}
}

// AddFolder adds a folder under parentID.
func (m *MemoryDrive) AddFolder(parentID, id, name string) {
	m.add(parentID, watch.DriveItem{ID: id, Name: name, IsFolder: true})
}

// AddFile adds a file under parentID with a modification time and web link.
func (m *MemoryDrive) AddFile(parentID, id, name string, modifiedAt time.Time, webURL string) {
	m.add(parentID, watch.DriveItem{ID: id, Name: name, ModifiedAt: &modifiedAt, WebURL: &webURL})
}

// AddItem adds an arbitrary item under parentID, including items with
// missing optional fields.
func (m *MemoryDrive) AddItem(parentID string, item watch.DriveItem) {
	m.add(parentID, item)
}

func (m *MemoryDrive) add(parentID string, item watch.DriveItem) {
	m.mu.Lock()
	defer m.mu.Unlock()

	parent, ok := m.nodes[parentID]
	if !ok {
		panic(fmt.Sprintf("memory drive: parent %q does not exist", parentID))
	}
	m.nodes[item.ID] = &memoryNode{item: item}
	parent.children = append(parent.children, item.ID)
}

// Remove deletes an item from its parent listing.
func (m *MemoryDrive) Remove(parentID, id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	parent, ok := m.nodes[parentID]
	if !ok {
		return
	}
	for i, child := range parent.children {
		if child == id {
			parent.children = append(parent.children[:i], parent.children[i+1:]...)
			break
		}
	}
	delete(m.nodes, id)
}

// FailListing makes every listing of folderID return err. A nil err clears it.
func (m *MemoryDrive) FailListing(folderID string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err == nil {
		delete(m.failures, folderID)
		return
	}
	m.failures[folderID] = err
}

// ListChildren returns copies of the children of folderID.
func (m *MemoryDrive) ListChildren(ctx context.Context, folderID string) ([]*watch.DriveItem, error) {
	return m.list(ctx, folderID, func(*watch.DriveItem) bool { return true })
}

// FindChildren returns the children of folderID named name.
func (m *MemoryDrive) FindChildren(ctx context.Context, folderID, name string) ([]*watch.DriveItem, error) {
	return m.list(ctx, folderID, func(item *watch.DriveItem) bool { return item.Name == name })
}

func (m *MemoryDrive) list(ctx context.Context, folderID string, keep func(*watch.DriveItem) bool) ([]*watch.DriveItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if err := m.failures[folderID]; err != nil {
		return nil, err
	}
	node, ok := m.nodes[folderID]
	if !ok || !node.item.IsFolder {
		return nil, fmt.Errorf("folder not found: %s", folderID)
	}

	var items []*watch.DriveItem
	for _, id := range node.children {
		item := m.nodes[id].item
		if keep(&item) {
			items = append(items, &item)
		}
	}
	return items, nil
}

// Compile-time check that MemoryDrive implements watch.Drive interface
var _ watch.Drive = (*MemoryDrive)(nil)
