package testutil

import (
	"fmt"
	"time"

	"folderwatch/internal/drive"
)

// TestDrive is a MemoryDrive pre-populated with the default root folder,
// with helpers for building the <root>/<entity>/<entity> Wage Statements layout.
type TestDrive struct {
	*drive.MemoryDrive
	RootID string
}

// NewTestDrive creates a drive containing an empty "Client Folders" root.
func NewTestDrive() *TestDrive {
	d := drive.NewMemoryDrive()
	d.AddFolder("", "root", "Client Folders")
	return &TestDrive{MemoryDrive: d, RootID: "root"}
}

// AddEntity adds an entity folder and its target folder and returns the
// target folder id ("<entity>-target").
func (d *TestDrive) AddEntity(name string) string {
	entityID := name + "-entity"
	targetID := name + "-target"
	d.AddFolder(d.RootID, entityID, name)
	d.AddFolder(entityID, targetID, name+" Wage Statements")
	return targetID
}

// AddEntityFile adds a file to a target folder created by AddEntity.
func (d *TestDrive) AddEntityFile(targetID, id, name string, modifiedAt time.Time) {
	link := fmt.Sprintf("https://drive.example.com/%s/%s", targetID, name)
	d.AddFile(targetID, id, name, modifiedAt, link)
}
