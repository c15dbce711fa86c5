package statestore

import (
	"context"
	"fmt"

	"folderwatch/internal/config"
	"folderwatch/internal/database"
	"folderwatch/internal/watch"
)

// DefaultSnapshotName is the row used by the database store when none is configured.
const DefaultSnapshotName = "default"

// NewStateStoreFromConfig creates a StateStore based on the state config type.
// db is only used for type "database" and may be nil otherwise.
func NewStateStoreFromConfig(ctx context.Context, cfg config.StateConfig, db *database.SQLiteDatabase) (watch.StateStore, error) {
	switch cfg.Type {
	case "memory":
		return NewMemoryStore(), nil
	case "filesystem":
		if cfg.FSPath == "" {
			return nil, fmt.Errorf("fs_path required for filesystem state store")
		}
		return NewFileSystemStore(cfg.FSPath)
	case "s3":
		return NewS3Store(ctx, S3Options{
			Bucket:         cfg.S3Bucket,
			Key:            cfg.S3Key,
			Region:         cfg.S3Region,
			Endpoint:       cfg.S3Endpoint,
			AccessKey:      config.Env(cfg.S3AccessKeyEnv, ""),
			SecretKey:      config.Env(cfg.S3SecretKeyEnv, ""),
			ForcePathStyle: cfg.S3ForcePathStyle,
		})
	case "database":
		if db == nil {
			return nil, fmt.Errorf("database state store requires a database")
		}
		name := cfg.SnapshotName
		if name == "" {
			name = DefaultSnapshotName
		}
		return db.SnapshotStore(name), nil
	default:
		return nil, fmt.Errorf("unknown state store type: %s", cfg.Type)
	}
}
