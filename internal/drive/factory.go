package drive

import (
	"context"
	"fmt"
	"os"

	"folderwatch/internal/config"
	"folderwatch/internal/watch"
)

// NewDriveFromConfig creates a Drive implementation based on the drive config type.
func NewDriveFromConfig(ctx context.Context, cfg config.DriveConfig) (watch.Drive, error) {
	switch cfg.Type {
	case "graph", "":
		auth := GraphAuth{
			TenantID:     firstNonEmpty(cfg.GraphTenantID, os.Getenv("AZURE_TENANT_ID")),
			ClientID:     firstNonEmpty(cfg.GraphClientID, os.Getenv("AZURE_CLIENT_ID")),
			ClientSecret: config.Env(cfg.GraphClientSecretEnv, "AZURE_CLIENT_SECRET"),
		}
		if cfg.GraphAccessTokenEnv != "" {
			auth.AccessToken = os.Getenv(cfg.GraphAccessTokenEnv)
		}
		ts, err := NewTokenSource(ctx, auth)
		if err != nil {
			return nil, fmt.Errorf("creating graph token source: %w", err)
		}
		return NewGraphDrive(NewGraphHTTPClient(ctx, ts), cfg.GraphBaseURL, cfg.GraphDrivePath), nil
	case "filesystem":
		if cfg.FSRoot == "" {
			return nil, fmt.Errorf("filesystem drive requires fs_root to be set")
		}
		return NewFileSystemDrive(cfg.FSRoot)
	default:
		return nil, fmt.Errorf("unknown drive type: %s", cfg.Type)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
