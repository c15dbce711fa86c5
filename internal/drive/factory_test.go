package drive

import (
	"context"
	"testing"

	"folderwatch/internal/config"
)

func TestNewDriveFromConfig(t *testing.T) {
	fsRoot := t.TempDir()
	t.Setenv("AZURE_TENANT_ID", "")
	t.Setenv("AZURE_CLIENT_ID", "")
	t.Setenv("AZURE_CLIENT_SECRET", "")
	t.Setenv("TEST_GRAPH_TOKEN", "token")

	tests := []struct {
		name     string
		cfg      config.DriveConfig
		wantErr  bool
		wantType string
	}{
		{name: "filesystem", cfg: config.DriveConfig{Type: "filesystem", FSRoot: fsRoot}, wantType: "*drive.FileSystemDrive"},
		{name: "filesystem without root", cfg: config.DriveConfig{Type: "filesystem"}, wantErr: true},
		{name: "graph with static token", cfg: config.DriveConfig{Type: "graph", GraphAccessTokenEnv: "TEST_GRAPH_TOKEN"}, wantType: "*drive.GraphDrive"},
		{name: "graph without credentials", cfg: config.DriveConfig{Type: "graph"}, wantErr: true},
		{
			name: "graph with client credentials",
			cfg: config.DriveConfig{
				Type:                 "graph",
				GraphTenantID:        "tenant",
				GraphClientID:        "client",
				GraphClientSecretEnv: "TEST_GRAPH_TOKEN",
			},
			wantType: "*drive.GraphDrive",
		},
		{name: "unknown", cfg: config.DriveConfig{Type: "dropbox"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := NewDriveFromConfig(context.Background(), tt.cfg)
			if tt.wantErr {
				if err == nil {
					t.Error("NewDriveFromConfig() error = nil, want error")
				}
				return
			}
			if err != nil {
				t.Fatalf("NewDriveFromConfig() error = %v", err)
			}
			switch d.(type) {
			case *FileSystemDrive:
				if tt.wantType != "*drive.FileSystemDrive" {
					t.Errorf("got FileSystemDrive, want %s", tt.wantType)
				}
			case *GraphDrive:
				if tt.wantType != "*drive.GraphDrive" {
					t.Errorf("got GraphDrive, want %s", tt.wantType)
				}
			default:
				t.Errorf("unexpected drive type %T", d)
			}
		})
	}
}
