package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config represents the main configuration for folderwatch.
// Secrets are never stored here; the *_env fields name environment
// variables that hold them.
type Config struct {
	BaseDir    string           `toml:"base_dir"`
	LogDir     string           `toml:"log_dir"`
	Drive      DriveConfig      `toml:"drive"`
	Notifier   NotifierConfig   `toml:"notifier"`
	State      StateConfig      `toml:"state"`
	Database   DatabaseConfig   `toml:"database"`
	Encryption EncryptionConfig `toml:"encryption"`
	Server     ServerConfig     `toml:"server"`
}

// DriveConfig describes the remote store and the folder layout to scan.
// Files are never read from subfolders of a target folder. Exclude lists the
// expected ones (archive, samples; "{entity}" is the entity name); any other
// subfolder is logged at info level so misplaced files are noticed.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type DriveConfig struct {
	Type         string   `toml:"type"` // "graph" or "filesystem"
	RootName     string   `toml:"root_name"`
	TargetSuffix string   `toml:"target_suffix"`
	Exclude      []string `toml:"exclude"`
	StrictRoot   bool     `toml:"strict_root"`
	Concurrency  int      `toml:"concurrency"`

	// Graph-specific fields (only used when Type == "graph")
	GraphBaseURL         string `toml:"graph_base_url,omitempty"`  // defaults to https://graph.microsoft.com/v1.0
	GraphDrivePath       string `toml:"graph_drive_path,omitempty"` // e.g. "/me/drive", "/users/<upn>/drive", "/drives/<id>"
	GraphTenantID        string `toml:"graph_tenant_id,omitempty"`
	GraphClientID        string `toml:"graph_client_id,omitempty"`
	GraphClientSecretEnv string `toml:"graph_client_secret_env,omitempty"` // defaults to AZURE_CLIENT_SECRET
	GraphAccessTokenEnv  string `toml:"graph_access_token_env,omitempty"`  // static bearer token, skips client credentials

	// Filesystem-specific fields (only used when Type == "filesystem")
	FSRoot string `toml:"fs_root,omitempty"`
}

// NotifierConfig describes where notifications go.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type NotifierConfig struct {
	Type          string `toml:"type"`                      // "slack" or "log"
	WebhookURLEnv string `toml:"webhook_url_env,omitempty"` // defaults to SLACK_WEBHOOK_URL
}

// StateConfig describes where the serialized snapshot is persisted.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type StateConfig struct {
	Type string `toml:"type"` // "memory", "filesystem", "s3" or "database"

	// Filesystem-specific fields (only used when Type == "filesystem")
	FSPath string `toml:"fs_path,omitempty"`

	// S3-specific fields (only used when Type == "s3")
	S3Bucket         string `toml:"s3_bucket,omitempty"`
	S3Key            string `toml:"s3_key,omitempty"`
	S3Region         string `toml:"s3_region,omitempty"`
	S3Endpoint       string `toml:"s3_endpoint,omitempty"` // for MinIO and other S3-compatible stores
	S3AccessKeyEnv   string `toml:"s3_access_key_env,omitempty"`
	S3SecretKeyEnv   string `toml:"s3_secret_key_env,omitempty"`
	S3ForcePathStyle bool   `toml:"s3_force_path_style,omitempty"`

	// Database-specific fields (only used when Type == "database")
	SnapshotName string `toml:"snapshot_name,omitempty"` // defaults to "default"
}

// DatabaseConfig represents configuration for the run history database.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type DatabaseConfig struct {
	Type    string `toml:"type"`               // "sqlite" or "memory"
	DataDir string `toml:"data_dir,omitempty"` // only used for type=sqlite
}

// EncryptionConfig controls encryption of the persisted snapshot.
type EncryptionConfig struct {
	Type           string `toml:"type"` // "none" (default), "age" or "test"
	PublicKeyPath  string `toml:"public_key_path"`
	PrivateKeyPath string `toml:"private_key_path"`
	PassphraseEnv  string `toml:"passphrase_env,omitempty"` // defaults to FOLDERWATCH_PASSPHRASE
}

// ServerConfig configures `folderwatch serve`.
type ServerConfig struct {
	ListenAddr    string `toml:"listen_addr"`
	CronSecretEnv string `toml:"cron_secret_env,omitempty"` // defaults to CRON_SECRET
	Interval      string `toml:"interval,omitempty"`        // in-process polling interval, e.g. "15m"; empty disables
}

// NewConfig creates a new Config with the provided base directory and defaults
// for the "Client Folders/<client>/<client> Wage Statements" layout.
func NewConfig(baseDir string) *Config {
	return &Config{
		BaseDir: baseDir,
		LogDir:  filepath.Join(baseDir, "log"),
		Drive: DriveConfig{
			Type:           "graph",
			RootName:       "Client Folders",
			TargetSuffix:   "Wage Statements",
			Exclude:        []string{"Processed Wage Statements", "{entity} Wage Statements Samples"},
			Concurrency:    4,
			GraphDrivePath: "/me/drive",
		},
		Notifier: NotifierConfig{Type: "slack"},
		State: StateConfig{
			Type:   "filesystem",
			FSPath: filepath.Join(baseDir, "state.json"),
		},
		Database: DatabaseConfig{Type: "sqlite", DataDir: filepath.Join(baseDir, "db")},
		Encryption: EncryptionConfig{
			Type:           "none",
			PublicKeyPath:  filepath.Join(baseDir, "keys", "folderwatch.pub"),
			PrivateKeyPath: filepath.Join(baseDir, "keys", "folderwatch.key"),
		},
		Server: ServerConfig{ListenAddr: "127.0.0.1:8080"},
	}
}

// Manager handles reading and writing configuration.
type Manager struct{}

// Read decodes a Config from the provided reader.
func (m *Manager) Read(r io.Reader) (*Config, error) {
	var cfg Config
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// Write encodes a Config to the provided writer.
func (m *Manager) Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// ReadFromFile reads a Config from the specified file path.
func ReadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	cfg, err := m.Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	return cfg, nil
}

func writeToFile(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	if err := m.Write(f, cfg); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Init writes cfg to a new config file at path. It refuses to overwrite.
func Init(path string, cfg *Config) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := writeToFile(path, cfg); err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}
	return nil
}

// Env returns the value of the environment variable named name, or of
// fallback when name is empty.
func Env(name, fallback string) string {
	if name == "" {
		name = fallback
	}
	return os.Getenv(name)
}
