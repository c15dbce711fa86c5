package app

import (
	"fmt"
	"os"
	"path/filepath"
)

// GetDefaults returns application default paths, checking environment variables first.
// Environment variables:
//   - FOLDERWATCH_CONFIG_PATH: config file location (default: ~/.config/folderwatch.toml)
//   - FOLDERWATCH_HOME: base directory for folderwatch data (default: ~/.local/share/folderwatch)
func GetDefaults() (map[string]string, error) {
	configPath, err := envOrHome("FOLDERWATCH_CONFIG_PATH", ".config", "folderwatch.toml")
	if err != nil {
		return nil, err
	}

	baseDir, err := envOrHome("FOLDERWATCH_HOME", ".local", "share", "folderwatch")
	if err != nil {
		return nil, err
	}

	return map[string]string{
		"config_path": configPath,
		"base_dir":    baseDir,
		"log_dir":     filepath.Join(baseDir, "log"),
	}, nil
}

// envOrHome returns $name if set, else the path under the user's home directory.
func envOrHome(name string, elem ...string) (string, error) {
	if path := os.Getenv(name); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(append([]string{homeDir}, elem...)...), nil
}
