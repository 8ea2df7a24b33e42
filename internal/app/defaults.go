package app

import (
	"fmt"
	"os"
	"path/filepath"
)

// GetDefaults returns application default paths, checking environment variables first.
// Environment variables:
//   - PHOTOKEEP_CONFIG_PATH: config file location (default: ~/.config/photokeep.toml)
//   - PHOTOKEEP_HOME: base directory for photokeep data (default: ~/.local/share/photokeep)
func GetDefaults() (map[string]string, error) {
	configPath, err := getConfigPath()
	if err != nil {
		return nil, err
	}

	baseDir, err := getBaseDir()
	if err != nil {
		return nil, err
	}

	return map[string]string{
		"config_path": configPath,
		"base_dir":    baseDir,
		"log_dir":     filepath.Join(baseDir, "log"),
	}, nil
}

// getConfigPath returns the config file path, checking PHOTOKEEP_CONFIG_PATH
// env var first, then falling back to the default ~/.config/photokeep.toml.
func getConfigPath() (string, error) {
	if path := os.Getenv("PHOTOKEEP_CONFIG_PATH"); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "photokeep.toml"), nil
}

// getBaseDir returns the base directory for photokeep data, checking
// PHOTOKEEP_HOME env var first, then falling back to the XDG default
// ~/.local/share/photokeep.
func getBaseDir() (string, error) {
	if path := os.Getenv("PHOTOKEEP_HOME"); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".local", "share", "photokeep"), nil
}
