package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config represents the main configuration for photokeep.
type Config struct {
	DeviceID string        `toml:"device_id"`
	BaseDir  string        `toml:"base_dir"`
	LogDir   string        `toml:"log_dir"`
	MediaDir string        `toml:"media_dir"`
	Catalog  CatalogConfig `toml:"catalog"`
	Remote   RemoteConfig  `toml:"remote"`
	Sync     SyncConfig    `toml:"sync"`
}

// CatalogConfig represents configuration for the catalog database.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type CatalogConfig struct {
	Type    string `toml:"type"`               // "sqlite" or "memory"
	DataDir string `toml:"data_dir,omitempty"` // only used for type=sqlite
}

// RemoteConfig represents configuration for the remote object store backend.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type RemoteConfig struct {
	Type string `toml:"type"` // "memory", "s3", or "filesystem"
	Name string `toml:"name"`

	// S3-specific fields (only used when Type == "s3")
	S3Bucket          string `toml:"s3_bucket,omitempty"`
	S3Prefix          string `toml:"s3_prefix,omitempty"`
	S3Region          string `toml:"s3_region,omitempty"`
	S3AccessKeyID     string `toml:"s3_access_key_id,omitempty"`
	S3SecretAccessKey string `toml:"s3_secret_access_key,omitempty"`

	// FileSystem-specific fields (only used when Type == "filesystem")
	FSRemoteRoot string `toml:"fs_remote_root,omitempty"`
}

// SyncConfig tunes the sync coordinator and job.
type SyncConfig struct {
	DebounceSeconds      int `toml:"debounce_seconds"`       // min interval between accepted sync requests
	MaxConcurrentUploads int `toml:"max_concurrent_uploads"` // media upload concurrency cap
	BackoffSeconds       int `toml:"backoff_seconds"`        // initial retry backoff of the job runner
	MaxAttempts          int `toml:"max_attempts"`           // retry attempts before the runner gives up
}

// NewConfig creates a new Config with the provided values and default layout.
func NewConfig(deviceID, baseDir string) *Config {
	return &Config{
		DeviceID: deviceID,
		BaseDir:  baseDir,
		LogDir:   filepath.Join(baseDir, "log"),
		MediaDir: filepath.Join(baseDir, "media"),
		Catalog: CatalogConfig{
			Type:    "sqlite",
			DataDir: filepath.Join(baseDir, "db"),
		},
		Remote: RemoteConfig{
			Type:         "filesystem",
			Name:         "photokeep-remote",
			FSRemoteRoot: filepath.Join(baseDir, "remote"),
		},
		Sync: SyncConfig{
			DebounceSeconds:      2,
			MaxConcurrentUploads: 3,
			BackoffSeconds:       30,
			MaxAttempts:          5,
		},
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

// writeToFile writes a Config to the specified file path.
func writeToFile(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path)
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

// Init initializes a new config file at the specified path with the provided Config.
func Init(path string, cfg *Config) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := writeToFile(path, cfg); err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}
	return nil
}
