package internal

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the deployment configuration: where to listen and which
// store backend to read transcripts from. The merger itself never sees
// any of this; it only gets the opened ObjectStore and the key prefix.
type Config struct {
	Listen string      `yaml:"listen"`
	Store  StoreConfig `yaml:"store"`
	Log    LogConfig   `yaml:"log"`
}

// StoreConfig selects and parameterizes the object store backend.
type StoreConfig struct {
	// Backend is "dir" (directory-rooted bucket) or "sqlite" (objects
	// table in a SQLite database).
	Backend string `yaml:"backend"`
	// Root is the bucket root directory for the dir backend.
	Root string `yaml:"root"`
	// Database is the database file path for the sqlite backend.
	Database string `yaml:"database"`
	// Prefix is the key prefix transcripts live under.
	Prefix string `yaml:"prefix"`
}

// LogConfig controls the optional rotating log file.
type LogConfig struct {
	File string `yaml:"file"`
}

// DefaultConfig returns the configuration used when no config file
// exists.
func DefaultConfig() *Config {
	return &Config{
		Listen: "127.0.0.1:8450",
		Store: StoreConfig{
			Backend: "dir",
			Root:    "data",
			Prefix:  DefaultPrefix,
		},
	}
}

// DefaultConfigPath returns ~/.transcriptd/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.yaml"
	}
	return filepath.Join(home, ".transcriptd", "config.yaml")
}

// LoadConfig reads a YAML config file, filling unset fields with
// defaults. A missing file is not an error when path is the default
// location; an explicitly named file must exist.
func LoadConfig(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultConfigPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if cfg.Store.Prefix == "" {
		cfg.Store.Prefix = DefaultPrefix
	}
	return cfg, cfg.validate()
}

func (c *Config) validate() error {
	switch c.Store.Backend {
	case "dir":
		if c.Store.Root == "" {
			return fmt.Errorf("store.root is required for the dir backend")
		}
	case "sqlite":
		if c.Store.Database == "" {
			return fmt.Errorf("store.database is required for the sqlite backend")
		}
	default:
		return fmt.Errorf("unknown store backend %q (want dir or sqlite)", c.Store.Backend)
	}
	return nil
}

// OpenStore opens the configured object store backend.
func (c *Config) OpenStore() (ObjectStore, error) {
	switch c.Store.Backend {
	case "dir":
		return NewDirStore(c.Store.Root)
	case "sqlite":
		return OpenSQLiteStore(c.Store.Database)
	default:
		return nil, fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}
}
