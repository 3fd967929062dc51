// Package config loads the mdpaste configuration file.
//
// The file is YAML, created with defaults on first run. Which storage
// backend a session uses is decided here, once: nothing downstream
// re-checks it per call.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Backend kinds selectable in the configuration.
const (
	BackendDir = "dir" // one file per image in a directory
	BackendDB  = "db"  // rows in a SQLite database
)

// Config stores all mdpaste settings.
type Config struct {
	// HTTPAddr is the address the local API listens on.
	HTTPAddr string `yaml:"http_addr"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`

	// Backend selects the storage medium: "dir" or "db".
	Backend string `yaml:"backend"`

	// DataDir holds the image directory ("dir" backend) or the database
	// file ("db" backend).
	DataDir string `yaml:"data_dir"`

	// MaxImageBytes caps saves on the "dir" backend. 0 disables the cap.
	// The "db" backend always enforces its own hard cap.
	MaxImageBytes int64 `yaml:"max_image_bytes"`

	// RatePerMin limits API requests per client per minute. 0 disables
	// rate limiting.
	RatePerMin int `yaml:"rate_per_min"`
}

// Default returns the configuration used when no file exists yet.
func Default() Config {
	return Config{
		HTTPAddr:   "localhost:8381",
		LogLevel:   "info",
		Backend:    BackendDir,
		DataDir:    "./data",
		RatePerMin: 600,
	}
}

// Validate checks the configuration for values that cannot work.
func (c *Config) Validate() error {
	if c.Backend != BackendDir && c.Backend != BackendDB {
		return fmt.Errorf("backend must be %q or %q, got %q", BackendDir, BackendDB, c.Backend)
	}
	if c.DataDir == "" {
		return errors.New("data_dir cannot be empty")
	}
	if c.MaxImageBytes < 0 {
		return errors.New("max_image_bytes must be non-negative")
	}
	if c.RatePerMin < 0 {
		return errors.New("rate_per_min must be non-negative")
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log_level %q", c.LogLevel)
	}
	return nil
}

// Load reads the configuration at path, creating it with defaults if it
// does not exist yet.
func Load(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		}
		c := Default()
		if err := save(path, &c); err != nil {
			return Config{}, err
		}
		return c, nil
	}
	c := Default()
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func save(path string, c *Config) error {
	raw, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}
