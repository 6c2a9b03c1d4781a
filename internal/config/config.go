// Package config decodes a YAML configuration file for a furrowdb database,
// mirroring the teacher's engine.Config/yaml.v2 pattern. The furrowdb CLI
// does not load it, and btree.Open and the pagers do not consult it.
package config

import (
	"os"

	"gopkg.in/yaml.v2"
)

// Config is the on-disk configuration for a furrowdb database file.
type Config struct {
	// DataFile is the path to the database file this configuration
	// governs.
	DataFile string `yaml:"data_file"`

	// PageSize is used only when DataFile does not yet exist.
	PageSize int `yaml:"page_size"`

	// LogLevel is a logrus level name: "debug", "info", "warn", "error".
	LogLevel string `yaml:"log_level"`

	// Mmap selects the mmap-backed pager instead of the default
	// buffered-file pager.
	Mmap bool `yaml:"mmap"`
}

// Default returns a Config with sensible defaults for a database file that
// does not exist yet.
func Default(dataFile string) *Config {
	return &Config{
		DataFile: dataFile,
		PageSize: 1024,
		LogLevel: "info",
	}
}

// Load reads and parses a YAML configuration file at path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	cfg := &Config{}
	if err := yaml.NewDecoder(f).Decode(cfg); err != nil {
		return nil, err
	}
	if cfg.PageSize == 0 {
		cfg.PageSize = 1024
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	return cfg, nil
}
