// Package config loads and saves the docreflect configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// FileName is the configuration file looked up at a repository root.
const FileName = "docreflect.yaml"

// DirName holds the alternative configuration and the default cache.
const DirName = ".docreflect"

// Config holds all configuration for docreflect.
type Config struct {
	Scan    ScanConfig    `yaml:"scan"`
	Map     MapConfig     `yaml:"map"`
	Cache   CacheConfig   `yaml:"cache"`
	Logging LoggingConfig `yaml:"logging"`
}

// ScanConfig controls which files are parsed and how.
type ScanConfig struct {
	Includes    []string `yaml:"includes"`
	Excludes    []string `yaml:"excludes"`
	MaxFileSize int64    `yaml:"max_file_size" validate:"gte=0"`
	SkipTests   bool     `yaml:"skip_tests"`
	Workers     int      `yaml:"workers" validate:"gte=0,lte=256"` // 0 = GOMAXPROCS
}

// MapConfig controls the repository map output.
type MapConfig struct {
	MaxFiles int    `yaml:"max_files" validate:"gte=0"`
	Format   string `yaml:"format" validate:"oneof=toon json yaml"`
}

// CacheConfig controls the parsed-file cache.
type CacheConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path" validate:"required_if=Enabled true"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level" validate:"oneof=trace debug info warn error disabled"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Scan: ScanConfig{
			Includes:    []string{"**/*.php"},
			Excludes:    []string{"**/*.blade.php"},
			MaxFileSize: 1_000_000,
		},
		Map: MapConfig{
			Format: "toon",
		},
		Cache: CacheConfig{
			Path: filepath.Join(DirName, "cache.db"),
		},
		Logging: LoggingConfig{
			Level: "warn",
		},
	}
}

// Load loads configuration from a YAML file on top of the defaults.
// A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// LoadFromDir loads docreflect.yaml or .docreflect/config.yaml from dir,
// falling back to the defaults.
func LoadFromDir(dir string) (*Config, error) {
	for _, path := range []string{
		filepath.Join(dir, FileName),
		filepath.Join(dir, DirName, "config.yaml"),
	} {
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
	}
	return DefaultConfig(), nil
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	return validate.Struct(c)
}

// Save writes the configuration to path as YAML.
func (c *Config) Save(path string) error {
	if err := c.Validate(); err != nil {
		return err
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}

// CachePath resolves the cache path against the repository root.
func (c *Config) CachePath(root string) string {
	if filepath.IsAbs(c.Cache.Path) {
		return c.Cache.Path
	}
	return filepath.Join(root, c.Cache.Path)
}
