// Package config provides configuration loading and structs for the slipsense server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/slipsense/slipsense/internal/parser"
)

// Config holds all configuration for the application.
type Config struct {
	Debug      bool                    `yaml:"debug"`
	Server     ServerConfig            `yaml:"server"`
	Storage    StorageConfig           `yaml:"storage"`
	Extraction ExtractionConfig        `yaml:"extraction"`
	Validation parser.ValidationConfig `yaml:"validation"`
	Watch      WatchConfig             `yaml:"watch"`
	Export     ExportConfig            `yaml:"export"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// StorageConfig holds the pattern-library database location.
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// ExtractionConfig holds geometric tolerances for matching and the
// glyph-cluster merge pass.
type ExtractionConfig struct {
	RowTolerance    float64 `yaml:"row_tolerance"`
	ColumnTolerance float64 `yaml:"column_tolerance"`
	MergeMaxGap     float64 `yaml:"merge_max_gap"`
	MergeMinOverlap float64 `yaml:"merge_min_overlap"`
}

// WatchConfig holds OCR inbox watch settings. Response files dropped into
// the inbox are extracted automatically, routed to the configured document
// type and format.
type WatchConfig struct {
	Inbox        string   `yaml:"inbox"`
	Extensions   []string `yaml:"extensions"`
	DocumentType string   `yaml:"document_type"`
	FormatName   string   `yaml:"format_name"`
}

// ExportConfig holds the result workbook location.
type ExportConfig struct {
	WorkbookPath string `yaml:"workbook_path"`
}

// Load reads and parses the config file at path, expands paths, and applies defaults.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	cfg.Export.WorkbookPath = expandPath(cfg.Export.WorkbookPath, configDir)
	if cfg.Watch.Inbox != "" {
		cfg.Watch.Inbox = expandPath(cfg.Watch.Inbox, configDir)
	}

	return &cfg, nil
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
