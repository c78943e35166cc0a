package config

import (
	"github.com/slipsense/slipsense/internal/geometry"
	"github.com/slipsense/slipsense/internal/parser"
	"github.com/slipsense/slipsense/internal/spatial"
)

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/slipsense/data/patterns.db"
	}
	if cfg.Extraction.RowTolerance == 0 {
		cfg.Extraction.RowTolerance = geometry.DefaultRowTolerance
	}
	if cfg.Extraction.ColumnTolerance == 0 {
		cfg.Extraction.ColumnTolerance = geometry.DefaultColumnTolerance
	}
	if cfg.Extraction.MergeMaxGap == 0 {
		cfg.Extraction.MergeMaxGap = spatial.DefaultMergeMaxGap
	}
	if cfg.Extraction.MergeMinOverlap == 0 {
		cfg.Extraction.MergeMinOverlap = spatial.DefaultMergeMinOverlap
	}
	if cfg.Validation.MinYear == 0 {
		cfg.Validation.MinYear = parser.DefaultMinYear
	}
	if cfg.Validation.MaxYear == 0 {
		cfg.Validation.MaxYear = parser.DefaultMaxYear
	}
	if cfg.Watch.Extensions == nil {
		cfg.Watch.Extensions = []string{".json"}
	}
	if cfg.Export.WorkbookPath == "" {
		cfg.Export.WorkbookPath = "/usr/local/var/slipsense/data/transfers.xlsx"
	}
}
