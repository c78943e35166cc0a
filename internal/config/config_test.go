package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  host: "127.0.0.1"
  port: 9000
storage:
  database_path: "patterns.db"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9000 {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
	if cfg.Storage.DatabasePath == "" {
		t.Error("database_path should be set")
	}
	if cfg.Debug {
		t.Error("debug should default to false when unset")
	}
}

func TestLoad_validationWindow(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
validation:
  min_year: 2020
  max_year: 2035
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Validation.MinYear != 2020 || cfg.Validation.MaxYear != 2035 {
		t.Errorf("validation window = %+v", cfg.Validation)
	}
}

func TestLoad_expandPathDotSlashRelativeToConfigDir(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  host: "localhost"
  port: 8080
storage:
  database_path: "./data/patterns.db"
watch:
  inbox: "./inbox"
export:
  workbook_path: "./out/transfers.xlsx"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	wantDB := filepath.Join(dir, "data", "patterns.db")
	if cfg.Storage.DatabasePath != wantDB {
		t.Errorf("database_path = %s, want %s", cfg.Storage.DatabasePath, wantDB)
	}
	wantInbox := filepath.Join(dir, "inbox")
	if cfg.Watch.Inbox != wantInbox {
		t.Errorf("inbox = %s, want %s", cfg.Watch.Inbox, wantInbox)
	}
	wantBook := filepath.Join(dir, "out", "transfers.xlsx")
	if cfg.Export.WorkbookPath != wantBook {
		t.Errorf("workbook_path = %s, want %s", cfg.Export.WorkbookPath, wantBook)
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	if cfg.Server.Host != "localhost" {
		t.Errorf("default host: got %s", cfg.Server.Host)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("default port: got %d", cfg.Server.Port)
	}
	if cfg.Extraction.RowTolerance != 20.0 {
		t.Errorf("default row_tolerance: got %f", cfg.Extraction.RowTolerance)
	}
	if cfg.Extraction.ColumnTolerance != 10.0 {
		t.Errorf("default column_tolerance: got %f", cfg.Extraction.ColumnTolerance)
	}
	if cfg.Extraction.MergeMaxGap != 5.0 || cfg.Extraction.MergeMinOverlap != 0.5 {
		t.Errorf("default merge tolerances: %+v", cfg.Extraction)
	}
	if cfg.Validation.MinYear != 2017 || cfg.Validation.MaxYear != 2030 {
		t.Errorf("default validation window: %+v", cfg.Validation)
	}
	if len(cfg.Watch.Extensions) != 1 || cfg.Watch.Extensions[0] != ".json" {
		t.Errorf("watch extensions: got %v", cfg.Watch.Extensions)
	}
	if cfg.Export.WorkbookPath == "" {
		t.Error("workbook_path should be set by default")
	}
}

func TestApplyDefaults_keepsExplicitValues(t *testing.T) {
	cfg := &Config{}
	cfg.Extraction.RowTolerance = 35
	cfg.Validation.MinYear = 2019
	ApplyDefaults(cfg)
	if cfg.Extraction.RowTolerance != 35 {
		t.Errorf("explicit row_tolerance overwritten: %f", cfg.Extraction.RowTolerance)
	}
	if cfg.Validation.MinYear != 2019 {
		t.Errorf("explicit min_year overwritten: %d", cfg.Validation.MinYear)
	}
}

func TestLoad_missingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}
}
