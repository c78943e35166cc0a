package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Backup revisions kept per key before the oldest is discarded.
const defaultBackupLimit = 5

// SQLiteStore implements Store using SQLite. Each Save rotates the previous
// value into a backup table capped at a fixed number of revisions per key.
type SQLiteStore struct {
	db          *sql.DB
	backupLimit int
}

// NewSQLiteStore opens or creates a SQLite database at dbPath and initializes
// the schema. Parent directories are created if they do not exist.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStore{db: db, backupLimit: defaultBackupLimit}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS kv (
		key TEXT PRIMARY KEY,
		value BLOB NOT NULL,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS kv_backups (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		key TEXT NOT NULL,
		value BLOB NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_kv_backups_key ON kv_backups(key, id);
	`
	_, err := db.Exec(schema)
	return err
}

// Load returns the value for key, or ErrNotFound.
func (s *SQLiteStore) Load(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM kv WHERE key = ?`, key,
	).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load %q: %w", key, err)
	}
	return value, nil
}

// Save writes the value for key. The previous value, if any, is rotated into
// kv_backups; revisions beyond the limit are dropped oldest-first.
func (s *SQLiteStore) Save(ctx context.Context, key string, value []byte) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var previous []byte
	err = tx.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&previous)
	if err != nil && err != sql.ErrNoRows {
		return fmt.Errorf("failed to read previous value: %w", err)
	}
	if err == nil {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO kv_backups (key, value) VALUES (?, ?)`, key, previous); err != nil {
			return fmt.Errorf("failed to rotate backup: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM kv_backups WHERE key = ? AND id NOT IN (
				SELECT id FROM kv_backups WHERE key = ? ORDER BY id DESC LIMIT ?
			)`, key, key, s.backupLimit); err != nil {
			return fmt.Errorf("failed to trim backups: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now()); err != nil {
		return fmt.Errorf("failed to save %q: %w", key, err)
	}
	return tx.Commit()
}

// List returns all keys in the store.
func (s *SQLiteStore) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key FROM kv ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// Delete removes a key and its backup history.
func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key); err != nil {
		return fmt.Errorf("failed to delete %q: %w", key, err)
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv_backups WHERE key = ?`, key); err != nil {
		return fmt.Errorf("failed to delete backups for %q: %w", key, err)
	}
	return nil
}

// Backups returns the backup values for key, newest first.
func (s *SQLiteStore) Backups(ctx context.Context, key string) ([][]byte, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT value FROM kv_backups WHERE key = ? ORDER BY id DESC`, key)
	if err != nil {
		return nil, fmt.Errorf("failed to list backups: %w", err)
	}
	defer rows.Close()

	var out [][]byte
	for rows.Next() {
		var v []byte
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
