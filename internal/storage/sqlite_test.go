package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStore_CRUD(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if _, err := store.Load(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Load(missing) error = %v, want ErrNotFound", err)
	}

	if err := store.Save(ctx, "pattern-library", []byte(`{"v":1}`)); err != nil {
		t.Fatal(err)
	}
	got, err := store.Load(ctx, "pattern-library")
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != `{"v":1}` {
		t.Errorf("Load() = %s, want stored value", got)
	}

	keys, err := store.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(keys) != 1 || keys[0] != "pattern-library" {
		t.Errorf("List() = %v, want [pattern-library]", keys)
	}

	if err := store.Delete(ctx, "pattern-library"); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Load(ctx, "pattern-library"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Load after delete error = %v, want ErrNotFound", err)
	}
	// Deleting an absent key is not an error.
	if err := store.Delete(ctx, "pattern-library"); err != nil {
		t.Errorf("Delete(absent) = %v, want nil", err)
	}
}

func TestSQLiteStore_BackupRotation(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	// Write defaultBackupLimit+2 revisions; only the last N previous values
	// should survive.
	revisions := []string{"v1", "v2", "v3", "v4", "v5", "v6", "v7"}
	for _, rev := range revisions {
		if err := store.Save(ctx, "lib", []byte(rev)); err != nil {
			t.Fatal(err)
		}
	}

	backups, err := store.Backups(ctx, "lib")
	if err != nil {
		t.Fatal(err)
	}
	if len(backups) != defaultBackupLimit {
		t.Fatalf("got %d backups, want %d", len(backups), defaultBackupLimit)
	}
	// Newest first: v6 was the value displaced by the final save of v7.
	if string(backups[0]) != "v6" {
		t.Errorf("newest backup = %s, want v6", backups[0])
	}
	if string(backups[defaultBackupLimit-1]) != "v2" {
		t.Errorf("oldest surviving backup = %s, want v2", backups[defaultBackupLimit-1])
	}

	current, err := store.Load(ctx, "lib")
	if err != nil {
		t.Fatal(err)
	}
	if string(current) != "v7" {
		t.Errorf("current value = %s, want v7", current)
	}
}

func TestSQLiteStore_DeleteRemovesBackups(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_ = store.Save(ctx, "lib", []byte("v1"))
	_ = store.Save(ctx, "lib", []byte("v2"))
	if err := store.Delete(ctx, "lib"); err != nil {
		t.Fatal(err)
	}
	backups, err := store.Backups(ctx, "lib")
	if err != nil {
		t.Fatal(err)
	}
	if len(backups) != 0 {
		t.Errorf("got %d backups after delete, want 0", len(backups))
	}
}
