package db

import (
	"path/filepath"
	"testing"
)

func tableExists(t *testing.T, dbPath, table string) bool {
	t.Helper()
	conn, err := NewSQLiteConnectionWithDefaults(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteConnectionWithDefaults() error = %v", err)
	}
	defer conn.Close()

	var count int
	err = conn.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&count)
	if err != nil {
		t.Fatalf("failed to query sqlite_master: %v", err)
	}
	return count == 1
}

func TestMigrateUpFromPath(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "migrate.db")

	version, dirty, err := GetMigrationVersionFromPath(dbPath)
	if err != nil {
		t.Fatalf("GetMigrationVersionFromPath() error = %v", err)
	}
	if version != 0 || dirty {
		t.Errorf("initial version = %d (dirty=%v), want 0", version, dirty)
	}

	if err := MigrateUpFromPath(dbPath); err != nil {
		t.Fatalf("MigrateUpFromPath() error = %v", err)
	}
	if !tableExists(t, dbPath, "run_history") {
		t.Fatal("run_history table not created")
	}

	version, dirty, err = GetMigrationVersionFromPath(dbPath)
	if err != nil {
		t.Fatalf("GetMigrationVersionFromPath() error = %v", err)
	}
	if version != SchemaVersion || dirty {
		t.Errorf("version = %d (dirty=%v), want %d", version, dirty, SchemaVersion)
	}

	// Second run has nothing to apply.
	if err := MigrateUpFromPath(dbPath); err != nil {
		t.Errorf("MigrateUpFromPath() on migrated db error = %v", err)
	}
}

func TestMigrateDownFromPath(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "down.db")

	if err := MigrateUpFromPath(dbPath); err != nil {
		t.Fatalf("MigrateUpFromPath() error = %v", err)
	}
	if err := MigrateDownFromPath(dbPath, -1); err != nil {
		t.Fatalf("MigrateDownFromPath() error = %v", err)
	}
	if tableExists(t, dbPath, "run_history") {
		t.Error("run_history table still exists after rollback")
	}

	// Nothing left to roll back.
	if err := MigrateDownFromPath(dbPath, -1); err != nil {
		t.Errorf("MigrateDownFromPath() with nothing applied error = %v", err)
	}
}

func TestMigrateUp_NilDB(t *testing.T) {
	if err := MigrateUp(nil); err == nil {
		t.Error("expected error for nil connection")
	}
}
