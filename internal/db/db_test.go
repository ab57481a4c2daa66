package db

import (
	"os"
	"path/filepath"
	"testing"
)

func TestInit_CreatesDirsAndSchema(t *testing.T) {
	tmpDir := t.TempDir()
	baseDir := filepath.Join(tmpDir, "data")

	database, err := Init(baseDir)
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	defer database.Close()

	if _, err := os.Stat(filepath.Join(baseDir, "threads.db")); err != nil {
		t.Errorf("database file missing: %v", err)
	}
	if _, err := os.Stat(filepath.Join(baseDir, "exports")); err != nil {
		t.Errorf("exports dir missing: %v", err)
	}

	version, err := GetUserVersion(database)
	if err != nil {
		t.Fatalf("GetUserVersion failed: %v", err)
	}
	if version != 1 {
		t.Errorf("user_version = %d, want 1", version)
	}
}

func TestInit_WALMode(t *testing.T) {
	database, err := Init(t.TempDir())
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	defer database.Close()

	var mode string
	if err := database.QueryRow("PRAGMA journal_mode").Scan(&mode); err != nil {
		t.Fatalf("PRAGMA journal_mode failed: %v", err)
	}
	if mode != "wal" {
		t.Errorf("journal_mode = %q, want %q", mode, "wal")
	}
}

func TestInit_Idempotent(t *testing.T) {
	baseDir := t.TempDir()

	first, err := Init(baseDir)
	if err != nil {
		t.Fatalf("first Init failed: %v", err)
	}
	first.Close()

	second, err := Init(baseDir)
	if err != nil {
		t.Fatalf("second Init failed: %v", err)
	}
	defer second.Close()

	version, err := GetUserVersion(second)
	if err != nil {
		t.Fatalf("GetUserVersion failed: %v", err)
	}
	if version != 1 {
		t.Errorf("user_version = %d, want 1", version)
	}
}

func TestSetUserVersion(t *testing.T) {
	database, err := Init(t.TempDir())
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	defer database.Close()

	if err := SetUserVersion(database, 7); err != nil {
		t.Fatalf("SetUserVersion failed: %v", err)
	}
	version, err := GetUserVersion(database)
	if err != nil {
		t.Fatalf("GetUserVersion failed: %v", err)
	}
	if version != 7 {
		t.Errorf("user_version = %d, want 7", version)
	}
}
