package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fivol/ai-threads/internal/config"
	_ "modernc.org/sqlite"
)

// CurrentSchemaVersion is the latest schema version.
// Bump this when adding migrations.
const CurrentSchemaVersion = 1

// Init initializes the SQLite database at baseDir/threads.db.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.threads.
func Init(baseDir string) (*sql.DB, error) {
	// Create base directory with restricted permissions
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}
	_ = os.Chmod(baseDir, 0700)

	// Create exports subdirectory
	exportsDir := filepath.Join(baseDir, "exports")
	if err := os.MkdirAll(exportsDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create exports directory: %w", err)
	}
	_ = os.Chmod(exportsDir, 0700)

	// Open database with pragmas in connection string (applies to all connections)
	dbPath := filepath.Join(baseDir, "threads.db")
	dsn := dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := verifyWALMode(db); err != nil {
		db.Close()
		return nil, err
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	// Set file permissions after file exists (best-effort)
	_ = os.Chmod(dbPath, 0600)

	return db, nil
}

// ConfigurePool applies connection pool settings from config.
// Only sets limits if explicitly configured (non-zero values).
func ConfigurePool(db *sql.DB, cfg *config.Config) {
	if cfg == nil {
		return
	}
	if cfg.DBMaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.DBMaxOpenConns)
	}
	if cfg.DBMaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.DBMaxIdleConns)
	}
}

// migrate applies schema migrations based on user_version.
func migrate(db *sql.DB) error {
	version, err := GetUserVersion(db)
	if err != nil {
		return err
	}

	// Migration 0 -> 1: Initial schema (v1)
	if version < 1 {
		schema := `
		CREATE TABLE IF NOT EXISTS threads (
		  id               TEXT PRIMARY KEY,
		  title            TEXT NOT NULL,
		  created_at       INTEGER NOT NULL,
		  updated_at       INTEGER NOT NULL,
		  pinned           INTEGER NOT NULL DEFAULT 0,
		  thread_prompt    TEXT,
		  generation_count INTEGER NOT NULL DEFAULT 3,
		  tokens_in        INTEGER NOT NULL DEFAULT 0,
		  tokens_out       INTEGER NOT NULL DEFAULT 0
		);

		CREATE TABLE IF NOT EXISTS thoughts (
		  id         TEXT PRIMARY KEY,
		  thread_id  TEXT NOT NULL,
		  author     TEXT NOT NULL,
		  text       TEXT NOT NULL,
		  created_at INTEGER NOT NULL,
		  selected   INTEGER NOT NULL DEFAULT 0,
		  starred    INTEGER NOT NULL DEFAULT 0,
		  edited     INTEGER NOT NULL DEFAULT 0,
		  ord        INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_thoughts_thread_ord
		ON thoughts(thread_id, ord);

		CREATE INDEX IF NOT EXISTS idx_thoughts_starred
		ON thoughts(starred)
		WHERE starred = 1;

		CREATE TABLE IF NOT EXISTS settings (
		  id                 INTEGER PRIMARY KEY CHECK (id = 1),
		  provider           TEXT NOT NULL DEFAULT '',
		  api_key            TEXT NOT NULL DEFAULT '',
		  model              TEXT NOT NULL DEFAULT '',
		  global_prompt      TEXT NOT NULL DEFAULT '',
		  max_context_tokens INTEGER NOT NULL DEFAULT 0,
		  total_tokens_in    INTEGER NOT NULL DEFAULT 0,
		  total_tokens_out   INTEGER NOT NULL DEFAULT 0
		);
		`
		if _, err := db.Exec(schema); err != nil {
			return fmt.Errorf("migration 1 failed: %w", err)
		}
		if err := SetUserVersion(db, 1); err != nil {
			return err
		}
	}

	// Future migrations go here:
	// if version < 2 { ... }

	return nil
}

// verifyWALMode checks that WAL mode is active (set via connection string).
func verifyWALMode(db *sql.DB) error {
	var journalMode string
	if err := db.QueryRow("PRAGMA journal_mode;").Scan(&journalMode); err != nil {
		return fmt.Errorf("failed to verify journal mode: %w", err)
	}
	if journalMode != "wal" {
		return fmt.Errorf("expected WAL mode, got %s", journalMode)
	}
	return nil
}

// GetUserVersion returns the current schema version (user_version pragma).
func GetUserVersion(db *sql.DB) (int, error) {
	var version int
	if err := db.QueryRow("PRAGMA user_version;").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get user_version: %w", err)
	}
	return version, nil
}

// SetUserVersion sets the schema version (user_version pragma).
func SetUserVersion(db *sql.DB, version int) error {
	_, err := db.Exec(fmt.Sprintf("PRAGMA user_version=%d", version))
	if err != nil {
		return fmt.Errorf("failed to set user_version: %w", err)
	}
	return nil
}
