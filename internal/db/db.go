package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

func Open(path string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir data dir: %w", err)
	}
	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.Exec(`PRAGMA synchronous=NORMAL; PRAGMA temp_store=MEMORY;`); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// Migrate creates the latest-value tables. They hold only the most recent
// cycle of each metric kind; nothing is kept as history.
func Migrate(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS latest_network (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			upload_rate REAL NOT NULL,
			download_rate REAL NOT NULL,
			elapsed_ms INTEGER NOT NULL,
			counter_reset INTEGER NOT NULL,
			at DATETIME NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS latest_partitions (
			position INTEGER PRIMARY KEY,
			device TEXT NOT NULL,
			mount_point TEXT NOT NULL,
			fstype TEXT NOT NULL,
			total_bytes INTEGER NOT NULL,
			used_bytes INTEGER NOT NULL,
			free_bytes INTEGER NOT NULL,
			used_percent REAL NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS latest_disks (
			position INTEGER PRIMARY KEY,
			disk_id TEXT NOT NULL,
			total_bytes INTEGER NOT NULL,
			used_bytes INTEGER NOT NULL,
			free_bytes INTEGER NOT NULL,
			used_percent REAL NOT NULL,
			mount_points_json TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS latest_storage (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			taken_at DATETIME NOT NULL
		);`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate failed: %w", err)
		}
	}
	return nil
}
