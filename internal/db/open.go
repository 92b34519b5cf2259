package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
)

// Open opens the SQLite database at path, creating it and its directory if
// needed, applies migrations, and returns the store.
func Open(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}
	dsn := fmt.Sprintf("file:%s?cache=shared&_busy_timeout=5000", filepath.ToSlash(path))
	sqliteDB, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := RunMigrations(sqliteDB, ""); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return NewSQLiteStore(sqliteDB)
}
