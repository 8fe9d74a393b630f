package database

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// DB wraps the sqlite connection backing the two cache tables.
type DB struct {
	*sql.DB
}

// NewDB opens (creating if needed) the cache database under dataDir and runs
// migrations. WAL mode plus a busy timeout lets concurrent readers proceed
// while a writer holds the upsert for a key.
func NewDB(dataDir string) (*DB, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "github_cache.db")
	connStr := fmt.Sprintf("%s?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)", dbPath)

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	database := &DB{DB: db}
	if err := database.migrate(); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	slog.Info("Cache database initialized", "path", dbPath)
	return database, nil
}

// migrate creates the cache tables. Structured fields are stored as JSON
// text; last_updated is an RFC 3339 timestamp parsed back for the freshness
// check, never compared as raw text.
func (db *DB) migrate() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS cached_users (
			username TEXT PRIMARY KEY,
			user_data TEXT NOT NULL,
			repositories TEXT NOT NULL,
			events TEXT NOT NULL,
			pull_requests TEXT NOT NULL,
			last_updated TEXT NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS cached_scores (
			username TEXT PRIMARY KEY,
			score TEXT NOT NULL,
			rating TEXT NOT NULL,
			stats TEXT NOT NULL,
			activity TEXT NOT NULL,
			languages TEXT NOT NULL,
			last_updated TEXT NOT NULL
		)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("failed to execute migration: %w", err)
		}
	}
	return nil
}
