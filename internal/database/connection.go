package database

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Connect opens the archive database and makes sure the schema exists.
// driver is "sqlite3" or "postgres".
func Connect(driver, dsn string) (*sqlx.DB, error) {
	if driver == "sqlite3" {
		// Create data directory if it doesn't exist
		if dir := filepath.Dir(dsn); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create data directory: %w", err)
			}
		}
	}

	db, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if driver == "sqlite3" {
		// Enable foreign keys
		if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
		}

		// SQLite doesn't support multiple writers, and the pragma is per connection
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	if err := initializeSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// initializeSchema creates necessary tables if they don't exist
func initializeSchema(db *sqlx.DB) error {
	decks := `
		CREATE TABLE IF NOT EXISTS decks (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL UNIQUE,
			entry_count INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`
	if db.DriverName() == "postgres" {
		decks = `
			CREATE TABLE IF NOT EXISTS decks (
				id BIGSERIAL PRIMARY KEY,
				name TEXT NOT NULL UNIQUE,
				entry_count INTEGER NOT NULL DEFAULT 0,
				created_at TIMESTAMPTZ DEFAULT NOW(),
				updated_at TIMESTAMPTZ DEFAULT NOW()
			)
		`
	}
	if _, err := db.Exec(decks); err != nil {
		return fmt.Errorf("failed to create decks table: %w", err)
	}

	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS deck_entries (
			deck_id BIGINT NOT NULL,
			position INTEGER NOT NULL,
			word TEXT NOT NULL,
			part TEXT NOT NULL,
			note TEXT NOT NULL,
			PRIMARY KEY (deck_id, position),
			FOREIGN KEY (deck_id) REFERENCES decks(id) ON DELETE CASCADE
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create deck_entries table: %w", err)
	}

	return nil
}
