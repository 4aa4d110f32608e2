package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a history row does not exist
var ErrNotFound = errors.New("injection not found")

type DB struct {
	conn *sql.DB
}

// Open opens the database in configDir and initializes the schema
func Open(configDir string) (*DB, error) {
	return OpenFile(filepath.Join(configDir, "emoki.db"))
}

// OpenFile opens the database at dbPath and initializes the schema
func OpenFile(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable WAL mode for better concurrency
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// Writers wait instead of failing while the dashboard reads
	if _, err := conn.Exec("PRAGMA busy_timeout=2000"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.initSchema(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return db, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// initSchema creates the database schema
func (db *DB) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS injections (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,

		-- What was replaced
		shortcut TEXT NOT NULL,
		glyph TEXT NOT NULL,
		erase_count INTEGER NOT NULL,

		-- Time from confirm to the glyph being sent, including the focus delay
		latency_ms INTEGER NOT NULL,

		-- Status
		success BOOLEAN NOT NULL,
		error_message TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_injections_timestamp ON injections(timestamp);
	CREATE INDEX IF NOT EXISTS idx_injections_shortcut ON injections(shortcut);
	`

	_, err := db.conn.Exec(schema)
	return err
}
