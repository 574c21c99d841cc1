package internal

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS clients (
	id         TEXT PRIMARY KEY,
	owner_id   TEXT NOT NULL DEFAULT '',
	name       TEXT NOT NULL,
	aliases    TEXT,
	created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now'))
);
CREATE TABLE IF NOT EXISTS sessions (
	id          TEXT PRIMARY KEY,
	owner_id    TEXT NOT NULL DEFAULT '',
	client_id   TEXT,
	client_name TEXT,
	title       TEXT,
	starts_at   TEXT
);
CREATE TABLE IF NOT EXISTS session_notes (
	id          TEXT PRIMARY KEY,
	owner_id    TEXT NOT NULL DEFAULT '',
	client_id   TEXT,
	session_id  TEXT,
	client_name TEXT,
	content     TEXT,
	created_at  TEXT
);
CREATE TABLE IF NOT EXISTS recordings (
	id          TEXT PRIMARY KEY,
	owner_id    TEXT NOT NULL DEFAULT '',
	client_id   TEXT,
	session_id  TEXT,
	client_name TEXT,
	transcript  TEXT,
	created_at  TEXT
);
CREATE INDEX IF NOT EXISTS idx_sessions_client ON sessions(client_id);
CREATE INDEX IF NOT EXISTS idx_notes_client ON session_notes(client_id);
CREATE INDEX IF NOT EXISTS idx_notes_session ON session_notes(session_id);
CREATE INDEX IF NOT EXISTS idx_recordings_client ON recordings(client_id);
`

// OpenDatabase opens (creating if needed) the record store database and
// applies the schema
func OpenDatabase(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}

	if err := Migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

// OpenDatabaseReadOnly opens an existing database in read-only mode
func OpenDatabaseReadOnly(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}

	return db, nil
}

// Migrate creates the record tables if they do not exist
func Migrate(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return &StorageError{Op: "migrate", Table: "*", Err: err}
	}
	return nil
}

// TableCounts returns the row count of every record table
func TableCounts(db *sql.DB) (map[string]int, error) {
	counts := make(map[string]int)
	for _, table := range []string{"clients", "sessions", "session_notes", "recordings"} {
		var n int
		if err := db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n); err != nil {
			return nil, &StorageError{Op: "count", Table: table, Err: err}
		}
		counts[table] = n
	}
	return counts, nil
}
