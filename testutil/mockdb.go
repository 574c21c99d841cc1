package testutil

import (
	"database/sql"
	"testing"

	_ "modernc.org/sqlite"
)

// ClientRow is a row of the clients table
type ClientRow struct {
	ID        string
	Owner     string
	Name      string
	Aliases   string // JSON array, empty for NULL
	CreatedAt string
}

// SessionRow is a row of the sessions table
type SessionRow struct {
	ID         string
	Owner      string
	ClientID   string
	ClientName string
	Title      string
	StartsAt   string
}

// NoteRow is a row of the session_notes table
type NoteRow struct {
	ID         string
	Owner      string
	ClientID   string
	SessionID  string
	ClientName string
	Content    string
	CreatedAt  string
}

// RecordingRow is a row of the recordings table
type RecordingRow struct {
	ID         string
	Owner      string
	ClientID   string
	SessionID  string
	ClientName string
	Transcript string
	CreatedAt  string
}

// CreateInMemoryDB opens an in-memory SQLite database for testing. The pool
// is pinned to one connection so every query sees the same database.
func CreateInMemoryDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to create in-memory database: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// CreateTestDB opens an in-memory database, applies migrate and loads the
// sample practice data
func CreateTestDB(t *testing.T, migrate func(*sql.DB) error) *sql.DB {
	t.Helper()
	db := CreateInMemoryDB(t)
	if err := migrate(db); err != nil {
		t.Fatalf("Failed to migrate database: %v", err)
	}
	SeedPractice(t, db)
	return db
}

func null(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// InsertClient inserts a client row
func InsertClient(t *testing.T, db *sql.DB, c ClientRow) {
	t.Helper()
	createdAt := c.CreatedAt
	if createdAt == "" {
		createdAt = "2024-01-01T00:00:00Z"
	}
	if _, err := db.Exec("INSERT INTO clients (id, owner_id, name, aliases, created_at) VALUES (?, ?, ?, ?, ?)",
		c.ID, c.Owner, c.Name, null(c.Aliases), createdAt); err != nil {
		t.Fatalf("Failed to insert client %s: %v", c.ID, err)
	}
}

// InsertSession inserts a session row
func InsertSession(t *testing.T, db *sql.DB, s SessionRow) {
	t.Helper()
	if _, err := db.Exec("INSERT INTO sessions (id, owner_id, client_id, client_name, title, starts_at) VALUES (?, ?, ?, ?, ?, ?)",
		s.ID, s.Owner, null(s.ClientID), null(s.ClientName), null(s.Title), null(s.StartsAt)); err != nil {
		t.Fatalf("Failed to insert session %s: %v", s.ID, err)
	}
}

// InsertNote inserts a session note row
func InsertNote(t *testing.T, db *sql.DB, n NoteRow) {
	t.Helper()
	if _, err := db.Exec("INSERT INTO session_notes (id, owner_id, client_id, session_id, client_name, content, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		n.ID, n.Owner, null(n.ClientID), null(n.SessionID), null(n.ClientName), null(n.Content), null(n.CreatedAt)); err != nil {
		t.Fatalf("Failed to insert note %s: %v", n.ID, err)
	}
}

// InsertRecording inserts a recording row
func InsertRecording(t *testing.T, db *sql.DB, r RecordingRow) {
	t.Helper()
	if _, err := db.Exec("INSERT INTO recordings (id, owner_id, client_id, session_id, client_name, transcript, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		r.ID, r.Owner, null(r.ClientID), null(r.SessionID), null(r.ClientName), null(r.Transcript), null(r.CreatedAt)); err != nil {
		t.Fatalf("Failed to insert recording %s: %v", r.ID, err)
	}
}

// ColumnValue reads one column of one row, empty when NULL
func ColumnValue(t *testing.T, db *sql.DB, table, column, id string) string {
	t.Helper()
	var v sql.NullString
	if err := db.QueryRow("SELECT "+column+" FROM "+table+" WHERE id = ?", id).Scan(&v); err != nil {
		t.Fatalf("Failed to read %s.%s for %s: %v", table, column, id, err)
	}
	return v.String
}
