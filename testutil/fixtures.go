package testutil

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"
)

// Sample practice data loaded by SeedPractice.
//
// Owner o1 has three clients and a set of orphans:
//   - s2 has no client but carries the name "Anna Silva"
//   - n2 has neither client nor session, name "Lilly Schillaci", two days after s1
//   - n3 has only the ambiguous name "Anna"
//   - r1 has no client, name "Anna Silva", same day as s2
//   - r2 belongs to c1 but was created five days after s1 and has no session
//
// Owner o2 has one fully linked client.
var (
	SampleClients = []ClientRow{
		{ID: "c1", Owner: "o1", Name: "Lilli D Schillaci", CreatedAt: "2024-01-01T00:00:00Z"},
		{ID: "c2", Owner: "o1", Name: "Anna Silva", CreatedAt: "2024-01-02T00:00:00Z"},
		{ID: "c3", Owner: "o1", Name: "Anna Souza", CreatedAt: "2024-01-03T00:00:00Z"},
		{ID: "c4", Owner: "o2", Name: "Bruno Almeida", Aliases: `["Bru"]`, CreatedAt: "2024-01-04T00:00:00Z"},
	}

	SampleSessions = []SessionRow{
		{ID: "s1", Owner: "o1", ClientID: "c1", ClientName: "Lilli D Schillaci", Title: "Intake", StartsAt: "2025-01-10T09:00:00Z"},
		{ID: "s2", Owner: "o1", ClientName: "Anna Silva", Title: "Follow-up", StartsAt: "2025-01-11T14:00:00Z"},
		{ID: "s3", Owner: "o2", ClientID: "c4", Title: "Review", StartsAt: "2025-01-20T10:00:00Z"},
	}

	SampleNotes = []NoteRow{
		{ID: "n1", Owner: "o1", ClientID: "c1", SessionID: "s1", Content: "Intake notes", CreatedAt: "2025-01-10T10:00:00Z"},
		{ID: "n2", Owner: "o1", ClientName: "Lilly Schillaci", Content: "Phone check-in", CreatedAt: "2025-01-12T10:00:00Z"},
		{ID: "n3", Owner: "o1", ClientName: "Anna", Content: "Unclear note", CreatedAt: "2025-01-13T10:00:00Z"},
	}

	SampleRecordings = []RecordingRow{
		{ID: "r1", Owner: "o1", ClientName: "Anna Silva",
			Transcript: `{"transcript":"We talked about sleep.","notes":[{"title":"Plan","content":"Keep a diary"}]}`,
			CreatedAt:  "2025-01-11T15:00:00Z"},
		{ID: "r2", Owner: "o1", ClientID: "c1", Transcript: "Plain text transcript", CreatedAt: "2025-01-16T10:00:00Z"},
		{ID: "r3", Owner: "o2", ClientID: "c4", SessionID: "s3", Transcript: `"Review call"`, CreatedAt: "2025-01-20T11:00:00Z"},
	}
)

// SeedPractice inserts the sample practice data into a migrated database
func SeedPractice(t *testing.T, db *sql.DB) {
	t.Helper()
	for _, c := range SampleClients {
		InsertClient(t, db, c)
	}
	for _, s := range SampleSessions {
		InsertSession(t, db, s)
	}
	for _, n := range SampleNotes {
		InsertNote(t, db, n)
	}
	for _, r := range SampleRecordings {
		InsertRecording(t, db, r)
	}
}

// CreateSQLiteFixture creates a database file at dbPath, migrates it and
// loads the sample practice data
func CreateSQLiteFixture(t *testing.T, dbPath string, migrate func(*sql.DB) error) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		t.Fatalf("Failed to create fixture directory: %v", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	defer func() { _ = db.Close() }()

	if err := migrate(db); err != nil {
		t.Fatalf("Failed to migrate database: %v", err)
	}
	SeedPractice(t, db)
}

// CreateSnapshotFixture writes a backup snapshot file into dir
func CreateSnapshotFixture(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("Failed to create snapshot directory: %v", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("Failed to write snapshot %s: %v", name, err)
	}
	return path
}
