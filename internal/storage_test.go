package internal

import (
	"context"
	"errors"
	"testing"

	"github.com/iksnae/practice-reconcile/testutil"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	return NewStorage(testutil.CreateTestDB(t, Migrate))
}

func TestStorage_GetClients(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	clients, err := s.GetClients(ctx, "")
	if err != nil {
		t.Fatalf("GetClients() error = %v", err)
	}
	if len(clients) != 4 {
		t.Fatalf("GetClients() returned %d clients, want 4", len(clients))
	}
	if clients[0].ID != "c1" || clients[3].ID != "c4" {
		t.Errorf("clients not in registration order: %s ... %s", clients[0].ID, clients[3].ID)
	}
	if len(clients[3].NameVariants) != 1 || clients[3].NameVariants[0] != "Bru" {
		t.Errorf("c4 aliases = %v, want [Bru]", clients[3].NameVariants)
	}

	scoped, err := s.GetClients(ctx, "o2")
	if err != nil {
		t.Fatalf("GetClients(o2) error = %v", err)
	}
	if len(scoped) != 1 || scoped[0].ID != "c4" {
		t.Errorf("GetClients(o2) = %+v", scoped)
	}
}

func TestStorage_GetClients_BrokenAliases(t *testing.T) {
	db := testutil.CreateTestDB(t, Migrate)
	testutil.InsertClient(t, db, testutil.ClientRow{ID: "c9", Name: "Broken Aliases", Aliases: "{not json", CreatedAt: "2024-02-01T00:00:00Z"})

	clients, err := NewStorage(db).GetClients(context.Background(), "")
	if err != nil {
		t.Fatalf("GetClients() error = %v", err)
	}
	last := clients[len(clients)-1]
	if last.ID != "c9" || last.NameVariants != nil {
		t.Errorf("client with broken aliases = %+v, want kept without aliases", last)
	}
}

func TestStorage_GetOrphans(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	tests := []struct {
		kind  Kind
		owner string
		want  []string
	}{
		{kind: KindSessions, want: []string{"s2"}},
		{kind: KindNotes, want: []string{"n2", "n3"}},
		{kind: KindRecordings, want: []string{"r1", "r2"}},
		{kind: KindRecordings, owner: "o2", want: nil},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind)+"/"+tt.owner, func(t *testing.T) {
			records, err := s.GetOrphans(ctx, tt.kind, tt.owner)
			if err != nil {
				t.Fatalf("GetOrphans() error = %v", err)
			}
			if len(records) != len(tt.want) {
				t.Fatalf("GetOrphans() = %d records, want %d", len(records), len(tt.want))
			}
			for i, id := range tt.want {
				if records[i].ID != id {
					t.Errorf("records[%d] = %s, want %s", i, records[i].ID, id)
				}
				if records[i].Kind != tt.kind || records[i].Source != SourceLive {
					t.Errorf("records[%d] kind/source = %s/%s", i, records[i].Kind, records[i].Source)
				}
			}
		})
	}

	if _, err := s.GetOrphans(ctx, Kind("invoices"), ""); err == nil {
		t.Error("expected error for unknown kind")
	}
}

func TestStorage_GetRecord(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	rec, err := s.GetRecord(ctx, KindNotes, "n2")
	if err != nil {
		t.Fatalf("GetRecord() error = %v", err)
	}
	if rec.ClientNameHint != "Lilly Schillaci" || rec.Body != "Phone check-in" || !rec.HasTimestamp() {
		t.Errorf("GetRecord() = %+v", rec)
	}

	if _, err := s.GetRecord(ctx, KindNotes, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetRecord(missing) error = %v, want ErrNotFound", err)
	}
}

func TestStorage_FillField(t *testing.T) {
	db := testutil.CreateTestDB(t, Migrate)
	s := NewStorage(db)
	ctx := context.Background()

	changed, err := s.FillField(ctx, KindNotes, "n2", FieldClientID, "c1")
	if err != nil || !changed {
		t.Fatalf("FillField() = %v, %v; want true, nil", changed, err)
	}

	// a second fill must not overwrite the first
	changed, err = s.FillField(ctx, KindNotes, "n2", FieldClientID, "c2")
	if err != nil || changed {
		t.Errorf("second FillField() = %v, %v; want false, nil", changed, err)
	}
	if got := testutil.ColumnValue(t, db, "session_notes", "client_id", "n2"); got != "c1" {
		t.Errorf("n2 client_id = %q, want c1", got)
	}

	if _, err := s.FillField(ctx, KindSessions, "s2", FieldSessionID, "s1"); err == nil {
		t.Error("sessions have no writable session_id")
	}
	if _, err := s.FillField(ctx, KindNotes, "n2", "content", "x"); err == nil {
		t.Error("content is not a writable field")
	}
}

func TestStorage_UpdateField(t *testing.T) {
	db := testutil.CreateTestDB(t, Migrate)
	s := NewStorage(db)
	ctx := context.Background()

	if err := s.UpdateField(ctx, KindNotes, "n1", FieldClientID, "c2"); err != nil {
		t.Fatalf("UpdateField() error = %v", err)
	}
	if got := testutil.ColumnValue(t, db, "session_notes", "client_id", "n1"); got != "c2" {
		t.Errorf("n1 client_id = %q, want c2", got)
	}

	if err := s.UpdateField(ctx, KindNotes, "missing", FieldClientID, "c2"); !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdateField(missing) error = %v, want ErrNotFound", err)
	}
}

func TestStorage_Upsert(t *testing.T) {
	db := testutil.CreateTestDB(t, Migrate)
	s := NewStorage(db)
	ctx := context.Background()

	err := s.Upsert(ctx, KindRecordings, []OrphanRecord{
		{ID: "r1", ClientID: "c3", SessionID: "s2", Body: "replaced?"},
		{ID: "r2", ClientID: "c2", SessionID: "s1"},
		{ID: "r9", OwnerID: "o1", ClientNameHint: "New Person", Body: "fresh"},
	})
	if err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	tests := []struct {
		id, col, want string
	}{
		{id: "r1", col: "client_id", want: "c3"},
		{id: "r1", col: "session_id", want: "s2"},
		{id: "r1", col: "transcript", want: testutil.SampleRecordings[0].Transcript},
		{id: "r2", col: "client_id", want: "c1"},
		{id: "r2", col: "session_id", want: "s1"},
		{id: "r9", col: "transcript", want: "fresh"},
		{id: "r9", col: "client_id", want: ""},
	}
	for _, tt := range tests {
		if got := testutil.ColumnValue(t, db, "recordings", tt.col, tt.id); got != tt.want {
			t.Errorf("%s.%s = %q, want %q", tt.id, tt.col, got, tt.want)
		}
	}
}

func TestStorage_UpsertClients(t *testing.T) {
	db := testutil.CreateTestDB(t, Migrate)
	s := NewStorage(db)
	ctx := context.Background()

	err := s.UpsertClients(ctx, []ClientIdentity{
		{ID: "c2", OwnerID: "o1", CanonicalName: "Anna Silva Costa", NameVariants: []string{"Aninha"}},
		{ID: "c5", OwnerID: "o1", CanonicalName: "Carla Dias"},
	})
	if err != nil {
		t.Fatalf("UpsertClients() error = %v", err)
	}

	clients, err := s.GetClients(ctx, "o1")
	if err != nil {
		t.Fatalf("GetClients() error = %v", err)
	}
	byID := make(map[string]ClientIdentity)
	for _, c := range clients {
		byID[c.ID] = c
	}
	if c := byID["c2"]; c.CanonicalName != "Anna Silva Costa" || len(c.NameVariants) != 1 {
		t.Errorf("c2 = %+v", c)
	}
	if _, ok := byID["c5"]; !ok {
		t.Error("c5 was not inserted")
	}
}

func TestStorage_ListAndCount(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	notes, err := s.ListNotes(ctx, "o1")
	if err != nil {
		t.Fatalf("ListNotes() error = %v", err)
	}
	if len(notes) != 3 || notes[0].ID != "n3" {
		t.Errorf("ListNotes() = %+v, want newest first", notes)
	}
	for _, n := range notes {
		if n.ID == "n1" && n.ClientName != "Lilli D Schillaci" {
			t.Errorf("n1 ClientName = %q, want joined client name", n.ClientName)
		}
	}

	recordings, err := s.ListRecordings(ctx, "")
	if err != nil {
		t.Fatalf("ListRecordings() error = %v", err)
	}
	if len(recordings) != 3 {
		t.Errorf("ListRecordings() = %d, want 3", len(recordings))
	}

	sessions, err := s.ListSessions(ctx, "o2")
	if err != nil {
		t.Fatalf("ListSessions() error = %v", err)
	}
	if len(sessions) != 1 || sessions[0].ClientName != "Bruno Almeida" {
		t.Errorf("ListSessions(o2) = %+v", sessions)
	}

	all, err := s.ListRecords(ctx, KindNotes, "")
	if err != nil {
		t.Fatalf("ListRecords() error = %v", err)
	}
	if len(all) != 3 || all[0].ID != "n1" || all[0].SessionID != "s1" {
		t.Errorf("ListRecords() = %+v", all)
	}

	occurrences, err := s.GetSessions(ctx, "")
	if err != nil {
		t.Fatalf("GetSessions() error = %v", err)
	}
	if len(occurrences) != 3 || occurrences[0].ID != "s1" {
		t.Errorf("GetSessions() = %+v, want ordered by start", occurrences)
	}

	counts, err := s.CountOrphans(ctx, "")
	if err != nil {
		t.Fatalf("CountOrphans() error = %v", err)
	}
	if counts[KindSessions] != 1 || counts[KindNotes] != 2 || counts[KindRecordings] != 2 {
		t.Errorf("CountOrphans() = %v", counts)
	}
}
