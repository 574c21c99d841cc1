package feed

import (
	"context"
	"testing"

	"github.com/iksnae/practice-reconcile/internal"
	"github.com/iksnae/practice-reconcile/testutil"
)

func TestLoad(t *testing.T) {
	db := testutil.CreateTestDB(t, internal.Migrate)
	store := internal.NewStorage(db)

	f, err := Load(context.Background(), store, "o1", nil)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if f.Owner != "o1" {
		t.Errorf("Owner = %q, want o1", f.Owner)
	}

	want := []string{"recording-r2", "n3", "n2", "recording-r1", "session-s2", "n1"}
	if len(f.Entries) != len(want) {
		t.Fatalf("Load() returned %d entries, want %d: %+v", len(f.Entries), len(want), f.Entries)
	}
	for i, id := range want {
		if f.Entries[i].ID != id {
			t.Errorf("Entries[%d] = %s, want %s", i, f.Entries[i].ID, id)
		}
	}

	if f.Entries[5].ClientName != "Lilli D Schillaci" {
		t.Errorf("n1 ClientName = %q", f.Entries[5].ClientName)
	}

	counts := f.Count()
	if counts[SourceNote] != 3 || counts[SourceRecording] != 2 || counts[SourceSession] != 1 {
		t.Errorf("Count() = %v", counts)
	}
}

func TestLoad_AllOwners(t *testing.T) {
	db := testutil.CreateTestDB(t, internal.Migrate)

	f, err := Load(context.Background(), internal.NewStorage(db), "", nil)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(f.Entries) != 7 {
		t.Errorf("Load() returned %d entries, want 7", len(f.Entries))
	}
	if f.Entries[0].ID != "recording-r3" {
		t.Errorf("newest entry = %s, want recording-r3", f.Entries[0].ID)
	}
}
