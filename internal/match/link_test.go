package match

import (
	"testing"
	"time"

	"github.com/iksnae/practice-reconcile/internal"
)

func mustTime(t *testing.T, s string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t.Fatalf("bad time %q: %v", s, err)
	}
	return ts
}

func TestLinkSession_Window(t *testing.T) {
	sessions := []internal.SessionOccurrence{
		{ID: "s1", ClientID: "c1", Timestamp: mustTime(t, "2025-01-10T09:00:00Z")},
	}

	tests := []struct {
		name   string
		at     string
		wantID string
		wantOK bool
	}{
		{name: "two days later links", at: "2025-01-12T10:00:00Z", wantID: "s1", wantOK: true},
		{name: "five days later does not link", at: "2025-01-16T10:00:00Z", wantOK: false},
		{name: "same day", at: "2025-01-10T18:30:00Z", wantID: "s1", wantOK: true},
		{name: "before the session", at: "2025-01-08T09:00:00Z", wantID: "s1", wantOK: true},
		{name: "exactly at window edge", at: "2025-01-13T09:00:00Z", wantID: "s1", wantOK: true},
		{name: "just past window", at: "2025-01-13T09:00:01Z", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := LinkSession("c1", mustTime(t, tt.at), sessions)
			if ok != tt.wantOK || got != tt.wantID {
				t.Errorf("LinkSession() = %q, %v; want %q, %v", got, ok, tt.wantID, tt.wantOK)
			}
		})
	}
}

func TestLinkSession_PrefersSameDay(t *testing.T) {
	sessions := []internal.SessionOccurrence{
		// closer in absolute time, but the day before
		{ID: "s-prev", ClientID: "c1", Timestamp: mustTime(t, "2025-03-04T23:30:00Z")},
		{ID: "s-same", ClientID: "c1", Timestamp: mustTime(t, "2025-03-05T20:00:00Z")},
	}

	got, ok := LinkSession("c1", mustTime(t, "2025-03-05T01:00:00Z"), sessions)
	if !ok || got != "s-same" {
		t.Errorf("LinkSession() = %q, %v; want s-same", got, ok)
	}
}

func TestLinkSession_TieBreaksOnID(t *testing.T) {
	sessions := []internal.SessionOccurrence{
		{ID: "s9", ClientID: "c1", Timestamp: mustTime(t, "2025-02-01T10:00:00Z")},
		{ID: "s2", ClientID: "c1", Timestamp: mustTime(t, "2025-02-03T10:00:00Z")},
	}

	got, ok := LinkSession("c1", mustTime(t, "2025-02-02T10:00:00Z"), sessions)
	if !ok || got != "s2" {
		t.Errorf("LinkSession() = %q, %v; want s2", got, ok)
	}
}

func TestLinkSession_FiltersClient(t *testing.T) {
	sessions := []internal.SessionOccurrence{
		{ID: "s1", ClientID: "c2", Timestamp: mustTime(t, "2025-01-10T09:00:00Z")},
		{ID: "s2", ClientID: "", Timestamp: mustTime(t, "2025-01-10T09:00:00Z")},
	}

	if got, ok := LinkSession("c1", mustTime(t, "2025-01-10T10:00:00Z"), sessions); ok {
		t.Errorf("LinkSession() linked %q to another client's session", got)
	}
	if _, ok := LinkSession("", mustTime(t, "2025-01-10T10:00:00Z"), sessions); ok {
		t.Error("empty client id should never link")
	}
	if _, ok := LinkSession("c2", time.Time{}, sessions); ok {
		t.Error("zero timestamp should never link")
	}
}
