package internal

import (
	"fmt"
	"strings"
	"time"
)

// Kind identifies one of the record tables the reconciler can repair
type Kind string

const (
	KindSessions   Kind = "sessions"
	KindNotes      Kind = "notes"
	KindRecordings Kind = "recordings"
)

// AllKinds lists every kind in the order a full run processes them.
// Sessions go first so that notes and recordings can link to freshly repaired sessions.
var AllKinds = []Kind{KindSessions, KindNotes, KindRecordings}

// ParseKind parses a user-supplied kind name (singular or plural)
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "session", "sessions", "appointments":
		return KindSessions, nil
	case "note", "notes", "session_notes":
		return KindNotes, nil
	case "recording", "recordings":
		return KindRecordings, nil
	default:
		return "", fmt.Errorf("unknown record kind: %s (supported: sessions, notes, recordings)", s)
	}
}

// Linkable reports whether records of this kind carry a session_id association
func (k Kind) Linkable() bool {
	return k == KindNotes || k == KindRecordings
}

// RecordSource tells where an orphan record was read from
type RecordSource string

const (
	SourceLive   RecordSource = "live"
	SourceBackup RecordSource = "backup"
)

// Column names that the reconciler is allowed to write
const (
	FieldClientID   = "client_id"
	FieldSessionID  = "session_id"
	FieldTranscript = "transcript"
)

// ClientIdentity is a known client as stored in the clients table
type ClientIdentity struct {
	ID            string   `json:"id" yaml:"id"`
	OwnerID       string   `json:"owner_id,omitempty" yaml:"owner_id,omitempty"`
	CanonicalName string   `json:"name" yaml:"name"`
	NameVariants  []string `json:"aliases,omitempty" yaml:"aliases,omitempty"`
}

// SessionOccurrence is one scheduled or held appointment
type SessionOccurrence struct {
	ID        string    `json:"id" yaml:"id"`
	ClientID  string    `json:"client_id,omitempty" yaml:"client_id,omitempty"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
}

// OrphanRecord is a session, note or recording that may be missing its
// client or session association. ClientID and SessionID are empty when the
// underlying column is NULL. Body holds the kind's payload column (session
// title, note content or recording transcript) so the same shape can be
// written to and read from backup snapshots.
type OrphanRecord struct {
	Kind           Kind         `json:"kind,omitempty" yaml:"kind,omitempty"`
	ID             string       `json:"id" yaml:"id"`
	OwnerID        string       `json:"owner_id,omitempty" yaml:"owner_id,omitempty"`
	ClientID       string       `json:"client_id,omitempty" yaml:"client_id,omitempty"`
	SessionID      string       `json:"session_id,omitempty" yaml:"session_id,omitempty"`
	ClientNameHint string       `json:"client_name,omitempty" yaml:"client_name,omitempty"`
	Timestamp      time.Time    `json:"timestamp,omitempty" yaml:"timestamp,omitempty"`
	Body           string       `json:"body,omitempty" yaml:"body,omitempty"`
	Source         RecordSource `json:"-" yaml:"-"`

	// Associations recorded in a backup snapshot for this record, set only
	// when the record was cross-referenced against one
	SnapshotClientID  string `json:"-" yaml:"-"`
	SnapshotSessionID string `json:"-" yaml:"-"`
}

// HasTimestamp reports whether the record carries a usable timestamp
func (r OrphanRecord) HasTimestamp() bool {
	return !r.Timestamp.IsZero()
}

// NoteRow is a session note as read for the feed
type NoteRow struct {
	ID         string
	OwnerID    string
	ClientID   string
	ClientName string
	SessionID  string
	Content    string
	CreatedAt  time.Time
}

// RecordingRow is a recording as read for the feed. Transcript is the raw
// stored value in any of its historical formats.
type RecordingRow struct {
	ID         string
	OwnerID    string
	ClientID   string
	ClientName string
	SessionID  string
	Transcript string
	CreatedAt  time.Time
}

// SessionRow is an appointment as read for the feed
type SessionRow struct {
	ID         string
	OwnerID    string
	ClientID   string
	ClientName string
	Title      string
	StartsAt   time.Time
}

// formatTimestamp formats a time as RFC3339 in UTC, empty for the zero time
func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// parseTimestamp parses the timestamp layouts found in stored rows and exports.
// Unparseable input yields the zero time.
func parseTimestamp(ts string) time.Time {
	ts = strings.TrimSpace(ts)
	if ts == "" {
		return time.Time{}
	}
	layouts := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
		"2006-01-02",
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, ts); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
