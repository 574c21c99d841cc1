// Package feed merges notes, recordings and sessions into one
// chronologically ordered timeline with a single entry per logical event.
package feed

import (
	"time"

	"github.com/iksnae/practice-reconcile/internal/transcript"
)

// SourceKind names the table an entry was built from
type SourceKind string

const (
	SourceNote      SourceKind = "note"
	SourceRecording SourceKind = "recording"
	SourceSession   SourceKind = "session"
)

// precedence orders sources when two would describe the same event
var precedence = []SourceKind{SourceNote, SourceRecording, SourceSession}

// Entry is one display-ready feed item. IDs are prefixed by source so they
// are unique across tables.
type Entry struct {
	ID         string               `json:"id" yaml:"id"`
	ClientID   string               `json:"client_id,omitempty" yaml:"client_id,omitempty"`
	ClientName string               `json:"client_name,omitempty" yaml:"client_name,omitempty"`
	SessionID  string               `json:"session_id,omitempty" yaml:"session_id,omitempty"`
	OccurredAt time.Time            `json:"occurred_at" yaml:"occurred_at"`
	Content    string               `json:"content" yaml:"content"`
	Sections   []transcript.Section `json:"sections,omitempty" yaml:"sections,omitempty"`
	SourceKind SourceKind           `json:"source_kind" yaml:"source_kind"`
}

// Feed is the result of a feed read for one owner scope
type Feed struct {
	Owner       string    `json:"owner,omitempty" yaml:"owner,omitempty"`
	GeneratedAt time.Time `json:"generated_at" yaml:"generated_at"`
	Entries     []Entry   `json:"entries" yaml:"entries"`
}

// Count returns the number of entries of each source kind
func (f *Feed) Count() map[SourceKind]int {
	counts := make(map[SourceKind]int, len(precedence))
	for _, e := range f.Entries {
		counts[e.SourceKind]++
	}
	return counts
}

// Select returns the entries for clientID (all when empty), at most limit
// of them when limit is positive. Order is preserved.
func Select(entries []Entry, clientID string, limit int) []Entry {
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if clientID != "" && e.ClientID != clientID {
			continue
		}
		out = append(out, e)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}
