package feed

import (
	"sort"
	"strings"

	"github.com/iksnae/practice-reconcile/internal"
	"github.com/iksnae/practice-reconcile/internal/transcript"
)

// Decoder turns a stored transcript into a payload
type Decoder func(raw string) transcript.Payload

// Sources are the three inputs of a feed build. ClientNames fills in names
// for rows whose join produced none.
type Sources struct {
	Notes       []internal.NoteRow
	Recordings  []internal.RecordingRow
	Sessions    []internal.SessionRow
	ClientNames map[string]string
}

// Build folds the sources into one feed, newest first.
//
// A note represents its event. A recording is dropped when a note covers
// the same session, or, when the recording names no session, the same
// client on the same UTC day. A session is dropped only when a surfaced
// note or recording references its id. Entries are merged by id with notes first, then
// recordings, then sessions; an id already present keeps its entry.
func Build(src Sources, decode Decoder, obs internal.Observer) []Entry {
	if decode == nil {
		decode = transcript.Decode
	}
	if obs == nil {
		obs = internal.NopObserver
	}

	referencedSessions := make(map[string]bool)
	coveredDays := make(map[string]bool)
	groups := make(map[SourceKind][]Entry, len(precedence))

	for _, n := range src.Notes {
		entry := Entry{
			ID:         n.ID,
			ClientID:   n.ClientID,
			ClientName: clientName(n.ClientName, n.ClientID, src.ClientNames),
			SessionID:  n.SessionID,
			OccurredAt: n.CreatedAt,
			Content:    n.Content,
			SourceKind: SourceNote,
		}
		groups[SourceNote] = append(groups[SourceNote], entry)
		if n.SessionID != "" {
			referencedSessions[n.SessionID] = true
		}
		if key := eventKey(n.ClientID, n.CreatedAt); key != "" {
			coveredDays[key] = true
		}
	}

	for _, r := range DedupeRecordings(src.Recordings, obs) {
		if strings.TrimSpace(r.Transcript) == "" {
			continue
		}
		payload := decode(r.Transcript)
		content := payload.Best()
		if strings.TrimSpace(content) == "" {
			continue
		}

		var superseded bool
		if r.SessionID != "" {
			superseded = referencedSessions[r.SessionID]
		} else if key := eventKey(r.ClientID, r.CreatedAt); key != "" {
			superseded = coveredDays[key]
		}
		if superseded {
			obs.Observe(internal.Event{
				Type:     internal.EventFeedSuperseded,
				Kind:     internal.KindRecordings,
				RecordID: r.ID,
				Detail:   "represented by a note",
			})
			continue
		}

		groups[SourceRecording] = append(groups[SourceRecording], Entry{
			ID:         "recording-" + r.ID,
			ClientID:   r.ClientID,
			ClientName: clientName(r.ClientName, r.ClientID, src.ClientNames),
			SessionID:  r.SessionID,
			OccurredAt: r.CreatedAt,
			Content:    content,
			Sections:   payload.NoteSections,
			SourceKind: SourceRecording,
		})
		if r.SessionID != "" {
			referencedSessions[r.SessionID] = true
		}
	}

	for _, s := range src.Sessions {
		if referencedSessions[s.ID] {
			obs.Observe(internal.Event{
				Type:     internal.EventFeedSuperseded,
				Kind:     internal.KindSessions,
				RecordID: s.ID,
				Detail:   "represented by a note or recording",
			})
			continue
		}
		groups[SourceSession] = append(groups[SourceSession], Entry{
			ID:         "session-" + s.ID,
			ClientID:   s.ClientID,
			ClientName: clientName(s.ClientName, s.ClientID, src.ClientNames),
			SessionID:  s.ID,
			OccurredAt: s.StartsAt,
			Content:    s.Title,
			SourceKind: SourceSession,
		})
	}

	return merge(groups, obs)
}

// merge inserts entries in precedence order, first id wins, then sorts
// newest first keeping insertion order for equal timestamps
func merge(groups map[SourceKind][]Entry, obs internal.Observer) []Entry {
	byID := make(map[string]SourceKind)
	var merged []Entry

	for _, kind := range precedence {
		for _, e := range groups[kind] {
			if kept, exists := byID[e.ID]; exists {
				obs.Observe(internal.Event{
					Type:     internal.EventFeedCollision,
					RecordID: e.ID,
					Detail:   "kept " + string(kept) + ", dropped " + string(kind),
				})
				continue
			}
			byID[e.ID] = kind
			merged = append(merged, e)
		}
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].OccurredAt.After(merged[j].OccurredAt)
	})
	return merged
}

func clientName(name, clientID string, names map[string]string) string {
	if strings.TrimSpace(name) != "" {
		return name
	}
	return names[clientID]
}
