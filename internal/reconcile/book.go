package reconcile

import (
	"sync"

	"github.com/iksnae/practice-reconcile/internal"
)

// sessionBook holds the link candidates for a run. Session repairs made
// during the run are recorded so later notes and recordings can link to them.
type sessionBook struct {
	mu       sync.RWMutex
	sessions map[string]internal.SessionOccurrence
	order    []string
}

func newSessionBook(sessions []internal.SessionOccurrence) *sessionBook {
	b := &sessionBook{sessions: make(map[string]internal.SessionOccurrence, len(sessions))}
	for _, s := range sessions {
		if s.ID == "" {
			continue
		}
		if _, ok := b.sessions[s.ID]; !ok {
			b.order = append(b.order, s.ID)
		}
		b.sessions[s.ID] = s
	}
	return b
}

// forClient returns a copy of the sessions currently assigned to clientID
func (b *sessionBook) forClient(clientID string) []internal.SessionOccurrence {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var out []internal.SessionOccurrence
	for _, id := range b.order {
		if s := b.sessions[id]; s.ClientID == clientID {
			out = append(out, s)
		}
	}
	return out
}

// get returns one session by id
func (b *sessionBook) get(id string) (internal.SessionOccurrence, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	s, ok := b.sessions[id]
	return s, ok
}

// assign records the client of a repaired session. A session missing from
// the book is added when it carries a timestamp.
func (b *sessionBook) assign(rec internal.OrphanRecord, clientID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	s, ok := b.sessions[rec.ID]
	if !ok {
		if !rec.HasTimestamp() {
			return
		}
		s = internal.SessionOccurrence{ID: rec.ID, Timestamp: rec.Timestamp}
		b.order = append(b.order, rec.ID)
	}
	s.ClientID = clientID
	b.sessions[rec.ID] = s
}
