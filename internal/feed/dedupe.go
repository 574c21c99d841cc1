package feed

import (
	"time"

	"github.com/iksnae/practice-reconcile/internal"
)

// DedupeRecordings drops repeated recording ids, keeping the first row.
// Upstream joins can emit the same recording once per matching row.
func DedupeRecordings(rows []internal.RecordingRow, obs internal.Observer) []internal.RecordingRow {
	if obs == nil {
		obs = internal.NopObserver
	}
	seen := make(map[string]bool, len(rows))
	unique := make([]internal.RecordingRow, 0, len(rows))

	for _, row := range rows {
		if seen[row.ID] {
			obs.Observe(internal.Event{
				Type:     internal.EventDuplicateRecording,
				Kind:     internal.KindRecordings,
				RecordID: row.ID,
				Detail:   "duplicate row dropped",
			})
			continue
		}
		seen[row.ID] = true
		unique = append(unique, row)
	}

	return unique
}

// eventKey identifies one client on one UTC calendar day. Records without
// a client or a timestamp have no key.
func eventKey(clientID string, at time.Time) string {
	if clientID == "" || at.IsZero() {
		return ""
	}
	return clientID + "|" + at.UTC().Format("2006-01-02")
}
