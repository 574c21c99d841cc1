package match

import (
	"time"

	"github.com/iksnae/practice-reconcile/internal"
)

// LinkWindow is the symmetric tolerance around an event when no session
// falls on the same calendar day
const LinkWindow = 72 * time.Hour

// LinkSession picks the session of clientID that best matches at. Same UTC
// calendar day wins; otherwise the nearest session within LinkWindow. Equal
// distances go to the smallest session id.
func LinkSession(clientID string, at time.Time, sessions []internal.SessionOccurrence) (string, bool) {
	if clientID == "" || at.IsZero() {
		return "", false
	}

	var (
		sameDay, nearby       string
		sameDayDist, nearDist time.Duration
	)
	for _, s := range sessions {
		if s.ClientID != clientID || s.Timestamp.IsZero() || s.ID == "" {
			continue
		}
		dist := absDuration(s.Timestamp.Sub(at))

		if sameCalendarDay(s.Timestamp, at) {
			if sameDay == "" || better(dist, s.ID, sameDayDist, sameDay) {
				sameDay, sameDayDist = s.ID, dist
			}
			continue
		}
		if dist <= LinkWindow && (nearby == "" || better(dist, s.ID, nearDist, nearby)) {
			nearby, nearDist = s.ID, dist
		}
	}

	if sameDay != "" {
		return sameDay, true
	}
	if nearby != "" {
		return nearby, true
	}
	return "", false
}

func better(dist time.Duration, id string, bestDist time.Duration, bestID string) bool {
	if dist != bestDist {
		return dist < bestDist
	}
	return id < bestID
}

func sameCalendarDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
