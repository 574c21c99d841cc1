package internal

import "sync"

// EventType classifies a diagnostic emitted by the matching and feed code
type EventType string

const (
	EventResolved           EventType = "resolved"
	EventUnresolvedName     EventType = "unresolved_name"
	EventAmbiguousName      EventType = "ambiguous_name"
	EventUnresolvedSession  EventType = "unresolved_session"
	EventLinked             EventType = "linked"
	EventConflict           EventType = "conflict"
	EventWriteFailed        EventType = "write_failed"
	EventIndexCollision     EventType = "index_collision"
	EventFeedCollision      EventType = "feed_collision"
	EventFeedSuperseded     EventType = "feed_superseded"
	EventDuplicateRecording EventType = "duplicate_recording"
)

// Event is a structured diagnostic. Core code reports events to an Observer
// instead of printing them.
type Event struct {
	Type     EventType `json:"type" yaml:"type"`
	Kind     Kind      `json:"kind,omitempty" yaml:"kind,omitempty"`
	RecordID string    `json:"record_id,omitempty" yaml:"record_id,omitempty"`
	Detail   string    `json:"detail,omitempty" yaml:"detail,omitempty"`
}

// Observer receives diagnostics. Implementations must be safe for concurrent use.
type Observer interface {
	Observe(Event)
}

// ObserverFunc adapts a function to the Observer interface
type ObserverFunc func(Event)

// Observe calls f(e)
func (f ObserverFunc) Observe(e Event) {
	f(e)
}

// NopObserver discards every event
var NopObserver Observer = ObserverFunc(func(Event) {})

// LogObserver routes events to the package logger
type LogObserver struct{}

// Observe logs the event at a level matching its severity
func (LogObserver) Observe(e Event) {
	switch e.Type {
	case EventWriteFailed:
		LogError("%s %s/%s: %s", e.Type, e.Kind, e.RecordID, e.Detail)
	case EventConflict, EventIndexCollision, EventFeedCollision:
		LogWarn("%s %s/%s: %s", e.Type, e.Kind, e.RecordID, e.Detail)
	default:
		LogDebug("%s %s/%s: %s", e.Type, e.Kind, e.RecordID, e.Detail)
	}
}

// EventRecorder collects events in arrival order
type EventRecorder struct {
	mu     sync.Mutex
	events []Event
}

// Observe appends the event
func (r *EventRecorder) Observe(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

// Events returns a copy of the recorded events
func (r *EventRecorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Tee fans an event out to several observers
func Tee(observers ...Observer) Observer {
	return ObserverFunc(func(e Event) {
		for _, o := range observers {
			if o != nil {
				o.Observe(e)
			}
		}
	})
}
