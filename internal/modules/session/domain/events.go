package domain

import "time"

type EventType string

const (
	EventStarted             EventType = "session_started"
	EventCompleted           EventType = "session_completed"
	EventAFKPaused           EventType = "afk_paused"
	EventResumed             EventType = "presence_confirmed"
	EventBreakStarted        EventType = "break_started"
	EventBreakFinished       EventType = "break_finished"
	EventBreakSkipped        EventType = "break_skipped"
	EventMicrobreakDue       EventType = "microbreak_due"
	EventMicrobreakStarted   EventType = "microbreak_started"
	EventMicrobreakEnded     EventType = "microbreak_ended"
	EventMicrobreakPostponed EventType = "microbreak_postponed"
	EventMicrobreakDisabled  EventType = "microbreak_disabled_today"

	EventDaemonStarted  EventType = "daemon_started"
	EventDaemonStopped  EventType = "daemon_stopped"
	EventPersistFailed  EventType = "persist_failed"
	EventPersistDropped EventType = "persist_dropped"
	EventTickRecovered  EventType = "tick_recovered"
)

// Event is one line in the daemon's append-only event log.
type Event struct {
	ID         string            `json:"id"`
	Type       EventType         `json:"type"`
	Message    string            `json:"message,omitempty"`
	Fields     map[string]string `json:"fields,omitempty"`
	OccurredAt time.Time         `json:"occurredAt"`
}

// persistWorthy reports whether a transition should be mirrored to the
// record store. Ticks that change nothing are excluded.
func persistWorthy(t EventType) bool {
	switch t {
	case EventAFKPaused, EventResumed, EventBreakStarted, EventBreakFinished,
		EventBreakSkipped, EventMicrobreakStarted, EventMicrobreakEnded,
		EventCompleted:
		return true
	default:
		return false
	}
}

// PersistWorthy reports whether any event in the batch warrants a record
// store update.
func PersistWorthy(events []EventType) bool {
	for _, t := range events {
		if persistWorthy(t) {
			return true
		}
	}
	return false
}

// NotifyWorthy reports whether an event should reach notifier extensions.
func NotifyWorthy(t EventType) bool {
	switch t {
	case EventAFKPaused, EventMicrobreakDue, EventCompleted:
		return true
	default:
		return false
	}
}
