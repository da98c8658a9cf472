package dto

import "time"

// StartInput carries per-session overrides. Zero minute values fall back
// to the stored settings; a negative MicrobreakIntervalMinutes means
// "not set" because zero is a meaningful value (microbreaks off).
// PomodoroSet distinguishes an explicit false from an absent flag.
type StartInput struct {
	BookID                    string
	PomodoroEnabled           bool
	PomodoroSet               bool
	WorkMinutes               int
	BreakMinutes              int
	AFKTimeoutMinutes         int
	MicrobreakIntervalMinutes int
}

type SnapshotOutput struct {
	SessionID                string
	BookID                   string
	BookTitle                string
	State                    string
	TimerSeconds             int
	ActiveMs                 int64
	PomodoroEnabled          bool
	PomodoroRemainingSeconds int
	CompletedPomodoros       int
	HighlightsDuring         int
	NotesDuring              int
	MicrobreakPending        bool
	StartedAt                time.Time
}

type HighlightExcerptOutput struct {
	Body      string
	CreatedAt time.Time
}

type WrapUpOutput struct {
	SessionID          string
	BookID             string
	BookTitle          string
	StartedAt          time.Time
	EndedAt            time.Time
	ActiveMs           int64
	CompletedPomodoros int
	Highlights         int
	Notes              int
	AFKPauses          int
	MicrobreaksTaken   int
	TopHighlights      []HighlightExcerptOutput
}

type RecordOutput struct {
	SessionID          string
	BookID             string
	BookTitle          string
	State              string
	StartedAt          time.Time
	EndedAt            time.Time
	ActiveMs           int64
	CompletedPomodoros int
	Highlights         int
	Notes              int
	AFKPauses          int
	MicrobreaksTaken   int
}

type ActivityOutput struct {
	ID         string
	OccurredAt time.Time
	Type       string
	Message    string
	Fields     map[string]string
}

type MetricsOutput struct {
	PID               int
	StartedAt         time.Time
	Ticks             int64
	Broadcasts        int64
	PersistErrors     int64
	PersistDrops      int64
	SessionsStarted   int64
	SessionsCompleted int64
	ActiveSession     bool
	MetricsAddress    string
}

type DaemonStatusOutput struct {
	Running        bool
	PID            int
	SocketPath     string
	MetricsAddress string
	HasSession     bool
	Session        SnapshotOutput
}
