package domain

import (
	"time"

	apperrors "lectio/internal/platform/errors"
)

type Phase string

const (
	PhaseRunning    Phase = "running"
	PhasePausedAFK  Phase = "paused_afk"
	PhaseBreak      Phase = "break"
	PhaseMicrobreak Phase = "microbreak"
	PhaseCompleted  Phase = "completed"
)

const (
	DefaultWorkMinutes               = 25
	DefaultBreakMinutes              = 5
	DefaultAFKTimeoutMinutes         = 5
	DefaultMicrobreakIntervalMinutes = 20
)

// A tick normally arrives once per second; anything beyond this gap is
// treated as a suspend/resume and not credited as active time.
const maxTickElapsed = 2 * time.Second

// Config is fixed at session start and never mutated afterwards.
type Config struct {
	BookID                    string
	BookTitle                 string
	PomodoroEnabled           bool
	WorkMinutes               int
	BreakMinutes              int
	AFKTimeoutMinutes         int
	MicrobreakIntervalMinutes int
}

func (c Config) Normalized() Config {
	if c.WorkMinutes <= 0 {
		c.WorkMinutes = DefaultWorkMinutes
	}
	if c.BreakMinutes <= 0 {
		c.BreakMinutes = DefaultBreakMinutes
	}
	if c.AFKTimeoutMinutes <= 0 {
		c.AFKTimeoutMinutes = DefaultAFKTimeoutMinutes
	}
	if c.MicrobreakIntervalMinutes < 0 {
		c.MicrobreakIntervalMinutes = 0
	}
	return c
}

func (c Config) microbreaksEnabled() bool {
	return c.MicrobreakIntervalMinutes > 0
}

// Microbreak tracks the advisory prompt sub-state. LastMark anchors the
// interval check and moves on take, end, and postpone.
type Microbreak struct {
	Pending       bool      `json:"pending"`
	Taken         int       `json:"taken"`
	Postponed     int       `json:"postponed"`
	DisabledToday bool      `json:"disabled_today"`
	LastMark      time.Time `json:"last_mark"`
}

// State is the single in-memory session. All mutation goes through the
// methods below; callers hold it behind the engine's mutex.
type State struct {
	ID                       string
	Config                   Config
	Phase                    Phase
	StartedAt                time.Time
	EndedAt                  time.Time
	ActiveMs                 int64
	PomodoroRemainingSeconds int
	CompletedPomodoros       int
	LastActivityAt           time.Time
	LastTickAt               time.Time
	HighlightsDuring         int
	NotesDuring              int
	AFKPauses                int
	Microbreak               Microbreak
}

func NewState(id string, cfg Config, now time.Time, microbreakDisabledToday bool) *State {
	cfg = cfg.Normalized()
	st := &State{
		ID:             id,
		Config:         cfg,
		Phase:          PhaseRunning,
		StartedAt:      now,
		LastActivityAt: now,
		LastTickAt:     now,
		Microbreak:     Microbreak{DisabledToday: microbreakDisabledToday, LastMark: now},
	}
	if cfg.PomodoroEnabled {
		st.PomodoroRemainingSeconds = cfg.WorkMinutes * 60
	}
	return st
}

// Tick applies one scheduler beat. It is the only place where time-based
// transitions happen; commands never advance the countdowns themselves.
func (s *State) Tick(now time.Time) []EventType {
	prev := s.LastTickAt
	s.LastTickAt = now

	var events []EventType
	switch s.Phase {
	case PhaseRunning:
		elapsed := now.Sub(prev)
		if elapsed < 0 {
			elapsed = 0
		}
		if elapsed > maxTickElapsed {
			elapsed = maxTickElapsed
		}
		s.ActiveMs += elapsed.Milliseconds()

		// AFK wins over the pomodoro countdown: the countdown freezes on
		// the same tick the pause happens.
		afkTimeout := time.Duration(s.Config.AFKTimeoutMinutes) * time.Minute
		if now.Sub(s.LastActivityAt) >= afkTimeout {
			s.Phase = PhasePausedAFK
			s.AFKPauses++
			return append(events, EventAFKPaused)
		}
		if s.Config.PomodoroEnabled {
			s.PomodoroRemainingSeconds--
			if s.PomodoroRemainingSeconds <= 0 {
				s.CompletedPomodoros++
				s.Phase = PhaseBreak
				s.PomodoroRemainingSeconds = s.Config.BreakMinutes * 60
				events = append(events, EventBreakStarted)
			}
		} else if s.Config.microbreaksEnabled() &&
			!s.Microbreak.Pending && !s.Microbreak.DisabledToday &&
			now.Sub(s.Microbreak.LastMark) >= time.Duration(s.Config.MicrobreakIntervalMinutes)*time.Minute {
			s.Microbreak.Pending = true
			events = append(events, EventMicrobreakDue)
		}
	case PhaseBreak:
		s.PomodoroRemainingSeconds--
		if s.PomodoroRemainingSeconds <= 0 {
			s.Phase = PhaseRunning
			s.PomodoroRemainingSeconds = s.Config.WorkMinutes * 60
			events = append(events, EventBreakFinished)
		}
	case PhasePausedAFK, PhaseMicrobreak, PhaseCompleted:
		// Frozen. LastTickAt still advances so resuming never credits
		// the paused span.
	}
	return events
}

// ReportActivity refreshes the AFK deadline. It never resumes a paused
// session; that takes an explicit ConfirmPresence.
func (s *State) ReportActivity(now time.Time) {
	s.LastActivityAt = now
}

func (s *State) IncrementHighlights() {
	s.HighlightsDuring++
}

func (s *State) IncrementNotes() {
	s.NotesDuring++
}

func (s *State) ConfirmPresence(now time.Time) ([]EventType, error) {
	if s.Phase != PhasePausedAFK {
		return nil, apperrors.ErrInvalidPhase
	}
	s.Phase = PhaseRunning
	s.LastActivityAt = now
	s.LastTickAt = now
	return []EventType{EventResumed}, nil
}

func (s *State) DismissAFK(now time.Time) ([]EventType, error) {
	if s.Phase != PhasePausedAFK {
		return nil, apperrors.ErrInvalidPhase
	}
	s.complete(now)
	return []EventType{EventCompleted}, nil
}

func (s *State) SkipBreak(now time.Time) ([]EventType, error) {
	if s.Phase != PhaseBreak && s.Phase != PhaseMicrobreak {
		return nil, apperrors.ErrInvalidPhase
	}
	fromMicrobreak := s.Phase == PhaseMicrobreak
	s.Phase = PhaseRunning
	s.PomodoroRemainingSeconds = 0
	if s.Config.PomodoroEnabled {
		s.PomodoroRemainingSeconds = s.Config.WorkMinutes * 60
	}
	s.LastActivityAt = now
	s.LastTickAt = now
	if fromMicrobreak {
		s.Microbreak.LastMark = now
		return []EventType{EventMicrobreakEnded}, nil
	}
	return []EventType{EventBreakSkipped}, nil
}

func (s *State) Stop(now time.Time) ([]EventType, error) {
	if s.Phase == PhaseCompleted {
		return nil, apperrors.ErrNoActiveSession
	}
	s.complete(now)
	return []EventType{EventCompleted}, nil
}

func (s *State) MicrobreakTake(now time.Time) ([]EventType, error) {
	if s.Phase != PhaseRunning {
		return nil, apperrors.ErrInvalidPhase
	}
	s.Phase = PhaseMicrobreak
	s.Microbreak.Pending = false
	s.Microbreak.Taken++
	s.LastTickAt = now
	return []EventType{EventMicrobreakStarted}, nil
}

func (s *State) MicrobreakEnd(now time.Time) ([]EventType, error) {
	if s.Phase != PhaseMicrobreak {
		return nil, apperrors.ErrInvalidPhase
	}
	s.Phase = PhaseRunning
	s.Microbreak.LastMark = now
	s.LastActivityAt = now
	s.LastTickAt = now
	return []EventType{EventMicrobreakEnded}, nil
}

// MicrobreakPostpone clears an outstanding prompt and restarts the interval
// from now. Valid in any active phase so stray duplicate clicks stay
// harmless.
func (s *State) MicrobreakPostpone(now time.Time) ([]EventType, error) {
	if s.Phase == PhaseCompleted {
		return nil, apperrors.ErrNoActiveSession
	}
	s.Microbreak.Pending = false
	s.Microbreak.Postponed++
	s.Microbreak.LastMark = now
	return []EventType{EventMicrobreakPostponed}, nil
}

func (s *State) MicrobreakDisableToday(now time.Time) ([]EventType, error) {
	if s.Phase == PhaseCompleted {
		return nil, apperrors.ErrNoActiveSession
	}
	s.Microbreak.Pending = false
	s.Microbreak.DisabledToday = true
	return []EventType{EventMicrobreakDisabled}, nil
}

func (s *State) complete(now time.Time) {
	s.Phase = PhaseCompleted
	s.EndedAt = now
	s.Microbreak.Pending = false
}

// Snapshot is the serializable projection sent to observers. It carries no
// references back into the engine.
type Snapshot struct {
	ID                       string    `json:"id"`
	BookID                   string    `json:"bookId"`
	BookTitle                string    `json:"bookTitle,omitempty"`
	State                    Phase     `json:"state"`
	TimerSeconds             int       `json:"timerSeconds"`
	ActiveMs                 int64     `json:"activeMs"`
	PomodoroEnabled          bool      `json:"pomodoroEnabled"`
	PomodoroRemainingSeconds int       `json:"pomodoroRemainingSeconds"`
	CompletedPomodoros       int       `json:"completedPomodoros"`
	HighlightsDuring         int       `json:"highlightsDuring"`
	NotesDuring              int       `json:"notesDuring"`
	MicrobreakPending        bool      `json:"microbreakPending"`
	StartedAt                time.Time `json:"startedAt"`
}

func (s *State) Snapshot() Snapshot {
	return Snapshot{
		ID:                       s.ID,
		BookID:                   s.Config.BookID,
		BookTitle:                s.Config.BookTitle,
		State:                    s.Phase,
		TimerSeconds:             int(s.ActiveMs / 1000),
		ActiveMs:                 s.ActiveMs,
		PomodoroEnabled:          s.Config.PomodoroEnabled,
		PomodoroRemainingSeconds: s.PomodoroRemainingSeconds,
		CompletedPomodoros:       s.CompletedPomodoros,
		HighlightsDuring:         s.HighlightsDuring,
		NotesDuring:              s.NotesDuring,
		MicrobreakPending:        s.Microbreak.Pending,
		StartedAt:                s.StartedAt,
	}
}

// Record is the persisted shape of a session. The store mirrors it; the
// in-memory state stays authoritative while the session is active.
type Record struct {
	ID                 string
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
	Phase              Phase
}

func (s *State) Record() Record {
	return Record{
		ID:                 s.ID,
		BookID:             s.Config.BookID,
		BookTitle:          s.Config.BookTitle,
		StartedAt:          s.StartedAt,
		EndedAt:            s.EndedAt,
		ActiveMs:           s.ActiveMs,
		CompletedPomodoros: s.CompletedPomodoros,
		Highlights:         s.HighlightsDuring,
		Notes:              s.NotesDuring,
		AFKPauses:          s.AFKPauses,
		MicrobreaksTaken:   s.Microbreak.Taken,
		Phase:              s.Phase,
	}
}
