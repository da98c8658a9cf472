package domain

import "time"

// Settings hold the user-tunable defaults applied when a start request
// leaves a knob unset. MicrobreakDisabledOn is a date marker that outlives
// any single session.
type Settings struct {
	PomodoroEnabled           bool
	WorkMinutes               int
	BreakMinutes              int
	AFKTimeoutMinutes         int
	MicrobreakIntervalMinutes int
	WrapUpHighlights          int
	MicrobreakDisabledOn      string
}

func DefaultSettings() Settings {
	return Settings{
		PomodoroEnabled:           false,
		WorkMinutes:               DefaultWorkMinutes,
		BreakMinutes:              DefaultBreakMinutes,
		AFKTimeoutMinutes:         DefaultAFKTimeoutMinutes,
		MicrobreakIntervalMinutes: DefaultMicrobreakIntervalMinutes,
		WrapUpHighlights:          5,
	}
}

func (s Settings) MicrobreakDisabledFor(now time.Time) bool {
	return s.MicrobreakDisabledOn != "" && s.MicrobreakDisabledOn == now.Format(time.DateOnly)
}
