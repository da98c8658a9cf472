package timer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	sessiondto "lectio/internal/modules/session/dto"
	apperrors "lectio/internal/platform/errors"
	"lectio/internal/ui/theme"
)

// ─── port ────────────────────────────────────────────────────────────────────

type SessionPort interface {
	Snapshot(ctx context.Context) (sessiondto.SnapshotOutput, error)
	Stop(ctx context.Context) (sessiondto.WrapUpOutput, error)
	ConfirmPresence(ctx context.Context) (sessiondto.SnapshotOutput, error)
	DismissAFK(ctx context.Context) (sessiondto.WrapUpOutput, error)
	SkipBreak(ctx context.Context) (sessiondto.SnapshotOutput, error)
	MicrobreakTake(ctx context.Context) (sessiondto.SnapshotOutput, error)
	MicrobreakEnd(ctx context.Context) (sessiondto.SnapshotOutput, error)
	MicrobreakPostpone(ctx context.Context) (sessiondto.SnapshotOutput, error)
	MicrobreakDisableToday(ctx context.Context) (sessiondto.SnapshotOutput, error)
	IncrementHighlights(ctx context.Context) (sessiondto.SnapshotOutput, error)
	IncrementNotes(ctx context.Context) (sessiondto.SnapshotOutput, error)
}

// Phase names as they arrive over the wire.
const (
	phaseRunning    = "running"
	phasePausedAFK  = "paused_afk"
	phaseBreak      = "break"
	phaseMicrobreak = "microbreak"
)

// ─── messages ────────────────────────────────────────────────────────────────

type SnapshotMsg struct {
	Snapshot sessiondto.SnapshotOutput
	Err      error
}

// StoppedMsg bubbles to the app model so it can switch to the wrap-up tab.
type StoppedMsg struct {
	WrapUp sessiondto.WrapUpOutput
	Err    error
}

type pollMsg struct{}

// ─── model ───────────────────────────────────────────────────────────────────

// Model renders the live session. It polls a snapshot once per second; the
// daemon's tick loop stays the only place time advances, this view only
// mirrors it.
type Model struct {
	port       SessionPort
	snapshot   sessiondto.SnapshotOutput
	hasSession bool
	lastErr    string
	spinner    spinner.Model
	loading    bool
	width      int
	height     int
}

func New(port SessionPort) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Lavender)
	return Model{port: port, spinner: sp, loading: true}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.refreshCmd(), m.pollCmd(), m.spinner.Tick)
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case pollMsg:
		return m, tea.Batch(m.refreshCmd(), m.pollCmd())

	case SnapshotMsg:
		m.loading = false
		if msg.Err != nil {
			if errors.Is(msg.Err, apperrors.ErrNoActiveSession) {
				m.hasSession = false
				m.lastErr = ""
			} else {
				m.lastErr = msg.Err.Error()
			}
			return m, nil
		}
		m.hasSession = true
		m.lastErr = ""
		m.snapshot = msg.Snapshot

	case StoppedMsg:
		if msg.Err != nil {
			m.lastErr = msg.Err.Error()
			return m, nil
		}
		m.hasSession = false
		m.snapshot = sessiondto.SnapshotOutput{}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if !m.hasSession {
			return m, nil
		}
		switch msg.String() {
		case "x":
			return m, m.stopCmd()
		case "p":
			return m, m.commandCmd(m.port.ConfirmPresence)
		case "D":
			if m.snapshot.State == phasePausedAFK {
				return m, m.dismissCmd()
			}
		case "b":
			return m, m.commandCmd(m.port.SkipBreak)
		case "m":
			if m.snapshot.State == phaseMicrobreak {
				return m, m.commandCmd(m.port.MicrobreakEnd)
			}
			return m, m.commandCmd(m.port.MicrobreakTake)
		case "M":
			return m, m.commandCmd(m.port.MicrobreakPostpone)
		case "d":
			return m, m.commandCmd(m.port.MicrobreakDisableToday)
		case "h":
			return m, m.commandCmd(m.port.IncrementHighlights)
		case "n":
			return m, m.commandCmd(m.port.IncrementNotes)
		}
	}
	return m, nil
}

// ─── view ────────────────────────────────────────────────────────────────────

func (m Model) View() string {
	if m.loading {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
			m.spinner.View()+" Checking for a session…")
	}
	if !m.hasSession {
		idle := theme.Muted.Render("No active session.") + "\n\n" +
			theme.Muted.Render("Pick a book on the Library tab and press s to start.")
		if m.lastErr != "" {
			idle += "\n\n" + theme.Hot.Render(m.lastErr)
		}
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, idle)
	}

	snap := m.snapshot
	var sb strings.Builder
	sb.WriteString(m.renderPhase(snap.State) + "\n\n")
	sb.WriteString(theme.Title.Render(formatClock(snap.TimerSeconds)) + "\n\n")
	if snap.BookTitle != "" {
		sb.WriteString(theme.Muted.Render("reading  ") + snap.BookTitle + "\n")
	} else {
		sb.WriteString(theme.Muted.Render("reading  ") + snap.BookID + "\n")
	}
	if snap.PomodoroEnabled {
		sb.WriteString(fmt.Sprintf("%s%s left, %d done\n",
			theme.Muted.Render("pomodoro "), formatClock(snap.PomodoroRemainingSeconds), snap.CompletedPomodoros))
	}
	sb.WriteString(fmt.Sprintf("%s%d highlights, %d notes\n",
		theme.Muted.Render("captured "), snap.HighlightsDuring, snap.NotesDuring))

	if banner := m.renderBanner(snap); banner != "" {
		sb.WriteString("\n" + banner + "\n")
	}
	if m.lastErr != "" {
		sb.WriteString("\n" + theme.Hot.Render(m.lastErr) + "\n")
	}
	sb.WriteString("\n" + theme.Muted.Render("h: highlight  n: note  x: stop"))

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, sb.String())
}

func (m Model) renderPhase(state string) string {
	switch state {
	case phaseRunning:
		return theme.Good.Render("● reading")
	case phasePausedAFK:
		return theme.Hot.Render("◌ paused, away from keyboard")
	case phaseBreak:
		return theme.Hot.Render("☕ break")
	case phaseMicrobreak:
		return theme.Hot.Render("⏸ microbreak")
	}
	return theme.Muted.Render(state)
}

func (m Model) renderBanner(snap sessiondto.SnapshotOutput) string {
	switch {
	case snap.State == phasePausedAFK:
		return theme.Hot.Render("Still there?") + theme.Muted.Render("  p: I'm here  D: wrap up")
	case snap.State == phaseBreak:
		return theme.Muted.Render("b: skip break")
	case snap.State == phaseMicrobreak:
		return theme.Muted.Render("Stand up, look away.  m: done")
	case snap.MicrobreakPending:
		return theme.Hot.Render("Microbreak due.") + theme.Muted.Render("  m: take  M: later  d: not today")
	}
	return ""
}

// ─── commands ────────────────────────────────────────────────────────────────

func (m Model) pollCmd() tea.Cmd {
	return tea.Tick(time.Second, func(time.Time) tea.Msg { return pollMsg{} })
}

func (m Model) refreshCmd() tea.Cmd {
	return func() tea.Msg {
		snap, err := m.port.Snapshot(context.Background())
		return SnapshotMsg{Snapshot: snap, Err: err}
	}
}

func (m Model) commandCmd(call func(context.Context) (sessiondto.SnapshotOutput, error)) tea.Cmd {
	return func() tea.Msg {
		snap, err := call(context.Background())
		return SnapshotMsg{Snapshot: snap, Err: err}
	}
}

func (m Model) stopCmd() tea.Cmd {
	return func() tea.Msg {
		wrap, err := m.port.Stop(context.Background())
		return StoppedMsg{WrapUp: wrap, Err: err}
	}
}

func (m Model) dismissCmd() tea.Cmd {
	return func() tea.Msg {
		wrap, err := m.port.DismissAFK(context.Background())
		return StoppedMsg{WrapUp: wrap, Err: err}
	}
}

func formatClock(totalSeconds int) string {
	if totalSeconds < 0 {
		totalSeconds = 0
	}
	h := totalSeconds / 3600
	mnt := totalSeconds % 3600 / 60
	s := totalSeconds % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, mnt, s)
	}
	return fmt.Sprintf("%02d:%02d", mnt, s)
}
