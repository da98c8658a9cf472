package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	librarydto "lectio/internal/modules/library/dto"
	sessiondto "lectio/internal/modules/session/dto"
	apperrors "lectio/internal/platform/errors"
	"lectio/internal/ui/theme"
	libraryview "lectio/internal/ui/views/library"
	timerview "lectio/internal/ui/views/timer"
	wrapupview "lectio/internal/ui/views/wrapup"
)

// ─── ports ───────────────────────────────────────────────────────────────────
// Each port is the minimal interface that this orchestration layer requires.
// Sub-view ports are defined in their own packages and narrowed further.

type libraryPort interface {
	ListBooks(ctx context.Context) ([]librarydto.BookOutput, error)
	GetBook(ctx context.Context, ref string) (librarydto.BookDetailOutput, error)
}

type sessionPort interface {
	Start(ctx context.Context, bookRef string, pomodoroSet, pomodoroEnabled bool, workMinutes, breakMinutes, afkTimeoutMinutes, microbreakIntervalMinutes int) (sessiondto.SnapshotOutput, error)
	Stop(ctx context.Context) (sessiondto.WrapUpOutput, error)
	Snapshot(ctx context.Context) (sessiondto.SnapshotOutput, error)
	WrapUp(ctx context.Context) (sessiondto.WrapUpOutput, error)
	WrapUpExport(ctx context.Context) (string, error)
	ReportActivity(ctx context.Context) error
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

// ─── tab index ───────────────────────────────────────────────────────────────

type tabID int

const (
	tabTimer tabID = iota
	tabLibrary
	tabWrapUp
	tabCount
)

var tabLabels = [tabCount]string{
	"Timer", "Library", "Wrap-up",
}

// ─── async messages ───────────────────────────────────────────────────────────

type sessionStartedMsg struct {
	snapshot sessiondto.SnapshotOutput
	err      error
}

// ─── key bindings ─────────────────────────────────────────────────────────────

type keyMap struct {
	Tab      key.Binding
	Help     key.Binding
	Quit     key.Binding
	Start    key.Binding
	Stop     key.Binding
	Mark     key.Binding
	Presence key.Binding
	Micro    key.Binding
	Export   key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Tab:      key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next tab")),
		Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:     key.NewBinding(key.WithKeys("ctrl+c", "q"), key.WithHelp("q", "quit")),
		Start:    key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "start session")),
		Stop:     key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "stop session")),
		Mark:     key.NewBinding(key.WithKeys("h", "n"), key.WithHelp("h/n", "highlight / note")),
		Presence: key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "i'm here")),
		Micro:    key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "microbreak")),
		Export:   key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "export wrap-up")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Tab, k.Start, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Tab, k.Start, k.Stop},
		{k.Mark, k.Presence, k.Micro},
		{k.Export, k.Help, k.Quit},
	}
}

// Any keypress counts as activity. The report is throttled so the daemon is
// not called on every keystroke.
const activityThrottle = 10 * time.Second

// ─── model ───────────────────────────────────────────────────────────────────

// Model is the root Bubble Tea model. It owns tab routing, the status bar,
// and the global help overlay. All business logic is delegated to port
// interfaces; all rendering is delegated to sub-views.
type Model struct {
	session sessionPort

	// sub-views (one per tab)
	timerView timerview.Model
	libView   libraryview.Model
	wrapView  wrapupview.Model

	// global UI state
	activeTab    tabID
	keys         keyMap
	help         help.Model
	showHelp     bool
	hasActive    bool
	liveTitle    string
	status       string
	lastActivity time.Time
	width        int
	height       int
}

// ─── constructor ─────────────────────────────────────────────────────────────

func NewModel(library libraryPort, session sessionPort) Model {
	return Model{
		session:   session,
		timerView: timerview.New(timerPortBridge{p: session}),
		libView:   libraryview.New(libraryPortBridge{p: library}),
		wrapView:  wrapupview.New(wrapupPortBridge{p: session}),
		activeTab: tabTimer,
		keys:      defaultKeys(),
		help:      help.New(),
		status:    "ready",
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.timerView.Init(),
		m.libView.Init(),
		m.wrapView.Init(),
	)
}

// ─── update ───────────────────────────────────────────────────────────────────

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = m.width
		m.propagateSize()
		return m, nil

	// Sub-view load results are routed to their owner no matter which tab
	// has focus, so a background view never gets stuck loading.
	case libraryview.BooksLoadedMsg, libraryview.DetailLoadedMsg:
		var cmd tea.Cmd
		m.libView, cmd = m.libView.Update(msg)
		return m, cmd

	case wrapupview.LoadedMsg:
		var cmd tea.Cmd
		m.wrapView, cmd = m.wrapView.Update(msg)
		return m, cmd

	case timerview.SnapshotMsg:
		if msg.Err == nil {
			m.hasActive = true
			m.liveTitle = snapshotTitle(msg.Snapshot)
		} else if errors.Is(msg.Err, apperrors.ErrNoActiveSession) {
			m.hasActive = false
			m.liveTitle = ""
		}
		var cmd tea.Cmd
		m.timerView, cmd = m.timerView.Update(msg)
		return m, cmd

	case sessionStartedMsg:
		if msg.err != nil {
			m.status = "session start failed: " + msg.err.Error()
			return m, nil
		}
		m.hasActive = true
		m.liveTitle = snapshotTitle(msg.snapshot)
		m.status = "session started: " + m.liveTitle
		m.activeTab = tabTimer
		var cmd tea.Cmd
		m.timerView, cmd = m.timerView.Update(timerview.SnapshotMsg{Snapshot: msg.snapshot})
		return m, cmd

	// StoppedMsg is produced by the timer view but bubbles up through the
	// top level so we can auto-switch to the Wrap-up tab.
	case timerview.StoppedMsg:
		var cmd tea.Cmd
		m.timerView, cmd = m.timerView.Update(msg)
		if msg.Err != nil {
			m.status = "session stop failed: " + msg.Err.Error()
			return m, cmd
		}
		m.hasActive = false
		m.liveTitle = ""
		m.status = fmt.Sprintf("session complete: %s active, %d highlights, %d notes",
			formatActive(msg.WrapUp.ActiveMs), msg.WrapUp.Highlights, msg.WrapUp.Notes)
		m.activeTab = tabWrapUp
		return m, tea.Batch(cmd, m.wrapView.Reload())

	case wrapupview.ExportedMsg:
		if msg.Err != nil {
			m.status = "wrap-up export failed: " + msg.Err.Error()
		} else {
			m.status = "wrap-up note written: " + msg.Path
		}
		var cmd tea.Cmd
		m.wrapView, cmd = m.wrapView.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if time.Since(m.lastActivity) >= activityThrottle {
			m.lastActivity = time.Now()
			cmds = append(cmds, m.reportActivityCmd())
		}

		if m.showHelp {
			if msg.String() == "?" || msg.String() == "esc" {
				m.showHelp = false
			}
			return m, tea.Batch(cmds...)
		}

		// Yield to the library view when its search filter is active.
		if m.subViewFiltering() {
			break
		}

		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "tab":
			m.activeTab = (m.activeTab + 1) % tabCount
		case "shift+tab":
			m.activeTab = (m.activeTab + tabCount - 1) % tabCount
		case "?":
			m.showHelp = !m.showHelp
		case "s", "enter":
			if m.activeTab == tabLibrary {
				if id, ok := m.libView.SelectedBookID(); ok {
					cmds = append(cmds, m.startSessionCmd(id))
				}
			}
		}
	}

	// The timer keeps its one-second poll loop alive even when another tab
	// has focus, so every non-key message also reaches it. Keys only go to
	// the focused tab.
	if _, isKey := msg.(tea.KeyMsg); !isKey && m.activeTab != tabTimer {
		var cmd tea.Cmd
		m.timerView, cmd = m.timerView.Update(msg)
		cmds = append(cmds, cmd)
	}

	var tabCmd tea.Cmd
	switch m.activeTab {
	case tabTimer:
		m.timerView, tabCmd = m.timerView.Update(msg)
	case tabLibrary:
		m.libView, tabCmd = m.libView.Update(msg)
	case tabWrapUp:
		m.wrapView, tabCmd = m.wrapView.Update(msg)
	}
	cmds = append(cmds, tabCmd)

	return m, tea.Batch(cmds...)
}

// ─── view ────────────────────────────────────────────────────────────────────

func (m Model) View() string {
	tabBar := m.renderTabBar()
	statusBar := m.renderStatusBar()
	tabBarH := lipgloss.Height(tabBar)
	statusBarH := lipgloss.Height(statusBar)

	contentH := m.height - tabBarH - statusBarH
	if contentH < 1 {
		contentH = 1
	}

	var content string
	if m.showHelp {
		content = lipgloss.NewStyle().Width(m.width).Height(contentH).
			Render(m.help.View(m.keys))
	} else {
		content = m.activeView()
	}

	return lipgloss.JoinVertical(lipgloss.Left, tabBar, content, statusBar)
}

func (m Model) activeView() string {
	switch m.activeTab {
	case tabTimer:
		return m.timerView.View()
	case tabLibrary:
		return m.libView.View()
	case tabWrapUp:
		return m.wrapView.View()
	}
	return ""
}

func (m Model) renderTabBar() string {
	parts := make([]string, tabCount)
	for i := tabID(0); i < tabCount; i++ {
		label := tabLabels[i]
		if i == m.activeTab {
			parts[i] = theme.Hot.Render(" " + label + " ")
		} else {
			parts[i] = theme.Muted.Render(" " + label + " ")
		}
	}
	sep := theme.Muted.Render(" │ ")
	bar := "lectio  " + strings.Join(parts, sep)
	return theme.Bar.Width(m.width).Render(bar) + "\n"
}

func (m Model) renderStatusBar() string {
	left := m.status
	if m.hasActive {
		left = theme.Good.Render("● "+m.liveTitle) + "  " + left
	}
	right := theme.Muted.Render("?:help  tab:switch  q:quit")
	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	bar := left + strings.Repeat(" ", gap) + right
	return "\n" + theme.Bar.Width(m.width).Render(bar)
}

// ─── helpers ─────────────────────────────────────────────────────────────────

// subViewFiltering reports whether the library's list filter is open, in
// which case global key bindings must yield to allow free typing.
func (m Model) subViewFiltering() bool {
	return m.activeTab == tabLibrary && m.libView.Filtering()
}

func (m *Model) propagateSize() {
	sz := tea.WindowSizeMsg{Width: m.width, Height: m.height - 3}
	m.timerView, _ = m.timerView.Update(sz)
	m.libView, _ = m.libView.Update(sz)
	m.wrapView, _ = m.wrapView.Update(sz)
}

func snapshotTitle(snap sessiondto.SnapshotOutput) string {
	if snap.BookTitle != "" {
		return snap.BookTitle
	}
	return snap.BookID
}

func formatActive(activeMs int64) string {
	d := time.Duration(activeMs) * time.Millisecond
	return d.Round(time.Second).String()
}

// ─── async commands ───────────────────────────────────────────────────────────

func (m Model) startSessionCmd(bookID string) tea.Cmd {
	return func() tea.Msg {
		// No overrides from the TUI; a negative microbreak interval means
		// "use the stored setting" because zero turns microbreaks off.
		snap, err := m.session.Start(context.Background(), bookID, false, false, 0, 0, 0, -1)
		return sessionStartedMsg{snapshot: snap, err: err}
	}
}

func (m Model) reportActivityCmd() tea.Cmd {
	return func() tea.Msg {
		// Errors are dropped; with no session running there is nothing
		// to report.
		_ = m.session.ReportActivity(context.Background())
		return nil
	}
}

// ─── port bridges ─────────────────────────────────────────────────────────────
// Each bridge narrows a broad port interface to the minimal interface needed by
// a specific sub-view, keeping view packages free of knowledge about the wider
// port surface.

type libraryPortBridge struct{ p libraryPort }

func (b libraryPortBridge) ListBooks(ctx context.Context) ([]librarydto.BookOutput, error) {
	return b.p.ListBooks(ctx)
}
func (b libraryPortBridge) GetBook(ctx context.Context, ref string) (librarydto.BookDetailOutput, error) {
	return b.p.GetBook(ctx, ref)
}

type timerPortBridge struct{ p sessionPort }

func (b timerPortBridge) Snapshot(ctx context.Context) (sessiondto.SnapshotOutput, error) {
	return b.p.Snapshot(ctx)
}
func (b timerPortBridge) Stop(ctx context.Context) (sessiondto.WrapUpOutput, error) {
	return b.p.Stop(ctx)
}
func (b timerPortBridge) ConfirmPresence(ctx context.Context) (sessiondto.SnapshotOutput, error) {
	return b.p.ConfirmPresence(ctx)
}
func (b timerPortBridge) DismissAFK(ctx context.Context) (sessiondto.WrapUpOutput, error) {
	return b.p.DismissAFK(ctx)
}
func (b timerPortBridge) SkipBreak(ctx context.Context) (sessiondto.SnapshotOutput, error) {
	return b.p.SkipBreak(ctx)
}
func (b timerPortBridge) MicrobreakTake(ctx context.Context) (sessiondto.SnapshotOutput, error) {
	return b.p.MicrobreakTake(ctx)
}
func (b timerPortBridge) MicrobreakEnd(ctx context.Context) (sessiondto.SnapshotOutput, error) {
	return b.p.MicrobreakEnd(ctx)
}
func (b timerPortBridge) MicrobreakPostpone(ctx context.Context) (sessiondto.SnapshotOutput, error) {
	return b.p.MicrobreakPostpone(ctx)
}
func (b timerPortBridge) MicrobreakDisableToday(ctx context.Context) (sessiondto.SnapshotOutput, error) {
	return b.p.MicrobreakDisableToday(ctx)
}
func (b timerPortBridge) IncrementHighlights(ctx context.Context) (sessiondto.SnapshotOutput, error) {
	return b.p.IncrementHighlights(ctx)
}
func (b timerPortBridge) IncrementNotes(ctx context.Context) (sessiondto.SnapshotOutput, error) {
	return b.p.IncrementNotes(ctx)
}

type wrapupPortBridge struct{ p sessionPort }

func (b wrapupPortBridge) WrapUp(ctx context.Context) (sessiondto.WrapUpOutput, error) {
	return b.p.WrapUp(ctx)
}
func (b wrapupPortBridge) WrapUpExport(ctx context.Context) (string, error) {
	return b.p.WrapUpExport(ctx)
}
