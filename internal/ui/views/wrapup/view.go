package wrapup

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	sessiondto "lectio/internal/modules/session/dto"
	apperrors "lectio/internal/platform/errors"
	"lectio/internal/ui/theme"
)

// ─── port ────────────────────────────────────────────────────────────────────

type WrapUpPort interface {
	WrapUp(ctx context.Context) (sessiondto.WrapUpOutput, error)
	WrapUpExport(ctx context.Context) (string, error)
}

// ─── messages ────────────────────────────────────────────────────────────────

type LoadedMsg struct {
	WrapUp sessiondto.WrapUpOutput
	Err    error
}

// ExportedMsg bubbles to the app model so the status bar can show the path.
type ExportedMsg struct {
	Path string
	Err  error
}

// ─── model ───────────────────────────────────────────────────────────────────

// Model shows the most recent wrap-up as rendered markdown.
type Model struct {
	port     WrapUpPort
	wrap     sessiondto.WrapUpOutput
	hasWrap  bool
	empty    bool
	lastErr  string
	renderer *glamour.TermRenderer
	content  viewport.Model
	width    int
	height   int
}

func New(port WrapUpPort) Model {
	r, _ := glamour.NewTermRenderer(
		glamour.WithStylePath("dark"),
		glamour.WithWordWrap(0),
	)
	vp := viewport.New(0, 0)
	vp.Style = lipgloss.NewStyle().
		Background(theme.Mantle).
		Foreground(theme.Text).
		Padding(1)
	return Model{port: port, renderer: r, content: vp}
}

func (m Model) Init() tea.Cmd {
	return m.loadCmd()
}

// Reload refetches the latest wrap-up; the app calls this after a session
// completes.
func (m Model) Reload() tea.Cmd {
	return m.loadCmd()
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.content.Width = m.width - 4
		m.content.Height = m.height - 4
		// Rebuild the glamour renderer so it word-wraps at the new width.
		if r, err := glamour.NewTermRenderer(
			glamour.WithStylePath("dark"),
			glamour.WithWordWrap(m.content.Width),
		); err == nil {
			m.renderer = r
		}
		if m.hasWrap {
			m.setContent()
		}

	case LoadedMsg:
		if msg.Err != nil {
			m.hasWrap = false
			if errors.Is(msg.Err, apperrors.ErrNotFound) {
				m.empty = true
				m.lastErr = ""
			} else {
				m.lastErr = msg.Err.Error()
			}
			return m, nil
		}
		m.hasWrap = true
		m.empty = false
		m.lastErr = ""
		m.wrap = msg.WrapUp
		m.setContent()

	case ExportedMsg:
		if msg.Err != nil {
			m.lastErr = msg.Err.Error()
		}

	case tea.KeyMsg:
		switch msg.String() {
		case "e":
			if m.hasWrap {
				return m, m.exportCmd()
			}
		case "r":
			return m, m.loadCmd()
		}
	}

	var cmd tea.Cmd
	m.content, cmd = m.content.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if m.empty {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
			theme.Muted.Render("No finished sessions yet."))
	}
	if !m.hasWrap {
		message := "Loading wrap-up…"
		if m.lastErr != "" {
			message = m.lastErr
		}
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
			theme.Muted.Render(message))
	}
	body := theme.Pane.
		Width(m.width - 2).
		Height(m.height - 2).
		Render(m.content.View())
	return body
}

// ─── private ─────────────────────────────────────────────────────────────────

func (m *Model) setContent() {
	rendered, err := m.renderer.Render(m.reportMarkdown())
	if err != nil {
		rendered = m.reportMarkdown()
	}
	footer := theme.Muted.Render("e: export note  r: refresh")
	m.content.SetContent(rendered + "\n" + footer)
}

func (m Model) reportMarkdown() string {
	w := m.wrap
	title := w.BookTitle
	if title == "" {
		title = w.BookID
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "# Wrap-up: %s\n\n", title)
	fmt.Fprintf(&sb, "%s to %s\n\n", w.StartedAt.Local().Format("Mon 15:04"), w.EndedAt.Local().Format("15:04"))
	fmt.Fprintf(&sb, "- **Active reading**: %s\n", formatDuration(w.ActiveMs))
	fmt.Fprintf(&sb, "- **Pomodoros**: %d\n", w.CompletedPomodoros)
	fmt.Fprintf(&sb, "- **Highlights**: %d\n", w.Highlights)
	fmt.Fprintf(&sb, "- **Notes**: %d\n", w.Notes)
	fmt.Fprintf(&sb, "- **AFK pauses**: %d\n", w.AFKPauses)
	fmt.Fprintf(&sb, "- **Microbreaks**: %d\n", w.MicrobreaksTaken)
	if len(w.TopHighlights) > 0 {
		sb.WriteString("\n## Top highlights\n\n")
		for _, excerpt := range w.TopHighlights {
			fmt.Fprintf(&sb, "> %s\n\n", excerpt.Body)
		}
	}
	return sb.String()
}

func (m Model) loadCmd() tea.Cmd {
	return func() tea.Msg {
		wrap, err := m.port.WrapUp(context.Background())
		return LoadedMsg{WrapUp: wrap, Err: err}
	}
}

func (m Model) exportCmd() tea.Cmd {
	return func() tea.Msg {
		path, err := m.port.WrapUpExport(context.Background())
		return ExportedMsg{Path: path, Err: err}
	}
}

func formatDuration(activeMs int64) string {
	totalSeconds := activeMs / 1000
	h := totalSeconds / 3600
	mnt := totalSeconds % 3600 / 60
	s := totalSeconds % 60
	if h > 0 {
		return fmt.Sprintf("%dh%02dm", h, mnt)
	}
	if mnt > 0 {
		return fmt.Sprintf("%dm%02ds", mnt, s)
	}
	return fmt.Sprintf("%ds", s)
}
