package out

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"lectio/internal/modules/session/domain"
	sessionout "lectio/internal/modules/session/port/out"
	"lectio/internal/platform/markdown"
	"lectio/internal/platform/slug"
)

// MarkdownWrapUpExporter writes wrap-up notes under
// <home>/notes/sessions/<year>/<month>/<day>/.
type MarkdownWrapUpExporter struct {
	homePath string
}

func NewMarkdownWrapUpExporter(homePath string) sessionout.WrapUpExporter {
	return &MarkdownWrapUpExporter{homePath: homePath}
}

func (e *MarkdownWrapUpExporter) Export(_ context.Context, wrap domain.WrapUp) (string, error) {
	started := wrap.StartedAt
	dir := filepath.Join(e.homePath, "notes", "sessions", started.Format("2006"), started.Format("01"), started.Format("02"))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create wrap-up dir: %w", err)
	}
	title := wrap.BookTitle
	if title == "" {
		title = wrap.BookID
	}
	name := fmt.Sprintf("%s-%s.md", started.Format("150405"), slug.Make(title))
	path := filepath.Join(dir, name)

	meta := map[string]any{
		"id":                  wrap.SessionID,
		"book_id":             wrap.BookID,
		"book_title":          wrap.BookTitle,
		"started_at":          wrap.StartedAt.Format("2006-01-02T15:04:05Z07:00"),
		"ended_at":            wrap.EndedAt.Format("2006-01-02T15:04:05Z07:00"),
		"active_minutes":      wrap.ActiveMs / 60_000,
		"completed_pomodoros": wrap.CompletedPomodoros,
		"highlights":          wrap.Highlights,
		"notes":               wrap.Notes,
		"afk_pauses":          wrap.AFKPauses,
		"microbreaks_taken":   wrap.MicrobreaksTaken,
	}
	body := strings.Builder{}
	fmt.Fprintf(&body, "# Session %s\n\n- Book: [[%s]]\n- Active: %d minutes\n- Pomodoros: %d\n", wrap.SessionID, title, wrap.ActiveMs/60_000, wrap.CompletedPomodoros)
	if len(wrap.TopHighlights) > 0 {
		body.WriteString("\n## Top highlights\n\n")
		for _, excerpt := range wrap.TopHighlights {
			fmt.Fprintf(&body, "- %s\n", excerpt.Body)
		}
	}
	rendered, err := markdown.RenderFrontmatter(meta, body.String())
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, []byte(rendered), 0o644); err != nil {
		return "", fmt.Errorf("write wrap-up note: %w", err)
	}
	return path, nil
}
