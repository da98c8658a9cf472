package out

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"lectio/internal/modules/stats/domain"
	statsout "lectio/internal/modules/stats/port/out"

	_ "modernc.org/sqlite"
)

const completedState = "completed"

// SQLiteStatsStore aggregates the sessions table the daemon writes. A home
// directory with no history yet reads as empty, not as an error.
type SQLiteStatsStore struct {
	db *sql.DB
}

func NewSQLiteStatsStore(dbPath string) (statsout.StatsStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	return &SQLiteStatsStore{db: db}, nil
}

func (s *SQLiteStatsStore) DailyTotals(ctx context.Context) ([]domain.DailyTotal, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT date(started_at) AS day, COUNT(*), SUM(active_ms), SUM(completed_pomodoros)
FROM sessions
WHERE state = ?
GROUP BY day
ORDER BY day ASC;
`, completedState)
	if err != nil {
		if missingTable(err) {
			return []domain.DailyTotal{}, nil
		}
		return nil, fmt.Errorf("query daily totals: %w", err)
	}
	defer rows.Close()

	out := make([]domain.DailyTotal, 0)
	for rows.Next() {
		bucket := domain.DailyTotal{}
		if err := rows.Scan(&bucket.Day, &bucket.Sessions, &bucket.ActiveMs, &bucket.Pomodoros); err != nil {
			return nil, fmt.Errorf("scan daily total: %w", err)
		}
		out = append(out, bucket)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate daily totals: %w", err)
	}
	return out, nil
}

func (s *SQLiteStatsStore) BookTotals(ctx context.Context) ([]domain.BookTotal, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT book_id, MAX(book_title), COUNT(*), SUM(active_ms), SUM(highlights), SUM(notes), MAX(ended_at)
FROM sessions
WHERE state = ?
GROUP BY book_id
ORDER BY SUM(active_ms) DESC, book_id ASC;
`, completedState)
	if err != nil {
		if missingTable(err) {
			return []domain.BookTotal{}, nil
		}
		return nil, fmt.Errorf("query book totals: %w", err)
	}
	defer rows.Close()

	out := make([]domain.BookTotal, 0)
	for rows.Next() {
		var (
			book      domain.BookTotal
			title     sql.NullString
			lastEnded sql.NullString
		)
		if err := rows.Scan(&book.BookID, &title, &book.Sessions, &book.ActiveMs, &book.Highlights, &book.Notes, &lastEnded); err != nil {
			return nil, fmt.Errorf("scan book total: %w", err)
		}
		book.Title = title.String
		if book.Title == "" {
			book.Title = book.BookID
		}
		if lastEnded.Valid && lastEnded.String != "" {
			if parsed, parseErr := time.Parse(time.RFC3339, lastEnded.String); parseErr == nil {
				book.LastReadAt = parsed
			}
		}
		out = append(out, book)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate book totals: %w", err)
	}
	return out, nil
}

func missingTable(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "no such table")
}
