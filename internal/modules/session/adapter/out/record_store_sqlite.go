package out

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"lectio/internal/modules/session/domain"
	sessionout "lectio/internal/modules/session/port/out"
	apperrors "lectio/internal/platform/errors"

	_ "modernc.org/sqlite"
)

type SQLiteRecordStore struct {
	db *sql.DB
}

// NewSQLiteRecordStore opens (or creates) the session history database.
// WAL mode keeps the daemon's writes from blocking CLI reads.
func NewSQLiteRecordStore(dbPath string) (sessionout.RecordStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	store := &SQLiteRecordStore{db: db}
	if err := store.ensureSchema(context.Background()); err != nil {
		return nil, err
	}
	return store, nil
}

func (s *SQLiteRecordStore) ensureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS sessions (
  id TEXT PRIMARY KEY,
  book_id TEXT NOT NULL,
  book_title TEXT,
  state TEXT NOT NULL,
  started_at TEXT NOT NULL,
  ended_at TEXT,
  active_ms INTEGER NOT NULL,
  completed_pomodoros INTEGER NOT NULL,
  highlights INTEGER NOT NULL,
  notes INTEGER NOT NULL,
  afk_pauses INTEGER NOT NULL,
  microbreaks_taken INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS sessions_started_at ON sessions (started_at);
`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create sessions table: %w", err)
	}
	return nil
}

func (s *SQLiteRecordStore) Save(ctx context.Context, record domain.Record) error {
	const stmt = `
INSERT INTO sessions (id, book_id, book_title, state, started_at, ended_at, active_ms, completed_pomodoros, highlights, notes, afk_pauses, microbreaks_taken)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
  book_id=excluded.book_id,
  book_title=excluded.book_title,
  state=excluded.state,
  started_at=excluded.started_at,
  ended_at=excluded.ended_at,
  active_ms=excluded.active_ms,
  completed_pomodoros=excluded.completed_pomodoros,
  highlights=excluded.highlights,
  notes=excluded.notes,
  afk_pauses=excluded.afk_pauses,
  microbreaks_taken=excluded.microbreaks_taken;
`
	endedAt := ""
	if !record.EndedAt.IsZero() {
		endedAt = record.EndedAt.UTC().Format(time.RFC3339)
	}
	_, err := s.db.ExecContext(ctx, stmt,
		record.ID,
		record.BookID,
		record.BookTitle,
		string(record.Phase),
		record.StartedAt.UTC().Format(time.RFC3339),
		endedAt,
		record.ActiveMs,
		record.CompletedPomodoros,
		record.Highlights,
		record.Notes,
		record.AFKPauses,
		record.MicrobreaksTaken,
	)
	if err != nil {
		return fmt.Errorf("upsert session: %w", err)
	}
	return nil
}

const recordColumns = `id, book_id, book_title, state, started_at, ended_at, active_ms, completed_pomodoros, highlights, notes, afk_pauses, microbreaks_taken`

func (s *SQLiteRecordStore) Get(ctx context.Context, sessionID string) (domain.Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+recordColumns+` FROM sessions WHERE id = ?`, sessionID)
	record, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Record{}, apperrors.ErrNotFound
	}
	return record, err
}

func (s *SQLiteRecordStore) Latest(ctx context.Context) (domain.Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+recordColumns+` FROM sessions WHERE state = ? ORDER BY ended_at DESC LIMIT 1`,
		string(domain.PhaseCompleted))
	record, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Record{}, apperrors.ErrNotFound
	}
	return record, err
}

func (s *SQLiteRecordStore) Recent(ctx context.Context, limit int) ([]domain.Record, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+recordColumns+` FROM sessions ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	records := make([]domain.Record, 0, limit)
	for rows.Next() {
		record, scanErr := scanRecord(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return records, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (domain.Record, error) {
	var (
		record    domain.Record
		state     string
		startedAt string
		endedAt   string
	)
	err := row.Scan(
		&record.ID,
		&record.BookID,
		&record.BookTitle,
		&state,
		&startedAt,
		&endedAt,
		&record.ActiveMs,
		&record.CompletedPomodoros,
		&record.Highlights,
		&record.Notes,
		&record.AFKPauses,
		&record.MicrobreaksTaken,
	)
	if err != nil {
		return domain.Record{}, err
	}
	record.Phase = domain.Phase(state)
	if parsed, parseErr := time.Parse(time.RFC3339, startedAt); parseErr == nil {
		record.StartedAt = parsed
	}
	if endedAt != "" {
		if parsed, parseErr := time.Parse(time.RFC3339, endedAt); parseErr == nil {
			record.EndedAt = parsed
		}
	}
	return record, nil
}
