package out

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"lectio/internal/modules/annotation/domain"

	_ "modernc.org/sqlite"
)

// SQLiteAnnotationStore persists highlights and notes. It also implements
// tx.Manager; both roles share the one database handle.
type SQLiteAnnotationStore struct {
	db *sql.DB
}

func NewSQLiteAnnotationStore(dbPath string) (*SQLiteAnnotationStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	store := &SQLiteAnnotationStore{db: db}
	if err := store.ensureSchema(context.Background()); err != nil {
		return nil, err
	}
	return store, nil
}

func (s *SQLiteAnnotationStore) ensureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS annotations (
  id TEXT PRIMARY KEY,
  session_id TEXT NOT NULL,
  book_id TEXT NOT NULL,
  kind TEXT NOT NULL,
  body TEXT NOT NULL,
  created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS annotations_session ON annotations (session_id, created_at);
`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create annotations table: %w", err)
	}
	return nil
}

type txKey struct{}

// Within runs fn inside one transaction; the store's writes pick it up
// from the context.
func (s *SQLiteAnnotationStore) Within(ctx context.Context, fn func(context.Context) error) error {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(context.WithValue(ctx, txKey{}, dbTx)); err != nil {
		_ = dbTx.Rollback()
		return err
	}
	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *SQLiteAnnotationStore) writer(ctx context.Context) execer {
	if dbTx, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return dbTx
	}
	return s.db
}

func (s *SQLiteAnnotationStore) Insert(ctx context.Context, annotation domain.Annotation) error {
	const stmt = `
INSERT INTO annotations (id, session_id, book_id, kind, body, created_at)
VALUES (?, ?, ?, ?, ?, ?);
`
	_, err := s.writer(ctx).ExecContext(ctx, stmt,
		annotation.ID,
		annotation.SessionID,
		annotation.BookID,
		string(annotation.Kind),
		annotation.Body,
		annotation.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("insert annotation: %w", err)
	}
	return nil
}

const annotationColumns = `id, session_id, book_id, kind, body, created_at`

func (s *SQLiteAnnotationStore) BySession(ctx context.Context, sessionID string) ([]domain.Annotation, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+annotationColumns+` FROM annotations WHERE session_id = ? ORDER BY created_at ASC`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query annotations: %w", err)
	}
	return collectAnnotations(rows)
}

func (s *SQLiteAnnotationStore) RecentByKind(ctx context.Context, sessionID string, kind domain.Kind, limit int) ([]domain.Annotation, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+annotationColumns+` FROM annotations WHERE session_id = ? AND kind = ? ORDER BY created_at DESC LIMIT ?`,
		sessionID, string(kind), limit)
	if err != nil {
		return nil, fmt.Errorf("query annotations: %w", err)
	}
	return collectAnnotations(rows)
}

func collectAnnotations(rows *sql.Rows) ([]domain.Annotation, error) {
	defer rows.Close()
	annotations := []domain.Annotation{}
	for rows.Next() {
		var (
			annotation domain.Annotation
			kind       string
			createdAt  string
		)
		err := rows.Scan(
			&annotation.ID,
			&annotation.SessionID,
			&annotation.BookID,
			&kind,
			&annotation.Body,
			&createdAt,
		)
		if err != nil {
			return nil, err
		}
		annotation.Kind = domain.Kind(kind)
		if parsed, parseErr := time.Parse(time.RFC3339, createdAt); parseErr == nil {
			annotation.CreatedAt = parsed
		}
		annotations = append(annotations, annotation)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate annotations: %w", err)
	}
	return annotations, nil
}
