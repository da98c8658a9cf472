package out

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"lectio/internal/modules/library/domain"
	libraryout "lectio/internal/modules/library/port/out"

	_ "modernc.org/sqlite"
)

type SQLiteBookIndex struct {
	db *sql.DB
}

func NewSQLiteBookIndex(dbPath string) (libraryout.BookIndex, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	index := &SQLiteBookIndex{db: db}
	if err := index.ensureSchema(context.Background()); err != nil {
		return nil, err
	}
	return index, nil
}

func (s *SQLiteBookIndex) ensureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS books (
  id TEXT PRIMARY KEY,
  title TEXT NOT NULL,
  slug TEXT NOT NULL,
  format TEXT,
  file_path TEXT,
  card_path TEXT,
  status TEXT,
  page_count INTEGER NOT NULL DEFAULT 0,
  current_page INTEGER NOT NULL DEFAULT 0,
  updated_at TEXT NOT NULL
);
`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create books table: %w", err)
	}
	return nil
}

func (s *SQLiteBookIndex) Reset(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM books`); err != nil {
		return fmt.Errorf("reset books: %w", err)
	}
	return nil
}

func (s *SQLiteBookIndex) Upsert(ctx context.Context, book domain.Book) error {
	const stmt = `
INSERT INTO books (id, title, slug, format, file_path, card_path, status, page_count, current_page, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
  title=excluded.title,
  slug=excluded.slug,
  format=excluded.format,
  file_path=excluded.file_path,
  card_path=excluded.card_path,
  status=excluded.status,
  page_count=excluded.page_count,
  current_page=excluded.current_page,
  updated_at=excluded.updated_at;
`
	_, err := s.db.ExecContext(ctx, stmt,
		book.ID,
		book.Title,
		book.Slug,
		string(book.Format),
		book.FilePath,
		book.CardPath,
		book.Status,
		book.PageCount,
		book.CurrentPage,
		book.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("upsert book: %w", err)
	}
	return nil
}

func (s *SQLiteBookIndex) List(ctx context.Context) ([]domain.Book, error) {
	const query = `
SELECT id, title, slug, format, file_path, card_path, status, page_count, current_page, updated_at
FROM books ORDER BY title COLLATE NOCASE;
`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []domain.Book
	for rows.Next() {
		var book domain.Book
		var format, updatedAt string
		if err := rows.Scan(&book.ID, &book.Title, &book.Slug, &format, &book.FilePath, &book.CardPath, &book.Status, &book.PageCount, &book.CurrentPage, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan book row: %w", err)
		}
		book.Format = domain.Format(format)
		book.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
		out = append(out, book)
	}
	return out, rows.Err()
}
