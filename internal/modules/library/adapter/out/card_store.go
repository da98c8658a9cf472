package out

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"lectio/internal/modules/library/domain"
	libraryout "lectio/internal/modules/library/port/out"
	apperrors "lectio/internal/platform/errors"
	"lectio/internal/platform/markdown"
)

type CardStore struct {
	homePath string
}

func NewCardStore(homePath string) libraryout.CardStore {
	return &CardStore{homePath: homePath}
}

func (s *CardStore) Save(_ context.Context, document domain.BookDocument) (string, error) {
	book := document.Book
	cardPath := filepath.Join(s.homePath, "books", book.Slug+".md")
	if err := os.MkdirAll(filepath.Dir(cardPath), 0o755); err != nil {
		return "", fmt.Errorf("create books directory: %w", err)
	}

	body := document.Body
	if existing, err := os.ReadFile(cardPath); err == nil {
		_, existingBody, splitErr := markdown.SplitFrontmatter(string(existing))
		if splitErr == nil && strings.TrimSpace(body) == "" {
			body = existingBody
		}
	}

	if strings.TrimSpace(body) == "" {
		body = "## Notes\n\n## Quotes\n"
	}
	shelfContent := strings.Join(book.ManagedShelfLink, "\n")
	body = markdown.ReplaceManagedBlock(body, domain.ManagedShelvesStart, domain.ManagedShelvesEnd, shelfContent)

	rendered, err := markdown.RenderFrontmatter(toFrontmatter(book), body)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(cardPath, []byte(rendered), 0o644); err != nil {
		return "", fmt.Errorf("write book card: %w", err)
	}
	return cardPath, nil
}

func (s *CardStore) FindByRef(ctx context.Context, ref string) (domain.BookDocument, error) {
	docs, err := s.List(ctx)
	if err != nil {
		return domain.BookDocument{}, err
	}
	for _, doc := range docs {
		if doc.Book.ID == ref || doc.Book.Slug == ref {
			return doc, nil
		}
	}
	return domain.BookDocument{}, apperrors.ErrNotFound
}

func (s *CardStore) List(_ context.Context) ([]domain.BookDocument, error) {
	glob := filepath.Join(s.homePath, "books", "*.md")
	matches, err := filepath.Glob(glob)
	if err != nil {
		return nil, fmt.Errorf("glob book cards: %w", err)
	}
	sort.Strings(matches)

	out := make([]domain.BookDocument, 0, len(matches))
	for _, path := range matches {
		content, readErr := os.ReadFile(path)
		if readErr != nil {
			return nil, fmt.Errorf("read %s: %w", path, readErr)
		}
		meta, body, splitErr := markdown.SplitFrontmatter(string(content))
		if splitErr != nil {
			return nil, fmt.Errorf("parse %s: %w", path, splitErr)
		}
		book, convErr := fromFrontmatter(meta, path)
		if convErr != nil {
			return nil, fmt.Errorf("decode book card %s: %w", path, convErr)
		}
		out = append(out, domain.BookDocument{Book: book, Body: body})
	}
	return out, nil
}

func toFrontmatter(book domain.Book) map[string]any {
	return map[string]any{
		"schema_version": domain.SchemaVersion,
		"id":             book.ID,
		"title":          book.Title,
		"authors":        book.Authors,
		"file_path":      book.FilePath,
		"format":         string(book.Format),
		"page_count":     book.PageCount,
		"current_page":   book.CurrentPage,
		"shelves":        book.Shelves,
		"status":         book.Status,
		"added_at":       book.AddedAt.Format(time.RFC3339),
		"updated_at":     book.UpdatedAt.Format(time.RFC3339),
	}
}

func fromFrontmatter(meta map[string]any, cardPath string) (domain.Book, error) {
	book := domain.Book{
		ID:          asString(meta["id"]),
		Title:       asString(meta["title"]),
		Authors:     asStringSlice(meta["authors"]),
		FilePath:    asString(meta["file_path"]),
		CardPath:    cardPath,
		Format:      domain.Format(asString(meta["format"])),
		PageCount:   int(asFloat(meta["page_count"])),
		CurrentPage: int(asFloat(meta["current_page"])),
		Shelves:     asStringSlice(meta["shelves"]),
		Status:      asString(meta["status"]),
	}
	book.Slug = strings.TrimSuffix(filepath.Base(cardPath), filepath.Ext(cardPath))
	addedAt, _ := time.Parse(time.RFC3339, asString(meta["added_at"]))
	updatedAt, _ := time.Parse(time.RFC3339, asString(meta["updated_at"]))
	book.AddedAt = addedAt
	book.UpdatedAt = updatedAt
	if err := book.Validate(); err != nil {
		return domain.Book{}, err
	}
	return book, nil
}

func asString(v any) string {
	if v == nil {
		return ""
	}
	switch x := v.(type) {
	case string:
		return x
	default:
		return fmt.Sprint(v)
	}
}

func asFloat(v any) float64 {
	switch x := v.(type) {
	case int:
		return float64(x)
	case int64:
		return float64(x)
	case float64:
		return x
	case float32:
		return float64(x)
	case string:
		var out float64
		_, _ = fmt.Sscanf(x, "%f", &out)
		return out
	default:
		return 0
	}
}

func asStringSlice(v any) []string {
	if v == nil {
		return nil
	}
	switch x := v.(type) {
	case []string:
		return x
	case []any:
		out := make([]string, 0, len(x))
		for _, item := range x {
			if item == nil {
				continue
			}
			out = append(out, fmt.Sprint(item))
		}
		return out
	default:
		return nil
	}
}
