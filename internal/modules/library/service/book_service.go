package service

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"lectio/internal/modules/library/domain"
	libraryout "lectio/internal/modules/library/port/out"
	"lectio/internal/platform/clock"
	"lectio/internal/platform/id"
	"lectio/internal/platform/slug"
)

type BookService struct {
	clock     clock.Clock
	idGen     id.Generator
	store     libraryout.CardStore
	index     libraryout.BookIndex
	inspector libraryout.FileInspector
}

func NewBookService(clock clock.Clock, idGen id.Generator, store libraryout.CardStore, index libraryout.BookIndex, inspector libraryout.FileInspector) *BookService {
	return &BookService{clock: clock, idGen: idGen, store: store, index: index, inspector: inspector}
}

// AddBook registers a book file. Metadata probing is best effort: an
// unreadable or malformed file still gets a card, just without the
// probed title, authors, or page count.
func (s *BookService) AddBook(ctx context.Context, filePath, title string, authors, shelves []string) (domain.Book, string, error) {
	filePath = strings.TrimSpace(filePath)
	if filePath == "" {
		return domain.Book{}, "", fmt.Errorf("file path is required")
	}

	info := domain.FileInfo{Format: domain.FormatForPath(filePath)}
	if s.inspector != nil {
		if probed, err := s.inspector.Inspect(ctx, filePath); err == nil {
			info = probed
		}
	}

	title = strings.TrimSpace(title)
	if title == "" {
		title = strings.TrimSpace(info.Title)
	}
	if title == "" {
		title = strings.TrimSuffix(filepath.Base(filePath), filepath.Ext(filePath))
	}
	if len(authors) == 0 {
		authors = info.Authors
	}

	now := s.clock.Now()
	book := domain.Book{
		ID:               s.idGen.New(),
		Title:            title,
		Authors:          authors,
		FilePath:         filePath,
		Slug:             slug.Make(title),
		Format:           info.Format,
		PageCount:        info.PageCount,
		Shelves:          shelves,
		Status:           domain.StatusReading,
		AddedAt:          now,
		UpdatedAt:        now,
		ManagedShelfLink: toShelfWikilinks(shelves),
	}
	if err := book.Validate(); err != nil {
		return domain.Book{}, "", err
	}
	path, err := s.store.Save(ctx, domain.BookDocument{Book: book})
	if err != nil {
		return domain.Book{}, "", err
	}
	book.CardPath = path
	if err := s.index.Upsert(ctx, book); err != nil {
		return domain.Book{}, "", err
	}
	return book, path, nil
}

func (s *BookService) SetProgress(ctx context.Context, ref string, page int) (domain.Book, error) {
	doc, err := s.store.FindByRef(ctx, ref)
	if err != nil {
		return domain.Book{}, err
	}
	if page < 0 {
		page = 0
	}
	if doc.Book.PageCount > 0 && page > doc.Book.PageCount {
		page = doc.Book.PageCount
	}
	doc.Book.CurrentPage = page
	doc.Book.Status = domain.StatusReading
	if doc.Book.PageCount > 0 && page >= doc.Book.PageCount {
		doc.Book.Status = domain.StatusFinished
	}
	doc.Book.UpdatedAt = s.clock.Now()
	// Shelf links are derived, not stored, so rebuild them or the save
	// would blank the managed block.
	doc.Book.ManagedShelfLink = toShelfWikilinks(doc.Book.Shelves)
	if _, err := s.store.Save(ctx, doc); err != nil {
		return domain.Book{}, err
	}
	if err := s.index.Upsert(ctx, doc.Book); err != nil {
		return domain.Book{}, err
	}
	return doc.Book, nil
}

// ListBooks reads the projection, which is cheaper than re-parsing every
// card. Reindex rebuilds it when cards were edited by hand.
func (s *BookService) ListBooks(ctx context.Context) ([]domain.Book, error) {
	return s.index.List(ctx)
}

func (s *BookService) GetBook(ctx context.Context, ref string) (domain.Book, error) {
	doc, err := s.store.FindByRef(ctx, ref)
	if err != nil {
		return domain.Book{}, err
	}
	return doc.Book, nil
}

func (s *BookService) Reindex(ctx context.Context) error {
	if err := s.index.Reset(ctx); err != nil {
		return err
	}
	docs, err := s.store.List(ctx)
	if err != nil {
		return err
	}
	for _, doc := range docs {
		if err := s.index.Upsert(ctx, doc.Book); err != nil {
			return err
		}
	}
	return nil
}

func toShelfWikilinks(shelves []string) []string {
	out := make([]string, 0, len(shelves))
	for _, shelf := range shelves {
		shelf = strings.TrimSpace(shelf)
		if shelf == "" {
			continue
		}
		out = append(out, "[["+slug.Make(shelf)+"]]")
	}
	return out
}
