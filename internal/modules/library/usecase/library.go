package usecase

import (
	"context"

	"lectio/internal/modules/library/domain"
	"lectio/internal/modules/library/dto"
	libraryin "lectio/internal/modules/library/port/in"
	"lectio/internal/modules/library/service"
)

type Interactor struct {
	svc *service.BookService
}

func NewInteractor(svc *service.BookService) libraryin.Usecase {
	return &Interactor{svc: svc}
}

func (i *Interactor) AddBook(ctx context.Context, input dto.AddBookInput) (dto.BookOutput, error) {
	book, path, err := i.svc.AddBook(ctx, input.Path, input.Title, input.Authors, input.Shelves)
	if err != nil {
		return dto.BookOutput{}, err
	}
	out := mapBook(book)
	out.CardPath = path
	return out, nil
}

func (i *Interactor) SetProgress(ctx context.Context, input dto.SetProgressInput) (dto.BookOutput, error) {
	book, err := i.svc.SetProgress(ctx, input.Ref, input.Page)
	if err != nil {
		return dto.BookOutput{}, err
	}
	return mapBook(book), nil
}

func (i *Interactor) ListBooks(ctx context.Context) ([]dto.BookOutput, error) {
	books, err := i.svc.ListBooks(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.BookOutput, 0, len(books))
	for _, book := range books {
		out = append(out, mapBook(book))
	}
	return out, nil
}

func (i *Interactor) GetBook(ctx context.Context, ref string) (dto.BookDetailOutput, error) {
	book, err := i.svc.GetBook(ctx, ref)
	if err != nil {
		return dto.BookDetailOutput{}, err
	}
	return dto.BookDetailOutput{
		ID:          book.ID,
		Title:       book.Title,
		Authors:     book.Authors,
		Slug:        book.Slug,
		Format:      string(book.Format),
		FilePath:    book.FilePath,
		CardPath:    book.CardPath,
		Status:      book.Status,
		PageCount:   book.PageCount,
		CurrentPage: book.CurrentPage,
		Percent:     book.ProgressPct(),
		Shelves:     book.Shelves,
	}, nil
}

func (i *Interactor) Reindex(ctx context.Context, _ dto.ReindexInput) error {
	return i.svc.Reindex(ctx)
}

func mapBook(book domain.Book) dto.BookOutput {
	return dto.BookOutput{
		ID:        book.ID,
		Title:     book.Title,
		Slug:      book.Slug,
		Format:    string(book.Format),
		PageCount: book.PageCount,
		Percent:   book.ProgressPct(),
		CardPath:  book.CardPath,
	}
}
