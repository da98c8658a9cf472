package in

import (
	"context"

	"lectio/internal/modules/library/dto"
)

type Usecase interface {
	AddBook(ctx context.Context, input dto.AddBookInput) (dto.BookOutput, error)
	SetProgress(ctx context.Context, input dto.SetProgressInput) (dto.BookOutput, error)
	ListBooks(ctx context.Context) ([]dto.BookOutput, error)
	// GetBook resolves a book by id or slug.
	GetBook(ctx context.Context, ref string) (dto.BookDetailOutput, error)
	Reindex(ctx context.Context, input dto.ReindexInput) error
}
