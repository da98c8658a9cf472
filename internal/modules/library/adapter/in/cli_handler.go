package in

import (
	"context"

	"lectio/internal/modules/library/dto"
	libraryin "lectio/internal/modules/library/port/in"
)

type CLIHandler struct {
	usecase libraryin.Usecase
}

func NewCLIHandler(usecase libraryin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) AddBook(ctx context.Context, path, title string, authors, shelves []string) (dto.BookOutput, error) {
	return h.usecase.AddBook(ctx, dto.AddBookInput{
		Path:    path,
		Title:   title,
		Authors: authors,
		Shelves: shelves,
	})
}

func (h CLIHandler) SetProgress(ctx context.Context, ref string, page int) (dto.BookOutput, error) {
	return h.usecase.SetProgress(ctx, dto.SetProgressInput{Ref: ref, Page: page})
}

func (h CLIHandler) ListBooks(ctx context.Context) ([]dto.BookOutput, error) {
	return h.usecase.ListBooks(ctx)
}

func (h CLIHandler) GetBook(ctx context.Context, ref string) (dto.BookDetailOutput, error) {
	return h.usecase.GetBook(ctx, ref)
}

func (h CLIHandler) Reindex(ctx context.Context) error {
	return h.usecase.Reindex(ctx, dto.ReindexInput{})
}
