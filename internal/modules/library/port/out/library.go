package out

import (
	"context"

	"lectio/internal/modules/library/domain"
)

type CardStore interface {
	Save(ctx context.Context, document domain.BookDocument) (string, error)
	FindByRef(ctx context.Context, ref string) (domain.BookDocument, error)
	List(ctx context.Context) ([]domain.BookDocument, error)
}

type BookIndex interface {
	Reset(ctx context.Context) error
	Upsert(ctx context.Context, book domain.Book) error
	List(ctx context.Context) ([]domain.Book, error)
}

// FileInspector extracts metadata from the book file itself, such as the
// page count of a PDF or the frontmatter title of a markdown source.
type FileInspector interface {
	Inspect(ctx context.Context, path string) (domain.FileInfo, error)
}
