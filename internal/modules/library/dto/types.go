package dto

type AddBookInput struct {
	Path    string
	Title   string
	Authors []string
	Shelves []string
}

type SetProgressInput struct {
	Ref  string
	Page int
}

type ReindexInput struct{}

type BookOutput struct {
	ID        string
	Title     string
	Slug      string
	Format    string
	PageCount int
	Percent   float64
	CardPath  string
}

type BookDetailOutput struct {
	ID          string
	Title       string
	Authors     []string
	Slug        string
	Format      string
	FilePath    string
	CardPath    string
	Status      string
	PageCount   int
	CurrentPage int
	Percent     float64
	Shelves     []string
}
