package domain

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

type Format string

const (
	FormatPDF      Format = "pdf"
	FormatEPUB     Format = "epub"
	FormatMarkdown Format = "markdown"
	FormatUnknown  Format = "unknown"
)

const (
	StatusReading  = "reading"
	StatusFinished = "finished"
)

const (
	ManagedShelvesStart = "<!-- lectio:shelves:start -->"
	ManagedShelvesEnd   = "<!-- lectio:shelves:end -->"
	SchemaVersion       = 1
)

func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return FormatPDF
	case ".epub":
		return FormatEPUB
	case ".md", ".markdown":
		return FormatMarkdown
	default:
		return FormatUnknown
	}
}

type Book struct {
	ID               string
	Title            string
	Authors          []string
	FilePath         string
	CardPath         string
	Slug             string
	Format           Format
	PageCount        int
	CurrentPage      int
	Shelves          []string
	Status           string
	AddedAt          time.Time
	UpdatedAt        time.Time
	ManagedShelfLink []string
}

func (b Book) Validate() error {
	if strings.TrimSpace(b.Title) == "" {
		return fmt.Errorf("title is required")
	}
	if strings.TrimSpace(b.ID) == "" {
		return fmt.Errorf("id is required")
	}
	if strings.TrimSpace(b.Slug) == "" {
		return fmt.Errorf("slug is required")
	}
	return nil
}

// ProgressPct derives completion from pages. Books without a known page
// count report zero rather than guessing.
func (b Book) ProgressPct() float64 {
	if b.PageCount <= 0 {
		return 0
	}
	pct := float64(b.CurrentPage) / float64(b.PageCount) * 100
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}

type BookDocument struct {
	Book Book
	Body string
}

// FileInfo is what probing the underlying book file yields. Fields stay
// zero when the format cannot supply them.
type FileInfo struct {
	Format    Format
	Title     string
	Authors   []string
	PageCount int
}
