package domain_test

import (
	"testing"
	"time"

	"lectio/internal/modules/library/domain"
)

func TestFormatForPath(t *testing.T) {
	t.Parallel()
	cases := map[string]domain.Format{
		"/shelf/dune.pdf":     domain.FormatPDF,
		"/shelf/dune.PDF":     domain.FormatPDF,
		"/shelf/notes.md":     domain.FormatMarkdown,
		"/shelf/web.markdown": domain.FormatMarkdown,
		"/shelf/dune.epub":    domain.FormatEPUB,
		"/shelf/dune.mobi":    domain.FormatUnknown,
	}
	for path, want := range cases {
		if got := domain.FormatForPath(path); got != want {
			t.Fatalf("format for %s: got %s want %s", path, got, want)
		}
	}
}

func TestBookValidate(t *testing.T) {
	t.Parallel()
	now := time.Now().UTC()
	base := domain.Book{
		ID:        "id-1",
		Title:     "Dune",
		Slug:      "dune",
		Format:    domain.FormatPDF,
		AddedAt:   now,
		UpdatedAt: now,
	}

	if err := base.Validate(); err != nil {
		t.Fatalf("book should be valid: %v", err)
	}
	missingTitle := base
	missingTitle.Title = "  "
	if err := missingTitle.Validate(); err == nil {
		t.Fatalf("missing title should fail")
	}
	missingID := base
	missingID.ID = ""
	if err := missingID.Validate(); err == nil {
		t.Fatalf("missing id should fail")
	}
	missingSlug := base
	missingSlug.Slug = ""
	if err := missingSlug.Validate(); err == nil {
		t.Fatalf("missing slug should fail")
	}
}

func TestBookProgressPct(t *testing.T) {
	t.Parallel()
	book := domain.Book{PageCount: 200, CurrentPage: 50}
	if got := book.ProgressPct(); got != 25 {
		t.Fatalf("expected 25%%, got %.2f", got)
	}
	book.CurrentPage = 400
	if got := book.ProgressPct(); got != 100 {
		t.Fatalf("progress should clamp at 100, got %.2f", got)
	}
	noCount := domain.Book{CurrentPage: 10}
	if got := noCount.ProgressPct(); got != 0 {
		t.Fatalf("unknown page count should report zero, got %.2f", got)
	}
}
