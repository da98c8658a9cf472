package usecase_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"lectio/internal/modules/library/dto"
	apperrors "lectio/internal/platform/errors"
)

// writeTinyPDF emits a minimal but well-formed PDF with the given number
// of pages, computing xref offsets as it goes.
func writeTinyPDF(t *testing.T, path string, pageCount int) {
	t.Helper()
	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	var offsets []int
	addObj := func(body string) {
		offsets = append(offsets, buf.Len())
		buf.WriteString(body)
	}
	kids := make([]string, 0, pageCount)
	for i := 0; i < pageCount; i++ {
		kids = append(kids, fmt.Sprintf("%d 0 R", 3+i))
	}
	addObj("1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n")
	addObj(fmt.Sprintf("2 0 obj\n<< /Type /Pages /Kids [%s] /Count %d >>\nendobj\n", strings.Join(kids, " "), pageCount))
	for i := 0; i < pageCount; i++ {
		addObj(fmt.Sprintf("%d 0 obj\n<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] >>\nendobj\n", 3+i))
	}
	xrefPos := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(offsets)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(offsets)+1, xrefPos)
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write pdf: %v", err)
	}
}

func TestAddBookCountsPDFPages(t *testing.T) {
	t.Parallel()
	home, _, uc := newLibraryForTest(t)
	pdfPath := filepath.Join(home, "dune.pdf")
	writeTinyPDF(t, pdfPath, 3)

	out, err := uc.AddBook(context.Background(), dto.AddBookInput{Path: pdfPath, Title: "Dune"})
	if err != nil {
		t.Fatalf("add pdf book: %v", err)
	}
	if out.Format != "pdf" || out.PageCount != 3 {
		t.Fatalf("expected a 3-page pdf, got %+v", out)
	}

	if _, err := uc.SetProgress(context.Background(), dto.SetProgressInput{Ref: out.ID, Page: 3}); err != nil {
		t.Fatalf("set progress: %v", err)
	}
	detail, err := uc.GetBook(context.Background(), out.ID)
	if err != nil {
		t.Fatalf("get book: %v", err)
	}
	if detail.Status != "finished" || detail.Percent != 100 {
		t.Fatalf("reading the last page should finish the book, got %+v", detail)
	}
}

func TestAddBookReadsMarkdownFrontmatter(t *testing.T) {
	t.Parallel()
	home, _, uc := newLibraryForTest(t)
	mdPath := filepath.Join(home, "import.md")
	content := "---\ntitle: Effective Go Notes\nauthors:\n  - Rob\n---\n\nbody text\n"
	if err := os.WriteFile(mdPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write markdown: %v", err)
	}

	out, err := uc.AddBook(context.Background(), dto.AddBookInput{Path: mdPath})
	if err != nil {
		t.Fatalf("add markdown book: %v", err)
	}
	if out.Title != "Effective Go Notes" || out.Slug != "effective-go-notes" {
		t.Fatalf("expected frontmatter title, got %+v", out)
	}
	detail, err := uc.GetBook(context.Background(), out.ID)
	if err != nil {
		t.Fatalf("get book: %v", err)
	}
	if len(detail.Authors) != 1 || detail.Authors[0] != "Rob" {
		t.Fatalf("expected frontmatter authors, got %+v", detail.Authors)
	}
}

func TestAddBookFallsBackToFilename(t *testing.T) {
	t.Parallel()
	home, _, uc := newLibraryForTest(t)
	epubPath := filepath.Join(home, "left-hand-of-darkness.epub")
	if err := os.WriteFile(epubPath, []byte("not really an epub"), 0o644); err != nil {
		t.Fatalf("write epub: %v", err)
	}

	out, err := uc.AddBook(context.Background(), dto.AddBookInput{Path: epubPath})
	if err != nil {
		t.Fatalf("add epub book: %v", err)
	}
	if out.Title != "left-hand-of-darkness" || out.Format != "epub" {
		t.Fatalf("expected filename fallback, got %+v", out)
	}
	if out.PageCount != 0 {
		t.Fatalf("epub page count should stay unknown, got %d", out.PageCount)
	}
}

func TestGetAndSetProgressErrorOnUnknownBook(t *testing.T) {
	t.Parallel()
	_, _, uc := newLibraryForTest(t)
	if _, err := uc.GetBook(context.Background(), "missing"); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("expected not-found for unknown book, got %v", err)
	}
	if _, err := uc.SetProgress(context.Background(), dto.SetProgressInput{Ref: "missing", Page: 10}); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("expected not-found for unknown book progress, got %v", err)
	}
}
