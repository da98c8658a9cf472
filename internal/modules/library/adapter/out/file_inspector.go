package out

import (
	"context"
	"fmt"
	"os"
	"strings"

	"rsc.io/pdf"

	"lectio/internal/modules/library/domain"
	libraryout "lectio/internal/modules/library/port/out"
	"lectio/internal/platform/markdown"
)

type FileInspector struct{}

func NewFileInspector() libraryout.FileInspector {
	return FileInspector{}
}

func (FileInspector) Inspect(_ context.Context, path string) (domain.FileInfo, error) {
	switch domain.FormatForPath(path) {
	case domain.FormatPDF:
		return inspectPDF(path)
	case domain.FormatMarkdown:
		return inspectMarkdown(path)
	default:
		if _, err := os.Stat(path); err != nil {
			return domain.FileInfo{}, err
		}
		return domain.FileInfo{Format: domain.FormatForPath(path)}, nil
	}
}

// inspectPDF pulls the page count and document info. The pdf parser
// panics on malformed input, so contain it here.
func inspectPDF(path string) (info domain.FileInfo, err error) {
	info.Format = domain.FormatPDF
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("parse pdf %s: %v", path, r)
		}
	}()

	file, err := os.Open(path)
	if err != nil {
		return info, err
	}
	defer func() { _ = file.Close() }()
	stat, err := file.Stat()
	if err != nil {
		return info, err
	}
	reader, err := pdf.NewReader(file, stat.Size())
	if err != nil {
		return info, fmt.Errorf("parse pdf %s: %w", path, err)
	}

	info.PageCount = reader.NumPage()
	meta := reader.Trailer().Key("Info")
	if title := strings.TrimSpace(meta.Key("Title").Text()); title != "" {
		info.Title = title
	}
	if author := strings.TrimSpace(meta.Key("Author").Text()); author != "" {
		info.Authors = []string{author}
	}
	return info, nil
}

func inspectMarkdown(path string) (domain.FileInfo, error) {
	info := domain.FileInfo{Format: domain.FormatMarkdown}
	content, err := os.ReadFile(path)
	if err != nil {
		return info, err
	}
	meta, _, err := markdown.SplitFrontmatter(string(content))
	if err != nil {
		return info, nil
	}
	if title, ok := meta["title"].(string); ok {
		info.Title = strings.TrimSpace(title)
	}
	switch authors := meta["authors"].(type) {
	case string:
		if trimmed := strings.TrimSpace(authors); trimmed != "" {
			info.Authors = []string{trimmed}
		}
	case []any:
		for _, item := range authors {
			if name, ok := item.(string); ok && strings.TrimSpace(name) != "" {
				info.Authors = append(info.Authors, strings.TrimSpace(name))
			}
		}
	}
	return info, nil
}
