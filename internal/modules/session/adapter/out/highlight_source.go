package out

import (
	"context"
	"sync"

	annotationin "lectio/internal/modules/annotation/port/in"
	"lectio/internal/modules/session/domain"
)

// AnnotationHighlightSource feeds wrap-up excerpts from the annotation
// module. The session and annotation modules reference each other, so the
// adapter starts unbound and bootstrap binds it once both sides exist.
type AnnotationHighlightSource struct {
	mu          sync.RWMutex
	annotations annotationin.Usecase
}

func NewAnnotationHighlightSource() *AnnotationHighlightSource {
	return &AnnotationHighlightSource{}
}

func (s *AnnotationHighlightSource) Bind(annotations annotationin.Usecase) {
	s.mu.Lock()
	s.annotations = annotations
	s.mu.Unlock()
}

// TopForSession returns nothing while unbound rather than failing a
// wrap-up over missing excerpts.
func (s *AnnotationHighlightSource) TopForSession(ctx context.Context, sessionID string, limit int) ([]domain.HighlightExcerpt, error) {
	s.mu.RLock()
	annotations := s.annotations
	s.mu.RUnlock()
	if annotations == nil {
		return nil, nil
	}
	rows, err := annotations.TopHighlights(ctx, sessionID, limit)
	if err != nil {
		return nil, err
	}
	excerpts := make([]domain.HighlightExcerpt, 0, len(rows))
	for _, row := range rows {
		excerpts = append(excerpts, domain.HighlightExcerpt{Body: row.Body, CreatedAt: row.CreatedAt})
	}
	return excerpts, nil
}
