package out

import (
	"context"

	"lectio/internal/modules/annotation/domain"
)

type AnnotationStore interface {
	Insert(ctx context.Context, annotation domain.Annotation) error
	BySession(ctx context.Context, sessionID string) ([]domain.Annotation, error)
	RecentByKind(ctx context.Context, sessionID string, kind domain.Kind, limit int) ([]domain.Annotation, error)
}

// SessionGateway is the slice of the session engine the capture flow
// needs: which session is running, and the counter bumps.
type SessionGateway interface {
	ActiveSession(ctx context.Context) (sessionID, bookID string, err error)
	CountHighlight(ctx context.Context) error
	CountNote(ctx context.Context) error
}
