package in

import (
	"context"

	"lectio/internal/modules/annotation/dto"
)

type Usecase interface {
	// AddHighlight and AddNote capture text against the active session.
	// Both fail with ErrNoActiveSession when nothing is running.
	AddHighlight(ctx context.Context, input dto.CaptureInput) (dto.AnnotationOutput, error)
	AddNote(ctx context.Context, input dto.CaptureInput) (dto.AnnotationOutput, error)
	ListForSession(ctx context.Context, sessionID string) ([]dto.AnnotationOutput, error)
	TopHighlights(ctx context.Context, sessionID string, limit int) ([]dto.AnnotationOutput, error)
}
