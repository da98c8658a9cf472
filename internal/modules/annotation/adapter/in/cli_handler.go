package in

import (
	"context"

	"lectio/internal/modules/annotation/dto"
	annotationin "lectio/internal/modules/annotation/port/in"
)

type CLIHandler struct {
	usecase annotationin.Usecase
}

func NewCLIHandler(usecase annotationin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) AddHighlight(ctx context.Context, body string) (dto.AnnotationOutput, error) {
	return h.usecase.AddHighlight(ctx, dto.CaptureInput{Body: body})
}

func (h CLIHandler) AddNote(ctx context.Context, body string) (dto.AnnotationOutput, error) {
	return h.usecase.AddNote(ctx, dto.CaptureInput{Body: body})
}

func (h CLIHandler) ListForSession(ctx context.Context, sessionID string) ([]dto.AnnotationOutput, error) {
	return h.usecase.ListForSession(ctx, sessionID)
}
