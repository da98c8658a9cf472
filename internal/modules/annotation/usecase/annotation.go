package usecase

import (
	"context"

	"lectio/internal/modules/annotation/domain"
	"lectio/internal/modules/annotation/dto"
	annotationin "lectio/internal/modules/annotation/port/in"
	"lectio/internal/modules/annotation/service"
)

type Interactor struct {
	svc *service.AnnotationService
}

func NewInteractor(svc *service.AnnotationService) annotationin.Usecase {
	return &Interactor{svc: svc}
}

func (i *Interactor) AddHighlight(ctx context.Context, input dto.CaptureInput) (dto.AnnotationOutput, error) {
	annotation, err := i.svc.Capture(ctx, domain.KindHighlight, input.Body)
	if err != nil {
		return dto.AnnotationOutput{}, err
	}
	return mapAnnotation(annotation), nil
}

func (i *Interactor) AddNote(ctx context.Context, input dto.CaptureInput) (dto.AnnotationOutput, error) {
	annotation, err := i.svc.Capture(ctx, domain.KindNote, input.Body)
	if err != nil {
		return dto.AnnotationOutput{}, err
	}
	return mapAnnotation(annotation), nil
}

func (i *Interactor) ListForSession(ctx context.Context, sessionID string) ([]dto.AnnotationOutput, error) {
	annotations, err := i.svc.ListForSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return mapAnnotations(annotations), nil
}

func (i *Interactor) TopHighlights(ctx context.Context, sessionID string, limit int) ([]dto.AnnotationOutput, error) {
	annotations, err := i.svc.TopHighlights(ctx, sessionID, limit)
	if err != nil {
		return nil, err
	}
	return mapAnnotations(annotations), nil
}

func mapAnnotation(annotation domain.Annotation) dto.AnnotationOutput {
	return dto.AnnotationOutput{
		ID:        annotation.ID,
		SessionID: annotation.SessionID,
		BookID:    annotation.BookID,
		Kind:      string(annotation.Kind),
		Body:      annotation.Body,
		CreatedAt: annotation.CreatedAt,
	}
}

func mapAnnotations(annotations []domain.Annotation) []dto.AnnotationOutput {
	out := make([]dto.AnnotationOutput, 0, len(annotations))
	for _, annotation := range annotations {
		out = append(out, mapAnnotation(annotation))
	}
	return out
}
