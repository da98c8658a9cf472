package service

import (
	"context"
	"fmt"
	"strings"

	"lectio/internal/modules/annotation/domain"
	annotationout "lectio/internal/modules/annotation/port/out"
	"lectio/internal/platform/clock"
	apperrors "lectio/internal/platform/errors"
	"lectio/internal/platform/id"
	"lectio/internal/platform/tx"
)

type AnnotationService struct {
	clock   clock.Clock
	idGen   id.Generator
	store   annotationout.AnnotationStore
	txm     tx.Manager
	session annotationout.SessionGateway
}

func NewAnnotationService(clock clock.Clock, idGen id.Generator, store annotationout.AnnotationStore, txm tx.Manager, session annotationout.SessionGateway) *AnnotationService {
	return &AnnotationService{clock: clock, idGen: idGen, store: store, txm: txm, session: session}
}

// Capture records one highlight or note against the active session. The
// row commits before the engine counter moves: a bump that loses the race
// with session completion must not undo the capture.
func (s *AnnotationService) Capture(ctx context.Context, kind domain.Kind, body string) (domain.Annotation, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return domain.Annotation{}, fmt.Errorf("%w: annotation body is required", apperrors.ErrInvalidInput)
	}

	sessionID, bookID, err := s.session.ActiveSession(ctx)
	if err != nil {
		return domain.Annotation{}, err
	}

	annotation := domain.Annotation{
		ID:        s.idGen.New(),
		SessionID: sessionID,
		BookID:    bookID,
		Kind:      kind,
		Body:      body,
		CreatedAt: s.clock.Now().UTC(),
	}
	if err := annotation.Validate(); err != nil {
		return domain.Annotation{}, err
	}
	err = s.txm.Within(ctx, func(ctx context.Context) error {
		return s.store.Insert(ctx, annotation)
	})
	if err != nil {
		return domain.Annotation{}, fmt.Errorf("insert annotation: %w", err)
	}

	switch kind {
	case domain.KindHighlight:
		_ = s.session.CountHighlight(ctx)
	case domain.KindNote:
		_ = s.session.CountNote(ctx)
	}
	return annotation, nil
}

func (s *AnnotationService) ListForSession(ctx context.Context, sessionID string) ([]domain.Annotation, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, fmt.Errorf("%w: session id is required", apperrors.ErrInvalidInput)
	}
	return s.store.BySession(ctx, sessionID)
}

func (s *AnnotationService) TopHighlights(ctx context.Context, sessionID string, limit int) ([]domain.Annotation, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, fmt.Errorf("%w: session id is required", apperrors.ErrInvalidInput)
	}
	if limit <= 0 {
		return nil, nil
	}
	return s.store.RecentByKind(ctx, sessionID, domain.KindHighlight, limit)
}
