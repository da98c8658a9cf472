package out

import (
	"context"

	annotationout "lectio/internal/modules/annotation/port/out"
	sessionin "lectio/internal/modules/session/port/in"
)

type SessionEngineGateway struct {
	session sessionin.Usecase
}

func NewSessionEngineGateway(session sessionin.Usecase) annotationout.SessionGateway {
	return &SessionEngineGateway{session: session}
}

func (g *SessionEngineGateway) ActiveSession(ctx context.Context) (string, string, error) {
	snap, err := g.session.Snapshot(ctx)
	if err != nil {
		return "", "", err
	}
	return snap.SessionID, snap.BookID, nil
}

func (g *SessionEngineGateway) CountHighlight(ctx context.Context) error {
	_, err := g.session.IncrementHighlights(ctx)
	return err
}

func (g *SessionEngineGateway) CountNote(ctx context.Context) error {
	_, err := g.session.IncrementNotes(ctx)
	return err
}
