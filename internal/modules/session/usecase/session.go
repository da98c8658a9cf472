package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	libraryin "lectio/internal/modules/library/port/in"
	"lectio/internal/modules/session/domain"
	sessiondto "lectio/internal/modules/session/dto"
	sessionin "lectio/internal/modules/session/port/in"
	sessionout "lectio/internal/modules/session/port/out"
	apperrors "lectio/internal/platform/errors"
)

const defaultHistoryLimit = 20

type servicePort interface {
	RunDaemon(ctx context.Context) error
	StartDaemon(ctx context.Context) error
	StopDaemon(ctx context.Context) error
	DaemonStatus(ctx context.Context) (domain.DaemonInfo, error)
	DaemonLogs(ctx context.Context, tail int) (string, error)
	Start(ctx context.Context, req sessionout.StartRequest) (domain.Snapshot, error)
	Stop(ctx context.Context) (domain.WrapUp, error)
	Snapshot(ctx context.Context) (domain.Snapshot, error)
	WrapUp(ctx context.Context) (domain.WrapUp, error)
	WrapUpFor(ctx context.Context, sessionID string) (domain.WrapUp, error)
	ReportActivity(ctx context.Context) error
	ConfirmPresence(ctx context.Context) (domain.Snapshot, error)
	DismissAFK(ctx context.Context) (domain.WrapUp, error)
	SkipBreak(ctx context.Context) (domain.Snapshot, error)
	MicrobreakTake(ctx context.Context) (domain.Snapshot, error)
	MicrobreakEnd(ctx context.Context) (domain.Snapshot, error)
	MicrobreakPostpone(ctx context.Context) (domain.Snapshot, error)
	MicrobreakDisableToday(ctx context.Context) (domain.Snapshot, error)
	IncrementHighlights(ctx context.Context) (domain.Snapshot, error)
	IncrementNotes(ctx context.Context) (domain.Snapshot, error)
	History(ctx context.Context, limit int) ([]domain.Record, error)
	EventsTail(ctx context.Context, query sessionout.EventQuery) ([]domain.Event, error)
	Metrics(ctx context.Context) (domain.Metrics, error)
}

type Interactor struct {
	svc      servicePort
	library  libraryin.Usecase
	exporter sessionout.WrapUpExporter
}

func NewInteractor(svc servicePort, library libraryin.Usecase, exporter sessionout.WrapUpExporter) sessionin.Usecase {
	return &Interactor{svc: svc, library: library, exporter: exporter}
}

func (i *Interactor) RunDaemon(ctx context.Context) error {
	return i.svc.RunDaemon(ctx)
}

func (i *Interactor) StartDaemon(ctx context.Context) error {
	return i.svc.StartDaemon(ctx)
}

func (i *Interactor) StopDaemon(ctx context.Context) error {
	return i.svc.StopDaemon(ctx)
}

func (i *Interactor) DaemonStatus(ctx context.Context) (sessiondto.DaemonStatusOutput, error) {
	info, err := i.svc.DaemonStatus(ctx)
	if err != nil {
		return sessiondto.DaemonStatusOutput{}, err
	}
	out := sessiondto.DaemonStatusOutput{
		Running:        info.Running,
		PID:            info.PID,
		SocketPath:     info.SocketPath,
		MetricsAddress: info.MetricsAddr,
	}
	if info.Running {
		if snap, snapErr := i.svc.Snapshot(ctx); snapErr == nil {
			out.HasSession = true
			out.Session = mapSnapshot(snap)
		}
	}
	return out, nil
}

func (i *Interactor) DaemonLogs(ctx context.Context, tail int) (string, error) {
	return i.svc.DaemonLogs(ctx, tail)
}

func (i *Interactor) Start(ctx context.Context, input sessiondto.StartInput) (sessiondto.SnapshotOutput, error) {
	bookID := strings.TrimSpace(input.BookID)
	if bookID == "" {
		return sessiondto.SnapshotOutput{}, fmt.Errorf("%w: book id is required", apperrors.ErrInvalidInput)
	}
	if input.WorkMinutes < 0 || input.BreakMinutes < 0 || input.AFKTimeoutMinutes < 0 {
		return sessiondto.SnapshotOutput{}, fmt.Errorf("%w: minutes must be positive", apperrors.ErrInvalidInput)
	}

	bookTitle := ""
	if i.library != nil {
		book, err := i.library.GetBook(ctx, bookID)
		if err != nil {
			return sessiondto.SnapshotOutput{}, err
		}
		bookID = book.ID
		bookTitle = book.Title
	}

	snap, err := i.svc.Start(ctx, sessionout.StartRequest{
		BookID:                    bookID,
		BookTitle:                 bookTitle,
		PomodoroEnabled:           input.PomodoroEnabled,
		PomodoroSet:               input.PomodoroSet,
		WorkMinutes:               input.WorkMinutes,
		BreakMinutes:              input.BreakMinutes,
		AFKTimeoutMinutes:         input.AFKTimeoutMinutes,
		MicrobreakIntervalMinutes: input.MicrobreakIntervalMinutes,
	})
	if err != nil {
		return sessiondto.SnapshotOutput{}, err
	}
	return mapSnapshot(snap), nil
}

func (i *Interactor) Stop(ctx context.Context) (sessiondto.WrapUpOutput, error) {
	wrap, err := i.svc.Stop(ctx)
	if err != nil {
		return sessiondto.WrapUpOutput{}, err
	}
	return mapWrapUp(wrap), nil
}

func (i *Interactor) Snapshot(ctx context.Context) (sessiondto.SnapshotOutput, error) {
	snap, err := i.svc.Snapshot(ctx)
	if err != nil {
		return sessiondto.SnapshotOutput{}, err
	}
	return mapSnapshot(snap), nil
}

func (i *Interactor) WrapUp(ctx context.Context) (sessiondto.WrapUpOutput, error) {
	wrap, err := i.svc.WrapUp(ctx)
	if err != nil {
		return sessiondto.WrapUpOutput{}, err
	}
	return mapWrapUp(wrap), nil
}

// WrapUpFor looks up the wrap-up of an older session by id.
func (i *Interactor) WrapUpFor(ctx context.Context, sessionID string) (sessiondto.WrapUpOutput, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return sessiondto.WrapUpOutput{}, fmt.Errorf("%w: session id is required", apperrors.ErrInvalidInput)
	}
	wrap, err := i.svc.WrapUpFor(ctx, sessionID)
	if err != nil {
		return sessiondto.WrapUpOutput{}, err
	}
	return mapWrapUp(wrap), nil
}

// WrapUpExport writes the latest wrap-up as a markdown note and returns
// its path.
func (i *Interactor) WrapUpExport(ctx context.Context) (string, error) {
	if i.exporter == nil {
		return "", fmt.Errorf("wrap-up export is not configured")
	}
	wrap, err := i.svc.WrapUp(ctx)
	if err != nil {
		return "", err
	}
	return i.exporter.Export(ctx, wrap)
}

func (i *Interactor) ReportActivity(ctx context.Context) error {
	return i.svc.ReportActivity(ctx)
}

func (i *Interactor) ConfirmPresence(ctx context.Context) (sessiondto.SnapshotOutput, error) {
	snap, err := i.svc.ConfirmPresence(ctx)
	if err != nil {
		return sessiondto.SnapshotOutput{}, err
	}
	return mapSnapshot(snap), nil
}

func (i *Interactor) DismissAFK(ctx context.Context) (sessiondto.WrapUpOutput, error) {
	wrap, err := i.svc.DismissAFK(ctx)
	if err != nil {
		return sessiondto.WrapUpOutput{}, err
	}
	return mapWrapUp(wrap), nil
}

func (i *Interactor) SkipBreak(ctx context.Context) (sessiondto.SnapshotOutput, error) {
	snap, err := i.svc.SkipBreak(ctx)
	if err != nil {
		return sessiondto.SnapshotOutput{}, err
	}
	return mapSnapshot(snap), nil
}

func (i *Interactor) MicrobreakTake(ctx context.Context) (sessiondto.SnapshotOutput, error) {
	snap, err := i.svc.MicrobreakTake(ctx)
	if err != nil {
		return sessiondto.SnapshotOutput{}, err
	}
	return mapSnapshot(snap), nil
}

func (i *Interactor) MicrobreakEnd(ctx context.Context) (sessiondto.SnapshotOutput, error) {
	snap, err := i.svc.MicrobreakEnd(ctx)
	if err != nil {
		return sessiondto.SnapshotOutput{}, err
	}
	return mapSnapshot(snap), nil
}

func (i *Interactor) MicrobreakPostpone(ctx context.Context) (sessiondto.SnapshotOutput, error) {
	snap, err := i.svc.MicrobreakPostpone(ctx)
	if err != nil {
		return sessiondto.SnapshotOutput{}, err
	}
	return mapSnapshot(snap), nil
}

func (i *Interactor) MicrobreakDisableToday(ctx context.Context) (sessiondto.SnapshotOutput, error) {
	snap, err := i.svc.MicrobreakDisableToday(ctx)
	if err != nil {
		return sessiondto.SnapshotOutput{}, err
	}
	return mapSnapshot(snap), nil
}

func (i *Interactor) IncrementHighlights(ctx context.Context) (sessiondto.SnapshotOutput, error) {
	snap, err := i.svc.IncrementHighlights(ctx)
	if err != nil {
		return sessiondto.SnapshotOutput{}, err
	}
	return mapSnapshot(snap), nil
}

func (i *Interactor) IncrementNotes(ctx context.Context) (sessiondto.SnapshotOutput, error) {
	snap, err := i.svc.IncrementNotes(ctx)
	if err != nil {
		return sessiondto.SnapshotOutput{}, err
	}
	return mapSnapshot(snap), nil
}

func (i *Interactor) History(ctx context.Context, limit int) ([]sessiondto.RecordOutput, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	records, err := i.svc.History(ctx, limit)
	if err != nil {
		return nil, err
	}
	out := make([]sessiondto.RecordOutput, 0, len(records))
	for _, rec := range records {
		out = append(out, mapRecord(rec))
	}
	return out, nil
}

func (i *Interactor) ActivityTail(ctx context.Context, since time.Time, limit int) ([]sessiondto.ActivityOutput, error) {
	events, err := i.svc.EventsTail(ctx, sessionout.EventQuery{Since: since, Limit: limit})
	if err != nil {
		return nil, err
	}
	out := make([]sessiondto.ActivityOutput, 0, len(events))
	for _, event := range events {
		out = append(out, sessiondto.ActivityOutput{
			ID:         event.ID,
			OccurredAt: event.OccurredAt,
			Type:       string(event.Type),
			Message:    event.Message,
			Fields:     event.Fields,
		})
	}
	return out, nil
}

func (i *Interactor) Metrics(ctx context.Context) (sessiondto.MetricsOutput, error) {
	m, err := i.svc.Metrics(ctx)
	if err != nil {
		return sessiondto.MetricsOutput{}, err
	}
	return sessiondto.MetricsOutput{
		PID:               m.PID,
		StartedAt:         m.StartedAt,
		Ticks:             m.Ticks,
		Broadcasts:        m.Broadcasts,
		PersistErrors:     m.PersistErrors,
		PersistDrops:      m.PersistDrops,
		SessionsStarted:   m.SessionsStarted,
		SessionsCompleted: m.SessionsCompleted,
		ActiveSession:     m.ActiveSession,
		MetricsAddress:    m.MetricsAddr,
	}, nil
}

func mapSnapshot(snap domain.Snapshot) sessiondto.SnapshotOutput {
	return sessiondto.SnapshotOutput{
		SessionID:                snap.ID,
		BookID:                   snap.BookID,
		BookTitle:                snap.BookTitle,
		State:                    string(snap.State),
		TimerSeconds:             snap.TimerSeconds,
		ActiveMs:                 snap.ActiveMs,
		PomodoroEnabled:          snap.PomodoroEnabled,
		PomodoroRemainingSeconds: snap.PomodoroRemainingSeconds,
		CompletedPomodoros:       snap.CompletedPomodoros,
		HighlightsDuring:         snap.HighlightsDuring,
		NotesDuring:              snap.NotesDuring,
		MicrobreakPending:        snap.MicrobreakPending,
		StartedAt:                snap.StartedAt,
	}
}

func mapWrapUp(wrap domain.WrapUp) sessiondto.WrapUpOutput {
	out := sessiondto.WrapUpOutput{
		SessionID:          wrap.SessionID,
		BookID:             wrap.BookID,
		BookTitle:          wrap.BookTitle,
		StartedAt:          wrap.StartedAt,
		EndedAt:            wrap.EndedAt,
		ActiveMs:           wrap.ActiveMs,
		CompletedPomodoros: wrap.CompletedPomodoros,
		Highlights:         wrap.Highlights,
		Notes:              wrap.Notes,
		AFKPauses:          wrap.AFKPauses,
		MicrobreaksTaken:   wrap.MicrobreaksTaken,
	}
	for _, excerpt := range wrap.TopHighlights {
		out.TopHighlights = append(out.TopHighlights, sessiondto.HighlightExcerptOutput{
			Body:      excerpt.Body,
			CreatedAt: excerpt.CreatedAt,
		})
	}
	return out
}

func mapRecord(rec domain.Record) sessiondto.RecordOutput {
	return sessiondto.RecordOutput{
		SessionID:          rec.ID,
		BookID:             rec.BookID,
		BookTitle:          rec.BookTitle,
		State:              string(rec.Phase),
		StartedAt:          rec.StartedAt,
		EndedAt:            rec.EndedAt,
		ActiveMs:           rec.ActiveMs,
		CompletedPomodoros: rec.CompletedPomodoros,
		Highlights:         rec.Highlights,
		Notes:              rec.Notes,
		AFKPauses:          rec.AFKPauses,
		MicrobreaksTaken:   rec.MicrobreaksTaken,
	}
}
