package in

import (
	"context"
	"time"

	sessiondto "lectio/internal/modules/session/dto"
	sessionin "lectio/internal/modules/session/port/in"
)

type CLIHandler struct {
	usecase sessionin.Usecase
}

func NewCLIHandler(usecase sessionin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) RunDaemon(ctx context.Context) error {
	return h.usecase.RunDaemon(ctx)
}

func (h CLIHandler) StartDaemon(ctx context.Context) error {
	return h.usecase.StartDaemon(ctx)
}

func (h CLIHandler) StopDaemon(ctx context.Context) error {
	return h.usecase.StopDaemon(ctx)
}

func (h CLIHandler) DaemonStatus(ctx context.Context) (sessiondto.DaemonStatusOutput, error) {
	return h.usecase.DaemonStatus(ctx)
}

func (h CLIHandler) DaemonLogs(ctx context.Context, tail int) (string, error) {
	return h.usecase.DaemonLogs(ctx, tail)
}

// Start maps flag-level values onto a StartInput. A negative microbreak
// interval means the flag was not set and the stored settings apply.
func (h CLIHandler) Start(ctx context.Context, bookRef string, pomodoroSet, pomodoroEnabled bool, workMinutes, breakMinutes, afkTimeoutMinutes, microbreakIntervalMinutes int) (sessiondto.SnapshotOutput, error) {
	return h.usecase.Start(ctx, sessiondto.StartInput{
		BookID:                    bookRef,
		PomodoroEnabled:           pomodoroEnabled,
		PomodoroSet:               pomodoroSet,
		WorkMinutes:               workMinutes,
		BreakMinutes:              breakMinutes,
		AFKTimeoutMinutes:         afkTimeoutMinutes,
		MicrobreakIntervalMinutes: microbreakIntervalMinutes,
	})
}

func (h CLIHandler) Stop(ctx context.Context) (sessiondto.WrapUpOutput, error) {
	return h.usecase.Stop(ctx)
}

func (h CLIHandler) Snapshot(ctx context.Context) (sessiondto.SnapshotOutput, error) {
	return h.usecase.Snapshot(ctx)
}

func (h CLIHandler) WrapUp(ctx context.Context) (sessiondto.WrapUpOutput, error) {
	return h.usecase.WrapUp(ctx)
}

func (h CLIHandler) WrapUpFor(ctx context.Context, sessionID string) (sessiondto.WrapUpOutput, error) {
	return h.usecase.WrapUpFor(ctx, sessionID)
}

func (h CLIHandler) WrapUpExport(ctx context.Context) (string, error) {
	return h.usecase.WrapUpExport(ctx)
}

func (h CLIHandler) ReportActivity(ctx context.Context) error {
	return h.usecase.ReportActivity(ctx)
}

func (h CLIHandler) ConfirmPresence(ctx context.Context) (sessiondto.SnapshotOutput, error) {
	return h.usecase.ConfirmPresence(ctx)
}

func (h CLIHandler) DismissAFK(ctx context.Context) (sessiondto.WrapUpOutput, error) {
	return h.usecase.DismissAFK(ctx)
}

func (h CLIHandler) SkipBreak(ctx context.Context) (sessiondto.SnapshotOutput, error) {
	return h.usecase.SkipBreak(ctx)
}

func (h CLIHandler) MicrobreakTake(ctx context.Context) (sessiondto.SnapshotOutput, error) {
	return h.usecase.MicrobreakTake(ctx)
}

func (h CLIHandler) MicrobreakEnd(ctx context.Context) (sessiondto.SnapshotOutput, error) {
	return h.usecase.MicrobreakEnd(ctx)
}

func (h CLIHandler) MicrobreakPostpone(ctx context.Context) (sessiondto.SnapshotOutput, error) {
	return h.usecase.MicrobreakPostpone(ctx)
}

func (h CLIHandler) MicrobreakDisableToday(ctx context.Context) (sessiondto.SnapshotOutput, error) {
	return h.usecase.MicrobreakDisableToday(ctx)
}

func (h CLIHandler) IncrementHighlights(ctx context.Context) (sessiondto.SnapshotOutput, error) {
	return h.usecase.IncrementHighlights(ctx)
}

func (h CLIHandler) IncrementNotes(ctx context.Context) (sessiondto.SnapshotOutput, error) {
	return h.usecase.IncrementNotes(ctx)
}

func (h CLIHandler) History(ctx context.Context, limit int) ([]sessiondto.RecordOutput, error) {
	return h.usecase.History(ctx, limit)
}

func (h CLIHandler) ActivityTail(ctx context.Context, since time.Time, limit int) ([]sessiondto.ActivityOutput, error) {
	return h.usecase.ActivityTail(ctx, since, limit)
}

func (h CLIHandler) Metrics(ctx context.Context) (sessiondto.MetricsOutput, error) {
	return h.usecase.Metrics(ctx)
}
