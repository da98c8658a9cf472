package in

import (
	"context"
	"time"

	"lectio/internal/modules/session/dto"
)

type Usecase interface {
	RunDaemon(ctx context.Context) error
	StartDaemon(ctx context.Context) error
	StopDaemon(ctx context.Context) error
	DaemonStatus(ctx context.Context) (dto.DaemonStatusOutput, error)
	DaemonLogs(ctx context.Context, tail int) (string, error)

	Start(ctx context.Context, input dto.StartInput) (dto.SnapshotOutput, error)
	Stop(ctx context.Context) (dto.WrapUpOutput, error)
	Snapshot(ctx context.Context) (dto.SnapshotOutput, error)
	WrapUp(ctx context.Context) (dto.WrapUpOutput, error)
	WrapUpFor(ctx context.Context, sessionID string) (dto.WrapUpOutput, error)
	WrapUpExport(ctx context.Context) (string, error)
	ReportActivity(ctx context.Context) error
	ConfirmPresence(ctx context.Context) (dto.SnapshotOutput, error)
	DismissAFK(ctx context.Context) (dto.WrapUpOutput, error)
	SkipBreak(ctx context.Context) (dto.SnapshotOutput, error)
	MicrobreakTake(ctx context.Context) (dto.SnapshotOutput, error)
	MicrobreakEnd(ctx context.Context) (dto.SnapshotOutput, error)
	MicrobreakPostpone(ctx context.Context) (dto.SnapshotOutput, error)
	MicrobreakDisableToday(ctx context.Context) (dto.SnapshotOutput, error)
	IncrementHighlights(ctx context.Context) (dto.SnapshotOutput, error)
	IncrementNotes(ctx context.Context) (dto.SnapshotOutput, error)
	History(ctx context.Context, limit int) ([]dto.RecordOutput, error)
	ActivityTail(ctx context.Context, since time.Time, limit int) ([]dto.ActivityOutput, error)
	Metrics(ctx context.Context) (dto.MetricsOutput, error)
}
