package out

import (
	"context"
	"time"

	"lectio/internal/modules/session/domain"
)

// StartRequest is the resolved form of a start command. The book has
// already been looked up and the override conventions match dto.StartInput.
type StartRequest struct {
	BookID                    string
	BookTitle                 string
	PomodoroEnabled           bool
	PomodoroSet               bool
	WorkMinutes               int
	BreakMinutes              int
	AFKTimeoutMinutes         int
	MicrobreakIntervalMinutes int
}

type EventQuery struct {
	Since time.Time
	Limit int
	Types []domain.EventType
}

type RecordStore interface {
	Save(ctx context.Context, record domain.Record) error
	Get(ctx context.Context, sessionID string) (domain.Record, error)
	Latest(ctx context.Context) (domain.Record, error)
	Recent(ctx context.Context, limit int) ([]domain.Record, error)
}

type SettingsStore interface {
	Load(ctx context.Context) (domain.Settings, error)
	Save(ctx context.Context, settings domain.Settings) error
}

type EventStore interface {
	Append(ctx context.Context, event domain.Event) error
	Tail(ctx context.Context, query EventQuery) ([]domain.Event, error)
}

type HighlightSource interface {
	TopForSession(ctx context.Context, sessionID string, limit int) ([]domain.HighlightExcerpt, error)
}

type Notifier interface {
	Notify(ctx context.Context, event domain.Event) error
}

// WrapUpExporter writes a completed session's wrap-up as a note and
// returns the path it landed at.
type WrapUpExporter interface {
	Export(ctx context.Context, wrap domain.WrapUp) (string, error)
}

type DaemonStore interface {
	WritePID(ctx context.Context, pid int) error
	ReadPID(ctx context.Context) (int, error)
	ClearPID(ctx context.Context) error
	WriteMetricsAddr(ctx context.Context, addr string) error
	ClearMetricsAddr(ctx context.Context) error
	SocketPath() string
	LogPath() string
}

type IPCServer interface {
	Serve(ctx context.Context, socketPath string, handler IPCHandler) error
}

type IPCClient interface {
	Start(ctx context.Context, socketPath string, req StartRequest) (domain.Snapshot, error)
	Stop(ctx context.Context, socketPath string) (domain.WrapUp, error)
	Snapshot(ctx context.Context, socketPath string) (domain.Snapshot, error)
	WrapUp(ctx context.Context, socketPath string) (domain.WrapUp, error)
	ReportActivity(ctx context.Context, socketPath string) error
	ConfirmPresence(ctx context.Context, socketPath string) (domain.Snapshot, error)
	DismissAFK(ctx context.Context, socketPath string) (domain.WrapUp, error)
	SkipBreak(ctx context.Context, socketPath string) (domain.Snapshot, error)
	MicrobreakTake(ctx context.Context, socketPath string) (domain.Snapshot, error)
	MicrobreakEnd(ctx context.Context, socketPath string) (domain.Snapshot, error)
	MicrobreakPostpone(ctx context.Context, socketPath string) (domain.Snapshot, error)
	MicrobreakDisableToday(ctx context.Context, socketPath string) (domain.Snapshot, error)
	IncrementHighlights(ctx context.Context, socketPath string) (domain.Snapshot, error)
	IncrementNotes(ctx context.Context, socketPath string) (domain.Snapshot, error)
	History(ctx context.Context, socketPath string, limit int) ([]domain.Record, error)
	EventsTail(ctx context.Context, socketPath string, query EventQuery) ([]domain.Event, error)
	Metrics(ctx context.Context, socketPath string) (domain.Metrics, error)
	Shutdown(ctx context.Context, socketPath string) error
}

type IPCHandler interface {
	Start(ctx context.Context, req StartRequest) (domain.Snapshot, error)
	Stop(ctx context.Context) (domain.WrapUp, error)
	Snapshot(ctx context.Context) (domain.Snapshot, error)
	WrapUp(ctx context.Context) (domain.WrapUp, error)
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
	EventsTail(ctx context.Context, query EventQuery) ([]domain.Event, error)
	Metrics(ctx context.Context) (domain.Metrics, error)
	Shutdown(ctx context.Context) error
}
