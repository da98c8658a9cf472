package service

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"lectio/internal/modules/session/domain"
	sessionout "lectio/internal/modules/session/port/out"
	"lectio/internal/platform/clock"
	apperrors "lectio/internal/platform/errors"
	"lectio/internal/platform/id"
)

const (
	tickInterval       = time.Second
	persistQueueSize   = 64
	persistEveryTicks  = 30
	notifyTimeout      = 3 * time.Second
	daemonStartTimeout = 5 * time.Second
	defaultLogTail     = 200
	feedBuffer         = 8
)

type tickCounters struct {
	ticks             int64
	broadcasts        int64
	persistErrors     int64
	persistDrops      int64
	sessionsStarted   int64
	sessionsCompleted int64
}

// SessionService owns the single active session. All mutations funnel
// through its mutex, so command handlers and the tick loop never race.
// With an IPC client wired and no runtime the same type forwards every
// call to the daemon process; without a client it runs embedded, which is
// also how tests drive it.
type SessionService struct {
	homePath   string
	records    sessionout.RecordStore
	settings   sessionout.SettingsStore
	events     sessionout.EventStore
	highlights sessionout.HighlightSource
	notifier   sessionout.Notifier
	daemon     sessionout.DaemonStore
	ipcServer  sessionout.IPCServer
	ipcClient  sessionout.IPCClient
	clock      clock.Clock
	ids        id.Generator

	mu        sync.RWMutex
	state     *domain.State
	runtime   *runtimeState
	subs      map[int]chan domain.Snapshot
	nextSubID int
	counters  tickCounters
	persistCh chan domain.Record
}

func NewSessionService(
	homePath string,
	records sessionout.RecordStore,
	settings sessionout.SettingsStore,
	events sessionout.EventStore,
	highlights sessionout.HighlightSource,
	notifier sessionout.Notifier,
	daemon sessionout.DaemonStore,
	ipcServer sessionout.IPCServer,
	ipcClient sessionout.IPCClient,
	clk clock.Clock,
	ids id.Generator,
) *SessionService {
	return &SessionService{
		homePath:   homePath,
		records:    records,
		settings:   settings,
		events:     events,
		highlights: highlights,
		notifier:   notifier,
		daemon:     daemon,
		ipcServer:  ipcServer,
		ipcClient:  ipcClient,
		clock:      clk,
		ids:        ids,
	}
}

// engineHere reports whether this process holds the live state.
func (s *SessionService) engineHere() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.runtime != nil || s.ipcClient == nil
}

func (s *SessionService) Start(ctx context.Context, req sessionout.StartRequest) (domain.Snapshot, error) {
	if !s.engineHere() {
		if !socketReachable(s.daemon.SocketPath()) {
			if err := s.StartDaemon(ctx); err != nil {
				return domain.Snapshot{}, err
			}
		}
		return s.ipcClient.Start(ctx, s.daemon.SocketPath(), req)
	}
	return s.startInProcess(ctx, req)
}

func (s *SessionService) startInProcess(ctx context.Context, req sessionout.StartRequest) (domain.Snapshot, error) {
	settings, err := s.settings.Load(ctx)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("load settings: %w", err)
	}
	cfg := domain.Config{
		BookID:                    req.BookID,
		BookTitle:                 req.BookTitle,
		PomodoroEnabled:           settings.PomodoroEnabled,
		WorkMinutes:               settings.WorkMinutes,
		BreakMinutes:              settings.BreakMinutes,
		AFKTimeoutMinutes:         settings.AFKTimeoutMinutes,
		MicrobreakIntervalMinutes: settings.MicrobreakIntervalMinutes,
	}
	if req.PomodoroSet {
		cfg.PomodoroEnabled = req.PomodoroEnabled
	}
	if req.WorkMinutes > 0 {
		cfg.WorkMinutes = req.WorkMinutes
	}
	if req.BreakMinutes > 0 {
		cfg.BreakMinutes = req.BreakMinutes
	}
	if req.AFKTimeoutMinutes > 0 {
		cfg.AFKTimeoutMinutes = req.AFKTimeoutMinutes
	}
	if req.MicrobreakIntervalMinutes >= 0 {
		cfg.MicrobreakIntervalMinutes = req.MicrobreakIntervalMinutes
	}
	cfg = cfg.Normalized()

	s.mu.Lock()
	if s.state != nil && s.state.Phase != domain.PhaseCompleted {
		s.mu.Unlock()
		return domain.Snapshot{}, apperrors.ErrActiveSessionExists
	}
	now := s.clock.Now()
	state := domain.NewState(s.ids.New(), cfg, now, settings.MicrobreakDisabledFor(now))
	s.state = state
	s.counters.sessionsStarted++
	snap := state.Snapshot()
	rec := state.Record()
	s.mu.Unlock()

	_ = s.appendEvent(ctx, domain.Event{
		Type:    domain.EventStarted,
		Message: "session started",
		Fields: map[string]string{
			"session_id": snap.ID,
			"book_id":    snap.BookID,
		},
	})
	s.enqueuePersist(rec)
	s.broadcast(snap)
	return snap, nil
}

// Stop ends the active session and hands back the wrap-up summary.
func (s *SessionService) Stop(ctx context.Context) (domain.WrapUp, error) {
	if !s.engineHere() {
		if socketReachable(s.daemon.SocketPath()) {
			return s.ipcClient.Stop(ctx, s.daemon.SocketPath())
		}
		return domain.WrapUp{}, apperrors.ErrNoActiveSession
	}
	rec, events, err := s.applyTerminal(func(st *domain.State, now time.Time) ([]domain.EventType, error) {
		return st.Stop(now)
	})
	if err != nil {
		return domain.WrapUp{}, err
	}
	s.finishSession(ctx, rec, events)
	return s.assembleWrapUp(ctx, rec)
}

func (s *SessionService) DismissAFK(ctx context.Context) (domain.WrapUp, error) {
	if !s.engineHere() {
		if socketReachable(s.daemon.SocketPath()) {
			return s.ipcClient.DismissAFK(ctx, s.daemon.SocketPath())
		}
		return domain.WrapUp{}, apperrors.ErrNoActiveSession
	}
	rec, events, err := s.applyTerminal(func(st *domain.State, now time.Time) ([]domain.EventType, error) {
		return st.DismissAFK(now)
	})
	if err != nil {
		return domain.WrapUp{}, err
	}
	s.finishSession(ctx, rec, events)
	return s.assembleWrapUp(ctx, rec)
}

func (s *SessionService) ReportActivity(ctx context.Context) error {
	if !s.engineHere() {
		if socketReachable(s.daemon.SocketPath()) {
			return s.ipcClient.ReportActivity(ctx, s.daemon.SocketPath())
		}
		return apperrors.ErrNoActiveSession
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == nil || s.state.Phase == domain.PhaseCompleted {
		return apperrors.ErrNoActiveSession
	}
	s.state.ReportActivity(s.clock.Now())
	return nil
}

func (s *SessionService) ConfirmPresence(ctx context.Context) (domain.Snapshot, error) {
	return s.mutate(ctx, func(path string) (domain.Snapshot, error) {
		return s.ipcClient.ConfirmPresence(ctx, path)
	}, func(st *domain.State, now time.Time) ([]domain.EventType, error) {
		return st.ConfirmPresence(now)
	})
}

func (s *SessionService) SkipBreak(ctx context.Context) (domain.Snapshot, error) {
	return s.mutate(ctx, func(path string) (domain.Snapshot, error) {
		return s.ipcClient.SkipBreak(ctx, path)
	}, func(st *domain.State, now time.Time) ([]domain.EventType, error) {
		return st.SkipBreak(now)
	})
}

func (s *SessionService) MicrobreakTake(ctx context.Context) (domain.Snapshot, error) {
	return s.mutate(ctx, func(path string) (domain.Snapshot, error) {
		return s.ipcClient.MicrobreakTake(ctx, path)
	}, func(st *domain.State, now time.Time) ([]domain.EventType, error) {
		return st.MicrobreakTake(now)
	})
}

func (s *SessionService) MicrobreakEnd(ctx context.Context) (domain.Snapshot, error) {
	return s.mutate(ctx, func(path string) (domain.Snapshot, error) {
		return s.ipcClient.MicrobreakEnd(ctx, path)
	}, func(st *domain.State, now time.Time) ([]domain.EventType, error) {
		return st.MicrobreakEnd(now)
	})
}

func (s *SessionService) MicrobreakPostpone(ctx context.Context) (domain.Snapshot, error) {
	return s.mutate(ctx, func(path string) (domain.Snapshot, error) {
		return s.ipcClient.MicrobreakPostpone(ctx, path)
	}, func(st *domain.State, now time.Time) ([]domain.EventType, error) {
		return st.MicrobreakPostpone(now)
	})
}

func (s *SessionService) MicrobreakDisableToday(ctx context.Context) (domain.Snapshot, error) {
	snap, err := s.mutate(ctx, func(path string) (domain.Snapshot, error) {
		return s.ipcClient.MicrobreakDisableToday(ctx, path)
	}, func(st *domain.State, now time.Time) ([]domain.EventType, error) {
		return st.MicrobreakDisableToday(now)
	})
	if err != nil {
		return domain.Snapshot{}, err
	}
	if s.engineHere() {
		s.markMicrobreakDisabled(ctx)
	}
	return snap, nil
}

// markMicrobreakDisabled writes the date marker so the suppression
// survives this session and any daemon restart until midnight.
func (s *SessionService) markMicrobreakDisabled(ctx context.Context) {
	settings, err := s.settings.Load(ctx)
	if err != nil {
		return
	}
	settings.MicrobreakDisabledOn = s.clock.Now().Format(time.DateOnly)
	if err := s.settings.Save(ctx, settings); err != nil {
		_ = s.appendEvent(ctx, domain.Event{
			Type:    domain.EventPersistFailed,
			Message: "settings write failed",
			Fields:  map[string]string{"error": err.Error()},
		})
	}
}

func (s *SessionService) IncrementHighlights(ctx context.Context) (domain.Snapshot, error) {
	return s.mutate(ctx, func(path string) (domain.Snapshot, error) {
		return s.ipcClient.IncrementHighlights(ctx, path)
	}, func(st *domain.State, _ time.Time) ([]domain.EventType, error) {
		st.IncrementHighlights()
		return nil, nil
	})
}

func (s *SessionService) IncrementNotes(ctx context.Context) (domain.Snapshot, error) {
	return s.mutate(ctx, func(path string) (domain.Snapshot, error) {
		return s.ipcClient.IncrementNotes(ctx, path)
	}, func(st *domain.State, _ time.Time) ([]domain.EventType, error) {
		st.IncrementNotes()
		return nil, nil
	})
}

func (s *SessionService) Snapshot(ctx context.Context) (domain.Snapshot, error) {
	if !s.engineHere() {
		if socketReachable(s.daemon.SocketPath()) {
			return s.ipcClient.Snapshot(ctx, s.daemon.SocketPath())
		}
		return domain.Snapshot{}, apperrors.ErrNoActiveSession
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state == nil || s.state.Phase == domain.PhaseCompleted {
		return domain.Snapshot{}, apperrors.ErrNoActiveSession
	}
	return s.state.Snapshot(), nil
}

// WrapUp reports the most recently completed session. It stays answerable
// after a daemon restart because records live in the store.
func (s *SessionService) WrapUp(ctx context.Context) (domain.WrapUp, error) {
	if !s.engineHere() && socketReachable(s.daemon.SocketPath()) {
		return s.ipcClient.WrapUp(ctx, s.daemon.SocketPath())
	}
	rec, err := s.records.Latest(ctx)
	if err != nil {
		return domain.WrapUp{}, err
	}
	return s.assembleWrapUp(ctx, rec)
}

// WrapUpFor answers for any recorded session straight from the store. WAL
// lets this read run beside the daemon's writes, so no IPC round trip.
func (s *SessionService) WrapUpFor(ctx context.Context, sessionID string) (domain.WrapUp, error) {
	rec, err := s.records.Get(ctx, sessionID)
	if err != nil {
		return domain.WrapUp{}, err
	}
	if rec.Phase != domain.PhaseCompleted {
		return domain.WrapUp{}, apperrors.ErrInvalidPhase
	}
	return s.assembleWrapUp(ctx, rec)
}

func (s *SessionService) History(ctx context.Context, limit int) ([]domain.Record, error) {
	if !s.engineHere() && socketReachable(s.daemon.SocketPath()) {
		return s.ipcClient.History(ctx, s.daemon.SocketPath(), limit)
	}
	return s.records.Recent(ctx, limit)
}

func (s *SessionService) EventsTail(ctx context.Context, query sessionout.EventQuery) ([]domain.Event, error) {
	if !s.engineHere() && socketReachable(s.daemon.SocketPath()) {
		return s.ipcClient.EventsTail(ctx, s.daemon.SocketPath(), query)
	}
	return s.events.Tail(ctx, query)
}

func (s *SessionService) Metrics(ctx context.Context) (domain.Metrics, error) {
	if !s.engineHere() {
		if socketReachable(s.daemon.SocketPath()) {
			return s.ipcClient.Metrics(ctx, s.daemon.SocketPath())
		}
		return domain.Metrics{}, domain.ErrDaemonNotRunning
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	m := domain.Metrics{
		PID:               os.Getpid(),
		Ticks:             s.counters.ticks,
		Broadcasts:        s.counters.broadcasts,
		PersistErrors:     s.counters.persistErrors,
		PersistDrops:      s.counters.persistDrops,
		SessionsStarted:   s.counters.sessionsStarted,
		SessionsCompleted: s.counters.sessionsCompleted,
		ActiveSession:     s.state != nil && s.state.Phase != domain.PhaseCompleted,
	}
	if s.runtime != nil {
		m.StartedAt = s.runtime.startedAt
		m.MetricsAddr = s.runtime.metricsAddr
	}
	return m, nil
}

// Subscribe registers a snapshot feed. Slow consumers miss beats instead
// of stalling the tick loop; the returned func unregisters.
func (s *SessionService) Subscribe(buffer int) (<-chan domain.Snapshot, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan domain.Snapshot, buffer)
	s.mu.Lock()
	if s.subs == nil {
		s.subs = make(map[int]chan domain.Snapshot)
	}
	subID := s.nextSubID
	s.nextSubID++
	s.subs[subID] = ch
	s.mu.Unlock()
	return ch, func() {
		s.mu.Lock()
		if existing, ok := s.subs[subID]; ok {
			delete(s.subs, subID)
			close(existing)
		}
		s.mu.Unlock()
	}
}

// mutate runs one command against the live state, or forwards it when this
// process is not the engine.
func (s *SessionService) mutate(
	_ context.Context,
	forward func(string) (domain.Snapshot, error),
	apply func(*domain.State, time.Time) ([]domain.EventType, error),
) (domain.Snapshot, error) {
	if !s.engineHere() {
		if socketReachable(s.daemon.SocketPath()) {
			return forward(s.daemon.SocketPath())
		}
		return domain.Snapshot{}, apperrors.ErrNoActiveSession
	}

	s.mu.Lock()
	st := s.state
	if st == nil || st.Phase == domain.PhaseCompleted {
		s.mu.Unlock()
		return domain.Snapshot{}, apperrors.ErrNoActiveSession
	}
	events, err := apply(st, s.clock.Now())
	if err != nil {
		s.mu.Unlock()
		return domain.Snapshot{}, err
	}
	snap := st.Snapshot()
	rec := st.Record()
	s.mu.Unlock()

	s.emitEvents(context.Background(), events, snap)
	if domain.PersistWorthy(events) {
		s.enqueuePersist(rec)
	}
	s.broadcast(snap)
	s.notifyObservers(events, snap)
	return snap, nil
}

// applyTerminal is mutate's sibling for commands that end the session.
func (s *SessionService) applyTerminal(
	apply func(*domain.State, time.Time) ([]domain.EventType, error),
) (domain.Record, []domain.EventType, error) {
	s.mu.Lock()
	st := s.state
	if st == nil {
		s.mu.Unlock()
		return domain.Record{}, nil, apperrors.ErrNoActiveSession
	}
	events, err := apply(st, s.clock.Now())
	if err != nil {
		s.mu.Unlock()
		return domain.Record{}, nil, err
	}
	s.counters.sessionsCompleted++
	rec := st.Record()
	snap := st.Snapshot()
	s.mu.Unlock()

	s.broadcast(snap)
	return rec, events, nil
}

func (s *SessionService) finishSession(ctx context.Context, rec domain.Record, events []domain.EventType) {
	snap := domain.Snapshot{ID: rec.ID, BookID: rec.BookID, BookTitle: rec.BookTitle, State: rec.Phase}
	s.emitEvents(ctx, events, snap)
	s.enqueuePersist(rec)
	s.notifyObservers(events, snap)
}

// tick is the scheduler beat. A panic here must never take the daemon
// down mid-session, so it is contained and logged.
func (s *SessionService) tick(now time.Time) {
	defer func() {
		if r := recover(); r != nil {
			_ = s.appendEvent(context.Background(), domain.Event{
				Type:    domain.EventTickRecovered,
				Message: "tick recovered from panic",
				Fields:  map[string]string{"panic": fmt.Sprint(r)},
			})
		}
	}()

	s.mu.Lock()
	s.counters.ticks++
	ticks := s.counters.ticks
	st := s.state
	if st == nil || st.Phase == domain.PhaseCompleted {
		s.mu.Unlock()
		return
	}
	events := st.Tick(now)
	snap := st.Snapshot()
	rec := st.Record()
	s.mu.Unlock()

	s.emitEvents(context.Background(), events, snap)
	if domain.PersistWorthy(events) || ticks%persistEveryTicks == 0 {
		s.enqueuePersist(rec)
	}
	s.broadcast(snap)
	s.notifyObservers(events, snap)
}

func (s *SessionService) broadcast(snap domain.Snapshot) {
	s.mu.Lock()
	s.counters.broadcasts++
	for _, ch := range s.subs {
		select {
		case ch <- snap:
		default:
		}
	}
	s.mu.Unlock()
}

func (s *SessionService) emitEvents(ctx context.Context, events []domain.EventType, snap domain.Snapshot) {
	for _, t := range events {
		_ = s.appendEvent(ctx, domain.Event{
			Type:    t,
			Message: eventMessage(t),
			Fields:  map[string]string{"session_id": snap.ID},
		})
	}
}

func (s *SessionService) appendEvent(ctx context.Context, event domain.Event) error {
	if s.events == nil {
		return nil
	}
	if event.ID == "" {
		event.ID = s.ids.New()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = s.clock.Now()
	}
	if err := s.events.Append(ctx, event); err != nil {
		return err
	}
	encoded, _ := json.Marshal(event)
	_, _ = fmt.Fprintln(os.Stdout, string(encoded))
	return nil
}

func (s *SessionService) notifyObservers(events []domain.EventType, snap domain.Snapshot) {
	if s.notifier == nil {
		return
	}
	for _, t := range events {
		if !domain.NotifyWorthy(t) {
			continue
		}
		event := domain.Event{
			ID:         s.ids.New(),
			Type:       t,
			Message:    eventMessage(t),
			Fields:     map[string]string{"session_id": snap.ID, "book_id": snap.BookID},
			OccurredAt: s.clock.Now(),
		}
		go func(e domain.Event) {
			ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
			defer cancel()
			_ = s.notifier.Notify(ctx, e)
		}(event)
	}
}

func (s *SessionService) enqueuePersist(rec domain.Record) {
	s.mu.RLock()
	ch := s.persistCh
	s.mu.RUnlock()
	if ch == nil {
		// No worker outside the daemon loop; write inline.
		s.persistNow(context.Background(), rec)
		return
	}
	select {
	case ch <- rec:
	default:
		s.mu.Lock()
		s.counters.persistDrops++
		s.mu.Unlock()
		_ = s.appendEvent(context.Background(), domain.Event{
			Type:    domain.EventPersistDropped,
			Message: "persist queue full, record dropped",
			Fields:  map[string]string{"session_id": rec.ID},
		})
	}
}

func (s *SessionService) persistLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			for {
				select {
				case rec := <-s.persistCh:
					s.persistNow(context.Background(), rec)
				default:
					return
				}
			}
		case rec := <-s.persistCh:
			s.persistNow(ctx, rec)
		}
	}
}

func (s *SessionService) persistNow(ctx context.Context, rec domain.Record) {
	if err := s.records.Save(ctx, rec); err != nil {
		s.mu.Lock()
		s.counters.persistErrors++
		s.mu.Unlock()
		_ = s.appendEvent(ctx, domain.Event{
			Type:    domain.EventPersistFailed,
			Message: "session record write failed",
			Fields:  map[string]string{"session_id": rec.ID, "error": err.Error()},
		})
	}
}

func (s *SessionService) assembleWrapUp(ctx context.Context, rec domain.Record) (domain.WrapUp, error) {
	wrap := domain.WrapUp{
		SessionID:          rec.ID,
		BookID:             rec.BookID,
		BookTitle:          rec.BookTitle,
		StartedAt:          rec.StartedAt,
		EndedAt:            rec.EndedAt,
		ActiveMs:           rec.ActiveMs,
		CompletedPomodoros: rec.CompletedPomodoros,
		Highlights:         rec.Highlights,
		Notes:              rec.Notes,
		AFKPauses:          rec.AFKPauses,
		MicrobreaksTaken:   rec.MicrobreaksTaken,
	}
	limit := domain.DefaultSettings().WrapUpHighlights
	if settings, err := s.settings.Load(ctx); err == nil && settings.WrapUpHighlights > 0 {
		limit = settings.WrapUpHighlights
	}
	if s.highlights != nil && wrap.Highlights > 0 {
		if top, err := s.highlights.TopForSession(ctx, rec.ID, limit); err == nil {
			wrap.TopHighlights = top
		}
	}
	return wrap, nil
}

func eventMessage(t domain.EventType) string {
	switch t {
	case domain.EventStarted:
		return "session started"
	case domain.EventCompleted:
		return "session completed"
	case domain.EventAFKPaused:
		return "no activity, session paused"
	case domain.EventResumed:
		return "presence confirmed, session resumed"
	case domain.EventBreakStarted:
		return "work interval done, break started"
	case domain.EventBreakFinished:
		return "break finished, back to work"
	case domain.EventBreakSkipped:
		return "break skipped"
	case domain.EventMicrobreakDue:
		return "time to stand up"
	case domain.EventMicrobreakStarted:
		return "microbreak started"
	case domain.EventMicrobreakEnded:
		return "microbreak ended"
	case domain.EventMicrobreakPostponed:
		return "microbreak postponed"
	case domain.EventMicrobreakDisabled:
		return "microbreaks off for today"
	default:
		return string(t)
	}
}
