package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"testing"
	"time"

	apperrors "lectio/internal/platform/errors"

	"lectio/internal/modules/session/domain"
	sessionout "lectio/internal/modules/session/port/out"
)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) advance(d time.Duration) time.Time {
	c.now = c.now.Add(d)
	return c.now
}

type seqIDs struct{ n int }

func (g *seqIDs) New() string {
	g.n++
	return fmt.Sprintf("id-%d", g.n)
}

type memRecordStore struct {
	records map[string]domain.Record
	saves   int
	saveErr error
}

func newMemRecordStore() *memRecordStore {
	return &memRecordStore{records: map[string]domain.Record{}}
}

func (s *memRecordStore) Save(_ context.Context, rec domain.Record) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.records[rec.ID] = rec
	s.saves++
	return nil
}

func (s *memRecordStore) Get(_ context.Context, id string) (domain.Record, error) {
	rec, ok := s.records[id]
	if !ok {
		return domain.Record{}, apperrors.ErrNotFound
	}
	return rec, nil
}

func (s *memRecordStore) Latest(_ context.Context) (domain.Record, error) {
	var latest domain.Record
	found := false
	for _, rec := range s.records {
		if rec.Phase != domain.PhaseCompleted {
			continue
		}
		if !found || rec.EndedAt.After(latest.EndedAt) {
			latest = rec
			found = true
		}
	}
	if !found {
		return domain.Record{}, apperrors.ErrNotFound
	}
	return latest, nil
}

func (s *memRecordStore) Recent(_ context.Context, limit int) ([]domain.Record, error) {
	out := make([]domain.Record, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type memSettingsStore struct {
	settings domain.Settings
	saved    []domain.Settings
	saveErr  error
}

func (s *memSettingsStore) Load(context.Context) (domain.Settings, error) {
	return s.settings, nil
}

func (s *memSettingsStore) Save(_ context.Context, settings domain.Settings) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.settings = settings
	s.saved = append(s.saved, settings)
	return nil
}

type memEventStore struct{ events []domain.Event }

func (s *memEventStore) Append(_ context.Context, event domain.Event) error {
	s.events = append(s.events, event)
	return nil
}

func (s *memEventStore) Tail(_ context.Context, query sessionout.EventQuery) ([]domain.Event, error) {
	out := make([]domain.Event, 0, len(s.events))
	for _, event := range s.events {
		if !query.Since.IsZero() && event.OccurredAt.Before(query.Since) {
			continue
		}
		out = append(out, event)
	}
	if query.Limit > 0 && len(out) > query.Limit {
		out = out[len(out)-query.Limit:]
	}
	return out, nil
}

type fakeHighlightSource struct {
	excerpts   []domain.HighlightExcerpt
	gotSession string
	gotLimit   int
}

func (f *fakeHighlightSource) TopForSession(_ context.Context, sessionID string, limit int) ([]domain.HighlightExcerpt, error) {
	f.gotSession = sessionID
	f.gotLimit = limit
	return f.excerpts, nil
}

type chanNotifier struct{ got chan domain.Event }

func (n *chanNotifier) Notify(_ context.Context, event domain.Event) error {
	select {
	case n.got <- event:
	default:
	}
	return nil
}

type fakeDaemonStore struct {
	pidPath     string
	socketPath  string
	logPath     string
	metricsAddr string
}

func newFakeDaemonStore(homePath string) *fakeDaemonStore {
	base := filepath.Join(homePath, "daemon")
	return &fakeDaemonStore{
		pidPath:    filepath.Join(base, "daemon.pid"),
		socketPath: filepath.Join(base, "daemon.sock"),
		logPath:    filepath.Join(base, "daemon.log"),
	}
}

func (d *fakeDaemonStore) WritePID(_ context.Context, pid int) error {
	if err := os.MkdirAll(filepath.Dir(d.pidPath), 0o755); err != nil {
		return err
	}
	return os.WriteFile(d.pidPath, []byte(strconv.Itoa(pid)), 0o644)
}

func (d *fakeDaemonStore) ReadPID(_ context.Context) (int, error) {
	raw, err := os.ReadFile(d.pidPath)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(raw)))
}

func (d *fakeDaemonStore) ClearPID(_ context.Context) error {
	if err := os.Remove(d.pidPath); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (d *fakeDaemonStore) WriteMetricsAddr(_ context.Context, addr string) error {
	d.metricsAddr = addr
	return nil
}

func (d *fakeDaemonStore) ClearMetricsAddr(_ context.Context) error {
	d.metricsAddr = ""
	return nil
}

func (d *fakeDaemonStore) SocketPath() string { return d.socketPath }
func (d *fakeDaemonStore) LogPath() string    { return d.logPath }

type noopIPCServer struct{}

func (noopIPCServer) Serve(context.Context, string, sessionout.IPCHandler) error { return nil }

type harness struct {
	clock    *fakeClock
	records  *memRecordStore
	settings *memSettingsStore
	events   *memEventStore
	source   *fakeHighlightSource
	notifier *chanNotifier
	daemon   *fakeDaemonStore
}

// newServiceForTest wires the service with a nil IPC client so every call
// runs against the in-process engine and persistence happens inline.
func newServiceForTest(t *testing.T) (*SessionService, *harness) {
	t.Helper()
	home := t.TempDir()
	h := &harness{
		clock:    &fakeClock{now: time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)},
		records:  newMemRecordStore(),
		settings: &memSettingsStore{settings: domain.DefaultSettings()},
		events:   &memEventStore{},
		source:   &fakeHighlightSource{},
		notifier: &chanNotifier{got: make(chan domain.Event, 16)},
		daemon:   newFakeDaemonStore(home),
	}
	svc := NewSessionService(
		home,
		h.records,
		h.settings,
		h.events,
		h.source,
		h.notifier,
		h.daemon,
		noopIPCServer{},
		nil,
		h.clock,
		&seqIDs{},
	)
	return svc, h
}

func hasEvent(events []domain.Event, eventType domain.EventType) bool {
	for _, event := range events {
		if event.Type == eventType {
			return true
		}
	}
	return false
}

func waitNotification(t *testing.T, ch chan domain.Event, eventType domain.EventType) domain.Event {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case event := <-ch:
			if event.Type == eventType {
				return event
			}
		case <-deadline:
			t.Fatalf("no %s notification arrived", eventType)
		}
	}
}

func TestStartAppliesStoredSettingsAndOverrides(t *testing.T) {
	t.Parallel()
	svc, h := newServiceForTest(t)
	h.settings.settings.WorkMinutes = 10
	h.settings.settings.BreakMinutes = 2

	snap, err := svc.Start(context.Background(), sessionout.StartRequest{
		BookID:                    "bk-1",
		BookTitle:                 "The Left Hand of Darkness",
		PomodoroEnabled:           true,
		PomodoroSet:               true,
		MicrobreakIntervalMinutes: -1,
	})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if snap.State != domain.PhaseRunning {
		t.Fatalf("expected running, got %s", snap.State)
	}
	if !snap.PomodoroEnabled || snap.PomodoroRemainingSeconds != 600 {
		t.Fatalf("expected 10-minute pomodoro from stored settings, got enabled=%v remaining=%d", snap.PomodoroEnabled, snap.PomodoroRemainingSeconds)
	}
	if snap.TimerSeconds != 0 || snap.ActiveMs != 0 {
		t.Fatalf("fresh session should start at zero, got timer=%d activeMs=%d", snap.TimerSeconds, snap.ActiveMs)
	}
	rec, err := h.records.Get(context.Background(), snap.ID)
	if err != nil {
		t.Fatalf("start should persist the record: %v", err)
	}
	if rec.Phase != domain.PhaseRunning || rec.BookTitle != "The Left Hand of Darkness" {
		t.Fatalf("unexpected stored record: %+v", rec)
	}
	if !hasEvent(h.events.events, domain.EventStarted) {
		t.Fatalf("expected a session_started event, got %+v", h.events.events)
	}
}

func TestStartWhileActiveRejected(t *testing.T) {
	t.Parallel()
	svc, _ := newServiceForTest(t)
	if _, err := svc.Start(context.Background(), sessionout.StartRequest{BookID: "bk-1"}); err != nil {
		t.Fatalf("first start: %v", err)
	}
	_, err := svc.Start(context.Background(), sessionout.StartRequest{BookID: "bk-2"})
	if !errors.Is(err, apperrors.ErrActiveSessionExists) {
		t.Fatalf("expected active-session error, got %v", err)
	}
	m, err := svc.Metrics(context.Background())
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}
	if m.SessionsStarted != 1 || !m.ActiveSession {
		t.Fatalf("unexpected metrics after rejected start: %+v", m)
	}
}

func TestTickCheckpointPersistsPeriodically(t *testing.T) {
	t.Parallel()
	svc, h := newServiceForTest(t)
	snap, err := svc.Start(context.Background(), sessionout.StartRequest{BookID: "bk-1"})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	for i := 0; i < persistEveryTicks-1; i++ {
		svc.tick(h.clock.advance(time.Second))
	}
	if h.records.saves != 1 {
		t.Fatalf("no checkpoint expected before tick %d, saves=%d", persistEveryTicks, h.records.saves)
	}
	svc.tick(h.clock.advance(time.Second))
	if h.records.saves != 2 {
		t.Fatalf("expected checkpoint at tick %d, saves=%d", persistEveryTicks, h.records.saves)
	}
	rec, err := h.records.Get(context.Background(), snap.ID)
	if err != nil {
		t.Fatalf("get record: %v", err)
	}
	if rec.ActiveMs != int64(persistEveryTicks)*1000 {
		t.Fatalf("expected %d ms accrued, got %d", persistEveryTicks*1000, rec.ActiveMs)
	}
}

func TestAFKPauseFreezesAndNotifies(t *testing.T) {
	t.Parallel()
	svc, h := newServiceForTest(t)
	if _, err := svc.Start(context.Background(), sessionout.StartRequest{BookID: "bk-1", AFKTimeoutMinutes: 1}); err != nil {
		t.Fatalf("start: %v", err)
	}
	for i := 0; i < 60; i++ {
		svc.tick(h.clock.advance(time.Second))
	}
	snap, err := svc.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if snap.State != domain.PhasePausedAFK {
		t.Fatalf("expected paused_afk after a silent minute, got %s", snap.State)
	}
	frozen := snap.ActiveMs
	for i := 0; i < 10; i++ {
		svc.tick(h.clock.advance(time.Second))
	}
	snap, err = svc.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if snap.ActiveMs != frozen {
		t.Fatalf("paused session must not accrue, got %d then %d", frozen, snap.ActiveMs)
	}
	if !hasEvent(h.events.events, domain.EventAFKPaused) {
		t.Fatalf("expected afk_paused event, got %+v", h.events.events)
	}
	waitNotification(t, h.notifier.got, domain.EventAFKPaused)
}

func TestReportActivityDoesNotResumeAFK(t *testing.T) {
	t.Parallel()
	svc, h := newServiceForTest(t)
	if _, err := svc.Start(context.Background(), sessionout.StartRequest{BookID: "bk-1", AFKTimeoutMinutes: 1}); err != nil {
		t.Fatalf("start: %v", err)
	}
	for i := 0; i < 60; i++ {
		svc.tick(h.clock.advance(time.Second))
	}
	if err := svc.ReportActivity(context.Background()); err != nil {
		t.Fatalf("report activity: %v", err)
	}
	svc.tick(h.clock.advance(time.Second))
	snap, err := svc.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if snap.State != domain.PhasePausedAFK {
		t.Fatalf("activity alone must not resume, got %s", snap.State)
	}
}

func TestConfirmPresenceResumesAndPersists(t *testing.T) {
	t.Parallel()
	svc, h := newServiceForTest(t)
	if _, err := svc.Start(context.Background(), sessionout.StartRequest{BookID: "bk-1", AFKTimeoutMinutes: 1}); err != nil {
		t.Fatalf("start: %v", err)
	}
	for i := 0; i < 60; i++ {
		svc.tick(h.clock.advance(time.Second))
	}
	savesBefore := h.records.saves
	snap, err := svc.ConfirmPresence(context.Background())
	if err != nil {
		t.Fatalf("confirm presence: %v", err)
	}
	if snap.State != domain.PhaseRunning {
		t.Fatalf("expected running after confirm, got %s", snap.State)
	}
	if h.records.saves != savesBefore+1 {
		t.Fatalf("resume should checkpoint the record, saves=%d", h.records.saves)
	}
	if !hasEvent(h.events.events, domain.EventResumed) {
		t.Fatalf("expected presence_confirmed event")
	}
}

func TestStopAssemblesWrapUp(t *testing.T) {
	t.Parallel()
	svc, h := newServiceForTest(t)
	h.source.excerpts = []domain.HighlightExcerpt{
		{Body: "first marked passage", CreatedAt: h.clock.Now()},
		{Body: "second marked passage", CreatedAt: h.clock.Now()},
	}
	start, err := svc.Start(context.Background(), sessionout.StartRequest{BookID: "bk-1", BookTitle: "Dune"})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	for i := 0; i < 90; i++ {
		svc.tick(h.clock.advance(time.Second))
	}
	if _, err := svc.IncrementHighlights(context.Background()); err != nil {
		t.Fatalf("increment highlights: %v", err)
	}
	if _, err := svc.IncrementHighlights(context.Background()); err != nil {
		t.Fatalf("increment highlights: %v", err)
	}
	if _, err := svc.IncrementNotes(context.Background()); err != nil {
		t.Fatalf("increment notes: %v", err)
	}

	wrap, err := svc.Stop(context.Background())
	if err != nil {
		t.Fatalf("stop: %v", err)
	}
	if wrap.SessionID != start.ID || wrap.BookTitle != "Dune" {
		t.Fatalf("unexpected wrap-up identity: %+v", wrap)
	}
	if wrap.ActiveMs != 90_000 {
		t.Fatalf("expected 90s of active time, got %d ms", wrap.ActiveMs)
	}
	if wrap.Highlights != 2 || wrap.Notes != 1 {
		t.Fatalf("unexpected wrap-up counts: highlights=%d notes=%d", wrap.Highlights, wrap.Notes)
	}
	if len(wrap.TopHighlights) != 2 {
		t.Fatalf("expected top highlights from the annotation side, got %d", len(wrap.TopHighlights))
	}
	if h.source.gotSession != start.ID || h.source.gotLimit != domain.DefaultSettings().WrapUpHighlights {
		t.Fatalf("highlight source queried with session=%q limit=%d", h.source.gotSession, h.source.gotLimit)
	}

	rec, err := h.records.Get(context.Background(), start.ID)
	if err != nil {
		t.Fatalf("get record: %v", err)
	}
	if rec.Phase != domain.PhaseCompleted || rec.EndedAt.IsZero() {
		t.Fatalf("stop should persist a completed record: %+v", rec)
	}
	if _, err := svc.Snapshot(context.Background()); !errors.Is(err, apperrors.ErrNoActiveSession) {
		t.Fatalf("snapshot after stop should report no session, got %v", err)
	}
	if _, err := svc.Stop(context.Background()); !errors.Is(err, apperrors.ErrNoActiveSession) {
		t.Fatalf("second stop should report no session, got %v", err)
	}
	m, err := svc.Metrics(context.Background())
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}
	if m.SessionsCompleted != 1 || m.ActiveSession {
		t.Fatalf("unexpected metrics after stop: %+v", m)
	}
}

func TestDismissAFKEndsSession(t *testing.T) {
	t.Parallel()
	svc, h := newServiceForTest(t)
	if _, err := svc.DismissAFK(context.Background()); !errors.Is(err, apperrors.ErrNoActiveSession) {
		t.Fatalf("dismiss without session should fail, got %v", err)
	}
	if _, err := svc.Start(context.Background(), sessionout.StartRequest{BookID: "bk-1", AFKTimeoutMinutes: 1}); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := svc.DismissAFK(context.Background()); !errors.Is(err, apperrors.ErrInvalidPhase) {
		t.Fatalf("dismiss while running should fail, got %v", err)
	}
	for i := 0; i < 60; i++ {
		svc.tick(h.clock.advance(time.Second))
	}
	wrap, err := svc.DismissAFK(context.Background())
	if err != nil {
		t.Fatalf("dismiss afk: %v", err)
	}
	if wrap.AFKPauses != 1 {
		t.Fatalf("expected one afk pause in wrap-up, got %d", wrap.AFKPauses)
	}
	if _, err := svc.Snapshot(context.Background()); !errors.Is(err, apperrors.ErrNoActiveSession) {
		t.Fatalf("dismissed session should be gone, got %v", err)
	}
	if !hasEvent(h.events.events, domain.EventCompleted) {
		t.Fatalf("expected session_completed event")
	}
}

func TestPersistFailureLoggedNotFatal(t *testing.T) {
	t.Parallel()
	svc, h := newServiceForTest(t)
	h.records.saveErr = errors.New("disk full")

	snap, err := svc.Start(context.Background(), sessionout.StartRequest{BookID: "bk-1"})
	if err != nil {
		t.Fatalf("start must survive a persistence failure: %v", err)
	}
	if snap.State != domain.PhaseRunning {
		t.Fatalf("expected running, got %s", snap.State)
	}
	if !hasEvent(h.events.events, domain.EventPersistFailed) {
		t.Fatalf("expected persist_failed event, got %+v", h.events.events)
	}
	m, err := svc.Metrics(context.Background())
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}
	if m.PersistErrors != 1 {
		t.Fatalf("expected one persist error counted, got %d", m.PersistErrors)
	}
}

func TestWrapUpReadsLatestCompleted(t *testing.T) {
	t.Parallel()
	svc, h := newServiceForTest(t)
	if _, err := svc.WrapUp(context.Background()); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("wrap-up with no history should be not-found, got %v", err)
	}
	start, err := svc.Start(context.Background(), sessionout.StartRequest{BookID: "bk-1"})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	for i := 0; i < 5; i++ {
		svc.tick(h.clock.advance(time.Second))
	}
	if _, err := svc.Stop(context.Background()); err != nil {
		t.Fatalf("stop: %v", err)
	}
	wrap, err := svc.WrapUp(context.Background())
	if err != nil {
		t.Fatalf("wrap-up: %v", err)
	}
	if wrap.SessionID != start.ID || wrap.ActiveMs != 5_000 {
		t.Fatalf("unexpected wrap-up: %+v", wrap)
	}
}

func TestWrapUpForAnswersOlderSessions(t *testing.T) {
	t.Parallel()
	svc, h := newServiceForTest(t)

	first, err := svc.Start(context.Background(), sessionout.StartRequest{BookID: "bk-1"})
	if err != nil {
		t.Fatalf("start first: %v", err)
	}
	svc.tick(h.clock.advance(time.Second))
	if _, err := svc.Stop(context.Background()); err != nil {
		t.Fatalf("stop first: %v", err)
	}

	h.clock.advance(time.Minute)
	if _, err := svc.Start(context.Background(), sessionout.StartRequest{BookID: "bk-2"}); err != nil {
		t.Fatalf("start second: %v", err)
	}
	svc.tick(h.clock.advance(time.Second))
	if _, err := svc.Stop(context.Background()); err != nil {
		t.Fatalf("stop second: %v", err)
	}

	wrap, err := svc.WrapUpFor(context.Background(), first.ID)
	if err != nil {
		t.Fatalf("wrap-up for: %v", err)
	}
	if wrap.SessionID != first.ID || wrap.BookID != "bk-1" {
		t.Fatalf("expected the first session's wrap-up, got %+v", wrap)
	}

	if _, err := svc.WrapUpFor(context.Background(), "no-such"); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("expected not-found for unknown id, got %v", err)
	}

	h.records.records["dangling"] = domain.Record{ID: "dangling", Phase: domain.PhaseRunning}
	if _, err := svc.WrapUpFor(context.Background(), "dangling"); !errors.Is(err, apperrors.ErrInvalidPhase) {
		t.Fatalf("expected invalid phase for an unfinished record, got %v", err)
	}
}

func TestSubscribeReceivesBroadcasts(t *testing.T) {
	t.Parallel()
	svc, h := newServiceForTest(t)
	feed, cancel := svc.Subscribe(4)

	if _, err := svc.Start(context.Background(), sessionout.StartRequest{BookID: "bk-1"}); err != nil {
		t.Fatalf("start: %v", err)
	}
	select {
	case snap := <-feed:
		if snap.State != domain.PhaseRunning {
			t.Fatalf("expected running snapshot on the feed, got %s", snap.State)
		}
	case <-time.After(time.Second):
		t.Fatalf("no snapshot broadcast on start")
	}
	svc.tick(h.clock.advance(time.Second))
	select {
	case snap := <-feed:
		if snap.ActiveMs != 1_000 {
			t.Fatalf("expected ticked snapshot, got %d ms", snap.ActiveMs)
		}
	case <-time.After(time.Second):
		t.Fatalf("no snapshot broadcast on tick")
	}

	cancel()
	if _, open := <-feed; open {
		t.Fatalf("cancel should close the feed")
	}
}

func TestMicrobreakDisableTodayWritesMarker(t *testing.T) {
	t.Parallel()
	svc, h := newServiceForTest(t)
	if _, err := svc.Start(context.Background(), sessionout.StartRequest{BookID: "bk-1", MicrobreakIntervalMinutes: 20}); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := svc.MicrobreakDisableToday(context.Background()); err != nil {
		t.Fatalf("disable today: %v", err)
	}
	if len(h.settings.saved) == 0 {
		t.Fatalf("expected the disable marker written to settings")
	}
	marker := h.settings.saved[len(h.settings.saved)-1].MicrobreakDisabledOn
	if marker != h.clock.Now().Format(time.DateOnly) {
		t.Fatalf("unexpected disable marker %q", marker)
	}
}

func TestMicrobreakPromptLifecycle(t *testing.T) {
	t.Parallel()
	svc, h := newServiceForTest(t)
	if _, err := svc.Start(context.Background(), sessionout.StartRequest{BookID: "bk-1", MicrobreakIntervalMinutes: 1, AFKTimeoutMinutes: 10}); err != nil {
		t.Fatalf("start: %v", err)
	}
	for i := 0; i < 60; i++ {
		if err := svc.ReportActivity(context.Background()); err != nil {
			t.Fatalf("report activity: %v", err)
		}
		svc.tick(h.clock.advance(time.Second))
	}
	snap, err := svc.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if !snap.MicrobreakPending {
		t.Fatalf("expected a pending microbreak prompt after the interval")
	}
	waitNotification(t, h.notifier.got, domain.EventMicrobreakDue)

	snap, err = svc.MicrobreakTake(context.Background())
	if err != nil {
		t.Fatalf("take: %v", err)
	}
	if snap.State != domain.PhaseMicrobreak {
		t.Fatalf("expected microbreak phase, got %s", snap.State)
	}
	snap, err = svc.MicrobreakEnd(context.Background())
	if err != nil {
		t.Fatalf("end: %v", err)
	}
	if snap.State != domain.PhaseRunning || snap.MicrobreakPending {
		t.Fatalf("expected prompt cleared after ending, got %+v", snap)
	}
}

func TestStopDaemonIdempotentAndStaleCleanup(t *testing.T) {
	t.Parallel()
	svc, h := newServiceForTest(t)

	if err := svc.StopDaemon(context.Background()); err != nil {
		t.Fatalf("stop daemon first call: %v", err)
	}
	if err := svc.StopDaemon(context.Background()); err != nil {
		t.Fatalf("stop daemon second call: %v", err)
	}

	if err := h.daemon.WritePID(context.Background(), 999999); err != nil {
		t.Fatalf("write stale pid: %v", err)
	}
	if err := os.WriteFile(h.daemon.SocketPath(), []byte("stale"), 0o644); err != nil {
		t.Fatalf("write stale socket: %v", err)
	}
	if err := svc.StopDaemon(context.Background()); err != nil {
		t.Fatalf("stop daemon stale cleanup: %v", err)
	}
	if _, err := h.daemon.ReadPID(context.Background()); !os.IsNotExist(err) {
		t.Fatalf("expected pid file removed, got err=%v", err)
	}
	if _, err := os.Stat(h.daemon.SocketPath()); !os.IsNotExist(err) {
		t.Fatalf("expected socket removed, got err=%v", err)
	}
}

func TestDaemonLogsTail(t *testing.T) {
	t.Parallel()
	svc, h := newServiceForTest(t)

	if err := os.MkdirAll(filepath.Dir(h.daemon.LogPath()), 0o755); err != nil {
		t.Fatalf("mkdir logs: %v", err)
	}
	if err := os.WriteFile(h.daemon.LogPath(), []byte("l1\nl2\nl3\n"), 0o644); err != nil {
		t.Fatalf("write logs: %v", err)
	}
	logs, err := svc.DaemonLogs(context.Background(), 2)
	if err != nil {
		t.Fatalf("daemon logs: %v", err)
	}
	if strings.TrimSpace(logs) != "l2\nl3" {
		t.Fatalf("unexpected tail output: %q", logs)
	}
}
