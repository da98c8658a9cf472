package service

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/coder/websocket"

	"lectio/internal/modules/session/domain"
)

type runtimeState struct {
	cancel      context.CancelFunc
	startedAt   time.Time
	metricsSrv  *http.Server
	metricsLn   net.Listener
	metricsAddr string
}

// RunDaemon hosts the engine: the 1 Hz tick loop, the IPC socket and the
// localhost metrics endpoint. It blocks until the context is cancelled or
// a Shutdown command arrives.
func (s *SessionService) RunDaemon(ctx context.Context) error {
	if err := s.cleanupStaleArtifacts(ctx); err != nil {
		return err
	}
	if pid, err := s.daemon.ReadPID(ctx); err == nil && pid > 0 && pid != os.Getpid() &&
		processAlive(pid) && socketReachable(s.daemon.SocketPath()) {
		return fmt.Errorf("daemon already running with pid %d", pid)
	}
	if err := s.recoverDanglingRecords(ctx); err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.runtime = &runtimeState{cancel: cancel, startedAt: s.clock.Now()}
	s.persistCh = make(chan domain.Record, persistQueueSize)
	s.mu.Unlock()

	if err := s.startMetricsEndpoint(); err != nil {
		cancel()
		return err
	}
	if err := s.daemon.WritePID(ctx, os.Getpid()); err != nil {
		cancel()
		return err
	}

	go s.persistLoop(runCtx)

	_ = s.appendEvent(ctx, domain.Event{
		Type:    domain.EventDaemonStarted,
		Message: "lectio daemon started",
		Fields:  map[string]string{"pid": fmt.Sprintf("%d", os.Getpid())},
	})

	ipcErr := make(chan error, 1)
	go func() {
		if s.ipcServer == nil {
			ipcErr <- fmt.Errorf("ipc server is not configured")
			return
		}
		ipcErr <- s.ipcServer.Serve(runCtx, s.daemon.SocketPath(), s)
	}()

	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-runCtx.Done():
			s.cleanupRuntime(context.Background())
			return nil
		case err := <-ipcErr:
			s.cleanupRuntime(context.Background())
			if err != nil && !errors.Is(err, net.ErrClosed) && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		case tickTime := <-ticker.C:
			s.tick(tickTime.UTC())
		}
	}
}

// StartDaemon launches the daemon as a detached child of this process and
// waits until its socket answers.
func (s *SessionService) StartDaemon(ctx context.Context) error {
	if err := s.cleanupStaleArtifacts(ctx); err != nil {
		return err
	}
	info, err := s.DaemonStatus(ctx)
	if err == nil && info.Running {
		if socketReachable(s.daemon.SocketPath()) {
			return nil
		}
		return fmt.Errorf("%w: daemon process is alive but socket is unavailable", domain.ErrDaemonStartFailed)
	}

	execPath, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolve executable: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.daemon.LogPath()), 0o755); err != nil {
		return fmt.Errorf("create daemon log dir: %w", err)
	}
	if err := os.Remove(s.daemon.SocketPath()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove stale daemon socket: %w", err)
	}

	logFile, err := os.OpenFile(s.daemon.LogPath(), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open daemon log: %w", err)
	}
	defer logFile.Close()

	cmd := exec.Command(execPath, "daemon", "__run", "--home", s.homePath)
	cmd.Stdout = logFile
	cmd.Stderr = logFile
	cmd.Stdin = nil
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start daemon: %w", err)
	}
	if err := s.daemon.WritePID(ctx, cmd.Process.Pid); err != nil {
		return err
	}
	_ = cmd.Process.Release()

	if err := waitForSocket(s.daemon.SocketPath(), daemonStartTimeout); err != nil {
		_ = s.daemon.ClearPID(ctx)
		return fmt.Errorf("%w: %v", domain.ErrDaemonStartFailed, err)
	}
	return nil
}

func (s *SessionService) StopDaemon(ctx context.Context) error {
	s.mu.RLock()
	rt := s.runtime
	s.mu.RUnlock()
	if rt != nil && rt.cancel != nil {
		rt.cancel()
		return nil
	}

	if s.ipcClient != nil && socketReachable(s.daemon.SocketPath()) {
		_ = s.ipcClient.Shutdown(ctx, s.daemon.SocketPath())
	}

	pid, err := s.daemon.ReadPID(ctx)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			_ = os.Remove(s.daemon.SocketPath())
			return nil
		}
		return err
	}
	if pid <= 0 || !processAlive(pid) {
		_ = s.daemon.ClearPID(ctx)
		_ = os.Remove(s.daemon.SocketPath())
		return nil
	}
	if err := syscall.Kill(pid, syscall.SIGTERM); err != nil && !errors.Is(err, syscall.ESRCH) {
		return fmt.Errorf("stop daemon pid=%d: %w", pid, err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if !processAlive(pid) {
			break
		}
		time.Sleep(100 * time.Millisecond)
	}
	if processAlive(pid) {
		_ = syscall.Kill(pid, syscall.SIGKILL)
	}
	if err := s.daemon.ClearPID(ctx); err != nil {
		return err
	}
	_ = os.Remove(s.daemon.SocketPath())
	return nil
}

func (s *SessionService) DaemonStatus(ctx context.Context) (domain.DaemonInfo, error) {
	info := domain.DaemonInfo{SocketPath: s.daemon.SocketPath()}
	pid, err := s.daemon.ReadPID(ctx)
	if err == nil {
		info.PID = pid
		info.Running = processAlive(pid)
	}
	if info.Running && s.ipcClient != nil && socketReachable(s.daemon.SocketPath()) {
		if m, metricsErr := s.ipcClient.Metrics(ctx, s.daemon.SocketPath()); metricsErr == nil {
			info.MetricsAddr = m.MetricsAddr
		}
	}
	return info, nil
}

func (s *SessionService) DaemonLogs(_ context.Context, tail int) (string, error) {
	if tail <= 0 {
		tail = defaultLogTail
	}
	file, err := os.Open(s.daemon.LogPath())
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("open daemon log: %w", err)
	}
	defer file.Close()

	lines := make([]string, 0, tail)
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Text()
		if len(lines) < tail {
			lines = append(lines, line)
			continue
		}
		copy(lines, lines[1:])
		lines[len(lines)-1] = line
	}
	if err := scanner.Err(); err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("scan daemon log: %w", err)
	}
	return strings.Join(lines, "\n"), nil
}

// Shutdown is the IPC-facing stop; it unwinds the RunDaemon loop.
func (s *SessionService) Shutdown(_ context.Context) error {
	s.mu.RLock()
	rt := s.runtime
	s.mu.RUnlock()
	if rt != nil && rt.cancel != nil {
		rt.cancel()
	}
	return nil
}

func (s *SessionService) cleanupRuntime(ctx context.Context) {
	s.mu.Lock()
	rt := s.runtime
	s.runtime = nil
	st := s.state
	subs := s.subs
	s.subs = nil
	var rec domain.Record
	closing := false
	if st != nil && st.Phase != domain.PhaseCompleted {
		_, _ = st.Stop(s.clock.Now())
		s.counters.sessionsCompleted++
		closing = true
	}
	if st != nil {
		rec = st.Record()
	}
	s.mu.Unlock()

	if rt == nil {
		_ = s.daemon.ClearPID(ctx)
		_ = s.daemon.ClearMetricsAddr(ctx)
		_ = os.Remove(s.daemon.SocketPath())
		return
	}
	if st != nil {
		// best-effort flush on shutdown
		_ = s.records.Save(ctx, rec)
	}
	if closing {
		_ = s.appendEvent(ctx, domain.Event{
			Type:    domain.EventCompleted,
			Message: "session closed on daemon shutdown",
			Fields:  map[string]string{"session_id": rec.ID},
		})
	}
	for _, ch := range subs {
		close(ch)
	}
	if rt.metricsSrv != nil {
		_ = rt.metricsSrv.Shutdown(context.Background())
	}
	if rt.metricsLn != nil {
		_ = rt.metricsLn.Close()
	}
	_ = s.appendEvent(ctx, domain.Event{Type: domain.EventDaemonStopped, Message: "lectio daemon stopped"})
	_ = s.daemon.ClearPID(ctx)
	_ = s.daemon.ClearMetricsAddr(ctx)
	_ = os.Remove(s.daemon.SocketPath())
}

func (s *SessionService) cleanupStaleArtifacts(ctx context.Context) error {
	pid, err := s.daemon.ReadPID(ctx)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return err
		}
	} else if pid > 0 && !processAlive(pid) {
		_ = s.daemon.ClearPID(ctx)
		_ = os.Remove(s.daemon.SocketPath())
	}

	if _, statErr := os.Stat(s.daemon.SocketPath()); statErr == nil {
		if !socketReachable(s.daemon.SocketPath()) {
			if removeErr := os.Remove(s.daemon.SocketPath()); removeErr != nil && !os.IsNotExist(removeErr) {
				return fmt.Errorf("remove stale daemon socket: %w", removeErr)
			}
		}
	}
	return nil
}

// recoverDanglingRecords closes out records a crashed daemon left in an
// active phase. StartedAt plus the accrued active time is the best end
// mark we can reconstruct.
func (s *SessionService) recoverDanglingRecords(ctx context.Context) error {
	recent, err := s.records.Recent(ctx, 20)
	if err != nil {
		return err
	}
	for _, rec := range recent {
		if rec.Phase == domain.PhaseCompleted {
			continue
		}
		rec.Phase = domain.PhaseCompleted
		rec.EndedAt = rec.StartedAt.Add(time.Duration(rec.ActiveMs) * time.Millisecond)
		if err := s.records.Save(ctx, rec); err != nil {
			return err
		}
		_ = s.appendEvent(ctx, domain.Event{
			Type:    domain.EventCompleted,
			Message: "recovered session left active by a previous daemon",
			Fields:  map[string]string{"session_id": rec.ID},
		})
	}
	return nil
}

func (s *SessionService) startMetricsEndpoint() error {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return fmt.Errorf("start metrics listener: %w", err)
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/metrics", func(w http.ResponseWriter, _ *http.Request) {
		snapshot, _ := s.Metrics(context.Background())
		w.Header().Set("content-type", "application/json")
		_ = json.NewEncoder(w).Encode(snapshot)
	})
	mux.HandleFunc("/ws", s.serveFeed)
	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 2 * time.Second,
	}
	s.mu.Lock()
	if s.runtime != nil {
		s.runtime.metricsLn = ln
		s.runtime.metricsSrv = srv
		s.runtime.metricsAddr = ln.Addr().String()
	}
	s.mu.Unlock()
	if err := s.daemon.WriteMetricsAddr(context.Background(), ln.Addr().String()); err != nil {
		_ = ln.Close()
		return err
	}
	go func() {
		_ = srv.Serve(ln)
	}()
	return nil
}

// serveFeed pushes one snapshot per tick over a websocket. The subscriber
// buffer absorbs short stalls; anything slower just misses beats.
func (s *SessionService) serveFeed(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		return
	}
	defer conn.CloseNow()

	feed, unsubscribe := s.Subscribe(feedBuffer)
	defer unsubscribe()

	ctx := r.Context()
	if snap, snapErr := s.Snapshot(ctx); snapErr == nil {
		if writeErr := writeSnapshot(ctx, conn, snap); writeErr != nil {
			return
		}
	}
	for {
		select {
		case <-ctx.Done():
			_ = conn.Close(websocket.StatusGoingAway, "daemon shutting down")
			return
		case snap, ok := <-feed:
			if !ok {
				_ = conn.Close(websocket.StatusGoingAway, "daemon shutting down")
				return
			}
			if writeErr := writeSnapshot(ctx, conn, snap); writeErr != nil {
				return
			}
		}
	}
}

func writeSnapshot(ctx context.Context, conn *websocket.Conn, snap domain.Snapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return conn.Write(writeCtx, websocket.MessageText, payload)
}

func waitForSocket(path string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if socketReachable(path) {
			return nil
		}
		time.Sleep(100 * time.Millisecond)
	}
	return fmt.Errorf("daemon socket not ready: %s", path)
}

func socketReachable(path string) bool {
	conn, err := net.DialTimeout("unix", path, 150*time.Millisecond)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}

func processAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := syscall.Kill(pid, 0)
	return err == nil || errors.Is(err, syscall.EPERM)
}
