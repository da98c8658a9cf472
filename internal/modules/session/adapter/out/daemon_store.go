package out

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	sessionout "lectio/internal/modules/session/port/out"
)

type FileDaemonStore struct {
	pidPath     string
	socketPath  string
	logPath     string
	metricsPath string
}

func NewFileDaemonStore(homePath string) sessionout.DaemonStore {
	base := filepath.Join(homePath, "daemon")
	return &FileDaemonStore{
		pidPath:     filepath.Join(base, "daemon.pid"),
		socketPath:  filepath.Join(base, "daemon.sock"),
		logPath:     filepath.Join(base, "daemon.log"),
		metricsPath: filepath.Join(base, "metrics.port"),
	}
}

func (s *FileDaemonStore) WritePID(_ context.Context, pid int) error {
	if err := os.MkdirAll(filepath.Dir(s.pidPath), 0o755); err != nil {
		return fmt.Errorf("create daemon dir: %w", err)
	}
	return os.WriteFile(s.pidPath, []byte(strconv.Itoa(pid)), 0o644)
}

func (s *FileDaemonStore) ReadPID(_ context.Context) (int, error) {
	raw, err := os.ReadFile(s.pidPath)
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(raw)))
	if err != nil {
		return 0, fmt.Errorf("decode daemon pid: %w", err)
	}
	return pid, nil
}

func (s *FileDaemonStore) ClearPID(_ context.Context) error {
	if err := os.Remove(s.pidPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove daemon pid: %w", err)
	}
	return nil
}

// WriteMetricsAddr records where the observer endpoint landed, so external
// consumers can find /metrics and /ws without asking over IPC.
func (s *FileDaemonStore) WriteMetricsAddr(_ context.Context, addr string) error {
	if err := os.MkdirAll(filepath.Dir(s.metricsPath), 0o755); err != nil {
		return fmt.Errorf("create daemon dir: %w", err)
	}
	return os.WriteFile(s.metricsPath, []byte(addr), 0o644)
}

func (s *FileDaemonStore) ClearMetricsAddr(_ context.Context) error {
	if err := os.Remove(s.metricsPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove metrics addr: %w", err)
	}
	return nil
}

func (s *FileDaemonStore) SocketPath() string {
	return s.socketPath
}

func (s *FileDaemonStore) LogPath() string {
	return s.logPath
}
