package domain

import (
	"errors"
	"time"
)

var (
	ErrDaemonNotRunning  = errors.New("session daemon is not running")
	ErrDaemonStartFailed = errors.New("session daemon failed to start")
)

// DaemonInfo describes the host process as seen from outside.
type DaemonInfo struct {
	Running     bool   `json:"running"`
	PID         int    `json:"pid"`
	SocketPath  string `json:"socketPath"`
	MetricsAddr string `json:"metricsAddr,omitempty"`
}

// Metrics is the counter set served on the daemon's localhost endpoint.
type Metrics struct {
	PID               int       `json:"pid"`
	StartedAt         time.Time `json:"startedAt"`
	Ticks             int64     `json:"ticks"`
	Broadcasts        int64     `json:"broadcasts"`
	PersistErrors     int64     `json:"persistErrors"`
	PersistDrops      int64     `json:"persistDrops"`
	SessionsStarted   int64     `json:"sessionsStarted"`
	SessionsCompleted int64     `json:"sessionsCompleted"`
	ActiveSession     bool      `json:"activeSession"`
	MetricsAddr       string    `json:"metricsAddr,omitempty"`
}
