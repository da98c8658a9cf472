package dto

import "time"

type ExtensionInfo struct {
	Name         string
	Version      string
	Enabled      bool
	Binary       string
	Capabilities []string
}

type CheckResult struct {
	Name            string
	ChecksumValid   bool
	BinaryReachable bool
	LifecycleOK     bool
	Error           string
}

type NotifyInput struct {
	Type       string
	Message    string
	OccurredAt time.Time
	Fields     map[string]string
}

// PingResult carries the live metadata an extension reported while being
// pinged, which may differ from its manifest.
type PingResult struct {
	Name         string
	Version      string
	Capabilities []string
}
