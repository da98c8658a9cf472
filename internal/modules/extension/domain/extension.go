package domain

import (
	"errors"
	"fmt"
	"regexp"
	"time"
)

type Capability string

const CapabilityNotify Capability = "notify"

var (
	ErrExtensionDisabled = errors.New("extension is disabled")
	ErrChecksumMismatch  = errors.New("extension checksum mismatch")
	ErrExtensionTimeout  = errors.New("extension timeout")
)

var sha256Pattern = regexp.MustCompile(`^[a-f0-9]{64}$`)

// Manifest describes one installed extension. The binary path may be
// relative to the extension's own directory.
type Manifest struct {
	Name         string       `json:"name"`
	Version      string       `json:"version"`
	Binary       string       `json:"binary"`
	SHA256       string       `json:"sha256"`
	Enabled      bool         `json:"enabled"`
	Capabilities []Capability `json:"capabilities"`
}

func (m Manifest) Validate() error {
	if m.Name == "" {
		return fmt.Errorf("extension name is required")
	}
	if m.Version == "" {
		return fmt.Errorf("extension version is required")
	}
	if m.Binary == "" {
		return fmt.Errorf("extension binary path is required")
	}
	if !sha256Pattern.MatchString(m.SHA256) {
		return fmt.Errorf("extension sha256 must be lowercase 64-char hex")
	}
	if len(m.Capabilities) == 0 {
		return fmt.Errorf("extension capabilities are required")
	}
	seen := map[Capability]struct{}{}
	for _, capability := range m.Capabilities {
		if err := capability.Validate(); err != nil {
			return err
		}
		if _, ok := seen[capability]; ok {
			return fmt.Errorf("duplicate capability: %s", capability)
		}
		seen[capability] = struct{}{}
	}
	return nil
}

func (c Capability) Validate() error {
	switch c {
	case CapabilityNotify:
		return nil
	default:
		return fmt.Errorf("unknown capability: %s", c)
	}
}

func (m Manifest) HasCapability(capability Capability) bool {
	for _, c := range m.Capabilities {
		if c == capability {
			return true
		}
	}
	return false
}

type Metadata struct {
	Name         string
	Version      string
	Capabilities []Capability
}

// Notification is the payload fanned out to notifier extensions.
type Notification struct {
	Type       string
	Message    string
	OccurredAt time.Time
	Fields     map[string]string
}

func (n Notification) Validate() error {
	if n.Type == "" {
		return fmt.Errorf("notification type is required")
	}
	return nil
}
