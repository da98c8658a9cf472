package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"lectio/internal/modules/extension/domain"
	"lectio/internal/modules/extension/dto"
	extensionout "lectio/internal/modules/extension/port/out"
)

type ExtensionService struct {
	store extensionout.ManifestStore
	host  extensionout.Host
}

func NewExtensionService(store extensionout.ManifestStore, host extensionout.Host) *ExtensionService {
	return &ExtensionService{store: store, host: host}
}

func (s *ExtensionService) List(ctx context.Context) ([]dto.ExtensionInfo, error) {
	manifests, err := s.loadValidated(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.ExtensionInfo, 0, len(manifests))
	for _, m := range manifests {
		caps := make([]string, 0, len(m.Capabilities))
		for _, c := range m.Capabilities {
			caps = append(caps, string(c))
		}
		out = append(out, dto.ExtensionInfo{Name: m.Name, Version: m.Version, Enabled: m.Enabled, Binary: m.Binary, Capabilities: caps})
	}
	return out, nil
}

func (s *ExtensionService) Check(ctx context.Context) ([]dto.CheckResult, error) {
	manifests, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	results := make([]dto.CheckResult, 0, len(manifests))
	for _, m := range manifests {
		result := dto.CheckResult{Name: m.Name}
		if err := m.Validate(); err != nil {
			result.Error = err.Error()
			results = append(results, result)
			continue
		}
		binaryOK := fileExists(m.Binary)
		result.BinaryReachable = binaryOK
		checksumOK := false
		if binaryOK {
			checksumOK = checksumMatches(m.Binary, m.SHA256) == nil
		}
		result.ChecksumValid = checksumOK
		if binaryOK && checksumOK && m.Enabled && s.host != nil {
			if err := s.host.CheckLifecycle(ctx, m); err != nil {
				result.Error = err.Error()
			} else {
				result.LifecycleOK = true
			}
		}
		if !binaryOK {
			result.Error = fmt.Sprintf("binary does not exist: %s", m.Binary)
		}
		if binaryOK && !checksumOK {
			result.Error = "checksum mismatch"
		}
		results = append(results, result)
	}
	return results, nil
}

// Notify fans the notification out to every enabled extension with the notify
// capability. Every sink is attempted; per-extension failures come back joined
// so a broken extension never starves the rest.
func (s *ExtensionService) Notify(ctx context.Context, input dto.NotifyInput) error {
	notification := domain.Notification{
		Type:       input.Type,
		Message:    input.Message,
		OccurredAt: input.OccurredAt,
		Fields:     input.Fields,
	}
	if err := notification.Validate(); err != nil {
		return err
	}
	manifests, err := s.loadValidated(ctx)
	if err != nil {
		return err
	}
	var failures error
	for _, m := range manifests {
		if !m.Enabled || !m.HasCapability(domain.CapabilityNotify) {
			continue
		}
		if err := checksumMatches(m.Binary, m.SHA256); err != nil {
			failures = errors.Join(failures, fmt.Errorf("extension %s: %w", m.Name, err))
			continue
		}
		if s.host == nil {
			continue
		}
		if err := s.host.Notify(ctx, m, notification); err != nil {
			failures = errors.Join(failures, fmt.Errorf("extension %s: %w", m.Name, err))
		}
	}
	return failures
}

// Ping exercises one named extension end to end: launch, metadata round
// trip, then a test notification. It is the targeted counterpart to Check
// for debugging a single misbehaving extension.
func (s *ExtensionService) Ping(ctx context.Context, name string) (domain.Metadata, error) {
	manifests, err := s.loadValidated(ctx)
	if err != nil {
		return domain.Metadata{}, err
	}
	manifest, err := resolveNotifier(manifests, name)
	if err != nil {
		return domain.Metadata{}, err
	}
	if s.host == nil {
		return domain.Metadata{}, fmt.Errorf("extension host is not configured")
	}
	meta, err := s.host.GetMetadata(ctx, manifest)
	if err != nil {
		return domain.Metadata{}, mapTimeout(err, name)
	}
	notification := domain.Notification{
		Type:       "ping",
		Message:    fmt.Sprintf("ping from lectio to %s", name),
		OccurredAt: time.Now().UTC(),
		Fields:     map[string]string{"extension": name},
	}
	if err := s.host.Notify(ctx, manifest, notification); err != nil {
		return domain.Metadata{}, mapTimeout(err, name)
	}
	return meta, nil
}

func resolveNotifier(manifests []domain.Manifest, name string) (domain.Manifest, error) {
	for _, manifest := range manifests {
		if manifest.Name != name {
			continue
		}
		if !manifest.Enabled {
			return domain.Manifest{}, fmt.Errorf("%w: %s", domain.ErrExtensionDisabled, name)
		}
		if err := checksumMatches(manifest.Binary, manifest.SHA256); err != nil {
			return domain.Manifest{}, err
		}
		return manifest, nil
	}
	return domain.Manifest{}, fmt.Errorf("extension %q not found", name)
}

func mapTimeout(err error, name string) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %s", domain.ErrExtensionTimeout, name)
	}
	return err
}

func (s *ExtensionService) loadValidated(ctx context.Context) ([]domain.Manifest, error) {
	manifests, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	seenNames := map[string]struct{}{}
	for _, manifest := range manifests {
		if err := manifest.Validate(); err != nil {
			return nil, err
		}
		if _, ok := seenNames[manifest.Name]; ok {
			return nil, fmt.Errorf("duplicate extension name: %s", manifest.Name)
		}
		seenNames[manifest.Name] = struct{}{}
	}
	return manifests, nil
}

func checksumMatches(path string, expected string) error {
	payload, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read extension binary: %w", err)
	}
	hash := sha256.Sum256(payload)
	actual := hex.EncodeToString(hash[:])
	if actual != expected {
		return fmt.Errorf("%w: %s", domain.ErrChecksumMismatch, filepath.Base(path))
	}
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
