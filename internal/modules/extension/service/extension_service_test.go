package service_test

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	extensionout "lectio/internal/modules/extension/adapter/out"
	"lectio/internal/modules/extension/domain"
	"lectio/internal/modules/extension/dto"
	"lectio/internal/modules/extension/service"
)

type fakeManifestStore struct {
	manifests []domain.Manifest
}

func (s fakeManifestStore) Load(context.Context) ([]domain.Manifest, error) {
	return s.manifests, nil
}

type recordingHost struct {
	notified []string
	payloads []domain.Notification
	failFor  string
}

func (h *recordingHost) CheckLifecycle(context.Context, domain.Manifest) error { return nil }

func (h *recordingHost) GetMetadata(context.Context, domain.Manifest) (domain.Metadata, error) {
	return domain.Metadata{Name: "desktop-toast", Version: "1"}, nil
}

func (h *recordingHost) Notify(_ context.Context, manifest domain.Manifest, notification domain.Notification) error {
	h.notified = append(h.notified, manifest.Name)
	h.payloads = append(h.payloads, notification)
	if manifest.Name == h.failFor {
		return errors.New("sink exploded")
	}
	return nil
}

func manifestWithBinary(t *testing.T, name string, enabled bool) domain.Manifest {
	t.Helper()
	binPath := filepath.Join(t.TempDir(), "extension-bin")
	if err := os.WriteFile(binPath, []byte("binary"), 0o755); err != nil {
		t.Fatalf("write binary: %v", err)
	}
	hash := sha256.Sum256([]byte("binary"))
	return domain.Manifest{
		Name:         name,
		Version:      "1",
		Binary:       binPath,
		SHA256:       hex.EncodeToString(hash[:]),
		Enabled:      enabled,
		Capabilities: []domain.Capability{domain.CapabilityNotify},
	}
}

func TestNotifyFansOutToEnabledNotifiers(t *testing.T) {
	t.Parallel()
	store := fakeManifestStore{manifests: []domain.Manifest{
		manifestWithBinary(t, "desktop-toast", true),
		manifestWithBinary(t, "muted", false),
	}}
	host := &recordingHost{}
	svc := service.NewExtensionService(store, host)

	occurred := time.Date(2026, time.March, 9, 21, 15, 0, 0, time.UTC)
	input := dto.NotifyInput{
		Type:       "session_completed",
		Message:    "session complete",
		OccurredAt: occurred,
		Fields:     map[string]string{"session_id": "se-1", "book_id": "deep-work"},
	}
	if err := svc.Notify(context.Background(), input); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(host.notified) != 1 || host.notified[0] != "desktop-toast" {
		t.Fatalf("expected only enabled extension notified, got %v", host.notified)
	}
	payload := host.payloads[0]
	if payload.Type != "session_completed" || !payload.OccurredAt.Equal(occurred) {
		t.Fatalf("unexpected payload: %+v", payload)
	}
	if payload.Fields["session_id"] != "se-1" {
		t.Fatalf("expected session id field, got %v", payload.Fields)
	}
}

func TestNotifyContinuesPastFailingExtension(t *testing.T) {
	t.Parallel()
	store := fakeManifestStore{manifests: []domain.Manifest{
		manifestWithBinary(t, "broken", true),
		manifestWithBinary(t, "working", true),
	}}
	host := &recordingHost{failFor: "broken"}
	svc := service.NewExtensionService(store, host)

	err := svc.Notify(context.Background(), dto.NotifyInput{Type: "afk_paused"})
	if err == nil {
		t.Fatalf("expected failure from broken extension")
	}
	if !strings.Contains(err.Error(), "broken") {
		t.Fatalf("expected error to name the extension, got %v", err)
	}
	if len(host.notified) != 2 {
		t.Fatalf("expected both extensions attempted, got %v", host.notified)
	}
}

func TestNotifySkipsBinaryWithBadChecksum(t *testing.T) {
	t.Parallel()
	tampered := manifestWithBinary(t, "tampered", true)
	tampered.SHA256 = strings.Repeat("0", 64)
	store := fakeManifestStore{manifests: []domain.Manifest{tampered}}
	host := &recordingHost{}
	svc := service.NewExtensionService(store, host)

	err := svc.Notify(context.Background(), dto.NotifyInput{Type: "microbreak_due"})
	if !errors.Is(err, domain.ErrChecksumMismatch) {
		t.Fatalf("expected checksum mismatch, got %v", err)
	}
	if len(host.notified) != 0 {
		t.Fatalf("expected tampered extension never launched, got %v", host.notified)
	}
}

func TestNotifyRejectsBlankType(t *testing.T) {
	t.Parallel()
	svc := service.NewExtensionService(fakeManifestStore{}, &recordingHost{})
	if err := svc.Notify(context.Background(), dto.NotifyInput{Message: "no type"}); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestCheckDetectsChecksumMismatch(t *testing.T) {
	t.Parallel()
	extensionsDir := t.TempDir()
	extensionDir := filepath.Join(extensionsDir, "demo")
	if err := os.MkdirAll(extensionDir, 0o755); err != nil {
		t.Fatalf("mkdir extension dir: %v", err)
	}
	binPath := filepath.Join(extensionDir, "demo-notifier")
	if err := os.WriteFile(binPath, []byte("not-a-real-extension"), 0o755); err != nil {
		t.Fatalf("write extension binary: %v", err)
	}
	raw := `{
  "name": "demo",
  "version": "1.0.0",
  "binary": "demo-notifier",
  "sha256": "` + strings.Repeat("0", 64) + `",
  "enabled": true,
  "capabilities": ["notify"]
}`
	if err := os.WriteFile(filepath.Join(extensionDir, "manifest.json"), []byte(raw), 0o644); err != nil {
		t.Fatalf("write manifest.json: %v", err)
	}

	svc := service.NewExtensionService(extensionout.NewFileManifestStore(extensionsDir), nil)
	results, err := svc.Check(context.Background())
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected one result, got %d", len(results))
	}
	if results[0].ChecksumValid {
		t.Fatalf("expected checksum mismatch")
	}
	if !results[0].BinaryReachable {
		t.Fatalf("expected binary reachable")
	}
}

func TestListRejectsDuplicateNames(t *testing.T) {
	t.Parallel()
	store := fakeManifestStore{manifests: []domain.Manifest{
		manifestWithBinary(t, "twin", true),
		manifestWithBinary(t, "twin", true),
	}}
	svc := service.NewExtensionService(store, &recordingHost{})
	if _, err := svc.List(context.Background()); err == nil {
		t.Fatalf("expected duplicate name error")
	}
}

func TestPingRoundTripsThroughExtension(t *testing.T) {
	t.Parallel()
	store := fakeManifestStore{manifests: []domain.Manifest{
		manifestWithBinary(t, "desktop-toast", true),
	}}
	host := &recordingHost{}
	svc := service.NewExtensionService(store, host)

	meta, err := svc.Ping(context.Background(), "desktop-toast")
	if err != nil {
		t.Fatalf("ping: %v", err)
	}
	if meta.Name != "desktop-toast" {
		t.Fatalf("expected live metadata, got %+v", meta)
	}
	if len(host.payloads) != 1 {
		t.Fatalf("expected one notification, got %d", len(host.payloads))
	}
	payload := host.payloads[0]
	if payload.Type != "ping" || payload.Fields["extension"] != "desktop-toast" {
		t.Fatalf("unexpected ping payload: %+v", payload)
	}
}

func TestPingRejectsDisabledExtension(t *testing.T) {
	t.Parallel()
	store := fakeManifestStore{manifests: []domain.Manifest{
		manifestWithBinary(t, "muted", false),
	}}
	host := &recordingHost{}
	svc := service.NewExtensionService(store, host)

	_, err := svc.Ping(context.Background(), "muted")
	if !errors.Is(err, domain.ErrExtensionDisabled) {
		t.Fatalf("expected ErrExtensionDisabled, got %v", err)
	}
	if len(host.notified) != 0 {
		t.Fatalf("expected disabled extension never launched, got %v", host.notified)
	}
}

func TestPingRejectsTamperedBinary(t *testing.T) {
	t.Parallel()
	tampered := manifestWithBinary(t, "tampered", true)
	tampered.SHA256 = strings.Repeat("0", 64)
	store := fakeManifestStore{manifests: []domain.Manifest{tampered}}
	host := &recordingHost{}
	svc := service.NewExtensionService(store, host)

	_, err := svc.Ping(context.Background(), "tampered")
	if !errors.Is(err, domain.ErrChecksumMismatch) {
		t.Fatalf("expected checksum mismatch, got %v", err)
	}
}

func TestPingUnknownExtension(t *testing.T) {
	t.Parallel()
	svc := service.NewExtensionService(fakeManifestStore{}, &recordingHost{})
	if _, err := svc.Ping(context.Background(), "ghost"); err == nil {
		t.Fatalf("expected not-found error")
	}
}
