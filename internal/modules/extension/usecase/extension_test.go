package usecase_test

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"

	"lectio/internal/modules/extension/domain"
	"lectio/internal/modules/extension/dto"
	"lectio/internal/modules/extension/service"
	"lectio/internal/modules/extension/usecase"
)

type fakeManifestStore struct {
	manifests []domain.Manifest
}

func (s fakeManifestStore) Load(context.Context) ([]domain.Manifest, error) {
	return s.manifests, nil
}

type fakeHost struct{}

func (fakeHost) CheckLifecycle(context.Context, domain.Manifest) error { return nil }
func (fakeHost) GetMetadata(context.Context, domain.Manifest) (domain.Metadata, error) {
	return domain.Metadata{Name: "e1", Version: "1"}, nil
}
func (fakeHost) Notify(context.Context, domain.Manifest, domain.Notification) error { return nil }

func TestUsecaseListCheckAndNotify(t *testing.T) {
	t.Parallel()
	manifest := manifestWithBinary(t)
	uc := usecase.NewInteractor(service.NewExtensionService(fakeManifestStore{manifests: []domain.Manifest{manifest}}, fakeHost{}))

	list, err := uc.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].Name != "e1" {
		t.Fatalf("unexpected list: %+v", list)
	}

	checks, err := uc.Check(context.Background())
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if len(checks) != 1 || !checks[0].ChecksumValid || !checks[0].LifecycleOK {
		t.Fatalf("unexpected check result: %+v", checks)
	}

	if err := uc.Notify(context.Background(), dto.NotifyInput{Type: "session_completed"}); err != nil {
		t.Fatalf("notify: %v", err)
	}

	pong, err := uc.Ping(context.Background(), "e1")
	if err != nil {
		t.Fatalf("ping: %v", err)
	}
	if pong.Name != "e1" || pong.Version != "1" {
		t.Fatalf("unexpected ping result: %+v", pong)
	}
}

func manifestWithBinary(t *testing.T) domain.Manifest {
	t.Helper()
	binPath := filepath.Join(t.TempDir(), "extension-bin")
	if err := os.WriteFile(binPath, []byte("binary"), 0o755); err != nil {
		t.Fatalf("write binary: %v", err)
	}
	hash := sha256.Sum256([]byte("binary"))
	return domain.Manifest{
		Name:         "e1",
		Version:      "1",
		Binary:       binPath,
		SHA256:       hex.EncodeToString(hash[:]),
		Enabled:      true,
		Capabilities: []domain.Capability{domain.CapabilityNotify},
	}
}
