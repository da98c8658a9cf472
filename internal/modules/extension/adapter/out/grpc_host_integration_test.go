package out_test

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	extensionout "lectio/internal/modules/extension/adapter/out"
	"lectio/internal/modules/extension/domain"
)

func TestGRPCHostIntegrationNotifierExtension(t *testing.T) {
	binPath, checksum := buildNotifierExtension(t)
	manifest := domain.Manifest{
		Name:         "notifier",
		Version:      "1.0.0",
		Binary:       binPath,
		SHA256:       checksum,
		Enabled:      true,
		Capabilities: []domain.Capability{domain.CapabilityNotify},
	}
	logPath := filepath.Join(t.TempDir(), "notifier.log")
	t.Setenv("LECTIO_NOTIFIER_OUT", logPath)

	host := extensionout.NewGRPCHost()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := host.CheckLifecycle(ctx, manifest); err != nil {
		t.Fatalf("check lifecycle: %v", err)
	}
	metadata, err := host.GetMetadata(ctx, manifest)
	if err != nil {
		t.Fatalf("get metadata: %v", err)
	}
	if metadata.Name != "notifier" {
		t.Fatalf("unexpected metadata name: %s", metadata.Name)
	}
	if len(metadata.Capabilities) != 1 || metadata.Capabilities[0] != domain.CapabilityNotify {
		t.Fatalf("unexpected capabilities: %v", metadata.Capabilities)
	}

	occurred := time.Date(2026, time.March, 9, 21, 15, 0, 0, time.UTC)
	err = host.Notify(ctx, manifest, domain.Notification{
		Type:       "session_completed",
		Message:    "session complete",
		OccurredAt: occurred,
		Fields:     map[string]string{"session_id": "se-1"},
	})
	if err != nil {
		t.Fatalf("notify: %v", err)
	}

	raw, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read notifier log: %v", err)
	}
	var logged struct {
		Type       string            `json:"type"`
		Message    string            `json:"message"`
		OccurredAt string            `json:"occurred_at"`
		Fields     map[string]string `json:"fields"`
	}
	if err := json.Unmarshal(raw, &logged); err != nil {
		t.Fatalf("decode notifier log: %v", err)
	}
	if logged.Type != "session_completed" || logged.Message != "session complete" {
		t.Fatalf("unexpected logged notification: %+v", logged)
	}
	if logged.OccurredAt != occurred.Format(time.RFC3339) {
		t.Fatalf("unexpected occurred_at: %s", logged.OccurredAt)
	}
	if logged.Fields["session_id"] != "se-1" {
		t.Fatalf("expected session id field, got %v", logged.Fields)
	}
}

func buildNotifierExtension(t *testing.T) (string, string) {
	t.Helper()
	tmp := t.TempDir()
	binPath := filepath.Join(tmp, "notifier-extension")
	cmd := exec.Command("go", "build", "-o", binPath, "./plugins/notifier")
	cmd.Dir = repositoryRoot(t)
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("build notifier extension: %v\n%s", err, string(out))
	}
	payload, err := os.ReadFile(binPath)
	if err != nil {
		t.Fatalf("read built extension: %v", err)
	}
	hash := sha256.Sum256(payload)
	return binPath, hex.EncodeToString(hash[:])
}

func repositoryRoot(t *testing.T) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatalf("runtime caller failed")
	}
	return filepath.Clean(filepath.Join(filepath.Dir(file), "../../../../../"))
}
