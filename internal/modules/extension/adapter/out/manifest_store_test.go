package out_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	extensionout "lectio/internal/modules/extension/adapter/out"
)

func writeManifest(t *testing.T, extensionsDir, name, raw string) {
	t.Helper()
	dir := filepath.Join(extensionsDir, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir extension dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "manifest.json"), []byte(raw), 0o644); err != nil {
		t.Fatalf("write manifest.json: %v", err)
	}
}

func TestFileManifestStoreLoadMissingReturnsEmpty(t *testing.T) {
	t.Parallel()
	store := extensionout.NewFileManifestStore(filepath.Join(t.TempDir(), "extensions"))
	manifests, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("load manifests: %v", err)
	}
	if len(manifests) != 0 {
		t.Fatalf("expected empty manifests, got %d", len(manifests))
	}
}

func TestFileManifestStoreScansExtensionDirs(t *testing.T) {
	t.Parallel()
	extensionsDir := t.TempDir()
	writeManifest(t, extensionsDir, "desktop-toast", `{
  "name": "desktop-toast",
  "version": "1.0.0",
  "binary": "toast-notifier",
  "sha256": "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
  "enabled": true,
  "capabilities": ["notify"]
}`)
	writeManifest(t, extensionsDir, "activity-log", `{
  "name": "activity-log",
  "version": "0.2.0",
  "binary": "/usr/local/bin/activity-log",
  "sha256": "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb",
  "enabled": false,
  "capabilities": ["notify"]
}`)

	store := extensionout.NewFileManifestStore(extensionsDir)
	manifests, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("load manifests: %v", err)
	}
	if len(manifests) != 2 {
		t.Fatalf("expected two manifests, got %d", len(manifests))
	}
	if manifests[0].Name != "activity-log" || manifests[1].Name != "desktop-toast" {
		t.Fatalf("expected lexical directory order, got %s then %s", manifests[0].Name, manifests[1].Name)
	}
}

func TestFileManifestStoreResolvesRelativeBinary(t *testing.T) {
	t.Parallel()
	extensionsDir := t.TempDir()
	writeManifest(t, extensionsDir, "desktop-toast", `{
  "name": "desktop-toast",
  "version": "1.0.0",
  "binary": "toast-notifier",
  "sha256": "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
  "enabled": true,
  "capabilities": ["notify"]
}`)

	store := extensionout.NewFileManifestStore(extensionsDir)
	manifests, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("load manifests: %v", err)
	}
	if len(manifests) != 1 {
		t.Fatalf("expected one manifest, got %d", len(manifests))
	}
	want := filepath.Join(extensionsDir, "desktop-toast", "toast-notifier")
	if manifests[0].Binary != want {
		t.Fatalf("expected binary %s, got %s", want, manifests[0].Binary)
	}
}

func TestFileManifestStoreSkipsDirsWithoutManifest(t *testing.T) {
	t.Parallel()
	extensionsDir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(extensionsDir, "empty-dir"), 0o755); err != nil {
		t.Fatalf("mkdir empty dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(extensionsDir, "stray-file"), []byte("not an extension"), 0o644); err != nil {
		t.Fatalf("write stray file: %v", err)
	}

	store := extensionout.NewFileManifestStore(extensionsDir)
	manifests, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("load manifests: %v", err)
	}
	if len(manifests) != 0 {
		t.Fatalf("expected no manifests, got %d", len(manifests))
	}
}

func TestFileManifestStoreRejectsUnknownField(t *testing.T) {
	t.Parallel()
	extensionsDir := t.TempDir()
	writeManifest(t, extensionsDir, "desktop-toast", `{
  "name": "desktop-toast",
  "version": "1.0.0",
  "binary": "/tmp/toast-notifier",
  "sha256": "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
  "enabled": true,
  "capabilities": ["notify"],
  "unknown_field": true
}`)

	store := extensionout.NewFileManifestStore(extensionsDir)
	_, err := store.Load(context.Background())
	if err == nil {
		t.Fatalf("expected unknown field error")
	}
	if !strings.Contains(err.Error(), "desktop-toast") {
		t.Fatalf("expected error to name the manifest, got %v", err)
	}
}
