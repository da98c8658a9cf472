package out

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"lectio/internal/modules/extension/domain"
	extensionout "lectio/internal/modules/extension/port/out"
)

const manifestFileName = "manifest.json"

// FileManifestStore discovers extensions by scanning one directory per
// extension, each holding a manifest.json. Relative binary paths resolve
// against the extension's own directory.
type FileManifestStore struct {
	extensionsDir string
}

func NewFileManifestStore(extensionsDir string) extensionout.ManifestStore {
	return &FileManifestStore{extensionsDir: extensionsDir}
}

func (s *FileManifestStore) Load(_ context.Context) ([]domain.Manifest, error) {
	entries, err := os.ReadDir(s.extensionsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []domain.Manifest{}, nil
		}
		return nil, fmt.Errorf("read extensions dir: %w", err)
	}

	manifests := make([]domain.Manifest, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		extensionDir := filepath.Join(s.extensionsDir, entry.Name())
		manifestPath := filepath.Join(extensionDir, manifestFileName)
		b, err := os.ReadFile(manifestPath)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("read extension manifest %s: %w", manifestPath, err)
		}

		var manifest domain.Manifest
		decoder := json.NewDecoder(bytes.NewReader(b))
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&manifest); err != nil {
			return nil, fmt.Errorf("decode extension manifest %s: %w", manifestPath, err)
		}
		if manifest.Binary != "" && !filepath.IsAbs(manifest.Binary) {
			manifest.Binary = filepath.Clean(filepath.Join(extensionDir, manifest.Binary))
		}
		manifests = append(manifests, manifest)
	}
	return manifests, nil
}
