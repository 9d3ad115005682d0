package manifest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/akolanti/cyberrag/internal/domain/commonModels"
	"github.com/akolanti/cyberrag/internal/domain/jobModel"
	"gopkg.in/yaml.v3"
)

const currentVersion = 1

// Manifest records what the last successful pipeline run built. Its presence is what makes the index usable.
type Manifest struct {
	Version               int `yaml:"version"`
	jobModel.IngestReport `yaml:",inline"`
}

func New(report jobModel.IngestReport) Manifest {
	return Manifest{Version: currentVersion, IngestReport: report}
}

// Write replaces the manifest atomically so a reader never sees a half written file.
func Write(path string, m Manifest) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating manifest dir: %w", err)
	}
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("encoding manifest: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".manifest-*.yaml")
	if err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing manifest: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}
	return os.Rename(tmp.Name(), path)
}

// Remove deletes the manifest, turning the index back into ErrIndexNotBuilt. A missing file is not an error.
func Remove(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing manifest: %w", err)
	}
	return nil
}

// Read loads the manifest; a missing file is ErrIndexNotBuilt.
func Read(path string) (Manifest, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Manifest{}, fmt.Errorf("%w: no manifest at %s", commonModels.ErrIndexNotBuilt, path)
	}
	if err != nil {
		return Manifest{}, fmt.Errorf("reading manifest: %w", err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return Manifest{}, fmt.Errorf("decoding manifest %s: %w", path, err)
	}
	if m.EmbeddingModel == "" || m.Collection == "" {
		return Manifest{}, fmt.Errorf("%w: manifest %s is incomplete", commonModels.ErrIndexNotBuilt, path)
	}
	return m, nil
}

// CheckModel fails with ErrEmbeddingModelMismatch when model is not the one the index was built with.
func (m Manifest) CheckModel(model string) error {
	if m.EmbeddingModel != model {
		return fmt.Errorf("%w: index built with %q, query uses %q", commonModels.ErrEmbeddingModelMismatch, m.EmbeddingModel, model)
	}
	return nil
}
