package manifest

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/akolanti/cyberrag/internal/domain/commonModels"
	"github.com/akolanti/cyberrag/internal/domain/jobModel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store", "manifest.yaml")
	report := jobModel.IngestReport{
		Collection:     "rag_knowledge_base",
		EmbeddingModel: "text-embedding-004",
		Dimension:      768,
		TotalChunks:    42,
		Documents:      []jobModel.DocumentReport{{DocumentId: "owasp-top-10", Type: commonModels.SlideDeck, Segments: 30, Chunks: 20}},
		Duration:       3 * time.Second,
		BuiltAt:        time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
	}

	require.NoError(t, Write(path, New(report)))
	got, err := Read(path)
	require.NoError(t, err)

	assert.Equal(t, currentVersion, got.Version)
	assert.Equal(t, report, got.IngestReport)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestRead_Missing(t *testing.T) {
	_, err := Read(filepath.Join(t.TempDir(), "manifest.yaml"))
	assert.True(t, errors.Is(err, commonModels.ErrIndexNotBuilt))
}

func TestRead_Incomplete(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifest.yaml")
	require.NoError(t, os.WriteFile(path, []byte("version: 1\n"), 0o600))
	_, err := Read(path)
	assert.True(t, errors.Is(err, commonModels.ErrIndexNotBuilt))
}

func TestCheckModel(t *testing.T) {
	m := New(jobModel.IngestReport{EmbeddingModel: "text-embedding-004"})
	assert.NoError(t, m.CheckModel("text-embedding-004"))
	assert.True(t, errors.Is(m.CheckModel("text-embedding-3-small"), commonModels.ErrEmbeddingModelMismatch))
}

func TestRemove(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifest.yaml")
	require.NoError(t, Write(path, New(jobModel.IngestReport{Collection: "c", EmbeddingModel: "m"})))

	require.NoError(t, Remove(path))
	_, err := Read(path)
	assert.True(t, errors.Is(err, commonModels.ErrIndexNotBuilt))

	assert.NoError(t, Remove(path), "removing twice is fine")
}
