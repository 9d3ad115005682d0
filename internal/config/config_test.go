package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cyberrag.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":7860", cfg.Server.ListenAddr)
	assert.Equal(t, CollectionName, cfg.VectorStore.Collection)
	assert.Equal(t, VectorBackendChromem, cfg.VectorStore.Backend)
	assert.Equal(t, GoogleEmbeddingModel, cfg.Embedding.Model)
	assert.Equal(t, GeminiModelName, cfg.LLM.Model)
	assert.Len(t, cfg.Dataset.Documents, 3)
	assert.Equal(t, ChunkSettings{Size: 800, Overlap: 150}, cfg.Chunking.For("localized_standard"))
	assert.Equal(t, ChunkSettings{Size: 1000, Overlap: 100}, cfg.Chunking.For("slide_deck"))
	assert.Equal(t, ChunkSettings{Size: 1000, Overlap: 200}, cfg.Chunking.For("textbook"))
	assert.Equal(t, DefaultExcludedSlideTexts, cfg.Extraction.ExcludedSlideTexts)
	assert.Equal(t, filepath.Join(PersistDir, ManifestFileName), cfg.VectorStore.ManifestPath())
}

func TestLoad_FileAndEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
server:
  listen_addr: ":9000"
  chat_timeout: 15s
embedding:
  provider: openai
llm:
  provider: openai
  model: local-model
chunking:
  textbook:
    size: 500
    overlap: 50
dataset:
  dir: /data
  documents:
    - id: notes
      path: notes.txt
      type: plain_text
`)
	t.Setenv("CYBERRAG_RETRIEVAL_DEFAULT_K", "4")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Server.ListenAddr)
	assert.Equal(t, 15*time.Second, cfg.Server.ChatTimeout)
	assert.Equal(t, OpenAIEmbeddingModel, cfg.Embedding.Model)
	assert.Equal(t, "local-model", cfg.LLM.Model)
	assert.Equal(t, 4, cfg.Retrieval.DefaultK)
	assert.Equal(t, "sk-test", cfg.Providers.APIKeyFor(ProviderOpenAI))
	assert.Equal(t, ChunkSettings{Size: 500, Overlap: 50}, cfg.Chunking.Textbook)
	require.Len(t, cfg.Dataset.Documents, 1)
	assert.Equal(t, "/data/notes.txt", cfg.Dataset.DocumentPath(cfg.Dataset.Documents[0]))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"overlap larger than size", func(c *Config) { c.Chunking.Textbook.Overlap = c.Chunking.Textbook.Size }},
		{"unknown document type", func(c *Config) { c.Dataset.Documents[0].Type = "poster" }},
		{"duplicate document id", func(c *Config) { c.Dataset.Documents[1].ID = c.Dataset.Documents[0].ID }},
		{"unknown vector backend", func(c *Config) { c.VectorStore.Backend = "milvus" }},
		{"default k above max", func(c *Config) { c.Retrieval.DefaultK = c.Retrieval.MaxK + 1 }},
		{"empty collection", func(c *Config) { c.VectorStore.Collection = "" }},
	}

	require.NoError(t, Default().Validate())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
