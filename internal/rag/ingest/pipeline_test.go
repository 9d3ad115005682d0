package ingest

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/akolanti/cyberrag/internal/domain/commonModels"
	"github.com/akolanti/cyberrag/internal/domain/jobModel"
	"github.com/akolanti/cyberrag/internal/rag/embedding/fakeEmbedding"
	"github.com/akolanti/cyberrag/internal/rag/ingest/ingesttest"
	"github.com/akolanti/cyberrag/internal/rag/manifest"
	"github.com/akolanti/cyberrag/internal/rag/vectorDB"
	"github.com/akolanti/cyberrag/internal/rag/vectorDB/chromemDB"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	pipeline  *Pipeline
	store     *chromemDB.Store
	extractor *ingesttest.StaticExtractor
	embedder  *fakeEmbedding.BagOfWords
	manifest  string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := ingesttest.Config(t.TempDir())
	store := chromemDB.NewInMemory()
	embedder := fakeEmbedding.New("bag-of-words")

	p, err := NewPipeline(cfg, embedder, store)
	require.NoError(t, err)
	ex := &ingesttest.StaticExtractor{Segments: ingesttest.Corpus()}
	for _, dt := range []commonModels.DocType{commonModels.SlideDeck, commonModels.Textbook, commonModels.LocalizedStandard} {
		p.UseExtractor(dt, ex)
	}
	return &fixture{pipeline: p, store: store, extractor: ex, embedder: embedder, manifest: cfg.VectorStore.ManifestPath()}
}

func TestRun_BuildsIndexAndManifest(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var steps []jobModel.InternalStatus
	report, err := f.pipeline.Run(ctx, nil, func(s jobModel.InternalStatus) { steps = append(steps, s) })
	require.NoError(t, err)

	assert.Equal(t, []jobModel.InternalStatus{jobModel.IngestExtracting, jobModel.IngestEmbedding, jobModel.IngestPersisting}, steps)
	assert.Len(t, report.Documents, 3)
	assert.Equal(t, fakeEmbedding.Dimension, report.Dimension)
	assert.Equal(t, "bag-of-words", report.EmbeddingModel)

	n, err := f.store.Count(ctx, report.Collection)
	require.NoError(t, err)
	assert.Equal(t, report.TotalChunks, n)

	m, err := manifest.Read(f.manifest)
	require.NoError(t, err)
	assert.Equal(t, report.TotalChunks, m.TotalChunks)
	assert.NoError(t, m.CheckModel("bag-of-words"))
}

func TestRun_Idempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.pipeline.Run(ctx, nil, nil)
	require.NoError(t, err)
	second, err := f.pipeline.Run(ctx, nil, nil)
	require.NoError(t, err)

	n, err := f.store.Count(ctx, second.Collection)
	require.NoError(t, err)
	assert.Equal(t, first.TotalChunks, second.TotalChunks)
	assert.Equal(t, first.TotalChunks, n, "a re-run must not append duplicates")
}

func TestRun_EveryChunkHasOneEmbedding(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	docs, err := f.pipeline.Documents(nil)
	require.NoError(t, err)
	report, err := f.pipeline.Run(ctx, nil, nil)
	require.NoError(t, err)

	for _, doc := range docs {
		chunks, _, err := f.pipeline.chunkDocument(ctx, doc)
		require.NoError(t, err)
		for _, c := range chunks {
			rec, err := f.store.GetByID(ctx, report.Collection, c.ChunkId)
			require.NoError(t, err, c.ChunkId)
			assert.Len(t, rec.Embedding, report.Dimension)
			assert.Equal(t, c.Chunk, rec.Chunk.Chunk)
			assert.Equal(t, "bag-of-words", rec.Chunk.EmbeddingModel)
		}
	}
}

func TestRun_FailureLeavesPreviousIndex(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	report, err := f.pipeline.Run(ctx, nil, nil)
	require.NoError(t, err)
	before, err := os.ReadFile(f.manifest)
	require.NoError(t, err)

	delete(f.extractor.Segments, ingesttest.ThaiID)
	_, err = f.pipeline.Run(ctx, nil, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, commonModels.ErrNoContent))

	n, err := f.store.Count(ctx, report.Collection)
	require.NoError(t, err)
	assert.Equal(t, report.TotalChunks, n)
	after, err := os.ReadFile(f.manifest)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

type failingUpsertStore struct {
	vectorDB.Store
}

func (s failingUpsertStore) UpsertBatch(context.Context, string, []commonModels.DocChunk, [][]float32) error {
	return errors.New("connection reset")
}

func TestRun_PersistFailureInvalidatesManifest(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.pipeline.Run(ctx, nil, nil)
	require.NoError(t, err)
	_, err = manifest.Read(f.manifest)
	require.NoError(t, err)

	f.pipeline.store = failingUpsertStore{Store: f.store}
	_, err = f.pipeline.Run(ctx, nil, nil)
	require.ErrorContains(t, err, "connection reset")

	_, err = manifest.Read(f.manifest)
	assert.True(t, errors.Is(err, commonModels.ErrIndexNotBuilt), "stale manifest survived: %v", err)
}

func TestRun_Only(t *testing.T) {
	f := newFixture(t)
	report, err := f.pipeline.Run(context.Background(), []string{ingesttest.OwaspID}, nil)
	require.NoError(t, err)
	require.Len(t, report.Documents, 1)
	assert.Equal(t, ingesttest.OwaspID, report.Documents[0].DocumentId)

	_, err = f.pipeline.Run(context.Background(), []string{"nist-800-53"}, nil)
	assert.ErrorContains(t, err, "nist-800-53")
}

func TestEndToEnd_OwaspIsTopResult(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	report, err := f.pipeline.Run(ctx, nil, nil)
	require.NoError(t, err)

	q, err := f.embedder.GetEmbedding(ctx, "What is the OWASP Top 10 category for broken access control?")
	require.NoError(t, err)
	res, err := f.store.Search(ctx, report.Collection, q, 3)
	require.NoError(t, err)
	require.NotEmpty(t, res)
	assert.Equal(t, ingesttest.OwaspID, res[0].Chunk.DocumentId)
	assert.Equal(t, "owasp-top-10.pdf", res[0].Chunk.Source)
}
