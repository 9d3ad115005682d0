package retrieval

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/akolanti/cyberrag/internal/config"
	"github.com/akolanti/cyberrag/internal/domain/commonModels"
	"github.com/akolanti/cyberrag/internal/rag/embedding"
	"github.com/akolanti/cyberrag/internal/rag/manifest"
	"github.com/akolanti/cyberrag/internal/rag/vectorDB"
	"github.com/akolanti/cyberrag/pkg/logger_i"
)

type Retriever struct {
	embedder     embedding.Embedder
	store        vectorDB.Store
	settings     config.RetrievalConfig
	collection   string
	manifestPath string
	logger       *logger_i.Logger
}

func New(cfg *config.Config, embedder embedding.Embedder, store vectorDB.Store) *Retriever {
	return &Retriever{
		embedder:     embedder,
		store:        store,
		settings:     cfg.Retrieval,
		collection:   cfg.VectorStore.Collection,
		manifestPath: cfg.VectorStore.ManifestPath(),
		logger:       logger_i.NewLogger("retrieval"),
	}
}

// ClampK maps a requested k into [1, max_k]; zero or less means the default.
func (r *Retriever) ClampK(k int) int {
	if k <= 0 {
		return r.settings.DefaultK
	}
	return min(k, r.settings.MaxK)
}

// Retrieve returns at most k chunks for query, best first.
// It fails with ErrIndexNotBuilt before the first ingestion and ErrEmbeddingModelMismatch when
// the configured embedder is not the one the index was built with.
func (r *Retriever) Retrieve(ctx context.Context, query string, k int) (commonModels.RetrievalResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return commonModels.RetrievalResult{}, commonModels.ErrEmptyQuestion
	}
	k = r.ClampK(k)
	log := r.logger.WithTrace(ctx, config.TRACE_ID_KEY)

	m, err := manifest.Read(r.manifestPath)
	if err != nil {
		return commonModels.RetrievalResult{}, err
	}
	model := r.embedder.ModelName()
	if err := m.CheckModel(model); err != nil {
		return commonModels.RetrievalResult{}, err
	}

	result := commonModels.RetrievalResult{
		Query:            query,
		K:                k,
		DetectedLanguage: DetectLanguage(query),
		SearchDepth:      k,
	}
	queries := []string{query}
	if r.settings.Multilingual {
		queries = ExpandQuery(query, result.DetectedLanguage)
		result.ExpandedQueries = queries[1:]
	}
	if r.settings.AdaptiveK {
		result.SearchDepth = SearchDepth(k, result.DetectedLanguage, query, r.settings.MaxK)
	}

	var hits []commonModels.ScoredChunk
	for _, q := range queries {
		vector, err := r.embedder.GetEmbedding(ctx, q)
		if err != nil {
			return commonModels.RetrievalResult{}, fmt.Errorf("embedding query: %w", err)
		}
		found, err := r.store.Search(ctx, r.collection, vector, result.SearchDepth)
		if err != nil {
			return commonModels.RetrievalResult{}, fmt.Errorf("searching %s: %w", r.collection, err)
		}
		for _, h := range found {
			if h.Chunk.EmbeddingModel != model {
				return commonModels.RetrievalResult{}, fmt.Errorf("%w: chunk %s was embedded with %q", commonModels.ErrEmbeddingModelMismatch, h.Chunk.ChunkId, h.Chunk.EmbeddingModel)
			}
		}
		hits = append(hits, found...)
	}

	if r.settings.FilterPages {
		hits = FilterIrrelevantPages(hits)
	}
	hits = Deduplicate(hits)
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if len(hits) > k {
		hits = hits[:k]
	}
	result.Chunks = hits

	log.Debug("Retrieved chunks", "queries", len(queries), "depth", result.SearchDepth, "results", len(hits), "language", result.DetectedLanguage)
	return result, nil
}
