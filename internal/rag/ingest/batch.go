package ingest

import (
	"context"
	"fmt"

	"github.com/akolanti/cyberrag/internal/domain/commonModels"
	"github.com/akolanti/cyberrag/internal/rag/embedding"
	"github.com/akolanti/cyberrag/internal/rag/vectorDB"
)

// EmbedAll embeds texts batch by batch and returns one vector per text, in order.
func EmbedAll(ctx context.Context, texts []string, embedder embedding.Embedder, batchSize int) ([][]float32, error) {
	if batchSize <= 0 {
		batchSize = len(texts)
	}
	vectors := make([][]float32, 0, len(texts))
	for i := 0; i < len(texts); i += batchSize {
		end := min(i+batchSize, len(texts))
		batch, err := embedder.BatchEmbedding(ctx, texts[i:end])
		if err != nil {
			return nil, fmt.Errorf("embedding batch %d-%d failed: %w", i, end, err)
		}
		if len(batch) != end-i {
			return nil, fmt.Errorf("embedding batch %d-%d returned %d vectors", i, end, len(batch))
		}
		vectors = append(vectors, batch...)
	}
	return vectors, nil
}

// ValidateVectors checks there is one non-empty vector per chunk and that all share a dimension, which it returns.
func ValidateVectors(vectors [][]float32, chunks int) (int, error) {
	if len(vectors) != chunks {
		return 0, fmt.Errorf("got %d vectors for %d chunks", len(vectors), chunks)
	}
	dimension := 0
	for i, v := range vectors {
		if len(v) == 0 {
			return 0, fmt.Errorf("vector %d is empty", i)
		}
		if dimension == 0 {
			dimension = len(v)
		}
		if len(v) != dimension {
			return 0, fmt.Errorf("vector %d has dimension %d, expected %d", i, len(v), dimension)
		}
	}
	return dimension, nil
}

// BatchIngest upserts chunks and their vectors in batches of batchSize.
func BatchIngest(ctx context.Context, store vectorDB.Store, collection string, chunks []commonModels.DocChunk, vectors [][]float32, batchSize int) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("mismatch: got %d chunks but %d vectors", len(chunks), len(vectors))
	}
	if batchSize <= 0 {
		batchSize = len(chunks)
	}
	for i := 0; i < len(chunks); i += batchSize {
		end := min(i+batchSize, len(chunks))
		if err := store.UpsertBatch(ctx, collection, chunks[i:end], vectors[i:end]); err != nil {
			return fmt.Errorf("upserting batch %d-%d failed: %w", i, end, err)
		}
	}
	return nil
}
