package embedding

import "context"

// Embedder turns text into vectors. Documents and queries may use different task hints,
// but both come from the model reported by ModelName.
type Embedder interface {
	ModelName() string
	GetEmbedding(ctx context.Context, query string) ([]float32, error)
	BatchEmbedding(ctx context.Context, chunks []string) ([][]float32, error)
}
