package openaiEmbedding

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/akolanti/cyberrag/internal/config"
	"github.com/akolanti/cyberrag/internal/rag/providerError"
	"github.com/akolanti/cyberrag/pkg/logger_i"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

type Client struct {
	api       openai.Client
	model     string
	dimension int32
	batchSize int
	logger    *logger_i.Logger
}

// New builds an embedder against the OpenAI API, or any compatible server when baseURL is set.
func New(cfg config.EmbeddingConfig, apiKey, baseURL string, httpClient *http.Client) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("openai api key is required for the openai embedding provider")
	}
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if httpClient != nil {
		opts = append(opts, option.WithHTTPClient(httpClient))
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}

	logger := logger_i.NewLogger("openai_embedding")
	logger.Info("OpenAI Embedding client created", "model", cfg.Model)
	return &Client{
		api:       openai.NewClient(opts...),
		model:     cfg.Model,
		dimension: cfg.Dimension,
		batchSize: cfg.BatchSize,
		logger:    logger,
	}, nil
}

func (c *Client) ModelName() string {
	return c.model
}

func (c *Client) GetEmbedding(ctx context.Context, query string) ([]float32, error) {
	vectors, err := c.embed(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (c *Client) BatchEmbedding(ctx context.Context, chunks []string) ([][]float32, error) {
	size := c.batchSize
	if size <= 0 {
		size = len(chunks)
	}
	results := make([][]float32, 0, len(chunks))
	for i := 0; i < len(chunks); i += size {
		end := min(i+size, len(chunks))
		vectors, err := c.embed(ctx, chunks[i:end])
		if err != nil {
			return nil, err
		}
		results = append(results, vectors...)
	}
	return results, nil
}

func (c *Client) embed(ctx context.Context, texts []string) ([][]float32, error) {
	log := c.logger.WithTrace(ctx, config.TRACE_ID_KEY)
	params := openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
		Model: openai.EmbeddingModel(c.model),
	}
	if c.dimension > 0 {
		params.Dimensions = openai.Int(int64(c.dimension))
	}

	res, err := c.api.Embeddings.New(ctx, params)
	if err != nil {
		log.Error("Error getting Embeddings from OpenAI", "error", err)
		return nil, providerError.Classify("openai embedding", err)
	}
	if len(res.Data) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(res.Data))
	}

	vectors := make([][]float32, len(texts))
	for _, d := range res.Data {
		if d.Index < 0 || int(d.Index) >= len(texts) {
			return nil, fmt.Errorf("embedding index %d out of range", d.Index)
		}
		v := make([]float32, len(d.Embedding))
		for j, f := range d.Embedding {
			v[j] = float32(f)
		}
		vectors[d.Index] = v
	}
	for i, v := range vectors {
		if len(v) == 0 {
			return nil, fmt.Errorf("embedding %d is empty", i)
		}
	}
	return vectors, nil
}
