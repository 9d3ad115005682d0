package googleEmbedding

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/akolanti/cyberrag/internal/config"
	"github.com/akolanti/cyberrag/internal/rag/providerError"
	"github.com/akolanti/cyberrag/pkg/logger_i"
	"google.golang.org/genai"
)

const (
	taskDocument = "RETRIEVAL_DOCUMENT"
	taskQuery    = "RETRIEVAL_QUERY"
)

type Client struct {
	genAi     *genai.Client
	model     string
	dimension *int32
	batchSize int
	logger    *logger_i.Logger
}

func New(ctx context.Context, cfg config.EmbeddingConfig, apiKey string, httpClient *http.Client) (*Client, error) {
	logger := logger_i.NewLogger("google_embedding")
	if apiKey == "" {
		return nil, errors.New("google api key is required for the google embedding provider")
	}

	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpClient,
	})
	if err != nil {
		logger.Error("Error creating Google Embedding client", "error", err)
		return nil, fmt.Errorf("creating google embedding client: %w", err)
	}

	client := &Client{
		genAi:     c,
		model:     cfg.Model,
		batchSize: cfg.BatchSize,
		logger:    logger,
	}
	if cfg.Dimension > 0 {
		dim := cfg.Dimension
		client.dimension = &dim
	}
	logger.Info("Google Embedding client created", "model", cfg.Model)
	return client, nil
}

func (c *Client) ModelName() string {
	return c.model
}

func (c *Client) GetEmbedding(ctx context.Context, query string) ([]float32, error) {
	log := c.logger.WithTrace(ctx, config.TRACE_ID_KEY)
	log.Debug("embedding query", "length", len(query))

	res, err := c.doCall(ctx, genai.Text(query), taskQuery)
	if err != nil {
		log.Error("Error getting query embedding from Google", "error", err)
		return nil, providerError.Classify("google embedding", err)
	}
	vectors, err := toVectors(res, 1)
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (c *Client) BatchEmbedding(ctx context.Context, chunks []string) ([][]float32, error) {
	log := c.logger.WithTrace(ctx, config.TRACE_ID_KEY)

	results := make([][]float32, 0, len(chunks))
	for _, batch := range batches(chunks, c.batchSize) {
		log.Debug("Starting embedding call", "batch length", len(batch))
		res, err := c.doCall(ctx, getContent(batch), taskDocument)
		if err != nil {
			log.Error("Error getting Embeddings from Google", "error", err)
			return nil, providerError.Classify("google embedding", err)
		}
		vectors, err := toVectors(res, len(batch))
		if err != nil {
			return nil, err
		}
		results = append(results, vectors...)
	}
	return results, nil
}

func (c *Client) doCall(ctx context.Context, content []*genai.Content, task string) (*genai.EmbedContentResponse, error) {
	return c.genAi.Models.EmbedContent(ctx, c.model, content, &genai.EmbedContentConfig{
		OutputDimensionality: c.dimension,
		TaskType:             task,
	})
}
