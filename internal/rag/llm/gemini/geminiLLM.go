package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/akolanti/cyberrag/internal/config"
	"github.com/akolanti/cyberrag/internal/rag/providerError"
	"github.com/akolanti/cyberrag/pkg/logger_i"
	"google.golang.org/genai"
)

type Client struct {
	client       *genai.Client
	modelName    string
	systemPrompt string
	temperature  float32
	maxTokens    int32
	logger       *logger_i.Logger
}

func New(ctx context.Context, cfg config.LLMConfig, apiKey string, httpClient *http.Client) (*Client, error) {
	logger := logger_i.NewLogger("llm_gemini")
	if apiKey == "" {
		return nil, errors.New("google api key is required for the google llm provider")
	}

	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpClient,
	})
	if err != nil {
		logger.Error("Error creating Gemini client", "error", err)
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	logger.Info("Gemini client created", "model", cfg.Model)

	return &Client{
		client:       c,
		modelName:    cfg.Model,
		systemPrompt: cfg.SystemPrompt,
		temperature:  cfg.Temperature,
		maxTokens:    cfg.MaxOutputTokens,
		logger:       logger,
	}, nil
}

func (c *Client) ModelName() string {
	return c.modelName
}

func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	log := c.logger.WithTrace(ctx, config.TRACE_ID_KEY)

	result, err := c.client.Models.GenerateContent(ctx, c.modelName, genai.Text(prompt), c.contentConfig())
	if err != nil {
		log.Error("Error generating content", "error", err)
		return "", providerError.Classify("gemini", err)
	}

	text := strings.TrimSpace(result.Text())
	if text == "" {
		return "", errors.New("gemini returned an empty answer")
	}
	log.Debug("Generated answer", "length", len(text))
	return text, nil
}

func (c *Client) contentConfig() *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(c.temperature),
	}
	if c.systemPrompt != "" {
		cfg.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: c.systemPrompt}},
		}
	}
	if c.maxTokens > 0 {
		cfg.MaxOutputTokens = c.maxTokens
	}
	return cfg
}
