package openaiLLM

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/akolanti/cyberrag/internal/config"
	"github.com/akolanti/cyberrag/internal/rag/providerError"
	"github.com/akolanti/cyberrag/pkg/logger_i"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// Client talks to the chat completions API of OpenAI or a compatible server.
type Client struct {
	api          openai.Client
	model        string
	systemPrompt string
	temperature  float32
	maxTokens    int32
	logger       *logger_i.Logger
}

func New(cfg config.LLMConfig, apiKey, baseURL string, httpClient *http.Client) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("openai api key is required for the openai llm provider")
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

	logger := logger_i.NewLogger("llm_openai")
	logger.Info("OpenAI chat client created", "model", cfg.Model)
	return &Client{
		api:          openai.NewClient(opts...),
		model:        cfg.Model,
		systemPrompt: cfg.SystemPrompt,
		temperature:  cfg.Temperature,
		maxTokens:    cfg.MaxOutputTokens,
		logger:       logger,
	}, nil
}

func (c *Client) ModelName() string {
	return c.model
}

func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	log := c.logger.WithTrace(ctx, config.TRACE_ID_KEY)

	var messages []openai.ChatCompletionMessageParamUnion
	if c.systemPrompt != "" {
		messages = append(messages, openai.SystemMessage(c.systemPrompt))
	}
	messages = append(messages, openai.UserMessage(prompt))

	params := openai.ChatCompletionNewParams{
		Model:       c.model,
		Messages:    messages,
		Temperature: openai.Float(float64(c.temperature)),
	}
	if c.maxTokens > 0 {
		params.MaxTokens = openai.Int(int64(c.maxTokens))
	}

	res, err := c.api.Chat.Completions.New(ctx, params)
	if err != nil {
		log.Error("Error getting chat completion", "error", err)
		return "", providerError.Classify("openai chat", err)
	}
	if len(res.Choices) == 0 {
		return "", errors.New("openai returned no choices")
	}
	text := strings.TrimSpace(res.Choices[0].Message.Content)
	if text == "" {
		return "", errors.New("openai returned an empty answer")
	}
	return text, nil
}
