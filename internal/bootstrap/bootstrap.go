// Package bootstrap builds the application components from a loaded config.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/akolanti/cyberrag/internal/config"
	"github.com/akolanti/cyberrag/internal/customHttpClient"
	"github.com/akolanti/cyberrag/internal/data/redisStore"
	"github.com/akolanti/cyberrag/internal/data/store"
	"github.com/akolanti/cyberrag/internal/domain/jobModel"
	"github.com/akolanti/cyberrag/internal/rag"
	"github.com/akolanti/cyberrag/internal/rag/embedding"
	"github.com/akolanti/cyberrag/internal/rag/embedding/googleEmbedding"
	"github.com/akolanti/cyberrag/internal/rag/embedding/openaiEmbedding"
	"github.com/akolanti/cyberrag/internal/rag/ingest"
	"github.com/akolanti/cyberrag/internal/rag/llm"
	"github.com/akolanti/cyberrag/internal/rag/llm/gemini"
	"github.com/akolanti/cyberrag/internal/rag/llm/openaiLLM"
	"github.com/akolanti/cyberrag/internal/rag/retrieval"
	"github.com/akolanti/cyberrag/internal/rag/vectorDB"
	"github.com/akolanti/cyberrag/internal/rag/vectorDB/chromemDB"
	"github.com/akolanti/cyberrag/internal/rag/vectorDB/qdrantDB"
	"github.com/akolanti/cyberrag/pkg/logger_i"
)

// App holds everything the commands need. Chat, JobStore and Messages are nil for an indexer-only build.
type App struct {
	Config    *config.Config
	Embedder  embedding.Embedder
	Store     vectorDB.Store
	Pipeline  *ingest.Pipeline
	Retriever *retrieval.Retriever
	Chat      *rag.Service
	JobStore  jobModel.JobStore
	Messages  jobModel.MessageStore

	closers []func() error
	logger  *logger_i.Logger
}

// NewIndexer builds what a rebuild needs: embedder, vector store and pipeline.
func NewIndexer(ctx context.Context, cfg *config.Config) (*App, error) {
	app := &App{Config: cfg, logger: logger_i.NewLogger("bootstrap")}
	if err := app.buildIndex(ctx, customHttpClient.New(0)); err != nil {
		app.Close()
		return nil, err
	}
	return app, nil
}

// New builds the full application: indexer, retriever, LLM, stores and chat service.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	app := &App{Config: cfg, logger: logger_i.NewLogger("bootstrap")}
	if err := app.build(ctx); err != nil {
		app.Close()
		return nil, err
	}
	return app, nil
}

func (a *App) build(ctx context.Context) error {
	httpClient := customHttpClient.New(0)
	if err := a.buildIndex(ctx, httpClient); err != nil {
		return err
	}
	a.Retriever = retrieval.New(a.Config, a.Embedder, a.Store)

	provider, err := NewLLM(ctx, a.Config, httpClient)
	if err != nil {
		return err
	}

	jobs, messages, closers, err := NewStores(ctx, a.Config.History)
	if err != nil {
		return err
	}
	a.JobStore, a.Messages = jobs, messages
	a.closers = append(a.closers, closers...)

	a.Chat, err = rag.NewService(a.Config, a.Retriever, provider, a.Messages)
	if err != nil {
		return fmt.Errorf("building chat service: %w", err)
	}
	a.logger.Info("Application ready",
		"embedding", a.Embedder.ModelName(),
		"llm", provider.ModelName(),
		"vector_store", a.Config.VectorStore.Backend,
		"history", a.Config.History.Backend)
	return nil
}

func (a *App) buildIndex(ctx context.Context, httpClient *http.Client) error {
	var err error
	if a.Embedder, err = NewEmbedder(ctx, a.Config, httpClient); err != nil {
		return err
	}
	if a.Store, err = NewVectorStore(a.Config.VectorStore); err != nil {
		return err
	}
	a.closers = append(a.closers, a.Store.Close)

	if a.Pipeline, err = ingest.NewPipeline(a.Config, a.Embedder, a.Store); err != nil {
		return fmt.Errorf("building pipeline: %w", err)
	}
	return nil
}

// Close releases external clients in reverse order of creation.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("Error closing component", "error", err)
		}
	}
	a.closers = nil
}

func NewEmbedder(ctx context.Context, cfg *config.Config, httpClient *http.Client) (embedding.Embedder, error) {
	key := cfg.Providers.APIKeyFor(cfg.Embedding.Provider)
	switch cfg.Embedding.Provider {
	case config.ProviderOpenAI:
		return openaiEmbedding.New(cfg.Embedding, key, cfg.Providers.OpenAIBaseURL, httpClient)
	case config.ProviderGoogle:
		return googleEmbedding.New(ctx, cfg.Embedding, key, httpClient)
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Embedding.Provider)
	}
}

func NewLLM(ctx context.Context, cfg *config.Config, httpClient *http.Client) (llm.Provider, error) {
	key := cfg.Providers.APIKeyFor(cfg.LLM.Provider)
	switch cfg.LLM.Provider {
	case config.ProviderOpenAI:
		return openaiLLM.New(cfg.LLM, key, cfg.Providers.OpenAIBaseURL, httpClient)
	case config.ProviderGoogle:
		return gemini.New(ctx, cfg.LLM, key, httpClient)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.LLM.Provider)
	}
}

func NewVectorStore(cfg config.VectorStoreConfig) (vectorDB.Store, error) {
	switch cfg.Backend {
	case config.VectorBackendQdrant:
		return qdrantDB.New(cfg.Qdrant)
	case config.VectorBackendChromem:
		return chromemDB.New(cfg)
	default:
		return nil, fmt.Errorf("unknown vector store backend %q", cfg.Backend)
	}
}

// NewStores opens the job and conversation stores. A redis backend that cannot be reached
// falls back to memory when cfg.FallbackToMemory is set.
func NewStores(ctx context.Context, cfg config.HistoryConfig) (jobModel.JobStore, jobModel.MessageStore, []func() error, error) {
	logger := logger_i.NewLogger("bootstrap")
	if cfg.Backend == config.HistoryBackendMemory {
		return store.InitInMemoryJobStore(), store.InitMessageStore(cfg.MaxTurns), nil, nil
	}

	jobRedis, jobErr := redisStore.New(ctx, cfg, cfg.JobDB)
	messageRedis, messageErr := redisStore.New(ctx, cfg, cfg.MessageDB)
	if err := errors.Join(jobErr, messageErr); err != nil {
		for _, s := range []*redisStore.Store{jobRedis, messageRedis} {
			if s != nil {
				_ = s.Close()
			}
		}
		if !cfg.FallbackToMemory {
			return nil, nil, nil, fmt.Errorf("opening redis stores: %w", err)
		}
		logger.Error("Redis stores are offline, using in-memory stores", "error", err)
		return store.InitInMemoryJobStore(), store.InitMessageStore(cfg.MaxTurns), nil, nil
	}

	closers := []func() error{jobRedis.Close, messageRedis.Close}
	return store.NewRedisJobStore(jobRedis, config.RedisJobStoreTTL),
		store.NewRedisMessageStore(messageRedis, cfg.TTL, cfg.MaxTurns),
		closers, nil
}
