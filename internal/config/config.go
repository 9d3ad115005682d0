package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is loaded once at startup and handed to every constructor.
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Log         LogConfig         `mapstructure:"log"`
	Dataset     DatasetConfig     `mapstructure:"dataset"`
	Extraction  ExtractionConfig  `mapstructure:"extraction"`
	Chunking    ChunkingConfig    `mapstructure:"chunking"`
	Embedding   EmbeddingConfig   `mapstructure:"embedding"`
	LLM         LLMConfig         `mapstructure:"llm"`
	Providers   ProvidersConfig   `mapstructure:"providers"`
	VectorStore VectorStoreConfig `mapstructure:"vector_store"`
	Retrieval   RetrievalConfig   `mapstructure:"retrieval"`
	Prompt      PromptConfig      `mapstructure:"prompt"`
	History     HistoryConfig     `mapstructure:"history"`
	Ingest      IngestConfig      `mapstructure:"ingest"`
}

type ServerConfig struct {
	ListenAddr         string        `mapstructure:"listen_addr"`
	ReadTimeout        time.Duration `mapstructure:"read_timeout"`
	WriteTimeout       time.Duration `mapstructure:"write_timeout"`
	IdleTimeout        time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout    time.Duration `mapstructure:"shutdown_timeout"`
	ChatTimeout        time.Duration `mapstructure:"chat_timeout"`
	AuthToken          string        `mapstructure:"auth_token"` //empty disables bearer auth
	RateLimitPerSecond float64       `mapstructure:"rate_limit_per_second"`
	RateLimitBurst     int           `mapstructure:"rate_limit_burst"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

type DocumentConfig struct {
	ID    string `mapstructure:"id"`
	Path  string `mapstructure:"path"`
	Title string `mapstructure:"title"`
	Type  string `mapstructure:"type"`
}

type DatasetConfig struct {
	Dir       string           `mapstructure:"dir"`
	Documents []DocumentConfig `mapstructure:"documents"`
}

type ExtractionConfig struct {
	PageTimeout         time.Duration `mapstructure:"page_timeout"`
	ExcludedSlideTexts  []string      `mapstructure:"excluded_slide_texts"`
	TextbookHeaderRegex []string      `mapstructure:"textbook_header_patterns"`
}

type ChunkSettings struct {
	Size    int `mapstructure:"size"`
	Overlap int `mapstructure:"overlap"`
}

type ChunkingConfig struct {
	Textbook          ChunkSettings `mapstructure:"textbook"`
	SlideDeck         ChunkSettings `mapstructure:"slide_deck"`
	LocalizedStandard ChunkSettings `mapstructure:"localized_standard"`
	PlainText         ChunkSettings `mapstructure:"plain_text"`
}

type EmbeddingConfig struct {
	Provider  string `mapstructure:"provider"`
	Model     string `mapstructure:"model"`
	Dimension int32  `mapstructure:"dimension"` //0 keeps the model default
	BatchSize int    `mapstructure:"batch_size"`
}

type LLMConfig struct {
	Provider        string  `mapstructure:"provider"`
	Model           string  `mapstructure:"model"`
	Temperature     float32 `mapstructure:"temperature"`
	MaxOutputTokens int32   `mapstructure:"max_output_tokens"`
	SystemPrompt    string  `mapstructure:"system_prompt"`
}

type ProvidersConfig struct {
	GoogleAPIKey  string `mapstructure:"google_api_key"`
	OpenAIAPIKey  string `mapstructure:"openai_api_key"`
	OpenAIBaseURL string `mapstructure:"openai_base_url"`
}

type QdrantConfig struct {
	Host   string `mapstructure:"host"`
	Port   int    `mapstructure:"port"`
	UseTLS bool   `mapstructure:"use_tls"`
	APIKey string `mapstructure:"api_key"`
}

type VectorStoreConfig struct {
	Backend    string       `mapstructure:"backend"`
	PersistDir string       `mapstructure:"persist_dir"`
	Collection string       `mapstructure:"collection"`
	Compress   bool         `mapstructure:"compress"`
	Qdrant     QdrantConfig `mapstructure:"qdrant"`
}

type RetrievalConfig struct {
	DefaultK     int  `mapstructure:"default_k"`
	MaxK         int  `mapstructure:"max_k"`
	Multilingual bool `mapstructure:"multilingual"`
	AdaptiveK    bool `mapstructure:"adaptive_k"`
	FilterPages  bool `mapstructure:"filter_pages"`
}

type PromptConfig struct {
	MaxContextChars int `mapstructure:"max_context_chars"`
	MaxHistoryTurns int `mapstructure:"max_history_turns"`
	MaxTurnChars    int `mapstructure:"max_turn_chars"`
}

type HistoryConfig struct {
	Backend       string        `mapstructure:"backend"`
	RedisAddr     string        `mapstructure:"redis_addr"`
	RedisPassword string        `mapstructure:"redis_password"`
	MessageDB     int           `mapstructure:"message_db"`
	JobDB         int           `mapstructure:"job_db"`
	TTL           time.Duration `mapstructure:"ttl"`
	MaxTurns      int           `mapstructure:"max_turns"`
	//if redis init fails, fall back to the in-memory stores
	FallbackToMemory bool `mapstructure:"fallback_to_memory"`
}

type IngestConfig struct {
	JobTimeout time.Duration `mapstructure:"job_timeout"`
}

// ManifestPath is where the pipeline records what it built.
func (c VectorStoreConfig) ManifestPath() string {
	return filepath.Join(c.PersistDir, ManifestFileName)
}

// For returns the chunk settings of a document type.
func (c ChunkingConfig) For(docType string) ChunkSettings {
	switch docType {
	case "slide_deck":
		return c.SlideDeck
	case "localized_standard":
		return c.LocalizedStandard
	case "plain_text":
		return c.PlainText
	default:
		return c.Textbook
	}
}

// DocumentPath resolves a configured document against the dataset directory.
func (c DatasetConfig) DocumentPath(d DocumentConfig) string {
	if filepath.IsAbs(d.Path) || c.Dir == "" {
		return d.Path
	}
	return filepath.Join(c.Dir, d.Path)
}

func DefaultDocuments() []DocumentConfig {
	return []DocumentConfig{
		{ID: "owasp-top-10", Path: "owasp-top-10.pdf", Title: "OWASP Top 10", Type: "slide_deck"},
		{ID: "mitre-attack-philosophy-2020", Path: "mitre-attack-philosophy-2020.pdf", Title: "MITRE ATT&CK: Design and Philosophy", Type: "textbook"},
		{ID: "thailand-web-security-standard-2025", Path: "thailand-web-security-standard-2025.pdf", Title: "Thailand Website Security Standard", Type: "localized_standard"},
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.listen_addr", ServerListenAddr)
	v.SetDefault("server.read_timeout", ReadTimeout)
	v.SetDefault("server.write_timeout", WriteTimeout)
	v.SetDefault("server.idle_timeout", IdleTimeout)
	v.SetDefault("server.shutdown_timeout", ShutdownContextTimeout)
	v.SetDefault("server.chat_timeout", ChatRequestTimeout)
	v.SetDefault("server.auth_token", "")
	v.SetDefault("server.rate_limit_per_second", RATE_LIMIT_PER_SECOND)
	v.SetDefault("server.rate_limit_burst", BURST_RATE_LIMIT_PER_SECOND)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", false)

	v.SetDefault("dataset.dir", DatasetDir)

	v.SetDefault("extraction.page_timeout", PageExtractTimeout)
	v.SetDefault("extraction.excluded_slide_texts", DefaultExcludedSlideTexts)
	v.SetDefault("extraction.textbook_header_patterns", []string{})

	v.SetDefault("chunking.textbook.size", TextbookChunkSize)
	v.SetDefault("chunking.textbook.overlap", TextbookChunkOverlap)
	v.SetDefault("chunking.slide_deck.size", SlideDeckChunkSize)
	v.SetDefault("chunking.slide_deck.overlap", SlideDeckChunkOverlap)
	v.SetDefault("chunking.localized_standard.size", LocalizedStandardChunkSize)
	v.SetDefault("chunking.localized_standard.overlap", LocalizedStandardOverlap)
	v.SetDefault("chunking.plain_text.size", PlainTextChunkSize)
	v.SetDefault("chunking.plain_text.overlap", PlainTextChunkOverlap)

	v.SetDefault("embedding.provider", ProviderGoogle)
	v.SetDefault("embedding.model", "")
	v.SetDefault("embedding.dimension", 0)
	v.SetDefault("embedding.batch_size", EmbeddingBatchSize)

	v.SetDefault("llm.provider", ProviderGoogle)
	v.SetDefault("llm.model", "")
	v.SetDefault("llm.temperature", ModelTemperature)
	v.SetDefault("llm.max_output_tokens", MaxOutputTokens)
	v.SetDefault("llm.system_prompt", ModelContext)

	v.SetDefault("providers.openai_base_url", "")

	v.SetDefault("vector_store.backend", VectorBackendChromem)
	v.SetDefault("vector_store.persist_dir", PersistDir)
	v.SetDefault("vector_store.collection", CollectionName)
	v.SetDefault("vector_store.compress", false)
	v.SetDefault("vector_store.qdrant.host", QdrantHost)
	v.SetDefault("vector_store.qdrant.port", QdrantGrpcPort)
	v.SetDefault("vector_store.qdrant.use_tls", QdrantUseTLS)
	v.SetDefault("vector_store.qdrant.api_key", "")

	v.SetDefault("retrieval.default_k", DefaultK)
	v.SetDefault("retrieval.max_k", MaxK)
	v.SetDefault("retrieval.multilingual", true)
	v.SetDefault("retrieval.adaptive_k", true)
	v.SetDefault("retrieval.filter_pages", true)

	v.SetDefault("prompt.max_context_chars", MaxContextChars)
	v.SetDefault("prompt.max_history_turns", MaxHistoryTurns)
	v.SetDefault("prompt.max_turn_chars", MaxTurnChars)

	v.SetDefault("history.backend", HistoryBackendMemory)
	v.SetDefault("history.redis_addr", RedisAddr)
	v.SetDefault("history.redis_password", "")
	v.SetDefault("history.message_db", RedisMessageStore)
	v.SetDefault("history.job_db", RedisJobStore)
	v.SetDefault("history.ttl", RedisMessageStoreTTL)
	v.SetDefault("history.max_turns", 50)
	v.SetDefault("history.fallback_to_memory", true)

	v.SetDefault("ingest.job_timeout", IngestJobTimeout)
}

// Load reads .env, the optional YAML file at path and CYBERRAG_* overrides.
// An empty path only uses defaults and the environment.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("providers.google_api_key", EnvPrefix+"_PROVIDERS_GOOGLE_API_KEY", "GOOGLE_API_KEY", "GEMINI_API_KEY")
	_ = v.BindEnv("providers.openai_api_key", EnvPrefix+"_PROVIDERS_OPENAI_API_KEY", "OPENAI_API_KEY")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default is the configuration used when nothing is loaded, mostly by tests.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	_ = v.Unmarshal(&cfg)
	cfg.applyDefaults()
	return &cfg
}

func (c *Config) applyDefaults() {
	if len(c.Dataset.Documents) == 0 {
		c.Dataset.Documents = DefaultDocuments()
	}
	if c.Embedding.Model == "" {
		c.Embedding.Model = GoogleEmbeddingModel
		if c.Embedding.Provider == ProviderOpenAI {
			c.Embedding.Model = OpenAIEmbeddingModel
		}
	}
	if c.LLM.Model == "" {
		c.LLM.Model = GeminiModelName
		if c.LLM.Provider == ProviderOpenAI {
			c.LLM.Model = OpenAIModelName
		}
	}
	if c.Embedding.BatchSize <= 0 {
		c.Embedding.BatchSize = EmbeddingBatchSize
	}
}

func (c *Config) Validate() error {
	var errs []error

	for name, s := range map[string]ChunkSettings{
		"textbook":           c.Chunking.Textbook,
		"slide_deck":         c.Chunking.SlideDeck,
		"localized_standard": c.Chunking.LocalizedStandard,
		"plain_text":         c.Chunking.PlainText,
	} {
		if s.Size <= 0 {
			errs = append(errs, fmt.Errorf("chunking.%s.size must be positive", name))
		}
		if s.Overlap < 0 || s.Overlap >= s.Size {
			errs = append(errs, fmt.Errorf("chunking.%s.overlap must be in [0, size)", name))
		}
	}

	seen := make(map[string]bool, len(c.Dataset.Documents))
	for _, d := range c.Dataset.Documents {
		if d.ID == "" || d.Path == "" {
			errs = append(errs, errors.New("dataset.documents entries need id and path"))
			continue
		}
		if seen[d.ID] {
			errs = append(errs, fmt.Errorf("duplicate document id %q", d.ID))
		}
		seen[d.ID] = true
		switch d.Type {
		case "slide_deck", "textbook", "localized_standard", "plain_text":
		default:
			errs = append(errs, fmt.Errorf("document %q has unknown type %q", d.ID, d.Type))
		}
	}

	switch c.Embedding.Provider {
	case ProviderGoogle, ProviderOpenAI:
	default:
		errs = append(errs, fmt.Errorf("unknown embedding provider %q", c.Embedding.Provider))
	}
	switch c.LLM.Provider {
	case ProviderGoogle, ProviderOpenAI:
	default:
		errs = append(errs, fmt.Errorf("unknown llm provider %q", c.LLM.Provider))
	}
	switch c.VectorStore.Backend {
	case VectorBackendChromem, VectorBackendQdrant:
	default:
		errs = append(errs, fmt.Errorf("unknown vector_store.backend %q", c.VectorStore.Backend))
	}
	switch c.History.Backend {
	case HistoryBackendMemory, HistoryBackendRedis:
	default:
		errs = append(errs, fmt.Errorf("unknown history.backend %q", c.History.Backend))
	}
	if c.VectorStore.Collection == "" {
		errs = append(errs, errors.New("vector_store.collection is required"))
	}
	if c.Retrieval.DefaultK < 1 || c.Retrieval.MaxK < c.Retrieval.DefaultK {
		errs = append(errs, errors.New("retrieval.default_k must be >= 1 and <= retrieval.max_k"))
	}
	if c.Prompt.MaxContextChars <= 0 {
		errs = append(errs, errors.New("prompt.max_context_chars must be positive"))
	}

	return errors.Join(errs...)
}

// APIKeyFor returns the key of a provider.
func (c ProvidersConfig) APIKeyFor(provider string) string {
	if provider == ProviderOpenAI {
		return c.OpenAIAPIKey
	}
	return c.GoogleAPIKey
}
