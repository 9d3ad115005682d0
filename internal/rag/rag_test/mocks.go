package rag_test

import (
	"context"
	"sync"

	"github.com/akolanti/cyberrag/internal/domain/commonModels"
)

// MockRetriever implements rag.Retriever
type MockRetriever struct {
	OnRetrieve func(ctx context.Context, query string, k int) (commonModels.RetrievalResult, error)
}

func (m *MockRetriever) Retrieve(ctx context.Context, query string, k int) (commonModels.RetrievalResult, error) {
	if m.OnRetrieve != nil {
		return m.OnRetrieve(ctx, query, k)
	}
	return commonModels.RetrievalResult{
		Query: query,
		K:     k,
		Chunks: []commonModels.ScoredChunk{{
			Chunk: commonModels.DocChunk{Source: "owasp-top-10.pdf", Position: 5, Chunk: "default context"},
			Score: 0.9,
		}},
	}, nil
}

func (m *MockRetriever) ClampK(k int) int {
	if k <= 0 {
		return 3
	}
	return min(k, 15)
}

// MockLLM implements llm.Provider
type MockLLM struct {
	OnGenerate func(ctx context.Context, prompt string) (string, error)

	mu      sync.Mutex
	Prompts []string
}

func (m *MockLLM) Generate(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	m.Prompts = append(m.Prompts, prompt)
	m.mu.Unlock()
	if m.OnGenerate != nil {
		return m.OnGenerate(ctx, prompt)
	}
	return "mocked llm response", nil
}

func (m *MockLLM) ModelName() string {
	return "mock-llm"
}

func (m *MockLLM) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Prompts)
}
