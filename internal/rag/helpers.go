package rag

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/akolanti/cyberrag/internal/domain/commonModels"
	"github.com/akolanti/cyberrag/internal/domain/jobModel"
	"github.com/akolanti/cyberrag/internal/metrics"
	"github.com/akolanti/cyberrag/pkg/logger_i"
)

// SourceLine formats a chunk the way the UI lists sources.
func SourceLine(c commonModels.DocChunk) string {
	return fmt.Sprintf("Source: %s, Page: %d", c.Source, c.Position)
}

func SourcesText(chunks []commonModels.ScoredChunk) string {
	lines := make([]string, 0, len(chunks))
	for _, c := range chunks {
		lines = append(lines, SourceLine(c.Chunk))
	}
	return strings.Join(lines, "\n")
}

func DebugText(query string, retrieved int) string {
	return fmt.Sprintf("Query: %s\nRetrieved: %d documents", query, retrieved)
}

func logStep(log *logger_i.Logger, status jobModel.InternalStatus) {
	log.Debug("Ask", "Current Status", status)
}

func (s *Service) executeRetrievalStep(ctx context.Context, log *logger_i.Logger, q commonModels.Query) (commonModels.RetrievalResult, error) {
	logStep(log, jobModel.RetrievalCall)

	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("retrieval", time.Since(start)) }()

	return s.retriever.Retrieve(ctx, q.Text, q.K)
}

func (s *Service) executeHistoryStep(ctx context.Context, log *logger_i.Logger, sessionId string) ([]commonModels.ConversationTurn, error) {
	logStep(log, jobModel.RedisCall)

	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("history", time.Since(start)) }()

	history, err := s.messages.GetMessageHistory(ctx, sessionId, s.historyTurns)
	if err != nil {
		return nil, fmt.Errorf("loading history: %w", err)
	}
	return history, nil
}

func (s *Service) executeLLMStep(ctx context.Context, log *logger_i.Logger, rendered string) (string, error) {
	logStep(log, jobModel.LLMCall)

	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("llm_generation", time.Since(start)) }()

	return s.llmProvider.Generate(ctx, rendered)
}

// sessionLocks serialises turns of one session. Entries are dropped once nobody holds or waits on them.
type sessionLocks struct {
	mu    sync.Mutex
	locks map[string]*sessionLock
}

type sessionLock struct {
	mu   sync.Mutex
	refs int
}

func newSessionLocks() *sessionLocks {
	return &sessionLocks{locks: make(map[string]*sessionLock)}
}

func (l *sessionLocks) lock(id string) func() {
	l.mu.Lock()
	entry, ok := l.locks[id]
	if !ok {
		entry = &sessionLock{}
		l.locks[id] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()
	return func() {
		entry.mu.Unlock()
		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.locks, id)
		}
		l.mu.Unlock()
	}
}
