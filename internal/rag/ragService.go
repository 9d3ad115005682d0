package rag

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/akolanti/cyberrag/internal/adapter/utils"
	"github.com/akolanti/cyberrag/internal/config"
	"github.com/akolanti/cyberrag/internal/domain/commonModels"
	"github.com/akolanti/cyberrag/internal/domain/jobModel"
	"github.com/akolanti/cyberrag/internal/metrics"
	"github.com/akolanti/cyberrag/internal/rag/llm"
	"github.com/akolanti/cyberrag/internal/rag/prompt"
	"github.com/akolanti/cyberrag/pkg/logger_i"
)

// NoResultsAnswer is returned without calling the LLM when retrieval finds nothing.
const NoResultsAnswer = "No relevant documents found. Try rephrasing your question."

// Retriever is the part of retrieval.Retriever the chat loop needs.
type Retriever interface {
	Retrieve(ctx context.Context, query string, k int) (commonModels.RetrievalResult, error)
	ClampK(k int) int
}

// Service runs one chat turn at a time per session: retrieve, render, generate, remember.
type Service struct {
	retriever    Retriever
	prompt       *prompt.Builder
	llmProvider  llm.Provider
	messages     jobModel.MessageStore
	historyTurns int
	locks        *sessionLocks
	logger       *logger_i.Logger
}

func NewService(cfg *config.Config, retriever Retriever, provider llm.Provider, messages jobModel.MessageStore) (*Service, error) {
	builder, err := prompt.New(cfg.Prompt)
	if err != nil {
		return nil, err
	}
	return &Service{
		retriever:    retriever,
		prompt:       builder,
		llmProvider:  provider,
		messages:     messages,
		historyTurns: cfg.Prompt.MaxHistoryTurns,
		locks:        newSessionLocks(),
		logger:       logger_i.NewLogger("rag_service"),
	}, nil
}

// NewSession starts an empty conversation and returns its id.
func (s *Service) NewSession(ctx context.Context) (string, error) {
	id := utils.GetNewUUID()
	if err := s.messages.InitNewChat(ctx, id); err != nil {
		return "", fmt.Errorf("creating session: %w", err)
	}
	return id, nil
}

// Ask answers one question. An empty SessionId starts a new session.
func (s *Service) Ask(ctx context.Context, q commonModels.Query) (commonModels.Answer, error) {
	log := s.logger.WithTrace(ctx, config.TRACE_ID_KEY)
	q.Text = strings.TrimSpace(q.Text)
	if q.Text == "" {
		return commonModels.Answer{}, commonModels.ErrEmptyQuestion
	}

	if q.SessionId == "" {
		id, err := s.NewSession(ctx)
		if err != nil {
			return commonModels.Answer{}, err
		}
		q.SessionId = id
	} else if !s.messages.ValidateChatId(ctx, q.SessionId) {
		return commonModels.Answer{}, commonModels.ErrSessionNotFound
	}
	log = log.With("sessionId", q.SessionId)

	unlock := s.locks.lock(q.SessionId)
	defer unlock()

	answer, outcome, err := s.turn(ctx, log, q)
	metrics.CaptureChatTurn(outcome)
	if err != nil {
		log.Error("chat turn failed", "step", outcome, "error", err)
		return commonModels.Answer{SessionId: q.SessionId}, err
	}
	return answer, nil
}

func (s *Service) turn(ctx context.Context, log *logger_i.Logger, q commonModels.Query) (commonModels.Answer, string, error) {
	result, err := s.executeRetrievalStep(ctx, log, q)
	if err != nil {
		return commonModels.Answer{}, metrics.OutcomeError, err
	}

	answer := commonModels.Answer{
		SessionId: q.SessionId,
		Sources:   result.Chunks,
		Debug:     DebugText(q.Text, len(result.Chunks)),
	}
	if len(result.Chunks) == 0 {
		log.Info("no documents retrieved")
		answer.Text = NoResultsAnswer
		return answer, metrics.OutcomeNoResults, nil
	}

	history, err := s.executeHistoryStep(ctx, log, q.SessionId)
	if err != nil {
		return commonModels.Answer{}, metrics.OutcomeError, err
	}

	rendered, err := s.prompt.Render(result, q, history)
	if err != nil {
		return commonModels.Answer{}, metrics.OutcomeError, err
	}

	text, err := s.executeLLMStep(ctx, log, rendered)
	if err != nil {
		return commonModels.Answer{}, metrics.OutcomeError, err
	}
	answer.Text = text

	turn := commonModels.ConversationTurn{User: q.Text, Assistant: text, CreatedAt: time.Now().UTC()}
	if err := s.messages.AppendTurn(ctx, q.SessionId, turn); err != nil {
		return commonModels.Answer{}, metrics.OutcomeError, fmt.Errorf("saving turn: %w", err)
	}
	return answer, metrics.OutcomeAnswered, nil
}

// Retrieve runs retrieval only, for the retrieve endpoint and the search tool.
func (s *Service) Retrieve(ctx context.Context, query string, k int) (commonModels.RetrievalResult, error) {
	log := s.logger.WithTrace(ctx, config.TRACE_ID_KEY)
	return s.executeRetrievalStep(ctx, log, commonModels.Query{Text: query, K: k})
}

func (s *Service) History(ctx context.Context, sessionId string) ([]commonModels.ConversationTurn, error) {
	if !s.messages.ValidateChatId(ctx, sessionId) {
		return nil, commonModels.ErrSessionNotFound
	}
	return s.messages.GetMessageHistory(ctx, sessionId, 0)
}

// ResetSession clears the history of a session; the id stays usable.
func (s *Service) ResetSession(ctx context.Context, sessionId string) error {
	if !s.messages.ValidateChatId(ctx, sessionId) {
		return commonModels.ErrSessionNotFound
	}
	unlock := s.locks.lock(sessionId)
	defer unlock()
	if err := s.messages.DeleteChat(ctx, sessionId); err != nil {
		return fmt.Errorf("clearing session: %w", err)
	}
	if err := s.messages.InitNewChat(ctx, sessionId); err != nil {
		return fmt.Errorf("clearing session: %w", err)
	}
	return nil
}

// ClampK maps a requested k into the accepted range.
func (s *Service) ClampK(k int) int {
	return s.retriever.ClampK(k)
}

// IsUserError reports errors caused by the request rather than a dependency.
func IsUserError(err error) bool {
	return errors.Is(err, commonModels.ErrEmptyQuestion) || errors.Is(err, commonModels.ErrSessionNotFound)
}
