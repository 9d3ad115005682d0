package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/akolanti/cyberrag/internal/config"
	"github.com/akolanti/cyberrag/internal/data/redisStore"
	"github.com/akolanti/cyberrag/internal/domain/commonModels"
	"github.com/akolanti/cyberrag/pkg/logger_i"
)

// A session is a marker key plus a list of JSON turns, both expiring after ttl of inactivity.
type RedisMessageStore struct {
	store    *redisStore.Store
	ttl      time.Duration
	maxTurns int
	logger   *logger_i.Logger
}

func NewRedisMessageStore(store *redisStore.Store, ttl time.Duration, maxTurns int) *RedisMessageStore {
	return &RedisMessageStore{
		store:    store,
		ttl:      ttl,
		maxTurns: maxTurns,
		logger:   logger_i.NewLogger("MessageStore"),
	}
}

func sessionKey(id string) string {
	return "chat:" + id
}

func turnsKey(id string) string {
	return "chat:" + id + ":turns"
}

func (s *RedisMessageStore) ValidateChatId(ctx context.Context, chatId string) bool {
	if chatId == "" {
		return false
	}
	isFound, err := s.store.Exists(ctx, sessionKey(chatId))
	if err != nil {
		s.logger.WithTrace(ctx, config.TRACE_ID_KEY).Error("Failed to check if chatId exists", "chatId", chatId, "err", err)
		return false
	}
	return isFound
}

func (s *RedisMessageStore) InitNewChat(ctx context.Context, id string) error {
	log := s.logger.WithTrace(ctx, config.TRACE_ID_KEY).With("chatId", id)
	log.Debug("Initializing new chat")
	if err := s.store.Del(ctx, turnsKey(id)); err != nil {
		return fmt.Errorf("initializing chat %s: %w", id, err)
	}
	return s.store.Set(ctx, sessionKey(id), time.Now().UTC().Format(time.RFC3339), s.ttl)
}

func (s *RedisMessageStore) AppendTurn(ctx context.Context, id string, turn commonModels.ConversationTurn) error {
	log := s.logger.WithTrace(ctx, config.TRACE_ID_KEY).With("chatId", id)
	if !s.ValidateChatId(ctx, id) {
		return commonModels.ErrSessionNotFound
	}
	data, err := json.Marshal(turn)
	if err != nil {
		return err
	}
	if err := s.store.ListAppend(ctx, turnsKey(id), data, int64(s.maxTurns), s.ttl, sessionKey(id)); err != nil {
		log.Error("error saving chat", "error", err)
		return fmt.Errorf("saving turn: %w", err)
	}
	log.Debug("Saved chat successfully")
	return nil
}

func (s *RedisMessageStore) GetMessageHistory(ctx context.Context, chatId string, limit int) ([]commonModels.ConversationTurn, error) {
	log := s.logger.WithTrace(ctx, config.TRACE_ID_KEY).With("chatId", chatId)
	log.Debug("Getting message history")

	raw, err := s.store.ListTail(ctx, turnsKey(chatId), int64(limit))
	if err != nil {
		log.Error("Error getting history", "error", err)
		return nil, fmt.Errorf("reading history: %w", err)
	}
	turns := make([]commonModels.ConversationTurn, 0, len(raw))
	for _, r := range raw {
		var t commonModels.ConversationTurn
		if err := json.Unmarshal([]byte(r), &t); err != nil {
			return nil, fmt.Errorf("decoding history entry: %w", err)
		}
		turns = append(turns, t)
	}
	return turns, nil
}

func (s *RedisMessageStore) DeleteChat(ctx context.Context, id string) error {
	return s.store.Del(ctx, sessionKey(id), turnsKey(id))
}
