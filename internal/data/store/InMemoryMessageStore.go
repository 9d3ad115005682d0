package store

import (
	"context"
	"sync"

	"github.com/akolanti/cyberrag/internal/domain/commonModels"
)

// InMemoryMessageStore keeps sessions for the life of the process.
type InMemoryMessageStore struct {
	chatLock *sync.RWMutex
	chatMap  map[string][]commonModels.ConversationTurn
	maxTurns int
}

func InitMessageStore(maxTurns int) *InMemoryMessageStore {
	return &InMemoryMessageStore{
		chatLock: new(sync.RWMutex),
		chatMap:  make(map[string][]commonModels.ConversationTurn),
		maxTurns: maxTurns,
	}
}

func (store *InMemoryMessageStore) ValidateChatId(ctx context.Context, chatId string) bool {
	store.chatLock.RLock()
	defer store.chatLock.RUnlock()
	_, ok := store.chatMap[chatId]
	return ok
}

func (store *InMemoryMessageStore) InitNewChat(ctx context.Context, id string) error {
	store.chatLock.Lock()
	defer store.chatLock.Unlock()
	store.chatMap[id] = make([]commonModels.ConversationTurn, 0)
	return nil
}

func (store *InMemoryMessageStore) AppendTurn(ctx context.Context, id string, turn commonModels.ConversationTurn) error {
	store.chatLock.Lock()
	defer store.chatLock.Unlock()
	turns, ok := store.chatMap[id]
	if !ok {
		return commonModels.ErrSessionNotFound
	}
	turns = append(turns, turn)
	if store.maxTurns > 0 && len(turns) > store.maxTurns {
		turns = append([]commonModels.ConversationTurn(nil), turns[len(turns)-store.maxTurns:]...)
	}
	store.chatMap[id] = turns
	return nil
}

func (store *InMemoryMessageStore) GetMessageHistory(ctx context.Context, chatId string, limit int) ([]commonModels.ConversationTurn, error) {
	store.chatLock.RLock()
	defer store.chatLock.RUnlock()
	turns := store.chatMap[chatId]
	if limit > 0 && len(turns) > limit {
		turns = turns[len(turns)-limit:]
	}
	out := make([]commonModels.ConversationTurn, len(turns))
	copy(out, turns)
	return out, nil
}

func (store *InMemoryMessageStore) DeleteChat(ctx context.Context, id string) error {
	store.chatLock.Lock()
	defer store.chatLock.Unlock()
	delete(store.chatMap, id)
	return nil
}
