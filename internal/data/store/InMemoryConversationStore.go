package store

import (
	"context"
	"sync"

	"github.com/akolanti/PDFChat/internal/config"
	"github.com/akolanti/PDFChat/internal/domain/commonModels"
	"github.com/akolanti/PDFChat/pkg/logger_i"
)

// InMemoryConversationStore keeps history in process memory. It is used when redis is offline.
type InMemoryConversationStore struct {
	chatLock *sync.RWMutex
	chatMap  map[string][]commonModels.Turn
	logger   *logger_i.Logger
}

func InitInMemoryConversationStore() *InMemoryConversationStore {
	return &InMemoryConversationStore{
		chatLock: new(sync.RWMutex),
		chatMap:  make(map[string][]commonModels.Turn),
		logger:   logger_i.NewLogger("InMem ConversationStore"),
	}
}

func (store *InMemoryConversationStore) GetHistory(ctx context.Context, sessionId string) ([]commonModels.Turn, error) {
	store.chatLock.RLock()
	defer store.chatLock.RUnlock()
	turns := store.chatMap[sessionId]
	out := make([]commonModels.Turn, len(turns))
	copy(out, turns)
	return out, nil
}

func (store *InMemoryConversationStore) AppendTurn(ctx context.Context, sessionId string, turn commonModels.Turn) error {
	store.chatLock.Lock()
	defer store.chatLock.Unlock()
	store.chatMap[sessionId] = append(store.chatMap[sessionId], turn)
	store.logger.WithTrace(ctx, config.TRACE_ID_KEY).Debug("Saved turn to conversation store", "sessionId", sessionId)
	return nil
}

func (store *InMemoryConversationStore) ResetHistory(ctx context.Context, sessionId string) error {
	store.chatLock.Lock()
	defer store.chatLock.Unlock()
	delete(store.chatMap, sessionId)
	return nil
}

func (store *InMemoryConversationStore) DeleteSession(ctx context.Context, sessionId string) error {
	return store.ResetHistory(ctx, sessionId)
}
