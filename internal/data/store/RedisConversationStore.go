package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/akolanti/PDFChat/internal/config"
	"github.com/akolanti/PDFChat/internal/data/redisStore"
	"github.com/akolanti/PDFChat/internal/domain/commonModels"
	"github.com/akolanti/PDFChat/internal/domain/sessionModel"
	"github.com/akolanti/PDFChat/pkg/logger_i"
)

const conversationKeyPrefix = "conversation:"

// RedisConversationStore keeps each session's turns in a redis list that expires after a day of inactivity.
type RedisConversationStore struct {
	store  *redisStore.Store
	logger *logger_i.Logger
}

// GetConversationStore prefers redis and falls back to process memory when redis is disabled or offline.
func GetConversationStore(ctx context.Context, settings config.RedisSettings) sessionModel.ConversationStore {
	logger := logger_i.NewLogger("ConversationStore")
	if !settings.Enabled {
		logger.Info("Redis disabled, keeping conversation history in memory")
		return InitInMemoryConversationStore()
	}
	s := redisStore.GetRedisStore(ctx, settings, config.RedisConversationStore)
	if s == nil {
		logger.Warn("Redis unavailable, keeping conversation history in memory")
		return InitInMemoryConversationStore()
	}
	return NewRedisConversationStore(s)
}

func NewRedisConversationStore(s *redisStore.Store) *RedisConversationStore {
	return &RedisConversationStore{
		store:  s,
		logger: logger_i.NewLogger("ConversationStore"),
	}
}

func conversationKey(sessionId string) string {
	return conversationKeyPrefix + sessionId
}

func (s *RedisConversationStore) GetHistory(ctx context.Context, sessionId string) ([]commonModels.Turn, error) {
	log := s.logger.WithTrace(ctx, config.TRACE_ID_KEY).With("sessionId", sessionId)
	log.Debug("Getting conversation history")

	raw, err := s.store.ListGetAll(ctx, conversationKey(sessionId))
	if err != nil && !s.store.IsNil(err) {
		log.Error("Error getting history", "error", err)
		return nil, fmt.Errorf("reading history: %w", err)
	}

	turns := make([]commonModels.Turn, 0, len(raw))
	for _, item := range raw {
		var turn commonModels.Turn
		if err := json.Unmarshal([]byte(item), &turn); err != nil {
			log.Error("Skipping unreadable turn", "error", err)
			continue
		}
		turns = append(turns, turn)
	}
	return turns, nil
}

func (s *RedisConversationStore) AppendTurn(ctx context.Context, sessionId string, turn commonModels.Turn) error {
	log := s.logger.WithTrace(ctx, config.TRACE_ID_KEY).With("sessionId", sessionId)
	data, err := json.Marshal(turn)
	if err != nil {
		return fmt.Errorf("encoding turn: %w", err)
	}
	if err := s.store.ListPush(ctx, conversationKey(sessionId), data, config.RedisConversationTTL); err != nil {
		log.Error("Error saving turn", "error", err)
		return fmt.Errorf("saving turn: %w", err)
	}
	log.Debug("Saved turn successfully")
	return nil
}

func (s *RedisConversationStore) ResetHistory(ctx context.Context, sessionId string) error {
	if err := s.store.Del(ctx, conversationKey(sessionId)); err != nil {
		s.logger.WithTrace(ctx, config.TRACE_ID_KEY).Error("Error resetting history", "sessionId", sessionId, "error", err)
		return fmt.Errorf("resetting history: %w", err)
	}
	return nil
}

func (s *RedisConversationStore) DeleteSession(ctx context.Context, sessionId string) error {
	return s.ResetHistory(ctx, sessionId)
}
