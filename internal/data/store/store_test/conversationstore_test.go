package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/akolanti/PDFChat/internal/config"
	"github.com/akolanti/PDFChat/internal/data/redisStore"
	"github.com/akolanti/PDFChat/internal/data/store"
	"github.com/akolanti/PDFChat/internal/domain/commonModels"
	"github.com/akolanti/PDFChat/internal/domain/sessionModel"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newRedisStore(t *testing.T) (*miniredis.Miniredis, *store.RedisConversationStore) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, store.NewRedisConversationStore(redisStore.NewStore(client))
}

func exerciseStore(t *testing.T, s sessionModel.ConversationStore) {
	t.Helper()
	ctx := context.WithValue(context.Background(), config.TRACE_ID_KEY, "test-trace")
	sessionId := "session_abc"

	history, err := s.GetHistory(ctx, sessionId)
	if err != nil {
		t.Fatalf("GetHistory on empty session failed: %v", err)
	}
	if len(history) != 0 {
		t.Fatalf("Expected empty history, got %d turns", len(history))
	}

	first := commonModels.Turn{Question: "What is the warranty?", Answer: "Two years.", CreatedAt: time.Now().UTC()}
	second := commonModels.Turn{Question: "Who signs it?", Answer: "The vendor.", CreatedAt: time.Now().UTC()}

	if err := s.AppendTurn(ctx, sessionId, first); err != nil {
		t.Fatalf("AppendTurn failed: %v", err)
	}
	history, _ = s.GetHistory(ctx, sessionId)
	if len(history) != 1 {
		t.Fatalf("Expected 1 turn after first append, got %d", len(history))
	}

	if err := s.AppendTurn(ctx, sessionId, second); err != nil {
		t.Fatalf("AppendTurn failed: %v", err)
	}
	history, _ = s.GetHistory(ctx, sessionId)
	if len(history) != 2 {
		t.Fatalf("Expected 2 turns, got %d", len(history))
	}
	if history[0].Question != first.Question || history[1].Answer != second.Answer {
		t.Errorf("History out of order: %+v", history)
	}

	if err := s.ResetHistory(ctx, sessionId); err != nil {
		t.Fatalf("ResetHistory failed: %v", err)
	}
	history, _ = s.GetHistory(ctx, sessionId)
	if len(history) != 0 {
		t.Errorf("Expected history to be empty after reset, got %d", len(history))
	}
}

func TestRedisConversationStore_Lifecycle(t *testing.T) {
	_, s := newRedisStore(t)
	exerciseStore(t, s)
}

func TestInMemoryConversationStore_Lifecycle(t *testing.T) {
	exerciseStore(t, store.InitInMemoryConversationStore())
}

func TestRedisConversationStore_TTL(t *testing.T) {
	mr, s := newRedisStore(t)
	ctx := context.Background()

	if err := s.AppendTurn(ctx, "ttl-session", commonModels.Turn{Question: "q", Answer: "a"}); err != nil {
		t.Fatalf("AppendTurn failed: %v", err)
	}
	if ttl := mr.TTL("conversation:ttl-session"); ttl != config.RedisConversationTTL {
		t.Errorf("TTL got %v, want %v", ttl, config.RedisConversationTTL)
	}

	mr.FastForward(config.RedisConversationTTL + time.Second)
	history, err := s.GetHistory(ctx, "ttl-session")
	if err != nil {
		t.Fatalf("GetHistory failed: %v", err)
	}
	if len(history) != 0 {
		t.Errorf("Expected expired history, got %d turns", len(history))
	}
}

func TestRedisConversationStore_Delete(t *testing.T) {
	mr, s := newRedisStore(t)
	ctx := context.Background()
	_ = s.AppendTurn(ctx, "gone", commonModels.Turn{Question: "q", Answer: "a"})

	if err := s.DeleteSession(ctx, "gone"); err != nil {
		t.Fatalf("DeleteSession failed: %v", err)
	}
	if mr.Exists("conversation:gone") {
		t.Error("History still exists in Redis after DeleteSession")
	}
}

func TestGetConversationStore_Fallback(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	disabled := store.GetConversationStore(ctx, config.RedisSettings{Enabled: false})
	if _, ok := disabled.(*store.InMemoryConversationStore); !ok {
		t.Errorf("Expected in-memory store when redis is disabled, got %T", disabled)
	}

	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	offline := store.GetConversationStore(ctx, config.RedisSettings{Enabled: true, Addr: addr})
	if _, ok := offline.(*store.InMemoryConversationStore); !ok {
		t.Errorf("Expected in-memory store when redis is offline, got %T", offline)
	}
}

func TestRedisConversationStore_Race(t *testing.T) {
	_, s := newRedisStore(t)
	ctx := context.Background()

	const workers = 20
	done := make(chan struct{}, workers)
	for i := 0; i < workers; i++ {
		go func() {
			_ = s.AppendTurn(ctx, "race-session", commonModels.Turn{Question: "q", Answer: "a"})
			_, _ = s.GetHistory(ctx, "race-session")
			done <- struct{}{}
		}()
	}
	for i := 0; i < workers; i++ {
		<-done
	}

	history, _ := s.GetHistory(ctx, "race-session")
	if len(history) != workers {
		t.Errorf("Expected %d turns, got %d", workers, len(history))
	}
}
