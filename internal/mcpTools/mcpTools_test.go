package mcpTools

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/akolanti/PDFChat/internal/domain/commonModels"
	"github.com/akolanti/PDFChat/internal/rag"
	"github.com/akolanti/PDFChat/internal/session"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const sessionId = "0b6f6a52-2f5e-4f7e-9a55-2d6c3f1c2a10"

type mockSessions struct {
	OnAsk     func(ctx context.Context, id string, question string) (rag.Answer, error)
	OnHistory func(ctx context.Context, id string) ([]commonModels.Turn, error)
}

func (m *mockSessions) Ask(ctx context.Context, id string, question string) (rag.Answer, error) {
	return m.OnAsk(ctx, id, question)
}

func (m *mockSessions) History(ctx context.Context, id string) ([]commonModels.Turn, error) {
	return m.OnHistory(ctx, id)
}

func connect(t *testing.T, sessions Sessions) *mcp.ClientSession {
	t.Helper()
	ctx := context.Background()
	serverTransport, clientTransport := mcp.NewInMemoryTransports()

	if _, err := NewServer(sessions).Connect(ctx, serverTransport, nil); err != nil {
		t.Fatalf("server connect: %v", err)
	}
	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "1.0.0"}, nil)
	cs, err := client.Connect(ctx, clientTransport, nil)
	if err != nil {
		t.Fatalf("client connect: %v", err)
	}
	t.Cleanup(func() { cs.Close() })
	return cs
}

func textOf(res *mcp.CallToolResult) string {
	var parts []string
	for _, c := range res.Content {
		if tc, ok := c.(*mcp.TextContent); ok {
			parts = append(parts, tc.Text)
		}
	}
	return strings.Join(parts, "\n")
}

func TestAskQuestion(t *testing.T) {
	var gotId, gotQuestion string
	cs := connect(t, &mockSessions{OnAsk: func(ctx context.Context, id string, question string) (rag.Answer, error) {
		gotId, gotQuestion = id, question
		return rag.Answer{Text: "Two years.", Provider: "public-llm"}, nil
	}})

	res, err := cs.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "ask_question",
		Arguments: map[string]any{"session_id": sessionId, "question": "How long is the warranty?"},
	})
	if err != nil {
		t.Fatalf("CallTool failed: %v", err)
	}
	if res.IsError {
		t.Fatalf("unexpected tool error: %s", textOf(res))
	}
	if textOf(res) != "Two years." {
		t.Errorf("unexpected answer %q", textOf(res))
	}
	if gotId != sessionId || gotQuestion != "How long is the warranty?" {
		t.Errorf("session got %q / %q", gotId, gotQuestion)
	}
}

func TestAskQuestion_Errors(t *testing.T) {
	tests := []struct {
		name     string
		args     map[string]any
		askErr   error
		wantText string
	}{
		{"not ready", map[string]any{"session_id": sessionId, "question": "q"}, session.ErrNotReady, "Please upload and process PDF documents"},
		{"unknown session", map[string]any{"session_id": sessionId, "question": "q"}, session.ErrSessionNotFound, "Session not found"},
		{"bad id", map[string]any{"session_id": "abc", "question": "q"}, nil, "session_id must be"},
		{"empty question", map[string]any{"session_id": sessionId, "question": " "}, nil, "question is empty"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			cs := connect(t, &mockSessions{OnAsk: func(ctx context.Context, id string, q string) (rag.Answer, error) {
				calls++
				return rag.Answer{}, tt.askErr
			}})
			res, err := cs.CallTool(context.Background(), &mcp.CallToolParams{Name: "ask_question", Arguments: tt.args})
			if err != nil {
				t.Fatalf("CallTool failed: %v", err)
			}
			if !res.IsError || !strings.Contains(textOf(res), tt.wantText) {
				t.Errorf("expected tool error containing %q, got %v %q", tt.wantText, res.IsError, textOf(res))
			}
			if tt.askErr == nil && calls != 0 {
				t.Error("invalid input must not reach the session")
			}
		})
	}
}

func TestGetHistory(t *testing.T) {
	now := time.Now()
	cs := connect(t, &mockSessions{OnHistory: func(ctx context.Context, id string) ([]commonModels.Turn, error) {
		if id != sessionId {
			return nil, session.ErrSessionNotFound
		}
		return []commonModels.Turn{
			{Question: "first?", Answer: "one", CreatedAt: now},
			{Question: "second?", Answer: "two", CreatedAt: now},
		}, nil
	}})

	res, err := cs.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "get_history",
		Arguments: map[string]any{"session_id": sessionId},
	})
	if err != nil {
		t.Fatalf("CallTool failed: %v", err)
	}
	want := "user: first?\nassistant: one\nuser: second?\nassistant: two\n"
	if res.IsError || textOf(res) != want {
		t.Errorf("got %q, want %q", textOf(res), want)
	}
}

func TestToolError(t *testing.T) {
	err := toolError(errors.New("boom"))
	if err.Error() != "Internal server error." {
		t.Errorf("unexpected message %q", err.Error())
	}
}
