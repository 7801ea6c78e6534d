package llm

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/akolanti/PDFChat/internal/config"
	"github.com/akolanti/PDFChat/internal/domain/commonModels"
	"github.com/akolanti/PDFChat/internal/rag/providerErrors"
)

type mockProvider struct {
	name       string
	calls      int
	questions  []string
	OnGenerate func(ctx context.Context, attempt int) (string, error)
}

func (m *mockProvider) Name() string { return m.name }

func (m *mockProvider) Generate(ctx context.Context, question string, matches []string, history []commonModels.Turn) (string, error) {
	m.calls++
	m.questions = append(m.questions, question)
	if m.OnGenerate != nil {
		return m.OnGenerate(ctx, m.calls)
	}
	return "answer from " + m.name, nil
}

func newTestFallback(t *testing.T, paid, free Provider) *Fallback {
	t.Helper()
	f, err := NewFallback(paid, free, WithBackoff(0), WithTimeout(time.Second))
	if err != nil {
		t.Fatalf("NewFallback failed: %v", err)
	}
	return f
}

func TestFallback_RestatesQuestion(t *testing.T) {
	free := &mockProvider{name: "free"}
	reply, err := newTestFallback(t, nil, free).Generate(context.Background(), "  What is the warranty? ", nil, nil)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if reply.Provider != "free" || reply.Text != "answer from free" {
		t.Errorf("unexpected reply %+v", reply)
	}
	if free.questions[0] != config.QuestionPrefix+"What is the warranty?" {
		t.Errorf("question was not restated: %q", free.questions[0])
	}
}

func TestFallback_Scenarios(t *testing.T) {
	tests := []struct {
		name          string
		paid          *mockProvider
		free          *mockProvider
		wantProvider  string
		wantFreeCalls int
		wantErrKind   providerErrors.Kind
	}{
		{
			name:          "paid answers",
			paid:          &mockProvider{name: "paid"},
			free:          &mockProvider{name: "free"},
			wantProvider:  "paid",
			wantFreeCalls: 0,
		},
		{
			name: "paid quota falls back once",
			paid: &mockProvider{name: "paid", OnGenerate: func(ctx context.Context, attempt int) (string, error) {
				return "", errors.New("You exceeded your current quota")
			}},
			free:          &mockProvider{name: "free"},
			wantProvider:  "free",
			wantFreeCalls: 1,
		},
		{
			name: "empty output is retried",
			free: &mockProvider{name: "free", OnGenerate: func(ctx context.Context, attempt int) (string, error) {
				if attempt < 3 {
					return "   ", nil
				}
				return "third time lucky", nil
			}},
			wantProvider:  "free",
			wantFreeCalls: 3,
		},
		{
			name: "timeouts exhaust the budget",
			free: &mockProvider{name: "free", OnGenerate: func(ctx context.Context, attempt int) (string, error) {
				return "", context.DeadlineExceeded
			}},
			wantFreeCalls: 3,
			wantErrKind:   providerErrors.KindTimeout,
		},
		{
			name: "non transient error stops early",
			free: &mockProvider{name: "free", OnGenerate: func(ctx context.Context, attempt int) (string, error) {
				return "", errors.New("invalid model id")
			}},
			wantFreeCalls: 1,
			wantErrKind:   providerErrors.KindGeneric,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var paid Provider
			if tt.paid != nil {
				paid = tt.paid
			}
			reply, err := newTestFallback(t, paid, tt.free).Generate(context.Background(), "question", []string{"ctx"}, nil)

			if tt.free.calls != tt.wantFreeCalls {
				t.Errorf("free provider called %d times, want %d", tt.free.calls, tt.wantFreeCalls)
			}
			if tt.paid != nil && tt.paid.calls != 1 {
				t.Errorf("paid provider called %d times, want 1", tt.paid.calls)
			}

			if tt.wantErrKind != "" {
				var genErr *GenerationError
				if !errors.As(err, &genErr) {
					t.Fatalf("expected GenerationError, got %v", err)
				}
				if genErr.Kind != tt.wantErrKind {
					t.Errorf("error kind got %v, want %v", genErr.Kind, tt.wantErrKind)
				}
				return
			}
			if err != nil {
				t.Fatalf("Generate failed: %v", err)
			}
			if reply.Provider != tt.wantProvider {
				t.Errorf("provider got %s, want %s", reply.Provider, tt.wantProvider)
			}
		})
	}
}

func TestGenerationError_Message(t *testing.T) {
	err := &GenerationError{
		Provider: "HuggingFace public google/flan-t5-large",
		Attempts: 3,
		Kind:     providerErrors.KindTimeout,
		Err:      &providerErrors.StatusError{Provider: "huggingface", StatusCode: 504, Body: "upstream timeout"},
	}
	msg := err.Error()
	for _, want := range []string{"3 attempt", "shorter", "providerErrors.StatusError", "upstream timeout"} {
		if !strings.Contains(msg, want) {
			t.Errorf("message %q should contain %q", msg, want)
		}
	}
}

func TestNewFallback_RequiresFree(t *testing.T) {
	if _, err := NewFallback(&mockProvider{name: "paid"}, nil); err == nil {
		t.Error("expected an error without a free provider")
	}
}

func TestBuildPrompt(t *testing.T) {
	prompt := BuildPrompt("Question: why?", []string{"chunk one", "chunk two"}, []commonModels.Turn{{Question: "hi", Answer: "hello"}})
	for _, want := range []string{config.ModelContext, "[1] chunk one", "[2] chunk two", "User: hi", "Assistant: hello", "Question: why?"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt should contain %q", want)
		}
	}
}
