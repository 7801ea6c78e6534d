package rag_test

import (
	"context"
	"sync"

	"github.com/akolanti/PDFChat/internal/domain/commonModels"
	"github.com/akolanti/PDFChat/internal/rag/ingest"
)

// MockLoader implements rag.Loader
type MockLoader struct {
	OnLoad func(ctx context.Context, uploads []commonModels.Upload) (ingest.LoadResult, error)
}

func (m *MockLoader) Load(ctx context.Context, uploads []commonModels.Upload) (ingest.LoadResult, error) {
	if m.OnLoad != nil {
		return m.OnLoad(ctx, uploads)
	}
	return ingest.LoadResult{
		Text:      "default document text",
		Documents: []commonModels.Document{{Name: "default.pdf", ContentType: commonModels.PDF}},
	}, nil
}

// MockEmbedder implements embedding.Embedder with deterministic vectors.
type MockEmbedder struct {
	ProviderName     string
	OnEmbedDocuments func(ctx context.Context, texts []string) ([][]float32, error)
	OnEmbedQuery     func(ctx context.Context, text string) ([]float32, error)

	mu    sync.Mutex
	calls int
}

func (m *MockEmbedder) Name() string {
	if m.ProviderName == "" {
		return "mock-embedder"
	}
	return m.ProviderName
}

func (m *MockEmbedder) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *MockEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.OnEmbedDocuments != nil {
		return m.OnEmbedDocuments(ctx, texts)
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = Vectorize(t)
	}
	return out, nil
}

func (m *MockEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if m.OnEmbedQuery != nil {
		return m.OnEmbedQuery(ctx, text)
	}
	return Vectorize(text), nil
}

// Vectorize is a tiny bag-of-letters embedding, enough for similarity to be meaningful in tests.
func Vectorize(text string) []float32 {
	v := make([]float32, 27)
	for _, r := range text {
		switch {
		case r >= 'a' && r <= 'z':
			v[r-'a']++
		case r >= 'A' && r <= 'Z':
			v[r-'A']++
		default:
			v[26] += 0.01
		}
	}
	v[26] += 0.01
	return v
}

// MockLLM implements llm.Provider
type MockLLM struct {
	ProviderName string
	OnGenerate   func(ctx context.Context, question string, matches []string, history []commonModels.Turn) (string, error)

	mu    sync.Mutex
	calls int
}

func (m *MockLLM) Name() string {
	if m.ProviderName == "" {
		return "mock-llm"
	}
	return m.ProviderName
}

func (m *MockLLM) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *MockLLM) Generate(ctx context.Context, question string, matches []string, history []commonModels.Turn) (string, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.OnGenerate != nil {
		return m.OnGenerate(ctx, question, matches, history)
	}
	return "mocked llm response", nil
}
