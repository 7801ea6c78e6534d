package hfEmbedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/akolanti/PDFChat/internal/config"
	"github.com/akolanti/PDFChat/internal/rag/hfInference"
)

func TestPublic_EmbedDocumentsAndQuery(t *testing.T) {
	var received [][]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Inputs []string `json:"inputs"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		received = append(received, body.Inputs)
		out := make([][]float32, len(body.Inputs))
		for i := range out {
			out[i] = []float32{0.5, 0.5}
		}
		_ = json.NewEncoder(w).Encode(out)
	}))
	defer server.Close()

	settings := config.Defaults().HuggingFace
	client := hfInference.New(server.URL, hfInference.WithHTTPClient(server.Client()), hfInference.WithLimiter(nil))
	embedder := NewPublic(settings, client)

	if !strings.Contains(embedder.Name(), settings.EmbeddingModel) {
		t.Errorf("name %q should mention the model", embedder.Name())
	}

	vectors, err := embedder.EmbedDocuments(context.Background(), []string{"line one\nline two", "three"})
	if err != nil {
		t.Fatalf("EmbedDocuments failed: %v", err)
	}
	if len(vectors) != 2 {
		t.Fatalf("got %d vectors, want 2", len(vectors))
	}
	if received[0][0] != "line one line two" {
		t.Errorf("newlines should be stripped, got %q", received[0][0])
	}

	query, err := embedder.EmbedQuery(context.Background(), "question")
	if err != nil {
		t.Fatalf("EmbedQuery failed: %v", err)
	}
	if len(query) != 2 {
		t.Errorf("query vector has %d dims, want 2", len(query))
	}
}

func TestNewHub_RequiresToken(t *testing.T) {
	settings := config.Defaults().HuggingFace
	settings.Token = "your_huggingface_token_here"
	if _, err := NewHub(settings); err == nil {
		t.Error("expected an error for a placeholder token")
	}
}
