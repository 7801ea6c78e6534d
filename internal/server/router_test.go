package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/akolanti/PDFChat/internal/data/store"
	"github.com/akolanti/PDFChat/internal/handlers"
	"github.com/akolanti/PDFChat/internal/mcpTools"
	"github.com/akolanti/PDFChat/internal/rag"
	"github.com/akolanti/PDFChat/internal/rag/ingest"
	"github.com/akolanti/PDFChat/internal/rag/rag_test"
	"github.com/akolanti/PDFChat/internal/rag/vectorDB/chromemDB"
	"github.com/akolanti/PDFChat/internal/session"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	service := rag.NewService(&rag_test.MockLoader{}, ingest.NewSplitter(), chromemDB.NewBuilder(), rag.Providers{
		PublicEmbedder: &rag_test.MockEmbedder{},
		PublicLLM:      &rag_test.MockLLM{},
	})
	manager := session.NewManager(service, store.InitInMemoryConversationStore())
	h := handlers.NewSessionHandler(manager, t.TempDir())
	return NewRouter(h, mcpTools.NewHandler(mcpTools.NewServer(manager)))
}

func TestRoutes(t *testing.T) {
	router := newTestRouter(t)

	tests := []struct {
		name       string
		method     string
		path       string
		wantCode   int
		wantInBody string
	}{
		{"index page", http.MethodGet, "/", http.StatusOK, "<title>PDF Chat</title>"},
		{"health", http.MethodGet, "/healthz", http.StatusOK, `"status":"ok"`},
		{"metrics", http.MethodGet, "/metrics", http.StatusOK, "go_goroutines"},
		{"swagger redirect", http.MethodGet, "/swagger", http.StatusMovedPermanently, ""},
		{"create session", http.MethodPost, "/sessions", http.StatusCreated, `"state":"uninitialized"`},
		{"unknown session", http.MethodGet, "/sessions/0b6f6a52-2f5e-4f7e-9a55-2d6c3f1c2a10", http.StatusNotFound, "Session not found."},
		{"wrong method", http.MethodPatch, "/sessions", http.StatusMethodNotAllowed, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
			if rec.Code != tt.wantCode {
				t.Fatalf("expected %d, got %d", tt.wantCode, rec.Code)
			}
			if tt.wantInBody != "" && !strings.Contains(rec.Body.String(), tt.wantInBody) {
				t.Errorf("body should contain %q, got %q", tt.wantInBody, rec.Body.String())
			}
		})
	}
}
