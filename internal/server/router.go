package server

import (
	"embed"
	"io/fs"
	"net/http"

	_ "github.com/akolanti/PDFChat/cmd/api/docs"
	"github.com/akolanti/PDFChat/internal/handlers"
	"github.com/akolanti/PDFChat/internal/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
)

//go:embed web
var webFiles embed.FS

// NewRouter registers the session API behind the middleware chain. The page, swagger, health and
// metrics endpoints are public.
func NewRouter(h *handlers.SessionHandler, mcpHandler http.Handler) *chi.Mux {
	r := chi.NewRouter()
	InitSwagger(r)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", h.HealthHandler)
	r.Get("/", indexHandler())

	r.Post("/sessions", middleware.Wrap(h.CreateSessionHandler))
	r.Route("/sessions/{id}", func(r chi.Router) {
		r.Get("/", middleware.Wrap(h.GetSessionHandler))
		r.Delete("/", middleware.Wrap(h.DeleteSessionHandler))
		r.Put("/mode", middleware.Wrap(h.SetModeHandler))
		r.Post("/documents", middleware.Wrap(h.UploadDocumentsHandler))
		r.Post("/questions", middleware.Wrap(h.AskQuestionHandler))
		r.Get("/history", middleware.Wrap(h.GetHistoryHandler))
	})

	if mcpHandler != nil {
		r.Handle("/mcp", middleware.WrapHandler(mcpHandler))
	}
	return r
}

func InitSwagger(r *chi.Mux) {
	r.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/swagger/index.html", http.StatusMovedPermanently)
	})
	r.Get("/swagger/*", httpSwagger.WrapHandler)
}

func indexHandler() http.HandlerFunc {
	page, err := fs.ReadFile(webFiles, "web/index.html")
	return func(w http.ResponseWriter, r *http.Request) {
		if err != nil {
			http.Error(w, "page not available", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(page)
	}
}
