package server

import (
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/markhive/markhive/internal/auth"
	"github.com/markhive/markhive/internal/enricher"
	"github.com/markhive/markhive/internal/searcher"
	"github.com/markhive/markhive/internal/storage"
)

// Config holds the HTTP surface configuration.
type Config struct {
	ListenAddr  string
	CORSOrigins []string
}

// New builds the HTTP server with all routes wired.
func New(cfg Config, store storage.Store, pipeline *enricher.Pipeline, search *searcher.Searcher, verifier auth.Verifier, log *logrus.Logger) *http.Server {
	if log == nil {
		log = logrus.New()
	}
	h := NewHandlers(store, pipeline, search, log)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", h.HandleHealth)

	authed := requireAuth(verifier, log)
	mux.Handle("POST /api/v1/bookmarks", authed(http.HandlerFunc(h.HandleCreateBookmark)))
	mux.Handle("GET /api/v1/bookmarks", authed(http.HandlerFunc(h.HandleListBookmarks)))
	mux.Handle("GET /api/v1/bookmarks/{id}", authed(http.HandlerFunc(h.HandleGetBookmark)))
	mux.Handle("PATCH /api/v1/bookmarks/{id}", authed(http.HandlerFunc(h.HandleUpdateBookmark)))
	mux.Handle("DELETE /api/v1/bookmarks/{id}", authed(http.HandlerFunc(h.HandleDeleteBookmark)))
	mux.Handle("POST /api/v1/search", authed(http.HandlerFunc(h.HandleSearch)))

	handler := requestLogging(log)(corsMiddleware(cfg.CORSOrigins)(mux))

	return &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
}
