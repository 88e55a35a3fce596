package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/markhive/markhive/internal/enricher"
	"github.com/markhive/markhive/internal/searcher"
	"github.com/markhive/markhive/internal/storage"
	"github.com/markhive/markhive/pkg/types"
)

// Handlers holds the collaborators behind the HTTP surface.
type Handlers struct {
	store    storage.Store
	pipeline *enricher.Pipeline
	searcher *searcher.Searcher
	log      *logrus.Logger
}

// NewHandlers creates the handler set.
func NewHandlers(store storage.Store, pipeline *enricher.Pipeline, search *searcher.Searcher, log *logrus.Logger) *Handlers {
	return &Handlers{
		store:    store,
		pipeline: pipeline,
		searcher: search,
		log:      log,
	}
}

// bookmarkResponse pairs a bookmark with its enrichment report.
type bookmarkResponse struct {
	Bookmark   *types.Bookmark  `json:"bookmark"`
	Enrichment *enricher.Report `json:"enrichment,omitempty"`
}

func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handlers) HandleCreateBookmark(w http.ResponseWriter, r *http.Request) {
	var draft types.BookmarkDraft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	bm, report, err := h.pipeline.Create(r.Context(), userID(r), draft)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	// Searches may now return the new bookmark
	h.searcher.InvalidateCache()

	writeJSON(w, http.StatusCreated, bookmarkResponse{Bookmark: bm, Enrichment: report})
}

func (h *Handlers) HandleListBookmarks(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 50)
	offset := queryInt(r, "offset", 0)

	bookmarks, err := h.store.ListBookmarks(r.Context(), userID(r), limit, offset)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"bookmarks": bookmarks,
		"total":     len(bookmarks),
		"limit":     limit,
		"offset":    offset,
	})
}

func (h *Handlers) HandleGetBookmark(w http.ResponseWriter, r *http.Request) {
	bm, err := h.store.GetBookmark(r.Context(), r.PathValue("id"), userID(r))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bookmarkResponse{Bookmark: bm})
}

func (h *Handlers) HandleUpdateBookmark(w http.ResponseWriter, r *http.Request) {
	var upd types.BookmarkUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	bm, report, err := h.pipeline.Update(r.Context(), userID(r), r.PathValue("id"), upd)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	h.searcher.InvalidateCache()

	writeJSON(w, http.StatusOK, bookmarkResponse{Bookmark: bm, Enrichment: report})
}

func (h *Handlers) HandleDeleteBookmark(w http.ResponseWriter, r *http.Request) {
	if err := h.pipeline.Delete(r.Context(), userID(r), r.PathValue("id")); err != nil {
		h.writeDomainError(w, err)
		return
	}

	h.searcher.InvalidateCache()

	w.WriteHeader(http.StatusNoContent)
}

// searchRequest is the POST /api/v1/search body.
type searchRequest struct {
	Query     string  `json:"query"`
	Mode      string  `json:"mode,omitempty"`
	Limit     int     `json:"limit,omitempty"`
	Threshold float64 `json:"threshold,omitempty"`
}

func (h *Handlers) HandleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := h.searcher.Search(r.Context(), searcher.Request{
		UserID:    userID(r),
		Query:     req.Query,
		Mode:      searcher.Mode(req.Mode),
		Limit:     req.Limit,
		Threshold: req.Threshold,
		UseCache:  true,
	})
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"query":     req.Query,
		"mode":      resp.Mode,
		"results":   resp.Results,
		"total":     resp.TotalResults,
		"cache_hit": resp.CacheHit,
	})
}

// writeDomainError maps domain errors to HTTP status codes.
func (h *Handlers) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, types.ErrInvalidURL),
		errors.Is(err, types.ErrEmptyQuery),
		errors.Is(err, types.ErrEmptyUpdate):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, searcher.ErrQueryEmbedding):
		h.log.WithError(err).Warn("embedding provider unavailable")
		writeError(w, http.StatusBadGateway, "search backend unavailable")
	default:
		h.log.WithError(err).Error("request failed")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func queryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return def
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
