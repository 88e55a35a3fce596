package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markhive/markhive/internal/auth"
	"github.com/markhive/markhive/internal/embedder"
	"github.com/markhive/markhive/internal/enricher"
	"github.com/markhive/markhive/internal/searcher"
	"github.com/markhive/markhive/internal/storage"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	emb, err := embedder.NewLocalProvider(nil)
	require.NoError(t, err)
	return newTestServerWithEmbedder(t, emb)
}

func newTestServerWithEmbedder(t *testing.T, emb embedder.Embedder) *httptest.Server {
	t.Helper()
	store, err := storage.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)

	pipeline := enricher.New(store, nil, emb, nil, log)
	search := searcher.New(store, emb)
	verifier := auth.NewStaticVerifier(map[string]string{
		"alice-token": "alice",
		"bob-token":   "bob",
	})

	srv := New(Config{ListenAddr: ":0", CORSOrigins: []string{"https://app.example.com"}}, store, pipeline, search, verifier, log)
	ts := httptest.NewServer(srv.Handler)
	t.Cleanup(ts.Close)
	return ts
}

func doRequest(t *testing.T, ts *httptest.Server, method, path, token string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, ts.URL+path, &buf)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer func() { _ = resp.Body.Close() }()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func createBookmark(t *testing.T, ts *httptest.Server, token, url string) string {
	t.Helper()
	resp := doRequest(t, ts, http.MethodPost, "/api/v1/bookmarks", token, map[string]any{"url": url, "title": "T"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var body struct {
		Bookmark struct {
			ID string `json:"id"`
		} `json:"bookmark"`
	}
	decodeBody(t, resp, &body)
	require.NotEmpty(t, body.Bookmark.ID)
	return body.Bookmark.ID
}

func TestHealthNoAuth(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	decodeBody(t, resp, &body)
	assert.Equal(t, "ok", body["status"])
}

func TestAuthRequired(t *testing.T) {
	ts := newTestServer(t)

	resp := doRequest(t, ts, http.MethodGet, "/api/v1/bookmarks", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	_ = resp.Body.Close()

	resp = doRequest(t, ts, http.MethodGet, "/api/v1/bookmarks", "wrong-token", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestCreateBookmark(t *testing.T) {
	ts := newTestServer(t)

	resp := doRequest(t, ts, http.MethodPost, "/api/v1/bookmarks", "alice-token", map[string]any{
		"url":   "https://example.com",
		"title": "Example",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var body struct {
		Bookmark struct {
			ID     string `json:"id"`
			UserID string `json:"user_id"`
			URL    string `json:"url"`
		} `json:"bookmark"`
		Enrichment map[string]string `json:"enrichment"`
	}
	decodeBody(t, resp, &body)
	assert.NotEmpty(t, body.Bookmark.ID)
	assert.Equal(t, "alice", body.Bookmark.UserID)
	assert.Equal(t, "https://example.com", body.Bookmark.URL)
	assert.Equal(t, "ok", body.Enrichment["embedding"])
}

func TestCreateBookmark_InvalidURL(t *testing.T) {
	ts := newTestServer(t)

	resp := doRequest(t, ts, http.MethodPost, "/api/v1/bookmarks", "alice-token", map[string]any{"url": "not a url"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestGetBookmark_OwnerScoped(t *testing.T) {
	ts := newTestServer(t)
	id := createBookmark(t, ts, "alice-token", "https://example.com")

	resp := doRequest(t, ts, http.MethodGet, "/api/v1/bookmarks/"+id, "alice-token", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()

	// Another owner sees 404, not 403
	resp = doRequest(t, ts, http.MethodGet, "/api/v1/bookmarks/"+id, "bob-token", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestListBookmarks(t *testing.T) {
	ts := newTestServer(t)
	createBookmark(t, ts, "alice-token", "https://one.example.com")
	createBookmark(t, ts, "alice-token", "https://two.example.com")
	createBookmark(t, ts, "bob-token", "https://three.example.com")

	resp := doRequest(t, ts, http.MethodGet, "/api/v1/bookmarks?limit=10", "alice-token", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Bookmarks []json.RawMessage `json:"bookmarks"`
		Total     int               `json:"total"`
	}
	decodeBody(t, resp, &body)
	assert.Equal(t, 2, body.Total)
	assert.Len(t, body.Bookmarks, 2)
}

func TestUpdateBookmark(t *testing.T) {
	ts := newTestServer(t)
	id := createBookmark(t, ts, "alice-token", "https://example.com")

	resp := doRequest(t, ts, http.MethodPatch, "/api/v1/bookmarks/"+id, "alice-token", map[string]any{
		"is_favorite": true,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Bookmark struct {
			IsFavorite bool `json:"is_favorite"`
		} `json:"bookmark"`
	}
	decodeBody(t, resp, &body)
	assert.True(t, body.Bookmark.IsFavorite)
}

func TestUpdateBookmark_EmptyUpdate(t *testing.T) {
	ts := newTestServer(t)
	id := createBookmark(t, ts, "alice-token", "https://example.com")

	resp := doRequest(t, ts, http.MethodPatch, "/api/v1/bookmarks/"+id, "alice-token", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestDeleteBookmark(t *testing.T) {
	ts := newTestServer(t)
	id := createBookmark(t, ts, "alice-token", "https://example.com")

	resp := doRequest(t, ts, http.MethodDelete, "/api/v1/bookmarks/"+id, "alice-token", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	_ = resp.Body.Close()

	resp = doRequest(t, ts, http.MethodGet, "/api/v1/bookmarks/"+id, "alice-token", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestSearch(t *testing.T) {
	ts := newTestServer(t)
	createBookmark(t, ts, "alice-token", "https://example.com")

	resp := doRequest(t, ts, http.MethodPost, "/api/v1/search", "alice-token", map[string]any{
		"query": "example",
		"mode":  "semantic",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Query   string            `json:"query"`
		Mode    string            `json:"mode"`
		Results []json.RawMessage `json:"results"`
	}
	decodeBody(t, resp, &body)
	assert.Equal(t, "example", body.Query)
	assert.Equal(t, "semantic", body.Mode)
}

// downEmbedder simulates an unreachable embedding provider.
type downEmbedder struct{}

func (downEmbedder) GenerateEmbedding(ctx context.Context, req embedder.EmbeddingRequest) (*embedder.Embedding, error) {
	return nil, embedder.ErrProviderFailed
}
func (downEmbedder) Dimension() int   { return 3 }
func (downEmbedder) Provider() string { return "down" }
func (downEmbedder) Model() string    { return "down" }
func (downEmbedder) Close() error     { return nil }

func TestSearch_EmbedderDown(t *testing.T) {
	ts := newTestServerWithEmbedder(t, downEmbedder{})

	// Semantic and hybrid need a query vector, so the provider outage
	// surfaces as a bad gateway, not an internal error
	for _, mode := range []string{"semantic", "hybrid"} {
		resp := doRequest(t, ts, http.MethodPost, "/api/v1/search", "alice-token", map[string]any{
			"query": "golang",
			"mode":  mode,
		})
		assert.Equal(t, http.StatusBadGateway, resp.StatusCode)

		var body map[string]string
		decodeBody(t, resp, &body)
		assert.Equal(t, "search backend unavailable", body["error"])
	}

	// Keyword mode never embeds and keeps working
	resp := doRequest(t, ts, http.MethodPost, "/api/v1/search", "alice-token", map[string]any{
		"query": "golang",
		"mode":  "keyword",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestSearch_EmptyQuery(t *testing.T) {
	ts := newTestServer(t)

	resp := doRequest(t, ts, http.MethodPost, "/api/v1/search", "alice-token", map[string]any{"query": ""})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestCORSPreflight(t *testing.T) {
	ts := newTestServer(t)

	req, err := http.NewRequest(http.MethodOptions, ts.URL+"/api/v1/bookmarks", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "https://app.example.com", resp.Header.Get("Access-Control-Allow-Origin"))

	// Unlisted origins get no CORS headers
	req2, err := http.NewRequest(http.MethodOptions, ts.URL+"/api/v1/bookmarks", nil)
	require.NoError(t, err)
	req2.Header.Set("Origin", "https://evil.example.com")
	resp2, err := http.DefaultClient.Do(req2)
	require.NoError(t, err)
	defer func() { _ = resp2.Body.Close() }()
	assert.Empty(t, resp2.Header.Get("Access-Control-Allow-Origin"))
}
