package searcher

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/markhive/markhive/internal/embedder"
	"github.com/markhive/markhive/internal/storage"
	"github.com/markhive/markhive/pkg/types"
)

// Mode defines how search is performed
type Mode string

const (
	ModeHybrid   Mode = "hybrid"   // Semantic + category with RRF
	ModeSemantic Mode = "semantic" // Vector similarity only
	ModeKeyword  Mode = "keyword"  // Category term matching only
)

// ErrQueryEmbedding marks a failure to turn the query into a vector.
// It is an upstream-provider failure, not a caller error.
var ErrQueryEmbedding = errors.New("query embedding failed")

const (
	// DefaultLimit is used when the request doesn't set one.
	DefaultLimit = 20
	// MaxLimit caps the result count regardless of the request.
	MaxLimit = 100
	// DefaultThreshold is the minimum cosine similarity for semantic
	// matches when the request doesn't set one.
	DefaultThreshold = 0.5
)

// Request contains parameters for a search operation
type Request struct {
	UserID    string
	Query     string
	Limit     int
	Threshold float64
	Mode      Mode
	UseCache  bool // Whether to use query cache
	CacheTTL  time.Duration
}

// Response contains search results and metadata
type Response struct {
	Results         []types.SearchResult
	TotalResults    int
	Mode            Mode
	Duration        time.Duration
	CacheHit        bool
	SemanticMatches int
	CategoryMatches int
}

// cacheEntry represents a cached search response with expiration time
type cacheEntry struct {
	response  *Response
	expiresAt time.Time
}

// Searcher coordinates search across the semantic and category signals
type Searcher struct {
	store    storage.Store
	embedder embedder.Embedder
	cache    *lru.Cache[[32]byte, *cacheEntry]
	cacheMu  sync.RWMutex
}

// New creates a new Searcher instance
func New(store storage.Store, emb embedder.Embedder) *Searcher {
	// Cache automatically evicts least recently used entries
	cache, err := lru.New[[32]byte, *cacheEntry](1000)
	if err != nil {
		// This should never happen with valid size parameter
		panic(fmt.Sprintf("failed to create LRU cache: %v", err))
	}

	return &Searcher{
		store:    store,
		embedder: emb,
		cache:    cache,
	}
}

// Search performs a search based on the request parameters. Results
// are always scoped to the requesting owner.
func (s *Searcher) Search(ctx context.Context, req Request) (*Response, error) {
	startTime := time.Now()

	if err := s.validateRequest(&req); err != nil {
		return nil, err
	}

	if req.UseCache {
		if cached := s.checkCache(req); cached != nil {
			cached.CacheHit = true
			cached.Duration = time.Since(startTime)
			return cached, nil
		}
	}

	var response *Response
	var err error

	switch req.Mode {
	case ModeHybrid:
		response, err = s.hybridSearch(ctx, req)
	case ModeSemantic:
		response, err = s.semanticSearch(ctx, req)
	case ModeKeyword:
		response, err = s.keywordSearch(ctx, req)
	default:
		return nil, fmt.Errorf("unsupported search mode: %s", req.Mode)
	}

	if err != nil {
		return nil, err
	}

	response.Duration = time.Since(startTime)
	response.Mode = req.Mode

	if req.UseCache && len(response.Results) > 0 {
		s.storeInCache(req, response)
	}

	return response, nil
}

// embedQuery turns the query text into a vector. A failure here is a
// hard error: semantic and hybrid modes cannot degrade to keyword-only
// without silently changing result semantics.
func (s *Searcher) embedQuery(ctx context.Context, query string) ([]float32, error) {
	if s.embedder == nil {
		return nil, fmt.Errorf("%w: embedder not initialized", ErrQueryEmbedding)
	}
	emb, err := s.embedder.GenerateEmbedding(ctx, embedder.EmbeddingRequest{Text: query})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQueryEmbedding, err)
	}
	return emb.Vector, nil
}

// hybridSearch fuses semantic and category rankings via the store's
// RRF implementation.
func (s *Searcher) hybridSearch(ctx context.Context, req Request) (*Response, error) {
	vector, err := s.embedQuery(ctx, req.Query)
	if err != nil {
		return nil, err
	}

	hybrid, err := s.store.SearchHybrid(ctx, req.UserID, vector, queryTerms(req.Query), req.Threshold, req.Limit)
	if err != nil {
		return nil, err
	}

	results := make([]types.SearchResult, 0, len(hybrid))
	semantic, category := 0, 0
	for _, hr := range hybrid {
		sr, err := s.loadResult(ctx, req.UserID, hr.BookmarkID)
		if err != nil {
			continue // Skip bookmarks that can't be loaded
		}
		sr.SemanticScore = hr.SemanticScore
		sr.CategoryScore = hr.CategoryScore
		sr.RRFScore = hr.RRFScore
		sr.MatchedCategories = hr.MatchedCategories
		sr.Rank = len(results) + 1
		results = append(results, *sr)

		if hr.SemanticScore > 0 {
			semantic++
		}
		if hr.CategoryScore > 0 {
			category++
		}
	}

	return &Response{
		Results:         results,
		TotalResults:    len(results),
		SemanticMatches: semantic,
		CategoryMatches: category,
	}, nil
}

// semanticSearch performs only vector similarity search
func (s *Searcher) semanticSearch(ctx context.Context, req Request) (*Response, error) {
	vector, err := s.embedQuery(ctx, req.Query)
	if err != nil {
		return nil, err
	}

	matches, err := s.store.SearchSemantic(ctx, req.UserID, vector, req.Threshold, req.Limit)
	if err != nil {
		return nil, err
	}

	results := make([]types.SearchResult, 0, len(matches))
	for _, m := range matches {
		sr, err := s.loadResult(ctx, req.UserID, m.BookmarkID)
		if err != nil {
			continue
		}
		sr.SemanticScore = m.Similarity
		// Single-signal mode: the rank score is the signal's score
		sr.RRFScore = m.Similarity
		sr.Rank = len(results) + 1
		results = append(results, *sr)
	}

	return &Response{
		Results:         results,
		TotalResults:    len(results),
		SemanticMatches: len(matches),
	}, nil
}

// keywordSearch matches query terms against category names. It never
// touches the embedder, so it works with no embedding provider at all.
func (s *Searcher) keywordSearch(ctx context.Context, req Request) (*Response, error) {
	matches, err := s.store.SearchCategories(ctx, req.UserID, queryTerms(req.Query), req.Limit)
	if err != nil {
		return nil, err
	}

	results := make([]types.SearchResult, 0, len(matches))
	for _, m := range matches {
		sr, err := s.loadResult(ctx, req.UserID, m.BookmarkID)
		if err != nil {
			continue
		}
		sr.CategoryScore = m.CategoryScore
		sr.RRFScore = m.CategoryScore
		sr.MatchedCategories = m.MatchedCategories
		sr.Rank = len(results) + 1
		results = append(results, *sr)
	}

	return &Response{
		Results:         results,
		TotalResults:    len(results),
		CategoryMatches: len(matches),
	}, nil
}

// loadResult fetches the bookmark row backing a ranked id.
func (s *Searcher) loadResult(ctx context.Context, userID, bookmarkID string) (*types.SearchResult, error) {
	bm, err := s.store.GetBookmark(ctx, bookmarkID, userID)
	if err != nil {
		return nil, err
	}
	return &types.SearchResult{
		ID:          bm.ID,
		URL:         bm.URL,
		Title:       bm.Title,
		Description: bm.Description,
		Summary:     bm.Summary,
		FaviconURL:  bm.FaviconURL,
		CreatedAt:   bm.CreatedAt,
	}, nil
}

// queryTerms tokenizes the query into lowercase terms
func queryTerms(query string) []string {
	return strings.Fields(strings.ToLower(query))
}

// validateRequest ensures search request is valid
func (s *Searcher) validateRequest(req *Request) error {
	if strings.TrimSpace(req.Query) == "" {
		return types.ErrEmptyQuery
	}

	if req.Limit <= 0 {
		req.Limit = DefaultLimit
	}
	if req.Limit > MaxLimit {
		req.Limit = MaxLimit
	}

	if req.Threshold <= 0 {
		req.Threshold = DefaultThreshold
	}

	if req.Mode == "" {
		req.Mode = ModeHybrid
	}

	if req.CacheTTL == 0 {
		req.CacheTTL = 1 * time.Hour
	}

	return nil
}

// checkCache looks up cached search results
func (s *Searcher) checkCache(req Request) *Response {
	hash := computeQueryHash(req)
	now := time.Now()

	s.cacheMu.RLock()
	entry, found := s.cache.Get(hash)
	if !found {
		s.cacheMu.RUnlock()
		return nil
	}

	if now.After(entry.expiresAt) {
		s.cacheMu.RUnlock()
		s.cacheMu.Lock()
		s.cache.Remove(hash)
		s.cacheMu.Unlock()
		return nil
	}

	// Return a deep copy while still holding the read lock so the
	// entry isn't modified during the copy
	response := copyResponse(entry.response)
	s.cacheMu.RUnlock()

	return response
}

// storeInCache saves search results to cache
func (s *Searcher) storeInCache(req Request, response *Response) {
	hash := computeQueryHash(req)

	entry := &cacheEntry{
		response:  copyResponse(response),
		expiresAt: time.Now().Add(req.CacheTTL),
	}

	s.cacheMu.Lock()
	s.cache.Add(hash, entry)
	s.cacheMu.Unlock()
}

// InvalidateCache drops all cached responses. Called after writes that
// change what a query would return.
func (s *Searcher) InvalidateCache() {
	s.cacheMu.Lock()
	s.cache.Purge()
	s.cacheMu.Unlock()
}

// copyResponse creates a deep copy of a Response
func copyResponse(src *Response) *Response {
	if src == nil {
		return nil
	}

	dst := &Response{
		TotalResults:    src.TotalResults,
		Mode:            src.Mode,
		Duration:        src.Duration,
		CacheHit:        src.CacheHit,
		SemanticMatches: src.SemanticMatches,
		CategoryMatches: src.CategoryMatches,
		Results:         make([]types.SearchResult, len(src.Results)),
	}

	for i, result := range src.Results {
		dst.Results[i] = result
		if result.MatchedCategories != nil {
			matched := make([]string, len(result.MatchedCategories))
			copy(matched, result.MatchedCategories)
			dst.Results[i].MatchedCategories = matched
		}
	}

	return dst
}

// computeQueryHash computes a unique hash for a search request
func computeQueryHash(req Request) [32]byte {
	var data strings.Builder
	data.WriteString(req.Query)
	data.WriteString("|")
	data.WriteString(string(req.Mode))
	data.WriteString("|")
	data.WriteString(req.UserID)
	data.WriteString("|")
	fmt.Fprintf(&data, "%d|%.2f", req.Limit, req.Threshold)

	return sha256.Sum256([]byte(data.String()))
}
