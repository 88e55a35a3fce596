package storage

import (
	"context"
	"errors"
	"time"

	"github.com/markhive/markhive/pkg/types"
)

var (
	// ErrNotFound is returned when a requested entity doesn't exist
	// for the requesting owner. A bookmark owned by someone else is
	// indistinguishable from a missing one.
	ErrNotFound = errors.New("not found")
)

// Category kinds. AI-generated and user-authored categories never
// collide because kind is part of the unique key.
const (
	CategoryKindAI   = "ai"
	CategoryKindUser = "user"
)

// Store defines the interface for persisting and querying bookmarks,
// embeddings, and categories. Every operation that touches bookmarks
// is scoped by owner.
type Store interface {
	// Bookmark operations
	CreateBookmark(ctx context.Context, bm *types.Bookmark) error
	GetBookmark(ctx context.Context, id, userID string) (*types.Bookmark, error)
	ListBookmarks(ctx context.Context, userID string, limit, offset int) ([]*types.Bookmark, error)
	UpdateBookmark(ctx context.Context, id, userID string, upd types.BookmarkUpdate) (*types.Bookmark, error)
	DeleteBookmark(ctx context.Context, id, userID string) error

	// Embedding operations (at most one row per bookmark)
	UpsertEmbedding(ctx context.Context, emb *Embedding) error
	GetEmbedding(ctx context.Context, bookmarkID string) (*Embedding, error)
	DeleteEmbedding(ctx context.Context, bookmarkID string) error

	// Category operations
	FindOrCreateCategory(ctx context.Context, userID, name, kind string) (*Category, error)
	LinkCategory(ctx context.Context, bookmarkID, categoryID string) error
	ClearCategoryLinks(ctx context.Context, bookmarkID string) error
	ListBookmarkCategories(ctx context.Context, bookmarkID string) ([]*Category, error)

	// Relevance engine
	SearchSemantic(ctx context.Context, userID string, vector []float32, threshold float64, limit int) ([]SemanticResult, error)
	SearchCategories(ctx context.Context, userID string, terms []string, limit int) ([]CategoryResult, error)
	SearchHybrid(ctx context.Context, userID string, vector []float32, terms []string, threshold float64, limit int) ([]HybridResult, error)

	// Database operations
	Close() error
}

// Embedding is the stored vector for a bookmark's text fields.
type Embedding struct {
	ID         int64
	BookmarkID string
	Vector     []byte // Serialized float32 array
	Dimension  int
	Provider   string
	Model      string
	CreatedAt  time.Time
}

// NewEmbedding builds an Embedding row from a raw vector.
func NewEmbedding(bookmarkID string, vector []float32, provider, model string) *Embedding {
	return &Embedding{
		BookmarkID: bookmarkID,
		Vector:     serializeVector(vector),
		Dimension:  len(vector),
		Provider:   provider,
		Model:      model,
	}
}

// Vector32 returns the deserialized vector.
func (e *Embedding) Vector32() []float32 {
	return deserializeVector(e.Vector)
}

// Category is a named tag scoped to one owner.
type Category struct {
	ID        string
	UserID    string
	Name      string
	Kind      string
	CreatedAt time.Time
}

// SemanticResult is a nearest-neighbor match from vector search.
type SemanticResult struct {
	BookmarkID string
	Similarity float64
}

// CategoryResult is a match from category-name term search.
type CategoryResult struct {
	BookmarkID        string
	CategoryScore     float64
	MatchedCategories []string
}

// HybridResult carries both signals plus the fused RRF score.
type HybridResult struct {
	BookmarkID        string
	SemanticScore     float64
	CategoryScore     float64
	RRFScore          float64
	MatchedCategories []string
}
