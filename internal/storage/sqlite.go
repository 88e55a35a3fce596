package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/markhive/markhive/pkg/types"
)

// SQLiteStore implements the Store interface using SQLite
type SQLiteStore struct {
	db *sql.DB
}

// openDatabase opens a SQLite database with appropriate settings
func openDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, dbPath)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// SQLite benefits from single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return db, nil
}

// NewSQLiteStore creates a new SQLite store instance
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := openDatabase(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := ApplyMigrations(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Bookmark operations

func (s *SQLiteStore) CreateBookmark(ctx context.Context, bm *types.Bookmark) error {
	if bm.ID == "" {
		bm.ID = uuid.NewString()
	}
	now := time.Now().UTC()

	query := `
		INSERT INTO bookmarks (id, user_id, url, title, description, content, summary, favicon_url, is_favorite, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		bm.ID, bm.UserID, bm.URL, bm.Title, bm.Description, bm.Content,
		bm.Summary, bm.FaviconURL, bm.IsFavorite, now, now)
	if err != nil {
		return fmt.Errorf("failed to create bookmark: %w", err)
	}

	bm.CreatedAt = now
	bm.UpdatedAt = now
	return nil
}

func (s *SQLiteStore) GetBookmark(ctx context.Context, id, userID string) (*types.Bookmark, error) {
	query := `
		SELECT id, user_id, url, title, description, content, summary, favicon_url, is_favorite, created_at, updated_at
		FROM bookmarks
		WHERE id = ? AND user_id = ?
	`
	var bm types.Bookmark
	err := s.db.QueryRowContext(ctx, query, id, userID).Scan(
		&bm.ID, &bm.UserID, &bm.URL, &bm.Title, &bm.Description, &bm.Content,
		&bm.Summary, &bm.FaviconURL, &bm.IsFavorite, &bm.CreatedAt, &bm.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &bm, nil
}

func (s *SQLiteStore) ListBookmarks(ctx context.Context, userID string, limit, offset int) ([]*types.Bookmark, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	query := `
		SELECT id, user_id, url, title, description, content, summary, favicon_url, is_favorite, created_at, updated_at
		FROM bookmarks
		WHERE user_id = ?
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?
	`
	rows, err := s.db.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookmarks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	bookmarks := make([]*types.Bookmark, 0)
	for rows.Next() {
		var bm types.Bookmark
		if err := rows.Scan(
			&bm.ID, &bm.UserID, &bm.URL, &bm.Title, &bm.Description, &bm.Content,
			&bm.Summary, &bm.FaviconURL, &bm.IsFavorite, &bm.CreatedAt, &bm.UpdatedAt,
		); err != nil {
			return nil, err
		}
		bookmarks = append(bookmarks, &bm)
	}
	return bookmarks, rows.Err()
}

// UpdateBookmark persists only the non-nil fields of upd and returns
// the merged row. A missing or foreign-owned bookmark is ErrNotFound.
func (s *SQLiteStore) UpdateBookmark(ctx context.Context, id, userID string, upd types.BookmarkUpdate) (*types.Bookmark, error) {
	if upd.IsEmpty() {
		return s.GetBookmark(ctx, id, userID)
	}

	setClauses := make([]string, 0, 6)
	args := make([]interface{}, 0, 8)

	if upd.Title != nil {
		setClauses = append(setClauses, "title = ?")
		args = append(args, *upd.Title)
	}
	if upd.Description != nil {
		setClauses = append(setClauses, "description = ?")
		args = append(args, *upd.Description)
	}
	if upd.Content != nil {
		setClauses = append(setClauses, "content = ?")
		args = append(args, *upd.Content)
	}
	if upd.FaviconURL != nil {
		setClauses = append(setClauses, "favicon_url = ?")
		args = append(args, *upd.FaviconURL)
	}
	if upd.IsFavorite != nil {
		setClauses = append(setClauses, "is_favorite = ?")
		args = append(args, *upd.IsFavorite)
	}

	setClauses = append(setClauses, "updated_at = ?")
	args = append(args, time.Now().UTC())
	args = append(args, id, userID)

	query := "UPDATE bookmarks SET " + strings.Join(setClauses, ", ") + " WHERE id = ? AND user_id = ?"
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to update bookmark: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, ErrNotFound
	}

	return s.GetBookmark(ctx, id, userID)
}

func (s *SQLiteStore) DeleteBookmark(ctx context.Context, id, userID string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM bookmarks WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete bookmark: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Embedding operations

// UpsertEmbedding inserts or replaces the vector for a bookmark.
// The UNIQUE constraint on bookmark_id guarantees at most one row.
func (s *SQLiteStore) UpsertEmbedding(ctx context.Context, emb *Embedding) error {
	query := `
		INSERT INTO bookmark_embeddings (bookmark_id, vector, dimension, provider, model, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(bookmark_id) DO UPDATE SET
			vector = excluded.vector,
			dimension = excluded.dimension,
			provider = excluded.provider,
			model = excluded.model
	`
	now := time.Now().UTC()
	result, err := s.db.ExecContext(ctx, query,
		emb.BookmarkID, emb.Vector, emb.Dimension, emb.Provider, emb.Model, now)
	if err != nil {
		return fmt.Errorf("failed to upsert embedding: %w", err)
	}

	if emb.ID == 0 {
		if id, err := result.LastInsertId(); err == nil {
			emb.ID = id
		}
	}
	emb.CreatedAt = now
	return nil
}

func (s *SQLiteStore) GetEmbedding(ctx context.Context, bookmarkID string) (*Embedding, error) {
	query := `
		SELECT id, bookmark_id, vector, dimension, provider, model, created_at
		FROM bookmark_embeddings
		WHERE bookmark_id = ?
	`
	var emb Embedding
	err := s.db.QueryRowContext(ctx, query, bookmarkID).Scan(
		&emb.ID, &emb.BookmarkID, &emb.Vector, &emb.Dimension,
		&emb.Provider, &emb.Model, &emb.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &emb, nil
}

func (s *SQLiteStore) DeleteEmbedding(ctx context.Context, bookmarkID string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM bookmark_embeddings WHERE bookmark_id = ?", bookmarkID)
	return err
}

// Category operations

// FindOrCreateCategory resolves (userID, name, kind) to a category,
// creating it when absent. The name is lowercased and trimmed first.
// Concurrent callers racing on the same name both get the same row:
// a unique-constraint conflict on insert is resolved by re-fetching.
func (s *SQLiteStore) FindOrCreateCategory(ctx context.Context, userID, name, kind string) (*Category, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return nil, fmt.Errorf("category name cannot be empty")
	}
	if kind == "" {
		kind = CategoryKindAI
	}

	if cat, err := s.getCategory(ctx, userID, name, kind); err == nil {
		return cat, nil
	} else if err != ErrNotFound {
		return nil, err
	}

	cat := &Category{
		ID:        uuid.NewString(),
		UserID:    userID,
		Name:      name,
		Kind:      kind,
		CreatedAt: time.Now().UTC(),
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO categories (id, user_id, name, kind, created_at) VALUES (?, ?, ?, ?, ?)",
		cat.ID, cat.UserID, cat.Name, cat.Kind, cat.CreatedAt)
	if err == nil {
		return cat, nil
	}

	// Insert lost a race with another writer; the row exists now.
	if existing, getErr := s.getCategory(ctx, userID, name, kind); getErr == nil {
		return existing, nil
	}
	return nil, fmt.Errorf("failed to create category %q: %w", name, err)
}

func (s *SQLiteStore) getCategory(ctx context.Context, userID, name, kind string) (*Category, error) {
	var cat Category
	err := s.db.QueryRowContext(ctx,
		"SELECT id, user_id, name, kind, created_at FROM categories WHERE user_id = ? AND name = ? AND kind = ?",
		userID, name, kind).Scan(&cat.ID, &cat.UserID, &cat.Name, &cat.Kind, &cat.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &cat, nil
}

// LinkCategory associates a bookmark with a category. Linking the same
// pair twice is a no-op.
func (s *SQLiteStore) LinkCategory(ctx context.Context, bookmarkID, categoryID string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO bookmark_categories (bookmark_id, category_id, created_at) VALUES (?, ?, ?)",
		bookmarkID, categoryID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to link category: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ClearCategoryLinks(ctx context.Context, bookmarkID string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM bookmark_categories WHERE bookmark_id = ?", bookmarkID)
	return err
}

func (s *SQLiteStore) ListBookmarkCategories(ctx context.Context, bookmarkID string) ([]*Category, error) {
	query := `
		SELECT c.id, c.user_id, c.name, c.kind, c.created_at
		FROM categories c
		INNER JOIN bookmark_categories bc ON bc.category_id = c.id
		WHERE bc.bookmark_id = ?
		ORDER BY c.name
	`
	rows, err := s.db.QueryContext(ctx, query, bookmarkID)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookmark categories: %w", err)
	}
	defer func() { _ = rows.Close() }()

	categories := make([]*Category, 0)
	for rows.Next() {
		var cat Category
		if err := rows.Scan(&cat.ID, &cat.UserID, &cat.Name, &cat.Kind, &cat.CreatedAt); err != nil {
			return nil, err
		}
		categories = append(categories, &cat)
	}
	return categories, rows.Err()
}

// Search operations

func (s *SQLiteStore) SearchSemantic(ctx context.Context, userID string, vector []float32, threshold float64, limit int) ([]SemanticResult, error) {
	// Implementation lives in relevance.go
	return searchSemantic(ctx, s.db, userID, vector, threshold, limit)
}

func (s *SQLiteStore) SearchCategories(ctx context.Context, userID string, terms []string, limit int) ([]CategoryResult, error) {
	return searchCategories(ctx, s.db, userID, terms, limit)
}

func (s *SQLiteStore) SearchHybrid(ctx context.Context, userID string, vector []float32, terms []string, threshold float64, limit int) ([]HybridResult, error) {
	return searchHybrid(ctx, s.db, userID, vector, terms, threshold, limit)
}
