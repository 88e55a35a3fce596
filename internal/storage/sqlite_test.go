package storage

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markhive/markhive/pkg/types"
)

func setupTestStore(t *testing.T) *SQLiteStore {
	// Use in-memory database for testing
	store, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	require.NotNil(t, store)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func newTestBookmark(t *testing.T, store *SQLiteStore, userID, url string) *types.Bookmark {
	t.Helper()
	bm := &types.Bookmark{
		UserID: userID,
		URL:    url,
		Title:  "Test Page",
	}
	require.NoError(t, store.CreateBookmark(context.Background(), bm))
	return bm
}

func TestCreateBookmark(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	bm := &types.Bookmark{
		UserID:      "alice",
		URL:         "https://example.com",
		Title:       "Example",
		Description: "An example page",
	}
	err := store.CreateBookmark(ctx, bm)
	require.NoError(t, err)
	assert.NotEmpty(t, bm.ID)
	assert.False(t, bm.CreatedAt.IsZero())
	assert.Equal(t, bm.CreatedAt, bm.UpdatedAt)
}

func TestGetBookmark(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	bm := newTestBookmark(t, store, "alice", "https://example.com")

	retrieved, err := store.GetBookmark(ctx, bm.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, bm.ID, retrieved.ID)
	assert.Equal(t, bm.URL, retrieved.URL)
	assert.Equal(t, bm.Title, retrieved.Title)
}

func TestGetBookmark_NotFound(t *testing.T) {
	store := setupTestStore(t)

	_, err := store.GetBookmark(context.Background(), "missing-id", "alice")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetBookmark_WrongOwner(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	bm := newTestBookmark(t, store, "alice", "https://example.com")

	// Another owner sees the same error as a missing row
	_, err := store.GetBookmark(ctx, bm.ID, "bob")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListBookmarks(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	newTestBookmark(t, store, "alice", "https://one.example.com")
	newTestBookmark(t, store, "alice", "https://two.example.com")
	newTestBookmark(t, store, "bob", "https://three.example.com")

	bookmarks, err := store.ListBookmarks(ctx, "alice", 50, 0)
	require.NoError(t, err)
	assert.Len(t, bookmarks, 2)

	// Pagination
	page, err := store.ListBookmarks(ctx, "alice", 1, 1)
	require.NoError(t, err)
	assert.Len(t, page, 1)

	empty, err := store.ListBookmarks(ctx, "carol", 50, 0)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestUpdateBookmark(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	bm := newTestBookmark(t, store, "alice", "https://example.com")

	title := "Updated Title"
	fav := true
	updated, err := store.UpdateBookmark(ctx, bm.ID, "alice", types.BookmarkUpdate{
		Title:      &title,
		IsFavorite: &fav,
	})
	require.NoError(t, err)
	assert.Equal(t, "Updated Title", updated.Title)
	assert.True(t, updated.IsFavorite)
	// Untouched fields keep their values
	assert.Equal(t, bm.URL, updated.URL)
}

func TestUpdateBookmark_WrongOwner(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	bm := newTestBookmark(t, store, "alice", "https://example.com")

	title := "Hijacked"
	_, err := store.UpdateBookmark(ctx, bm.ID, "bob", types.BookmarkUpdate{Title: &title})
	assert.ErrorIs(t, err, ErrNotFound)

	// Original row is untouched
	retrieved, err := store.GetBookmark(ctx, bm.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, "Test Page", retrieved.Title)
}

func TestDeleteBookmark(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	bm := newTestBookmark(t, store, "alice", "https://example.com")

	require.NoError(t, store.DeleteBookmark(ctx, bm.ID, "alice"))

	_, err := store.GetBookmark(ctx, bm.ID, "alice")
	assert.ErrorIs(t, err, ErrNotFound)

	// Deleting again reports not found
	err = store.DeleteBookmark(ctx, bm.ID, "alice")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteBookmark_WrongOwner(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	bm := newTestBookmark(t, store, "alice", "https://example.com")

	err := store.DeleteBookmark(ctx, bm.ID, "bob")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = store.GetBookmark(ctx, bm.ID, "alice")
	assert.NoError(t, err)
}

func TestUpsertEmbedding(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	bm := newTestBookmark(t, store, "alice", "https://example.com")

	first := NewEmbedding(bm.ID, []float32{1, 0, 0}, "local", "hash-embed")
	require.NoError(t, store.UpsertEmbedding(ctx, first))

	// Second upsert replaces the vector, row count stays at one
	second := NewEmbedding(bm.ID, []float32{0, 1, 0}, "openai", "text-embedding-3-small")
	require.NoError(t, store.UpsertEmbedding(ctx, second))

	stored, err := store.GetEmbedding(ctx, bm.ID)
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 1, 0}, stored.Vector32())
	assert.Equal(t, "openai", stored.Provider)
	assert.Equal(t, 3, stored.Dimension)
}

func TestGetEmbedding_NotFound(t *testing.T) {
	store := setupTestStore(t)

	_, err := store.GetEmbedding(context.Background(), "missing-id")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteBookmark_CascadesEmbedding(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	bm := newTestBookmark(t, store, "alice", "https://example.com")
	require.NoError(t, store.UpsertEmbedding(ctx, NewEmbedding(bm.ID, []float32{1, 2, 3}, "local", "m")))

	require.NoError(t, store.DeleteBookmark(ctx, bm.ID, "alice"))

	_, err := store.GetEmbedding(ctx, bm.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFindOrCreateCategory(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	cat, err := store.FindOrCreateCategory(ctx, "alice", "  Machine Learning ", CategoryKindAI)
	require.NoError(t, err)
	assert.Equal(t, "machine learning", cat.Name)
	assert.Equal(t, CategoryKindAI, cat.Kind)

	// Same normalized name resolves to the same row
	again, err := store.FindOrCreateCategory(ctx, "alice", "MACHINE LEARNING", CategoryKindAI)
	require.NoError(t, err)
	assert.Equal(t, cat.ID, again.ID)

	// Different owner gets a distinct category
	other, err := store.FindOrCreateCategory(ctx, "bob", "machine learning", CategoryKindAI)
	require.NoError(t, err)
	assert.NotEqual(t, cat.ID, other.ID)

	// Different kind is a distinct category too
	user, err := store.FindOrCreateCategory(ctx, "alice", "machine learning", CategoryKindUser)
	require.NoError(t, err)
	assert.NotEqual(t, cat.ID, user.ID)
}

func TestFindOrCreateCategory_EmptyName(t *testing.T) {
	store := setupTestStore(t)

	_, err := store.FindOrCreateCategory(context.Background(), "alice", "   ", CategoryKindAI)
	assert.Error(t, err)
}

func TestFindOrCreateCategory_Concurrent(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	const workers = 8
	ids := make([]string, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			cat, err := store.FindOrCreateCategory(ctx, "alice", "golang", CategoryKindAI)
			if err == nil {
				ids[i] = cat.ID
			}
		}(i)
	}
	wg.Wait()

	// All racers resolved to the same category
	for i := 1; i < workers; i++ {
		assert.Equal(t, ids[0], ids[i])
	}
}

func TestLinkCategory(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	bm := newTestBookmark(t, store, "alice", "https://example.com")
	cat, err := store.FindOrCreateCategory(ctx, "alice", "golang", CategoryKindAI)
	require.NoError(t, err)

	require.NoError(t, store.LinkCategory(ctx, bm.ID, cat.ID))
	// Linking twice is a no-op
	require.NoError(t, store.LinkCategory(ctx, bm.ID, cat.ID))

	cats, err := store.ListBookmarkCategories(ctx, bm.ID)
	require.NoError(t, err)
	require.Len(t, cats, 1)
	assert.Equal(t, "golang", cats[0].Name)
}

func TestClearCategoryLinks(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	bm := newTestBookmark(t, store, "alice", "https://example.com")
	cat, err := store.FindOrCreateCategory(ctx, "alice", "golang", CategoryKindAI)
	require.NoError(t, err)
	require.NoError(t, store.LinkCategory(ctx, bm.ID, cat.ID))

	require.NoError(t, store.ClearCategoryLinks(ctx, bm.ID))

	cats, err := store.ListBookmarkCategories(ctx, bm.ID)
	require.NoError(t, err)
	assert.Empty(t, cats)

	// The category itself survives unlinking
	again, err := store.FindOrCreateCategory(ctx, "alice", "golang", CategoryKindAI)
	require.NoError(t, err)
	assert.Equal(t, cat.ID, again.ID)
}
