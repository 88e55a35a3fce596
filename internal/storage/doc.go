// Package storage provides SQLite-based persistence for bookmarks,
// their embeddings, and categories.
//
// The storage layer manages:
//   - Bookmark rows, always scoped by owner
//   - Vector embeddings (at most one per bookmark)
//   - Categories and bookmark-category links
//   - The relevance engine: semantic, category, and hybrid search
//
// # Database Schema
//
// Tables:
//   - bookmarks: Saved pages and their extracted text fields
//   - bookmark_embeddings: Serialized float32 vectors per bookmark
//   - categories: Per-owner named tags, keyed by (user_id, name, kind)
//   - bookmark_categories: Bookmark to category links
//
// # Basic Usage
//
//	store, err := storage.NewSQLiteStore("./markhive.db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer store.Close()
//
//	bm := &types.Bookmark{UserID: "alice", URL: "https://example.com"}
//	err = store.CreateBookmark(ctx, bm)
//
// # Hybrid Search
//
// SearchHybrid runs semantic and category search independently and
// fuses the two rankings with Reciprocal Rank Fusion (k=60). A
// bookmark that appears on both lists accumulates both reciprocal
// rank contributions.
//
// # Build Tags
//
// Two build configurations are supported:
//
// CGO Build (sqlite_vec tag):
//
//   - Uses github.com/mattn/go-sqlite3 driver
//
//   - Includes sqlite-vec extension for fast vector operations
//
//     CGO_ENABLED=1 go build -tags "sqlite_vec"
//
// Pure Go Build (default):
//
//   - Uses modernc.org/sqlite driver
//
//   - Cosine similarity computed in Go
//
//     CGO_ENABLED=0 go build
package storage
