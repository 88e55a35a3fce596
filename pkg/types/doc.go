// Package types provides shared type definitions for the Markhive backend.
//
// This package defines the domain types used across multiple components,
// including bookmarks, partial updates, and search results.
//
// # Core Types
//
// Bookmark is the central entity: a saved URL owned by exactly one user,
// augmented with scraped metadata and AI-derived fields:
//
//	bm := &types.Bookmark{
//	    UserID: "user-123",
//	    URL:    "https://go.dev/blog/slices",
//	    Title:  "Arrays, slices (and strings)",
//	}
//
// BookmarkUpdate uses pointer fields so that "field absent" and "field set
// to empty" stay distinguishable. Only non-nil fields are persisted:
//
//	title := "New Title"
//	upd := types.BookmarkUpdate{Title: &title}
//	upd.TouchesText() // true: triggers embedding + category regeneration
//
// # Search Results
//
// SearchResult combines bookmark display fields with per-signal relevance
// scores. Keyword-mode results carry only CategoryScore, semantic-mode
// results only SemanticScore, and hybrid-mode results all three with
// RRFScore as the fused rank score:
//
//	result := types.SearchResult{
//	    ID:            bm.ID,
//	    Rank:          1,
//	    SemanticScore: 0.83,
//	    CategoryScore: 2,
//	    RRFScore:      0.0325,
//	}
package types
