package types

import (
	"net/url"
	"strings"
	"time"
)

// Bookmark is a saved URL with scraped and AI-derived metadata.
// A bookmark belongs to exactly one owner; every read and write is
// filtered by UserID.
type Bookmark struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	URL         string    `json:"url"`
	Title       string    `json:"title,omitempty"`
	Description string    `json:"description,omitempty"`
	Content     string    `json:"content,omitempty"`
	Summary     string    `json:"summary,omitempty"`
	FaviconURL  string    `json:"favicon_url,omitempty"`
	IsFavorite  bool      `json:"is_favorite"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// BookmarkDraft is the caller-supplied input for creating a bookmark.
// Only URL is required; empty fields are candidates for scraping.
type BookmarkDraft struct {
	URL         string `json:"url"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Content     string `json:"content,omitempty"`
	FaviconURL  string `json:"favicon_url,omitempty"`
	IsFavorite  bool   `json:"is_favorite,omitempty"`
}

// BookmarkUpdate is a partial update. Nil pointers mean "leave
// untouched"; the distinction between unset and empty matters, so
// every field is a pointer.
type BookmarkUpdate struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Content     *string `json:"content,omitempty"`
	FaviconURL  *string `json:"favicon_url,omitempty"`
	IsFavorite  *bool   `json:"is_favorite,omitempty"`
}

// IsEmpty reports whether the update carries no fields at all.
func (u BookmarkUpdate) IsEmpty() bool {
	return u.Title == nil && u.Description == nil && u.Content == nil &&
		u.FaviconURL == nil && u.IsFavorite == nil
}

// TouchesText reports whether the update includes any of the fields
// that feed the embedding and category generation (title, description,
// content). Updates outside this set never trigger regeneration.
func (u BookmarkUpdate) TouchesText() bool {
	return u.Title != nil || u.Description != nil || u.Content != nil
}

// ValidateURL checks that raw is an absolute http or https URL.
func ValidateURL(raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ErrInvalidURL
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return ErrInvalidURL
	}
	if (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return ErrInvalidURL
	}
	return nil
}
