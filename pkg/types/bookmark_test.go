package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{"https", "https://example.com/page", false},
		{"http", "http://example.com", false},
		{"with query", "https://example.com/search?q=go", false},
		{"empty", "", true},
		{"whitespace", "   ", true},
		{"no scheme", "example.com", true},
		{"relative", "/path/only", true},
		{"ftp", "ftp://example.com", true},
		{"scheme only", "https://", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateURL(tt.url)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidURL)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestBookmarkUpdate_IsEmpty(t *testing.T) {
	assert.True(t, BookmarkUpdate{}.IsEmpty())

	title := ""
	assert.False(t, BookmarkUpdate{Title: &title}.IsEmpty())

	fav := false
	assert.False(t, BookmarkUpdate{IsFavorite: &fav}.IsEmpty())
}

func TestBookmarkUpdate_TouchesText(t *testing.T) {
	fav := true
	assert.False(t, BookmarkUpdate{IsFavorite: &fav}.TouchesText())

	favicon := "https://example.com/favicon.ico"
	assert.False(t, BookmarkUpdate{FaviconURL: &favicon}.TouchesText())

	content := "new content"
	assert.True(t, BookmarkUpdate{Content: &content}.TouchesText())

	desc := ""
	assert.True(t, BookmarkUpdate{Description: &desc}.TouchesText())
}

func TestSearchResult_Validate(t *testing.T) {
	valid := SearchResult{ID: "abc", Rank: 1, URL: "https://example.com"}
	assert.NoError(t, valid.Validate())

	noID := valid
	noID.ID = ""
	assert.ErrorIs(t, noID.Validate(), ErrInvalidBookmarkID)

	badRank := valid
	badRank.Rank = 0
	assert.ErrorIs(t, badRank.Validate(), ErrInvalidRank)

	noURL := valid
	noURL.URL = ""
	assert.ErrorIs(t, noURL.Validate(), ErrInvalidURL)
}
