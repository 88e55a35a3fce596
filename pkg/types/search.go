package types

import "time"

// SearchResult is a single ranked bookmark returned by the search
// engine. The three score components are filled according to the
// search mode: hybrid mode carries all three with RRFScore as the
// fused rank score, while the single-signal modes mirror their one
// score into RRFScore (semantic leaves CategoryScore at zero, keyword
// leaves SemanticScore at zero).
type SearchResult struct {
	// Identification
	ID   string `json:"id"`
	Rank int    `json:"rank"` // Position in result set (1-based)

	// Display fields
	URL         string    `json:"url"`
	Title       string    `json:"title,omitempty"`
	Description string    `json:"description,omitempty"`
	Summary     string    `json:"summary,omitempty"`
	FaviconURL  string    `json:"favicon_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`

	// Scoring
	SemanticScore float64 `json:"semantic_score"`
	CategoryScore float64 `json:"category_score"`
	RRFScore      float64 `json:"rrf_score"`

	// Category names that matched the query terms (keyword and
	// hybrid modes only).
	MatchedCategories []string `json:"matched_categories"`
}

// Validate checks if the search result is well-formed.
func (sr *SearchResult) Validate() error {
	if sr.ID == "" {
		return ErrInvalidBookmarkID
	}
	if sr.Rank < 1 {
		return ErrInvalidRank
	}
	if sr.URL == "" {
		return ErrInvalidURL
	}
	return nil
}
