package types

import "errors"

// Domain errors for validation
var (
	ErrInvalidURL        = errors.New("url must be an absolute http or https URL")
	ErrEmptyQuery        = errors.New("search query cannot be empty")
	ErrInvalidBookmarkID = errors.New("invalid bookmark ID")
	ErrInvalidRank       = errors.New("rank must be >= 1")
	ErrEmptyUpdate       = errors.New("update must supply at least one field")
)
