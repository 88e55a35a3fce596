// Package llm provides the text-generation collaborators used by the
// enrichment pipeline: summarizing scraped content and suggesting
// category tags.
//
// The shipped implementation speaks the OpenAI-compatible chat
// completions API, so any gateway exposing that surface (OpenAI,
// OpenRouter, local vLLM) works unchanged.
package llm

import (
	"context"
	"errors"
	"strings"
)

var (
	// ErrEmptyText is returned when there is nothing to summarize.
	ErrEmptyText = errors.New("text cannot be empty")
	// ErrAssistantFailed wraps upstream chat API failures.
	ErrAssistantFailed = errors.New("assistant request failed")
)

const (
	// MaxPromptChars bounds the content excerpt included in prompts.
	MaxPromptChars = 10000

	// MaxTags is the most tags a suggestion returns.
	MaxTags = 5
)

// Assistant generates summaries and category tags for bookmark content.
type Assistant interface {
	// Summarize produces a 2-3 sentence summary of text.
	Summarize(ctx context.Context, text string) (string, error)

	// SuggestTags proposes 3-5 lowercase category tags for a page.
	SuggestTags(ctx context.Context, title, content string) ([]string, error)
}

// ParseTags converts a comma-separated model response into clean tags:
// trimmed, lowercased, empties dropped, capped at MaxTags.
func ParseTags(raw string) []string {
	parts := strings.Split(raw, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		tag := strings.ToLower(strings.TrimSpace(p))
		if tag == "" {
			continue
		}
		tags = append(tags, tag)
		if len(tags) == MaxTags {
			break
		}
	}
	return tags
}

// excerpt bounds s to MaxPromptChars.
func excerpt(s string) string {
	if len(s) > MaxPromptChars {
		return s[:MaxPromptChars]
	}
	return s
}
