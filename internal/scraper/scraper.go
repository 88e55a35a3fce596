// Package scraper fetches a URL and extracts page metadata for bookmark
// enrichment: title, description, readable text content, and favicon.
//
// All fields of PageMeta are best-effort; a page without any usable
// metadata yields an empty PageMeta, not an error. Errors are reserved
// for fetch failures (network, timeout, non-2xx status).
package scraper

import "context"

// PageMeta holds the metadata extracted from a scraped page.
// Every field is optional.
type PageMeta struct {
	Title       string
	Description string
	Content     string
	FaviconURL  string
}

// Scraper defines the interface for fetching metadata from a URL.
type Scraper interface {
	// Scrape fetches the page at rawURL and extracts its metadata.
	Scrape(ctx context.Context, rawURL string) (*PageMeta, error)
}
