package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/html"
)

const (
	// maxBodyBytes caps how much HTML is read from a page.
	maxBodyBytes = 5 * 1024 * 1024

	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	// DefaultTimeout bounds a single scrape end to end.
	DefaultTimeout = 10 * time.Second
)

// HTTPScraper fetches pages with a plain HTTP client and parses the
// static HTML. Pages that require JavaScript rendering yield whatever
// metadata the raw document carries.
type HTTPScraper struct {
	httpClient *http.Client
	log        logrus.FieldLogger
}

// NewHTTPScraper creates a scraper with the given request timeout.
// A non-positive timeout falls back to DefaultTimeout.
func NewHTTPScraper(timeout time.Duration, logger logrus.FieldLogger) *HTTPScraper {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &HTTPScraper{
		httpClient: &http.Client{Timeout: timeout},
		log:        logger.WithField("component", "scraper"),
	}
}

// Scrape fetches rawURL and extracts title, description, content, and
// favicon URL from the response document.
func (s *HTTPScraper) Scrape(ctx context.Context, rawURL string) (*PageMeta, error) {
	base, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("HTTP %d for %s", resp.StatusCode, rawURL)
	}

	// Redirects may move the document; favicon resolution should use
	// the final location.
	if resp.Request != nil && resp.Request.URL != nil {
		base = resp.Request.URL
	}

	doc, err := html.Parse(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	meta := &PageMeta{
		Title:       extractTitle(doc),
		Description: extractDescription(doc),
		Content:     extractContent(doc),
		FaviconURL:  extractFavicon(doc, base),
	}

	s.log.WithFields(logrus.Fields{
		"url":         rawURL,
		"title":       meta.Title,
		"content_len": len(meta.Content),
	}).Debug("scraped page")

	return meta, nil
}
