// Package scrape wraps best-effort fetch-and-extract of article content
// from external pages.
package scrape

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	readability "github.com/go-shiori/go-readability"
)

// Extracted is the cleaned content pulled out of a page.
type Extracted struct {
	Title  string
	Body   string
	Domain string
}

// Extractor fetches a URL and extracts its readable content. Extract is
// best-effort: it returns nil for unreachable or unparseable pages and
// never returns an error.
type Extractor interface {
	Extract(ctx context.Context, pageURL string) *Extracted
}

// ReadabilityExtractor implements Extractor with go-readability.
type ReadabilityExtractor struct {
	httpClient *http.Client
	logger     *slog.Logger
}

// NewReadabilityExtractor creates an extractor with the given per-fetch
// timeout.
func NewReadabilityExtractor(timeout time.Duration, logger *slog.Logger) *ReadabilityExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReadabilityExtractor{
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.With("component", "extractor"),
	}
}

func (e *ReadabilityExtractor) Extract(ctx context.Context, pageURL string) *Extracted {
	parsed, err := url.Parse(pageURL)
	if err != nil || parsed.Hostname() == "" {
		e.logger.Debug("skipping malformed url", "url", pageURL)
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; articleforge/1.0)")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		e.logger.Debug("fetch failed", "url", pageURL, "err", err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		e.logger.Debug("fetch returned non-2xx", "url", pageURL, "status", resp.StatusCode)
		return nil
	}

	article, err := readability.FromReader(resp.Body, parsed)
	if err != nil {
		e.logger.Debug("readability extraction failed", "url", pageURL, "err", err)
		return nil
	}

	body := strings.TrimSpace(article.TextContent)
	if body == "" {
		return nil
	}

	title := strings.TrimSpace(article.Title)
	return &Extracted{
		Title:  title,
		Body:   body,
		Domain: parsed.Hostname(),
	}
}
