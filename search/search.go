// Package search wraps an external web-search API used to discover
// reference material for documents.
package search

import (
	"context"

	"articleforge/types"
)

// Finder discovers candidate references for a query string. Results are
// ordered by relevance as returned by the backing engine; callers take
// the first N without re-ranking.
type Finder interface {
	Search(ctx context.Context, query string, limit int) ([]types.ReferenceCandidate, error)
}

// Non-article domains excluded from results by policy: aggregators,
// social platforms, and video sites, which never yield usable reference
// bodies.
var excludedDomains = []string{
	"google.com",
	"youtube.com",
	"facebook.com",
	"twitter.com",
	"x.com",
	"linkedin.com",
	"instagram.com",
	"pinterest.com",
	"tiktok.com",
	"wikipedia.org",
	"reddit.com",
	"quora.com",
}
