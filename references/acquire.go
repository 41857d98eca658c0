// Package references composes reference discovery and content extraction
// into a single acquisition step for the enhancement pipeline.
package references

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"articleforge/scrape"
	"articleforge/search"
	"articleforge/types"
)

// Acquirer discovers candidate references for a query and fetches content
// for a bounded subset of them.
type Acquirer struct {
	finder       search.Finder
	extractor    scrape.Extractor
	fetchTimeout time.Duration
	logger       *slog.Logger
}

// NewAcquirer creates an Acquirer. finder and extractor may be nil;
// acquisition then degrades to empty candidates or empty fetches.
func NewAcquirer(finder search.Finder, extractor scrape.Extractor, fetchTimeout time.Duration, logger *slog.Logger) *Acquirer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Acquirer{
		finder:       finder,
		extractor:    extractor,
		fetchTimeout: fetchTimeout,
		logger:       logger.With("component", "references"),
	}
}

// Acquire searches for up to maxCandidates references and fetches content
// for the first maxFetch of them concurrently. Fetches are best-effort,
// all-complete: every attempt finishes before Acquire returns, one
// failure never cancels its siblings, and only successes appear in
// acquired, in candidate order.
//
// Discovery failure is not an error: it degrades to empty results.
func (a *Acquirer) Acquire(ctx context.Context, query string, maxCandidates, maxFetch int) ([]types.ReferenceCandidate, []types.AcquiredReference) {
	candidates := a.discover(ctx, query, maxCandidates)
	if len(candidates) == 0 {
		return candidates, []types.AcquiredReference{}
	}

	if maxFetch < 0 {
		maxFetch = 0
	}
	toFetch := candidates
	if maxFetch < len(toFetch) {
		toFetch = toFetch[:maxFetch]
	}

	// Scatter-gather with one result slot per candidate so completion
	// order cannot reorder the output.
	slots := make([]*types.AcquiredReference, len(toFetch))
	var wg sync.WaitGroup
	for i, candidate := range toFetch {
		wg.Add(1)
		go func(i int, candidate types.ReferenceCandidate) {
			defer wg.Done()
			slots[i] = a.fetchOne(ctx, candidate)
		}(i, candidate)
	}
	wg.Wait()

	acquired := make([]types.AcquiredReference, 0, len(toFetch))
	for _, ref := range slots {
		if ref != nil {
			acquired = append(acquired, *ref)
		}
	}
	a.logger.Info("reference acquisition complete",
		"query", query,
		"candidates", len(candidates),
		"fetched", len(acquired))
	return candidates, acquired
}

func (a *Acquirer) discover(ctx context.Context, query string, limit int) []types.ReferenceCandidate {
	if a.finder == nil {
		a.logger.Debug("no reference finder configured; skipping discovery")
		return []types.ReferenceCandidate{}
	}
	candidates, err := a.finder.Search(ctx, query, limit)
	if err != nil {
		a.logger.Warn("reference discovery failed; continuing without references",
			"query", query, "err", err)
		return []types.ReferenceCandidate{}
	}
	return candidates
}

func (a *Acquirer) fetchOne(ctx context.Context, candidate types.ReferenceCandidate) *types.AcquiredReference {
	if a.extractor == nil {
		return nil
	}
	fetchCtx, cancel := context.WithTimeout(ctx, a.fetchTimeout)
	defer cancel()

	extracted := a.extractor.Extract(fetchCtx, candidate.URL)
	if extracted == nil {
		a.logger.Debug("reference fetch failed", "url", candidate.URL)
		return nil
	}

	title := extracted.Title
	if title == "" {
		title = candidate.Title
	}
	domain := extracted.Domain
	if domain == "" {
		domain = candidate.Domain
	}
	return &types.AcquiredReference{
		Title:  title,
		URL:    candidate.URL,
		Body:   extracted.Body,
		Domain: domain,
	}
}
