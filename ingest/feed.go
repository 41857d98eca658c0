// Package ingest pulls documents into the store from RSS/Atom feeds.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"golang.org/x/sync/errgroup"

	"articleforge/config"
	"articleforge/scrape"
	"articleforge/store"
	"articleforge/types"
)

// FeedPresets maps friendly names to feed URLs.
var FeedPresets = map[string]string{
	"cna": "https://www.channelnewsasia.com/api/v1/rss-outbound-feed?_format=xml",
	"st":  "https://www.straitstimes.com/news/singapore/rss.xml",
	"hn":  "https://hnrss.org/newest",
	"tr":  "https://www.technologyreview.com/feed/",
}

// ResolveFeedURL maps a preset name to its URL; anything else is
// treated as a direct URL.
func ResolveFeedURL(feedInput string) string {
	if url, exists := FeedPresets[feedInput]; exists {
		return url
	}
	return feedInput
}

// Result summarizes one ingest run.
type Result struct {
	FeedURL  string   `json:"feed_url"`
	Created  []string `json:"created"`
	Skipped  int      `json:"skipped"`
	Examined int      `json:"examined"`
}

// Ingester parses feeds, extracts full article text, and stores each
// new item as an original document.
type Ingester struct {
	store     store.Store
	extractor scrape.Extractor
	parser    *gofeed.Parser
	logger    *slog.Logger
}

// NewIngester creates an Ingester over the given store and extractor.
func NewIngester(st store.Store, extractor scrape.Extractor, logger *slog.Logger) *Ingester {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ingester{
		store:     st,
		extractor: extractor,
		parser:    gofeed.NewParser(),
		logger:    logger.With("component", "ingest"),
	}
}

// IngestFeed fetches the feed and stores up to count new documents.
// Items already in the store are skipped. Extraction runs concurrently
// with a bounded worker count; items whose extraction fails fall back
// to the feed's own summary text.
func (in *Ingester) IngestFeed(ctx context.Context, feedInput string, count int) (*Result, error) {
	if count <= 0 {
		count = config.DefaultIngestCount
	}
	feedURL := ResolveFeedURL(feedInput)

	feed, err := in.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch feed %s: %w", feedURL, err)
	}

	items := feed.Items
	if len(items) > count {
		items = items[:count]
	}

	result := &Result{FeedURL: feedURL, Examined: len(items)}

	slots := make([]*types.Document, len(items))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(config.IngestExtractWorkers)

	for i, item := range items {
		if item.Link == "" {
			continue
		}

		id := types.GenerateID(item.Link)
		if _, err := in.store.Get(ctx, id); err == nil {
			result.Skipped++
			continue
		} else if !errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("check existing document: %w", err)
		}

		g.Go(func() error {
			slots[i] = in.buildDocument(gctx, id, item)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, doc := range slots {
		if doc == nil {
			continue
		}
		if err := in.store.Save(ctx, doc); err != nil {
			return nil, fmt.Errorf("save ingested document: %w", err)
		}
		result.Created = append(result.Created, doc.ID)
	}

	in.logger.Info("feed ingested",
		"feed", feedURL,
		"examined", result.Examined,
		"created", len(result.Created),
		"skipped", result.Skipped)
	return result, nil
}

// buildDocument turns one feed item into an original document, using
// extracted page text when available and the feed summary otherwise.
func (in *Ingester) buildDocument(ctx context.Context, id string, item *gofeed.Item) *types.Document {
	doc := &types.Document{
		ID:            id,
		OriginalTitle: strings.TrimSpace(item.Title),
		OriginalURL:   item.Link,
		Status:        types.StatusOriginal,
		IngestedAt:    time.Now(),
	}

	body := ""
	if in.extractor != nil {
		if extracted := in.extractor.Extract(ctx, item.Link); extracted != nil {
			body = extracted.Body
			if doc.OriginalTitle == "" {
				doc.OriginalTitle = extracted.Title
			}
		}
	}
	if body == "" {
		body = item.Description
		if body == "" {
			body = item.Content
		}
		in.logger.Warn("extraction failed, using feed summary", "url", item.Link)
	}
	doc.SetOriginalBody(strings.TrimSpace(body))
	return doc
}
