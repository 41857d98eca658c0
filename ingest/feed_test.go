package ingest

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"articleforge/scrape"
	"articleforge/store"
	"articleforge/types"
)

const feedTemplate = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
<title>Test Feed</title>
%s
</channel>
</rss>`

func feedItem(title, link, description string) string {
	return fmt.Sprintf(`<item><title>%s</title><link>%s</link><description>%s</description></item>`,
		title, link, description)
}

type fakeExtractor struct {
	bodies map[string]string
}

func (f *fakeExtractor) Extract(ctx context.Context, pageURL string) *scrape.Extracted {
	body, ok := f.bodies[pageURL]
	if !ok {
		return nil
	}
	return &scrape.Extracted{Title: "Extracted Title", Body: body, Domain: "example.com"}
}

func serveFeed(t *testing.T, items string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprintf(w, feedTemplate, items)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestIngestFeedCreatesDocuments(t *testing.T) {
	srv := serveFeed(t,
		feedItem("First Post", "https://news.example.com/1", "summary one")+
			feedItem("Second Post", "https://news.example.com/2", "summary two"))

	mem := store.NewMemoryStore()
	ext := &fakeExtractor{bodies: map[string]string{
		"https://news.example.com/1": "full extracted body one",
	}}
	in := NewIngester(mem, ext, nil)

	result, err := in.IngestFeed(context.Background(), srv.URL, 10)
	if err != nil {
		t.Fatalf("IngestFeed: %v", err)
	}
	if len(result.Created) != 2 || result.Skipped != 0 {
		t.Fatalf("result = %+v", result)
	}

	first, err := mem.Get(context.Background(), types.GenerateID("https://news.example.com/1"))
	if err != nil {
		t.Fatalf("Get first: %v", err)
	}
	if first.OriginalBody != "full extracted body one" {
		t.Errorf("body = %q, want extracted text", first.OriginalBody)
	}
	if first.Status != types.StatusOriginal {
		t.Errorf("status = %s", first.Status)
	}
	if first.WordCount.Original == 0 {
		t.Error("word count not computed")
	}

	// Extraction failed for the second item: summary fallback.
	second, err := mem.Get(context.Background(), types.GenerateID("https://news.example.com/2"))
	if err != nil {
		t.Fatalf("Get second: %v", err)
	}
	if second.OriginalBody != "summary two" {
		t.Errorf("body = %q, want feed summary", second.OriginalBody)
	}
}

func TestIngestFeedSkipsExisting(t *testing.T) {
	srv := serveFeed(t, feedItem("Post", "https://news.example.com/1", "summary"))

	mem := store.NewMemoryStore()
	existing := &types.Document{
		ID:            types.GenerateID("https://news.example.com/1"),
		OriginalTitle: "Post",
		Status:        types.StatusUpdated,
	}
	if err := mem.Save(context.Background(), existing); err != nil {
		t.Fatal(err)
	}

	in := NewIngester(mem, &fakeExtractor{}, nil)
	result, err := in.IngestFeed(context.Background(), srv.URL, 10)
	if err != nil {
		t.Fatalf("IngestFeed: %v", err)
	}
	if len(result.Created) != 0 || result.Skipped != 1 {
		t.Errorf("result = %+v", result)
	}

	kept, _ := mem.Get(context.Background(), existing.ID)
	if kept.Status != types.StatusUpdated {
		t.Error("existing document overwritten")
	}
}

func TestIngestFeedHonorsCount(t *testing.T) {
	items := ""
	for i := 0; i < 5; i++ {
		items += feedItem(fmt.Sprintf("Post %d", i), fmt.Sprintf("https://news.example.com/%d", i), "s")
	}
	srv := serveFeed(t, items)

	in := NewIngester(store.NewMemoryStore(), &fakeExtractor{}, nil)
	result, err := in.IngestFeed(context.Background(), srv.URL, 2)
	if err != nil {
		t.Fatalf("IngestFeed: %v", err)
	}
	if result.Examined != 2 || len(result.Created) != 2 {
		t.Errorf("result = %+v", result)
	}
}

func TestResolveFeedURL(t *testing.T) {
	if got := ResolveFeedURL("hn"); got != FeedPresets["hn"] {
		t.Errorf("preset not resolved: %q", got)
	}
	if got := ResolveFeedURL("https://custom.example.com/feed"); got != "https://custom.example.com/feed" {
		t.Errorf("direct URL altered: %q", got)
	}
}
