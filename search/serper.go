package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"

	"articleforge/config"
	"articleforge/types"
)

const defaultSerperEndpoint = "https://google.serper.dev/search"

// SerperClient implements Finder against the Serper web-search API.
// Docs: https://serper.dev
// Request: POST {"q": "...", "num": N} with an X-API-KEY header.
// Response: {"organic": [{"title", "link", "snippet"}, ...]}
type SerperClient struct {
	apiKey     string
	endpoint   string
	httpClient *http.Client
}

// NewSerperFromEnv returns a SerperClient when SERPER_API_KEY is set,
// nil otherwise. A nil finder degrades acquisition to empty candidates.
func NewSerperFromEnv() *SerperClient {
	key := os.Getenv("SERPER_API_KEY")
	if key == "" {
		return nil
	}
	endpoint := os.Getenv("SERPER_ENDPOINT")
	if endpoint == "" {
		endpoint = defaultSerperEndpoint
	}
	return NewSerperClient(key, endpoint)
}

// NewSerperClient creates a SerperClient for the given key and endpoint.
func NewSerperClient(apiKey, endpoint string) *SerperClient {
	if endpoint == "" {
		endpoint = defaultSerperEndpoint
	}
	return &SerperClient{
		apiKey:   apiKey,
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: config.SearchTimeout,
		},
	}
}

func (c *SerperClient) Search(ctx context.Context, query string, limit int) ([]types.ReferenceCandidate, error) {
	if limit <= 0 {
		return []types.ReferenceCandidate{}, nil
	}

	payload := map[string]interface{}{
		"q": query,
		// Over-request so the exclusion policy still leaves enough.
		"num": limit * 2,
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewBuffer(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-KEY", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("search API returned %d: %s", resp.StatusCode, string(body))
	}

	var parsed struct {
		Organic []struct {
			Title   string `json:"title"`
			Link    string `json:"link"`
			Snippet string `json:"snippet"`
		} `json:"organic"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	results := make([]types.ReferenceCandidate, 0, limit)
	for _, r := range parsed.Organic {
		if len(results) >= limit {
			break
		}
		domain, ok := articleDomain(r.Link)
		if !ok {
			continue
		}
		if r.Title == "" {
			continue
		}
		results = append(results, types.ReferenceCandidate{
			Title:   r.Title,
			URL:     r.Link,
			Snippet: r.Snippet,
			Domain:  domain,
		})
	}
	return results, nil
}

// articleDomain extracts the hostname and applies the exclusion policy.
func articleDomain(rawURL string) (string, bool) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Hostname() == "" {
		return "", false
	}
	host := strings.ToLower(u.Hostname())
	for _, excluded := range excludedDomains {
		if host == excluded || strings.HasSuffix(host, "."+excluded) {
			return "", false
		}
	}
	return host, true
}
