package generation

import (
	"context"
	"log/slog"
	"time"

	"articleforge/types"
)

// Result is the outcome of a rewrite.
type Result struct {
	// Body is the rewritten article text.
	Body string
	// Provider names the backend that produced the result, or
	// FallbackName when the local algorithm did.
	Provider string
}

// Client drives an ordered chain of generation providers and falls back
// to the local rewrite algorithm when the chain is exhausted. Rewrite
// never fails.
type Client struct {
	providers []Provider
	timeout   time.Duration
	logger    *slog.Logger
}

// NewClient creates a Client. providers may be empty; every call then
// uses the fallback. timeout bounds each individual provider call.
func NewClient(providers []Provider, timeout time.Duration, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		providers: providers,
		timeout:   timeout,
		logger:    logger.With("component", "generation"),
	}
}

// Rewrite builds the prompt and tries each provider in priority order,
// each call time-bounded. Provider failure or timeout advances the chain;
// when all providers fail the deterministic fallback produces the result.
func (c *Client) Rewrite(ctx context.Context, title, body string, refs []types.AcquiredReference) Result {
	prompt := BuildPrompt(title, body, refs)

	for _, provider := range c.providers {
		text, err := c.tryProvider(ctx, provider, prompt)
		if err != nil {
			c.logger.Warn("generation provider failed; advancing chain",
				"provider", provider.Name(), "err", err)
			continue
		}
		c.logger.Info("generation succeeded", "provider", provider.Name())
		return Result{Body: text, Provider: provider.Name()}
	}

	c.logger.Info("all providers exhausted; using local fallback rewrite")
	return Result{
		Body:     FallbackRewrite(title, body, refs),
		Provider: FallbackName,
	}
}

func (c *Client) tryProvider(ctx context.Context, provider Provider, prompt string) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	return provider.Generate(callCtx, prompt)
}
