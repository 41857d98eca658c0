// Package generation rewrites documents through external text-generation
// providers, with a deterministic local fallback when every provider
// fails.
package generation

import "context"

// Provider is a single text-generation backend. Implementations must be
// safe for concurrent use.
type Provider interface {
	// Name identifies the provider in processing logs and document
	// metadata.
	Name() string

	// Generate produces rewritten text for the prompt. Failures and
	// timeouts are reported as errors; the caller advances to the next
	// provider in the chain.
	Generate(ctx context.Context, prompt string) (string, error)
}

// FallbackName is recorded as the provider when the local rewrite
// algorithm produced the result.
const FallbackName = "fallback"
