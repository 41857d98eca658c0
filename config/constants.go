package config

import "time"

// Reference acquisition constants
const (
	// MaxSearchResults is the number of reference candidates requested
	// from the reference finder per document.
	MaxSearchResults = 5

	// MaxReferenceFetch limits how many candidates are fetched for
	// content, in discovery order.
	MaxReferenceFetch = 2

	// SearchTimeout bounds a single reference discovery call.
	SearchTimeout = 20 * time.Second

	// FetchTimeout bounds a single reference content fetch.
	FetchTimeout = 30 * time.Second
)

// Generation constants
const (
	// ProviderTimeout bounds a single generation provider call before
	// the chain advances to the next provider.
	ProviderTimeout = 60 * time.Second

	// EnhancedTitlePrefix marks rewritten titles.
	EnhancedTitlePrefix = "Enhanced: "

	// MaxPromptBodyChars caps how much of the original body goes into
	// the provider prompt.
	MaxPromptBodyChars = 2000

	// MaxPromptReferenceChars caps how much of each reference body goes
	// into the provider prompt.
	MaxPromptReferenceChars = 500
)

// Bulk processing constants
const (
	// BulkPacingDelay is the wait between bulk items, to respect
	// downstream search and provider rate limits.
	BulkPacingDelay = 2 * time.Second
)

// Ingestion constants
const (
	// DefaultIngestCount is how many feed items are ingested when the
	// caller does not say.
	DefaultIngestCount = 5

	// IngestExtractWorkers bounds concurrent content extraction during
	// feed ingestion.
	IngestExtractWorkers = 5
)
