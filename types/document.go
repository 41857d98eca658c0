package types

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// Status describes where a document sits in its enhancement lifecycle.
type Status string

const (
	// StatusOriginal marks a freshly ingested document.
	StatusOriginal Status = "original"
	// StatusProcessing marks a document with an enhancement attempt in flight.
	StatusProcessing Status = "processing"
	// StatusUpdated marks a successfully enhanced document.
	StatusUpdated Status = "updated"
	// StatusFailed marks a document whose last attempt aborted. Retryable.
	StatusFailed Status = "failed"
)

// Log phases for processing log entries.
const (
	PhaseStarted   = "started"
	PhaseCompleted = "completed"
	PhaseFailed    = "failed"
)

// Document is the unit of work: an ingested article plus everything the
// enhancement pipeline derives from it.
type Document struct {
	ID string `json:"id"`

	// Source fields, immutable after ingestion.
	OriginalTitle string    `json:"original_title"`
	OriginalBody  string    `json:"original_body"`
	OriginalURL   string    `json:"original_url"`
	IngestedAt    time.Time `json:"ingested_at"`

	// Derived fields, written only by the pipeline.
	UpdatedTitle   string        `json:"updated_title,omitempty"`
	UpdatedBody    string        `json:"updated_body,omitempty"`
	LastUpdated    time.Time     `json:"last_updated,omitempty"`
	ProcessingTime time.Duration `json:"processing_time,omitempty"`
	ProviderUsed   string        `json:"provider_used,omitempty"`

	Status Status `json:"status"`

	// ReferenceCandidates holds the discovery results of the current
	// attempt; overwritten when the document is reprocessed.
	ReferenceCandidates []ReferenceCandidate `json:"reference_candidates,omitempty"`
	// AcquiredReferences is the subset of candidates whose content was
	// successfully fetched, in candidate order.
	AcquiredReferences []AcquiredReference `json:"acquired_references,omitempty"`

	// ProcessingLog is append-only and spans all attempts. It is the
	// canonical audit trail and is never truncated or reordered.
	ProcessingLog []LogEntry `json:"processing_log,omitempty"`

	WordCount WordCount `json:"word_count"`
}

// ReferenceCandidate is a search-discovered pointer to external material.
type ReferenceCandidate struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet,omitempty"`
	Domain  string `json:"domain,omitempty"`
}

// AcquiredReference is a candidate whose content was fetched.
type AcquiredReference struct {
	Title  string `json:"title"`
	URL    string `json:"url"`
	Body   string `json:"body"`
	Domain string `json:"domain,omitempty"`
}

// LogEntry records one phase of one pipeline stage.
type LogEntry struct {
	Stage     string    `json:"stage"`
	Phase     string    `json:"phase"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// WordCount holds derived word counts for the original and rewritten bodies.
type WordCount struct {
	Original int `json:"original"`
	Updated  int `json:"updated,omitempty"`
}

// AppendLog appends a processing log entry stamped with the current time.
func (d *Document) AppendLog(stage, phase, message string) {
	d.ProcessingLog = append(d.ProcessingLog, LogEntry{
		Stage:     stage,
		Phase:     phase,
		Message:   message,
		Timestamp: time.Now(),
	})
}

// SetOriginalBody sets the source body and recomputes its word count.
func (d *Document) SetOriginalBody(body string) {
	d.OriginalBody = body
	d.WordCount.Original = CountWords(body)
}

// SetUpdatedBody sets the rewritten body and recomputes its word count.
func (d *Document) SetUpdatedBody(body string) {
	d.UpdatedBody = body
	d.WordCount.Updated = CountWords(body)
}

// CountWords counts whitespace-separated tokens.
func CountWords(s string) int {
	return len(strings.Fields(s))
}

// GenerateID creates a stable short ID from a URL.
func GenerateID(url string) string {
	hash := sha256.Sum256([]byte(url))
	return hex.EncodeToString(hash[:])[:16]
}
