package store

import (
	"context"
	"errors"

	"articleforge/types"
)

// ErrNotFound is returned when a document id has no stored document.
var ErrNotFound = errors.New("document not found")

// ListOptions controls filtering, sorting, and pagination for List.
type ListOptions struct {
	// Status filters by document status when non-empty.
	Status types.Status
	// SortBy is "ingested_at" (default) or "last_updated".
	SortBy string
	// SortOrder is "desc" (default) or "asc".
	SortOrder string
	// Page is 1-based; values below 1 are treated as 1.
	Page int
	// Limit is the page size; values below 1 default to 10.
	Limit int
}

// Store is the document store collaborator consumed by the pipeline.
type Store interface {
	// Get returns the document with the given id, or ErrNotFound.
	Get(ctx context.Context, id string) (*types.Document, error)

	// Save upserts the full document. Documents without an ID are
	// assigned one.
	Save(ctx context.Context, doc *types.Document) error

	// Delete removes the document, or returns ErrNotFound.
	Delete(ctx context.Context, id string) error

	// List returns one page of documents plus the total count of
	// documents matching the filter.
	List(ctx context.Context, opts ListOptions) ([]*types.Document, int, error)
}

func (o *ListOptions) normalize() {
	if o.Page < 1 {
		o.Page = 1
	}
	if o.Limit < 1 {
		o.Limit = 10
	}
	if o.SortBy == "" {
		o.SortBy = "ingested_at"
	}
	if o.SortOrder == "" {
		o.SortOrder = "desc"
	}
}

// cloneDocument deep-copies a document so callers never alias stored state.
func cloneDocument(d *types.Document) *types.Document {
	cp := *d
	if d.ReferenceCandidates != nil {
		cp.ReferenceCandidates = append([]types.ReferenceCandidate(nil), d.ReferenceCandidates...)
	}
	if d.AcquiredReferences != nil {
		cp.AcquiredReferences = append([]types.AcquiredReference(nil), d.AcquiredReferences...)
	}
	if d.ProcessingLog != nil {
		cp.ProcessingLog = append([]types.LogEntry(nil), d.ProcessingLog...)
	}
	return &cp
}
