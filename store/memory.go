package store

import (
	"context"
	"sort"
	"sync"

	"articleforge/types"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory document store guarded by a RWMutex.
// Suitable for tests and single-node deployments without Redis.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string]*types.Document
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string]*types.Document)}
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*types.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.docs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneDocument(doc), nil
}

func (s *MemoryStore) Save(ctx context.Context, doc *types.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if doc.ID == "" {
		doc.ID = uuid.New().String()
	}
	s.docs[doc.ID] = cloneDocument(doc)
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.docs[id]; !ok {
		return ErrNotFound
	}
	delete(s.docs, id)
	return nil
}

func (s *MemoryStore) List(ctx context.Context, opts ListOptions) ([]*types.Document, int, error) {
	opts.normalize()

	s.mu.RLock()
	matched := make([]*types.Document, 0, len(s.docs))
	for _, doc := range s.docs {
		if opts.Status != "" && doc.Status != opts.Status {
			continue
		}
		matched = append(matched, cloneDocument(doc))
	}
	s.mu.RUnlock()

	sortDocuments(matched, opts)
	return paginate(matched, opts)
}

func sortDocuments(docs []*types.Document, opts ListOptions) {
	less := func(i, j int) bool {
		a, b := docs[i], docs[j]
		switch opts.SortBy {
		case "last_updated":
			if !a.LastUpdated.Equal(b.LastUpdated) {
				return a.LastUpdated.Before(b.LastUpdated)
			}
		default:
			if !a.IngestedAt.Equal(b.IngestedAt) {
				return a.IngestedAt.Before(b.IngestedAt)
			}
		}
		return a.ID < b.ID
	}
	if opts.SortOrder == "desc" {
		sort.SliceStable(docs, func(i, j int) bool { return less(j, i) })
	} else {
		sort.SliceStable(docs, less)
	}
}

func paginate(docs []*types.Document, opts ListOptions) ([]*types.Document, int, error) {
	total := len(docs)
	start := (opts.Page - 1) * opts.Limit
	if start >= total {
		return []*types.Document{}, total, nil
	}
	end := start + opts.Limit
	if end > total {
		end = total
	}
	return docs[start:end], total, nil
}
