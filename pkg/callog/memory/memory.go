// Package memory provides an in-memory implementation of callog.Store for
// testing and lightweight deployments. Records are stored in memory and
// lost when the process restarts. Optional LRU eviction limits memory usage.
package memory

import (
	"container/list"
	"context"
	"sort"
	"sync"

	"github.com/modelgate/modelgate/pkg/callog"
)

// entry holds a stored call record and its position in the LRU list.
type entry struct {
	rec     *callog.CallRecord
	lruElem *list.Element
}

// Store is an in-memory callog.Store with optional LRU eviction.
type Store struct {
	mu      sync.RWMutex
	entries map[string]*entry
	lruList *list.List // front = most recently used, back = least recently used
	maxSize int        // 0 = unlimited
}

// Ensure Store implements callog.Store at compile time.
var _ callog.Store = (*Store)(nil)

// New creates a new in-memory store. If maxSize is 0, the store grows
// without limit. If maxSize > 0, the oldest entry is evicted when the
// limit is reached.
func New(maxSize int) *Store {
	return &Store{
		entries: make(map[string]*entry),
		lruList: list.New(),
		maxSize: maxSize,
	}
}

// Save persists a call record in memory, stamping it with the subject
// from the context when one is present.
func (s *Store) Save(ctx context.Context, rec *callog.CallRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[rec.ID]; exists {
		return callog.ErrConflict
	}

	if subject := callog.GetSubject(ctx); subject != "" {
		rec.Subject = subject
	}

	// Evict if at capacity.
	if s.maxSize > 0 && len(s.entries) >= s.maxSize {
		s.evictOldest()
	}

	elem := s.lruList.PushFront(rec.ID)
	s.entries[rec.ID] = &entry{
		rec:     rec,
		lruElem: elem,
	}

	return nil
}

// Get retrieves a call record by ID. Returns ErrNotFound if the record
// does not exist. Scoped by subject when one is present in the context.
func (s *Store) Get(ctx context.Context, id string) (*callog.CallRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[id]
	if !ok {
		return nil, callog.ErrNotFound
	}

	// Subject scoping.
	subject := callog.GetSubject(ctx)
	if subject != "" && e.rec.Subject != subject {
		return nil, callog.ErrNotFound
	}

	return e.rec, nil
}

// List returns a paginated list of call records filtered by subject and
// optionally by provider and model, with cursor-based pagination.
func (s *Store) List(ctx context.Context, opts callog.ListOptions) (*callog.RecordList, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	subject := callog.GetSubject(ctx)

	// Collect matching entries.
	var matches []*callog.CallRecord
	for _, e := range s.entries {
		if subject != "" && e.rec.Subject != subject {
			continue
		}
		if opts.Provider != "" && e.rec.Provider != opts.Provider {
			continue
		}
		if opts.Model != "" && e.rec.Model != opts.Model {
			continue
		}
		matches = append(matches, e.rec)
	}

	// Sort by created_at. Default is desc (newest first).
	asc := opts.Order == "asc"
	sort.Slice(matches, func(i, j int) bool {
		if asc {
			if matches[i].CreatedAt != matches[j].CreatedAt {
				return matches[i].CreatedAt < matches[j].CreatedAt
			}
			return matches[i].ID < matches[j].ID
		}
		if matches[i].CreatedAt != matches[j].CreatedAt {
			return matches[i].CreatedAt > matches[j].CreatedAt
		}
		return matches[i].ID > matches[j].ID
	})

	// Apply cursor-based pagination.
	if opts.After != "" {
		idx := -1
		for i, r := range matches {
			if r.ID == opts.After {
				idx = i
				break
			}
		}
		if idx >= 0 {
			matches = matches[idx+1:]
		} else {
			matches = nil
		}
	} else if opts.Before != "" {
		idx := -1
		for i, r := range matches {
			if r.ID == opts.Before {
				idx = i
				break
			}
		}
		if idx > 0 {
			matches = matches[:idx]
		} else {
			matches = nil
		}
	}

	// Apply limit.
	limit := opts.Limit
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	hasMore := len(matches) > limit
	if hasMore {
		matches = matches[:limit]
	}

	result := &callog.RecordList{
		Object:  "list",
		Data:    matches,
		HasMore: hasMore,
	}
	if len(matches) > 0 {
		result.FirstID = matches[0].ID
		result.LastID = matches[len(matches)-1].ID
	}
	if result.Data == nil {
		result.Data = []*callog.CallRecord{}
	}

	return result, nil
}

// HealthCheck always returns nil for the in-memory store.
func (s *Store) HealthCheck(_ context.Context) error {
	return nil
}

// Close is a no-op for the in-memory store.
func (s *Store) Close() error {
	return nil
}

// evictOldest removes the least recently used entry. Caller must hold the
// write lock.
func (s *Store) evictOldest() {
	back := s.lruList.Back()
	if back == nil {
		return
	}
	id := back.Value.(string)
	s.lruList.Remove(back)
	delete(s.entries, id)
}
