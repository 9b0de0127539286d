package activity

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/matthewbaird/rentals/internal/types"
)

// MemoryStore keeps activity in memory. Tests and the handler fixtures use it.
type MemoryStore struct {
	mu      sync.RWMutex
	entries []types.ActivityEntry
	seen    map[string]bool
}

// NewMemoryStore creates a new empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{seen: make(map[string]bool)}
}

// WriteEntries appends entries, skipping any already written for the same
// event and entity.
func (s *MemoryStore) WriteEntries(_ context.Context, entries []types.ActivityEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range entries {
		key := entryKey(e)
		if s.seen[key] {
			continue
		}
		s.seen[key] = true
		s.entries = append(s.entries, e)
	}
	return nil
}

// QueryByEntity returns the entity's entries newest first. totalCount
// ignores the cursor so it stays stable across pages.
func (s *MemoryStore) QueryByEntity(_ context.Context, entityType, entityID string, opts QueryOptions) ([]types.ActivityEntry, string, int, error) {
	cursor, err := opts.cursor()
	if err != nil {
		return nil, "", 0, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	page := []types.ActivityEntry{}
	total := 0
	for _, e := range s.entries {
		if e.IndexedEntityType != entityType || e.IndexedEntityID != entityID || !opts.matches(e) {
			continue
		}
		total++
		if cursor == nil || e.OccurredAt.Before(*cursor) {
			page = append(page, e)
		}
	}
	newestFirst(page)

	var next string
	if limit := queryLimit(opts.Limit); len(page) > limit {
		page = page[:limit]
		next = page[limit-1].OccurredAt.Format(time.RFC3339Nano)
	}
	return page, next, total, nil
}

// Search matches query case-insensitively against entry summaries.
func (s *MemoryStore) Search(_ context.Context, query string, opts SearchOptions) ([]types.ActivityEntry, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	q := strings.ToLower(query)
	hits := []types.ActivityEntry{}
	for _, e := range s.entries {
		if strings.Contains(strings.ToLower(e.Summary), q) && opts.matches(e) {
			hits = append(hits, e)
		}
	}
	newestFirst(hits)

	total := len(hits)
	if limit := searchLimit(opts.Limit); total > limit {
		hits = hits[:limit]
	}
	return hits, total, nil
}

func newestFirst(entries []types.ActivityEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].OccurredAt.After(entries[j].OccurredAt)
	})
}
