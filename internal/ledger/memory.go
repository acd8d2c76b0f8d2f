package ledger

import (
	"context"
	"sort"
	"sync"
)

type memoryRepository struct {
	mu      sync.RWMutex
	entries []Entry
}

// NewMemoryRepository creates a concurrency-safe in-memory ledger repository
// for tests and dev mode.
func NewMemoryRepository() Repository {
	return &memoryRepository{}
}

func (r *memoryRepository) AppendPair(_ context.Context, debit, credit Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, debit, credit)
	return nil
}

func (r *memoryRepository) ListRecent(_ context.Context, accountNumber string, q Query) ([]Entry, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []Entry
	for _, e := range r.entries {
		if e.AccountNumber != accountNumber {
			continue
		}
		if q.Direction != "" && e.Direction != q.Direction {
			continue
		}
		if q.Counterparty != "" && e.Counterparty != q.Counterparty {
			continue
		}
		matched = append(matched, e)
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

// Count reports how many entries the in-memory repository holds; tests use it
// to assert zero side effects on failed transfers.
func Count(repo Repository) int {
	if mem, ok := repo.(*memoryRepository); ok {
		mem.mu.RLock()
		defer mem.mu.RUnlock()
		return len(mem.entries)
	}
	return 0
}
