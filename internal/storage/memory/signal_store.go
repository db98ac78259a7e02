package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/wonny/screener/internal/storage"
)

// SignalStore is an in-memory storage.Backend.
// Used by --dry-run and tests; rules match the PostgreSQL store.
type SignalStore struct {
	mu      sync.Mutex
	records map[storage.Key]storage.Record
	nextID  int64
}

// NewSignalStore creates an empty store
func NewSignalStore() *SignalStore {
	return &SignalStore{records: make(map[storage.Key]storage.Record)}
}

// Compile-time interface check.
var _ storage.Backend = (*SignalStore)(nil)

// EnsureSchema is a no-op
func (s *SignalStore) EnsureSchema(ctx context.Context) error {
	return ctx.Err()
}

// DeleteBefore removes records scanned before cutoff
func (s *SignalStore) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for k, r := range s.records {
		if r.ScannedAt.Before(cutoff) {
			delete(s.records, k)
			n++
		}
	}
	return n, nil
}

// Insert writes one record according to policy
func (s *SignalStore) Insert(ctx context.Context, rec storage.Record, policy storage.Policy) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if err := rec.Validate(); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := rec.Key()
	existing, ok := s.records[key]
	if ok {
		if policy == storage.PolicySkip {
			return false, nil
		}
		existing.Signal.StrategyName = rec.Signal.StrategyName
		existing.Signal.Price = rec.Signal.Price
		existing.Signal.Indicators = rec.Signal.Indicators
		existing.Signal.ScannedAt = rec.ScannedAt
		existing.ScannedAt = rec.ScannedAt
		s.records[key] = existing
		return true, nil
	}

	s.nextID++
	rec.ID = s.nextID
	rec.Processed = false
	s.records[key] = rec
	return true, nil
}

// All returns every record ordered by strategy then symbol
func (s *SignalStore) All() []storage.Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]storage.Record, 0, len(s.records))
	for _, r := range s.records {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Signal.StrategyKey != out[j].Signal.StrategyKey {
			return out[i].Signal.StrategyKey < out[j].Signal.StrategyKey
		}
		return out[i].Signal.Symbol < out[j].Signal.Symbol
	})
	return out
}

// Len returns the number of stored records
func (s *SignalStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}
