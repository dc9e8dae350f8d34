package ledger

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore keeps the ledger in process memory. Suitable for the demo
// deployment and for tests; data is lost on restart.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[uuid.UUID][]Record
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[uuid.UUID][]Record)}
}

// ListTransactions returns a customer's transactions, newest first.
func (s *MemoryStore) ListTransactions(_ context.Context, customerID uuid.UUID) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := s.records[customerID]
	out := make([]Record, len(records))
	copy(out, records)

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})

	return out, nil
}

// GetTransaction returns a single transaction or ErrNotFound.
func (s *MemoryStore) GetTransaction(_ context.Context, customerID, transactionID uuid.UUID) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, rec := range s.records[customerID] {
		if rec.TransactionID == transactionID {
			return rec, nil
		}
	}

	return Record{}, ErrNotFound
}

// Balance sums the customer's ledger.
func (s *MemoryStore) Balance(_ context.Context, customerID uuid.UUID) (Balance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return computeBalance(s.records[customerID]), nil
}

// Insert appends a new record.
func (s *MemoryStore) Insert(_ context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[rec.CustomerID] = append(s.records[rec.CustomerID], rec)
	return nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() {}
