package password

import (
	"context"
	"sync"

	"chronicle/internal/audit/models"
)

// MemoryStore is the in-memory password-change record store used by unit
// tests and local development.
type MemoryStore struct {
	mu      sync.RWMutex
	records []models.PasswordChangeRecord
}

// NewMemory constructs an empty in-memory store.
func NewMemory() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Create(_ context.Context, record models.PasswordChangeRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, record)
	return nil
}

func (s *MemoryStore) ListRecent(_ context.Context, limit int) ([]models.PasswordChangeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := len(s.records)
	if limit > n {
		limit = n
	}
	out := make([]models.PasswordChangeRecord, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		out = append(out, s.records[i])
	}
	return out, nil
}

// All returns every record in insertion order. Test helper.
func (s *MemoryStore) All() []models.PasswordChangeRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.PasswordChangeRecord{}, s.records...)
}
