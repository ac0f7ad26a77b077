package operate

import (
	"context"
	"sync"

	"chronicle/internal/audit/models"
)

// MemoryStore is the in-memory operate record store used by unit tests and
// local development.
type MemoryStore struct {
	mu      sync.RWMutex
	records []models.OperateRecord
}

// NewMemory constructs an empty in-memory store.
func NewMemory() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Create(_ context.Context, record models.OperateRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, record)
	return nil
}

func (s *MemoryStore) BulkCreate(_ context.Context, records []models.OperateRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, records...)
	return nil
}

func (s *MemoryStore) ListRecent(_ context.Context, orgID string, limit int) ([]models.OperateRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.OperateRecord, 0, limit)
	for i := len(s.records) - 1; i >= 0 && len(out) < limit; i-- {
		if orgID != "" && s.records[i].OrgID != orgID {
			continue
		}
		out = append(out, s.records[i])
	}
	return out, nil
}

// All returns every record in insertion order. Test helper.
func (s *MemoryStore) All() []models.OperateRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.OperateRecord{}, s.records...)
}
