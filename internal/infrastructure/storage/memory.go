package storage

import (
	"context"
	"sort"
	"sync"

	"ContentEngine/internal/domain"
	"ContentEngine/internal/ports"
)

// MemoryStore keeps records in a mutex-guarded map. Used in tests and for
// local development without Postgres; compare-and-update semantics match
// the Postgres store.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]domain.ContentRecord
}

var _ ports.RecordStore = (*MemoryStore)(nil)

// NewMemoryStore builds an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: map[string]domain.ContentRecord{}}
}

// Create inserts a new record.
func (s *MemoryStore) Create(ctx context.Context, record domain.ContentRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[record.ID] = cloneRecord(record)
	return nil
}

// GetByID returns a copy of the record or domain.ErrRecordNotFound.
func (s *MemoryStore) GetByID(ctx context.Context, id string) (domain.ContentRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[id]
	if !ok {
		return domain.ContentRecord{}, domain.ErrRecordNotFound
	}
	return cloneRecord(record), nil
}

// List returns records with the given status, newest first.
func (s *MemoryStore) List(ctx context.Context, status domain.Status, limit int) ([]domain.ContentRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []domain.ContentRecord
	for _, record := range s.records {
		if status == "" || record.Status == status {
			matched = append(matched, cloneRecord(record))
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

// CompareAndUpdate applies mutate under the store lock, only when the
// record's current status equals expected.
func (s *MemoryStore) CompareAndUpdate(ctx context.Context, id string, expected domain.Status, mutate func(*domain.ContentRecord) error) (domain.ContentRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[id]
	if !ok {
		return domain.ContentRecord{}, domain.ErrRecordNotFound
	}
	if record.Status != expected {
		return domain.ContentRecord{}, &domain.ConflictError{ID: id, Expected: expected, Actual: record.Status}
	}

	working := cloneRecord(record)
	if err := mutate(&working); err != nil {
		return domain.ContentRecord{}, err
	}

	s.records[id] = cloneRecord(working)
	return working, nil
}

func cloneRecord(record domain.ContentRecord) domain.ContentRecord {
	clone := record
	if record.Results != nil {
		clone.Results = append([]domain.PlatformResult(nil), record.Results...)
	}
	return clone
}
