package document

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory Store implementation. It preserves insertion
// order per collection and is safe for concurrent use.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string][]Record
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		collections: make(map[string][]Record),
	}
}

// Count returns the number of records in the collection.
func (s *MemoryStore) Count(_ context.Context, h Handle) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.collections[h.Name]), nil
}

// Insert stores a copy of the record and returns its identifier.
func (s *MemoryStore) Insert(_ context.Context, h Handle, rec Record) (string, error) {
	if rec == nil {
		return "", fmt.Errorf("cannot insert nil record into %s", h.Name)
	}

	stored := make(Record, len(rec)+1)
	for k, v := range rec {
		stored[k] = v
	}

	id, ok := stored["_id"].(string)
	if !ok || id == "" {
		id = uuid.NewString()
		stored["_id"] = id
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.collections[h.Name] = append(s.collections[h.Name], stored)
	return id, nil
}

// FindOne returns the first record whose field equals value, in insertion order.
func (s *MemoryStore) FindOne(_ context.Context, h Handle, field string, value any) (Record, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, rec := range s.collections[h.Name] {
		if got, ok := rec[field]; ok && got == value {
			return cloneRecord(rec), true, nil
		}
	}
	return nil, false, nil
}

// List returns all records in insertion order.
func (s *MemoryStore) List(_ context.Context, h Handle) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := s.collections[h.Name]
	out := make([]Record, len(records))
	for i, rec := range records {
		out[i] = cloneRecord(rec)
	}
	return out, nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error {
	return nil
}

func cloneRecord(rec Record) Record {
	out := make(Record, len(rec))
	for k, v := range rec {
		out[k] = v
	}
	return out
}
