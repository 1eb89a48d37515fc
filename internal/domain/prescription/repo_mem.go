package prescription

import (
	"context"
	"sync"
)

// MemoryResultStore is the in-memory ResultStore implementation. Contents
// reset on process restart and are not shared across instances.
type MemoryResultStore struct {
	mu      sync.RWMutex
	results map[string]*PrescriptionResult
	order   []string
}

func NewMemoryResultStore() *MemoryResultStore {
	return &MemoryResultStore{results: make(map[string]*PrescriptionResult)}
}

// Save inserts or overwrites a result. Insertion order is remembered so
// Latest reports the most recently submitted record, not the most recently
// touched one.
func (s *MemoryResultStore) Save(ctx context.Context, r *PrescriptionResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.results[r.ID]; !ok {
		s.order = append(s.order, r.ID)
	}
	s.results[r.ID] = r.Clone()
	return nil
}

func (s *MemoryResultStore) GetByID(ctx context.Context, id string) (*PrescriptionResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.results[id]
	if !ok {
		return nil, ErrNotFound
	}
	return r.Clone(), nil
}

func (s *MemoryResultStore) Latest(ctx context.Context) (*PrescriptionResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.order) == 0 {
		return nil, ErrNotFound
	}
	return s.results[s.order[len(s.order)-1]].Clone(), nil
}
