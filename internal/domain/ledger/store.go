package ledger

import (
	"context"
	"sync"
	"time"

	"github.com/rxguard/rxguard/internal/domain/prescription"
)

// MemoryStore is a process-local audit ledger. Writes pause for a
// configurable delay to mimic the commit latency of an external ledger
// backend; state resets on restart.
type MemoryStore struct {
	mu         sync.RWMutex
	records    map[string]*prescription.LedgerRecord
	writeDelay time.Duration
}

// NewMemoryStore returns an empty ledger whose writes block for delay
// before committing. A zero or negative delay commits immediately.
func NewMemoryStore(delay time.Duration) *MemoryStore {
	return &MemoryStore{
		records:    make(map[string]*prescription.LedgerRecord),
		writeDelay: delay,
	}
}

// Store derives a record from the result and commits it under the result
// id, overwriting any previous record with the same id.
func (s *MemoryStore) Store(ctx context.Context, r *prescription.PrescriptionResult) (*prescription.LedgerRecord, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	rec, err := deriveRecord(r)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.records[rec.ID] = rec
	s.mu.Unlock()
	return cloneRecord(rec), nil
}

// Get returns the record stored under id.
func (s *MemoryStore) Get(ctx context.Context, id string) (*prescription.LedgerRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[id]
	if !ok {
		return nil, prescription.ErrNotFound
	}
	return cloneRecord(rec), nil
}

// Update recomputes the fingerprint from the current result and overwrites
// the stored record. The record must already exist.
func (s *MemoryStore) Update(ctx context.Context, r *prescription.PrescriptionResult) (*prescription.LedgerRecord, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	rec, err := deriveRecord(r)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[rec.ID]; !ok {
		return nil, prescription.ErrNotFound
	}
	s.records[rec.ID] = rec
	return cloneRecord(rec), nil
}

// FindByFingerprint scans for the record whose stored hash matches.
func (s *MemoryStore) FindByFingerprint(ctx context.Context, fingerprint string) (*prescription.LedgerRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, rec := range s.records {
		if rec.Hash == fingerprint {
			return cloneRecord(rec), nil
		}
	}
	return nil, prescription.ErrNotFound
}

func (s *MemoryStore) wait(ctx context.Context) error {
	if s.writeDelay <= 0 {
		return nil
	}
	t := time.NewTimer(s.writeDelay)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func deriveRecord(r *prescription.PrescriptionResult) (*prescription.LedgerRecord, error) {
	hash, err := fingerprintOf(r)
	if err != nil {
		return nil, err
	}
	return &prescription.LedgerRecord{
		ID:        r.ID,
		Timestamp: r.Timestamp,
		Status:    r.Status,
		Hash:      hash,
		Data: prescription.LedgerRecordData{
			Status:           r.Status,
			IssuesCount:      len(r.Issues),
			SuggestionsCount: len(r.Suggestions),
		},
	}, nil
}

func cloneRecord(rec *prescription.LedgerRecord) *prescription.LedgerRecord {
	cp := *rec
	return &cp
}
