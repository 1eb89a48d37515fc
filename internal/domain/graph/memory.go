package graph

import (
	"context"
	"sync"

	"github.com/rxguard/rxguard/internal/domain/prescription"
)

// MemoryStore is the degraded fallback used when the graph database is
// unreachable at startup. It keeps the same contract as Neo4jStore over a
// process-local slice, so callers never branch on which store is live.
type MemoryStore struct {
	mu      sync.RWMutex
	entries []memoryEntry
}

type memoryEntry struct {
	result      *prescription.PrescriptionResult
	patient     prescription.PatientInfo
	fingerprint string
}

// NewMemoryStore returns an empty fallback store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Mode() string { return ModeDegraded }

func (s *MemoryStore) Close(_ context.Context) error { return nil }

// StoreRecord appends a snapshot of the result keyed by patient and
// fingerprint.
func (s *MemoryStore) StoreRecord(_ context.Context, r *prescription.PrescriptionResult, patient prescription.PatientInfo, fingerprint string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, memoryEntry{
		result:      r.Clone(),
		patient:     patient,
		fingerprint: fingerprint,
	})
	return nil
}

// History returns the named patient's results, most recent first.
func (s *MemoryStore) History(_ context.Context, patient prescription.PatientInfo) ([]*prescription.PrescriptionResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	results := make([]*prescription.PrescriptionResult, 0)
	for i := len(s.entries) - 1; i >= 0; i-- {
		if s.entries[i].patient.Name == patient.Name {
			results = append(results, s.entries[i].result.Clone())
		}
	}
	return results, nil
}

// ByFingerprint returns the most recent entry stored under the
// fingerprint, or ErrNotFound.
func (s *MemoryStore) ByFingerprint(_ context.Context, fingerprint string) (*prescription.PrescriptionResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := len(s.entries) - 1; i >= 0; i-- {
		if s.entries[i].fingerprint == fingerprint {
			return s.entries[i].result.Clone(), nil
		}
	}
	return nil, prescription.ErrNotFound
}

// UpdateRecord replaces the stored snapshot and fingerprint for the
// result's id, ErrNotFound when the id was never stored.
func (s *MemoryStore) UpdateRecord(_ context.Context, r *prescription.PrescriptionResult, fingerprint string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.entries {
		if s.entries[i].result.ID == r.ID {
			s.entries[i].result = r.Clone()
			s.entries[i].fingerprint = fingerprint
			return nil
		}
	}
	return prescription.ErrNotFound
}
