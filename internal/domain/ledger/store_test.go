package ledger

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/rxguard/rxguard/internal/domain/prescription"
)

func testResult(id, status string) *prescription.PrescriptionResult {
	return &prescription.PrescriptionResult{
		ID:                   id,
		OriginalPrescription: "Amoxicillin 500mg three times daily",
		Status:               status,
		Issues: []prescription.Issue{
			{Title: "Possible allergy", Description: "Penicillin class", Severity: prescription.SeverityHigh},
		},
		Suggestions: []prescription.Suggestion{
			{Title: "Confirm allergy history", Description: "Ask about prior reactions"},
		},
		Timestamp:        time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC),
		LastUpdated:      time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC),
		BlockchainStatus: prescription.LedgerPending,
	}
}

func TestFingerprint_KnownValues(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"", "00000000"},
		{"a", "00000061"},
		{"ab", "00000c21"},
	}
	for _, tc := range cases {
		if got := Fingerprint([]byte(tc.in)); got != tc.want {
			t.Errorf("Fingerprint(%q) = %s, want %s", tc.in, got, tc.want)
		}
	}
}

func TestFingerprint_Deterministic(t *testing.T) {
	data := []byte(`{"id":"abc","status":"warning"}`)
	first := Fingerprint(data)
	for i := 0; i < 5; i++ {
		if got := Fingerprint(data); got != first {
			t.Fatalf("fingerprint changed between calls: %s vs %s", first, got)
		}
	}
}

func TestFingerprint_Format(t *testing.T) {
	hexRe := regexp.MustCompile(`^[0-9a-f]{8}$`)
	inputs := [][]byte{
		[]byte("short"),
		[]byte(`{"id":"550e8400-e29b-41d4-a716-446655440000"}`),
		make([]byte, 0),
	}
	// Long high-byte input forces the accumulator through signed overflow.
	overflow := make([]byte, 64)
	for i := range overflow {
		overflow[i] = 0xff
	}
	inputs = append(inputs, overflow)

	for _, in := range inputs {
		if got := Fingerprint(in); !hexRe.MatchString(got) {
			t.Errorf("Fingerprint(%d bytes) = %q, want 8 lowercase hex digits", len(in), got)
		}
	}
}

func TestStore_DerivesRecord(t *testing.T) {
	store := NewMemoryStore(0)
	r := testResult("res-1", prescription.StatusWarning)

	rec, err := store.Store(context.Background(), r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.ID != "res-1" {
		t.Errorf("expected record id res-1, got %s", rec.ID)
	}
	if rec.Status != prescription.StatusWarning {
		t.Errorf("expected status warning, got %s", rec.Status)
	}
	if rec.Data.IssuesCount != 1 || rec.Data.SuggestionsCount != 1 {
		t.Errorf("expected counts 1/1, got %d/%d", rec.Data.IssuesCount, rec.Data.SuggestionsCount)
	}
	if !rec.Timestamp.Equal(r.Timestamp) {
		t.Errorf("expected timestamp %v, got %v", r.Timestamp, rec.Timestamp)
	}

	got, err := store.Get(context.Background(), "res-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Hash != rec.Hash {
		t.Errorf("stored hash %s does not match returned hash %s", got.Hash, rec.Hash)
	}
}

func TestStore_OverwritesExisting(t *testing.T) {
	store := NewMemoryStore(0)
	r := testResult("res-1", prescription.StatusValid)
	if _, err := store.Store(context.Background(), r); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	r.Status = prescription.StatusInvalid
	if _, err := store.Store(context.Background(), r); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := store.Get(context.Background(), "res-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status != prescription.StatusInvalid {
		t.Errorf("expected overwritten status invalid, got %s", got.Status)
	}
}

func TestGet_NotFound(t *testing.T) {
	store := NewMemoryStore(0)
	if _, err := store.Get(context.Background(), "missing"); !errors.Is(err, prescription.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdate_RecomputesFingerprint(t *testing.T) {
	store := NewMemoryStore(0)
	r := testResult("res-1", prescription.StatusWarning)

	first, err := store.Store(context.Background(), r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	r.BlockchainStatus = prescription.LedgerRecorded
	updated, err := store.Update(context.Background(), r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Hash == first.Hash {
		t.Errorf("expected update to recompute hash, both are %s", first.Hash)
	}

	got, err := store.Get(context.Background(), "res-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Hash != updated.Hash {
		t.Errorf("expected stored hash %s, got %s", updated.Hash, got.Hash)
	}
}

func TestUpdate_NotFound(t *testing.T) {
	store := NewMemoryStore(0)
	r := testResult("ghost", prescription.StatusValid)
	if _, err := store.Update(context.Background(), r); !errors.Is(err, prescription.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestFindByFingerprint(t *testing.T) {
	store := NewMemoryStore(0)
	r := testResult("res-1", prescription.StatusWarning)

	rec, err := store.Store(context.Background(), r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	found, err := store.FindByFingerprint(context.Background(), rec.Hash)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if found.ID != "res-1" {
		t.Errorf("expected res-1, got %s", found.ID)
	}

	if _, err := store.FindByFingerprint(context.Background(), "ffffffff"); !errors.Is(err, prescription.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown fingerprint, got %v", err)
	}
}

func TestStore_WriteDelayHonorsContext(t *testing.T) {
	store := NewMemoryStore(5 * time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.Store(ctx, testResult("res-1", prescription.StatusValid))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}

	if _, err := store.Get(context.Background(), "res-1"); !errors.Is(err, prescription.ErrNotFound) {
		t.Fatalf("expected no record after canceled write, got %v", err)
	}
}
