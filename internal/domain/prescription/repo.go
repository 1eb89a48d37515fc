package prescription

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when a lookup by id, fingerprint, or patient
	// matches nothing.
	ErrNotFound = errors.New("record not found")

	// ErrAnalysisFailed is the catch-all the orchestrator wraps around any
	// failure it surfaces to callers of Submit.
	ErrAnalysisFailed = errors.New("analysis failed")

	// ErrInvalidAIResponse marks model output that failed JSON parsing or
	// schema validation after fence stripping.
	ErrInvalidAIResponse = errors.New("model response failed validation")
)

// ResultStore holds the orchestrator's own copy of every assembled result.
// Implementations must be safe for concurrent use.
type ResultStore interface {
	Save(ctx context.Context, r *PrescriptionResult) error
	GetByID(ctx context.Context, id string) (*PrescriptionResult, error)
	// Latest returns the most recently submitted result, ErrNotFound when
	// the store is empty.
	Latest(ctx context.Context) (*PrescriptionResult, error)
}

// Ledger records a derived copy of each result and answers fingerprint
// lookups. Store always succeeds (no conflict detection) and returns the
// derived record; Update recomputes the fingerprint and overwrites the
// record. Get, Update, and FindByFingerprint return ErrNotFound when the
// id or fingerprint is absent.
type Ledger interface {
	Store(ctx context.Context, r *PrescriptionResult) (*LedgerRecord, error)
	Get(ctx context.Context, id string) (*LedgerRecord, error)
	Update(ctx context.Context, r *PrescriptionResult) (*LedgerRecord, error)
	FindByFingerprint(ctx context.Context, fingerprint string) (*LedgerRecord, error)
}

// GraphStore persists patient/prescription/medication/issue/suggestion
// nodes and answers history and fingerprint queries. One interface, two
// implementations: a connected graph database and a degraded in-memory
// fallback, selected once at startup. Mode reports which one is live
// ("connected" or "degraded").
type GraphStore interface {
	Mode() string
	StoreRecord(ctx context.Context, r *PrescriptionResult, patient PatientInfo, fingerprint string) error
	History(ctx context.Context, patient PatientInfo) ([]*PrescriptionResult, error)
	ByFingerprint(ctx context.Context, fingerprint string) (*PrescriptionResult, error)
	UpdateRecord(ctx context.Context, r *PrescriptionResult, fingerprint string) error
}

// Analyzer invokes the remote generative model and returns the validated,
// normalized analysis.
type Analyzer interface {
	Analyze(ctx context.Context, req AnalysisRequest) (*AnalysisResult, error)
}
