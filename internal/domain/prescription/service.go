package prescription

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Service orchestrates one analysis submission across the analyzer, the
// local result store, the ledger, and the graph. Writes are sequenced, not
// transactional: a ledger failure after the local save leaves the local
// copy behind, and the stores are allowed to diverge.
type Service struct {
	results  ResultStore
	ledger   Ledger
	graph    GraphStore
	analyzer Analyzer
	logger   zerolog.Logger
}

func NewService(results ResultStore, ledger Ledger, graph GraphStore, analyzer Analyzer, logger zerolog.Logger) *Service {
	return &Service{
		results:  results,
		ledger:   ledger,
		graph:    graph,
		analyzer: analyzer,
		logger:   logger,
	}
}

// demoLatest is what Latest returns before anything has been submitted.
// Demo filler so the read path renders, not a real default.
var demoLatest = &PrescriptionResult{
	ID:                   "00000000-0000-0000-0000-000000000000",
	OriginalPrescription: "Paracetamol 500mg every 6 hours as needed",
	Status:               StatusValid,
	Suggestions: []Suggestion{
		{Title: "Take with food", Description: "Reduces the chance of stomach upset."},
	},
	DataSources:      DataSources{VectorDBEntries: 1, SearchQueries: 1},
	Timestamp:        time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC),
	LastUpdated:      time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC),
	BlockchainStatus: LedgerRecorded,
	Medications:      []string{"Paracetamol"},
}

// Submit runs the full pipeline for one form submission: fetch history,
// analyze, assemble the result, save locally, record in the ledger, write
// the graph, then mark the result Recorded. Graph failures are absorbed
// and logged; everything else surfaces wrapped in ErrAnalysisFailed.
func (s *Service) Submit(ctx context.Context, req AnalysisRequest) (*PrescriptionResult, error) {
	history, err := s.graph.History(ctx, req.Patient)
	if err != nil {
		s.logger.Warn().Err(err).Str("patient", req.Patient.Name).Msg("history lookup failed, analyzing without it")
		history = nil
	}
	req.History = history

	analysis, err := s.analyzer.Analyze(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAnalysisFailed, err)
	}

	now := time.Now().UTC()
	result := &PrescriptionResult{
		ID:                   uuid.NewString(),
		OriginalPrescription: req.PrescriptionText,
		Status:               analysis.Status,
		Issues:               analysis.Issues,
		Suggestions:          analysis.Suggestions,
		DataSources:          analysis.DataSources,
		Timestamp:            now,
		LastUpdated:          now,
		BlockchainStatus:     LedgerPending,
		HistoryReference:     analysis.HistoryReference,
		Medications:          ExtractMedicationNames(req.PrescriptionText),
	}
	if result.HistoryReference == "" && len(history) > 0 {
		result.HistoryReference = fmt.Sprintf("%d prior prescriptions on file", len(history))
	}

	if err := s.results.Save(ctx, result); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAnalysisFailed, err)
	}

	rec, err := s.ledger.Store(ctx, result)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAnalysisFailed, err)
	}

	if err := s.graph.StoreRecord(ctx, result, req.Patient, rec.Hash); err != nil {
		s.logger.Warn().Err(err).Str("id", result.ID).Msg("graph write failed, record kept locally and in ledger")
	}

	result.BlockchainStatus = LedgerRecorded
	if err := s.results.Save(ctx, result); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAnalysisFailed, err)
	}

	return result, nil
}

// Latest returns the most recently submitted result, falling back to the
// canned demo result when nothing has been submitted yet.
func (s *Service) Latest(ctx context.Context) (*PrescriptionResult, error) {
	r, err := s.results.Latest(ctx)
	if errors.Is(err, ErrNotFound) {
		return demoLatest.Clone(), nil
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

// GetByID fetches one stored result.
func (s *Service) GetByID(ctx context.Context, id string) (*PrescriptionResult, error) {
	return s.results.GetByID(ctx, id)
}

// RefreshLedgerStatus re-derives the ledger record for an existing result.
// The refreshed fingerprint covers the final state of the result, so the
// status flip and lastUpdated move happen before the ledger write. Graph
// propagation failures are absorbed; unknown ids surface ErrNotFound.
func (s *Service) RefreshLedgerStatus(ctx context.Context, id string) (*PrescriptionResult, error) {
	r, err := s.results.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	r.BlockchainStatus = LedgerUpdated
	r.LastUpdated = time.Now().UTC()

	rec, err := s.ledger.Update(ctx, r)
	if err != nil {
		return nil, err
	}

	if err := s.graph.UpdateRecord(ctx, r, rec.Hash); err != nil {
		s.logger.Warn().Err(err).Str("id", id).Msg("graph update failed after ledger refresh")
	}

	if err := s.results.Save(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

// FindByFingerprint resolves a fingerprint to a result, asking the graph
// first and scanning the ledger as a fallback. A clean miss is (nil, nil),
// not an error.
func (s *Service) FindByFingerprint(ctx context.Context, fingerprint string) (*PrescriptionResult, error) {
	r, err := s.graph.ByFingerprint(ctx, fingerprint)
	switch {
	case err == nil:
		// Prefer the orchestrator's own copy when it still has one: the
		// graph projection carries no ledger status.
		if local, lerr := s.results.GetByID(ctx, r.ID); lerr == nil {
			return local, nil
		}
		return r, nil
	case !errors.Is(err, ErrNotFound):
		s.logger.Warn().Err(err).Msg("graph fingerprint lookup failed, falling back to ledger scan")
	}

	rec, err := s.ledger.FindByFingerprint(ctx, fingerprint)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if local, err := s.results.GetByID(ctx, rec.ID); err == nil {
		return local, nil
	}
	return nil, nil
}

// History lists a patient's prior prescriptions, most recent first. Any
// underlying failure degrades to an empty list.
func (s *Service) History(ctx context.Context, patient PatientInfo) []*PrescriptionResult {
	history, err := s.graph.History(ctx, patient)
	if err != nil {
		s.logger.Warn().Err(err).Str("patient", patient.Name).Msg("history lookup failed")
		return []*PrescriptionResult{}
	}
	return history
}

// LedgerRecord returns the ledger's derived record for a result id.
func (s *Service) LedgerRecord(ctx context.Context, id string) (*LedgerRecord, error) {
	return s.ledger.Get(ctx, id)
}

// GraphMode reports which graph implementation is live.
func (s *Service) GraphMode() string {
	return s.graph.Mode()
}
