package screening

import (
	"context"
	"fmt"

	"github.com/rxguard/rxguard/internal/domain/prescription"
	"github.com/rxguard/rxguard/internal/platform/genai"
)

// ContentGenerator is the slice of the model client the analyzer needs.
// *genai.Client satisfies it.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, parts []genai.Part) (string, error)
}

// Service runs prescription screening through the generative model. It
// implements prescription.Analyzer.
type Service struct {
	model ContentGenerator
}

// NewService creates the analyzer service.
func NewService(model ContentGenerator) *Service {
	return &Service{model: model}
}

// Analyze builds the prompt context, invokes the model once, and runs the
// validation pipeline on its output. The provenance counters come from the
// local reference lookups, not from the model's echo: searchQueries is the
// number of candidate names looked up, vectorDbEntries the number that
// matched the reference table.
func (s *Service) Analyze(ctx context.Context, req prescription.AnalysisRequest) (*prescription.AnalysisResult, error) {
	candidates := prescription.ExtractMedicationNames(req.PrescriptionText)
	matches := referenceMatches(candidates)
	sources := prescription.DataSources{
		VectorDBEntries: len(matches),
		SearchQueries:   len(candidates),
	}

	parts := []genai.Part{{Text: buildPrompt(req, matches, sources)}}
	if req.Image != nil {
		parts = append(parts, genai.Part{InlineData: &genai.InlineData{
			MIMEType: req.Image.MimeType,
			Data:     req.Image.Data,
		}})
	}

	raw, err := s.model.GenerateContent(ctx, parts)
	if err != nil {
		return nil, fmt.Errorf("invoke model: %w", err)
	}

	analysis, err := ParseAnalysis(raw)
	if err != nil {
		return nil, err
	}
	analysis.DataSources = sources
	return analysis, nil
}
