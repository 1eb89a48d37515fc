package prescription

import (
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// Analysis status values assigned by the model. Write-once in practice:
// re-running analysis on an existing result is not supported.
const (
	StatusValid   = "valid"
	StatusWarning = "warning"
	StatusInvalid = "invalid"
)

// Lifecycle tags for the simulated ledger write. Not a guarded state
// machine; the orchestrator sets them in order.
const (
	LedgerPending  = "Pending"
	LedgerRecorded = "Recorded"
	LedgerUpdated  = "Updated"
)

// Issue severities.
const (
	SeverityLow    = "low"
	SeverityMedium = "medium"
	SeverityHigh   = "high"
)

// PatientInfo identifies a patient by the (name, age, gender) triple. Age is
// free text because it arrives straight from the intake form.
type PatientInfo struct {
	Name   string `json:"name"`
	Age    string `json:"age"`
	Gender string `json:"gender"`
}

// Issue is a single problem the analysis found with a prescription.
type Issue struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Severity    string `json:"severity"`
}

// Suggestion is a recommended change or follow-up from the analysis.
type Suggestion struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// DataSources carries provenance counters from the analysis step: how many
// reference lookups ran and how many of them matched a known medicine.
type DataSources struct {
	VectorDBEntries int `json:"vectorDbEntries"`
	SearchQueries   int `json:"searchQueries"`
}

// PrescriptionResult is the central record assembled by the orchestrator.
// ID and Timestamp are immutable after creation; LastUpdated moves every
// time the ledger-refresh operation runs.
type PrescriptionResult struct {
	ID                   string       `json:"id"`
	OriginalPrescription string       `json:"originalPrescription"`
	Status               string       `json:"status"`
	Issues               []Issue      `json:"issues,omitempty"`
	Suggestions          []Suggestion `json:"suggestions,omitempty"`
	DataSources          DataSources  `json:"dataSources"`
	Timestamp            time.Time    `json:"timestamp"`
	LastUpdated          time.Time    `json:"lastUpdated"`
	BlockchainStatus     string       `json:"blockchainStatus"`
	HistoryReference     string       `json:"historyReference,omitempty"`
	Medications          []string     `json:"medications,omitempty"`
}

// Clone returns a deep copy so stored records cannot be mutated through
// slices shared with callers.
func (r *PrescriptionResult) Clone() *PrescriptionResult {
	if r == nil {
		return nil
	}
	cp := *r
	if r.Issues != nil {
		cp.Issues = append([]Issue(nil), r.Issues...)
	}
	if r.Suggestions != nil {
		cp.Suggestions = append([]Suggestion(nil), r.Suggestions...)
	}
	if r.Medications != nil {
		cp.Medications = append([]string(nil), r.Medications...)
	}
	return &cp
}

// LedgerRecord is the derived copy of a result held by the audit ledger.
// The hash is the fingerprint of the serialized result at write time.
type LedgerRecord struct {
	ID        string           `json:"id"`
	Timestamp time.Time        `json:"timestamp"`
	Status    string           `json:"status"`
	Hash      string           `json:"hash"`
	Data      LedgerRecordData `json:"data"`
}

// LedgerRecordData summarizes the result body without storing it verbatim.
type LedgerRecordData struct {
	Status           string `json:"status"`
	IssuesCount      int    `json:"issuesCount"`
	SuggestionsCount int    `json:"suggestionsCount"`
}

// AnalysisResult is the normalized output of the analysis step before it is
// merged into a PrescriptionResult.
type AnalysisResult struct {
	Status           string       `json:"status"`
	Issues           []Issue      `json:"issues"`
	Suggestions      []Suggestion `json:"suggestions"`
	DataSources      DataSources  `json:"dataSources"`
	ImageAnalysis    string       `json:"imageAnalysis,omitempty"`
	HistoryReference string       `json:"historyReference,omitempty"`
}

// ImageInput is an inline image attached to a submission: a MIME type and
// the base64-encoded payload. The 5MB size guidance is advisory and
// enforced client-side only.
type ImageInput struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

// AnalysisRequest is everything the analyzer needs for one invocation.
type AnalysisRequest struct {
	PrescriptionText   string
	Patient            PatientInfo
	CurrentMedications string
	Symptoms           string
	Image              *ImageInput
	History            []*PrescriptionResult
}

// ExtractMedicationNames pulls candidate medication names out of free-text
// prescription input: entries are comma- or newline-delimited, whitespace is
// trimmed, and the leading alphabetic run of each entry is kept as the name.
// Entries without a leading letter are dropped.
func ExtractMedicationNames(text string) []string {
	parts := strings.FieldsFunc(text, func(r rune) bool {
		return r == ',' || r == '\n' || r == '\r'
	})

	names := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		end := 0
		for _, r := range p {
			if !unicode.IsLetter(r) {
				break
			}
			end += utf8.RuneLen(r)
		}
		if end == 0 {
			continue
		}
		names = append(names, p[:end])
	}
	return names
}
