package screening

import (
	"fmt"
	"strings"

	"github.com/rxguard/rxguard/internal/domain/prescription"
)

const outputInstruction = `Respond with a single JSON object and nothing else: no prose, no markdown, no code fences.
The object must have exactly this shape:
{
  "status": "valid" | "warning" | "invalid",
  "issues": [{"title": "...", "description": "...", "severity": "low" | "medium" | "high"}],
  "suggestions": [{"title": "...", "description": "..."}],
  "dataSources": {"vectorDbEntries": 0, "searchQueries": 0},
  "imageAnalysis": "...",
  "historyReference": "..."
}
Include "imageAnalysis" only when an image was attached and "historyReference" only when prior history was given.`

// buildPrompt renders the full context for one model invocation: patient
// demographics, the prescription, reference-table matches, prior history,
// the provenance counters to echo, and the strict output instruction.
func buildPrompt(req prescription.AnalysisRequest, matches []referenceMatch, sources prescription.DataSources) string {
	var b strings.Builder

	b.WriteString("You are a clinical pharmacology assistant. Review the prescription below for dosage problems, drug interactions, contraindications, and conflicts with the patient's current medications and symptoms.\n\n")

	b.WriteString("Patient:\n")
	writeField(&b, "Name", req.Patient.Name)
	writeField(&b, "Age", req.Patient.Age)
	writeField(&b, "Gender", req.Patient.Gender)
	b.WriteString("\n")

	b.WriteString("Prescription:\n")
	b.WriteString(req.PrescriptionText)
	b.WriteString("\n\n")

	if req.CurrentMedications != "" {
		fmt.Fprintf(&b, "Current medications: %s\n\n", req.CurrentMedications)
	}
	if req.Symptoms != "" {
		fmt.Fprintf(&b, "Reported symptoms: %s\n\n", req.Symptoms)
	}

	if len(matches) > 0 {
		b.WriteString("Reference data for recognized medicines:\n")
		for _, m := range matches {
			fmt.Fprintf(&b, "- %s: dosage %s; interactions: %s; side effects: %s; contraindications: %s\n",
				m.Name,
				m.Info.Dosage,
				strings.Join(m.Info.Interactions, ", "),
				strings.Join(m.Info.SideEffects, ", "),
				strings.Join(m.Info.Contraindications, ", "))
		}
		b.WriteString("\n")
	}

	if len(req.History) > 0 {
		b.WriteString("Prior prescriptions for this patient, most recent first:\n")
		for _, h := range req.History {
			fmt.Fprintf(&b, "- [%s] status %s: %s", h.Timestamp.Format("2006-01-02"), h.Status, h.OriginalPrescription)
			if len(h.Issues) > 0 {
				titles := make([]string, 0, len(h.Issues))
				for _, issue := range h.Issues {
					titles = append(titles, issue.Title)
				}
				fmt.Fprintf(&b, " (issues: %s)", strings.Join(titles, ", "))
			}
			b.WriteString("\n")
		}
		b.WriteString("Relate the new prescription to this history in the historyReference field.\n\n")
	}

	if req.Image != nil {
		b.WriteString("A prescription image is attached. Describe what it shows in the imageAnalysis field and fold its contents into the review.\n\n")
	}

	fmt.Fprintf(&b, "Set dataSources to {\"vectorDbEntries\": %d, \"searchQueries\": %d}.\n\n", sources.VectorDBEntries, sources.SearchQueries)
	b.WriteString(outputInstruction)
	return b.String()
}

func writeField(b *strings.Builder, label, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(b, "- %s: %s\n", label, value)
}
