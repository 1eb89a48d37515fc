package screening

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/rxguard/rxguard/internal/domain/prescription"
)

// ErrInvalidResponse is returned when the model's output fails JSON
// parsing or schema validation after fence stripping. It is a hard error,
// no retry and no self-repair, and aliases the domain sentinel so HTTP
// handlers can match it without importing this package.
var ErrInvalidResponse = prescription.ErrInvalidAIResponse

// analysisSchemaJSON is the fixed contract the model must satisfy. The
// enums mirror the status and severity constants in the prescription
// package.
const analysisSchemaJSON = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"required": ["status", "issues", "suggestions", "dataSources"],
	"properties": {
		"status": {"type": "string", "enum": ["valid", "warning", "invalid"]},
		"issues": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["title", "description", "severity"],
				"properties": {
					"title": {"type": "string"},
					"description": {"type": "string"},
					"severity": {"type": "string", "enum": ["low", "medium", "high"]}
				}
			}
		},
		"suggestions": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["title", "description"],
				"properties": {
					"title": {"type": "string"},
					"description": {"type": "string"}
				}
			}
		},
		"dataSources": {
			"type": "object",
			"required": ["vectorDbEntries", "searchQueries"],
			"properties": {
				"vectorDbEntries": {"type": "integer", "minimum": 0},
				"searchQueries": {"type": "integer", "minimum": 0}
			}
		},
		"imageAnalysis": {"type": "string"},
		"historyReference": {"type": "string"}
	}
}`

var analysisSchema = gojsonschema.NewStringLoader(analysisSchemaJSON)

var (
	fenceOpen  = regexp.MustCompile("^```[a-zA-Z]*[ \t]*\r?\n?")
	fenceClose = regexp.MustCompile("\r?\n?```$")
)

// StripCodeFences removes a leading fence (with optional language tag) and
// a trailing fence from the model output. Text without fences passes
// through unchanged apart from whitespace trimming.
func StripCodeFences(s string) string {
	out := strings.TrimSpace(s)
	out = fenceOpen.ReplaceAllString(out, "")
	out = fenceClose.ReplaceAllString(out, "")
	return strings.TrimSpace(out)
}

// ParseAnalysis runs the post-processing pipeline on raw model output:
// strip fences, validate against the fixed schema, decode. Every failure
// wraps ErrInvalidResponse.
func ParseAnalysis(raw string) (*prescription.AnalysisResult, error) {
	cleaned := StripCodeFences(raw)

	result, err := gojsonschema.Validate(analysisSchema, gojsonschema.NewStringLoader(cleaned))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			details = append(details, e.String())
		}
		return nil, fmt.Errorf("%w: %s", ErrInvalidResponse, strings.Join(details, "; "))
	}

	var analysis prescription.AnalysisResult
	if err := json.Unmarshal([]byte(cleaned), &analysis); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return &analysis, nil
}
