package screening

import (
	"errors"
	"reflect"
	"testing"

	"github.com/rxguard/rxguard/internal/domain/prescription"
)

const validAnalysisJSON = `{
	"status": "warning",
	"issues": [
		{"title": "Dosage above range", "description": "800mg exceeds the usual single dose", "severity": "medium"}
	],
	"suggestions": [
		{"title": "Reduce dose", "description": "Consider 400mg per administration"}
	],
	"dataSources": {"vectorDbEntries": 1, "searchQueries": 2}
}`

func TestStripCodeFences(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"no fences", `{"a":1}`, `{"a":1}`},
		{"plain fences", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"json tag", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"no trailing newline", "```json\n{\"a\":1}```", `{"a":1}`},
		{"surrounding whitespace", "  \n```json\n{\"a\":1}\n```\n  ", `{"a":1}`},
		{"crlf", "```json\r\n{\"a\":1}\r\n```", `{"a":1}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := StripCodeFences(tc.in); got != tc.want {
				t.Errorf("StripCodeFences(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestParseAnalysis_FenceEquivalence(t *testing.T) {
	plain, err := ParseAnalysis(validAnalysisJSON)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	fenced, err := ParseAnalysis("```json\n" + validAnalysisJSON + "\n```")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(plain, fenced) {
		t.Errorf("fenced and plain payloads parsed differently:\n%+v\n%+v", plain, fenced)
	}
}

func TestParseAnalysis_Decodes(t *testing.T) {
	analysis, err := ParseAnalysis(validAnalysisJSON)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if analysis.Status != prescription.StatusWarning {
		t.Errorf("expected status warning, got %s", analysis.Status)
	}
	if len(analysis.Issues) != 1 || analysis.Issues[0].Severity != prescription.SeverityMedium {
		t.Errorf("issues not decoded: %+v", analysis.Issues)
	}
	if len(analysis.Suggestions) != 1 {
		t.Errorf("suggestions not decoded: %+v", analysis.Suggestions)
	}
}

func TestParseAnalysis_Rejections(t *testing.T) {
	cases := []struct {
		name string
		in   string
	}{
		{"prose", "I cannot review this prescription."},
		{"bad status", `{"status":"ok","issues":[],"suggestions":[],"dataSources":{"vectorDbEntries":0,"searchQueries":0}}`},
		{"bad severity", `{"status":"invalid","issues":[{"title":"t","description":"d","severity":"critical"}],"suggestions":[],"dataSources":{"vectorDbEntries":0,"searchQueries":0}}`},
		{"missing dataSources", `{"status":"valid","issues":[],"suggestions":[]}`},
		{"missing counters", `{"status":"valid","issues":[],"suggestions":[],"dataSources":{}}`},
		{"truncated", `{"status":"valid","issues":[`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseAnalysis(tc.in)
			if !errors.Is(err, ErrInvalidResponse) {
				t.Fatalf("expected ErrInvalidResponse, got %v", err)
			}
		})
	}
}

func TestParseAnalysis_OptionalFields(t *testing.T) {
	in := `{
		"status": "valid",
		"issues": [],
		"suggestions": [],
		"dataSources": {"vectorDbEntries": 0, "searchQueries": 1},
		"imageAnalysis": "handwritten script for amoxicillin",
		"historyReference": "matches prior amoxicillin course from March"
	}`
	analysis, err := ParseAnalysis(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if analysis.ImageAnalysis == "" || analysis.HistoryReference == "" {
		t.Errorf("optional fields dropped: %+v", analysis)
	}
}
