package genai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestGenerateContent(t *testing.T) {
	var gotPath, gotKey string
	var gotBody generateRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.URL.Query().Get("key")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"{\"status\":"},{"text":"\"valid\"}"}]}}]}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "test-key", "gemini-1.5-flash", 5*time.Second)
	text, err := client.GenerateContent(context.Background(), []Part{{Text: "analyze this"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if text != `{"status":"valid"}` {
		t.Errorf("expected concatenated candidate text, got %q", text)
	}
	if gotPath != "/v1beta/models/gemini-1.5-flash:generateContent" {
		t.Errorf("unexpected path %s", gotPath)
	}
	if gotKey != "test-key" {
		t.Errorf("expected api key in query, got %q", gotKey)
	}
	if len(gotBody.Contents) != 1 || len(gotBody.Contents[0].Parts) != 1 {
		t.Fatalf("expected one content with one part, got %+v", gotBody.Contents)
	}
	if gotBody.Contents[0].Parts[0].Text != "analyze this" {
		t.Errorf("unexpected prompt part %q", gotBody.Contents[0].Parts[0].Text)
	}
}

func TestGenerateContent_InlineImage(t *testing.T) {
	var gotBody generateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"ok"}]}}]}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "k", "m", 5*time.Second)
	parts := []Part{
		{Text: "read the attached prescription"},
		{InlineData: &InlineData{MIMEType: "image/png", Data: "aGVsbG8="}},
	}
	if _, err := client.GenerateContent(context.Background(), parts); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(gotBody.Contents[0].Parts) != 2 {
		t.Fatalf("expected 2 parts, got %d", len(gotBody.Contents[0].Parts))
	}
	img := gotBody.Contents[0].Parts[1].InlineData
	if img == nil || img.MIMEType != "image/png" || img.Data != "aGVsbG8=" {
		t.Errorf("inline image not carried through: %+v", img)
	}
}

func TestGenerateContent_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"quota exceeded"}}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "k", "m", 5*time.Second)
	_, err := client.GenerateContent(context.Background(), []Part{{Text: "hi"}})
	if err == nil {
		t.Fatal("expected error for non-2xx response")
	}
	if !strings.Contains(err.Error(), "429") {
		t.Errorf("expected status code in error, got %v", err)
	}
}

func TestGenerateContent_NoCandidates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"candidates":[]}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "k", "m", 5*time.Second)
	if _, err := client.GenerateContent(context.Background(), []Part{{Text: "hi"}}); err == nil {
		t.Fatal("expected error when response has no candidates")
	}
}
