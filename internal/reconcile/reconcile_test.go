package reconcile

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jackzampolin/toccata/internal/extract"
	"github.com/jackzampolin/toccata/internal/providers"
)

func testEntries() []extract.TocEntry {
	return []extract.TocEntry{
		{ChapterTitle: "The Coming Storm", PageNumber: 9},
		{ChapterTitle: "Aftermath", PageNumber: 31},
	}
}

func TestParseHeadingsWrapped(t *testing.T) {
	data := []byte(`{"headings":[{"title":"LSD","pageNumber":262,"level":1}]}`)
	headings, err := parseHeadings(data)
	if err != nil {
		t.Fatalf("parseHeadings failed: %v", err)
	}
	if len(headings) != 1 || headings[0].Title != "LSD" || headings[0].PageNumber != 262 {
		t.Fatalf("unexpected headings: %+v", headings)
	}
}

func TestParseHeadingsBareArray(t *testing.T) {
	data := []byte(`[{"title":"FUTURE","pageNumber":10,"level":0}]`)
	headings, err := parseHeadings(data)
	if err != nil {
		t.Fatalf("parseHeadings failed: %v", err)
	}
	if len(headings) != 1 || headings[0].Level != 0 {
		t.Fatalf("unexpected headings: %+v", headings)
	}
}

func TestHeadingsClientDetect(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			t.Errorf("bad multipart request: %v", err)
		}
		if _, _, err := r.FormFile("file"); err != nil {
			t.Errorf("missing file field: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"headings":[{"title":"Aftermath","pageNumber":31,"level":1}]}`))
	}))
	defer server.Close()

	pdfPath := filepath.Join(t.TempDir(), "book.pdf")
	if err := os.WriteFile(pdfPath, []byte("%PDF-1.4"), 0o644); err != nil {
		t.Fatalf("failed to write test PDF: %v", err)
	}

	client := NewHeadingsClient(server.URL, 5*time.Second, nil)
	headings, err := client.Detect(context.Background(), pdfPath)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if len(headings) != 1 || headings[0].Title != "Aftermath" {
		t.Fatalf("unexpected headings: %+v", headings)
	}
}

func TestHeadingsClientDetectServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	pdfPath := filepath.Join(t.TempDir(), "book.pdf")
	if err := os.WriteFile(pdfPath, []byte("%PDF-1.4"), 0o644); err != nil {
		t.Fatalf("failed to write test PDF: %v", err)
	}

	client := NewHeadingsClient(server.URL, 5*time.Second, nil)
	if _, err := client.Detect(context.Background(), pdfPath); err == nil {
		t.Fatalf("expected error on status 500")
	}
}

func TestValidChapters(t *testing.T) {
	tests := []struct {
		name     string
		chapters []Chapter
		verified int
		want     bool
	}{
		{"ascending pages", []Chapter{{Title: "A", PageNumber: 1}, {Title: "B", PageNumber: 5}}, 2, true},
		{"equal pages allowed", []Chapter{{Title: "A", PageNumber: 5}, {Title: "B", PageNumber: 5}}, 2, true},
		{"decreasing pages", []Chapter{{Title: "A", PageNumber: 9}, {Title: "B", PageNumber: 3}}, 2, false},
		{"more than verified", []Chapter{{Title: "A", PageNumber: 1}, {Title: "B", PageNumber: 2}}, 1, false},
		{"empty", nil, 2, false},
		{"empty title", []Chapter{{Title: "", PageNumber: 1}}, 2, false},
	}
	for _, tt := range tests {
		if got := validChapters(tt.chapters, tt.verified); got != tt.want {
			t.Fatalf("%s: validChapters = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestReconcileAcceptsValidOutput(t *testing.T) {
	mock := providers.NewMockClient()
	mock.Latency = 0
	mock.ResponseText = `[{"title":"The Coming Storm","pageNumber":11,"level":1},{"title":"Aftermath","pageNumber":33,"level":1}]`

	r := NewReconciler(Config{Client: mock})
	chapters := r.Reconcile(context.Background(), "The Book", testEntries(), []Heading{{Title: "COMING STORM", PageNumber: 11, Level: 1}})

	if len(chapters) != 2 {
		t.Fatalf("expected 2 chapters, got %d", len(chapters))
	}
	if chapters[0].PageNumber != 11 || chapters[1].PageNumber != 33 {
		t.Fatalf("reconciled page numbers not used: %+v", chapters)
	}
}

func TestReconcileFallsBackOnCallFailure(t *testing.T) {
	mock := providers.NewMockClient()
	mock.ShouldFail = true
	mock.FailError = errors.New("status 503")

	r := NewReconciler(Config{Client: mock})
	chapters := r.Reconcile(context.Background(), "The Book", testEntries(), []Heading{{Title: "Aftermath", PageNumber: 31, Level: 1}})

	if len(chapters) != 2 {
		t.Fatalf("expected fallback to verified entries, got %+v", chapters)
	}
	if chapters[0].Title != "The Coming Storm" || chapters[0].PageNumber != 9 {
		t.Fatalf("fallback lost verified data: %+v", chapters[0])
	}
}

func TestReconcileFallsBackOnInvalidOutput(t *testing.T) {
	mock := providers.NewMockClient()
	mock.Latency = 0
	// Page numbers decrease, so the output must be rejected.
	mock.ResponseText = `[{"title":"The Coming Storm","pageNumber":40,"level":1},{"title":"Aftermath","pageNumber":12,"level":1}]`

	r := NewReconciler(Config{Client: mock})
	chapters := r.Reconcile(context.Background(), "The Book", testEntries(), []Heading{{Title: "x", PageNumber: 1, Level: 0}})

	if chapters[0].PageNumber != 9 || chapters[1].PageNumber != 31 {
		t.Fatalf("invalid output was accepted: %+v", chapters)
	}
}

func TestReconcileSkipsCallWithoutHeadings(t *testing.T) {
	mock := providers.NewMockClient()

	r := NewReconciler(Config{Client: mock})
	chapters := r.Reconcile(context.Background(), "The Book", testEntries(), nil)

	if mock.RequestCount() != 0 {
		t.Fatalf("expected no LLM call without headings")
	}
	if len(chapters) != 2 {
		t.Fatalf("expected verified entries, got %+v", chapters)
	}
}

func TestBuildMatchPromptOmitsPageNumbers(t *testing.T) {
	prompt, err := buildMatchPrompt("The Book", testEntries(), []Heading{{Title: "Aftermath", PageNumber: 31, Level: 1}})
	if err != nil {
		t.Fatalf("buildMatchPrompt failed: %v", err)
	}
	// The verified list must not leak its own page numbers.
	tocSection := prompt
	if idx := strings.Index(prompt, "[HEADINGS LIST]"); idx >= 0 {
		tocSection = prompt[:idx]
	}
	if strings.Contains(tocSection, `"page_number"`) || strings.Contains(tocSection, `"pageNumber"`) {
		t.Fatalf("prompt leaks verified page numbers")
	}
}
