package extract

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/jackzampolin/toccata/internal/providers"
)

const validExtraction = `{
	"metadata": {
		"book_title": "The Art of Fugue",
		"authors": ["J. S. Bach"],
		"publishing_house": null,
		"publishing_year": 1751
	},
	"toc_entries": [
		{"chapter_title": "Contrapunctus I", "page_number": 1, "reference_boolean": false},
		{"chapter_title": "Bibliography", "page_number": 120, "reference_boolean": true}
	]
}`

type recordingObserver struct {
	mu      sync.Mutex
	records []CallRecord
}

func (o *recordingObserver) ObserveCall(rec CallRecord) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.records = append(o.records, rec)
}

func newTestExtractor(t *testing.T, client providers.LLMClient, obs CallObserver) *ClientExtractor {
	t.Helper()
	e, err := NewClientExtractor(ClientExtractorConfig{
		Client:            client,
		DiscoveryModel:    "google/gemini-2.5-flash",
		VerificationModel: "google/gemini-2.5-pro",
		Observer:          obs,
	})
	if err != nil {
		t.Fatalf("NewClientExtractor() error = %v", err)
	}
	return e
}

func TestClientExtractorRequiresConfig(t *testing.T) {
	if _, err := NewClientExtractor(ClientExtractorConfig{}); err == nil {
		t.Error("expected error without client")
	}
	if _, err := NewClientExtractor(ClientExtractorConfig{Client: providers.NewMockClient()}); err == nil {
		t.Error("expected error without models")
	}
}

func TestClientExtractorSuccess(t *testing.T) {
	client := providers.NewMockClient()
	client.Latency = 0
	client.ResponseJSON = json.RawMessage(validExtraction)

	obs := &recordingObserver{}
	e := newTestExtractor(t, client, obs)

	result, err := e.Extract(context.Background(), Request{
		Images:   [][]byte{[]byte("page0"), []byte("page1")},
		Fidelity: FidelityDiscovery,
		RunID:    "run-1",
		Window:   0,
	})
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	if result.Metadata.BookTitle == nil || *result.Metadata.BookTitle != "The Art of Fugue" {
		t.Errorf("unexpected book title: %v", result.Metadata.BookTitle)
	}
	if result.Metadata.FilledFieldCount() != 3 {
		t.Errorf("FilledFieldCount() = %d, want 3", result.Metadata.FilledFieldCount())
	}
	if len(result.TocEntries) != 2 {
		t.Fatalf("got %d entries, want 2", len(result.TocEntries))
	}
	if !result.TocEntries[1].ReferenceBoolean {
		t.Error("bibliography entry should have reference_boolean = true")
	}

	if len(obs.records) != 1 {
		t.Fatalf("observer got %d records, want 1", len(obs.records))
	}
	rec := obs.records[0]
	if !rec.Success || rec.RunID != "run-1" || rec.Window != 0 || rec.PageCount != 2 {
		t.Errorf("unexpected call record: %+v", rec)
	}
	if rec.Model != "google/gemini-2.5-flash" {
		t.Errorf("discovery should use the discovery model, got %q", rec.Model)
	}
}

func TestClientExtractorVerificationModel(t *testing.T) {
	client := providers.NewMockClient()
	client.Latency = 0
	client.ResponseJSON = json.RawMessage(validExtraction)

	obs := &recordingObserver{}
	e := newTestExtractor(t, client, obs)

	_, err := e.Extract(context.Background(), Request{
		Images:   [][]byte{[]byte("page")},
		Fidelity: FidelityVerification,
		Window:   VerifyWindow,
	})
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	if obs.records[0].Model != "google/gemini-2.5-pro" {
		t.Errorf("verification should use the verification model, got %q", obs.records[0].Model)
	}
}

func TestClientExtractorNoImages(t *testing.T) {
	e := newTestExtractor(t, providers.NewMockClient(), nil)

	_, err := e.Extract(context.Background(), Request{Fidelity: FidelityDiscovery})
	if !IsFatal(err) {
		t.Fatalf("empty request should be fatal, got %v", err)
	}
}

func TestClientExtractorClassifiesProviderError(t *testing.T) {
	client := providers.NewMockClient()
	client.ShouldFail = true
	client.FailError = errors.New("openrouter API error: status 429")

	obs := &recordingObserver{}
	e := newTestExtractor(t, client, obs)

	_, err := e.Extract(context.Background(), Request{
		Images:   [][]byte{[]byte("page")},
		Fidelity: FidelityDiscovery,
	})
	if !IsTransient(err) {
		t.Fatalf("rate limit should classify as transient, got %v", err)
	}

	if len(obs.records) != 1 || obs.records[0].Success {
		t.Errorf("failed call should record an unsuccessful observation: %+v", obs.records)
	}
}

func TestClientExtractorInvalidJSONIsFatal(t *testing.T) {
	client := providers.NewMockClient()
	client.Latency = 0
	client.ResponseText = "I could not find a table of contents, sorry."

	e := newTestExtractor(t, client, nil)

	_, err := e.Extract(context.Background(), Request{
		Images:   [][]byte{[]byte("page")},
		Fidelity: FidelityDiscovery,
	})
	if !IsFatal(err) {
		t.Fatalf("non-JSON response should be fatal, got %v", err)
	}
}

func TestClientExtractorSchemaViolationIsFatal(t *testing.T) {
	client := providers.NewMockClient()
	client.Latency = 0
	client.ResponseJSON = json.RawMessage(`{
		"metadata": {"book_title": null, "authors": null, "publishing_house": null, "publishing_year": null},
		"toc_entries": [{"chapter_title": "Intro", "page_number": 0, "reference_boolean": false}]
	}`)

	e := newTestExtractor(t, client, nil)

	_, err := e.Extract(context.Background(), Request{
		Images:   [][]byte{[]byte("page")},
		Fidelity: FidelityDiscovery,
	})
	if !IsFatal(err) {
		t.Fatalf("schema violation should be fatal, got %v", err)
	}
}

func TestFilledFieldCount(t *testing.T) {
	title := "T"
	year := 1999

	cases := []struct {
		name string
		meta BookMetadata
		want int
	}{
		{"empty", BookMetadata{}, 0},
		{"title only", BookMetadata{BookTitle: &title}, 1},
		{"empty author list counts", BookMetadata{Authors: []string{}}, 1},
		{"all filled", BookMetadata{BookTitle: &title, Authors: []string{"a"}, PublishingHouse: &title, PublishingYear: &year}, 4},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.meta.FilledFieldCount(); got != tc.want {
				t.Errorf("FilledFieldCount() = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestHasEntries(t *testing.T) {
	var nilResult *Result
	if nilResult.HasEntries() {
		t.Error("nil result should have no entries")
	}
	if (&Result{}).HasEntries() {
		t.Error("empty result should have no entries")
	}
	r := &Result{TocEntries: []TocEntry{{ChapterTitle: "Intro", PageNumber: 1}}}
	if !r.HasEntries() {
		t.Error("result with entries should report HasEntries")
	}
}
