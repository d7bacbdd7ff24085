package store

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"github.com/jackzampolin/toccata/internal/extract"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "toccata.db"), nil)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRunLifecycle(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.CreateRun(ctx, "run-1", "book.pdf", 12); err != nil {
		t.Fatalf("CreateRun failed: %v", err)
	}

	run, err := s.GetRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("GetRun failed: %v", err)
	}
	if run.Status != RunStatusRunning {
		t.Fatalf("expected running status, got %s", run.Status)
	}
	if run.PageCount != 12 {
		t.Fatalf("expected 12 pages, got %d", run.PageCount)
	}

	result := json.RawMessage(`{"toc_entries":[]}`)
	if err := s.CompleteRun(ctx, "run-1", RunStatusComplete, 3, 7, result); err != nil {
		t.Fatalf("CompleteRun failed: %v", err)
	}

	run, err = s.GetRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("GetRun failed: %v", err)
	}
	if run.Status != RunStatusComplete {
		t.Fatalf("expected complete status, got %s", run.Status)
	}
	if run.WindowCount != 3 || run.CandidateCount != 7 {
		t.Fatalf("counts not persisted: %+v", run)
	}
	if string(run.Result) != string(result) {
		t.Fatalf("result not persisted: %s", run.Result)
	}
	if run.CompletedAt == nil {
		t.Fatalf("completed_at not set")
	}
}

func TestFailRun(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.CreateRun(ctx, "run-2", "book.pdf", 5); err != nil {
		t.Fatalf("CreateRun failed: %v", err)
	}
	if err := s.FailRun(ctx, "run-2", "verification pass failed"); err != nil {
		t.Fatalf("FailRun failed: %v", err)
	}

	run, err := s.GetRun(ctx, "run-2")
	if err != nil {
		t.Fatalf("GetRun failed: %v", err)
	}
	if run.Status != RunStatusFailed || run.Error == "" {
		t.Fatalf("failure not persisted: %+v", run)
	}
}

func TestGetRunNotFound(t *testing.T) {
	s := openTestStore(t)
	if _, err := s.GetRun(context.Background(), "missing"); !errors.Is(err, ErrRunNotFound) {
		t.Fatalf("expected ErrRunNotFound, got %v", err)
	}
	if err := s.FailRun(context.Background(), "missing", "x"); !errors.Is(err, ErrRunNotFound) {
		t.Fatalf("expected ErrRunNotFound, got %v", err)
	}
}

func TestListRunsNewestFirst(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for _, id := range []string{"run-a", "run-b", "run-c"} {
		if err := s.CreateRun(ctx, id, "book.pdf", 1); err != nil {
			t.Fatalf("CreateRun failed: %v", err)
		}
	}

	runs, err := s.ListRuns(ctx, 2)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
}

func TestObserveAndListCalls(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	s.ObserveCall(extract.CallRecord{
		RunID:     "run-1",
		Fidelity:  extract.FidelityDiscovery,
		Window:    0,
		Provider:  "mock",
		Model:     "fast",
		PageCount: 5,
		LatencyMS: 42,
		Success:   true,
	})
	s.ObserveCall(extract.CallRecord{
		RunID:    "run-1",
		Fidelity: extract.FidelityVerification,
		Window:   extract.VerifyWindow,
		Provider: "mock",
		Model:    "strong",
		Success:  false,
		Error:    "status 503",
	})

	calls, err := s.ListCalls(ctx, "run-1")
	if err != nil {
		t.Fatalf("ListCalls failed: %v", err)
	}
	if len(calls) != 2 {
		t.Fatalf("expected 2 calls, got %d", len(calls))
	}
	if calls[0].Fidelity != string(extract.FidelityDiscovery) || !calls[0].Success {
		t.Fatalf("first call mismatch: %+v", calls[0])
	}
	if calls[1].Window != extract.VerifyWindow || calls[1].Error != "status 503" {
		t.Fatalf("second call mismatch: %+v", calls[1])
	}
}
