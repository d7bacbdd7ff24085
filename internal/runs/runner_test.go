package runs

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/jackzampolin/toccata/internal/config"
	"github.com/jackzampolin/toccata/internal/home"
	"github.com/jackzampolin/toccata/internal/providers"
	"github.com/jackzampolin/toccata/internal/store"
)

func newTestRunner(t *testing.T) (*Runner, *home.Dir) {
	t.Helper()

	cm, err := config.NewManager("")
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	h, err := home.New(t.TempDir())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := h.EnsureExists(); err != nil {
		t.Fatalf("EnsureExists failed: %v", err)
	}
	st, err := store.Open(h.DatabasePath(), nil)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	return NewRunner(cm, providers.NewRegistry(), st, h, nil), h
}

func writeSourceFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func TestStagePDFCopiesIntoRunDir(t *testing.T) {
	r, h := newTestRunner(t)
	content := []byte("%PDF-1.4 fake content")
	src := writeSourceFile(t, "book.pdf", content)

	staged, err := r.stagePDF("run-1", src)
	if err != nil {
		t.Fatalf("stagePDF failed: %v", err)
	}
	if staged != h.RunPDFPath("run-1") {
		t.Fatalf("staged at %s, want %s", staged, h.RunPDFPath("run-1"))
	}

	data, err := os.ReadFile(staged)
	if err != nil {
		t.Fatalf("failed to read staged pdf: %v", err)
	}
	if !bytes.Equal(data, content) {
		t.Fatalf("staged pdf differs from source")
	}

	r.cleanupRunDir("run-1")
	if _, err := os.Stat(h.RunDir("run-1")); !os.IsNotExist(err) {
		t.Fatalf("run directory survived cleanup: %v", err)
	}
}

func TestStagePDFMissingSource(t *testing.T) {
	r, _ := newTestRunner(t)

	if _, err := r.stagePDF("run-1", filepath.Join(t.TempDir(), "missing.pdf")); err == nil {
		t.Fatalf("expected error for missing source")
	}
}

func TestExtractTOCCleansRunDirOnFailure(t *testing.T) {
	r, h := newTestRunner(t)
	src := writeSourceFile(t, "broken.pdf", []byte("not a pdf"))

	if _, err := r.ExtractTOC(context.Background(), src); err == nil {
		t.Fatalf("expected render failure")
	}

	entries, err := os.ReadDir(h.RunsDir())
	if err != nil {
		t.Fatalf("failed to read runs dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("run working area left behind: %d entries", len(entries))
	}
}
