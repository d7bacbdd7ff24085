package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

// writeTwoPagePDF writes a minimal two page PDF with a correct xref table.
func writeTwoPagePDF(t *testing.T, path string) {
	t.Helper()

	var b bytes.Buffer
	offsets := make([]int, 0, 4)
	obj := func(s string) {
		offsets = append(offsets, b.Len())
		b.WriteString(s)
	}

	b.WriteString("%PDF-1.4\n")
	obj("1 0 obj\n<</Type/Catalog/Pages 2 0 R>>\nendobj\n")
	obj("2 0 obj\n<</Type/Pages/Kids[3 0 R 4 0 R]/Count 2>>\nendobj\n")
	obj("3 0 obj\n<</Type/Page/Parent 2 0 R/MediaBox[0 0 612 792]>>\nendobj\n")
	obj("4 0 obj\n<</Type/Page/Parent 2 0 R/MediaBox[0 0 612 792]>>\nendobj\n")

	start := b.Len()
	b.WriteString("xref\n0 5\n0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&b, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&b, "trailer\n<</Size 5/Root 1 0 R>>\nstartxref\n%d\n%%%%EOF\n", start)

	if err := os.WriteFile(path, b.Bytes(), 0o644); err != nil {
		t.Fatalf("failed to write test PDF: %v", err)
	}
}

func TestPageCount(t *testing.T) {
	pdfPath := filepath.Join(t.TempDir(), "two-page.pdf")
	writeTwoPagePDF(t, pdfPath)

	r := NewRenderer(Config{})
	count, err := r.PageCount(pdfPath)
	if err != nil {
		t.Fatalf("PageCount failed: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 pages, got %d", count)
	}
}

func TestPageCountInvalidPDF(t *testing.T) {
	pdfPath := filepath.Join(t.TempDir(), "broken.pdf")
	if err := os.WriteFile(pdfPath, []byte("not a pdf"), 0o644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	r := NewRenderer(Config{})
	_, err := r.PageCount(pdfPath)
	if err == nil {
		t.Fatalf("expected error for invalid PDF")
	}
	var re *Error
	if !errors.As(err, &re) {
		t.Fatalf("expected render error, got %v", err)
	}
}

func TestRenderLeadPagesCancelled(t *testing.T) {
	pdfPath := filepath.Join(t.TempDir(), "two-page.pdf")
	writeTwoPagePDF(t, pdfPath)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// All page workers fail with the context error; the failure path must
	// wait for every worker to settle before returning.
	r := NewRenderer(Config{MaxPages: 2})
	_, err := r.RenderLeadPages(ctx, pdfPath)
	if err == nil {
		t.Fatalf("expected error from cancelled context")
	}
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
