package home

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNewDefaultPath(t *testing.T) {
	d, err := New("")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if filepath.Base(d.Path()) != DefaultDirName {
		t.Fatalf("expected default dir name, got %s", d.Path())
	}
}

func TestEnsureExists(t *testing.T) {
	root := filepath.Join(t.TempDir(), "toccata-home")
	d, err := New(root)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if d.Exists() {
		t.Fatalf("home should not exist yet")
	}
	if err := d.EnsureExists(); err != nil {
		t.Fatalf("EnsureExists failed: %v", err)
	}
	if !d.Exists() {
		t.Fatalf("home missing after EnsureExists")
	}
	for _, dir := range []string{d.DataPath(), d.RunsDir()} {
		if _, err := os.Stat(dir); err != nil {
			t.Fatalf("expected directory %s: %v", dir, err)
		}
	}
}

func TestRunDirLifecycle(t *testing.T) {
	d, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := d.EnsureRunDir("run-1"); err != nil {
		t.Fatalf("EnsureRunDir failed: %v", err)
	}
	pdfPath := d.RunPDFPath("run-1")
	if err := os.WriteFile(pdfPath, []byte("%PDF-1.4"), 0o644); err != nil {
		t.Fatalf("failed to stage PDF: %v", err)
	}
	if err := d.CleanupRunDir("run-1"); err != nil {
		t.Fatalf("CleanupRunDir failed: %v", err)
	}
	if _, err := os.Stat(d.RunDir("run-1")); !os.IsNotExist(err) {
		t.Fatalf("run dir still present after cleanup")
	}
}
