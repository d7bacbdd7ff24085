// Package render turns the leading pages of a PDF into JPEG images for
// extraction. Rendering uses pdftoppm (poppler-utils); page counts come
// from pdfcpu.
package render

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// Page is a single rendered page. Index is the zero-based page position.
type Page struct {
	Index int
	Data  []byte
}

// Error wraps a rendering failure with the document it belongs to.
type Error struct {
	Path string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("render %s: %v", filepath.Base(e.Path), e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Config configures a Renderer. Zero values fall back to the service
// defaults (first 20 pages at 150 DPI).
type Config struct {
	MaxPages int
	DPI      int
	Logger   *slog.Logger
}

// Renderer renders the front matter of PDF documents.
type Renderer struct {
	maxPages int
	dpi      int
	logger   *slog.Logger
}

func NewRenderer(cfg Config) *Renderer {
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = 20
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 150
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Renderer{
		maxPages: cfg.MaxPages,
		dpi:      cfg.DPI,
		logger:   cfg.Logger.With("component", "render"),
	}
}

// PageCount returns the total number of pages in the PDF.
func (r *Renderer) PageCount(pdfPath string) (int, error) {
	f, err := os.Open(pdfPath)
	if err != nil {
		return 0, &Error{Path: pdfPath, Err: fmt.Errorf("failed to open PDF: %w", err)}
	}
	defer f.Close()

	count, err := api.PageCount(f, nil)
	if err != nil {
		return 0, &Error{Path: pdfPath, Err: fmt.Errorf("failed to get page count: %w", err)}
	}
	return count, nil
}

// RenderLeadPages renders the first min(total, MaxPages) pages of the PDF
// to JPEG and returns them in page order. Intermediate files live in a
// temporary directory that is removed before returning.
func (r *Renderer) RenderLeadPages(ctx context.Context, pdfPath string) ([]Page, error) {
	total, err := r.PageCount(pdfPath)
	if err != nil {
		return nil, err
	}
	if total == 0 {
		return nil, nil
	}

	count := total
	if count > r.maxPages {
		count = r.maxPages
	}
	r.logger.Debug("rendering lead pages",
		"file", filepath.Base(pdfPath),
		"pages", count,
		"total", total,
		"dpi", r.dpi)

	tmpDir, err := os.MkdirTemp("", "toccata-render-*")
	if err != nil {
		return nil, &Error{Path: pdfPath, Err: fmt.Errorf("failed to create temp dir: %w", err)}
	}
	defer os.RemoveAll(tmpDir)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	type result struct {
		page int
		data []byte
		err  error
	}

	maxWorkers := runtime.NumCPU()
	results := make(chan result, count)
	sem := make(chan struct{}, maxWorkers)

	for page := 1; page <= count; page++ {
		sem <- struct{}{}
		go func(page int) {
			defer func() { <-sem }()
			data, err := r.renderPage(ctx, pdfPath, tmpDir, page)
			results <- result{page: page, data: data, err: err}
		}(page)
	}

	pages := make([]Page, count)
	for i := 0; i < count; i++ {
		res := <-results
		if res.err != nil {
			// Stop the remaining workers and wait for them to settle
			// before the deferred temp dir removal runs.
			cancel()
			for j := i + 1; j < count; j++ {
				<-results
			}
			return nil, &Error{Path: pdfPath, Err: fmt.Errorf("failed to render page %d: %w", res.page, res.err)}
		}
		pages[res.page-1] = Page{Index: res.page - 1, Data: res.data}
	}

	return pages, nil
}

// renderPage renders one page to JPEG via pdftoppm and returns its bytes.
func (r *Renderer) renderPage(ctx context.Context, pdfPath, tmpDir string, page int) ([]byte, error) {
	outputPrefix := filepath.Join(tmpDir, fmt.Sprintf("page-%04d", page))

	// -jpeg: output JPEG format
	// -f N / -l N: single page range
	// -r N: resolution in DPI
	// -singlefile: don't add page number suffix
	pageStr := strconv.Itoa(page)
	cmd := exec.CommandContext(ctx, "pdftoppm",
		"-jpeg",
		"-f", pageStr,
		"-l", pageStr,
		"-r", strconv.Itoa(r.dpi),
		"-singlefile",
		pdfPath,
		outputPrefix,
	)

	output, err := cmd.CombinedOutput()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("pdftoppm failed: %w (output: %s)", err, string(output))
	}

	data, err := os.ReadFile(outputPrefix + ".jpg")
	if err != nil {
		return nil, fmt.Errorf("pdftoppm did not create expected output: %w", err)
	}
	return data, nil
}
