// Package runs orchestrates a full extraction run: render the lead pages,
// execute the two pass pipeline, optionally reconcile against detected
// headings, and persist the result.
package runs

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/jackzampolin/toccata/internal/config"
	"github.com/jackzampolin/toccata/internal/extract"
	"github.com/jackzampolin/toccata/internal/home"
	"github.com/jackzampolin/toccata/internal/pipeline"
	"github.com/jackzampolin/toccata/internal/providers"
	"github.com/jackzampolin/toccata/internal/reconcile"
	"github.com/jackzampolin/toccata/internal/render"
	"github.com/jackzampolin/toccata/internal/store"
)

// Runner wires rendering, the pipeline, reconciliation and persistence.
// Configuration is read per run so hot reloads take effect on the next
// request. Each run works out of an isolated directory under the home dir
// keyed by run ID.
type Runner struct {
	configManager *config.Manager
	registry      *providers.Registry
	store         *store.Store
	home          *home.Dir
	logger        *slog.Logger
}

// NewRunner creates a Runner.
func NewRunner(cm *config.Manager, registry *providers.Registry, st *store.Store, h *home.Dir, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		configManager: cm,
		registry:      registry,
		store:         st,
		home:          h,
		logger:        logger.With("component", "runs"),
	}
}

// RunResult is the outcome of one extraction run.
type RunResult struct {
	RunID   string
	Outcome *pipeline.Outcome
}

// ProcessResult is the outcome of a full process run including headings
// reconciliation.
type ProcessResult struct {
	RunID     string              `json:"run_id"`
	BookTitle string              `json:"book_title"`
	Authors   []string            `json:"authors"`
	TOC       []reconcile.Chapter `json:"toc"`
}

// ExtractTOC runs the two pass pipeline over the PDF at pdfPath. Every run
// is persisted, including failed ones.
func (r *Runner) ExtractTOC(ctx context.Context, pdfPath string) (*RunResult, error) {
	cfg := r.configManager.Get()
	runID := uuid.New().String()
	source := filepath.Base(pdfPath)
	log := r.logger.With("run_id", runID, "source", source)

	stagedPath, err := r.stagePDF(runID, pdfPath)
	if err != nil {
		r.cleanupRunDir(runID)
		return nil, err
	}
	defer r.cleanupRunDir(runID)

	renderer := render.NewRenderer(render.Config{
		MaxPages: cfg.Pipeline.MaxPages,
		DPI:      cfg.Pipeline.RenderDPI,
		Logger:   r.logger,
	})
	rendered, err := renderer.RenderLeadPages(ctx, stagedPath)
	if err != nil {
		return nil, fmt.Errorf("failed to render pages: %w", err)
	}

	if err := r.store.CreateRun(ctx, runID, source, len(rendered)); err != nil {
		return nil, fmt.Errorf("failed to record run: %w", err)
	}

	p, err := r.buildPipeline(cfg)
	if err != nil {
		r.failRun(runID, err)
		return nil, err
	}

	pages := make([]pipeline.PageImage, len(rendered))
	for i, pg := range rendered {
		pages[i] = pipeline.PageImage{Index: pg.Index, Data: pg.Data}
	}

	log.Info("starting extraction run", "pages", len(pages))
	outcome, err := p.Run(ctx, runID, pages)
	if err != nil {
		r.failRun(runID, err)
		return nil, err
	}

	r.completeRun(runID, outcome)
	return &RunResult{RunID: runID, Outcome: outcome}, nil
}

// ProcessPDF runs ExtractTOC and then reconciles the verified entries with
// the noisy headings from the companion service.
func (r *Runner) ProcessPDF(ctx context.Context, pdfPath string) (*ProcessResult, error) {
	res, err := r.ExtractTOC(ctx, pdfPath)
	if err != nil {
		return nil, err
	}

	cfg := r.configManager.Get()
	out := &ProcessResult{
		RunID:     res.RunID,
		BookTitle: "Unknown Title",
		Authors:   []string{"Unknown Author"},
	}

	var entries []extract.TocEntry
	if res.Outcome.Record != nil {
		md := res.Outcome.Record.Metadata
		if md.BookTitle != nil && *md.BookTitle != "" {
			out.BookTitle = *md.BookTitle
		}
		if len(md.Authors) > 0 {
			out.Authors = md.Authors
		}
		entries = res.Outcome.Record.TocEntries
	}

	var headings []reconcile.Heading
	if cfg.Headings.Enabled && len(entries) > 0 {
		client := reconcile.NewHeadingsClient(cfg.Headings.URL, cfg.Headings.Timeout, r.logger)
		headings, err = client.Detect(ctx, pdfPath)
		if err != nil {
			r.logger.Warn("headings detection failed, skipping reconciliation",
				"run_id", res.RunID, "error", err)
		}
	}

	llm, err := r.registry.GetLLM(cfg.Defaults.LLMProvider)
	if err != nil {
		llm = nil
	}
	reconciler := reconcile.NewReconciler(reconcile.Config{
		Client: llm,
		Model:  cfg.Headings.MatchModel,
		Logger: r.logger,
	})
	out.TOC = reconciler.Reconcile(ctx, out.BookTitle, entries, headings)

	return out, nil
}

// buildPipeline assembles a pipeline from the current configuration.
func (r *Runner) buildPipeline(cfg *config.Config) (*pipeline.Pipeline, error) {
	client, err := r.registry.GetLLM(cfg.Defaults.LLMProvider)
	if err != nil {
		return nil, fmt.Errorf("no usable LLM provider: %w", err)
	}

	extractor, err := extract.NewClientExtractor(extract.ClientExtractorConfig{
		Client:            client,
		DiscoveryModel:    cfg.Pipeline.DiscoveryModel,
		VerificationModel: cfg.Pipeline.VerificationModel,
		Observer:          r.store,
		Logger:            r.logger,
	})
	if err != nil {
		return nil, err
	}

	return pipeline.New(pipeline.Config{
		Extractor:   extractor,
		WindowSize:  cfg.Pipeline.WindowSize,
		Parallelism: cfg.Pipeline.Parallelism,
		Retry: pipeline.RetryPolicy{
			Attempts:  uint(cfg.Pipeline.RetryAttempts),
			BaseDelay: cfg.Pipeline.RetryBaseDelay,
		},
		Logger: r.logger,
	})
}

// stagePDF copies the PDF into the run's working area so the rest of the
// run reads from an isolated path keyed by run ID.
func (r *Runner) stagePDF(runID, pdfPath string) (string, error) {
	if err := r.home.EnsureRunDir(runID); err != nil {
		return "", fmt.Errorf("failed to create run directory: %w", err)
	}

	src, err := os.Open(pdfPath)
	if err != nil {
		return "", fmt.Errorf("failed to open pdf: %w", err)
	}
	defer src.Close()

	stagedPath := r.home.RunPDFPath(runID)
	dst, err := os.Create(stagedPath)
	if err != nil {
		return "", fmt.Errorf("failed to stage pdf: %w", err)
	}
	_, err = io.Copy(dst, src)
	if closeErr := dst.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return "", fmt.Errorf("failed to stage pdf: %w", err)
	}
	return stagedPath, nil
}

func (r *Runner) cleanupRunDir(runID string) {
	if err := r.home.CleanupRunDir(runID); err != nil {
		r.logger.Warn("failed to clean run directory", "run_id", runID, "error", err)
	}
}

func (r *Runner) failRun(runID string, runErr error) {
	// Persist with a fresh context; the run context may already be dead.
	if err := r.store.FailRun(context.Background(), runID, runErr.Error()); err != nil {
		r.logger.Warn("failed to persist run failure", "run_id", runID, "error", err)
	}
}

func (r *Runner) completeRun(runID string, outcome *pipeline.Outcome) {
	status := store.RunStatusComplete
	var result json.RawMessage
	if outcome.Status == pipeline.StatusNoCandidates {
		status = store.RunStatusNoCandidates
	} else if outcome.Record != nil {
		if data, err := json.Marshal(outcome.Record); err == nil {
			result = data
		}
	}
	err := r.store.CompleteRun(context.Background(), runID, status,
		outcome.WindowCount, len(outcome.CandidatePages), result)
	if err != nil {
		r.logger.Warn("failed to persist run result", "run_id", runID, "error", err)
	}
}
