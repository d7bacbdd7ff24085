// Package pipeline implements the two pass table of contents extraction
// flow: a fan-out discovery pass over fixed-size page windows, candidate
// aggregation, a single high-fidelity verification pass, and consolidation
// of the final record.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackzampolin/toccata/internal/extract"
)

// Config configures a Pipeline. Zero values fall back to the service
// defaults.
type Config struct {
	Extractor   extract.Extractor
	Retry       RetryPolicy
	WindowSize  int
	Parallelism int
	Logger      *slog.Logger
}

// Pipeline orchestrates a full extraction run.
type Pipeline struct {
	extractor  extract.Extractor
	retry      RetryPolicy
	dispatcher *Dispatcher
	logger     *slog.Logger
}

// New builds a Pipeline from cfg. The extractor is required.
func New(cfg Config) (*Pipeline, error) {
	if cfg.Extractor == nil {
		return nil, fmt.Errorf("pipeline requires an extractor")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	retryPolicy := cfg.Retry.normalized()
	return &Pipeline{
		extractor: cfg.Extractor,
		retry:     retryPolicy,
		dispatcher: NewDispatcher(DispatcherConfig{
			Extractor:   cfg.Extractor,
			Retry:       retryPolicy,
			WindowSize:  cfg.WindowSize,
			Parallelism: cfg.Parallelism,
			Logger:      cfg.Logger,
		}),
		logger: cfg.Logger.With("component", "pipeline"),
	}, nil
}

// Run executes discovery, verification and consolidation over the rendered
// pages. A run with no candidate pages terminates with StatusNoCandidates
// and a nil error; a failed verification pass aborts with a
// VerificationError. Context cancellation aborts with the context error.
func (p *Pipeline) Run(ctx context.Context, runID string, pages []PageImage) (*Outcome, error) {
	discovery := p.dispatcher.Dispatch(ctx, runID, pages)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	candidates := CandidatePages(discovery)
	if len(candidates) == 0 {
		p.logger.Info("No candidate pages found",
			"run_id", runID,
			"pages", len(pages),
			"windows", len(discovery))
		return &Outcome{
			Status:      StatusNoCandidates,
			WindowCount: len(discovery),
		}, nil
	}

	p.logger.Info("Discovery complete",
		"run_id", runID,
		"windows", len(discovery),
		"candidate_pages", len(candidates))

	verified, err := p.verify(ctx, runID, pages, candidates)
	if err != nil {
		return nil, err
	}

	record := Consolidate(discovery, verified)
	p.logger.Info("Run complete",
		"run_id", runID,
		"toc_entries", len(record.TocEntries))

	return &Outcome{
		Status:         StatusComplete,
		Record:         record,
		CandidatePages: candidates,
		WindowCount:    len(discovery),
	}, nil
}
