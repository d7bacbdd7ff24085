package pipeline

import (
	"context"
	"log/slog"
	"sync"

	"github.com/jackzampolin/toccata/internal/extract"
)

// BuildWindows partitions n pages into ceil(n/size) contiguous windows.
// Every page index lands in exactly one window; the final window may be
// short.
func BuildWindows(n, size int) []Window {
	if n <= 0 || size <= 0 {
		return nil
	}
	windows := make([]Window, 0, (n+size-1)/size)
	for start := 0; start < n; start += size {
		end := start + size
		if end > n {
			end = n
		}
		windows = append(windows, Window{Index: len(windows), Start: start, End: end})
	}
	return windows
}

// Dispatcher fans discovery windows out to the extractor with bounded
// parallelism and collects every window's outcome.
type Dispatcher struct {
	extractor   extract.Extractor
	retry       RetryPolicy
	windowSize  int
	parallelism int
	logger      *slog.Logger
}

// DispatcherConfig configures a Dispatcher. Zero values fall back to the
// service defaults (window size 5, parallelism 4).
type DispatcherConfig struct {
	Extractor   extract.Extractor
	Retry       RetryPolicy
	WindowSize  int
	Parallelism int
	Logger      *slog.Logger
}

func NewDispatcher(cfg DispatcherConfig) *Dispatcher {
	if cfg.WindowSize <= 0 {
		cfg.WindowSize = 5
	}
	if cfg.Parallelism <= 0 {
		cfg.Parallelism = 4
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Dispatcher{
		extractor:   cfg.Extractor,
		retry:       cfg.Retry.normalized(),
		windowSize:  cfg.WindowSize,
		parallelism: cfg.Parallelism,
		logger:      cfg.Logger.With("component", "dispatcher"),
	}
}

// Dispatch runs one retried discovery extraction per window and waits for
// every window to settle. A failed window is recorded in its slot and never
// affects its siblings.
func (d *Dispatcher) Dispatch(ctx context.Context, runID string, pages []PageImage) []WindowResult {
	windows := BuildWindows(len(pages), d.windowSize)
	if len(windows) == 0 {
		return nil
	}

	results := make([]WindowResult, len(windows))
	sem := make(chan struct{}, d.parallelism)
	var wg sync.WaitGroup

	for i, win := range windows {
		wg.Add(1)
		go func(i int, win Window) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				results[i] = WindowResult{Window: win, Err: ctx.Err()}
				return
			}

			images := make([][]byte, 0, win.Len())
			for _, page := range pages[win.Start:win.End] {
				images = append(images, page.Data)
			}

			res, err := d.retry.Do(ctx, func(ctx context.Context) (*extract.Result, error) {
				return d.extractor.Extract(ctx, extract.Request{
					Images:   images,
					Fidelity: extract.FidelityDiscovery,
					RunID:    runID,
					Window:   win.Index,
				})
			})
			if err != nil {
				d.logger.Warn("Discovery window failed",
					"run_id", runID,
					"window", win.Index,
					"pages", win.Len(),
					"error", err)
				results[i] = WindowResult{Window: win, Err: err}
				return
			}

			d.logger.Debug("Discovery window complete",
				"run_id", runID,
				"window", win.Index,
				"entries", len(res.TocEntries))
			results[i] = WindowResult{Window: win, Result: res}
		}(i, win)
	}

	wg.Wait()
	return results
}
