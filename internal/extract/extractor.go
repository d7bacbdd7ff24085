package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackzampolin/toccata/internal/providers"
)

// Fidelity selects which inference configuration an invocation uses.
// Discovery is the coarse first pass; verification is the focused,
// higher-fidelity second pass.
type Fidelity string

const (
	FidelityDiscovery    Fidelity = "discovery"
	FidelityVerification Fidelity = "verification"
)

// Request is one extraction invocation over a set of page images.
type Request struct {
	Images   [][]byte
	Fidelity Fidelity

	// RunID ties the call to a pipeline run for observability.
	RunID string

	// Window is the discovery window index, or -1 for verification.
	Window int
}

// Extractor is the extraction capability boundary. Implementations return
// either a parsed Result or a classified *Failure.
type Extractor interface {
	Name() string
	Extract(ctx context.Context, req Request) (*Result, error)
}

// ClientExtractorConfig configures a ClientExtractor.
type ClientExtractorConfig struct {
	Client providers.LLMClient

	// Model per fidelity. The original system used a fast model for
	// discovery and a stronger one for verification.
	DiscoveryModel    string
	VerificationModel string

	MaxTokens int           // default 8192
	Timeout   time.Duration // per-call timeout, default 120s

	// Observer receives a record per capability call (optional).
	Observer CallObserver

	Logger *slog.Logger
}

// ClientExtractor implements Extractor on top of a providers.LLMClient,
// with schema-constrained structured output and local validation.
type ClientExtractor struct {
	client            providers.LLMClient
	discoveryModel    string
	verificationModel string
	maxTokens         int
	timeout           time.Duration
	observer          CallObserver
	logger            *slog.Logger
}

// NewClientExtractor creates an extractor backed by an LLM client.
func NewClientExtractor(cfg ClientExtractorConfig) (*ClientExtractor, error) {
	if cfg.Client == nil {
		return nil, fmt.Errorf("extract: LLM client is required")
	}
	if cfg.DiscoveryModel == "" || cfg.VerificationModel == "" {
		return nil, fmt.Errorf("extract: discovery and verification models are required")
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 8192
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 120 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &ClientExtractor{
		client:            cfg.Client,
		discoveryModel:    cfg.DiscoveryModel,
		verificationModel: cfg.VerificationModel,
		maxTokens:         cfg.MaxTokens,
		timeout:           cfg.Timeout,
		observer:          cfg.Observer,
		logger:            logger.With("component", "extractor", "provider", cfg.Client.Name()),
	}, nil
}

// Name returns the backing provider name.
func (e *ClientExtractor) Name() string {
	return e.client.Name()
}

// Extract issues one structured-inference call over the request images.
// Failures are returned as classified *Failure values; the caller decides
// whether to retry.
func (e *ClientExtractor) Extract(ctx context.Context, req Request) (*Result, error) {
	if len(req.Images) == 0 {
		return nil, Fatal("no page images in request", nil)
	}

	model := e.discoveryModel
	if req.Fidelity == FidelityVerification {
		model = e.verificationModel
	}

	chatReq := &providers.ChatRequest{
		Model:       model,
		Temperature: 0.1,
		MaxTokens:   e.maxTokens,
		Timeout:     e.timeout,
		Messages: []providers.Message{
			{Role: "system", Content: SystemPrompt},
			{Role: "user", Content: BuildUserPrompt(len(req.Images)), Images: req.Images},
		},
		ResponseFormat: ResponseFormat(),
	}

	start := time.Now()
	chatRes, err := e.client.Chat(ctx, chatReq)
	e.observe(req, chatRes, model, time.Since(start), err)

	if err != nil {
		classified := Classify(err)
		e.logger.Warn("extraction call failed",
			"fidelity", req.Fidelity,
			"model", model,
			"pages", len(req.Images),
			"kind", KindOf(classified),
			"error", err,
		)
		return nil, classified
	}

	parsed := chatRes.ParsedJSON
	if len(parsed) == 0 {
		// Providers that lack native structured output return raw content.
		parsed, err = providers.ParseStructuredJSON(chatRes.Content)
		if err != nil {
			return nil, Fatal("response is not valid JSON", err)
		}
	}

	schemaRaw, _ := json.Marshal(ExtractionSchema["json_schema"])
	if err := providers.ValidateStructuredJSON(schemaRaw, parsed); err != nil {
		return nil, Fatal("response does not conform to extraction schema", err)
	}

	var result Result
	if err := json.Unmarshal(parsed, &result); err != nil {
		return nil, Fatal("response failed to decode", err)
	}

	e.logger.Debug("extraction call succeeded",
		"fidelity", req.Fidelity,
		"model", model,
		"pages", len(req.Images),
		"entries", len(result.TocEntries),
	)
	return &result, nil
}

func (e *ClientExtractor) observe(req Request, res *providers.ChatResult, model string, latency time.Duration, err error) {
	if e.observer == nil {
		return
	}
	rec := CallRecord{
		RunID:     req.RunID,
		Fidelity:  req.Fidelity,
		Window:    req.Window,
		Provider:  e.client.Name(),
		Model:     model,
		PageCount: len(req.Images),
		LatencyMS: latency.Milliseconds(),
		Success:   err == nil,
		Timestamp: time.Now().UTC(),
	}
	if res != nil {
		rec.PromptTokens = res.PromptTokens
		rec.CompletionTokens = res.CompletionTokens
	}
	if err != nil {
		rec.Error = err.Error()
	}
	e.observer.ObserveCall(rec)
}

var _ Extractor = (*ClientExtractor)(nil)
