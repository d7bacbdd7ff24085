package providers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
)

const OpenAIName = "openai"

// OpenAIConfig holds configuration for the OpenAI client.
type OpenAIConfig struct {
	APIKey       string
	DefaultModel string
	Timeout      time.Duration
	RPS          float64 // requests per second, default 2
	BaseURL      string  // optional (tests)
	HTTPClient   *http.Client
}

// OpenAIClient implements LLMClient using the official OpenAI SDK.
// SDK-internal retries are disabled; retry policy is the caller's.
type OpenAIClient struct {
	defaultModel string
	client       openai.Client
	limiter      *RateLimiter
}

// NewOpenAIClient creates a new OpenAI client.
func NewOpenAIClient(cfg OpenAIConfig) *OpenAIClient {
	if cfg.DefaultModel == "" {
		cfg.DefaultModel = "gpt-4o"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 120 * time.Second
	}
	if cfg.RPS == 0 {
		cfg.RPS = 2.0
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(httpClient),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &OpenAIClient{
		defaultModel: cfg.DefaultModel,
		client:       openai.NewClient(opts...),
		limiter:      NewRateLimiter(cfg.RPS),
	}
}

// Name returns the client identifier.
func (c *OpenAIClient) Name() string {
	return OpenAIName
}

// Chat sends a chat completion request.
func (c *OpenAIClient) Chat(ctx context.Context, req *ChatRequest) (*ChatResult, error) {
	start := time.Now()

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	requestID := req.RequestID
	if requestID == "" {
		requestID = uuid.New().String()
	}

	model := req.Model
	if model == "" {
		model = c.defaultModel
	}

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages))
	for _, m := range req.Messages {
		switch {
		case m.Role == "system":
			messages = append(messages, openai.SystemMessage(m.Content))
		case len(m.Images) > 0:
			parts := []openai.ChatCompletionContentPartUnionParam{
				openai.TextContentPart(m.Content),
			}
			for _, img := range m.Images {
				parts = append(parts, openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
					URL: "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(img),
				}))
			}
			messages = append(messages, openai.UserMessage(parts))
		default:
			messages = append(messages, openai.UserMessage(m.Content))
		}
	}

	params := openai.ChatCompletionNewParams{
		Model:    shared.ChatModel(model),
		Messages: messages,
	}
	if req.Temperature > 0 {
		params.Temperature = openai.Float(req.Temperature)
	}
	if req.MaxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(req.MaxTokens))
	}

	if req.ResponseFormat != nil && len(req.ResponseFormat.JSONSchema) > 0 {
		rf, err := openAIResponseFormat(req.ResponseFormat.JSONSchema)
		if err != nil {
			return nil, err
		}
		params.ResponseFormat = rf
	}

	result := &ChatResult{
		RequestID: requestID,
		Provider:  OpenAIName,
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		result.Success = false
		result.ErrorType = "api_error"
		result.ErrorMessage = err.Error()
		result.ExecutionTime = time.Since(start)

		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return result, fmt.Errorf("OpenAI error (status %d): %w", apiErr.StatusCode, err)
		}
		return result, fmt.Errorf("OpenAI request failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		result.Success = false
		result.ErrorType = "empty_response"
		result.ErrorMessage = "no choices in response"
		result.ExecutionTime = time.Since(start)
		return result, fmt.Errorf("no choices in response")
	}

	result.Success = true
	result.Content = resp.Choices[0].Message.Content
	result.ModelUsed = resp.Model
	result.PromptTokens = int(resp.Usage.PromptTokens)
	result.CompletionTokens = int(resp.Usage.CompletionTokens)
	result.TotalTokens = int(resp.Usage.TotalTokens)
	result.ExecutionTime = time.Since(start)

	if req.ResponseFormat != nil && result.Content != "" {
		if parsed, perr := ParseStructuredJSON(result.Content); perr == nil {
			result.ParsedJSON = parsed
		}
	}

	return result, nil
}

// openAIResponseFormat converts the canonical {"name","strict","schema"}
// wrapper into the SDK's response format union.
func openAIResponseFormat(wrapper json.RawMessage) (openai.ChatCompletionNewParamsResponseFormatUnion, error) {
	var spec struct {
		Name   string          `json:"name"`
		Strict bool            `json:"strict"`
		Schema json.RawMessage `json:"schema"`
	}
	if err := json.Unmarshal(wrapper, &spec); err != nil {
		return openai.ChatCompletionNewParamsResponseFormatUnion{}, fmt.Errorf("invalid response format schema: %w", err)
	}

	var schemaDoc map[string]any
	if err := json.Unmarshal(spec.Schema, &schemaDoc); err != nil {
		return openai.ChatCompletionNewParamsResponseFormatUnion{}, fmt.Errorf("invalid response format schema body: %w", err)
	}

	name := spec.Name
	if name == "" {
		name = "structured_output"
	}

	return openai.ChatCompletionNewParamsResponseFormatUnion{
		OfJSONSchema: &shared.ResponseFormatJSONSchemaParam{
			JSONSchema: shared.ResponseFormatJSONSchemaJSONSchemaParam{
				Name:   name,
				Schema: schemaDoc,
				Strict: openai.Bool(spec.Strict),
			},
		},
	}, nil
}

// Verify interface
var _ LLMClient = (*OpenAIClient)(nil)
