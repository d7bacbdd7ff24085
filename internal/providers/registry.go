package providers

import (
	"fmt"
	"log/slog"
	"sync"
)

// LLMProviderConfig is the config shape the registry instantiates from.
type LLMProviderConfig struct {
	Type      string // "openrouter", "openai", "mock"
	Model     string
	APIKey    string
	RateLimit float64 // requests per second
	Enabled   bool
}

// RegistryConfig holds provider configs keyed by name.
type RegistryConfig struct {
	LLMProviders map[string]LLMProviderConfig
}

// Registry holds references to LLM clients. It supports config-driven
// instantiation, hot-reload, and thread-safe access.
type Registry struct {
	mu         sync.RWMutex
	llmClients map[string]LLMClient
	logger     *slog.Logger
}

// NewRegistry creates a new empty provider registry.
func NewRegistry() *Registry {
	return &Registry{
		llmClients: make(map[string]LLMClient),
		logger:     slog.Default(),
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger *slog.Logger) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logger = logger
}

// RegisterLLM registers an LLM client by name.
func (r *Registry) RegisterLLM(name string, client LLMClient) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.llmClients[name] = client
	if r.logger != nil {
		r.logger.Info("registered LLM client", "name", name)
	}
}

// GetLLM returns an LLM client by name.
func (r *Registry) GetLLM(name string) (LLMClient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	client, ok := r.llmClients[name]
	if !ok {
		return nil, fmt.Errorf("LLM client not found: %s", name)
	}
	return client, nil
}

// ListLLM returns the names of all registered LLM clients.
func (r *Registry) ListLLM() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.llmClients))
	for name := range r.llmClients {
		names = append(names, name)
	}
	return names
}

// Reload replaces the registered clients with ones built from cfg.
// Disabled providers are dropped; unknown types are logged and skipped.
func (r *Registry) Reload(cfg RegistryConfig) {
	r.mu.Lock()
	defer r.mu.Unlock()

	clients := make(map[string]LLMClient, len(cfg.LLMProviders))
	for name, pc := range cfg.LLMProviders {
		if !pc.Enabled {
			continue
		}
		client, err := buildLLMClient(pc)
		if err != nil {
			if r.logger != nil {
				r.logger.Warn("skipping LLM provider", "name", name, "error", err)
			}
			continue
		}
		clients[name] = client
		if r.logger != nil {
			r.logger.Info("registered LLM client", "name", name, "type", pc.Type)
		}
	}
	r.llmClients = clients
}

func buildLLMClient(pc LLMProviderConfig) (LLMClient, error) {
	switch pc.Type {
	case "openrouter":
		return NewOpenRouterClient(OpenRouterConfig{
			APIKey:       pc.APIKey,
			DefaultModel: pc.Model,
			RPS:          pc.RateLimit,
		}), nil
	case "openai":
		return NewOpenAIClient(OpenAIConfig{
			APIKey:       pc.APIKey,
			DefaultModel: pc.Model,
			RPS:          pc.RateLimit,
		}), nil
	case "mock":
		return NewMockClient(), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider type: %s", pc.Type)
	}
}
