package config

import "time"

// Config holds toccata configuration.
// Stored at: ~/.toccata/config.yaml
type Config struct {
	LLMProviders map[string]LLMProviderCfg `mapstructure:"llm_providers" yaml:"llm_providers"`
	Pipeline     PipelineCfg               `mapstructure:"pipeline" yaml:"pipeline"`
	Headings     HeadingsCfg               `mapstructure:"headings" yaml:"headings"`
	Defaults     DefaultsCfg               `mapstructure:"defaults" yaml:"defaults"`
}

// LLMProviderCfg configures an LLM provider.
type LLMProviderCfg struct {
	Type      string  `mapstructure:"type" yaml:"type"`             // "openrouter", "openai", "mock"
	Model     string  `mapstructure:"model" yaml:"model"`           // Default model name
	APIKey    string  `mapstructure:"api_key" yaml:"api_key"`       // API key (supports ${ENV_VAR} syntax)
	RateLimit float64 `mapstructure:"rate_limit" yaml:"rate_limit"` // Requests per second
	Enabled   bool    `mapstructure:"enabled" yaml:"enabled"`
}

// PipelineCfg tunes the extraction pipeline.
type PipelineCfg struct {
	WindowSize        int           `mapstructure:"window_size" yaml:"window_size"`               // Pages per discovery window
	MaxPages          int           `mapstructure:"max_pages" yaml:"max_pages"`                   // Lead pages rendered per document
	Parallelism       int           `mapstructure:"parallelism" yaml:"parallelism"`               // Concurrent discovery windows
	RetryAttempts     int           `mapstructure:"retry_attempts" yaml:"retry_attempts"`         // Total attempts per extraction call
	RetryBaseDelay    time.Duration `mapstructure:"retry_base_delay" yaml:"retry_base_delay"`     // First backoff delay
	RenderDPI         int           `mapstructure:"render_dpi" yaml:"render_dpi"`                 // Page render resolution
	DiscoveryModel    string        `mapstructure:"discovery_model" yaml:"discovery_model"`       // Fast model for the discovery pass
	VerificationModel string        `mapstructure:"verification_model" yaml:"verification_model"` // High-fidelity model for verification
}

// HeadingsCfg configures the companion heading-detection service.
type HeadingsCfg struct {
	URL        string        `mapstructure:"url" yaml:"url"`
	Timeout    time.Duration `mapstructure:"timeout" yaml:"timeout"`
	MatchModel string        `mapstructure:"match_model" yaml:"match_model"` // Model for the matching step
	Enabled    bool          `mapstructure:"enabled" yaml:"enabled"`
}

// DefaultsCfg specifies default selections.
type DefaultsCfg struct {
	LLMProvider string `mapstructure:"llm_provider" yaml:"llm_provider"` // Provider used by the pipeline
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		LLMProviders: map[string]LLMProviderCfg{
			"openrouter": {
				Type:      "openrouter",
				Model:     "google/gemini-2.5-flash",
				APIKey:    "${OPENROUTER_API_KEY}",
				RateLimit: 2.0,
				Enabled:   true,
			},
			"openai": {
				Type:    "openai",
				Model:   "gpt-4o",
				APIKey:  "${OPENAI_API_KEY}",
				Enabled: false,
			},
		},
		Pipeline: PipelineCfg{
			WindowSize:        5,
			MaxPages:          20,
			Parallelism:       4,
			RetryAttempts:     3,
			RetryBaseDelay:    time.Second,
			RenderDPI:         150,
			DiscoveryModel:    "google/gemini-2.5-flash",
			VerificationModel: "google/gemini-2.5-pro",
		},
		Headings: HeadingsCfg{
			URL:        "http://localhost:8081/get/pdf-info/detect-chapter-headings",
			Timeout:    180 * time.Second,
			MatchModel: "google/gemini-2.5-flash",
			Enabled:    true,
		},
		Defaults: DefaultsCfg{
			LLMProvider: "openrouter",
		},
	}
}

// GetLLMProvider returns an LLM provider config by name.
func (c *Config) GetLLMProvider(name string) (LLMProviderCfg, bool) {
	cfg, ok := c.LLMProviders[name]
	return cfg, ok
}

// EnabledLLMProviders returns all enabled LLM providers.
func (c *Config) EnabledLLMProviders() map[string]LLMProviderCfg {
	result := make(map[string]LLMProviderCfg)
	for name, cfg := range c.LLMProviders {
		if cfg.Enabled {
			result[name] = cfg
		}
	}
	return result
}
