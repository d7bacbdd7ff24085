package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Pipeline.WindowSize != 5 {
		t.Fatalf("expected window size 5, got %d", cfg.Pipeline.WindowSize)
	}
	if cfg.Pipeline.MaxPages != 20 {
		t.Fatalf("expected max pages 20, got %d", cfg.Pipeline.MaxPages)
	}
	if cfg.Pipeline.RetryAttempts != 3 {
		t.Fatalf("expected 3 retry attempts, got %d", cfg.Pipeline.RetryAttempts)
	}
	if cfg.Pipeline.RetryBaseDelay != time.Second {
		t.Fatalf("expected 1s base delay, got %v", cfg.Pipeline.RetryBaseDelay)
	}
	if cfg.Pipeline.DiscoveryModel == cfg.Pipeline.VerificationModel {
		t.Fatalf("discovery and verification models should differ by default")
	}
	if cfg.Defaults.LLMProvider != "openrouter" {
		t.Fatalf("expected openrouter default provider, got %s", cfg.Defaults.LLMProvider)
	}
}

func TestEnabledLLMProviders(t *testing.T) {
	cfg := DefaultConfig()
	enabled := cfg.EnabledLLMProviders()
	if _, ok := enabled["openrouter"]; !ok {
		t.Fatalf("openrouter should be enabled by default")
	}
	if _, ok := enabled["openai"]; ok {
		t.Fatalf("openai should be disabled by default")
	}
}

func TestResolveEnvVars(t *testing.T) {
	t.Setenv("TOCCATA_TEST_KEY", "secret-value")

	tests := []struct {
		input string
		want  string
	}{
		{"${TOCCATA_TEST_KEY}", "secret-value"},
		{"prefix-${TOCCATA_TEST_KEY}-suffix", "prefix-secret-value-suffix"},
		{"no-vars-here", "no-vars-here"},
		{"", ""},
		{"${TOCCATA_UNSET_VAR_12345}", ""},
	}
	for _, tt := range tests {
		if got := ResolveEnvVars(tt.input); got != tt.want {
			t.Fatalf("ResolveEnvVars(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestToProviderRegistryConfig(t *testing.T) {
	t.Setenv("TOCCATA_TEST_API_KEY", "resolved-key")

	cfg := &Config{
		LLMProviders: map[string]LLMProviderCfg{
			"primary": {
				Type:      "openrouter",
				Model:     "google/gemini-2.5-flash",
				APIKey:    "${TOCCATA_TEST_API_KEY}",
				RateLimit: 2.0,
				Enabled:   true,
			},
		},
	}

	rc := cfg.ToProviderRegistryConfig()
	pc, ok := rc.LLMProviders["primary"]
	if !ok {
		t.Fatalf("primary provider missing from registry config")
	}
	if pc.APIKey != "resolved-key" {
		t.Fatalf("API key not resolved: %q", pc.APIKey)
	}
	if pc.Type != "openrouter" || pc.RateLimit != 2.0 {
		t.Fatalf("provider config not carried over: %+v", pc)
	}
}

func TestWriteDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := WriteDefault(path); err != nil {
		t.Fatalf("WriteDefault failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read written config: %v", err)
	}
	content := string(data)
	if !strings.HasPrefix(content, "# Toccata configuration") {
		t.Fatalf("missing header comment")
	}
	for _, want := range []string{"llm_providers", "pipeline", "headings", "window_size", "${OPENROUTER_API_KEY}"} {
		if !strings.Contains(content, want) {
			t.Fatalf("written config missing %q", want)
		}
	}
}
