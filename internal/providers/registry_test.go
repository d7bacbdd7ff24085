package providers

import (
	"testing"
)

func TestRegistry(t *testing.T) {
	t.Run("register and get LLM", func(t *testing.T) {
		r := NewRegistry()
		mock := NewMockClient()

		r.RegisterLLM("test-llm", mock)

		client, err := r.GetLLM("test-llm")
		if err != nil {
			t.Fatalf("GetLLM() error = %v", err)
		}
		if client != mock {
			t.Error("got different client than registered")
		}
	})

	t.Run("get nonexistent LLM", func(t *testing.T) {
		r := NewRegistry()

		_, err := r.GetLLM("nonexistent")
		if err == nil {
			t.Error("expected error for nonexistent LLM")
		}
	})

	t.Run("list providers", func(t *testing.T) {
		r := NewRegistry()
		r.RegisterLLM("llm1", NewMockClient())
		r.RegisterLLM("llm2", NewMockClient())

		llmList := r.ListLLM()
		if len(llmList) != 2 {
			t.Errorf("ListLLM() returned %d items, want 2", len(llmList))
		}
	})
}

func TestRegistryReload(t *testing.T) {
	r := NewRegistry()

	r.Reload(RegistryConfig{
		LLMProviders: map[string]LLMProviderConfig{
			"fast":     {Type: "mock", Enabled: true},
			"disabled": {Type: "mock", Enabled: false},
			"broken":   {Type: "nope", Enabled: true},
		},
	})

	if _, err := r.GetLLM("fast"); err != nil {
		t.Fatalf("GetLLM(fast) error = %v", err)
	}
	if _, err := r.GetLLM("disabled"); err == nil {
		t.Error("disabled provider should not be registered")
	}
	if _, err := r.GetLLM("broken"); err == nil {
		t.Error("unknown provider type should be skipped")
	}

	// Reload replaces, not merges.
	r.Reload(RegistryConfig{
		LLMProviders: map[string]LLMProviderConfig{
			"other": {Type: "mock", Enabled: true},
		},
	})
	if _, err := r.GetLLM("fast"); err == nil {
		t.Error("reload should drop clients absent from new config")
	}
	if _, err := r.GetLLM("other"); err != nil {
		t.Fatalf("GetLLM(other) error = %v", err)
	}
}

func TestBuildLLMClientTypes(t *testing.T) {
	cases := []struct {
		typ     string
		wantErr bool
	}{
		{"openrouter", false},
		{"openai", false},
		{"mock", false},
		{"unknown", true},
	}

	for _, tc := range cases {
		_, err := buildLLMClient(LLMProviderConfig{Type: tc.typ, APIKey: "k", Model: "m"})
		if (err != nil) != tc.wantErr {
			t.Errorf("buildLLMClient(%q) error = %v, wantErr %v", tc.typ, err, tc.wantErr)
		}
	}
}
