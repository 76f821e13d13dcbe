package worksona

import "testing"

func TestFlattenConfigOuterWins(t *testing.T) {
	raw := map[string]any{
		"provider": "anthropic",
		"model":    "claude-3-5-sonnet-20241022",
		"config": map[string]any{
			"provider":     "openai",
			"temperature":  0.2,
			"systemPrompt": "inner prompt",
		},
	}

	flat := flattenConfig(raw)

	if _, ok := flat["config"]; ok {
		t.Error("flattened config must not retain a nested config key")
	}
	if flat["provider"] != "anthropic" {
		t.Errorf("provider = %v, want anthropic (outer wins)", flat["provider"])
	}
	if flat["temperature"] != 0.2 {
		t.Errorf("temperature = %v, want 0.2 (inner preserved)", flat["temperature"])
	}
	if flat["systemPrompt"] != "inner prompt" {
		t.Errorf("systemPrompt = %v", flat["systemPrompt"])
	}
}

func TestFlattenConfigNoNesting(t *testing.T) {
	raw := map[string]any{"provider": "google", "model": "gemini-1.5-flash"}

	flat := flattenConfig(raw)
	if len(flat) != 2 || flat["provider"] != "google" {
		t.Errorf("flat = %+v", flat)
	}
}

func TestDecodeAgentConfig(t *testing.T) {
	flat := map[string]any{
		"provider":     "openai",
		"model":        "gpt-4",
		"temperature":  0.3,
		"maxTokens":    256,
		"systemPrompt": "be brief",
		"topP":         0.9,
		"topK":         20,
		"examples": []any{
			map[string]any{"user": "hi", "assistant": "hello"},
		},
	}

	cfg, err := decodeAgentConfig(flat)
	if err != nil {
		t.Fatalf("decodeAgentConfig() error = %v", err)
	}

	if cfg.Provider != "openai" || cfg.Model != "gpt-4" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.Temperature == nil || *cfg.Temperature != 0.3 {
		t.Errorf("Temperature = %v, want 0.3", cfg.Temperature)
	}
	if cfg.MaxTokens != 256 {
		t.Errorf("MaxTokens = %d, want 256", cfg.MaxTokens)
	}
	if cfg.TopP == nil || *cfg.TopP != 0.9 {
		t.Errorf("TopP = %v, want 0.9", cfg.TopP)
	}
	if cfg.TopK == nil || *cfg.TopK != 20 {
		t.Errorf("TopK = %v, want 20", cfg.TopK)
	}
	if len(cfg.Examples) != 1 || cfg.Examples[0].User != "hi" || cfg.Examples[0].Assistant != "hello" {
		t.Errorf("Examples = %+v", cfg.Examples)
	}
}

func TestDecodeAgentConfigIgnoresUnknownKeys(t *testing.T) {
	cfg, err := decodeAgentConfig(map[string]any{
		"provider": "openai",
		"apiKey":   "should-not-explode",
		"extras":   map[string]any{"nested": true},
	})
	if err != nil {
		t.Fatalf("decodeAgentConfig() error = %v", err)
	}
	if cfg.Provider != "openai" {
		t.Errorf("Provider = %q", cfg.Provider)
	}
}

func TestNormalizeKeysAnyMap(t *testing.T) {
	v := normalizeKeys(map[any]any{
		"outer": map[any]any{"inner": 1},
		"list":  []any{map[any]any{"k": "v"}},
	})

	m, ok := v.(map[string]any)
	if !ok {
		t.Fatalf("normalizeKeys returned %T", v)
	}
	if _, ok := m["outer"].(map[string]any); !ok {
		t.Errorf("outer = %T, want map[string]any", m["outer"])
	}
	list := m["list"].([]any)
	if _, ok := list[0].(map[string]any); !ok {
		t.Errorf("list[0] = %T, want map[string]any", list[0])
	}
}

func TestBuildConfigDefaultsProvider(t *testing.T) {
	cfg, err := buildConfig(Definition{ID: "a", Name: "A", Config: map[string]any{"model": "gpt-4"}}, "openai")
	if err != nil {
		t.Fatalf("buildConfig() error = %v", err)
	}
	if cfg.Provider != "openai" {
		t.Errorf("Provider = %q, want openai (default applied)", cfg.Provider)
	}

	cfg, err = buildConfig(Definition{ID: "a", Name: "A", Config: map[string]any{"provider": "google"}}, "openai")
	if err != nil {
		t.Fatalf("buildConfig() error = %v", err)
	}
	if cfg.Provider != "google" {
		t.Errorf("Provider = %q, want google (explicit kept)", cfg.Provider)
	}
}
