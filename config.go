package worksona

import (
	"encoding/json"
	"fmt"
)

// Definition describes an agent as loaded from a literal value, a JSON or
// YAML file, or a URL. Config is kept loosely typed so that a nested
// "config" block can be flattened before decoding; Agent.Config holds the
// typed result.
type Definition struct {
	ID          string         `json:"id" yaml:"id"`
	Name        string         `json:"name" yaml:"name"`
	Description string         `json:"description,omitempty" yaml:"description,omitempty"`
	Config      map[string]any `json:"config,omitempty" yaml:"config,omitempty"`
	Traits      *Traits        `json:"traits,omitempty" yaml:"traits,omitempty"`
}

// flattenConfig collapses one nested "config" block into the top level.
// Keys already on the top level win over same-named keys inside "config";
// the leftover "config" key is dropped from the result.
func flattenConfig(raw map[string]any) map[string]any {
	flat := make(map[string]any, len(raw))

	if nested, ok := raw["config"].(map[string]any); ok {
		for k, v := range nested {
			flat[k] = v
		}
	}

	for k, v := range raw {
		if k == "config" {
			continue
		}
		flat[k] = v
	}

	return flat
}

// decodeAgentConfig turns a flattened config map into a typed AgentConfig.
// Unknown keys are ignored; the source tolerates partially specified agents.
func decodeAgentConfig(flat map[string]any) (AgentConfig, error) {
	var cfg AgentConfig

	// YAML decodes may produce map[any]any in nested values; normalizing
	// through JSON handles both shapes with one set of struct tags.
	data, err := json.Marshal(normalizeKeys(flat))
	if err != nil {
		return cfg, fmt.Errorf("encode config: %w", err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("decode config: %w", err)
	}

	return cfg, nil
}

// normalizeKeys converts map[any]any values (as produced by some YAML
// decoders) into map[string]any recursively so they survive JSON encoding.
func normalizeKeys(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, inner := range val {
			out[k] = normalizeKeys(inner)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, inner := range val {
			out[fmt.Sprint(k)] = normalizeKeys(inner)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, inner := range val {
			out[i] = normalizeKeys(inner)
		}
		return out
	default:
		return v
	}
}

// buildConfig flattens and decodes a definition's config, applying the
// orchestrator default provider when none is set.
func buildConfig(def Definition, defaultProvider string) (AgentConfig, error) {
	cfg, err := decodeAgentConfig(flattenConfig(def.Config))
	if err != nil {
		return cfg, err
	}
	if cfg.Provider == "" {
		cfg.Provider = defaultProvider
	}
	return cfg, nil
}
