package worksona

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// loadHTTPClient fetches remote agent definitions.
var loadHTTPClient = &http.Client{Timeout: 30 * time.Second}

// ParseDefinition parses a JSON agent definition.
func ParseDefinition(data []byte) (Definition, error) {
	var def Definition
	if err := json.Unmarshal(data, &def); err != nil {
		return def, fmt.Errorf("parse definition: %w", err)
	}
	return def, nil
}

// ParseDefinitionYAML parses a YAML agent definition.
func ParseDefinitionYAML(data []byte) (Definition, error) {
	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return def, fmt.Errorf("parse definition: %w", err)
	}
	return def, nil
}

// LoadAgentFromFile loads an agent from a JSON or YAML persona file,
// chosen by extension (.yaml/.yml is YAML, anything else JSON).
func (o *Orchestrator) LoadAgentFromFile(path string) (*Agent, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, o.loadFetchError(fmt.Errorf("read definition: %w", err))
	}

	var def Definition
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		def, err = ParseDefinitionYAML(data)
	default:
		def, err = ParseDefinition(data)
	}
	if err != nil {
		return nil, o.loadFetchError(err)
	}

	return o.LoadAgent(def)
}

// LoadAgentFromURL fetches a JSON agent definition over HTTP and loads it.
// Fetch or parse failures surface as load errors, never as a silently
// empty agent.
func (o *Orchestrator) LoadAgentFromURL(ctx context.Context, url string) (*Agent, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, o.loadFetchError(err)
	}

	resp, err := loadHTTPClient.Do(req)
	if err != nil {
		return nil, o.loadFetchError(fmt.Errorf("fetch definition: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, o.loadFetchError(fmt.Errorf("fetch definition: %s returned %s", url, resp.Status))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, o.loadFetchError(fmt.Errorf("read definition: %w", err))
	}

	def, err := ParseDefinition(data)
	if err != nil {
		return nil, o.loadFetchError(err)
	}

	return o.LoadAgent(def)
}

// loadFetchError emits an error event for a failed fetch/parse and
// returns the error.
func (o *Orchestrator) loadFetchError(err error) error {
	o.bus.Emit(Event{
		Type:  EventError,
		Code:  CodeLoadError,
		Error: err.Error(),
	})
	return err
}
