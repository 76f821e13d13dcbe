package worksona

import (
	"path/filepath"
	"testing"
	"time"
)

func TestJSONPersistenceRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agents.json")
	p := NewJSONPersistence(path)

	temp := 0.4
	in := []AgentSnapshot{{
		ID:     "a1",
		Name:   "Agent One",
		Config: AgentConfig{Provider: "openai", Model: "gpt-4", Temperature: &temp},
		Metrics: Metrics{
			TotalQueries:  7,
			AvgResponseMs: 120.5,
			ErrorCount:    2,
			SuccessRate:   5.0 / 7,
			LastActive:    time.Now().UTC(),
		},
		SavedAt: time.Now().UTC(),
	}}

	if err := p.Save(in); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	out, err := p.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("loaded %d snapshots, want 1", len(out))
	}
	got := out[0]
	if got.ID != "a1" || got.Name != "Agent One" || got.Config.Model != "gpt-4" {
		t.Errorf("snapshot = %+v", got)
	}
	if got.Config.Temperature == nil || *got.Config.Temperature != temp {
		t.Errorf("Temperature = %v", got.Config.Temperature)
	}
	if got.Metrics.TotalQueries != 7 || got.Metrics.ErrorCount != 2 {
		t.Errorf("metrics = %+v", got.Metrics)
	}
}

func TestJSONPersistenceMissingFile(t *testing.T) {
	p := NewJSONPersistence(filepath.Join(t.TempDir(), "nope.json"))

	out, err := p.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if out != nil {
		t.Errorf("Load() = %v, want nil for a missing file", out)
	}
}

func TestOrchestratorRestoresSnapshots(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agents.json")
	p := NewJSONPersistence(path)

	first := NewOrchestrator(WithPersistence(p))
	if _, err := first.LoadAgent(testDefinition("a1")); err != nil {
		t.Fatal(err)
	}

	second := NewOrchestrator(WithPersistence(p))
	agent := second.GetAgent("a1")
	if agent == nil {
		t.Fatal("agent was not restored")
	}
	if agent.Name != "Test Agent" || agent.Config.Model != "gpt-4" {
		t.Errorf("restored agent = %+v", agent)
	}
	if len(agent.History()) != 0 {
		t.Error("transaction logs are not persisted and must restore empty")
	}
}

func TestRestoreSkipsInvalidSnapshots(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agents.json")
	p := NewJSONPersistence(path)

	if err := p.Save([]AgentSnapshot{
		{ID: "", Name: "No ID"},
		{ID: "ok", Name: "Valid", Config: AgentConfig{Provider: "openai"}},
	}); err != nil {
		t.Fatal(err)
	}

	o := NewOrchestrator(WithPersistence(p))
	if len(o.GetAllAgents()) != 1 {
		t.Fatalf("agent count = %d, want 1", len(o.GetAllAgents()))
	}
	if o.GetAgent("ok") == nil {
		t.Error("valid snapshot was not restored")
	}
}
