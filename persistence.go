package worksona

import (
	"encoding/json"
	"os"
	"sync"
	"time"
)

// Persistence saves and restores agent snapshots.
type Persistence interface {
	Save(snapshots []AgentSnapshot) error
	Load() ([]AgentSnapshot, error)
}

// AgentSnapshot is the persisted form of an agent. The transaction log is
// deliberately not persisted; only the configuration and aggregates are.
type AgentSnapshot struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	Config      AgentConfig `json:"config"`
	Traits      *Traits     `json:"traits,omitempty"`
	Metrics     Metrics     `json:"metrics"`
	SavedAt     time.Time   `json:"saved_at"`
}

// JSONPersistence saves snapshots to a JSON file.
type JSONPersistence struct {
	path string
	mu   sync.Mutex
}

// NewJSONPersistence creates a new JSON file persistence.
func NewJSONPersistence(path string) *JSONPersistence {
	return &JSONPersistence{path: path}
}

// Save writes snapshots to the file.
func (p *JSONPersistence) Save(snapshots []AgentSnapshot) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	data, err := json.MarshalIndent(snapshots, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(p.path, data, 0644)
}

// Load reads snapshots from the file. A missing file is not an error.
func (p *JSONPersistence) Load() ([]AgentSnapshot, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	data, err := os.ReadFile(p.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var snapshots []AgentSnapshot
	if err := json.Unmarshal(data, &snapshots); err != nil {
		return nil, err
	}

	return snapshots, nil
}

// persistState saves a snapshot of every loaded agent.
func (o *Orchestrator) persistState() {
	if o.persistence == nil {
		return
	}

	now := time.Now()

	o.mu.RLock()
	snapshots := make([]AgentSnapshot, 0, len(o.agents))
	for _, a := range o.agents {
		snapshots = append(snapshots, AgentSnapshot{
			ID:          a.ID,
			Name:        a.Name,
			Description: a.Description,
			Config:      a.Config,
			Traits:      a.Traits,
			Metrics:     a.Metrics(),
			SavedAt:     now,
		})
	}
	o.mu.RUnlock()

	o.persistence.Save(snapshots)
}

// restoreAgents rebuilds agents from persisted snapshots. Transaction logs
// start empty; metrics carry over.
func (o *Orchestrator) restoreAgents() {
	snapshots, err := o.persistence.Load()
	if err != nil {
		return
	}

	for _, snap := range snapshots {
		if snap.ID == "" || snap.Name == "" {
			continue
		}
		agent := newAgent(snap.ID, snap.Name, snap.Description, snap.Config, snap.Traits)
		agent.restoreMetrics(snap.Metrics)
		o.agents[snap.ID] = agent
	}
}
