package worksona

import (
	"sync"
	"time"

	"github.com/worksona/worksona-go/provider"
)

// Example is one few-shot example turn pair.
type Example = provider.Example

// Agent is a named persona. Its identity is immutable; its transaction log,
// metrics, and state are mutated in place as chat calls complete.
type Agent struct {
	// ID is the unique registry key for this agent
	ID string

	// Name is a human-readable display name
	Name string

	// Description explains what this agent is for
	Description string

	// Config is the flattened agent configuration
	Config AgentConfig

	// Traits is optional descriptive metadata. It is display-only and is
	// never sent to a provider unless the caller folds it into the system
	// prompt.
	Traits *Traits

	mu           sync.RWMutex
	transactions []Transaction
	metrics      Metrics
	state        State
}

// MaxTransactions bounds the per-agent transaction log. The oldest entries
// are evicted first once the bound is reached.
const MaxTransactions = 100

// AgentConfig is the flattened configuration for an agent.
type AgentConfig struct {
	// Provider selects the LLM vendor ("openai", "anthropic", "google")
	Provider string `json:"provider,omitempty" yaml:"provider,omitempty"`

	// Model is the provider model ID (empty uses the adapter default)
	Model string `json:"model,omitempty" yaml:"model,omitempty"`

	// Temperature for generation (nil uses the adapter default)
	Temperature *float64 `json:"temperature,omitempty" yaml:"temperature,omitempty"`

	// MaxTokens limits response length (0 uses the adapter default)
	MaxTokens int `json:"maxTokens,omitempty" yaml:"maxTokens,omitempty"`

	// SystemPrompt is sent as the system turn (or vendor equivalent)
	SystemPrompt string `json:"systemPrompt,omitempty" yaml:"systemPrompt,omitempty"`

	// Examples are few-shot turns sent before the user message
	Examples []Example `json:"examples,omitempty" yaml:"examples,omitempty"`

	// Provider-specific tuning fields
	TopP             *float64 `json:"topP,omitempty" yaml:"topP,omitempty"`
	TopK             *int     `json:"topK,omitempty" yaml:"topK,omitempty"`
	FrequencyPenalty *float64 `json:"frequencyPenalty,omitempty" yaml:"frequencyPenalty,omitempty"`
	PresencePenalty  *float64 `json:"presencePenalty,omitempty" yaml:"presencePenalty,omitempty"`
}

// Traits describe an agent's persona for display purposes.
type Traits struct {
	Personality []string `json:"personality,omitempty" yaml:"personality,omitempty"`
	Knowledge   []string `json:"knowledge,omitempty" yaml:"knowledge,omitempty"`
	Tone        string   `json:"tone,omitempty" yaml:"tone,omitempty"`
	Background  string   `json:"background,omitempty" yaml:"background,omitempty"`
}

// Transaction is one recorded chat request/response. It is immutable once
// appended; the log only evicts by recency.
type Transaction struct {
	ID         string    `json:"id"`
	Timestamp  time.Time `json:"timestamp"`
	Query      string    `json:"query"`
	Response   string    `json:"response,omitempty"`
	DurationMs int64     `json:"duration_ms"`
	Error      string    `json:"error,omitempty"`
	Provider   string    `json:"provider"`
	Model      string    `json:"model,omitempty"`
}

// Metrics are derived aggregates over an agent's transactions.
type Metrics struct {
	// TotalQueries counts every chat call, successful or not
	TotalQueries int `json:"total_queries"`

	// AvgResponseMs is the running average duration, recomputed
	// incrementally rather than stored as a sum
	AvgResponseMs float64 `json:"avg_response_ms"`

	// LastActive is when the most recent transaction was recorded
	LastActive time.Time `json:"last_active"`

	// ErrorCount counts failed chat calls
	ErrorCount int `json:"error_count"`

	// SuccessRate is (total - errors) / total, 1.0 when total is 0
	SuccessRate float64 `json:"success_rate"`
}

// State is the transient runtime state of an agent.
type State struct {
	Active          bool   `json:"active"`
	CurrentProvider string `json:"current_provider,omitempty"`
	CurrentModel    string `json:"current_model,omitempty"`
	LastError       string `json:"last_error,omitempty"`
}

// newAgent constructs an Agent from a flattened config with metrics at
// their zero/identity state.
func newAgent(id, name, description string, cfg AgentConfig, traits *Traits) *Agent {
	return &Agent{
		ID:          id,
		Name:        name,
		Description: description,
		Config:      cfg,
		Traits:      traits,
		metrics: Metrics{
			SuccessRate: 1.0,
		},
		state: State{
			Active:          true,
			CurrentProvider: cfg.Provider,
			CurrentModel:    cfg.Model,
		},
	}
}

// AddTransaction appends tx and recomputes the derived metrics. The log is
// truncated to the most recent MaxTransactions entries after the append.
func (a *Agent) AddTransaction(tx Transaction) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.transactions = append(a.transactions, tx)
	if len(a.transactions) > MaxTransactions {
		a.transactions = a.transactions[len(a.transactions)-MaxTransactions:]
	}

	n := a.metrics.TotalQueries + 1
	a.metrics.TotalQueries = n
	a.metrics.AvgResponseMs = (a.metrics.AvgResponseMs*float64(n-1) + float64(tx.DurationMs)) / float64(n)
	a.metrics.LastActive = tx.Timestamp

	if tx.Error != "" {
		a.metrics.ErrorCount++
		a.state.LastError = tx.Error
	}
	a.metrics.SuccessRate = float64(n-a.metrics.ErrorCount) / float64(n)

	a.state.CurrentProvider = tx.Provider
	a.state.CurrentModel = tx.Model
}

// History returns a copy of the transaction log, oldest first.
func (a *Agent) History() []Transaction {
	a.mu.RLock()
	defer a.mu.RUnlock()

	history := make([]Transaction, len(a.transactions))
	copy(history, a.transactions)
	return history
}

// Metrics returns the current derived metrics.
func (a *Agent) Metrics() Metrics {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.metrics
}

// State returns the current transient state.
func (a *Agent) State() State {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.state
}

// restoreMetrics seeds metrics from a persisted snapshot.
func (a *Agent) restoreMetrics(m Metrics) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if m.TotalQueries > 0 {
		a.metrics = m
	}
}
