package serve

import (
	"time"

	worksona "github.com/worksona/worksona-go"
)

// Config holds server configuration.
type Config struct {
	Addr   string
	DBPath string
}

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
}

// AgentResponse summarizes one agent for list views.
type AgentResponse struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Provider    string  `json:"provider"`
	Model       string  `json:"model,omitempty"`
	Active      bool    `json:"active"`
	Queries     int     `json:"queries"`
	SuccessRate float64 `json:"success_rate"`
}

// AgentDetailResponse is the full inspection view of one agent.
type AgentDetailResponse struct {
	AgentResponse
	Config  worksona.AgentConfig `json:"config"`
	Traits  *worksona.Traits     `json:"traits,omitempty"`
	Metrics worksona.Metrics     `json:"metrics"`
	State   worksona.State       `json:"state"`
}

// ChatRequest is the body for POST chat calls.
type ChatRequest struct {
	Message  string `json:"message"`
	Provider string `json:"provider,omitempty"`
	Model    string `json:"model,omitempty"`
}

// ChatResponse carries one completed chat turn.
type ChatResponse struct {
	Response   string `json:"response"`
	DurationMs int64  `json:"duration_ms"`
}

// KeyRequest is the body for provider key updates.
type KeyRequest struct {
	Key string `json:"key"`
}

// StatsResponse is the control panel summary.
type StatsResponse struct {
	Agents        int       `json:"agents"`
	TotalQueries  int       `json:"total_queries"`
	TotalErrors   int       `json:"total_errors"`
	Providers     []string  `json:"providers"`
	StartedAt     time.Time `json:"started_at"`
	UptimeSeconds int64     `json:"uptime_seconds"`
}

// TransactionRow is a persisted transaction record.
type TransactionRow struct {
	ID         string    `json:"id"`
	AgentID    string    `json:"agent_id"`
	Timestamp  time.Time `json:"timestamp"`
	Query      string    `json:"query"`
	Response   string    `json:"response,omitempty"`
	DurationMs int64     `json:"duration_ms"`
	Error      string    `json:"error,omitempty"`
	Provider   string    `json:"provider"`
	Model      string    `json:"model,omitempty"`
}

// EventRow is a persisted orchestrator event.
type EventRow struct {
	ID         int64     `json:"id"`
	Type       string    `json:"type"`
	AgentID    string    `json:"agent_id,omitempty"`
	AgentName  string    `json:"agent_name,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
	Provider   string    `json:"provider,omitempty"`
	Model      string    `json:"model,omitempty"`
	DurationMs int64     `json:"duration_ms,omitempty"`
	Code       string    `json:"code,omitempty"`
	Error      string    `json:"error,omitempty"`
}

// AgentRow is a persisted agent record.
type AgentRow struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Provider    string    `json:"provider"`
	Model       string    `json:"model,omitempty"`
	ConfigJSON  string    `json:"config_json"`
	LoadedAt    time.Time `json:"loaded_at"`
}
