package serve

import worksona "github.com/worksona/worksona-go"

// Store persists agents, transactions, and events for historical queries
// beyond the in-memory transaction ring.
type Store interface {
	// Init creates tables if they don't exist.
	Init() error

	// Close closes the store.
	Close() error

	// UpsertAgent persists an agent record.
	UpsertAgent(a AgentRow) error

	// DeleteAgent removes an agent record by ID.
	DeleteAgent(id string) error

	// ListAgents returns all persisted agents.
	ListAgents() ([]AgentRow, error)

	// InsertTransaction records one chat transaction.
	InsertTransaction(agentID string, tx worksona.Transaction) error

	// ListTransactions returns an agent's transactions, newest first.
	ListTransactions(agentID string, limit int) ([]TransactionRow, error)

	// InsertEvent records an orchestrator event.
	InsertEvent(e worksona.Event) error

	// ListEvents returns recent events, newest first.
	ListEvents(limit int) ([]EventRow, error)
}
