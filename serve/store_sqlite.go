package serve

import (
	"database/sql"
	"time"

	worksona "github.com/worksona/worksona-go"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using modernc.org/sqlite (pure Go).
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates a SQLite database at the given path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// Enable WAL mode for concurrent reads.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

// Init creates the schema tables.
func (s *SQLiteStore) Init() error {
	schema := `
	CREATE TABLE IF NOT EXISTS agents (
		id          TEXT PRIMARY KEY,
		name        TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		provider    TEXT NOT NULL DEFAULT '',
		model       TEXT NOT NULL DEFAULT '',
		config      TEXT NOT NULL DEFAULT '{}',
		loaded_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS transactions (
		id          TEXT PRIMARY KEY,
		agent_id    TEXT NOT NULL,
		timestamp   DATETIME NOT NULL,
		query       TEXT NOT NULL DEFAULT '',
		response    TEXT NOT NULL DEFAULT '',
		duration_ms INTEGER NOT NULL DEFAULT 0,
		error       TEXT NOT NULL DEFAULT '',
		provider    TEXT NOT NULL DEFAULT '',
		model       TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS events (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		type        TEXT NOT NULL,
		agent_id    TEXT NOT NULL DEFAULT '',
		agent_name  TEXT NOT NULL DEFAULT '',
		timestamp   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		provider    TEXT NOT NULL DEFAULT '',
		model       TEXT NOT NULL DEFAULT '',
		duration_ms INTEGER NOT NULL DEFAULT 0,
		code        TEXT NOT NULL DEFAULT '',
		error       TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_transactions_agent ON transactions(agent_id);
	CREATE INDEX IF NOT EXISTS idx_transactions_timestamp ON transactions(timestamp);
	CREATE INDEX IF NOT EXISTS idx_events_agent ON events(agent_id);
	CREATE INDEX IF NOT EXISTS idx_events_timestamp ON events(timestamp);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// UpsertAgent persists an agent record.
func (s *SQLiteStore) UpsertAgent(a AgentRow) error {
	_, err := s.db.Exec(`
		INSERT INTO agents (id, name, description, provider, model, config, loaded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			provider = excluded.provider,
			model = excluded.model,
			config = excluded.config,
			loaded_at = excluded.loaded_at`,
		a.ID, a.Name, a.Description, a.Provider, a.Model, a.ConfigJSON, a.LoadedAt)
	return err
}

// DeleteAgent removes an agent record by ID.
func (s *SQLiteStore) DeleteAgent(id string) error {
	_, err := s.db.Exec(`DELETE FROM agents WHERE id = ?`, id)
	return err
}

// ListAgents returns all persisted agents.
func (s *SQLiteStore) ListAgents() ([]AgentRow, error) {
	rows, err := s.db.Query(`
		SELECT id, name, description, provider, model, config, loaded_at
		FROM agents ORDER BY loaded_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var agents []AgentRow
	for rows.Next() {
		var a AgentRow
		if err := rows.Scan(&a.ID, &a.Name, &a.Description, &a.Provider, &a.Model, &a.ConfigJSON, &a.LoadedAt); err != nil {
			return nil, err
		}
		agents = append(agents, a)
	}
	return agents, rows.Err()
}

// InsertTransaction records one chat transaction.
func (s *SQLiteStore) InsertTransaction(agentID string, tx worksona.Transaction) error {
	_, err := s.db.Exec(`
		INSERT OR IGNORE INTO transactions
			(id, agent_id, timestamp, query, response, duration_ms, error, provider, model)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		tx.ID, agentID, tx.Timestamp, tx.Query, tx.Response, tx.DurationMs, tx.Error, tx.Provider, tx.Model)
	return err
}

// ListTransactions returns an agent's transactions, newest first.
func (s *SQLiteStore) ListTransactions(agentID string, limit int) ([]TransactionRow, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := s.db.Query(`
		SELECT id, agent_id, timestamp, query, response, duration_ms, error, provider, model
		FROM transactions WHERE agent_id = ?
		ORDER BY timestamp DESC LIMIT ?`, agentID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txs []TransactionRow
	for rows.Next() {
		var t TransactionRow
		if err := rows.Scan(&t.ID, &t.AgentID, &t.Timestamp, &t.Query, &t.Response,
			&t.DurationMs, &t.Error, &t.Provider, &t.Model); err != nil {
			return nil, err
		}
		txs = append(txs, t)
	}
	return txs, rows.Err()
}

// InsertEvent records an orchestrator event.
func (s *SQLiteStore) InsertEvent(e worksona.Event) error {
	ts := e.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	_, err := s.db.Exec(`
		INSERT INTO events (type, agent_id, agent_name, timestamp, provider, model, duration_ms, code, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(e.Type), e.AgentID, e.AgentName, ts, e.Provider, e.Model, e.DurationMs, e.Code, e.Error)
	return err
}

// ListEvents returns recent events, newest first.
func (s *SQLiteStore) ListEvents(limit int) ([]EventRow, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := s.db.Query(`
		SELECT id, type, agent_id, agent_name, timestamp, provider, model, duration_ms, code, error
		FROM events ORDER BY timestamp DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []EventRow
	for rows.Next() {
		var e EventRow
		if err := rows.Scan(&e.ID, &e.Type, &e.AgentID, &e.AgentName, &e.Timestamp,
			&e.Provider, &e.Model, &e.DurationMs, &e.Code, &e.Error); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
