package serve

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	worksona "github.com/worksona/worksona-go"
)

// Server is the HTTP server for the control panel REST API and event stream.
type Server struct {
	orch      *worksona.Orchestrator
	broker    *EventBroker
	store     Store
	cfg       Config
	startedAt time.Time
}

// New creates a new Server.
func New(orch *worksona.Orchestrator, cfg Config) *Server {
	return &Server{
		orch:   orch,
		broker: NewEventBroker(),
		cfg:    cfg,
	}
}

// Start initializes the store, wires orchestrator events, registers routes,
// and listens for HTTP requests. It blocks until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	s.startedAt = time.Now()

	// Initialize SQLite store.
	store, err := NewSQLiteStore(s.cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	s.store = store
	if err := store.Init(); err != nil {
		return fmt.Errorf("init database: %w", err)
	}
	if known, err := store.ListAgents(); err == nil && len(known) > 0 {
		slog.Info("agent records found in store", "count", len(known))
	}

	// Wire orchestrator events to broker + store.
	s.wireEvents()

	// Build router.
	mux := http.NewServeMux()
	s.registerRoutes(mux)

	srv := &http.Server{
		Addr:    s.cfg.Addr,
		Handler: corsMiddleware(mux),
	}

	// Start server in goroutine.
	errCh := make(chan error, 1)
	go func() {
		slog.Info("worksona serve started", "addr", s.cfg.Addr)
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// Wait for shutdown signal or error.
	select {
	case <-ctx.Done():
		slog.Info("shutting down server")
	case err := <-errCh:
		return err
	}

	// Close broker first so SSE handlers unblock and the server can drain.
	s.broker.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}
	if err := store.Close(); err != nil {
		slog.Error("store close error", "error", err)
	}

	return nil
}

// registerRoutes adds all API routes to the mux.
func (s *Server) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/agents", s.handleListAgents)
	mux.HandleFunc("POST /api/agents", s.handleLoadAgent)
	mux.HandleFunc("GET /api/agents/{id}", s.handleGetAgent)
	mux.HandleFunc("DELETE /api/agents/{id}", s.handleRemoveAgent)
	mux.HandleFunc("GET /api/agents/{id}/history", s.handleHistory)
	mux.HandleFunc("GET /api/agents/{id}/transactions", s.handleTransactions)
	mux.HandleFunc("GET /api/agents/{id}/metrics", s.handleMetrics)
	mux.HandleFunc("GET /api/agents/{id}/state", s.handleState)
	mux.HandleFunc("GET /api/agents/{id}/export", s.handleExport)
	mux.HandleFunc("POST /api/agents/{id}/chat", s.handleChat)
	mux.HandleFunc("PUT /api/keys/{provider}", s.handleSetKey)
	mux.HandleFunc("GET /api/stats", s.handleStats)
	mux.HandleFunc("GET /api/events/recent", s.handleRecentEvents)
	mux.HandleFunc("GET /api/events", s.handleSSE)
}

// wireEvents subscribes to every orchestrator event type, forwarding each
// event to SSE subscribers and the store.
func (s *Server) wireEvents() {
	types := []worksona.EventType{
		worksona.EventAgentLoaded,
		worksona.EventAgentRemoved,
		worksona.EventChatStart,
		worksona.EventChatComplete,
		worksona.EventError,
	}

	for _, t := range types {
		s.orch.On(t, func(e worksona.Event) {
			s.broker.Publish(e)
			if err := s.store.InsertEvent(e); err != nil {
				slog.Warn("event insert failed", "type", e.Type, "error", err)
			}
		})
	}

	// Mirror registry changes into the agents table.
	s.orch.On(worksona.EventAgentLoaded, func(e worksona.Event) {
		agent := s.orch.GetAgent(e.AgentID)
		if agent == nil {
			return
		}
		configJSON, _ := json.Marshal(agent.Config)
		err := s.store.UpsertAgent(AgentRow{
			ID:          agent.ID,
			Name:        agent.Name,
			Description: agent.Description,
			Provider:    agent.Config.Provider,
			Model:       agent.Config.Model,
			ConfigJSON:  string(configJSON),
			LoadedAt:    time.Now(),
		})
		if err != nil {
			slog.Warn("agent upsert failed", "agent", agent.ID, "error", err)
		}
	})
	s.orch.On(worksona.EventAgentRemoved, func(e worksona.Event) {
		if err := s.store.DeleteAgent(e.AgentID); err != nil {
			slog.Warn("agent delete failed", "agent", e.AgentID, "error", err)
		}
	})

	// Persist completed and failed transactions. The newest history entry
	// for the agent is the transaction this event reports.
	record := func(e worksona.Event) {
		history := s.orch.GetAgentHistory(e.AgentID)
		if len(history) == 0 {
			return
		}
		tx := history[len(history)-1]
		if err := s.store.InsertTransaction(e.AgentID, tx); err != nil {
			slog.Warn("transaction insert failed", "agent", e.AgentID, "error", err)
		}
	}
	s.orch.On(worksona.EventChatComplete, record)
	s.orch.On(worksona.EventError, func(e worksona.Event) {
		// Only chat failures produce transactions.
		switch e.Code {
		case worksona.CodeInvalidAPIKey, worksona.CodeUnknownModel,
			worksona.CodeProviderError, worksona.CodeChatError:
			record(e)
		}
	})
}

// corsMiddleware allows cross-origin control panel frontends.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
