package serve

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"time"

	worksona "github.com/worksona/worksona-go"
)

func (s *Server) handleListAgents(w http.ResponseWriter, r *http.Request) {
	agents := s.orch.GetAllAgents()

	resp := make([]AgentResponse, 0, len(agents))
	for _, a := range agents {
		resp = append(resp, agentToResponse(a))
	}
	sort.Slice(resp, func(i, j int) bool { return resp[i].ID < resp[j].ID })

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleLoadAgent(w http.ResponseWriter, r *http.Request) {
	var def worksona.Definition
	if err := json.NewDecoder(r.Body).Decode(&def); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	agent, err := s.orch.LoadAgent(def)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusCreated, agentDetail(agent))
}

func (s *Server) handleGetAgent(w http.ResponseWriter, r *http.Request) {
	agent := s.orch.GetAgent(r.PathValue("id"))
	if agent == nil {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "agent not found"})
		return
	}

	writeJSON(w, http.StatusOK, agentDetail(agent))
}

func (s *Server) handleRemoveAgent(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !s.orch.RemoveAgent(id) {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "agent not found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if s.orch.GetAgent(id) == nil {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "agent not found"})
		return
	}

	history := s.orch.GetAgentHistory(id)
	if history == nil {
		history = []worksona.Transaction{}
	}
	writeJSON(w, http.StatusOK, history)
}

// handleTransactions returns the persisted transaction record for an
// agent. Unlike the in-memory history it is not bounded to the most
// recent entries and survives restarts.
func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	txs, err := s.store.ListTransactions(r.PathValue("id"), limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}
	if txs == nil {
		txs = []TransactionRow{}
	}
	writeJSON(w, http.StatusOK, txs)
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	metrics := s.orch.GetAgentMetrics(r.PathValue("id"))
	if metrics == nil {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "agent not found"})
		return
	}
	writeJSON(w, http.StatusOK, metrics)
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	state := s.orch.GetAgentState(r.PathValue("id"))
	if state == nil {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "agent not found"})
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// handleExport returns the raw JSON view of one agent: definition, full
// history, metrics, and state in a single document.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	agent := s.orch.GetAgent(r.PathValue("id"))
	if agent == nil {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "agent not found"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"id":           agent.ID,
		"name":         agent.Name,
		"description":  agent.Description,
		"config":       agent.Config,
		"traits":       agent.Traits,
		"transactions": agent.History(),
		"metrics":      agent.Metrics(),
		"state":        agent.State(),
	})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Message == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "message is required"})
		return
	}

	var opts *worksona.ChatOptions
	if req.Provider != "" || req.Model != "" {
		opts = &worksona.ChatOptions{Provider: req.Provider, Model: req.Model}
	}

	start := time.Now()
	response, err := s.orch.Chat(r.Context(), id, req.Message, opts)
	if err != nil {
		writeJSON(w, chatErrorStatus(err), ErrorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, ChatResponse{
		Response:   response,
		DurationMs: time.Since(start).Milliseconds(),
	})
}

func (s *Server) handleSetKey(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("provider")

	var req KeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	s.orch.SetKey(name, req.Key)
	writeJSON(w, http.StatusOK, map[string]any{"providers": s.orch.Providers()})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	agents := s.orch.GetAllAgents()

	var queries, errors int
	for _, a := range agents {
		m := a.Metrics()
		queries += m.TotalQueries
		errors += m.ErrorCount
	}

	providers := s.orch.Providers()
	sort.Strings(providers)

	writeJSON(w, http.StatusOK, StatsResponse{
		Agents:        len(agents),
		TotalQueries:  queries,
		TotalErrors:   errors,
		Providers:     providers,
		StartedAt:     s.startedAt,
		UptimeSeconds: int64(time.Since(s.startedAt).Seconds()),
	})
}

func (s *Server) handleRecentEvents(w http.ResponseWriter, r *http.Request) {
	events, err := s.store.ListEvents(100)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}
	if events == nil {
		events = []EventRow{}
	}
	writeJSON(w, http.StatusOK, events)
}

// handleSSE streams orchestrator events to the client.
func (s *Server) handleSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	ch := s.broker.Subscribe()
	if ch == nil {
		http.Error(w, "too many subscribers", http.StatusServiceUnavailable)
		return
	}
	defer s.broker.Unsubscribe(ch)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering

	// Send initial comment so EventSource fires onopen
	fmt.Fprintf(w, ": connected\n\n")
	flusher.Flush()

	// Heartbeat to keep the connection alive
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fmt.Fprintf(w, ": heartbeat\n\n")
			flusher.Flush()
		case event, ok := <-ch:
			if !ok {
				return
			}
			data, err := json.Marshal(event)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, data)
			flusher.Flush()
		}
	}
}

// --- helpers ---

func agentToResponse(a *worksona.Agent) AgentResponse {
	m := a.Metrics()
	st := a.State()
	return AgentResponse{
		ID:          a.ID,
		Name:        a.Name,
		Description: a.Description,
		Provider:    a.Config.Provider,
		Model:       a.Config.Model,
		Active:      st.Active,
		Queries:     m.TotalQueries,
		SuccessRate: m.SuccessRate,
	}
}

func agentDetail(a *worksona.Agent) AgentDetailResponse {
	return AgentDetailResponse{
		AgentResponse: agentToResponse(a),
		Config:        a.Config,
		Traits:        a.Traits,
		Metrics:       a.Metrics(),
		State:         a.State(),
	}
}

// chatErrorStatus maps orchestrator chat errors onto HTTP statuses.
func chatErrorStatus(err error) int {
	switch {
	case errors.Is(err, worksona.ErrAgentNotFound):
		return http.StatusNotFound
	case errors.Is(err, worksona.ErrProviderUnavailable):
		return http.StatusConflict
	default:
		return http.StatusBadGateway
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
