package worksona

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/worksona/worksona-go/provider"
)

// ChatProvider is the vendor adapter capability used by the orchestrator.
type ChatProvider = provider.ChatProvider

// DefaultProvider is used when neither the agent config nor the call
// options name one.
const DefaultProvider = "openai"

// Orchestrator owns the agent registry, routes chat calls to provider
// adapters, records transactions, and emits lifecycle events.
type Orchestrator struct {
	agents map[string]*Agent
	mu     sync.RWMutex

	providers   map[string]ChatProvider
	providerMu  sync.RWMutex
	defaultProv string

	bus         *EventBus
	persistence Persistence
}

// OrchestratorOption configures an Orchestrator.
type OrchestratorOption func(*Orchestrator)

// NewOrchestrator creates a new Orchestrator.
func NewOrchestrator(opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		agents:      make(map[string]*Agent),
		providers:   make(map[string]ChatProvider),
		defaultProv: DefaultProvider,
		bus:         NewEventBus(),
	}

	for _, opt := range opts {
		opt(o)
	}

	if o.persistence != nil {
		o.restoreAgents()
	}

	return o
}

// WithProvider registers a provider adapter under its own name. Adapters
// without an API key are skipped so they can never be invoked.
func WithProvider(p ChatProvider) OrchestratorOption {
	return func(o *Orchestrator) {
		if p != nil && p.Available() {
			o.providers[p.Name()] = p
		}
	}
}

// WithOpenAI registers an OpenAI adapter for the given key.
func WithOpenAI(apiKey string) OrchestratorOption {
	return WithProvider(provider.NewOpenAI(provider.WithAPIKey(apiKey)))
}

// WithAnthropic registers an Anthropic adapter for the given key.
func WithAnthropic(apiKey string) OrchestratorOption {
	return WithProvider(provider.NewAnthropic(provider.WithAPIKey(apiKey)))
}

// WithGoogle registers a Google adapter for the given key.
func WithGoogle(apiKey string) OrchestratorOption {
	return WithProvider(provider.NewGoogle(provider.WithAPIKey(apiKey)))
}

// WithDefaultProvider sets the orchestrator-wide default provider name.
func WithDefaultProvider(name string) OrchestratorOption {
	return func(o *Orchestrator) {
		o.defaultProv = name
	}
}

// WithBus uses an existing event bus instead of a fresh one.
func WithBus(bus *EventBus) OrchestratorOption {
	return func(o *Orchestrator) {
		if bus != nil {
			o.bus = bus
		}
	}
}

// WithPersistence enables agent snapshot persistence. Snapshots saved
// earlier are restored at construction time.
func WithPersistence(p Persistence) OrchestratorOption {
	return func(o *Orchestrator) {
		o.persistence = p
	}
}

// Bus returns the orchestrator's event bus.
func (o *Orchestrator) Bus() *EventBus { return o.bus }

// On registers an event handler. See EventBus.On.
func (o *Orchestrator) On(event EventType, fn Handler) Subscription {
	return o.bus.On(event, fn)
}

// Off removes an event handler. See EventBus.Off.
func (o *Orchestrator) Off(event EventType, sub Subscription) bool {
	return o.bus.Off(event, sub)
}

// LoadAgent validates and constructs an agent, then inserts it into the
// registry. Loading an existing ID replaces that agent. Emits agent-loaded.
func (o *Orchestrator) LoadAgent(def Definition) (*Agent, error) {
	if def.ID == "" {
		return nil, o.loadError(&ConfigError{Field: "id", Reason: "required"}, def.ID)
	}
	if def.Name == "" {
		return nil, o.loadError(&ConfigError{Field: "name", Reason: "required"}, def.ID)
	}

	cfg, err := buildConfig(def, o.defaultProv)
	if err != nil {
		return nil, o.loadError(&ConfigError{Field: "config", Reason: err.Error()}, def.ID)
	}

	agent := newAgent(def.ID, def.Name, def.Description, cfg, def.Traits)

	o.mu.Lock()
	o.agents[agent.ID] = agent
	o.mu.Unlock()

	o.persistState()

	o.bus.Emit(Event{
		Type:        EventAgentLoaded,
		AgentID:     agent.ID,
		AgentName:   agent.Name,
		Description: agent.Description,
		Provider:    cfg.Provider,
		Model:       cfg.Model,
	})

	return agent, nil
}

// loadError emits an error event for a failed load and returns the error.
func (o *Orchestrator) loadError(err error, agentID string) error {
	o.bus.Emit(Event{
		Type:    EventError,
		AgentID: agentID,
		Code:    CodeConfigError,
		Error:   err.Error(),
	})
	return err
}

// ChatOptions carries per-call overrides for Chat.
type ChatOptions struct {
	// Provider overrides the provider for agents that configure none
	Provider string

	// Model overrides the agent's configured model
	Model string
}

// Chat dispatches one message to an agent's provider and returns the
// assistant text. Both successes and failures are recorded as transactions
// so metrics reflect every call.
func (o *Orchestrator) Chat(ctx context.Context, agentID, message string, opts *ChatOptions) (string, error) {
	o.mu.RLock()
	agent := o.agents[agentID]
	o.mu.RUnlock()

	if agent == nil {
		o.bus.Emit(Event{
			Type:    EventError,
			AgentID: agentID,
			Code:    CodeAgentNotFound,
			Error:   fmt.Sprintf("agent %q is not loaded", agentID),
		})
		return "", fmt.Errorf("%q: %w", agentID, ErrAgentNotFound)
	}

	// Resolution order: the agent's own provider wins, then the per-call
	// override, then the orchestrator default.
	provName := agent.Config.Provider
	if provName == "" && opts != nil {
		provName = opts.Provider
	}
	if provName == "" {
		provName = o.defaultProv
	}

	p := o.provider(provName)
	if p == nil {
		o.bus.Emit(Event{
			Type:      EventError,
			AgentID:   agent.ID,
			AgentName: agent.Name,
			Provider:  provName,
			Code:      CodeProviderUnavailable,
			Error:     fmt.Sprintf("no API key configured for provider %q", provName),
		})
		return "", fmt.Errorf("%q: %w", provName, ErrProviderUnavailable)
	}

	model := agent.Config.Model
	if opts != nil && opts.Model != "" {
		model = opts.Model
	}

	o.bus.Emit(Event{
		Type:      EventChatStart,
		AgentID:   agent.ID,
		AgentName: agent.Name,
		Provider:  provName,
		Model:     model,
		Message:   message,
	})

	req := provider.Request{
		Model:            model,
		SystemPrompt:     agent.Config.SystemPrompt,
		Examples:         agent.Config.Examples,
		Message:          message,
		Temperature:      agent.Config.Temperature,
		MaxTokens:        agent.Config.MaxTokens,
		TopP:             agent.Config.TopP,
		TopK:             agent.Config.TopK,
		FrequencyPenalty: agent.Config.FrequencyPenalty,
		PresencePenalty:  agent.Config.PresencePenalty,
	}

	start := time.Now()
	resp, err := p.Complete(ctx, req)
	elapsed := time.Since(start)

	tx := Transaction{
		ID:         uuid.New().String(),
		Timestamp:  start,
		Query:      message,
		DurationMs: elapsed.Milliseconds(),
		Provider:   provName,
		Model:      model,
	}

	if err != nil {
		tx.Error = err.Error()
		agent.AddTransaction(tx)
		o.persistState()

		code, msg := classifyChatError(provName, model, err)
		slog.Warn("chat call failed", "agent", agent.ID, "provider", provName, "code", code, "error", err)
		o.bus.Emit(Event{
			Type:       EventError,
			AgentID:    agent.ID,
			AgentName:  agent.Name,
			Provider:   provName,
			Model:      model,
			DurationMs: tx.DurationMs,
			Code:       code,
			Error:      msg,
		})
		return "", &ChatError{AgentID: agent.ID, Provider: provName, Err: err}
	}

	tx.Response = resp.Content
	if resp.Model != "" {
		tx.Model = resp.Model
	}
	agent.AddTransaction(tx)
	o.persistState()

	o.bus.Emit(Event{
		Type:       EventChatComplete,
		AgentID:    agent.ID,
		AgentName:  agent.Name,
		Provider:   provName,
		Model:      tx.Model,
		Response:   resp.Content,
		DurationMs: tx.DurationMs,
	})

	return resp.Content, nil
}

// GetAgent returns an agent by ID, or nil if it is not loaded.
func (o *Orchestrator) GetAgent(id string) *Agent {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.agents[id]
}

// GetAllAgents returns all loaded agents.
func (o *Orchestrator) GetAllAgents() []*Agent {
	o.mu.RLock()
	defer o.mu.RUnlock()

	agents := make([]*Agent, 0, len(o.agents))
	for _, a := range o.agents {
		agents = append(agents, a)
	}
	return agents
}

// RemoveAgent deletes an agent from the registry. It reports whether an
// entry existed; agent-removed fires only on actual removal.
func (o *Orchestrator) RemoveAgent(id string) bool {
	o.mu.Lock()
	agent, ok := o.agents[id]
	if ok {
		delete(o.agents, id)
	}
	o.mu.Unlock()

	if !ok {
		return false
	}

	o.persistState()
	o.bus.Emit(Event{
		Type:      EventAgentRemoved,
		AgentID:   id,
		AgentName: agent.Name,
	})
	return true
}

// GetAgentHistory returns a copy of an agent's transaction log, or nil for
// an unknown ID.
func (o *Orchestrator) GetAgentHistory(id string) []Transaction {
	agent := o.lookup(id)
	if agent == nil {
		return nil
	}
	return agent.History()
}

// GetAgentMetrics returns an agent's metrics, or nil for an unknown ID.
func (o *Orchestrator) GetAgentMetrics(id string) *Metrics {
	agent := o.lookup(id)
	if agent == nil {
		return nil
	}
	m := agent.Metrics()
	return &m
}

// GetAgentState returns an agent's transient state, or nil for an unknown ID.
func (o *Orchestrator) GetAgentState(id string) *State {
	agent := o.lookup(id)
	if agent == nil {
		return nil
	}
	s := agent.State()
	return &s
}

// lookup fetches an agent and emits an error event when it is missing, so
// callers ignoring return values still get a signal.
func (o *Orchestrator) lookup(id string) *Agent {
	o.mu.RLock()
	agent := o.agents[id]
	o.mu.RUnlock()

	if agent == nil {
		o.bus.Emit(Event{
			Type:    EventError,
			AgentID: id,
			Code:    CodeAgentNotFound,
			Error:   fmt.Sprintf("agent %q is not loaded", id),
		})
	}
	return agent
}

// SetKey installs or replaces the adapter for a provider at runtime. An
// empty key removes the adapter, making the provider unavailable.
func (o *Orchestrator) SetKey(name, apiKey string) {
	o.providerMu.Lock()
	defer o.providerMu.Unlock()

	if apiKey == "" {
		delete(o.providers, name)
		return
	}

	switch name {
	case "openai":
		o.providers[name] = provider.NewOpenAI(provider.WithAPIKey(apiKey))
	case "anthropic":
		o.providers[name] = provider.NewAnthropic(provider.WithAPIKey(apiKey))
	case "google":
		o.providers[name] = provider.NewGoogle(provider.WithAPIKey(apiKey))
	default:
		slog.Warn("unknown provider name, key ignored", "provider", name)
	}
}

// Providers returns the names of the currently available providers.
func (o *Orchestrator) Providers() []string {
	o.providerMu.RLock()
	defer o.providerMu.RUnlock()

	names := make([]string, 0, len(o.providers))
	for name := range o.providers {
		names = append(names, name)
	}
	return names
}

// provider returns the adapter registered under name, or nil.
func (o *Orchestrator) provider(name string) ChatProvider {
	o.providerMu.RLock()
	defer o.providerMu.RUnlock()
	return o.providers[name]
}
