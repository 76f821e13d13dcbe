package worksona

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/worksona/worksona-go/provider"
)

// mockProvider is a simple mock for testing.
type mockProvider struct {
	name     string
	response string
	err      error

	mu    sync.Mutex
	calls int
	last  provider.Request
}

func (m *mockProvider) Complete(ctx context.Context, req provider.Request) (*provider.Response, error) {
	m.mu.Lock()
	m.calls++
	m.last = req
	m.mu.Unlock()

	if m.err != nil {
		return nil, m.err
	}
	return &provider.Response{Content: m.response, Model: req.Model}, nil
}

func (m *mockProvider) Name() string {
	if m.name != "" {
		return m.name
	}
	return "openai"
}

func (m *mockProvider) Available() bool { return true }

func (m *mockProvider) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func testDefinition(id string) Definition {
	return Definition{
		ID:   id,
		Name: "Test Agent",
		Config: map[string]any{
			"provider":     "openai",
			"model":        "gpt-4",
			"systemPrompt": "hi",
		},
	}
}

func TestLoadAgentValidation(t *testing.T) {
	o := NewOrchestrator()

	var cfgErr *ConfigError

	_, err := o.LoadAgent(Definition{Name: "no id"})
	if !errors.As(err, &cfgErr) || cfgErr.Field != "id" {
		t.Errorf("missing id error = %v", err)
	}

	_, err = o.LoadAgent(Definition{ID: "a1"})
	if !errors.As(err, &cfgErr) || cfgErr.Field != "name" {
		t.Errorf("missing name error = %v", err)
	}
}

func TestLoadAgentFlattens(t *testing.T) {
	o := NewOrchestrator()

	agent, err := o.LoadAgent(Definition{
		ID:   "a1",
		Name: "A",
		Config: map[string]any{
			"provider": "anthropic",
			"config": map[string]any{
				"provider": "openai",
				"model":    "gpt-4",
			},
		},
	})
	if err != nil {
		t.Fatalf("LoadAgent() error = %v", err)
	}

	if agent.Config.Provider != "anthropic" {
		t.Errorf("Provider = %q, want anthropic (outer wins)", agent.Config.Provider)
	}
	if agent.Config.Model != "gpt-4" {
		t.Errorf("Model = %q, want gpt-4 (inner preserved)", agent.Config.Model)
	}
}

func TestLoadAgentOverwritesDuplicateID(t *testing.T) {
	o := NewOrchestrator()

	if _, err := o.LoadAgent(testDefinition("a1")); err != nil {
		t.Fatal(err)
	}
	def := testDefinition("a1")
	def.Name = "Replacement"
	if _, err := o.LoadAgent(def); err != nil {
		t.Fatal(err)
	}

	agents := o.GetAllAgents()
	if len(agents) != 1 {
		t.Fatalf("agent count = %d, want 1", len(agents))
	}
	if agents[0].Name != "Replacement" {
		t.Errorf("Name = %q, want Replacement", agents[0].Name)
	}
}

func TestLoadAgentEmitsEvent(t *testing.T) {
	o := NewOrchestrator()

	var events []Event
	o.On(EventAgentLoaded, func(e Event) { events = append(events, e) })

	if _, err := o.LoadAgent(testDefinition("a1")); err != nil {
		t.Fatal(err)
	}

	if len(events) != 1 {
		t.Fatalf("agent-loaded events = %d, want 1", len(events))
	}
	e := events[0]
	if e.AgentID != "a1" || e.AgentName != "Test Agent" || e.Provider != "openai" || e.Model != "gpt-4" {
		t.Errorf("event = %+v", e)
	}
}

func TestChatSuccess(t *testing.T) {
	mock := &mockProvider{response: "Hello there!"}
	o := NewOrchestrator(WithProvider(mock))
	if _, err := o.LoadAgent(testDefinition("a1")); err != nil {
		t.Fatal(err)
	}

	var order []EventType
	o.On(EventChatStart, func(e Event) { order = append(order, e.Type) })
	o.On(EventChatComplete, func(e Event) { order = append(order, e.Type) })

	resp, err := o.Chat(context.Background(), "a1", "hello", nil)
	if err != nil {
		t.Fatalf("Chat() error = %v", err)
	}
	if resp != "Hello there!" {
		t.Errorf("response = %q", resp)
	}

	if len(order) != 2 || order[0] != EventChatStart || order[1] != EventChatComplete {
		t.Errorf("event order = %v, want [chat-start chat-complete]", order)
	}

	history := o.GetAgentHistory("a1")
	if len(history) != 1 {
		t.Fatalf("history length = %d, want 1", len(history))
	}
	tx := history[0]
	if tx.Provider != "openai" || tx.Query != "hello" || tx.Response != "Hello there!" || tx.Error != "" {
		t.Errorf("transaction = %+v", tx)
	}
	if tx.ID == "" {
		t.Error("transaction should have an ID")
	}
}

func TestChatSendsAgentConfig(t *testing.T) {
	mock := &mockProvider{response: "ok"}
	o := NewOrchestrator(WithProvider(mock))

	temp := 0.1
	def := Definition{
		ID:   "a1",
		Name: "A",
		Config: map[string]any{
			"provider":     "openai",
			"model":        "gpt-4",
			"systemPrompt": "be terse",
			"temperature":  temp,
			"maxTokens":    42,
			"examples": []any{
				map[string]any{"user": "ping", "assistant": "pong"},
			},
		},
	}
	if _, err := o.LoadAgent(def); err != nil {
		t.Fatal(err)
	}

	if _, err := o.Chat(context.Background(), "a1", "hello", nil); err != nil {
		t.Fatal(err)
	}

	req := mock.last
	if req.Model != "gpt-4" || req.SystemPrompt != "be terse" || req.Message != "hello" {
		t.Errorf("request = %+v", req)
	}
	if req.Temperature == nil || *req.Temperature != temp {
		t.Errorf("Temperature = %v", req.Temperature)
	}
	if req.MaxTokens != 42 {
		t.Errorf("MaxTokens = %d", req.MaxTokens)
	}
	if len(req.Examples) != 1 || req.Examples[0].User != "ping" {
		t.Errorf("Examples = %+v", req.Examples)
	}
}

func TestChatFailureRecordsTransaction(t *testing.T) {
	mock := &mockProvider{err: &provider.Error{Provider: "openai", StatusCode: 500, Message: "server exploded"}}
	o := NewOrchestrator(WithProvider(mock))
	if _, err := o.LoadAgent(testDefinition("a1")); err != nil {
		t.Fatal(err)
	}

	var errEvents []Event
	o.On(EventError, func(e Event) { errEvents = append(errEvents, e) })

	_, err := o.Chat(context.Background(), "a1", "hello", nil)

	var chatErr *ChatError
	if !errors.As(err, &chatErr) {
		t.Fatalf("Chat() error = %v, want *ChatError", err)
	}
	if chatErr.AgentID != "a1" || chatErr.Provider != "openai" {
		t.Errorf("ChatError = %+v", chatErr)
	}

	history := o.GetAgentHistory("a1")
	if len(history) != 1 {
		t.Fatalf("history length = %d, want 1 (failures are recorded)", len(history))
	}
	if history[0].Error == "" || history[0].Response != "" {
		t.Errorf("transaction = %+v", history[0])
	}

	m := o.GetAgentMetrics("a1")
	if m.TotalQueries != 1 || m.ErrorCount != 1 || m.SuccessRate != 0 {
		t.Errorf("metrics = %+v", m)
	}

	if len(errEvents) != 1 || errEvents[0].Code != CodeProviderError {
		t.Errorf("error events = %+v", errEvents)
	}
}

func TestChatMixedMetrics(t *testing.T) {
	mock := &mockProvider{response: "ok"}
	o := NewOrchestrator(WithProvider(mock))
	if _, err := o.LoadAgent(testDefinition("a1")); err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if _, err := o.Chat(ctx, "a1", "hello", nil); err != nil {
			t.Fatal(err)
		}
	}
	mock.err = errors.New("transient")
	o.Chat(ctx, "a1", "hello", nil)
	o.Chat(ctx, "a1", "hello", nil)

	m := o.GetAgentMetrics("a1")
	if m.TotalQueries != 5 {
		t.Errorf("TotalQueries = %d, want 5", m.TotalQueries)
	}
	if m.ErrorCount != 2 {
		t.Errorf("ErrorCount = %d, want 2", m.ErrorCount)
	}
	if want := float64(5-2) / 5; m.SuccessRate != want {
		t.Errorf("SuccessRate = %f, want %f", m.SuccessRate, want)
	}
}

func TestChatAgentNotFound(t *testing.T) {
	mock := &mockProvider{response: "ok"}
	o := NewOrchestrator(WithProvider(mock))

	var errEvent Event
	o.On(EventError, func(e Event) { errEvent = e })

	_, err := o.Chat(context.Background(), "ghost", "hello", nil)
	if !errors.Is(err, ErrAgentNotFound) {
		t.Errorf("Chat() error = %v, want ErrAgentNotFound", err)
	}
	if errEvent.Code != CodeAgentNotFound {
		t.Errorf("error event = %+v", errEvent)
	}
	if mock.callCount() != 0 {
		t.Error("provider must not be invoked for unknown agents")
	}
}

func TestChatProviderUnavailable(t *testing.T) {
	// No providers configured at all.
	o := NewOrchestrator()
	if _, err := o.LoadAgent(testDefinition("a1")); err != nil {
		t.Fatal(err)
	}

	var errEvent Event
	o.On(EventError, func(e Event) { errEvent = e })

	_, err := o.Chat(context.Background(), "a1", "hello", nil)
	if !errors.Is(err, ErrProviderUnavailable) {
		t.Errorf("Chat() error = %v, want ErrProviderUnavailable", err)
	}
	if errEvent.Code != CodeProviderUnavailable {
		t.Errorf("error event = %+v", errEvent)
	}

	// The failed dispatch is not a transaction: no network call was made.
	if got := len(o.GetAgentHistory("a1")); got != 0 {
		t.Errorf("history length = %d, want 0", got)
	}
}

func TestChatModelOverride(t *testing.T) {
	mock := &mockProvider{response: "ok"}
	o := NewOrchestrator(WithProvider(mock))
	if _, err := o.LoadAgent(testDefinition("a1")); err != nil {
		t.Fatal(err)
	}

	if _, err := o.Chat(context.Background(), "a1", "hello", &ChatOptions{Model: "gpt-4o"}); err != nil {
		t.Fatal(err)
	}
	if mock.last.Model != "gpt-4o" {
		t.Errorf("Model = %q, want gpt-4o", mock.last.Model)
	}
}

func TestRemoveAgent(t *testing.T) {
	o := NewOrchestrator()
	if _, err := o.LoadAgent(testDefinition("a1")); err != nil {
		t.Fatal(err)
	}

	removed := 0
	o.On(EventAgentRemoved, func(Event) { removed++ })

	if o.RemoveAgent("ghost") {
		t.Error("RemoveAgent(ghost) = true, want false")
	}
	if removed != 0 {
		t.Errorf("agent-removed events = %d, want 0", removed)
	}

	if !o.RemoveAgent("a1") {
		t.Error("RemoveAgent(a1) = false, want true")
	}
	if removed != 1 {
		t.Errorf("agent-removed events = %d, want 1", removed)
	}
	if o.GetAgent("a1") != nil {
		t.Error("agent still present after removal")
	}
}

func TestLookupGettersEmitErrorEvents(t *testing.T) {
	o := NewOrchestrator()

	errEvents := 0
	o.On(EventError, func(e Event) {
		if e.Code == CodeAgentNotFound {
			errEvents++
		}
	})

	if o.GetAgentHistory("ghost") != nil {
		t.Error("GetAgentHistory(ghost) should be nil")
	}
	if o.GetAgentMetrics("ghost") != nil {
		t.Error("GetAgentMetrics(ghost) should be nil")
	}
	if o.GetAgentState("ghost") != nil {
		t.Error("GetAgentState(ghost) should be nil")
	}
	if errEvents != 3 {
		t.Errorf("error events = %d, want 3", errEvents)
	}
}

func TestSetKey(t *testing.T) {
	o := NewOrchestrator()

	if len(o.Providers()) != 0 {
		t.Fatalf("Providers() = %v, want empty", o.Providers())
	}

	o.SetKey("anthropic", "sk-test")
	if got := o.Providers(); len(got) != 1 || got[0] != "anthropic" {
		t.Errorf("Providers() = %v", got)
	}

	o.SetKey("anthropic", "")
	if len(o.Providers()) != 0 {
		t.Error("empty key should remove the provider")
	}
}

func TestWithDefaultProvider(t *testing.T) {
	mock := &mockProvider{name: "google", response: "ok"}
	o := NewOrchestrator(WithProvider(mock), WithDefaultProvider("google"))

	// Definition without a provider picks up the default at load time.
	if _, err := o.LoadAgent(Definition{ID: "a1", Name: "A"}); err != nil {
		t.Fatal(err)
	}
	if got := o.GetAgent("a1").Config.Provider; got != "google" {
		t.Errorf("Provider = %q, want google", got)
	}

	if _, err := o.Chat(context.Background(), "a1", "hello", nil); err != nil {
		t.Fatalf("Chat() error = %v", err)
	}
	if mock.callCount() != 1 {
		t.Errorf("calls = %d, want 1", mock.callCount())
	}
}
