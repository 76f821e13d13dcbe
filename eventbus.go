package worksona

import (
	"sync"
	"time"
)

// Event is an orchestrator lifecycle event.
type Event struct {
	Type      EventType `json:"type"`
	AgentID   string    `json:"agent_id,omitempty"`
	AgentName string    `json:"agent_name,omitempty"`
	Timestamp time.Time `json:"timestamp"`

	// For agent-loaded events
	Description string `json:"description,omitempty"`

	// Provider and model resolved for the call
	Provider string `json:"provider,omitempty"`
	Model    string `json:"model,omitempty"`

	// For chat events
	Message    string `json:"message,omitempty"`
	Response   string `json:"response,omitempty"`
	DurationMs int64  `json:"duration_ms,omitempty"`

	// For error events
	Code  string `json:"code,omitempty"`
	Error string `json:"error,omitempty"`
}

// EventType identifies the kind of event.
type EventType string

const (
	EventAgentLoaded  EventType = "agent-loaded"
	EventAgentRemoved EventType = "agent-removed"
	EventChatStart    EventType = "chat-start"
	EventChatComplete EventType = "chat-complete"
	EventError        EventType = "error"
)

// Handler receives events from the bus.
type Handler func(Event)

// Subscription identifies a registered handler so it can be removed.
type Subscription uint64

// EventBus is a synchronous in-process publish/subscribe bus. Handlers for
// an event run in registration order on the emitting goroutine; a panicking
// handler propagates to the emitter's caller. Duplicate registrations of
// the same handler are allowed and invoked once each.
type EventBus struct {
	mu       sync.RWMutex
	nextID   Subscription
	handlers map[EventType][]registration
}

type registration struct {
	id Subscription
	fn Handler
}

// NewEventBus creates an empty bus.
func NewEventBus() *EventBus {
	return &EventBus{
		handlers: make(map[EventType][]registration),
	}
}

// On registers a handler for an event type and returns a subscription
// token for Off.
func (b *EventBus) On(event EventType, fn Handler) Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	b.handlers[event] = append(b.handlers[event], registration{id: b.nextID, fn: fn})
	return b.nextID
}

// Off removes a previously registered handler. It reports whether a
// handler was actually removed.
func (b *EventBus) Off(event EventType, sub Subscription) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	regs := b.handlers[event]
	for i, reg := range regs {
		if reg.id == sub {
			b.handlers[event] = append(regs[:i:i], regs[i+1:]...)
			return true
		}
	}
	return false
}

// Emit invokes all handlers currently registered for the event's type,
// synchronously and in registration order. Handlers registered while Emit
// runs are not invoked for this event.
func (b *EventBus) Emit(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	b.mu.RLock()
	regs := make([]registration, len(b.handlers[event.Type]))
	copy(regs, b.handlers[event.Type])
	b.mu.RUnlock()

	for _, reg := range regs {
		reg.fn(event)
	}
}
