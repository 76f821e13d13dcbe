// Package worksona provides multi-provider LLM agent personas for Go.
//
// Worksona is a Go library for registering named agent personas and
// dispatching chat messages to hosted LLM providers. It provides:
//
//   - Agent definitions with provider/model choice, system prompt, and few-shot examples
//   - An orchestrator owning the agent registry and routing chat calls
//   - Provider adapters for OpenAI, Anthropic, and Google with normalized request/response shapes
//   - Per-agent transaction history with running metrics
//   - A synchronous event bus for lifecycle notifications
//   - Optional persistence of agent snapshots
//
// # Quick Start
//
// Create an orchestrator, load an agent, and chat:
//
//	orch := worksona.NewOrchestrator(
//	    worksona.WithOpenAI(os.Getenv("OPENAI_API_KEY")),
//	)
//
//	agent, err := orch.LoadAgent(worksona.Definition{
//	    ID:   "support",
//	    Name: "Support Rep",
//	    Config: map[string]any{
//	        "provider":     "openai",
//	        "model":        "gpt-4",
//	        "systemPrompt": "You are a patient support representative.",
//	    },
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	reply, err := orch.Chat(ctx, "support", "How do I reset my password?", nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(reply)
//
// # Events
//
// Subscribe to lifecycle events:
//
//	orch.On(worksona.EventChatComplete, func(e worksona.Event) {
//	    fmt.Printf("%s answered in %dms\n", e.AgentID, e.DurationMs)
//	})
//
// Events fire synchronously in registration order: agent-loaded,
// agent-removed, chat-start, chat-complete, and error.
//
// # Agent Definitions
//
// Definitions can be literal values, JSON or YAML files, or URLs returning
// JSON. A nested "config" block inside the config collapses into one flat
// object at load time, with the outer keys winning on collision.
//
// # Architecture
//
// The main components are:
//
//   - Agent: a named persona with configuration, transaction log, and metrics
//   - Orchestrator: owns the registry, routes chat calls, records transactions
//   - provider.ChatProvider: one vendor adapter sending a chat turn
//   - EventBus: in-process synchronous publish/subscribe
//   - serve.Server: optional control panel REST/SSE API over the registry
//
// # Thread Safety
//
// All exported types are safe for concurrent use. The Orchestrator and
// Agent types use internal synchronization; concurrent chat calls against
// the same agent append transactions in completion order.
package worksona
