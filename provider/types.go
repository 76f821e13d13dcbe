// Package provider implements chat adapters for hosted LLM vendors.
package provider

import (
	"context"
	"fmt"
)

// ChatProvider sends one chat turn to a vendor and returns the assistant
// text. Implementations are safe for concurrent use.
type ChatProvider interface {
	// Complete sends the request and returns the parsed completion.
	Complete(ctx context.Context, req Request) (*Response, error)

	// Name returns the provider identifier ("openai", "anthropic", "google").
	Name() string

	// Available reports whether the adapter was constructed with an API
	// key. Unavailable adapters must not be invoked.
	Available() bool
}

// Request is the normalized chat request shared by all adapters. Each
// adapter maps it onto its vendor's JSON envelope.
type Request struct {
	// Model overrides the adapter's default model when non-empty
	Model string

	// SystemPrompt is sent as the system role or vendor equivalent
	SystemPrompt string

	// Examples expand into alternating user/assistant turns before Message
	Examples []Example

	// Message is the new user turn
	Message string

	// Tuning fields; nil/zero values fall back to the defaults below
	Temperature      *float64
	MaxTokens        int
	TopP             *float64
	TopK             *int
	FrequencyPenalty *float64
	PresencePenalty  *float64
}

// Example is one few-shot user/assistant pair.
type Example struct {
	User      string `json:"user" yaml:"user"`
	Assistant string `json:"assistant" yaml:"assistant"`
}

// Response is the normalized result of a completion call.
type Response struct {
	// Content is the assistant text
	Content string

	// Model is the model that actually served the request
	Model string

	// Token counts when the vendor reports them
	InputTokens  int
	OutputTokens int

	// LatencyMs is the wall-clock request duration
	LatencyMs int64
}

// Tuning defaults applied when the request omits a field.
const (
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 500
	DefaultTopP        = 1.0
	DefaultTopK        = 40
)

// Error reports a non-2xx status or a malformed vendor response. Message
// carries the vendor's own error text when present.
type Error struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s API error %d: %s", e.Provider, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s API error: %s", e.Provider, e.Message)
}

// temperature returns the request temperature or the default.
func (r Request) temperature() float64 {
	if r.Temperature != nil {
		return *r.Temperature
	}
	return DefaultTemperature
}

// maxTokens returns the request token limit or the default.
func (r Request) maxTokens() int {
	if r.MaxTokens > 0 {
		return r.MaxTokens
	}
	return DefaultMaxTokens
}

// topP returns the request top-p or the default.
func (r Request) topP() float64 {
	if r.TopP != nil {
		return *r.TopP
	}
	return DefaultTopP
}

// topK returns the request top-k or the default.
func (r Request) topK() int {
	if r.TopK != nil {
		return *r.TopK
	}
	return DefaultTopK
}
