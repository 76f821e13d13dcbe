package worksona

import (
	"errors"
	"fmt"
	"strings"

	"github.com/worksona/worksona-go/provider"
)

var (
	// ErrAgentNotFound is returned when a chat or lookup names an
	// unknown agent ID.
	ErrAgentNotFound = errors.New("agent not found")

	// ErrProviderUnavailable is returned when the resolved provider has
	// no adapter, i.e. no API key was configured for it.
	ErrProviderUnavailable = errors.New("provider unavailable")
)

// ProviderError reports a failed or malformed vendor response.
type ProviderError = provider.Error

// ConfigError reports a malformed agent definition.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid agent definition: %s: %s", e.Field, e.Reason)
}

// ChatError wraps an adapter-level failure during a chat call with the
// agent and provider it occurred on.
type ChatError struct {
	AgentID  string
	Provider string
	Err      error
}

func (e *ChatError) Error() string {
	return fmt.Sprintf("chat failed for agent %q via %s: %v", e.AgentID, e.Provider, e.Err)
}

func (e *ChatError) Unwrap() error {
	return e.Err
}

// Error event codes.
const (
	CodeAgentNotFound       = "agent-not-found"
	CodeProviderUnavailable = "provider-unavailable"
	CodeConfigError         = "config-error"
	CodeLoadError           = "load-error"
	CodeInvalidAPIKey       = "invalid-api-key"
	CodeUnknownModel        = "unknown-model"
	CodeProviderError       = "provider-error"
	CodeChatError           = "chat-error"
)

// classifyChatError maps an adapter failure to an event code and a
// human-readable message, with special-cased wording for bad API keys and
// unknown models.
func classifyChatError(providerName, model string, err error) (code, msg string) {
	var pe *provider.Error
	if !errors.As(err, &pe) {
		return CodeChatError, err.Error()
	}

	lower := strings.ToLower(pe.Message)
	switch {
	case pe.StatusCode == 401 || pe.StatusCode == 403 ||
		strings.Contains(lower, "api key") ||
		strings.Contains(lower, "unauthorized") ||
		strings.Contains(lower, "authentication"):
		return CodeInvalidAPIKey,
			fmt.Sprintf("invalid or missing API key for %s: check the key and try again", providerName)

	case pe.StatusCode == 404 || strings.Contains(lower, "model"):
		name := model
		if name == "" {
			name = "(default)"
		}
		return CodeUnknownModel,
			fmt.Sprintf("model %q was rejected by %s: it may not exist or may not be available to this key", name, providerName)
	}

	return CodeProviderError, pe.Message
}
