package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// Anthropic is a ChatProvider backed by the Anthropic messages API.
type Anthropic struct {
	settings
}

// Default Anthropic configuration values
const (
	DefaultAnthropicModel   = "claude-3-5-sonnet-20241022"
	DefaultAnthropicBaseURL = "https://api.anthropic.com"

	anthropicVersion = "2023-06-01"
)

// NewAnthropic creates a new Anthropic adapter. The API key defaults to
// the ANTHROPIC_API_KEY environment variable.
func NewAnthropic(opts ...Option) *Anthropic {
	return &Anthropic{
		settings: newSettings(os.Getenv("ANTHROPIC_API_KEY"), DefaultAnthropicBaseURL, DefaultAnthropicModel, opts),
	}
}

// Name returns "anthropic".
func (a *Anthropic) Name() string { return "anthropic" }

// Available reports whether an API key was configured.
func (a *Anthropic) Available() bool { return a.apiKey != "" }

type anthropicMsg struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicRequest struct {
	Model       string         `json:"model"`
	Messages    []anthropicMsg `json:"messages"`
	System      string         `json:"system,omitempty"`
	MaxTokens   int            `json:"max_tokens"`
	Temperature float64        `json:"temperature"`
	TopP        float64        `json:"top_p,omitempty"`
	TopK        int            `json:"top_k,omitempty"`
}

type anthropicResponse struct {
	Model   string `json:"model"`
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Complete sends one chat turn and returns the first text content block.
func (a *Anthropic) Complete(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()

	payload, err := json.Marshal(a.buildRequest(req))
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strings.TrimRight(a.baseURL, "/")+"/v1/messages", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", a.apiKey)
	httpReq.Header.Set("anthropic-version", anthropicVersion)

	httpResp, err := a.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var resp anthropicResponse
	if httpResp.StatusCode != http.StatusOK {
		if json.Unmarshal(respBody, &resp) == nil && resp.Error != nil {
			return nil, &Error{Provider: "anthropic", StatusCode: httpResp.StatusCode, Message: resp.Error.Message}
		}
		return nil, &Error{Provider: "anthropic", StatusCode: httpResp.StatusCode, Message: strings.TrimSpace(string(respBody))}
	}

	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, &Error{Provider: "anthropic", Message: fmt.Sprintf("unmarshal response: %v", err)}
	}
	if resp.Error != nil {
		return nil, &Error{Provider: "anthropic", Message: resp.Error.Message}
	}

	for _, block := range resp.Content {
		if block.Type == "text" {
			return &Response{
				Content:      block.Text,
				Model:        resp.Model,
				InputTokens:  resp.Usage.InputTokens,
				OutputTokens: resp.Usage.OutputTokens,
				LatencyMs:    time.Since(start).Milliseconds(),
			}, nil
		}
	}

	return nil, &Error{Provider: "anthropic", Message: "response contained no text content block"}
}

func (a *Anthropic) buildRequest(req Request) anthropicRequest {
	model := req.Model
	if model == "" {
		model = a.model
	}

	var msgs []anthropicMsg
	for _, ex := range req.Examples {
		msgs = append(msgs,
			anthropicMsg{Role: "user", Content: ex.User},
			anthropicMsg{Role: "assistant", Content: ex.Assistant},
		)
	}
	msgs = append(msgs, anthropicMsg{Role: "user", Content: req.Message})

	out := anthropicRequest{
		Model:       model,
		Messages:    msgs,
		System:      req.SystemPrompt,
		MaxTokens:   req.maxTokens(),
		Temperature: req.temperature(),
		TopP:        req.topP(),
	}
	if req.TopK != nil {
		out.TopK = *req.TopK
	}
	return out
}
