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

// OpenAI is a ChatProvider backed by the OpenAI chat completions API.
type OpenAI struct {
	settings
}

// Default OpenAI configuration values
const (
	DefaultOpenAIModel   = "gpt-4o-mini"
	DefaultOpenAIBaseURL = "https://api.openai.com/v1"
)

// NewOpenAI creates a new OpenAI adapter. The API key defaults to the
// OPENAI_API_KEY environment variable.
func NewOpenAI(opts ...Option) *OpenAI {
	return &OpenAI{
		settings: newSettings(os.Getenv("OPENAI_API_KEY"), DefaultOpenAIBaseURL, DefaultOpenAIModel, opts),
	}
}

// Name returns "openai".
func (o *OpenAI) Name() string { return "openai" }

// Available reports whether an API key was configured.
func (o *OpenAI) Available() bool { return o.apiKey != "" }

type openaiMsg struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openaiRequest struct {
	Model            string      `json:"model"`
	Messages         []openaiMsg `json:"messages"`
	Temperature      float64     `json:"temperature"`
	MaxTokens        int         `json:"max_tokens"`
	TopP             float64     `json:"top_p"`
	FrequencyPenalty float64     `json:"frequency_penalty,omitempty"`
	PresencePenalty  float64     `json:"presence_penalty,omitempty"`
}

type openaiResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
	Error *openaiError `json:"error,omitempty"`
}

type openaiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    string `json:"code"`
}

// Complete sends one chat turn and returns the first choice's text.
func (o *OpenAI) Complete(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()

	body := o.buildRequest(req)
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strings.TrimRight(o.baseURL, "/")+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+o.apiKey)

	httpResp, err := o.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var resp openaiResponse
	if httpResp.StatusCode != http.StatusOK {
		// Pull the vendor message out of the error envelope when possible.
		if json.Unmarshal(respBody, &resp) == nil && resp.Error != nil {
			return nil, &Error{Provider: "openai", StatusCode: httpResp.StatusCode, Message: resp.Error.Message}
		}
		return nil, &Error{Provider: "openai", StatusCode: httpResp.StatusCode, Message: strings.TrimSpace(string(respBody))}
	}

	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, &Error{Provider: "openai", Message: fmt.Sprintf("unmarshal response: %v", err)}
	}
	if resp.Error != nil {
		return nil, &Error{Provider: "openai", Message: resp.Error.Message}
	}
	if len(resp.Choices) == 0 {
		return nil, &Error{Provider: "openai", Message: "response contained no choices"}
	}

	return &Response{
		Content:      resp.Choices[0].Message.Content,
		Model:        resp.Model,
		InputTokens:  resp.Usage.PromptTokens,
		OutputTokens: resp.Usage.CompletionTokens,
		LatencyMs:    time.Since(start).Milliseconds(),
	}, nil
}

func (o *OpenAI) buildRequest(req Request) openaiRequest {
	model := req.Model
	if model == "" {
		model = o.model
	}

	var msgs []openaiMsg
	if req.SystemPrompt != "" {
		msgs = append(msgs, openaiMsg{Role: "system", Content: req.SystemPrompt})
	}
	for _, ex := range req.Examples {
		msgs = append(msgs,
			openaiMsg{Role: "user", Content: ex.User},
			openaiMsg{Role: "assistant", Content: ex.Assistant},
		)
	}
	msgs = append(msgs, openaiMsg{Role: "user", Content: req.Message})

	out := openaiRequest{
		Model:       model,
		Messages:    msgs,
		Temperature: req.temperature(),
		MaxTokens:   req.maxTokens(),
		TopP:        req.topP(),
	}
	if req.FrequencyPenalty != nil {
		out.FrequencyPenalty = *req.FrequencyPenalty
	}
	if req.PresencePenalty != nil {
		out.PresencePenalty = *req.PresencePenalty
	}
	return out
}
