package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

// Google is a ChatProvider backed by the Gemini generateContent API.
type Google struct {
	settings
}

// Default Google configuration values
const (
	DefaultGoogleModel   = "gemini-1.5-flash"
	DefaultGoogleBaseURL = "https://generativelanguage.googleapis.com/v1beta"
)

// NewGoogle creates a new Google adapter. The API key defaults to the
// GOOGLE_API_KEY environment variable.
func NewGoogle(opts ...Option) *Google {
	return &Google{
		settings: newSettings(os.Getenv("GOOGLE_API_KEY"), DefaultGoogleBaseURL, DefaultGoogleModel, opts),
	}
}

// Name returns "google".
func (g *Google) Name() string { return "google" }

// Available reports whether an API key was configured.
func (g *Google) Available() bool { return g.apiKey != "" }

type googlePart struct {
	Text string `json:"text"`
}

type googleContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []googlePart `json:"parts"`
}

type googleRequest struct {
	SystemInstruction *googleContent  `json:"systemInstruction,omitempty"`
	Contents          []googleContent `json:"contents"`
	GenerationConfig  struct {
		Temperature     float64 `json:"temperature"`
		MaxOutputTokens int     `json:"maxOutputTokens"`
		TopP            float64 `json:"topP"`
		TopK            int     `json:"topK"`
	} `json:"generationConfig"`
}

type googleResponse struct {
	Candidates []struct {
		Content struct {
			Parts []googlePart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	UsageMetadata struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
	} `json:"usageMetadata"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error,omitempty"`
}

// Complete sends one chat turn and returns the first candidate's first
// part text. The API key travels in the query string, not a header.
func (g *Google) Complete(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()

	model := req.Model
	if model == "" {
		model = g.model
	}

	payload, err := json.Marshal(g.buildRequest(req))
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s",
		strings.TrimRight(g.baseURL, "/"), model, url.QueryEscape(g.apiKey))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var resp googleResponse
	if httpResp.StatusCode != http.StatusOK {
		if json.Unmarshal(respBody, &resp) == nil && resp.Error != nil {
			return nil, &Error{Provider: "google", StatusCode: httpResp.StatusCode, Message: resp.Error.Message}
		}
		return nil, &Error{Provider: "google", StatusCode: httpResp.StatusCode, Message: strings.TrimSpace(string(respBody))}
	}

	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, &Error{Provider: "google", Message: fmt.Sprintf("unmarshal response: %v", err)}
	}
	if resp.Error != nil {
		return nil, &Error{Provider: "google", Message: resp.Error.Message}
	}
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, &Error{Provider: "google", Message: "response contained no candidate parts"}
	}

	return &Response{
		Content:      resp.Candidates[0].Content.Parts[0].Text,
		Model:        model,
		InputTokens:  resp.UsageMetadata.PromptTokenCount,
		OutputTokens: resp.UsageMetadata.CandidatesTokenCount,
		LatencyMs:    time.Since(start).Milliseconds(),
	}, nil
}

func (g *Google) buildRequest(req Request) googleRequest {
	var out googleRequest

	// Gemini has no assistant role; example answers go out as "model" turns.
	if req.SystemPrompt != "" {
		out.SystemInstruction = &googleContent{
			Parts: []googlePart{{Text: req.SystemPrompt}},
		}
	}
	for _, ex := range req.Examples {
		out.Contents = append(out.Contents,
			googleContent{Role: "user", Parts: []googlePart{{Text: ex.User}}},
			googleContent{Role: "model", Parts: []googlePart{{Text: ex.Assistant}}},
		)
	}
	out.Contents = append(out.Contents, googleContent{Role: "user", Parts: []googlePart{{Text: req.Message}}})

	out.GenerationConfig.Temperature = req.temperature()
	out.GenerationConfig.MaxOutputTokens = req.maxTokens()
	out.GenerationConfig.TopP = req.topP()
	out.GenerationConfig.TopK = req.topK()

	return out
}
