package provider

import (
	"net/http"
	"time"
)

// DefaultTimeout is the HTTP client timeout for adapter requests.
const DefaultTimeout = 2 * time.Minute

// Option configures a provider adapter at construction time.
type Option func(*settings)

type settings struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
}

// WithAPIKey sets the API key.
func WithAPIKey(key string) Option {
	return func(s *settings) {
		s.apiKey = key
	}
}

// WithModel sets the default model.
func WithModel(model string) Option {
	return func(s *settings) {
		s.model = model
	}
}

// WithBaseURL sets the API base URL.
func WithBaseURL(url string) Option {
	return func(s *settings) {
		s.baseURL = url
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(s *settings) {
		s.httpClient = client
	}
}

// newSettings applies options over per-provider defaults.
func newSettings(apiKey, baseURL, model string, opts []Option) settings {
	s := settings{
		apiKey:  apiKey,
		baseURL: baseURL,
		model:   model,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}
