package ai

import (
	"context"
	"net/http"
)

// Provider is the interface every LLM provider adapter must satisfy. It covers
// the full lifecycle of a single request: authentication, endpoint
// configuration, message dispatch, and response interpretation.
//
// Adapters make exactly one network attempt per SendMessage call; retry and
// backoff are deliberately not part of this contract.
type Provider interface {
	// SendMessage sends a chat request to the provider and returns the
	// completed response. Returns an error if the provider call fails, the
	// context is cancelled, or the response cannot be decoded. A 2xx body
	// that matches neither known reply shape is not an error: the response
	// carries [FallbackReply] instead.
	SendMessage(ctx context.Context, request ChatRequest) (*ChatResponse, error)

	// WithAPIKey sets the API key used for authenticating requests.
	WithAPIKey(apiKey string) Provider

	// WithBaseURL overrides the default base URL for API requests.
	WithBaseURL(baseURL string) Provider

	// WithHttpClient sets the HTTP client used for outbound requests.
	WithHttpClient(httpClient *http.Client) Provider
}
