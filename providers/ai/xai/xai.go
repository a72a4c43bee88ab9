package xai

import (
	"context"
	"net/http"
	"os"

	"github.com/jmallon/parley/providers/ai"
	"github.com/jmallon/parley/providers/ai/openai"
)

const (
	// defaultBaseURL is the base URL for xAI's OpenAI-compatible API.
	defaultBaseURL = "https://api.x.ai/v1"

	providerName = "xai"
)

// DefaultModel is used when the request does not name a variant.
const DefaultModel = "grok-beta"

// XAIProvider implements [ai.Provider] for xAI's chat API. The wire format is
// chat-completions compatible, so the implementation delegates to the openai
// package configured with xAI's endpoint, tag, and default model.
type XAIProvider struct {
	inner *openai.OpenAIProvider
}

// New returns an [XAIProvider] initialized from environment variables.
// It reads XAI_API_KEY for authentication and XAI_API_BASE_URL for the
// endpoint base (defaulting to https://api.x.ai/v1 when unset).
func New() *XAIProvider {
	baseURL := os.Getenv("XAI_API_BASE_URL")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	inner := openai.New().
		WithName(providerName).
		WithDefaultModel(DefaultModel)
	inner.WithBaseURL(baseURL)
	inner.WithAPIKey(os.Getenv("XAI_API_KEY"))

	return &XAIProvider{inner: inner}
}

// WithAPIKey sets the API key for the provider.
func (p *XAIProvider) WithAPIKey(apiKey string) ai.Provider {
	p.inner.WithAPIKey(apiKey)
	return p
}

// WithBaseURL sets the base URL for the API.
func (p *XAIProvider) WithBaseURL(baseURL string) ai.Provider {
	p.inner.WithBaseURL(baseURL)
	return p
}

// WithHttpClient sets a custom HTTP client.
func (p *XAIProvider) WithHttpClient(httpClient *http.Client) ai.Provider {
	p.inner.WithHttpClient(httpClient)
	return p
}

// SendMessage implements [ai.Provider] by delegating to the configured
// chat-completions implementation.
func (p *XAIProvider) SendMessage(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error) {
	return p.inner.SendMessage(ctx, request)
}
