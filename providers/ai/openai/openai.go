package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/jmallon/parley/internal/utils"
	"github.com/jmallon/parley/providers/ai"
	"github.com/jmallon/parley/providers/observability"
)

const (
	defaultBaseURL          = "https://api.openai.com/v1"
	chatCompletionsEndpoint = "/chat/completions"
	providerName            = "openai"
)

// Model variants selectable by the caller.
const (
	ModelGPT41Mini = "gpt-4.1-mini"
	ModelGPT41     = "gpt-4.1"
	ModelGPTo4Mini = "gpt-o4-mini"
	ModelGPTo3     = "gpt-o3"
)

// DefaultModel is used when the request does not name a variant.
const DefaultModel = ModelGPT41Mini

// OpenAIProvider implements [ai.Provider] for OpenAI-compatible chat
// completions APIs. The zero configuration targets OpenAI itself; xAI reuses
// this implementation with a different base URL, name, and default model
// because the wire formats are identical.
type OpenAIProvider struct {
	name         string
	apiKey       string
	baseURL      string
	defaultModel string
	client       *http.Client
}

// New returns an [OpenAIProvider] initialized from environment variables.
// It reads OPENAI_API_KEY for authentication and OPENAI_API_BASE_URL for the
// endpoint base (defaulting to https://api.openai.com/v1 when unset).
func New() *OpenAIProvider {
	apiKey := os.Getenv("OPENAI_API_KEY")
	baseURL := os.Getenv("OPENAI_API_BASE_URL")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	return &OpenAIProvider{
		name:         providerName,
		apiKey:       apiKey,
		baseURL:      baseURL,
		defaultModel: DefaultModel,
		client:       &http.Client{},
	}
}

// WithAPIKey sets the API key for the provider.
func (p *OpenAIProvider) WithAPIKey(apiKey string) ai.Provider {
	p.apiKey = apiKey
	return p
}

// WithBaseURL sets the base URL for the API.
func (p *OpenAIProvider) WithBaseURL(baseURL string) ai.Provider {
	p.baseURL = baseURL
	return p
}

// WithHttpClient sets a custom HTTP client.
func (p *OpenAIProvider) WithHttpClient(httpClient *http.Client) ai.Provider {
	p.client = httpClient
	return p
}

// WithName overrides the provider tag used in errors and observability
// events. Returns *OpenAIProvider so OpenAI-compatible wrappers can keep
// chaining without an interface cast.
func (p *OpenAIProvider) WithName(name string) *OpenAIProvider {
	p.name = name
	return p
}

// WithDefaultModel overrides the model used when a request leaves Model empty.
func (p *OpenAIProvider) WithDefaultModel(model string) *OpenAIProvider {
	p.defaultModel = model
	return p
}

// SendMessage implements [ai.Provider] with a single POST to the
// chat-completions endpoint. A 2xx body that matches neither the choices
// shape nor the flat-content shape yields [ai.FallbackReply] rather than an
// error, so a conversation turn always completes.
func (p *OpenAIProvider) SendMessage(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error) {
	span := observability.SpanFromContext(ctx)
	observer := observability.ObserverFromContext(ctx)

	model := request.Model
	if model == "" {
		model = p.defaultModel
	}

	if span != nil {
		span.AddEvent(observability.EventLLMRequestStart)
		span.SetAttributes(
			observability.String(observability.AttrLLMProvider, p.name),
			observability.String(observability.AttrLLMEndpoint, p.baseURL),
			observability.String(observability.AttrLLMModel, model),
		)
		defer span.AddEvent(observability.EventLLMRequestEnd)
	}

	if observer != nil {
		observer.Trace(ctx, "chat completions request prepared",
			observability.String(observability.AttrLLMProvider, p.name),
			observability.String(observability.AttrLLMModel, model),
			observability.Int(observability.AttrRequestMessagesCount, len(request.Messages)),
		)
	}

	// Guard against missing credentials before making a network call.
	if p.apiKey == "" {
		return nil, fmt.Errorf("%s API key is not set", p.name)
	}

	httpResponse, resp, err := utils.DoPostSync[chatCompletionResponse](
		ctx,
		p.client,
		p.baseURL+chatCompletionsEndpoint,
		p.apiKey,
		requestToWire(request, p.defaultModel),
	)
	if err != nil {
		var apiErr *ai.APIError
		if errors.As(err, &apiErr) {
			apiErr.Provider = p.name
		}
		if observer != nil {
			observer.Trace(ctx, "HTTP request failed", observability.Error(err))
		}
		return nil, err
	}

	if resp == nil {
		return nil, fmt.Errorf("empty response from %s API: %s", p.name, httpResponse.Status)
	}

	result, missingReply := responseToGeneric(*resp)
	if result.Model == "" {
		result.Model = model
	}

	if missingReply {
		result.Content = ai.FallbackReply
		if observer != nil {
			observer.Warn(ctx, "response matched no known reply shape, using fallback",
				observability.String(observability.AttrLLMProvider, p.name),
				observability.String(observability.AttrLLMResponseID, result.Id),
			)
		}
		if span != nil {
			span.AddEvent(observability.EventMissingReply)
		}
	}

	if span != nil {
		span.SetAttributes(
			observability.String(observability.AttrLLMResponseID, result.Id),
			observability.String(observability.AttrLLMFinishReason, result.FinishReason),
			observability.Int(observability.AttrHTTPStatusCode, httpResponse.StatusCode),
		)
		if result.Usage != nil {
			span.AddEvent(observability.EventTokensReceived,
				observability.Int(observability.AttrLLMTokensTotal, result.Usage.TotalTokens),
			)
		}
	}

	return result, nil
}
