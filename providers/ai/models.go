package ai

import "strings"

/*
	##### PROVIDER INPUT #####
*/

// ChatRequest represents a request to send a conversation to a provider.
type ChatRequest struct {
	Model    string    `json:"model,omitempty"` // Model variant; empty selects the provider default
	Messages []Message `json:"messages"`        // Full conversation, oldest first
	// MaxTokens caps the reply length for providers that require an explicit
	// cap (Anthropic). Providers that do not use it ignore it. Zero selects
	// the provider default.
	MaxTokens int `json:"max_tokens,omitempty"`
}

// Message is a single turn in a conversation. Messages are append-only:
// once part of a conversation they are never edited or reordered.
type Message struct {
	Role    MessageRole `json:"role"`
	Content string      `json:"content"`

	// Attachments carries files the user attached to this turn. They are
	// owned by the message and flattened into the wire payload by the
	// formatter before dispatch; provider conversions only read Content.
	Attachments []Attachment `json:"attachments,omitempty"`
}

// Attachment is a file inlined into a message. Data holds the content already
// transcoded to a text-safe form: base64 for binary and image payloads, raw
// text otherwise.
type Attachment struct {
	Name       string `json:"name"`
	MimeType   string `json:"mime_type"`
	SizeBytes  int64  `json:"size_bytes"`
	Data       string `json:"encoded_content"`
	PreviewURL string `json:"preview_url,omitempty"`
}

// IsImage reports whether the attachment carries an image MIME type.
func (a Attachment) IsImage() bool {
	return strings.HasPrefix(a.MimeType, "image/")
}

/*
	##### PROVIDER OUTPUT #####
*/

// Usage reports token consumption for a single request, when the provider
// includes it.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens,omitempty"`
	CompletionTokens int `json:"completion_tokens,omitempty"`
	TotalTokens      int `json:"total_tokens,omitempty"`
}

// ChatResponse represents the provider-agnostic result of a chat completion.
type ChatResponse struct {
	Id           string `json:"id"`
	Model        string `json:"model"`
	Created      int64  `json:"created"`
	Content      string `json:"content"`
	FinishReason string `json:"finish_reason,omitempty"`
	Usage        *Usage `json:"usage,omitempty"`
}

// FallbackReply is the placeholder assistant content used when a 2xx response
// matches neither known reply shape. Inserting a visible placeholder instead
// of failing the turn keeps the conversation consistent; the condition is
// surfaced through the observability hook rather than an error.
const FallbackReply = "No response"

/*
	##### ENUMS #####
*/

// MessageRole represents the role of a message; compatible with string.
type MessageRole string

const (
	RoleUser      MessageRole = "user"      // End-user message
	RoleAssistant MessageRole = "assistant" // Model reply
)

// Provider tags used to select an adapter at the call site. Callers pick a
// tag and never construct endpoints, headers, or bodies themselves.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderXAI       = "xai"
)
