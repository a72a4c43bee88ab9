package anthropic

import "encoding/json"

/*
	ANTHROPIC MESSAGES API - REQUEST TYPES
*/

// anthropicRequest represents the request body for Anthropic's Messages API.
type anthropicRequest struct {
	Model     string             `json:"model"`
	Messages  []anthropicMessage `json:"messages"`
	MaxTokens int                `json:"max_tokens"` // Required by Anthropic on every request
}

// anthropicMessage is a single conversation turn. The Messages API accepts
// content as a plain string as well as a content-block array; this client
// always sends the string form because attachments are flattened into the
// text upstream.
type anthropicMessage struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

/*
	ANTHROPIC MESSAGES API - RESPONSE TYPES
*/

// anthropicResponse represents the response from Anthropic's Messages API.
// Content is kept raw because it arrives either as a content-block array
// (the documented shape) or as a flat string from some proxies; decoding is
// deferred to the conversion layer.
type anthropicResponse struct {
	ID           string          `json:"id"`
	Type         string          `json:"type"` // "message"
	Role         string          `json:"role"` // "assistant"
	Content      json.RawMessage `json:"content"`
	Model        string          `json:"model"`
	StopReason   string          `json:"stop_reason"`
	StopSequence string          `json:"stop_sequence,omitempty"`
	Usage        anthropicUsage  `json:"usage"`
}

// responseContentBlock is a single block in the documented response shape.
// Unknown type values are skipped during conversion for forward-compatibility.
type responseContentBlock struct {
	Type string `json:"type"` // "text" is the only type this client consumes
	Text string `json:"text,omitempty"`
}

// anthropicUsage reports token consumption for a single request.
type anthropicUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}
