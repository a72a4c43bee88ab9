package ai

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ErrorKind classifies a failed provider call so callers can attach the right
// remediation hint without string-matching error text themselves.
type ErrorKind string

const (
	// KindPayloadTooLarge is an HTTP 413: the request body exceeded the
	// provider's size limit.
	KindPayloadTooLarge ErrorKind = "payload_too_large"

	// KindTokenLimit is an HTTP 400 whose provider message references token
	// limits.
	KindTokenLimit ErrorKind = "token_limit"

	// KindProvider covers every other non-2xx or malformed response.
	KindProvider ErrorKind = "provider"
)

// APIError is a classified provider failure. Provider is the adapter tag
// ("openai", "anthropic", "xai"); Message is the provider's own error text
// when it could be extracted from the body.
type APIError struct {
	Provider   string
	StatusCode int
	Kind       ErrorKind
	Message    string
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = "unknown API error"
	}
	if e.Provider != "" {
		return fmt.Sprintf("%s: status %d: %s", e.Provider, e.StatusCode, msg)
	}
	return fmt.Sprintf("status %d: %s", e.StatusCode, msg)
}

// errorEnvelope matches the error body shapes of all three providers.
// OpenAI and xAI nest an object under "error"; Anthropic does the same with a
// different inner type; some gateways return a bare "message" field.
type errorEnvelope struct {
	Error   json.RawMessage `json:"error"`
	Message string          `json:"message"`
}

type errorDetail struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// Classify converts a non-2xx status and response body into an APIError.
// The provider's own message is extracted when the body parses as a known
// error envelope; otherwise the raw body is carried as-is.
func Classify(status int, body []byte) *APIError {
	message := extractErrorMessage(body)

	kind := KindProvider
	switch {
	case status == 413:
		kind = KindPayloadTooLarge
	case status == 400 && strings.Contains(strings.ToLower(message), "token"):
		kind = KindTokenLimit
	}

	return &APIError{
		StatusCode: status,
		Kind:       kind,
		Message:    message,
	}
}

// extractErrorMessage pulls the human-readable message out of a provider error
// body. The "error" field may be an object with a message, or a bare string.
func extractErrorMessage(body []byte) string {
	var envelope errorEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return strings.TrimSpace(string(body))
	}

	if len(envelope.Error) > 0 {
		var detail errorDetail
		if err := json.Unmarshal(envelope.Error, &detail); err == nil && detail.Message != "" {
			return detail.Message
		}
		var plain string
		if err := json.Unmarshal(envelope.Error, &plain); err == nil && plain != "" {
			return plain
		}
	}

	if envelope.Message != "" {
		return envelope.Message
	}

	return strings.TrimSpace(string(body))
}
