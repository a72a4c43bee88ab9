package ai

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantKind    ErrorKind
		wantMessage string
	}{
		{
			name:        "413 is payload too large",
			status:      413,
			body:        `{"error":{"message":"Request entity too large","type":"invalid_request_error"}}`,
			wantKind:    KindPayloadTooLarge,
			wantMessage: "Request entity too large",
		},
		{
			name:        "400 mentioning tokens is token limit",
			status:      400,
			body:        `{"error":{"message":"This model's maximum context length is 8192 tokens"}}`,
			wantKind:    KindTokenLimit,
			wantMessage: "This model's maximum context length is 8192 tokens",
		},
		{
			name:        "400 token match is case-insensitive",
			status:      400,
			body:        `{"error":{"message":"Token limit exceeded"}}`,
			wantKind:    KindTokenLimit,
			wantMessage: "Token limit exceeded",
		},
		{
			name:        "400 without token mention is generic",
			status:      400,
			body:        `{"error":{"message":"invalid role"}}`,
			wantKind:    KindProvider,
			wantMessage: "invalid role",
		},
		{
			name:        "500 is generic",
			status:      500,
			body:        `{"error":{"message":"internal server error"}}`,
			wantKind:    KindProvider,
			wantMessage: "internal server error",
		},
		{
			name:        "413 wins even when the body mentions tokens",
			status:      413,
			body:        `{"error":{"message":"too many tokens"}}`,
			wantKind:    KindPayloadTooLarge,
			wantMessage: "too many tokens",
		},
		{
			name:        "error as bare string",
			status:      429,
			body:        `{"error":"rate limited"}`,
			wantKind:    KindProvider,
			wantMessage: "rate limited",
		},
		{
			name:        "bare message field",
			status:      502,
			body:        `{"message":"upstream unavailable"}`,
			wantKind:    KindProvider,
			wantMessage: "upstream unavailable",
		},
		{
			name:        "non-json body carried raw",
			status:      503,
			body:        "Service Unavailable",
			wantKind:    KindProvider,
			wantMessage: "Service Unavailable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			apiErr := Classify(tt.status, []byte(tt.body))

			if apiErr.Kind != tt.wantKind {
				t.Errorf("kind = %q, want %q", apiErr.Kind, tt.wantKind)
			}
			if apiErr.Message != tt.wantMessage {
				t.Errorf("message = %q, want %q", apiErr.Message, tt.wantMessage)
			}
			if apiErr.StatusCode != tt.status {
				t.Errorf("status = %d, want %d", apiErr.StatusCode, tt.status)
			}
		})
	}
}

func TestAPIErrorString(t *testing.T) {
	withProvider := &APIError{Provider: "openai", StatusCode: 429, Kind: KindProvider, Message: "rate limited"}
	if got := withProvider.Error(); got != "openai: status 429: rate limited" {
		t.Errorf("Error() = %q", got)
	}

	empty := &APIError{StatusCode: 500, Kind: KindProvider}
	if got := empty.Error(); got != "status 500: unknown API error" {
		t.Errorf("Error() = %q", got)
	}
}
