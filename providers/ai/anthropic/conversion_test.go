package anthropic

import (
	"encoding/json"
	"testing"

	"github.com/jmallon/parley/providers/ai"
)

func TestRequestToAnthropic(t *testing.T) {
	request := ai.ChatRequest{
		Messages: []ai.Message{
			{Role: ai.RoleUser, Content: "question"},
			{Role: ai.RoleAssistant, Content: "answer"},
		},
	}

	wire := requestToAnthropic(request, "default-model", 1000)

	if wire.Model != "default-model" {
		t.Errorf("model = %q, want the default", wire.Model)
	}
	if wire.MaxTokens != 1000 {
		t.Errorf("max_tokens = %d, want the default 1000", wire.MaxTokens)
	}
	if len(wire.Messages) != 2 {
		t.Fatalf("messages = %d, want 2", len(wire.Messages))
	}
	if wire.Messages[0].Role != "user" || wire.Messages[0].Content != "question" {
		t.Errorf("unexpected first message: %+v", wire.Messages[0])
	}
}

func TestRequestToAnthropicOverrides(t *testing.T) {
	wire := requestToAnthropic(ai.ChatRequest{Model: "claude-3-opus", MaxTokens: 200}, "default-model", 1000)

	if wire.Model != "claude-3-opus" {
		t.Errorf("model = %q, want the request model", wire.Model)
	}
	if wire.MaxTokens != 200 {
		t.Errorf("max_tokens = %d, want the request cap", wire.MaxTokens)
	}
}

func TestDecodeContent(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "single text block",
			raw:  `[{"type":"text","text":"hello"}]`,
			want: "hello",
		},
		{
			name: "multiple text blocks joined with newlines",
			raw:  `[{"type":"text","text":"first"},{"type":"text","text":"second"}]`,
			want: "first\nsecond",
		},
		{
			name: "non-text blocks skipped",
			raw:  `[{"type":"tool_use"},{"type":"text","text":"kept"}]`,
			want: "kept",
		},
		{
			name: "flat string",
			raw:  `"just a string"`,
			want: "just a string",
		},
		{
			name: "empty array",
			raw:  `[]`,
			want: "",
		},
		{
			name: "absent",
			raw:  ``,
			want: "",
		},
		{
			name: "unknown shape",
			raw:  `{"weird":true}`,
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := decodeContent(json.RawMessage(tt.raw)); got != tt.want {
				t.Errorf("decodeContent(%s) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestAnthropicToGeneric(t *testing.T) {
	response := anthropicResponse{
		ID:         "msg_1",
		Content:    json.RawMessage(`[{"type":"text","text":"reply"}]`),
		Model:      "claude-3-5-sonnet-20241022",
		StopReason: "end_turn",
		Usage:      anthropicUsage{InputTokens: 10, OutputTokens: 5},
	}

	result, missing := anthropicToGeneric(response)

	if missing {
		t.Error("missing = true for a response with a text block")
	}
	if result.Content != "reply" {
		t.Errorf("content = %q, want reply", result.Content)
	}
	if result.FinishReason != "stop" {
		t.Errorf("finish reason = %q, want stop", result.FinishReason)
	}
	if result.Usage.TotalTokens != 15 {
		t.Errorf("total tokens = %d, want 15", result.Usage.TotalTokens)
	}
}

func TestAnthropicToGenericMissing(t *testing.T) {
	if _, missing := anthropicToGeneric(anthropicResponse{ID: "msg_2"}); !missing {
		t.Error("missing = false for a response with no content")
	}
}

func TestMapStopReason(t *testing.T) {
	tests := []struct {
		stopReason string
		want       string
	}{
		{"end_turn", "stop"},
		{"stop_sequence", "stop"},
		{"max_tokens", "length"},
		{"some_future_reason", "stop"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := mapStopReason(tt.stopReason); got != tt.want {
			t.Errorf("mapStopReason(%q) = %q, want %q", tt.stopReason, got, tt.want)
		}
	}
}
