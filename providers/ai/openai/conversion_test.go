package openai

import (
	"testing"

	"github.com/jmallon/parley/providers/ai"
)

func TestRequestToWire(t *testing.T) {
	request := ai.ChatRequest{
		Messages: []ai.Message{
			{Role: ai.RoleUser, Content: "question"},
			{Role: ai.RoleAssistant, Content: "answer"},
		},
		MaxTokens: 500,
	}

	wire := requestToWire(request, "fallback-model")

	if wire.Model != "fallback-model" {
		t.Errorf("model = %q, want the default", wire.Model)
	}
	if len(wire.Messages) != 2 {
		t.Fatalf("messages = %d, want 2", len(wire.Messages))
	}
	if wire.Messages[0].Role != "user" || wire.Messages[0].Content != "question" {
		t.Errorf("unexpected first message: %+v", wire.Messages[0])
	}
	if wire.Messages[1].Role != "assistant" || wire.Messages[1].Content != "answer" {
		t.Errorf("unexpected second message: %+v", wire.Messages[1])
	}
}

func TestRequestToWireExplicitModel(t *testing.T) {
	wire := requestToWire(ai.ChatRequest{Model: "gpt-4.1"}, "fallback-model")
	if wire.Model != "gpt-4.1" {
		t.Errorf("model = %q, want the request model", wire.Model)
	}
}

func TestResponseToGeneric(t *testing.T) {
	response := chatCompletionResponse{
		ID:      "chatcmpl-1",
		Created: 1700000000,
		Model:   "gpt-4.1-mini",
		Choices: []chatChoice{
			{Message: chatChoiceMessage{Role: "assistant", Content: "first"}, FinishReason: "stop"},
			{Message: chatChoiceMessage{Role: "assistant", Content: "second"}},
		},
		Usage: &chatUsage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15},
	}

	result, missing := responseToGeneric(response)

	if missing {
		t.Error("missing = true for a response with choices")
	}
	if result.Content != "first" {
		t.Errorf("content = %q, want the first choice", result.Content)
	}
	if result.FinishReason != "stop" {
		t.Errorf("finish reason = %q, want stop", result.FinishReason)
	}
	if result.Created != 1700000000 {
		t.Errorf("created = %d, want the response timestamp", result.Created)
	}
	if result.Usage == nil || result.Usage.TotalTokens != 15 {
		t.Errorf("unexpected usage: %+v", result.Usage)
	}
}

func TestResponseToGenericFlatContent(t *testing.T) {
	result, missing := responseToGeneric(chatCompletionResponse{ID: "gw-1", Content: "flat"})

	if missing {
		t.Error("missing = true when the flat content field holds the reply")
	}
	if result.Content != "flat" {
		t.Errorf("content = %q, want flat", result.Content)
	}
	if result.Created == 0 {
		t.Error("created should fall back to the current time")
	}
}

func TestResponseToGenericMissingReply(t *testing.T) {
	result, missing := responseToGeneric(chatCompletionResponse{ID: "gw-2"})

	if !missing {
		t.Error("missing = false for a response with neither shape")
	}
	if result.Content != "" {
		t.Errorf("content = %q, want empty so the caller substitutes the fallback", result.Content)
	}
}

func TestResponseToGenericEmptyChoiceContent(t *testing.T) {
	response := chatCompletionResponse{
		Choices: []chatChoice{{Message: chatChoiceMessage{Role: "assistant", Content: ""}}},
	}

	if _, missing := responseToGeneric(response); !missing {
		t.Error("an empty first-choice content must count as a missing reply")
	}
}
