package openai

import (
	"time"

	"github.com/jmallon/parley/providers/ai"
)

// requestToWire converts an ai.ChatRequest into the chat-completions wire
// format. An empty request model falls back to defaultModel. Attachments are
// not serialized here: the formatter has already flattened them into Content
// by the time a request reaches a provider.
func requestToWire(request ai.ChatRequest, defaultModel string) chatCompletionRequest {
	model := request.Model
	if model == "" {
		model = defaultModel
	}

	messages := make([]chatMessage, 0, len(request.Messages))
	for _, msg := range request.Messages {
		messages = append(messages, chatMessage{
			Role:    string(msg.Role),
			Content: msg.Content,
		})
	}

	return chatCompletionRequest{
		Model:    model,
		Messages: messages,
	}
}

// responseToGeneric converts a chat-completions response to the
// provider-agnostic form. The reply is taken from the first choice's message
// content; when no choices are present the flat top-level content field is
// used instead. The second return value reports whether neither shape yielded
// a reply, in which case Content is empty and the caller substitutes
// ai.FallbackReply.
func responseToGeneric(response chatCompletionResponse) (*ai.ChatResponse, bool) {
	result := &ai.ChatResponse{
		Id:      response.ID,
		Model:   response.Model,
		Created: response.Created,
	}
	if result.Created == 0 {
		result.Created = time.Now().Unix()
	}

	if len(response.Choices) > 0 {
		result.Content = response.Choices[0].Message.Content
		result.FinishReason = response.Choices[0].FinishReason
	} else {
		result.Content = response.Content
	}

	if response.Usage != nil {
		result.Usage = &ai.Usage{
			PromptTokens:     response.Usage.PromptTokens,
			CompletionTokens: response.Usage.CompletionTokens,
			TotalTokens:      response.Usage.TotalTokens,
		}
	}

	return result, result.Content == ""
}
