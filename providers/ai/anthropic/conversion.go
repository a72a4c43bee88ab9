package anthropic

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/jmallon/parley/providers/ai"
)

// requestToAnthropic converts an ai.ChatRequest into the Messages API wire
// format. Anthropic requires max_tokens on every request; a zero value in the
// request falls back to the provider's configured default.
func requestToAnthropic(request ai.ChatRequest, defaultModel string, defaultMaxTokens int) anthropicRequest {
	model := request.Model
	if model == "" {
		model = defaultModel
	}

	maxTokens := request.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	messages := make([]anthropicMessage, 0, len(request.Messages))
	for _, msg := range request.Messages {
		messages = append(messages, anthropicMessage{
			Role:    string(msg.Role),
			Content: msg.Content,
		})
	}

	return anthropicRequest{
		Model:     model,
		Messages:  messages,
		MaxTokens: maxTokens,
	}
}

// anthropicToGeneric converts a Messages API response to the
// provider-agnostic form. The top-level content field is decoded as a
// content-block array first (text blocks joined with newlines) and as a flat
// string second. The second return value reports whether neither shape
// yielded a reply.
func anthropicToGeneric(response anthropicResponse) (*ai.ChatResponse, bool) {
	result := &ai.ChatResponse{
		Id:           response.ID,
		Model:        response.Model,
		Created:      time.Now().Unix(),
		Content:      decodeContent(response.Content),
		FinishReason: mapStopReason(response.StopReason),
	}

	result.Usage = &ai.Usage{
		PromptTokens:     response.Usage.InputTokens,
		CompletionTokens: response.Usage.OutputTokens,
		TotalTokens:      response.Usage.InputTokens + response.Usage.OutputTokens,
	}

	return result, result.Content == ""
}

// decodeContent extracts reply text from the raw content field. Returns an
// empty string when the field is absent or matches neither known shape.
func decodeContent(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var blocks []responseContentBlock
	if err := json.Unmarshal(raw, &blocks); err == nil {
		var textParts []string
		for _, block := range blocks {
			if block.Type == "text" && block.Text != "" {
				textParts = append(textParts, block.Text)
			}
		}
		return strings.Join(textParts, "\n")
	}

	var flat string
	if err := json.Unmarshal(raw, &flat); err == nil {
		return flat
	}

	return ""
}

// mapStopReason converts an Anthropic stop_reason value to the canonical
// finish_reason string used by ai.ChatResponse.
func mapStopReason(stopReason string) string {
	switch stopReason {
	case "max_tokens":
		return "length"
	case "":
		return ""
	default:
		// end_turn, stop_sequence, and future values all read as a
		// completed turn for this client.
		return "stop"
	}
}
