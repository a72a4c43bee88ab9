package token

import "github.com/jmallon/parley/providers/ai"

// charsPerToken is the rough character-to-token ratio the estimate is built
// on. One token is approximately four characters of English text.
const charsPerToken = 4

// Estimate returns an approximate model-token count for text, computed as
// ceil(len(text) / 4). It is deterministic and side-effect free.
//
// The estimate is a heuristic guard for oversized payloads only; it is never
// accurate enough for billing and the provider's own limits remain the real
// gate.
func Estimate(text string) int {
	return (len(text) + charsPerToken - 1) / charsPerToken
}

// EstimateMessages sums Estimate over the content of every message. Used to
// report the approximate size of a whole outbound conversation.
func EstimateMessages(messages []ai.Message) int {
	total := 0
	for _, msg := range messages {
		total += Estimate(msg.Content)
	}
	return total
}
