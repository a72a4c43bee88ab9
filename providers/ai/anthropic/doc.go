// Package anthropic implements the parley provider interface for Anthropic's
// Messages API: x-api-key authentication, a pinned anthropic-version header,
// and the mandatory max_tokens field (default 1000, configurable via
// [AnthropicProvider.WithMaxTokens]).
package anthropic
