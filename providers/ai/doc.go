// Package ai defines the provider-agnostic chat contract: the Message,
// ChatRequest, and ChatResponse types, the Provider interface implemented by
// each wire-format adapter (openai, anthropic, xai subpackages), and the
// classified APIError returned on failed calls.
//
// Callers select an adapter by provider tag and speak only this package's
// types; endpoints, auth headers, and body shapes are the adapters' business.
package ai
