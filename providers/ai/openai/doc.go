// Package openai implements the parley provider interface for
// OpenAI-compatible chat completions APIs.
//
// The main entry point is [New], which reads OPENAI_API_KEY and
// OPENAI_API_BASE_URL from the environment. Use [OpenAIProvider.WithAPIKey]
// and [OpenAIProvider.WithBaseURL] to override these values programmatically.
// [OpenAIProvider.WithName] and [OpenAIProvider.WithDefaultModel] exist for
// wrappers targeting other chat-completions-compatible services.
package openai
