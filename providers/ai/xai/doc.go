// Package xai implements the parley provider interface for xAI's Grok models
// by reusing the chat-completions adapter with xAI's endpoint and defaults.
package xai
