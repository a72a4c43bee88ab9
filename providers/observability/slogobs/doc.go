// Package slogobs binds the observability.Provider interface to the standard
// library's log/slog. Spans and metrics are rendered as structured log records,
// which keeps the chat core dependency-free while remaining swappable for a
// real tracing backend.
package slogobs
