// Package observability defines the instrumentation hook injected into every
// parley component: a vendor-neutral Provider interface combining tracing,
// metrics, and structured logging, plus the Attribute helpers and semantic
// convention constants used to build events.
//
// Components never log ambiently. They retrieve the observer (or the current
// span) from the context via [ObserverFromContext] and [SpanFromContext],
// nil-check it, and emit structured events with attributes such as
// [AttrLLMProvider] and [AttrTokensEstimated]. When no observer is attached
// the cost is a single context lookup.
//
// The slogobs subpackage provides a log/slog-backed implementation.
package observability
