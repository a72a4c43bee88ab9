// Package format flattens a message and its attachments into the single text
// payload the provider adapters dispatch, emitting an advisory warning when
// the estimated token cost is large enough to risk provider rejection.
package format
