// Package store persists archived conversations in two retention tiers: a
// temporary tier bounded at twenty entries with strict FIFO eviction, and an
// unbounded permanent tier. Each tier lives in one named slot of a small
// key-value abstraction, with a bbolt-backed implementation for real use and
// an in-memory one for tests. The same KV also backs the per-provider API
// keyring.
package store
