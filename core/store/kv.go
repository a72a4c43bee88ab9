package store

import "sync"

// KV is the key-value persistence boundary the store writes through. Each
// named slot holds one opaque value; Get and Put are atomic per operation.
// The store owns slot contents, not slot creation or migration.
type KV interface {
	// Get returns the value in slot, or nil when the slot has never been
	// written.
	Get(slot string) ([]byte, error)

	// Put replaces the value in slot.
	Put(slot string, value []byte) error
}

// MemKV is an in-memory KV used in tests and as a throwaway backend.
type MemKV struct {
	mu    sync.Mutex
	slots map[string][]byte
}

// NewMemKV returns an empty in-memory KV.
func NewMemKV() *MemKV {
	return &MemKV{slots: map[string][]byte{}}
}

func (m *MemKV) Get(slot string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	value, ok := m.slots[slot]
	if !ok {
		return nil, nil
	}
	out := make([]byte, len(value))
	copy(out, value)
	return out, nil
}

func (m *MemKV) Put(slot string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := make([]byte, len(value))
	copy(stored, value)
	m.slots[slot] = stored
	return nil
}
