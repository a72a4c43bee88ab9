package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jmallon/parley/providers/ai"
	"github.com/jmallon/parley/providers/observability"
)

// Slot names under which each retention tier is persisted.
const (
	slotTemporary = "temporary_convos"
	slotPermanent = "permanent_convos"
)

// DefaultTemporaryCapacity bounds the temporary tier. Archiving beyond it
// evicts the oldest entry, strict FIFO: loading a conversation does not
// refresh its age.
const DefaultTemporaryCapacity = 20

// ErrNotFound is returned when no tier holds the requested conversation id.
var ErrNotFound = errors.New("conversation not found")

// Conversation is an archived snapshot of a session. It is immutable after
// creation; archival copies the messages rather than aliasing the live
// session.
type Conversation struct {
	ID         string       `json:"id"`
	Messages   []ai.Message `json:"messages"`
	Permanent  bool         `json:"permanent"`
	ArchivedAt time.Time    `json:"archived_at"`
}

// Store is the tiered conversation archive: a capacity-bounded temporary
// tier with FIFO eviction and an unbounded permanent tier, both persisted
// through a KV slot per tier. Ids are UUIDs, which keeps them unique across
// tiers even when two archivals land on the same clock tick.
type Store struct {
	mu        sync.Mutex
	kv        KV
	capacity  int
	observer  observability.Logger
	temporary []Conversation
	permanent []Conversation
}

// Option configures a Store.
type Option func(*Store)

// WithTemporaryCapacity overrides the temporary tier bound. Values below one
// are ignored.
func WithTemporaryCapacity(capacity int) Option {
	return func(s *Store) {
		if capacity > 0 {
			s.capacity = capacity
		}
	}
}

// WithObserver attaches a structured logger for archive, eviction, and
// deletion events.
func WithObserver(observer observability.Logger) Option {
	return func(s *Store) {
		s.observer = observer
	}
}

// Open loads both tiers from the KV and returns a ready Store. Absent slots
// read as empty tiers.
func Open(kv KV, opts ...Option) (*Store, error) {
	s := &Store{
		kv:       kv,
		capacity: DefaultTemporaryCapacity,
	}
	for _, opt := range opts {
		opt(s)
	}

	var err error
	if s.temporary, err = loadTier(kv, slotTemporary); err != nil {
		return nil, fmt.Errorf("loading temporary tier: %w", err)
	}
	if s.permanent, err = loadTier(kv, slotPermanent); err != nil {
		return nil, fmt.Errorf("loading permanent tier: %w", err)
	}

	// A pre-existing slot may hold more entries than the configured capacity,
	// for example after reopening with a smaller bound. The capacity invariant
	// holds from construction, so evict here too, oldest first.
	if len(s.temporary) > s.capacity {
		trimmed := s.temporary[len(s.temporary)-s.capacity:]
		if err := s.persistTier(slotTemporary, trimmed); err != nil {
			return nil, err
		}
		s.temporary = trimmed
	}

	return s, nil
}

func loadTier(kv KV, slot string) ([]Conversation, error) {
	raw, err := kv.Get(slot)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, nil
	}
	var tier []Conversation
	if err := json.Unmarshal(raw, &tier); err != nil {
		return nil, fmt.Errorf("decoding slot %s: %w", slot, err)
	}
	return tier, nil
}

// List returns all archived conversations, temporary tier first, each tier in
// insertion order. The returned slice is a copy.
func (s *Store) List(ctx context.Context) []Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Conversation, 0, len(s.temporary)+len(s.permanent))
	out = append(out, s.temporary...)
	out = append(out, s.permanent...)
	return out
}

// Archive snapshots messages into a new Conversation in the chosen tier and
// persists the updated tier. Archiving into a full temporary tier evicts the
// oldest entries until the capacity bound holds again. The persisted write is
// atomic: on failure the in-memory tier keeps its prior state.
func (s *Store) Archive(ctx context.Context, messages []ai.Message, permanent bool) (*Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.archiveLocked(ctx, messages, permanent)
}

func (s *Store) archiveLocked(ctx context.Context, messages []ai.Message, permanent bool) (*Conversation, error) {
	conv := Conversation{
		ID:         uuid.NewString(),
		Messages:   snapshotMessages(messages),
		Permanent:  permanent,
		ArchivedAt: time.Now().UTC(),
	}

	if permanent {
		updated := append(append([]Conversation{}, s.permanent...), conv)
		if err := s.persistTier(slotPermanent, updated); err != nil {
			return nil, err
		}
		s.permanent = updated
	} else {
		updated := append(append([]Conversation{}, s.temporary...), conv)
		for len(updated) > s.capacity {
			if s.observer != nil {
				s.observer.Info(ctx, observability.EventStoreEvict,
					observability.String(observability.AttrStoreConversationID, updated[0].ID),
					observability.String(observability.AttrStoreTier, "temporary"),
				)
			}
			updated = updated[1:]
		}
		if err := s.persistTier(slotTemporary, updated); err != nil {
			return nil, err
		}
		s.temporary = updated
	}

	if s.observer != nil {
		tier, count := "permanent", len(s.permanent)
		if !permanent {
			tier, count = "temporary", len(s.temporary)
		}
		s.observer.Info(ctx, "conversation archived",
			observability.String(observability.AttrStoreConversationID, conv.ID),
			observability.String(observability.AttrStoreTier, tier),
			observability.Int(observability.AttrStoreTierCount, count),
		)
	}

	return &conv, nil
}

// Load returns the messages of the archived conversation with the given id.
// It is read-only: loading does not refresh the entry's eviction age.
func (s *Store) Load(ctx context.Context, id string) ([]ai.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, tier := range [][]Conversation{s.temporary, s.permanent} {
		for _, conv := range tier {
			if conv.ID == id {
				return snapshotMessages(conv.Messages), nil
			}
		}
	}
	return nil, ErrNotFound
}

// Delete removes the conversation with the given id from whichever tier holds
// it and persists that tier. Returns ErrNotFound when neither tier has it.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if idx := indexOf(s.temporary, id); idx >= 0 {
		updated := append(append([]Conversation{}, s.temporary[:idx]...), s.temporary[idx+1:]...)
		if err := s.persistTier(slotTemporary, updated); err != nil {
			return err
		}
		s.temporary = updated
	} else if idx := indexOf(s.permanent, id); idx >= 0 {
		updated := append(append([]Conversation{}, s.permanent[:idx]...), s.permanent[idx+1:]...)
		if err := s.persistTier(slotPermanent, updated); err != nil {
			return err
		}
		s.permanent = updated
	} else {
		return ErrNotFound
	}

	if s.observer != nil {
		s.observer.Info(ctx, "conversation deleted",
			observability.String(observability.AttrStoreConversationID, id),
		)
	}
	return nil
}

// AutoArchiveOnNew archives the active session into the temporary tier before
// a new conversation starts. Empty sessions are skipped, as is a session
// whose content equals the most recently archived temporary entry; that
// de-duplication prevents redundant snapshots when "new conversation" fires
// twice without new content. Returns the archived conversation, or nil when
// nothing was archived.
func (s *Store) AutoArchiveOnNew(ctx context.Context, active []ai.Message) (*Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(active) == 0 {
		return nil, nil
	}
	if len(s.temporary) > 0 && messagesEqual(s.temporary[len(s.temporary)-1].Messages, active) {
		return nil, nil
	}

	return s.archiveLocked(ctx, active, false)
}

func (s *Store) persistTier(slot string, tier []Conversation) error {
	encoded, err := json.Marshal(tier)
	if err != nil {
		return fmt.Errorf("encoding slot %s: %w", slot, err)
	}
	if err := s.kv.Put(slot, encoded); err != nil {
		return fmt.Errorf("persisting slot %s: %w", slot, err)
	}
	return nil
}

func indexOf(tier []Conversation, id string) int {
	for i, conv := range tier {
		if conv.ID == id {
			return i
		}
	}
	return -1
}

// snapshotMessages copies the message slice so archived conversations never
// alias the live session. Message fields are immutable by contract, so a
// per-element copy is sufficient.
func snapshotMessages(messages []ai.Message) []ai.Message {
	if messages == nil {
		return nil
	}
	out := make([]ai.Message, len(messages))
	copy(out, messages)
	return out
}

// messagesEqual reports full content equality of two conversations: same
// length, and per message the same role, content, and attachments.
func messagesEqual(a, b []ai.Message) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Role != b[i].Role || a[i].Content != b[i].Content {
			return false
		}
		if len(a[i].Attachments) != len(b[i].Attachments) {
			return false
		}
		for j := range a[i].Attachments {
			if a[i].Attachments[j] != b[i].Attachments[j] {
				return false
			}
		}
	}
	return true
}
