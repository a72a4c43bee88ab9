package store

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jmallon/parley/providers/ai"
)

func messagesFor(content string) []ai.Message {
	return []ai.Message{
		{Role: ai.RoleUser, Content: content},
		{Role: ai.RoleAssistant, Content: "reply to " + content},
	}
}

func TestArchiveAndLoad(t *testing.T) {
	s, err := Open(NewMemKV())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	ctx := context.Background()

	conv, err := s.Archive(ctx, messagesFor("hello"), false)
	if err != nil {
		t.Fatalf("Archive failed: %v", err)
	}
	if conv.ID == "" {
		t.Error("archived conversation has no id")
	}
	if conv.Permanent {
		t.Error("temporary archive flagged permanent")
	}
	if conv.ArchivedAt.IsZero() {
		t.Error("archived conversation has no timestamp")
	}

	messages, err := s.Load(ctx, conv.ID)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(messages) != 2 || messages[0].Content != "hello" {
		t.Errorf("unexpected loaded messages: %+v", messages)
	}
}

func TestArchiveSnapshotsMessages(t *testing.T) {
	s, err := Open(NewMemKV())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	ctx := context.Background()

	live := messagesFor("original")
	conv, err := s.Archive(ctx, live, false)
	if err != nil {
		t.Fatalf("Archive failed: %v", err)
	}

	live[0].Content = "mutated after archive"

	loaded, err := s.Load(ctx, conv.ID)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded[0].Content != "original" {
		t.Errorf("archived snapshot aliased the live session: %q", loaded[0].Content)
	}
}

func TestTemporaryTierFIFOEviction(t *testing.T) {
	s, err := Open(NewMemKV())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	ctx := context.Background()

	ids := make([]string, 0, DefaultTemporaryCapacity+1)
	for i := 0; i < DefaultTemporaryCapacity+1; i++ {
		conv, err := s.Archive(ctx, messagesFor(fmt.Sprintf("conversation %d", i)), false)
		if err != nil {
			t.Fatalf("Archive %d failed: %v", i, err)
		}
		ids = append(ids, conv.ID)
	}

	// The oldest entry is gone, everything after it survives.
	if _, err := s.Load(ctx, ids[0]); !errors.Is(err, ErrNotFound) {
		t.Errorf("oldest conversation should have been evicted, got err=%v", err)
	}
	for _, id := range ids[1:] {
		if _, err := s.Load(ctx, id); err != nil {
			t.Errorf("conversation %s should have survived: %v", id, err)
		}
	}

	listed := s.List(ctx)
	if len(listed) != DefaultTemporaryCapacity {
		t.Errorf("tier size = %d, want %d", len(listed), DefaultTemporaryCapacity)
	}
}

func TestLoadDoesNotRefreshEvictionAge(t *testing.T) {
	s, err := Open(NewMemKV(), WithTemporaryCapacity(2))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	ctx := context.Background()

	first, _ := s.Archive(ctx, messagesFor("first"), false)
	second, _ := s.Archive(ctx, messagesFor("second"), false)

	// Reading the oldest entry must not save it from the next eviction.
	if _, err := s.Load(ctx, first.ID); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if _, err := s.Archive(ctx, messagesFor("third"), false); err != nil {
		t.Fatalf("Archive failed: %v", err)
	}

	if _, err := s.Load(ctx, first.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("loaded entry still evicted first, got err=%v", err)
	}
	if _, err := s.Load(ctx, second.ID); err != nil {
		t.Errorf("second conversation should have survived: %v", err)
	}
}

func TestPermanentTierUnbounded(t *testing.T) {
	s, err := Open(NewMemKV(), WithTemporaryCapacity(2))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		if _, err := s.Archive(ctx, messagesFor(fmt.Sprintf("kept %d", i)), true); err != nil {
			t.Fatalf("Archive %d failed: %v", i, err)
		}
	}

	permanentCount := 0
	for _, conv := range s.List(ctx) {
		if conv.Permanent {
			permanentCount++
		}
	}
	if permanentCount != 10 {
		t.Errorf("permanent entries = %d, want all 10", permanentCount)
	}
}

func TestTierIsolation(t *testing.T) {
	s, err := Open(NewMemKV(), WithTemporaryCapacity(1))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	ctx := context.Background()

	kept, _ := s.Archive(ctx, messagesFor("permanent"), true)

	// Overflow the temporary tier; the permanent entry must be untouched.
	s.Archive(ctx, messagesFor("temp 1"), false)
	s.Archive(ctx, messagesFor("temp 2"), false)

	if _, err := s.Load(ctx, kept.ID); err != nil {
		t.Errorf("temporary eviction reached the permanent tier: %v", err)
	}
}

func TestDelete(t *testing.T) {
	s, err := Open(NewMemKV())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	ctx := context.Background()

	temp, _ := s.Archive(ctx, messagesFor("temp"), false)
	perm, _ := s.Archive(ctx, messagesFor("perm"), true)

	if err := s.Delete(ctx, temp.ID); err != nil {
		t.Fatalf("Delete temporary failed: %v", err)
	}
	if err := s.Delete(ctx, perm.ID); err != nil {
		t.Fatalf("Delete permanent failed: %v", err)
	}
	if err := s.Delete(ctx, "no-such-id"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for an unknown id, got %v", err)
	}
	if got := s.List(ctx); len(got) != 0 {
		t.Errorf("expected an empty store after deleting everything, got %d entries", len(got))
	}
}

func TestAutoArchiveOnNew(t *testing.T) {
	s, err := Open(NewMemKV())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	ctx := context.Background()

	// An empty session archives nothing.
	conv, err := s.AutoArchiveOnNew(ctx, nil)
	if err != nil {
		t.Fatalf("AutoArchiveOnNew failed: %v", err)
	}
	if conv != nil {
		t.Errorf("archived an empty session: %+v", conv)
	}

	active := messagesFor("a chat")
	conv, err = s.AutoArchiveOnNew(ctx, active)
	if err != nil {
		t.Fatalf("AutoArchiveOnNew failed: %v", err)
	}
	if conv == nil {
		t.Fatal("expected the session to be archived")
	}
	if conv.Permanent {
		t.Error("auto-archive must target the temporary tier")
	}

	// Re-archiving the identical session is a no-op.
	dup, err := s.AutoArchiveOnNew(ctx, active)
	if err != nil {
		t.Fatalf("AutoArchiveOnNew failed: %v", err)
	}
	if dup != nil {
		t.Errorf("duplicate session was archived again: %+v", dup)
	}

	// Any content change defeats the de-duplication.
	changed := messagesFor("a chat")
	changed[1].Content = "a different reply"
	conv, err = s.AutoArchiveOnNew(ctx, changed)
	if err != nil {
		t.Fatalf("AutoArchiveOnNew failed: %v", err)
	}
	if conv == nil {
		t.Error("changed session should have been archived")
	}
}

func TestAutoArchiveDedupComparesAttachments(t *testing.T) {
	s, err := Open(NewMemKV())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	ctx := context.Background()

	withAttachment := []ai.Message{{
		Role:    ai.RoleUser,
		Content: "same text",
		Attachments: []ai.Attachment{
			{Name: "a.txt", MimeType: "text/plain", Data: "data"},
		},
	}}
	if _, err := s.AutoArchiveOnNew(ctx, withAttachment); err != nil {
		t.Fatalf("AutoArchiveOnNew failed: %v", err)
	}

	withoutAttachment := []ai.Message{{Role: ai.RoleUser, Content: "same text"}}
	conv, err := s.AutoArchiveOnNew(ctx, withoutAttachment)
	if err != nil {
		t.Fatalf("AutoArchiveOnNew failed: %v", err)
	}
	if conv == nil {
		t.Error("sessions differing only in attachments must not de-duplicate")
	}
}

func TestPersistenceRoundTrip(t *testing.T) {
	kv := NewMemKV()
	ctx := context.Background()

	first, err := Open(kv)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	temp, _ := first.Archive(ctx, messagesFor("kept temp"), false)
	perm, _ := first.Archive(ctx, messagesFor("kept perm"), true)

	// A second store over the same KV sees everything the first wrote.
	second, err := Open(kv)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}

	if _, err := second.Load(ctx, temp.ID); err != nil {
		t.Errorf("temporary conversation lost across reopen: %v", err)
	}
	messages, err := second.Load(ctx, perm.ID)
	if err != nil {
		t.Fatalf("permanent conversation lost across reopen: %v", err)
	}
	if messages[0].Content != "kept perm" {
		t.Errorf("unexpected content after reopen: %q", messages[0].Content)
	}
}

func TestUniqueIDsAcrossArchives(t *testing.T) {
	s, err := Open(NewMemKV())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	ctx := context.Background()

	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		conv, err := s.Archive(ctx, messagesFor(fmt.Sprintf("c%d", i)), i%2 == 0)
		if err != nil {
			t.Fatalf("Archive failed: %v", err)
		}
		if seen[conv.ID] {
			t.Fatalf("duplicate conversation id %s", conv.ID)
		}
		seen[conv.ID] = true
	}
}

// failingKV returns an error on Put so persistence failures can be observed.
type failingKV struct {
	KV
	failPuts bool
}

func (f *failingKV) Put(slot string, value []byte) error {
	if f.failPuts {
		return errors.New("disk full")
	}
	return f.KV.Put(slot, value)
}

func TestArchiveKeepsStateOnPersistFailure(t *testing.T) {
	kv := &failingKV{KV: NewMemKV()}
	s, err := Open(kv)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	ctx := context.Background()

	good, err := s.Archive(ctx, messagesFor("persisted"), false)
	if err != nil {
		t.Fatalf("Archive failed: %v", err)
	}

	kv.failPuts = true
	if _, err := s.Archive(ctx, messagesFor("lost"), false); err == nil {
		t.Fatal("expected an error when the KV write fails")
	}

	// The in-memory tier still reflects only the successful archive.
	listed := s.List(ctx)
	if len(listed) != 1 || listed[0].ID != good.ID {
		t.Errorf("in-memory state changed despite a failed persist: %+v", listed)
	}
}

func TestOpenTrimsOversizedTemporaryTier(t *testing.T) {
	kv := NewMemKV()
	ctx := context.Background()

	wide, err := Open(kv, WithTemporaryCapacity(5))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	ids := make([]string, 0, 5)
	for i := 0; i < 5; i++ {
		conv, err := wide.Archive(ctx, messagesFor(fmt.Sprintf("c%d", i)), false)
		if err != nil {
			t.Fatalf("Archive failed: %v", err)
		}
		ids = append(ids, conv.ID)
	}

	// Reopening with a smaller bound evicts the surplus, oldest first.
	narrow, err := Open(kv, WithTemporaryCapacity(3))
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}

	listed := narrow.List(ctx)
	if len(listed) != 3 {
		t.Fatalf("tier size = %d after reopen, want 3", len(listed))
	}
	for _, id := range ids[:2] {
		if _, err := narrow.Load(ctx, id); !errors.Is(err, ErrNotFound) {
			t.Errorf("conversation %s should have been trimmed at load, got err=%v", id, err)
		}
	}
	for _, id := range ids[2:] {
		if _, err := narrow.Load(ctx, id); err != nil {
			t.Errorf("conversation %s should have survived the trim: %v", id, err)
		}
	}

	// The trim is persisted, not just in-memory.
	reread, err := Open(kv, WithTemporaryCapacity(20))
	if err != nil {
		t.Fatalf("second reopen failed: %v", err)
	}
	if got := len(reread.List(ctx)); got != 3 {
		t.Errorf("tier size = %d after second reopen, want the persisted 3", got)
	}
}
