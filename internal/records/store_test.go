package records

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(context.Background(), filepath.Join(t.TempDir(), "records.db"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func mustAppend(t *testing.T, store *Store, chat, sender string, ts time.Time, content string) int64 {
	t.Helper()
	id, err := store.Append(context.Background(), Record{
		Chat: chat, Sender: sender, Timestamp: ts, Content: content,
	})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	return id
}

func TestStoreAppendBatch(t *testing.T) {
	store := newTestStore(t)
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	ids, err := store.AppendBatch(context.Background(), []Record{
		{Chat: "family", Sender: "alice", Timestamp: base, Content: "one"},
		{Chat: "family", Sender: "bob", Timestamp: base.Add(time.Minute), Content: "two"},
	})
	if err != nil {
		t.Fatalf("AppendBatch: %v", err)
	}
	if len(ids) != 2 || ids[1] <= ids[0] {
		t.Errorf("expected ascending ids in input order, got %v", ids)
	}

	recs, err := store.Since(context.Background(), "family", nil, base)
	if err != nil {
		t.Fatalf("Since: %v", err)
	}
	if len(recs) != 2 || recs[0].ID != ids[0] || recs[1].ID != ids[1] {
		t.Errorf("stored records do not match batch ids: %+v", recs)
	}
}

func TestStoreSinceOrdersByTimestamp(t *testing.T) {
	store := newTestStore(t)
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	// Inserted out of order on purpose.
	mustAppend(t, store, "family", "alice", base.Add(2*time.Minute), "third")
	mustAppend(t, store, "family", "bob", base, "first")
	mustAppend(t, store, "family", "alice", base.Add(time.Minute), "second")

	recs, err := store.Since(context.Background(), "family", nil, base)
	if err != nil {
		t.Fatalf("Since: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("expected 3 records, got %d", len(recs))
	}
	for i, want := range []string{"first", "second", "third"} {
		if recs[i].Content != want {
			t.Errorf("record %d: expected %q, got %q", i, want, recs[i].Content)
		}
	}
}

func TestStoreSinceTiesKeepInsertionOrder(t *testing.T) {
	store := newTestStore(t)
	ts := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	mustAppend(t, store, "family", "alice", ts, "one")
	mustAppend(t, store, "family", "bob", ts, "two")

	recs, err := store.Since(context.Background(), "family", nil, ts)
	if err != nil {
		t.Fatalf("Since: %v", err)
	}
	if recs[0].Content != "one" || recs[1].Content != "two" {
		t.Errorf("expected insertion order on equal timestamps, got %q then %q",
			recs[0].Content, recs[1].Content)
	}
}

func TestStoreSinceFiltersBySender(t *testing.T) {
	store := newTestStore(t)
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	mustAppend(t, store, "family", "alice", base, "from alice")
	mustAppend(t, store, "family", "bob", base.Add(time.Minute), "from bob")
	mustAppend(t, store, "family", "carol", base.Add(2*time.Minute), "from carol")

	recs, err := store.Since(context.Background(), "family", []string{"alice", "carol"}, base)
	if err != nil {
		t.Fatalf("Since: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("expected 2 records, got %d", len(recs))
	}
	if recs[0].Sender != "alice" || recs[1].Sender != "carol" {
		t.Errorf("unexpected senders: %q, %q", recs[0].Sender, recs[1].Sender)
	}
}

func TestStoreSinceScopesByChat(t *testing.T) {
	store := newTestStore(t)
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	mustAppend(t, store, "family", "alice", base, "family talk")
	mustAppend(t, store, "work", "alice", base, "work talk")

	recs, err := store.Since(context.Background(), "work", nil, base)
	if err != nil {
		t.Fatalf("Since: %v", err)
	}
	if len(recs) != 1 || recs[0].Content != "work talk" {
		t.Errorf("expected only the work record, got %+v", recs)
	}
}

func TestStoreSinceEmptyWindow(t *testing.T) {
	store := newTestStore(t)
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	mustAppend(t, store, "family", "alice", base, "old")

	_, err := store.Since(context.Background(), "family", nil, base.Add(time.Hour))
	if !errors.Is(err, ErrNoRecords) {
		t.Errorf("expected ErrNoRecords, got %v", err)
	}
}

func TestStoreSenders(t *testing.T) {
	store := newTestStore(t)
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	mustAppend(t, store, "family", "bob", base, "a")
	mustAppend(t, store, "family", "alice", base, "b")
	mustAppend(t, store, "family", "bob", base, "c")
	mustAppend(t, store, "work", "dave", base, "d")

	senders, err := store.Senders(context.Background(), "family")
	if err != nil {
		t.Fatalf("Senders: %v", err)
	}
	if len(senders) != 2 || senders[0] != "alice" || senders[1] != "bob" {
		t.Errorf("expected [alice bob], got %v", senders)
	}
}

func TestResolveParticipants(t *testing.T) {
	store := newTestStore(t)
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	mustAppend(t, store, "family", "Alice", base, "a")
	mustAppend(t, store, "family", "Bob", base, "b")

	t.Run("empty filter means everyone", func(t *testing.T) {
		resolved, err := store.ResolveParticipants(context.Background(), "family", nil)
		if err != nil {
			t.Fatalf("ResolveParticipants: %v", err)
		}
		if resolved != nil {
			t.Errorf("expected nil filter, got %v", resolved)
		}
	})

	t.Run("case-insensitive match returns stored identity", func(t *testing.T) {
		resolved, err := store.ResolveParticipants(context.Background(), "family", []string{"alice", " BOB "})
		if err != nil {
			t.Fatalf("ResolveParticipants: %v", err)
		}
		if len(resolved) != 2 || resolved[0] != "Alice" || resolved[1] != "Bob" {
			t.Errorf("expected [Alice Bob], got %v", resolved)
		}
	})

	t.Run("unknown name yields scope error", func(t *testing.T) {
		_, err := store.ResolveParticipants(context.Background(), "family", []string{"mallory"})
		if !IsScopeError(err) {
			t.Fatalf("expected scope error, got %v", err)
		}
		var scope *ScopeError
		errors.As(err, &scope)
		if scope.Name != "mallory" || scope.Chat != "family" {
			t.Errorf("unexpected scope error fields: %+v", scope)
		}
	})
}
