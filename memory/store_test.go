package memory

import (
	"context"
	"fmt"
	"testing"

	"github.com/mcsplatform/advisor-go-sdk/core"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestAppendAndLoadRecent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for i := 1; i <= 7; i++ {
		role := core.RoleUser
		if i%2 == 0 {
			role = core.RoleAssistant
		}
		if err := store.Append(ctx, "1", "s1", role, fmt.Sprintf("message %d", i)); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	messages, err := store.LoadRecent(ctx, "1", "s1", 5)
	if err != nil {
		t.Fatalf("load recent: %v", err)
	}
	if len(messages) != 5 {
		t.Fatalf("got %d messages, want 5", len(messages))
	}

	// The newest five, oldest first.
	for i, m := range messages {
		want := fmt.Sprintf("message %d", i+3)
		if m.Content != want {
			t.Errorf("messages[%d] = %q, want %q", i, m.Content, want)
		}
	}
	if messages[0].Role != core.RoleUser {
		t.Errorf("messages[0].Role = %s, want user", messages[0].Role)
	}
}

func TestLoadRecentScopedToSession(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.Append(ctx, "1", "s1", core.RoleUser, "in session one"); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := store.Append(ctx, "1", "s2", core.RoleUser, "in session two"); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := store.Append(ctx, "2", "s1", core.RoleUser, "other user"); err != nil {
		t.Fatalf("append: %v", err)
	}

	messages, err := store.LoadRecent(ctx, "1", "s1", 10)
	if err != nil {
		t.Fatalf("load recent: %v", err)
	}
	if len(messages) != 1 {
		t.Fatalf("got %d messages, want 1", len(messages))
	}
	if messages[0].Content != "in session one" {
		t.Errorf("content = %q", messages[0].Content)
	}
}

func TestLoadRecentEmptySession(t *testing.T) {
	store := newTestStore(t)

	messages, err := store.LoadRecent(context.Background(), "1", "nope", 5)
	if err != nil {
		t.Fatalf("load recent: %v", err)
	}
	if len(messages) != 0 {
		t.Errorf("got %d messages, want 0", len(messages))
	}
}

func TestClearIsIdempotent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.Append(ctx, "1", "s1", core.RoleUser, "hello"); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := store.Append(ctx, "1", "s2", core.RoleUser, "keep me"); err != nil {
		t.Fatalf("append: %v", err)
	}

	if err := store.Clear(ctx, "1", "s1"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	// Clearing an already-empty session succeeds.
	if err := store.Clear(ctx, "1", "s1"); err != nil {
		t.Fatalf("second clear: %v", err)
	}

	cleared, err := store.LoadRecent(ctx, "1", "s1", 5)
	if err != nil {
		t.Fatalf("load recent: %v", err)
	}
	if len(cleared) != 0 {
		t.Errorf("session s1 still has %d messages", len(cleared))
	}

	kept, err := store.LoadRecent(ctx, "1", "s2", 5)
	if err != nil {
		t.Fatalf("load recent: %v", err)
	}
	if len(kept) != 1 {
		t.Errorf("session s2 has %d messages, want 1", len(kept))
	}
}
