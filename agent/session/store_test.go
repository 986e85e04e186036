package session

import (
	"context"
	"errors"
	"fmt"
	"testing"

	contractx "github.com/kittipos/clinic-concierge/agent/contract"
)

func TestMemoryStoreAppendPreservesOrder(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		msg := contractx.Message{Role: contractx.RoleUser, Content: fmt.Sprintf("msg-%d", i)}
		if err := store.Append(ctx, "p1", msg); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}

	history, err := store.History(ctx, "p1")
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(history) != 5 {
		t.Fatalf("expected 5 messages, got %d", len(history))
	}
	for i, msg := range history {
		if want := fmt.Sprintf("msg-%d", i); msg.Content != want {
			t.Fatalf("message %d out of order: got %q want %q", i, msg.Content, want)
		}
	}
	if history[len(history)-1].Content != "msg-4" {
		t.Fatalf("last message should be the latest append, got %q", history[len(history)-1].Content)
	}
}

func TestMemoryStoreHistoryIsACopy(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	ctx := context.Background()

	if err := store.Append(ctx, "p1", contractx.Message{Role: contractx.RoleUser, Content: "original"}); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	first, _ := store.History(ctx, "p1")
	first[0].Content = "mutated"

	second, _ := store.History(ctx, "p1")
	if second[0].Content != "original" {
		t.Fatalf("history exposed internal state: %q", second[0].Content)
	}
}

func TestMemoryStoreReset(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	ctx := context.Background()

	if err := store.Append(ctx, "p1", contractx.Message{Role: contractx.RoleUser, Content: "hello"}); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if err := store.Reset(ctx, "p1"); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}

	history, err := store.History(ctx, "p1")
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(history) != 0 {
		t.Fatalf("expected empty history after reset, got %d messages", len(history))
	}
}

func TestMemoryStoreUnknownIdentityIsEmpty(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()

	history, err := store.History(context.Background(), "never-seen")
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(history) != 0 {
		t.Fatalf("expected empty history, got %d messages", len(history))
	}
}

func TestMemoryStoreEmptyIdentityRejected(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	ctx := context.Background()

	if err := store.Append(ctx, "", contractx.Message{}); !errors.Is(err, ErrInvalidIdentity) {
		t.Fatalf("Append: expected ErrInvalidIdentity, got %v", err)
	}
	if _, err := store.History(ctx, ""); !errors.Is(err, ErrInvalidIdentity) {
		t.Fatalf("History: expected ErrInvalidIdentity, got %v", err)
	}
	if err := store.Reset(ctx, ""); !errors.Is(err, ErrInvalidIdentity) {
		t.Fatalf("Reset: expected ErrInvalidIdentity, got %v", err)
	}
}

func TestMemoryStoreIdentitiesAreIsolated(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	ctx := context.Background()

	_ = store.Append(ctx, "p1", contractx.Message{Role: contractx.RoleUser, Content: "from p1"})
	_ = store.Append(ctx, "p2", contractx.Message{Role: contractx.RoleUser, Content: "from p2"})

	h1, _ := store.History(ctx, "p1")
	h2, _ := store.History(ctx, "p2")
	if len(h1) != 1 || h1[0].Content != "from p1" {
		t.Fatalf("unexpected p1 history: %v", h1)
	}
	if len(h2) != 1 || h2[0].Content != "from p2" {
		t.Fatalf("unexpected p2 history: %v", h2)
	}
}
