package state

import (
	"context"
	"fmt"
	"testing"
)

func TestHistoryAppendAndRecent(t *testing.T) {
	t.Parallel()

	h := NewHistory(NewMemoryStore())
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		entry := MemoryEntry{Role: "user", Content: fmt.Sprintf("msg-%d", i)}
		if err := h.Append(ctx, "s1", entry); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}

	recent, err := h.Recent(ctx, "s1", 3)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(recent) != 3 {
		t.Fatalf("Recent() len = %d, want 3", len(recent))
	}
	if recent[0].Content != "msg-1" || recent[2].Content != "msg-3" {
		t.Fatalf("unexpected window: %+v", recent)
	}
}

func TestHistoryCapsStoredWindow(t *testing.T) {
	t.Parallel()

	h := NewHistory(NewMemoryStore())
	ctx := context.Background()

	for i := 0; i < historyWindow+5; i++ {
		entry := MemoryEntry{Role: "assistant", Content: fmt.Sprintf("msg-%d", i)}
		if err := h.Append(ctx, "s2", entry); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}

	all, err := h.Recent(ctx, "s2", 0)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(all) != historyWindow {
		t.Fatalf("stored window = %d, want %d", len(all), historyWindow)
	}
	if all[0].Content != "msg-5" {
		t.Fatalf("oldest kept = %s, want msg-5", all[0].Content)
	}
}

func TestHistoryEmptySession(t *testing.T) {
	t.Parallel()

	h := NewHistory(NewMemoryStore())
	recent, err := h.Recent(context.Background(), "nobody", 3)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(recent) != 0 {
		t.Fatalf("expected empty history, got %+v", recent)
	}
}

func TestHistoryDropsCorruptPayload(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	ctx := context.Background()
	if err := store.Set(ctx, historyKeyPrefix+"s3", []byte("not-json"), 0); err != nil {
		t.Fatalf("seed store: %v", err)
	}

	h := NewHistory(store)
	recent, err := h.Recent(ctx, "s3", 5)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(recent) != 0 {
		t.Fatalf("expected corrupt history dropped, got %+v", recent)
	}
}
