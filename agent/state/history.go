package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

const (
	historyKeyPrefix = "conv:history:"
	historyTTL       = 24 * time.Hour
	// historyWindow caps how many entries are kept per session; older
	// turns fall off the front.
	historyWindow = 10
)

// MemoryEntry is one stored conversation turn.
type MemoryEntry struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Agent     string    `json:"agent,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// History persists per-session conversation turns in a Store with a
// capped window and a 24h TTL.
type History struct {
	store Store
	now   func() time.Time
}

func NewHistory(store Store) *History {
	return &History{store: store, now: time.Now}
}

func (h *History) key(sessionID string) string {
	return historyKeyPrefix + sessionID
}

// Append adds one entry, trimming the window to the most recent turns.
func (h *History) Append(ctx context.Context, sessionID string, entry MemoryEntry) error {
	entries, err := h.load(ctx, sessionID)
	if err != nil {
		return err
	}

	if entry.Timestamp.IsZero() {
		entry.Timestamp = h.now().UTC()
	}
	entries = append(entries, entry)
	if len(entries) > historyWindow {
		entries = entries[len(entries)-historyWindow:]
	}

	payload, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("marshal history: %w", err)
	}
	return h.store.Set(ctx, h.key(sessionID), payload, historyTTL)
}

// Recent returns up to limit of the newest entries, oldest first.
func (h *History) Recent(ctx context.Context, sessionID string, limit int) ([]MemoryEntry, error) {
	entries, err := h.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}
	return entries, nil
}

// Clear drops all stored turns for a session.
func (h *History) Clear(ctx context.Context, sessionID string) error {
	return h.store.Delete(ctx, h.key(sessionID))
}

func (h *History) load(ctx context.Context, sessionID string) ([]MemoryEntry, error) {
	raw, err := h.store.Get(ctx, h.key(sessionID))
	if errors.Is(err, ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var entries []MemoryEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		// Corrupt history is dropped rather than poisoning the session.
		return nil, nil
	}
	return entries, nil
}
