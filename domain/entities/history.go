package entities

import (
	"sync"
	"time"
)

// Role identifies the sender of a history entry.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// DefaultHistoryCap bounds the dialogue history when no cap is configured.
const DefaultHistoryCap = 100

// HistoryEntry is one recorded dialogue turn half.
type HistoryEntry struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// NewHistoryEntry stamps an entry with the current time.
func NewHistoryEntry(role Role, content string) HistoryEntry {
	return HistoryEntry{Role: role, Content: content, Timestamp: time.Now()}
}

// History is the bounded, ordered record of user/assistant turns. Insertion
// order is the dialogue order. Appending beyond the cap evicts the oldest
// entries first; survivors keep their relative order.
//
// All methods are safe for concurrent use. AppendPair holds the lock across
// both writes so no reader ever observes a half-written turn.
type History struct {
	mu    sync.Mutex
	buf   []HistoryEntry
	start int
	count int
}

// NewHistory creates a history bounded to capacity entries. A non-positive
// capacity falls back to DefaultHistoryCap.
func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = DefaultHistoryCap
	}
	return &History{buf: make([]HistoryEntry, capacity)}
}

func (h *History) append(e HistoryEntry) {
	h.buf[(h.start+h.count)%len(h.buf)] = e
	if h.count == len(h.buf) {
		h.start = (h.start + 1) % len(h.buf)
	} else {
		h.count++
	}
}

// Append records a single entry.
func (h *History) Append(e HistoryEntry) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.append(e)
}

// AppendPair records a user entry and its assistant reply atomically.
// Either both land or, if the caller never gets here, neither does; there is
// no way to observe the user half without the assistant half.
func (h *History) AppendPair(user, assistant HistoryEntry) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.append(user)
	h.append(assistant)
}

// at returns the logical i-th entry, oldest first. Caller holds the lock.
func (h *History) at(i int) HistoryEntry {
	return h.buf[(h.start+i)%len(h.buf)]
}

// Recent returns up to n newest entries in dialogue order.
func (h *History) Recent(n int) []HistoryEntry {
	h.mu.Lock()
	defer h.mu.Unlock()
	if n > h.count {
		n = h.count
	}
	if n <= 0 {
		return nil
	}
	out := make([]HistoryEntry, n)
	for i := 0; i < n; i++ {
		out[i] = h.at(h.count - n + i)
	}
	return out
}

// Slice pages backward from the newest entry: it skips the offset most
// recent entries, then returns up to limit entries before that point, in
// dialogue order.
func (h *History) Slice(limit, offset int) []HistoryEntry {
	h.mu.Lock()
	defer h.mu.Unlock()
	if limit <= 0 || offset < 0 {
		return nil
	}
	end := h.count - offset
	if end <= 0 {
		return nil
	}
	start := end - limit
	if start < 0 {
		start = 0
	}
	out := make([]HistoryEntry, 0, end-start)
	for i := start; i < end; i++ {
		out = append(out, h.at(i))
	}
	return out
}

// Clear drops every entry.
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.start = 0
	h.count = 0
}

// Len returns the current number of entries.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.count
}

// Cap returns the configured bound.
func (h *History) Cap() int {
	return len(h.buf)
}
