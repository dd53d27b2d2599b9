package logging

import (
	"sync"
	"time"
)

// LogEntry is a single structured log line retained for the logs API.
type LogEntry struct {
	Timestamp  time.Time      `json:"timestamp"`
	Level      string         `json:"level"`
	Module     string         `json:"module"`
	Message    string         `json:"message"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

// History retains the most recent log entries in memory. The backing
// slice is allowed to grow to twice the retention limit before the
// stale half is cut away, so appends stay amortized O(1) without a
// fixed-size ring.
type History struct {
	mu      sync.Mutex
	limit   int
	entries []LogEntry
}

// NewHistory creates a history retaining up to limit entries.
func NewHistory(limit int) *History {
	return &History{limit: limit}
}

// Add appends an entry, discarding the oldest ones beyond the limit.
func (h *History) Add(e LogEntry) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.entries = append(h.entries, e)
	if len(h.entries) >= 2*h.limit {
		kept := h.entries[len(h.entries)-h.limit:]
		h.entries = append(make([]LogEntry, 0, 2*h.limit), kept...)
	}
}

// Snapshot returns the retained entries in chronological order.
func (h *History) Snapshot() []LogEntry {
	h.mu.Lock()
	defer h.mu.Unlock()

	start := 0
	if len(h.entries) > h.limit {
		start = len(h.entries) - h.limit
	}
	out := make([]LogEntry, len(h.entries)-start)
	copy(out, h.entries[start:])
	return out
}

// Len returns the number of retained entries.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.entries) > h.limit {
		return h.limit
	}
	return len(h.entries)
}
