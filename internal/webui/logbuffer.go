package webui

import (
	"encoding/json"
	"strings"
	"sync"
	"time"
)

// LogEntry is one captured log line
type LogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Level     string    `json:"level"`
	Component string    `json:"component,omitempty"`
	Message   string    `json:"message"`
	Raw       string    `json:"raw"`
}

// LogBuffer keeps the most recent zerolog lines for the dashboard. It
// implements io.Writer so it can sit behind an io.MultiWriter.
type LogBuffer struct {
	mu      sync.RWMutex
	entries []LogEntry
	next    int
	full    bool
	now     func() time.Time
}

// NewLogBuffer creates a buffer holding at most size entries
func NewLogBuffer(size int) *LogBuffer {
	if size < 1 {
		size = 1
	}
	return &LogBuffer{
		entries: make([]LogEntry, size),
		now:     time.Now,
	}
}

// Write records one log line. zerolog issues one Write per event.
func (lb *LogBuffer) Write(p []byte) (int, error) {
	entry := parseEntry(strings.TrimRight(string(p), "\n"))
	if entry.Timestamp.IsZero() {
		entry.Timestamp = lb.now()
	}

	lb.mu.Lock()
	lb.entries[lb.next] = entry
	lb.next = (lb.next + 1) % len(lb.entries)
	if lb.next == 0 {
		lb.full = true
	}
	lb.mu.Unlock()

	return len(p), nil
}

// Len returns the number of buffered entries
func (lb *LogBuffer) Len() int {
	lb.mu.RLock()
	defer lb.mu.RUnlock()
	if lb.full {
		return len(lb.entries)
	}
	return lb.next
}

// Entries returns all buffered entries, oldest first
func (lb *LogBuffer) Entries() []LogEntry {
	lb.mu.RLock()
	defer lb.mu.RUnlock()

	if !lb.full {
		return append([]LogEntry(nil), lb.entries[:lb.next]...)
	}
	out := make([]LogEntry, 0, len(lb.entries))
	out = append(out, lb.entries[lb.next:]...)
	return append(out, lb.entries[:lb.next]...)
}

// Recent returns up to n of the newest entries, oldest first
func (lb *LogBuffer) Recent(n int) []LogEntry {
	entries := lb.Entries()
	if n >= 0 && len(entries) > n {
		return entries[len(entries)-n:]
	}
	return entries
}

// ForComponent returns up to n of the newest entries logged by component
func (lb *LogBuffer) ForComponent(component string, n int) []LogEntry {
	var out []LogEntry
	for _, e := range lb.Entries() {
		if e.Component == component {
			out = append(out, e)
		}
	}
	if n >= 0 && len(out) > n {
		out = out[len(out)-n:]
	}
	return out
}

// parseEntry pulls level, message, component and time out of a zerolog
// JSON line. Lines that are not JSON are kept verbatim at info level.
func parseEntry(raw string) LogEntry {
	entry := LogEntry{Raw: raw, Level: "info", Message: raw}

	var fields map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return entry
	}

	if v, ok := fields["level"].(string); ok && v != "" {
		entry.Level = v
	}
	if v, ok := fields["message"].(string); ok {
		entry.Message = v
	}
	if v, ok := fields["component"].(string); ok {
		entry.Component = v
	}
	switch ts := fields["time"].(type) {
	case float64:
		entry.Timestamp = time.Unix(int64(ts), 0)
	case string:
		if t, err := time.Parse(time.RFC3339, ts); err == nil {
			entry.Timestamp = t
		}
	}
	return entry
}
