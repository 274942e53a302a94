package host

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

const DefaultLogCapacity = 512

// Verbosity levels mirror the editor's log verbosities.
const (
	VerbosityLog     = "Log"
	VerbosityWarning = "Warning"
	VerbosityError   = "Error"
)

type LogEntry struct {
	Time      time.Time `json:"time"`
	Category  string    `json:"category"`
	Verbosity string    `json:"verbosity"`
	Message   string    `json:"message"`
}

// OutputLog is a fixed-size ring of recent editor log lines. It is the one
// piece of host state that may be read from any goroutine.
type OutputLog struct {
	mu      sync.Mutex
	entries []LogEntry
	next    int
	full    bool
}

func NewOutputLog(capacity int) *OutputLog {
	if capacity <= 0 {
		capacity = DefaultLogCapacity
	}
	return &OutputLog{entries: make([]LogEntry, capacity)}
}

func (l *OutputLog) Add(category, verbosity, format string, args ...any) {
	entry := LogEntry{
		Time:      time.Now(),
		Category:  category,
		Verbosity: verbosity,
		Message:   fmt.Sprintf(format, args...),
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries[l.next] = entry
	l.next = (l.next + 1) % len(l.entries)
	if l.next == 0 {
		l.full = true
	}
}

// Recent returns up to limit entries, oldest first. An empty category
// matches all entries; limit <= 0 returns everything retained.
func (l *OutputLog) Recent(limit int, category string) []LogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	var ordered []LogEntry
	if l.full {
		ordered = append(ordered, l.entries[l.next:]...)
	}
	ordered = append(ordered, l.entries[:l.next]...)

	out := make([]LogEntry, 0, len(ordered))
	for _, e := range ordered {
		if category == "" || strings.EqualFold(e.Category, category) {
			out = append(out, e)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out
}

func (l *OutputLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.full {
		return len(l.entries)
	}
	return l.next
}
