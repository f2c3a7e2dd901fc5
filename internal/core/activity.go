package core

// activity.go keeps a bounded, in-memory record of recent operations for
// the dashboard. Entries do not survive a restart; the staging directory
// itself is the only durable state.

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// ActivityKind labels one entry in the recent-activity feed.
type ActivityKind string

const (
	ActivityUpload  ActivityKind = "upload"
	ActivityRemove  ActivityKind = "remove"
	ActivityCombine ActivityKind = "combine"
)

// Activity is one recorded operation.
type Activity struct {
	ID     uuid.UUID    `json:"id"`
	Kind   ActivityKind `json:"kind"`
	File   string       `json:"file,omitempty"`
	Detail string       `json:"detail,omitempty"`
	At     time.Time    `json:"at"`
}

// DefaultActivityCap bounds how many entries are retained.
const DefaultActivityCap = 100

// ActivityLog is a concurrency-safe, bounded log of recent operations.
type ActivityLog struct {
	mu      sync.RWMutex
	entries []Activity
	max     int
}

// NewActivityLog returns a log retaining at most max entries.
func NewActivityLog(max int) *ActivityLog {
	if max <= 0 {
		max = DefaultActivityCap
	}
	return &ActivityLog{max: max}
}

// Record appends an entry, evicting the oldest beyond the cap.
func (l *ActivityLog) Record(kind ActivityKind, file, detail string) Activity {
	entry := Activity{
		ID:     uuid.New(),
		Kind:   kind,
		File:   file,
		Detail: detail,
		At:     time.Now(),
	}

	l.mu.Lock()
	l.entries = append(l.entries, entry)
	if len(l.entries) > l.max {
		l.entries = l.entries[len(l.entries)-l.max:]
	}
	l.mu.Unlock()

	return entry
}

// Recent returns up to n entries, newest first. n <= 0 returns everything
// retained.
func (l *ActivityLog) Recent(n int) []Activity {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if n <= 0 || n > len(l.entries) {
		n = len(l.entries)
	}
	out := make([]Activity, n)
	for i := 0; i < n; i++ {
		out[i] = l.entries[len(l.entries)-1-i]
	}
	return out
}

// Len returns the number of retained entries.
func (l *ActivityLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}
