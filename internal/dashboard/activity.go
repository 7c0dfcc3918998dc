package dashboard

import (
	"fmt"
	"sync"
	"time"
)

// activityCap bounds the activity log; the oldest entries drop silently
// once it is full.
const activityCap = 100

// ActivityEntry is one human-readable line in the diagnostic trail.
type ActivityEntry struct {
	At   time.Time
	Text string
}

// ActivityLog is a bounded append-only trail of event summaries. It is a
// best-effort diagnostic aid: nothing reads it back to make decisions,
// and it has no bearing on store correctness.
type ActivityLog struct {
	mu      sync.Mutex
	entries []ActivityEntry
	now     func() time.Time
}

// NewActivityLog returns an empty log.
func NewActivityLog() *ActivityLog {
	return &ActivityLog{now: time.Now}
}

// Append adds one line, evicting the oldest entry when at capacity.
func (l *ActivityLog) Append(text string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, ActivityEntry{At: l.now(), Text: text})
	if len(l.entries) > activityCap {
		l.entries = l.entries[len(l.entries)-activityCap:]
	}
}

// Entries returns a copy of the current log, oldest first.
func (l *ActivityLog) Entries() []ActivityEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]ActivityEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len returns the number of retained entries.
func (l *ActivityLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// summarize renders the activity line for an applied event, or "" for
// events that do not produce one (heartbeats, unknown kinds).
func summarize(ev Event) string {
	switch ev := ev.(type) {
	case SnapshotEvent:
		return "Dashboard connected"
	case TeamUpdatedEvent:
		return "Team updated: " + ev.Team.Name
	case TeamDeletedEvent:
		return "Team removed: " + ev.TeamName
	case TaskUpdatedEvent:
		line := fmt.Sprintf("Task #%s → %s", ev.Task.ID, ev.Task.Status)
		if ev.Task.Owner != "" {
			line += " (" + ev.Task.Owner + ")"
		}
		return line
	case TaskDeletedEvent:
		return "Task deleted: #" + ev.TaskID
	case MessageReceivedEvent:
		return ev.Message.From + " → " + ev.Recipient
	default:
		return ""
	}
}
