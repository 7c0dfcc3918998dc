package dashboard

import (
	"encoding/json"
	"sort"
	"strings"
)

// messageFeedCap bounds the message feed projection. This is a display
// cap only; the store keeps full history.
const messageFeedCap = 50

// maxRawTextLen truncates non-JSON message bodies in the feed.
const maxRawTextLen = 300

// TaskView is one task entry tagged with its owning team for display.
type TaskView struct {
	Task
	TeamName string
}

// TaskBuckets partitions all tasks by status. Tasks with a status outside
// the closed set are excluded from every bucket.
type TaskBuckets struct {
	Pending    []TaskView
	InProgress []TaskView
	Completed  []TaskView
}

// MessageView is one feed entry annotated with its parsed team and
// recipient.
type MessageView struct {
	Message
	TeamName  string
	Recipient string
}

// Projections are computed on demand from the store; callers pull a fresh
// view after applying events rather than being pushed redundant updates.

// TaskBuckets returns the three status buckets across all teams, each
// sorted by team name then task id so the view is stable across map
// iteration order.
func (s *Store) TaskBuckets() TaskBuckets {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var b TaskBuckets
	for teamName, byID := range s.tasks {
		for _, task := range byID {
			view := TaskView{Task: task, TeamName: teamName}
			switch task.Status {
			case TaskPending:
				b.Pending = append(b.Pending, view)
			case TaskInProgress:
				b.InProgress = append(b.InProgress, view)
			case TaskCompleted:
				b.Completed = append(b.Completed, view)
			}
		}
	}
	sortTaskViews(b.Pending)
	sortTaskViews(b.InProgress)
	sortTaskViews(b.Completed)
	return b
}

func sortTaskViews(views []TaskView) {
	sort.Slice(views, func(i, j int) bool {
		if views[i].TeamName != views[j].TeamName {
			return views[i].TeamName < views[j].TeamName
		}
		return views[i].ID < views[j].ID
	})
}

// MessageFeed flattens every per-key message list into one sequence,
// sorts it by timestamp, and keeps only the most recent entries.
//
// Timestamps are compared as strings. ISO-8601 timestamps in a shared
// format and offset sort correctly this way, and the string comparison is
// observable behavior the web dashboard relies on, so it is not replaced
// with parsed-time comparison. Empty timestamps sort first.
func (s *Store) MessageFeed() []MessageView {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.messages))
	for key := range s.messages {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var all []MessageView
	for _, key := range keys {
		teamName, recipient := splitMessageKey(key)
		for _, msg := range s.messages[key] {
			all = append(all, MessageView{
				Message:   msg,
				TeamName:  teamName,
				Recipient: recipient,
			})
		}
	}

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Timestamp < all[j].Timestamp
	})

	if len(all) > messageFeedCap {
		all = all[len(all)-messageFeedCap:]
	}
	return all
}

// splitMessageKey recovers team and recipient from a composite key. The
// recipient may contain "/", so only the first separator splits.
func splitMessageKey(key string) (teamName, recipient string) {
	idx := strings.Index(key, "/")
	if idx < 0 {
		return key, ""
	}
	return key[:idx], key[idx+1:]
}

// Teams lists all teams sorted by name.
func (s *Store) Teams() []Team {
	s.mu.RLock()
	defer s.mu.RUnlock()

	teams := make([]Team, 0, len(s.teams))
	for _, t := range s.teams {
		teams = append(teams, t)
	}
	sort.Slice(teams, func(i, j int) bool { return teams[i].Name < teams[j].Name })
	return teams
}

// DisplayText extracts the human-readable body of a message. Agent
// messages are often JSON envelopes: prefer a "content" field, then
// "{type}: {subject}", then "text". Anything else falls back to the raw
// text, truncated with an ellipsis when long.
func DisplayText(raw string) string {
	var envelope struct {
		Content string `json:"content"`
		Subject string `json:"subject"`
		Type    string `json:"type"`
		Text    string `json:"text"`
	}
	if err := json.Unmarshal([]byte(raw), &envelope); err == nil {
		switch {
		case envelope.Content != "":
			return envelope.Content
		case envelope.Subject != "" && envelope.Type != "":
			return envelope.Type + ": " + envelope.Subject
		case envelope.Text != "":
			return envelope.Text
		}
	}
	if len(raw) > maxRawTextLen {
		// Cut on a rune boundary so multibyte text never truncates to a
		// broken trailing byte sequence.
		if runes := []rune(raw); len(runes) > maxRawTextLen {
			return string(runes[:maxRawTextLen]) + "..."
		}
	}
	return raw
}
