// Package dashboard reconstructs a consistent in-memory view of agent
// teams, their tasks, and inter-agent messages from the monitor event
// stream, and derives bounded display projections from it.
package dashboard

import (
	"encoding/json"
	"fmt"
)

// Member is one agent on a team roster.
type Member struct {
	Name      string `json:"name"`
	AgentType string `json:"agent_type"`
	Color     string `json:"color,omitempty"`
}

// Team is a named group of collaborating agents. Teams are keyed by name;
// an update fully replaces the prior value.
type Team struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Members     []Member `json:"members,omitempty"`
}

// Task statuses recognized by the task projections. Anything else is
// stored as-is but excluded from the status buckets.
const (
	TaskPending    = "pending"
	TaskInProgress = "in_progress"
	TaskCompleted  = "completed"
)

// Task is a unit of work owned by exactly one team. IDs are unique within
// a team; cross-team collisions are distinguished by team name.
type Task struct {
	ID         string   `json:"id"`
	Subject    string   `json:"subject"`
	Status     string   `json:"status"`
	Owner      string   `json:"owner,omitempty"`
	ActiveForm string   `json:"active_form,omitempty"`
	BlockedBy  []string `json:"blocked_by,omitempty"`
}

// Message is a single directed note between agents.
type Message struct {
	From      string `json:"from"`
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"`
	Color     string `json:"color,omitempty"`
	Read      bool   `json:"read,omitempty"`
}

// TaskGroup carries one team's tasks inside a Snapshot.
type TaskGroup struct {
	TeamName string `json:"team_name"`
	Tasks    []Task `json:"tasks"`
}

// MessageGroup carries one (team, recipient) message list inside a Snapshot.
type MessageGroup struct {
	TeamName  string    `json:"team_name"`
	Recipient string    `json:"recipient"`
	Messages  []Message `json:"messages"`
}

// Event is a decoded monitor stream event. The concrete type identifies
// the event kind.
type Event interface {
	eventKind() string
}

// SnapshotEvent replaces the entire store contents.
type SnapshotEvent struct {
	Teams    []Team         `json:"teams"`
	Tasks    []TaskGroup    `json:"tasks"`
	Messages []MessageGroup `json:"messages"`
}

// TeamUpdatedEvent upserts a team by name (full replace, no merge).
type TeamUpdatedEvent struct {
	Team Team `json:"team"`
}

// TeamDeletedEvent removes a team and all of its tasks.
type TeamDeletedEvent struct {
	TeamName string `json:"team_name"`
}

// TaskUpdatedEvent upserts a task by id within its team.
type TaskUpdatedEvent struct {
	TeamName string `json:"team_name"`
	Task     Task   `json:"task"`
}

// TaskDeletedEvent removes a task id from its team, if present.
type TaskDeletedEvent struct {
	TeamName string `json:"team_name"`
	TaskID   string `json:"task_id"`
}

// MessageReceivedEvent appends one message to a (team, recipient) list.
type MessageReceivedEvent struct {
	TeamName  string  `json:"team_name"`
	Recipient string  `json:"recipient"`
	Message   Message `json:"message"`
}

// HeartbeatEvent carries no state; it is only a liveness signal.
type HeartbeatEvent struct{}

func (SnapshotEvent) eventKind() string        { return "Snapshot" }
func (TeamUpdatedEvent) eventKind() string     { return "TeamUpdated" }
func (TeamDeletedEvent) eventKind() string     { return "TeamDeleted" }
func (TaskUpdatedEvent) eventKind() string     { return "TaskUpdated" }
func (TaskDeletedEvent) eventKind() string     { return "TaskDeleted" }
func (MessageReceivedEvent) eventKind() string { return "MessageReceived" }
func (HeartbeatEvent) eventKind() string       { return "Heartbeat" }

// Encode marshals an event into its wire form, injecting the "type"
// discriminator Decode expects. It is the producer-side counterpart used
// by the monitor server.
func Encode(ev Event) ([]byte, error) {
	body, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("encode event: %w", err)
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, fmt.Errorf("encode event: %w", err)
	}
	if fields == nil {
		fields = make(map[string]json.RawMessage, 1)
	}
	kind, err := json.Marshal(ev.eventKind())
	if err != nil {
		return nil, fmt.Errorf("encode event kind: %w", err)
	}
	fields["type"] = kind
	return json.Marshal(fields)
}

// Decode parses one raw stream frame into a typed event.
//
// A frame that is not valid JSON, or that has no "type" field, returns an
// error; the caller logs and drops it. A frame with an unrecognized type
// returns (nil, nil) so future event kinds pass through as no-ops.
func Decode(data []byte) (Event, error) {
	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("decode event: %w", err)
	}
	if probe.Type == "" {
		return nil, fmt.Errorf("decode event: missing type field")
	}

	switch probe.Type {
	case "Snapshot":
		var ev SnapshotEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			return nil, fmt.Errorf("decode Snapshot: %w", err)
		}
		return ev, nil
	case "TeamUpdated":
		var ev TeamUpdatedEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			return nil, fmt.Errorf("decode TeamUpdated: %w", err)
		}
		return ev, nil
	case "TeamDeleted":
		var ev TeamDeletedEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			return nil, fmt.Errorf("decode TeamDeleted: %w", err)
		}
		return ev, nil
	case "TaskUpdated":
		var ev TaskUpdatedEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			return nil, fmt.Errorf("decode TaskUpdated: %w", err)
		}
		return ev, nil
	case "TaskDeleted":
		var ev TaskDeletedEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			return nil, fmt.Errorf("decode TaskDeleted: %w", err)
		}
		return ev, nil
	case "MessageReceived":
		var ev MessageReceivedEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			return nil, fmt.Errorf("decode MessageReceived: %w", err)
		}
		return ev, nil
	case "Heartbeat":
		return HeartbeatEvent{}, nil
	default:
		// Unknown event kinds are tolerated for forward compatibility.
		return nil, nil
	}
}
