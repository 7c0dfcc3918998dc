package dashboard

import (
	"testing"
)

func TestDecode_EventKinds(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"snapshot", `{"type":"Snapshot","teams":[],"tasks":[],"messages":[]}`, "Snapshot"},
		{"team updated", `{"type":"TeamUpdated","team":{"name":"alpha","members":[]}}`, "TeamUpdated"},
		{"team deleted", `{"type":"TeamDeleted","team_name":"alpha"}`, "TeamDeleted"},
		{"task updated", `{"type":"TaskUpdated","team_name":"alpha","task":{"id":"1","subject":"s","status":"pending"}}`, "TaskUpdated"},
		{"task deleted", `{"type":"TaskDeleted","team_name":"alpha","task_id":"1"}`, "TaskDeleted"},
		{"message received", `{"type":"MessageReceived","team_name":"alpha","recipient":"bob","message":{"from":"ann","text":"hi","timestamp":"2026-01-01T10:00:00Z"}}`, "MessageReceived"},
		{"heartbeat", `{"type":"Heartbeat"}`, "Heartbeat"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := Decode([]byte(tt.raw))
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if ev == nil {
				t.Fatal("Decode() returned nil event")
			}
			if got := ev.eventKind(); got != tt.want {
				t.Fatalf("event kind = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDecode_Fields(t *testing.T) {
	raw := `{"type":"TaskUpdated","team_name":"alpha","task":{"id":"7","subject":"wire auth","status":"in_progress","owner":"coder","active_form":"Wiring auth","blocked_by":["3"]}}`
	ev, err := Decode([]byte(raw))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	tu, ok := ev.(TaskUpdatedEvent)
	if !ok {
		t.Fatalf("event type = %T, want TaskUpdatedEvent", ev)
	}
	if tu.TeamName != "alpha" {
		t.Fatalf("team_name = %q, want %q", tu.TeamName, "alpha")
	}
	if tu.Task.ID != "7" || tu.Task.Status != "in_progress" || tu.Task.Owner != "coder" {
		t.Fatalf("task = %+v, want id=7 status=in_progress owner=coder", tu.Task)
	}
	if len(tu.Task.BlockedBy) != 1 || tu.Task.BlockedBy[0] != "3" {
		t.Fatalf("blocked_by = %v, want [3]", tu.Task.BlockedBy)
	}
}

func TestDecode_MalformedJSON(t *testing.T) {
	for _, raw := range []string{"not json", "{", `{"type":`} {
		if _, err := Decode([]byte(raw)); err == nil {
			t.Fatalf("Decode(%q) error = nil, want parse error", raw)
		}
	}
}

func TestDecode_MissingType(t *testing.T) {
	if _, err := Decode([]byte(`{"team_name":"alpha"}`)); err == nil {
		t.Fatal("Decode() error = nil, want missing type error")
	}
}

func TestDecode_UnknownTypeIsNoOp(t *testing.T) {
	ev, err := Decode([]byte(`{"type":"FutureEvent","anything":{"nested":true}}`))
	if err != nil {
		t.Fatalf("Decode() error = %v, want nil for unknown type", err)
	}
	if ev != nil {
		t.Fatalf("Decode() = %#v, want nil event for unknown type", ev)
	}
}
