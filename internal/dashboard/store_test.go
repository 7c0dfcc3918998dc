package dashboard

import (
	"fmt"
	"reflect"
	"testing"
)

func snapshotFixture() SnapshotEvent {
	return SnapshotEvent{
		Teams: []Team{
			{Name: "alpha", Description: "core team", Members: []Member{{Name: "ann", AgentType: "coder", Color: "green"}}},
			{Name: "beta"},
		},
		Tasks: []TaskGroup{
			{TeamName: "alpha", Tasks: []Task{
				{ID: "1", Subject: "scaffold", Status: TaskPending},
				{ID: "2", Subject: "wire auth", Status: TaskInProgress, Owner: "ann"},
			}},
		},
		Messages: []MessageGroup{
			{TeamName: "alpha", Recipient: "ann", Messages: []Message{
				{From: "bob", Text: "hello", Timestamp: "2026-01-01T10:00:00Z"},
			}},
		},
	}
}

func storeState(s *Store) (teams []Team, buckets TaskBuckets, feed []MessageView) {
	return s.Teams(), s.TaskBuckets(), s.MessageFeed()
}

func TestStore_SnapshotIdempotent(t *testing.T) {
	s := NewStore()
	s.Apply(snapshotFixture())
	teams1, buckets1, feed1 := storeState(s)

	s.Apply(snapshotFixture())
	teams2, buckets2, feed2 := storeState(s)

	if !reflect.DeepEqual(teams1, teams2) {
		t.Fatalf("teams after second snapshot = %+v, want %+v", teams2, teams1)
	}
	if !reflect.DeepEqual(buckets1, buckets2) {
		t.Fatalf("task buckets after second snapshot = %+v, want %+v", buckets2, buckets1)
	}
	if !reflect.DeepEqual(feed1, feed2) {
		t.Fatalf("message feed after second snapshot = %+v, want %+v", feed2, feed1)
	}
}

func TestStore_SnapshotReplacesWholesale(t *testing.T) {
	s := NewStore()
	s.Apply(snapshotFixture())
	s.Apply(SnapshotEvent{Teams: []Team{{Name: "gamma"}}})

	teams := s.Teams()
	if len(teams) != 1 || teams[0].Name != "gamma" {
		t.Fatalf("teams = %+v, want only gamma", teams)
	}
	if n := s.TaskCount(); n != 0 {
		t.Fatalf("task count = %d, want 0 after replacing snapshot", n)
	}
	if n := s.MessageCount(); n != 0 {
		t.Fatalf("message count = %d, want 0 after replacing snapshot", n)
	}
}

func TestStore_TeamUpdateReplacesMembers(t *testing.T) {
	s := NewStore()
	s.Apply(TeamUpdatedEvent{Team: Team{Name: "t1", Members: []Member{{Name: "a", AgentType: "coder"}}}})
	s.Apply(TeamUpdatedEvent{Team: Team{Name: "t1", Members: []Member{{Name: "b", AgentType: "tester"}}}})

	teams := s.Teams()
	if len(teams) != 1 {
		t.Fatalf("team count = %d, want 1", len(teams))
	}
	members := teams[0].Members
	if len(members) != 1 || members[0].Name != "b" {
		t.Fatalf("members = %+v, want exactly [b] (replace, not merge)", members)
	}
}

func TestStore_TaskUpsertDeleteRoundTrip(t *testing.T) {
	s := NewStore()
	s.Apply(TaskUpdatedEvent{TeamName: "x", Task: Task{ID: "1", Status: TaskPending}})
	if n := s.TaskCount(); n != 1 {
		t.Fatalf("task count = %d, want 1", n)
	}
	s.Apply(TaskDeletedEvent{TeamName: "x", TaskID: "1"})
	if n := s.TaskCount(); n != 0 {
		t.Fatalf("task count = %d, want 0 after delete", n)
	}
}

func TestStore_TeamDeleteCascades(t *testing.T) {
	s := NewStore()
	s.Apply(TaskUpdatedEvent{TeamName: "y", Task: Task{ID: "5", Subject: "doomed", Status: TaskPending}})
	s.Apply(TeamUpdatedEvent{Team: Team{Name: "y"}})
	s.Apply(TeamDeletedEvent{TeamName: "y"})

	if n := s.TeamCount(); n != 0 {
		t.Fatalf("team count = %d, want 0", n)
	}
	buckets := s.TaskBuckets()
	for _, view := range buckets.Pending {
		if view.ID == "5" {
			t.Fatal("task 5 still projected after its team was deleted")
		}
	}
	if n := s.TaskCount(); n != 0 {
		t.Fatalf("task count = %d, want 0 after cascade delete", n)
	}
}

func TestStore_DeletesOnMissingReferencesAreNoOps(t *testing.T) {
	s := NewStore()
	// Neither of these may panic or create state.
	s.Apply(TaskDeletedEvent{TeamName: "ghost", TaskID: "1"})
	s.Apply(TeamDeletedEvent{TeamName: "ghost"})
	if n := s.TeamCount(); n != 0 {
		t.Fatalf("team count = %d, want 0", n)
	}
	if n := s.TaskCount(); n != 0 {
		t.Fatalf("task count = %d, want 0", n)
	}
}

func TestStore_TaskUpdateCreatesTeamMappingOnDemand(t *testing.T) {
	s := NewStore()
	// No TeamUpdated has arrived for "late" yet; update must not be lost.
	s.Apply(TaskUpdatedEvent{TeamName: "late", Task: Task{ID: "9", Status: TaskCompleted}})
	buckets := s.TaskBuckets()
	if len(buckets.Completed) != 1 || buckets.Completed[0].TeamName != "late" {
		t.Fatalf("completed bucket = %+v, want one task tagged team late", buckets.Completed)
	}
}

func TestStore_MessageAppendPreservesArrivalOrder(t *testing.T) {
	s := NewStore()
	for _, ts := range []string{"10:00", "09:00", "11:00"} {
		s.Apply(MessageReceivedEvent{
			TeamName:  "alpha",
			Recipient: "bob",
			Message:   Message{From: "ann", Text: "m", Timestamp: ts},
		})
	}

	s.mu.RLock()
	stored := s.messages["alpha/bob"]
	s.mu.RUnlock()

	gotOrder := []string{stored[0].Timestamp, stored[1].Timestamp, stored[2].Timestamp}
	wantOrder := []string{"10:00", "09:00", "11:00"}
	if !reflect.DeepEqual(gotOrder, wantOrder) {
		t.Fatalf("stored order = %v, want arrival order %v", gotOrder, wantOrder)
	}

	feed := s.MessageFeed()
	gotSorted := []string{feed[0].Timestamp, feed[1].Timestamp, feed[2].Timestamp}
	wantSorted := []string{"09:00", "10:00", "11:00"}
	if !reflect.DeepEqual(gotSorted, wantSorted) {
		t.Fatalf("feed order = %v, want sorted %v", gotSorted, wantSorted)
	}
}

func TestStore_StoreKeepsFullMessageHistory(t *testing.T) {
	s := NewStore()
	for i := 0; i < 120; i++ {
		s.Apply(MessageReceivedEvent{
			TeamName:  "alpha",
			Recipient: "bob",
			Message:   Message{From: "ann", Timestamp: fmt.Sprintf("2026-01-01T%03d", i)},
		})
	}
	if n := s.MessageCount(); n != 120 {
		t.Fatalf("stored message count = %d, want 120 (cap is display-only)", n)
	}
}

func TestStore_HeartbeatHasNoEffect(t *testing.T) {
	s := NewStore()
	s.Apply(snapshotFixture())
	before, bucketsBefore, feedBefore := storeState(s)

	s.Apply(HeartbeatEvent{})

	after, bucketsAfter, feedAfter := storeState(s)
	if !reflect.DeepEqual(before, after) || !reflect.DeepEqual(bucketsBefore, bucketsAfter) || !reflect.DeepEqual(feedBefore, feedAfter) {
		t.Fatal("heartbeat changed store state")
	}
}
