package dashboard

import "sync"

// Store is the normalized in-memory model built from the event stream:
// teams by name, tasks by team name and task id, and message lists by
// "team/recipient" key in arrival order.
//
// The store is owned by a single writer (the session applying events);
// projections take the read lock, so each event application is atomic
// with respect to readers. Entries exist only because an event placed
// them there.
type Store struct {
	mu       sync.RWMutex
	teams    map[string]Team
	tasks    map[string]map[string]Task
	messages map[string][]Message
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		teams:    make(map[string]Team),
		tasks:    make(map[string]map[string]Task),
		messages: make(map[string][]Message),
	}
}

// messageKey builds the composite grouping key for a message list. The
// recipient may itself contain "/"; projections split on the first
// separator only.
func messageKey(teamName, recipient string) string {
	return teamName + "/" + recipient
}

// Apply runs the state transition for one decoded event. Events that
// reference a team or task not currently present are handled gracefully:
// updates create the missing parent on demand, deletes are no-ops. The
// stream has no cross-event ordering guarantee, so missing references are
// never an error.
func (s *Store) Apply(ev Event) {
	if ev == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	switch ev := ev.(type) {
	case SnapshotEvent:
		s.applySnapshot(ev)
	case TeamUpdatedEvent:
		s.teams[ev.Team.Name] = ev.Team
	case TeamDeletedEvent:
		delete(s.teams, ev.TeamName)
		delete(s.tasks, ev.TeamName)
	case TaskUpdatedEvent:
		byID, ok := s.tasks[ev.TeamName]
		if !ok {
			byID = make(map[string]Task)
			s.tasks[ev.TeamName] = byID
		}
		byID[ev.Task.ID] = ev.Task
	case TaskDeletedEvent:
		if byID, ok := s.tasks[ev.TeamName]; ok {
			delete(byID, ev.TaskID)
		}
	case MessageReceivedEvent:
		key := messageKey(ev.TeamName, ev.Recipient)
		s.messages[key] = append(s.messages[key], ev.Message)
	case HeartbeatEvent:
		// Liveness only.
	}
}

// applySnapshot replaces the store wholesale. Missing arrays in the event
// are treated as empty, so a snapshot always leaves a fully defined store.
func (s *Store) applySnapshot(ev SnapshotEvent) {
	s.teams = make(map[string]Team, len(ev.Teams))
	for _, t := range ev.Teams {
		s.teams[t.Name] = t
	}

	s.tasks = make(map[string]map[string]Task, len(ev.Tasks))
	for _, group := range ev.Tasks {
		byID := make(map[string]Task, len(group.Tasks))
		for _, task := range group.Tasks {
			byID[task.ID] = task
		}
		s.tasks[group.TeamName] = byID
	}

	s.messages = make(map[string][]Message, len(ev.Messages))
	for _, group := range ev.Messages {
		key := messageKey(group.TeamName, group.Recipient)
		msgs := make([]Message, len(group.Messages))
		copy(msgs, group.Messages)
		s.messages[key] = msgs
	}
}

// TeamCount returns the number of teams currently in the store.
func (s *Store) TeamCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.teams)
}

// TaskCount returns the total number of tasks across all teams.
func (s *Store) TaskCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, byID := range s.tasks {
		n += len(byID)
	}
	return n
}

// MessageCount returns the total number of stored messages. The store
// keeps full message history; only projections are capped.
func (s *Store) MessageCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, msgs := range s.messages {
		n += len(msgs)
	}
	return n
}
