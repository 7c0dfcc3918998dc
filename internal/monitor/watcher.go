package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/dmend3z/forja/internal/bus"
	"github.com/dmend3z/forja/internal/dashboard"
)

// Watcher turns file changes under the agents state directory into
// dashboard events on the bus. Agents write their state as JSON files:
//
//	<agentsDir>/teams/<team>.json                a dashboard.Team
//	<agentsDir>/tasks/<team>/<id>.json           a dashboard.Task
//	<agentsDir>/messages/<team>/<recipient>.json a []dashboard.Message
type Watcher struct {
	agentsDir string
	bus       *bus.Bus
	logger    *slog.Logger
}

// NewWatcher creates a Watcher over agentsDir.
func NewWatcher(agentsDir string, b *bus.Bus, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{agentsDir: agentsDir, bus: b, logger: logger}
}

// Snapshot scans the agents directory and returns the full current
// state. The monitor server calls this once per client connection.
func (w *Watcher) Snapshot() dashboard.SnapshotEvent {
	var snap dashboard.SnapshotEvent

	for _, name := range sortedJSONFiles(filepath.Join(w.agentsDir, "teams")) {
		team, err := readTeamFile(filepath.Join(w.agentsDir, "teams", name))
		if err != nil {
			w.logger.Warn("snapshot: skip team file", "file", name, "error", err)
			continue
		}
		snap.Teams = append(snap.Teams, team)
	}

	tasksRoot := filepath.Join(w.agentsDir, "tasks")
	for _, teamName := range sortedSubdirs(tasksRoot) {
		group := dashboard.TaskGroup{TeamName: teamName}
		for _, name := range sortedJSONFiles(filepath.Join(tasksRoot, teamName)) {
			task, err := readTaskFile(filepath.Join(tasksRoot, teamName, name))
			if err != nil {
				w.logger.Warn("snapshot: skip task file", "team", teamName, "file", name, "error", err)
				continue
			}
			group.Tasks = append(group.Tasks, task)
		}
		snap.Tasks = append(snap.Tasks, group)
	}

	messagesRoot := filepath.Join(w.agentsDir, "messages")
	for _, teamName := range sortedSubdirs(messagesRoot) {
		for _, name := range sortedJSONFiles(filepath.Join(messagesRoot, teamName)) {
			msgs, err := readMessagesFile(filepath.Join(messagesRoot, teamName, name))
			if err != nil {
				w.logger.Warn("snapshot: skip messages file", "team", teamName, "file", name, "error", err)
				continue
			}
			snap.Messages = append(snap.Messages, dashboard.MessageGroup{
				TeamName:  teamName,
				Recipient: strings.TrimSuffix(name, ".json"),
				Messages:  msgs,
			})
		}
	}

	return snap
}

// Run watches the agents directory until ctx is cancelled. Missing
// subdirectories are created so agents and the watcher can start in
// either order.
func (w *Watcher) Run(ctx context.Context) error {
	for _, sub := range []string{"teams", "tasks", "messages"} {
		if err := os.MkdirAll(filepath.Join(w.agentsDir, sub), 0o755); err != nil {
			return fmt.Errorf("create agents dir: %w", err)
		}
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create fsnotify watcher: %w", err)
	}
	defer fw.Close()

	watch := func(dir string) {
		if err := fw.Add(dir); err != nil {
			w.logger.Warn("watch dir failed", "dir", dir, "error", err)
		}
	}
	watch(filepath.Join(w.agentsDir, "teams"))
	watch(filepath.Join(w.agentsDir, "tasks"))
	watch(filepath.Join(w.agentsDir, "messages"))

	// Per-team subdirectories that already exist.
	for _, root := range []string{filepath.Join(w.agentsDir, "tasks"), filepath.Join(w.agentsDir, "messages")} {
		for _, teamName := range sortedSubdirs(root) {
			watch(filepath.Join(root, teamName))
		}
	}

	w.logger.Info("watching agents dir", "dir", w.agentsDir)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			w.handleFSEvent(fw, event)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("fsnotify error", "error", err)
		}
	}
}

func (w *Watcher) handleFSEvent(fw *fsnotify.Watcher, event fsnotify.Event) {
	rel, err := filepath.Rel(w.agentsDir, event.Name)
	if err != nil {
		return
	}
	parts := strings.Split(filepath.ToSlash(rel), "/")

	// A new per-team subdirectory needs its own watch.
	if event.Op.Has(fsnotify.Create) && len(parts) == 2 && (parts[0] == "tasks" || parts[0] == "messages") {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := fw.Add(event.Name); err != nil {
				w.logger.Warn("watch dir failed", "dir", event.Name, "error", err)
			}
			return
		}
	}

	if !strings.HasSuffix(event.Name, ".json") {
		return
	}
	removed := event.Op.Has(fsnotify.Remove) || event.Op.Has(fsnotify.Rename)
	written := event.Op.Has(fsnotify.Create) || event.Op.Has(fsnotify.Write)
	if !removed && !written {
		return
	}

	switch {
	case parts[0] == "teams" && len(parts) == 2:
		teamName := strings.TrimSuffix(parts[1], ".json")
		if removed {
			w.bus.Publish(bus.TopicTeamDeleted, dashboard.TeamDeletedEvent{TeamName: teamName})
			return
		}
		team, err := readTeamFile(event.Name)
		if err != nil {
			w.logger.Warn("skip team file", "file", event.Name, "error", err)
			return
		}
		w.bus.Publish(bus.TopicTeamUpdated, dashboard.TeamUpdatedEvent{Team: team})

	case parts[0] == "tasks" && len(parts) == 3:
		teamName := parts[1]
		taskID := strings.TrimSuffix(parts[2], ".json")
		if removed {
			w.bus.Publish(bus.TopicTaskDeleted, dashboard.TaskDeletedEvent{TeamName: teamName, TaskID: taskID})
			return
		}
		task, err := readTaskFile(event.Name)
		if err != nil {
			w.logger.Warn("skip task file", "file", event.Name, "error", err)
			return
		}
		w.bus.Publish(bus.TopicTaskUpdated, dashboard.TaskUpdatedEvent{TeamName: teamName, Task: task})

	case parts[0] == "messages" && len(parts) == 3:
		if removed {
			return
		}
		teamName := parts[1]
		recipient := strings.TrimSuffix(parts[2], ".json")
		msgs, err := readMessagesFile(event.Name)
		if err != nil {
			w.logger.Warn("skip messages file", "file", event.Name, "error", err)
			return
		}
		if len(msgs) == 0 {
			return
		}
		// Agents append to the list file; the newest entry is the one
		// that just arrived.
		w.bus.Publish(bus.TopicMessageReceived, dashboard.MessageReceivedEvent{
			TeamName:  teamName,
			Recipient: recipient,
			Message:   msgs[len(msgs)-1],
		})
	}
}

func readTeamFile(path string) (dashboard.Team, error) {
	var team dashboard.Team
	if err := readJSONFile(path, &team); err != nil {
		return dashboard.Team{}, err
	}
	if team.Name == "" {
		team.Name = strings.TrimSuffix(filepath.Base(path), ".json")
	}
	return team, nil
}

func readTaskFile(path string) (dashboard.Task, error) {
	var task dashboard.Task
	if err := readJSONFile(path, &task); err != nil {
		return dashboard.Task{}, err
	}
	if task.ID == "" {
		task.ID = strings.TrimSuffix(filepath.Base(path), ".json")
	}
	return task, nil
}

func readMessagesFile(path string) ([]dashboard.Message, error) {
	var msgs []dashboard.Message
	if err := readJSONFile(path, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

func readJSONFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return nil
}

func sortedJSONFiles(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".json") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names
}

func sortedSubdirs(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names
}
