// Package tui renders the monitor dashboard in the terminal.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dmend3z/forja/internal/dashboard"
)

// Snapshot is one render frame's worth of dashboard state.
type Snapshot struct {
	Status   dashboard.Status
	Teams    []dashboard.Team
	Tasks    dashboard.TaskBuckets
	Messages []dashboard.MessageView
	Activity []dashboard.ActivityEntry
}

// SnapshotProvider supplies the current state; the model polls it once
// per second.
type SnapshotProvider func() Snapshot

// SessionProvider adapts a dashboard session into a SnapshotProvider.
func SessionProvider(session *dashboard.Session) SnapshotProvider {
	return func() Snapshot {
		store := session.Store()
		return Snapshot{
			Status:   session.Status(),
			Teams:    store.Teams(),
			Tasks:    store.TaskBuckets(),
			Messages: store.MessageFeed(),
			Activity: session.Activity(),
		}
	}
}

var (
	titleStyle     = lipgloss.NewStyle().Bold(true)
	connectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	droppedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	headerStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("63")).Bold(true)
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

type model struct {
	provider SnapshotProvider
	snap     Snapshot
}

type tickMsg time.Time

func tickCmd() tea.Cmd {
	return tea.Tick(1*time.Second, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m model) Init() tea.Cmd {
	return tickCmd()
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}
	case tickMsg:
		m.snap = m.provider()
		return m, tickCmd()
	}
	return m, nil
}

func (m model) View() string {
	var out strings.Builder

	status := droppedStyle.Render("Reconnecting...")
	if m.snap.Status == dashboard.StatusConnected {
		status = connectedStyle.Render("Connected")
	}
	out.WriteString(titleStyle.Render("forja monitor") + "  " + status + "\n\n")

	out.WriteString(headerStyle.Render("Teams") + "\n")
	if len(m.snap.Teams) == 0 {
		out.WriteString(dimStyle.Render("  No active teams") + "\n")
	}
	for _, team := range m.snap.Teams {
		out.WriteString("  " + team.Name)
		if len(team.Members) > 0 {
			names := make([]string, 0, len(team.Members))
			for _, member := range team.Members {
				names = append(names, member.Name)
			}
			out.WriteString(dimStyle.Render("  [" + strings.Join(names, ", ") + "]"))
		}
		out.WriteString("\n")
	}
	out.WriteString("\n")

	out.WriteString(headerStyle.Render("Tasks") + "\n")
	writeTaskColumn(&out, "pending", m.snap.Tasks.Pending)
	writeTaskColumn(&out, "in progress", m.snap.Tasks.InProgress)
	writeTaskColumn(&out, "completed", m.snap.Tasks.Completed)
	out.WriteString("\n")

	out.WriteString(headerStyle.Render("Messages") + "\n")
	if len(m.snap.Messages) == 0 {
		out.WriteString(dimStyle.Render("  No messages yet") + "\n")
	}
	for _, msg := range m.snap.Messages {
		text := dashboard.DisplayText(msg.Text)
		out.WriteString(fmt.Sprintf("  %s → %s  %s\n",
			msg.From, msg.Recipient, firstLine(text)))
	}
	out.WriteString("\n")

	out.WriteString(headerStyle.Render("Activity") + "\n")
	entries := m.snap.Activity
	if len(entries) > 10 {
		entries = entries[len(entries)-10:]
	}
	if len(entries) == 0 {
		out.WriteString(dimStyle.Render("  Waiting for events") + "\n")
	}
	for _, entry := range entries {
		out.WriteString(dimStyle.Render("  "+entry.At.Format("15:04:05")) + "  " + entry.Text + "\n")
	}

	out.WriteString("\n" + dimStyle.Render("Press q to quit.") + "\n")
	return out.String()
}

func writeTaskColumn(out *strings.Builder, label string, tasks []dashboard.TaskView) {
	out.WriteString(fmt.Sprintf("  %s (%d)\n", label, len(tasks)))
	for _, task := range tasks {
		owner := task.Owner
		if owner == "" {
			owner = "unassigned"
		}
		out.WriteString(fmt.Sprintf("    #%s %s %s\n",
			task.ID, task.Subject, dimStyle.Render("("+owner+" · "+task.TeamName+")")))
	}
}

func firstLine(text string) string {
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		return text[:i]
	}
	return text
}

// Run starts the TUI and blocks until quit or ctx cancellation.
func Run(ctx context.Context, provider SnapshotProvider) error {
	defer bestEffortResetTTY()

	m := model{provider: provider, snap: provider()}
	p := tea.NewProgram(m)

	done := make(chan error, 1)
	go func() {
		_, err := p.Run()
		done <- err
	}()

	select {
	case <-ctx.Done():
		p.Quit()
		return ctx.Err()
	case err := <-done:
		return err
	}
}
