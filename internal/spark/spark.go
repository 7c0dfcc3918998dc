// Package spark launches and tracks one-shot Claude CLI runs (sparks)
// against a project directory.
package spark

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmend3z/forja/internal/bus"
	"github.com/dmend3z/forja/internal/persistence"
)

// Spark run types.
const (
	TypeTask     = "task"
	TypeQuickFix = "quick_fix"
	TypePlan     = "plan"
)

// Spark run statuses. Stopped and Failed are terminal.
const (
	StatusStarting = "starting"
	StatusRunning  = "running"
	StatusStopped  = "stopped"
	StatusFailed   = "failed"
)

// IsTerminal reports whether the status is final.
func IsTerminal(status string) bool {
	return status == StatusStopped || status == StatusFailed
}

// Run is one spark, live or finished.
type Run struct {
	ID          string     `json:"id"`
	ProjectID   string     `json:"project_id"`
	Type        string     `json:"type"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	Output      string     `json:"output,omitempty"`
	Error       string     `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	FinishedAt  *time.Time `json:"finished_at,omitempty"`
}

// Config holds the Manager dependencies.
type Config struct {
	Store  *persistence.Store
	Bus    *bus.Bus
	Logger *slog.Logger

	// Command overrides the CLI binary, for tests. Defaults to "claude".
	Command string
}

// Manager starts, stops, and lists spark runs. Live runs are tracked in
// memory; terminal states land in the persistence store.
type Manager struct {
	cfg    Config
	logger *slog.Logger

	mu   sync.Mutex
	live map[string]*liveRun
}

type liveRun struct {
	run    Run
	cancel context.CancelFunc
}

// NewManager creates a Manager.
func NewManager(cfg Config) *Manager {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Command == "" {
		cfg.Command = "claude"
	}
	return &Manager{
		cfg:    cfg,
		logger: cfg.Logger,
		live:   make(map[string]*liveRun),
	}
}

// buildPrompt turns a run type and description into the CLI prompt.
func buildPrompt(runType, description string) string {
	switch runType {
	case TypePlan:
		return "Create a detailed implementation plan for: " + description
	case TypeQuickFix:
		return "Execute this as a quick fix.\n" +
			"## Task\n" + description + "\n" +
			"## Rules\n" +
			"- Read CLAUDE.md before starting\n" +
			"- Make minimal, focused changes\n" +
			"- Run tests if available\n" +
			"- Commit with a descriptive message"
	default:
		return description
	}
}

// Start launches a spark in projectDir and returns immediately with the
// starting run. Completion is recorded in the background.
func (m *Manager) Start(ctx context.Context, projectID, runType, description, projectDir string) (Run, error) {
	run := Run{
		ID:          uuid.NewString(),
		ProjectID:   projectID,
		Type:        runType,
		Description: description,
		Status:      StatusStarting,
		CreatedAt:   time.Now().UTC(),
	}

	if err := m.cfg.Store.CreateRun(ctx, persistence.RunRecord{
		RunID:       run.ID,
		ProjectID:   run.ProjectID,
		RunType:     run.Type,
		Description: run.Description,
		Status:      run.Status,
	}); err != nil {
		return Run{}, fmt.Errorf("record run: %w", err)
	}

	runCtx, cancel := context.WithCancel(context.Background())
	cmd := exec.CommandContext(runCtx, m.cfg.Command,
		"--dangerously-skip-permissions", "--print", "--", buildPrompt(runType, description))
	cmd.Dir = projectDir
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	if err := cmd.Start(); err != nil {
		cancel()
		m.finish(run.ID, StatusFailed, "", fmt.Sprintf("spawn %s: %v", m.cfg.Command, err))
		return Run{}, fmt.Errorf("spawn %s: %w", m.cfg.Command, err)
	}

	m.mu.Lock()
	m.live[run.ID] = &liveRun{run: run, cancel: cancel}
	m.mu.Unlock()
	m.setStatus(run.ID, StatusRunning)
	run.Status = StatusRunning

	go m.wait(run.ID, cmd, &out, cancel)

	m.logger.Info("spark started", "run", run.ID, "project", projectID, "type", runType)
	return run, nil
}

func (m *Manager) wait(runID string, cmd *exec.Cmd, out *bytes.Buffer, cancel context.CancelFunc) {
	defer cancel()
	err := cmd.Wait()

	m.mu.Lock()
	lr, tracked := m.live[runID]
	// Stop may have already finished the run; don't overwrite that.
	stillRunning := tracked && lr.run.Status == StatusRunning
	m.mu.Unlock()
	if !stillRunning {
		return
	}

	if err != nil {
		m.finish(runID, StatusFailed, "", firstNonEmpty(out.String(), err.Error()))
		return
	}
	m.finish(runID, StatusStopped, out.String(), "")
}

// Stop kills a live run. Stopping an unknown or finished run returns
// persistence.ErrRunNotFound.
func (m *Manager) Stop(runID string) error {
	m.mu.Lock()
	lr, ok := m.live[runID]
	m.mu.Unlock()
	if !ok {
		return persistence.ErrRunNotFound
	}

	lr.cancel()
	m.finish(runID, StatusStopped, "", "")
	return nil
}

// List returns a project's runs, newest first: live ones from memory
// merged with history from the store.
func (m *Manager) List(ctx context.Context, projectID string) ([]Run, error) {
	m.mu.Lock()
	seen := make(map[string]bool)
	var runs []Run
	for _, lr := range m.live {
		if projectID == "" || lr.run.ProjectID == projectID {
			runs = append(runs, lr.run)
			seen[lr.run.ID] = true
		}
	}
	m.mu.Unlock()

	recs, err := m.cfg.Store.ListRuns(ctx, projectID)
	if err != nil {
		return nil, err
	}
	for _, rec := range recs {
		if seen[rec.RunID] {
			continue
		}
		runs = append(runs, Run{
			ID:          rec.RunID,
			ProjectID:   rec.ProjectID,
			Type:        rec.RunType,
			Description: rec.Description,
			Status:      rec.Status,
			Output:      rec.Output,
			Error:       rec.Error,
			CreatedAt:   rec.CreatedAt,
			FinishedAt:  rec.FinishedAt,
		})
	}

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].CreatedAt.After(runs[j].CreatedAt)
	})
	return runs, nil
}

func (m *Manager) setStatus(runID, status string) {
	m.mu.Lock()
	var old, projectID string
	if lr, ok := m.live[runID]; ok {
		old = lr.run.Status
		lr.run.Status = status
		projectID = lr.run.ProjectID
	}
	m.mu.Unlock()

	if err := m.cfg.Store.SetRunStatus(context.Background(), runID, status); err != nil {
		m.logger.Error("spark: persist status", "run", runID, "error", err)
	}
	m.publish(runID, projectID, old, status)
}

func (m *Manager) finish(runID, status, output, errText string) {
	now := time.Now().UTC()

	m.mu.Lock()
	var old, projectID string
	if lr, ok := m.live[runID]; ok {
		old = lr.run.Status
		lr.run.Status = status
		lr.run.Output = output
		lr.run.Error = errText
		lr.run.FinishedAt = &now
		projectID = lr.run.ProjectID
		delete(m.live, runID)
	}
	m.mu.Unlock()

	if err := m.cfg.Store.FinishRun(context.Background(), runID, status, output, errText, now); err != nil {
		m.logger.Error("spark: persist finish", "run", runID, "error", err)
	}
	m.publish(runID, projectID, old, status)
	m.logger.Info("spark finished", "run", runID, "status", status)
}

func (m *Manager) publish(runID, projectID, oldStatus, newStatus string) {
	if m.cfg.Bus == nil || oldStatus == newStatus {
		return
	}
	m.cfg.Bus.Publish(bus.TopicSparkStateChanged, bus.SparkStateChangedEvent{
		RunID:     runID,
		ProjectID: projectID,
		OldStatus: oldStatus,
		NewStatus: newStatus,
	})
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
