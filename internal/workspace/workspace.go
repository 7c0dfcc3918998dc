// Package workspace reads the per-project planning records kept under a
// project's .forja/ directory: specs, tracks, decisions, and plans.
// Specs, tracks, and decisions are markdown files with YAML
// frontmatter; plans are plain YAML.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Spec statuses, from draft through execution.
const (
	SpecDraft     = "draft"
	SpecPlanning  = "planning"
	SpecReady     = "ready"
	SpecExecuting = "executing"
	SpecComplete  = "complete"
	SpecFailed    = "failed"
)

// Track statuses.
const (
	TrackDraft      = "draft"
	TrackInProgress = "in-progress"
	TrackComplete   = "complete"
	TrackArchived   = "archived"
)

// Decision statuses.
const (
	DecisionProposed   = "proposed"
	DecisionAccepted   = "accepted"
	DecisionDeprecated = "deprecated"
	DecisionSuperseded = "superseded"
)

// Plan statuses.
const (
	PlanPending  = "pending"
	PlanExecuted = "executed"
	PlanArchived = "archived"
)

// Spec is a feature specification record.
type Spec struct {
	ID              string   `yaml:"id"`
	Title           string   `yaml:"title"`
	Description     string   `yaml:"description"`
	Status          string   `yaml:"status,omitempty"`
	Priority        string   `yaml:"priority,omitempty"`
	Tags            []string `yaml:"tags,omitempty"`
	Requirements    []string `yaml:"requirements,omitempty"`
	Constraints     []string `yaml:"constraints,omitempty"`
	SuccessCriteria []string `yaml:"success_criteria,omitempty"`
	Body            string   `yaml:"-"`
}

// Track is a workstream grouping related specs.
type Track struct {
	ID          string `yaml:"id"`
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	Status      string `yaml:"status"`
	Owner       string `yaml:"owner,omitempty"`
	Priority    string `yaml:"priority,omitempty"`
	Created     string `yaml:"created"`
	Body        string `yaml:"-"`
}

// Decision is an architecture decision record.
type Decision struct {
	ID           string   `yaml:"id"`
	Title        string   `yaml:"title"`
	Status       string   `yaml:"status"`
	Date         string   `yaml:"date"`
	RelatedSpecs []string `yaml:"related_specs,omitempty"`
	SupersededBy string   `yaml:"superseded_by,omitempty"`
	Body         string   `yaml:"-"`
}

// PlanAgent assigns a skill to a role within a plan.
type PlanAgent struct {
	SkillID string `yaml:"skill_id"`
	Role    string `yaml:"role"`
}

// PlanPhase is one step of a plan's execution order.
type PlanPhase struct {
	Name          string   `yaml:"name"`
	AgentRole     string   `yaml:"agent_role"`
	FilesToCreate []string `yaml:"files_to_create,omitempty"`
	FilesToModify []string `yaml:"files_to_modify,omitempty"`
	Instructions  string   `yaml:"instructions"`
	DependsOn     []string `yaml:"depends_on,omitempty"`
}

// Plan is a generated execution plan for a task.
type Plan struct {
	ID      string      `yaml:"id"`
	Created string      `yaml:"created"`
	Status  string      `yaml:"status"`
	Task    string      `yaml:"task"`
	Profile string      `yaml:"profile,omitempty"`
	Agents  []PlanAgent `yaml:"agents,omitempty"`
	Phases  []PlanPhase `yaml:"phases,omitempty"`
}

// Workspace roots record lookups at a project directory.
type Workspace struct {
	root string
}

// Open returns a Workspace for the project at dir. The .forja/
// directory does not need to exist yet; listings are then empty.
func Open(dir string) *Workspace {
	return &Workspace{root: filepath.Join(dir, ".forja")}
}

// Dir returns the workspace's .forja directory.
func (w *Workspace) Dir() string { return w.root }

// LoadSpec parses one spec markdown file.
func LoadSpec(path string) (Spec, error) {
	var spec Spec
	if err := loadFrontmatterFile(path, &spec, &spec.Body); err != nil {
		return Spec{}, err
	}
	if spec.Status == "" {
		spec.Status = SpecDraft
	}
	if spec.ID == "" {
		return Spec{}, fmt.Errorf("spec %s: missing id", path)
	}
	return spec, nil
}

// Specs lists all specs, sorted by id.
func (w *Workspace) Specs() ([]Spec, error) {
	var specs []Spec
	for _, path := range markdownFiles(filepath.Join(w.root, "specs")) {
		spec, err := LoadSpec(path)
		if err != nil {
			continue
		}
		specs = append(specs, spec)
	}
	sort.Slice(specs, func(i, j int) bool { return specs[i].ID < specs[j].ID })
	return specs, nil
}

// LoadTrack parses one track markdown file.
func LoadTrack(path string) (Track, error) {
	var track Track
	if err := loadFrontmatterFile(path, &track, &track.Body); err != nil {
		return Track{}, err
	}
	if track.ID == "" {
		return Track{}, fmt.Errorf("track %s: missing id", path)
	}
	return track, nil
}

// Tracks lists all tracks, sorted by id.
func (w *Workspace) Tracks() ([]Track, error) {
	var tracks []Track
	for _, path := range markdownFiles(filepath.Join(w.root, "tracks")) {
		track, err := LoadTrack(path)
		if err != nil {
			continue
		}
		tracks = append(tracks, track)
	}
	sort.Slice(tracks, func(i, j int) bool { return tracks[i].ID < tracks[j].ID })
	return tracks, nil
}

// LoadDecision parses one decision markdown file.
func LoadDecision(path string) (Decision, error) {
	var decision Decision
	if err := loadFrontmatterFile(path, &decision, &decision.Body); err != nil {
		return Decision{}, err
	}
	if decision.ID == "" {
		return Decision{}, fmt.Errorf("decision %s: missing id", path)
	}
	return decision, nil
}

// Decisions lists all decision records, sorted by id.
func (w *Workspace) Decisions() ([]Decision, error) {
	var decisions []Decision
	for _, path := range markdownFiles(filepath.Join(w.root, "decisions")) {
		decision, err := LoadDecision(path)
		if err != nil {
			continue
		}
		decisions = append(decisions, decision)
	}
	sort.Slice(decisions, func(i, j int) bool { return decisions[i].ID < decisions[j].ID })
	return decisions, nil
}

// LoadPlan parses one plan YAML file.
func LoadPlan(path string) (Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Plan{}, fmt.Errorf("read plan: %w", err)
	}
	var plan Plan
	if err := yaml.Unmarshal(data, &plan); err != nil {
		return Plan{}, fmt.Errorf("parse plan %s: %w", path, err)
	}
	if plan.Status == "" {
		plan.Status = PlanPending
	}
	if plan.ID == "" {
		return Plan{}, fmt.Errorf("plan %s: missing id", path)
	}
	return plan, nil
}

// SavePlan writes a plan under .forja/plans/<id>.yaml.
func (w *Workspace) SavePlan(plan Plan) error {
	if plan.ID == "" {
		return fmt.Errorf("plan has no id")
	}
	dir := filepath.Join(w.root, "plans")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create plans dir: %w", err)
	}
	data, err := yaml.Marshal(plan)
	if err != nil {
		return fmt.Errorf("marshal plan: %w", err)
	}
	return os.WriteFile(filepath.Join(dir, plan.ID+".yaml"), data, 0o644)
}

// Plans lists all plans, sorted by id.
func (w *Workspace) Plans() ([]Plan, error) {
	entries, err := os.ReadDir(filepath.Join(w.root, "plans"))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read plans dir: %w", err)
	}

	var plans []Plan
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		plan, err := LoadPlan(filepath.Join(w.root, "plans", e.Name()))
		if err != nil {
			continue
		}
		plans = append(plans, plan)
	}
	sort.Slice(plans, func(i, j int) bool { return plans[i].ID < plans[j].ID })
	return plans, nil
}

func loadFrontmatterFile(path string, frontmatter any, body *string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	yamlPart, bodyPart, err := splitFrontmatter(string(data))
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if err := yaml.Unmarshal([]byte(yamlPart), frontmatter); err != nil {
		return fmt.Errorf("parse %s frontmatter: %w", path, err)
	}
	*body = bodyPart
	return nil
}

func markdownFiles(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var paths []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".md") {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(paths)
	return paths
}
