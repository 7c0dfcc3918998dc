// Package teams manages agent team configurations, stored as one YAML
// file per team under the forja home directory.
package teams

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dmend3z/forja/internal/registry"
)

// ErrTeamNotFound is returned when a team name has no config file.
var ErrTeamNotFound = errors.New("team not found")

// Model profiles decide which model each team member runs on.
const (
	ProfileFast     = "fast"     // all sonnet
	ProfileBalanced = "balanced" // opus for thinking phases
	ProfileMax      = "max"      // all opus
)

// Profiles lists the known profiles with their descriptions.
func Profiles() map[string]string {
	return map[string]string{
		ProfileFast:     "All sonnet — fastest, lowest cost",
		ProfileBalanced: "Opus for thinking phases, sonnet for execution",
		ProfileMax:      "All opus — highest quality",
	}
}

// ResolveModel picks the model for a phase under a profile. Research
// and review are the thinking phases.
func ResolveModel(profile, phase string) (string, error) {
	thinking := phase == registry.PhaseResearch || phase == registry.PhaseReview
	switch profile {
	case ProfileFast:
		return "sonnet", nil
	case ProfileBalanced:
		if thinking {
			return "opus", nil
		}
		return "sonnet", nil
	case ProfileMax:
		return "opus", nil
	default:
		return "", fmt.Errorf("unknown profile %q (want fast, balanced, or max)", profile)
	}
}

// Member is one agent slot on a team.
type Member struct {
	SkillID   string `yaml:"skill_id"`
	AgentName string `yaml:"agent_name"`
	Model     string `yaml:"model"`
}

// Team is a stored team configuration.
type Team struct {
	Name        string    `yaml:"name"`
	Description string    `yaml:"description,omitempty"`
	Preset      string    `yaml:"preset,omitempty"`
	Profile     string    `yaml:"profile"`
	Members     []Member  `yaml:"members"`
	CreatedAt   time.Time `yaml:"created_at"`
}

// Store reads and writes team configs under dir (normally
// ~/.forja/teams).
type Store struct {
	dir string
}

// NewStore creates a Store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

func (s *Store) teamPath(name string) string {
	return filepath.Join(s.dir, name+".yaml")
}

// validName rejects names that would escape the teams directory or
// produce awkward filenames.
func validName(name string) error {
	if name == "" {
		return fmt.Errorf("team name is empty")
	}
	if strings.ContainsAny(name, "/\\") || strings.Contains(name, "..") {
		return fmt.Errorf("invalid team name %q", name)
	}
	return nil
}

// Save writes a team config, creating the directory if needed.
func (s *Store) Save(team Team) error {
	if err := validName(team.Name); err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create teams dir: %w", err)
	}
	data, err := yaml.Marshal(team)
	if err != nil {
		return fmt.Errorf("marshal team: %w", err)
	}
	if err := os.WriteFile(s.teamPath(team.Name), data, 0o644); err != nil {
		return fmt.Errorf("write team config: %w", err)
	}
	return nil
}

// Get loads one team by name.
func (s *Store) Get(name string) (Team, error) {
	if err := validName(name); err != nil {
		return Team{}, err
	}
	data, err := os.ReadFile(s.teamPath(name))
	if os.IsNotExist(err) {
		return Team{}, ErrTeamNotFound
	}
	if err != nil {
		return Team{}, fmt.Errorf("read team config: %w", err)
	}
	var team Team
	if err := yaml.Unmarshal(data, &team); err != nil {
		return Team{}, fmt.Errorf("parse team config %s: %w", name, err)
	}
	return team, nil
}

// List returns all teams sorted by name. Unparseable files are skipped.
func (s *Store) List() ([]Team, error) {
	entries, err := os.ReadDir(s.dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read teams dir: %w", err)
	}

	var teams []Team
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		team, err := s.Get(strings.TrimSuffix(e.Name(), ".yaml"))
		if err != nil {
			continue
		}
		teams = append(teams, team)
	}
	sort.Slice(teams, func(i, j int) bool { return teams[i].Name < teams[j].Name })
	return teams, nil
}

// Delete removes a team config. Deleting an unknown team returns
// ErrTeamNotFound.
func (s *Store) Delete(name string) error {
	if err := validName(name); err != nil {
		return err
	}
	err := os.Remove(s.teamPath(name))
	if os.IsNotExist(err) {
		return ErrTeamNotFound
	}
	return err
}

// presetMember is a preset slot before model resolution.
type presetMember struct {
	skillID   string
	agentName string
	phase     string
}

var presets = map[string][]presetMember{
	"full-product": {
		{"research/codebase/explorer", "researcher", registry.PhaseResearch},
		{"code/general/feature", "coder", registry.PhaseCode},
		{"test/tdd/workflow", "tester", registry.PhaseTest},
		{"review/code-simplifier/simplifier", "code-simplifier", registry.PhaseReview},
		{"review/code-quality/reviewer", "reviewer", registry.PhaseReview},
		{"deploy/git/commit", "deployer", registry.PhaseDeploy},
	},
	"solo-sprint": {
		{"code/general/feature", "coder-tester", registry.PhaseCode},
		{"review/code-simplifier/simplifier", "code-simplifier", registry.PhaseReview},
		{"review/code-quality/reviewer", "reviewer", registry.PhaseReview},
	},
	"quick-fix": {
		{"code/general/feature", "coder", registry.PhaseCode},
		{"deploy/git/commit", "deployer", registry.PhaseDeploy},
	},
}

// PresetNames lists the built-in presets in a stable order.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// PresetMembers resolves a preset into concrete members under a
// profile.
func PresetMembers(preset, profile string) ([]Member, error) {
	slots, ok := presets[preset]
	if !ok {
		return nil, fmt.Errorf("unknown preset %q (available: %s)", preset, strings.Join(PresetNames(), ", "))
	}
	members := make([]Member, 0, len(slots))
	for _, slot := range slots {
		model, err := ResolveModel(profile, slot.phase)
		if err != nil {
			return nil, err
		}
		members = append(members, Member{
			SkillID:   slot.skillID,
			AgentName: slot.agentName,
			Model:     model,
		})
	}
	return members, nil
}

// CreateFromPreset builds and saves a team from a built-in preset.
func (s *Store) CreateFromPreset(name, preset, profile string) (Team, error) {
	members, err := PresetMembers(preset, profile)
	if err != nil {
		return Team{}, err
	}
	team := Team{
		Name:      name,
		Preset:    preset,
		Profile:   profile,
		Members:   members,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.Save(team); err != nil {
		return Team{}, err
	}
	return team, nil
}
