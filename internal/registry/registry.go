// Package registry scans the local skills catalog checkout and keeps it
// up to date with its git remote.
package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Phases are the workflow stages skills are grouped under. The catalog
// layout encodes them as top-level directories.
const (
	PhaseResearch = "research"
	PhaseCode     = "code"
	PhaseTest     = "test"
	PhaseReview   = "review"
	PhaseDeploy   = "deploy"
	PhaseTeams    = "teams"
)

// Phases lists all phases in workflow order.
func Phases() []string {
	return []string{PhaseResearch, PhaseCode, PhaseTest, PhaseReview, PhaseDeploy, PhaseTeams}
}

// ValidPhase reports whether name is a known phase directory.
func ValidPhase(name string) bool {
	switch name {
	case PhaseResearch, PhaseCode, PhaseTest, PhaseReview, PhaseDeploy, PhaseTeams:
		return true
	}
	return false
}

// Content types a skill directory can ship.
const (
	ContentAgent   = "agent"
	ContentSkill   = "skill"
	ContentCommand = "command"
)

// Skill is one catalog entry, identified as <phase>/<tech>/<name>.
type Skill struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Phase        string   `json:"phase"`
	Tech         string   `json:"tech"`
	Path         string   `json:"path"`
	Installed    bool     `json:"installed"`
	ContentTypes []string `json:"content_types"`
}

// Registry is the scanned catalog index. It is rebuilt on every
// invocation; scanning a few hundred skill directories is cheap.
type Registry struct {
	Skills []Skill
}

// Scan walks <registryPath>/skills/<phase>/<tech>/<name> and builds the
// index. Directories without a parseable .claude-plugin/plugin.json are
// skipped. installedIDs marks which entries are already installed.
func Scan(registryPath string, installedIDs []string) (*Registry, error) {
	skillsDir := filepath.Join(registryPath, "skills")
	if _, err := os.Stat(skillsDir); os.IsNotExist(err) {
		return &Registry{}, nil
	}

	installed := make(map[string]bool, len(installedIDs))
	for _, id := range installedIDs {
		installed[id] = true
	}

	var skills []Skill
	for _, phase := range subdirs(skillsDir) {
		if !ValidPhase(phase) {
			continue
		}
		phaseDir := filepath.Join(skillsDir, phase)
		for _, tech := range subdirs(phaseDir) {
			techDir := filepath.Join(phaseDir, tech)
			for _, name := range subdirs(techDir) {
				id := fmt.Sprintf("%s/%s/%s", phase, tech, name)
				skill, err := parseSkill(filepath.Join(techDir, name), id, phase, tech)
				if err != nil {
					continue
				}
				skill.Installed = installed[id]
				skills = append(skills, skill)
			}
		}
	}

	return &Registry{Skills: skills}, nil
}

func parseSkill(dir, id, phase, tech string) (Skill, error) {
	plugin, err := LoadPlugin(filepath.Join(dir, ".claude-plugin", "plugin.json"))
	if err != nil {
		return Skill{}, err
	}

	var contentTypes []string
	for sub, ct := range map[string]string{
		"agents":   ContentAgent,
		"skills":   ContentSkill,
		"commands": ContentCommand,
	} {
		if info, err := os.Stat(filepath.Join(dir, sub)); err == nil && info.IsDir() {
			contentTypes = append(contentTypes, ct)
		}
	}
	sort.Strings(contentTypes)

	return Skill{
		ID:           id,
		Name:         plugin.Name,
		Description:  plugin.Description,
		Phase:        phase,
		Tech:         tech,
		Path:         dir,
		ContentTypes: contentTypes,
	}, nil
}

// FindByID returns the skill with the given id, or nil.
func (r *Registry) FindByID(id string) *Skill {
	for i := range r.Skills {
		if r.Skills[i].ID == id {
			return &r.Skills[i]
		}
	}
	return nil
}

// Search matches query case-insensitively against id, name,
// description, phase, and tech.
func (r *Registry) Search(query string) []Skill {
	q := strings.ToLower(query)
	var matches []Skill
	for _, skill := range r.Skills {
		if strings.Contains(strings.ToLower(skill.ID), q) ||
			strings.Contains(strings.ToLower(skill.Name), q) ||
			strings.Contains(strings.ToLower(skill.Description), q) ||
			strings.Contains(skill.Phase, q) ||
			strings.Contains(strings.ToLower(skill.Tech), q) {
			matches = append(matches, skill)
		}
	}
	return matches
}

// ByPhase groups the skills by phase, in workflow order.
func (r *Registry) ByPhase() map[string][]Skill {
	grouped := make(map[string][]Skill)
	for _, skill := range r.Skills {
		grouped[skill.Phase] = append(grouped[skill.Phase], skill)
	}
	return grouped
}

func subdirs(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() && !strings.HasPrefix(e.Name(), ".") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names
}
