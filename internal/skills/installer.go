// Package skills installs catalog skills into the Claude Code config
// directory as symlinks, with provenance recorded in the persistence
// store.
package skills

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmend3z/forja/internal/persistence"
	"github.com/dmend3z/forja/internal/registry"
)

// symlinkPrefix namespaces every link we create so uninstall and verify
// never touch files the user put there themselves.
const symlinkPrefix = "forja--"

// Installer symlinks skill content into the Claude agents and commands
// directories.
type Installer struct {
	agentsDir   string
	commandsDir string
	store       *persistence.Store
	logger      *slog.Logger
}

// NewInstaller creates an Installer. claudeDir is typically ~/.claude.
func NewInstaller(claudeDir string, store *persistence.Store, logger *slog.Logger) *Installer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Installer{
		agentsDir:   filepath.Join(claudeDir, "agents"),
		commandsDir: filepath.Join(claudeDir, "commands"),
		store:       store,
		logger:      logger,
	}
}

// linkName builds the namespaced symlink filename for a skill file:
// forja--<phase>--<tech>--<name>--<file>.
func linkName(skillID, fileName string) string {
	return symlinkPrefix + strings.ReplaceAll(skillID, "/", "--") + "--" + fileName
}

// Install symlinks a skill's agents/*.md and commands/*.md and records
// provenance. Teams-phase command files are skipped; those are managed
// by the team workflow, not the global command palette. Returns the
// created link paths.
func (in *Installer) Install(ctx context.Context, skill *registry.Skill, sourceURL string) ([]string, error) {
	var created []string

	links, err := in.symlinkDir(filepath.Join(skill.Path, "agents"), in.agentsDir, skill.ID)
	if err != nil {
		return created, err
	}
	created = append(created, links...)

	if skill.Phase != registry.PhaseTeams {
		links, err := in.symlinkDir(filepath.Join(skill.Path, "commands"), in.commandsDir, skill.ID)
		if err != nil {
			return created, err
		}
		created = append(created, links...)
	}

	if err := in.store.RegisterInstalledSkill(ctx, skill.ID, "registry", sourceURL); err != nil {
		return created, err
	}
	in.logger.Info("skill installed", "skill", skill.ID, "links", len(created))
	return created, nil
}

// Uninstall removes a skill's symlinks and its provenance record.
// Returns the removed link paths.
func (in *Installer) Uninstall(ctx context.Context, skillID string) ([]string, error) {
	prefix := symlinkPrefix + strings.ReplaceAll(skillID, "/", "--") + "--"

	var removed []string
	for _, dir := range []string{in.agentsDir, in.commandsDir} {
		links, err := removeMatchingSymlinks(dir, prefix)
		if err != nil {
			return removed, err
		}
		removed = append(removed, links...)
	}

	if err := in.store.RemoveInstalledSkill(ctx, skillID); err != nil {
		return removed, err
	}
	in.logger.Info("skill uninstalled", "skill", skillID, "links", len(removed))
	return removed, nil
}

// InstallCounts summarizes a bulk install.
type InstallCounts struct {
	Installed int
	Skipped   int
	Failed    int
}

// InstallAll installs every not-yet-installed skill in the registry.
// Individual failures are logged and counted, not fatal.
func (in *Installer) InstallAll(ctx context.Context, reg *registry.Registry, sourceURL string) (InstallCounts, error) {
	var counts InstallCounts
	for i := range reg.Skills {
		skill := &reg.Skills[i]
		if skill.Installed {
			counts.Skipped++
			continue
		}
		if _, err := in.Install(ctx, skill, sourceURL); err != nil {
			in.logger.Warn("skill install failed", "skill", skill.ID, "error", err)
			counts.Failed++
			continue
		}
		counts.Installed++
	}
	return counts, nil
}

// InstallPhases installs the registry skills belonging to the given
// phases. Used by the init wizard.
func (in *Installer) InstallPhases(ctx context.Context, reg *registry.Registry, phases []string, sourceURL string) (InstallCounts, error) {
	wanted := make(map[string]bool, len(phases))
	for _, p := range phases {
		wanted[p] = true
	}

	var counts InstallCounts
	for i := range reg.Skills {
		skill := &reg.Skills[i]
		if !wanted[skill.Phase] || skill.Installed {
			counts.Skipped++
			continue
		}
		if _, err := in.Install(ctx, skill, sourceURL); err != nil {
			in.logger.Warn("skill install failed", "skill", skill.ID, "error", err)
			counts.Failed++
			continue
		}
		counts.Installed++
	}
	return counts, nil
}

// InstalledIDs returns the ids of all installed skills.
func (in *Installer) InstalledIDs(ctx context.Context) ([]string, error) {
	recs, err := in.store.ListInstalledSkills(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(recs))
	for _, rec := range recs {
		ids = append(ids, rec.SkillID)
	}
	return ids, nil
}

// Verify checks every forja symlink in both directories and partitions
// them into healthy and broken (dangling target) links.
func (in *Installer) Verify() (healthy, broken []string, err error) {
	for _, dir := range []string{in.agentsDir, in.commandsDir} {
		entries, err := os.ReadDir(dir)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return healthy, broken, fmt.Errorf("read %s: %w", dir, err)
		}
		for _, e := range entries {
			if !strings.HasPrefix(e.Name(), symlinkPrefix) {
				continue
			}
			linkPath := filepath.Join(dir, e.Name())
			if e.Type()&os.ModeSymlink == 0 {
				continue
			}
			target, err := os.Readlink(linkPath)
			if err != nil {
				broken = append(broken, linkPath)
				continue
			}
			if _, err := os.Stat(target); err != nil {
				broken = append(broken, linkPath)
			} else {
				healthy = append(healthy, linkPath)
			}
		}
	}
	return healthy, broken, nil
}

func (in *Installer) symlinkDir(sourceDir, targetDir, skillID string) ([]string, error) {
	entries, err := os.ReadDir(sourceDir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", sourceDir, err)
	}
	if err := os.MkdirAll(targetDir, 0o755); err != nil {
		return nil, fmt.Errorf("create %s: %w", targetDir, err)
	}

	var created []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".md") {
			continue
		}
		source, err := filepath.Abs(filepath.Join(sourceDir, e.Name()))
		if err != nil {
			return created, err
		}
		linkPath := filepath.Join(targetDir, linkName(skillID, e.Name()))

		// Reinstall replaces an existing link.
		if _, err := os.Lstat(linkPath); err == nil {
			if err := os.Remove(linkPath); err != nil {
				return created, fmt.Errorf("replace %s: %w", linkPath, err)
			}
		}
		if err := os.Symlink(source, linkPath); err != nil {
			return created, fmt.Errorf("symlink %s: %w", linkPath, err)
		}
		created = append(created, linkPath)
	}
	return created, nil
}

func removeMatchingSymlinks(dir, prefix string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", dir, err)
	}

	var removed []string
	for _, e := range entries {
		if !strings.HasPrefix(e.Name(), prefix) || e.Type()&os.ModeSymlink == 0 {
			continue
		}
		linkPath := filepath.Join(dir, e.Name())
		if err := os.Remove(linkPath); err != nil {
			return removed, fmt.Errorf("remove %s: %w", linkPath, err)
		}
		removed = append(removed, linkPath)
	}
	return removed, nil
}
