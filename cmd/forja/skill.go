package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/dmend3z/forja/internal/config"
	"github.com/dmend3z/forja/internal/persistence"
	"github.com/dmend3z/forja/internal/registry"
	"github.com/dmend3z/forja/internal/skills"
)

type installedSkillLister interface {
	ListInstalledSkills(ctx context.Context) ([]persistence.InstalledSkillRecord, error)
}

func lookupInstalledSkill(ctx context.Context, lister installedSkillLister, skillID string) (*persistence.InstalledSkillRecord, error) {
	recs, err := lister.ListInstalledSkills(ctx)
	if err != nil {
		return nil, fmt.Errorf("list installed skills: %w", err)
	}
	for idx := range recs {
		if recs[idx].SkillID == skillID {
			return &recs[idx], nil
		}
	}
	return nil, nil
}

// skillEnv bundles what every skill subcommand needs: the catalog scan
// with installed flags applied, the symlink installer, and the store.
type skillEnv struct {
	cfg       *config.Config
	homeDir   string
	store     *persistence.Store
	registry  *registry.Registry
	installer *skills.Installer
}

func (e *skillEnv) close() {
	if e.store != nil {
		e.store.Close()
	}
}

func openSkillEnv(ctx context.Context) (*skillEnv, error) {
	homeDir, cfg, err := loadEnv()
	if err != nil {
		return nil, err
	}
	store, err := openStore(homeDir)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	claudeDir, err := cfg.ResolveClaudeDir()
	if err != nil {
		store.Close()
		return nil, err
	}
	installer := skills.NewInstaller(claudeDir, store, slog.Default())

	installedIDs, err := installer.InstalledIDs(ctx)
	if err != nil {
		store.Close()
		return nil, err
	}
	reg, err := registry.Scan(cfg.RegistryPath(homeDir), installedIDs)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("scan registry: %w", err)
	}

	return &skillEnv{
		cfg:       cfg,
		homeDir:   homeDir,
		store:     store,
		registry:  reg,
		installer: installer,
	}, nil
}

func splitPhases(raw string) ([]string, error) {
	var phases []string
	for _, part := range strings.Split(raw, ",") {
		phase := strings.TrimSpace(part)
		if phase == "" {
			continue
		}
		if !registry.ValidPhase(phase) {
			return nil, fmt.Errorf("unknown phase %q (want one of %s)",
				phase, strings.Join(registry.Phases(), ", "))
		}
		phases = append(phases, phase)
	}
	return phases, nil
}

func runInstallCommand(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("forja install", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	all := fs.Bool("all", false, "install every skill in the catalog")
	phasesFlag := fs.String("phases", "", "comma-separated phases to install")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	ids := fs.Args()
	if !*all && *phasesFlag == "" && len(ids) == 0 {
		fmt.Fprintln(os.Stderr, "usage: forja install <skill-id...> | --all | --phases <p1,p2>")
		return 2
	}

	env, err := openSkillEnv(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer env.close()
	sourceURL := env.cfg.Registry.URL

	switch {
	case *all:
		counts, err := env.installer.InstallAll(ctx, env.registry, sourceURL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "install failed: %v\n", err)
			return 1
		}
		fmt.Fprintf(os.Stdout, "installed %d, skipped %d, failed %d\n",
			counts.Installed, counts.Skipped, counts.Failed)
		if counts.Failed > 0 {
			return 1
		}
		return 0

	case *phasesFlag != "":
		phases, err := splitPhases(*phasesFlag)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 2
		}
		counts, err := env.installer.InstallPhases(ctx, env.registry, phases, sourceURL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "install failed: %v\n", err)
			return 1
		}
		fmt.Fprintf(os.Stdout, "installed %d, skipped %d, failed %d\n",
			counts.Installed, counts.Skipped, counts.Failed)
		if counts.Failed > 0 {
			return 1
		}
		return 0

	default:
		for _, id := range ids {
			skill := env.registry.FindByID(id)
			if skill == nil {
				fmt.Fprintf(os.Stderr, "skill not found: %s\n", id)
				return 1
			}
			links, err := env.installer.Install(ctx, skill, sourceURL)
			if err != nil {
				fmt.Fprintf(os.Stderr, "install %s failed: %v\n", id, err)
				return 1
			}
			fmt.Fprintf(os.Stdout, "installed %s (%d links)\n", id, len(links))
		}
		return 0
	}
}

func runUninstallCommand(ctx context.Context, args []string) int {
	if len(args) == 0 || isHelpArg(args[0]) {
		fmt.Fprintln(os.Stderr, "usage: forja uninstall <skill-id...>")
		return 2
	}

	env, err := openSkillEnv(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer env.close()

	for _, id := range args {
		removed, err := env.installer.Uninstall(ctx, id)
		if err != nil {
			fmt.Fprintf(os.Stderr, "uninstall %s failed: %v\n", id, err)
			return 1
		}
		fmt.Fprintf(os.Stdout, "uninstalled %s (%d links removed)\n", id, len(removed))
	}
	return 0
}

func runListCommand(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("forja list", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	installedOnly := fs.Bool("installed", false, "only show installed skills")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	env, err := openSkillEnv(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer env.close()

	if len(env.registry.Skills) == 0 {
		fmt.Fprintln(os.Stdout, "no skills in the catalog (run `forja init` first)")
		return 0
	}

	byPhase := env.registry.ByPhase()
	for _, phase := range registry.Phases() {
		entries := byPhase[phase]
		if *installedOnly {
			var kept []registry.Skill
			for _, s := range entries {
				if s.Installed {
					kept = append(kept, s)
				}
			}
			entries = kept
		}
		if len(entries) == 0 {
			continue
		}
		fmt.Fprintf(os.Stdout, "%s:\n", phase)
		for _, s := range entries {
			fmt.Fprintf(os.Stdout, "  %s %-40s %s\n", installMarker(s.Installed), s.ID, s.Description)
		}
	}
	return 0
}

func installMarker(installed bool) string {
	if installed {
		return "*"
	}
	return " "
}

func runSearchCommand(ctx context.Context, args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "usage: forja search <query>")
		return 2
	}

	env, err := openSkillEnv(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer env.close()

	matches := env.registry.Search(strings.Join(args, " "))
	if len(matches) == 0 {
		fmt.Fprintln(os.Stdout, "no matches")
		return 0
	}
	for _, s := range matches {
		fmt.Fprintf(os.Stdout, "%s %-40s %s\n", installMarker(s.Installed), s.ID, s.Description)
	}
	return 0
}

func runInfoCommand(ctx context.Context, args []string) int {
	if len(args) != 1 || isHelpArg(args[0]) {
		fmt.Fprintln(os.Stderr, "usage: forja info <skill-id>")
		return 2
	}

	env, err := openSkillEnv(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer env.close()

	skill := env.registry.FindByID(args[0])
	if skill == nil {
		fmt.Fprintf(os.Stderr, "skill not found: %s\n", args[0])
		return 1
	}

	fmt.Fprintf(os.Stdout, "id: %s\nname: %s\nphase: %s\ntech: %s\ndescription: %s\ncontent: %s\ninstalled: %t\n",
		skill.ID, skill.Name, skill.Phase, skill.Tech, skill.Description,
		strings.Join(skill.ContentTypes, ", "), skill.Installed)

	if skill.Installed {
		rec, err := lookupInstalledSkill(ctx, env.store, skill.ID)
		if err == nil && rec != nil {
			fmt.Fprintf(os.Stdout, "source: %s\nurl: %s\n", rec.Source, rec.SourceURL)
		}
	}
	return 0
}

func runUpdateCommand(ctx context.Context, args []string) int {
	if len(args) != 0 {
		fmt.Fprintln(os.Stderr, "usage: forja update")
		return 2
	}

	homeDir, cfg, err := loadEnv()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	cloned, err := registry.Ensure(ctx, cfg.Registry.URL, cfg.RegistryPath(homeDir))
	if err != nil {
		fmt.Fprintf(os.Stderr, "update failed: %v\n", err)
		return 1
	}
	if cloned {
		fmt.Fprintln(os.Stdout, "registry cloned")
	} else {
		fmt.Fprintln(os.Stdout, "registry updated")
	}
	return 0
}
