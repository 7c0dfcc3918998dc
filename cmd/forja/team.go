package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmend3z/forja/internal/teams"
)

func teamsStore() (*teams.Store, error) {
	homeDir, _, err := loadEnv()
	if err != nil {
		return nil, err
	}
	return teams.NewStore(filepath.Join(homeDir, "teams")), nil
}

func runTeamCommand(_ context.Context, args []string) int {
	if len(args) == 0 || isHelpArg(args[0]) {
		fmt.Fprintln(os.Stderr, "usage: forja team <create|preset|list|info|delete> ...")
		return 2
	}

	store, err := teamsStore()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	sub := strings.ToLower(strings.TrimSpace(args[0]))
	switch sub {
	case "create":
		fs := flag.NewFlagSet("forja team create", flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		preset := fs.String("preset", "", "preset to build the team from")
		profile := fs.String("profile", teams.ProfileBalanced, "model profile (fast, balanced, max)")
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}
		if fs.NArg() != 1 {
			fmt.Fprintln(os.Stderr, "usage: forja team create <name> [--preset <preset>] [--profile <profile>]")
			return 2
		}
		name := fs.Arg(0)

		if *preset == "" {
			*preset = "full-product"
		}
		team, err := store.CreateFromPreset(name, *preset, *profile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "create failed: %v\n", err)
			return 1
		}
		fmt.Fprintf(os.Stdout, "created team %s (%s, %d members)\n",
			team.Name, team.Preset, len(team.Members))
		return 0

	case "preset":
		if len(args) != 1 {
			fmt.Fprintln(os.Stderr, "usage: forja team preset")
			return 2
		}
		for _, name := range teams.PresetNames() {
			members, err := teams.PresetMembers(name, teams.ProfileBalanced)
			if err != nil {
				continue
			}
			fmt.Fprintf(os.Stdout, "%-14s %d members\n", name, len(members))
			for _, m := range members {
				fmt.Fprintf(os.Stdout, "    %-12s %s\n", m.AgentName, m.SkillID)
			}
		}
		return 0

	case "list":
		list, err := store.List()
		if err != nil {
			fmt.Fprintf(os.Stderr, "list failed: %v\n", err)
			return 1
		}
		if len(list) == 0 {
			fmt.Fprintln(os.Stdout, "no teams")
			return 0
		}
		for _, team := range list {
			fmt.Fprintf(os.Stdout, "%-20s %-14s %-10s %d members\n",
				team.Name, team.Preset, team.Profile, len(team.Members))
		}
		return 0

	case "info":
		if len(args) != 2 {
			fmt.Fprintln(os.Stderr, "usage: forja team info <name>")
			return 2
		}
		team, err := store.Get(args[1])
		if errors.Is(err, teams.ErrTeamNotFound) {
			fmt.Fprintf(os.Stderr, "team not found: %s\n", args[1])
			return 1
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "info failed: %v\n", err)
			return 1
		}
		fmt.Fprintf(os.Stdout, "name: %s\npreset: %s\nprofile: %s\nmembers:\n",
			team.Name, team.Preset, team.Profile)
		for _, m := range team.Members {
			fmt.Fprintf(os.Stdout, "  %-12s %-8s %s\n", m.AgentName, m.Model, m.SkillID)
		}
		return 0

	case "delete":
		if len(args) != 2 {
			fmt.Fprintln(os.Stderr, "usage: forja team delete <name>")
			return 2
		}
		if err := store.Delete(args[1]); err != nil {
			fmt.Fprintf(os.Stderr, "delete failed: %v\n", err)
			return 1
		}
		fmt.Fprintln(os.Stdout, "deleted")
		return 0

	default:
		fmt.Fprintf(os.Stderr, "unknown team subcommand: %s\n", sub)
		return 2
	}
}
