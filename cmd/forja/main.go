package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/dmend3z/forja/internal/config"
	"github.com/dmend3z/forja/internal/persistence"
)

// Version is set via ldflags at build time: -ldflags "-X main.Version=..."
var Version = "v0.3-dev"

func printUsage() {
	fmt.Fprintf(os.Stderr, `Usage of %s:

SETUP:
  %s init                     Write config, clone the skills registry, install skills
  %s doctor [-json]           Run diagnostic checks

SKILLS:
  %s install <id...|--all>    Symlink skills into the Claude config dir
  %s uninstall <id...>        Remove a skill's symlinks
  %s list [--installed]       List catalog skills by phase
  %s search <query>           Search the catalog
  %s info <id>                Show one skill
  %s update                   Pull the latest registry

TEAMS:
  %s team <action>            Manage team configs
                              Actions: create, preset, list, info, delete

TASKS:
  %s task <action>            Run claude tasks ("sparks")
                              Actions: run, list, show

DASHBOARD:
  %s monitor [-port N] [-tui] Serve the live dashboard (web + SSE)
  %s status                   Check monitor health (/healthz)
  %s workspace [kind]         List .forja/ specs, tracks, decisions, plans

FLAGS:
`, os.Args[0], os.Args[0], os.Args[0], os.Args[0], os.Args[0], os.Args[0],
		os.Args[0], os.Args[0], os.Args[0], os.Args[0], os.Args[0], os.Args[0],
		os.Args[0], os.Args[0])
	flag.PrintDefaults()
	fmt.Fprintf(os.Stderr, `
ENVIRONMENT VARIABLES:
  FORJA_HOME              Data directory (default: ~/.forja)

EXAMPLES:
  First-time setup:       %s init
  Install code skills:    %s install --phases code,test
  Live dashboard:         %s monitor -tui
  Run a quick fix:        %s task run -type quick_fix "rename the flag"
`, os.Args[0], os.Args[0], os.Args[0], os.Args[0])
}

func main() {
	flag.Usage = printUsage
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(2)
	}

	switch strings.ToLower(strings.TrimSpace(args[0])) {
	case "help", "-h", "--help":
		printUsage()
	case "version":
		fmt.Println("forja", Version)
	case "init":
		os.Exit(runInitCommand(ctx, args[1:]))
	case "install":
		os.Exit(runInstallCommand(ctx, args[1:]))
	case "uninstall":
		os.Exit(runUninstallCommand(ctx, args[1:]))
	case "list":
		os.Exit(runListCommand(ctx, args[1:]))
	case "search":
		os.Exit(runSearchCommand(ctx, args[1:]))
	case "info":
		os.Exit(runInfoCommand(ctx, args[1:]))
	case "update":
		os.Exit(runUpdateCommand(ctx, args[1:]))
	case "team":
		os.Exit(runTeamCommand(ctx, args[1:]))
	case "task":
		os.Exit(runTaskCommand(ctx, args[1:]))
	case "monitor":
		os.Exit(runMonitorCommand(ctx, args[1:]))
	case "status":
		os.Exit(runStatusCommand(ctx, args[1:]))
	case "workspace":
		os.Exit(runWorkspaceCommand(ctx, args[1:]))
	case "doctor":
		os.Exit(runDoctorCommand(ctx, args[1:]))
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", args[0])
		printUsage()
		os.Exit(2)
	}
}

// loadEnv resolves the forja home dir and loads its config.
func loadEnv() (string, *config.Config, error) {
	homeDir, err := config.DefaultHome()
	if err != nil {
		return "", nil, err
	}
	cfg, err := config.Load(homeDir)
	if err != nil {
		return "", nil, err
	}
	return homeDir, cfg, nil
}

func openStore(homeDir string) (*persistence.Store, error) {
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		return nil, fmt.Errorf("create home dir: %w", err)
	}
	return persistence.Open(filepath.Join(homeDir, "forja.db"))
}

func isHelpArg(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "-h", "--help", "help":
		return true
	default:
		return false
	}
}
