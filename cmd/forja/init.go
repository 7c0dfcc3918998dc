package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/dmend3z/forja/internal/config"
	"github.com/dmend3z/forja/internal/registry"
	"github.com/dmend3z/forja/internal/skills"
)

// runInitCommand performs first-time setup: write config.yaml, clone the
// skills registry, and symlink every skill into the Claude config dir.
func runInitCommand(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("forja init", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	registryURL := fs.String("registry", "", "registry git URL (default "+config.DefaultRegistryURL+")")
	noInstall := fs.Bool("no-install", false, "clone the registry but skip skill installation")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "usage: forja init [--registry <url>] [--no-install]")
		return 2
	}

	homeDir, cfg, err := loadEnv()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if *registryURL != "" {
		cfg.Registry.URL = *registryURL
	}

	if _, err := os.Stat(filepath.Join(homeDir, "config.yaml")); os.IsNotExist(err) {
		if err := config.Save(homeDir, cfg); err != nil {
			fmt.Fprintf(os.Stderr, "write config: %v\n", err)
			return 1
		}
		fmt.Fprintf(os.Stdout, "wrote %s\n", filepath.Join(homeDir, "config.yaml"))
	}

	repoPath := cfg.RegistryPath(homeDir)
	cloned, err := registry.Ensure(ctx, cfg.Registry.URL, repoPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "registry setup failed: %v\n", err)
		return 1
	}
	if cloned {
		fmt.Fprintf(os.Stdout, "cloned registry to %s\n", repoPath)
	} else {
		fmt.Fprintln(os.Stdout, "registry up to date")
	}

	if *noInstall {
		return 0
	}

	store, err := openStore(homeDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open db: %v\n", err)
		return 1
	}
	defer store.Close()

	claudeDir, err := cfg.ResolveClaudeDir()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	installer := skills.NewInstaller(claudeDir, store, slog.Default())

	installedIDs, err := installer.InstalledIDs(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	reg, err := registry.Scan(repoPath, installedIDs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "scan registry: %v\n", err)
		return 1
	}

	counts, err := installer.InstallAll(ctx, reg, cfg.Registry.URL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "install failed: %v\n", err)
		return 1
	}
	fmt.Fprintf(os.Stdout, "installed %d skills, skipped %d, failed %d\n",
		counts.Installed, counts.Skipped, counts.Failed)
	if counts.Failed > 0 {
		return 1
	}
	return 0
}
