package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/dmend3z/forja/internal/workspace"
)

// runWorkspaceCommand lists the planning records kept under a project's
// .forja/ directory.
func runWorkspaceCommand(_ context.Context, args []string) int {
	fs := flag.NewFlagSet("forja workspace", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	dir := fs.String("dir", ".", "project directory")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	kind := "all"
	if fs.NArg() > 0 {
		kind = strings.ToLower(strings.TrimSpace(fs.Arg(0)))
	}

	w := workspace.Open(*dir)
	switch kind {
	case "specs":
		return printSpecs(w)
	case "tracks":
		return printTracks(w)
	case "decisions":
		return printDecisions(w)
	case "plans":
		return printPlans(w)
	case "all":
		for _, print := range []func(*workspace.Workspace) int{
			printSpecs, printTracks, printDecisions, printPlans,
		} {
			if code := print(w); code != 0 {
				return code
			}
		}
		return 0
	default:
		fmt.Fprintln(os.Stderr, "usage: forja workspace [specs|tracks|decisions|plans] [-dir <path>]")
		return 2
	}
}

func printSpecs(w *workspace.Workspace) int {
	specs, err := w.Specs()
	if err != nil {
		fmt.Fprintf(os.Stderr, "specs: %v\n", err)
		return 1
	}
	fmt.Fprintf(os.Stdout, "specs (%d):\n", len(specs))
	for _, spec := range specs {
		fmt.Fprintf(os.Stdout, "  %-12s %-10s %s\n", spec.ID, spec.Status, spec.Title)
	}
	return 0
}

func printTracks(w *workspace.Workspace) int {
	tracks, err := w.Tracks()
	if err != nil {
		fmt.Fprintf(os.Stderr, "tracks: %v\n", err)
		return 1
	}
	fmt.Fprintf(os.Stdout, "tracks (%d):\n", len(tracks))
	for _, track := range tracks {
		fmt.Fprintf(os.Stdout, "  %-12s %-12s %s\n", track.ID, track.Status, track.Title)
	}
	return 0
}

func printDecisions(w *workspace.Workspace) int {
	decisions, err := w.Decisions()
	if err != nil {
		fmt.Fprintf(os.Stderr, "decisions: %v\n", err)
		return 1
	}
	fmt.Fprintf(os.Stdout, "decisions (%d):\n", len(decisions))
	for _, decision := range decisions {
		fmt.Fprintf(os.Stdout, "  %-12s %-12s %s\n", decision.ID, decision.Status, decision.Title)
	}
	return 0
}

func printPlans(w *workspace.Workspace) int {
	plans, err := w.Plans()
	if err != nil {
		fmt.Fprintf(os.Stderr, "plans: %v\n", err)
		return 1
	}
	fmt.Fprintf(os.Stdout, "plans (%d):\n", len(plans))
	for _, plan := range plans {
		fmt.Fprintf(os.Stdout, "  %-12s %-10s %s\n", plan.ID, plan.Status, plan.Task)
	}
	return 0
}
