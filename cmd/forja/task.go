package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dmend3z/forja/internal/spark"
)

// sparkCommandOverride replaces the claude binary in tests.
var sparkCommandOverride string

func runTaskCommand(ctx context.Context, args []string) int {
	if len(args) == 0 || isHelpArg(args[0]) {
		fmt.Fprintln(os.Stderr, "usage: forja task <run|list|show> ...")
		return 2
	}

	homeDir, _, err := loadEnv()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	store, err := openStore(homeDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open db: %v\n", err)
		return 1
	}
	defer store.Close()

	sub := strings.ToLower(strings.TrimSpace(args[0]))
	switch sub {
	case "run":
		fs := flag.NewFlagSet("forja task run", flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		runType := fs.String("type", spark.TypeTask, "run type (task, quick_fix, plan)")
		project := fs.String("project", "default", "project id the run is recorded under")
		dir := fs.String("dir", ".", "project directory the run executes in")
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}
		description := strings.TrimSpace(strings.Join(fs.Args(), " "))
		if description == "" {
			fmt.Fprintln(os.Stderr, "usage: forja task run [-type <type>] [-project <id>] [-dir <path>] <description>")
			return 2
		}

		mgr := spark.NewManager(spark.Config{Store: store, Command: sparkCommandOverride})
		run, err := mgr.Start(ctx, *project, *runType, description, *dir)
		if err != nil {
			fmt.Fprintf(os.Stderr, "start failed: %v\n", err)
			return 1
		}
		fmt.Fprintf(os.Stdout, "started %s\n", run.ID)

		final, err := waitForRun(ctx, mgr, run.ID, *project)
		if err != nil {
			// Interrupted: kill the run before exiting.
			_ = mgr.Stop(run.ID)
			fmt.Fprintln(os.Stderr, "interrupted")
			return 1
		}
		if final.Output != "" {
			fmt.Fprintln(os.Stdout, strings.TrimRight(final.Output, "\n"))
		}
		if final.Status == spark.StatusFailed {
			fmt.Fprintf(os.Stderr, "run failed: %s\n", final.Error)
			return 1
		}
		return 0

	case "list":
		fs := flag.NewFlagSet("forja task list", flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		project := fs.String("project", "", "filter by project id")
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}

		mgr := spark.NewManager(spark.Config{Store: store, Command: sparkCommandOverride})
		runs, err := mgr.List(ctx, *project)
		if err != nil {
			fmt.Fprintf(os.Stderr, "list failed: %v\n", err)
			return 1
		}
		if len(runs) == 0 {
			fmt.Fprintln(os.Stdout, "no runs")
			return 0
		}
		for _, run := range runs {
			fmt.Fprintf(os.Stdout, "%s  %-9s %-9s %s\n",
				run.ID, run.Type, run.Status, run.Description)
		}
		return 0

	case "show":
		if len(args) != 2 {
			fmt.Fprintln(os.Stderr, "usage: forja task show <run-id>")
			return 2
		}
		rec, err := store.GetRun(ctx, args[1])
		if err != nil {
			fmt.Fprintf(os.Stderr, "show failed: %v\n", err)
			return 1
		}
		fmt.Fprintf(os.Stdout, "id: %s\nproject: %s\ntype: %s\nstatus: %s\ncreated: %s\n",
			rec.RunID, rec.ProjectID, rec.RunType, rec.Status,
			rec.CreatedAt.Format(time.RFC3339))
		if rec.FinishedAt != nil {
			fmt.Fprintf(os.Stdout, "finished: %s\n", rec.FinishedAt.Format(time.RFC3339))
		}
		if rec.Output != "" {
			fmt.Fprintf(os.Stdout, "output:\n%s\n", strings.TrimRight(rec.Output, "\n"))
		}
		if rec.Error != "" {
			fmt.Fprintf(os.Stdout, "error: %s\n", rec.Error)
		}
		return 0

	default:
		fmt.Fprintf(os.Stderr, "unknown task subcommand: %s\n", sub)
		return 2
	}
}

// waitForRun polls until the run reaches a terminal status or ctx ends.
func waitForRun(ctx context.Context, mgr *spark.Manager, runID, projectID string) (spark.Run, error) {
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return spark.Run{}, ctx.Err()
		case <-ticker.C:
			runs, err := mgr.List(ctx, projectID)
			if err != nil {
				return spark.Run{}, err
			}
			for _, run := range runs {
				if run.ID == runID && spark.IsTerminal(run.Status) {
					return run, nil
				}
			}
		}
	}
}
