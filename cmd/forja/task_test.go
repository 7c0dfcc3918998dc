package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/dmend3z/forja/internal/persistence"
	"github.com/dmend3z/forja/internal/spark"
)

func TestTaskCommand_RunWaitsForCompletion(t *testing.T) {
	home, _ := setupHome(t)
	sparkCommandOverride = "echo"
	t.Cleanup(func() { sparkCommandOverride = "" })
	ctx := context.Background()

	if code := runTaskCommand(ctx, []string{"run", "-project", "proj-a", "say hello"}); code != 0 {
		t.Fatalf("run exit = %d, want 0", code)
	}

	store, err := persistence.Open(filepath.Join(home, "forja.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()

	recs, err := store.ListRuns(ctx, "proj-a")
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("run count = %d, want 1", len(recs))
	}
	if recs[0].Status != spark.StatusStopped {
		t.Fatalf("status = %s, want stopped", recs[0].Status)
	}
}

func TestTaskCommand_FailedRunExitsNonZero(t *testing.T) {
	setupHome(t)
	sparkCommandOverride = "false"
	t.Cleanup(func() { sparkCommandOverride = "" })

	if code := runTaskCommand(context.Background(), []string{"run", "break things"}); code != 1 {
		t.Fatalf("run exit = %d, want 1 for failed command", code)
	}
}

func TestTaskCommand_ListEmpty(t *testing.T) {
	setupHome(t)
	if code := runTaskCommand(context.Background(), []string{"list"}); code != 0 {
		t.Fatalf("list exit = %d, want 0", code)
	}
}

func TestTaskCommand_Usage(t *testing.T) {
	setupHome(t)
	ctx := context.Background()

	if code := runTaskCommand(ctx, nil); code != 2 {
		t.Fatalf("no-args exit = %d, want 2", code)
	}
	if code := runTaskCommand(ctx, []string{"run"}); code != 2 {
		t.Fatalf("run-no-description exit = %d, want 2", code)
	}
	if code := runTaskCommand(ctx, []string{"show"}); code != 2 {
		t.Fatalf("show-no-id exit = %d, want 2", code)
	}
}
