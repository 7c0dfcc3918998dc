package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestTeamCommand_PresetRoundTrip(t *testing.T) {
	home, _ := setupHome(t)
	ctx := context.Background()

	if code := runTeamCommand(ctx, []string{"create", "-preset", "quick-fix", "-profile", "max", "ship"}); code != 0 {
		t.Fatalf("create exit = %d, want 0", code)
	}
	if _, err := os.Stat(filepath.Join(home, "teams", "ship.yaml")); err != nil {
		t.Fatalf("team file missing: %v", err)
	}

	if code := runTeamCommand(ctx, []string{"list"}); code != 0 {
		t.Fatalf("list exit = %d, want 0", code)
	}
	if code := runTeamCommand(ctx, []string{"info", "ship"}); code != 0 {
		t.Fatalf("info exit = %d, want 0", code)
	}

	if code := runTeamCommand(ctx, []string{"delete", "ship"}); code != 0 {
		t.Fatalf("delete exit = %d, want 0", code)
	}
	if code := runTeamCommand(ctx, []string{"info", "ship"}); code != 1 {
		t.Fatalf("info after delete exit = %d, want 1", code)
	}
}

func TestTeamCommand_ListsPresets(t *testing.T) {
	setupHome(t)
	if code := runTeamCommand(context.Background(), []string{"preset"}); code != 0 {
		t.Fatalf("preset exit = %d, want 0", code)
	}
}

func TestTeamCommand_BadProfile(t *testing.T) {
	setupHome(t)
	if code := runTeamCommand(context.Background(), []string{"create", "-profile", "turbo", "ship"}); code != 1 {
		t.Fatalf("exit = %d, want 1 for unknown profile", code)
	}
}

func TestTeamCommand_Usage(t *testing.T) {
	setupHome(t)
	ctx := context.Background()

	if code := runTeamCommand(ctx, nil); code != 2 {
		t.Fatalf("no-args exit = %d, want 2", code)
	}
	if code := runTeamCommand(ctx, []string{"explode"}); code != 2 {
		t.Fatalf("unknown-sub exit = %d, want 2", code)
	}
	if code := runTeamCommand(ctx, []string{"info"}); code != 2 {
		t.Fatalf("info-no-name exit = %d, want 2", code)
	}
}
