package registry

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

func git(t *testing.T, dir string, args ...string) {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("git %v: %v: %s", args, err, strings.TrimSpace(string(out)))
	}
}

func initCatalogRepo(t *testing.T) string {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
	repo := t.TempDir()
	writeSkill(t, repo, "code/go/helper", "Helper", "helps out")
	git(t, repo, "init", "-b", "main")
	git(t, repo, "config", "user.email", "test@example.com")
	git(t, repo, "config", "user.name", "Test")
	git(t, repo, "add", ".")
	git(t, repo, "commit", "-m", "catalog")
	return repo
}

func TestEnsure_ClonesThenPulls(t *testing.T) {
	repo := initCatalogRepo(t)
	ctx := context.Background()
	target := filepath.Join(t.TempDir(), "registry")

	cloned, err := Ensure(ctx, repo, target)
	if err != nil {
		t.Fatalf("Ensure() error = %v", err)
	}
	if !cloned {
		t.Fatal("Ensure() cloned = false on first run, want true")
	}
	if _, err := os.Stat(filepath.Join(target, "skills", "code", "go", "helper")); err != nil {
		t.Fatalf("cloned catalog missing skill dir: %v", err)
	}

	cloned, err = Ensure(ctx, repo, target)
	if err != nil {
		t.Fatalf("second Ensure() error = %v", err)
	}
	if cloned {
		t.Fatal("Ensure() cloned = true on second run, want pull")
	}
}

func TestPull_MissingRepoFails(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
	if _, err := Pull(context.Background(), filepath.Join(t.TempDir(), "absent")); err == nil {
		t.Fatal("Pull() error = nil, want failure for missing repo")
	}
}
