package skills

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/dmend3z/forja/internal/persistence"
	"github.com/dmend3z/forja/internal/registry"
)

func newTestInstaller(t *testing.T) (*Installer, string) {
	t.Helper()
	store, err := persistence.Open(filepath.Join(t.TempDir(), "forja.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	claudeDir := t.TempDir()
	return NewInstaller(claudeDir, store, nil), claudeDir
}

func makeSkill(t *testing.T, id, phase string, agentFiles, commandFiles []string) *registry.Skill {
	t.Helper()
	dir := t.TempDir()
	for _, f := range agentFiles {
		writeFile(t, filepath.Join(dir, "agents", f))
	}
	for _, f := range commandFiles {
		writeFile(t, filepath.Join(dir, "commands", f))
	}
	return &registry.Skill{ID: id, Name: filepath.Base(id), Phase: phase, Path: dir}
}

func writeFile(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte("# content\n"), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestInstall_CreatesNamespacedSymlinks(t *testing.T) {
	ctx := context.Background()
	in, claudeDir := newTestInstaller(t)
	skill := makeSkill(t, "code/rust/coder", registry.PhaseCode,
		[]string{"coder.md"}, []string{"fix.md"})

	created, err := in.Install(ctx, skill, "https://example.com/registry")
	if err != nil {
		t.Fatalf("Install() error = %v", err)
	}
	if len(created) != 2 {
		t.Fatalf("created = %v, want 2 links", created)
	}

	agentLink := filepath.Join(claudeDir, "agents", "forja--code--rust--coder--coder.md")
	info, err := os.Lstat(agentLink)
	if err != nil {
		t.Fatalf("agent link missing: %v", err)
	}
	if info.Mode()&os.ModeSymlink == 0 {
		t.Fatal("agent link is not a symlink")
	}
	if _, err := os.Stat(agentLink); err != nil {
		t.Fatalf("agent link target unreadable: %v", err)
	}

	if _, err := os.Lstat(filepath.Join(claudeDir, "commands", "forja--code--rust--coder--fix.md")); err != nil {
		t.Fatalf("command link missing: %v", err)
	}

	ids, err := in.InstalledIDs(ctx)
	if err != nil {
		t.Fatalf("InstalledIDs() error = %v", err)
	}
	if len(ids) != 1 || ids[0] != "code/rust/coder" {
		t.Fatalf("ids = %v, want [code/rust/coder]", ids)
	}
}

func TestInstall_TeamsPhaseSkipsCommands(t *testing.T) {
	ctx := context.Background()
	in, claudeDir := newTestInstaller(t)
	skill := makeSkill(t, "teams/presets/full-product", registry.PhaseTeams,
		[]string{"lead.md"}, []string{"launch.md"})

	created, err := in.Install(ctx, skill, "")
	if err != nil {
		t.Fatalf("Install() error = %v", err)
	}
	if len(created) != 1 {
		t.Fatalf("created = %v, want only the agent link", created)
	}
	if _, err := os.Lstat(filepath.Join(claudeDir, "commands", "forja--teams--presets--full-product--launch.md")); !os.IsNotExist(err) {
		t.Fatal("teams-phase command link created, want skipped")
	}
}

func TestInstall_ReinstallReplacesLinks(t *testing.T) {
	ctx := context.Background()
	in, _ := newTestInstaller(t)
	skill := makeSkill(t, "code/go/helper", registry.PhaseCode, []string{"helper.md"}, nil)

	if _, err := in.Install(ctx, skill, ""); err != nil {
		t.Fatalf("first Install() error = %v", err)
	}
	if _, err := in.Install(ctx, skill, ""); err != nil {
		t.Fatalf("reinstall error = %v", err)
	}
}

func TestUninstall_RemovesOnlyOwnLinks(t *testing.T) {
	ctx := context.Background()
	in, claudeDir := newTestInstaller(t)

	coder := makeSkill(t, "code/rust/coder", registry.PhaseCode, []string{"coder.md"}, nil)
	helper := makeSkill(t, "code/go/helper", registry.PhaseCode, []string{"helper.md"}, nil)
	if _, err := in.Install(ctx, coder, ""); err != nil {
		t.Fatalf("install coder: %v", err)
	}
	if _, err := in.Install(ctx, helper, ""); err != nil {
		t.Fatalf("install helper: %v", err)
	}

	// A user-owned file must survive uninstall untouched.
	userFile := filepath.Join(claudeDir, "agents", "my-agent.md")
	writeFile(t, userFile)

	removed, err := in.Uninstall(ctx, "code/rust/coder")
	if err != nil {
		t.Fatalf("Uninstall() error = %v", err)
	}
	if len(removed) != 1 {
		t.Fatalf("removed = %v, want 1 link", removed)
	}
	if _, err := os.Lstat(filepath.Join(claudeDir, "agents", "forja--code--go--helper--helper.md")); err != nil {
		t.Fatal("helper link removed by coder uninstall")
	}
	if _, err := os.Stat(userFile); err != nil {
		t.Fatal("user file removed by uninstall")
	}

	ids, err := in.InstalledIDs(ctx)
	if err != nil {
		t.Fatalf("InstalledIDs() error = %v", err)
	}
	if len(ids) != 1 || ids[0] != "code/go/helper" {
		t.Fatalf("ids = %v, want [code/go/helper]", ids)
	}
}

func TestInstallAll_SkipsInstalled(t *testing.T) {
	ctx := context.Background()
	in, _ := newTestInstaller(t)

	a := makeSkill(t, "code/go/a", registry.PhaseCode, []string{"a.md"}, nil)
	b := makeSkill(t, "code/go/b", registry.PhaseCode, []string{"b.md"}, nil)
	b.Installed = true

	reg := &registry.Registry{Skills: []registry.Skill{*a, *b}}
	counts, err := in.InstallAll(ctx, reg, "")
	if err != nil {
		t.Fatalf("InstallAll() error = %v", err)
	}
	if counts.Installed != 1 || counts.Skipped != 1 || counts.Failed != 0 {
		t.Fatalf("counts = %+v, want 1 installed 1 skipped", counts)
	}
}

func TestInstallPhases_FiltersByPhase(t *testing.T) {
	ctx := context.Background()
	in, _ := newTestInstaller(t)

	code := makeSkill(t, "code/go/a", registry.PhaseCode, []string{"a.md"}, nil)
	deploy := makeSkill(t, "deploy/ci/b", registry.PhaseDeploy, []string{"b.md"}, nil)

	reg := &registry.Registry{Skills: []registry.Skill{*code, *deploy}}
	counts, err := in.InstallPhases(ctx, reg, []string{registry.PhaseCode}, "")
	if err != nil {
		t.Fatalf("InstallPhases() error = %v", err)
	}
	if counts.Installed != 1 || counts.Skipped != 1 {
		t.Fatalf("counts = %+v, want only the code skill installed", counts)
	}
}

func TestVerify_ReportsBrokenLinks(t *testing.T) {
	ctx := context.Background()
	in, _ := newTestInstaller(t)
	skill := makeSkill(t, "code/go/a", registry.PhaseCode, []string{"a.md"}, nil)

	if _, err := in.Install(ctx, skill, ""); err != nil {
		t.Fatalf("Install() error = %v", err)
	}

	healthy, broken, err := in.Verify()
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if len(healthy) != 1 || len(broken) != 0 {
		t.Fatalf("healthy = %v broken = %v, want 1 healthy", healthy, broken)
	}

	// Break the link by deleting its target.
	if err := os.Remove(filepath.Join(skill.Path, "agents", "a.md")); err != nil {
		t.Fatalf("remove target: %v", err)
	}
	healthy, broken, err = in.Verify()
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if len(healthy) != 0 || len(broken) != 1 {
		t.Fatalf("healthy = %v broken = %v, want 1 broken", healthy, broken)
	}
}
