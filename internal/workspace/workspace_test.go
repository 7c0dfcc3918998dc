package workspace

import (
	"os"
	"path/filepath"
	"testing"
)

func writeWorkspaceFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, ".forja", rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", rel, err)
	}
}

func TestSplitFrontmatter(t *testing.T) {
	yamlPart, body, err := splitFrontmatter("---\nid: s-1\ntitle: Auth\n---\n\n# Notes\nbody here\n")
	if err != nil {
		t.Fatalf("splitFrontmatter() error = %v", err)
	}
	if yamlPart != "\nid: s-1\ntitle: Auth" {
		t.Fatalf("yaml = %q", yamlPart)
	}
	if body != "# Notes\nbody here\n" {
		t.Fatalf("body = %q", body)
	}
}

func TestSplitFrontmatter_Missing(t *testing.T) {
	if _, _, err := splitFrontmatter("# Just markdown\n"); err == nil {
		t.Fatal("splitFrontmatter() error = nil, want missing fence")
	}
	if _, _, err := splitFrontmatter("---\nid: x\nno closing fence"); err == nil {
		t.Fatal("splitFrontmatter() error = nil, want unterminated fence")
	}
}

func TestSpecs_ListAndDefaults(t *testing.T) {
	root := t.TempDir()
	writeWorkspaceFile(t, root, "specs/s-2.md", `---
id: s-2
title: Billing
description: charge money
status: ready
---
Details.
`)
	writeWorkspaceFile(t, root, "specs/s-1.md", `---
id: s-1
title: Auth
description: log users in
tags: [security]
requirements:
  - passwords hashed
---
Body text.
`)
	// Broken record is skipped, not fatal.
	writeWorkspaceFile(t, root, "specs/broken.md", "no frontmatter here\n")

	w := Open(root)
	specs, err := w.Specs()
	if err != nil {
		t.Fatalf("Specs() error = %v", err)
	}
	if len(specs) != 2 {
		t.Fatalf("spec count = %d, want 2", len(specs))
	}
	if specs[0].ID != "s-1" || specs[1].ID != "s-2" {
		t.Fatalf("order = %s, %s; want s-1, s-2", specs[0].ID, specs[1].ID)
	}
	if specs[0].Status != SpecDraft {
		t.Fatalf("default status = %s, want draft", specs[0].Status)
	}
	if specs[1].Status != SpecReady {
		t.Fatalf("explicit status = %s, want ready", specs[1].Status)
	}
	if len(specs[0].Requirements) != 1 || specs[0].Requirements[0] != "passwords hashed" {
		t.Fatalf("requirements = %v", specs[0].Requirements)
	}
	if specs[0].Body != "Body text.\n" {
		t.Fatalf("body = %q", specs[0].Body)
	}
}

func TestTracksAndDecisions(t *testing.T) {
	root := t.TempDir()
	writeWorkspaceFile(t, root, "tracks/t-1.md", `---
id: t-1
title: Payments
description: payment features
status: in-progress
owner: ann
created: "2026-02-01"
---
Track body.
`)
	writeWorkspaceFile(t, root, "decisions/d-1.md", `---
id: d-1
title: Use SQLite
status: accepted
date: "2026-02-02"
related_specs: [s-1]
---
We keep state local.
`)

	w := Open(root)
	tracks, err := w.Tracks()
	if err != nil {
		t.Fatalf("Tracks() error = %v", err)
	}
	if len(tracks) != 1 || tracks[0].Status != TrackInProgress || tracks[0].Owner != "ann" {
		t.Fatalf("tracks = %+v", tracks)
	}

	decisions, err := w.Decisions()
	if err != nil {
		t.Fatalf("Decisions() error = %v", err)
	}
	if len(decisions) != 1 || decisions[0].Status != DecisionAccepted {
		t.Fatalf("decisions = %+v", decisions)
	}
	if len(decisions[0].RelatedSpecs) != 1 || decisions[0].RelatedSpecs[0] != "s-1" {
		t.Fatalf("related specs = %v", decisions[0].RelatedSpecs)
	}
}

func TestPlans_SaveLoadRoundTrip(t *testing.T) {
	root := t.TempDir()
	w := Open(root)

	plan := Plan{
		ID:      "p-1",
		Created: "2026-03-01",
		Status:  PlanPending,
		Task:    "add rate limiting",
		Profile: "balanced",
		Agents:  []PlanAgent{{SkillID: "code/general/feature", Role: "coder"}},
		Phases: []PlanPhase{{
			Name:         "implement",
			AgentRole:    "coder",
			Instructions: "add the limiter middleware",
		}},
	}
	if err := w.SavePlan(plan); err != nil {
		t.Fatalf("SavePlan() error = %v", err)
	}

	plans, err := w.Plans()
	if err != nil {
		t.Fatalf("Plans() error = %v", err)
	}
	if len(plans) != 1 {
		t.Fatalf("plan count = %d, want 1", len(plans))
	}
	got := plans[0]
	if got.Task != plan.Task || len(got.Phases) != 1 || got.Phases[0].Name != "implement" {
		t.Fatalf("plan = %+v", got)
	}
}

func TestLoadPlan_DefaultsAndValidation(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "p.yaml")
	if err := os.WriteFile(path, []byte("id: p-9\ntask: do a thing\ncreated: \"2026-03-01\"\n"), 0o644); err != nil {
		t.Fatalf("write plan: %v", err)
	}
	plan, err := LoadPlan(path)
	if err != nil {
		t.Fatalf("LoadPlan() error = %v", err)
	}
	if plan.Status != PlanPending {
		t.Fatalf("default status = %s, want pending", plan.Status)
	}

	noID := filepath.Join(dir, "noid.yaml")
	if err := os.WriteFile(noID, []byte("task: nameless\n"), 0o644); err != nil {
		t.Fatalf("write plan: %v", err)
	}
	if _, err := LoadPlan(noID); err == nil {
		t.Fatal("LoadPlan() error = nil, want missing id")
	}
}

func TestEmptyWorkspace(t *testing.T) {
	w := Open(t.TempDir())
	for name, list := range map[string]func() (int, error){
		"specs":     func() (int, error) { s, err := w.Specs(); return len(s), err },
		"tracks":    func() (int, error) { s, err := w.Tracks(); return len(s), err },
		"decisions": func() (int, error) { s, err := w.Decisions(); return len(s), err },
		"plans":     func() (int, error) { s, err := w.Plans(); return len(s), err },
	} {
		n, err := list()
		if err != nil || n != 0 {
			t.Fatalf("%s = %d, %v; want empty, nil", name, n, err)
		}
	}
}
