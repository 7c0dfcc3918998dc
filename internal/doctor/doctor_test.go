package doctor

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/dmend3z/forja/internal/config"
)

func testConfig(t *testing.T) (*config.Config, string) {
	t.Helper()
	home := t.TempDir()
	cfg := config.Default()
	cfg.ClaudeDir = filepath.Join(home, "claude")
	// Pick a port nothing listens on so the monitor check skips.
	cfg.Monitor.Port = 59997
	return cfg, home
}

func findResult(t *testing.T, d Diagnosis, name string) CheckResult {
	t.Helper()
	for _, res := range d.Results {
		if res.Name == name {
			return res
		}
	}
	t.Fatalf("no %q result in %+v", name, d.Results)
	return CheckResult{}
}

func TestRun_CollectsAllChecks(t *testing.T) {
	cfg, home := testConfig(t)
	d := Run(context.Background(), cfg, home, "v-test")

	if d.System.Version != "v-test" {
		t.Fatalf("version = %q, want v-test", d.System.Version)
	}
	for _, name := range []string{"Config", "Permissions", "Database", "Registry", "Symlinks", "External Tools", "Monitor"} {
		res := findResult(t, d, name)
		switch res.Status {
		case "PASS", "FAIL", "WARN", "SKIP":
		default:
			t.Fatalf("%s status = %q", name, res.Status)
		}
	}
}

func TestCheckConfig_WarnsWithoutFile(t *testing.T) {
	cfg, home := testConfig(t)
	if res := checkConfig(context.Background(), cfg, home); res.Status != "WARN" {
		t.Fatalf("status = %s, want WARN without config.yaml", res.Status)
	}

	if err := config.Save(home, cfg); err != nil {
		t.Fatalf("save config: %v", err)
	}
	if res := checkConfig(context.Background(), cfg, home); res.Status != "PASS" {
		t.Fatalf("status = %s, want PASS with config.yaml", res.Status)
	}
}

func TestCheckDatabase_OpensStore(t *testing.T) {
	cfg, home := testConfig(t)
	if res := checkDatabase(context.Background(), cfg, home); res.Status != "PASS" {
		t.Fatalf("status = %s (%s), want PASS", res.Status, res.Message)
	}
}

func TestCheckRegistry_WarnsWhenMissing(t *testing.T) {
	cfg, home := testConfig(t)
	if res := checkRegistry(context.Background(), cfg, home); res.Status != "WARN" {
		t.Fatalf("status = %s, want WARN for absent checkout", res.Status)
	}

	if err := os.MkdirAll(filepath.Join(cfg.RegistryPath(home), "skills"), 0o755); err != nil {
		t.Fatalf("mkdir registry: %v", err)
	}
	res := checkRegistry(context.Background(), cfg, home)
	if res.Status != "PASS" {
		t.Fatalf("status = %s (%s), want PASS for empty checkout", res.Status, res.Message)
	}
}

func TestCheckSymlinks_EmptyDirsHealthy(t *testing.T) {
	cfg, home := testConfig(t)
	if res := checkSymlinks(context.Background(), cfg, home); res.Status != "PASS" {
		t.Fatalf("status = %s (%s), want PASS", res.Status, res.Message)
	}
}

func TestCheckMonitor_SkipsWhenDown(t *testing.T) {
	cfg, home := testConfig(t)
	if res := checkMonitor(context.Background(), cfg, home); res.Status != "SKIP" {
		t.Fatalf("status = %s (%s), want SKIP with no listener", res.Status, res.Message)
	}
}
