// Package doctor runs environment diagnostics for the forja CLI.
package doctor

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"time"

	"github.com/dmend3z/forja/internal/config"
	"github.com/dmend3z/forja/internal/persistence"
	"github.com/dmend3z/forja/internal/registry"
	"github.com/dmend3z/forja/internal/skills"
)

type CheckResult struct {
	Name    string `json:"name"`
	Status  string `json:"status"` // "PASS", "FAIL", "WARN", "SKIP"
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

type Diagnosis struct {
	Timestamp time.Time     `json:"timestamp"`
	System    SystemInfo    `json:"system"`
	Results   []CheckResult `json:"results"`
}

type SystemInfo struct {
	OS      string `json:"os"`
	Arch    string `json:"arch"`
	Go      string `json:"go_version"`
	Version string `json:"version"`
}

// Run executes all diagnostic checks.
func Run(ctx context.Context, cfg *config.Config, homeDir, version string) Diagnosis {
	d := Diagnosis{
		Timestamp: time.Now().UTC(),
		System: SystemInfo{
			OS:      runtime.GOOS,
			Arch:    runtime.GOARCH,
			Go:      runtime.Version(),
			Version: version,
		},
	}

	checks := []func(context.Context, *config.Config, string) CheckResult{
		checkConfig,
		checkPermissions,
		checkDatabase,
		checkRegistry,
		checkSymlinks,
		checkExternalTools,
		checkMonitor,
	}

	for _, check := range checks {
		d.Results = append(d.Results, check(ctx, cfg, homeDir))
	}

	return d
}

func checkConfig(_ context.Context, cfg *config.Config, homeDir string) CheckResult {
	if cfg == nil {
		return CheckResult{Name: "Config", Status: "FAIL", Message: "Configuration not loaded"}
	}
	path := filepath.Join(homeDir, "config.yaml")
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return CheckResult{
			Name:    "Config",
			Status:  "WARN",
			Message: "No config.yaml, running on defaults",
			Detail:  "Run `forja init` to write one",
		}
	}
	return CheckResult{Name: "Config", Status: "PASS", Message: fmt.Sprintf("Loaded from %s", path)}
}

func checkPermissions(_ context.Context, _ *config.Config, homeDir string) CheckResult {
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		return CheckResult{Name: "Permissions", Status: "FAIL", Message: fmt.Sprintf("Cannot create home dir: %v", err)}
	}
	testFile := filepath.Join(homeDir, ".write_test")
	if err := os.WriteFile(testFile, []byte("test"), 0o600); err != nil {
		return CheckResult{Name: "Permissions", Status: "FAIL", Message: fmt.Sprintf("Home dir unwritable: %v", err)}
	}
	os.Remove(testFile)
	return CheckResult{Name: "Permissions", Status: "PASS", Message: "Home directory writable"}
}

func checkDatabase(ctx context.Context, _ *config.Config, homeDir string) CheckResult {
	store, err := persistence.Open(filepath.Join(homeDir, "forja.db"))
	if err != nil {
		return CheckResult{Name: "Database", Status: "FAIL", Message: fmt.Sprintf("Open failed: %v", err)}
	}
	defer store.Close()

	version, err := store.SchemaVersion(ctx)
	if err != nil {
		return CheckResult{Name: "Database", Status: "FAIL", Message: fmt.Sprintf("Schema query failed: %v", err)}
	}
	return CheckResult{Name: "Database", Status: "PASS", Message: fmt.Sprintf("Schema version %d", version)}
}

func checkRegistry(_ context.Context, cfg *config.Config, homeDir string) CheckResult {
	if cfg == nil {
		return CheckResult{Name: "Registry", Status: "SKIP", Message: "Config missing"}
	}
	repoPath := cfg.RegistryPath(homeDir)
	if _, err := os.Stat(repoPath); os.IsNotExist(err) {
		return CheckResult{
			Name:    "Registry",
			Status:  "WARN",
			Message: "Registry not cloned",
			Detail:  "Run `forja init` to clone " + cfg.Registry.URL,
		}
	}
	reg, err := registry.Scan(repoPath, nil)
	if err != nil {
		return CheckResult{Name: "Registry", Status: "FAIL", Message: fmt.Sprintf("Scan failed: %v", err)}
	}
	return CheckResult{
		Name:    "Registry",
		Status:  "PASS",
		Message: fmt.Sprintf("%d skills at %s", len(reg.Skills), repoPath),
	}
}

func checkSymlinks(_ context.Context, cfg *config.Config, _ string) CheckResult {
	if cfg == nil {
		return CheckResult{Name: "Symlinks", Status: "SKIP", Message: "Config missing"}
	}
	claudeDir, err := cfg.ResolveClaudeDir()
	if err != nil {
		return CheckResult{Name: "Symlinks", Status: "FAIL", Message: fmt.Sprintf("Resolve claude dir: %v", err)}
	}
	// Verify only walks symlinks, no store access.
	healthy, broken, err := skills.NewInstaller(claudeDir, nil, nil).Verify()
	if err != nil {
		return CheckResult{Name: "Symlinks", Status: "FAIL", Message: fmt.Sprintf("Verify failed: %v", err)}
	}
	if len(broken) > 0 {
		return CheckResult{
			Name:    "Symlinks",
			Status:  "WARN",
			Message: fmt.Sprintf("%d broken of %d links", len(broken), len(healthy)+len(broken)),
			Detail:  fmt.Sprintf("%v", broken),
		}
	}
	return CheckResult{Name: "Symlinks", Status: "PASS", Message: fmt.Sprintf("%d links healthy", len(healthy))}
}

func checkExternalTools(_ context.Context, _ *config.Config, _ string) CheckResult {
	var details []string
	status := "PASS"

	if _, err := exec.LookPath("git"); err != nil {
		details = append(details, "git: missing (required for registry updates)")
		status = "FAIL"
	} else {
		details = append(details, "git: ok")
	}

	if _, err := exec.LookPath("claude"); err != nil {
		details = append(details, "claude: missing (required for task runs)")
		status = "WARN"
	} else {
		details = append(details, "claude: ok")
	}

	return CheckResult{
		Name:    "External Tools",
		Status:  status,
		Message: fmt.Sprintf("Checked %d tools", len(details)),
		Detail:  fmt.Sprintf("%v", details),
	}
}

func checkMonitor(ctx context.Context, cfg *config.Config, _ string) CheckResult {
	if cfg == nil {
		return CheckResult{Name: "Monitor", Status: "SKIP", Message: "Config missing"}
	}
	url := fmt.Sprintf("http://127.0.0.1:%d/healthz", cfg.Monitor.Port)

	reqCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		return CheckResult{Name: "Monitor", Status: "FAIL", Message: fmt.Sprintf("Request: %v", err)}
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return CheckResult{
			Name:    "Monitor",
			Status:  "SKIP",
			Message: fmt.Sprintf("Not running on port %d", cfg.Monitor.Port),
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return CheckResult{Name: "Monitor", Status: "FAIL", Message: fmt.Sprintf("Unhealthy: status %d", resp.StatusCode)}
	}
	return CheckResult{Name: "Monitor", Status: "PASS", Message: fmt.Sprintf("Healthy on port %d", cfg.Monitor.Port)}
}
