package main

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/dmend3z/forja/internal/config"
)

// Rewriting config.yaml while the monitor is serving must swap the
// auto-update scheduler without tripping over the shutdown path.
func TestMonitorCommand_ConfigReloadWhileRunning(t *testing.T) {
	home, cfg := setupHome(t)
	cfg.Registry.AutoUpdateCron = "0 6 * * *"
	if err := config.Save(home, cfg); err != nil {
		t.Fatalf("save config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	agentsDir := filepath.Join(home, "agents")
	done := make(chan int, 1)
	go func() {
		done <- runMonitorCommand(ctx, []string{"-port", "0", "-agents-dir", agentsDir})
	}()

	// Give the watchers a moment to come up before churning the config.
	time.Sleep(300 * time.Millisecond)

	for i := 0; i < 3; i++ {
		cfg.Registry.AutoUpdateCron = fmt.Sprintf("%d 6 * * *", i+1)
		if err := config.Save(home, cfg); err != nil {
			t.Fatalf("rewrite config: %v", err)
		}
		time.Sleep(100 * time.Millisecond)
	}

	cancel()
	select {
	case code := <-done:
		if code != 0 {
			t.Fatalf("monitor exit = %d, want 0", code)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("monitor did not shut down")
	}
}
