package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/mattn/go-isatty"

	"github.com/dmend3z/forja/internal/bus"
	"github.com/dmend3z/forja/internal/config"
	"github.com/dmend3z/forja/internal/dashboard"
	"github.com/dmend3z/forja/internal/monitor"
	forjaotel "github.com/dmend3z/forja/internal/otel"
	"github.com/dmend3z/forja/internal/registry"
	"github.com/dmend3z/forja/internal/telemetry"
	"github.com/dmend3z/forja/internal/tui"
)

// runMonitorCommand serves the live dashboard: the fsnotify watcher feeds
// the bus, the HTTP server fans events out over SSE and websocket, and
// -tui attaches the terminal view through the same SSE stream a browser
// would use.
func runMonitorCommand(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("forja monitor", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	port := fs.Int("port", 0, "dashboard port (default from config)")
	withTUI := fs.Bool("tui", false, "attach the terminal dashboard")
	agentsDirFlag := fs.String("agents-dir", "", "agents state dir to watch (default from config)")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	homeDir, cfg, err := loadEnv()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if *port == 0 {
		*port = cfg.Monitor.Port
	}

	interactive := *withTUI && isatty.IsTerminal(os.Stdout.Fd())
	if *withTUI && !interactive {
		fmt.Fprintln(os.Stderr, "-tui requires a terminal; serving headless")
	}

	// Quiet logs (file-only) when the TUI owns the terminal.
	logger, closer, err := telemetry.NewLogger(homeDir, cfg.LogLevel, interactive)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init: %v\n", err)
		return 1
	}
	defer closer.Close()
	slog.SetDefault(logger)

	otelProvider, err := forjaotel.Init(ctx, cfg.OTel)
	if err != nil {
		logger.Error("otel init failed", "error", err)
		return 1
	}
	defer otelProvider.Shutdown(context.Background())
	metrics, err := forjaotel.NewMetrics(otelProvider.Meter)
	if err != nil {
		logger.Error("metrics init failed", "error", err)
		return 1
	}

	agentsDir := *agentsDirFlag
	if agentsDir == "" {
		agentsDir, err = cfg.AgentsDir()
		if err != nil {
			logger.Error("resolve agents dir failed", "error", err)
			return 1
		}
	}

	eventBus := bus.New()
	watcher := monitor.NewWatcher(agentsDir, eventBus, logger)
	server := monitor.New(monitor.Config{
		Bus:               eventBus,
		Logger:            logger,
		Snapshot:          watcher.Snapshot,
		HeartbeatInterval: time.Duration(cfg.Monitor.HeartbeatSeconds) * time.Second,
		Metrics:           metrics,
	})

	startUpdater := func(c *config.Config) *registry.Updater {
		if c.Registry.AutoUpdateCron == "" {
			return nil
		}
		updater, err := registry.NewUpdater(registry.UpdaterConfig{
			URL:      c.Registry.URL,
			RepoPath: c.RegistryPath(homeDir),
			CronExpr: c.Registry.AutoUpdateCron,
			Logger:   logger,
		})
		if err != nil {
			logger.Error("registry auto-update disabled", "error", err)
			return nil
		}
		updater.Start(ctx)
		return updater
	}
	// reloadMu serializes the hot-reload goroutine's updater swap against
	// the deferred shutdown below.
	var reloadMu sync.Mutex
	updater := startUpdater(cfg)
	defer func() {
		reloadMu.Lock()
		defer reloadMu.Unlock()
		if updater != nil {
			updater.Stop()
		}
	}()

	confWatcher := config.NewWatcher(homeDir, logger)
	if err := confWatcher.Start(ctx); err != nil {
		logger.Warn("config watcher unavailable", "error", err)
	} else {
		go func() {
			for ev := range confWatcher.Events() {
				if filepath.Base(ev.Path) != "config.yaml" {
					continue
				}
				newCfg, err := config.Load(homeDir)
				if err != nil {
					logger.Error("config reload failed", "error", err)
					continue
				}
				reloadMu.Lock()
				if ctx.Err() == nil &&
					(newCfg.Registry.AutoUpdateCron != cfg.Registry.AutoUpdateCron ||
						newCfg.Registry.URL != cfg.Registry.URL) {
					if updater != nil {
						updater.Stop()
					}
					updater = startUpdater(newCfg)
				}
				cfg = newCfg
				reloadMu.Unlock()
				logger.Info("config hot-reloaded")
			}
		}()
	}

	runErr := make(chan error, 2)
	go func() { runErr <- watcher.Run(ctx) }()
	go func() { runErr <- server.Serve(ctx, *port) }()
	logger.Info("monitor started", "port", *port, "agents_dir", agentsDir)

	if interactive {
		session := dashboard.NewSession(dashboard.SessionConfig{
			URL:    fmt.Sprintf("http://127.0.0.1:%d/api/events", *port),
			Logger: logger,
		})
		go session.Run(ctx)

		if err := tui.Run(ctx, tui.SessionProvider(session)); err != nil && ctx.Err() == nil {
			logger.Error("tui exited with error", "error", err)
			return 1
		}
		return 0
	}

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		return 0
	case err := <-runErr:
		if err != nil && ctx.Err() == nil {
			logger.Error("monitor failed", "error", err)
			return 1
		}
		return 0
	}
}
