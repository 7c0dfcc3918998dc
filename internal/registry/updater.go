package registry

import (
	"context"
	"log/slog"
	"sync"
	"time"

	cronlib "github.com/robfig/cron/v3"
)

// cronParser parses standard 5-field cron expressions (minute, hour,
// dom, month, dow).
var cronParser = cronlib.NewParser(
	cronlib.Minute | cronlib.Hour | cronlib.Dom | cronlib.Month | cronlib.Dow,
)

// NextRunTime returns the next time after the given one that the cron
// expression fires.
func NextRunTime(cronExpr string, after time.Time) (time.Time, error) {
	sched, err := cronParser.Parse(cronExpr)
	if err != nil {
		return time.Time{}, err
	}
	return sched.Next(after), nil
}

// UpdaterConfig holds the dependencies for the auto-update scheduler.
type UpdaterConfig struct {
	URL      string
	RepoPath string
	CronExpr string        // e.g. "0 6 * * *"; empty disables auto-update
	Logger   *slog.Logger
	Interval time.Duration // tick interval; defaults to 1 minute
}

// Updater periodically pulls the catalog checkout when its cron
// schedule is due.
type Updater struct {
	cfg     UpdaterConfig
	logger  *slog.Logger
	nextRun time.Time

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewUpdater creates an Updater. A bad cron expression surfaces here,
// before the loop starts.
func NewUpdater(cfg UpdaterConfig) (*Updater, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 1 * time.Minute
	}

	u := &Updater{cfg: cfg, logger: logger}
	if cfg.CronExpr != "" {
		next, err := NextRunTime(cfg.CronExpr, time.Now())
		if err != nil {
			return nil, err
		}
		u.nextRun = next
	}
	return u, nil
}

// Start begins the update loop in a background goroutine. It is a
// no-op when no cron expression is configured.
func (u *Updater) Start(ctx context.Context) {
	if u.cfg.CronExpr == "" {
		return
	}
	ctx, u.cancel = context.WithCancel(ctx)
	u.wg.Add(1)
	go u.loop(ctx)
	u.logger.Info("registry auto-update started", "cron", u.cfg.CronExpr, "next_run", u.nextRun)
}

// Stop cancels the loop and waits for it to exit.
func (u *Updater) Stop() {
	if u.cancel != nil {
		u.cancel()
	}
	u.wg.Wait()
}

func (u *Updater) loop(ctx context.Context) {
	defer u.wg.Done()

	ticker := time.NewTicker(u.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			u.tick(ctx, now)
		}
	}
}

func (u *Updater) tick(ctx context.Context, now time.Time) {
	if now.Before(u.nextRun) {
		return
	}

	if _, err := Ensure(ctx, u.cfg.URL, u.cfg.RepoPath); err != nil {
		u.logger.Error("registry auto-update failed", "error", err)
	} else {
		u.logger.Info("registry updated", "path", u.cfg.RepoPath)
	}

	next, err := NextRunTime(u.cfg.CronExpr, now)
	if err != nil {
		u.logger.Error("registry auto-update: bad cron expression", "cron", u.cfg.CronExpr, "error", err)
		return
	}
	u.nextRun = next
}
