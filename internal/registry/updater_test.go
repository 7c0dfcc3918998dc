package registry

import (
	"context"
	"testing"
	"time"
)

func TestNextRunTime(t *testing.T) {
	after := time.Date(2026, 3, 1, 5, 30, 0, 0, time.UTC)
	next, err := NextRunTime("0 6 * * *", after)
	if err != nil {
		t.Fatalf("NextRunTime() error = %v", err)
	}
	want := time.Date(2026, 3, 1, 6, 0, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Fatalf("next = %v, want %v", next, want)
	}
}

func TestNextRunTime_BadExpr(t *testing.T) {
	if _, err := NextRunTime("not a cron", time.Now()); err == nil {
		t.Fatal("NextRunTime() error = nil, want parse error")
	}
}

func TestNewUpdater_RejectsBadCron(t *testing.T) {
	if _, err := NewUpdater(UpdaterConfig{CronExpr: "* * bogus"}); err == nil {
		t.Fatal("NewUpdater() error = nil, want parse error")
	}
}

func TestNewUpdater_EmptyCronDisables(t *testing.T) {
	u, err := NewUpdater(UpdaterConfig{})
	if err != nil {
		t.Fatalf("NewUpdater() error = %v", err)
	}
	// Start with no schedule must not spin up a loop; Stop must not hang.
	u.Start(context.Background())
	u.Stop()
}
