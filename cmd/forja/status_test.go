package main

import (
	"context"
	"testing"
)

func TestHealthURL(t *testing.T) {
	if got := healthURL(3030); got != "http://127.0.0.1:3030/healthz" {
		t.Fatalf("healthURL(3030) = %q", got)
	}
}

func TestStatusCommand_MonitorDown(t *testing.T) {
	setupHome(t)
	if code := runStatusCommand(context.Background(), nil); code != 1 {
		t.Fatalf("exit = %d, want 1 when nothing listens", code)
	}
}

func TestStatusCommand_Usage(t *testing.T) {
	setupHome(t)
	if code := runStatusCommand(context.Background(), []string{"extra"}); code != 2 {
		t.Fatalf("exit = %d, want 2 for extra args", code)
	}
}
