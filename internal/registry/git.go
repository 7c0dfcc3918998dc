package registry

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Clone fetches the catalog repository into target. Remote URLs are
// cloned shallow; local paths skip --depth since not all git versions
// support it for file transports.
func Clone(ctx context.Context, url, target string) error {
	if _, err := exec.LookPath("git"); err != nil {
		return fmt.Errorf("git not found in PATH")
	}

	args := []string{"clone"}
	if looksRemote(url) {
		args = append(args, "--depth", "1")
	}
	args = append(args, url, target)

	cmd := exec.CommandContext(ctx, "git", args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("git clone failed: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}

// Pull fast-forwards an existing catalog checkout and returns git's
// output for display.
func Pull(ctx context.Context, repoPath string) (string, error) {
	if _, err := exec.LookPath("git"); err != nil {
		return "", fmt.Errorf("git not found in PATH")
	}

	cmd := exec.CommandContext(ctx, "git", "-C", repoPath, "pull", "--ff-only")
	out, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("git pull failed: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return strings.TrimSpace(string(out)), nil
}

// Ensure clones the catalog if repoPath does not exist yet, otherwise
// pulls. It returns true when a fresh clone happened.
func Ensure(ctx context.Context, url, repoPath string) (bool, error) {
	if _, err := os.Stat(repoPath); os.IsNotExist(err) {
		if err := Clone(ctx, url, repoPath); err != nil {
			return false, err
		}
		return true, nil
	}
	if _, err := Pull(ctx, repoPath); err != nil {
		return false, err
	}
	return false, nil
}

func looksRemote(url string) bool {
	url = strings.TrimSpace(strings.ToLower(url))
	return strings.HasPrefix(url, "https://") || strings.HasPrefix(url, "http://") ||
		strings.HasPrefix(url, "ssh://") || strings.HasPrefix(url, "git@")
}
