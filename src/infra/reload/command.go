package reload

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"
)

// CommandReloader triggers the host reload by running a shell command.
type CommandReloader struct {
	mu      sync.RWMutex
	command string
	timeout time.Duration
	dir     string
}

// NewCommandReloader creates a reloader running command through /bin/sh with the given timeout.
// dir is exported to the command as PLUGINS_DIR.
func NewCommandReloader(command string, timeout time.Duration, dir string) *CommandReloader {
	return &CommandReloader{command: command, timeout: timeout, dir: dir}
}

// Update swaps the command settings. A reload already running keeps the old ones.
func (r *CommandReloader) Update(command string, timeout time.Duration, dir string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.command, r.timeout, r.dir = command, timeout, dir
}

// Reload runs the configured command and waits for it to finish.
func (r *CommandReloader) Reload(ctx context.Context) error {
	r.mu.RLock()
	command, timeout, dir := r.command, r.timeout, r.dir
	r.mu.RUnlock()

	if strings.TrimSpace(command) == "" {
		slog.Warn("No reload command configured, skipping reload")
		return nil
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	slog.Info("Reloading server...", "command", command)
	start := time.Now()

	// Use shell to properly handle quoted strings and complex commands
	cmd := exec.CommandContext(ctx, "/bin/sh", "-c", command)
	cmd.Env = append(os.Environ(), "PLUGINS_DIR="+dir)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	cmd.WaitDelay = time.Second

	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("reload command timed out after %s", timeout)
		}
		return fmt.Errorf("reload command failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	slog.Info("Reload command finished", "duration", time.Since(start).Round(time.Millisecond).String())
	return nil
}
