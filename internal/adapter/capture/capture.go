// Package capture provides the screen capture adapter.
package capture

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"time"
)

// Capturer produces one screenshot on demand and returns the path of the
// persisted image file.
type Capturer interface {
	Capture(ctx context.Context) (string, error)
}

// CommandCapturer shells out to the platform screenshot tool and writes
// PNG files into the configured directory.
type CommandCapturer struct {
	dir string
	now func() time.Time
}

// NewCommandCapturer creates a capturer writing into dir.
func NewCommandCapturer(dir string) *CommandCapturer {
	return &CommandCapturer{dir: dir, now: time.Now}
}

// Capture takes a full-screen screenshot.
func (c *CommandCapturer) Capture(ctx context.Context) (string, error) {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create screenshots dir: %w", err)
	}

	filename := fmt.Sprintf("screenshot_%s.png", c.now().Format("20060102_150405"))
	path := filepath.Join(c.dir, filename)

	name, args, err := captureCommand(path)
	if err != nil {
		return "", err
	}

	cmd := exec.CommandContext(ctx, name, args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return "", fmt.Errorf("%s failed: %w: %s", name, err, out)
	}

	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("screenshot was not written: %w", err)
	}
	if info.Size() == 0 {
		os.Remove(path)
		return "", fmt.Errorf("screenshot %s is empty", path)
	}
	return path, nil
}

// captureCommand picks the platform screenshot tool.
func captureCommand(path string) (string, []string, error) {
	if runtime.GOOS == "darwin" {
		return "screencapture", []string{"-x", path}, nil
	}
	if _, err := exec.LookPath("gnome-screenshot"); err == nil {
		return "gnome-screenshot", []string{"-f", path}, nil
	}
	if _, err := exec.LookPath("scrot"); err == nil {
		return "scrot", []string{path}, nil
	}
	return "", nil, fmt.Errorf("no screenshot tool found (need gnome-screenshot or scrot)")
}
