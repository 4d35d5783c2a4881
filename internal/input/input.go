// Package input synthesizes mouse and keyboard events through the
// platform automation tools (xdotool on linux, cliclick on darwin).
package input

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strconv"
	"time"

	"github.com/screenpilot/screenpilot/domain"
)

// Synthesizer applies a single action to the desktop.
type Synthesizer interface {
	Apply(ctx context.Context, action domain.ActionSpec) error
}

// CommandSynthesizer shells out to the platform automation tool. The run
// hook is replaceable in tests.
type CommandSynthesizer struct {
	goos string
	run  func(ctx context.Context, name string, args ...string) error
}

func NewCommandSynthesizer() *CommandSynthesizer {
	return &CommandSynthesizer{
		goos: runtime.GOOS,
		run:  runCommand,
	}
}

func runCommand(ctx context.Context, name string, args ...string) error {
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s failed: %w (%s)", name, err, string(out))
	}
	return nil
}

func (s *CommandSynthesizer) Apply(ctx context.Context, action domain.ActionSpec) error {
	switch action.Type {
	case domain.ActionTypeClick:
		x, y := actionPoint(action)
		return s.click(ctx, x, y)
	case domain.ActionTypeTypeText:
		x, y := actionPoint(action)
		if x != 0 || y != 0 {
			if err := s.click(ctx, x, y); err != nil {
				return err
			}
		}
		return s.typeText(ctx, action.Text)
	case domain.ActionTypeKeyPress:
		return s.keyPress(ctx, action.Key)
	case domain.ActionTypeWait:
		select {
		case <-time.After(time.Duration(action.WaitMs) * time.Millisecond):
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	case domain.ActionTypeNone:
		return nil
	default:
		return fmt.Errorf("unsupported action type %q", action.Type)
	}
}

// actionPoint prefers the target element's center over raw coordinates.
func actionPoint(action domain.ActionSpec) (int, int) {
	if action.Target != nil {
		return action.Target.Center()
	}
	return action.X, action.Y
}

func (s *CommandSynthesizer) click(ctx context.Context, x, y int) error {
	xs, ys := strconv.Itoa(x), strconv.Itoa(y)
	if s.goos == "darwin" {
		return s.run(ctx, "cliclick", "c:"+xs+","+ys)
	}
	return s.run(ctx, "xdotool", "mousemove", xs, ys, "click", "1")
}

func (s *CommandSynthesizer) typeText(ctx context.Context, text string) error {
	if text == "" {
		return nil
	}
	if s.goos == "darwin" {
		return s.run(ctx, "cliclick", "t:"+text)
	}
	return s.run(ctx, "xdotool", "type", "--delay", "50", text)
}

func (s *CommandSynthesizer) keyPress(ctx context.Context, key string) error {
	if key == "" {
		return fmt.Errorf("key_press requires a key")
	}
	if s.goos == "darwin" {
		return s.run(ctx, "cliclick", "kp:"+macKeyName(key))
	}
	return s.run(ctx, "xdotool", "key", key)
}

// macKeyName maps the X11 key names the model is prompted with onto
// cliclick key names.
func macKeyName(key string) string {
	switch key {
	case "Return":
		return "return"
	case "BackSpace":
		return "delete"
	case "Delete":
		return "fwd-delete"
	case "Escape":
		return "esc"
	case "Tab":
		return "tab"
	case "space":
		return "space"
	default:
		return key
	}
}
