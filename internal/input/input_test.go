package input

import (
	"context"
	"testing"
	"time"

	"github.com/screenpilot/screenpilot/domain"
)

type recordedCommand struct {
	name string
	args []string
}

func newRecordingSynth(goos string) (*CommandSynthesizer, *[]recordedCommand) {
	var commands []recordedCommand
	s := &CommandSynthesizer{
		goos: goos,
		run: func(_ context.Context, name string, args ...string) error {
			commands = append(commands, recordedCommand{name: name, args: args})
			return nil
		},
	}
	return s, &commands
}

func TestApplyClickLinux(t *testing.T) {
	s, commands := newRecordingSynth("linux")
	err := s.Apply(context.Background(), domain.ActionSpec{Type: domain.ActionTypeClick, X: 100, Y: 200})
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	got := (*commands)[0]
	if got.name != "xdotool" {
		t.Fatalf("got %s", got.name)
	}
	want := []string{"mousemove", "100", "200", "click", "1"}
	if len(got.args) != len(want) {
		t.Fatalf("args = %v", got.args)
	}
	for i := range want {
		if got.args[i] != want[i] {
			t.Errorf("arg %d = %q, want %q", i, got.args[i], want[i])
		}
	}
}

func TestApplyClickUsesTargetCenter(t *testing.T) {
	s, commands := newRecordingSynth("darwin")
	action := domain.ActionSpec{
		Type:   domain.ActionTypeClick,
		Target: &domain.BoundingBox{X: 10, Y: 20, Width: 30, Height: 40},
		X:      999, Y: 999,
	}
	if err := s.Apply(context.Background(), action); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	got := (*commands)[0]
	if got.name != "cliclick" || got.args[0] != "c:25,40" {
		t.Fatalf("target center must win over raw coordinates: %s %v", got.name, got.args)
	}
}

func TestApplyTypeTextClicksFirst(t *testing.T) {
	s, commands := newRecordingSynth("linux")
	action := domain.ActionSpec{Type: domain.ActionTypeTypeText, X: 50, Y: 60, Text: "hello"}
	if err := s.Apply(context.Background(), action); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if len(*commands) != 2 {
		t.Fatalf("expected focus click then type, got %v", *commands)
	}
	if (*commands)[1].args[0] != "type" {
		t.Errorf("second command = %v", (*commands)[1])
	}
}

func TestApplyKeyPressDarwinMapping(t *testing.T) {
	s, commands := newRecordingSynth("darwin")
	if err := s.Apply(context.Background(), domain.ActionSpec{Type: domain.ActionTypeKeyPress, Key: "Return"}); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if (*commands)[0].args[0] != "kp:return" {
		t.Errorf("got %v", (*commands)[0].args)
	}
}

func TestApplyWaitHonorsContext(t *testing.T) {
	s, _ := newRecordingSynth("linux")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := s.Apply(ctx, domain.ActionSpec{Type: domain.ActionTypeWait, WaitMs: 60000})
	if err == nil {
		t.Fatalf("cancelled wait must return an error")
	}
}

func TestApplyNoneAndEmptyText(t *testing.T) {
	s, commands := newRecordingSynth("linux")
	if err := s.Apply(context.Background(), domain.ActionSpec{Type: domain.ActionTypeNone}); err != nil {
		t.Fatalf("none must be a no-op: %v", err)
	}
	if err := s.Apply(context.Background(), domain.ActionSpec{Type: domain.ActionTypeTypeText}); err != nil {
		t.Fatalf("empty text must be a no-op: %v", err)
	}
	if len(*commands) != 0 {
		t.Errorf("no commands expected, got %v", *commands)
	}
	if err := s.Apply(context.Background(), domain.ActionSpec{Type: "teleport"}); err == nil {
		t.Errorf("unknown type must error")
	}
}

func TestApplyShortWait(t *testing.T) {
	s, _ := newRecordingSynth("linux")
	start := time.Now()
	if err := s.Apply(context.Background(), domain.ActionSpec{Type: domain.ActionTypeWait, WaitMs: 10}); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if time.Since(start) < 10*time.Millisecond {
		t.Errorf("wait returned too early")
	}
}
