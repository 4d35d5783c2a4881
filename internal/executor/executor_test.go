package executor

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/screenpilot/screenpilot/domain"
	"github.com/screenpilot/screenpilot/policy"
)

type stubSynth struct {
	applied []domain.ActionSpec
	failAt  int
}

func (s *stubSynth) Apply(_ context.Context, action domain.ActionSpec) error {
	s.applied = append(s.applied, action)
	if s.failAt > 0 && len(s.applied) == s.failAt {
		return fmt.Errorf("synthetic failure")
	}
	return nil
}

type stubConfirmer struct {
	answer bool
	asked  int
}

func (c *stubConfirmer) Confirm(domain.ActionSpec) bool {
	c.asked++
	return c.answer
}

func newTestExecutor(t *testing.T, synth *stubSynth, confirmer Confirmer, autoExecute bool) *Executor {
	t.Helper()
	engine, err := policy.NewEngine(context.Background(), policy.DefaultPolicy)
	if err != nil {
		t.Fatalf("failed to build policy engine: %v", err)
	}
	e := New(synth, engine, confirmer, autoExecute, 0)
	e.sleep = func(time.Duration) {}
	return e
}

func TestExecuteFailureDoesNotStopBatch(t *testing.T) {
	synth := &stubSynth{failAt: 2}
	e := newTestExecutor(t, synth, &stubConfirmer{answer: true}, true)

	actions := []domain.ActionSpec{
		{Type: domain.ActionTypeClick, X: 10, Y: 20},
		{Type: domain.ActionTypeClick, X: 30, Y: 40},
		{Type: domain.ActionTypeWait, WaitMs: 50},
	}
	results := e.Execute(context.Background(), actions)

	if len(results) != len(actions) {
		t.Fatalf("expected %d results, got %d", len(actions), len(results))
	}
	for i, r := range results {
		if r.Spec.Type != actions[i].Type {
			t.Errorf("result %d out of order: %+v", i, r.Spec)
		}
	}
	if results[0].Status != domain.ActionStatusExecuted {
		t.Errorf("first action: got %s", results[0].Status)
	}
	if results[1].Status != domain.ActionStatusFailed || results[1].Error == "" {
		t.Errorf("second action: got %s %q", results[1].Status, results[1].Error)
	}
	if results[2].Status != domain.ActionStatusExecuted {
		t.Errorf("third action must still run, got %s", results[2].Status)
	}
	if results[0].ExecutedAt.IsZero() || !results[1].ExecutedAt.IsZero() {
		t.Errorf("executed_at set incorrectly: %+v", results)
	}
}

func TestExecuteDeclinedConfirmation(t *testing.T) {
	synth := &stubSynth{}
	confirmer := &stubConfirmer{answer: false}
	e := newTestExecutor(t, synth, confirmer, false)

	results := e.Execute(context.Background(), []domain.ActionSpec{
		{Type: domain.ActionTypeClick, X: 1, Y: 1},
		{Type: domain.ActionTypeKeyPress, Key: "Tab"},
	})

	for i, r := range results {
		if r.Status != domain.ActionStatusSkippedUnconfirmed {
			t.Errorf("result %d: got %s, want skipped_unconfirmed", i, r.Status)
		}
	}
	if len(synth.applied) != 0 {
		t.Fatalf("declined actions must not reach the synthesizer: %+v", synth.applied)
	}
	if confirmer.asked != 2 {
		t.Fatalf("expected 2 prompts, got %d", confirmer.asked)
	}
}

func TestExecuteAutoExecuteStillConfirmsTyping(t *testing.T) {
	synth := &stubSynth{}
	confirmer := &stubConfirmer{answer: false}
	e := newTestExecutor(t, synth, confirmer, true)

	results := e.Execute(context.Background(), []domain.ActionSpec{
		{Type: domain.ActionTypeClick, X: 5, Y: 5},
		{Type: domain.ActionTypeTypeText, X: 5, Y: 5, Text: "rm -rf"},
	})

	if results[0].Status != domain.ActionStatusExecuted {
		t.Errorf("allowed click under auto-execute: got %s", results[0].Status)
	}
	if results[1].Status != domain.ActionStatusSkippedUnconfirmed {
		t.Errorf("typing must require confirmation: got %s", results[1].Status)
	}
	if confirmer.asked != 1 {
		t.Errorf("expected 1 prompt, got %d", confirmer.asked)
	}
	if len(synth.applied) != 1 {
		t.Errorf("expected only the click applied, got %+v", synth.applied)
	}
}

func TestExecuteBlockedActionSkipsPrompt(t *testing.T) {
	synth := &stubSynth{}
	confirmer := &stubConfirmer{answer: true}
	e := newTestExecutor(t, synth, confirmer, false)

	results := e.Execute(context.Background(), []domain.ActionSpec{
		{Type: domain.ActionTypeClick, X: -1, Y: 10},
	})

	if results[0].Status != domain.ActionStatusSkippedUnconfirmed {
		t.Fatalf("got %s", results[0].Status)
	}
	if results[0].Error != "blocked by policy" {
		t.Fatalf("got %q", results[0].Error)
	}
	if confirmer.asked != 0 || len(synth.applied) != 0 {
		t.Fatalf("blocked action must not prompt or execute")
	}
}

func TestExecuteDelayOnlyBetweenActions(t *testing.T) {
	synth := &stubSynth{}
	engine, err := policy.NewEngine(context.Background(), policy.DefaultPolicy)
	if err != nil {
		t.Fatalf("failed to build policy engine: %v", err)
	}
	e := New(synth, engine, &stubConfirmer{answer: true}, true, 100*time.Millisecond)
	var sleeps int
	e.sleep = func(time.Duration) { sleeps++ }

	e.Execute(context.Background(), []domain.ActionSpec{
		{Type: domain.ActionTypeClick, X: 1, Y: 1},
		{Type: domain.ActionTypeClick, X: 2, Y: 2},
		{Type: domain.ActionTypeClick, X: 3, Y: 3},
	})
	if sleeps != 2 {
		t.Fatalf("expected 2 pacing sleeps for 3 actions, got %d", sleeps)
	}

	sleeps = 0
	e.Execute(context.Background(), []domain.ActionSpec{
		{Type: domain.ActionTypeClick, X: 1, Y: 1},
	})
	if sleeps != 0 {
		t.Fatalf("a single action needs no pacing, got %d sleeps", sleeps)
	}
}

func TestStdinConfirmer(t *testing.T) {
	var out strings.Builder
	c := &StdinConfirmer{In: strings.NewReader("y\n"), Out: &out}
	if !c.Confirm(domain.ActionSpec{Type: domain.ActionTypeClick, X: 1, Y: 2}) {
		t.Fatalf("y must confirm")
	}
	if !strings.Contains(out.String(), "click at (1, 2)") {
		t.Errorf("prompt missing description: %q", out.String())
	}

	c = &StdinConfirmer{In: strings.NewReader("\n"), Out: &out}
	if c.Confirm(domain.ActionSpec{Type: domain.ActionTypeKeyPress, Key: "Return"}) {
		t.Fatalf("empty answer must decline")
	}
}
