// Package executor runs recommended actions against the desktop, gated
// by the action policy and user confirmation.
package executor

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/screenpilot/screenpilot/domain"
	"github.com/screenpilot/screenpilot/internal/input"
	"github.com/screenpilot/screenpilot/policy"
)

// Confirmer asks the user whether a single action may run.
type Confirmer interface {
	Confirm(action domain.ActionSpec) bool
}

// StdinConfirmer prompts on the terminal and expects y/yes to proceed.
type StdinConfirmer struct {
	In  io.Reader
	Out io.Writer
}

func (c *StdinConfirmer) Confirm(action domain.ActionSpec) bool {
	fmt.Fprintf(c.Out, "Execute %s? [y/N] ", describeAction(action))
	scanner := bufio.NewScanner(c.In)
	if !scanner.Scan() {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(scanner.Text()))
	return answer == "y" || answer == "yes"
}

func describeAction(a domain.ActionSpec) string {
	switch a.Type {
	case domain.ActionTypeClick:
		return fmt.Sprintf("click at (%d, %d)", a.X, a.Y)
	case domain.ActionTypeTypeText:
		return fmt.Sprintf("type %q", a.Text)
	case domain.ActionTypeKeyPress:
		return fmt.Sprintf("press %s", a.Key)
	case domain.ActionTypeWait:
		return fmt.Sprintf("wait %dms", a.WaitMs)
	default:
		return string(a.Type)
	}
}

// Executor applies a recommendation's actions in order. Every input
// action produces exactly one result; a failed or skipped action never
// stops the ones after it.
type Executor struct {
	synth       input.Synthesizer
	engine      *policy.Engine
	confirmer   Confirmer
	autoExecute bool
	delay       time.Duration
	sleep       func(time.Duration)
}

func New(synth input.Synthesizer, engine *policy.Engine, confirmer Confirmer, autoExecute bool, delay time.Duration) *Executor {
	return &Executor{
		synth:       synth,
		engine:      engine,
		confirmer:   confirmer,
		autoExecute: autoExecute,
		delay:       delay,
		sleep:       time.Sleep,
	}
}

// Execute runs the given actions. The returned slice always has one
// result per action, in the same order.
func (e *Executor) Execute(ctx context.Context, actions []domain.ActionSpec) []domain.ActionResult {
	results := make([]domain.ActionResult, 0, len(actions))
	for i, action := range actions {
		result := e.executeOne(ctx, action)
		results = append(results, result)
		// Pace between actions; nothing follows the last one.
		if e.delay > 0 && result.Status == domain.ActionStatusExecuted && i < len(actions)-1 {
			e.sleep(e.delay)
		}
	}
	return results
}

func (e *Executor) executeOne(ctx context.Context, action domain.ActionSpec) domain.ActionResult {
	result := domain.ActionResult{Spec: action}

	decision, err := e.engine.Evaluate(ctx, action, e.autoExecute)
	if err != nil {
		result.Status = domain.ActionStatusFailed
		result.Error = fmt.Sprintf("policy evaluation failed: %v", err)
		return result
	}

	switch decision {
	case policy.DecisionBlock:
		log.Printf("WARN: action blocked by policy: %s", describeAction(action))
		result.Status = domain.ActionStatusSkippedUnconfirmed
		result.Error = "blocked by policy"
		return result
	case policy.DecisionRequireConfirmation:
		if !e.confirmer.Confirm(action) {
			result.Status = domain.ActionStatusSkippedUnconfirmed
			return result
		}
	default:
		if !e.autoExecute && !e.confirmer.Confirm(action) {
			result.Status = domain.ActionStatusSkippedUnconfirmed
			return result
		}
	}

	if err := e.synth.Apply(ctx, action); err != nil {
		log.Printf("ERROR: action failed: %s: %v", describeAction(action), err)
		result.Status = domain.ActionStatusFailed
		result.Error = err.Error()
		return result
	}

	result.Status = domain.ActionStatusExecuted
	result.ExecutedAt = time.Now().UTC()
	return result
}
