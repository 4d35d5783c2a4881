// Package policy evaluates which proposed UI actions may run.
package policy

import (
	"context"
	"fmt"

	"github.com/open-policy-agent/opa/rego"

	"github.com/screenpilot/screenpilot/domain"
)

// Decisions returned by Evaluate.
const (
	DecisionAllow               = "allow"
	DecisionRequireConfirmation = "require_confirmation"
	DecisionBlock               = "block"
)

// Engine is the OPA policy engine gating action execution.
type Engine struct {
	query rego.PreparedEvalQuery
}

// NewEngine creates a policy engine from the given rego policy content.
func NewEngine(ctx context.Context, policyContent string) (*Engine, error) {
	r := rego.New(
		rego.Query("data.action_policy.decision"),
		rego.Module("action_policy.rego", policyContent),
	)

	query, err := r.PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare rego: %w", err)
	}

	return &Engine{query: query}, nil
}

// Evaluate checks one proposed action against the policy. Returns one of
// DecisionAllow, DecisionRequireConfirmation or DecisionBlock.
func (e *Engine) Evaluate(ctx context.Context, action domain.ActionSpec, autoExecute bool) (string, error) {
	input := map[string]interface{}{
		"action_type":  string(action.Type),
		"x":            action.X,
		"y":            action.Y,
		"key":          action.Key,
		"text_length":  len(action.Text),
		"wait_ms":      action.WaitMs,
		"auto_execute": autoExecute,
	}

	results, err := e.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return "", fmt.Errorf("failed to evaluate policy: %w", err)
	}

	if len(results) == 0 || len(results[0].Expressions) == 0 {
		return DecisionAllow, nil
	}
	if s, ok := results[0].Expressions[0].Value.(string); ok {
		return s, nil
	}
	return DecisionAllow, nil
}

// DefaultPolicy is the policy content used when none is configured.
// Typing into the screen and pressing keys are the riskier primitives, so
// they always require a confirmation even under auto-execute; everything
// else follows the auto-execute flag.
const DefaultPolicy = `
package action_policy

default decision = "allow"

decision = "require_confirmation" {
	input.action_type == "type_text"
	input.text_length > 0
}

decision = "require_confirmation" {
	input.action_type == "key_press"
	destructive := {"Return", "Delete", "BackSpace"}
	destructive[input.key]
}

# Clicks at the very edge of the screen tend to hit window controls.
decision = "block" {
	input.action_type == "click"
	input.x < 0
}

decision = "block" {
	input.action_type == "click"
	input.y < 0
}
`
