package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by store lookups for unknown cycle IDs.
var ErrNotFound = errors.New("not found")

// Stage identifies a pipeline stage for error attribution.
type Stage string

const (
	StageCapture Stage = "capture"
	StageExtract Stage = "extract"
	StageInfer   Stage = "infer"
	StageAction  Stage = "action"
)

// StageError wraps a failure from one pipeline stage. Stage errors are
// always folded into the cycle record by the orchestrator; they never
// terminate the driving loop.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// NewStageError wraps err with its originating stage.
func NewStageError(stage Stage, err error) *StageError {
	return &StageError{Stage: stage, Err: err}
}
