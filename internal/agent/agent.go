// Package agent orchestrates the capture, extract, infer, act, persist
// pipeline. One Orchestrator runs one cycle at a time.
package agent

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/screenpilot/screenpilot/domain"
	"github.com/screenpilot/screenpilot/internal/adapter/capture"
	"github.com/screenpilot/screenpilot/internal/adapter/extract"
	"github.com/screenpilot/screenpilot/internal/adapter/llm"
	"github.com/screenpilot/screenpilot/store"
)

// ActionExecutor runs the recommended actions. One result per action, in
// order.
type ActionExecutor interface {
	Execute(ctx context.Context, actions []domain.ActionSpec) []domain.ActionResult
}

// Orchestrator wires the pipeline stages together. The zero value is not
// usable; construct with New.
type Orchestrator struct {
	capturer   capture.Capturer
	extractor  extract.Extractor
	client     llm.Client
	executor   ActionExecutor
	store      store.Store
	historyLen int
	now        func() time.Time
	newID      func() string
}

func New(capturer capture.Capturer, extractor extract.Extractor, client llm.Client, executor ActionExecutor, st store.Store, historyLen int) *Orchestrator {
	return &Orchestrator{
		capturer:   capturer,
		extractor:  extractor,
		client:     client,
		executor:   executor,
		store:      st,
		historyLen: historyLen,
		now:        func() time.Time { return time.Now().UTC() },
		newID:      newCycleID,
	}
}

func newCycleID() string {
	return "cyc_" + uuid.New().String()[:8]
}

// RunCycle runs one full analysis cycle and appends the resulting record
// to the store. Stage failures degrade the cycle (a failed capture fails
// it, later failures leave it partial) but are not returned as errors;
// the only error RunCycle returns is a persistence failure, and in that
// case the returned cycle was not stored.
func (o *Orchestrator) RunCycle(ctx context.Context) (*domain.Cycle, error) {
	cycle := &domain.Cycle{
		CycleID:   o.newID(),
		StartedAt: o.now(),
	}
	degraded := false

	screenshotPath, err := o.capturer.Capture(ctx)
	if err != nil {
		stageErr := domain.NewStageError(domain.StageCapture, err)
		log.Printf("ERROR: %s: %v", cycle.CycleID, stageErr)
		cycle.Status = domain.CycleStatusFailed
		cycle.Error = stageErr.Error()
		cycle.CompletedAt = o.now()
		return cycle, o.persist(ctx, cycle)
	}
	cycle.ScreenshotPath = screenshotPath

	scene, err := o.extractor.Extract(ctx, screenshotPath)
	if err != nil {
		stageErr := domain.NewStageError(domain.StageExtract, err)
		log.Printf("WARN: %s: %v", cycle.CycleID, stageErr)
		cycle.Error = stageErr.Error()
		degraded = true
	}
	cycle.Scene = scene

	rec, err := o.client.Recommend(ctx, scene, screenshotPath, o.history(ctx))
	if err != nil {
		stageErr := domain.NewStageError(domain.StageInfer, err)
		log.Printf("WARN: %s: %v", cycle.CycleID, stageErr)
		cycle.Error = joinErrors(cycle.Error, stageErr.Error())
		degraded = true
	}
	cycle.Recommendation = rec

	if rec != nil && len(rec.Actions) > 0 {
		cycle.ActionResults = o.executor.Execute(ctx, rec.Actions)
		// A declined confirmation is a normal outcome; only a failed
		// action degrades the cycle.
		for _, r := range cycle.ActionResults {
			if r.Status == domain.ActionStatusFailed {
				degraded = true
				break
			}
		}
	}

	cycle.Status = domain.CycleStatusSuccess
	if degraded {
		cycle.Status = domain.CycleStatusPartial
	}
	cycle.CompletedAt = o.now()
	return cycle, o.persist(ctx, cycle)
}

func (o *Orchestrator) persist(ctx context.Context, cycle *domain.Cycle) error {
	if err := o.store.Append(ctx, cycle); err != nil {
		return fmt.Errorf("failed to persist cycle %s: %w", cycle.CycleID, err)
	}
	log.Printf("cycle %s completed: status=%s actions=%d took=%s",
		cycle.CycleID, cycle.Status, len(cycle.ActionResults), cycle.ProcessingTime().Round(time.Millisecond))
	return nil
}

// history returns one-line summaries of the most recent cycles, oldest
// first, for prompt context. History is best effort; a read failure just
// means an empty context.
func (o *Orchestrator) history(ctx context.Context) []string {
	if o.historyLen <= 0 {
		return nil
	}
	cycles, err := o.store.List(ctx, domain.CycleFilter{SortDesc: true})
	if err != nil {
		log.Printf("WARN: failed to load history: %v", err)
		return nil
	}
	if len(cycles) > o.historyLen {
		cycles = cycles[:o.historyLen]
	}

	lines := make([]string, 0, len(cycles))
	for i := len(cycles) - 1; i >= 0; i-- {
		c := cycles[i]
		lines = append(lines, fmt.Sprintf("cycle %s (%s): %s", c.CycleID, c.Status, summarizeCycle(&c)))
	}
	return lines
}

func summarizeCycle(c *domain.Cycle) string {
	var text string
	switch {
	case c.Recommendation != nil && c.Recommendation.Narrative != "":
		text = c.Recommendation.Narrative
	case c.Scene != nil:
		text = c.Scene.Summary
	default:
		text = c.Error
	}
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		text = text[:i]
	}
	const maxLen = 200
	if len(text) > maxLen {
		text = text[:maxLen] + "..."
	}
	return text
}

func joinErrors(a, b string) string {
	if a == "" {
		return b
	}
	return a + "; " + b
}
