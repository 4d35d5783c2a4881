package domain

import (
	"strings"
	"time"
)

// Cycle is the unit of record: one full capture, extraction, inference,
// action and persistence iteration. A cycle is mutated only while in
// flight; once appended to the store it is immutable.
type Cycle struct {
	CycleID        string          `json:"cycle_id"`
	StartedAt      time.Time       `json:"started_at"`
	CompletedAt    time.Time       `json:"completed_at"`
	ScreenshotPath string          `json:"screenshot_path,omitempty"`
	Scene          *Scene          `json:"scene,omitempty"`
	Recommendation *Recommendation `json:"recommendation,omitempty"`
	ActionResults  []ActionResult  `json:"action_results,omitempty"`
	Status         CycleStatus     `json:"status"`
	Error          string          `json:"error,omitempty"`
}

// ProcessingTime returns the wall-clock duration of the cycle.
func (c *Cycle) ProcessingTime() time.Duration {
	return c.CompletedAt.Sub(c.StartedAt)
}

// Clone returns a deep copy of the cycle. Stores keep clones in their
// caches so a caller mutating its cycle after Append cannot alter stored
// state.
func (c *Cycle) Clone() *Cycle {
	out := *c
	if c.Scene != nil {
		scene := *c.Scene
		scene.Spans = append([]TextSpan(nil), c.Scene.Spans...)
		scene.Elements = append([]UIElement(nil), c.Scene.Elements...)
		scene.Stats.TitleCandidates = append([]TitleCandidate(nil), c.Scene.Stats.TitleCandidates...)
		scene.Stats.TopFragments = append([]TextFragment(nil), c.Scene.Stats.TopFragments...)
		if c.Scene.Stats.ElementCounts != nil {
			scene.Stats.ElementCounts = make(map[string]int, len(c.Scene.Stats.ElementCounts))
			for k, v := range c.Scene.Stats.ElementCounts {
				scene.Stats.ElementCounts[k] = v
			}
		}
		out.Scene = &scene
	}
	if c.Recommendation != nil {
		rec := *c.Recommendation
		rec.Actions = append([]ActionSpec(nil), c.Recommendation.Actions...)
		out.Recommendation = &rec
	}
	out.ActionResults = append([]ActionResult(nil), c.ActionResults...)
	return &out
}

// Recommendation is the structured model output for one scene.
type Recommendation struct {
	Narrative string       `json:"narrative"`
	Actions   []ActionSpec `json:"actions,omitempty"`
}

// ActionSpec is one proposed UI interaction. Type selects which of the
// remaining fields are meaningful: Click and TypeText use X/Y, TypeText
// uses Text, KeyPress uses Key, Wait uses WaitMs.
type ActionSpec struct {
	Type   ActionType   `json:"type"`
	Target *BoundingBox `json:"target,omitempty"`
	X      int          `json:"x,omitempty"`
	Y      int          `json:"y,omitempty"`
	Text   string       `json:"text,omitempty"`
	Key    string       `json:"key,omitempty"`
	WaitMs int          `json:"wait_ms,omitempty"`
}

// ActionResult is the outcome of executing one ActionSpec.
type ActionResult struct {
	Spec       ActionSpec   `json:"spec"`
	Status     ActionStatus `json:"status"`
	Error      string       `json:"error,omitempty"`
	ExecutedAt time.Time    `json:"executed_at,omitzero"`
}

// CycleFilter selects cycles in store queries. Zero values mean "no
// constraint".
type CycleFilter struct {
	Status   CycleStatus
	Since    time.Time
	Until    time.Time
	Query    string
	SortDesc bool
}

// Matches reports whether the cycle satisfies the filter. The text query
// is a case-insensitive substring match over the narrative, the error
// message and the extracted span text.
func (f CycleFilter) Matches(c *Cycle) bool {
	if f.Status != "" && c.Status != f.Status {
		return false
	}
	if !f.Since.IsZero() && c.StartedAt.Before(f.Since) {
		return false
	}
	if !f.Until.IsZero() && c.StartedAt.After(f.Until) {
		return false
	}
	if f.Query != "" && !cycleContains(c, f.Query) {
		return false
	}
	return true
}

func cycleContains(c *Cycle, query string) bool {
	q := strings.ToLower(query)
	if strings.Contains(strings.ToLower(c.Error), q) {
		return true
	}
	if c.Recommendation != nil && strings.Contains(strings.ToLower(c.Recommendation.Narrative), q) {
		return true
	}
	if c.Scene != nil {
		for _, span := range c.Scene.Spans {
			if strings.Contains(strings.ToLower(span.Text), q) {
				return true
			}
		}
	}
	return false
}

// Stats summarizes the full cycle history.
type Stats struct {
	TotalCycles              int     `json:"total_cycles"`
	SuccessCount             int     `json:"success_count"`
	PartialCount             int     `json:"partial_count"`
	FailedCount              int     `json:"failed_count"`
	AverageProcessingSeconds float64 `json:"average_processing_seconds"`
}

// ComputeStats derives the summary statistics over a set of cycles.
func ComputeStats(cycles []Cycle) *Stats {
	stats := &Stats{TotalCycles: len(cycles)}
	var totalSeconds float64
	var timed int
	for i := range cycles {
		switch cycles[i].Status {
		case CycleStatusSuccess:
			stats.SuccessCount++
		case CycleStatusPartial:
			stats.PartialCount++
		case CycleStatusFailed:
			stats.FailedCount++
		}
		if d := cycles[i].ProcessingTime(); d > 0 {
			totalSeconds += d.Seconds()
			timed++
		}
	}
	if timed > 0 {
		stats.AverageProcessingSeconds = totalSeconds / float64(timed)
	}
	return stats
}
