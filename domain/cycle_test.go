package domain

import (
	"testing"
	"time"
)

func TestCloneIsDeep(t *testing.T) {
	c := &Cycle{
		CycleID: "cyc_orig0001",
		Scene: &Scene{
			Spans: []TextSpan{{Text: "File", Confidence: 90}},
			Stats: SceneStats{ElementCounts: map[string]int{"button": 1}},
		},
		Recommendation: &Recommendation{
			Narrative: "Open the menu.",
			Actions:   []ActionSpec{{Type: ActionTypeClick, X: 1, Y: 2}},
		},
		ActionResults: []ActionResult{{Status: ActionStatusExecuted}},
	}

	clone := c.Clone()
	c.Scene.Spans[0].Text = "mutated"
	c.Scene.Stats.ElementCounts["button"] = 99
	c.Recommendation.Actions[0].X = 99
	c.ActionResults[0].Status = ActionStatusFailed

	if clone.Scene.Spans[0].Text != "File" {
		t.Errorf("span leaked through clone: %q", clone.Scene.Spans[0].Text)
	}
	if clone.Scene.Stats.ElementCounts["button"] != 1 {
		t.Errorf("element counts leaked through clone")
	}
	if clone.Recommendation.Actions[0].X != 1 {
		t.Errorf("action leaked through clone")
	}
	if clone.ActionResults[0].Status != ActionStatusExecuted {
		t.Errorf("action result leaked through clone")
	}
}

func TestCycleFilterMatches(t *testing.T) {
	started := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	c := &Cycle{
		CycleID:   "cyc_test0001",
		StartedAt: started,
		Status:    CycleStatusPartial,
		Error:     "extract: tesseract not found",
		Scene: &Scene{
			Spans: []TextSpan{{Text: "File Menu"}},
		},
		Recommendation: &Recommendation{Narrative: "Nothing to do."},
	}

	cases := []struct {
		name   string
		filter CycleFilter
		want   bool
	}{
		{"empty", CycleFilter{}, true},
		{"status match", CycleFilter{Status: CycleStatusPartial}, true},
		{"status mismatch", CycleFilter{Status: CycleStatusSuccess}, false},
		{"since inclusive", CycleFilter{Since: started}, true},
		{"since after", CycleFilter{Since: started.Add(time.Second)}, false},
		{"until before", CycleFilter{Until: started.Add(-time.Second)}, false},
		{"query narrative", CycleFilter{Query: "nothing"}, true},
		{"query span", CycleFilter{Query: "file menu"}, true},
		{"query error", CycleFilter{Query: "TESSERACT"}, true},
		{"query miss", CycleFilter{Query: "spreadsheet"}, false},
	}
	for _, tc := range cases {
		if got := tc.filter.Matches(c); got != tc.want {
			t.Errorf("%s: Matches = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestComputeStats(t *testing.T) {
	base := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	mk := func(status CycleStatus, seconds int) Cycle {
		return Cycle{
			StartedAt:   base,
			CompletedAt: base.Add(time.Duration(seconds) * time.Second),
			Status:      status,
		}
	}
	cycles := []Cycle{
		mk(CycleStatusSuccess, 1),
		mk(CycleStatusSuccess, 3),
		mk(CycleStatusPartial, 2),
		mk(CycleStatusFailed, 2),
	}

	stats := ComputeStats(cycles)
	if stats.TotalCycles != 4 || stats.SuccessCount != 2 || stats.PartialCount != 1 || stats.FailedCount != 1 {
		t.Fatalf("unexpected counts: %+v", stats)
	}
	if stats.AverageProcessingSeconds != 2 {
		t.Errorf("AverageProcessingSeconds = %v, want 2", stats.AverageProcessingSeconds)
	}
}
