package domain

import (
	"strings"
	"testing"
)

func span(text string, conf float64) TextSpan {
	return TextSpan{Text: text, Confidence: conf, Box: BoundingBox{X: 10, Y: 10, Width: 40, Height: 12}}
}

func TestComputeSceneStats(t *testing.T) {
	spans := []TextSpan{
		span("Document Editor", 92),
		span("Document Editor", 88),
		span("save", 60),
		span("save", 60),
		span("save", 60),
		span("x", 95),
	}
	elements := []UIElement{
		{Kind: UIElementKindButton, Label: "save"},
		{Kind: UIElementKindButton, Label: "x"},
		{Kind: UIElementKindWindow},
	}

	stats := ComputeSceneStats(spans, elements)

	if stats.TotalSpans != 6 {
		t.Errorf("TotalSpans = %d, want 6", stats.TotalSpans)
	}
	if stats.UniqueTexts != 3 {
		t.Errorf("UniqueTexts = %d, want 3", stats.UniqueTexts)
	}
	wantAvg := (92 + 88 + 60*3 + 95) / 6.0
	if stats.AverageConfidence != wantAvg {
		t.Errorf("AverageConfidence = %v, want %v", stats.AverageConfidence, wantAvg)
	}

	if len(stats.TitleCandidates) != 1 {
		t.Fatalf("TitleCandidates = %+v, want just the heading", stats.TitleCandidates)
	}
	title := stats.TitleCandidates[0]
	if title.Text != "Document Editor" || title.Count != 2 || title.AverageConfidence != 90 {
		t.Errorf("unexpected title candidate: %+v", title)
	}

	if len(stats.TopFragments) != 3 {
		t.Fatalf("TopFragments = %+v", stats.TopFragments)
	}
	if stats.TopFragments[0].Text != "save" || stats.TopFragments[0].Count != 3 {
		t.Errorf("most frequent fragment must sort first: %+v", stats.TopFragments[0])
	}

	if stats.ElementCounts["button"] != 2 || stats.ElementCounts["window"] != 1 {
		t.Errorf("unexpected element counts: %+v", stats.ElementCounts)
	}
}

func TestComputeSceneStatsEmpty(t *testing.T) {
	stats := ComputeSceneStats(nil, nil)
	if stats.TotalSpans != 0 || stats.UniqueTexts != 0 || stats.AverageConfidence != 0 {
		t.Errorf("zero scene must yield zero stats: %+v", stats)
	}
	if stats.ElementCounts != nil {
		t.Errorf("no elements means no counts map: %+v", stats.ElementCounts)
	}
}

func TestComputeSceneStatsKeepsTopFive(t *testing.T) {
	var spans []TextSpan
	for _, text := range []string{"alpha", "bravo", "charlie", "delta", "echo", "foxtrot", "golf"} {
		spans = append(spans, span(text, 50))
	}
	stats := ComputeSceneStats(spans, nil)
	if len(stats.TopFragments) != 5 {
		t.Fatalf("expected 5 fragments, got %d", len(stats.TopFragments))
	}
}

func TestLooksLikeTitle(t *testing.T) {
	cases := []struct {
		text string
		conf float64
		want bool
	}{
		{"Document Editor", 60, true},   // title case
		{"SETTINGS", 60, true},          // all caps
		{"lowercase words here", 90, true},
		{"lowercase words here", 60, false},
		{"ab", 99, false},               // too short
		{"123 456", 99, false},          // not enough letters
		{strings.Repeat("Word ", 11), 99, false}, // too many words
		{strings.Repeat("a", 81), 99, false},     // too long
	}
	for _, tc := range cases {
		if got := LooksLikeTitle(tc.text, tc.conf); got != tc.want {
			t.Errorf("LooksLikeTitle(%q, %v) = %v, want %v", tc.text, tc.conf, got, tc.want)
		}
	}
}

func TestSummarize(t *testing.T) {
	s := &Scene{
		Width:  1920,
		Height: 1080,
		Stats: SceneStats{
			TotalSpans: 7,
			ElementCounts: map[string]int{
				"button": 2,
				"window": 1,
			},
		},
	}
	got := s.Summarize()
	want := "Screen resolution: 1920x1080. Detected elements: 7 text blocks, 2 buttons, 1 windows."
	if got != want {
		t.Errorf("Summarize() = %q, want %q", got, want)
	}
}

func TestBoundingBoxCenter(t *testing.T) {
	x, y := BoundingBox{X: 10, Y: 20, Width: 30, Height: 40}.Center()
	if x != 25 || y != 40 {
		t.Errorf("Center() = (%d, %d), want (25, 40)", x, y)
	}
}
