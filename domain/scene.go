package domain

import (
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode"
)

// BoundingBox is a pixel rectangle in screen coordinates.
type BoundingBox struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Center returns the midpoint of the box.
func (b BoundingBox) Center() (int, int) {
	return b.X + b.Width/2, b.Y + b.Height/2
}

// TextSpan is one OCR-extracted text fragment. Confidence is in [0,100];
// spans below the configured threshold never leave the extraction adapter.
type TextSpan struct {
	Text       string      `json:"text"`
	Confidence float64     `json:"confidence"`
	Box        BoundingBox `json:"box"`
}

// UIElement is one detected UI element candidate.
type UIElement struct {
	Kind  UIElementKind `json:"kind"`
	Box   BoundingBox   `json:"box"`
	Label string        `json:"label,omitempty"`
}

// Scene is the structured extraction result for one screenshot.
// Immutable once produced.
type Scene struct {
	CapturedAt time.Time   `json:"captured_at"`
	Width      int         `json:"width"`
	Height     int         `json:"height"`
	Spans      []TextSpan  `json:"spans,omitempty"`
	Elements   []UIElement `json:"elements,omitempty"`
	Stats      SceneStats  `json:"stats"`
	Summary    string      `json:"summary,omitempty"`
}

// SceneStats holds derived statistics about a scene.
type SceneStats struct {
	TotalSpans        int              `json:"total_spans"`
	UniqueTexts       int              `json:"unique_texts"`
	AverageConfidence float64          `json:"average_confidence"`
	TitleCandidates   []TitleCandidate `json:"title_candidates,omitempty"`
	TopFragments      []TextFragment   `json:"top_fragments,omitempty"`
	ElementCounts     map[string]int   `json:"element_counts,omitempty"`
}

// TitleCandidate is a text fragment that looks like a title or heading.
type TitleCandidate struct {
	Text              string  `json:"text"`
	Count             int     `json:"count"`
	AverageConfidence float64 `json:"average_confidence"`
}

// TextFragment is a recurring text fragment with its occurrence count.
type TextFragment struct {
	Text  string `json:"text"`
	Count int    `json:"count"`
}

const maxTopEntries = 5

// ComputeSceneStats derives SceneStats from the spans and elements.
func ComputeSceneStats(spans []TextSpan, elements []UIElement) SceneStats {
	stats := SceneStats{TotalSpans: len(spans)}

	counts := make(map[string]int)
	type titleMeta struct {
		count       int
		confidences []float64
	}
	titles := make(map[string]*titleMeta)
	var confSum float64

	for _, span := range spans {
		text := strings.TrimSpace(span.Text)
		if text == "" {
			continue
		}
		counts[text]++
		confSum += span.Confidence
		if LooksLikeTitle(text, span.Confidence) {
			meta := titles[text]
			if meta == nil {
				meta = &titleMeta{}
				titles[text] = meta
			}
			meta.count++
			meta.confidences = append(meta.confidences, span.Confidence)
		}
	}

	stats.UniqueTexts = len(counts)
	if len(spans) > 0 {
		stats.AverageConfidence = confSum / float64(len(spans))
	}

	for text, meta := range titles {
		var sum float64
		for _, c := range meta.confidences {
			sum += c
		}
		stats.TitleCandidates = append(stats.TitleCandidates, TitleCandidate{
			Text:              text,
			Count:             meta.count,
			AverageConfidence: sum / float64(len(meta.confidences)),
		})
	}
	sort.Slice(stats.TitleCandidates, func(i, j int) bool {
		a, b := stats.TitleCandidates[i], stats.TitleCandidates[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		if a.AverageConfidence != b.AverageConfidence {
			return a.AverageConfidence > b.AverageConfidence
		}
		return a.Text < b.Text
	})
	if len(stats.TitleCandidates) > maxTopEntries {
		stats.TitleCandidates = stats.TitleCandidates[:maxTopEntries]
	}

	for text, count := range counts {
		stats.TopFragments = append(stats.TopFragments, TextFragment{Text: text, Count: count})
	}
	sort.Slice(stats.TopFragments, func(i, j int) bool {
		a, b := stats.TopFragments[i], stats.TopFragments[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Text < b.Text
	})
	if len(stats.TopFragments) > maxTopEntries {
		stats.TopFragments = stats.TopFragments[:maxTopEntries]
	}

	if len(elements) > 0 {
		stats.ElementCounts = make(map[string]int)
		for _, el := range elements {
			stats.ElementCounts[string(el.Kind)]++
		}
	}

	return stats
}

// LooksLikeTitle reports whether a text fragment is likely a title or
// heading: at least three letters, one to ten words, at most 80 chars,
// and either a high OCR confidence or title/upper casing.
func LooksLikeTitle(text string, confidence float64) bool {
	if len(text) < 3 || len(text) > 80 {
		return false
	}
	letters := 0
	for _, r := range text {
		if unicode.IsLetter(r) {
			letters++
		}
	}
	if letters < 3 {
		return false
	}
	words := len(strings.Fields(text))
	if words < 1 || words > 10 {
		return false
	}
	return confidence >= 75 || text == strings.ToUpper(text) || isTitleCase(text)
}

func isTitleCase(text string) bool {
	words := strings.Fields(text)
	if len(words) == 0 {
		return false
	}
	for _, w := range words {
		r := []rune(w)
		if unicode.IsLetter(r[0]) && !unicode.IsUpper(r[0]) {
			return false
		}
	}
	return true
}

// Summarize builds the human-readable one-line summary of a scene.
func (s *Scene) Summarize() string {
	buttons := s.Stats.ElementCounts[string(UIElementKindButton)]
	windows := s.Stats.ElementCounts[string(UIElementKindWindow)]
	return fmt.Sprintf(
		"Screen resolution: %dx%d. Detected elements: %d text blocks, %d buttons, %d windows.",
		s.Width, s.Height, s.Stats.TotalSpans, buttons, windows)
}
