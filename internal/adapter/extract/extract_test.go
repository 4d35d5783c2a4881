package extract

import (
	"context"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/screenpilot/screenpilot/domain"
)

const sampleTSV = `level	page_num	block_num	par_num	line_num	word_num	left	top	width	height	conf	text
1	1	0	0	0	0	0	0	1920	1080	-1
2	1	1	0	0	0	10	5	300	40	-1
5	1	1	1	1	1	10	5	40	14	91.5	File
5	1	1	1	1	2	60	5	40	14	88.0	Edit
5	1	1	1	1	3	110	5	40	14	12.0	smudge
5	1	2	1	1	1	50	200	400	300	85.0	Document
5	1	2	1	2	1	50	260	30	12	79.0	Save
`

func writeTestPNG(t *testing.T, width, height int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "shot.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create png: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, image.NewRGBA(image.Rect(0, 0, width, height))); err != nil {
		t.Fatalf("failed to encode png: %v", err)
	}
	return path
}

func TestExtractParsesSpansAndFiltersLowConfidence(t *testing.T) {
	e := NewTesseractExtractor("eng", 30)
	e.run = func(ctx context.Context, imagePath string) (string, error) {
		return sampleTSV, nil
	}

	scene, err := e.Extract(context.Background(), writeTestPNG(t, 1920, 1080))
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	if scene.Width != 1920 || scene.Height != 1080 {
		t.Fatalf("unexpected dimensions: %dx%d", scene.Width, scene.Height)
	}
	// "smudge" at confidence 12 is below the threshold of 30.
	if len(scene.Spans) != 4 {
		t.Fatalf("expected 4 spans, got %d: %+v", len(scene.Spans), scene.Spans)
	}
	for _, span := range scene.Spans {
		if span.Text == "smudge" {
			t.Fatalf("low-confidence span was not filtered")
		}
		if span.Confidence < 30 {
			t.Fatalf("span %q below threshold leaked through", span.Text)
		}
	}
	if scene.Spans[0].Box != (domain.BoundingBox{X: 10, Y: 5, Width: 40, Height: 14}) {
		t.Fatalf("unexpected box for first span: %+v", scene.Spans[0].Box)
	}
}

func TestExtractDetectsElements(t *testing.T) {
	e := NewTesseractExtractor("eng", 30)
	e.run = func(ctx context.Context, imagePath string) (string, error) {
		return sampleTSV, nil
	}

	scene, err := e.Extract(context.Background(), writeTestPNG(t, 1920, 1080))
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	var buttons, windows, textBlocks int
	for _, el := range scene.Elements {
		switch el.Kind {
		case domain.UIElementKindButton:
			buttons++
			if el.Label == "" {
				t.Fatalf("button element missing its label")
			}
		case domain.UIElementKindWindow:
			windows++
		case domain.UIElementKindTextBlock:
			textBlocks++
		}
	}
	// File, Edit, Save are button-sized; block 2 spans span a window-sized
	// region; block 1 is a thin strip.
	if buttons != 3 {
		t.Fatalf("expected 3 buttons, got %d", buttons)
	}
	if windows != 1 {
		t.Fatalf("expected 1 window, got %d", windows)
	}
	if textBlocks != 1 {
		t.Fatalf("expected 1 text block, got %d", textBlocks)
	}

	if scene.Stats.TotalSpans != 4 {
		t.Fatalf("unexpected stats: %+v", scene.Stats)
	}
	if scene.Summary == "" {
		t.Fatalf("expected a scene summary")
	}
}

func TestExtractFailsOnMissingImage(t *testing.T) {
	e := NewTesseractExtractor("eng", 30)
	if _, err := e.Extract(context.Background(), filepath.Join(t.TempDir(), "missing.png")); err == nil {
		t.Fatalf("expected error for missing image")
	}
}
