// Package extract provides the OCR and element detection adapter.
package extract

import (
	"context"
	"fmt"
	"image"
	_ "image/png"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/screenpilot/screenpilot/domain"
)

// Extractor turns a screenshot into a structured scene description.
type Extractor interface {
	Extract(ctx context.Context, imagePath string) (*domain.Scene, error)
}

// TesseractExtractor runs tesseract in TSV mode and derives UI element
// candidates from the text geometry.
type TesseractExtractor struct {
	lang      string
	threshold float64

	// run produces tesseract TSV output for an image; replaced in tests.
	run func(ctx context.Context, imagePath string) (string, error)
}

// NewTesseractExtractor creates an extractor. Spans with a confidence
// below threshold are dropped before the scene is returned.
func NewTesseractExtractor(lang string, threshold float64) *TesseractExtractor {
	e := &TesseractExtractor{lang: lang, threshold: threshold}
	e.run = e.runTesseract
	return e
}

func (e *TesseractExtractor) runTesseract(ctx context.Context, imagePath string) (string, error) {
	cmd := exec.CommandContext(ctx, "tesseract", imagePath, "stdout",
		"-l", e.lang, "--oem", "3", "--psm", "6", "tsv")
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("tesseract failed: %w", err)
	}
	return string(out), nil
}

// Extract OCRs the image and assembles the scene.
func (e *TesseractExtractor) Extract(ctx context.Context, imagePath string) (*domain.Scene, error) {
	width, height, err := imageSize(imagePath)
	if err != nil {
		return nil, err
	}

	tsv, err := e.run(ctx, imagePath)
	if err != nil {
		return nil, err
	}

	spans, blocks, err := parseTSV(tsv, e.threshold)
	if err != nil {
		return nil, err
	}

	elements := detectElements(spans, blocks)

	scene := &domain.Scene{
		CapturedAt: time.Now().UTC(),
		Width:      width,
		Height:     height,
		Spans:      spans,
		Elements:   elements,
	}
	scene.Stats = domain.ComputeSceneStats(spans, elements)
	scene.Summary = scene.Summarize()
	return scene, nil
}

func imageSize(path string) (int, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to decode image %s: %w", path, err)
	}
	return cfg.Width, cfg.Height, nil
}

// tsvSpan is one word row of tesseract TSV output, tagged with its block.
type tsvSpan struct {
	span  domain.TextSpan
	block int
}

// parseTSV parses tesseract TSV output. Rows without recognized text
// (conf -1) are structural and skipped; word rows below the confidence
// threshold are excluded, matching the adapter contract.
func parseTSV(tsv string, threshold float64) ([]domain.TextSpan, map[int][]domain.BoundingBox, error) {
	lines := strings.Split(strings.ReplaceAll(tsv, "\r\n", "\n"), "\n")
	if len(lines) == 0 {
		return nil, nil, fmt.Errorf("empty tesseract output")
	}

	var spans []domain.TextSpan
	blocks := make(map[int][]domain.BoundingBox)

	for i, line := range lines {
		if i == 0 || strings.TrimSpace(line) == "" {
			// Header row.
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) < 12 {
			continue
		}

		conf, err := strconv.ParseFloat(fields[10], 64)
		if err != nil || conf < 0 {
			continue
		}
		text := strings.TrimSpace(fields[11])
		if text == "" {
			continue
		}

		block, _ := strconv.Atoi(fields[2])
		left, _ := strconv.Atoi(fields[6])
		top, _ := strconv.Atoi(fields[7])
		width, _ := strconv.Atoi(fields[8])
		height, _ := strconv.Atoi(fields[9])

		box := domain.BoundingBox{X: left, Y: top, Width: width, Height: height}
		blocks[block] = append(blocks[block], box)

		if conf < threshold {
			continue
		}
		spans = append(spans, domain.TextSpan{Text: text, Confidence: conf, Box: box})
	}

	return spans, blocks, nil
}

// detectElements derives UI element candidates from text geometry:
// button-sized spans become buttons labeled with their text, and each
// text block becomes a window or text_block depending on its extent.
func detectElements(spans []domain.TextSpan, blocks map[int][]domain.BoundingBox) []domain.UIElement {
	var elements []domain.UIElement

	for _, span := range spans {
		b := span.Box
		if b.Width > 20 && b.Width < 100 && b.Height > 10 && b.Height < 50 {
			elements = append(elements, domain.UIElement{
				Kind:  domain.UIElementKindButton,
				Box:   b,
				Label: span.Text,
			})
		}
	}

	for _, boxes := range blocks {
		if len(boxes) == 0 {
			continue
		}
		bounds := boxes[0]
		for _, b := range boxes[1:] {
			bounds = union(bounds, b)
		}
		kind := domain.UIElementKindTextBlock
		if bounds.Width > 100 && bounds.Height > 100 {
			kind = domain.UIElementKindWindow
		}
		elements = append(elements, domain.UIElement{Kind: kind, Box: bounds})
	}

	return elements
}

func union(a, b domain.BoundingBox) domain.BoundingBox {
	x1, y1 := a.X, a.Y
	if b.X < x1 {
		x1 = b.X
	}
	if b.Y < y1 {
		y1 = b.Y
	}
	x2, y2 := a.X+a.Width, a.Y+a.Height
	if b.X+b.Width > x2 {
		x2 = b.X + b.Width
	}
	if b.Y+b.Height > y2 {
		y2 = b.Y + b.Height
	}
	return domain.BoundingBox{X: x1, Y: y1, Width: x2 - x1, Height: y2 - y1}
}
