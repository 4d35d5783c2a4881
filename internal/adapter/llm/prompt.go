package llm

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/screenpilot/screenpilot/domain"
)

const systemPrompt = `You are a desktop automation assistant. Analyze the screen content and suggest specific actions the user might want to take. Focus on practical, actionable suggestions like clicking buttons, typing text, or navigating menus. Be specific about coordinates when suggesting clicks.

After your narrative, emit the proposed actions as a fenced json code block containing an array of objects, for example:
` + "```json" + `
[{"type":"click","x":120,"y":48},{"type":"type_text","x":300,"y":200,"text":"hello"}]
` + "```" + `
Valid action types are click, type_text, key_press, wait and none.`

// buildMessages builds the chat messages for one inference call. When the
// scene is nil (extraction failed) a degraded text-only prompt is used;
// when the screenshot file is readable it is attached for vision
// analysis.
func buildMessages(scene *domain.Scene, screenshotPath string, history []string) ([]chatMessage, error) {
	var sb strings.Builder

	if scene != nil {
		sceneJSON, err := json.MarshalIndent(sceneDigest(scene), "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to encode scene: %w", err)
		}
		fmt.Fprintf(&sb, "Screen analysis data:\n%s\n\n", sceneJSON)
	} else {
		sb.WriteString("The screen content could not be analyzed this cycle; only the raw screenshot is available. ")
		sb.WriteString("Describe what you can and suggest at most one safe action.\n\n")
	}

	if len(history) > 0 {
		sb.WriteString("Recent cycle summaries, oldest first:\n")
		for _, h := range history {
			fmt.Fprintf(&sb, "- %s\n", h)
		}
		sb.WriteString("\n")
	}

	sb.WriteString("Please analyze this screen and suggest specific actions the user could take.")

	parts := []contentPart{{Type: "text", Text: sb.String()}}
	if screenshotPath != "" {
		if data, err := os.ReadFile(screenshotPath); err == nil {
			parts = append(parts, contentPart{
				Type: "image_url",
				ImageURL: &imageURL{
					URL:    "data:image/png;base64," + base64.StdEncoding.EncodeToString(data),
					Detail: "high",
				},
			})
		}
	}

	return []chatMessage{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: parts},
	}, nil
}

// digest trims the scene down to what the model needs: spans, elements
// and the derived statistics, not the raw pixel data.
type digest struct {
	Summary  string             `json:"summary,omitempty"`
	Width    int                `json:"width"`
	Height   int                `json:"height"`
	Spans    []domain.TextSpan  `json:"spans,omitempty"`
	Elements []domain.UIElement `json:"elements,omitempty"`
	Stats    domain.SceneStats  `json:"stats"`
}

func sceneDigest(scene *domain.Scene) digest {
	return digest{
		Summary:  scene.Summary,
		Width:    scene.Width,
		Height:   scene.Height,
		Spans:    scene.Spans,
		Elements: scene.Elements,
		Stats:    scene.Stats,
	}
}
