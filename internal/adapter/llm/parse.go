package llm

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/screenpilot/screenpilot/domain"
)

var (
	fencedJSONRe = regexp.MustCompile("(?s)```(?:json)?\\s*(\\[.*?\\])\\s*```")
	clickBracket = regexp.MustCompile(`(?i)CLICK[^\[]*\[\s*(\d+)\s*,\s*(\d+)\s*\]`)
	clickPlain   = regexp.MustCompile(`(?i)CLICK[^0-9\[]*(\d{1,4})\s*,\s*(\d{1,4})`)
)

// ParseRecommendation extracts the action list from a model reply. The
// full reply text is kept as the narrative. A fenced json action array is
// preferred; plain-text "CLICK ... [x, y]" patterns are the fallback for
// models that ignore the format instructions. At most maxActions actions
// are kept (0 means unlimited).
func ParseRecommendation(reply string, maxActions int) *domain.Recommendation {
	rec := &domain.Recommendation{Narrative: strings.TrimSpace(reply)}

	actions := parseJSONActions(reply)
	if len(actions) == 0 {
		actions = parseClickActions(reply)
	}
	if maxActions > 0 && len(actions) > maxActions {
		actions = actions[:maxActions]
	}
	rec.Actions = actions
	return rec
}

// jsonAction mirrors the shape the system prompt asks for.
type jsonAction struct {
	Type   string `json:"type"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
	Text   string `json:"text"`
	Key    string `json:"key"`
	WaitMs int    `json:"wait_ms"`
}

func parseJSONActions(reply string) []domain.ActionSpec {
	m := fencedJSONRe.FindStringSubmatch(reply)
	if m == nil {
		return nil
	}

	var raw []jsonAction
	if err := json.Unmarshal([]byte(m[1]), &raw); err != nil {
		return nil
	}

	var actions []domain.ActionSpec
	for _, a := range raw {
		spec, ok := toActionSpec(a)
		if !ok {
			continue
		}
		actions = append(actions, spec)
	}
	return actions
}

func toActionSpec(a jsonAction) (domain.ActionSpec, bool) {
	switch domain.ActionType(a.Type) {
	case domain.ActionTypeClick:
		return domain.ActionSpec{Type: domain.ActionTypeClick, X: a.X, Y: a.Y}, true
	case domain.ActionTypeTypeText:
		if a.Text == "" {
			return domain.ActionSpec{}, false
		}
		return domain.ActionSpec{Type: domain.ActionTypeTypeText, X: a.X, Y: a.Y, Text: a.Text}, true
	case domain.ActionTypeKeyPress:
		if a.Key == "" {
			return domain.ActionSpec{}, false
		}
		return domain.ActionSpec{Type: domain.ActionTypeKeyPress, Key: a.Key}, true
	case domain.ActionTypeWait:
		if a.WaitMs <= 0 {
			return domain.ActionSpec{}, false
		}
		return domain.ActionSpec{Type: domain.ActionTypeWait, WaitMs: a.WaitMs}, true
	case domain.ActionTypeNone:
		return domain.ActionSpec{Type: domain.ActionTypeNone}, true
	default:
		return domain.ActionSpec{}, false
	}
}

func parseClickActions(reply string) []domain.ActionSpec {
	normalized := strings.ReplaceAll(reply, "\r", "\n")

	var actions []domain.ActionSpec
	seen := make(map[[2]int]bool)

	add := func(xs, ys string) {
		x, err1 := strconv.Atoi(xs)
		y, err2 := strconv.Atoi(ys)
		if err1 != nil || err2 != nil || seen[[2]int{x, y}] {
			return
		}
		seen[[2]int{x, y}] = true
		actions = append(actions, domain.ActionSpec{Type: domain.ActionTypeClick, X: x, Y: y})
	}

	for _, m := range clickBracket.FindAllStringSubmatch(normalized, -1) {
		add(m[1], m[2])
	}
	for _, m := range clickPlain.FindAllStringSubmatch(normalized, -1) {
		add(m[1], m[2])
	}
	return actions
}
