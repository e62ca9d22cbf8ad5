package blueprint

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/alchemorsel/nutriplan/internal/domain/blueprint"
)

var (
	errNoDocument    = errors.New("response contains no JSON object")
	errUnrepairable  = errors.New("response could not be repaired into JSON")
	errMissingDays   = errors.New("document has no day array")
	errWrongDayCount = errors.New("document day array is not seven entries long")
)

// generatedDocument is the structure the model is asked to emit
type generatedDocument struct {
	Days  []blueprint.DayEntry `json:"days"`
	Meals []blueprint.DayEntry `json:"meals"`
}

func (d *generatedDocument) dayEntries() []blueprint.DayEntry {
	if len(d.Days) > 0 {
		return d.Days
	}
	return d.Meals
}

// extractJSON strips markdown fences and returns the span from the first
// opening brace to the last closing brace, or to the end when unterminated
func extractJSON(text string) (string, error) {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```JSON")
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	}
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", errNoDocument
	}
	end := strings.LastIndexByte(text, '}')
	if end < start {
		return text[start:], nil
	}
	return text[start : end+1], nil
}

// parseDocument decodes and structurally checks generator output. It returns
// the day entries and the number of repair passes that were needed.
func parseDocument(text string) ([]blueprint.DayEntry, int, error) {
	span, err := extractJSON(text)
	if err != nil {
		return nil, 0, err
	}

	repaired, passes, ok := Repair(span)
	if !ok {
		return nil, passes, errUnrepairable
	}

	var doc generatedDocument
	if err := json.Unmarshal([]byte(repaired), &doc); err != nil {
		return nil, passes, fmt.Errorf("decode document: %w", err)
	}

	days := doc.dayEntries()
	if days == nil {
		return nil, passes, errMissingDays
	}
	if len(days) != blueprint.DaysPerPlan {
		return nil, passes, fmt.Errorf("%w: got %d", errWrongDayCount, len(days))
	}
	for i := range days {
		if days[i].Snacks == nil {
			days[i].Snacks = []blueprint.Meal{}
		}
	}
	return days, passes, nil
}
