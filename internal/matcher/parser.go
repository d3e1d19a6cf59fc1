package matcher

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/funkysandman/geowise/internal/model"
)

// ErrMalformedSelection marks a response that is not the expected JSON
// object, or whose id_choice falls outside the candidate range.
var ErrMalformedSelection = errors.New("malformed selection response")

// ParseSelection parses the model's response as a {"id_choice", "reasoning"}
// object and range-checks id_choice against the candidate count. Tries
// multiple strategies: direct parse, brace extraction, code block extraction.
func ParseSelection(text string, candidateCount int) (model.DisambiguationResult, error) {
	text = strings.TrimSpace(text)

	raw, ok := tryParse(text)
	if !ok {
		return model.DisambiguationResult{}, fmt.Errorf("%w: not valid JSON: %.200s", ErrMalformedSelection, text)
	}

	if raw.IDChoice == nil {
		return model.DisambiguationResult{}, fmt.Errorf("%w: missing id_choice field", ErrMalformedSelection)
	}

	choice := *raw.IDChoice
	if choice < -1 || choice >= candidateCount {
		return model.DisambiguationResult{}, fmt.Errorf("%w: id_choice %d outside [-1, %d]", ErrMalformedSelection, choice, candidateCount-1)
	}

	return model.DisambiguationResult{IDChoice: choice, Reasoning: raw.Reasoning}, nil
}

type rawSelection struct {
	IDChoice  *int   `json:"id_choice"`
	Reasoning string `json:"reasoning"`
}

func tryParse(text string) (rawSelection, bool) {
	// Strategy 1: direct parse
	var result rawSelection
	if err := json.Unmarshal([]byte(text), &result); err == nil {
		return result, true
	}

	// Strategy 2: extract from first { to last }
	if start := strings.Index(text, "{"); start >= 0 {
		if end := strings.LastIndex(text, "}"); end > start {
			result = rawSelection{}
			if err := json.Unmarshal([]byte(text[start:end+1]), &result); err == nil {
				return result, true
			}
		}
	}

	// Strategy 3: extract from code blocks
	for _, fence := range []string{"```json", "```"} {
		if idx := strings.Index(text, fence); idx >= 0 {
			after := text[idx+len(fence):]
			if end := strings.Index(after, "```"); end >= 0 {
				result = rawSelection{}
				if err := json.Unmarshal([]byte(strings.TrimSpace(after[:end])), &result); err == nil {
					return result, true
				}
			}
		}
	}

	return rawSelection{}, false
}
