package matcher

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/funkysandman/geowise/internal/llm"
	"github.com/funkysandman/geowise/internal/model"
)

// maxAttempts bounds the select-and-parse cycle, independent of the
// completion client's own retry budget.
const maxAttempts = 6

// ErrNoSelection marks a disambiguation that failed after every attempt.
// The caller must treat the location as unresolved rather than fabricate a
// match.
var ErrNoSelection = errors.New("no candidate selection after all attempts")

// Matcher asks the completion provider to pick the geocode candidate that
// best fits a location mention in its article context.
type Matcher struct {
	Completer llm.Completer
}

// New creates a Matcher using the given completion client.
func New(c llm.Completer) *Matcher {
	return &Matcher{Completer: c}
}

// Select prompts the model to choose a candidate index (or -1 for no match)
// and parses the strict-JSON response. Malformed JSON and out-of-range
// indices retry the whole cycle, up to 6 attempts.
func (m *Matcher) Select(ctx context.Context, locationName string, candidates []model.GeoCandidate, articleText string) (model.DisambiguationResult, error) {
	messages := []llm.Message{llm.SystemMessage(buildSelectionPrompt(locationName, candidates, articleText))}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		raw, err := m.Completer.Complete(ctx, messages)
		if err != nil {
			return model.DisambiguationResult{}, fmt.Errorf("selection completion: %w", err)
		}

		result, err := ParseSelection(raw, len(candidates))
		if err != nil {
			lastErr = err
			log.Warn().Int("attempt", attempt).Str("location", locationName).
				Str("response", snippet(raw)).Err(err).
				Msg("selection response did not parse as valid JSON")
			continue
		}

		return result, nil
	}

	return model.DisambiguationResult{}, fmt.Errorf("%w: location %q: %v", ErrNoSelection, locationName, lastErr)
}

func snippet(s string) string {
	const max = 200
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
