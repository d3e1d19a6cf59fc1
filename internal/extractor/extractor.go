package extractor

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/funkysandman/geowise/internal/llm"
	"github.com/funkysandman/geowise/internal/model"
)

// maxAttempts bounds the extract-and-parse cycle, independent of the
// completion client's own retry budget.
const maxAttempts = 5

// Extractor turns free text into a table of location/event rows via the
// completion provider.
type Extractor struct {
	Completer llm.Completer
}

// New creates an Extractor using the given completion client.
func New(c llm.Completer) *Extractor {
	return &Extractor{Completer: c}
}

// Extract prompts the model for the location table and parses the response.
// A malformed table retries the whole cycle with the same prompt, up to 5
// attempts. Completion failures (including provider rejections, which the
// completion client never retries) are terminal.
func (e *Extractor) Extract(ctx context.Context, articleText string) ([]model.ExtractedLocationRow, error) {
	messages := []llm.Message{llm.SystemMessage(buildExtractionPrompt(articleText))}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		raw, err := e.Completer.Complete(ctx, messages)
		if err != nil {
			return nil, fmt.Errorf("extraction completion: %w", err)
		}

		rows, err := ParseLocationTable(raw)
		if err != nil {
			lastErr = err
			log.Warn().Int("attempt", attempt).Str("response", snippet(raw)).Err(err).
				Msg("extraction response did not parse as a location table")
			continue
		}

		return rows, nil
	}

	return nil, fmt.Errorf("unable to parse locations after %d attempts: %w", maxAttempts, lastErr)
}

// snippet truncates provider output for log context.
func snippet(s string) string {
	const max = 200
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
