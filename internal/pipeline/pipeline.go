package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/funkysandman/geowise/internal/model"
)

// minTextLength rejects inputs too short to be worth processing.
const minTextLength = 10

// ErrTextTooShort is returned for inputs under the minimum length.
var ErrTextTooShort = errors.New("input text too short to process")

// Extractor produces the location/event table for an article.
type Extractor interface {
	Extract(ctx context.Context, articleText string) ([]model.ExtractedLocationRow, error)
}

// Geocoder returns ranked place candidates for a search query.
type Geocoder interface {
	Search(ctx context.Context, query, countryCode string) ([]model.GeoCandidate, error)
}

// Selector picks the best candidate (or -1) for a location in context.
type Selector interface {
	Select(ctx context.Context, locationName string, candidates []model.GeoCandidate, articleText string) (model.DisambiguationResult, error)
}

// Progress is called after each location finishes enriching; done counts
// processed rows out of total.
type Progress func(done, total int, locationName string)

// Pipeline drives one enrichment run: extract once, then geocode and
// disambiguate each location strictly in extraction order. Rows run
// sequentially because each step reports progress and all LLM calls share
// one rate-limited backend.
type Pipeline struct {
	Extractor   Extractor
	Geocoder    Geocoder
	Selector    Selector
	CountryCode string
	Progress    Progress
}

// Run executes the full pipeline for one input text and returns the records
// that geocoded successfully, all stamped with the same fresh extraction id
// and UTC completion timestamp. A zero-location extraction returns an empty
// result and nil error; an extraction failure aborts the run. Per-location
// failures are logged and that location dropped.
func (p *Pipeline) Run(ctx context.Context, articleText, projectName string) ([]model.EnrichedLocationRecord, error) {
	if len(strings.TrimSpace(articleText)) < minTextLength {
		return nil, ErrTextTooShort
	}

	rows, err := p.Extractor.Extract(ctx, articleText)
	if err != nil {
		return nil, fmt.Errorf("extracting locations: %w", err)
	}
	if len(rows) == 0 {
		log.Info().Str("project", projectName).Msg("no locations found in text")
		return []model.EnrichedLocationRecord{}, nil
	}

	var enriched []model.EnrichedLocationRecord
	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		name := strings.TrimSpace(row.LocationName)
		record, ok := p.enrichRow(ctx, name, row, articleText)
		if ok {
			enriched = append(enriched, record)
		}

		if p.Progress != nil {
			p.Progress(i+1, len(rows), name)
		}
	}

	extractionID := uuid.NewString()
	completedAt := time.Now().UTC().Format(time.RFC3339)

	var kept []model.EnrichedLocationRecord
	for _, rec := range enriched {
		rec.ProjectName = projectName
		rec.ExtractionID = extractionID
		rec.ExtractionCompletedAt = completedAt

		// Only geocoded matches are persisted.
		if rec.Lat == nil || rec.Lon == nil {
			continue
		}
		kept = append(kept, rec)
	}

	return kept, nil
}

// enrichRow geocodes and disambiguates one extracted row. The second return
// is false when the row should be dropped (zero candidates or a contained
// per-location failure).
func (p *Pipeline) enrichRow(ctx context.Context, name string, row model.ExtractedLocationRow, articleText string) (model.EnrichedLocationRecord, bool) {
	candidates, err := p.Geocoder.Search(ctx, name, p.CountryCode)
	if err != nil {
		log.Warn().Str("location", name).Err(err).Msg("geocode search failed, dropping location")
		return model.EnrichedLocationRecord{}, false
	}
	if len(candidates) == 0 {
		log.Info().Str("location", name).Msg("no geocode results, dropping location")
		return model.EnrichedLocationRecord{}, false
	}

	result, err := p.Selector.Select(ctx, name, candidates, articleText)
	if err != nil {
		log.Warn().Str("location", name).Err(err).Msg("candidate selection failed, dropping location")
		return model.EnrichedLocationRecord{}, false
	}

	record := model.EnrichedLocationRecord{
		LocationName:     name,
		EventCategory:    row.EventCategory,
		EventDescription: row.EventDescription,
		GeoReasoning:     result.Reasoning,
	}

	if result.IDChoice == -1 {
		// Kept through the loop with nil geo, filtered before persistence.
		return record, true
	}

	chosen := candidates[result.IDChoice]
	record.Geo = chosen
	if lat, ok := chosen.Lat(); ok {
		record.Lat = &lat
	}
	if lon, ok := chosen.Lon(); ok {
		record.Lon = &lon
	}

	return record, true
}
