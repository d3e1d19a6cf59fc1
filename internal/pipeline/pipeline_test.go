package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/funkysandman/geowise/internal/model"
)

const articleText = "A wildfire struck East London, South Africa yesterday."

type fakeExtractor struct {
	rows []model.ExtractedLocationRow
	err  error
}

func (f *fakeExtractor) Extract(context.Context, string) ([]model.ExtractedLocationRow, error) {
	return f.rows, f.err
}

type fakeGeocoder struct {
	candidates map[string][]model.GeoCandidate
	err        error
}

func (f *fakeGeocoder) Search(_ context.Context, query, _ string) ([]model.GeoCandidate, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.candidates[query], nil
}

type fakeSelector struct {
	result model.DisambiguationResult
	err    error
	calls  int
}

func (f *fakeSelector) Select(context.Context, string, []model.GeoCandidate, string) (model.DisambiguationResult, error) {
	f.calls++
	return f.result, f.err
}

func wildfireRow() model.ExtractedLocationRow {
	return model.ExtractedLocationRow{
		LocationName:     "East London, South Africa",
		EventCategory:    model.CategoryNaturalDisaster,
		EventDescription: "A wildfire struck East London",
	}
}

func eastLondonCandidate() model.GeoCandidate {
	return model.GeoCandidate{
		"address.freeformAddress": "East London, South Africa",
		"position.lat":            -33.02,
		"position.lon":            27.91,
	}
}

func TestRun_SingleMatch(t *testing.T) {
	p := &Pipeline{
		Extractor: &fakeExtractor{rows: []model.ExtractedLocationRow{wildfireRow()}},
		Geocoder: &fakeGeocoder{candidates: map[string][]model.GeoCandidate{
			"East London, South Africa": {eastLondonCandidate()},
		}},
		Selector: &fakeSelector{result: model.DisambiguationResult{IDChoice: 0, Reasoning: "wildfire context"}},
	}

	records, err := p.Run(context.Background(), articleText, "Default")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}

	rec := records[0]
	if rec.EventCategory != model.CategoryNaturalDisaster {
		t.Errorf("expected NATURAL_DISASTER, got %q", rec.EventCategory)
	}
	if rec.Lat == nil || *rec.Lat != -33.02 {
		t.Errorf("expected lat -33.02, got %v", rec.Lat)
	}
	if rec.Lon == nil || *rec.Lon != 27.91 {
		t.Errorf("expected lon 27.91, got %v", rec.Lon)
	}
	if rec.Geo == nil {
		t.Error("expected non-nil geo for a matched record")
	}
	if rec.ProjectName != "Default" {
		t.Errorf("expected project name set, got %q", rec.ProjectName)
	}
	if rec.ExtractionID == "" || rec.ExtractionCompletedAt == "" {
		t.Error("expected run metadata on every record")
	}
}

func TestRun_ZeroCandidatesDropsRow(t *testing.T) {
	p := &Pipeline{
		Extractor: &fakeExtractor{rows: []model.ExtractedLocationRow{wildfireRow()}},
		Geocoder:  &fakeGeocoder{candidates: map[string][]model.GeoCandidate{}},
		Selector:  &fakeSelector{},
	}

	records, err := p.Run(context.Background(), articleText, "Default")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected empty output, got %d records", len(records))
	}
}

func TestRun_NoMatchChoiceIsFilteredOut(t *testing.T) {
	p := &Pipeline{
		Extractor: &fakeExtractor{rows: []model.ExtractedLocationRow{wildfireRow()}},
		Geocoder: &fakeGeocoder{candidates: map[string][]model.GeoCandidate{
			"East London, South Africa": {eastLondonCandidate()},
		}},
		Selector: &fakeSelector{result: model.DisambiguationResult{IDChoice: -1, Reasoning: "not a plausible location"}},
	}

	records, err := p.Run(context.Background(), articleText, "Default")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected no-match row excluded from output, got %d records", len(records))
	}
}

func TestEnrichRow_NoMatchKeepsReasoningWithNilGeo(t *testing.T) {
	p := &Pipeline{
		Geocoder: &fakeGeocoder{candidates: map[string][]model.GeoCandidate{
			"East London, South Africa": {eastLondonCandidate()},
		}},
		Selector: &fakeSelector{result: model.DisambiguationResult{IDChoice: -1, Reasoning: "not a plausible location"}},
	}

	rec, ok := p.enrichRow(context.Background(), "East London, South Africa", wildfireRow(), articleText)
	if !ok {
		t.Fatal("expected row to be kept through the loop")
	}
	if rec.Geo != nil || rec.Lat != nil || rec.Lon != nil {
		t.Errorf("expected nil geo/lat/lon for a -1 choice, got %+v", rec)
	}
	if rec.GeoReasoning != "not a plausible location" {
		t.Errorf("expected reasoning carried over, got %q", rec.GeoReasoning)
	}
}

func TestRun_ExtractionFailureAbortsRun(t *testing.T) {
	p := &Pipeline{
		Extractor: &fakeExtractor{err: errors.New("unable to parse locations after 5 attempts")},
		Geocoder:  &fakeGeocoder{},
		Selector:  &fakeSelector{},
	}

	records, err := p.Run(context.Background(), articleText, "Default")
	if err == nil {
		t.Fatal("expected error when extraction fails")
	}
	if records != nil {
		t.Errorf("expected no records on aborted run, got %+v", records)
	}
}

func TestRun_ZeroRowsIsEmptyResultNotFailure(t *testing.T) {
	p := &Pipeline{
		Extractor: &fakeExtractor{rows: []model.ExtractedLocationRow{}},
		Geocoder:  &fakeGeocoder{},
		Selector:  &fakeSelector{},
	}

	records, err := p.Run(context.Background(), articleText, "Default")
	if err != nil {
		t.Fatalf("expected nil error for zero extracted rows, got %v", err)
	}
	if records == nil || len(records) != 0 {
		t.Fatalf("expected empty non-nil result, got %v", records)
	}
}

func TestRun_SelectionFailureDropsOnlyThatRow(t *testing.T) {
	rows := []model.ExtractedLocationRow{
		wildfireRow(),
		{LocationName: "Kremlin", EventCategory: model.CategoryAnnouncement, EventDescription: "A speech"},
	}
	// Selection fails for every row; geocode succeeds only for the Kremlin.
	p := &Pipeline{
		Extractor: &fakeExtractor{rows: rows},
		Geocoder: &fakeGeocoder{candidates: map[string][]model.GeoCandidate{
			"Kremlin": {{"position.lat": 55.75, "position.lon": 37.62}},
		}},
		Selector: &fakeSelector{err: errors.New("no candidate selection after all attempts")},
	}

	records, err := p.Run(context.Background(), articleText, "Default")
	if err != nil {
		t.Fatalf("per-location failures must not abort the run: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected all rows dropped, got %d", len(records))
	}
}

func TestRun_SharedExtractionIDAndFilterInvariant(t *testing.T) {
	rows := []model.ExtractedLocationRow{
		wildfireRow(),
		{LocationName: "King Phalo Airport", EventCategory: model.CategoryDiplomaticEvent, EventDescription: "Aid arriving"},
	}
	p := &Pipeline{
		Extractor: &fakeExtractor{rows: rows},
		Geocoder: &fakeGeocoder{candidates: map[string][]model.GeoCandidate{
			"East London, South Africa": {eastLondonCandidate()},
			"King Phalo Airport":        {{"position.lat": -33.03, "position.lon": 27.83}},
		}},
		Selector: &fakeSelector{result: model.DisambiguationResult{IDChoice: 0, Reasoning: "best match"}},
	}

	records, err := p.Run(context.Background(), articleText, "Default")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}

	for _, rec := range records {
		if rec.Lat == nil || rec.Lon == nil {
			t.Errorf("filtered output must have non-nil lat/lon: %+v", rec)
		}
		if rec.Geo == nil {
			t.Errorf("non-nil lat/lon requires non-nil geo: %+v", rec)
		}
		if rec.ExtractionID != records[0].ExtractionID {
			t.Error("all records of one run must share the extraction id")
		}
		if rec.ExtractionCompletedAt != records[0].ExtractionCompletedAt {
			t.Error("all records of one run must share the completion timestamp")
		}
	}
}

func TestRun_RejectsShortText(t *testing.T) {
	p := &Pipeline{Extractor: &fakeExtractor{}, Geocoder: &fakeGeocoder{}, Selector: &fakeSelector{}}

	if _, err := p.Run(context.Background(), "too short", "Default"); !errors.Is(err, ErrTextTooShort) {
		t.Fatalf("expected ErrTextTooShort, got %v", err)
	}
}

func TestRun_ReportsProgressPerRow(t *testing.T) {
	var seen []int
	p := &Pipeline{
		Extractor: &fakeExtractor{rows: []model.ExtractedLocationRow{
			wildfireRow(),
			{LocationName: "Kremlin", EventCategory: model.CategoryOther, EventDescription: "x"},
		}},
		Geocoder: &fakeGeocoder{candidates: map[string][]model.GeoCandidate{}},
		Selector: &fakeSelector{},
		Progress: func(done, total int, _ string) {
			if total != 2 {
				t.Errorf("expected total 2, got %d", total)
			}
			seen = append(seen, done)
		},
	}

	if _, err := p.Run(context.Background(), articleText, "Default"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(seen) != 2 || seen[0] != 1 || seen[1] != 2 {
		t.Errorf("expected progress [1 2], got %v", seen)
	}
}
