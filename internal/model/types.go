package model

// EventCategory classifies the event reported at an extracted location.
type EventCategory string

const (
	CategoryDisaster        EventCategory = "DISASTER"
	CategoryNaturalDisaster EventCategory = "NATURAL_DISASTER"
	CategoryCrimeEvent      EventCategory = "CRIME_EVENT"
	CategoryProtestEvent    EventCategory = "PROTEST_EVENT"
	CategoryPoliticalEvent  EventCategory = "POLITICAL_EVENT"
	CategoryRefugees        EventCategory = "REFUGEES"
	CategoryWarCrime        EventCategory = "WARCRIME"
	CategoryAnnouncement    EventCategory = "ANNOUNCEMENT_OR_SPEECH"
	CategoryMilitaryEvent   EventCategory = "MILITARY_EVENT"
	CategoryBusinessEvent   EventCategory = "BUSINESS_EVENT"
	CategoryEconomicEvent   EventCategory = "ECONOMIC_EVENT"
	CategoryDiplomaticEvent EventCategory = "DIPLOMATIC_EVENT"
	CategoryTerroristEvent  EventCategory = "TERRORIST_EVENT"
	CategoryDeath           EventCategory = "DEATH"
	CategoryHistoricalEvent EventCategory = "HISTORICAL_EVENT"
	CategoryOther           EventCategory = "OTHER"
)

// Categories lists every valid event category in prompt order.
var Categories = []EventCategory{
	CategoryDisaster,
	CategoryNaturalDisaster,
	CategoryCrimeEvent,
	CategoryProtestEvent,
	CategoryPoliticalEvent,
	CategoryRefugees,
	CategoryWarCrime,
	CategoryAnnouncement,
	CategoryMilitaryEvent,
	CategoryBusinessEvent,
	CategoryEconomicEvent,
	CategoryDiplomaticEvent,
	CategoryTerroristEvent,
	CategoryDeath,
	CategoryHistoricalEvent,
	CategoryOther,
}

var categorySet = func() map[EventCategory]bool {
	m := make(map[EventCategory]bool, len(Categories))
	for _, c := range Categories {
		m[c] = true
	}
	return m
}()

// ParseEventCategory maps a raw model-produced value onto the category enum.
// Anything outside the enum collapses to OTHER.
func ParseEventCategory(s string) EventCategory {
	c := EventCategory(s)
	if categorySet[c] {
		return c
	}
	return CategoryOther
}

// ExtractedLocationRow is one row of the location table produced by the
// extraction model. Row order follows the model's output order.
type ExtractedLocationRow struct {
	LocationName     string        `json:"location_name"`
	EventCategory    EventCategory `json:"event_category_at_location"`
	EventDescription string        `json:"event_description"`
}

// GeoCandidate is one place record returned by the geocoding provider,
// flattened to dotted keys ("position.lat", "poi.name", ...). The provider's
// attribute set is carried verbatim; index position in the result slice is
// the identifier used during disambiguation.
type GeoCandidate map[string]any

// Lat returns the candidate's latitude, if present.
func (g GeoCandidate) Lat() (float64, bool) {
	v, ok := g["position.lat"].(float64)
	return v, ok
}

// Lon returns the candidate's longitude, if present.
func (g GeoCandidate) Lon() (float64, bool) {
	v, ok := g["position.lon"].(float64)
	return v, ok
}

// DisambiguationResult is the model's choice of geocode candidate for one
// location. IDChoice is an index into the candidate slice, or -1 when no
// candidate is a plausible match.
type DisambiguationResult struct {
	IDChoice  int    `json:"id_choice"`
	Reasoning string `json:"reasoning"`
}

// EnrichedLocationRecord is the persisted output of one enrichment run.
// Lat/Lon are nil when disambiguation declined every candidate; such records
// are filtered out before persistence.
type EnrichedLocationRecord struct {
	ID                    string        `json:"id,omitempty"`
	LocationName          string        `json:"location_name"`
	EventCategory         EventCategory `json:"event_category_at_location"`
	EventDescription      string        `json:"event_description"`
	Geo                   GeoCandidate  `json:"geo"`
	GeoReasoning          string        `json:"geo_reasoning"`
	Lat                   *float64      `json:"lat"`
	Lon                   *float64      `json:"lon"`
	ProjectName           string        `json:"project_name"`
	ExtractionID          string        `json:"extraction_id"`
	ExtractionCompletedAt string        `json:"extraction_completion_datetime"`
}
