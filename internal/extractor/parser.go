package extractor

import (
	"encoding/csv"
	"errors"
	"fmt"
	"strings"

	"github.com/funkysandman/geowise/internal/model"
)

// ErrMalformedTable marks a response that could not be parsed as the
// expected 3-column table.
var ErrMalformedTable = errors.New("malformed location table")

var expectedHeader = []string{"location_name", "event_category_at_location", "event_description"}

// ParseLocationTable parses the model's response as the 3-column location
// table. If the first line is not the canonical header it is kept as a data
// row rather than dropped; structurally invalid CSV returns ErrMalformedTable.
func ParseLocationTable(raw string) ([]model.ExtractedLocationRow, error) {
	text := stripCodeFence(strings.TrimSpace(raw))
	if text == "" {
		return nil, fmt.Errorf("%w: empty response", ErrMalformedTable)
	}

	r := csv.NewReader(strings.NewReader(text))
	r.FieldsPerRecord = 3
	r.TrimLeadingSpace = true

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedTable, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: no rows", ErrMalformedTable)
	}

	// Best-effort header repair: a misrecognized header row becomes the
	// first data row instead of being lost.
	if isExpectedHeader(records[0]) {
		records = records[1:]
	}

	rows := make([]model.ExtractedLocationRow, 0, len(records))
	for _, rec := range records {
		rows = append(rows, model.ExtractedLocationRow{
			LocationName:     rec[0],
			EventCategory:    model.ParseEventCategory(strings.TrimSpace(rec[1])),
			EventDescription: rec[2],
		})
	}

	return rows, nil
}

func isExpectedHeader(record []string) bool {
	if len(record) != len(expectedHeader) {
		return false
	}
	for i, col := range expectedHeader {
		if strings.TrimSpace(record[i]) != col {
			return false
		}
	}
	return true
}

// stripCodeFence removes a surrounding markdown code fence, which some
// models wrap around tabular output despite instructions.
func stripCodeFence(text string) string {
	if !strings.HasPrefix(text, "```") {
		return text
	}
	body := text[3:]
	if nl := strings.Index(body, "\n"); nl >= 0 {
		// drop a language tag like ```csv
		if first := strings.TrimSpace(body[:nl]); first == "" || !strings.Contains(first, ",") {
			body = body[nl+1:]
		}
	}
	if end := strings.LastIndex(body, "```"); end >= 0 {
		body = body[:end]
	}
	return strings.TrimSpace(body)
}
