package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"

	_ "github.com/marcboeker/go-duckdb/v2"
	"github.com/google/uuid"

	"github.com/funkysandman/geowise/internal/model"
)

// Store persists enriched location records via DuckDB. Writes are
// append-only; records are never updated or deleted.
type Store struct {
	DB      *sql.DB
	DataDir string
}

// New opens (or creates) a DuckDB database in the given data directory.
func New(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}

	dbPath := filepath.Join(dataDir, "geowise.duckdb")
	db, err := sql.Open("duckdb", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening duckdb: %w", err)
	}

	s := &Store{DB: db, DataDir: dataDir}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating schema: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.DB.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS records (
			id TEXT PRIMARY KEY,
			project_name TEXT NOT NULL,
			extraction_id TEXT NOT NULL,
			location_name TEXT NOT NULL,
			event_category TEXT NOT NULL,
			event_description TEXT,
			geo TEXT,
			geo_reasoning TEXT,
			lat DOUBLE,
			lon DOUBLE,
			extraction_completion_datetime TEXT NOT NULL
		)`,
	}

	for _, stmt := range stmts {
		if _, err := s.DB.Exec(stmt); err != nil {
			return fmt.Errorf("executing migration %q: %w", stmt[:40], err)
		}
	}

	return nil
}

// WriteRecords inserts one document per record. Each record gets a fresh
// unique id at write time, and NaN floats are normalized to null through the
// full nested attribute set before anything touches the database.
func (s *Store) WriteRecords(records []model.EnrichedLocationRecord) ([]model.EnrichedLocationRecord, error) {
	tx, err := s.DB.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO records
		(id, project_name, extraction_id, location_name, event_category, event_description, geo, geo_reasoning, lat, lon, extraction_completion_datetime)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return nil, err
	}
	defer stmt.Close()

	written := make([]model.EnrichedLocationRecord, 0, len(records))
	for _, rec := range records {
		rec.ID = uuid.NewString()
		rec.Geo = sanitizeGeo(rec.Geo)
		rec.Lat = sanitizeFloat(rec.Lat)
		rec.Lon = sanitizeFloat(rec.Lon)

		var geoJSON any
		if rec.Geo != nil {
			b, err := json.Marshal(rec.Geo)
			if err != nil {
				return nil, fmt.Errorf("marshaling geo for %q: %w", rec.LocationName, err)
			}
			geoJSON = string(b)
		}

		if _, err := stmt.Exec(
			rec.ID, rec.ProjectName, rec.ExtractionID,
			rec.LocationName, string(rec.EventCategory), rec.EventDescription,
			geoJSON, rec.GeoReasoning, floatValue(rec.Lat), floatValue(rec.Lon),
			rec.ExtractionCompletedAt,
		); err != nil {
			return nil, fmt.Errorf("inserting record %q: %w", rec.LocationName, err)
		}

		written = append(written, rec)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return written, nil
}

func floatValue(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}

// ReadRecords loads records, optionally filtered by project name (empty
// string loads everything). Records come back in write order per extraction.
func (s *Store) ReadRecords(project string) ([]model.EnrichedLocationRecord, error) {
	query := `SELECT id, project_name, extraction_id, location_name, event_category, event_description, geo, geo_reasoning, lat, lon, extraction_completion_datetime
		FROM records`
	var args []any
	if project != "" {
		query += " WHERE project_name = ?"
		args = append(args, project)
	}
	query += " ORDER BY extraction_completion_datetime, rowid"

	rows, err := s.DB.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []model.EnrichedLocationRecord
	for rows.Next() {
		var rec model.EnrichedLocationRecord
		var category string
		var geoJSON, reasoning sql.NullString
		var lat, lon sql.NullFloat64

		if err := rows.Scan(&rec.ID, &rec.ProjectName, &rec.ExtractionID,
			&rec.LocationName, &category, &rec.EventDescription,
			&geoJSON, &reasoning, &lat, &lon, &rec.ExtractionCompletedAt); err != nil {
			return nil, err
		}

		rec.EventCategory = model.EventCategory(category)
		rec.GeoReasoning = reasoning.String
		if geoJSON.Valid {
			json.Unmarshal([]byte(geoJSON.String), &rec.Geo)
		}
		if lat.Valid {
			v := lat.Float64
			rec.Lat = &v
		}
		if lon.Valid {
			v := lon.Float64
			rec.Lon = &v
		}

		records = append(records, rec)
	}

	return records, rows.Err()
}

// RecordCount returns the total number of stored records.
func (s *Store) RecordCount() int {
	var n int
	s.DB.QueryRow("SELECT COUNT(*) FROM records").Scan(&n)
	return n
}

// ExtractionCount returns how many distinct extraction runs have records.
func (s *Store) ExtractionCount() int {
	var n int
	s.DB.QueryRow("SELECT COUNT(DISTINCT extraction_id) FROM records").Scan(&n)
	return n
}

// RecordCountByProject returns record counts per project.
func (s *Store) RecordCountByProject() map[string]int {
	return s.countsBy("project_name")
}

// RecordCountByCategory returns record counts per event category.
func (s *Store) RecordCountByCategory() map[string]int {
	return s.countsBy("event_category")
}

func (s *Store) countsBy(column string) map[string]int {
	m := make(map[string]int)
	rows, err := s.DB.Query(fmt.Sprintf("SELECT %s, COUNT(*) FROM records GROUP BY %s ORDER BY %s", column, column, column))
	if err != nil {
		return m
	}
	defer rows.Close()
	for rows.Next() {
		var key string
		var cnt int
		rows.Scan(&key, &cnt)
		m[key] = cnt
	}
	return m
}

// sanitizeGeo replaces every NaN or infinite float in the candidate's
// attribute set with nil, recursing through nested maps and slices.
func sanitizeGeo(g model.GeoCandidate) model.GeoCandidate {
	if g == nil {
		return nil
	}
	out := make(model.GeoCandidate, len(g))
	for k, v := range g {
		out[k] = sanitizeValue(v)
	}
	return out
}

func sanitizeValue(v any) any {
	switch val := v.(type) {
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return nil
		}
		return val
	case float32:
		f := float64(val)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil
		}
		return val
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, inner := range val {
			out[k] = sanitizeValue(inner)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, inner := range val {
			out[i] = sanitizeValue(inner)
		}
		return out
	default:
		return v
	}
}

func sanitizeFloat(p *float64) *float64 {
	if p == nil || math.IsNaN(*p) || math.IsInf(*p, 0) {
		return nil
	}
	return p
}
