package web

import (
	"encoding/json"
	"net/http"
)

func (s *Server) handleRecords(w http.ResponseWriter, r *http.Request) {
	project := r.URL.Query().Get("project")

	records, err := s.Store.ReadRecords(project)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	category := r.URL.Query().Get("category")
	if category != "" {
		var filtered []any
		for _, rec := range records {
			if string(rec.EventCategory) == category {
				filtered = append(filtered, rec)
			}
		}
		writeJSON(w, filtered)
		return
	}

	writeJSON(w, records)
}

func (s *Server) handleProjects(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, s.Store.RecordCountByProject())
}

func (s *Server) handleCategories(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, s.Store.RecordCountByCategory())
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	// Wildcard CORS — this is a local development tool, not a public API.
	w.Header().Set("Access-Control-Allow-Origin", "*")
	if v == nil {
		_, _ = w.Write([]byte("[]"))
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}
