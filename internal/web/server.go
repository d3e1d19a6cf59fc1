package web

import (
	"fmt"
	"net/http"

	"github.com/funkysandman/geowise/internal/store"
)

// Server exposes the record store's query surface as a JSON API, for
// whatever front end renders the maps and charts.
type Server struct {
	Store *store.Store
	Addr  string
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/records", s.handleRecords)
	mux.HandleFunc("/api/projects", s.handleProjects)
	mux.HandleFunc("/api/categories", s.handleCategories)

	fmt.Printf("Serving at http://%s\n", s.Addr)
	return http.ListenAndServe(s.Addr, mux)
}
