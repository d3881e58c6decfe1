package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"PercentileBoard/internal/matrix"
)

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":  "healthy",
		"service": "percentile-board",
	}
	if snap := s.board.Latest(); snap != nil {
		response["last_refresh"] = snap.TakenAt
	}
	s.writeJSON(w, http.StatusOK, response)
}

// handleTable returns the latest table, fetching one if none exists yet.
func (s *Server) handleTable(w http.ResponseWriter, r *http.Request) {
	snap, err := s.board.LatestOrRefresh(r.Context())
	if err != nil {
		s.writeRefreshError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.view(snap))
}

// handleRefresh forces a new cycle and returns its table.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	snap, err := s.board.Refresh(r.Context())
	if err != nil {
		s.writeRefreshError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.view(snap))
}

func (s *Server) writeRefreshError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	var total *matrix.TotalFailureError
	if errors.As(err, &total) {
		status = http.StatusBadGateway
	}
	s.log.Error().Err(err).Msg("refresh failed")
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}

// writeJSON writes a JSON response
func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("failed to encode JSON response")
	}
}
