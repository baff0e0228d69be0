package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/floodwatch-lk/flood-data-api/internal/domain"
)

// Collection responses always serialize as arrays; an unavailable upstream
// yields [] with 200, never an error status.

func (s *Server) handleLatestLevels(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, nonNil(s.data.LatestLevels(r.Context())))
}

func (s *Server) handleStations(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, nonNil(s.data.Stations(r.Context())))
}

func (s *Server) handleStationByName(w http.ResponseWriter, r *http.Request) {
	station, err := s.data.StationByName(r.Context(), mux.Vars(r)["name"])
	if err != nil {
		s.notFound(w, err, "station not found")
		return
	}
	s.writeJSON(w, http.StatusOK, station)
}

func (s *Server) handleRivers(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, nonNil(s.data.Rivers(r.Context())))
}

func (s *Server) handleRiverByName(w http.ResponseWriter, r *http.Request) {
	river, err := s.data.RiverByName(r.Context(), mux.Vars(r)["name"])
	if err != nil {
		s.notFound(w, err, "river not found")
		return
	}
	s.writeJSON(w, http.StatusOK, river)
}

func (s *Server) handleRiverStations(w http.ResponseWriter, r *http.Request) {
	stations, err := s.data.StationsByRiver(r.Context(), mux.Vars(r)["name"])
	if err != nil {
		s.notFound(w, err, "river not found")
		return
	}
	s.writeJSON(w, http.StatusOK, nonNil(stations))
}

func (s *Server) handleBasins(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, nonNil(s.data.Basins(r.Context())))
}

func (s *Server) handleBasinByName(w http.ResponseWriter, r *http.Request) {
	basin, err := s.data.BasinByName(r.Context(), mux.Vars(r)["name"])
	if err != nil {
		s.notFound(w, err, "basin not found")
		return
	}
	s.writeJSON(w, http.StatusOK, basin)
}

func (s *Server) handleBasinRivers(w http.ResponseWriter, r *http.Request) {
	rivers, err := s.data.RiversByBasin(r.Context(), mux.Vars(r)["name"])
	if err != nil {
		s.notFound(w, err, "basin not found")
		return
	}
	s.writeJSON(w, http.StatusOK, nonNil(rivers))
}

func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, nonNil(s.data.ActiveAlerts(r.Context())))
}

func (s *Server) handleAlertSummary(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, nonNil(s.data.AlertSummary(r.Context())))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.data.CheckReadiness(ctx); err != nil {
		s.writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"error":  err.Error(),
		})
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) notFound(w http.ResponseWriter, err error, message string) {
	if errors.Is(err, domain.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, message)
		return
	}
	s.writeError(w, http.StatusInternalServerError, "internal error")
}

// nonNil maps a nil slice to an empty one so JSON renders [] instead of null.
func nonNil[T any](v []T) []T {
	if v == nil {
		return []T{}
	}
	return v
}
