// Package httpapi exposes the read-only REST surface over the aggregation
// core, plus health, readiness, and metrics endpoints.
package httpapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/floodwatch-lk/flood-data-api/internal/domain"
	"github.com/floodwatch-lk/flood-data-api/internal/observability"
)

// FloodData is the aggregation surface the API serves. Collection reads
// never fail; by-name lookups return domain.ErrNotFound on a miss.
type FloodData interface {
	LatestLevels(ctx context.Context) []domain.StationRecord
	Stations(ctx context.Context) []domain.GaugingStation
	StationByName(ctx context.Context, name string) (domain.GaugingStation, error)
	StationsByRiver(ctx context.Context, name string) ([]domain.GaugingStation, error)
	Rivers(ctx context.Context) []domain.River
	RiverByName(ctx context.Context, name string) (domain.River, error)
	RiversByBasin(ctx context.Context, name string) ([]domain.River, error)
	Basins(ctx context.Context) []domain.Basin
	BasinByName(ctx context.Context, name string) (domain.Basin, error)
	ActiveAlerts(ctx context.Context) []domain.StationRecord
	AlertSummary(ctx context.Context) []domain.AlertSummary
	CheckReadiness(ctx context.Context) error
}

// Server serves the flood data REST API.
type Server struct {
	httpServer *http.Server
	data       FloodData
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewServer creates the API server with all routes registered.
func NewServer(addr string, data FloodData, logger *slog.Logger, metrics *observability.Metrics) *Server {
	s := &Server{
		data:    data,
		logger:  logger,
		metrics: metrics,
	}

	r := mux.NewRouter()
	r.HandleFunc("/stations", s.timed("/stations", s.handleStations)).Methods(http.MethodGet)
	r.HandleFunc("/stations/{name}", s.timed("/stations/{name}", s.handleStationByName)).Methods(http.MethodGet)
	r.HandleFunc("/rivers", s.timed("/rivers", s.handleRivers)).Methods(http.MethodGet)
	r.HandleFunc("/rivers/{name}", s.timed("/rivers/{name}", s.handleRiverByName)).Methods(http.MethodGet)
	r.HandleFunc("/rivers/{name}/stations", s.timed("/rivers/{name}/stations", s.handleRiverStations)).Methods(http.MethodGet)
	r.HandleFunc("/basins", s.timed("/basins", s.handleBasins)).Methods(http.MethodGet)
	r.HandleFunc("/basins/{name}", s.timed("/basins/{name}", s.handleBasinByName)).Methods(http.MethodGet)
	r.HandleFunc("/basins/{name}/rivers", s.timed("/basins/{name}/rivers", s.handleBasinRivers)).Methods(http.MethodGet)
	r.HandleFunc("/levels/latest", s.timed("/levels/latest", s.handleLatestLevels)).Methods(http.MethodGet)
	r.HandleFunc("/alerts", s.timed("/alerts", s.handleAlerts)).Methods(http.MethodGet)
	r.HandleFunc("/alerts/summary", s.timed("/alerts/summary", s.handleAlertSummary)).Methods(http.MethodGet)
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/readyz", s.handleReady).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

// timed wraps a handler with the per-route duration histogram. The route
// label is the registered pattern, not the concrete path, to keep
// cardinality bounded.
func (s *Server) timed(route string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next(w, r)
		s.metrics.APIDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("response encoding failed", "error", err)
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, errorResponse{Error: message})
}
