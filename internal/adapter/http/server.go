package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/quake-map-service/internal/mapview"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// errNoSnapshot is reported by the API routes before the first load.
var errNoSnapshot = errors.New("earthquake data not loaded yet")

// SnapshotSource provides the map snapshot currently being served.
type SnapshotSource interface {
	Current() *mapview.Snapshot
	LastError() error
	CheckReadiness(ctx context.Context) error
}

// Server serves the map page, its JSON API, and health, readiness and
// metrics endpoints.
type Server struct {
	httpServer *http.Server
	source     SnapshotSource
	composer   *mapview.Composer
	logger     *slog.Logger
}

// NewServer creates an HTTP server. composer supplies the page's view and
// layers and the legend before any data has loaded.
func NewServer(addr string, source SnapshotSource, composer *mapview.Composer, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		source:   source,
		composer: composer,
		logger:   logger,
	}

	mux.HandleFunc("GET /{$}", s.handlePage)
	mux.HandleFunc("GET /api/map", s.handleMap)
	mux.HandleFunc("GET /api/markers", s.handleMarkers)
	mux.HandleFunc("GET /api/heat", s.handleHeat)
	mux.HandleFunc("GET /api/legend", s.handleLegend)
	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(source))
	mux.Handle("GET /metrics", promhttp.Handler())

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

func (s *Server) handlePage(w http.ResponseWriter, _ *http.Request) {
	var buf bytes.Buffer
	data := s.composer.PageData(s.source.Current(), s.source.LastError())
	if err := mapview.RenderPage(&buf, data); err != nil {
		s.logger.Error("render page failed", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes()) //nolint:errcheck // client went away
}

func (s *Server) handleMap(w http.ResponseWriter, _ *http.Request) {
	snap, ok := s.snapshot(w)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, snap.View)
}

func (s *Server) handleMarkers(w http.ResponseWriter, _ *http.Request) {
	snap, ok := s.snapshot(w)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(mapview.MarkersGeoJSON(snap.View.Markers)) //nolint:errcheck // client went away
}

func (s *Server) handleHeat(w http.ResponseWriter, _ *http.Request) {
	snap, ok := s.snapshot(w)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, snap.View.HeatPoints)
}

func (s *Server) handleLegend(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.composer.Legend())
}

// snapshot returns the current snapshot or writes a 503 and reports false.
func (s *Server) snapshot(w http.ResponseWriter) (*mapview.Snapshot, bool) {
	snap := s.source.Current()
	if snap != nil {
		return snap, true
	}
	body := map[string]string{"status": "not ready", "error": errNoSnapshot.Error()}
	if err := s.source.LastError(); err != nil {
		body["error"] = err.Error()
	}
	writeJSON(w, http.StatusServiceUnavailable, body)
	return nil, false
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
