// Package api is the HTTP surface: JSON endpoints for map updates, route
// planning, suggestions, status, and runtime settings.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"eve-wayfinder/internal/catalog"
	"eve-wayfinder/internal/chainmap"
	"eve-wayfinder/internal/config"
	"eve-wayfinder/internal/db"
	"eve-wayfinder/internal/engine"
	"eve-wayfinder/internal/esi"
	"eve-wayfinder/internal/suggest"
)

// Server wires the catalog, route client, planner, and database behind
// the HTTP API.
type Server struct {
	cfg     *config.Config
	catalog *catalog.Catalog
	esi     *esi.Client
	db      *db.DB
	planner *engine.Planner

	// Tracked (pinned) route. The token increases on every replan and on
	// pin changes; an in-flight plan whose token no longer matches is
	// stale and its result is discarded.
	mu      sync.Mutex
	tracked *trackedRoute
	token   uint64
}

// trackedRoute is the pinned origin/destination pair plus its latest plan.
type trackedRoute struct {
	Origin      string
	Destination string
	Plan        *engine.Candidate
	PlannedAt   time.Time
}

// NewServer creates a Server. A pin persisted in cfg is restored but not
// planned yet; the first map update (or RefreshTracked) fills it in.
func NewServer(cfg *config.Config, cat *catalog.Catalog, esiClient *esi.Client, database *db.DB, planner *engine.Planner) *Server {
	s := &Server{
		cfg:     cfg,
		catalog: cat,
		esi:     esiClient,
		db:      database,
		planner: planner,
	}
	if cfg.PinnedOrigin != "" && cfg.PinnedDestination != "" {
		s.tracked = &trackedRoute{Origin: cfg.PinnedOrigin, Destination: cfg.PinnedDestination}
	}
	return s
}

// Handler returns the HTTP handler with all API routes and CORS middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/status", s.handleStatus)
	mux.HandleFunc("GET /api/config", s.handleGetConfig)
	mux.HandleFunc("POST /api/config", s.handleSetConfig)
	mux.HandleFunc("GET /api/systems/suggest", s.handleSuggest)
	mux.HandleFunc("POST /api/map/update", s.handleMapUpdate)
	mux.HandleFunc("POST /api/route/plan", s.handlePlanRoute)
	mux.HandleFunc("POST /api/route/track", s.handleTrack)
	mux.HandleFunc("GET /api/route/tracked", s.handleTracked)
	mux.HandleFunc("DELETE /api/route/track", s.handleUntrack)
	return corsMiddleware(mux)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(204)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	stats := s.planner.Graph().Stats()

	result := map[string]interface{}{
		"catalog_loaded":  s.catalog.Ready(),
		"catalog_systems": s.catalog.Len(),
		"map_systems":     stats.Nodes,
		"map_links":       stats.Links,
		"route_cache":     s.esi.CacheSize(),
		"esi_ok":          s.esi.HealthCheck(r.Context()),
	}
	if err := s.catalog.LastError(); err != nil {
		result["catalog_error"] = err.Error()
	}
	s.mu.Lock()
	result["tracked"] = s.tracked != nil
	s.mu.Unlock()

	writeJSON(w, result)
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.cfg)
}

func (s *Server) handleSetConfig(w http.ResponseWriter, r *http.Request) {
	var patch map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, 400, "invalid json")
		return
	}

	if v, ok := patch["route_preference"]; ok {
		var p string
		if json.Unmarshal(v, &p) == nil {
			if !config.ValidPreference(p) {
				writeError(w, 400, fmt.Sprintf("invalid preference %q", p))
				return
			}
			s.cfg.RoutePreference = strings.ToLower(strings.TrimSpace(p))
		}
	}
	if v, ok := patch["pinned_origin"]; ok {
		json.Unmarshal(v, &s.cfg.PinnedOrigin)
	}
	if v, ok := patch["pinned_destination"]; ok {
		json.Unmarshal(v, &s.cfg.PinnedDestination)
	}
	if v, ok := patch["suggest_limit"]; ok {
		json.Unmarshal(v, &s.cfg.SuggestLimit)
	}

	// Validate bounds
	if s.cfg.SuggestLimit < 1 {
		s.cfg.SuggestLimit = 1
	} else if s.cfg.SuggestLimit > 50 {
		s.cfg.SuggestLimit = 50
	}

	s.db.SaveConfig(s.cfg)
	writeJSON(w, s.cfg)
}

func (s *Server) handleSuggest(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	limit := s.cfg.SuggestLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 50 {
			limit = n
		}
	}

	list := s.planner.Suggest(q, limit)
	if list == nil {
		list = []suggest.Suggestion{}
	}
	writeJSON(w, map[string]interface{}{"query": q, "suggestions": list})
}

func (s *Server) handleMapUpdate(w http.ResponseWriter, r *http.Request) {
	var snap chainmap.Snapshot
	if err := json.NewDecoder(r.Body).Decode(&snap); err != nil {
		writeError(w, 400, "invalid json")
		return
	}

	stats := s.planner.UpdateGraph(snap)
	log.Printf("[API] Map updated: %d systems, %d links (%d dropped)", stats.Nodes, stats.Links, stats.DroppedLinks)

	// The chain changed under the pinned route; replan it off the request.
	go s.RefreshTracked(context.Background())

	writeJSON(w, stats)
}

type planRequest struct {
	Origin      string `json:"origin"`
	Destination string `json:"destination"`
	Preference  string `json:"preference"`
}

func (s *Server) handlePlanRoute(w http.ResponseWriter, r *http.Request) {
	var req planRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, 400, "invalid json")
		return
	}

	start := time.Now()
	c := s.planner.Plan(r.Context(), req.Origin, req.Destination, s.preference(req.Preference))
	if c.Status == engine.StatusOK {
		log.Printf("[API] Plan %s -> %s: %s, %d jumps (%dms)",
			c.Origin, c.Destination, c.Mode, c.Totals.Total, time.Since(start).Milliseconds())
	} else {
		log.Printf("[API] Plan %q -> %q failed: %s", req.Origin, req.Destination, c.Reason)
	}
	writeJSON(w, c)
}

type trackRequest struct {
	Origin      string `json:"origin"`
	Destination string `json:"destination"`
}

func (s *Server) handleTrack(w http.ResponseWriter, r *http.Request) {
	var req trackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, 400, "invalid json")
		return
	}
	origin := strings.TrimSpace(req.Origin)
	destination := strings.TrimSpace(req.Destination)
	if origin == "" || destination == "" {
		writeError(w, 400, "origin and destination are required")
		return
	}

	s.mu.Lock()
	s.tracked = &trackedRoute{Origin: origin, Destination: destination}
	s.mu.Unlock()

	s.cfg.PinnedOrigin = origin
	s.cfg.PinnedDestination = destination
	s.db.SaveConfig(s.cfg)

	// Plan synchronously so the response carries the first result.
	s.RefreshTracked(r.Context())
	writeJSON(w, s.trackedPayload())
}

func (s *Server) handleTracked(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.trackedPayload())
}

func (s *Server) handleUntrack(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.tracked = nil
	s.token++
	s.mu.Unlock()

	s.cfg.PinnedOrigin = ""
	s.cfg.PinnedDestination = ""
	s.db.SaveConfig(s.cfg)

	writeJSON(w, map[string]interface{}{"tracked": false})
}

// RefreshTracked replans the pinned route in the calling goroutine. If a
// newer refresh starts (or the pin changes) while this plan is in flight,
// the result is discarded rather than clobbering the fresher one.
func (s *Server) RefreshTracked(ctx context.Context) {
	s.mu.Lock()
	tr := s.tracked
	if tr == nil {
		s.mu.Unlock()
		return
	}
	origin, destination := tr.Origin, tr.Destination
	s.token++
	token := s.token
	s.mu.Unlock()

	c := s.planner.Plan(ctx, origin, destination, s.preference(""))

	s.mu.Lock()
	defer s.mu.Unlock()
	if token != s.token || s.tracked == nil ||
		s.tracked.Origin != origin || s.tracked.Destination != destination {
		return
	}
	s.tracked.Plan = c
	s.tracked.PlannedAt = time.Now()
}

func (s *Server) trackedPayload() map[string]interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tracked == nil {
		return map[string]interface{}{"tracked": false}
	}
	out := map[string]interface{}{
		"tracked":     true,
		"origin":      s.tracked.Origin,
		"destination": s.tracked.Destination,
	}
	if s.tracked.Plan != nil {
		out["plan"] = s.tracked.Plan
		out["planned_at"] = s.tracked.PlannedAt.UTC().Format(time.RFC3339)
	}
	return out
}

// preference resolves the effective routing preference: the request's
// when given, the configured default otherwise.
func (s *Server) preference(raw string) esi.Preference {
	if strings.TrimSpace(raw) == "" {
		raw = s.cfg.RoutePreference
	}
	return esi.ParsePreference(raw)
}
