// internal/httpserver/server.go
//
// HTTP server wiring for the Heatstack backend.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs,
//     per-client rate limiting on mutating routes).
//   - Public endpoints: "/", "/health", "/modifiers".
//   - Run endpoints (optional auth): /runs/* plus the /runs/{id}/ws channel.
//   - Daily endpoints (optional auth): mounted under /daily.
//   - Auth + stats endpoints: /auth/*, /stats/me.
//
// Notes:
//   - CORS is origin-aware and credentials-enabled (so cookies work).
//   - Guests are identified by an anonymous cookie; a valid JWT takes
//     precedence when present.
//   - The WebSocket route is registered outside the timeout group because a
//     hijacked connection outlives the request deadline.

package httpserver

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/heatstack/internal/daily"
	"github.com/robalobadob/heatstack/internal/game"
	"github.com/robalobadob/heatstack/internal/modifiers"
	"github.com/robalobadob/heatstack/internal/stats"
	"github.com/robalobadob/heatstack/internal/store"
)

// Server bundles router, run store, engine and persistence collaborators.
type Server struct {
	r       *chi.Mux
	store   store.Store
	db      *sql.DB
	engine  *game.Engine
	daily   *daily.Store
	stats   *stats.Recorder
	limiter *limiter
}

// New constructs a Server, installs middleware, and registers routes.
func New(st store.Store, db *sql.DB, eng *game.Engine) *Server {
	s := &Server{
		r:       chi.NewRouter(),
		store:   st,
		db:      db,
		engine:  eng,
		daily:   daily.NewStore(db),
		stats:   stats.NewRecorder(stats.NewSQLStore(db), eng.Clock, eng.Zone),
		limiter: newLimiter(envInt("RATE_LIMIT_RPS", 20), envInt("RATE_LIMIT_BURST", 40)),
	}

	// --- middleware ---
	s.r.Use(chimw.RequestID) // add X-Request-ID
	s.r.Use(chimw.RealIP)    // set RemoteAddr from X-Forwarded-For etc.
	s.r.Use(chimw.Recoverer) // recover from panics
	s.r.Use(corsFromEnv)     // credentials-friendly CORS

	// Live run channel; no handler timeout.
	s.r.With(s.withOptionalAuth()).Get("/runs/{id}/ws", s.handleRunSocket)

	s.r.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(10 * time.Second)) // bound handler time
		r.Use(jsonContentType)                 // default JSON responses

		// --- diagnostics ---
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"service":"heatstack","endpoints":["/health","/modifiers","/daily/*","/runs/*","/auth/*"]}`))
		})
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"ok":true}`))
		})
		r.Get("/modifiers", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, modifiers.All())
		})

		// Runs: OPTIONAL AUTH (guests can play)
		s.mountRuns(r.With(s.withOptionalAuth()))

		// Daily: OPTIONAL AUTH (lock state is per player)
		s.mountDaily(r.With(s.withOptionalAuth()))

		// Auth + stats
		s.mountAuthRoutes(r)

		// JSON 404 for easier debugging
		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			writeError(w, http.StatusNotFound, "not_found", r.URL.Path)
		})
	})

	return s
}

// Start begins serving HTTP on addr and sweeps idle runs and rate-limit
// buckets in the background.
func (s *Server) Start(addr string) error {
	ttl := time.Duration(envInt("RUN_IDLE_MINUTES", 120)) * time.Minute
	go s.sweepLoop(context.Background(), time.Minute, ttl)
	return http.ListenAndServe(addr, s.r)
}

// sweepLoop calls sweep every period until ctx ends.
func (s *Server) sweepLoop(ctx context.Context, period, ttl time.Duration) {
	t := time.NewTicker(period)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			s.sweep(ctx, now.Add(-ttl))
		}
	}
}

// sweep drops runs and limiter buckets idle since before.
func (s *Server) sweep(ctx context.Context, before time.Time) {
	runs, err := s.store.Sweep(ctx, before)
	if err != nil {
		log.Warn().Err(err).Msg("sweep runs")
	}
	clients := s.limiter.sweep(before)
	if runs > 0 || clients > 0 {
		log.Debug().Int("runs", runs).Int("clients", clients).Msg("swept idle entries")
	}
}

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// corsFromEnv enables credentialed CORS for a single origin.
// Uses CLIENT_ORIGIN env var; defaults to http://localhost:5173.
func corsFromEnv(next http.Handler) http.Handler {
	origin := getEnv("CLIENT_ORIGIN", "http://localhost:5173")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Credentials", "true")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,DELETE,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ------------------------------- responses ---------------------------------

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Run     any    `json:"run,omitempty"`
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, errorBody{Error: code, Message: msg})
}

// ------------------------------- small util --------------------------------

// getEnv returns the value of k or def if unset/empty.
func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

// envInt reads an integer env var, falling back to def when unset or invalid.
func envInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
