package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"moneyline-tracker/internal/query"
	"moneyline-tracker/internal/stats"
	"moneyline-tracker/internal/store"
)

const requestTimeout = 5 * time.Second

// Server is the JSON read surface: games, teams and win-rate statistics.
// It only ever reads; failures degrade to empty results, never a crash.
type Server struct {
	store      store.Store
	analyzer   *stats.Analyzer
	translator query.Translator // nil when the capability is not configured
	schema     query.Schema
}

// New creates a server. translator may be nil.
func New(st store.Store, analyzer *stats.Analyzer, translator query.Translator, schema query.Schema) *Server {
	return &Server{
		store:      st,
		analyzer:   analyzer,
		translator: translator,
		schema:     schema,
	}
}

// Router builds the chi router with all routes mounted.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(30 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/games", s.handleGames)
		r.Get("/teams", s.handleTeams)
		r.Get("/stats/{team}", s.handleStats)
		r.Post("/query", s.handleQuery)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC(),
	})
}

// handleGames lists games with optional filters.
// Query params: team, sport, league, status, winner, from, to, limit, sort.
func (s *Server) handleGames(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	q := r.URL.Query()
	spec := query.Spec{
		Team:     q.Get("team"),
		Sport:    q.Get("sport"),
		League:   q.Get("league"),
		Status:   q.Get("status"),
		Winner:   q.Get("winner"),
		SortDesc: q.Get("sort") == "desc",
	}

	if v := q.Get("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid from: %v", err))
			return
		}
		spec.From = &t
	}
	if v := q.Get("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid to: %v", err))
			return
		}
		spec.To = &t
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		spec.Limit = n
	}

	if err := spec.Validate(s.schema); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.respondGames(ctx, w, spec)
}

func (s *Server) handleTeams(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	teams, err := s.store.Teams(ctx)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list teams")
		return
	}
	if teams == nil {
		teams = []string{}
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"teams": teams,
		"count": len(teams),
	})
}

// handleStats computes win-rate statistics for a team.
// Query param as_of (RFC 3339) bounds the games considered.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	team := chi.URLParam(r, "team")
	if team == "" {
		respondError(w, http.StatusBadRequest, "team is required")
		return
	}

	var asOf *time.Time
	if v := r.URL.Query().Get("as_of"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid as_of: %v", err))
			return
		}
		asOf = &t
	}

	result, err := s.analyzer.Compute(ctx, team, asOf)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to compute stats")
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// handleQuery translates a free-text question into a validated query spec
// and runs it. Returns 503 when no translator is configured.
func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	if s.translator == nil {
		respondError(w, http.StatusServiceUnavailable, "query translation is not configured")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	var body struct {
		Q string `json:"q"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Q == "" {
		respondError(w, http.StatusBadRequest, "body must be {\"q\": \"...\"}")
		return
	}

	spec, err := s.translator.Translate(ctx, body.Q)
	if err != nil {
		respondError(w, http.StatusBadGateway, "translation failed")
		return
	}

	// Translator output is untrusted; reject anything outside the schema.
	if err := spec.Validate(s.schema); err != nil {
		respondError(w, http.StatusUnprocessableEntity, fmt.Sprintf("translated query rejected: %v", err))
		return
	}

	s.respondGames(ctx, w, spec)
}

func (s *Server) respondGames(ctx context.Context, w http.ResponseWriter, spec query.Spec) {
	games, err := s.store.Games(ctx, spec.Filters())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to query games")
		return
	}
	if games == nil {
		games = []store.GameRecord{}
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"games": games,
		"count": len(games),
	})
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
