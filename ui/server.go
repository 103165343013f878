// Package ui exposes the simulator over HTTP: trigger runs, fetch archived
// results, and render run reports.
package ui

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/semaphore"

	"dendrosim/domain/core"
	"dendrosim/domain/series"
	sim "dendrosim/domain/simulation"
	"dendrosim/internal"
	"dendrosim/internal/errors"
	"dendrosim/internal/report"
	"dendrosim/internal/simulation"
	"dendrosim/ports"
)

// Server hosts the simulation API.
type Server struct {
	router       *chi.Mux
	orchestrator *simulation.Orchestrator
	climate      *series.Matrix
	repo         ports.RunRepository // nil when no archive is configured
	logger       *internal.Logger

	// Bounds concurrent simulations; a run holds a full replicate set in
	// memory, so unbounded parallel requests would exhaust it.
	runSem *semaphore.Weighted
}

// Config holds server configuration.
type Config struct {
	MaxConcurrentRuns int64
}

// NewServer wires the API around a loaded climate matrix. repo may be nil.
func NewServer(cfg Config, orchestrator *simulation.Orchestrator, climate *series.Matrix, repo ports.RunRepository, logger *internal.Logger) *Server {
	if cfg.MaxConcurrentRuns <= 0 {
		cfg.MaxConcurrentRuns = 2
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}

	s := &Server{
		router:       chi.NewRouter(),
		orchestrator: orchestrator,
		climate:      climate,
		repo:         repo,
		logger:       logger,
		runSem:       semaphore.NewWeighted(cfg.MaxConcurrentRuns),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
}

func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)
	s.router.Post("/api/runs", s.handleSimulate)
	s.router.Get("/api/runs", s.handleListRuns)
	s.router.Get("/api/runs/{id}", s.handleGetRun)
	s.router.Get("/api/runs/{id}/report", s.handleRunReport)
}

// Handler returns the HTTP handler for mounting.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleSimulate runs a simulation with the posted parameters against the
// server's climate matrix and archives the result when a repository is
// configured.
func (s *Server) handleSimulate(w http.ResponseWriter, r *http.Request) {
	var params sim.Params
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		s.writeError(w, errors.InvalidParameter("request body is not valid parameter JSON"))
		return
	}

	if !s.runSem.TryAcquire(1) {
		s.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "simulation capacity exhausted, retry later"})
		return
	}
	defer s.runSem.Release(1)

	run, err := s.orchestrator.Run(r.Context(), s.climate, params)
	if err != nil {
		s.writeError(w, err)
		return
	}

	if s.repo != nil {
		if err := s.repo.SaveRun(r.Context(), run); err != nil {
			s.logger.Error("failed to archive run %s: %v", run.ID, err)
		}
	}

	s.writeJSON(w, http.StatusOK, run)
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if s.repo == nil {
		s.writeError(w, errors.NotFound("run archive"))
		return
	}
	runs, err := s.repo.ListRuns(r.Context(), 50)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, runs)
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.loadRun(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, run)
}

// handleRunReport renders an archived run as an HTML report.
func (s *Server) handleRunReport(w http.ResponseWriter, r *http.Request) {
	run, err := s.loadRun(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	html, err := report.HTML(run)
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(html)
}

func (s *Server) loadRun(r *http.Request) (*sim.Run, error) {
	if s.repo == nil {
		return nil, errors.NotFound("run archive")
	}
	id, err := core.ParseRunID(chi.URLParam(r, "id"))
	if err != nil {
		return nil, errors.InvalidParameter(err.Error())
	}
	return s.repo.GetRun(r.Context(), id)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch errors.GetCode(err) {
	case errors.CodeInvalidParameter, errors.CodeNumericDomain:
		status = http.StatusBadRequest
	case errors.CodeNotFound:
		status = http.StatusNotFound
	}
	s.logger.Warn("request failed (%d): %v", status, err)
	s.writeJSON(w, status, map[string]string{
		"error": err.Error(),
		"code":  errors.GetCode(err),
	})
}
