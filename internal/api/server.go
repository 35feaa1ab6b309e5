package api

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"adscope/app"
	"adscope/domain/analysis"
	"adscope/domain/core"
	"adscope/ports"
)

// Server exposes analysis runs over HTTP. Runs execute synchronously
// inside the request because each run owns a single-threaded pipeline
// context; callers wanting fire-and-forget can poll the run list.
type Server struct {
	orchestrator *app.Orchestrator
	store        ports.RunStore
	router       chi.Router
}

// NewServer wires routes for run creation and inspection.
func NewServer(orchestrator *app.Orchestrator, store ports.RunStore) *Server {
	s := &Server{
		orchestrator: orchestrator,
		store:        store,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(10 * time.Minute))

	r.Route("/runs", func(r chi.Router) {
		r.Post("/", s.handleCreateRun)
		r.Get("/", s.handleListRuns)
		r.Route("/{runID}", func(r chi.Router) {
			r.Get("/", s.handleGetRun)
			r.Get("/report", s.handleGetReport)
			r.Get("/trace", s.handleGetTrace)
		})
	})
	r.Get("/healthz", s.handleHealth)

	s.router = r
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

type createRunRequest struct {
	Query string `json:"query"`
}

// runSummary is the list-view projection of a run.
type runSummary struct {
	RunID           string            `json:"run_id"`
	Query           string            `json:"query"`
	State           analysis.RunState `json:"state"`
	StartedAt       core.Timestamp    `json:"started_at"`
	Hypotheses      int               `json:"hypotheses"`
	Findings        int               `json:"actionable_findings"`
	Recommendations int               `json:"recommendations"`
}

func (s *Server) handleCreateRun(w http.ResponseWriter, r *http.Request) {
	var req createRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}

	run, runErr := s.orchestrator.Run(r.Context(), req.Query)
	if run != nil {
		if err := s.store.SaveRun(r.Context(), run); err != nil {
			log.Printf("[API] failed to save run %s: %v", run.RunID, err)
		}
	}
	if runErr != nil && run != nil && run.State == analysis.StateHalted {
		// Halted runs are persisted and reported, not hidden behind a 500.
		writeJSON(w, http.StatusUnprocessableEntity, run)
		return
	}
	if runErr != nil {
		writeError(w, http.StatusInternalServerError, runErr.Error())
		return
	}

	writeJSON(w, http.StatusCreated, run)
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	runs, err := s.store.ListRuns(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	summaries := make([]runSummary, 0, len(runs))
	for _, run := range runs {
		summaries = append(summaries, runSummary{
			RunID:           run.RunID.String(),
			Query:           run.Query,
			State:           run.State,
			StartedAt:       run.StartedAt,
			Hypotheses:      len(run.Hypotheses),
			Findings:        len(run.Findings),
			Recommendations: len(run.Recommendations),
		})
	}
	writeJSON(w, http.StatusOK, summaries)
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	run, ok := s.loadRun(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	run, ok := s.loadRun(w, r)
	if !ok {
		return
	}

	md := app.RenderMarkdown(run)
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs | parser.Tables)
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags | html.CompletePage})
	page := markdown.ToHTML([]byte(md), p, renderer)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(page)
}

func (s *Server) handleGetTrace(w http.ResponseWriter, r *http.Request) {
	run, ok := s.loadRun(w, r)
	if !ok {
		return
	}

	trace, err := run.Trace.ExportJSONL()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/x-ndjson")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(trace))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) loadRun(w http.ResponseWriter, r *http.Request) (*analysis.Context, bool) {
	id, err := core.ParseRunID(chi.URLParam(r, "runID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid run id")
		return nil, false
	}
	run, err := s.store.GetRun(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return nil, false
	}
	return run, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[API] failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
