package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/JakeFAU/realtime-job-crawler/internal/crawler"
	"github.com/JakeFAU/realtime-job-crawler/internal/metrics"
	"github.com/JakeFAU/realtime-job-crawler/internal/pipeline"
	"github.com/JakeFAU/realtime-job-crawler/internal/profile"
)

// Runner executes one search.
type Runner interface {
	Execute(ctx context.Context, p crawler.SearchProfile) (pipeline.Result, error)
}

// Publisher hands a finished run to the output sinks.
type Publisher interface {
	Publish(ctx context.Context, summary crawler.RunSummary, records []crawler.JobRecord) (string, error)
}

// LatestRun exposes the most recently stored run.
type LatestRun interface {
	Latest() (string, []crawler.JobRecord, bool)
}

// Config tunes the server.
type Config struct {
	RunTimeout time.Duration
}

// Server wires HTTP handlers to the pipeline.
type Server struct {
	router    chi.Router
	runner    Runner
	publisher Publisher
	latest    LatestRun
	cfg       Config
	logger    *zap.Logger
	busy      atomic.Bool
}

type searchResponse struct {
	Run     crawler.RunSummary  `json:"run"`
	JobsURI string              `json:"jobs_uri,omitempty"`
	Jobs    []crawler.JobRecord `json:"jobs"`
}

type latestResponse struct {
	RunID string              `json:"run_id"`
	Jobs  []crawler.JobRecord `json:"jobs"`
}

// NewServer constructs a Server with middleware and routes. publisher and
// latest may be nil.
func NewServer(runner Runner, publisher Publisher, latest LatestRun, cfg Config, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.RunTimeout <= 0 {
		cfg.RunTimeout = 10 * time.Minute
	}
	s := &Server{
		runner:    runner,
		publisher: publisher,
		latest:    latest,
		cfg:       cfg,
		logger:    logger.Named("api"),
	}

	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoverMiddleware)
	r.Use(metrics.Middleware)

	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)
	r.Handle("/metrics", metrics.Handler())

	r.Route("/v1/searches", func(r chi.Router) {
		r.Post("/", s.runSearch)
		r.Get("/latest", s.latestSearch)
	})

	s.router = r
	return s
}

// Handler returns the router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) readyz(w http.ResponseWriter, _ *http.Request) {
	if s.busy.Load() {
		s.writeJSON(w, http.StatusOK, map[string]string{"status": "running"})
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// runSearch runs one search synchronously. Only one run may be active.
func (s *Server) runSearch(w http.ResponseWriter, r *http.Request) {
	p, err := profile.Decode(http.MaxBytesReader(w, r.Body, 1<<20))
	if err != nil {
		var ve *crawler.ValidationError
		if errors.As(err, &ve) {
			s.writeError(w, http.StatusUnprocessableEntity, ve.Error())
			return
		}
		s.writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	if !s.busy.CompareAndSwap(false, true) {
		s.writeError(w, http.StatusConflict, "a search is already running")
		return
	}
	defer s.busy.Store(false)

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.RunTimeout)
	defer cancel()

	res, err := s.runner.Execute(ctx, p)
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, context.DeadlineExceeded):
			status = http.StatusGatewayTimeout
		case errors.Is(err, context.Canceled):
			status = http.StatusServiceUnavailable
		}
		s.writeError(w, status, err.Error())
		return
	}

	resp := searchResponse{Run: res.Summary, Jobs: res.Records}
	if resp.Jobs == nil {
		resp.Jobs = []crawler.JobRecord{}
	}
	if s.publisher != nil {
		uri, err := s.publisher.Publish(ctx, res.Summary, res.Records)
		if err != nil {
			s.logger.Error("publish run failed", zap.String("run_id", res.Summary.RunID), zap.Error(err))
			s.writeError(w, http.StatusInternalServerError, "run finished but results could not be stored")
			return
		}
		resp.JobsURI = uri
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) latestSearch(w http.ResponseWriter, _ *http.Request) {
	if s.latest == nil {
		s.writeError(w, http.StatusNotFound, "no run stored")
		return
	}
	runID, records, ok := s.latest.Latest()
	if !ok {
		s.writeError(w, http.StatusNotFound, "no run stored")
		return
	}
	if records == nil {
		records = []crawler.JobRecord{}
	}
	s.writeJSON(w, http.StatusOK, latestResponse{RunID: runID, Jobs: records})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("write JSON failed", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}
