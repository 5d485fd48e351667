package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/raysh454/sitebots/internal/app"
	"github.com/raysh454/sitebots/internal/logging"
	"github.com/raysh454/sitebots/internal/metrics"
	"github.com/raysh454/sitebots/internal/ratelimit"
	"github.com/raysh454/sitebots/internal/utils"
	"github.com/raysh454/sitebots/internal/webclient"
)

// maxBodyBytes caps request bodies; the API only accepts a single URL.
const maxBodyBytes = 64 << 10

// Server is the HTTP + WebSocket API surface for sitebots.
type Server struct {
	cfg          Config
	orchestrator *app.Orchestrator
	router       chi.Router
	upgrader     websocket.Upgrader
	logger       logging.Logger
	metrics      *metrics.Metrics
	registry     *prometheus.Registry
	limiter      *ratelimit.Limiter

	// ownedClient is closed on Close when the server built it.
	ownedClient webclient.WebClient
}

// NewServer creates a new Server with its own Orchestrator.
func NewServer(cfg Config) (*Server, error) {
	if cfg.AppConfig == nil {
		cfg.AppConfig = app.DefaultConfig()
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = cfg.AppConfig.Server.Addr
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewStdoutLogger("Server")
	}

	reg := cfg.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := metrics.New(reg)

	wc := cfg.WebClient
	var owned webclient.WebClient
	if wc == nil {
		var err error
		wc, err = webclient.NewWebClient(cfg.AppConfig.WebClient, logger)
		if err != nil {
			return nil, fmt.Errorf("creating webclient: %w", err)
		}
		owned = wc
	}

	orch, err := app.NewOrchestrator(cfg.AppConfig, wc, logger, m, cfg.Options...)
	if err != nil {
		if owned != nil {
			_ = owned.Close()
		}
		return nil, fmt.Errorf("creating orchestrator: %w", err)
	}

	s := &Server{
		cfg:          cfg,
		orchestrator: orch,
		router:       chi.NewRouter(),
		logger:       logger,
		metrics:      m,
		registry:     reg,
		limiter:      ratelimit.New(cfg.AppConfig.Server.RateLimitRPS, cfg.AppConfig.Server.RateLimitBurst),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		ownedClient: owned,
	}

	s.routes()
	return s, nil
}

// Orchestrator returns the underlying orchestrator for advanced use (tests, etc.).
func (s *Server) Orchestrator() *app.Orchestrator {
	return s.orchestrator
}

func (s *Server) routes() {
	r := s.router

	r.Use(s.corsMiddleware)
	r.Use(s.metrics.Middleware)

	// CORS preflight
	r.Options("/analyses", s.optionsHandler("GET, POST"))
	r.Options("/analyses/{jobID}", s.optionsHandler("GET"))
	r.Options("/ws/analyses", s.optionsHandler("GET"))

	r.Get("/healthz", s.handleHealthz)
	r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	r.Group(func(r chi.Router) {
		r.Use(func(next http.Handler) http.Handler {
			return s.limiter.Middleware(s.metrics, next)
		})

		r.Post("/analyses", s.handleStartAnalysis)
		r.Get("/analyses", s.handleListJobs)
		r.Get("/analyses/{jobID}", s.handleGetJob)

		// WebSocket for live bot progress
		r.Get("/ws/analyses", s.handleAnalysisWS)
	})
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Max-Age", "86400")

		next.ServeHTTP(w, r)
	})
}

func (s *Server) optionsHandler(methods string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Methods", methods)
		w.WriteHeader(http.StatusNoContent)
	}
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	fields := []logging.Field{
		{Key: "method", Value: r.Method},
		{Key: "path", Value: r.URL.Path},
	}

	if q := r.URL.Query(); len(q) > 0 {
		fields = append(fields, logging.Field{Key: "query", Value: q})
	}

	if r.Body != nil && r.Method == http.MethodPost {
		if bodyBytes, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes)); err == nil {
			fields = append(fields, logging.Field{Key: "body", Value: string(bodyBytes)})
			r.Body = io.NopCloser(bytes.NewReader(bodyBytes))
		}
	}

	s.logger.Info("http_request", fields...)

	s.router.ServeHTTP(w, r)
}

// Close releases the web client if the server created it. Running jobs are
// left to finish on their own.
func (s *Server) Close() {
	if s.ownedClient != nil {
		if err := s.ownedClient.Close(); err != nil {
			s.logger.Warn("closing webclient", logging.Err(err))
		}
	}
}

// HTTPServer creates an *http.Server ready to ListenAndServe.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:         s.cfg.ListenAddr,
		Handler:      s,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // allow streaming
	}
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := s.HTTPServer()
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("api server started", logging.Field{Key: "addr", Value: srv.Addr})
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down api server: %w", err)
	}
	return nil
}

// --- JSON helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// --- HTTP handlers ---

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
		Jobs:   len(s.orchestrator.ListJobs()),
	})
}

// Jobs (REST)

func (s *Server) handleStartAnalysis(w http.ResponseWriter, r *http.Request) {
	var body AnalyzeRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&body); err != nil {
		s.logger.Warn("decoding start analysis body", logging.Err(err))
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	// Jobs outlive the request; the orchestrator detaches from its cancellation.
	job, err := s.orchestrator.StartAnalysisJob(r.Context(), utils.EnsureScheme(body.URL))
	if err != nil {
		s.logger.Warn("starting analysis job", logging.Err(err))
		if errors.Is(err, app.ErrInvalidURL) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.logger.Info("started analysis job", logging.Field{Key: "job_id", Value: job.ID}, logging.Field{Key: "url", Value: job.URL})
	writeJSON(w, http.StatusAccepted, job)
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job := s.orchestrator.GetJob(jobID)
	if job == nil {
		s.logger.Warn("getting job: not found", logging.Field{Key: "job_id", Value: jobID})
		writeError(w, http.StatusNotFound, "job not found")
		return
	}
	s.logger.Info("got job", logging.Field{Key: "job_id", Value: job.ID})
	writeJSON(w, http.StatusOK, job)
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	jobs := s.orchestrator.ListJobs()
	s.logger.Info("listed jobs", logging.Field{Key: "count", Value: len(jobs)})
	writeJSON(w, http.StatusOK, jobs)
}

// WebSockets

// handleAnalysisWS starts a job for ?url= and streams it: the initial job,
// every job event, then the final job state once the run is over.
func (s *Server) handleAnalysisWS(w http.ResponseWriter, r *http.Request) {
	target := utils.EnsureScheme(r.URL.Query().Get("url"))

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("upgrading to websocket", logging.Err(err))
		return
	}
	defer conn.Close()

	job, err := s.orchestrator.StartAnalysisJob(r.Context(), target)
	if err != nil {
		s.logger.Warn("starting analysis job", logging.Err(err))
		_ = conn.WriteJSON(ErrorResponse{Error: err.Error()})
		return
	}

	s.logger.Info("started analysis job", logging.Field{Key: "job_id", Value: job.ID})
	_ = conn.WriteJSON(job)

	for ev := range job.Events {
		if err := conn.WriteJSON(ev); err != nil {
			// Client went away; the job keeps running and stays queryable.
			s.logger.Debug("websocket write failed", logging.Field{Key: "job_id", Value: job.ID}, logging.Err(err))
			return
		}
	}

	if final := s.orchestrator.GetJob(job.ID); final != nil {
		_ = conn.WriteJSON(final)
	}
	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "done"))
}
