// Package server is the HTTP surface over the generation pipeline:
// job submission, SSE progress streaming, status polling, cancellation,
// the thin estimate/furniture wrappers and the alternatives fan-out.
// Everything stateful lives in the injected job store and progress hub;
// the server itself only enforces transport concerns (validation,
// concurrency caps, graceful shutdown).
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/SAQLAINAP/Architectural-AI-Gemini/internal/agents"
	"github.com/SAQLAINAP/Architectural-AI-Gemini/internal/jobs"
	"github.com/SAQLAINAP/Architectural-AI-Gemini/internal/orchestrator"
	"github.com/SAQLAINAP/Architectural-AI-Gemini/internal/plan"
	"github.com/SAQLAINAP/Architectural-AI-Gemini/internal/progress"
	"github.com/SAQLAINAP/Architectural-AI-Gemini/internal/regulation"
)

// Config bounds the HTTP surface.
type Config struct {
	Host              string        `yaml:"host"`
	Port              int           `yaml:"port"`
	CORSOrigins       []string      `yaml:"cors_origins"`
	MaxConcurrentJobs int           `yaml:"max_concurrent_jobs"`
	PerUserJobs       int           `yaml:"per_user_jobs"`
	ShutdownTimeout   time.Duration `yaml:"shutdown_timeout"`
	HeartbeatInterval time.Duration `yaml:"heartbeat_interval"`
	Version           string        `yaml:"-"`
}

// DefaultConfig returns the production transport bounds.
func DefaultConfig() Config {
	return Config{
		Host:              "0.0.0.0",
		Port:              8080,
		CORSOrigins:       []string{"*"},
		MaxConcurrentJobs: 8,
		PerUserJobs:       2,
		ShutdownTimeout:   10 * time.Second,
		HeartbeatInterval: 15 * time.Second,
	}
}

// Runner executes one generation pipeline. Satisfied by
// *orchestrator.Orchestrator; tests script it.
type Runner interface {
	Run(ctx context.Context, jobID string, cfg plan.ProjectConfig, emit orchestrator.EmitFunc) (*plan.GeneratedPlan, error)
}

// CostEstimator prices a posted layout for the /api/estimate wrapper.
type CostEstimator interface {
	Execute(ctx context.Context, in agents.CostInput) (agents.CostEstimate, agents.Metadata, error)
}

// FurniturePlacer furnishes a posted layout for the /api/furniture
// wrapper.
type FurniturePlacer interface {
	Execute(ctx context.Context, in agents.FurnitureInput) ([]plan.RoomFurniture, agents.Metadata, error)
}

// Deps are the collaborators the server is built from.
type Deps struct {
	Logger    *zap.Logger
	Store     *jobs.Store
	Hub       *progress.Hub
	Runner    Runner
	Cost      CostEstimator
	Furniture FurniturePlacer
	Registry  *regulation.Registry
	Metrics   *Metrics
}

// Server wires the transport. Construct with New, serve with
// ListenAndServe, embed elsewhere via Handler.
type Server struct {
	cfg      Config
	logger   *zap.Logger
	store    *jobs.Store
	hub      *progress.Hub
	runner   Runner
	cost     CostEstimator
	furnish  FurniturePlacer
	registry *regulation.Registry
	metrics  *Metrics
	validate *validator.Validate
	sem      *semaphore.Weighted

	jobCtx     context.Context
	cancelJobs context.CancelFunc
	startedAt  time.Time
}

// New builds a server. Store, Hub and Runner are required; the rest
// default to inert implementations.
func New(cfg Config, deps Deps) (*Server, error) {
	if deps.Store == nil || deps.Hub == nil || deps.Runner == nil {
		return nil, fmt.Errorf("server: store, hub and runner are required")
	}
	def := DefaultConfig()
	if cfg.Port <= 0 {
		cfg.Port = def.Port
	}
	if len(cfg.CORSOrigins) == 0 {
		cfg.CORSOrigins = def.CORSOrigins
	}
	if cfg.MaxConcurrentJobs <= 0 {
		cfg.MaxConcurrentJobs = def.MaxConcurrentJobs
	}
	if cfg.PerUserJobs <= 0 {
		cfg.PerUserJobs = def.PerUserJobs
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = def.ShutdownTimeout
	}
	if cfg.HeartbeatInterval <= 0 {
		cfg.HeartbeatInterval = def.HeartbeatInterval
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Registry == nil {
		deps.Registry = regulation.NewRegistry()
	}
	if deps.Metrics == nil {
		deps.Metrics = NewMetrics()
	}

	jobCtx, cancel := context.WithCancel(context.Background())
	return &Server{
		cfg:        cfg,
		logger:     deps.Logger.Named("server"),
		store:      deps.Store,
		hub:        deps.Hub,
		runner:     deps.Runner,
		cost:       deps.Cost,
		furnish:    deps.Furniture,
		registry:   deps.Registry,
		metrics:    deps.Metrics,
		validate:   validator.New(),
		sem:        semaphore.NewWeighted(int64(cfg.MaxConcurrentJobs)),
		jobCtx:     jobCtx,
		cancelJobs: cancel,
		startedAt:  time.Now(),
	}, nil
}

// Handler builds the chi router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-User-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/api/health", s.handleHealth)
	r.Handle("/metrics", promhttp.HandlerFor(s.metrics.Registry(), promhttp.HandlerOpts{}))

	r.Route("/api", func(r chi.Router) {
		r.Post("/generate", s.handleGenerate)
		r.Get("/generate/{jobID}/stream", s.handleStream)
		r.Get("/generate/{jobID}/status", s.handleStatus)
		r.Post("/generate/{jobID}/cancel", s.handleCancel)
		r.Post("/generate-alternatives", s.handleAlternatives)
		r.Post("/estimate", s.handleEstimate)
		r.Post("/furniture", s.handleFurniture)
	})
	return r
}

// ListenAndServe runs the HTTP server until ctx is canceled, then shuts
// down gracefully: stop accepting, cancel running jobs, drain within the
// shutdown timeout.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", zap.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		s.cancelJobs()
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down", zap.Duration("timeout", s.cfg.ShutdownTimeout))
	s.cancelJobs()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
