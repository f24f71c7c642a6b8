package main

import (
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/SAQLAINAP/Architectural-AI-Gemini/internal/agents"
	"github.com/SAQLAINAP/Architectural-AI-Gemini/internal/gemini"
	"github.com/SAQLAINAP/Architectural-AI-Gemini/internal/jobs"
	"github.com/SAQLAINAP/Architectural-AI-Gemini/internal/orchestrator"
	"github.com/SAQLAINAP/Architectural-AI-Gemini/internal/progress"
	"github.com/SAQLAINAP/Architectural-AI-Gemini/internal/regulation"
	"github.com/SAQLAINAP/Architectural-AI-Gemini/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the generation HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		metrics := server.NewMetrics()

		client, err := gemini.NewClient(gemini.ClientConfig{
			APIKey:      cfg.Gemini.APIKey,
			BaseURL:     cfg.Gemini.BaseURL,
			MaxRetries:  cfg.Gemini.MaxRetries,
			CallTimeout: cfg.Gemini.CallTimeoutDuration(),
			RateLimit:   cfg.Gemini.RateLimitDuration(),
			Logger:      logger,
			Observer:    metrics,
		})
		if err != nil {
			return fmt.Errorf("gemini client: %w", err)
		}

		router := gemini.NewRouter()
		for role, model := range cfg.Models {
			router.Override(gemini.AgentRole(role), model)
		}

		registry := regulation.NewRegistry()
		if path := cfg.Regulation.OverridesPath; path != "" {
			if err := registry.LoadOverrides(path); err != nil {
				logger.Warn("profile overrides not loaded", zap.String("path", path), zap.Error(err))
			}
			if cfg.Regulation.Watch {
				watcher, err := regulation.NewOverrideWatcher(path, registry, logger)
				if err != nil {
					return fmt.Errorf("profile watcher: %w", err)
				}
				if err := watcher.Start(ctx); err != nil {
					return fmt.Errorf("profile watcher: %w", err)
				}
				defer watcher.Stop()
			}
		}

		store := jobs.NewStore(jobs.Config{
			Capacity:      cfg.Jobs.Capacity,
			TTL:           cfg.Jobs.TTLDuration(),
			SweepInterval: cfg.Jobs.SweepIntervalDuration(),
		}, logger)
		store.Start()
		defer store.Stop()

		hub := progress.NewHub(logger)

		deps := agents.Deps{Client: client, Router: router, Logger: logger}
		orch := orchestrator.New(orchestrator.Config{
			MaxIterations: cfg.Generation.MaxIterations,
		}, deps, registry, logger)

		srv, err := server.New(server.Config{
			Host:              cfg.Server.Host,
			Port:              cfg.Server.Port,
			CORSOrigins:       cfg.Server.CORSOrigins,
			MaxConcurrentJobs: cfg.Server.MaxConcurrentJobs,
			PerUserJobs:       cfg.Server.PerUserJobs,
			ShutdownTimeout:   cfg.Server.ShutdownTimeoutDuration(),
			HeartbeatInterval: cfg.Server.HeartbeatIntervalDuration(),
			Version:           version,
		}, server.Deps{
			Logger:    logger,
			Store:     store,
			Hub:       hub,
			Runner:    orch,
			Cost:      agents.NewCostAgent(deps),
			Furniture: agents.NewFurnitureAgent(deps),
			Registry:  registry,
			Metrics:   metrics,
		})
		if err != nil {
			return err
		}

		if err := srv.ListenAndServe(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		logger.Info("server stopped")
		return nil
	},
}
