package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/SAQLAINAP/Architectural-AI-Gemini/internal/jobs"
	"github.com/SAQLAINAP/Architectural-AI-Gemini/internal/plan"
	"github.com/SAQLAINAP/Architectural-AI-Gemini/internal/progress"
)

// anonymousUser is the bucket for requests without an X-User-ID header.
// Authentication is out of scope; the header only partitions the
// per-user concurrency cap.
const anonymousUser = "anonymous"

func userID(r *http.Request) string {
	if id := r.Header.Get("X-User-ID"); id != "" {
		return id
	}
	return anonymousUser
}

// ===== GENERATE =====

type generateResponse struct {
	JobID     string `json:"jobId"`
	Status    string `json:"status"`
	StreamURL string `json:"streamUrl"`
	StatusURL string `json:"statusUrl"`
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var cfg plan.ProjectConfig
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	if err := s.validateConfig(cfg); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if cfg.Location.Authority != "" && !s.registry.Known(cfg.Location.Authority) {
		s.logger.Warn("unknown municipal authority, using national profile",
			zap.String("authority", cfg.Location.Authority))
	}

	user := userID(r)
	if s.store.CountActive(user) >= s.cfg.PerUserJobs {
		w.Header().Set("Retry-After", "30")
		s.writeError(w, http.StatusTooManyRequests, "too many active generations for this user")
		return
	}
	if !s.sem.TryAcquire(1) {
		w.Header().Set("Retry-After", "10")
		s.writeError(w, http.StatusTooManyRequests, "generation capacity exhausted, retry shortly")
		return
	}

	runCtx, cancel := context.WithCancel(s.jobCtx)
	job, err := s.store.Create(user, cfg, cancel)
	if err != nil {
		cancel()
		s.sem.Release(1)
		s.writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	go s.runJob(runCtx, job)

	s.writeJSON(w, http.StatusAccepted, generateResponse{
		JobID:     job.ID,
		Status:    string(job.Status),
		StreamURL: fmt.Sprintf("/api/generate/%s/stream", job.ID),
		StatusURL: fmt.Sprintf("/api/generate/%s/status", job.ID),
	})
}

// validateConfig applies the struct tags plus the cross-field checks
// tags cannot express.
func (s *Server) validateConfig(cfg plan.ProjectConfig) error {
	if err := s.validate.Struct(cfg); err != nil {
		return fmt.Errorf("invalid project config: %w", err)
	}
	if cfg.Budget.Min < 0 || cfg.Budget.Max < 0 || (cfg.Budget.Max > 0 && cfg.Budget.Min > cfg.Budget.Max) {
		return errors.New("invalid project config: budget range is inverted")
	}
	return nil
}

// runJob drives one orchestration and lands its outcome in both the job
// store and the progress stream.
func (s *Server) runJob(ctx context.Context, job jobs.Job) {
	defer s.sem.Release(1)

	log := s.logger.With(zap.String("job_id", job.ID), zap.String("user_id", job.UserID))
	if err := s.store.MarkRunning(job.ID); err != nil {
		// Canceled or evicted between accept and dispatch.
		log.Warn("job gone before dispatch", zap.Error(err))
		s.hub.CloseJob(job.ID)
		return
	}
	s.metrics.JobStarted()

	result, err := s.runner.Run(ctx, job.ID, job.Config, s.hub.Publish)
	if err != nil {
		s.finishFailed(job.ID, err, log)
		return
	}

	if err := s.store.Complete(job.ID, result); err != nil {
		// Cancellation won the race; the store keeps the canceled status.
		log.Warn("discarding result for finished job", zap.Error(err))
		s.finishFailed(job.ID, context.Canceled, log)
		return
	}
	s.metrics.JobFinished(string(jobs.StatusCompleted))
	s.metrics.ObserveIterations(result.Iterations)
	log.Info("generation completed",
		zap.Float64("score", result.Score.Final),
		zap.Bool("converged", result.Converged),
		zap.Int("iterations", result.Iterations))

	s.hub.Publish(progress.Event{
		Type:  progress.EventCompleted,
		JobID: job.ID,
		Data: map[string]any{
			"finalPlan":  result,
			"finalScore": result.Score.Final,
			"converged":  result.Converged,
			"iterations": result.Iterations,
		},
	})
}

// finishFailed records a failure (or cancellation) and emits the
// terminal error event.
func (s *Server) finishFailed(jobID string, cause error, log *zap.Logger) {
	canceled := errors.Is(cause, context.Canceled)
	if canceled {
		cause = errors.New("generation canceled")
	}

	if err := s.store.Fail(jobID, cause); err != nil && !errors.Is(err, jobs.ErrTerminal) {
		log.Warn("could not record job failure", zap.Error(err))
	}
	status := jobs.StatusFailed
	if j, err := s.store.Get(jobID); err == nil {
		status = j.Status
	}
	s.metrics.JobFinished(string(status))
	log.Warn("generation failed", zap.Error(cause), zap.String("status", string(status)))

	s.hub.Publish(progress.Event{
		Type:  progress.EventError,
		JobID: jobID,
		Data: map[string]any{
			"message":  cause.Error(),
			"canceled": canceled,
		},
	})
}

// ===== STATUS / CANCEL / HEALTH =====

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	job, err := s.store.Get(chi.URLParam(r, "jobID"))
	if err != nil {
		s.writeError(w, http.StatusNotFound, "unknown job")
		return
	}
	s.writeJSON(w, http.StatusOK, job)
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "jobID")
	err := s.store.Cancel(id)
	switch {
	case errors.Is(err, jobs.ErrNotFound):
		s.writeError(w, http.StatusNotFound, "unknown job")
		return
	case errors.Is(err, jobs.ErrTerminal):
		// Already finished; canceling is a no-op.
	case err != nil:
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	job, getErr := s.store.Get(id)
	if getErr != nil {
		s.writeError(w, http.StatusNotFound, "unknown job")
		return
	}
	s.writeJSON(w, http.StatusAccepted, map[string]any{
		"jobId":  job.ID,
		"status": job.Status,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":        "ok",
		"version":       s.cfg.Version,
		"uptimeSeconds": int(time.Since(s.startedAt).Seconds()),
		"timestamp":     time.Now().UTC().Format(time.RFC3339),
	})
}

// ===== RESPONSE HELPERS =====

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("response write failed", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]any{"error": msg})
}
