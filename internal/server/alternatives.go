package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/SAQLAINAP/Architectural-AI-Gemini/internal/jobs"
	"github.com/SAQLAINAP/Architectural-AI-Gemini/internal/plan"
	"github.com/SAQLAINAP/Architectural-AI-Gemini/internal/progress"
)

const maxAlternatives = 5

// defaultStyles seeds style variation when the client does not name its
// own palette.
var defaultStyles = []string{"modern", "traditional", "compact", "open-plan", "courtyard"}

type alternativesRequest struct {
	Config plan.ProjectConfig `json:"config"`
	Count  int                `json:"count,omitempty"`
	Styles []string           `json:"styles,omitempty"`
}

// handleAlternatives runs several style-varied generations under one
// job and one stream. Per-variant progress is wrapped in alternative_*
// events; the job completes with the best-scoring plan.
func (s *Server) handleAlternatives(w http.ResponseWriter, r *http.Request) {
	var req alternativesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	if err := s.validateConfig(req.Config); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	count := req.Count
	if count <= 0 {
		count = 3
	}
	if count > maxAlternatives {
		count = maxAlternatives
	}
	styles := req.Styles
	if len(styles) == 0 {
		styles = defaultStyles
	}

	user := userID(r)
	if s.store.CountActive(user) >= s.cfg.PerUserJobs {
		w.Header().Set("Retry-After", "30")
		s.writeError(w, http.StatusTooManyRequests, "too many active generations for this user")
		return
	}
	// One slot from the global budget covers the whole fan-out; the
	// variants share it rather than multiplying load by count.
	if !s.sem.TryAcquire(1) {
		w.Header().Set("Retry-After", "10")
		s.writeError(w, http.StatusTooManyRequests, "generation capacity exhausted, retry shortly")
		return
	}

	runCtx, cancel := context.WithCancel(s.jobCtx)
	job, err := s.store.Create(user, req.Config, cancel)
	if err != nil {
		cancel()
		s.sem.Release(1)
		s.writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	go s.runAlternatives(runCtx, job, count, styles)

	s.writeJSON(w, http.StatusAccepted, generateResponse{
		JobID:     job.ID,
		Status:    string(job.Status),
		StreamURL: fmt.Sprintf("/api/generate/%s/stream", job.ID),
		StatusURL: fmt.Sprintf("/api/generate/%s/status", job.ID),
	})
}

type alternativeResult struct {
	index int
	style string
	plan  *plan.GeneratedPlan
}

func (s *Server) runAlternatives(ctx context.Context, job jobs.Job, count int, styles []string) {
	defer s.sem.Release(1)

	log := s.logger.With(zap.String("job_id", job.ID), zap.Int("alternatives", count))
	if err := s.store.MarkRunning(job.ID); err != nil {
		log.Warn("job gone before dispatch", zap.Error(err))
		s.hub.CloseJob(job.ID)
		return
	}
	s.metrics.JobStarted()

	var (
		mu      sync.Mutex
		results []alternativeResult
	)

	g, groupCtx := errgroup.WithContext(ctx)
	g.SetLimit(2)
	for i := 0; i < count; i++ {
		index := i
		style := styles[i%len(styles)]
		g.Go(func() error {
			variant := job.Config
			variant.Style = style

			s.hub.Publish(progress.Event{
				Type:  progress.EventAlternativeStart,
				JobID: job.ID,
				Data:  map[string]any{"index": index, "style": style},
			})

			emit := func(ev progress.Event) {
				s.hub.Publish(progress.Event{
					Type:  progress.EventAlternativeProgress,
					JobID: job.ID,
					Data: map[string]any{
						"index": index,
						"type":  ev.Type,
						"data":  ev.Data,
					},
				})
			}

			result, err := s.runner.Run(groupCtx, job.ID, variant, emit)
			if err != nil {
				if errors.Is(err, context.Canceled) {
					return err
				}
				log.Warn("alternative failed", zap.Int("index", index), zap.Error(err))
				s.hub.Publish(progress.Event{
					Type:  progress.EventAlternativeError,
					JobID: job.ID,
					Data:  map[string]any{"index": index, "message": err.Error()},
				})
				return nil // one dead variant does not kill the rest
			}

			s.hub.Publish(progress.Event{
				Type:  progress.EventAlternativeComplete,
				JobID: job.ID,
				Data: map[string]any{
					"index":     index,
					"style":     style,
					"score":     result.Score.Final,
					"converged": result.Converged,
					"plan":      result,
				},
			})
			mu.Lock()
			results = append(results, alternativeResult{index: index, style: style, plan: result})
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		s.finishFailed(job.ID, err, log)
		return
	}
	if len(results) == 0 {
		s.finishFailed(job.ID, errors.New("all alternatives failed"), log)
		return
	}

	best := results[0]
	for _, res := range results[1:] {
		if res.plan.Score.Final > best.plan.Score.Final {
			best = res
		}
	}

	if err := s.store.Complete(job.ID, best.plan); err != nil {
		log.Warn("discarding alternatives for finished job", zap.Error(err))
		s.finishFailed(job.ID, context.Canceled, log)
		return
	}
	s.metrics.JobFinished(string(jobs.StatusCompleted))
	s.metrics.ObserveIterations(best.plan.Iterations)

	s.hub.Publish(progress.Event{
		Type:  progress.EventAlternativesCompleted,
		JobID: job.ID,
		Data: map[string]any{
			"count":     len(results),
			"bestIndex": best.index,
			"bestStyle": best.style,
			"finalPlan": best.plan,
		},
	})
}
