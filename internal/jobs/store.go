// Package jobs tracks generation jobs in memory: creation, status
// transitions, cancellation and bounded retention. The store is the
// single source of truth the HTTP surface reads job state from.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/SAQLAINAP/Architectural-AI-Gemini/internal/plan"
)

// ===== STATUS =====

// Status is a job's lifecycle state.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCanceled  Status = "canceled"
)

// Terminal reports whether the status can no longer change.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCanceled:
		return true
	}
	return false
}

var (
	// ErrNotFound means the job id is unknown (or already swept).
	ErrNotFound = errors.New("jobs: job not found")
	// ErrCapacity means the store is full and every held job is running.
	ErrCapacity = errors.New("jobs: store at capacity")
	// ErrTerminal means a transition was attempted on a finished job.
	ErrTerminal = errors.New("jobs: job already in a terminal state")
)

// Job is one generation request's lifecycle record. Store methods return
// copies; mutating a returned Job has no effect on the store.
type Job struct {
	ID        string              `json:"id"`
	UserID    string              `json:"userId"`
	Status    Status              `json:"status"`
	Config    plan.ProjectConfig  `json:"config"`
	Result    *plan.GeneratedPlan `json:"result,omitempty"`
	Error     string              `json:"error,omitempty"`
	CreatedAt time.Time           `json:"createdAt"`
	UpdatedAt time.Time           `json:"updatedAt"`
}

type record struct {
	job    Job
	cancel context.CancelFunc
}

// ===== STORE =====

// Config bounds the store.
type Config struct {
	Capacity      int           `yaml:"capacity"`
	TTL           time.Duration `yaml:"ttl"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
}

// DefaultConfig returns the production bounds: a thousand retained jobs,
// swept after thirty minutes of inactivity.
func DefaultConfig() Config {
	return Config{
		Capacity:      1000,
		TTL:           30 * time.Minute,
		SweepInterval: time.Minute,
	}
}

// Store is the in-memory job table. Expired jobs are dropped lazily on
// every Create and eagerly by a background sweeper; running jobs are
// never dropped, regardless of age.
type Store struct {
	mu     sync.RWMutex
	cfg    Config
	jobs   map[string]*record
	logger *zap.Logger
	now    func() time.Time

	stopCh  chan struct{}
	doneCh  chan struct{}
	running bool
}

// NewStore creates a job store. Zero config fields take defaults.
func NewStore(cfg Config, logger *zap.Logger) *Store {
	def := DefaultConfig()
	if cfg.Capacity <= 0 {
		cfg.Capacity = def.Capacity
	}
	if cfg.TTL <= 0 {
		cfg.TTL = def.TTL
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = def.SweepInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		cfg:    cfg,
		jobs:   make(map[string]*record),
		logger: logger.Named("jobs"),
		now:    time.Now,
	}
}

// Start launches the background sweeper. Safe to call once.
func (s *Store) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	go s.sweepLoop(s.stopCh, s.doneCh)
}

// Stop halts the sweeper and waits for it to exit.
func (s *Store) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	stopCh, doneCh := s.stopCh, s.doneCh
	s.mu.Unlock()

	close(stopCh)
	<-doneCh
}

func (s *Store) sweepLoop(stopCh <-chan struct{}, doneCh chan<- struct{}) {
	defer close(doneCh)
	ticker := time.NewTicker(s.cfg.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			s.mu.Lock()
			swept := s.sweepLocked(s.now())
			s.mu.Unlock()
			if swept > 0 {
				s.logger.Debug("swept expired jobs", zap.Int("count", swept))
			}
		}
	}
}

// Create registers a new pending job for a user. The cancel func is
// invoked if the job is evicted or canceled before it finishes. At
// capacity the oldest non-running job is evicted; if every held job is
// running, ErrCapacity is returned.
func (s *Store) Create(userID string, cfg plan.ProjectConfig, cancel context.CancelFunc) (Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.sweepLocked(now)

	if len(s.jobs) >= s.cfg.Capacity {
		if !s.evictOldestLocked() {
			return Job{}, ErrCapacity
		}
	}

	job := Job{
		ID:        uuid.NewString(),
		UserID:    userID,
		Status:    StatusPending,
		Config:    cfg,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.jobs[job.ID] = &record{job: job, cancel: cancel}
	return job, nil
}

// Get returns a snapshot of a job. A job idle past the TTL reads as
// not-found even if the sweeper has not dropped it yet; running jobs
// never expire.
func (s *Store) Get(id string) (Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.jobs[id]
	if !ok {
		return Job{}, ErrNotFound
	}
	if rec.job.Status != StatusRunning && s.now().Sub(rec.job.UpdatedAt) > s.cfg.TTL {
		return Job{}, ErrNotFound
	}
	return rec.job, nil
}

// MarkRunning transitions a pending job to running.
func (s *Store) MarkRunning(id string) error {
	return s.transition(id, func(j *Job) error {
		if j.Status != StatusPending {
			return fmt.Errorf("cannot start job in state %s", j.Status)
		}
		j.Status = StatusRunning
		return nil
	})
}

// Complete stores the finished plan. Completing a canceled job is a
// lost race: cancellation wins and ErrTerminal is returned.
func (s *Store) Complete(id string, result *plan.GeneratedPlan) error {
	return s.transition(id, func(j *Job) error {
		if j.Status.Terminal() {
			return ErrTerminal
		}
		j.Status = StatusCompleted
		j.Result = result
		return nil
	})
}

// Fail records a job failure.
func (s *Store) Fail(id string, cause error) error {
	return s.transition(id, func(j *Job) error {
		if j.Status.Terminal() {
			return ErrTerminal
		}
		j.Status = StatusFailed
		if cause != nil {
			j.Error = cause.Error()
		}
		return nil
	})
}

// Cancel marks a pending or running job canceled and fires its cancel
// func. Canceling a finished job returns ErrTerminal.
func (s *Store) Cancel(id string) error {
	s.mu.Lock()
	rec, ok := s.jobs[id]
	if !ok {
		s.mu.Unlock()
		return ErrNotFound
	}
	if rec.job.Status.Terminal() {
		s.mu.Unlock()
		return ErrTerminal
	}
	rec.job.Status = StatusCanceled
	rec.job.UpdatedAt = s.now()
	cancel := rec.cancel
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	return nil
}

// CountActive returns how many non-terminal jobs a user holds.
func (s *Store) CountActive(userID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, rec := range s.jobs {
		if rec.job.UserID == userID && !rec.job.Status.Terminal() {
			n++
		}
	}
	return n
}

// CountByStatus returns job counts per status, for metrics.
func (s *Store) CountByStatus() map[Status]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[Status]int, 5)
	for _, rec := range s.jobs {
		out[rec.job.Status]++
	}
	return out
}

// Len returns the number of retained jobs.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.jobs)
}

// ===== INTERNALS =====

func (s *Store) transition(id string, mutate func(*Job) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.jobs[id]
	if !ok {
		return ErrNotFound
	}
	if err := mutate(&rec.job); err != nil {
		return err
	}
	rec.job.UpdatedAt = s.now()
	return nil
}

// sweepLocked drops jobs idle past the TTL. Running jobs are exempt;
// evicted non-terminal jobs get their cancel func fired so orphaned
// goroutines unwind.
func (s *Store) sweepLocked(now time.Time) int {
	swept := 0
	for id, rec := range s.jobs {
		if rec.job.Status == StatusRunning {
			continue
		}
		if now.Sub(rec.job.UpdatedAt) <= s.cfg.TTL {
			continue
		}
		if !rec.job.Status.Terminal() && rec.cancel != nil {
			rec.cancel()
		}
		delete(s.jobs, id)
		swept++
	}
	return swept
}

// evictOldestLocked removes the oldest non-running job to make room.
// Returns false when every job is running.
func (s *Store) evictOldestLocked() bool {
	var oldestID string
	var oldest *record
	for id, rec := range s.jobs {
		if rec.job.Status == StatusRunning {
			continue
		}
		if oldest == nil || rec.job.CreatedAt.Before(oldest.job.CreatedAt) {
			oldestID, oldest = id, rec
		}
	}
	if oldest == nil {
		return false
	}
	if !oldest.job.Status.Terminal() && oldest.cancel != nil {
		oldest.cancel()
	}
	delete(s.jobs, oldestID)
	s.logger.Debug("evicted job to make room",
		zap.String("job_id", oldestID),
		zap.String("status", string(oldest.job.Status)))
	return true
}
