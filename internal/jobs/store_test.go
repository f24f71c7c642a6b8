package jobs

import (
	"errors"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/SAQLAINAP/Architectural-AI-Gemini/internal/plan"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func testStore(capacity int) *Store {
	return NewStore(Config{Capacity: capacity, TTL: 30 * time.Minute, SweepInterval: time.Hour}, nil)
}

func setClock(s *Store, t time.Time) {
	s.mu.Lock()
	s.now = func() time.Time { return t }
	s.mu.Unlock()
}

func mustCreate(t *testing.T, s *Store, userID string) Job {
	t.Helper()
	job, err := s.Create(userID, plan.ProjectConfig{PlotWidth: 10, PlotLength: 12}, func() {})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return job
}

func TestJobLifecycle(t *testing.T) {
	s := testStore(10)
	job := mustCreate(t, s, "u1")

	if job.Status != StatusPending {
		t.Fatalf("new job status = %s, want pending", job.Status)
	}
	if job.ID == "" {
		t.Fatal("job id not assigned")
	}

	if err := s.MarkRunning(job.ID); err != nil {
		t.Fatalf("MarkRunning: %v", err)
	}
	got, err := s.Get(job.ID)
	if err != nil || got.Status != StatusRunning {
		t.Fatalf("after MarkRunning: job %+v, err %v", got, err)
	}

	result := &plan.GeneratedPlan{TotalArea: 120}
	if err := s.Complete(job.ID, result); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	got, _ = s.Get(job.ID)
	if got.Status != StatusCompleted || got.Result == nil || got.Result.TotalArea != 120 {
		t.Fatalf("after Complete: %+v", got)
	}
}

func TestJobFail(t *testing.T) {
	s := testStore(10)
	job := mustCreate(t, s, "u1")
	_ = s.MarkRunning(job.ID)

	if err := s.Fail(job.ID, errors.New("spatial generation: chain exhausted")); err != nil {
		t.Fatalf("Fail: %v", err)
	}
	got, _ := s.Get(job.ID)
	if got.Status != StatusFailed || got.Error == "" {
		t.Fatalf("after Fail: %+v", got)
	}
}

func TestTransitionGuards(t *testing.T) {
	s := testStore(10)
	job := mustCreate(t, s, "u1")
	_ = s.MarkRunning(job.ID)
	_ = s.Complete(job.ID, nil)

	if err := s.MarkRunning(job.ID); err == nil {
		t.Error("MarkRunning on completed job must fail")
	}
	if err := s.Fail(job.ID, errors.New("late")); !errors.Is(err, ErrTerminal) {
		t.Errorf("Fail on completed job = %v, want ErrTerminal", err)
	}
	if err := s.Complete(job.ID, nil); !errors.Is(err, ErrTerminal) {
		t.Errorf("Complete twice = %v, want ErrTerminal", err)
	}
	if _, err := s.Get("nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get unknown = %v, want ErrNotFound", err)
	}
}

func TestCancelFiresCancelFunc(t *testing.T) {
	s := testStore(10)
	fired := make(chan struct{})
	job, err := s.Create("u1", plan.ProjectConfig{PlotWidth: 10, PlotLength: 12}, func() { close(fired) })
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	_ = s.MarkRunning(job.ID)

	if err := s.Cancel(job.ID); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	select {
	case <-fired:
	default:
		t.Fatal("cancel func not fired")
	}

	got, _ := s.Get(job.ID)
	if got.Status != StatusCanceled {
		t.Fatalf("status = %s, want canceled", got.Status)
	}
	if err := s.Cancel(job.ID); !errors.Is(err, ErrTerminal) {
		t.Errorf("second Cancel = %v, want ErrTerminal", err)
	}
	if err := s.Cancel("nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Cancel unknown = %v, want ErrNotFound", err)
	}
}

func TestCancellationWinsCompletionRace(t *testing.T) {
	s := testStore(10)
	job := mustCreate(t, s, "u1")
	_ = s.MarkRunning(job.ID)
	_ = s.Cancel(job.ID)

	if err := s.Complete(job.ID, &plan.GeneratedPlan{}); !errors.Is(err, ErrTerminal) {
		t.Fatalf("Complete after Cancel = %v, want ErrTerminal", err)
	}
	got, _ := s.Get(job.ID)
	if got.Status != StatusCanceled || got.Result != nil {
		t.Fatalf("canceled job mutated by late completion: %+v", got)
	}
}

func TestEvictsOldestNonRunning(t *testing.T) {
	s := testStore(3)
	base := time.Now()

	setClock(s, base)
	oldest := mustCreate(t, s, "u1")
	_ = s.MarkRunning(oldest.ID)
	_ = s.Complete(oldest.ID, nil)

	setClock(s, base.Add(time.Minute))
	running := mustCreate(t, s, "u1")
	_ = s.MarkRunning(running.ID)

	setClock(s, base.Add(2*time.Minute))
	pending := mustCreate(t, s, "u2")

	setClock(s, base.Add(3*time.Minute))
	newest := mustCreate(t, s, "u3")

	if s.Len() != 3 {
		t.Fatalf("Len = %d, want capacity 3", s.Len())
	}
	if _, err := s.Get(oldest.ID); !errors.Is(err, ErrNotFound) {
		t.Error("oldest non-running job should have been evicted")
	}
	for _, id := range []string{running.ID, pending.ID, newest.ID} {
		if _, err := s.Get(id); err != nil {
			t.Errorf("job %s unexpectedly gone: %v", id, err)
		}
	}
}

func TestCapacityAllRunning(t *testing.T) {
	s := testStore(2)
	for i := 0; i < 2; i++ {
		job := mustCreate(t, s, "u1")
		_ = s.MarkRunning(job.ID)
	}

	_, err := s.Create("u2", plan.ProjectConfig{PlotWidth: 10, PlotLength: 12}, nil)
	if !errors.Is(err, ErrCapacity) {
		t.Fatalf("Create at capacity with all jobs running = %v, want ErrCapacity", err)
	}
}

func TestEvictionCancelsPendingJob(t *testing.T) {
	s := testStore(1)
	fired := make(chan struct{})
	base := time.Now()

	setClock(s, base)
	if _, err := s.Create("u1", plan.ProjectConfig{PlotWidth: 10, PlotLength: 12}, func() { close(fired) }); err != nil {
		t.Fatalf("Create: %v", err)
	}

	setClock(s, base.Add(time.Second))
	mustCreate(t, s, "u2")

	select {
	case <-fired:
	default:
		t.Fatal("evicting a pending job must fire its cancel func")
	}
}

func TestTTLSweepExemptsRunning(t *testing.T) {
	s := testStore(10)
	base := time.Now()

	setClock(s, base)
	done := mustCreate(t, s, "u1")
	_ = s.MarkRunning(done.ID)
	_ = s.Complete(done.ID, nil)

	longRunner := mustCreate(t, s, "u1")
	_ = s.MarkRunning(longRunner.ID)

	// Past the TTL, a new create lazily sweeps the idle job but leaves
	// the running one alone.
	setClock(s, base.Add(31*time.Minute))
	mustCreate(t, s, "u2")

	if _, err := s.Get(done.ID); !errors.Is(err, ErrNotFound) {
		t.Error("terminal job past TTL should be swept")
	}
	if _, err := s.Get(longRunner.ID); err != nil {
		t.Errorf("running job must survive the TTL, got %v", err)
	}
}

func TestGetExpiredJobNotFound(t *testing.T) {
	// A terminal job past the TTL reads as gone even before any sweep
	// ran: Get itself enforces expiry.
	s := testStore(10)
	base := time.Now()

	setClock(s, base)
	job := mustCreate(t, s, "u1")
	_ = s.MarkRunning(job.ID)
	_ = s.Complete(job.ID, &plan.GeneratedPlan{TotalArea: 90})

	setClock(s, base.Add(2*time.Hour))
	if _, err := s.Get(job.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get on expired job = %v, want ErrNotFound", err)
	}

	// A running job of the same age is still served.
	s2 := testStore(10)
	setClock(s2, base)
	runner := mustCreate(t, s2, "u1")
	_ = s2.MarkRunning(runner.ID)
	setClock(s2, base.Add(2*time.Hour))
	if got, err := s2.Get(runner.ID); err != nil || got.Status != StatusRunning {
		t.Fatalf("running job expired from Get: %+v, %v", got, err)
	}
}

func TestCountActive(t *testing.T) {
	s := testStore(10)
	a := mustCreate(t, s, "u1")
	_ = s.MarkRunning(a.ID)
	b := mustCreate(t, s, "u1")
	done := mustCreate(t, s, "u1")
	_ = s.MarkRunning(done.ID)
	_ = s.Complete(done.ID, nil)
	mustCreate(t, s, "u2")

	if got := s.CountActive("u1"); got != 2 {
		t.Errorf("CountActive(u1) = %d, want 2 (running %s + pending %s)", got, a.ID, b.ID)
	}
	if got := s.CountActive("u2"); got != 1 {
		t.Errorf("CountActive(u2) = %d, want 1", got)
	}
	if got := s.CountActive("ghost"); got != 0 {
		t.Errorf("CountActive(ghost) = %d, want 0", got)
	}
}

func TestBackgroundSweeper(t *testing.T) {
	s := NewStore(Config{Capacity: 10, TTL: time.Millisecond, SweepInterval: 5 * time.Millisecond}, nil)
	s.Start()
	defer s.Stop()

	job := mustCreate(t, s, "u1")
	_ = s.MarkRunning(job.ID)
	_ = s.Complete(job.ID, nil)

	deadline := time.After(2 * time.Second)
	for s.Len() > 0 {
		select {
		case <-deadline:
			t.Fatal("sweeper did not collect the expired job")
		case <-time.After(10 * time.Millisecond):
		}
	}

	// Start and Stop are idempotent.
	s.Start()
	s.Stop()
	s.Stop()
}

func TestCountByStatus(t *testing.T) {
	s := testStore(10)
	r := mustCreate(t, s, "u1")
	_ = s.MarkRunning(r.ID)
	mustCreate(t, s, "u1")
	f := mustCreate(t, s, "u2")
	_ = s.MarkRunning(f.ID)
	_ = s.Fail(f.ID, errors.New("x"))

	counts := s.CountByStatus()
	if counts[StatusRunning] != 1 || counts[StatusPending] != 1 || counts[StatusFailed] != 1 {
		t.Fatalf("CountByStatus = %v", counts)
	}
}
