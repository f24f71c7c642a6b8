package server

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics collects the orchestration and LLM counters exposed at
// /metrics. It doubles as the gemini.Observer wired into the client, so
// every model call and fallback activation lands here without the
// client knowing about Prometheus.
type Metrics struct {
	registry *prometheus.Registry

	jobsStarted  prometheus.Counter
	jobsFinished *prometheus.CounterVec
	iterations   prometheus.Histogram

	llmCalls    *prometheus.CounterVec
	llmDuration *prometheus.HistogramVec
	fallbacks   *prometheus.CounterVec
}

// NewMetrics builds the metric set on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		jobsStarted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "archai",
			Name:      "jobs_started_total",
			Help:      "Generation jobs dispatched to the orchestrator.",
		}),
		jobsFinished: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "archai",
			Name:      "jobs_finished_total",
			Help:      "Generation jobs by terminal status.",
		}, []string{"status"}),
		iterations: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "archai",
			Name:      "job_iterations",
			Help:      "Refinement iterations a completed job needed.",
			Buckets:   []float64{1, 2, 3, 4, 5, 6, 8, 10},
		}),
		llmCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "archai",
			Name:      "llm_calls_total",
			Help:      "Gemini calls by model and outcome.",
		}, []string{"model", "outcome"}),
		llmDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "archai",
			Name:      "llm_call_seconds",
			Help:      "Gemini call latency by model, retries included.",
			Buckets:   prometheus.ExponentialBuckets(0.25, 2, 10),
		}, []string{"model"}),
		fallbacks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "archai",
			Name:      "llm_fallbacks_total",
			Help:      "Fallback-chain activations by primary and substitute model.",
		}, []string{"primary", "fallback"}),
	}
}

// Registry exposes the backing registry for the /metrics handler.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// JobStarted records a dispatched job.
func (m *Metrics) JobStarted() { m.jobsStarted.Inc() }

// JobFinished records a terminal status.
func (m *Metrics) JobFinished(status string) {
	m.jobsFinished.WithLabelValues(status).Inc()
}

// ObserveIterations records how many iterations a run took.
func (m *Metrics) ObserveIterations(n int) {
	m.iterations.Observe(float64(n))
}

// ObserveCall implements gemini.Observer.
func (m *Metrics) ObserveCall(model, outcome string, d time.Duration) {
	m.llmCalls.WithLabelValues(model, outcome).Inc()
	m.llmDuration.WithLabelValues(model).Observe(d.Seconds())
}

// ObserveFallback implements gemini.Observer.
func (m *Metrics) ObserveFallback(primary, fallback string) {
	m.fallbacks.WithLabelValues(primary, fallback).Inc()
}
