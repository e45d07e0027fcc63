// Package metrics provides Prometheus metrics for analysis runs and an
// observability.AnalysisHooks implementation that records them.
package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/chazu/liftplan/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Run metrics
	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "liftplan_runs_total",
			Help: "Total number of analysis runs",
		},
		[]string{"status"},
	)

	RunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "liftplan_run_duration_seconds",
			Help:    "Wall-clock duration of analysis runs",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60, 300},
		},
	)

	ComponentsAnalysed = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "liftplan_run_components",
			Help:    "Number of accepted components per run",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		},
	)

	InputRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "liftplan_input_rejections_total",
			Help: "Total number of component records rejected at load time",
		},
		[]string{"reason"},
	)

	// Sequencing metrics
	RoundsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "liftplan_rounds_total",
			Help: "Total number of sequencing rounds",
		},
		[]string{"forced"},
	)

	ComponentsRemoved = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "liftplan_components_removed_total",
			Help: "Total number of components assigned to disassembly groups",
		},
	)

	DeadlocksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "liftplan_deadlocks_total",
			Help: "Total number of deadlock-forced removals",
		},
	)

	// Collision metrics
	IntersectionTests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "liftplan_intersection_tests_total",
			Help: "Total number of exact solid intersection tests",
		},
		[]string{"kernel", "result"},
	)

	IntersectionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "liftplan_intersection_duration_seconds",
			Help:    "Time taken by exact solid intersection tests",
			Buckets: prometheus.ExponentialBuckets(1e-6, 4, 10),
		},
		[]string{"kernel"},
	)

	ComputationFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "liftplan_computation_failures_total",
			Help: "Total number of boolean operations that could not be computed",
		},
		[]string{"kernel"},
	)
)

// Compile-time interface check.
var _ observability.AnalysisHooks = Hooks{}

// Hooks records analysis events into the package metrics.
type Hooks struct{}

func (Hooks) OnRunStart(_ context.Context, _ string, components int) {
	ComponentsAnalysed.Observe(float64(components))
}

func (Hooks) OnRunComplete(_ context.Context, _ string, _ int, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	RunsTotal.WithLabelValues(status).Inc()
	RunDuration.Observe(duration.Seconds())
}

func (Hooks) OnInputRejected(_ context.Context, reason string) {
	InputRejections.WithLabelValues(reason).Inc()
}

func (Hooks) OnRound(_ context.Context, _ int, removed int, forced bool) {
	RoundsTotal.WithLabelValues(fmt.Sprint(forced)).Inc()
	ComponentsRemoved.Add(float64(removed))
}

func (Hooks) OnDeadlock(context.Context, int, int64) {
	DeadlocksTotal.Inc()
}

func (Hooks) OnIntersectionTest(_ context.Context, kernel string, hit bool, duration time.Duration) {
	result := "clear"
	if hit {
		result = "hit"
	}
	IntersectionTests.WithLabelValues(kernel, result).Inc()
	IntersectionDuration.WithLabelValues(kernel).Observe(duration.Seconds())
}

func (Hooks) OnComputationFailure(_ context.Context, kernel string) {
	ComputationFailures.WithLabelValues(kernel).Inc()
}

// WriteTextfile writes the default registry in the node_exporter textfile
// format, for batch runs that exit before a scrape could happen.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, prometheus.DefaultGatherer); err != nil {
		return fmt.Errorf("metrics: write %s: %w", path, err)
	}
	return nil
}
