// Package observability turns task and process lifecycle events into
// Prometheus metrics and structured log lines.
package observability

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aretw0/gantry/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics collects per run counters and durations. A build run is short
// lived, so metrics are exported to a node_exporter textfile instead of
// being served.
type Metrics struct {
	registry        *prometheus.Registry
	taskRuns        *prometheus.CounterVec
	taskDuration    *prometheus.HistogramVec
	processRuns     *prometheus.CounterVec
	processDuration *prometheus.HistogramVec
}

// NewMetrics creates the collectors on a private registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		taskRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gantry_task_runs_total",
				Help: "Total number of task executions by outcome",
			},
			[]string{"task", "outcome"},
		),
		taskDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gantry_task_duration_seconds",
				Help:    "Duration of task actions",
				Buckets: prometheus.ExponentialBuckets(0.01, 4, 8),
			},
			[]string{"task"},
		),
		processRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gantry_process_runs_total",
				Help: "Total number of external processes by outcome",
			},
			[]string{"command", "outcome"},
		),
		processDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gantry_process_duration_seconds",
				Help:    "Duration of external processes",
				Buckets: prometheus.ExponentialBuckets(0.01, 4, 8),
			},
			[]string{"command"},
		),
	}
	m.registry.MustRegister(m.taskRuns, m.taskDuration, m.processRuns, m.processDuration)
	return m
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Hooks returns lifecycle hooks recording into m.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTaskFinish: func(_ context.Context, e *domain.TaskEvent) {
			m.taskRuns.WithLabelValues(e.Task, outcome(e.Err)).Inc()
			m.taskDuration.WithLabelValues(e.Task).Observe(e.Duration.Seconds())
		},
		OnProcessFinish: func(_ context.Context, e *domain.ProcessEvent) {
			label := e.Command.Label()
			result := outcome(e.Err)
			if e.Err == nil && e.ExitCode != 0 {
				result = "exit_nonzero"
			}
			m.processRuns.WithLabelValues(label, result).Inc()
			m.processDuration.WithLabelValues(label).Observe(e.Duration.Seconds())
		},
	}
}

// WriteTextfile writes the current values in the text exposition format.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}

func outcome(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}

// LogHooks returns lifecycle hooks writing debug lines to logger.
func LogHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTaskStart: func(ctx context.Context, e *domain.TaskEvent) {
			logger.DebugContext(ctx, "task_start", "task", e.Task, "target", e.Target, "depth", e.Depth)
		},
		OnTaskFinish: func(ctx context.Context, e *domain.TaskEvent) {
			logger.DebugContext(ctx, "task_finish", "task", e.Task, "target", e.Target, "duration", e.Duration, "error", e.Err)
		},
		OnProcessStart: func(ctx context.Context, e *domain.ProcessEvent) {
			logger.DebugContext(ctx, "process_start", "command", e.Command.String(), "dir", e.Command.Dir)
		},
		OnProcessFinish: func(ctx context.Context, e *domain.ProcessEvent) {
			logger.DebugContext(ctx, "process_finish", "command", e.Command.String(), "exit_code", e.ExitCode, "duration", e.Duration, "error", e.Err)
		},
	}
}
