// Package metrics records pipeline counters and durations with prometheus.
// skillflow is a CLI, so metrics are flushed to a node-exporter textfile
// instead of being served.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// Namespace prefixes every metric name.
const Namespace = "skillflow"

// Collector holds the pipeline metrics. A nil *Collector is valid and records nothing.
type Collector struct {
	registry *prometheus.Registry

	runsTotal       *prometheus.CounterVec
	candidatesTotal *prometheus.CounterVec
	stageDuration   *prometheus.HistogramVec
	registrySkills  prometheus.Gauge

	logger *zap.Logger
}

// NewCollector creates a collector backed by its own registry.
func NewCollector(logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Collector{
		registry: reg,
		runsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "runs_total",
				Help:      "Total number of pipeline runs by outcome",
			},
			[]string{"outcome"},
		),
		candidatesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "candidates_total",
				Help:      "Candidates judged by the security policy, by verdict",
			},
			[]string{"verdict"},
		),
		stageDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "stage_duration_seconds",
				Help:      "Pipeline stage duration in seconds",
				Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 30},
			},
			[]string{"stage"},
		),
		registrySkills: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: Namespace,
				Name:      "registry_skills",
				Help:      "Number of skills in the registry after the last run",
			},
		),
		logger: logger.With(zap.String("component", "metrics")),
	}
}

// RecordRun counts a finished run.
func (c *Collector) RecordRun(success bool) {
	if c == nil {
		return
	}
	outcome := "failed"
	if success {
		outcome = "success"
	}
	c.runsTotal.WithLabelValues(outcome).Inc()
}

// RecordCandidate counts one policy verdict.
func (c *Collector) RecordCandidate(verdict string) {
	if c == nil {
		return
	}
	c.candidatesTotal.WithLabelValues(verdict).Inc()
}

// ObserveStage records how long a stage took.
func (c *Collector) ObserveStage(stage string, d time.Duration) {
	if c == nil {
		return
	}
	c.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// SetRegistrySize records the current registry size.
func (c *Collector) SetRegistrySize(n int) {
	if c == nil {
		return
	}
	c.registrySkills.Set(float64(n))
}

// Gatherer exposes the underlying registry. A nil collector has none.
func (c *Collector) Gatherer() prometheus.Gatherer {
	if c == nil {
		return nil
	}
	return c.registry
}

// WriteTextfile writes all metrics in text exposition format to path.
// The write is atomic, as required by the node-exporter textfile collector.
func (c *Collector) WriteTextfile(path string) error {
	if c == nil || path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, c.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	c.logger.Debug("metrics written", zap.String("path", path))
	return nil
}
