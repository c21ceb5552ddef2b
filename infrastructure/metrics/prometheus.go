// Package metrics provides the Prometheus implementation of the
// pipeline's metrics collector.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/showscore/marquee/internal/ports"
)

// PrometheusMetrics implements ports.MetricsCollector using Prometheus.
// It tracks pipeline throughput (reviews normalized, discrepancies found,
// ensemble outcomes) and stage latency for batch-run monitoring.
type PrometheusMetrics struct {
	stageLatency *prometheus.HistogramVec
	counters     *prometheus.CounterVec
	gauges       *prometheus.GaugeVec
}

var _ ports.MetricsCollector = (*PrometheusMetrics)(nil)

// NewPrometheusMetrics creates a collector and registers its metrics in
// the global Prometheus registry.
func NewPrometheusMetrics() *PrometheusMetrics {
	return &PrometheusMetrics{
		stageLatency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "marquee_stage_duration_seconds",
				Help:    "Execution time of pipeline stage operations.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		counters: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marquee_pipeline_events_total",
				Help: "Pipeline event counts: normalized reviews, parked evidence, duplicates, ensemble consensus outcomes, discrepancies.",
			},
			[]string{"metric", "kind", "model"},
		),
		gauges: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "marquee_pipeline_state",
				Help: "Current pipeline state values, such as productions covered.",
			},
			[]string{"metric"},
		),
	}
}

// RecordLatency records operation latency in the stage histogram.
func (pm *PrometheusMetrics) RecordLatency(operation string, duration time.Duration, _ map[string]string) {
	pm.stageLatency.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordCounter increments an event counter. The "kind" and "model"
// labels are taken from the labels map when present.
func (pm *PrometheusMetrics) RecordCounter(metric string, value float64, labels map[string]string) {
	pm.counters.WithLabelValues(metric, labels["kind"], labels["model"]).Add(value)
}

// RecordGauge sets a pipeline state gauge.
func (pm *PrometheusMetrics) RecordGauge(metric string, value float64, _ map[string]string) {
	pm.gauges.WithLabelValues(metric).Set(value)
}
