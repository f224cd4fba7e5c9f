// Package metrics provides Prometheus metrics for feedtoot runs.
//
// A run is a short-lived batch job, so metrics live on a private registry
// and are pushed to a Pushgateway at the end of the run instead of scraped.
package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
)

const namespace = "feedtoot"

// Metrics holds the collectors for one process.
type Metrics struct {
	registry        *prometheus.Registry
	entries         *prometheus.CounterVec
	publishDuration prometheus.Histogram
	lastSuccess     prometheus.Gauge
}

// New registers the collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		entries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "entries_total",
				Help:      "Feed entries processed, by terminal outcome",
			},
			[]string{"outcome"},
		),
		publishDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "publish_duration_seconds",
				Help:      "Duration of publish attempts in seconds",
				Buckets:   prometheus.DefBuckets,
			},
		),
		lastSuccess: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "run_last_success_timestamp_seconds",
				Help:      "Unix time of the last run that iterated the whole feed",
			},
		),
	}
}

// RecordOutcome counts one entry's terminal outcome.
func (m *Metrics) RecordOutcome(outcome string) {
	m.entries.WithLabelValues(outcome).Inc()
}

// RecordPublish observes one publish attempt's duration.
func (m *Metrics) RecordPublish(d time.Duration) {
	m.publishDuration.Observe(d.Seconds())
}

// MarkRunComplete stamps the completion time of a run.
func (m *Metrics) MarkRunComplete(t time.Time) {
	m.lastSuccess.Set(float64(t.Unix()))
}

// Registry exposes the registry for gathering.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Push sends the registry to the Pushgateway at url under job.
func (m *Metrics) Push(ctx context.Context, url, job string) error {
	if err := push.New(url, job).Gatherer(m.registry).PushContext(ctx); err != nil {
		return fmt.Errorf("failed to push metrics: %w", err)
	}
	return nil
}
