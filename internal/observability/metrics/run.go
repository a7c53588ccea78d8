// Package metrics provides Prometheus metrics for a single bot run.
//
// The bot is a batch job, so metrics are registered on a private registry and
// pushed to a Pushgateway when the run ends instead of being scraped.
package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
)

// JobName is the Pushgateway job label for this bot.
const JobName = "osrs_bluesky_bot"

// RunMetrics holds the metrics recorded during one invocation.
type RunMetrics struct {
	registry *prometheus.Registry

	// RunsTotal counts runs by outcome (success, idle, failed).
	RunsTotal *prometheus.CounterVec

	// StageDuration measures each pipeline stage in seconds.
	StageDuration *prometheus.HistogramVec

	// PostsPublishedTotal counts posts submitted to the network.
	PostsPublishedTotal prometheus.Counter

	// MediaDownloadFailuresTotal counts absorbed media download failures.
	MediaDownloadFailuresTotal prometheus.Counter

	// LastSuccessTimestamp is the Unix time of the last successful run.
	LastSuccessTimestamp prometheus.Gauge
}

// NewRunMetrics creates RunMetrics registered on a fresh registry.
func NewRunMetrics() *RunMetrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &RunMetrics{
		registry: reg,
		RunsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bot_runs_total",
				Help: "Total number of bot runs by outcome",
			},
			[]string{"outcome"},
		),
		StageDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bot_stage_duration_seconds",
				Help:    "Duration of each pipeline stage in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"stage"},
		),
		PostsPublishedTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "bot_posts_published_total",
				Help: "Total number of posts published",
			},
		),
		MediaDownloadFailuresTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "bot_media_download_failures_total",
				Help: "Total number of media downloads that failed",
			},
		),
		LastSuccessTimestamp: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "bot_last_success_timestamp_seconds",
				Help: "Unix timestamp of the last successful run",
			},
		),
	}
}

// Registry returns the registry the metrics are registered on.
func (m *RunMetrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordRun records the final outcome of a run.
func (m *RunMetrics) RecordRun(outcome string) {
	m.RunsTotal.WithLabelValues(outcome).Inc()
	if outcome == "success" {
		m.LastSuccessTimestamp.SetToCurrentTime()
	}
}

// ObserveStage records how long a pipeline stage took.
func (m *RunMetrics) ObserveStage(stage string, d time.Duration) {
	m.StageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// RecordPublished records a submitted post.
func (m *RunMetrics) RecordPublished() {
	m.PostsPublishedTotal.Inc()
}

// RecordMediaFailure records an absorbed media download failure.
func (m *RunMetrics) RecordMediaFailure() {
	m.MediaDownloadFailuresTotal.Inc()
}

// Push sends the registry to the Pushgateway at url, grouped by instance.
func (m *RunMetrics) Push(ctx context.Context, url, instance string) error {
	pusher := push.New(url, JobName).Gatherer(m.registry)
	if instance != "" {
		pusher = pusher.Grouping("instance", instance)
	}
	if err := pusher.PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics: %w", err)
	}
	return nil
}
