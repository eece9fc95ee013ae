// Package metrics exposes Prometheus collectors for digest runs.
package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/push"
)

const namespace = "youtube_digest"

// Rejection reasons for listing entries.
const (
	RejectEmptyID   = "empty_id"
	RejectDuplicate = "duplicate"
	RejectLength    = "length"
	RejectChannelID = "channel_id"
)

// Transcript and summary outcomes.
const (
	OutcomeOK          = "ok"
	OutcomeEmpty       = "empty"
	OutcomeFailed      = "failed"
	OutcomePlaceholder = "placeholder"
)

// Metrics groups the collectors of one process. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	registry *prometheus.Registry

	videosEnumerated prometheus.Counter
	entriesRejected  *prometheus.CounterVec
	listingFailures  prometheus.Counter
	transcripts      *prometheus.CounterVec
	summaries        *prometheus.CounterVec
	runs             *prometheus.CounterVec
	runDuration      prometheus.Histogram
}

// New creates the collectors on a private registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		videosEnumerated: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "videos_enumerated_total",
			Help:      "Video records accepted from channel listings.",
		}),
		entriesRejected: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "listing_entries_rejected_total",
			Help:      "Listing entries skipped because they are not videos.",
		}, []string{"reason"}),
		listingFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "listing_failures_total",
			Help:      "Channel listings that could not be resolved.",
		}),
		transcripts: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transcripts_total",
			Help:      "Transcript retrievals by outcome.",
		}, []string{"outcome"}),
		summaries: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "summaries_total",
			Help:      "Video summaries by outcome.",
		}, []string{"outcome"}),
		runs: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Digest runs by final status.",
		}, []string{"status"}),
		runDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of a digest run.",
			Buckets:   []float64{10, 30, 60, 120, 300, 600, 1200, 2400},
		}),
	}
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Push sends the current values to a Pushgateway. Used by one-shot CLI runs
// that are gone before a scrape could happen.
func (m *Metrics) Push(ctx context.Context, gatewayURL, job string) error {
	if m == nil || gatewayURL == "" {
		return nil
	}
	if err := push.New(gatewayURL, job).Gatherer(m.registry).PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics to %s: %w", gatewayURL, err)
	}
	return nil
}

// VideoAccepted counts one accepted listing entry.
func (m *Metrics) VideoAccepted() {
	if m == nil {
		return
	}
	m.videosEnumerated.Inc()
}

// EntryRejected counts one skipped listing entry.
func (m *Metrics) EntryRejected(reason string) {
	if m == nil {
		return
	}
	m.entriesRejected.WithLabelValues(reason).Inc()
}

// ListingFailed counts one unresolved listing.
func (m *Metrics) ListingFailed() {
	if m == nil {
		return
	}
	m.listingFailures.Inc()
}

// Transcript counts one transcript retrieval.
func (m *Metrics) Transcript(outcome string) {
	if m == nil {
		return
	}
	m.transcripts.WithLabelValues(outcome).Inc()
}

// Summary counts one summary.
func (m *Metrics) Summary(outcome string) {
	if m == nil {
		return
	}
	m.summaries.WithLabelValues(outcome).Inc()
}

// RunFinished records the status and duration of a run.
func (m *Metrics) RunFinished(status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(status).Inc()
	m.runDuration.Observe(elapsed.Seconds())
}
