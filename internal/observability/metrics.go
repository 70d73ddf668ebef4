// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/pdiddy/pkd-literature/internal/httputil"
	"github.com/pdiddy/pkd-literature/pkg/types"
)

// Namespace prefixes every metric name.
const Namespace = "pkd_literature"

// Metrics holds the run's Prometheus collectors on a private registry. The
// job is a batch run, so metrics are written to a textfile at exit rather
// than scraped.
type Metrics struct {
	Registry *prometheus.Registry

	// SourceRequests counts HTTP requests by source and outcome (ok, transient, permanent).
	SourceRequests *prometheus.CounterVec

	// SourceRetries counts backoff retries by source.
	SourceRetries *prometheus.CounterVec

	// PapersFetched counts in-window records returned per source before dedup.
	PapersFetched *prometheus.CounterVec

	// SourceStatus is 1 for the status each source ended in.
	SourceStatus *prometheus.GaugeVec

	// DuplicatesRemoved counts records dropped by deduplication.
	DuplicatesRemoved prometheus.Counter

	// PapersByCategory counts final papers per category.
	PapersByCategory *prometheus.CounterVec

	// RunDuration observes end-to-end pipeline duration in seconds.
	RunDuration prometheus.Histogram
}

// NewMetrics creates and registers all collectors on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		SourceRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "source_requests_total",
			Help:      "HTTP requests to literature APIs by source and outcome",
		}, []string{"source", "outcome"}),
		SourceRetries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "source_retries_total",
			Help:      "Retried HTTP requests by source",
		}, []string{"source"}),
		PapersFetched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "papers_fetched_total",
			Help:      "In-window papers returned per source before deduplication",
		}, []string{"source"}),
		SourceStatus: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "source_status",
			Help:      "Final fetch status per source (1 for the status reached)",
		}, []string{"source", "status"}),
		DuplicatesRemoved: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "duplicates_removed_total",
			Help:      "Papers removed by cross-source deduplication",
		}),
		PapersByCategory: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "papers_by_category_total",
			Help:      "Final papers per category",
		}, []string{"category"}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "run_duration_seconds",
			Help:      "End-to-end pipeline duration",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}),
	}
	m.Registry.MustRegister(
		m.SourceRequests,
		m.SourceRetries,
		m.PapersFetched,
		m.SourceStatus,
		m.DuplicatesRemoved,
		m.PapersByCategory,
		m.RunDuration,
	)
	return m
}

// SourceObserver returns an httputil.Observer that records requests for src.
// A nil Metrics yields a nil Observer.
func (m *Metrics) SourceObserver(src types.SourceDatabase) httputil.Observer {
	if m == nil {
		return nil
	}
	return sourceObserver{m: m, source: string(src)}
}

type sourceObserver struct {
	m      *Metrics
	source string
}

func (o sourceObserver) ObserveRequest(outcome string) {
	o.m.SourceRequests.WithLabelValues(o.source, outcome).Inc()
}

func (o sourceObserver) ObserveRetry() {
	o.m.SourceRetries.WithLabelValues(o.source).Inc()
}

// RecordRun records the per-source, dedup and category figures of a run.
// It is a no-op on a nil Metrics.
func (m *Metrics) RecordRun(stats types.Stats, elapsed time.Duration) {
	if m == nil {
		return
	}
	for _, r := range stats.Sources {
		m.PapersFetched.WithLabelValues(string(r.Source)).Add(float64(r.Fetched))
		for _, st := range []types.FetchStatus{types.FetchSucceeded, types.FetchPartial, types.FetchFailed} {
			v := 0.0
			if r.Status == st {
				v = 1
			}
			m.SourceStatus.WithLabelValues(string(r.Source), string(st)).Set(v)
		}
	}
	m.DuplicatesRemoved.Add(float64(stats.DuplicatesRemoved))
	for cat, n := range stats.PerCategory {
		m.PapersByCategory.WithLabelValues(string(cat)).Add(float64(n))
	}
	m.RunDuration.Observe(elapsed.Seconds())
}

// WriteTextfile writes every collected metric to path in the Prometheus text
// format, for pickup by node_exporter's textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.Registry)
}
