package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder records pipeline metrics in Prometheus
type Recorder struct {
	matches   *prometheus.CounterVec
	returned  *prometheus.CounterVec
	signals   *prometheus.CounterVec
	skipped   *prometheus.CounterVec
	persisted *prometheus.CounterVec
	errors    *prometheus.CounterVec
	duration  prometheus.Histogram
}

// New creates a recorder registered on reg.
// Pass prometheus.DefaultRegisterer in production, a fresh registry in tests.
func New(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)

	return &Recorder{
		matches: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "screener_matches_total",
				Help: "Total upstream matches reported by the scanner",
			},
			[]string{"strategy"},
		),
		returned: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "screener_rows_returned_total",
				Help: "Rows returned by the scanner",
			},
			[]string{"strategy"},
		),
		signals: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "screener_signals_total",
				Help: "Signals accepted by the normalizer",
			},
			[]string{"strategy"},
		),
		skipped: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "screener_rows_skipped_total",
				Help: "Rows dropped by the normalizer",
			},
			[]string{"strategy", "reason"},
		),
		persisted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "screener_signals_persisted_total",
				Help: "Signals written to the store",
			},
			[]string{"policy"},
		),
		errors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "screener_errors_total",
				Help: "Errors by kind",
			},
			[]string{"kind"},
		),
		duration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "screener_run_duration_seconds",
				Help:    "Duration of a full screener run",
				Buckets: prometheus.DefBuckets,
			},
		),
	}
}

// Error kinds
const (
	ErrorScan    = "scan"
	ErrorPersist = "persist"
	ErrorEvict   = "evict"
	ErrorConfig  = "config"
)

// RecordScan records one strategy's scanner response
func (r *Recorder) RecordScan(strategy string, total, returned int) {
	if r == nil {
		return
	}
	r.matches.WithLabelValues(strategy).Add(float64(total))
	r.returned.WithLabelValues(strategy).Add(float64(returned))
}

// RecordSignals records accepted signals for a strategy
func (r *Recorder) RecordSignals(strategy string, n int) {
	if r == nil {
		return
	}
	r.signals.WithLabelValues(strategy).Add(float64(n))
}

// RecordSkipped records a dropped row
func (r *Recorder) RecordSkipped(strategy, reason string) {
	if r == nil {
		return
	}
	r.skipped.WithLabelValues(strategy, reason).Inc()
}

// RecordPersisted records rows written
func (r *Recorder) RecordPersisted(policy string, n int) {
	if r == nil {
		return
	}
	r.persisted.WithLabelValues(policy).Add(float64(n))
}

// RecordError records an error occurrence
func (r *Recorder) RecordError(kind string) {
	if r == nil {
		return
	}
	r.errors.WithLabelValues(kind).Inc()
}

// RecordDuration records run duration in seconds
func (r *Recorder) RecordDuration(seconds float64) {
	if r == nil {
		return
	}
	r.duration.Observe(seconds)
}
