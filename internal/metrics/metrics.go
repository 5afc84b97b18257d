package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors of the extractor.
var Metrics = struct {
	RetrievalsTotal   *prometheus.CounterVec
	RetrievalDuration prometheus.Histogram
	SummariesTotal    *prometheus.CounterVec
	ExportsTotal      *prometheus.CounterVec
	ExtractionsActive prometheus.Gauge
	SessionsActive    prometheus.Gauge
}{
	RetrievalsTotal: prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "transcript_retrievals_total",
			Help: "Transcript retrievals against the remote service, by outcome.",
		},
		[]string{"outcome"},
	),
	RetrievalDuration: prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "transcript_retrieval_duration_seconds",
			Help:    "Duration of transcript retrieval calls.",
			Buckets: prometheus.DefBuckets,
		},
	),
	SummariesTotal: prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "transcript_summaries_total",
			Help: "Summary requests against the remote service, by outcome.",
		},
		[]string{"outcome"},
	),
	ExportsTotal: prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "transcript_exports_total",
			Help: "Generated export artifacts, by format.",
		},
		[]string{"format"},
	),
	ExtractionsActive: prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "transcript_extractions_in_flight",
			Help: "Extractions currently running.",
		},
	),
	SessionsActive: prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "transcript_sessions_active",
			Help: "Sessions currently held in memory.",
		},
	),
}

const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

var registerOnce sync.Once

// Register adds all collectors to reg. Only the first call has an effect.
func Register(reg prometheus.Registerer) {
	registerOnce.Do(func() {
		reg.MustRegister(
			Metrics.RetrievalsTotal,
			Metrics.RetrievalDuration,
			Metrics.SummariesTotal,
			Metrics.ExportsTotal,
			Metrics.ExtractionsActive,
			Metrics.SessionsActive,
		)
	})
}

// Outcome maps an error to a metric label.
func Outcome(err error) string {
	if err != nil {
		return OutcomeFailure
	}
	return OutcomeSuccess
}
