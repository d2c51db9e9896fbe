package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors for the hazard service.
type Metrics struct {
	// Source fetch metrics.
	SourceFetches  *prometheus.CounterVec   // labels: source, outcome={success,error,timeout}
	SourceDuration *prometheus.HistogramVec // labels: source
	SourceHazards  *prometheus.GaugeVec     // labels: source

	// Output metrics.
	SafetyScores  prometheus.Histogram
	ScoreFailures prometheus.Counter
	HeatmapCells  prometheus.Histogram
}

func newMetrics() *Metrics {
	return &Metrics{
		SourceFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "resqmap",
			Name:      "source_fetches_total",
			Help:      "Hazard feed fetches by source and outcome.",
		}, []string{"source", "outcome"}),
		SourceDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "resqmap",
			Name:      "source_fetch_duration_seconds",
			Help:      "Duration of a single hazard feed fetch.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15},
		}, []string{"source"}),
		SourceHazards: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "resqmap",
			Name:      "source_hazards",
			Help:      "Hazards returned by the most recent fetch of each source.",
		}, []string{"source"}),
		SafetyScores: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "resqmap",
			Name:      "safety_score_overall",
			Help:      "Distribution of computed overall safety scores.",
			Buckets:   prometheus.LinearBuckets(0, 10, 11),
		}),
		ScoreFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "resqmap",
			Name:      "safety_score_failures_total",
			Help:      "Safety score requests answered with the neutral default.",
		}),
		HeatmapCells: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "resqmap",
			Name:      "heatmap_cells",
			Help:      "Number of points in generated heatmaps.",
			Buckets:   prometheus.ExponentialBuckets(10, 4, 6),
		}),
	}
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.SourceFetches,
		m.SourceDuration,
		m.SourceHazards,
		m.SafetyScores,
		m.ScoreFailures,
		m.HeatmapCells,
	)
	return m
}

// NewMetricsForTesting creates unregistered metrics so tests can build as many
// as they like.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

// SourceFetched records the outcome of one source fetch.
func (m *Metrics) SourceFetched(source string, count int, elapsed time.Duration, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
		if IsTimeout(err) {
			outcome = "timeout"
		}
	}
	m.SourceFetches.WithLabelValues(source, outcome).Inc()
	m.SourceDuration.WithLabelValues(source).Observe(elapsed.Seconds())
	if err == nil {
		m.SourceHazards.WithLabelValues(source).Set(float64(count))
	}
}
