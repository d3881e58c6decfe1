package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"PercentileBoard/internal/matrix"
)

// Metrics holds the board's Prometheus collectors.
type Metrics struct {
	Registry *prometheus.Registry

	cycles        *prometheus.CounterVec
	pairFailures  *prometheus.CounterVec
	observations  prometheus.Gauge
	rows          prometheus.Gauge
	cycleDuration prometheus.Histogram
	lastSuccess   prometheus.Gauge
}

// New creates the collectors and registers them on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		cycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "percentile_board",
			Name:      "refresh_cycles_total",
			Help:      "Board refresh cycles by outcome (complete, partial, failed).",
		}, []string{"outcome"}),
		pairFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "percentile_board",
			Name:      "pair_failures_total",
			Help:      "Failed (instrument, window) requests by kind.",
		}, []string{"kind"}),
		observations: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "percentile_board",
			Name:      "observations",
			Help:      "Observations collected in the last cycle.",
		}),
		rows: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "percentile_board",
			Name:      "rows",
			Help:      "Table rows produced in the last cycle.",
		}),
		cycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "percentile_board",
			Name:      "refresh_duration_seconds",
			Help:      "Wall time of a full refresh cycle.",
			Buckets:   prometheus.DefBuckets,
		}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "percentile_board",
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last cycle that produced at least one observation.",
		}),
	}
	m.Registry.MustRegister(m.cycles, m.pairFailures, m.observations, m.rows, m.cycleDuration, m.lastSuccess)
	return m
}

// ObserveCycle records the outcome of one refresh.
func (m *Metrics) ObserveCycle(res *matrix.Result, rows int, elapsed time.Duration) {
	if m == nil {
		return
	}
	outcome := "complete"
	switch {
	case res.TotalFailure():
		outcome = "failed"
	case len(res.Failures) > 0:
		outcome = "partial"
	}
	m.cycles.WithLabelValues(outcome).Inc()

	for _, err := range res.Failures {
		kind := "fetch"
		var empty *matrix.EmptySeriesError
		if errors.As(err, &empty) {
			kind = "empty_series"
		}
		m.pairFailures.WithLabelValues(kind).Inc()
	}

	m.observations.Set(float64(len(res.Observations)))
	m.rows.Set(float64(rows))
	m.cycleDuration.Observe(elapsed.Seconds())
	if len(res.Observations) > 0 {
		m.lastSuccess.SetToCurrentTime()
	}
}
