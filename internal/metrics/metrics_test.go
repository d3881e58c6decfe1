package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"PercentileBoard/internal/matrix"
	"PercentileBoard/internal/model"
)

func TestObserveCycle(t *testing.T) {
	m := New()

	m.ObserveCycle(&matrix.Result{
		Requested:    make([]model.Pair, 3),
		Observations: make([]model.Observation, 1),
		Failures: []error{
			&matrix.FetchError{Instrument: "SPY", Window: 20, Cause: errors.New("x")},
			&matrix.EmptySeriesError{Instrument: "SPY", Window: 50},
		},
	}, 1, 150*time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.cycles.WithLabelValues("partial")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.pairFailures.WithLabelValues("fetch")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.pairFailures.WithLabelValues("empty_series")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.observations))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rows))
	assert.Greater(t, testutil.ToFloat64(m.lastSuccess), 0.0)

	m.ObserveCycle(&matrix.Result{
		Requested: make([]model.Pair, 1),
		Failures:  []error{errors.New("down")},
	}, 0, time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.cycles.WithLabelValues("failed")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.observations))
}

func TestObserveCycle_NilMetrics(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveCycle(&matrix.Result{}, 0, 0)
	})
}
