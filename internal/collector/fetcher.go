package collector

import (
	"context"

	"PercentileBoard/internal/model"
)

// Fetcher retrieves the percentile series for one instrument at one window.
// Implementations make exactly one outbound call per invocation and do not
// retry; retries belong to the caller.
type Fetcher interface {
	FetchSeries(ctx context.Context, inst model.Instrument, window model.WindowSize) (*model.Series, error)
	Name() string
}
